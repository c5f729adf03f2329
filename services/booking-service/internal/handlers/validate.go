package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/model"
)

// newValidator returns a validator that reports fields by their JSON names and knows the booking formats:
// clock (HH:MM start time), date (YYYY-MM-DD), price (decimal with two places) and status.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "clock", func(fl validator.FieldLevel) bool {
		_, err := availability.ParseStart(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "date", func(fl validator.FieldLevel) bool {
		_, err := model.ParseDate(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "price", func(fl validator.FieldLevel) bool {
		return model.ValidPrice(fl.Field().String())
	})
	mustRegister(v, "status", func(fl validator.FieldLevel) bool {
		return model.Status(fl.Field().String()).Valid()
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("register validation " + tag + ": " + err.Error())
	}
}

// fieldErrors flattens validator errors into field -> message.
func fieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid":
		return "must be a uuid"
	case "clock":
		return "must be a time of day as HH:MM"
	case "date":
		return "must be a date as YYYY-MM-DD"
	case "price":
		return "must be a non-negative amount with at most two decimals"
	case "status":
		return "must be one of pending, confirmed, cancelled, completed"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

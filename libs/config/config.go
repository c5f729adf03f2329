package config

import (
	"fmt"
	"strconv"

	"github.com/kelseyhightower/envconfig"
)

// Load fills a struct tagged with `envconfig:"NAME" default:"..." required:"true"` from the
// environment.
func Load(dst any) error {
	if err := envconfig.Process("", dst); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return nil
}

// ValidatePort reports whether v is a usable TCP port number.
func ValidatePort(name, v string) error {
	if err := validPort(v); err != nil {
		return fmt.Errorf("%s %w", name, err)
	}
	return nil
}

func validPort(v string) error {
	p, err := strconv.Atoi(v)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("must be a valid TCP port (got %q)", v)
	}
	return nil
}

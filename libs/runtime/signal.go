package runtime

import (
	"context"
	"os/signal"
	"syscall"
	"time"
)

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Shutdown runs each step with its own deadline of timeout, in order, after the serving context has
// been cancelled. Errors are reported through onErr and do not stop later steps.
func Shutdown(timeout time.Duration, onErr func(name string, err error), steps ...ShutdownStep) {
	for _, step := range steps {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := step.Fn(ctx); err != nil && onErr != nil {
			onErr(step.Name, err)
		}
		cancel()
	}
}

// ShutdownStep is one named piece of teardown.
type ShutdownStep struct {
	Name string
	Fn   func(context.Context) error
}

package errutil

import (
	"context"
	"errors"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Handle logs err and forwards it to Sentry when a client is configured.
// It is the single sink for errors that are recorded rather than returned.
func Handle(ctx context.Context, msg string, err error) {
	if err == nil {
		return
	}

	logger := ctxlog.From(ctx)
	logger.Error(msg, "error", err)

	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}

	hub = hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("message", msg)
		if values := goerrValues(err); len(values) > 0 {
			scope.SetContext("goerr", values)
		}
		hub.CaptureException(err)
	})
}

// goerrValues flattens the values attached with goerr.V into a Sentry context
func goerrValues(err error) sentry.Context {
	var gErr *goerr.Error
	if !errors.As(err, &gErr) {
		return nil
	}

	values := sentry.Context{}
	for k, v := range gErr.Values() {
		values[k] = fmt.Sprintf("%v", v)
	}
	return values
}

package transport

import (
	"context"
)

type ctxKey int

const refreshExemptKey ctxKey = iota

// WithoutRefresh marks a request's context so a 401 response is surfaced
// directly instead of triggering a refresh. The login and refresh calls
// themselves use this; anything else going through the pipeline gets the
// retry behaviour.
func WithoutRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, refreshExemptKey, true)
}

func refreshExempt(ctx context.Context) bool {
	exempt, _ := ctx.Value(refreshExemptKey).(bool)
	return exempt
}

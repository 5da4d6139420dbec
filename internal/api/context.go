package api

import "context"

// callContextKey is the context key carrying the CallContext bag through a
// request.
type callContextKey struct{}

// WithCallContext attaches a call context bag to ctx. The gateway surfaces
// populate it from inbound headers before handing off to tool execution.
func WithCallContext(ctx context.Context, call CallContext) context.Context {
	return context.WithValue(ctx, callContextKey{}, call)
}

// CallContextFrom extracts the call context bag from ctx, returning the zero
// value when none was attached.
func CallContextFrom(ctx context.Context) CallContext {
	if call, ok := ctx.Value(callContextKey{}).(CallContext); ok {
		return call
	}
	return CallContext{}
}

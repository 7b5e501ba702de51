package transport

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/rhuss/askgate/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to server error responses. The server continues to
// accept new requests after a panic is recovered.
func Recovery() Middleware {
	return func(next Answerer) Answerer {
		return AnswerFunc(func(ctx context.Context, req *api.AskRequest) (resp *api.AskResponse, retErr error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("panic in answer handler",
						"request_id", RequestIDFromContext(ctx), "panic", r, "stack", string(debug.Stack()))
					resp = nil
					retErr = api.NewServerError("Internal server error")
				}
			}()
			return next.Answer(ctx, req)
		})
	}
}

// RecoverHTTP is Recovery for plain HTTP handlers. A panic becomes a JSON
// server_error response unless the handler already started writing one.
func RecoverHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := newStatusWriter(w)
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.Error("panic in http handler",
				"request_id", RequestIDFromContext(r.Context()), "method", r.Method, "path", r.URL.Path,
				"panic", rec, "stack", string(debug.Stack()))
			if !sw.wroteHeader {
				WriteAPIError(sw, api.NewServerError("Internal server error"))
			}
		}()
		next.ServeHTTP(sw, r)
	})
}

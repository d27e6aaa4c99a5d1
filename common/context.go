package common

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gofrs/uuid/v5"
)

// RequestContext carries the per-request state handlers need besides the request itself.
type RequestContext struct {
	RequestID uuid.UUID
	Page      Page
}

// GetLogger is a helper to get logger from context or fallback
func GetLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger stores a request scoped logger into the context
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetRequestContext is a helper to get RequestContext from context or nil if there is no such
func GetRequestContext(ctx context.Context) *RequestContext {
	if requestContext, ok := ctx.Value(RequestContextKey).(*RequestContext); ok {
		return requestContext
	}
	return nil
}

// WithRequestContext stores the RequestContext into the context
func WithRequestContext(ctx context.Context, requestContext *RequestContext) context.Context {
	return context.WithValue(ctx, RequestContextKey, requestContext)
}

// NewRequestContext creates a new RequestContext for an incoming request
func NewRequestContext(request *http.Request, limits PageLimits) *RequestContext {
	return &RequestContext{
		RequestID: uuid.Must(uuid.NewV4()),
		Page:      NewPageFromRequest(request, limits),
	}
}

package web

import (
	"context"
	"net/http"

	"github.com/animelib/catalog/internal/core"
)

// WithRequestMetadata adds IP and User-Agent to context for audit logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithClient(ctx, core.ClientInfo{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})
}

package response

import (
	"net/http"

	ctxpkg "github.com/baechuer/admin-console/internal/pkg/context"
)

// RequestIDFromContext returns the id set by middleware.RequestID, if any.
func RequestIDFromContext(r *http.Request) string {
	return ctxpkg.GetRequestID(r.Context())
}

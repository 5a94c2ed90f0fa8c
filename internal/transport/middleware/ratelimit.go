package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/transport"
)

// RateLimit throttles by client IP using an in-memory store. rate uses the
// limiter format, e.g. "10-M" for ten requests a minute.
func RateLimit(rate string, trustProxy bool, lg *slog.Logger) (func(http.Handler) http.Handler, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", rate, err)
	}

	writer := transport.NewBaseHandler(lg)
	instance := limiter.New(memory.NewStore(), parsed,
		limiter.WithTrustForwardHeader(trustProxy))

	mw := stdlib.NewMiddleware(instance,
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			lg.WarnContext(r.Context(), "rate limit reached", "path", r.URL.Path, "ip", ClientIP(r, trustProxy))
			writer.WriteError(w, internal.ErrTooManyAttempts)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			lg.ErrorContext(r.Context(), "rate limiter failed", "error", err)
			writer.WriteError(w, internal.NewInternalError("Internal server error", err))
		}),
	)
	return mw.Handler, nil
}

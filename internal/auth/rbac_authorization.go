package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/transport"
)

type RBACAuthorization struct {
	checker PermissionChecker
	logger  *slog.Logger
	writer  *transport.BaseHandler
}

func NewRBACAuthorization(checker PermissionChecker, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		checker: checker,
		logger:  logger,
		writer:  transport.NewBaseHandler(logger),
	}
}

// Require answers 401 without a principal and 403 when the role lacks the
// capability.
func (ra *RBACAuthorization) Require(capability Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := internal.UserFromContext(r.Context())
			if !ok {
				ra.logger.WarnContext(r.Context(), "authorization check failed: user not found in context")
				ra.writer.WriteError(w, internal.ErrSessionInvalid)
				return
			}

			if !ra.checker.Can(user, capability) {
				ra.logger.WarnContext(r.Context(), "access denied: insufficient role",
					"user_id", user.ID,
					"role", user.Role,
					"required_capability", capability)
				ra.writer.WriteError(w, internal.ErrInsufficientRole)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

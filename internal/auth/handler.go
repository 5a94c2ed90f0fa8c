package auth

import (
	"context"
	"net/http"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/transport"
	"github.com/frahmantamala/contacthub/pkg/logger"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (*LoginResult, error)
	ResolveSession(ctx context.Context, token string) (*internal.User, error)
	Logout(ctx context.Context, token string) error
	SelectDivision(ctx context.Context, user *internal.User, divisionID *int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Cookies *CookieManager
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI, cookies *CookieManager) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
		Cookies:     cookies,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	result, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	if err := h.Cookies.Set(w, result.Token, result.ExpiresAt); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, UserResponse{User: result.User})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token, _ := h.Cookies.Read(r)
	if err := h.Service.Logout(r.Context(), token); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.Cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, appErr := transport.CurrentUser(r)
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	h.WriteJSON(w, http.StatusOK, UserResponse{User: user})
}

func (h *Handler) SelectDivision(w http.ResponseWriter, r *http.Request) {
	user, appErr := transport.CurrentUser(r)
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	var dto SelectDivisionDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	if err := h.Service.SelectDivision(r.Context(), user, dto.DivisionID); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, UserResponse{User: user})
}

// Authenticate resolves the session cookie and attaches the principal.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := h.Cookies.Read(r)
		if err != nil {
			h.WriteError(w, internal.ErrSessionInvalid)
			return
		}

		user, err := h.Service.ResolveSession(r.Context(), token)
		if err != nil {
			h.HandleServiceError(w, r, err)
			return
		}

		ctx := internal.ContextWithUser(r.Context(), user)
		ctx = logger.With(ctx, "user_id", user.ID, "role", user.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuthenticate attaches the principal when a valid session cookie is
// present and otherwise serves the request anonymously.
func (h *Handler) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := h.Cookies.Read(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		user, err := h.Service.ResolveSession(r.Context(), token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(internal.ContextWithUser(r.Context(), user)))
	})
}

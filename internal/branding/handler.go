package branding

import (
	"context"
	"net/http"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/transport"
)

type ServiceAPI interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, actor *internal.User, dto UpdateBrandingDTO) (*Settings, error)
	Effective(ctx context.Context, user *internal.User) (Theme, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// GetBranding handles GET /branding. It is public so the login page can be
// themed before a session exists.
func (h *Handler) GetBranding(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.Get(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, Resolve(nil, settings))
}

func (h *Handler) UpdateBranding(w http.ResponseWriter, r *http.Request) {
	actor, appErr := transport.CurrentUser(r)
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	var dto UpdateBrandingDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	settings, err := h.Service.Update(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, settings)
}

func (h *Handler) GetEffectiveBranding(w http.ResponseWriter, r *http.Request) {
	user, _ := internal.UserFromContext(r.Context())
	theme, err := h.Service.Effective(r.Context(), user)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, theme)
}

// ThemeCSS handles GET /branding/theme.css
func (h *Handler) ThemeCSS(w http.ResponseWriter, r *http.Request) {
	user, _ := internal.UserFromContext(r.Context())
	theme, err := h.Service.Effective(r.Context(), user)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(theme.CSS())); err != nil {
		h.Logger.Error("failed to write theme css", "error", err)
	}
}

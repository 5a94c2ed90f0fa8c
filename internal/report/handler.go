package report

import (
	"context"
	"net/http"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/transport"
)

type ServiceAPI interface {
	ContactStats(ctx context.Context, user *internal.User, divisionID *int64) (*ContactStats, error)
	CompanyStats(ctx context.Context) (*CompanyStats, error)
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

func (h *Handler) GetContactStats(w http.ResponseWriter, r *http.Request) {
	user, appErr := transport.CurrentUser(r)
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	divisionID, appErr := transport.ParseOptionalID(r, "divisionId")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	stats, err := h.Service.ContactStats(r.Context(), user, divisionID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) GetCompanyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.CompanyStats(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stats)
}

package division

import (
	"context"
	"net/http"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, user *internal.User) ([]*Division, error)
	Get(ctx context.Context, user *internal.User, id int64) (*Division, error)
	Create(ctx context.Context, dto CreateDivisionDTO) (*Division, error)
	Update(ctx context.Context, id int64, dto UpdateDivisionDTO) (*Division, error)
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

func (h *Handler) ListDivisions(w http.ResponseWriter, r *http.Request) {
	user, appErr := transport.CurrentUser(r)
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	divisions, err := h.Service.List(r.Context(), user)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, DivisionsResponse{Divisions: divisions})
}

func (h *Handler) GetDivision(w http.ResponseWriter, r *http.Request) {
	user, appErr := transport.CurrentUser(r)
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	id, appErr := transport.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	d, err := h.Service.Get(r.Context(), user, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) CreateDivision(w http.ResponseWriter, r *http.Request) {
	var dto CreateDivisionDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	d, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) UpdateDivision(w http.ResponseWriter, r *http.Request) {
	id, appErr := transport.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	var dto UpdateDivisionDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	d, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, d)
}

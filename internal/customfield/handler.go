package customfield

import (
	"context"
	"net/http"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, user *internal.User, divisionID *int64) ([]*Definition, error)
	Create(ctx context.Context, user *internal.User, dto CreateCustomFieldDTO) (*Definition, error)
	Update(ctx context.Context, id int64, dto UpdateCustomFieldDTO) (*Definition, error)
	Deactivate(ctx context.Context, id int64) error
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

func (h *Handler) ListCustomFields(w http.ResponseWriter, r *http.Request) {
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
	defs, err := h.Service.List(r.Context(), user, divisionID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, CustomFieldsResponse{CustomFields: defs})
}

func (h *Handler) CreateCustomField(w http.ResponseWriter, r *http.Request) {
	user, appErr := transport.CurrentUser(r)
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	var dto CreateCustomFieldDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	def, err := h.Service.Create(r.Context(), user, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, def)
}

func (h *Handler) UpdateCustomField(w http.ResponseWriter, r *http.Request) {
	id, appErr := transport.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	var dto UpdateCustomFieldDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	def, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, def)
}

// DeleteCustomField handles DELETE /custom-fields/{id}; the definition is
// deactivated, not removed.
func (h *Handler) DeleteCustomField(w http.ResponseWriter, r *http.Request) {
	id, appErr := transport.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	if err := h.Service.Deactivate(r.Context(), id); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

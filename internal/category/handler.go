package category

import (
	"context"
	"net/http"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, user *internal.User, divisionID *int64) ([]*Category, error)
	Create(ctx context.Context, user *internal.User, dto CreateCategoryDTO) (*Category, error)
	Update(ctx context.Context, user *internal.User, id int64, dto UpdateCategoryDTO) (*Category, error)
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

func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
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
	categories, err := h.Service.List(r.Context(), user, divisionID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, CategoriesResponse{Categories: categories})
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	user, appErr := transport.CurrentUser(r)
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	var dto CreateCategoryDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	c, err := h.Service.Create(r.Context(), user, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
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
	var dto UpdateCategoryDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	c, err := h.Service.Update(r.Context(), user, id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

package contact

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, user *internal.User, filter ListFilter) (*ContactsResponse, error)
	Get(ctx context.Context, user *internal.User, id int64) (*Contact, error)
	Create(ctx context.Context, user *internal.User, dto CreateContactDTO) (*Contact, error)
	Update(ctx context.Context, user *internal.User, id int64, dto UpdateContactDTO) (*Contact, error)
	Delete(ctx context.Context, user *internal.User, id int64) error
	BulkDelete(ctx context.Context, user *internal.User, dto BulkDeleteDTO) (*BulkDeleteResponse, error)
	Export(ctx context.Context, user *internal.User, filter ListFilter) (*Table, error)
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

func parseFilter(r *http.Request) (ListFilter, *internal.AppError) {
	divisionID, appErr := transport.ParseOptionalID(r, "divisionId")
	if appErr != nil {
		return ListFilter{}, appErr
	}
	categoryID, appErr := transport.ParseOptionalID(r, "categoryId")
	if appErr != nil {
		return ListFilter{}, appErr
	}
	limit, offset := transport.ParsePagination(r)
	return ListFilter{
		DivisionID: divisionID,
		CategoryID: categoryID,
		Search:     strings.TrimSpace(r.URL.Query().Get("search")),
		Limit:      limit,
		Offset:     offset,
	}, nil
}

func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	user, appErr := transport.CurrentUser(r)
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	filter, appErr := parseFilter(r)
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	resp, err := h.Service.List(r.Context(), user, filter)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
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
	c, err := h.Service.Get(r.Context(), user, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	user, appErr := transport.CurrentUser(r)
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	var dto CreateContactDTO
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

func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
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
	var dto UpdateContactDTO
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

func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
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
	if err := h.Service.Delete(r.Context(), user, id); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) BulkDeleteContacts(w http.ResponseWriter, r *http.Request) {
	user, appErr := transport.CurrentUser(r)
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	var dto BulkDeleteDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	resp, err := h.Service.BulkDelete(r.Context(), user, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) ExportContacts(w http.ResponseWriter, r *http.Request) {
	user, appErr := transport.CurrentUser(r)
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = FormatCSV
	}
	if !ValidFormat(format) {
		h.WriteError(w, internal.NewValidationFieldError("format", "format must be one of: csv, xlsx", internal.ErrCodeUnsupportedFormat))
		return
	}
	filter, appErr := parseFilter(r)
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	table, err := h.Service.Export(r.Context(), user, filter)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	filename := fmt.Sprintf("contacts-%s.%s", time.Now().UTC().Format("20060102-150405"), format)
	w.Header().Set("Content-Type", ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	write := table.WriteCSV
	if format == FormatXLSX {
		write = table.WriteXLSX
	}
	if err := write(w); err != nil {
		h.Logger.ErrorContext(r.Context(), "failed to write contact export", "format", format, "error", err)
	}
}

package upload

import (
	"context"
	"errors"
	"net/http"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/transport"
)

// multipart overhead allowed on top of the file size limit
const formOverheadBytes = 1 << 20

type ServiceAPI interface {
	MaxBytes() int64
	Create(ctx context.Context, user *internal.User, in Intake) (*Upload, error)
	List(ctx context.Context, user *internal.User, filter ListFilter) ([]*Upload, error)
	Get(ctx context.Context, user *internal.User, id int64) (*Upload, error)
	Columns(ctx context.Context, user *internal.User, id int64) (*ColumnsResponse, error)
	Process(ctx context.Context, user *internal.User, id int64, dto ProcessUploadDTO) (*Upload, error)
	Delete(ctx context.Context, user *internal.User, id int64) error
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

func (h *Handler) CreateUpload(w http.ResponseWriter, r *http.Request) {
	user, appErr := transport.CurrentUser(r)
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Service.MaxBytes()+formOverheadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.WriteError(w, internal.ErrFileTooLarge)
			return
		}
		h.WriteError(w, internal.NewValidationError("invalid multipart form", internal.ErrCodeInvalidRequest))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.WriteError(w, internal.NewValidationFieldError("file", "file is required", internal.ErrCodeValidationFailed))
		return
	}
	defer file.Close()

	divisionID, appErr := transport.ParseOptionalFormID(r, "divisionId")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	up, err := h.Service.Create(r.Context(), user, Intake{
		OriginalName: header.Filename,
		Size:         header.Size,
		Content:      file,
		DivisionID:   divisionID,
	})
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, up)
}

func (h *Handler) ListUploads(w http.ResponseWriter, r *http.Request) {
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
	limit, offset := transport.ParsePagination(r)

	uploads, err := h.Service.List(r.Context(), user, ListFilter{
		DivisionID: divisionID,
		Status:     r.URL.Query().Get("status"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, UploadsResponse{Uploads: uploads})
}

func (h *Handler) GetUpload(w http.ResponseWriter, r *http.Request) {
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
	up, err := h.Service.Get(r.Context(), user, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, up)
}

func (h *Handler) GetUploadColumns(w http.ResponseWriter, r *http.Request) {
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
	columns, err := h.Service.Columns(r.Context(), user, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, columns)
}

func (h *Handler) ProcessUpload(w http.ResponseWriter, r *http.Request) {
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
	var dto ProcessUploadDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	up, err := h.Service.Process(r.Context(), user, id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusAccepted, up)
}

func (h *Handler) DeleteUpload(w http.ResponseWriter, r *http.Request) {
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

package audit

import (
	"context"
	"net/http"

	"github.com/frahmantamala/contacthub/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, filter Filter) (*ListResponse, error)
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

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	userID, appErr := transport.ParseOptionalID(r, "userId")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	limit, offset := transport.ParsePagination(r)
	q := r.URL.Query()

	resp, err := h.Service.List(r.Context(), Filter{
		EntityType: q.Get("entityType"),
		EntityID:   q.Get("entityId"),
		Action:     q.Get("action"),
		UserID:     userID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

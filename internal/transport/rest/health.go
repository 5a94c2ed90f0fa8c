package rest

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/contacthub/internal/transport"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checkedAt"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus `json:"status"`
	Message    string       `json:"message,omitempty"`
	DurationMs int64        `json:"durationMs"`
}

type HealthHandler struct {
	*transport.BaseHandler
	db        *sqlx.DB
	uploadDir string
}

func NewHealthHandler(base *transport.BaseHandler, db *sqlx.DB, uploadDir string) *HealthHandler {
	return &HealthHandler{BaseHandler: base, db: db, uploadDir: uploadDir}
}

// Ping only says the process is up.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// Health checks the database and the upload directory.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := map[string]CheckEntry{
		"database": check(func() error { return h.db.PingContext(ctx) }),
		"storage": check(func() error {
			_, err := os.Stat(h.uploadDir)
			return err
		}),
	}

	resp := HealthResponse{Status: HealthHealthy, CheckedAt: time.Now().UTC(), Components: components}
	statusCode := http.StatusOK
	for _, c := range components {
		if c.Status == HealthUnhealthy {
			resp.Status = HealthUnhealthy
			statusCode = http.StatusServiceUnavailable
		}
	}
	h.WriteJSON(w, statusCode, resp)
}

func check(probe func() error) CheckEntry {
	start := time.Now()
	err := probe()
	entry := CheckEntry{Status: HealthHealthy, DurationMs: time.Since(start).Milliseconds()}
	if err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	}
	return entry
}

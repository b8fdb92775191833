package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/larder/internal/app/system/batch"
	"github.com/dalemusser/larder/internal/app/system/dbretry"
	"github.com/dalemusser/larder/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client  *mongo.Client
	Log     *zap.Logger
	started time.Time
}

// NewHandler constructs a health Handler with the Mongo client and logger.
func NewHandler(client *mongo.Client, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Client:  client,
		Log:     logger,
		started: time.Now(),
	}
}

// tuning echoes the write knobs an operator may have overridden.
type tuning struct {
	BatchMaxOps     int    `json:"batch_max_ops"`
	StoreMaxRetries uint64 `json:"store_max_retries"`
	SweepTimeout    string `json:"sweep_timeout"`
}

type readyResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Tuning   tuning `json:"tuning"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health. It pings the primary.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "tuning":{...} }
//
// On DB failure: 503 with "status":"error" and the ping error.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := readyResponse{
		Status:   "ok",
		Database: "connected",
		Tuning: tuning{
			BatchMaxOps:     batch.MaxOps(),
			StoreMaxRetries: dbretry.Current().MaxRetries,
			SweepTimeout:    timeouts.Sweep().String(),
		},
	}

	status := http.StatusOK
	if h.Client == nil {
		status = http.StatusServiceUnavailable
		resp.Status, resp.Database, resp.Error = "error", "disconnected", "no database client"
	} else if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		status = http.StatusServiceUnavailable
		resp.Status, resp.Database, resp.Error = "error", "disconnected", err.Error()
	}
	writeJSON(w, status, resp)
}

// Live handles GET /health/live. It never touches the database, so an
// orchestrator does not restart the process over a MongoDB outage.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

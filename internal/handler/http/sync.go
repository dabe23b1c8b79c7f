package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	domainsync "github.com/quartzhr/attendance-sync-go/internal/domain/sync"
	"github.com/quartzhr/attendance-sync-go/internal/handler/http/response"
	"github.com/quartzhr/attendance-sync-go/internal/pkg/validator"
	syncservice "github.com/quartzhr/attendance-sync-go/internal/service/sync"
)

type SyncHandler interface {
	Status(w http.ResponseWriter, r *http.Request)
	Trigger(w http.ResponseWriter, r *http.Request)
}

type syncHandlerImpl struct {
	orchestrator *syncservice.Orchestrator
}

func NewSyncHandler(orchestrator *syncservice.Orchestrator) SyncHandler {
	return &syncHandlerImpl{orchestrator: orchestrator}
}

// Status implements SyncHandler.
func (h *syncHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.orchestrator.Status(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, status)
}

type triggerRequest struct {
	Mode string `json:"mode"`
	From string `json:"from,omitempty"` // YYYY-MM-DD, range mode only
	To   string `json:"to,omitempty"`   // YYYY-MM-DD, range mode only
}

// Trigger implements SyncHandler. The run executes synchronously; the
// response carries the run summary. A run already holding the stream
// answers 409.
func (h *syncHandlerImpl) Trigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode sync trigger request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if req.Mode == "" {
		req.Mode = string(domainsync.ModeIncremental)
	}

	var result domainsync.Result
	var err error

	switch domainsync.Mode(req.Mode) {
	case domainsync.ModeIncremental:
		result, err = h.orchestrator.RunIncremental(r.Context())
	case domainsync.ModeDaily:
		result, err = h.orchestrator.RunDaily(r.Context())
	case domainsync.ModeRange:
		from, fromOK := validator.IsValidDate(req.From)
		to, toOK := validator.IsValidDate(req.To)
		if !fromOK || !toOK {
			response.BadRequest(w, "from and to must be in YYYY-MM-DD format", nil)
			return
		}
		// Make the range inclusive of the last day.
		result, err = h.orchestrator.RunRange(r.Context(), from, to.Add(24*time.Hour))
	default:
		response.BadRequest(w, "mode must be one of: incremental, daily, range", nil)
		return
	}

	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Sync run finished", result)
}

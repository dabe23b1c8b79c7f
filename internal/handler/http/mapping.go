package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/quartzhr/attendance-sync-go/internal/domain/mapping"
	"github.com/quartzhr/attendance-sync-go/internal/handler/http/response"
	"github.com/quartzhr/attendance-sync-go/internal/service/identity"
)

type MappingHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Review(w http.ResponseWriter, r *http.Request)
}

type mappingHandlerImpl struct {
	mapper *identity.Mapper
}

func NewMappingHandler(mapper *identity.Mapper) MappingHandler {
	return &mappingHandlerImpl{mapper: mapper}
}

// List implements MappingHandler.
func (h *mappingHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	var status *mapping.Status
	if v := r.URL.Query().Get("status"); v != "" {
		s := mapping.Status(v)
		switch s {
		case mapping.StatusAutoMapped, mapping.StatusPendingReview, mapping.StatusRejected:
			status = &s
		default:
			response.BadRequest(w, "status must be one of: auto_mapped, pending_review, rejected", nil)
			return
		}
	}

	result, err := h.mapper.List(r.Context(), status)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// Review implements MappingHandler.
func (h *mappingHandlerImpl) Review(w http.ResponseWriter, r *http.Request) {
	var req mapping.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode mapping review request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ExternalCode = chi.URLParam(r, "externalCode")

	result, err := h.mapper.Review(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Mapping reviewed", result)
}

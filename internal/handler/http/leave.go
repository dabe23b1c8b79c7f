package http

import (
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/quartzhr/attendance-sync-go/internal/domain/leave"
	"github.com/quartzhr/attendance-sync-go/internal/handler/http/response"
	"github.com/quartzhr/attendance-sync-go/internal/pkg/validator"
	leaveservice "github.com/quartzhr/attendance-sync-go/internal/service/leave"
)

type LeaveHandler interface {
	Periods(w http.ResponseWriter, r *http.Request)
	SalarySummary(w http.ResponseWriter, r *http.Request)
}

type leaveHandlerImpl struct {
	leaveService *leaveservice.Service
}

func NewLeaveHandler(leaveService *leaveservice.Service) LeaveHandler {
	return &leaveHandlerImpl{leaveService: leaveService}
}

// Periods implements LeaveHandler.
func (h *leaveHandlerImpl) Periods(w http.ResponseWriter, r *http.Request) {
	employeeID, year, month, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	result, err := h.leaveService.MonthlyPeriods(r.Context(), employeeID, year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// SalarySummary implements LeaveHandler.
func (h *leaveHandlerImpl) SalarySummary(w http.ResponseWriter, r *http.Request) {
	employeeID, year, month, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	result, err := h.leaveService.SalarySummary(r.Context(), employeeID, year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// parseQuery reads employee_id (defaulting to the token identity) and the
// required month=YYYY-MM parameter. It writes the error response itself and
// reports ok=false when the request is unusable.
func (h *leaveHandlerImpl) parseQuery(w http.ResponseWriter, r *http.Request) (string, int, time.Month, bool) {
	monthStart, valid := validator.IsValidMonth(r.URL.Query().Get("month"))
	if !valid {
		response.HandleError(w, leave.ErrInvalidMonth)
		return "", 0, 0, false
	}

	employeeID := r.URL.Query().Get("employee_id")
	if employeeID == "" {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, "Invalid token")
			return "", 0, 0, false
		}
		id, ok := claims["employee_id"].(string)
		if !ok || id == "" {
			response.Unauthorized(w, "Invalid token")
			return "", 0, 0, false
		}
		employeeID = id
	}

	return employeeID, monthStart.Year(), monthStart.Month(), true
}

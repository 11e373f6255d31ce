/*
handlers.go - HTTP handlers for the leave engine

PURPOSE:
  Exposes the leave engine via REST. Handlers normalize HTTP requests into
  the engine's event types, run the engine, and return the outcome together
  with the composed messages a chat connector would deliver.

ENDPOINTS:
  POST /api/leave                    Submit a leave request
  POST /api/leave/{id}/approve       Approve a pending request
  POST /api/leave/{id}/decline       Decline a pending request
  GET  /api/balances/{employeeID}    Current balance snapshot
  GET  /api/report?limit=N           Recent requests, newest first
  GET  /health                       Health check

ERROR HANDLING:
  Domain errors are classified via leave.IsClientError / leave.IsNotFound:
  - 400: Validation errors, invalid input
  - 404: Request or balance not found
  - 500: Internal errors
  Business outcomes (insufficient balance, already decided) are 200s with a
  tagged outcome body - they are answers, not failures.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine   *leave.Engine
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler creates a new handler around the given engine.
func NewHandler(engine *leave.Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Engine:   engine,
		validate: validator.New(),
		logger:   logger,
	}
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// SubmitLeave handles a new leave request submission.
func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	var body SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	startDate, err := leave.ParseDate(body.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date", err)
		return
	}
	endDate, err := leave.ParseDate(body.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date", err)
		return
	}

	outcome, err := h.Engine.Submit(r.Context(), leave.SubmitLeaveEvent{
		EmployeeID:   body.EmployeeID,
		DisplayName:  body.DisplayName,
		Category:     body.Category,
		StartDate:    startDate,
		EndDate:      endDate,
		Reason:       body.Reason,
		ApproverID:   body.ApproverID,
		ApproverName: body.ApproverName,
	})
	if err != nil {
		h.writeDomainError(w, "submit leave", err)
		return
	}

	status := http.StatusOK
	if _, ok := outcome.(leave.Submitted); ok {
		status = http.StatusCreated
	}
	writeJSON(w, status, toOutcomeDTO(outcome))
}

// ApproveLeave handles an approve decision.
func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Engine.Approve)
}

// DeclineLeave handles a decline decision.
func (h *Handler) DeclineLeave(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Engine.Decline)
}

type decisionFunc func(ctx context.Context, ev leave.DecisionEvent) (leave.Outcome, error)

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, apply decisionFunc) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request id", err)
		return
	}

	var body DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	outcome, err := apply(r.Context(), leave.DecisionEvent{
		RequestID: id,
		ActorID:   body.ActorID,
		ActorName: body.ActorName,
		Note:      body.Note,
	})
	if err != nil {
		h.writeDomainError(w, "decide leave", err)
		return
	}

	writeJSON(w, http.StatusOK, toOutcomeDTO(outcome))
}

// GetBalance returns the current balance snapshot for an employee, creating
// the ledger row with defaults on first interaction.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	displayName := r.URL.Query().Get("display_name")
	if displayName == "" {
		displayName = employeeID
	}

	outcome, err := h.Engine.QueryBalance(r.Context(), leave.BalanceQueryEvent{
		EmployeeID:  employeeID,
		DisplayName: displayName,
	})
	if err != nil {
		h.writeDomainError(w, "query balance", err)
		return
	}

	writeJSON(w, http.StatusOK, toOutcomeDTO(outcome))
}

// GetReport returns the most recent leave requests, newest first.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = parsed
	}

	outcome, err := h.Engine.Report(r.Context(), leave.ReportQueryEvent{Limit: limit})
	if err != nil {
		h.writeDomainError(w, "report", err)
		return
	}

	writeJSON(w, http.StatusOK, toOutcomeDTO(outcome))
}

// Health is the health-check endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// =============================================================================
// OUTCOME RENDERING
// =============================================================================

// toOutcomeDTO flattens an engine outcome into the response envelope, with
// the composed messages attached.
func toOutcomeDTO(outcome leave.Outcome) OutcomeDTO {
	dto := OutcomeDTO{
		Outcome:  outcome.Kind(),
		Messages: toMessageDTOs(leave.Compose(outcome)),
	}

	switch v := outcome.(type) {
	case leave.Submitted:
		dto.Request = toLeaveRequestDTO(v.Request)
	case leave.InsufficientBalance:
		available := v.Available.InexactFloat64()
		requested := v.Requested
		dto.Available = &available
		dto.Requested = &requested
	case leave.Approved:
		dto.Request = toLeaveRequestDTO(v.Request)
	case leave.Declined:
		dto.Request = toLeaveRequestDTO(v.Request)
	case leave.AlreadyDecided:
		dto.Request = toLeaveRequestDTO(v.Request)
	case leave.BalanceSnapshot:
		dto.Balance = toBalanceDTO(v.Balance)
	case leave.Report:
		dto.Requests = toLeaveRequestDTOs(v.Requests)
	}
	return dto
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

func (h *Handler) writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case leave.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		h.logger.Error("internal error", zap.String("op", op), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

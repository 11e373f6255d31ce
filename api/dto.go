/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry go-playground/validator struct tags; handlers run the
  validator before anything touches the engine.

SEE ALSO:
  - handlers.go: Uses these types
  - leave/compose.go: Source of the message payloads
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// SubmitLeaveRequest is the request body for submitting a leave request.
type SubmitLeaveRequest struct {
	EmployeeID   string `json:"employee_id" validate:"required"`
	DisplayName  string `json:"display_name" validate:"required"`
	Category     string `json:"category" validate:"required"`
	StartDate    string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason       string `json:"reason"`
	ApproverID   string `json:"approver_id" validate:"required"`
	ApproverName string `json:"approver_name" validate:"required"`
}

// DecisionRequest is the request body for approving or declining.
type DecisionRequest struct {
	ActorID   string `json:"actor_id" validate:"required"`
	ActorName string `json:"actor_name" validate:"required"`
	Note      string `json:"note"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// LeaveRequestDTO represents a leave request in API responses.
type LeaveRequestDTO struct {
	ID           int64   `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	DisplayName  string  `json:"display_name"`
	Category     string  `json:"category"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	Days         int     `json:"days"`
	Reason       string  `json:"reason,omitempty"`
	Status       string  `json:"status"`
	ApproverID   string  `json:"approver_id"`
	ApproverName string  `json:"approver_name"`
	RequestedAt  string  `json:"requested_at"`
	RespondedAt  *string `json:"responded_at,omitempty"`
	ResponseNote string  `json:"response_note,omitempty"`
}

// BalanceDTO represents a leave balance in API responses.
type BalanceDTO struct {
	EmployeeID  string  `json:"employee_id"`
	DisplayName string  `json:"display_name"`
	Annual      float64 `json:"annual"`
	Sick        float64 `json:"sick"`
	Personal    float64 `json:"personal"`
	UpdatedAt   string  `json:"updated_at"`
}

// MessageDTO is a composed notification the connector should deliver.
type MessageDTO struct {
	Audience    string `json:"audience"`
	RecipientID string `json:"recipient_id,omitempty"`
	Text        string `json:"text"`
}

// OutcomeDTO is the uniform response envelope: the outcome tag, the variant
// payload, and the messages to deliver.
type OutcomeDTO struct {
	Outcome   string            `json:"outcome"`
	Request   *LeaveRequestDTO  `json:"request,omitempty"`
	Balance   *BalanceDTO       `json:"balance,omitempty"`
	Requests  []LeaveRequestDTO `json:"requests,omitempty"`
	Available *float64          `json:"available,omitempty"`
	Requested *int              `json:"requested,omitempty"`
	Messages  []MessageDTO      `json:"messages"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toLeaveRequestDTO(r *leave.LeaveRequest) *LeaveRequestDTO {
	dto := &LeaveRequestDTO{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		DisplayName:  r.DisplayName,
		Category:     string(r.Category),
		StartDate:    r.StartDate.String(),
		EndDate:      r.EndDate.String(),
		Days:         r.Days,
		Reason:       r.Reason,
		Status:       string(r.Status),
		ApproverID:   r.ApproverID,
		ApproverName: r.ApproverName,
		RequestedAt:  r.RequestedAt.Format(time.RFC3339),
		ResponseNote: r.ResponseNote,
	}
	if r.RespondedAt != nil {
		respondedAt := r.RespondedAt.Format(time.RFC3339)
		dto.RespondedAt = &respondedAt
	}
	return dto
}

func toLeaveRequestDTOs(requests []leave.LeaveRequest) []LeaveRequestDTO {
	dtos := make([]LeaveRequestDTO, len(requests))
	for i := range requests {
		dtos[i] = *toLeaveRequestDTO(&requests[i])
	}
	return dtos
}

func toBalanceDTO(b *leave.LeaveBalance) *BalanceDTO {
	return &BalanceDTO{
		EmployeeID:  b.EmployeeID,
		DisplayName: b.DisplayName,
		Annual:      b.Annual.InexactFloat64(),
		Sick:        b.Sick.InexactFloat64(),
		Personal:    b.Personal.InexactFloat64(),
		UpdatedAt:   b.UpdatedAt.Format(time.RFC3339),
	}
}

func toMessageDTOs(msgs []leave.Message) []MessageDTO {
	dtos := make([]MessageDTO, len(msgs))
	for i, m := range msgs {
		dtos[i] = MessageDTO{
			Audience:    string(m.Audience),
			RecipientID: m.RecipientID,
			Text:        m.Text,
		}
	}
	return dtos
}

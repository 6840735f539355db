package dto

import "github.com/yigit/enrollment/internal/app/registrar"

// RegisterRequest registers one student in one course
type RegisterRequest struct {
	StudentID  int64 `json:"studentId" binding:"required,gt=0" example:"1"`
	CourseCode int64 `json:"courseCode" binding:"required,gt=0" example:"101"`
}

// BatchRegisterRequest registers requests in order
type BatchRegisterRequest struct {
	Requests []RegisterRequest `json:"requests" binding:"required,min=1,dive"`
}

// ToRequests converts the batch into registrar requests
func (b BatchRegisterRequest) ToRequests() []registrar.Request {
	requests := make([]registrar.Request, len(b.Requests))
	for i, r := range b.Requests {
		requests[i] = registrar.Request{StudentID: r.StudentID, CourseCode: r.CourseCode}
	}
	return requests
}

// BatchSummary counts batch outcomes by status
type BatchSummary struct {
	Total    int `json:"total" example:"3"`
	Admitted int `json:"admitted" example:"2"`
	Denied   int `json:"denied" example:"1"`
	Failed   int `json:"failed" example:"0"`
}

// BatchRegisterResponse lists one outcome per request in request order
type BatchRegisterResponse struct {
	Outcomes []registrar.Outcome `json:"outcomes"`
	Summary  BatchSummary        `json:"summary"`
}

// NewBatchRegisterResponse summarizes outcomes
func NewBatchRegisterResponse(outcomes []registrar.Outcome) BatchRegisterResponse {
	summary := BatchSummary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Status {
		case registrar.StatusAdmitted:
			summary.Admitted++
		case registrar.StatusDenied:
			summary.Denied++
		default:
			summary.Failed++
		}
	}
	if outcomes == nil {
		outcomes = []registrar.Outcome{}
	}
	return BatchRegisterResponse{Outcomes: outcomes, Summary: summary}
}

package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/enrollment/internal/app/models/dto"
	"github.com/yigit/enrollment/internal/app/registrar"
	"github.com/yigit/enrollment/internal/middleware"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
)

// Registrar is the registration surface the controller drives
type Registrar interface {
	Register(ctx context.Context, studentID, courseCode int64) registrar.Outcome
	RegisterMany(ctx context.Context, requests []registrar.Request) []registrar.Outcome
	StudentLoad(ctx context.Context, studentID int64) (*registrar.Load, error)
	Withdraw(ctx context.Context, enrollmentNo int64) error
}

// EnrollmentController handles enrollment-related operations
type EnrollmentController struct {
	registrar Registrar
	maxBatch  int
}

// NewEnrollmentController creates a new EnrollmentController
func NewEnrollmentController(r Registrar, maxBatch int) *EnrollmentController {
	return &EnrollmentController{
		registrar: r,
		maxBatch:  maxBatch,
	}
}

// Register enrolls one student in one course
// @Summary Register a student in a course
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RegisterRequest true "Registration"
// @Success 201 {object} dto.APIResponse{data=registrar.Outcome} "Admitted"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 404 {object} dto.APIResponse{data=registrar.Outcome} "Student or course not found"
// @Failure 409 {object} dto.APIResponse{data=registrar.Outcome} "Cap exceeded or already enrolled"
// @Failure 503 {object} dto.APIResponse{data=registrar.Outcome} "Storage unavailable"
// @Router /enrollments [post]
func (c *EnrollmentController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	outcome := c.registrar.Register(ctx.Request.Context(), req.StudentID, req.CourseCode)
	middleware.HandleOutcome(ctx, outcome)
}

// RegisterBatch processes registrations in order and reports one outcome each
// @Summary Register a batch of enrollments
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BatchRegisterRequest true "Registrations in order"
// @Success 200 {object} dto.APIResponse{data=dto.BatchRegisterResponse} "Outcomes in request order"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Router /enrollments/batch [post]
func (c *EnrollmentController) RegisterBatch(ctx *gin.Context) {
	var req dto.BatchRegisterRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	if c.maxBatch > 0 && len(req.Requests) > c.maxBatch {
		err := apperrors.NewBadRequestError(fmt.Sprintf("at most %d requests per batch", c.maxBatch)).
			WithDetails(map[string]interface{}{"requests": len(req.Requests), "max": c.maxBatch})
		middleware.HandleAPIError(ctx, err)
		return
	}

	outcomes := c.registrar.RegisterMany(ctx.Request.Context(), req.ToRequests())
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewBatchRegisterResponse(outcomes)))
}

// Withdraw removes an enrollment by number
// @Summary Withdraw an enrollment
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param enrollmentNo path int true "Enrollment number"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Enrollment withdrawn"
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Router /enrollments/{enrollmentNo} [delete]
func (c *EnrollmentController) Withdraw(ctx *gin.Context) {
	enrollmentNo, ok := parseIDParam(ctx, "enrollmentNo")
	if !ok {
		return
	}

	if err := c.registrar.Withdraw(ctx.Request.Context(), enrollmentNo); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Enrollment withdrawn"}))
}

// StudentLoad reports a student's committed units against the cap
// @Summary Get a student's unit load
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=registrar.Load} "Load summary"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id}/load [get]
func (c *EnrollmentController) StudentLoad(ctx *gin.Context) {
	studentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	load, err := c.registrar.StudentLoad(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(load))
}

func parseIDParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+name).
			WithField(name).
			WithDetails("must be a positive integer")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/enrollment/internal/app/controllers"
	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/app/models/dto"
	"github.com/yigit/enrollment/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	enrollmentController *controllers.EnrollmentController,
	authMiddleware *middleware.AuthMiddleware,
) {
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
	})

	// API version group
	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware.JWTAuth())

	// Registrar-only writes
	enrollments := v1.Group("/enrollments")
	enrollments.Use(authMiddleware.RoleRequired(models.RoleRegistrar))
	{
		enrollments.POST("", enrollmentController.Register)
		enrollments.POST("/batch", enrollmentController.RegisterBatch)
		enrollments.DELETE("/:enrollmentNo", enrollmentController.Withdraw)
	}

	// Reads are open to auditors too
	students := v1.Group("/students")
	students.Use(authMiddleware.RoleRequired(models.RoleRegistrar, models.RoleAuditor))
	{
		students.GET("/:id/load", enrollmentController.StudentLoad)
	}
}

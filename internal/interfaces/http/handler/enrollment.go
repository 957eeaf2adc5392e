package handler

import (
	enterpriseapp "github.com/enterprise/backend/internal/application/enterprise"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EnrollmentHandler handles enterprise course enrollment API endpoints.
// Enrollments hang off the customer-user link, not the LMS user directly.
type EnrollmentHandler struct {
	BaseHandler
	enrollmentService *enterpriseapp.EnrollmentService
}

// NewEnrollmentHandler creates a new EnrollmentHandler
func NewEnrollmentHandler(enrollmentService *enterpriseapp.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollmentService: enrollmentService,
	}
}

// EnrollRequest represents a request to enroll a linked learner
// @Description Request body for enrolling a learner in a course run
type EnrollRequest struct {
	CourseRunID string `json:"course_run_id" binding:"required,min=1,max=255" example:"course-v1:edX+DemoX+Demo_Course"`
	CourseMode  string `json:"course_mode" binding:"required,oneof=audit verified professional no-id-professional honor" example:"verified"`
	Cohort      string `json:"cohort" binding:"max=255" example:""`
	Source      string `json:"source" binding:"omitempty,oneof=api admin offer_redemption" example:"api"`
}

// UpdateEnrollmentModeRequest represents a request to change the course mode
// @Description Request body for switching an enrollment's course mode
type UpdateEnrollmentModeRequest struct {
	CourseMode string `json:"course_mode" binding:"required,oneof=audit verified professional no-id-professional honor" example:"verified"`
}

// SavedForLaterRequest represents a request to toggle the saved-for-later flag
// @Description Request body for marking an enrollment saved for later
type SavedForLaterRequest struct {
	SavedForLater *bool `json:"saved_for_later" binding:"required"`
}

// Enroll godoc
// @ID           createEnterpriseEnrollment
// @Summary      Enroll a linked learner in a course run
// @Description  Enrolls the customer user, enforcing catalog membership and offered course modes
// @Tags         enrollments
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer user UUID" format(uuid)
// @Param        request body EnrollRequest true "Enrollment request"
// @Success      201 {object} APIResponse[enterpriseapp.EnrollmentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/customer-users/{id}/enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	customerUserID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer user ID format")
		return
	}

	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	enrollment, err := h.enrollmentService.Enroll(c.Request.Context(), customerUserID, enterpriseapp.EnrollRequest{
		CourseRunID: req.CourseRunID,
		CourseMode:  req.CourseMode,
		Cohort:      req.Cohort,
		Source:      req.Source,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, enrollment)
}

// ListByUser godoc
// @ID           listEnterpriseEnrollments
// @Summary      List a linked learner's enterprise enrollments
// @Tags         enrollments
// @Produce      json
// @Param        id path string true "Customer user UUID" format(uuid)
// @Success      200 {object} APIResponse[[]enterpriseapp.EnrollmentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/customer-users/{id}/enrollments [get]
func (h *EnrollmentHandler) ListByUser(c *gin.Context) {
	customerUserID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer user ID format")
		return
	}

	enrollments, err := h.enrollmentService.ListByUser(c.Request.Context(), customerUserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, enrollments)
}

// Unenroll godoc
// @ID           deleteEnterpriseEnrollment
// @Summary      Unenroll a linked learner from a course run
// @Tags         enrollments
// @Param        id path string true "Customer user UUID" format(uuid)
// @Param        course_run_id path string true "Course run ID"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/customer-users/{id}/enrollments/{course_run_id} [delete]
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	customerUserID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer user ID format")
		return
	}

	courseRunID := c.Param("course_run_id")
	if courseRunID == "" {
		h.BadRequest(c, "Course run ID is required")
		return
	}

	if err := h.enrollmentService.Unenroll(c.Request.Context(), customerUserID, courseRunID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// UpdateMode godoc
// @ID           updateEnterpriseEnrollmentMode
// @Summary      Switch the course mode of an enrollment
// @Tags         enrollments
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer user UUID" format(uuid)
// @Param        course_run_id path string true "Course run ID"
// @Param        request body UpdateEnrollmentModeRequest true "Mode update request"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/customer-users/{id}/enrollments/{course_run_id}/mode [patch]
func (h *EnrollmentHandler) UpdateMode(c *gin.Context) {
	customerUserID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer user ID format")
		return
	}

	courseRunID := c.Param("course_run_id")
	if courseRunID == "" {
		h.BadRequest(c, "Course run ID is required")
		return
	}

	var req UpdateEnrollmentModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.enrollmentService.UpdateMode(c.Request.Context(), customerUserID, courseRunID, req.CourseMode); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// SetSavedForLater godoc
// @ID           setEnterpriseEnrollmentSavedForLater
// @Summary      Toggle the saved-for-later flag on an enrollment
// @Tags         enrollments
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer user UUID" format(uuid)
// @Param        course_run_id path string true "Course run ID"
// @Param        request body SavedForLaterRequest true "Saved-for-later request"
// @Success      200 {object} APIResponse[enterpriseapp.EnrollmentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /enterprise/customer-users/{id}/enrollments/{course_run_id}/saved-for-later [put]
func (h *EnrollmentHandler) SetSavedForLater(c *gin.Context) {
	customerUserID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer user ID format")
		return
	}

	courseRunID := c.Param("course_run_id")
	if courseRunID == "" {
		h.BadRequest(c, "Course run ID is required")
		return
	}

	var req SavedForLaterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	enrollment, err := h.enrollmentService.SetSavedForLater(c.Request.Context(), customerUserID, courseRunID, *req.SavedForLater)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, enrollment)
}

// RegisterRoutes registers all enrollment routes
func (h *EnrollmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/enterprise/customer-users/:id")
	{
		users.POST("/enrollments", h.Enroll)
		users.GET("/enrollments", h.ListByUser)
		users.DELETE("/enrollments/:course_run_id", h.Unenroll)
		users.PATCH("/enrollments/:course_run_id/mode", h.UpdateMode)
		users.PUT("/enrollments/:course_run_id/saved-for-later", h.SetSavedForLater)
	}
}

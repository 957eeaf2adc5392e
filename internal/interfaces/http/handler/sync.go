package handler

import (
	"net/http"
	"time"

	"github.com/enterprise/backend/internal/domain/channel"
	"github.com/enterprise/backend/internal/infrastructure/scheduler"
	"github.com/enterprise/backend/internal/interfaces/http/dto"
	"github.com/enterprise/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SyncHandler exposes manual channel sync triggers and job history.
// All routes require staff access.
type SyncHandler struct {
	BaseHandler
	trigger   *scheduler.ChannelSyncCronTrigger
	scheduler *scheduler.ChannelSyncScheduler
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(
	trigger *scheduler.ChannelSyncCronTrigger,
	syncScheduler *scheduler.ChannelSyncScheduler,
) *SyncHandler {
	return &SyncHandler{
		trigger:   trigger,
		scheduler: syncScheduler,
	}
}

// TriggerSyncRequest represents a request to run a channel sync immediately
// @Description Request body for triggering a sync run outside the cron schedule
type TriggerSyncRequest struct {
	Kind        string `json:"kind" binding:"required,oneof=LEARNER_DATA CONTENT_METADATA UNLINK_INACTIVE" example:"LEARNER_DATA"`
	ChannelCode string `json:"channel_code" binding:"omitempty,oneof=SAP DEGREED MOODLE CSOD" example:"SAP"`
}

// SyncJobResponse is the API view of a channel sync job
// @Description Channel sync job record
type SyncJobResponse struct {
	ID            uuid.UUID  `json:"id"`
	Kind          string     `json:"kind"`
	ChannelCode   string     `json:"channel_code,omitempty"`
	Status        string     `json:"status"`
	Error         string     `json:"error,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	TotalCount    int        `json:"total_count"`
	SentCount     int        `json:"sent_count"`
	FailedCount   int        `json:"failed_count"`
	SkippedCount  int        `json:"skipped_count"`
	UnlinkedCount int        `json:"unlinked_count,omitempty"`
}

func toSyncJobResponse(job *scheduler.ChannelSyncJob) SyncJobResponse {
	return SyncJobResponse{
		ID:            job.ID,
		Kind:          string(job.Kind),
		ChannelCode:   job.ChannelCode.String(),
		Status:        string(job.Status),
		Error:         job.Error,
		StartedAt:     job.StartedAt,
		CompletedAt:   job.CompletedAt,
		TotalCount:    job.TotalCount,
		SentCount:     job.SentCount,
		FailedCount:   job.FailedCount,
		SkippedCount:  job.SkippedCount,
		UnlinkedCount: job.UnlinkedCount,
	}
}

// TriggerSync godoc
// @ID           triggerChannelSync
// @Summary      Trigger an immediate channel sync run
// @Description  Enqueues a sync job outside the cron schedule. Omitting channel_code fans out to every channel. Returns 409 while the same sync is still running.
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        request body TriggerSyncRequest true "Sync trigger request"
// @Success      202 {object} SuccessResponse
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /channels/sync [post]
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	var req TriggerSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	kind := scheduler.SyncJobKind(req.Kind)

	codes := []channel.Code{channel.Code(req.ChannelCode)}
	if req.ChannelCode == "" && kind != scheduler.SyncJobKindUnlinkInactive {
		codes = channel.AllCodes()
	}

	for _, code := range codes {
		if err := h.trigger.TriggerManualSync(kind, code); err != nil {
			h.HandleError(c, err)
			return
		}
	}

	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(nil))
}

// ListJobs godoc
// @ID           listChannelSyncJobs
// @Summary      List recent channel sync jobs
// @Tags         sync
// @Produce      json
// @Param        channel query string false "Filter by channel code" Enums(SAP, DEGREED, MOODLE, CSOD)
// @Param        limit query int false "Maximum number of jobs" default(50)
// @Success      200 {object} APIResponse[[]SyncJobResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /channels/sync/jobs [get]
func (h *SyncHandler) ListJobs(c *gin.Context) {
	limit := 50
	var limitQuery struct {
		Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
	}
	if err := c.ShouldBindQuery(&limitQuery); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if limitQuery.Limit > 0 {
		limit = limitQuery.Limit
	}

	var jobs []*scheduler.ChannelSyncJob
	if codeStr := c.Query("channel"); codeStr != "" {
		code := channel.Code(codeStr)
		if !code.IsValid() {
			h.BadRequest(c, "Invalid channel code")
			return
		}
		jobs = h.scheduler.GetJobHistoryByChannel(code, limit)
	} else {
		jobs = h.scheduler.GetJobHistory(limit)
	}

	responses := make([]SyncJobResponse, 0, len(jobs))
	for _, job := range jobs {
		responses = append(responses, toSyncJobResponse(job))
	}

	h.Success(c, responses)
}

// GetStatus godoc
// @ID           getChannelSyncStatus
// @Summary      Get sync trigger status and upcoming runs
// @Tags         sync
// @Produce      json
// @Success      200 {object} APIResponse[map[string]interface{}]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /channels/sync/status [get]
func (h *SyncHandler) GetStatus(c *gin.Context) {
	h.Success(c, h.trigger.GetTriggerStats())
}

// RegisterRoutes registers all sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/channels/sync")
	sync.Use(middleware.RequireStaff())
	{
		sync.POST("", h.TriggerSync)
		sync.GET("/jobs", h.ListJobs)
		sync.GET("/status", h.GetStatus)
	}
}

package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/casaops/backend/internal/infrastructure/scheduler"
)

// SchedulerHandler exposes admin controls for the nightly billing scheduler
type SchedulerHandler struct {
	BaseHandler
	cron *scheduler.BillingCronScheduler
}

// NewSchedulerHandler creates a new SchedulerHandler
func NewSchedulerHandler(cron *scheduler.BillingCronScheduler) *SchedulerHandler {
	return &SchedulerHandler{cron: cron}
}

// TriggerJobRequest asks for one billing job to run outside its schedule
type TriggerJobRequest struct {
	JobType string     `json:"job_type" binding:"required"`
	OrgID   *uuid.UUID `json:"org_id,omitempty"`
	RunDate *string    `json:"run_date,omitempty"`
}

// Status godoc
// @ID           getSchedulerStatus
// @Summary      Scheduler status
// @Description  Current state of the nightly billing scheduler: last run, next run, known job types
// @Tags         scheduler
// @Produce      json
// @Success      200 {object} APIResponse[any]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /scheduler/status [get]
func (h *SchedulerHandler) Status(c *gin.Context) {
	h.Success(c, h.cron.GetStatus())
}

// TriggerRun godoc
// @ID           triggerBillingRun
// @Summary      Run the nightly billing chain now
// @Description  Kick off bill generation, penalty application and overdue notices for today's run date. Runs asynchronously.
// @Tags         scheduler
// @Produce      json
// @Success      202 {object} APIResponse[MessageData]
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /scheduler/run [post]
func (h *SchedulerHandler) TriggerRun(c *gin.Context) {
	if err := h.cron.TriggerManualRun(c.Request.Context()); err != nil {
		h.handleSchedulerError(c, err)
		return
	}
	h.Accepted(c, MessageData{Message: "Billing run started"})
}

// TriggerJob godoc
// @ID           triggerBillingJob
// @Summary      Run one billing job now
// @Description  Queue a single billing job. org_id scopes it to one organization; run_date (YYYY-MM-DD) defaults to today.
// @Tags         scheduler
// @Accept       json
// @Produce      json
// @Param        request body TriggerJobRequest true "Job trigger request"
// @Success      202 {object} APIResponse[MessageData]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /scheduler/jobs [post]
func (h *SchedulerHandler) TriggerJob(c *gin.Context) {
	var req TriggerJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	jobType := scheduler.JobType(req.JobType)
	if !jobType.IsValid() {
		h.BadRequest(c, "Unknown job type: "+req.JobType)
		return
	}

	runDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.RunDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.RunDate)
		if err != nil {
			h.BadRequest(c, "run_date must be in YYYY-MM-DD format")
			return
		}
		runDate = parsed
	}

	if err := h.cron.TriggerJob(c.Request.Context(), req.OrgID, jobType, runDate); err != nil {
		h.handleSchedulerError(c, err)
		return
	}
	h.Accepted(c, MessageData{Message: "Job queued: " + req.JobType})
}

func (h *SchedulerHandler) handleSchedulerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduler.ErrSchedulerNotRunning):
		h.Conflict(c, "The billing scheduler is not running")
	case errors.Is(err, scheduler.ErrJobQueueFull):
		h.TooManyRequests(c, "The billing job queue is full, try again later")
	default:
		h.HandleDomainError(c, err)
	}
}

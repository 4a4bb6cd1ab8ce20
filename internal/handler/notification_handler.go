package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/be-saavy/notification-timing/internal/domain"
	"github.com/be-saavy/notification-timing/internal/service/schedule"
)

type NotificationHandler struct {
	scheduler *schedule.Service
}

func NewNotificationHandler(scheduler *schedule.Service) *NotificationHandler {
	return &NotificationHandler{
		scheduler: scheduler,
	}
}

type scheduleRequest struct {
	CaregiverID string `json:"caregiver_id" binding:"required"`
	RecallID    string `json:"recall_id" binding:"required"`
	Urgency     string `json:"urgency" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Body        string `json:"body"`
}

type scheduleResponse struct {
	Accepted       bool                          `json:"accepted"`
	Suppressed     bool                          `json:"suppressed,omitempty"`
	SuppressReason string                        `json:"suppress_reason,omitempty"`
	Delivered      bool                          `json:"delivered"`
	Notification   *domain.ScheduledNotification `json:"notification,omitempty"`
}

func (h *NotificationHandler) HandleSchedule(c *gin.Context) {
	ctx := c.Request.Context()

	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "schedule request binding failed",
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	urgency := domain.Urgency(req.Urgency)
	if !urgency.IsValid() {
		respondError(c, http.StatusBadRequest, "validation_error", "urgency must be critical, high or medium")
		return
	}

	result, err := h.scheduler.Schedule(ctx, schedule.Request{
		CaregiverID: req.CaregiverID,
		RecallID:    req.RecallID,
		Urgency:     urgency,
		Title:       req.Title,
		Body:        req.Body,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to schedule notification",
			slog.String("caregiver_id", req.CaregiverID),
			slog.String("recall_id", req.RecallID),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to schedule notification")
		return
	}

	c.JSON(http.StatusOK, scheduleResponse{
		Accepted:       result.Accepted,
		Suppressed:     result.Suppressed,
		SuppressReason: result.SuppressReason,
		Delivered:      result.Delivered,
		Notification:   result.Notification,
	})
}

type criticalRequest struct {
	CaregiverID       string `json:"caregiver_id" binding:"required"`
	RecallID          string `json:"recall_id" binding:"required"`
	ProductName       string `json:"product_name" binding:"required"`
	HazardDescription string `json:"hazard_description"`
}

func (h *NotificationHandler) HandleCritical(c *gin.Context) {
	ctx := c.Request.Context()

	var req criticalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	delivered, err := h.scheduler.SendCriticalAlert(ctx, req.CaregiverID, req.RecallID, req.ProductName, req.HazardDescription)
	if err != nil {
		slog.ErrorContext(ctx, "failed to send critical alert",
			slog.String("caregiver_id", req.CaregiverID),
			slog.String("recall_id", req.RecallID),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to send critical alert")
		return
	}

	c.JSON(http.StatusOK, gin.H{"delivered": delivered})
}

func (h *NotificationHandler) HandlePending(c *gin.Context) {
	ctx := c.Request.Context()

	caregiverID := c.Query("caregiver_id")
	if caregiverID == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "caregiver_id is required")
		return
	}

	pending, err := h.scheduler.Pending(ctx, caregiverID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list pending notifications",
			slog.String("caregiver_id", caregiverID),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to list pending notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": pending})
}

func (h *NotificationHandler) HandleCancel(c *gin.Context) {
	ctx := c.Request.Context()

	notificationID := c.Param("id")
	caregiverID := c.Query("caregiver_id")
	if caregiverID == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "caregiver_id is required")
		return
	}

	removed, err := h.scheduler.Cancel(ctx, caregiverID, notificationID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to cancel notification",
			slog.String("caregiver_id", caregiverID),
			slog.String("notification_id", notificationID),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to cancel notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *NotificationHandler) HandlePredict(c *gin.Context) {
	ctx := c.Request.Context()

	caregiverID := c.Query("caregiver_id")
	if caregiverID == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "caregiver_id is required")
		return
	}

	urgency := domain.Urgency(c.DefaultQuery("urgency", string(domain.UrgencyMedium)))
	content := domain.ContentType(c.DefaultQuery("content_type", string(domain.ContentGeneral)))

	prediction, err := h.scheduler.Predict(ctx, caregiverID, urgency, content)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	c.JSON(http.StatusOK, prediction)
}

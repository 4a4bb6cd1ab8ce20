package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/be-saavy/notification-timing/internal/domain"
	"github.com/be-saavy/notification-timing/internal/service/schedule"
)

// ProfileHandler covers the learning and configuration surface: app usage
// signals, notification response outcomes, preference edits and baby
// schedule edits.
type ProfileHandler struct {
	scheduler *schedule.Service
}

func NewProfileHandler(scheduler *schedule.Service) *ProfileHandler {
	return &ProfileHandler{
		scheduler: scheduler,
	}
}

type usageRequest struct {
	CaregiverID string    `json:"caregiver_id" binding:"required"`
	Timestamp   time.Time `json:"timestamp" binding:"required"`
}

func (h *ProfileHandler) HandleAppUsage(c *gin.Context) {
	ctx := c.Request.Context()

	var req usageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if err := h.scheduler.RecordAppUsage(ctx, req.CaregiverID, req.Timestamp); err != nil {
		slog.ErrorContext(ctx, "failed to record app usage",
			slog.String("caregiver_id", req.CaregiverID),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to record app usage")
		return
	}

	c.JSON(http.StatusOK, gin.H{"recorded": true})
}

type responseRequest struct {
	CaregiverID    string    `json:"caregiver_id" binding:"required"`
	NotificationID string    `json:"notification_id" binding:"required"`
	DeliveredAt    time.Time `json:"delivered_at" binding:"required"`
	RespondedAt    time.Time `json:"responded_at"`
	Action         string    `json:"action" binding:"required"`
}

func (h *ProfileHandler) HandleNotificationResponse(c *gin.Context) {
	ctx := c.Request.Context()

	var req responseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	action := domain.ResponseAction(req.Action)
	if !action.IsValid() {
		respondError(c, http.StatusBadRequest, "validation_error", "action must be opened, dismissed or acted")
		return
	}

	err := h.scheduler.RecordNotificationResponse(ctx, req.CaregiverID, req.NotificationID, req.DeliveredAt, req.RespondedAt, action)
	if err != nil {
		slog.ErrorContext(ctx, "failed to record notification response",
			slog.String("caregiver_id", req.CaregiverID),
			slog.String("notification_id", req.NotificationID),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to record notification response")
		return
	}

	c.JSON(http.StatusOK, gin.H{"recorded": true})
}

func (h *ProfileHandler) HandleGetPreferences(c *gin.Context) {
	ctx := c.Request.Context()

	caregiverID := c.Query("caregiver_id")
	if caregiverID == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "caregiver_id is required")
		return
	}

	prefs, err := h.scheduler.GetPreferences(ctx, caregiverID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to load preferences")
		return
	}

	c.JSON(http.StatusOK, prefs)
}

// HandleUpdatePreferences applies a partial preference edit: the request
// body is merged over the stored document so omitted fields keep their
// previous values.
func (h *ProfileHandler) HandleUpdatePreferences(c *gin.Context) {
	ctx := c.Request.Context()

	body, caregiverID, ok := readPartialUpdate(c)
	if !ok {
		return
	}

	prefs, err := h.scheduler.GetPreferences(ctx, caregiverID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to load preferences")
		return
	}

	if err := json.Unmarshal(body, prefs); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if err := h.scheduler.UpdatePreferences(ctx, prefs); err != nil {
		slog.WarnContext(ctx, "preference update rejected",
			slog.String("caregiver_id", caregiverID),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	c.JSON(http.StatusOK, prefs)
}

func (h *ProfileHandler) HandleGetBabySchedule(c *gin.Context) {
	ctx := c.Request.Context()

	caregiverID := c.Query("caregiver_id")
	if caregiverID == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "caregiver_id is required")
		return
	}

	babySchedule, err := h.scheduler.GetBabySchedule(ctx, caregiverID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to load baby schedule")
		return
	}

	c.JSON(http.StatusOK, babySchedule)
}

// HandleUpdateBabySchedule applies a partial schedule edit, merged over the
// stored document the same way preferences are.
func (h *ProfileHandler) HandleUpdateBabySchedule(c *gin.Context) {
	ctx := c.Request.Context()

	body, caregiverID, ok := readPartialUpdate(c)
	if !ok {
		return
	}

	babySchedule, err := h.scheduler.GetBabySchedule(ctx, caregiverID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to load baby schedule")
		return
	}

	if err := json.Unmarshal(body, babySchedule); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if err := h.scheduler.UpdateBabySchedule(ctx, babySchedule); err != nil {
		slog.WarnContext(ctx, "baby schedule update rejected",
			slog.String("caregiver_id", caregiverID),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	c.JSON(http.StatusOK, babySchedule)
}

// HandleUpdateContextualFactors applies a partial edit of profile-level
// delivery context such as quiet periods.
func (h *ProfileHandler) HandleUpdateContextualFactors(c *gin.Context) {
	ctx := c.Request.Context()

	body, caregiverID, ok := readPartialUpdate(c)
	if !ok {
		return
	}

	var factors schedule.ContextualFactors
	if err := json.Unmarshal(body, &factors); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	profile, err := h.scheduler.UpdateContextualFactors(ctx, caregiverID, factors)
	if err != nil {
		slog.WarnContext(ctx, "contextual factors update rejected",
			slog.String("caregiver_id", caregiverID),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"caregiver_id":  profile.CaregiverID,
		"quiet_periods": profile.QuietPeriods,
	})
}

// readPartialUpdate reads the raw body of a partial-update request and
// extracts the caregiver id, which must always be present.
func readPartialUpdate(c *gin.Context) ([]byte, string, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, "read_error", "failed to read request body")
		return nil, "", false
	}

	var envelope struct {
		CaregiverID string `json:"caregiver_id"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return nil, "", false
	}
	if envelope.CaregiverID == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "caregiver_id is required")
		return nil, "", false
	}

	return body, envelope.CaregiverID, true
}

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/be-saavy/notification-timing/internal/domain"
	"github.com/be-saavy/notification-timing/internal/service/delay"
	"github.com/be-saavy/notification-timing/internal/service/learning"
	"github.com/be-saavy/notification-timing/internal/service/predict"
	"github.com/be-saavy/notification-timing/internal/service/schedule"
)

type memProfileRepo struct {
	profiles  map[string]*domain.BehaviorProfile
	schedules map[string]*domain.BabySchedule
	prefs     map[string]*domain.Preferences
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{
		profiles:  make(map[string]*domain.BehaviorProfile),
		schedules: make(map[string]*domain.BabySchedule),
		prefs:     make(map[string]*domain.Preferences),
	}
}

func (r *memProfileRepo) GetBehaviorProfile(_ context.Context, id string) (*domain.BehaviorProfile, error) {
	if p, ok := r.profiles[id]; ok {
		return p, nil
	}
	return nil, domain.ErrBehaviorProfileMissing
}

func (r *memProfileRepo) SaveBehaviorProfile(_ context.Context, p *domain.BehaviorProfile) error {
	r.profiles[p.CaregiverID] = p
	return nil
}

// Get methods return copies, as the real repository decodes a fresh record
// per call.
func (r *memProfileRepo) GetBabySchedule(_ context.Context, id string) (*domain.BabySchedule, error) {
	if s, ok := r.schedules[id]; ok {
		cp := *s
		cp.NapTimes = append([]domain.NapWindow(nil), s.NapTimes...)
		cp.FussyPeriods = append([]domain.FussyPeriod(nil), s.FussyPeriods...)
		cp.FeedingHours = append([]int(nil), s.FeedingHours...)
		return &cp, nil
	}
	return nil, domain.ErrBabyScheduleMissing
}

func (r *memProfileRepo) SaveBabySchedule(_ context.Context, s *domain.BabySchedule) error {
	r.schedules[s.CaregiverID] = s
	return nil
}

func (r *memProfileRepo) GetPreferences(_ context.Context, id string) (*domain.Preferences, error) {
	if p, ok := r.prefs[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrPreferencesMissing
}

func (r *memProfileRepo) SavePreferences(_ context.Context, p *domain.Preferences) error {
	r.prefs[p.CaregiverID] = p
	return nil
}

type memPendingRepo struct{}

func (memPendingRepo) SavePending(context.Context, *domain.ScheduledNotification) error {
	return nil
}

func (memPendingRepo) GetPending(context.Context, string, string) (*domain.ScheduledNotification, error) {
	return nil, domain.ErrNotificationNotFound
}

func (memPendingRepo) ListPending(context.Context, string) ([]*domain.ScheduledNotification, error) {
	return nil, nil
}

func (memPendingRepo) DeletePending(context.Context, string, string) (bool, error) {
	return false, nil
}

func (memPendingRepo) ListDue(context.Context, string, time.Time) ([]*domain.ScheduledNotification, error) {
	return nil, nil
}

func (memPendingRepo) ListCaregiversWithPending(context.Context) ([]string, error) {
	return nil, nil
}

type silentDelivery struct{}

func (silentDelivery) Deliver(context.Context, *domain.Delivery) (bool, error) {
	return true, nil
}

func setupRouter(t *testing.T) (*gin.Engine, *memProfileRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	profiles := newMemProfileRepo()
	scheduler := schedule.NewService(
		profiles,
		memPendingRepo{},
		silentDelivery{},
		predict.NewPredictor(),
		delay.NewArbiter(),
		learning.NewUpdater(learning.DefaultOldWeight),
		nil,
	)

	h := NewProfileHandler(scheduler)

	r := gin.New()
	r.PUT("/api/v1/preferences", h.HandleUpdatePreferences)
	r.PUT("/api/v1/baby-schedule", h.HandleUpdateBabySchedule)
	r.PUT("/api/v1/behavior/context", h.HandleUpdateContextualFactors)
	return r, profiles
}

func doPut(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUpdatePreferencesPartialKeepsOmittedFields(t *testing.T) {
	r, profiles := setupRouter(t)

	stored := domain.DefaultPreferences("caregiver-1")
	stored.High.Schedule = domain.HighScheduleEveningDigest
	profiles.prefs["caregiver-1"] = stored

	w := doPut(t, r, "/api/v1/preferences",
		`{"caregiver_id":"caregiver-1","medium":{"enabled":true,"frequency":"weekly"}}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	got := profiles.prefs["caregiver-1"]
	if got.Medium.Frequency != domain.MediumWeekly {
		t.Errorf("medium frequency = %q, want weekly", got.Medium.Frequency)
	}
	if !got.High.Enabled {
		t.Error("high tier must stay enabled when the update omits it")
	}
	if got.High.Schedule != domain.HighScheduleEveningDigest {
		t.Errorf("high schedule = %q, want evening_digest preserved", got.High.Schedule)
	}
	if !got.High.QuietHours.Enabled || got.High.QuietHours.Start != "22:00" {
		t.Errorf("quiet hours = %+v, want preserved", got.High.QuietHours)
	}
}

func TestUpdatePreferencesRequiresCaregiverID(t *testing.T) {
	r, _ := setupRouter(t)

	w := doPut(t, r, "/api/v1/preferences", `{"medium":{"enabled":false}}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUpdateBabySchedulePartialKeepsNaps(t *testing.T) {
	r, profiles := setupRouter(t)

	profiles.schedules["caregiver-1"] = domain.DefaultBabySchedule("caregiver-1")

	w := doPut(t, r, "/api/v1/baby-schedule",
		`{"caregiver_id":"caregiver-1","fussy_periods":[{"window":{"start":"16:00","end":"18:00"},"intensity":0.9}]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	got := profiles.schedules["caregiver-1"]
	if len(got.NapTimes) != 2 {
		t.Errorf("nap windows = %d, want the 2 stored naps preserved", len(got.NapTimes))
	}
	if len(got.FussyPeriods) != 1 || got.FussyPeriods[0].Window.Start != "16:00" {
		t.Errorf("fussy periods = %+v, want the replacement window", got.FussyPeriods)
	}
}

func TestUpdateBabyScheduleRejectsMalformedPartial(t *testing.T) {
	r, profiles := setupRouter(t)

	profiles.schedules["caregiver-1"] = domain.DefaultBabySchedule("caregiver-1")

	w := doPut(t, r, "/api/v1/baby-schedule",
		`{"caregiver_id":"caregiver-1","bedtime":{"time":"8pm","consistency":0.5}}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for malformed bedtime", w.Code)
	}
	if got := profiles.schedules["caregiver-1"]; got.Bedtime.Time == "8pm" {
		t.Error("rejected update must not persist")
	}
}

func TestUpdateContextualFactorsSetsProfileQuietPeriods(t *testing.T) {
	r, profiles := setupRouter(t)

	w := doPut(t, r, "/api/v1/behavior/context",
		`{"caregiver_id":"caregiver-1","quiet_periods":[{"start":"12:30","end":"14:00"}]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	got := profiles.profiles["caregiver-1"]
	if got == nil || len(got.QuietPeriods) != 1 {
		t.Fatalf("quiet periods not persisted: %+v", got)
	}
	if !got.HourInQuietPeriod(13) {
		t.Error("13:00 must fall inside the configured quiet period")
	}
}

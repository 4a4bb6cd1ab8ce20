package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"context"

	"github.com/redis/go-redis/v9"

	"github.com/be-saavy/notification-timing/internal/domain"
)

const (
	behaviorKeyPrefix     = "timing:behavior:"
	babyScheduleKeyPrefix = "timing:babysched:"
	preferencesKeyPrefix  = "timing:prefs:"
)

type profileRepository struct {
	client *redis.Client
}

// NewProfileRepository persists caregiver behavior, baby schedules and
// preferences as JSON documents keyed by caregiver id. Profiles are
// long-lived and carry no TTL.
func NewProfileRepository(client *redis.Client) domain.ProfileRepository {
	return &profileRepository{client: client}
}

func (r *profileRepository) GetBehaviorProfile(ctx context.Context, caregiverID string) (*domain.BehaviorProfile, error) {
	data, err := r.client.Get(ctx, behaviorKeyPrefix+caregiverID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrBehaviorProfileMissing
		}
		return nil, err
	}

	var profile domain.BehaviorProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptRecord, caregiverID)
	}
	return &profile, nil
}

func (r *profileRepository) SaveBehaviorProfile(ctx context.Context, profile *domain.BehaviorProfile) error {
	if profile == nil || profile.CaregiverID == "" {
		return ErrInvalidRecord
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return ErrInvalidRecord
	}
	return r.client.Set(ctx, behaviorKeyPrefix+profile.CaregiverID, data, 0).Err()
}

func (r *profileRepository) GetBabySchedule(ctx context.Context, caregiverID string) (*domain.BabySchedule, error) {
	data, err := r.client.Get(ctx, babyScheduleKeyPrefix+caregiverID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrBabyScheduleMissing
		}
		return nil, err
	}

	var schedule domain.BabySchedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptRecord, caregiverID)
	}
	return &schedule, nil
}

func (r *profileRepository) SaveBabySchedule(ctx context.Context, schedule *domain.BabySchedule) error {
	if schedule == nil || schedule.CaregiverID == "" {
		return ErrInvalidRecord
	}

	data, err := json.Marshal(schedule)
	if err != nil {
		return ErrInvalidRecord
	}
	return r.client.Set(ctx, babyScheduleKeyPrefix+schedule.CaregiverID, data, 0).Err()
}

func (r *profileRepository) GetPreferences(ctx context.Context, caregiverID string) (*domain.Preferences, error) {
	data, err := r.client.Get(ctx, preferencesKeyPrefix+caregiverID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrPreferencesMissing
		}
		return nil, err
	}

	var prefs domain.Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptRecord, caregiverID)
	}
	return &prefs, nil
}

func (r *profileRepository) SavePreferences(ctx context.Context, prefs *domain.Preferences) error {
	if prefs == nil || prefs.CaregiverID == "" {
		return ErrInvalidRecord
	}

	data, err := json.Marshal(prefs)
	if err != nil {
		return ErrInvalidRecord
	}
	return r.client.Set(ctx, preferencesKeyPrefix+prefs.CaregiverID, data, 0).Err()
}

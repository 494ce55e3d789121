package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"radio-schedule-backend/internal/model"
)

// ErrStaleWrite is returned when an update references a record version that
// has since been modified by another writer. The caller must refetch and
// retry.
var ErrStaleWrite = errors.New("record was modified by another writer, refetch and retry")

// ErrNotFound is returned when the referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the persistence operations the schedule engine depends on.
// List methods return raw records; all resolution happens above this layer.
type Store interface {
	DB() *gorm.DB

	ListActivePrograms(ctx context.Context) ([]model.Program, error)
	ListScheduleEntries(ctx context.Context, from, to time.Time) ([]model.ScheduleEntry, error)
	ListSpecialBroadcasts(ctx context.Context, from, to time.Time) ([]model.SpecialBroadcast, error)

	GetProgram(ctx context.Context, id int64) (*model.Program, error)
	CreateProgram(ctx context.Context, p *model.Program) error
	UpdateProgram(ctx context.Context, p *model.Program) error
	DeleteProgram(ctx context.Context, id int64) error

	GetScheduleEntry(ctx context.Context, id int64) (*model.ScheduleEntry, error)
	CreateScheduleEntry(ctx context.Context, e *model.ScheduleEntry) error
	UpdateScheduleEntry(ctx context.Context, e *model.ScheduleEntry) error
	DeleteScheduleEntry(ctx context.Context, id int64) error

	GetSpecialBroadcast(ctx context.Context, id int64) (*model.SpecialBroadcast, error)
	CreateSpecialBroadcast(ctx context.Context, sb *model.SpecialBroadcast) error
	UpdateSpecialBroadcast(ctx context.Context, sb *model.SpecialBroadcast) error
	DeleteSpecialBroadcast(ctx context.Context, id int64) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) ListActivePrograms(ctx context.Context) ([]model.Program, error) {
	var programs []model.Program
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&programs).Error; err != nil {
		return nil, fmt.Errorf("failed to list active programs: %w", err)
	}
	return programs, nil
}

func (s *gormStore) ListScheduleEntries(ctx context.Context, from, to time.Time) ([]model.ScheduleEntry, error) {
	var entries []model.ScheduleEntry
	// Recurrence anchors are fetched regardless of window: their RRULE may
	// generate occurrences inside the range even when the anchor slot is not.
	if err := s.db.WithContext(ctx).
		Where("(start_time < ? AND end_time > ?) OR is_recurring = ?", to, from, true).
		Order("start_time").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list schedule entries: %w", err)
	}
	return entries, nil
}

func (s *gormStore) ListSpecialBroadcasts(ctx context.Context, from, to time.Time) ([]model.SpecialBroadcast, error) {
	var specials []model.SpecialBroadcast
	if err := s.db.WithContext(ctx).
		Where("start_time < ? AND end_time > ?", to, from).
		Order("start_time").
		Find(&specials).Error; err != nil {
		return nil, fmt.Errorf("failed to list special broadcasts: %w", err)
	}
	return specials, nil
}

func (s *gormStore) GetProgram(ctx context.Context, id int64) (*model.Program, error) {
	var p model.Program
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *gormStore) CreateProgram(ctx context.Context, p *model.Program) error {
	p.Version = 1
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *gormStore) UpdateProgram(ctx context.Context, p *model.Program) error {
	return s.versionedUpdate(ctx, p, p.ID, p.Version, map[string]any{
		"title":               p.Title,
		"host_ids":            p.HostIDs,
		"recurrence_type":     p.RecurrenceType,
		"recurrence_days":     p.RecurrenceDays,
		"air_time":            p.AirTime,
		"duration_minutes":    p.DurationMinutes,
		"recurrence_end_date": p.RecurrenceEndDate,
		"is_active":           p.IsActive,
	})
}

func (s *gormStore) DeleteProgram(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, &model.Program{}, id)
}

func (s *gormStore) GetScheduleEntry(ctx context.Context, id int64) (*model.ScheduleEntry, error) {
	var e model.ScheduleEntry
	if err := s.db.WithContext(ctx).First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *gormStore) CreateScheduleEntry(ctx context.Context, e *model.ScheduleEntry) error {
	e.Version = 1
	if e.Status == "" {
		e.Status = model.StatusScheduled
	}
	return s.db.WithContext(ctx).Create(e).Error
}

func (s *gormStore) UpdateScheduleEntry(ctx context.Context, e *model.ScheduleEntry) error {
	return s.versionedUpdate(ctx, e, e.ID, e.Version, map[string]any{
		"program_id":      e.ProgramID,
		"start_time":      e.StartTime,
		"end_time":        e.EndTime,
		"is_recurring":    e.IsRecurring,
		"recurrence_rule": e.RecurrenceRule,
		"host_ids":        e.HostIDs,
		"is_special":      e.IsSpecial,
		"override_title":  e.OverrideTitle,
		"status":          e.Status,
	})
}

func (s *gormStore) DeleteScheduleEntry(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, &model.ScheduleEntry{}, id)
}

func (s *gormStore) GetSpecialBroadcast(ctx context.Context, id int64) (*model.SpecialBroadcast, error) {
	var sb model.SpecialBroadcast
	if err := s.db.WithContext(ctx).First(&sb, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sb, nil
}

func (s *gormStore) CreateSpecialBroadcast(ctx context.Context, sb *model.SpecialBroadcast) error {
	sb.Version = 1
	return s.db.WithContext(ctx).Create(sb).Error
}

func (s *gormStore) UpdateSpecialBroadcast(ctx context.Context, sb *model.SpecialBroadcast) error {
	return s.versionedUpdate(ctx, sb, sb.ID, sb.Version, map[string]any{
		"start_time":             sb.StartTime,
		"end_time":               sb.EndTime,
		"replacement_program_id": sb.ReplacementProgramID,
		"replacement_title":      sb.ReplacementTitle,
		"reason":                 sb.Reason,
		"priority":               sb.Priority,
	})
}

func (s *gormStore) DeleteSpecialBroadcast(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, &model.SpecialBroadcast{}, id)
}

// versionedUpdate applies updates only if the caller's version matches the
// stored one, incrementing it in the same statement. Zero rows affected means
// the record was modified concurrently (or never existed).
func (s *gormStore) versionedUpdate(ctx context.Context, mdl any, id int64, version int64, updates map[string]any) error {
	updates["version"] = version + 1
	res := s.db.WithContext(ctx).
		Model(mdl).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(mdl).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrStaleWrite
	}
	return nil
}

func (s *gormStore) deleteByID(ctx context.Context, mdl any, id int64) error {
	res := s.db.WithContext(ctx).Delete(mdl, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"
	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/roster"
	appErrors "github.com/sebastiansarmientoforjan-maker/students-meds/pkg/errors"
)

type rosterStudentReader interface {
	ListActive(ctx context.Context) ([]models.Student, error)
}

type rosterMedicationReader interface {
	ListActiveOn(ctx context.Context, date models.Date) ([]models.Medication, error)
}

type rosterAdministrationReader interface {
	ListForWindow(ctx context.Context, date models.Date, window models.Window) ([]models.Administration, error)
}

// RosterService assembles the daily medication roster. The projection is
// recomputed from fresh snapshots on every request; Redis only shortens the
// window between recomputations, it is never the source of truth.
type RosterService struct {
	students        rosterStudentReader
	medications     rosterMedicationReader
	administrations rosterAdministrationReader
	cache           *CacheService
	cacheTTL        time.Duration
	logger          *zap.Logger
}

// NewRosterService constructs the roster service.
func NewRosterService(students rosterStudentReader, medications rosterMedicationReader, administrations rosterAdministrationReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &RosterService{
		students:        students,
		medications:     medications,
		administrations: administrations,
		cache:           cache,
		cacheTTL:        cacheTTL,
		logger:          logger,
	}
}

// Get builds the roster for one date, window and status filter. The second
// return value reports whether the projection came from cache.
func (s *RosterService) Get(ctx context.Context, date models.Date, window models.Window, filter models.StatusFilter) (*roster.Roster, bool, error) {
	cacheKey := fmt.Sprintf("roster:%s:%s:%s", date, window, filter)
	if s.cache.Enabled() {
		var cached roster.Roster
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	students, err := s.students.ListActive(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	meds, err := s.medications.ListActiveOn(ctx, date)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load medications")
	}
	administrations, err := s.administrations.ListForWindow(ctx, date, window)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load administrations")
	}

	projection := roster.Build(students, meds, administrations, date, window, filter)

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, projection, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache roster", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	return &projection, false, nil
}

// Invalidate drops every cached roster for the given date.
func (s *RosterService) Invalidate(ctx context.Context, date models.Date) error {
	if !s.cache.Enabled() {
		return nil
	}
	return s.cache.Invalidate(ctx, "roster:"+date.String()+":*")
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
	"github.com/tisaac13/villagevote/internal/core/ports/driving"
	"github.com/tisaac13/villagevote/internal/logger"
)

var alignLog = logger.With("alignment")

// Ensure AlignmentService implements the interface.
var _ driving.AlignmentService = (*AlignmentService)(nil)

// AlignmentConfig sets the cache lifetimes of per-user aggregates.
type AlignmentConfig struct {
	AlignmentTTL       time.Duration
	RepresentativesTTL time.Duration
}

// AlignmentConfigFromSettings maps configuration onto alignment tuning.
func AlignmentConfigFromSettings(s domain.CacheSettings) AlignmentConfig {
	return AlignmentConfig{
		AlignmentTTL:       s.AlignmentTTL.Std(),
		RepresentativesTTL: s.RepresentativesTTL.Std(),
	}
}

// AlignmentService computes match results and per-user alignment.
type AlignmentService struct {
	users   driven.UserStore
	votes   driven.VoteStore
	matches driven.MatchStore
	cache   driven.Cache
	metrics *Metrics
	cfg     AlignmentConfig
	now     func() time.Time
}

// NewAlignmentService creates an alignment service. cache and metrics may
// be nil.
func NewAlignmentService(
	users driven.UserStore,
	votes driven.VoteStore,
	matches driven.MatchStore,
	cache driven.Cache,
	cfg AlignmentConfig,
	metrics *Metrics,
) *AlignmentService {
	if cfg.AlignmentTTL <= 0 {
		cfg.AlignmentTTL = domain.DefaultAlignmentTTL
	}
	if cfg.RepresentativesTTL <= 0 {
		cfg.RepresentativesTTL = domain.DefaultRepresentativesTTL
	}
	return &AlignmentService{
		users:   users,
		votes:   votes,
		matches: matches,
		cache:   cache,
		metrics: metrics,
		cfg:     cfg,
		now:     time.Now,
	}
}

func alignmentKey(userID string) string       { return "alignment:" + userID }
func representativesKey(userID string) string { return "representatives:" + userID }

// ComputeForMeasure scores every yes/no user position on a measure against
// the latest recorded votes of the user's active officials. A skipped
// position removes any earlier result for the user.
func (s *AlignmentService) ComputeForMeasure(ctx context.Context, measureID string) (int, error) {
	positions, err := s.users.UserVotesForMeasure(ctx, measureID)
	if err != nil {
		return 0, fmt.Errorf("user votes for %s: %w", measureID, err)
	}
	if len(positions) == 0 {
		return 0, nil
	}

	recorded, err := s.votes.OfficialVotesForMeasure(ctx, measureID)
	if err != nil {
		return 0, fmt.Errorf("official votes for %s: %w", measureID, err)
	}
	byOfficial := make(map[string]domain.VoteValue, len(recorded))
	for _, v := range recorded {
		byOfficial[v.OfficialID] = v.Value
	}

	written := 0
	for _, uv := range positions {
		if uv.Position == domain.PositionSkip {
			if err := s.matches.DeleteMatch(ctx, uv.UserID, measureID); err != nil {
				return written, fmt.Errorf("clear match for %s: %w", uv.UserID, err)
			}
			s.invalidate(ctx, uv.UserID)
			continue
		}
		officials, err := s.users.ActiveOfficials(ctx, uv.UserID)
		if err != nil {
			return written, fmt.Errorf("active officials for %s: %w", uv.UserID, err)
		}

		res := domain.ScoreMatch(uv.UserID, measureID, uv.Position, officials, byOfficial)
		res.ComputedAt = s.now().UTC()
		if err := s.matches.UpsertMatch(ctx, &res); err != nil {
			return written, fmt.Errorf("store match for %s: %w", uv.UserID, err)
		}
		written++
		s.invalidate(ctx, uv.UserID)
	}

	s.metrics.matchesComputed(written)
	alignLog.Debug("Computed %d match results for measure %s", written, measureID)
	return written, nil
}

// UserAlignment returns the user's aggregate alignment, cached for
// AlignmentTTL.
func (s *AlignmentService) UserAlignment(ctx context.Context, userID string) (*domain.AlignmentSummary, error) {
	var cached domain.AlignmentSummary
	if s.cacheGet(ctx, alignmentKey(userID), &cached) {
		return &cached, nil
	}

	sum, err := s.summarise(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, alignmentKey(userID), sum, s.cfg.AlignmentTTL)
	return sum, nil
}

// Representatives returns the user's active officials with their alignment,
// cached for RepresentativesTTL.
func (s *AlignmentService) Representatives(ctx context.Context, userID string) ([]domain.OfficialAlignment, error) {
	var cached []domain.OfficialAlignment
	if s.cacheGet(ctx, representativesKey(userID), &cached) {
		return cached, nil
	}

	sum, err := s.summarise(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, representativesKey(userID), sum.Officials, s.cfg.RepresentativesTTL)
	return sum.Officials, nil
}

// RecordUserVote stores a position and drops the user's cached aggregates.
func (s *AlignmentService) RecordUserVote(ctx context.Context, userID, measureID string, position domain.UserPosition) error {
	if userID == "" || measureID == "" {
		return fmt.Errorf("user and measure are required: %w", domain.ErrInvalidInput)
	}
	parsed, err := domain.ParseUserPosition(string(position))
	if err != nil {
		return fmt.Errorf("position %q: %w", position, err)
	}
	position = parsed
	err = s.users.RecordVote(ctx, domain.UserVote{
		UserID:    userID,
		MeasureID: measureID,
		Position:  position,
	})
	if err != nil {
		return fmt.Errorf("record vote: %w", err)
	}
	if position == domain.PositionSkip {
		if err := s.matches.DeleteMatch(ctx, userID, measureID); err != nil {
			return fmt.Errorf("clear match: %w", err)
		}
	}
	s.invalidate(ctx, userID)
	return nil
}

// SetActiveOfficials replaces the user's officials and drops the user's
// cached aggregates.
func (s *AlignmentService) SetActiveOfficials(ctx context.Context, userID string, officialIDs []string) error {
	if userID == "" {
		return fmt.Errorf("user is required: %w", domain.ErrInvalidInput)
	}
	if err := s.users.SetActiveOfficials(ctx, userID, officialIDs); err != nil {
		return fmt.Errorf("set active officials: %w", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *AlignmentService) summarise(ctx context.Context, userID string) (*domain.AlignmentSummary, error) {
	tallies, err := s.matches.AlignmentTallies(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("alignment tallies for %s: %w", userID, err)
	}
	sum := domain.SummarizeAlignment(userID, tallies)
	return &sum, nil
}

func (s *AlignmentService) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		alignLog.Warn("Cache read %s: %v", key, err)
		return false
	}
	return ok
}

func (s *AlignmentService) cacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		alignLog.Warn("Cache write %s: %v", key, err)
	}
}

func (s *AlignmentService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, alignmentKey(userID), representativesKey(userID)); err != nil {
		alignLog.Warn("Cache invalidate %s: %v", userID, err)
	}
}

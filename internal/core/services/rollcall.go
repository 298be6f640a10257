package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
	"github.com/tisaac13/villagevote/internal/core/ports/driving"
	"github.com/tisaac13/villagevote/internal/logger"
)

var rollCallLog = logger.With("rollcall")

// Ensure RollCallIngestor implements the interface.
var _ driving.RollCallIngestor = (*RollCallIngestor)(nil)

// RollCallIngestor links roll-call documents to tracked measures and stores
// them as vote events.
type RollCallIngestor struct {
	measures  driven.MeasureStore
	votes     driven.VoteStore
	officials driven.OfficialStore
	sources   map[domain.RollCallChamber]driven.RollCallSource
	metrics   *Metrics
}

// NewRollCallIngestor creates an ingestor. metrics may be nil.
func NewRollCallIngestor(
	measures driven.MeasureStore,
	votes driven.VoteStore,
	officials driven.OfficialStore,
	metrics *Metrics,
	sources ...driven.RollCallSource,
) *RollCallIngestor {
	r := &RollCallIngestor{
		measures:  measures,
		votes:     votes,
		officials: officials,
		sources:   make(map[domain.RollCallChamber]driven.RollCallSource, len(sources)),
		metrics:   metrics,
	}
	for _, s := range sources {
		r.sources[s.Chamber()] = s
	}
	return r
}

// IngestDocument ingests one parsed roll-call document.
func (r *RollCallIngestor) IngestDocument(ctx context.Context, rc *domain.RollCall) (domain.RollCallResult, error) {
	idx, err := LoadLegislatorIndex(ctx, r.officials, rc.Chamber)
	if err != nil {
		return domain.RollCallResult{}, err
	}
	return r.ingest(ctx, rc, idx)
}

func (r *RollCallIngestor) ingest(ctx context.Context, rc *domain.RollCall, idx *LegislatorIndex) (domain.RollCallResult, error) {
	key := rc.IdempotencyKey()

	exists, err := r.votes.VoteEventExists(ctx, key)
	if err != nil {
		return domain.RollCallResult{}, fmt.Errorf("check vote event %s: %w", key, err)
	}
	if exists {
		return r.done(rc, domain.RollCallResult{Outcome: domain.OutcomeDuplicate}), nil
	}

	citation, ok := domain.ParseCitation(rc.Citation)
	if !ok {
		rollCallLog.Debug("Roll call %s: no bill citation in %q", key, rc.Citation)
		return r.done(rc, domain.RollCallResult{Outcome: domain.OutcomeUnmatchedCitation}), nil
	}
	canonical := citation.CanonicalKey(rc.Congress)
	measure, err := r.measures.FindByCanonicalKey(ctx, canonical)
	if errors.Is(err, domain.ErrNotFound) {
		rollCallLog.Debug("Roll call %s: %s is not a tracked measure", key, canonical)
		return r.done(rc, domain.RollCallResult{Outcome: domain.OutcomeUnmatchedMeasure}), nil
	}
	if err != nil {
		return domain.RollCallResult{}, fmt.Errorf("find measure %s: %w", canonical, err)
	}

	event := &domain.VoteEvent{
		MeasureID:      measure.ID,
		Body:           rc.Chamber.Body(),
		IdempotencyKey: key,
		HeldAt:         rc.HeldAt,
		Result:         domain.ParseVoteResult(rc.ResultText),
	}

	res := domain.RollCallResult{MeasureID: measure.ID}
	votes := make([]domain.OfficialVote, 0, len(rc.Members))
	var backfills []domain.IDBackfill
	seen := make(map[string]bool, len(rc.Members))
	for _, m := range rc.Members {
		found, ok := idx.Resolve(m)
		if !ok || seen[found.Official.ID] {
			res.UnresolvedLegislators++
			continue
		}
		seen[found.Official.ID] = true
		votes = append(votes, domain.OfficialVote{
			OfficialID: found.Official.ID,
			Value:      domain.ParseVoteValue(m.VoteText),
		})
		if found.Backfill != nil {
			backfills = append(backfills, *found.Backfill)
		}
	}

	err = r.votes.CreateVoteEvent(ctx, event, votes, backfills)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return r.done(rc, domain.RollCallResult{Outcome: domain.OutcomeDuplicate}), nil
	}
	if err != nil {
		return domain.RollCallResult{}, fmt.Errorf("create vote event %s: %w", key, err)
	}
	for _, b := range backfills {
		idx.Learn(b)
	}

	res.Outcome = domain.OutcomeCreated
	res.VoteEventID = event.ID
	res.OfficialVotes = len(votes)
	res.Backfilled = len(backfills)
	rollCallLog.Debug("Roll call %s: %d votes on %s (%d unresolved, %d backfilled)",
		key, res.OfficialVotes, canonical, res.UnresolvedLegislators, res.Backfilled)
	return r.done(rc, res), nil
}

func (r *RollCallIngestor) done(rc *domain.RollCall, res domain.RollCallResult) domain.RollCallResult {
	r.metrics.rollCallIngested(rc.Chamber, res)
	return res
}

// IngestChamber walks a chamber's roll calls from opts.Start until
// MaxConsecutiveMissing documents in a row are missing. Requests are paced by
// opts.Delay; cancellation stops the sweep between documents.
func (r *RollCallIngestor) IngestChamber(ctx context.Context, chamber domain.RollCallChamber, opts driving.RollCallOptions) (domain.RollCallStats, error) {
	var stats domain.RollCallStats

	source, ok := r.sources[chamber]
	if !ok {
		return stats, fmt.Errorf("roll-call source %q: %w", chamber, domain.ErrUnsupportedType)
	}
	if opts.Congress <= 0 {
		return stats, fmt.Errorf("congress %d: %w", opts.Congress, domain.ErrInvalidInput)
	}
	if opts.Session <= 0 {
		opts.Session = 1
	}
	if opts.Start <= 0 {
		opts.Start = 1
	}
	if opts.MaxConsecutiveMissing <= 0 {
		opts.MaxConsecutiveMissing = domain.DefaultMaxConsecutiveMissing
	}

	var limiter *rate.Limiter
	if opts.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Delay), 1)
	}

	idx, err := LoadLegislatorIndex(ctx, r.officials, chamber)
	if err != nil {
		return stats, err
	}
	rollCallLog.Info("Sweeping %s roll calls for congress %d session %d from %d (%d officials indexed)",
		chamber, opts.Congress, opts.Session, opts.Start, idx.Len())

	missing, failures, requested := 0, 0, 0
	for seq := opts.Start; ; seq++ {
		if opts.MaxDocuments > 0 && requested >= opts.MaxDocuments {
			break
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return stats, err
			}
		} else if err := ctx.Err(); err != nil {
			return stats, err
		}
		requested++

		rc, err := source.Fetch(ctx, opts.Congress, opts.Session, seq)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			missing++
			if missing >= opts.MaxConsecutiveMissing {
				rollCallLog.Info("%s: %d consecutive missing documents after %d, stopping", chamber, missing, stats.LastSequence)
				return stats, nil
			}
			continue
		case err != nil:
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Errors++
			failures++
			rollCallLog.Warn("Fetching %s roll call %d: %v", chamber, seq, err)
			if failures >= opts.MaxConsecutiveMissing {
				return stats, fmt.Errorf("%s roll calls: %d consecutive fetch failures: %w", chamber, failures, err)
			}
			continue
		}

		missing, failures = 0, 0
		stats.Fetched++
		stats.LastSequence = seq

		res, err := r.ingest(ctx, rc, idx)
		if err != nil {
			stats.Errors++
			rollCallLog.Warn("Ingesting %s: %v", rc.IdempotencyKey(), err)
			continue
		}
		stats.Add(res)
	}

	return stats, nil
}

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
)

// UpsertOutcome is what an upsert did with one normalised record.
type UpsertOutcome string

const (
	UpsertNew       UpsertOutcome = "new"
	UpsertUpdated   UpsertOutcome = "updated"
	UpsertUnchanged UpsertOutcome = "unchanged"
)

// MeasureUpserter applies the shared measure upsert policy. Records with the
// same dedup key are serialised so concurrent workers never race to insert
// the same measure.
type MeasureUpserter struct {
	measures driven.MeasureStore
	locks    *keyLock
}

// NewMeasureUpserter creates an upserter over a measure store.
func NewMeasureUpserter(measures driven.MeasureStore) *MeasureUpserter {
	return &MeasureUpserter{
		measures: measures,
		locks:    newKeyLock(),
	}
}

// Upsert inserts or merges one normalised record. links are the record's
// source links, primary first; only the primary is attached on insert.
func (u *MeasureUpserter) Upsert(ctx context.Context, n domain.NormalizedMeasure, links []domain.MeasureSource) (UpsertOutcome, error) {
	if err := n.Validate(); err != nil {
		return "", err
	}

	unlock := u.locks.Lock(dedupKey(n))
	defer unlock()

	existing, err := u.find(ctx, n)
	if err != nil {
		return "", err
	}

	if existing == nil {
		m := domain.NewMeasure(n)
		var primary *domain.MeasureSource
		if len(links) > 0 {
			p := links[0]
			primary = &p
		}
		if err := u.measures.Insert(ctx, &m, primary); err != nil {
			return "", fmt.Errorf("insert measure %s/%s: %w", n.Source, n.ExternalID, err)
		}
		return UpsertNew, nil
	}

	before := existing.Status
	if !existing.Merge(n) {
		return UpsertUnchanged, nil
	}

	var event *domain.MeasureStatusEvent
	if existing.Status != before {
		event = &domain.MeasureStatusEvent{
			MeasureID: existing.ID,
			Status:    existing.Status,
		}
		if len(links) > 0 {
			event.SourceURL = links[0].URL
		}
	}
	if err := u.measures.Update(ctx, existing, event); err != nil {
		return "", fmt.Errorf("update measure %s: %w", existing.ID, err)
	}
	return UpsertUpdated, nil
}

// find looks a record up by source identity, then by canonical key.
func (u *MeasureUpserter) find(ctx context.Context, n domain.NormalizedMeasure) (*domain.Measure, error) {
	m, err := u.measures.FindByExternalID(ctx, n.Source, n.ExternalID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find measure %s/%s: %w", n.Source, n.ExternalID, err)
	}
	if n.CanonicalKey == "" {
		return nil, nil
	}

	m, err = u.measures.FindByCanonicalKey(ctx, n.CanonicalKey)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find measure %s: %w", n.CanonicalKey, err)
	}
	return nil, nil
}

func dedupKey(n domain.NormalizedMeasure) string {
	if n.CanonicalKey != "" {
		return n.CanonicalKey
	}
	return string(n.Source) + "|" + n.ExternalID
}

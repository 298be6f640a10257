package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
)

// Ensure MeasureStore implements the interface.
var _ driven.MeasureStore = (*MeasureStore)(nil)

// MeasureStore is an in-memory implementation of driven.MeasureStore.
type MeasureStore struct {
	s *Store
}

// Get retrieves a measure by ID.
func (m *MeasureStore) Get(_ context.Context, id string) (*domain.Measure, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	measure, ok := m.s.measures[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := copyMeasure(measure)
	return &c, nil
}

// FindByExternalID retrieves a measure by source identity.
func (m *MeasureStore) FindByExternalID(_ context.Context, source domain.SourceSystem, externalID string) (*domain.Measure, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, measure := range m.s.measures {
		if measure.Source == source && measure.ExternalID == externalID {
			c := copyMeasure(measure)
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

// FindByCanonicalKey retrieves a measure by canonical key.
func (m *MeasureStore) FindByCanonicalKey(_ context.Context, key string) (*domain.Measure, error) {
	if key == "" {
		return nil, domain.ErrNotFound
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, measure := range m.s.measures {
		if measure.CanonicalKey == key {
			c := copyMeasure(measure)
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Insert creates a measure and its primary link.
func (m *MeasureStore) Insert(_ context.Context, measure *domain.Measure, primary *domain.MeasureSource) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if err := m.checkUnique(measure); err != nil {
		return err
	}
	if measure.ID == "" {
		measure.ID = newID()
	}
	measure.UpdatedAt = m.s.now()
	m.s.measures[measure.ID] = copyMeasure(*measure)

	if primary != nil {
		if primary.ID == "" {
			primary.ID = newID()
		}
		if primary.ContentType == "" {
			primary.ContentType = domain.ContentHTML
		}
		primary.MeasureID = measure.ID
		primary.Primary = true
		m.s.measureSources[measure.ID] = append(m.s.measureSources[measure.ID], *primary)
	}
	return nil
}

// Update writes a measure, appending a status event when given.
func (m *MeasureStore) Update(_ context.Context, measure *domain.Measure, event *domain.MeasureStatusEvent) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.measures[measure.ID]; !ok {
		return domain.ErrNotFound
	}
	if err := m.checkUnique(measure); err != nil {
		return err
	}
	measure.UpdatedAt = m.s.now()
	m.s.measures[measure.ID] = copyMeasure(*measure)

	if event != nil {
		event.MeasureID = measure.ID
		if event.EffectiveAt.IsZero() {
			event.EffectiveAt = measure.UpdatedAt
		}
		m.s.statusEvents[measure.ID] = append(m.s.statusEvents[measure.ID], *event)
	}
	return nil
}

// checkUnique enforces (source, external_id) and canonical key uniqueness
// against every other measure. Caller must hold the lock.
func (m *MeasureStore) checkUnique(measure *domain.Measure) error {
	for id, other := range m.s.measures {
		if id == measure.ID {
			continue
		}
		if other.Source == measure.Source && other.ExternalID == measure.ExternalID {
			return fmt.Errorf("measure %s/%s: %w", measure.Source, measure.ExternalID, domain.ErrAlreadyExists)
		}
		if measure.CanonicalKey != "" && other.CanonicalKey == measure.CanonicalKey {
			return fmt.Errorf("measure canonical key %s: %w", measure.CanonicalKey, domain.ErrAlreadyExists)
		}
	}
	return nil
}

// List returns measures, most recently updated first.
func (m *MeasureStore) List(_ context.Context, source domain.SourceSystem, limit int) ([]domain.Measure, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []domain.Measure
	for _, measure := range m.s.measures {
		if source != "" && measure.Source != source {
			continue
		}
		out = append(out, copyMeasure(measure))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Sources returns a measure's links, primary first.
func (m *MeasureStore) Sources(_ context.Context, measureID string) ([]domain.MeasureSource, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := slices.Clone(m.s.measureSources[measureID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].Primary && !out[j].Primary })
	return out, nil
}

// StatusEvents returns a measure's status timeline, oldest first.
func (m *MeasureStore) StatusEvents(_ context.Context, measureID string) ([]domain.MeasureStatusEvent, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := slices.Clone(m.s.statusEvents[measureID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].EffectiveAt.Before(out[j].EffectiveAt) })
	return out, nil
}

// Count returns the number of stored measures.
func (m *MeasureStore) Count(_ context.Context) (int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return len(m.s.measures), nil
}

package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
)

// Ensure OfficialStore implements the interface.
var _ driven.OfficialStore = (*OfficialStore)(nil)

// OfficialStore is an in-memory implementation of driven.OfficialStore.
type OfficialStore struct {
	s *Store
}

// Get retrieves an official by ID.
func (o *OfficialStore) Get(_ context.Context, id string) (*domain.Official, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	official, ok := o.s.officials[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &official, nil
}

// Save stores or updates an official by ID.
func (o *OfficialStore) Save(_ context.Context, official *domain.Official) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	if official.BioguideID != "" {
		if other, ok := o.byBioguide(official.BioguideID); ok && other.ID != official.ID {
			return fmt.Errorf("official bioguide %s: %w", official.BioguideID, domain.ErrAlreadyExists)
		}
	}
	if official.ID == "" {
		official.ID = newID()
	}
	official.UpdatedAt = o.s.now()
	o.s.officials[official.ID] = *official
	return nil
}

// FindByBioguideID retrieves an official by bioguide ID.
func (o *OfficialStore) FindByBioguideID(_ context.Context, bioguideID string) (*domain.Official, error) {
	if bioguideID == "" {
		return nil, domain.ErrNotFound
	}
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	official, ok := o.byBioguide(bioguideID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &official, nil
}

// ListByChamber returns all officials in a chamber ordered by name.
func (o *OfficialStore) ListByChamber(_ context.Context, chamber domain.Chamber) ([]domain.Official, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	var out []domain.Official
	for _, official := range o.s.officials {
		if official.Chamber == chamber {
			out = append(out, official)
		}
	}
	sortOfficialsByName(out)
	return out, nil
}

// UpsertByBioguideID refreshes an official in place keyed by bioguide ID.
func (o *OfficialStore) UpsertByBioguideID(_ context.Context, official *domain.Official) (bool, error) {
	if official.BioguideID == "" {
		return false, fmt.Errorf("official %q without bioguide id: %w", official.Name, domain.ErrInvalidInput)
	}
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	official.UpdatedAt = o.s.now()
	existing, ok := o.byBioguide(official.BioguideID)
	if !ok {
		official.ID = newID()
		o.s.officials[official.ID] = *official
		return true, nil
	}
	official.ID = existing.ID
	if official.LISMemberID == "" {
		official.LISMemberID = existing.LISMemberID
	}
	o.s.officials[official.ID] = *official
	return false, nil
}

// SetLISMemberID records an official's Senate LIS identifier.
func (o *OfficialStore) SetLISMemberID(_ context.Context, officialID, lisMemberID string) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	official, ok := o.s.officials[officialID]
	if !ok {
		return domain.ErrNotFound
	}
	official.LISMemberID = lisMemberID
	official.UpdatedAt = o.s.now()
	o.s.officials[officialID] = official
	return nil
}

// byBioguide finds an official by bioguide ID. Caller must hold the lock.
func (o *OfficialStore) byBioguide(bioguideID string) (domain.Official, bool) {
	for _, official := range o.s.officials {
		if official.BioguideID == bioguideID {
			return official, true
		}
	}
	return domain.Official{}, false
}

func sortOfficialsByName(officials []domain.Official) {
	sort.Slice(officials, func(i, j int) bool {
		if officials[i].Name != officials[j].Name {
			return officials[i].Name < officials[j].Name
		}
		return officials[i].ID < officials[j].ID
	})
}

// sortOfficialsByChamber orders by chamber, then name, then ID.
func sortOfficialsByChamber(officials []domain.Official) {
	sort.Slice(officials, func(i, j int) bool {
		if officials[i].Chamber != officials[j].Chamber {
			return officials[i].Chamber < officials[j].Chamber
		}
		if officials[i].Name != officials[j].Name {
			return officials[i].Name < officials[j].Name
		}
		return officials[i].ID < officials[j].ID
	})
}

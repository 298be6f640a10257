package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
)

// LegislatorIndex resolves roll-call members to officials of one chamber,
// first by the chamber's member ID and then by (last name, state). When no
// stored surname matches, a surname that ends the official's full name in
// the same state is accepted ("Van Hollen" for "Chris Van Hollen").
type LegislatorIndex struct {
	kind       domain.MemberIDKind
	byID       map[string]*domain.Official
	byName     map[nameKey][]*domain.Official
	byState    map[string][]*domain.Official
	byOfficial map[string]*domain.Official
}

type nameKey struct {
	last  string
	state string
}

// Resolution is the outcome of resolving one roll-call member.
type Resolution struct {
	Official *domain.Official
	// Backfill is set when the official was found by name and state and the
	// member ID should be stored on the official.
	Backfill *domain.IDBackfill
}

// LoadLegislatorIndex builds an index of the officials sitting in chamber.
func LoadLegislatorIndex(ctx context.Context, officials driven.OfficialStore, chamber domain.RollCallChamber) (*LegislatorIndex, error) {
	list, err := officials.ListByChamber(ctx, chamber.Chamber())
	if err != nil {
		return nil, fmt.Errorf("list %s officials: %w", chamber, err)
	}
	return NewLegislatorIndex(chamber.MemberIDKind(), list), nil
}

// NewLegislatorIndex indexes officials by the given member ID kind.
func NewLegislatorIndex(kind domain.MemberIDKind, officials []domain.Official) *LegislatorIndex {
	idx := &LegislatorIndex{
		kind:       kind,
		byID:       make(map[string]*domain.Official, len(officials)),
		byName:     make(map[nameKey][]*domain.Official, len(officials)),
		byState:    make(map[string][]*domain.Official),
		byOfficial: make(map[string]*domain.Official, len(officials)),
	}
	for i := range officials {
		o := &officials[i]
		idx.byOfficial[o.ID] = o
		if id := o.MemberID(kind); id != "" {
			idx.byID[id] = o
		}
		state := domain.NormalizeState(o.State)
		idx.byState[state] = append(idx.byState[state], o)
		if last := o.LastName(); last != "" {
			k := nameKey{last: last, state: state}
			idx.byName[k] = append(idx.byName[k], o)
		}
	}
	return idx
}

// Resolve finds the official for a roll-call member. The name fallback only
// applies to officials whose member ID is still unknown and only when the
// (last name, state) pair is unambiguous.
func (idx *LegislatorIndex) Resolve(m domain.RollCallMember) (Resolution, bool) {
	if m.MemberID != "" {
		if o, ok := idx.byID[m.MemberID]; ok {
			return Resolution{Official: o}, true
		}
	}

	k := nameKey{last: domain.NormalizeLastName(m.LastName), state: domain.NormalizeState(m.State)}
	if k.last == "" {
		return Resolution{}, false
	}
	candidates := idx.byName[k]
	if len(candidates) == 0 {
		candidates = idx.bySuffix(k)
	}
	if len(candidates) != 1 {
		return Resolution{}, false
	}
	o := candidates[0]
	known := o.MemberID(idx.kind)
	if known != "" && m.MemberID != "" && known != m.MemberID {
		return Resolution{}, false
	}

	res := Resolution{Official: o}
	if known == "" && m.MemberID != "" {
		res.Backfill = &domain.IDBackfill{OfficialID: o.ID, Kind: idx.kind, Value: m.MemberID}
	}
	return res, true
}

// bySuffix finds officials in the key's state whose full name is the last
// name or ends with it as whole words.
func (idx *LegislatorIndex) bySuffix(k nameKey) []*domain.Official {
	var out []*domain.Official
	for _, o := range idx.byState[k.state] {
		name := o.NormalizedName()
		if name == k.last || strings.HasSuffix(name, " "+k.last) {
			out = append(out, o)
		}
	}
	return out
}

// Learn records a backfilled ID so later documents resolve by ID directly.
func (idx *LegislatorIndex) Learn(b domain.IDBackfill) {
	o, ok := idx.byOfficial[b.OfficialID]
	if !ok || b.Kind != idx.kind || o.MemberID(idx.kind) != "" {
		return
	}
	switch b.Kind {
	case domain.MemberIDBioguide:
		o.BioguideID = b.Value
	case domain.MemberIDLIS:
		o.LISMemberID = b.Value
	}
	idx.byID[b.Value] = o
}

// Len returns the number of indexed officials with a known member ID.
func (idx *LegislatorIndex) Len() int {
	return len(idx.byID)
}

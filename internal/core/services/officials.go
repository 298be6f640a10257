package services

import (
	"context"
	"fmt"

	"github.com/tisaac13/villagevote/internal/core/ports/driven"
	"github.com/tisaac13/villagevote/internal/core/ports/driving"
	"github.com/tisaac13/villagevote/internal/logger"
)

var catalogLog = logger.With("officials")

// Ensure OfficialCatalog implements the interface.
var _ driving.OfficialCatalog = (*OfficialCatalog)(nil)

// OfficialCatalog refreshes the official directory from a member source.
type OfficialCatalog struct {
	officials driven.OfficialStore
	members   driven.MemberSource
}

// NewOfficialCatalog creates a catalogue over a store and member source.
func NewOfficialCatalog(officials driven.OfficialStore, members driven.MemberSource) *OfficialCatalog {
	return &OfficialCatalog{officials: officials, members: members}
}

// Refresh upserts every sitting member of a Congress by bioguide ID.
// Members without a bioguide ID cannot be matched and count as errors.
func (c *OfficialCatalog) Refresh(ctx context.Context, congress int) (*driving.RefreshStats, error) {
	members, err := c.members.Members(ctx, congress)
	if err != nil {
		return nil, fmt.Errorf("fetch members of congress %d: %w", congress, err)
	}

	stats := &driving.RefreshStats{Fetched: len(members)}
	for i := range members {
		m := &members[i]
		if m.BioguideID == "" {
			stats.Errors++
			catalogLog.Debug("Skipping member %q without bioguide ID", m.Name)
			continue
		}
		created, err := c.officials.UpsertByBioguideID(ctx, m)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Errors++
			catalogLog.Warn("Upserting official %s: %v", m.BioguideID, err)
			continue
		}
		if created {
			stats.Created++
		} else {
			stats.Updated++
		}
	}

	catalogLog.Info("Refreshed officials for congress %d: %d created, %d updated, %d errors",
		congress, stats.Created, stats.Updated, stats.Errors)
	return stats, nil
}

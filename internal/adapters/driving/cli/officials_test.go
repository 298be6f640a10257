package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driving"
)

func TestOfficialsRefreshCmd_DefaultCongress(t *testing.T) {
	cat := &mockCatalog{stats: &driving.RefreshStats{Fetched: 535, Created: 12, Updated: 523}}
	defer withServices(&Services{Officials: cat})()

	out, err := execute("officials", "refresh")

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCongress, cat.congress)
	assert.Contains(t, out, "Fetched 535 members: 12 created, 523 updated, 0 errors.")
}

func TestOfficialsRefreshCmd_ExplicitCongress(t *testing.T) {
	cat := &mockCatalog{stats: &driving.RefreshStats{}}
	defer withServices(&Services{Officials: cat})()
	defer func() { officialsCongress = 0 }()

	_, err := execute("officials", "refresh", "--congress", "118")

	require.NoError(t, err)
	assert.Equal(t, 118, cat.congress)
}

func TestOfficialsRefreshCmd_Error(t *testing.T) {
	cat := &mockCatalog{err: domain.ErrMissingCredential}
	defer withServices(&Services{Officials: cat})()

	_, err := execute("officials", "refresh")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
}

func TestOfficialsRefreshCmd_NotConfigured(t *testing.T) {
	defer withServices(&Services{})()

	_, err := execute("officials", "refresh")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "official catalogue not configured")
}

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string   `json:"name"`
	Score *float64 `json:"score"`
	Tags  []string `json:"tags"`
}

func TestCache_SetGet(t *testing.T) {
	c := New()
	ctx := context.Background()
	score := 0.75

	require.NoError(t, c.Set(ctx, "alignment:u1", payload{Name: "u1", Score: &score, Tags: []string{"a"}}, time.Minute))

	var got payload
	ok, err := c.Get(ctx, "alignment:u1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u1", got.Name)
	require.NotNil(t, got.Score)
	assert.InDelta(t, 0.75, *got.Score, 1e-9)
}

func TestCache_Miss(t *testing.T) {
	c := New()
	var got payload
	ok, err := c.Get(context.Background(), "missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c := New()
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", payload{Name: "x"}, 300*time.Second))

	now = now.Add(299 * time.Second)
	var got payload
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Second)
	ok, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_ValuesAreCopies(t *testing.T) {
	c := New()
	ctx := context.Background()
	original := payload{Tags: []string{"a", "b"}}
	require.NoError(t, c.Set(ctx, "k", original, time.Minute))
	original.Tags[0] = "mutated"

	var got payload
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
}

func TestCache_Delete(t *testing.T) {
	c := New()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))

	require.NoError(t, c.Delete(ctx, "a", "b", "missing"))
	assert.Equal(t, 0, c.Len())
}

func TestCache_DecodeError(t *testing.T) {
	c := New()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "a string", time.Minute))

	var got payload
	_, err := c.Get(ctx, "k", &got)
	assert.Error(t, err)
}

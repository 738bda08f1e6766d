package services

import (
	"context"
	"testing"
	"time"

	"github.com/localnerve/recalldb/internal/models"
	"github.com/localnerve/recalldb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMnemonic(t *testing.T) {
	s, clock := setupTestStore(t, nil)
	ctx := context.Background()
	mustLoad(t, s, "card:\n  - _id: c1\n    front: hello\n    mnemonic: wave\n")

	got, err := s.Mnemonic(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "wave", got)

	clock.Advance(time.Minute)
	require.NoError(t, s.SetMnemonic(ctx, "c1", "hand up, say hi"))
	got, err = s.Mnemonic(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "hand up, say hi", got)

	var card models.Card
	require.NoError(t, s.DB.First(&card, "id = ?", "c1").Error)
	assert.True(t, card.UpdatedAt.Equal(clock.Now()))

	require.NoError(t, s.SetMnemonic(ctx, "c1", ""))
	got, err = s.Mnemonic(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMnemonicNotFound(t *testing.T) {
	s, _ := setupTestStore(t, nil)
	ctx := context.Background()

	_, err := s.Mnemonic(ctx, "missing")
	require.ErrorIs(t, err, types.ErrNotFound)
	require.ErrorIs(t, s.SetMnemonic(ctx, "missing", "x"), types.ErrNotFound)
}

func TestToggleTag(t *testing.T) {
	s, _ := setupTestStore(t, nil)
	ctx := context.Background()
	mustLoad(t, s, "card:\n  - _id: c1\n    front: hello\n    tag: [greeting, basic]\n")

	present, err := s.ToggleTag(ctx, "c1", MarkedTag)
	require.NoError(t, err)
	assert.True(t, present)

	cards, err := s.QueryCards(ctx, CardQuery{Filter: "tag:marked"})
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, []string{"basic", "greeting", "marked"}, cards[0].Tag)

	present, err = s.ToggleTag(ctx, "c1", MarkedTag)
	require.NoError(t, err)
	assert.False(t, present)

	cards, err = s.QueryCards(ctx, CardQuery{Filter: "tag:marked"})
	require.NoError(t, err)
	assert.Empty(t, cards)

	present, err = s.ToggleTag(ctx, "c1", "greeting")
	require.NoError(t, err)
	assert.False(t, present)
	cards, err = s.QueryCards(ctx, CardQuery{IDs: []string{"c1"}})
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, []string{"basic"}, cards[0].Tag)
}

func TestToggleTagErrors(t *testing.T) {
	s, _ := setupTestStore(t, nil)
	ctx := context.Background()
	mustLoad(t, s, "card:\n  - _id: c1\n    front: hello\n")

	_, err := s.ToggleTag(ctx, "missing", MarkedTag)
	require.ErrorIs(t, err, types.ErrNotFound)

	for _, tag := range []string{"", "two words"} {
		_, err = s.ToggleTag(ctx, "c1", tag)
		var ve *types.ValidationError
		require.ErrorAs(t, err, &ve, "tag %q", tag)
	}
}

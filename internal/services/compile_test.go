package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/localnerve/recalldb/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const compileDoc = `
model:
  - _id: vocab
    name: Vocabulary
    front: "{{word}}"
template:
  - _id: forward
    model: vocab
  - _id: kanji-only
    model: vocab
    if: "{{#kanji}}true{{/kanji}}"
note:
  - _id: apple
    model: vocab
    data:
      word: apple
  - _id: tree
    model: vocab
    data:
      word: tree
      kanji: 木
card:
  - _id: apple-f
    template: forward
    note: apple
`

// pairs lists the live cards of the store as template/note
func pairs(t *testing.T, s *Store) []string {
	t.Helper()
	var cards []models.Card
	require.NoError(t, s.DB.Find(&cards).Error)
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, deref(c.TemplateID)+"/"+deref(c.NoteID))
	}
	sort.Strings(out)
	return out
}

func TestLoadWithoutCompileKeepsDocumentCards(t *testing.T) {
	s, _ := setupTestStore(t, nil)

	res := mustLoad(t, s, compileDoc)
	assert.Zero(t, res.Compiled)
	assert.Equal(t, []string{"forward/apple"}, pairs(t, s))
}

func TestLoadCompileCards(t *testing.T) {
	s, clock := setupTestStore(t, nil)
	ctx := context.Background()

	res, err := s.Load(ctx, mustDecode(t, compileDoc), CompileCards())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cards)
	assert.Equal(t, 2, res.Compiled, "forward/tree and kanji-only/tree")
	assert.Zero(t, res.Uncompiled)
	assert.Empty(t, res.Failed)
	assert.Equal(t, []string{"forward/apple", "forward/tree", "kanji-only/tree"}, pairs(t, s))

	var docCard models.Card
	require.NoError(t, s.DB.First(&docCard, "template_id = ? AND note_id = ?", "forward", "apple").Error)
	assert.Equal(t, "apple-f", docCard.ID, "a pair with a document card is not compiled again")

	views, err := s.QueryCards(ctx, CardQuery{IDs: []string{"kanji-only"}})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "tree", views[0].NoteID)
	assert.Equal(t, "{{word}}", views[0].Front, "faces fall back to the model")

	clock.Advance(time.Minute)
	res, err = s.Load(ctx, mustDecode(t, compileDoc), CompileCards())
	require.NoError(t, err)
	assert.Zero(t, res.Compiled, "compiling twice adds nothing")
	assert.Len(t, pairs(t, s), 3)

	clock.Advance(time.Minute)
	report, err := s.Tidy(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Marked[EntityCard])
}

func TestLoadCompileTombstonesFailedCondition(t *testing.T) {
	s, clock := setupTestStore(t, nil)
	ctx := context.Background()

	_, err := s.Load(ctx, mustDecode(t, compileDoc), CompileCards())
	require.NoError(t, err)

	clock.Advance(time.Minute)
	res, err := s.Load(ctx, mustDecode(t, `
template:
  - _id: kanji-only
    model: vocab
    if: "{{#reading}}true{{/reading}}"
`), CompileCards())
	require.NoError(t, err)
	assert.Zero(t, res.Compiled)
	assert.Equal(t, 1, res.Uncompiled)
	assert.Equal(t, []string{"forward/apple", "forward/tree"}, pairs(t, s))

	var gone models.Card
	require.NoError(t, s.DB.Unscoped().First(&gone, "template_id = ?", "kanji-only").Error)
	assert.True(t, gone.DeletedAt.Time.Equal(clock.Now()))
}

func TestLoadCompileConditionError(t *testing.T) {
	s, _ := setupTestStore(t, nil)

	res, err := s.Load(context.Background(), mustDecode(t, `
model:
  - _id: vocab
template:
  - _id: broken
    model: vocab
    if: "{{#open}}"
note:
  - _id: apple
    model: vocab
    data:
      word: apple
`), CompileCards())
	require.NoError(t, err)
	assert.Zero(t, res.Compiled)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "apple", res.Failed[0].NoteID)
	assert.Equal(t, "if", res.Failed[0].Key)
	assert.Equal(t, 1, res.Notes, "the note itself is written")
	assert.Empty(t, pairs(t, s))
}

func TestLoadCompileSkipsDeletedModel(t *testing.T) {
	s, clock := setupTestStore(t, nil)
	ctx := context.Background()

	mustLoad(t, s, compileDoc)
	clock.Advance(time.Minute)
	require.NoError(t, s.DeleteModel(ctx, "vocab"))

	clock.Advance(time.Minute)
	res, err := s.Load(ctx, mustDecode(t, `
note:
  - _id: river
    model: vocab
    data:
      word: river
`), CompileCards())
	require.NoError(t, err)
	assert.Zero(t, res.Compiled)
}

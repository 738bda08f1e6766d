package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/localnerve/recalldb/internal/models"
	"github.com/localnerve/recalldb/internal/types"
	"github.com/stretchr/testify/require"
)

const deckDoc = `
model:
  - _id: vocab
    name: Vocabulary
    front: "{{word}}"
    back: "{{meaning}}"
  - _id: kanji
    name: Kanji
    front: "{{char}}"
template:
  - _id: forward
    model: vocab
    name: Forward
  - _id: reverse
    model: vocab
    name: Reverse
    front: "{{meaning}}"
    back: "{{word}}"
  - _id: reading
    model: kanji
    name: Reading
note:
  - _id: apple
    model: vocab
    data:
      word: apple
      meaning: a round fruit
  - _id: river
    model: vocab
    data:
      word: river
      meaning: flowing water
  - _id: tree
    model: kanji
    data:
      char: 木
      meaning: tree wood
card:
  - _id: apple-f
    template: forward
    note: apple
    tag: [fruit, food]
  - _id: apple-r
    template: reverse
    note: apple
    tag: fruit
  - _id: river-f
    template: forward
    note: river
    srsLevel: 2
  - _id: tree-r
    template: reading
    note: tree
    tag: leech
  - _id: solo
    front: What is Go?
    back: A language
`

func cardIDs(views []CardView) []string {
	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	sort.Strings(ids)
	return ids
}

func TestQueryCardsFilters(t *testing.T) {
	s, _ := setupTestStore(t, nil)
	ctx := context.Background()
	mustLoad(t, s, deckDoc)

	tests := []struct {
		filter string
		ids    []string
		want   []string
	}{
		{filter: "", want: []string{"apple-f", "apple-r", "river-f", "solo", "tree-r"}},
		{filter: "id:solo", want: []string{"solo"}},
		{filter: "noteId:apple", want: []string{"apple-f", "apple-r"}},
		{filter: "templateId:forward", want: []string{"apple-f", "river-f"}},
		{filter: "modelId:kanji", want: []string{"tree-r"}},
		{filter: "template=Forward", want: []string{"apple-f", "river-f"}},
		{filter: "template:ver", want: []string{"apple-r"}},
		{filter: "model:cab", want: []string{"apple-f", "apple-r", "river-f"}},
		{filter: "tag:fruit", want: []string{"apple-f", "apple-r"}},
		{filter: "tag:fru", want: []string{}},
		{filter: "-tag:fruit", want: []string{"river-f", "solo", "tree-r"}},
		{filter: "is:leech", want: []string{"tree-r"}},
		{filter: "srsLevel>1", want: []string{"river-f"}},
		{filter: "srsLevel:0 tag:fruit", want: []string{"apple-f", "apple-r"}},
		{filter: "fruit", want: []string{"apple-f", "apple-r"}},
		{filter: `"flowing water"`, want: []string{"river-f"}},
		{filter: `meaning:"round fruit"`, want: []string{"apple-f", "apple-r"}},
		{filter: "word:tree", want: []string{}},
		{filter: "?noteId:apple ?noteId:tree", want: []string{"apple-f", "apple-r", "tree-r"}},
		{filter: "?noteId:apple ?noteId:tree -tag:food", want: []string{"apple-r", "tree-r"}},
		{filter: "nextReview:NULL", want: []string{"apple-f", "apple-r", "river-f", "solo", "tree-r"}},
		{filter: "createdAt<-1d", want: []string{}},
		{ids: []string{"river"}, want: []string{"river-f"}},
		{ids: []string{"kanji", "solo"}, want: []string{"solo", "tree-r"}},
		{filter: "tag:fruit", ids: []string{"reverse"}, want: []string{"apple-r"}},
	}

	for _, tc := range tests {
		t.Run(tc.filter, func(t *testing.T) {
			views, err := s.QueryCards(ctx, CardQuery{Filter: tc.filter, IDs: tc.ids})
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, cardIDs(views)); diff != "" {
				t.Errorf("QueryCards(%q, %v) mismatch (-want +got):\n%s", tc.filter, tc.ids, diff)
			}
		})
	}
}

func TestQueryCardsResolvesFaces(t *testing.T) {
	s, _ := setupTestStore(t, nil)
	ctx := context.Background()
	mustLoad(t, s, deckDoc)

	views, err := s.QueryCards(ctx, CardQuery{IDs: []string{"apple"}})
	require.NoError(t, err)
	require.Len(t, views, 2)

	byID := map[string]CardView{}
	for _, v := range views {
		byID[v.ID] = v
	}

	forward := byID["apple-f"]
	require.Equal(t, "{{word}}", forward.Front, "model text when card and template are silent")
	require.Equal(t, "{{meaning}}", forward.Back)
	require.Equal(t, "vocab", forward.ModelID)
	require.Equal(t, []string{"food", "fruit"}, forward.Tag)
	require.Equal(t, "a round fruit", forward.Data["meaning"])

	reverse := byID["apple-r"]
	require.Equal(t, "{{meaning}}", reverse.Front, "template text overrides the model")
	require.Equal(t, "{{word}}", reverse.Back)

	solo, err := s.QueryCards(ctx, CardQuery{Filter: "id:solo"})
	require.NoError(t, err)
	require.Equal(t, "What is Go?", solo[0].Front)
	require.Empty(t, solo[0].Data)
}

func TestQueryCardsDueAndDates(t *testing.T) {
	s, clock := setupTestStore(t, nil)
	ctx := context.Background()
	mustLoad(t, s, deckDoc)

	past := clock.Now().Add(-2 * time.Hour)
	future := clock.Now().Add(72 * time.Hour)
	require.NoError(t, s.SaveSchedule(ctx, "apple-f", models.Schedule{SRSLevel: 1, NextReview: &past}))
	require.NoError(t, s.SaveSchedule(ctx, "river-f", models.Schedule{SRSLevel: 2, NextReview: &future}))

	tests := map[string][]string{
		"is:due":           {"apple-f"},
		"is:new":           {"apple-r", "solo", "tree-r"},
		"is:graduated":     {"apple-f", "river-f"},
		"nextReview:-2h":   {"apple-f"},
		"nextReview:+3d":   {"river-f"},
		"nextReview>+1d":   {"river-f"},
		"nextReview<=-1h":  {"apple-f"},
		"-nextReview:NULL": {"apple-f", "river-f"},
	}
	for filter, want := range tests {
		views, err := s.QueryCards(ctx, CardQuery{Filter: filter})
		require.NoError(t, err, filter)
		require.Equal(t, want, cardIDs(views), filter)
	}
}

func TestQueryCardsExcludesTombstones(t *testing.T) {
	s, clock := setupTestStore(t, nil)
	ctx := context.Background()
	mustLoad(t, s, deckDoc)

	clock.Advance(time.Minute)
	require.NoError(t, s.DeleteModel(ctx, "kanji"))

	views, err := s.QueryCards(ctx, CardQuery{Filter: "id:tree-r"})
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Empty(t, views[0].ModelID, "the card's template is gone")
	require.Empty(t, views[0].Front)
}

func TestQueryCardsInvalidFilter(t *testing.T) {
	s, _ := setupTestStore(t, nil)

	for _, filter := range []string{`"open`, "srsLevel>high", "nextReview:tomorrow", "is:sleeping", "tag:"} {
		_, err := s.QueryCards(context.Background(), CardQuery{Filter: filter})
		var ve *types.ValidationError
		require.ErrorAs(t, err, &ve, filter)
	}
}

func TestQueryCardsPagination(t *testing.T) {
	s, _ := setupTestStore(t, nil)
	ctx := context.Background()
	mustLoad(t, s, deckDoc)

	page, err := s.QueryCards(ctx, CardQuery{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
}

func TestQueryNotes(t *testing.T) {
	s, _ := setupTestStore(t, nil)
	ctx := context.Background()
	mustLoad(t, s, deckDoc)

	all, err := s.QueryNotes(ctx, NoteQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "apple", all[0].ID)

	kanji, err := s.QueryNotes(ctx, NoteQuery{Filter: "model=Kanji"})
	require.NoError(t, err)
	require.Len(t, kanji, 1)
	want := NoteView{
		ID:      "tree",
		ModelID: "kanji",
		Data:    map[string]interface{}{"char": "木", "meaning": "tree wood"},
	}
	if diff := cmp.Diff(want, kanji[0], cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".UpdatedAt"
	}, cmp.Ignore())); diff != "" {
		t.Errorf("QueryNotes mismatch (-want +got):\n%s", diff)
	}

	water, err := s.QueryNotes(ctx, NoteQuery{Filter: "water -word:apple"})
	require.NoError(t, err)
	require.Len(t, water, 1)
	require.Equal(t, "river", water[0].ID)

	byModel, err := s.QueryNotes(ctx, NoteQuery{IDs: []string{"vocab"}})
	require.NoError(t, err)
	require.Len(t, byModel, 2)

	_, err = s.QueryNotes(ctx, NoteQuery{Filter: "tag:fruit"})
	var ve *types.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestQueryNotesGeneratedKeys(t *testing.T) {
	s, _ := setupTestStore(t, nil)
	ctx := context.Background()

	mustLoad(t, s, `
model:
  - _id: m1
    generated:
      title: "{{word}} ({{lang}})"
note:
  - _id: n1
    model: m1
    data:
      word: hola
      lang: es
`)

	notes, err := s.QueryNotes(ctx, NoteQuery{Filter: "title:hola"})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, []string{"title"}, notes[0].Generated)
	require.Equal(t, "hola (es)", notes[0].Data["title"])
}

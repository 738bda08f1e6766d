package document

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/localnerve/recalldb/internal/types"
	"github.com/stretchr/testify/require"
)

const basic = `
model:
  - _id: m1
    name: Basic
    front: "{{front}}"
    generated:
      greeting: "Hi {{name}}"
template:
  - _id: t1
    model: m1
    name: Basic
note:
  - _id: n1
    model: m1
    data:
      front: Q
      back: A
card:
  - _id: c1
    template: t1
    note: n1
    tag: marked
  - _id: c2
    front: standalone
    tag: [a, b]
    srsLevel: 2
`

func TestDecodeYAML(t *testing.T) {
	doc, err := Decode([]byte(basic), false)
	require.NoError(t, err)

	require.Len(t, doc.Model, 1)
	require.Equal(t, "Hi {{name}}", doc.Model[0].Generated["greeting"])
	require.Len(t, doc.Template, 1)
	require.Equal(t, "m1", doc.Template[0].Model)
	require.Equal(t, "Q", doc.Note[0].Data["front"])
	require.Len(t, doc.Card, 2)
	require.Equal(t, []string{"marked"}, doc.Card[0].Tag.Slice())
	require.False(t, doc.Card[0].HasSchedule())
	require.Equal(t, []string{"a", "b"}, doc.Card[1].Tag.Slice())
	require.True(t, doc.Card[1].HasSchedule())
	require.Equal(t, 2, *doc.Card[1].SRSLevel)
}

func TestDecodeHuJSON(t *testing.T) {
	src := `{
		// comments and trailing commas are fine
		"note": [{"_id": "n1", "model": "m1", "data": {"front": "Q",},},],
	}`
	doc, err := Decode([]byte(src), true)
	require.NoError(t, err)
	require.Equal(t, "n1", doc.Note[0].ID)
}

func TestDecodeEmpty(t *testing.T) {
	doc, err := Decode(nil, false)
	require.NoError(t, err)
	require.Empty(t, doc.Model)
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing model id", "model:\n  - name: x\n"},
		{"missing note data", "note:\n  - _id: n1\n"},
		{"side effect template not a string", "model:\n  - _id: m1\n    generated:\n      _: 3\n"},
		{"negative srs level", "card:\n  - _id: c1\n    srsLevel: -1\n"},
		{"unknown field", "card:\n  - _id: c1\n    colour: red\n"},
		{"not yaml", "model: [\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.src), false)
			require.Error(t, err)
			var ve *types.ValidationError
			require.ErrorAs(t, err, &ve)
		})
	}
}

func TestReadPathDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("model:\n  - _id: m1\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.json"), []byte(`{"model": [{"_id": "m2"}]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	doc, files, err := ReadPath(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Len(t, doc.Model, 2)
	require.Equal(t, "m1", doc.Model[0].ID)
	require.Equal(t, "m2", doc.Model[1].ID)
}

func TestEncodeRoundTrip(t *testing.T) {
	doc, err := Decode([]byte(basic), false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))

	again, err := Decode(buf.Bytes(), false)
	require.NoError(t, err)
	require.Equal(t, doc.Card[0].ID, again.Card[0].ID)
	require.Equal(t, doc.Note[0].Data, again.Note[0].Data)
}

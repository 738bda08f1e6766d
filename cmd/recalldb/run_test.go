package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/localnerve/recalldb/internal/document"
	"github.com/localnerve/recalldb/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const models = `
model:
  - _id: m1
    name: Basic
    front: "{{front}}"
template:
  - _id: t1
    model: m1
`

const notes = `{
  // HuJSON sources may carry comments
  "note": [{"_id": "n1", "model": "m1", "data": {"front": "Q", "back": "A"}}],
  "card": [{"_id": "c1", "template": "t1", "note": "n1"}],
}`

type cli struct {
	t    *testing.T
	args []string
}

func newCLI(t *testing.T) *cli {
	dir := t.TempDir()
	return &cli{t: t, args: []string{
		"--db-path", filepath.Join(dir, "recalldb.db"),
		"--repos-dir", filepath.Join(dir, "repos"),
		"--log-level", "error",
	}}
}

func (c *cli) run(args ...string) (int, string, string) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{args[0]}, c.args...)
	full = append(full, args[1:]...)
	code := run(context.Background(), full, &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeDeck(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a-models.yaml"), []byte(models), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "notes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes", "b.jsonc"), []byte(notes), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# not a document"), 0o644))
	return dir
}

func TestLoadQueryExport(t *testing.T) {
	c := newCLI(t)

	code, out, errOut := c.run("load", writeDeck(t))
	require.Equal(t, 0, code, errOut)
	var result services.LoadResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 1, result.Models)
	assert.Equal(t, 1, result.Cards)

	code, out, errOut = c.run("query", "cards", "tag:none")
	require.Equal(t, 0, code, errOut)
	assert.JSONEq(t, "[]", out)

	code, out, errOut = c.run("query", "cards", "front:Q")
	require.Equal(t, 0, code, errOut)
	var cards []services.CardView
	require.NoError(t, json.Unmarshal([]byte(out), &cards))
	require.Len(t, cards, 1)
	assert.Equal(t, "{{front}}", cards[0].Front)

	code, out, errOut = c.run("query", "notes", "--ids", "m1")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, `"id": "n1"`)

	exported := filepath.Join(t.TempDir(), "export.yaml")
	code, _, errOut = c.run("export", "--out", exported)
	require.Equal(t, 0, code, errOut)
	doc, _, err := document.ReadPath(exported)
	require.NoError(t, err)
	assert.Len(t, doc.Card, 1)
	assert.Equal(t, "A", doc.Note[0].Data["back"])

	code, out, errOut = c.run("export")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "_id: c1")
}

func TestTidyHistoryAndDelete(t *testing.T) {
	c := newCLI(t)
	deck := writeDeck(t)

	code, _, errOut := c.run("load", deck)
	require.Equal(t, 0, code, errOut)

	code, _, errOut = c.run("delete-model", "m1")
	require.Equal(t, 0, code, errOut)
	code, _, errOut = c.run("delete-model", "m1")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not found")

	code, out, errOut := c.run("tidy")
	require.Equal(t, 0, code, errOut)
	var report services.TidyReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.EqualValues(t, 2, report.Marked[services.EntityNote])

	code, out, errOut = c.run("history", "c1")
	require.Equal(t, 0, code, errOut)
	assert.JSONEq(t, "[]", out)
}

func TestUsageAndErrors(t *testing.T) {
	c := newCLI(t)

	code, out, _ := c.run("--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "usage: recalldb")

	code, _, errOut := c.run("frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "unknown command")

	code, _, errOut = c.run("query", "cards", `"unterminated`)
	assert.Equal(t, 2, code, "invalid filters are usage errors")
	assert.Contains(t, errOut, "unterminated quote")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("note:\n  - model: m1\n"), 0o644))
	code, _, errOut = c.run("load", bad)
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "validation failed")

	code, _, _ = c.run("load")
	assert.Equal(t, 1, code)
}

func TestMnemonicAndTag(t *testing.T) {
	c := newCLI(t)
	code, _, errOut := c.run("load", writeDeck(t))
	require.Equal(t, 0, code, errOut)

	code, _, errOut = c.run("mnemonic", "c1", "capital", "letters")
	require.Equal(t, 0, code, errOut)
	code, out, errOut := c.run("mnemonic", "c1")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "capital letters\n", out)

	code, _, errOut = c.run("mnemonic", "--clear", "c1")
	require.Equal(t, 0, code, errOut)
	_, out, _ = c.run("mnemonic", "c1")
	assert.Equal(t, "\n", out)

	code, out, errOut = c.run("tag", "c1", "marked")
	require.Equal(t, 0, code, errOut)
	assert.JSONEq(t, `{"id": "c1", "tag": "marked", "present": true}`, out)

	code, _, errOut = c.run("tag", "missing", "marked")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not found")

	code, _, _ = c.run("mnemonic")
	assert.Equal(t, 1, code)
}

func TestLoadCompile(t *testing.T) {
	c := newCLI(t)
	dir := writeDeck(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c-templates.yaml"), []byte(`
template:
  - _id: t2
    model: m1
    if: "{{#back}}yes{{/back}}"
`), 0o644))

	code, out, errOut := c.run("load", "--compile", dir)
	require.Equal(t, 0, code, errOut)
	var result services.LoadResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 1, result.Compiled, "t2 pairs with n1; t1 already has c1")
}

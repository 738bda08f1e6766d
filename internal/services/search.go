package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/localnerve/recalldb/internal/types"
)

// Term is one parsed element of a search filter
type Term struct {
	// Sign is 0 for a required term, '-' for an excluded one and '?' for an alternative.
	Sign  rune
	Key   string
	Op    string
	Value string
}

var termPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(>=|<=|:|=|>|<)(.*)$`)

// ParseSearch splits a filter into terms.
//
// Terms are separated by whitespace outside double quotes. A term may carry a
// leading sign, then either a quoted phrase or key, operator and value, where
// the value may itself be quoted. Anything else is a bare full-text term.
func ParseSearch(q string) ([]Term, error) {
	var (
		terms   []Term
		buf     strings.Builder
		inQuote bool
		escaped bool
		// quoteAt is where the first quote of the current token opened, -1 for none
		quoteAt = -1
		started bool
	)

	flush := func() error {
		if !started {
			return nil
		}
		t, err := parseTerm(buf.String(), quoteAt)
		buf.Reset()
		quoteAt = -1
		started = false
		if err != nil {
			return err
		}
		terms = append(terms, t)
		return nil
	}

	for _, c := range q {
		switch {
		case escaped:
			buf.WriteRune(c)
			escaped = false
		case inQuote && c == '\\':
			escaped = true
		case c == '"':
			if !inQuote && quoteAt < 0 {
				quoteAt = buf.Len()
			}
			inQuote = !inQuote
			started = true
		case !inQuote && unicode.IsSpace(c):
			if err := flush(); err != nil {
				return nil, err
			}
		default:
			buf.WriteRune(c)
			started = true
		}
	}
	if inQuote {
		return nil, &types.ValidationError{Problems: []string{fmt.Sprintf("unterminated quote in %q", q)}}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return terms, nil
}

func parseTerm(raw string, quoteAt int) (Term, error) {
	var t Term
	if quoteAt != 0 && len(raw) > 1 && (raw[0] == '-' || raw[0] == '?') {
		t.Sign = rune(raw[0])
		raw = raw[1:]
		if quoteAt > 0 {
			quoteAt--
		}
	}

	// A quote opening inside the key makes the whole term a phrase
	if m := termPattern.FindStringSubmatch(raw); m != nil && quoteAt != 0 {
		if quoteAt < 0 || quoteAt >= len(m[1])+len(m[2]) {
			t.Key, t.Op, t.Value = m[1], m[2], m[3]
			if t.Value == "" {
				return t, &types.ValidationError{Problems: []string{fmt.Sprintf("%s%s has no value", t.Key, t.Op)}}
			}
			return t, nil
		}
	}

	t.Value = raw
	if t.Value == "" {
		return t, &types.ValidationError{Problems: []string{"empty search term"}}
	}
	return t, nil
}

// searchColumns names the columns a filter compiles against
type searchColumns struct {
	noteID     string
	modelID    string
	modelName  string
	cardFields bool
}

var (
	cardSearch = searchColumns{
		noteID:     "card.note_id",
		modelID:    "template.model_id",
		modelName:  "model.name",
		cardFields: true,
	}
	noteSearch = searchColumns{
		noteID:    "note_attr.note_id",
		modelID:   "note_attr.model_id",
		modelName: "model.name",
	}
)

var numberColumns = map[string]string{
	"srsLevel":    "card.srs_level",
	"maxRight":    "card.max_right",
	"maxWrong":    "card.max_wrong",
	"rightStreak": "card.right_streak",
	"wrongStreak": "card.wrong_streak",
}

var dateColumns = map[string]string{
	"nextReview": "card.next_review",
	"lastRight":  "card.last_right",
	"lastWrong":  "card.last_wrong",
	"createdAt":  "card.created_at",
	"updatedAt":  "card.updated_at",
}

var relativeTime = regexp.MustCompile(`^([+-]?)(\d+)(min|h|d|w)$`)

// compileSearch turns terms into one SQL condition with positional arguments.
// Required terms must all hold, at least one alternative must hold when any are
// given, and no excluded term may hold.
func compileSearch(terms []Term, cols searchColumns, now time.Time) (string, []interface{}, error) {
	var (
		and, or, not []string
		args         []interface{}
		orArgs       []interface{}
		notArgs      []interface{}
	)

	for _, t := range terms {
		sql, a, err := compileTerm(t, cols, now)
		if err != nil {
			return "", nil, err
		}
		sql = "(" + sql + ")"
		switch t.Sign {
		case '?':
			or = append(or, sql)
			orArgs = append(orArgs, a...)
		case '-':
			not = append(not, "NOT COALESCE("+sql+", 0)")
			notArgs = append(notArgs, a...)
		default:
			and = append(and, sql)
			args = append(args, a...)
		}
	}

	if len(or) > 0 {
		and = append(and, "("+strings.Join(or, " OR ")+")")
		args = append(args, orArgs...)
	}
	and = append(and, not...)
	args = append(args, notArgs...)

	if len(and) == 0 {
		return "", nil, nil
	}
	return strings.Join(and, " AND "), args, nil
}

func compileTerm(t Term, cols searchColumns, now time.Time) (string, []interface{}, error) {
	invalid := func(format string, a ...interface{}) error {
		return &types.ValidationError{Problems: []string{fmt.Sprintf(format, a...)}}
	}

	if t.Key == "" {
		return ftsCondition(cols.noteID, "", t.Value)
	}

	if col, ok := numberColumns[t.Key]; ok {
		if !cols.cardFields {
			return "", nil, invalid("%s does not apply to notes", t.Key)
		}
		if t.Value == "NULL" {
			return col + " IS NULL", nil, nil
		}
		n, err := strconv.Atoi(t.Value)
		if err != nil {
			return "", nil, invalid("%s needs a number, got %q", t.Key, t.Value)
		}
		return col + " " + sqlOp(t.Op) + " ?", []interface{}{n}, nil
	}

	if col, ok := dateColumns[t.Key]; ok {
		if !cols.cardFields {
			return "", nil, invalid("%s does not apply to notes", t.Key)
		}
		return dateCondition(col, t, now)
	}

	switch t.Key {
	case "id":
		if cols.cardFields {
			return "card.id = ?", []interface{}{t.Value}, nil
		}
		return cols.noteID + " = ?", []interface{}{t.Value}, nil
	case "noteId":
		return cols.noteID + " = ?", []interface{}{t.Value}, nil
	case "modelId":
		return cols.modelID + " = ?", []interface{}{t.Value}, nil
	case "model":
		return nameCondition(cols.modelName, t)
	}

	if !cols.cardFields {
		switch t.Key {
		case "templateId", "template", "tag", "is":
			return "", nil, invalid("%s does not apply to notes", t.Key)
		}
		return ftsCondition(cols.noteID, t.Key, t.Value)
	}

	switch t.Key {
	case "templateId":
		return "card.template_id = ?", []interface{}{t.Value}, nil
	case "template":
		return nameCondition("template.name", t)
	case "tag":
		return "card.tag LIKE '% ' || ? || ' %'", []interface{}{t.Value}, nil
	case "is":
		switch t.Value {
		case "new":
			return "card.next_review IS NULL", nil, nil
		case "due":
			return "card.next_review IS NOT NULL AND card.next_review <= ?", []interface{}{now}, nil
		case "leech":
			return "card.tag LIKE '% leech %'", nil, nil
		case "graduated":
			return "card.srs_level > 0", nil, nil
		}
		return "", nil, invalid("unknown card state %q", t.Value)
	}

	return ftsCondition(cols.noteID, t.Key, t.Value)
}

func sqlOp(op string) string {
	if op == ":" {
		return "="
	}
	return op
}

// nameCondition matches = exactly and every other operator as a substring
func nameCondition(col string, t Term) (string, []interface{}, error) {
	if t.Op == "=" {
		return col + " = ?", []interface{}{t.Value}, nil
	}
	return col + " LIKE '%' || ? || '%'", []interface{}{t.Value}, nil
}

// dateCondition compares against a time relative to now. An unsigned or
// negative offset is in the past. = and : match a window one unit wide.
func dateCondition(col string, t Term, now time.Time) (string, []interface{}, error) {
	if t.Value == "NULL" {
		return col + " IS NULL", nil, nil
	}

	m := relativeTime.FindStringSubmatch(t.Value)
	if m == nil {
		return "", nil, &types.ValidationError{Problems: []string{
			fmt.Sprintf("%s needs NULL or a relative time like -2d, got %q", t.Key, t.Value),
		}}
	}

	n, _ := strconv.Atoi(m[2])
	if m[1] != "+" {
		n = -n
	}
	unit := time.Hour
	switch m[3] {
	case "min":
		unit = time.Minute
	case "d":
		unit = 24 * time.Hour
	case "w":
		unit = 7 * 24 * time.Hour
	}
	at := now.Add(time.Duration(n) * unit)

	switch t.Op {
	case ":", "=":
		return col + " > ? AND " + col + " < ?", []interface{}{at.Add(-unit / 2), at.Add(unit / 2)}, nil
	}
	return col + " " + t.Op + " ?", []interface{}{at}, nil
}

// ftsCondition matches notes having an attribute, optionally of one key, whose
// value contains the phrase.
func ftsCondition(noteCol, key, phrase string) (string, []interface{}, error) {
	match := `"value" : "` + strings.ReplaceAll(phrase, `"`, `""`) + `"`
	sql := noteCol + ` IN (SELECT a.note_id FROM note_attr_fts JOIN note_attr a ON a.seq = note_attr_fts.rowid
		WHERE a.deleted_at IS NULL AND note_attr_fts MATCH ?`
	args := []interface{}{match}
	if key != "" {
		sql += ` AND a."key" = ?`
		args = append(args, key)
	}
	return sql + ")", args, nil
}

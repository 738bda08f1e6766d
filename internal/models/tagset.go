package models

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"
)

// TagSet is a set of tags stored as " a b c " so a single tag matches with LIKE '% tag %'.
type TagSet []string

// NewTagSet normalizes tags: splits on whitespace, drops duplicates and sorts.
func NewTagSet(tags ...string) TagSet {
	seen := make(map[string]struct{})
	out := TagSet{}
	for _, t := range tags {
		for _, f := range strings.Fields(t) {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

// Has reports whether tag is in the set
func (t TagSet) Has(tag string) bool {
	for _, s := range t {
		if s == tag {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer
func (t TagSet) Value() (driver.Value, error) {
	n := NewTagSet(t...)
	if len(n) == 0 {
		return "", nil
	}
	return " " + strings.Join(n, " ") + " ", nil
}

// Scan implements sql.Scanner
func (t *TagSet) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*t = nil
	case string:
		*t = NewTagSet(v)
	case []byte:
		*t = NewTagSet(string(v))
	default:
		return fmt.Errorf("failed to unmarshal TagSet value: %v", value)
	}
	return nil
}

// GormDataType stores the set as text
func (TagSet) GormDataType() string {
	return "string"
}

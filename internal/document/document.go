// Package document decodes and validates bulk-load documents.
package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/localnerve/recalldb/internal/types"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// Document is a parsed bulk-load document. All top level arrays are optional.
type Document struct {
	Model    []Model    `yaml:"model,omitempty" json:"model,omitempty" validate:"dive"`
	Template []Template `yaml:"template,omitempty" json:"template,omitempty" validate:"dive"`
	Note     []Note     `yaml:"note,omitempty" json:"note,omitempty" validate:"dive"`
	Card     []Card     `yaml:"card,omitempty" json:"card,omitempty" validate:"dive"`
}

// Model is a document model entry
type Model struct {
	ID        string                 `yaml:"_id" json:"_id" validate:"required"`
	Name      string                 `yaml:"name,omitempty" json:"name,omitempty"`
	Front     string                 `yaml:"front,omitempty" json:"front,omitempty"`
	Back      string                 `yaml:"back,omitempty" json:"back,omitempty"`
	Shared    string                 `yaml:"shared,omitempty" json:"shared,omitempty"`
	Generated map[string]interface{} `yaml:"generated,omitempty" json:"generated,omitempty" validate:"blank_is_string"`
}

// Template is a document template entry
type Template struct {
	ID     string `yaml:"_id" json:"_id" validate:"required"`
	Model  string `yaml:"model,omitempty" json:"model,omitempty"`
	Name   string `yaml:"name,omitempty" json:"name,omitempty"`
	Front  string `yaml:"front,omitempty" json:"front,omitempty"`
	Back   string `yaml:"back,omitempty" json:"back,omitempty"`
	Shared string `yaml:"shared,omitempty" json:"shared,omitempty"`
	If     string `yaml:"if,omitempty" json:"if,omitempty"`
}

// Note is a document note entry
type Note struct {
	ID    string                 `yaml:"_id" json:"_id" validate:"required"`
	Model string                 `yaml:"model,omitempty" json:"model,omitempty"`
	Data  map[string]interface{} `yaml:"data" json:"data" validate:"required"`
}

// Card is a document card entry. Scheduling fields are optional and only
// seed the review state of the card.
type Card struct {
	ID       string                 `yaml:"_id" json:"_id" validate:"required"`
	Template string                 `yaml:"template,omitempty" json:"template,omitempty"`
	Note     string                 `yaml:"note,omitempty" json:"note,omitempty"`
	Front    string                 `yaml:"front,omitempty" json:"front,omitempty"`
	Back     string                 `yaml:"back,omitempty" json:"back,omitempty"`
	Shared   string                 `yaml:"shared,omitempty" json:"shared,omitempty"`
	Mnemonic string                 `yaml:"mnemonic,omitempty" json:"mnemonic,omitempty"`
	Tag      types.FlexList[string] `yaml:"tag,omitempty" json:"tag,omitempty"`

	SRSLevel    *int       `yaml:"srsLevel,omitempty" json:"srsLevel,omitempty" validate:"omitempty,min=0"`
	NextReview  *time.Time `yaml:"nextReview,omitempty" json:"nextReview,omitempty"`
	LastRight   *time.Time `yaml:"lastRight,omitempty" json:"lastRight,omitempty"`
	LastWrong   *time.Time `yaml:"lastWrong,omitempty" json:"lastWrong,omitempty"`
	MaxRight    *int       `yaml:"maxRight,omitempty" json:"maxRight,omitempty" validate:"omitempty,min=0"`
	MaxWrong    *int       `yaml:"maxWrong,omitempty" json:"maxWrong,omitempty" validate:"omitempty,min=0"`
	RightStreak *int       `yaml:"rightStreak,omitempty" json:"rightStreak,omitempty" validate:"omitempty,min=0"`
	WrongStreak *int       `yaml:"wrongStreak,omitempty" json:"wrongStreak,omitempty" validate:"omitempty,min=0"`
}

// HasSchedule reports whether any scheduling field was given
func (c Card) HasSchedule() bool {
	return c.SRSLevel != nil || c.NextReview != nil || c.LastRight != nil || c.LastWrong != nil ||
		c.MaxRight != nil || c.MaxWrong != nil || c.RightStreak != nil || c.WrongStreak != nil
}

// Extensions maps file extensions to whether they hold HuJSON rather than YAML
var Extensions = map[string]bool{
	".yaml":   false,
	".yml":    false,
	".json":   true,
	".jsonc":  true,
	".hujson": true,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("blank_is_string", validateBlankIsString)
	return v
}

// validateBlankIsString requires the "_" entry of a generated map, when present, to be a string
func validateBlankIsString(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Map || field.IsNil() {
		return true
	}
	v := field.MapIndex(reflect.ValueOf("_"))
	if !v.IsValid() {
		return true
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	return v.Kind() == reflect.String
}

// Decode parses YAML, or HuJSON when hujson is set, and validates the result.
func Decode(b []byte, hujsonInput bool) (*Document, error) {
	if hujsonInput {
		std, err := hujson.Standardize(b)
		if err != nil {
			return nil, &types.ValidationError{Problems: []string{err.Error()}}
		}
		b = std
	}

	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, &types.ValidationError{Problems: []string{err.Error()}}
	}

	if err := Validate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ParseFile reads and decodes a document file, choosing the format from its extension.
func ParseFile(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(b, Extensions[strings.ToLower(filepath.Ext(path))])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Validate checks the document shape. Every problem is reported, not just the first.
func Validate(doc *Document) error {
	err := validate.Struct(doc)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &types.ValidationError{Problems: []string{err.Error()}}
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return &types.ValidationError{Problems: problems}
}

// Merge concatenates documents in order
func Merge(docs ...*Document) *Document {
	out := &Document{}
	for _, d := range docs {
		if d == nil {
			continue
		}
		out.Model = append(out.Model, d.Model...)
		out.Template = append(out.Template, d.Template...)
		out.Note = append(out.Note, d.Note...)
		out.Card = append(out.Card, d.Card...)
	}
	return out
}

// Encode writes doc as YAML
func Encode(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

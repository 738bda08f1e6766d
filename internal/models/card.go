package models

import (
	"time"

	"gorm.io/gorm"
)

// Schedule is the review state of a card. The store persists it but never computes it.
// Levels and counters are never negative.
type Schedule struct {
	SRSLevel    int        `gorm:"index;not null;default:0" json:"srsLevel" validate:"min=0"`
	NextReview  *time.Time `gorm:"index" json:"nextReview,omitempty"`
	LastRight   *time.Time `gorm:"index" json:"lastRight,omitempty"`
	LastWrong   *time.Time `gorm:"index" json:"lastWrong,omitempty"`
	MaxRight    int        `gorm:"not null;default:0" json:"maxRight" validate:"min=0"`
	MaxWrong    int        `gorm:"not null;default:0" json:"maxWrong" validate:"min=0"`
	RightStreak int        `gorm:"not null;default:0" json:"rightStreak" validate:"min=0"`
	WrongStreak int        `gorm:"not null;default:0" json:"wrongStreak" validate:"min=0"`
}

// Card is a reviewable unit, either paired to a Template and a Note or standalone.
//
// UID is the row key. ID is the external key and stays stable across generations:
// when ingest replaces a card in a different context, the old row is retired and
// the new row points back at it through SupersedesUID.
type Card struct {
	UID           string  `gorm:"primaryKey;not null"`
	ID            string  `gorm:"index;not null"`
	SupersedesUID *string `gorm:"index"`
	Retired       bool    `gorm:"index;not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time      `gorm:"index"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	TemplateID *string   `gorm:"index"`
	Template   *Template `gorm:"foreignKey:TemplateID"`
	NoteID     *string   `gorm:"index"`

	Front    string
	Back     string
	Shared   string
	Mnemonic string

	Schedule `gorm:"embedded"`
	Tag      TagSet `gorm:"index"`
}

// TableName overrides the table name for Card
func (Card) TableName() string {
	return "card"
}

// Paired reports whether the card points at a template and a note
func (c Card) Paired() bool {
	return c.TemplateID != nil && c.NoteID != nil
}

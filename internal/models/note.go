package models

import (
	"time"

	"gorm.io/gorm"
)

// NoteAttr is one attribute of a note. A note is the set of live rows sharing NoteID.
type NoteAttr struct {
	// Seq is the insertion order and the tie-break for duplicate rows.
	Seq       uint64 `gorm:"primaryKey;autoIncrement"`
	NoteID    string `gorm:"index:idx_note_attr_note_key,priority:1"`
	ModelID   string `gorm:"index"`
	Key       string `gorm:"index:idx_note_attr_note_key,priority:2"`
	Value     JSON
	Generated bool
	CreatedAt time.Time
	UpdatedAt time.Time      `gorm:"index"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName overrides the table name for NoteAttr
func (NoteAttr) TableName() string {
	return "note_attr"
}

package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Model is a card-type definition with its default faces and generated attribute templates
type Model struct {
	ID        string `gorm:"primaryKey;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time      `gorm:"index"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Name      string `gorm:"index"`
	Front     string
	Back      string
	Shared    string
	Generated datatypes.JSONMap
}

// Template is a named rendering variant bound to exactly one Model
type Template struct {
	ID        string `gorm:"primaryKey;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time      `gorm:"index"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	ModelID string `gorm:"index"`
	Model   *Model `gorm:"foreignKey:ModelID"`

	// Name is nil for unnamed templates; named ones should be unique per model.
	Name   *string `gorm:"index"`
	Front  string
	Back   string
	Shared string
	// If is a condition template rendered against each note of the model when
	// cards are compiled. A blank condition always holds.
	If string `gorm:"column:if_expr"`
}

// TableName overrides the table name for Model
func (Model) TableName() string {
	return "model"
}

// TableName overrides the table name for Template
func (Template) TableName() string {
	return "template"
}

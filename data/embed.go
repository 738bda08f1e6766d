// Package data embeds the SQL that gorm's AutoMigrate cannot express.
package data

import (
	_ "embed"
)

//go:embed schema/fts.sql
var NoteAttrFTS string

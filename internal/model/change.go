package model

import (
	"fmt"
	"time"
)

// ChangeType is the type of a text change.
type ChangeType string

const (
	ChangeTypeInsertion ChangeType = "insertion"
	ChangeTypeDeletion  ChangeType = "deletion"
)

// TextChange is one atomic edit of a document buffer.
//
// Position is a character (rune) offset only valid relative to the buffer state
// immediately preceding the change. Runes are not UTF-16 code units, the offsets
// differ after characters outside the BMP such as emoji.
type TextChange struct {
	ID        string
	Type      ChangeType
	Content   string
	Position  int
	Timestamp time.Time
}

// Validate validates the change.
func (c TextChange) Validate() error {
	if c.Type != ChangeTypeInsertion && c.Type != ChangeTypeDeletion {
		return fmt.Errorf("unknown change type %q: %w", c.Type, ErrNotValid)
	}
	if c.Content == "" {
		return fmt.Errorf("change content is required: %w", ErrNotValid)
	}
	if c.Position < 0 {
		return fmt.Errorf("change position must be positive: %w", ErrNotValid)
	}
	return nil
}

// ExportArtifact is a rendered export of a document and its changes.
type ExportArtifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DocumentSource is where a vault document came from.
type DocumentSource string

const (
	DocumentSourceUpload DocumentSource = "upload"
	DocumentSourceFile   DocumentSource = "file"
	DocumentSourceInline DocumentSource = "inline"
)

// Document is a document stored in the local vault.
type Document struct {
	ID        string
	Name      string
	Text      string
	PageCount int
	Source    DocumentSource
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the document.
func (d Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("id is required: %w", ErrNotValid)
	}
	if d.Name == "" {
		return fmt.Errorf("name is required: %w", ErrNotValid)
	}
	switch d.Source {
	case DocumentSourceUpload, DocumentSourceFile, DocumentSourceInline:
	default:
		return fmt.Errorf("unknown document source %q: %w", d.Source, ErrNotValid)
	}
	return nil
}

// Analysis is the final state of a task run over a vault document.
type Analysis struct {
	ID           string
	DocumentID   string
	Kind         JobKind
	RemoteTaskID string
	Status       TaskStatus
	Result       json.RawMessage
	Error        string
	CreatedAt    time.Time
}

// UploadResult is the text extracted by the backend from an uploaded file.
type UploadResult struct {
	Text      string
	PageCount int
}

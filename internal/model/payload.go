package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultMinTextLength is the minimum document text length accepted for submission.
const DefaultMinTextLength = 10

var validate = validator.New()

// SubmitPayload is the unit of work sent to the backend.
type SubmitPayload struct {
	DocumentText string         `json:"documentText" validate:"required"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Validate validates the payload, the document text (trimmed) must have at least minLength characters.
func (p SubmitPayload) Validate(minLength int) error {
	if minLength <= 0 {
		minLength = DefaultMinTextLength
	}

	text := strings.TrimSpace(p.DocumentText)
	if text == "" {
		return &ValidationError{Field: "documentText", Reason: "document text is required"}
	}

	err := validate.Var(text, fmt.Sprintf("min=%d", minLength))
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return &ValidationError{Field: "documentText", Reason: fmt.Sprintf("document text must have at least %d characters", minLength)}
		}
		return fmt.Errorf("could not validate payload: %w", err)
	}

	if err := validate.Struct(p); err != nil {
		return &ValidationError{Field: "payload", Reason: err.Error()}
	}

	return nil
}

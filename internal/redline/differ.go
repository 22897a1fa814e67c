package redline

import (
	"fmt"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/slok/legalflow/internal/model"
)

// DiffMode is the strategy used to detect the edits between two buffer states.
type DiffMode string

const (
	// DiffModeMyers computes a minimal diff of the full buffers, it's independent of the cursor.
	DiffModeMyers DiffMode = "myers"
	// DiffModeLengthDelta is the legacy heuristic that only uses the length delta and the
	// cursor position. It's correct for single keystrokes but not for pastes or multi point edits.
	DiffModeLengthDelta DiffMode = "length-delta"
)

// Validate checks the diff mode is known.
func (m DiffMode) Validate() error {
	switch m {
	case DiffModeMyers, DiffModeLengthDelta:
		return nil
	}
	return fmt.Errorf("unknown diff mode %q: %w", m, model.ErrNotValid)
}

// edit is a single detected edit. The position is a rune offset relative to the
// buffer after applying the previous edits of the same diff.
type edit struct {
	typ      model.ChangeType
	content  string
	position int
}

type differ interface {
	diff(oldContent, newContent string, cursor int) []edit
}

type myersDiffer struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

func newMyersDiffer() myersDiffer {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return myersDiffer{dmp: dmp}
}

func (d myersDiffer) diff(oldContent, newContent string, _ int) []edit {
	if oldContent == newContent {
		return nil
	}

	raw := d.dmp.DiffMain(oldContent, newContent, false)
	cleaned := d.dmp.DiffCleanupSemantic(append([]diffmatchpatch.Diff(nil), raw...))

	// Semantic cleanup can misalign multibyte boundaries, keep the raw diff when it doesn't replay.
	edits := toEdits(cleaned)
	if got, ok := replay(oldContent, edits); !ok || got != newContent {
		edits = toEdits(raw)
	}

	return edits
}

func toEdits(diffs []diffmatchpatch.Diff) []edit {
	var edits []edit
	pos := 0
	for _, df := range diffs {
		n := utf8.RuneCountInString(df.Text)
		switch df.Type {
		case diffmatchpatch.DiffEqual:
			pos += n
		case diffmatchpatch.DiffInsert:
			edits = append(edits, edit{typ: model.ChangeTypeInsertion, content: df.Text, position: pos})
			pos += n
		case diffmatchpatch.DiffDelete:
			edits = append(edits, edit{typ: model.ChangeTypeDeletion, content: df.Text, position: pos})
		}
	}
	return edits
}

// replay applies the edits in order on a buffer, it fails if a deletion doesn't match the buffer.
func replay(buffer string, edits []edit) (string, bool) {
	buf := []rune(buffer)
	for _, e := range edits {
		content := []rune(e.content)
		if e.position < 0 || e.position > len(buf) {
			return "", false
		}
		pos := e.position
		switch e.typ {
		case model.ChangeTypeInsertion:
			next := make([]rune, 0, len(buf)+len(content))
			next = append(next, buf[:pos]...)
			next = append(next, content...)
			buf = append(next, buf[pos:]...)
		case model.ChangeTypeDeletion:
			end := pos + len(content)
			if end > len(buf) || string(buf[pos:end]) != e.content {
				return "", false
			}
			buf = append(buf[:pos:pos], buf[end:]...)
		}
	}
	return string(buf), true
}

type lengthDeltaDiffer struct{}

func (lengthDeltaDiffer) diff(oldContent, newContent string, cursor int) []edit {
	oldRunes, newRunes := []rune(oldContent), []rune(newContent)
	delta := len(newRunes) - len(oldRunes)

	switch {
	case delta > 0:
		start := clamp(cursor-1, 0, len(newRunes)-delta)
		return []edit{{
			typ:      model.ChangeTypeInsertion,
			content:  string(newRunes[start : start+delta]),
			position: start,
		}}
	case delta < 0:
		delta = -delta
		start := clamp(cursor, 0, len(oldRunes)-delta)
		return []edit{{
			typ:      model.ChangeTypeDeletion,
			content:  string(oldRunes[start : start+delta]),
			position: start,
		}}
	}

	// Same length replacements are not detected by the heuristic.
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

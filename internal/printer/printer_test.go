package printer_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/printer"
)

var createdAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func documentFixture() model.Document {
	return model.Document{
		ID:        "01HXAMPLE0000000000000000",
		Name:      "employment.pdf",
		Text:      "This Employment Agreement\nis made between Employer and Employee.",
		PageCount: 2,
		Source:    model.DocumentSourceUpload,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func analysesFixture() []model.Analysis {
	return []model.Analysis{
		{ID: "an-1", Kind: model.JobKindAudit, RemoteTaskID: "abc123", Status: model.TaskStatusCompleted, Result: json.RawMessage(`{"score": 50}`), CreatedAt: createdAt},
		{ID: "an-2", Kind: model.JobKindResearch, RemoteTaskID: "def456", Status: model.TaskStatusError, Error: "document is not a contract", CreatedAt: createdAt},
	}
}

func TestTablePrinterPrintTaskState(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintTaskState(model.TaskState{
		Phase:               model.PollPhaseError,
		ActiveTaskID:        "abc123",
		ConsecutiveFailures: 3,
		Task:                &model.Task{ID: "abc123", Status: model.TaskStatusProcessing, Progress: 40},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Phase:      error")
	assert.Contains(t, out, "Active:     abc123 (resumable)")
	assert.Contains(t, out, "Failures:   3")
	assert.Contains(t, out, "Progress:   40%")
}

func TestTablePrinterPrintTask(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintTask(model.Task{ID: "abc123", Status: model.TaskStatusCompleted, Progress: 100, Result: json.RawMessage(`{"score":50}`)})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Status:     completed")
	assert.Contains(t, out, "Result:\n{\n  \"score\": 50\n}\n")
}

func TestTablePrinterPrintRedline(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintRedline(printer.Redline{
		Changes: []model.TextChange{
			{Type: model.ChangeTypeInsertion, Content: "monthly ", Position: 26},
			{Type: model.ChangeTypeDeletion, Content: ".", Position: 40},
		},
		Rejected:   []model.TextChange{{Type: model.ChangeTypeInsertion, Content: "x", Position: 1}},
		Buffer:     "The Employer will pay the monthly salary",
		ExportPath: "redline.pdf",
		ExportSize: 1536,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "#  TYPE       POSITION  CONTENT")
	assert.Contains(t, out, `0  insertion  26        "monthly "`)
	assert.Contains(t, out, `1  deletion   40        "."`)
	assert.Contains(t, out, "Rejected 1 changes.")
	assert.Contains(t, out, "Exported to redline.pdf (1.5 KB).")
	assert.True(t, strings.HasSuffix(out, "The Employer will pay the monthly salary\n"))
}

func TestTablePrinterPrintDocument(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintDocument(documentFixture(), analysesFixture())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Name:       employment.pdf")
	assert.Contains(t, out, "Created:    2024-05-01 10:00:00 UTC")
	assert.Contains(t, out, "Text:       This Employment Agreement is made between Employer and Emplo...")
	assert.Contains(t, out, "ANALYSIS")
	assert.Contains(t, out, "error (document is not a contract)")
}

func TestTablePrinterPrintDocumentListEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	require.NoError(t, p.PrintDocumentList(nil))
	assert.Empty(t, buf.String())

	require.NoError(t, p.PrintDocumentList([]model.Document{documentFixture()}))
	assert.Contains(t, buf.String(), "ID")
	assert.Contains(t, buf.String(), "employment.pdf")
}

func TestJSONPrinterPrintTaskState(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintTaskState(model.TaskState{
		Phase: model.PollPhaseError,
		Err:   &model.ServerTaskError{TaskID: "abc123", Message: "boom"},
		Task:  &model.Task{ID: "abc123", Status: model.TaskStatusError, Error: "boom"},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"phase": "error",
		"error": "task abc123 failed: boom",
		"task": {"id": "abc123", "status": "error", "progress": 0, "error": "boom"}
	}`, buf.String())
}

func TestJSONPrinterPrintDocument(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	analyses := analysesFixture()
	analyses[1].Result = json.RawMessage(`not json`)
	err := p.PrintDocument(documentFixture(), analyses)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "employment.pdf", out["name"])
	assert.Equal(t, "upload", out["source"])
	got := out["analyses"].([]any)
	require.Len(t, got, 2)
	assert.Equal(t, map[string]any{"score": float64(50)}, got[0].(map[string]any)["result"])
	assert.NotContains(t, got[1].(map[string]any), "result")
}

func TestJSONPrinterPrintRedline(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintRedline(printer.Redline{
		Changes: []model.TextChange{{Type: model.ChangeTypeDeletion, Content: "will", Position: 13, Timestamp: createdAt}},
		Buffer:  "The Employer pay",
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"changes": [{"type": "deletion", "content": "will", "position": 13, "timestamp": "2024-05-01T10:00:00Z"}],
		"rejected": [],
		"content": "The Employer pay"
	}`, buf.String())
}

func TestTablePrinterPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintMessage("ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", strings.TrimSpace(buf.String()))
}

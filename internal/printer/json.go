package printer

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/slok/legalflow/internal/model"
)

// JSONPrinter prints legalflow information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

type taskOutput struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Progress  int             `json:"progress"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

type taskStateOutput struct {
	Phase               string      `json:"phase"`
	ActiveTaskID        string      `json:"active_task_id,omitempty"`
	ConsecutiveFailures int         `json:"consecutive_failures,omitempty"`
	Error               string      `json:"error,omitempty"`
	Task                *taskOutput `json:"task,omitempty"`
}

type uploadOutput struct {
	Text       string `json:"text"`
	PageCount  int    `json:"page_count"`
	DocumentID string `json:"document_id,omitempty"`
}

type changeOutput struct {
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Position  int       `json:"position"`
	Timestamp time.Time `json:"timestamp"`
}

type redlineOutput struct {
	Changes    []changeOutput `json:"changes"`
	Rejected   []changeOutput `json:"rejected"`
	Content    string         `json:"content"`
	ExportPath string         `json:"export_path,omitempty"`
}

type documentItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	PageCount int       `json:"page_count"`
	CreatedAt time.Time `json:"created_at"`
}

type analysisOutput struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	RemoteTaskID string          `json:"remote_task_id"`
	Status       string          `json:"status"`
	Result       json.RawMessage `json:"result,omitempty"`
	Error        string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type documentOutput struct {
	documentItem
	Text      string           `json:"text"`
	UpdatedAt time.Time        `json:"updated_at"`
	Analyses  []analysisOutput `json:"analyses"`
}

type messageOutput struct {
	Message string `json:"message"`
}

// PrintTask prints the backend status of a task in JSON format.
func (j *JSONPrinter) PrintTask(task model.Task) error {
	return j.encode(newTaskOutput(task))
}

// PrintTaskState prints the final state of a task submission in JSON format.
func (j *JSONPrinter) PrintTaskState(state model.TaskState) error {
	out := taskStateOutput{
		Phase:               string(state.Phase),
		ActiveTaskID:        state.ActiveTaskID,
		ConsecutiveFailures: state.ConsecutiveFailures,
	}
	if state.Err != nil {
		out.Error = state.Err.Error()
	}
	if state.Task != nil {
		t := newTaskOutput(*state.Task)
		out.Task = &t
	}

	return j.encode(out)
}

// PrintUpload prints the extracted text of an uploaded document in JSON format.
func (j *JSONPrinter) PrintUpload(upload model.UploadResult, doc *model.Document) error {
	out := uploadOutput{Text: upload.Text, PageCount: upload.PageCount}
	if doc != nil {
		out.DocumentID = doc.ID
	}
	return j.encode(out)
}

// PrintRedline prints a redline review in JSON format.
func (j *JSONPrinter) PrintRedline(r Redline) error {
	return j.encode(redlineOutput{
		Changes:    newChangeOutputs(r.Changes),
		Rejected:   newChangeOutputs(r.Rejected),
		Content:    r.Buffer,
		ExportPath: r.ExportPath,
	})
}

// PrintDocumentList prints the vault documents in JSON format with a subset of fields.
func (j *JSONPrinter) PrintDocumentList(docs []model.Document) error {
	items := make([]documentItem, len(docs))
	for i, d := range docs {
		items[i] = newDocumentItem(d)
	}
	return j.encode(items)
}

// PrintDocument prints a vault document with its analyses in JSON format.
func (j *JSONPrinter) PrintDocument(doc model.Document, analyses []model.Analysis) error {
	out := documentOutput{
		documentItem: newDocumentItem(doc),
		Text:         doc.Text,
		UpdatedAt:    doc.UpdatedAt.UTC(),
		Analyses:     make([]analysisOutput, len(analyses)),
	}
	for i, a := range analyses {
		out.Analyses[i] = analysisOutput{
			ID:           a.ID,
			Kind:         string(a.Kind),
			RemoteTaskID: a.RemoteTaskID,
			Status:       string(a.Status),
			Result:       compactJSON(a.Result),
			Error:        a.Error,
			CreatedAt:    a.CreatedAt.UTC(),
		}
	}

	return j.encode(out)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTaskOutput(task model.Task) taskOutput {
	out := taskOutput{
		ID:       task.ID,
		Status:   string(task.Status),
		Progress: task.Progress,
		Result:   compactJSON(task.Result),
		Error:    task.Error,
	}
	if !task.UpdatedAt.IsZero() {
		t := task.UpdatedAt.UTC()
		out.UpdatedAt = &t
	}
	return out
}

func newChangeOutputs(changes []model.TextChange) []changeOutput {
	out := make([]changeOutput, len(changes))
	for i, c := range changes {
		out[i] = changeOutput{
			Type:      string(c.Type),
			Content:   c.Content,
			Position:  c.Position,
			Timestamp: c.Timestamp.UTC(),
		}
	}
	return out
}

func newDocumentItem(d model.Document) documentItem {
	return documentItem{
		ID:        d.ID,
		Name:      d.Name,
		Source:    string(d.Source),
		PageCount: d.PageCount,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// compactJSON returns nil for results that are not valid JSON so the output stays valid.
func compactJSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || !json.Valid(raw) {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil
	}
	return buf.Bytes()
}

func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

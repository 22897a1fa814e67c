package printer

import "github.com/slok/legalflow/internal/model"

// Printer knows how to print legalflow information in different formats.
type Printer interface {
	PrintTask(task model.Task) error
	PrintTaskState(state model.TaskState) error
	PrintUpload(upload model.UploadResult, doc *model.Document) error
	PrintRedline(redline Redline) error
	PrintDocumentList(docs []model.Document) error
	PrintDocument(doc model.Document, analyses []model.Analysis) error
	PrintMessage(msg string) error
}

// Redline is the outcome of a redline review.
type Redline struct {
	Changes  []model.TextChange
	Rejected []model.TextChange
	Buffer   string
	// ExportPath is where the export was written, empty when not exported.
	ExportPath string
	ExportSize int64
}

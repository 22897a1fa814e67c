package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/slok/legalflow/internal/model"
)

const previewRunes = 60

// TablePrinter prints legalflow information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintTask prints the backend status of a task.
func (t *TablePrinter) PrintTask(task model.Task) error {
	fmt.Fprintf(t.writer, "Task:       %s\n", task.ID)
	fmt.Fprintf(t.writer, "Status:     %s\n", task.Status)
	fmt.Fprintf(t.writer, "Progress:   %d%%\n", task.Progress)

	if task.Error != "" {
		fmt.Fprintf(t.writer, "Error:      %s\n", task.Error)
	}
	if len(task.Result) > 0 {
		fmt.Fprintf(t.writer, "Result:\n%s\n", indentJSON(task.Result))
	}

	return nil
}

// PrintTaskState prints the final state of a task submission.
func (t *TablePrinter) PrintTaskState(state model.TaskState) error {
	fmt.Fprintf(t.writer, "Phase:      %s\n", state.Phase)
	if state.ActiveTaskID != "" {
		fmt.Fprintf(t.writer, "Active:     %s (resumable)\n", state.ActiveTaskID)
	}
	if state.ConsecutiveFailures > 0 {
		fmt.Fprintf(t.writer, "Failures:   %d\n", state.ConsecutiveFailures)
	}
	if state.Task == nil {
		return nil
	}

	return t.PrintTask(*state.Task)
}

// PrintUpload prints the extracted text of an uploaded document.
func (t *TablePrinter) PrintUpload(upload model.UploadResult, doc *model.Document) error {
	if doc != nil {
		fmt.Fprintf(t.writer, "Saved:      %s\n", doc.ID)
	}
	fmt.Fprintf(t.writer, "Pages:      %d\n", upload.PageCount)
	fmt.Fprintf(t.writer, "Characters: %d\n", utf8.RuneCountInString(upload.Text))
	fmt.Fprintf(t.writer, "\n%s\n", upload.Text)

	return nil
}

// PrintRedline prints the change log of a redline review and the resulting document.
func (t *TablePrinter) PrintRedline(r Redline) error {
	if len(r.Changes) > 0 {
		tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tTYPE\tPOSITION\tCONTENT")
		for i, c := range r.Changes {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%q\n", i, c.Type, c.Position, c.Content)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(r.Rejected) > 0 {
		fmt.Fprintf(t.writer, "\nRejected %d changes.\n", len(r.Rejected))
	}
	if r.ExportPath != "" {
		fmt.Fprintf(t.writer, "\nExported to %s (%s).\n", r.ExportPath, FormatBytes(r.ExportSize))
	}

	fmt.Fprintf(t.writer, "\n%s\n", r.Buffer)

	return nil
}

// PrintDocumentList prints the vault documents in a table format.
func (t *TablePrinter) PrintDocumentList(docs []model.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tNAME\tSOURCE\tPAGES\tSIZE\tCREATED")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			d.ID,
			d.Name,
			d.Source,
			d.PageCount,
			FormatBytes(int64(len(d.Text))),
			TimeAgo(d.CreatedAt),
		)
	}

	return nil
}

// PrintDocument prints a vault document with its analyses.
func (t *TablePrinter) PrintDocument(doc model.Document, analyses []model.Analysis) error {
	fmt.Fprintf(t.writer, "Name:       %s\n", doc.Name)
	fmt.Fprintf(t.writer, "ID:         %s\n", doc.ID)
	fmt.Fprintf(t.writer, "Source:     %s\n", doc.Source)
	fmt.Fprintf(t.writer, "Pages:      %d\n", doc.PageCount)
	fmt.Fprintf(t.writer, "Created:    %s\n", FormatTimestamp(doc.CreatedAt))
	fmt.Fprintf(t.writer, "Updated:    %s\n", FormatTimestamp(doc.UpdatedAt))
	fmt.Fprintf(t.writer, "Text:       %s\n", preview(doc.Text))

	if len(analyses) == 0 {
		return nil
	}

	fmt.Fprintln(t.writer)
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ANALYSIS\tKIND\tTASK\tSTATUS\tCREATED")
	for _, a := range analyses {
		status := string(a.Status)
		if a.Error != "" {
			status = fmt.Sprintf("%s (%s)", a.Status, a.Error)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Kind, a.RemoteTaskID, status, TimeAgo(a.CreatedAt))
	}

	return nil
}

// PrintMessage prints a simple message.
func (t *TablePrinter) PrintMessage(msg string) error {
	_, err := fmt.Fprintln(t.writer, msg)
	return err
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	return string([]rune(text)[:previewRunes]) + "..."
}

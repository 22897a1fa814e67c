package fake

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-pdf/fpdf"
)

// ExportChange is a change received in an export request.
type ExportChange struct {
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Position  int       `json:"position"`
	Timestamp time.Time `json:"timestamp"`
}

// ExportRequest is the body of an export request.
type ExportRequest struct {
	Content string         `json:"content"`
	Changes []ExportChange `json:"changes"`
}

// ExportFilename is the name the fake server gives to exported files.
const ExportFilename = "redline-export.pdf"

func (s *Server) handleExport(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %s", err)})
		return
	}

	s.mu.Lock()
	s.exports = append(s.exports, req)
	s.mu.Unlock()

	data, err := renderRedlinePDF(req)
	if err != nil {
		s.logger.Errorf("Could not render PDF: %s", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not render document"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, ExportFilename))
	c.Data(http.StatusOK, "application/pdf", data)
}

func renderRedlinePDF(req ExportRequest) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "Redline", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, tr(req.Content), "", "L", false)
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Changes (%d)", len(req.Changes)), "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	for i, ch := range req.Changes {
		mark := "+"
		pdf.SetTextColor(0, 120, 0)
		if ch.Type == "deletion" {
			mark = "-"
			pdf.SetTextColor(190, 0, 0)
		}
		line := fmt.Sprintf("%d. [%s] at %d: %q", i+1, mark, ch.Position, ch.Content)
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
	}
	pdf.SetTextColor(0, 0, 0)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

package fake

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const maxUploadBytes = 20 << 20

var pdfMagic = []byte("%PDF")

func (s *Server) handleUpload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fh.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too big"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not open file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}

	s.mu.Lock()
	s.uploads = append(s.uploads, fh.Filename)
	s.mu.Unlock()

	if !bytes.HasPrefix(data, pdfMagic) {
		if !utf8.Valid(data) {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported file type"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"text": strings.TrimSpace(string(data)), "pageCount": 1})
		return
	}

	text, pages, err := s.extractPDF(data)
	if err != nil {
		s.logger.Warningf("Could not process PDF %s: %s", fh.Filename, err)
		msg := fmt.Sprintf("processing failed: %s", err)
		if s.cfg.FailuresInBody {
			c.JSON(http.StatusOK, gin.H{"success": false, "error": msg})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "text": text, "pageCount": pages})
}

var (
	// showText matches a literal string shown with the Tj or ' operators.
	showText = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)\s*(?:Tj|')`)
	// showTextArray matches the array operand of the TJ operator.
	showTextArray = regexp.MustCompile(`\[((?:\\.|[^\]])*)\]\s*TJ`)
	// literal matches a literal string.
	literal = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)
)

// textFromContentLine returns the text shown by the operators of a content stream line.
func textFromContentLine(line string) string {
	var sb strings.Builder
	for _, m := range showText.FindAllStringSubmatch(line, -1) {
		sb.WriteString(unescapePDFString(m[1]))
	}
	for _, m := range showTextArray.FindAllStringSubmatch(line, -1) {
		for _, lm := range literal.FindAllStringSubmatch(m[1], -1) {
			sb.WriteString(unescapePDFString(lm[1]))
		}
	}
	return sb.String()
}

func (s *Server) extractPDF(data []byte) (string, int, error) {
	conf := pdfmodel.NewDefaultConfiguration()

	pages, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return "", 0, fmt.Errorf("could not read PDF: %w", err)
	}

	outDir, err := os.MkdirTemp("", "legalflow-upload-")
	if err != nil {
		return "", 0, fmt.Errorf("could not create temp dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContent(bytes.NewReader(data), outDir, "upload", nil, conf); err != nil {
		return "", 0, fmt.Errorf("could not extract content: %w", err)
	}

	files, err := os.ReadDir(outDir)
	if err != nil {
		return "", 0, fmt.Errorf("could not read extracted content: %w", err)
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		if !f.IsDir() {
			names = append(names, f.Name())
		}
	}
	sort.Strings(names)

	var text strings.Builder
	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			return "", 0, fmt.Errorf("could not read %s: %w", name, err)
		}
		for _, line := range strings.Split(string(content), "\n") {
			if lineText := textFromContentLine(line); lineText != "" {
				text.WriteString(lineText)
				text.WriteString("\n")
			}
		}
	}

	return strings.TrimSpace(text.String()), pages, nil
}

var pdfEscapes = strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`, `\n`, "\n", `\r`, "", `\t`, "\t")

func unescapePDFString(s string) string { return pdfEscapes.Replace(s) }

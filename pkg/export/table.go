package export

import (
	"fmt"
	"strings"
)

// Supported output formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// Table is a titled grid of text cells. Rows shorter than Columns are padded.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

func (t Table) cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// ContentType maps a format to its MIME type.
func ContentType(format string) (string, bool) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return "text/csv; charset=utf-8", true
	case FormatPDF:
		return "application/pdf", true
	default:
		return "", false
	}
}

// Render encodes the table in the requested format.
func Render(format string, t Table) ([]byte, error) {
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("%s requires at least one column", format)
	}
	switch strings.ToLower(format) {
	case FormatCSV:
		return renderCSV(t)
	case FormatPDF:
		return renderPDF(t)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

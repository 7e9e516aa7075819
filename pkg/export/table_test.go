package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCSVPadsShortRows(t *testing.T) {
	out, err := Render(FormatCSV, Table{
		Columns: []string{"Course", "Grade"},
		Rows:    [][]string{{"Algorithms", "91.5"}, {"Compilers"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Course,Grade\nAlgorithms,91.5\nCompilers,\n", string(out))
}

func TestRenderPDF(t *testing.T) {
	out, err := Render("PDF", Table{Title: "Transcript: Ada Lovelace", Columns: []string{"Course"}})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	_, err := Render("xlsx", Table{Columns: []string{"Course"}})
	assert.Error(t, err)

	_, err = Render(FormatCSV, Table{})
	assert.Error(t, err)

	_, ok := ContentType("xlsx")
	assert.False(t, ok)
	ct, ok := ContentType("csv")
	assert.True(t, ok)
	assert.Equal(t, "text/csv; charset=utf-8", ct)
}

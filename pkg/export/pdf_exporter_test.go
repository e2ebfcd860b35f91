package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(Document{
		Title:  "Review statement",
		Fields: []Field{{Label: "Status", Value: "Pending dean approval"}},
		Tables: []Table{
			{Title: "Evaluations", Headers: []string{"Reviewer", "Grade"}, Rows: [][]string{{"R1", "3"}, {"R2", "3"}}},
			{Title: "Language checks", Headers: []string{"Checker", "Grade"}},
		},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRejectsRaggedRows(t *testing.T) {
	_, err := NewPDFExporter().Render(Document{
		Tables: []Table{{Title: "Bad", Headers: []string{"A", "B"}, Rows: [][]string{{"only one"}}}},
	})
	require.Error(t, err)

	_, err = NewPDFExporter().Render(Document{Tables: []Table{{Title: "Empty"}}})
	require.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 30))
	long := strings.Repeat("a", 100)
	got := truncate(long, 10)
	assert.Len(t, got, 20)
	assert.True(t, strings.HasSuffix(got, "..."))
}

package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Grade Card",
		Fields:  []Field{{Label: "Student", Value: "stu-1"}, {Label: "CGPA", Value: "3.50"}},
		Headers: []string{"Code", "Course", "Grade"},
		Rows:    [][]string{{"CS101", "Intro", "A"}, {"CS102"}},
	}
}

func TestCSVExporterWritesFieldsThenTable(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Student,stu-1\nCGPA,3.50\n\nCode,Course,Grade\nCS101,Intro,A\nCS102,,\n", string(out))
}

func TestCSVExporterMixesRecordWidths(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Fields:  []Field{{Label: "Student", Value: "stu-1"}},
		Headers: []string{"Code", "Name", "Grade", "Points"},
		Rows:    [][]string{{"CS101", "Intro, Part 1", "A", "4"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Student,stu-1\n\nCode,Name,Grade,Points\nCS101,\"Intro, Part 1\",A,4\n", string(out))

	out, err = NewCSVExporter().Render(Dataset{Headers: []string{"Code"}, Rows: [][]string{{"CS101", "ignored"}}})
	require.NoError(t, err)
	assert.Equal(t, "Code\nCS101\n", string(out))
}

func TestPDFExporterProducesDocument(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderRequiresHeaders(t *testing.T) {
	_, err := Render(FormatCSV, Dataset{})
	assert.Error(t, err)
	_, err = Render(FormatPDF, Dataset{})
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, format)
	assert.Equal(t, "application/pdf", format.ContentType())

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

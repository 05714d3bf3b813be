package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Exam results",
		Details: [][2]string{{"Name", "Jane Doe"}, {"Registration No", "42"}},
		Headers: []string{"Subject", "Marks"},
		Rows: []map[string]string{
			{"Subject": "Math", "Marks": "91"},
			{"Subject": "Physics, Lab", "Marks": "78"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Subject,Marks\nMath,91\n\"Physics, Lab\",78\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestPDFExporterRendersEmptyTable(t *testing.T) {
	data := sampleDataset()
	data.Rows = nil
	out, err := NewPDFExporter().Render(data)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

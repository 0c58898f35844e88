package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() Document {
	return Document{
		Title:    "Class Timetable",
		Subtitle: "10-A, 2025-01-05",
		Data: Dataset{
			Headers: []string{"Period", "Subject"},
			Rows: []map[string]string{
				{"Period": "1", "Subject": "Mathematics"},
				{"Period": "2", "Subject": "Physics, Lab"},
			},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDocument())
	require.NoError(t, err)
	assert.Equal(t, "Period,Subject\n1,Mathematics\n2,\"Physics, Lab\"\n", string(out))
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDocument())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Document{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Document{})
	assert.Error(t, err)
}

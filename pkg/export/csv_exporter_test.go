package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	data := Dataset{
		Title:   "ignored for csv",
		Headers: []string{"Date", "Status"},
		Rows: []map[string]string{
			{"Date": "2026-03-10", "Status": "OVERDUE"},
			{"Date": "2026-03-15", "Status": "DUE"},
		},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Date,Status\n2026-03-10,OVERDUE\n2026-03-15,DUE\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()
	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()
	data := Dataset{
		Title:   "Attendance - Ada Lovelace",
		Headers: []string{"Date", "Present"},
		Rows:    []map[string]string{{"Date": "2026-03-10", "Present": "yes"}},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)
	assert.True(t, len(out) > 0)
	assert.Equal(t, "%PDF", string(out[:4]))
}

package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRoster() Dataset {
	return RosterDataset([]RosterRow{
		{Activity: "Robotics", Day: "Monday", TimeSlot: "AFTER_SCHOOL", StudentID: "s2", Student: "Budi", Type: "SMART_RANKED"},
		{Activity: "Choir", Day: "Tuesday", TimeSlot: "BEFORE_SCHOOL", StudentID: "s3", Student: "Citra", Type: "FIRST_COME"},
		{Activity: "Robotics", Day: "Monday", TimeSlot: "AFTER_SCHOOL", StudentID: "s1", Student: "Ani", Type: "INVITED"},
	})
}

func TestRosterDatasetOrdersByActivityAndStudent(t *testing.T) {
	data := sampleRoster()
	require.Len(t, data.Rows, 3)
	assert.Equal(t, ColumnActivity, data.GroupBy)
	assert.Equal(t, "Choir", data.Rows[0][ColumnActivity])
	assert.Equal(t, "Ani", data.Rows[1][ColumnStudent])
	assert.Equal(t, "Budi", data.Rows[2][ColumnStudent])
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleRoster(), "ignored")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Activity,Day,Time Slot,Student ID,Student,Allocation Type", lines[0])
	assert.Equal(t, "Choir,Tuesday,BEFORE_SCHOOL,s3,Citra,FIRST_COME", lines[1])
}

func TestExportersRejectEmptyHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{}, "")
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleRoster(), "ECA roster")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	empty, err := NewPDFExporter().Render(RosterDataset(nil), "")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(empty, []byte("%PDF")))
}

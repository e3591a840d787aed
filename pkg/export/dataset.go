package export

import "sort"

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	// GroupBy names the header whose value starts a new section in paged formats.
	GroupBy string
}

// RosterRow is one confirmed allocation as it appears on an activity roster.
type RosterRow struct {
	Activity  string
	Day       string
	TimeSlot  string
	StudentID string
	Student   string
	Type      string
}

// Roster column headers.
const (
	ColumnActivity  = "Activity"
	ColumnDay       = "Day"
	ColumnTimeSlot  = "Time Slot"
	ColumnStudent   = "Student"
	ColumnStudentID = "Student ID"
	ColumnType      = "Allocation Type"
)

// RosterDataset orders rows by activity then student and groups them by activity.
func RosterDataset(rows []RosterRow) Dataset {
	sorted := make([]RosterRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Activity != sorted[j].Activity {
			return sorted[i].Activity < sorted[j].Activity
		}
		if sorted[i].Student != sorted[j].Student {
			return sorted[i].Student < sorted[j].Student
		}
		return sorted[i].StudentID < sorted[j].StudentID
	})

	data := Dataset{
		Headers: []string{ColumnActivity, ColumnDay, ColumnTimeSlot, ColumnStudentID, ColumnStudent, ColumnType},
		Rows:    make([]map[string]string, 0, len(sorted)),
		GroupBy: ColumnActivity,
	}
	for _, row := range sorted {
		data.Rows = append(data.Rows, map[string]string{
			ColumnActivity:  row.Activity,
			ColumnDay:       row.Day,
			ColumnTimeSlot:  row.TimeSlot,
			ColumnStudentID: row.StudentID,
			ColumnStudent:   row.Student,
			ColumnType:      row.Type,
		})
	}
	return data
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DayOfWeek is the ISO weekday an activity meets on (1 = Monday).
type DayOfWeek int

var dayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Name returns the English weekday name, or the number for out-of-range values.
func (d DayOfWeek) Name() string {
	if d < 1 || int(d) >= len(dayNames) {
		return fmt.Sprintf("Day %d", int(d))
	}
	return dayNames[d]
}

// TimeSlot enumerates the daily windows ECAs run in.
type TimeSlot string

const (
	TimeSlotBeforeSchool TimeSlot = "BEFORE_SCHOOL"
	TimeSlotAfterSchool  TimeSlot = "AFTER_SCHOOL"
)

// Valid reports whether the slot is a known value.
func (t TimeSlot) Valid() bool {
	return t == TimeSlotBeforeSchool || t == TimeSlotAfterSchool
}

// ActivityType controls how students may join an activity.
type ActivityType string

const (
	ActivityTypeOpen       ActivityType = "OPEN"
	ActivityTypeInviteOnly ActivityType = "INVITE_ONLY"
	ActivityTypeCompulsory ActivityType = "COMPULSORY"
	ActivityTypeTryout     ActivityType = "TRYOUT"
)

// GenderRestriction is stored on activities but not enforced: students carry no gender attribute.
type GenderRestriction string

const (
	GenderRestrictionNone   GenderRestriction = ""
	GenderRestrictionMale   GenderRestriction = "MALE"
	GenderRestrictionFemale GenderRestriction = "FEMALE"
)

// AllocationType tags how an allocation came to exist.
type AllocationType string

const (
	AllocationTypeFirstCome         AllocationType = "FIRST_COME"
	AllocationTypeSmartPriority     AllocationType = "SMART_PRIORITY"
	AllocationTypeSmartRanked       AllocationType = "SMART_RANKED"
	AllocationTypeSmartReallocation AllocationType = "SMART_REALLOCATION"
	AllocationTypeSmartForced       AllocationType = "SMART_FORCED"
	AllocationTypeCompulsory        AllocationType = "COMPULSORY"
	AllocationTypeInvited           AllocationType = "INVITED"
)

// AllocationTypes lists every known allocation type.
var AllocationTypes = []AllocationType{
	AllocationTypeFirstCome,
	AllocationTypeSmartPriority,
	AllocationTypeSmartRanked,
	AllocationTypeSmartReallocation,
	AllocationTypeSmartForced,
	AllocationTypeCompulsory,
	AllocationTypeInvited,
}

// Preserved reports whether allocations of this type survive allocation runs.
func (t AllocationType) Preserved() bool {
	switch t {
	case AllocationTypeCompulsory, AllocationTypeInvited:
		return true
	case AllocationTypeFirstCome, AllocationTypeSmartPriority, AllocationTypeSmartRanked,
		AllocationTypeSmartReallocation, AllocationTypeSmartForced:
		return false
	default:
		return false
	}
}

// Valid reports whether the type is one of the known values.
func (t AllocationType) Valid() bool {
	for _, known := range AllocationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// AllocationStatus captures the lifecycle of an allocation row.
type AllocationStatus string

const (
	AllocationStatusConfirmed AllocationStatus = "CONFIRMED"
	AllocationStatusWithdrawn AllocationStatus = "WITHDRAWN"
)

// SelectionMode selects the top-level allocation algorithm.
type SelectionMode string

const (
	SelectionModeFirstCome SelectionMode = "FIRST_COME_FIRST_SERVED"
	SelectionModeSmart     SelectionMode = "SMART_ALLOCATION"
)

// Valid reports whether the mode is known.
func (m SelectionMode) Valid() bool {
	return m == SelectionModeFirstCome || m == SelectionModeSmart
}

// ParseSelectionMode normalises user input into a SelectionMode.
func ParseSelectionMode(raw string) (SelectionMode, bool) {
	mode := SelectionMode(strings.ToUpper(strings.TrimSpace(raw)))
	switch mode {
	case "FCFS", "FIRST_COME":
		return SelectionModeFirstCome, true
	case "SMART":
		return SelectionModeSmart, true
	}
	return mode, mode.Valid()
}

// YearGroupSet is the typed eligibility list stored as a JSON array column.
// An empty set admits every year group.
type YearGroupSet map[string]struct{}

// NewYearGroupSet builds a set from identifiers, skipping blanks.
func NewYearGroupSet(ids ...string) YearGroupSet {
	set := make(YearGroupSet, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}

// Allows reports whether the given year group may join.
func (s YearGroupSet) Allows(yearGroupID string) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[yearGroupID]
	return ok
}

// Slice returns the identifiers in sorted order.
func (s YearGroupSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON renders the set as a sorted array.
func (s YearGroupSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON accepts an array of strings or numbers.
func (s *YearGroupSet) UnmarshalJSON(data []byte) error {
	parsed, err := parseYearGroups(data)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalYAML renders the set as a sorted sequence.
func (s YearGroupSet) MarshalYAML() (interface{}, error) {
	return s.Slice(), nil
}

// UnmarshalYAML decodes a YAML sequence of identifiers.
func (s *YearGroupSet) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw []string
	if err := unmarshal(&raw); err != nil {
		return fmt.Errorf("decode year groups: %w", err)
	}
	*s = NewYearGroupSet(raw...)
	return nil
}

// Value stores the set as a JSON array.
func (s YearGroupSet) Value() (driver.Value, error) {
	data, err := json.Marshal(s.Slice())
	if err != nil {
		return nil, fmt.Errorf("marshal year groups: %w", err)
	}
	return data, nil
}

// Scan reads a JSON array column. NULL and empty payloads yield an empty set.
func (s *YearGroupSet) Scan(value interface{}) error {
	if value == nil {
		*s = YearGroupSet{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported year group payload %T", value)
	}
	parsed, err := parseYearGroups(data)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func parseYearGroups(data []byte) (YearGroupSet, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return YearGroupSet{}, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, fmt.Errorf("decode year groups: %w", err)
	}
	ids := make([]string, 0, len(raw))
	for _, item := range raw {
		var str string
		if err := json.Unmarshal(item, &str); err == nil {
			ids = append(ids, str)
			continue
		}
		var num json.Number
		if err := json.Unmarshal(item, &num); err != nil {
			return nil, fmt.Errorf("decode year group %s: %w", string(item), err)
		}
		ids = append(ids, num.String())
	}
	return NewYearGroupSet(ids...), nil
}

// ECAActivity is an extracurricular activity offered in a term.
type ECAActivity struct {
	ID                 string            `db:"id" json:"id" yaml:"id"`
	SchoolID           string            `db:"school_id" json:"school_id" yaml:"schoolId"`
	TermID             string            `db:"term_id" json:"term_id" yaml:"termId"`
	Name               string            `db:"name" json:"name" yaml:"name"`
	DayOfWeek          DayOfWeek         `db:"day_of_week" json:"day_of_week" yaml:"dayOfWeek"`
	TimeSlot           TimeSlot          `db:"time_slot" json:"time_slot" yaml:"timeSlot"`
	MaxCapacity        *int              `db:"max_capacity" json:"max_capacity,omitempty" yaml:"maxCapacity,omitempty"`
	MinCapacity        *int              `db:"min_capacity" json:"min_capacity,omitempty" yaml:"minCapacity,omitempty"`
	ActivityType       ActivityType      `db:"activity_type" json:"activity_type" yaml:"activityType"`
	EligibleYearGroups YearGroupSet      `db:"eligible_year_groups" json:"eligible_year_groups" yaml:"eligibleYearGroups,omitempty"`
	GenderRestriction  GenderRestriction `db:"gender_restriction" json:"gender_restriction,omitempty" yaml:"genderRestriction,omitempty"`
	IsActive           bool              `db:"is_active" json:"is_active" yaml:"-"`
	IsCancelled        bool              `db:"is_cancelled" json:"is_cancelled" yaml:"isCancelled"`
	CancelReason       *string           `db:"cancel_reason" json:"cancel_reason,omitempty" yaml:"cancelReason,omitempty"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at" yaml:"-"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updated_at" yaml:"-"`
}

// ECASelection is a student's ranked preference for an activity.
type ECASelection struct {
	ID                 string    `db:"id" json:"id" yaml:"id"`
	TermID             string    `db:"term_id" json:"term_id" yaml:"termId"`
	StudentID          string    `db:"student_id" json:"student_id" yaml:"studentId"`
	StudentYearGroupID string    `db:"student_year_group_id" json:"student_year_group_id" yaml:"yearGroup"`
	ActivityID         string    `db:"activity_id" json:"activity_id" yaml:"activityId"`
	Rank               int       `db:"rank" json:"rank" yaml:"rank"`
	IsPriority         bool      `db:"is_priority" json:"is_priority" yaml:"isPriority"`
	CreatedAt          time.Time `db:"created_at" json:"created_at" yaml:"createdAt"`
}

// ECAAllocation is the committed assignment of a student to an activity.
type ECAAllocation struct {
	ID             string           `db:"id" json:"id" yaml:"id"`
	TermID         string           `db:"term_id" json:"term_id" yaml:"termId"`
	StudentID      string           `db:"student_id" json:"student_id" yaml:"studentId"`
	ActivityID     string           `db:"activity_id" json:"activity_id" yaml:"activityId"`
	DayOfWeek      DayOfWeek        `db:"day_of_week" json:"day_of_week" yaml:"dayOfWeek"`
	TimeSlot       TimeSlot         `db:"time_slot" json:"time_slot" yaml:"timeSlot"`
	AllocationType AllocationType   `db:"allocation_type" json:"allocation_type" yaml:"allocationType"`
	Status         AllocationStatus `db:"status" json:"status" yaml:"status"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at" yaml:"-"`
}

// ECAAllocationDetail enriches an allocation with display names for exports.
type ECAAllocationDetail struct {
	ECAAllocation
	ActivityName string `db:"activity_name" json:"activity_name"`
	StudentName  string `db:"student_name" json:"student_name"`
}

// ECAWaitlistEntry queues a student for an activity they could not be placed in.
type ECAWaitlistEntry struct {
	ID         string    `db:"id" json:"id"`
	TermID     string    `db:"term_id" json:"term_id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	ActivityID string    `db:"activity_id" json:"activity_id"`
	Position   int       `db:"position" json:"position"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ECAWaitlistDetail enriches a waitlist row with the activity name.
type ECAWaitlistDetail struct {
	ECAWaitlistEntry
	ActivityName string `db:"activity_name" json:"activity_name"`
}

package query

import (
	"time"

	"gorm.io/gorm"
)

// DateRange is an inclusive [start, end] window. Construct it with
// ParseDateRange so the bounds are normalized to the day edges of the
// requesting client's timezone.
type DateRange struct {
	Start time.Time
	End   time.Time
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseDate parses a client-supplied date in the given location,
// accepting a bare date, RFC3339 or a datetime without zone.
func ParseDate(value string, loc *time.Location) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDateRange builds a DateRange from two raw date strings. Start is
// normalized to 00:00:00 and end to 23:59:59.999999999 in loc, so a due
// date exactly on either day is included and anything outside is not.
// Returns nil when either bound fails to parse; unknown filter input is
// ignored, never an error.
func ParseDateRange(start, end string, loc *time.Location) *DateRange {
	s, okS := ParseDate(start, loc)
	e, okE := ParseDate(end, loc)
	if !okS || !okE {
		return nil
	}
	// bounds go to UTC so they compare correctly against the stored
	// UTC-normalized timestamps
	s = time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc).UTC()
	e = time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), loc).UTC()
	return &DateRange{Start: s, End: e}
}

// TaskFilter is the filter specification for task listings. Zero-value
// fields are ignored, so an empty filter applies no constraints.
type TaskFilter struct {
	Name           string
	StatusIDs      []uint
	Priorities     []string
	ProjectID      *uint
	LabelIDs       []uint
	DueRange       *DateRange
	AssignedUserID *uint
}

// Apply translates each set field into a predicate on the query.
func (f TaskFilter) Apply(db *gorm.DB) *gorm.DB {
	if f.Name != "" {
		db = db.Where("tasks.name LIKE ?", "%"+f.Name+"%")
	}
	if len(f.StatusIDs) > 0 {
		db = db.Where("tasks.status_id IN ?", f.StatusIDs)
	}
	if len(f.Priorities) > 0 {
		db = db.Where("tasks.priority IN ?", f.Priorities)
	}
	if f.ProjectID != nil {
		db = db.Where("tasks.project_id = ?", *f.ProjectID)
	}
	if f.AssignedUserID != nil {
		db = db.Where("tasks.assigned_user_id = ?", *f.AssignedUserID)
	}
	if len(f.LabelIDs) > 0 {
		// Existence join: any one matching label qualifies the task.
		db = db.Where(
			"EXISTS (SELECT 1 FROM task_label_pivot p WHERE p.task_id = tasks.id AND p.task_label_id IN ?)",
			f.LabelIDs,
		)
	}
	if f.DueRange != nil {
		db = db.Where("tasks.due_date BETWEEN ? AND ?", f.DueRange.Start, f.DueRange.End)
	}
	return db
}

// ProjectFilter is the filter specification for project listings.
type ProjectFilter struct {
	Name     string
	Statuses []string
	DueRange *DateRange
}

// Apply translates each set field into a predicate on the query.
func (f ProjectFilter) Apply(db *gorm.DB) *gorm.DB {
	if f.Name != "" {
		db = db.Where("projects.name LIKE ?", "%"+f.Name+"%")
	}
	if len(f.Statuses) > 0 {
		db = db.Where("projects.status IN ?", f.Statuses)
	}
	if f.DueRange != nil {
		db = db.Where("projects.due_date BETWEEN ? AND ?", f.DueRange.Start, f.DueRange.End)
	}
	return db
}

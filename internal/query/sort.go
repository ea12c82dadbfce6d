package query

import "gorm.io/gorm"

// Sort orders a listing by a named field. Field names are validated
// against a per-entity allow-list; anything unknown falls back to the
// default ordering so request input can never name an arbitrary column.
type Sort struct {
	Field     string
	Direction string
}

// TaskSortFields are the sortable columns for task listings.
var TaskSortFields = map[string]string{
	"name":       "tasks.name",
	"due_date":   "tasks.due_date",
	"priority":   "tasks.priority",
	"status_id":  "tasks.status_id",
	"created_at": "tasks.created_at",
	"updated_at": "tasks.updated_at",
}

// ProjectSortFields are the sortable columns for project listings.
var ProjectSortFields = map[string]string{
	"name":       "projects.name",
	"due_date":   "projects.due_date",
	"status":     "projects.status",
	"created_at": "projects.created_at",
	"updated_at": "projects.updated_at",
}

// Apply orders db by the validated sort field, defaulting to
// created_at descending.
func (s Sort) Apply(db *gorm.DB, allowed map[string]string) *gorm.DB {
	column, ok := allowed[s.Field]
	if !ok {
		column, ok = allowed["created_at"]
		if !ok {
			return db
		}
		return db.Order(column + " desc")
	}
	dir := "desc"
	if s.Direction == "asc" {
		dir = "asc"
	}
	return db.Order(column + " " + dir)
}

// Pagination selects a page of results. Defaults: page 1, 10 per page,
// capped at 100.
type Pagination struct {
	Page    int
	PerPage int
}

// Normalize clamps the pagination parameters into valid bounds.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = 10
	}
	if p.PerPage > 100 {
		p.PerPage = 100
	}
	return p
}

// Apply limits db to the requested page.
func (p Pagination) Apply(db *gorm.DB) *gorm.DB {
	p = p.Normalize()
	return db.Limit(p.PerPage).Offset((p.Page - 1) * p.PerPage)
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/stekatag/project-management-app/internal/authz"
	"github.com/stekatag/project-management-app/internal/middleware"
	"github.com/stekatag/project-management-app/internal/query"
	"github.com/stekatag/project-management-app/internal/services"
	"github.com/stekatag/project-management-app/internal/storage"
)

// Disk is the shared public file store; main wires it via Init, tests
// point it at a temp directory.
var Disk *storage.Disk

// Init sets the package-level dependencies used by all handlers.
func Init(disk *storage.Disk) {
	Disk = disk
}

// bindRequest binds and validates the request body. Validation
// failures surface as a field-keyed error map with status 422.
func bindRequest(c *gin.Context, obj any) bool {
	err := c.ShouldBind(obj)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = validationMessage(fe)
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": fields})
		return false
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	return false
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Must be a valid email address."
	case "min":
		return "Must be at least " + fe.Param() + " characters."
	case "max":
		return "Must be at most " + fe.Param() + " characters."
	case "oneof":
		return "Must be one of: " + fe.Param() + "."
	default:
		return "Invalid value."
	}
}

// uintParam parses a numeric path parameter, writing a 400 on failure.
func uintParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// forbid writes a 403 and returns true when the decision denies.
func forbid(c *gin.Context, d authz.Decision) bool {
	if d.Allowed {
		return false
	}
	c.JSON(http.StatusForbidden, gin.H{
		"error":  "Forbidden",
		"reason": d.Reason,
	})
	return true
}

// notFoundOr500 maps a lookup error to 404 or 500.
func notFoundOr500(c *gin.Context, err error, what string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch " + strings.ToLower(what)})
}

// queryList collects repeated query values for a key, accepting both
// `key=a&key=b`, the bracketed `key[]=a` form and comma-separated
// values.
func queryList(c *gin.Context, key string) []string {
	values := append(c.QueryArray(key), c.QueryArray(key+"[]")...)
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func uintList(values []string) []uint {
	var out []uint
	for _, v := range values {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil && id > 0 {
			out = append(out, uint(id))
		}
	}
	return out
}

func queryUint(c *gin.Context, key string) *uint {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil
	}
	u := uint(id)
	return &u
}

// parseTaskFilter builds the task filter specification from query
// parameters. Unknown keys are ignored.
func parseTaskFilter(c *gin.Context) query.TaskFilter {
	loc := middleware.Location(c)
	f := query.TaskFilter{
		Name:       c.Query("name"),
		StatusIDs:  uintList(queryList(c, "status")),
		Priorities: queryList(c, "priority"),
		LabelIDs:   uintList(queryList(c, "label_ids")),
		ProjectID:  queryUint(c, "project_id"),
	}
	if due := queryList(c, "due_date"); len(due) == 2 {
		f.DueRange = query.ParseDateRange(due[0], due[1], loc)
	}
	return f
}

// parseProjectFilter builds the project filter specification.
func parseProjectFilter(c *gin.Context) query.ProjectFilter {
	loc := middleware.Location(c)
	f := query.ProjectFilter{
		Name:     c.Query("name"),
		Statuses: queryList(c, "status"),
	}
	if due := queryList(c, "due_date"); len(due) == 2 {
		f.DueRange = query.ParseDateRange(due[0], due[1], loc)
	}
	return f
}

func parseSort(c *gin.Context) query.Sort {
	return query.Sort{
		Field:     c.DefaultQuery("sort_field", "created_at"),
		Direction: c.Query("sort_direction"),
	}
}

func parsePagination(c *gin.Context) query.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	return query.Pagination{Page: page, PerPage: perPage}.Normalize()
}

// parseDueDate parses an optional due-date field in the request
// timezone; empty or unparseable input yields nil.
func parseDueDate(value string, loc *time.Location) *time.Time {
	if value == "" {
		return nil
	}
	t, ok := query.ParseDate(value, loc)
	if !ok {
		return nil
	}
	return &t
}

// imageUpload extracts a pending "image" file from a multipart request.
func imageUpload(c *gin.Context) *services.ImageUpload {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		return nil
	}
	return &services.ImageUpload{Reader: file, Filename: header.Filename}
}

// listMeta is the pagination envelope shared by all listings.
func listMeta(page query.Pagination, total int64) gin.H {
	page = page.Normalize()
	return gin.H{
		"page":     page.Page,
		"per_page": page.PerPage,
		"total":    total,
	}
}

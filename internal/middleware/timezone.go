package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stekatag/project-management-app/internal/cache"
)

// TimezoneHeader names the client timezone (IANA name) used when
// rendering dates. Missing or invalid values fall back to UTC.
const TimezoneHeader = "User-Timezone"

// LoadLocation hits the tz database on every call, so resolved
// locations are cached by name.
var locationCache = cache.New[string, *time.Location]()

// Location resolves the request timezone from the User-Timezone header.
func Location(c *gin.Context) *time.Location {
	name := c.GetHeader(TimezoneHeader)
	return LocationByName(name)
}

// LocationByName resolves an IANA timezone name, returning UTC for
// empty or unknown names.
func LocationByName(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	if loc, ok := locationCache.Get(name); ok {
		return loc
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.UTC
	}
	locationCache.Set(name, loc, time.Hour)
	return loc
}

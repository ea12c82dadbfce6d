package sanitize

import "github.com/microcosm-cc/bluemonday"

// Task descriptions accept user-authored rich text, so scripts and
// event handlers must be stripped while safe formatting survives.
var policy = bluemonday.UGCPolicy()

// HTML sanitizes user-supplied HTML content.
func HTML(input string) string {
	return policy.Sanitize(input)
}

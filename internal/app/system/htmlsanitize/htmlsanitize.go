// Package htmlsanitize strips markup from user-supplied free text before it
// is stored. Case notes and application details are rendered back into the
// dashboards, so anything that survives storage must be inert.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Plain removes all HTML from s and unescapes the entities bluemonday
// introduces, so `a < b` round-trips unchanged while `<script>` does not
// survive.
func Plain(s string) string {
	return html.UnescapeString(policy.Sanitize(strings.TrimSpace(s)))
}

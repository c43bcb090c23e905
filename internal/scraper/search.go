// internal/scraper/search.go
package scraper

import (
	"strings"

	"github.com/Hamza-bouzid/pagine-bianche/api/schemas"
)

// BuildSearchURL composes the results URL for a query. Term and location are
// interpolated verbatim; the transport layer takes care of escaping.
func BuildSearchURL(baseURL, searchPath string, q schemas.SearchQuery) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(baseURL, "/"))
	if searchPath != "" && !strings.HasPrefix(searchPath, "/") {
		b.WriteByte('/')
	}
	b.WriteString(searchPath)
	b.WriteString("?qs=")
	b.WriteString(q.Term)
	b.WriteString("&dv=")
	b.WriteString(q.Location)
	return b.String()
}

package scripts

import (
	"net/url"

	"github.com/JaimeStill/slate/pkg/query"
	"github.com/JaimeStill/slate/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "scripts", "s").
	Project("id", "ID").
	Project("title", "Title").
	Project("filename", "Filename").
	Project("content_type", "ContentType").
	Project("format", "Format").
	Project("size_bytes", "SizeBytes").
	Project("page_count", "PageCount").
	Project("storage_key", "StorageKey").
	Project("status", "Status").
	Project("uploaded_at", "UploadedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "UploadedAt",
	Descending: true,
}

// returning lists the columns written back by INSERT and UPDATE statements.
const returning = `RETURNING id, title, filename, content_type, format, size_bytes,
		page_count, storage_key, status, uploaded_at, updated_at`

// Filters narrows script queries. Status and Format match exactly;
// Title and Filename match case-insensitively as substrings.
type Filters struct {
	Status   *string `json:"status,omitempty"`
	Format   *string `json:"format,omitempty"`
	Title    *string `json:"title,omitempty"`
	Filename *string `json:"filename,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("Format", f.Format).
		WhereContains("Title", f.Title).
		WhereContains("Filename", f.Filename)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	for key, dst := range map[string]**string{
		"status":   &f.Status,
		"format":   &f.Format,
		"title":    &f.Title,
		"filename": &f.Filename,
	} {
		if v := values.Get(key); v != "" {
			*dst = &v
		}
	}
	return f
}

func scanScript(s repository.Scanner) (Script, error) {
	var sc Script
	err := s.Scan(
		&sc.ID,
		&sc.Title,
		&sc.Filename,
		&sc.ContentType,
		&sc.Format,
		&sc.SizeBytes,
		&sc.PageCount,
		&sc.StorageKey,
		&sc.Status,
		&sc.UploadedAt,
		&sc.UpdatedAt,
	)
	return sc, err
}

package breakdowns

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/slate/pkg/query"
	"github.com/JaimeStill/slate/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "breakdowns", "b").
	Project("id", "ID").
	Project("script_id", "ScriptID").
	Project("needs_review", "NeedsReview").
	Project("overall_confidence", "OverallConfidence").
	Project("element_count", "ElementCount").
	Project("conflict_count", "ConflictCount").
	Project("result", "Result").
	Project("export_key", "ExportKey").
	Project("analyzed_at", "AnalyzedAt").
	Project("reviewed_by", "ReviewedBy").
	Project("reviewed_at", "ReviewedAt").
	Join("public", "scripts", "s", "JOIN", "s.id = b.script_id").
	Project("title", "ScriptTitle")

var defaultSort = query.SortField{
	Field:      "AnalyzedAt",
	Descending: true,
}

// Filters narrows breakdown queries. Nil fields are ignored.
type Filters struct {
	ScriptID    *uuid.UUID `json:"script_id,omitempty"`
	NeedsReview *bool      `json:"needs_review,omitempty"`
	ReviewedBy  *string    `json:"reviewed_by,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("ScriptID", f.ScriptID).
		WhereEquals("NeedsReview", f.NeedsReview).
		WhereEquals("ReviewedBy", f.ReviewedBy)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Unparseable values are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("script_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			f.ScriptID = &id
		}
	}

	if s := values.Get("needs_review"); s != "" {
		if v, err := strconv.ParseBool(s); err == nil {
			f.NeedsReview = &v
		}
	}

	if s := values.Get("reviewed_by"); s != "" {
		f.ReviewedBy = &s
	}

	return f
}

func scanBreakdown(s repository.Scanner) (Breakdown, error) {
	var b Breakdown
	var raw []byte

	err := s.Scan(
		&b.ID,
		&b.ScriptID,
		&b.NeedsReview,
		&b.OverallConfidence,
		&b.ElementCount,
		&b.ConflictCount,
		&raw,
		&b.ExportKey,
		&b.AnalyzedAt,
		&b.ReviewedBy,
		&b.ReviewedAt,
		&b.ScriptTitle,
	)
	if err != nil {
		return b, err
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &b.Result); err != nil {
			return b, fmt.Errorf("unmarshal result: %w", err)
		}
	}

	return b, nil
}

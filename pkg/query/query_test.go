package query_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/slate/pkg/query"
)

func scriptProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "scripts", "s").
		Project("id", "ID").
		Project("title", "Title").
		Project("filename", "Filename").
		Project("uploaded_at", "UploadedAt")
}

func joinedProjection() *query.ProjectionMap {
	return scriptProjection().
		Join("public", "breakdowns", "b", "LEFT JOIN", "s.id = b.script_id").
		Project("needs_review", "NeedsReview")
}

func ptr[T any](v T) *T { return &v }

func TestProjection(t *testing.T) {
	p := joinedProjection()

	if got, want := p.From(), "public.scripts s LEFT JOIN public.breakdowns b ON s.id = b.script_id"; got != want {
		t.Errorf("From() = %q, want %q", got, want)
	}
	if got, want := p.Columns(), "s.id, s.title, s.filename, s.uploaded_at, b.needs_review"; got != want {
		t.Errorf("Columns() = %q, want %q", got, want)
	}
	if got, ok := p.Lookup("NeedsReview"); !ok || got != "b.needs_review" {
		t.Errorf("Lookup(NeedsReview) = %q, %v", got, ok)
	}
	if _, ok := p.Lookup("unmapped"); ok {
		t.Error("Lookup(unmapped) reported a column")
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		in   string
		want []query.SortField
	}{
		{"", nil},
		{"Title", []query.SortField{{Field: "Title"}}},
		{"Title, -UploadedAt", []query.SortField{{Field: "Title"}, {Field: "UploadedAt", Descending: true}}},
		{",,", []query.SortField{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, query.ParseSortFields(tt.in)); diff != "" {
				t.Errorf("ParseSortFields(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestBuilder(t *testing.T) {
	sortDefault := query.SortField{Field: "UploadedAt", Descending: true}

	tests := []struct {
		name     string
		build    func() (string, []any)
		wantSQL  string
		wantArgs []any
	}{
		{
			name: "build with default sort",
			build: func() (string, []any) {
				return query.NewBuilder(scriptProjection(), sortDefault).Build()
			},
			wantSQL: "SELECT s.id, s.title, s.filename, s.uploaded_at FROM public.scripts s ORDER BY s.uploaded_at DESC",
		},
		{
			name: "nil filters are ignored",
			build: func() (string, []any) {
				var title *string
				return query.NewBuilder(scriptProjection()).
					WhereEquals("Title", title).
					WhereContains("Title", nil).
					WhereSearch(ptr(""), "Title").
					BuildCount()
			},
			wantSQL: "SELECT COUNT(*) FROM public.scripts s",
		},
		{
			name: "conditions number parameters in order",
			build: func() (string, []any) {
				return query.NewBuilder(scriptProjection(), sortDefault).
					WhereEquals("ID", "abc").
					WhereSearch(ptr("cafe"), "Title", "Filename").
					OrderByFields([]query.SortField{{Field: "Title"}}).
					BuildPage(10, 10)
			},
			wantSQL:  `SELECT s.id, s.title, s.filename, s.uploaded_at FROM public.scripts s WHERE s.id = $1 AND (s.title ILIKE $2 ESCAPE '\' OR s.filename ILIKE $3 ESCAPE '\') ORDER BY s.title ASC LIMIT 10 OFFSET 10`,
			wantArgs: []any{"abc", "%cafe%", "%cafe%"},
		},
		{
			name: "contains escapes wildcards",
			build: func() (string, []any) {
				return query.NewBuilder(scriptProjection()).
					WhereContains("Title", ptr("100%_done")).
					BuildCount()
			},
			wantSQL:  `SELECT COUNT(*) FROM public.scripts s WHERE s.title ILIKE $1 ESCAPE '\'`,
			wantArgs: []any{`%100\%\_done%`},
		},
		{
			name: "unmapped fields never reach sql",
			build: func() (string, []any) {
				return query.NewBuilder(scriptProjection(), sortDefault).
					WhereEquals("status; DROP TABLE scripts", "x").
					WhereSearch(ptr("a"), "Nope").
					OrderByFields([]query.SortField{{Field: "1; --"}}).
					Build()
			},
			wantSQL: "SELECT s.id, s.title, s.filename, s.uploaded_at FROM public.scripts s ORDER BY s.uploaded_at DESC",
		},
		{
			name: "typed nil pointer is ignored",
			build: func() (string, []any) {
				var review *bool
				return query.NewBuilder(joinedProjection()).
					WhereEquals("NeedsReview", review).
					WhereEquals("NeedsReview", ptr(true)).
					BuildCount()
			},
			wantSQL:  "SELECT COUNT(*) FROM public.scripts s LEFT JOIN public.breakdowns b ON s.id = b.script_id WHERE b.needs_review = $1",
			wantArgs: []any{ptr(true)},
		},
		{
			name: "single by id",
			build: func() (string, []any) {
				return query.NewBuilder(joinedProjection()).
					WhereEquals("Title", "ignored").
					BuildSingle("ID", 7)
			},
			wantSQL:  "SELECT s.id, s.title, s.filename, s.uploaded_at, b.needs_review FROM public.scripts s LEFT JOIN public.breakdowns b ON s.id = b.script_id WHERE s.id = $1",
			wantArgs: []any{7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.build()
			if sql != tt.wantSQL {
				t.Errorf("sql:\n got %s\nwant %s", sql, tt.wantSQL)
			}
			if len(args) == 0 && len(tt.wantArgs) == 0 {
				return
			}
			if diff := cmp.Diff(tt.wantArgs, args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildSingleUnprojected(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unprojected field")
		}
	}()
	query.NewBuilder(scriptProjection()).BuildSingle("Missing", 1)
}

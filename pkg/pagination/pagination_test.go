package pagination_test

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/slate/pkg/pagination"
	"github.com/JaimeStill/slate/pkg/query"
)

func defaultConfig() pagination.Config {
	return pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
}

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := pagination.Config{}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.DefaultPageSize != 20 || cfg.MaxPageSize != 100 {
			t.Errorf("got %+v, want 20/100", cfg)
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_PAGE_SIZE", "50")
		t.Setenv("TEST_MAX_PAGE", "200")

		cfg := pagination.Config{}
		err := cfg.Finalize(&pagination.ConfigEnv{
			DefaultPageSize: "TEST_PAGE_SIZE",
			MaxPageSize:     "TEST_MAX_PAGE",
		})
		if err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.DefaultPageSize != 50 || cfg.MaxPageSize != 200 {
			t.Errorf("got %+v, want 50/200", cfg)
		}
	})

	t.Run("unparseable env ignored", func(t *testing.T) {
		t.Setenv("TEST_PAGE_SIZE", "lots")

		cfg := pagination.Config{}
		if err := cfg.Finalize(&pagination.ConfigEnv{DefaultPageSize: "TEST_PAGE_SIZE"}); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.DefaultPageSize != 20 {
			t.Errorf("DefaultPageSize = %d, want 20", cfg.DefaultPageSize)
		}
	})

	t.Run("default exceeds max", func(t *testing.T) {
		cfg := pagination.Config{DefaultPageSize: 200, MaxPageSize: 100}
		err := cfg.Finalize(nil)
		if err == nil || !strings.Contains(err.Error(), "cannot exceed") {
			t.Errorf("got %v, want cannot exceed error", err)
		}
	})
}

func TestConfigMerge(t *testing.T) {
	base := defaultConfig()
	base.Merge(&pagination.Config{DefaultPageSize: 50})

	if base.DefaultPageSize != 50 {
		t.Errorf("DefaultPageSize = %d, want 50", base.DefaultPageSize)
	}
	if base.MaxPageSize != 100 {
		t.Errorf("MaxPageSize = %d, want 100", base.MaxPageSize)
	}
}

func TestPageRequestNormalize(t *testing.T) {
	tests := []struct {
		name         string
		req          pagination.PageRequest
		wantPage     int
		wantPageSize int
	}{
		{"zero values get defaults", pagination.PageRequest{}, 1, 20},
		{"negative page corrected", pagination.PageRequest{Page: -1, PageSize: 10}, 1, 10},
		{"page size clamped", pagination.PageRequest{Page: 1, PageSize: 500}, 1, 100},
		{"valid values preserved", pagination.PageRequest{Page: 3, PageSize: 25}, 3, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize(defaultConfig())
			if tt.req.Page != tt.wantPage || tt.req.PageSize != tt.wantPageSize {
				t.Errorf("got %d/%d, want %d/%d", tt.req.Page, tt.req.PageSize, tt.wantPage, tt.wantPageSize)
			}
			if got, want := tt.req.Offset(), (tt.wantPage-1)*tt.wantPageSize; got != want {
				t.Errorf("Offset() = %d, want %d", got, want)
			}
		})
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	values := url.Values{
		"page":      {"2"},
		"page_size": {"15"},
		"search":    {"cafe"},
		"sort":      {"Title,-UploadedAt"},
	}

	req := pagination.PageRequestFromQuery(values, defaultConfig())

	if req.Page != 2 || req.PageSize != 15 {
		t.Errorf("page: got %d/%d, want 2/15", req.Page, req.PageSize)
	}
	if req.Search == nil || *req.Search != "cafe" {
		t.Errorf("Search = %v, want cafe", req.Search)
	}

	want := pagination.SortFields{{Field: "Title"}, {Field: "UploadedAt", Descending: true}}
	if diff := cmp.Diff(want, req.Sort); diff != "" {
		t.Errorf("Sort mismatch (-want +got):\n%s", diff)
	}

	empty := pagination.PageRequestFromQuery(url.Values{}, defaultConfig())
	if empty.Page != 1 || empty.PageSize != 20 || empty.Search != nil {
		t.Errorf("empty query: got %+v", empty)
	}
}

func TestSortFieldsUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		body string
		want pagination.SortFields
	}{
		{"string", `{"sort": "Title,-UploadedAt"}`, pagination.SortFields{{Field: "Title"}, {Field: "UploadedAt", Descending: true}}},
		{"array", `{"sort": [{"Field": "Title", "Descending": true}]}`, pagination.SortFields{{Field: "Title", Descending: true}}},
		{"null", `{"sort": null}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req pagination.PageRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if diff := cmp.Diff(tt.want, req.Sort); diff != "" {
				t.Errorf("Sort mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name           string
		total          int
		wantTotalPages int
	}{
		{"exact division", 100, 5},
		{"remainder", 101, 6},
		{"single page", 5, 1},
		{"empty result", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pagination.NewPageResult([]string{"a"}, tt.total, pagination.PageRequest{Page: 1, PageSize: 20})
			if result.TotalPages != tt.wantTotalPages {
				t.Errorf("TotalPages = %d, want %d", result.TotalPages, tt.wantTotalPages)
			}
		})
	}

	if result := pagination.NewPageResult[query.SortField](nil, 0, pagination.PageRequest{Page: 1, PageSize: 20}); result.Data == nil {
		t.Error("Data should be an empty slice, not nil")
	}
}

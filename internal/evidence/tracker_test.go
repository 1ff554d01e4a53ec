package evidence_test

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/JaimeStill/slate/internal/elements"
	"github.com/JaimeStill/slate/internal/evidence"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func item(conf float64, scene string) evidence.Item {
	return evidence.Item{
		Evidence: elements.Evidence{
			SpanStart:  0,
			SpanEnd:    10,
			Excerpt:    "picks up the cup",
			Rationale:  "keyword cup matched handheld-props",
			Confidence: conf,
		},
		Location: evidence.Location{SceneID: scene, SourceLength: 100},
		Quality:  evidence.Quality{Clarity: 0.9, Relevance: 1, Completeness: 1, Accuracy: 0.9},
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestChainConfidenceEqualWeights(t *testing.T) {
	tr := evidence.New(evidence.Options{})

	c, err := tr.CreateChain("element-1", []evidence.Item{item(0.9, "scene-001"), item(0.3, "scene-001")})
	if err != nil {
		t.Fatalf("CreateChain() error: %v", err)
	}

	if !approx(c.Confidence, 0.6) {
		t.Errorf("confidence = %v, want 0.6", c.Confidence)
	}
	if c.Status != evidence.StatusPending {
		t.Errorf("status = %s, want pending", c.Status)
	}
	if len(c.Items) != 2 {
		t.Errorf("items = %d, want 2", len(c.Items))
	}
}

func TestChainConfidenceWeighted(t *testing.T) {
	tests := []struct {
		name  string
		items func() []evidence.Item
		want  float64
	}{
		{
			name: "relevance times completeness",
			items: func() []evidence.Item {
				low := item(0.5, "scene-001")
				low.Quality.Relevance = 0.5
				low.Quality.Completeness = 0.5
				return []evidence.Item{item(0.9, "scene-001"), low}
			},
			want: (0.9*1 + 0.5*0.25) / 1.25,
		},
		{
			name: "zero weights fall back to plain mean",
			items: func() []evidence.Item {
				a, b := item(0.8, "scene-001"), item(0.4, "scene-001")
				a.Quality.Relevance, b.Quality.Relevance = 0, 0
				return []evidence.Item{a, b}
			},
			want: 0.6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := evidence.New(evidence.Options{})
			c, err := tr.CreateChain("element", tt.items())
			if err != nil {
				t.Fatalf("CreateChain() error: %v", err)
			}
			if !approx(c.Confidence, tt.want) {
				t.Errorf("confidence = %v, want %v", c.Confidence, tt.want)
			}
		})
	}
}

func TestAddItemRecomputesConfidence(t *testing.T) {
	clk := newClock()
	tr := evidence.New(evidence.Options{Now: clk.Now})

	c, err := tr.CreateChain("element-1", []evidence.Item{item(0.9, "scene-001")})
	if err != nil {
		t.Fatalf("CreateChain() error: %v", err)
	}

	clk.Advance(time.Minute)
	if _, err := tr.AddItem(c.ID, item(0.5, "scene-002")); err != nil {
		t.Fatalf("AddItem() error: %v", err)
	}

	got, ok := tr.Chain(c.ID)
	if !ok {
		t.Fatal("chain missing")
	}
	if !approx(got.Confidence, 0.7) {
		t.Errorf("confidence = %v, want 0.7", got.Confidence)
	}
	if !got.UpdatedAt.Equal(clk.Now()) {
		t.Errorf("updated_at = %v, want %v", got.UpdatedAt, clk.Now())
	}
}

func TestAddItemValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*evidence.Item)
		rule   string
	}{
		{"below minimum confidence", func(i *evidence.Item) { i.Confidence = 0.2 }, "min_confidence"},
		{"missing scene", func(i *evidence.Item) { i.Location.SceneID = "" }, "required_location"},
		{"span past source", func(i *evidence.Item) { i.SpanEnd = 200 }, "evidence_bounds"},
		{"empty span", func(i *evidence.Item) { i.SpanEnd = i.SpanStart }, "evidence_bounds"},
		{"unknown source length", func(i *evidence.Item) {
			i.Location.SourceLength = 0
			i.SpanEnd = 1 << 30
		}, "evidence_bounds"},
		{"blank rationale", func(i *evidence.Item) { i.Rationale = " " }, "evidence_bounds"},
		{"quality out of range", func(i *evidence.Item) { i.Quality.Accuracy = 1.5 }, "quality_range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := evidence.New(evidence.Options{})
			c, err := tr.CreateChain("element", []evidence.Item{item(0.8, "scene-001")})
			if err != nil {
				t.Fatalf("CreateChain() error: %v", err)
			}

			bad := item(0.8, "scene-001")
			tt.mutate(&bad)

			_, err = tr.AddItem(c.ID, bad)
			if !errors.Is(err, evidence.ErrValidationFailed) {
				t.Fatalf("err = %v, want ErrValidationFailed", err)
			}

			var verr *evidence.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err is not a *ValidationError")
			}
			if verr.Violations[0].Rule != tt.rule {
				t.Errorf("rule = %s, want %s", verr.Violations[0].Rule, tt.rule)
			}

			after, _ := tr.Chain(c.ID)
			if len(after.Items) != 1 || !approx(after.Confidence, 0.8) {
				t.Errorf("rejected item changed the chain: %+v", after)
			}
		})
	}
}

func TestAddItemWarnings(t *testing.T) {
	tr := evidence.New(evidence.Options{})
	c, err := tr.CreateChain("element", nil)
	if err != nil {
		t.Fatalf("CreateChain() error: %v", err)
	}

	murky := item(0.8, "scene-001")
	murky.Quality.Clarity = 0.3

	got, err := tr.AddItem(c.ID, murky)
	if err != nil {
		t.Fatalf("AddItem() error: %v", err)
	}

	rules := make([]string, len(got.Warnings))
	for i, w := range got.Warnings {
		rules[i] = w.Rule
	}
	if diff := cmp.Diff([]string{"min_clarity", "cross_reference"}, rules); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownChain(t *testing.T) {
	tr := evidence.New(evidence.Options{})
	if _, err := tr.AddItem("missing", item(0.8, "scene-001")); !errors.Is(err, evidence.ErrChainNotFound) {
		t.Errorf("err = %v, want ErrChainNotFound", err)
	}
}

func TestCreateChain(t *testing.T) {
	t.Run("rejected initial item leaves no state", func(t *testing.T) {
		tr := evidence.New(evidence.Options{})
		bad := item(0.1, "scene-001")

		if _, err := tr.CreateChain("element", []evidence.Item{item(0.8, "scene-001"), bad}); !errors.Is(err, evidence.ErrValidationFailed) {
			t.Fatalf("err = %v, want ErrValidationFailed", err)
		}
		if len(tr.Summary()) != 0 {
			t.Error("chain created despite rejected item")
		}
		if len(tr.Export().Items) != 0 {
			t.Error("items stored despite rejected item")
		}
	})

	t.Run("duplicate element", func(t *testing.T) {
		tr := evidence.New(evidence.Options{})
		if _, err := tr.CreateChain("element", nil); err != nil {
			t.Fatalf("CreateChain() error: %v", err)
		}
		if _, err := tr.CreateChain("element", nil); !errors.Is(err, evidence.ErrDuplicateChain) {
			t.Errorf("err = %v, want ErrDuplicateChain", err)
		}
	})

	t.Run("element required", func(t *testing.T) {
		tr := evidence.New(evidence.Options{})
		if _, err := tr.CreateChain("", nil); !errors.Is(err, evidence.ErrValidationFailed) {
			t.Errorf("err = %v, want ErrValidationFailed", err)
		}
	})

	t.Run("lookup by element", func(t *testing.T) {
		tr := evidence.New(evidence.Options{})
		c, _ := tr.CreateChain("element-9", []evidence.Item{item(0.8, "scene-001")})
		got, ok := tr.ChainFor("element-9")
		if !ok || got.ID != c.ID {
			t.Errorf("ChainFor = %+v, %v", got, ok)
		}
	})
}

func TestRelatedEvidence(t *testing.T) {
	tr := evidence.New(evidence.Options{})
	c, err := tr.CreateChain("element", nil)
	if err != nil {
		t.Fatalf("CreateChain() error: %v", err)
	}

	var ids []string
	for range 6 {
		it, err := tr.AddItem(c.ID, item(0.8, "scene-001"))
		if err != nil {
			t.Fatalf("AddItem() error: %v", err)
		}
		ids = append(ids, it.ID)
	}

	other, _ := tr.CreateChain("other", nil)
	elsewhere := item(0.8, "scene-009")
	elsewhere.Location.Character = "Maria"
	unrelated, err := tr.AddItem(other.ID, elsewhere)
	if err != nil {
		t.Fatalf("AddItem() error: %v", err)
	}

	last := item(0.8, "scene-001")
	got, err := tr.AddItem(c.ID, last)
	if err != nil {
		t.Fatalf("AddItem() error: %v", err)
	}
	if diff := cmp.Diff(ids[:evidence.MaxRelated], got.Related); diff != "" {
		t.Errorf("related mismatch (-want +got):\n%s", diff)
	}

	byCharacter := item(0.8, "scene-010")
	byCharacter.Location.Character = "MARIA"
	linked, err := tr.AddItem(other.ID, byCharacter)
	if err != nil {
		t.Fatalf("AddItem() error: %v", err)
	}
	if diff := cmp.Diff([]string{unrelated.ID}, linked.Related); diff != "" {
		t.Errorf("character link mismatch (-want +got):\n%s", diff)
	}
}

func TestConcurrentAddsSameChain(t *testing.T) {
	tr := evidence.New(evidence.Options{})
	c, err := tr.CreateChain("element", nil)
	if err != nil {
		t.Fatalf("CreateChain() error: %v", err)
	}

	const n = 50
	var wg sync.WaitGroup
	for i := range n {
		wg.Go(func() {
			conf := 0.3 + float64(i%7)*0.1
			if _, err := tr.AddItem(c.ID, item(conf, fmt.Sprintf("scene-%03d", i%4))); err != nil {
				t.Errorf("AddItem() error: %v", err)
			}
		})
	}
	wg.Wait()

	got, _ := tr.Chain(c.ID)
	if len(got.Items) != n {
		t.Fatalf("items = %d, want %d", len(got.Items), n)
	}

	var sum float64
	for _, id := range got.Items {
		it, ok := tr.Item(id)
		if !ok {
			t.Fatalf("item %s missing", id)
		}
		sum += it.Confidence
	}
	if !approx(got.Confidence, sum/n) {
		t.Errorf("confidence = %v, want %v", got.Confidence, sum/n)
	}
}

func TestRecordDecision(t *testing.T) {
	tr := evidence.New(evidence.Options{})
	c, _ := tr.CreateChain("element", []evidence.Item{item(0.8, "scene-001")})

	if err := tr.RecordDecision("element", "supervisor", "merge_results", evidence.StatusVerified); err != nil {
		t.Fatalf("RecordDecision() error: %v", err)
	}
	if err := tr.RecordDecision("element", "supervisor", "merge_results", evidence.StatusVerified); err != nil {
		t.Fatalf("RecordDecision() error: %v", err)
	}

	got, _ := tr.Chain(c.ID)
	if diff := cmp.Diff([]string{"supervisor"}, got.Reviewers); diff != "" {
		t.Errorf("reviewers mismatch (-want +got):\n%s", diff)
	}
	if got.FinalDecision != "merge_results" || got.Status != evidence.StatusVerified {
		t.Errorf("chain = %+v", got)
	}

	if err := tr.RecordDecision("missing", "supervisor", "x", evidence.StatusRejected); !errors.Is(err, evidence.ErrChainNotFound) {
		t.Errorf("err = %v, want ErrChainNotFound", err)
	}
	if err := tr.RecordDecision("element", "supervisor", "x", "approved"); !errors.Is(err, evidence.ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestCleanup(t *testing.T) {
	clk := newClock()
	tr := evidence.New(evidence.Options{Now: clk.Now})

	stale, _ := tr.CreateChain("stale", []evidence.Item{item(0.8, "scene-001")})
	mixed, _ := tr.CreateChain("mixed", []evidence.Item{item(0.9, "scene-001"), item(0.3, "scene-002")})

	clk.Advance(9 * 24 * time.Hour)
	if _, err := tr.Verify(t.Context(), mixed.Items[1], evidence.MethodManual); err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	fresh, err := tr.AddItem(mixed.ID, item(0.6, "scene-001"))
	if err != nil {
		t.Fatalf("AddItem() error: %v", err)
	}

	clk.Advance(24 * time.Hour)
	res, err := tr.Cleanup(5)
	if err != nil {
		t.Fatalf("Cleanup() error: %v", err)
	}

	if res.ItemsRemoved != 2 || res.ChainsRemoved != 1 {
		t.Errorf("result = %+v, want 2 items and 1 chain", res)
	}
	if _, ok := tr.Chain(stale.ID); ok {
		t.Error("empty chain survived cleanup")
	}

	got, ok := tr.Chain(mixed.ID)
	if !ok {
		t.Fatal("chain with live items removed")
	}
	if diff := cmp.Diff([]string{mixed.Items[1], fresh.ID}, got.Items); diff != "" {
		t.Errorf("surviving items mismatch (-want +got):\n%s", diff)
	}
	if !approx(got.Confidence, 0.45) {
		t.Errorf("confidence = %v, want 0.45", got.Confidence)
	}

	kept, _ := tr.Item(fresh.ID)
	for _, id := range kept.Related {
		if _, ok := tr.Item(id); !ok {
			t.Errorf("dangling related id %s", id)
		}
	}

	if _, err := tr.Cleanup(-1); !errors.Is(err, evidence.ErrInvalidRetention) {
		t.Errorf("err = %v, want ErrInvalidRetention", err)
	}
}

func TestExports(t *testing.T) {
	tr := evidence.New(evidence.Options{})
	a, _ := tr.CreateChain("a", []evidence.Item{item(0.8, "scene-001")})
	b, _ := tr.CreateChain("b", []evidence.Item{item(0.6, "scene-002"), item(0.4, "scene-002")})

	summary := tr.Summary()
	want := []evidence.ChainSummary{
		{ChainID: a.ID, ElementID: "a", Confidence: a.Confidence, Status: evidence.StatusPending, ItemCount: 1},
		{ChainID: b.ID, ElementID: "b", Confidence: b.Confidence, Status: evidence.StatusPending, ItemCount: 2},
	}
	if diff := cmp.Diff(want, summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	ids := tr.IDs()
	if diff := cmp.Diff([]evidence.ChainIDs{{ChainID: a.ID, ItemIDs: a.Items}, {ChainID: b.ID, ItemIDs: b.Items}}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}

	full := tr.Export()
	if len(full.Chains) != 2 || len(full.Items) != 3 {
		t.Errorf("export has %d chains and %d items", len(full.Chains), len(full.Items))
	}

	full.Chains[0].Items[0] = "mutated"
	if again, _ := tr.Chain(a.ID); again.Items[0] == "mutated" {
		t.Error("export shares storage with the ledger")
	}
}

func TestItemFromElement(t *testing.T) {
	el := elements.Element{
		Name:       "coffee cup",
		SceneID:    "scene-001",
		Confidence: 0.7,
		Evidence: elements.Evidence{
			SpanStart:  10,
			SpanEnd:    20,
			Excerpt:    "Ahmed picks up the coffee cup",
			Rationale:  "keyword",
			Confidence: 0.7,
		},
		Context: elements.Context{Character: "AHMED"},
	}

	got := evidence.ItemFromElement(el, 100)
	want := evidence.Quality{Clarity: 0.9, Relevance: 0.7, Completeness: 1.0, Accuracy: 0.7}
	if diff := cmp.Diff(want, got.Quality); diff != "" {
		t.Errorf("quality mismatch (-want +got):\n%s", diff)
	}
	if got.Location.SceneID != "scene-001" || got.Location.Character != "AHMED" || got.Location.SourceLength != 100 {
		t.Errorf("location = %+v", got.Location)
	}
}

package evidence

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultVerifyTimeout bounds a single automated verification call.
const DefaultVerifyTimeout = 30 * time.Second

// Options configures a Tracker. Zero values select defaults.
type Options struct {
	Reasoner      Reasoner
	VerifyTimeout time.Duration
	Logger        *slog.Logger
	Now           func() time.Time
}

type chainEntry struct {
	mu      sync.Mutex
	chain   Chain
	deleted bool
}

// Tracker is an in-memory evidence ledger. Writes to one chain are
// serialized by that chain's lock; the ledger lock guards the shared maps
// and is always taken after a chain lock. Chain and item fields only change
// while both are held, so readers need the ledger read lock alone.
type Tracker struct {
	mu        sync.RWMutex
	chains    map[string]*chainEntry
	chainSeq  []string
	items     map[string]*Item
	itemSeq   []string
	byElement map[string]string

	reasoner Reasoner
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an empty Tracker.
func New(opts Options) *Tracker {
	t := &Tracker{
		chains:    make(map[string]*chainEntry),
		items:     make(map[string]*Item),
		byElement: make(map[string]string),
		reasoner:  opts.Reasoner,
		timeout:   opts.VerifyTimeout,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if t.timeout <= 0 {
		t.timeout = DefaultVerifyTimeout
	}
	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}
	t.logger = t.logger.With("system", "evidence")
	if t.now == nil {
		t.now = time.Now
	}
	return t
}

// CreateChain opens a pending chain for elementID and adds the initial
// items. Every item is validated before the chain is created, so a
// rejected item leaves no state behind.
func (t *Tracker) CreateChain(elementID string, items []Item) (Chain, error) {
	if strings.TrimSpace(elementID) == "" {
		return Chain{}, fmt.Errorf("%w: element id is required", ErrValidationFailed)
	}
	for i, item := range items {
		if _, err := validate(item); err != nil {
			return Chain{}, fmt.Errorf("item %d: %w", i, err)
		}
	}

	now := t.now().UTC()
	entry := &chainEntry{
		chain: Chain{
			ID:        uuid.NewString(),
			ElementID: elementID,
			Items:     []string{},
			Status:    StatusPending,
			Reviewers: []string{},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	t.mu.Lock()
	if _, exists := t.byElement[elementID]; exists {
		t.mu.Unlock()
		return Chain{}, fmt.Errorf("%w: %s", ErrDuplicateChain, elementID)
	}
	t.chains[entry.chain.ID] = entry
	t.chainSeq = append(t.chainSeq, entry.chain.ID)
	t.byElement[elementID] = entry.chain.ID
	t.mu.Unlock()

	for _, item := range items {
		if _, err := t.addLocked(entry, item); err != nil {
			return Chain{}, err
		}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	return entry.chain.clone(), nil
}

// AddItem validates item and appends it to the chain. Error-severity
// violations reject the item with a *ValidationError; warnings are stored
// on the item.
func (t *Tracker) AddItem(chainID string, item Item) (Item, error) {
	t.mu.RLock()
	entry, ok := t.chains[chainID]
	t.mu.RUnlock()
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrChainNotFound, chainID)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.deleted {
		return Item{}, fmt.Errorf("%w: %s", ErrChainNotFound, chainID)
	}
	return t.addLocked(entry, item)
}

// addLocked requires entry.mu.
func (t *Tracker) addLocked(entry *chainEntry, item Item) (Item, error) {
	warnings, err := validate(item)
	if err != nil {
		return Item{}, err
	}

	stored := item.clone()
	stored.ID = uuid.NewString()
	stored.ChainID = entry.chain.ID
	if stored.Type == "" {
		stored.Type = ItemTypeClassification
	}
	stored.Verification = nil
	stored.CreatedAt = t.now().UTC()

	t.mu.Lock()
	defer t.mu.Unlock()

	stored.Related = t.relatedLocked(stored)
	if w, ok := crossReferenceWarning(stored.Related); ok {
		warnings = append(warnings, w)
	}
	stored.Warnings = warnings

	t.items[stored.ID] = &stored
	t.itemSeq = append(t.itemSeq, stored.ID)

	entry.chain.Items = append(entry.chain.Items, stored.ID)
	entry.chain.Confidence = t.confidenceLocked(entry.chain.Items)
	entry.chain.UpdatedAt = stored.CreatedAt
	t.refreshStatusLocked(&entry.chain)

	t.logger.Debug(
		"evidence item added",
		"chain_id", entry.chain.ID,
		"item_id", stored.ID,
		"related", len(stored.Related),
		"warnings", len(stored.Warnings),
		"confidence", entry.chain.Confidence,
	)

	return stored.clone(), nil
}

// relatedLocked links up to MaxRelated earlier items sharing the scene or
// the named character, oldest first.
func (t *Tracker) relatedLocked(item Item) []string {
	related := []string{}
	for _, id := range t.itemSeq {
		if len(related) == MaxRelated {
			break
		}
		other := t.items[id]
		sameScene := item.Location.SceneID != "" && other.Location.SceneID == item.Location.SceneID
		sameCharacter := item.Location.Character != "" && strings.EqualFold(other.Location.Character, item.Location.Character)
		if sameScene || sameCharacter {
			related = append(related, id)
		}
	}
	return related
}

// confidenceLocked is the mean item confidence weighted by
// relevance × completeness, falling back to the plain mean when every
// weight is zero.
func (t *Tracker) confidenceLocked(ids []string) float64 {
	if len(ids) == 0 {
		return 0
	}

	var sum, weights, plain float64
	for _, id := range ids {
		item := t.items[id]
		w := item.Quality.Relevance * item.Quality.Completeness
		sum += item.Confidence * w
		weights += w
		plain += item.Confidence
	}

	if weights == 0 {
		return plain / float64(len(ids))
	}
	return sum / weights
}

// refreshStatusLocked derives the chain status from item verifications.
// Rejected is only set by a recorded decision and is kept.
func (t *Tracker) refreshStatusLocked(c *Chain) {
	if c.Status == StatusRejected {
		return
	}

	verified := 0
	for _, id := range c.Items {
		v := t.items[id].Verification
		if v == nil {
			continue
		}
		if !v.Verified {
			c.Status = StatusDisputed
			return
		}
		verified++
	}

	if verified > 0 && verified == len(c.Items) {
		c.Status = StatusVerified
		return
	}
	c.Status = StatusPending
}

// RecordDecision stores a supervisor outcome on the chain for elementID.
func (t *Tracker) RecordDecision(elementID, reviewer, decision string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	t.mu.RLock()
	chainID, ok := t.byElement[elementID]
	entry := t.chains[chainID]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: element %s", ErrChainNotFound, elementID)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.deleted {
		return fmt.Errorf("%w: element %s", ErrChainNotFound, elementID)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if reviewer != "" && !slices.Contains(entry.chain.Reviewers, reviewer) {
		entry.chain.Reviewers = append(entry.chain.Reviewers, reviewer)
	}
	entry.chain.FinalDecision = decision
	entry.chain.Status = status
	entry.chain.UpdatedAt = t.now().UTC()
	return nil
}

// Chain returns a copy of the chain with the given id.
func (t *Tracker) Chain(id string) (Chain, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.chains[id]
	if !ok {
		return Chain{}, false
	}
	return entry.chain.clone(), true
}

// ChainFor returns a copy of the chain for an element.
func (t *Tracker) ChainFor(elementID string) (Chain, bool) {
	t.mu.RLock()
	id, ok := t.byElement[elementID]
	t.mu.RUnlock()
	if !ok {
		return Chain{}, false
	}
	return t.Chain(id)
}

// Item returns a copy of the item with the given id.
func (t *Tracker) Item(id string) (Item, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	item, ok := t.items[id]
	if !ok {
		return Item{}, false
	}
	return item.clone(), true
}

// Cleanup purges items whose verification time, or creation time when
// never verified, is older than days, then drops chains left empty.
// Dangling related links to purged items are removed.
func (t *Tracker) Cleanup(days int) (CleanupResult, error) {
	if days < 0 {
		return CleanupResult{}, fmt.Errorf("%w: %d", ErrInvalidRetention, days)
	}
	cutoff := t.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)

	t.mu.RLock()
	entries := make([]*chainEntry, 0, len(t.chainSeq))
	for _, id := range t.chainSeq {
		entries = append(entries, t.chains[id])
	}
	t.mu.RUnlock()

	var res CleanupResult
	for _, entry := range entries {
		entry.mu.Lock()
		t.mu.Lock()
		res.ItemsRemoved += t.purgeLocked(entry, cutoff)
		if len(entry.chain.Items) == 0 && !entry.deleted {
			entry.deleted = true
			delete(t.chains, entry.chain.ID)
			delete(t.byElement, entry.chain.ElementID)
			t.chainSeq = slices.DeleteFunc(t.chainSeq, func(id string) bool { return id == entry.chain.ID })
			res.ChainsRemoved++
		}
		t.mu.Unlock()
		entry.mu.Unlock()
	}

	if res.ItemsRemoved > 0 {
		t.mu.Lock()
		for _, item := range t.items {
			item.Related = slices.DeleteFunc(item.Related, func(id string) bool {
				_, live := t.items[id]
				return !live
			})
		}
		t.mu.Unlock()
	}

	t.logger.Info("evidence cleanup complete", "days", days, "items_removed", res.ItemsRemoved, "chains_removed", res.ChainsRemoved)
	return res, nil
}

// CleanupResult counts what Cleanup removed.
type CleanupResult struct {
	ItemsRemoved  int `json:"items_removed"`
	ChainsRemoved int `json:"chains_removed"`
}

func (t *Tracker) purgeLocked(entry *chainEntry, cutoff time.Time) int {
	removed := 0
	kept := entry.chain.Items[:0]
	for _, id := range entry.chain.Items {
		item := t.items[id]
		ts := item.CreatedAt
		if item.Verification != nil {
			ts = item.Verification.VerifiedAt
		}
		if ts.Before(cutoff) {
			delete(t.items, id)
			t.itemSeq = slices.DeleteFunc(t.itemSeq, func(s string) bool { return s == id })
			removed++
			continue
		}
		kept = append(kept, id)
	}
	entry.chain.Items = kept

	if removed > 0 {
		entry.chain.Confidence = t.confidenceLocked(kept)
		entry.chain.UpdatedAt = t.now().UTC()
		t.refreshStatusLocked(&entry.chain)
	}
	return removed
}

// verifyContext returns a context bounded by the tracker's verify timeout.
func (t *Tracker) verifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, t.timeout)
}

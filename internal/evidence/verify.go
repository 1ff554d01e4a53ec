package evidence

import (
	"context"
	"fmt"

	"github.com/JaimeStill/slate/internal/prompts"
	"github.com/JaimeStill/slate/pkg/formatting"
)

const (
	fallbackConfidence = 0.7
	manualConfidence   = 0.9
)

// Reasoner answers a free-text verification prompt.
type Reasoner interface {
	Reason(ctx context.Context, prompt string) (string, error)
}

// ReasonerFunc adapts a function to Reasoner.
type ReasonerFunc func(ctx context.Context, prompt string) (string, error)

func (f ReasonerFunc) Reason(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type verdict struct {
	Verified   *bool    `json:"verified"`
	Confidence *float64 `json:"confidence"`
	Notes      string   `json:"notes"`
}

type verifyPayload struct {
	ItemID     string  `json:"item_id"`
	SceneID    string  `json:"scene_id"`
	Character  string  `json:"character,omitempty"`
	Excerpt    string  `json:"text_excerpt"`
	Rationale  string  `json:"rationale"`
	Confidence float64 `json:"confidence"`
}

// Verify checks an item and overwrites its verification record. The
// automated method asks the Reasoner under the verify timeout and falls
// back to verified with confidence 0.7 when the call fails or the answer
// cannot be parsed. The manual method records confidence 0.9.
func (t *Tracker) Verify(ctx context.Context, itemID string, method Method) (Verification, error) {
	t.mu.RLock()
	item, ok := t.items[itemID]
	var snapshot Item
	var entry *chainEntry
	if ok {
		snapshot = item.clone()
		entry = t.chains[item.ChainID]
	}
	t.mu.RUnlock()
	if !ok || entry == nil {
		return Verification{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	var v Verification
	switch method {
	case MethodAutomated:
		v = t.automated(ctx, snapshot)
	case MethodManual:
		v = Verification{
			Method:     MethodManual,
			Verified:   true,
			Confidence: manualConfidence,
			Notes:      "manually verified",
		}
	default:
		return Verification{}, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	item, ok = t.items[itemID]
	if !ok || entry.deleted {
		return Verification{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	v.VerifiedAt = t.now().UTC()
	item.Verification = &v
	entry.chain.UpdatedAt = v.VerifiedAt
	t.refreshStatusLocked(&entry.chain)

	t.logger.Debug("evidence verified", "item_id", itemID, "method", method, "verified", v.Verified, "confidence", v.Confidence)
	return v, nil
}

func (t *Tracker) automated(ctx context.Context, item Item) Verification {
	fallback := func(note string) Verification {
		return Verification{
			Method:     MethodAutomated,
			Verified:   true,
			Confidence: fallbackConfidence,
			Notes:      note,
		}
	}

	if t.reasoner == nil {
		return fallback("no reasoner configured; default verification applied")
	}

	prompt, err := prompts.Compose(prompts.StageVerify, verifyPayload{
		ItemID:     item.ID,
		SceneID:    item.Location.SceneID,
		Character:  item.Location.Character,
		Excerpt:    item.Excerpt,
		Rationale:  item.Rationale,
		Confidence: item.Confidence,
	})
	if err != nil {
		return fallback(fmt.Sprintf("compose prompt: %v", err))
	}

	vctx, cancel := t.verifyContext(ctx)
	defer cancel()

	answer, err := t.reason(vctx, prompt)
	if err != nil {
		t.logger.Warn("automated verification failed", "item_id", item.ID, "error", err)
		return fallback(fmt.Sprintf("reasoner unavailable: %v", err))
	}

	parsed, err := formatting.Parse[verdict](answer)
	if err != nil || parsed.Verified == nil || parsed.Confidence == nil {
		t.logger.Warn("automated verification unparsable", "item_id", item.ID)
		return fallback("reasoner answer could not be parsed; default verification applied")
	}

	return Verification{
		Method:     MethodAutomated,
		Verified:   *parsed.Verified,
		Confidence: max(0, min(1, *parsed.Confidence)),
		Notes:      parsed.Notes,
	}
}

// reason returns when the reasoner answers or ctx ends, whichever is first.
// A late answer from a reasoner that ignores ctx is discarded.
func (t *Tracker) reason(ctx context.Context, prompt string) (string, error) {
	type outcome struct {
		answer string
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		answer, err := t.reasoner.Reason(ctx, prompt)
		done <- outcome{answer, err}
	}()

	select {
	case o := <-done:
		return o.answer, o.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

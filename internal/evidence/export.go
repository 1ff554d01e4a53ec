package evidence

import "time"

// Export is a full copy of the ledger.
type Export struct {
	ExportedAt time.Time `json:"exported_at"`
	Chains     []Chain   `json:"chains"`
	Items      []Item    `json:"items"`
}

// ChainSummary flattens one chain.
type ChainSummary struct {
	ChainID    string  `json:"chain_id"`
	ElementID  string  `json:"element_id"`
	Confidence float64 `json:"confidence"`
	Status     Status  `json:"status"`
	ItemCount  int     `json:"item_count"`
}

// ChainIDs lists a chain and its item ids.
type ChainIDs struct {
	ChainID string   `json:"chain_id"`
	ItemIDs []string `json:"item_ids"`
}

// Export returns chains and items in creation order.
func (t *Tracker) Export() Export {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := Export{
		ExportedAt: t.now().UTC(),
		Chains:     make([]Chain, 0, len(t.chainSeq)),
		Items:      make([]Item, 0, len(t.itemSeq)),
	}
	for _, id := range t.chainSeq {
		out.Chains = append(out.Chains, t.chains[id].chain.clone())
	}
	for _, id := range t.itemSeq {
		out.Items = append(out.Items, t.items[id].clone())
	}
	return out
}

// Summary returns one row per chain in creation order.
func (t *Tracker) Summary() []ChainSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]ChainSummary, 0, len(t.chainSeq))
	for _, id := range t.chainSeq {
		c := t.chains[id].chain
		out = append(out, ChainSummary{
			ChainID:    c.ID,
			ElementID:  c.ElementID,
			Confidence: c.Confidence,
			Status:     c.Status,
			ItemCount:  len(c.Items),
		})
	}
	return out
}

// IDs lists chain and item ids in creation order.
func (t *Tracker) IDs() []ChainIDs {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]ChainIDs, 0, len(t.chainSeq))
	for _, id := range t.chainSeq {
		c := t.chains[id].chain
		out = append(out, ChainIDs{
			ChainID: c.ID,
			ItemIDs: append([]string{}, c.Items...),
		})
	}
	return out
}

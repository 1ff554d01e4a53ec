package api

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/slate/internal/classify"
	"github.com/JaimeStill/slate/internal/elements"
	"github.com/JaimeStill/slate/pkg/handlers"
	"github.com/JaimeStill/slate/pkg/routes"
)

// ruleView is the public shape of one active classification rule.
type ruleView struct {
	Category       elements.Category `json:"category"`
	Index          int               `json:"index"`
	Priority       int               `json:"priority"`
	BaseConfidence float64           `json:"base_confidence"`
	Threshold      float64           `json:"threshold"`
	Keywords       int               `json:"keywords"`
	Exclusions     int               `json:"exclusions"`
}

type taxonomyHandler struct {
	engine *classify.Engine
	logger *slog.Logger
}

func newTaxonomyHandler(engine *classify.Engine, logger *slog.Logger) *taxonomyHandler {
	return &taxonomyHandler{
		engine: engine,
		logger: logger.With("handler", "taxonomy"),
	}
}

func (h *taxonomyHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/taxonomy",
		Tag:    "Taxonomy",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.list, Summary: "List active classification rules"},
		},
	}
}

// list reports the rules the running engine classifies with, after any
// policy overrides, in breakdown-sheet order.
func (h *taxonomyHandler) list(w http.ResponseWriter, r *http.Request) {
	byCategory := make(map[elements.Category]classify.Rule)
	for _, rule := range h.engine.Rules() {
		byCategory[rule.Category] = rule
	}

	views := make([]ruleView, 0, len(byCategory))
	for _, c := range elements.Categories() {
		rule, ok := byCategory[c]
		if !ok {
			continue
		}
		views = append(views, ruleView{
			Category:       c,
			Index:          c.Index(),
			Priority:       rule.Priority,
			BaseConfidence: rule.BaseConfidence,
			Threshold:      rule.Threshold,
			Keywords:       len(rule.Keywords),
			Exclusions:     len(rule.Exclusions),
		})
	}

	handlers.RespondJSON(w, http.StatusOK, views)
}

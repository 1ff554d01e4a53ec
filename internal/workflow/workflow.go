package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/slate/internal/elements"
	"github.com/JaimeStill/slate/internal/evidence"
	"github.com/JaimeStill/slate/internal/script"
	"github.com/JaimeStill/slate/internal/supervisor"
)

// Execute runs the breakdown workflow for a single script. Each execution
// gets its own evidence tracker; the graph is parse → classify → track →
// analyze → supervise, with parse → analyze when no scenes were found.
func Execute(ctx context.Context, rt *Runtime, in Input) (*Result, error) {
	if err := rt.validate(); err != nil {
		return nil, err
	}

	run := *rt
	if run.Logger == nil {
		run.Logger = slog.New(slog.DiscardHandler)
	}
	run.Logger = run.Logger.With("workflow", "breakdown", "script_id", in.ScriptID)

	graph, err := buildGraph(&run)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	tracker := evidence.New(evidence.Options{
		Reasoner:      run.Reasoner,
		VerifyTimeout: run.VerifyTimeout,
		Logger:        run.Logger,
	})

	initialState := state.New(nil)
	initialState = initialState.Set(KeyInput, in)
	initialState = initialState.Set(KeyTracker, tracker)

	finalState, err := graph.Execute(ctx, initialState)
	if err != nil {
		return nil, fmt.Errorf("execute graph: %w", err)
	}

	return extractResult(finalState, in, tracker)
}

func buildGraph(rt *Runtime) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("slate-breakdown")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	nodes := []struct {
		name string
		node state.StateNode
	}{
		{"parse", ParseNode(rt)},
		{"classify", ClassifyNode(rt)},
		{"track", TrackNode(rt)},
		{"analyze", AnalyzeNode(rt)},
		{"supervise", SuperviseNode(rt)},
	}
	for _, n := range nodes {
		if err := graph.AddNode(n.name, n.node); err != nil {
			return nil, err
		}
	}

	// parse → classify (when scenes were found)
	if err := graph.AddEdge("parse", "classify", hasScenes); err != nil {
		return nil, err
	}

	// parse → analyze (nothing to classify)
	if err := graph.AddEdge("parse", "analyze", state.Not(hasScenes)); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("classify", "track", nil); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("track", "analyze", nil); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("analyze", "supervise", nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("parse"); err != nil {
		return nil, err
	}

	if err := graph.SetExitPoint("supervise"); err != nil {
		return nil, err
	}

	return graph, nil
}

func extractResult(s state.State, in Input, tracker *evidence.Tracker) (*Result, error) {
	parsing, err := get[script.Result](s, KeyParsing)
	if err != nil {
		return nil, err
	}

	tech, err := get[supervisor.TechnicalValidation](s, KeyTechnical)
	if err != nil {
		return nil, err
	}

	emo, err := get[supervisor.EmotionalAnalysis](s, KeyEmotional)
	if err != nil {
		return nil, err
	}

	sup, err := get[supervisor.Result](s, KeySupervision)
	if err != nil {
		return nil, err
	}

	reports := make([]evidence.Report, 0, 4)
	for _, kind := range []evidence.ReportType{
		evidence.ReportCompleteness,
		evidence.ReportQuality,
		evidence.ReportConsistency,
		evidence.ReportTraceability,
	} {
		r, err := tracker.Report(kind)
		if err != nil {
			return nil, fmt.Errorf("%s report: %w", kind, err)
		}
		reports = append(reports, r)
	}

	return &Result{
		ScriptID:    in.ScriptID,
		Filename:    in.Filename,
		Parsing:     parsing,
		Technical:   tech,
		Emotional:   emo,
		Supervision: sup,
		Catalog:     supervisor.Catalog(sup.FinalElements),
		Continuity:  supervisor.Continuity(parsing.Scenes, elementsOf(s)),
		Evidence: EvidenceResult{
			Summary: tracker.Summary(),
			Reports: reports,
			Export:  tracker.Export(),
		},
		CompletedAt: time.Now(),
	}, nil
}

// get reads a typed value from the state bag.
func get[T any](s state.State, key string) (T, error) {
	var zero T
	val, ok := s.Get(key)
	if !ok {
		return zero, fmt.Errorf("missing %s in state", key)
	}
	v, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("%s is %T, want %T", key, val, zero)
	}
	return v, nil
}

func hasScenes(s state.State) bool {
	parsing, err := get[script.Result](s, KeyParsing)
	if err != nil {
		return false
	}
	return len(parsing.Scenes) > 0
}

func elementsOf(s state.State) []elements.Element {
	els, err := get[[]elements.Element](s, KeyElements)
	if err != nil {
		return []elements.Element{}
	}
	return els
}

func defaultWorkers() int {
	return runtime.NumCPU()
}

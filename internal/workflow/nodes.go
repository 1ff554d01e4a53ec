package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/slate/internal/elements"
	"github.com/JaimeStill/slate/internal/evidence"
	"github.com/JaimeStill/slate/internal/script"
	"github.com/JaimeStill/slate/internal/supervisor"
)

const supervisorReviewer = "supervisor"

// ParseNode returns a state node that parses the script text into scenes.
// Parsing never fails; diagnostics travel on the script.Result.
func ParseNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		in, err := get[Input](s, KeyInput)
		if err != nil {
			return s, fmt.Errorf("parse: %w", err)
		}

		res := rt.Parser.Parse(in.Text, in.Filename)

		rt.Logger.InfoContext(
			ctx, "parse node complete",
			"format", res.Format,
			"scenes", len(res.Scenes),
			"diagnostics", len(res.Errors),
			"confidence", res.Confidence,
		)

		s = s.Set(KeyParsing, res)
		s = s.Set(KeyElements, []elements.Element{})
		return s, nil
	})
}

// ClassifyNode returns a state node that classifies every scene in
// parallel with bounded errgroup concurrency. Elements keep scene order.
func ClassifyNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		parsing, err := get[script.Result](s, KeyParsing)
		if err != nil {
			return s, fmt.Errorf("classify: %w: %w", ErrClassifyFailed, err)
		}

		perScene := make([][]elements.Element, len(parsing.Scenes))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(rt.workers(len(parsing.Scenes)))

		for i := range parsing.Scenes {
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				perScene[i] = rt.Engine.ClassifyScene(parsing.Scenes[i])
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return s, fmt.Errorf("classify: %w: %w", ErrClassifyFailed, err)
		}

		els := slices.Concat(perScene...)
		if els == nil {
			els = []elements.Element{}
		}

		rt.Logger.InfoContext(
			ctx, "classify node complete",
			"scenes", len(parsing.Scenes),
			"elements", len(els),
		)

		s = s.Set(KeyElements, els)
		return s, nil
	})
}

// TrackNode returns a state node that opens one evidence chain per
// distinct element and adds every occurrence of it as an item. Items the
// ledger rejects are logged and skipped. With automated verification on,
// every stored item is verified with bounded concurrency.
func TrackNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		tracker, err := get[*evidence.Tracker](s, KeyTracker)
		if err != nil {
			return s, fmt.Errorf("track: %w: %w", ErrTrackFailed, err)
		}
		in, err := get[Input](s, KeyInput)
		if err != nil {
			return s, fmt.Errorf("track: %w: %w", ErrTrackFailed, err)
		}

		els := elementsOf(s)
		items, rejected, err := track(tracker, els, len(in.Text))
		if err != nil {
			return s, fmt.Errorf("track: %w: %w", ErrTrackFailed, err)
		}

		for _, r := range rejected {
			rt.Logger.WarnContext(ctx, "evidence item rejected", "element_id", r.elementID, "error", r.err)
		}

		if rt.Verify == VerifyAutomated {
			if err := verify(ctx, rt, tracker, items); err != nil {
				return s, fmt.Errorf("track: %w: %w", ErrTrackFailed, err)
			}
		}

		rt.Logger.InfoContext(
			ctx, "track node complete",
			"chains", len(tracker.Summary()),
			"items", len(items),
			"rejected", len(rejected),
			"verify", rt.Verify,
		)

		return s, nil
	})
}

type rejection struct {
	elementID string
	err       error
}

// track groups elements by deduplication key. The chain for a group is
// opened on the element supervision would keep for that key.
func track(tracker *evidence.Tracker, els []elements.Element, sourceLength int) ([]string, []rejection, error) {
	groups := make(map[string][]elements.Element)
	for _, el := range els {
		groups[el.Key()] = append(groups[el.Key()], el)
	}

	var items []string
	var rejected []rejection

	for _, rep := range supervisor.DeduplicateElements(els) {
		chain, err := tracker.CreateChain(rep.ID, nil)
		if err != nil {
			return nil, nil, err
		}

		for _, el := range groups[rep.Key()] {
			item, err := tracker.AddItem(chain.ID, evidence.ItemFromElement(el, sourceLength))
			if err != nil {
				if !errors.Is(err, evidence.ErrValidationFailed) {
					return nil, nil, err
				}
				rejected = append(rejected, rejection{el.ID, err})
				continue
			}
			items = append(items, item.ID)
		}
	}

	return items, rejected, nil
}

func verify(ctx context.Context, rt *Runtime, tracker *evidence.Tracker, items []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rt.workers(len(items)))

	for _, id := range items {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			_, err := tracker.Verify(gctx, id, evidence.MethodAutomated)
			return err
		})
	}

	return g.Wait()
}

// AnalyzeNode returns a state node that runs the technical and emotional
// providers in parallel. Provider failures degrade to fallback records.
func AnalyzeNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		parsing, err := get[script.Result](s, KeyParsing)
		if err != nil {
			return s, fmt.Errorf("analyze: %w: %w", ErrAnalyzeFailed, err)
		}

		in := supervisor.Input{Parsing: parsing, Elements: elementsOf(s)}

		var (
			tech supervisor.TechnicalValidation
			emo  supervisor.EmotionalAnalysis
		)

		var g errgroup.Group
		g.Go(func() error {
			tech = supervisor.RunTechnical(ctx, rt.Technical, in, rt.ProviderTimeout)
			return nil
		})
		g.Go(func() error {
			emo = supervisor.RunEmotional(ctx, rt.Emotional, in, rt.ProviderTimeout)
			return nil
		})
		_ = g.Wait()

		rt.Logger.InfoContext(
			ctx, "analyze node complete",
			"technical_source", tech.Source,
			"technical_degraded", tech.Degraded,
			"emotional_source", emo.Source,
			"emotional_degraded", emo.Degraded,
		)

		s = s.Set(KeyTechnical, tech)
		s = s.Set(KeyEmotional, emo)
		return s, nil
	})
}

// SuperviseNode returns a state node that reconciles the analyses and
// writes each decision back onto the evidence chains it concerns.
func SuperviseNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		tech, err := get[supervisor.TechnicalValidation](s, KeyTechnical)
		if err != nil {
			return s, fmt.Errorf("supervise: %w: %w", ErrSuperviseFailed, err)
		}
		emo, err := get[supervisor.EmotionalAnalysis](s, KeyEmotional)
		if err != nil {
			return s, fmt.Errorf("supervise: %w: %w", ErrSuperviseFailed, err)
		}
		tracker, err := get[*evidence.Tracker](s, KeyTracker)
		if err != nil {
			return s, fmt.Errorf("supervise: %w: %w", ErrSuperviseFailed, err)
		}

		els := elementsOf(s)
		res := rt.Supervisor.Supervise(rt.Supervisor.Context(tech, emo, els))

		recorded := recordDecisions(tracker, els, res)

		rt.Logger.InfoContext(
			ctx, "supervise node complete",
			"final_elements", len(res.FinalElements),
			"conflicts", len(res.ConflictsDetected),
			"decisions_recorded", recorded,
			"human_review", res.QualityAssessment.HumanReviewRequired,
		)

		s = s.Set(KeySupervision, res)
		return s, nil
	})
}

// recordDecisions writes decisions onto the chains of the elements their
// conflicts name. Elements are mapped to chains by deduplication key.
// An overruled classification is rejected; other automatic decisions
// verify the chain and decisions left to a reviewer dispute it.
func recordDecisions(tracker *evidence.Tracker, els []elements.Element, res supervisor.Result) int {
	chainOf := make(map[string]string, len(els))
	for _, rep := range supervisor.DeduplicateElements(els) {
		chainOf[rep.Key()] = rep.ID
	}
	owner := make(map[string]string, len(els))
	for _, el := range els {
		owner[el.ID] = chainOf[el.Key()]
	}

	recorded := 0
	for i, d := range res.DecisionsMade {
		c := res.ConflictsDetected[i]
		for j, id := range c.ElementIDs {
			status := evidence.StatusDisputed
			if d.AutoApplied {
				status = evidence.StatusVerified
				if c.Type == supervisor.ConflictClassification && j > 0 {
					status = evidence.StatusRejected
				}
			}
			err := tracker.RecordDecision(owner[id], supervisorReviewer, fmt.Sprintf("%s: %s", c.ID, d.Resolution), status)
			if err == nil {
				recorded++
			}
		}
	}
	return recorded
}

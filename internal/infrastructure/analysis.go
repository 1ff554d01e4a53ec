package infrastructure

import (
	"fmt"
	"log/slog"

	"github.com/JaimeStill/slate/internal/classify"
	"github.com/JaimeStill/slate/internal/config"
	"github.com/JaimeStill/slate/internal/evidence"
	"github.com/JaimeStill/slate/internal/script"
	"github.com/JaimeStill/slate/internal/supervisor"
	"github.com/JaimeStill/slate/internal/workflow"
)

// NewAnalysis builds the breakdown workflow runtime. The rule table starts
// from the built-in taxonomy with the optional policy file applied. An
// agent reasoner is only created when automated verification or agent
// emotional analysis is enabled, and both share it.
func NewAnalysis(cfg *config.Config, logger *slog.Logger) (*workflow.Runtime, error) {
	a := &cfg.Analysis

	rules := classify.DefaultRules()
	if a.RulesPolicy != "" {
		policy, err := classify.LoadPolicy(a.RulesPolicy)
		if err != nil {
			return nil, fmt.Errorf("load rules policy: %w", err)
		}
		if rules, err = policy.Apply(rules); err != nil {
			return nil, fmt.Errorf("apply rules policy: %w", err)
		}
		logger.Info("rules policy applied", "path", a.RulesPolicy)
	}

	engine, err := classify.New(rules, logger)
	if err != nil {
		return nil, fmt.Errorf("build classification engine: %w", err)
	}

	sup, err := supervisor.New(a.Supervisor(), logger)
	if err != nil {
		return nil, fmt.Errorf("build supervisor: %w", err)
	}

	rt := &workflow.Runtime{
		Parser:          script.New(logger),
		Engine:          engine,
		Supervisor:      sup,
		Verify:          workflow.VerifyMode(a.Verify),
		VerifyTimeout:   a.VerifyTimeoutDuration(),
		Technical:       supervisor.RuleTechnicalValidator{},
		ProviderTimeout: a.ProviderTimeoutDuration(),
		Workers:         a.Workers,
		Logger:          logger,
	}

	emotional := a.Emotional == config.EmotionalAgent
	if rt.Verify == workflow.VerifyAutomated || emotional {
		reasoner, err := evidence.NewAgentReasoner(cfg.Agent)
		if err != nil {
			return nil, fmt.Errorf("build analysis agent: %w", err)
		}
		if rt.Verify == workflow.VerifyAutomated {
			rt.Reasoner = reasoner
		}
		if emotional {
			rt.Emotional = supervisor.AgentEmotional{Reasoner: reasoner}
		}
		logger.Info("analysis agent configured", "verify", a.Verify, "emotional", a.Emotional)
	}

	return rt, nil
}

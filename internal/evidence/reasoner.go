package evidence

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// AgentReasoner answers verification prompts with a go-agents chat agent.
// A fresh agent is created per call, so one AgentReasoner can serve
// concurrent verifications.
type AgentReasoner struct {
	cfg gaconfig.AgentConfig
}

// NewAgentReasoner checks that cfg can build an agent.
func NewAgentReasoner(cfg gaconfig.AgentConfig) (*AgentReasoner, error) {
	if _, err := agent.New(&cfg); err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	return &AgentReasoner{cfg: cfg}, nil
}

func (r *AgentReasoner) Reason(ctx context.Context, prompt string) (string, error) {
	a, err := agent.New(&r.cfg)
	if err != nil {
		return "", fmt.Errorf("create agent: %w", err)
	}

	resp, err := a.Chat(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}

	return resp.Content(), nil
}

package config

import (
	"fmt"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	EnvAgentName         = "SLATE_AGENT_NAME"
	EnvAgentProviderName = "SLATE_AGENT_PROVIDER_NAME"
	EnvAgentBaseURL      = "SLATE_AGENT_BASE_URL"
	EnvAgentModelName    = "SLATE_AGENT_MODEL_NAME"
	EnvAgentToken        = "SLATE_AGENT_TOKEN"
	EnvAgentDeployment   = "SLATE_AGENT_DEPLOYMENT"
	EnvAgentAPIVersion   = "SLATE_AGENT_API_VERSION"
	EnvAgentAuthType     = "SLATE_AGENT_AUTH_TYPE"
)

// providerOptions maps environment variables to provider option keys.
var providerOptions = []struct {
	env string
	key string
}{
	{EnvAgentToken, "token"},
	{EnvAgentDeployment, "deployment"},
	{EnvAgentAPIVersion, "api_version"},
	{EnvAgentAuthType, "auth_type"},
}

// FinalizeAgent finalizes the go-agents config used for automated evidence
// verification: go-agents defaults, SLATE_AGENT_* overrides, then validation.
func FinalizeAgent(c *gaconfig.AgentConfig) error {
	loadAgentDefaults(c)
	loadAgentEnv(c)
	return validateAgent(c)
}

func loadAgentDefaults(c *gaconfig.AgentConfig) {
	defaults := gaconfig.DefaultAgentConfig()
	defaults.Merge(c)
	*c = defaults
}

func loadAgentEnv(c *gaconfig.AgentConfig) {
	if c.Provider == nil {
		c.Provider = &gaconfig.ProviderConfig{}
	}
	if c.Provider.Options == nil {
		c.Provider.Options = make(map[string]any)
	}
	if c.Model == nil {
		c.Model = &gaconfig.ModelConfig{}
	}

	if v := os.Getenv(EnvAgentName); v != "" {
		c.Name = v
	}
	if v := os.Getenv(EnvAgentProviderName); v != "" {
		c.Provider.Name = v
	}
	if v := os.Getenv(EnvAgentBaseURL); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv(EnvAgentModelName); v != "" {
		c.Model.Name = v
	}

	for _, opt := range providerOptions {
		if v := os.Getenv(opt.env); v != "" {
			c.Provider.Options[opt.key] = v
		}
	}
}

func validateAgent(c *gaconfig.AgentConfig) error {
	switch {
	case c.Name == "":
		return fmt.Errorf("name required")
	case c.Provider == nil || c.Provider.Name == "":
		return fmt.Errorf("provider name required")
	case c.Model == nil:
		return fmt.Errorf("model required")
	}
	return nil
}

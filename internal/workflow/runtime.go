package workflow

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/slate/internal/classify"
	"github.com/JaimeStill/slate/internal/evidence"
	"github.com/JaimeStill/slate/internal/script"
	"github.com/JaimeStill/slate/internal/supervisor"
)

// VerifyMode selects how evidence items are verified during tracking.
type VerifyMode string

const (
	VerifyOff       VerifyMode = "off"
	VerifyAutomated VerifyMode = "automated"
)

// Runtime bundles the dependencies that workflow nodes require.
// It is constructed by higher-level composition code from Infrastructure
// and the analysis configuration.
type Runtime struct {
	Parser     *script.Parser
	Engine     *classify.Engine
	Supervisor *supervisor.Supervisor

	Reasoner      evidence.Reasoner
	Verify        VerifyMode
	VerifyTimeout time.Duration

	Technical       supervisor.TechnicalProvider
	Emotional       supervisor.EmotionalProvider
	ProviderTimeout time.Duration

	Workers int
	Logger  *slog.Logger
}

func (rt *Runtime) validate() error {
	switch {
	case rt == nil:
		return fmt.Errorf("%w: runtime is nil", ErrInvalidRuntime)
	case rt.Parser == nil:
		return fmt.Errorf("%w: parser is required", ErrInvalidRuntime)
	case rt.Engine == nil:
		return fmt.Errorf("%w: classification engine is required", ErrInvalidRuntime)
	case rt.Supervisor == nil:
		return fmt.Errorf("%w: supervisor is required", ErrInvalidRuntime)
	}

	switch rt.Verify {
	case "", VerifyOff, VerifyAutomated:
	default:
		return fmt.Errorf("%w: unknown verify mode %q", ErrInvalidRuntime, rt.Verify)
	}
	return nil
}

func (rt *Runtime) workers(n int) int {
	limit := rt.Workers
	if limit <= 0 {
		limit = defaultWorkers()
	}
	return max(min(limit, n), 1)
}

package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/sprite-ai/plugver/internal/analysis"
	"github.com/sprite-ai/plugver/internal/logger"
	"github.com/sprite-ai/plugver/internal/model"
)

// Supported backends.
const (
	BackendClaudeCLI = "claude-cli"
	BackendGemini    = "gemini"
	BackendRules     = "rules"
)

// Backends lists every accepted backend name.
var Backends = []string{BackendClaudeCLI, BackendGemini, BackendRules}

// Classifier is satisfied by Adapter and Rules.
type Classifier interface {
	ClassifyBump(ctx context.Context, plugin, diff string) (model.Verdict, error)
	ClassifyRequired(ctx context.Context, diff string) bool
}

// Options selects and configures a backend.
type Options struct {
	Backend string
	Command string // claude-cli binary
	Model   string
	Timeout time.Duration
	APIKey  string          // gemini
	Layout  analysis.Layout // rules
}

// New builds the classifier named by opts.Backend.
func New(ctx context.Context, opts Options, log *logger.Logger) (Classifier, error) {
	switch opts.Backend {
	case "", BackendClaudeCLI:
		return NewAdapter(NewClaudeCLI(opts.Command, opts.Model, opts.Timeout), log), nil
	case BackendGemini:
		g, err := NewGemini(ctx, opts.APIKey, opts.Model, opts.Timeout)
		if err != nil {
			return nil, err
		}
		return NewAdapter(g, log), nil
	case BackendRules:
		return NewRules(log, opts.Layout), nil
	default:
		return nil, fmt.Errorf("unknown oracle backend %q (want one of %v)", opts.Backend, Backends)
	}
}

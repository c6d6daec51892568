// Package oracle delegates the judgement "how much did this plugin change?"
// to an external classifier and parses its fixed-format answer.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sprite-ai/plugver/internal/apperr"
	"github.com/sprite-ai/plugver/internal/logger"
	"github.com/sprite-ai/plugver/internal/model"
)

var (
	// ErrTransport marks a failed call to the oracle backend.
	ErrTransport = errors.New("oracle transport failed")
	// ErrUnparseable marks an oracle answer without a recognisable decision.
	ErrUnparseable = errors.New("oracle response has no recognisable decision")
)

// NoReason is used when a graded answer carries a decision but no reason.
const NoReason = "No reason provided"

// Client sends a prompt to a text-completion backend.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, prompt string) (string, error)

// Complete implements Client.
func (f ClientFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

var (
	decisionPattern = regexp.MustCompile(`(?i)DECISION:\s*(PATCH|MINOR|MAJOR|NONE)`)
	reasonPattern   = regexp.MustCompile(`(?i)REASON:\s*(.+)`)
	yesPattern      = regexp.MustCompile(`\bYES\b`)
	noPattern       = regexp.MustCompile(`\bNO\b`)
)

// ParseGraded extracts the DECISION and REASON lines from a graded answer.
func ParseGraded(response string) (model.Verdict, error) {
	response = strings.TrimSpace(response)

	m := decisionPattern.FindStringSubmatch(response)
	if m == nil {
		return model.Verdict{}, fmt.Errorf("%w: %q", ErrUnparseable, truncate(response, 200))
	}
	kind, err := model.ParseBumpKind(m[1])
	if err != nil {
		return model.Verdict{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	reason := NoReason
	if r := reasonPattern.FindStringSubmatch(response); r != nil {
		if trimmed := strings.TrimSpace(r[1]); trimmed != "" {
			reason = trimmed
		}
	}
	return model.Verdict{Kind: kind, Reason: reason}, nil
}

// ParseBinary reads a YES/NO answer. YES is looked for first; ok is false
// when neither word appears on its own.
func ParseBinary(response string) (required bool, ok bool) {
	upper := strings.ToUpper(strings.TrimSpace(response))
	switch {
	case yesPattern.MatchString(upper):
		return true, true
	case noPattern.MatchString(upper):
		return false, true
	default:
		return true, false
	}
}

// Adapter classifies diffs by prompting a Client with the fixed rubrics.
type Adapter struct {
	client Client
	log    *logger.Logger
}

// NewAdapter wraps client.
func NewAdapter(client Client, log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.Nop()
	}
	return &Adapter{client: client, log: log.Component("oracle")}
}

// ClassifyBump asks for a graded verdict. Transport and parse failures are
// returned; no default kind is ever chosen.
func (a *Adapter) ClassifyBump(ctx context.Context, plugin, diff string) (model.Verdict, error) {
	log := a.log.With("plugin", plugin)

	resp, err := a.client.Complete(ctx, BumpPrompt(plugin, diff))
	if err != nil {
		return model.Verdict{}, apperr.Wrap(fmt.Errorf("%w: %w", ErrTransport, err), apperr.CodeOracleTransport,
			"classification oracle call failed")
	}
	log.Debugf("oracle response: %s", truncate(resp, 500))

	v, err := ParseGraded(resp)
	if err != nil {
		return model.Verdict{}, apperr.Wrap(err, apperr.CodeOracleUnparseable, "could not parse oracle decision")
	}
	return v, nil
}

// ClassifyRequired asks whether diff needs any bump at all. Every failure
// answers true. An empty diff answers false without calling the oracle.
func (a *Adapter) ClassifyRequired(ctx context.Context, diff string) bool {
	if strings.TrimSpace(diff) == "" {
		return false
	}

	resp, err := a.client.Complete(ctx, RequiredPrompt(diff))
	if err != nil {
		a.log.Warn("oracle call failed, assuming a version bump is required", err)
		return true
	}

	required, ok := ParseBinary(resp)
	if !ok {
		a.log.Warnf("unclear oracle response %q, assuming a version bump is required", truncate(resp, 200))
	}
	return required
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

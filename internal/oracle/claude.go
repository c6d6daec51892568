package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Defaults for the Claude CLI backend.
const (
	DefaultClaudeBinary = "claude"
	DefaultClaudeModel  = "haiku"
	DefaultTimeout      = 120 * time.Second
)

// ClaudeCLI runs `claude --model <model> -p` with the prompt on stdin and
// returns its plain-text output. The prompt embeds whole diffs, which can
// exceed the kernel's per-argument limit.
type ClaudeCLI struct {
	binary  string
	model   string
	timeout time.Duration
}

// NewClaudeCLI creates a CLI client. Empty values take the defaults.
func NewClaudeCLI(binary, model string, timeout time.Duration) *ClaudeCLI {
	if binary == "" {
		binary = DefaultClaudeBinary
	}
	if model == "" {
		model = DefaultClaudeModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ClaudeCLI{binary: binary, model: model, timeout: timeout}
}

// Complete implements Client.
func (c *ClaudeCLI) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binary, "--model", c.model, "-p")
	cmd.Stdin = strings.NewReader(prompt)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("claude CLI timed out after %v: %w", c.timeout, ctx.Err())
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", fmt.Errorf("claude CLI execution canceled: %w", ctx.Err())
		}
		return "", fmt.Errorf("claude CLI execution failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", errors.New("empty response from claude CLI")
	}
	return out, nil
}

package oracle

import "fmt"

const bumpRubric = `Analyze this git diff for the %q plugin and determine the appropriate semantic version bump:

FIRST, determine if ANY version update is needed:
- NO version update (return NONE) for:
  * Pure formatting changes (whitespace, indentation, line breaks)
  * Minor grammar/typo fixes that don't change meaning
  * Comment-only changes
  * Documentation formatting

IF a version update IS needed, determine the type:
- PATCH: Bug fixes or substantive changes to existing functionality that don't alter behavior (e.g., fixing a bug, improving error messages, updating documentation content)
- MINOR: New command, skill, agent, or addition to existing functionality that doesn't break existing behavior
- MAJOR: Removes existing skill/command/agent OR makes changes that drastically alter behavior of existing functionality

CHANGES:
` + "```diff" + `
%s
` + "```" + `

Respond in this exact format:
DECISION: <PATCH|MINOR|MAJOR|NONE>
REASON: <one sentence explaining why>`

const requiredRubric = `You are reviewing changes to a Claude Code plugin to determine if a version update is required.

CHANGES:
` + "```diff" + `
%s
` + "```" + `

RULES FOR VERSION UPDATES:
- NO version update needed for:
  * Pure formatting changes (whitespace, indentation, line breaks)
  * Minor grammar/typo fixes that don't change meaning
  * Comment-only changes
  * Documentation formatting

- VERSION UPDATE REQUIRED for:
  * Changes to plugin.json metadata (name, description, author, etc.)
  * Changes to command/skill/agent configurations
  * Changes to YAML frontmatter in command files
  * Substantive content changes that affect functionality
  * Changes to command instructions or behavior
  * New commands, skills, or agents added
  * Removed commands, skills, or agents

Respond with ONLY ONE WORD:
- "YES" if a version update is required
- "NO" if no version update is needed

Response:`

// BumpPrompt renders the graded rubric for one plugin's diff.
func BumpPrompt(plugin, diff string) string {
	return fmt.Sprintf(bumpRubric, plugin, diff)
}

// RequiredPrompt renders the yes/no rubric for a diff.
func RequiredPrompt(diff string) string {
	return fmt.Sprintf(requiredRubric, diff)
}

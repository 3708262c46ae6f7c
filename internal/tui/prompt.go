package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// Prompter asks the operator for values a command was not given as flags.
type Prompter interface {
	String(p Prompt) (string, error)
	Password(message string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
	Select(message string, options []Option) (string, error)
}

// Prompt represents a simple interactive prompt configuration
type Prompt struct {
	Message     string
	Default     string
	Placeholder string
	Required    bool
}

// Option is one choice in a Select prompt.
type Option struct {
	Label string
	Value string
}

// HuhPrompter renders prompts with huh forms on the terminal.
type HuhPrompter struct {
	// Accessible switches huh to its line-based mode for screen readers.
	Accessible bool
}

func (h HuhPrompter) run(field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).WithAccessible(h.Accessible)
	if err := form.Run(); err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

// String displays an input prompt and returns the trimmed answer.
func (h HuhPrompter) String(p Prompt) (string, error) {
	value := p.Default

	input := huh.NewInput().
		Title(p.Message).
		Placeholder(p.Placeholder).
		Value(&value)
	if p.Required {
		input = input.Validate(required)
	}

	if err := h.run(input); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// Password reads a value without echoing it.
func (h HuhPrompter) Password(message string) (string, error) {
	var value string
	input := huh.NewInput().
		Title(message).
		EchoMode(huh.EchoModePassword).
		Validate(required).
		Value(&value)

	if err := h.run(input); err != nil {
		return "", err
	}
	return value, nil
}

// Confirm displays a yes/no confirmation prompt
func (h HuhPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue

	confirm := huh.NewConfirm().
		Title(message).
		Affirmative("Sim").
		Negative("Não").
		Value(&confirmed)

	if err := h.run(confirm); err != nil {
		return false, err
	}
	return confirmed, nil
}

// Select displays a selection prompt and returns the chosen value.
func (h HuhPrompter) Select(message string, options []Option) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options provided")
	}

	huhOptions := make([]huh.Option[string], len(options))
	for i, opt := range options {
		huhOptions[i] = huh.NewOption(opt.Label, opt.Value)
	}

	selected := options[0].Value
	field := huh.NewSelect[string]().
		Title(message).
		Options(huhOptions...).
		Value(&selected)

	if err := h.run(field); err != nil {
		return "", err
	}
	return selected, nil
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("campo obrigatório")
	}
	return nil
}

// ErrNoTerminal is returned by NoPrompter.
var ErrNoTerminal = fmt.Errorf("input required but no terminal is attached")

// NoPrompter fails every prompt. Commands use it when ShouldPrompt is false,
// so missing flags become errors instead of hanging on stdin.
type NoPrompter struct{}

func (NoPrompter) String(Prompt) (string, error)           { return "", ErrNoTerminal }
func (NoPrompter) Password(string) (string, error)         { return "", ErrNoTerminal }
func (NoPrompter) Confirm(string, bool) (bool, error)      { return false, ErrNoTerminal }
func (NoPrompter) Select(string, []Option) (string, error) { return "", ErrNoTerminal }

// NewPrompter returns a HuhPrompter when prompting is possible and a
// NoPrompter otherwise.
func NewPrompter() Prompter {
	if ShouldPrompt() {
		return HuhPrompter{Accessible: os.Getenv("ACCESSIBLE") != ""}
	}
	return NoPrompter{}
}

// IsInteractive returns true if stdin and stdout are terminals
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

// ShouldPrompt returns true if prompts should be shown based on environment
// Prompts are disabled in CI environments or when stdin is not a terminal
func ShouldPrompt() bool {
	ciEnvVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"BUILDKITE",
	}

	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return false
		}
	}

	return IsInteractive()
}

var (
	_ Prompter = HuhPrompter{}
	_ Prompter = NoPrompter{}
)

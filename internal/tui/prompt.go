package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// NoPromptEnv disables interactive prompts when set to any value.
const NoPromptEnv = "REPUBLIC_NO_PROMPT"

// ErrAborted is returned when the user leaves a prompt with ctrl+c or esc.
var ErrAborted = errors.New("prompt aborted")

// Field is one text input. Value carries the default in and the answer out.
type Field struct {
	Title       string
	Placeholder string
	Secret      bool
	Required    bool
	Value       *string
}

func (f Field) input() *huh.Input {
	in := huh.NewInput().
		Title(f.Title).
		Placeholder(f.Placeholder).
		Value(f.Value)
	if f.Secret {
		in = in.EchoMode(huh.EchoModePassword)
	}
	if f.Required {
		in = in.Validate(notBlank(f.Title))
	}
	return in
}

// notBlank keeps a required field open until something is typed.
func notBlank(title string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", strings.ToLower(title))
		}
		return nil
	}
}

func newForm(fields ...huh.Field) *huh.Form {
	return huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(false)
}

func inputs(fields []Field) []huh.Field {
	out := make([]huh.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.input())
	}
	return out
}

// LoginFields are the sign-in inputs shared by the TUI and 'republic login'.
func LoginFields(email, password *string) []Field {
	return []Field{
		{Title: "Email", Placeholder: "you@example.com", Value: email},
		{Title: "Password", Secret: true, Value: password},
	}
}

// Ask shows fields on one screen and fills in their values.
func Ask(fields ...Field) error {
	return run(newForm(inputs(fields)...))
}

// Confirm asks a yes/no question.
func Confirm(title string, def bool) (bool, error) {
	ok := def
	err := run(newForm(huh.NewConfirm().Title(title).Value(&ok)))
	return ok, err
}

// Choose asks for one of options.
func Choose(title string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options to choose from")
	}
	var picked string
	err := run(newForm(huh.NewSelect[string]().
		Title(title).
		Options(huh.NewOptions(options...)...).
		Value(&picked)))
	return picked, err
}

func run(form *huh.Form) error {
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

// ShouldPrompt reports whether the CLI may ask questions. It may not under
// CI, when NoPromptEnv is set, or when stdin is not a terminal.
func ShouldPrompt() bool {
	for _, env := range []string{NoPromptEnv, "CI", "GITHUB_ACTIONS", "GITLAB_CI", "BUILDKITE"} {
		if os.Getenv(env) != "" {
			return false
		}
	}
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

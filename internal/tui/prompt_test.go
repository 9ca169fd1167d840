package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldPromptOptOut(t *testing.T) {
	for _, env := range []string{NoPromptEnv, "CI", "GITHUB_ACTIONS"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, "1")
			assert.False(t, ShouldPrompt())
		})
	}
}

func TestNotBlank(t *testing.T) {
	check := notBlank("Email")
	assert.EqualError(t, check("  "), "email is required")
	assert.NoError(t, check("m@republic.test"))
}

func TestFieldInputKeepsValue(t *testing.T) {
	email := "m@republic.test"
	in := Field{Title: "Email", Required: true, Value: &email}.input()
	require.NotNil(t, in)
	assert.Equal(t, "m@republic.test", in.GetValue())
	assert.NoError(t, in.Error())
}

func TestChooseWithoutOptions(t *testing.T) {
	_, err := Choose("Register as", nil)
	assert.Error(t, err)
}

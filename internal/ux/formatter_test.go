package ux

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collective struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Category *string `json:"category,omitempty"`
}

func format(t *testing.T, name string, data any) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	f, err := NewFormatter(name, &buf)
	require.NoError(t, err)
	err = f.Format(data)
	return buf.String(), err
}

func TestNewFormatter(t *testing.T) {
	for _, name := range append([]string{""}, Formats...) {
		_, err := NewFormatter(name, &bytes.Buffer{})
		assert.NoError(t, err, name)
	}
	_, err := NewFormatter("xml", &bytes.Buffer{})
	assert.Error(t, err)

	assert.True(t, ValidFormat("yaml"))
	assert.False(t, ValidFormat(""))
}

func TestJSONFormatter(t *testing.T) {
	out, err := format(t, FormatJSON, collective{ID: 1, Name: "Texas Freelancers"})
	require.NoError(t, err)

	var got collective
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Texas Freelancers", got.Name)
	assert.Contains(t, out, "\n  \"name\"")
}

func TestYAMLFormatter(t *testing.T) {
	out, err := format(t, FormatYAML, collective{ID: 1, Name: "true"})
	require.NoError(t, err)
	assert.Equal(t, "id: 1\nname: \"true\"\n", out)

	category := "freelancers"
	out, err = format(t, FormatYAML, []collective{{ID: 2, Name: "Austin Makers", Category: &category}})
	require.NoError(t, err)
	assert.Contains(t, out, "- id: 2")
	assert.Contains(t, out, "category: freelancers")
	assert.NotContains(t, out, "{", "block style expected")
}

func TestTextFormatter(t *testing.T) {
	out, err := format(t, FormatText, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)

	out, err = format(t, "", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", out)

	_, err = format(t, FormatText, collective{ID: 1})
	assert.ErrorContains(t, err, "--format json")
}

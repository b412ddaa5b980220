package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Welcome(t *testing.T) {
	data := NewEmailData("Tasks", "ACME", "https://help.example.com", "Ann", "ann@example.com", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))

	subject, text, html, err := Render(Welcome, data)
	require.NoError(t, err)

	assert.Equal(t, "Welcome to Tasks, Ann!", subject)
	assert.Contains(t, text, "ann@example.com")
	assert.Contains(t, text, "01 March 2024, 10:00 UTC")
	assert.Contains(t, html, `href="https://help.example.com"`)
}

func TestRender_CancellationDefaultsAppName(t *testing.T) {
	data := NewEmailData("", "ACME", "", "<Bob>", "bob@example.com", time.Now())

	subject, text, html, err := Render(Cancellation, data)
	require.NoError(t, err)

	assert.Equal(t, "Sorry to see you go, <Bob>", subject)
	assert.Contains(t, text, "Task Manager")
	assert.Contains(t, html, "&lt;Bob&gt;")
	assert.NotContains(t, html, "Tell us")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, _, _, err := Render("nope", map[string]any{})
	assert.Error(t, err)
}

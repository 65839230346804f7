package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
)

func TestNewPromptInput(t *testing.T) {
	s := styles.DefaultStyles()
	input := NewPromptInput(s)

	require.NotNil(t, input)
	assert.Equal(t, "", input.Value())
	assert.True(t, input.Focused())
}

func TestNewPromptInput_NilStyles(t *testing.T) {
	input := NewPromptInput(nil)

	require.NotNil(t, input)
	assert.NotNil(t, input.styles)
}

func TestPromptInput_Init(t *testing.T) {
	input := NewPromptInput(nil)

	cmd := input.Init()

	// Blink command should be returned
	assert.NotNil(t, cmd)
}

func TestPromptInput_Update(t *testing.T) {
	input := NewPromptInput(nil)

	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}}
	updated, cmd := input.Update(msg)

	assert.Equal(t, input, updated)
	// textinput returns nil cmd for regular key presses
	_ = cmd
	assert.Equal(t, "a", input.Value())
}

func TestPromptInput_View(t *testing.T) {
	input := NewPromptInput(nil)

	view := input.View()

	assert.NotEmpty(t, view)
	assert.Contains(t, view, "Ask")
}

func TestPromptInput_Value(t *testing.T) {
	input := NewPromptInput(nil)

	input.SetValue("test query")

	assert.Equal(t, "test query", input.Value())
}

func TestPromptInput_SetValue(t *testing.T) {
	input := NewPromptInput(nil)

	input.SetValue("hello world")

	assert.Equal(t, "hello world", input.Value())
}

func TestPromptInput_Focus(t *testing.T) {
	input := NewPromptInput(nil)
	input.Blur()

	assert.False(t, input.Focused())

	cmd := input.Focus()

	assert.NotNil(t, cmd)
	assert.True(t, input.Focused())
}

func TestPromptInput_Blur(t *testing.T) {
	input := NewPromptInput(nil)

	assert.True(t, input.Focused())

	input.Blur()

	assert.False(t, input.Focused())
}

func TestPromptInput_Focused(t *testing.T) {
	input := NewPromptInput(nil)

	assert.True(t, input.Focused())

	input.Blur()
	assert.False(t, input.Focused())
}

func TestPromptInput_SetWidth(t *testing.T) {
	input := NewPromptInput(nil)

	input.SetWidth(100)

	assert.Equal(t, 100, input.Width())
}

func TestPromptInput_SetWidth_Minimum(t *testing.T) {
	input := NewPromptInput(nil)

	input.SetWidth(10) // Very small, should use minimum

	assert.Equal(t, 10, input.Width())
	// Internal textinput width should be at least 20
}

func TestPromptInput_Width(t *testing.T) {
	input := NewPromptInput(nil)

	assert.Equal(t, 50, input.Width()) // Default width
}

func TestPromptInput_Reset(t *testing.T) {
	input := NewPromptInput(nil)
	input.SetValue("some text")

	input.Reset()

	assert.Equal(t, "", input.Value())
}

func TestPromptInput_Update_MultipleKeys(t *testing.T) {
	input := NewPromptInput(nil)

	keys := []rune{'h', 'e', 'l', 'l', 'o'}
	for _, k := range keys {
		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{k}}
		input.Update(msg)
	}

	assert.Equal(t, "hello", input.Value())
}

func TestPromptInput_Update_Backspace(t *testing.T) {
	input := NewPromptInput(nil)
	input.SetValue("test")

	msg := tea.KeyMsg{Type: tea.KeyBackspace}
	input.Update(msg)

	assert.Equal(t, "tes", input.Value())
}

func TestPromptInput_SetLabel(t *testing.T) {
	input := NewPromptInput(nil)
	assert.Equal(t, DefaultLabel, input.Label())

	input.SetLabel("Retrieve")

	assert.Equal(t, "Retrieve", input.Label())
	assert.Contains(t, input.View(), "Retrieve")
}

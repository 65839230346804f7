package doccontent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// MockDocumentService implements driving.DocumentService for testing.
type MockDocumentService struct {
	ContentFunc func(ctx context.Context, documentID string) (string, error)
}

func (m *MockDocumentService) List(context.Context) ([]domain.Document, error) { return nil, nil }

func (m *MockDocumentService) Get(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *MockDocumentService) Pages(context.Context, string) ([]domain.Page, error) { return nil, nil }

func (m *MockDocumentService) Content(ctx context.Context, documentID string) (string, error) {
	if m.ContentFunc != nil {
		return m.ContentFunc(ctx, documentID)
	}
	return "", nil
}

func (m *MockDocumentService) Delete(context.Context, string) error { return nil }

func numberedLines(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	return strings.Join(lines, "\n")
}

// viewWithContent returns a 20-line high view showing content.
func viewWithContent(content string) *View {
	v := NewView(styles.DefaultStyles(), &MockDocumentService{})
	v.SetDimensions(80, 20)
	v.document = &domain.Document{ID: "doc-1", Filename: "report.pdf"}
	v.Update(messages.DocumentContentLoaded{DocumentID: "doc-1", Content: content})
	return v
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil)

	require.NotNil(t, v)
	assert.NotNil(t, v.styles)
	assert.Nil(t, v.Document())
	assert.Nil(t, v.Init())
}

func TestView_View_NarrowWidth(t *testing.T) {
	for _, width := range []int{0, 3, 4, 5} {
		v := NewView(nil, nil)
		v.SetDimensions(width, 10)
		assert.NotPanics(t, func() { _ = v.View() }, "width %d", width)
	}
}

func TestView_SetDocument_LoadsContent(t *testing.T) {
	svc := &MockDocumentService{ContentFunc: func(_ context.Context, id string) (string, error) {
		return "content of " + id, nil
	}}
	v := NewView(nil, svc)
	v.SetDimensions(80, 20)

	cmd := v.SetDocument(&domain.Document{ID: "doc-1", Filename: "report.pdf"})
	require.NotNil(t, cmd)
	assert.Contains(t, v.View(), "Loading content")

	v.Update(cmd())

	assert.Equal(t, "content of doc-1", v.Content())
	view := v.View()
	assert.Contains(t, view, "report.pdf")
	assert.Contains(t, view, "content of doc-1")
}

func TestView_LoadContent_Errors(t *testing.T) {
	tests := []struct {
		name string
		svc  *MockDocumentService
		doc  *domain.Document
		want error
	}{
		{"no document", &MockDocumentService{}, nil, domain.ErrNotFound},
		{"no service", nil, &domain.Document{ID: "doc-1"}, ErrNoDocumentService},
		{
			"service error",
			&MockDocumentService{ContentFunc: func(context.Context, string) (string, error) {
				return "", domain.ErrNotFound
			}},
			&domain.Document{ID: "doc-1"},
			domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v *View
			if tt.svc == nil {
				v = NewView(nil, nil)
			} else {
				v = NewView(nil, tt.svc)
			}
			v.SetDimensions(80, 20)

			v.Update(v.SetDocument(tt.doc)())

			assert.ErrorIs(t, v.Err(), tt.want)
			assert.Contains(t, v.View(), "Error:")
		})
	}
}

func TestView_Update_ErrorOccurred(t *testing.T) {
	v := viewWithContent("text")

	v.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, v.Err(), "boom")
}

func TestView_View_EmptyContent(t *testing.T) {
	v := viewWithContent("")

	assert.Contains(t, v.View(), "(No content)")
}

func TestView_View_FallsBackToID(t *testing.T) {
	v := viewWithContent("text")
	v.document.Filename = ""

	assert.Contains(t, v.View(), "doc-1")
}

func TestView_Scroll(t *testing.T) {
	v := viewWithContent(numberedLines(50))
	visible := v.visibleLines()
	require.Equal(t, 14, visible)

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 2, v.scrollOffset)

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 1, v.scrollOffset)

	v.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 1+visible, v.scrollOffset)

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	assert.Equal(t, 1, v.scrollOffset)

	v.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, 0, v.scrollOffset, "clamped at the top")

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'G'}})
	assert.Equal(t, v.maxScrollOffset(), v.scrollOffset)

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.Equal(t, v.maxScrollOffset(), v.scrollOffset, "clamped at the bottom")

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, v.maxScrollOffset(), v.scrollOffset)

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}})
	assert.Equal(t, 0, v.scrollOffset)
}

func TestView_View_ScrollIndicator(t *testing.T) {
	v := viewWithContent(numberedLines(50))

	assert.Contains(t, v.View(), "[0%] Line 1-14 of 50")

	v.Update(tea.KeyMsg{Type: tea.KeyEnd})
	assert.Contains(t, v.View(), "[100%] Line 37-50 of 50")
}

func TestView_View_NoIndicatorWhenContentFits(t *testing.T) {
	v := viewWithContent(numberedLines(3))

	assert.NotContains(t, v.View(), "Line 1-")
	assert.Equal(t, 0, v.maxScrollOffset())
}

func TestView_WrapContent(t *testing.T) {
	v := viewWithContent(strings.Repeat("a", 200))

	// 76 columns of text per line at width 80.
	require.Len(t, v.lines, 3)
	assert.Len(t, v.lines[0], 76)
	assert.Len(t, v.lines[2], 48)
}

func TestView_WrapContent_MinimumWidth(t *testing.T) {
	v := viewWithContent(strings.Repeat("a", 45))

	v.SetDimensions(10, 20)

	require.Len(t, v.lines, 3)
	assert.Len(t, v.lines[0], 20)
}

func TestView_VisibleLines_Minimum(t *testing.T) {
	v := viewWithContent("x")
	v.SetDimensions(80, 2)

	assert.Equal(t, 1, v.visibleLines())
}

func TestView_Update_KeyMsg_Back(t *testing.T) {
	v := viewWithContent("x")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewDocuments}, cmd())
}

func TestView_Update_WindowSize_Rewraps(t *testing.T) {
	v := viewWithContent(strings.Repeat("a", 100))
	require.Len(t, v.lines, 2)

	v.Update(tea.WindowSizeMsg{Width: 200, Height: 20})

	assert.Len(t, v.lines, 1)
}

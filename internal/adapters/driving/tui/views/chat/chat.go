// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// HistoryLimit is the number of stored messages shown when the view opens.
const HistoryLimit = 50

// Speaker labels used in the transcript.
const (
	SpeakerUser      = "user"
	SpeakerAssistant = "assistant"
	SpeakerContext   = "context"
	SpeakerError     = "error"
)

// Entry is one line of the transcript.
type Entry struct {
	Speaker string
	Text    string
}

// View shows the transcript above a question input and the cited sources.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.PromptInput
	sources   *list.SourceList
	statusbar *status.Bar

	chat      driving.ChatService
	retrieval driving.RetrievalService
	ctx       context.Context

	transcript   []Entry
	width        int
	height       int
	ready        bool
	err          error
	focusInput   bool
	retrieveOnly bool
	pending      bool
}

// NewView creates a new chat view.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	chat driving.ChatService,
	retrieval driving.RetrievalService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:     s,
		keymap:     km,
		input:      input.NewPromptInput(s),
		sources:    list.NewSourceList(s),
		statusbar:  status.NewBar(s, km),
		chat:       chat,
		retrieval:  retrieval,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
	v.statusbar.SetMode("ask")
	return v
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init focuses the input and loads the stored conversation.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.loadHistory())
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.HistoryLoaded:
		v.handleHistoryLoaded(msg)
		return v, nil

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ContextRetrieved:
		v.handleContext(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.pending = false
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if !v.focusInput {
			v.focusSources(false)
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case "ctrl+r":
		v.ToggleMode()
		return v, nil

	case "tab":
		if v.sources.Count() > 0 {
			v.focusSources(v.focusInput)
		}
		return v, nil

	case "enter":
		if v.focusInput {
			return v, v.submit()
		}
		return v, nil
	}

	if !v.focusInput {
		v.sources, _ = v.sources.Update(msg)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) focusSources(on bool) {
	v.focusInput = !on
	if on {
		v.input.Blur()
		return
	}
	v.input.Focus()
}

// submit sends the typed question unless one is already being answered.
func (v *View) submit() tea.Cmd {
	question := strings.TrimSpace(v.input.Value())
	if question == "" || v.pending {
		return nil
	}

	v.transcript = append(v.transcript, Entry{Speaker: SpeakerUser, Text: question})
	v.input.Reset()
	v.pending = true
	v.err = nil
	v.statusbar.SetState(status.StateThinking)
	v.statusbar.SetMessage("")

	if v.retrieveOnly {
		return v.retrieve(question)
	}
	return v.ask(question)
}

func (v *View) ask(question string) tea.Cmd {
	chat, ctx := v.chat, v.ctx
	return func() tea.Msg {
		if chat == nil {
			return messages.ErrorOccurred{Err: ErrNoChatService}
		}
		answer, err := chat.Ask(ctx, question, domain.AskOptions{Remember: true})
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

func (v *View) retrieve(question string) tea.Cmd {
	retrieval, ctx := v.retrieval, v.ctx
	return func() tea.Msg {
		if retrieval == nil {
			return messages.ErrorOccurred{Err: ErrNoRetrievalService}
		}
		rc, err := retrieval.Query(ctx, question, domain.QueryOptions{})
		return messages.ContextRetrieved{Question: question, Context: rc, Err: err}
	}
}

func (v *View) loadHistory() tea.Cmd {
	chat, ctx := v.chat, v.ctx
	if chat == nil {
		return nil
	}
	return func() tea.Msg {
		msgs, err := chat.History(ctx, HistoryLimit)
		return messages.HistoryLoaded{Messages: msgs, Err: err}
	}
}

func (v *View) handleHistoryLoaded(msg messages.HistoryLoaded) {
	if msg.Err != nil {
		v.statusbar.SetMessage("history: " + msg.Err.Error())
		return
	}
	loaded := make([]Entry, 0, len(msg.Messages)+len(v.transcript))
	for _, m := range msg.Messages {
		speaker := SpeakerAssistant
		if m.Sender == domain.SenderUser {
			speaker = SpeakerUser
		}
		loaded = append(loaded, Entry{Speaker: speaker, Text: m.Content})
	}
	v.transcript = append(loaded, v.transcript...)
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.pending = false
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}
	if msg.Answer == nil {
		return
	}

	text := msg.Answer.Response
	if !msg.Answer.Grounded {
		text += "\n(No indexed document matched; answered from general knowledge.)"
	}
	v.transcript = append(v.transcript, Entry{Speaker: SpeakerAssistant, Text: text})
	v.showSources(msg.Answer.Sources)
}

func (v *View) handleContext(msg messages.ContextRetrieved) {
	v.pending = false
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}
	if msg.Context == nil || msg.Context.IsEmpty() {
		v.transcript = append(v.transcript, Entry{Speaker: SpeakerContext, Text: "No matching passages."})
		v.showSources(nil)
		return
	}
	v.transcript = append(v.transcript, Entry{Speaker: SpeakerContext, Text: msg.Context.Context})
	v.showSources(msg.Context.Sources)
}

func (v *View) showSources(sources []domain.Source) {
	v.err = nil
	v.sources.SetSources(sources)
	v.statusbar.SetState(status.StateAnswer)
	v.statusbar.SetSourceCount(len(sources))
}

func (v *View) setError(err error) {
	v.err = err
	v.transcript = append(v.transcript, Entry{Speaker: SpeakerError, Text: err.Error()})
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// ToggleMode switches between generated answers and retrieved passages.
func (v *View) ToggleMode() {
	v.retrieveOnly = !v.retrieveOnly
	if v.retrieveOnly {
		v.input.SetLabel("Retrieve")
		v.statusbar.SetMode("retrieve")
		return
	}
	v.input.SetLabel(input.DefaultLabel)
	v.statusbar.SetMode("ask")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render("ragcore"), "")
	sections = append(sections, v.renderTranscript(v.transcriptHeight()), "")
	sections = append(sections, v.input.View(), "")
	if v.sources.Count() > 0 {
		sections = append(sections, v.sources.View(), "")
	}
	sections = append(sections, v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTranscript renders the most recent entries that fit in height lines.
func (v *View) renderTranscript(height int) string {
	if len(v.transcript) == 0 {
		return v.styles.Muted.Render("Ask a question about your documents.")
	}

	body := lipgloss.NewStyle().Width(max(v.width-2, 20))
	var lines []string
	for i := len(v.transcript) - 1; i >= 0; i-- {
		rendered := strings.Split(v.renderEntry(body, v.transcript[i]), "\n")
		if len(lines) > 0 && len(lines)+len(rendered) > height {
			break
		}
		lines = append(rendered, lines...)
	}
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	return strings.Join(lines, "\n")
}

func (v *View) renderEntry(body lipgloss.Style, e Entry) string {
	var label string
	switch e.Speaker {
	case SpeakerUser:
		label = v.styles.User.Render("You")
	case SpeakerAssistant:
		label = v.styles.Assistant.Render("Assistant")
	case SpeakerContext:
		label = v.styles.Citation.Render("Context")
	default:
		label = v.styles.Error.Render("Error")
	}
	return fmt.Sprintf("%s\n%s", label, body.Render(e.Text))
}

func (v *View) transcriptHeight() int {
	reserved := 8
	if v.sources.Count() > 0 {
		reserved += 2 + 2*v.sources.Count()
	}
	return max(v.height-reserved, 3)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.sources.SetDimensions(width, height/3)
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Transcript returns the conversation shown so far.
func (v *View) Transcript() []Entry {
	return v.transcript
}

// Sources returns the sources cited by the last reply.
func (v *View) Sources() []domain.Source {
	return v.sources.Sources()
}

// Question returns the text typed so far.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion replaces the typed text.
func (v *View) SetQuestion(q string) {
	v.input.SetValue(q)
}

// RetrieveOnly reports whether questions return passages instead of answers.
func (v *View) RetrieveOnly() bool {
	return v.retrieveOnly
}

// Pending reports whether a question is being answered.
func (v *View) Pending() bool {
	return v.pending
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}

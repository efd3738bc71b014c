package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

type viewType int

const (
	viewSearch viewType = iota
	viewResults
	viewReader
)

// modeCycle is the order tab steps through. The empty mode defers to the
// configured default.
var modeCycle = []domain.SearchMode{"", domain.SearchModeText, domain.SearchModeVector, domain.SearchModeHybrid}

const (
	defaultWidth  = 80
	defaultHeight = 24
	snippetRunes  = 140
)

// App is the TUI model.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles Styles
	keys   KeyMap

	input   textinput.Model
	spinner spinner.Model
	reader  viewport.Model
	help    help.Model

	view      viewType
	mode      int
	searching bool
	query     string
	response  domain.RetrievalResponse
	selected  int
	title     string
	err       error

	width  int
	height int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the TUI model.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := DefaultStyles()

	ti := textinput.New()
	ti.Placeholder = "Ask the knowledge base..."
	ti.Prompt = "› "
	ti.CharLimit = 500
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Subtitle))

	a := &App{
		ports:   ports,
		ctx:     context.Background(),
		styles:  s,
		keys:    DefaultKeyMap(),
		input:   ti,
		spinner: sp,
		reader:  viewport.New(defaultWidth, defaultHeight-4),
		help:    help.New(),
	}
	a.resize(defaultWidth, defaultHeight)
	return a, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Run starts the program in the alternate screen and blocks until it exits.
func (a *App) Run(ctx context.Context) error {
	a.ctx = ctx
	_, err := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, a.keys.Quit) {
			return a, tea.Quit
		}
		switch a.view {
		case viewResults:
			return a.updateResults(msg)
		case viewReader:
			return a.updateReader(msg)
		default:
			return a.updateSearch(msg)
		}

	case searchDoneMsg:
		a.searching = false
		a.query = msg.query
		a.response = msg.response
		a.selected = 0
		if !msg.response.Success {
			a.err = errors.New(msg.response.Error)
			return a, nil
		}
		a.err = nil
		a.view = viewResults
		a.input.Blur()
		return a, nil

	case contentLoadedMsg:
		if msg.err != nil {
			a.err = fmt.Errorf("loading %s: %w", msg.id, msg.err)
			return a, nil
		}
		a.err = nil
		a.showReader(msg.title, msg.content)
		return a, nil

	case spinner.TickMsg:
		if !a.searching {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	if a.view == viewSearch {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Submit):
		if a.searching {
			return a, nil
		}
		query := strings.TrimSpace(a.input.Value())
		if query == "" {
			a.err = errors.New(domain.NoQueryMessage)
			return a, nil
		}
		a.err = nil
		a.searching = true
		return a, tea.Batch(a.search(query), a.spinner.Tick)

	case key.Matches(msg, a.keys.CycleMode):
		a.mode = (a.mode + 1) % len(modeCycle)
		return a, nil

	case key.Matches(msg, a.keys.Back):
		if len(a.response.Results) > 0 {
			a.view = viewResults
			a.input.Blur()
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	results := a.response.Results

	switch {
	case key.Matches(msg, a.keys.Up):
		if a.selected > 0 {
			a.selected--
		}
	case key.Matches(msg, a.keys.Down):
		if a.selected < len(results)-1 {
			a.selected++
		}
	case key.Matches(msg, a.keys.Open):
		if len(results) > 0 {
			return a, a.open(results[a.selected])
		}
	case key.Matches(msg, a.keys.Context):
		if a.response.Context != "" {
			a.showReader(fmt.Sprintf("Context for %q", a.query), a.response.Context)
		}
	case key.Matches(msg, a.keys.NewSearch), key.Matches(msg, a.keys.Back):
		a.view = viewSearch
		a.err = nil
		return a, a.input.Focus()
	}
	return a, nil
}

func (a *App) updateReader(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.Back) {
		a.view = viewResults
		return a, nil
	}
	var cmd tea.Cmd
	a.reader, cmd = a.reader.Update(msg)
	return a, cmd
}

// search runs the query with the current mode and reports a searchDoneMsg.
func (a *App) search(query string) tea.Cmd {
	ctx := a.ctx
	retrieval := a.ports.Retrieval
	req := domain.RetrievalRequest{
		Query: query,
		Limit: domain.MaxRetrievalLimit,
		Mode:  modeCycle[a.mode],
	}
	return func() tea.Msg {
		return searchDoneMsg{query: query, response: retrieval.Query(ctx, req)}
	}
}

// open loads the full document, or shows the excerpt without a document port.
func (a *App) open(rec domain.RetrievalRecord) tea.Cmd {
	ctx := a.ctx
	docs := a.ports.Document
	return func() tea.Msg {
		if docs == nil {
			return contentLoadedMsg{id: rec.ID, title: rec.Title, content: rec.Content}
		}
		content, err := docs.GetContent(ctx, rec.ID)
		return contentLoadedMsg{id: rec.ID, title: rec.Title, content: content, err: err}
	}
}

func (a *App) showReader(title, content string) {
	a.title = title
	a.reader.SetContent(lipgloss.NewStyle().Width(a.reader.Width).Render(content))
	a.reader.GotoTop()
	a.view = viewReader
}

func (a *App) resize(w, h int) {
	a.width, a.height = w, h
	a.input.Width = max(w-8, 10)
	a.reader.Width = w
	a.reader.Height = max(h-5, 1)
	a.help.Width = w
}

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.header())
	b.WriteString("\n\n")

	switch a.view {
	case viewResults:
		b.WriteString(a.resultsView())
		b.WriteString("\n")
		b.WriteString(a.help.ShortHelpView(a.keys.resultsHelp()))
	case viewReader:
		b.WriteString(a.styles.Subtitle.Render(a.title))
		b.WriteString("\n")
		b.WriteString(a.reader.View())
		b.WriteString("\n")
		b.WriteString(a.styles.Status.Render(fmt.Sprintf("%3.f%%", a.reader.ScrollPercent()*100)))
		b.WriteString("  ")
		b.WriteString(a.help.ShortHelpView(a.keys.readerHelp()))
	default:
		b.WriteString(a.styles.Input.Render(a.input.View()))
		b.WriteString("\n")
		if a.searching {
			b.WriteString(a.spinner.View() + " Searching...\n")
		}
		if a.err != nil {
			b.WriteString(a.styles.Error.Render(a.err.Error()) + "\n")
		}
		b.WriteString("\n")
		b.WriteString(a.help.View(a.keys))
	}

	return b.String()
}

func (a *App) header() string {
	mode := modeCycle[a.mode].String()
	if mode == "" {
		mode = "default"
	}
	return a.styles.Title.Render("aloha") + a.styles.Muted.Render(" · mode: "+mode)
}

func (a *App) resultsView() string {
	var b strings.Builder

	b.WriteString(a.styles.Muted.Render(a.response.Message))
	b.WriteString("\n\n")

	if a.err != nil {
		b.WriteString(a.styles.Error.Render(a.err.Error()) + "\n\n")
	}

	for i, r := range a.response.Results {
		cursor := "  "
		title := a.styles.Normal.Render(r.Title)
		if i == a.selected {
			cursor = a.styles.Selected.Render("› ")
			title = a.styles.Selected.Render(r.Title)
		}

		line := cursor + title
		if r.Similarity != nil {
			line += " " + a.styles.Score.Render(fmt.Sprintf("%.2f", *r.Similarity))
		}
		b.WriteString(line + "\n")

		meta := fmt.Sprintf("    %s · %s · %s", r.Source, r.SourceType, r.CreatedAt.Format("2006-01-02"))
		b.WriteString(a.styles.Muted.Render(meta) + "\n")
		if s := snippet(r.Content); s != "" {
			b.WriteString("    " + s + "\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if runes := []rune(text); len(runes) > snippetRunes {
		return string(runes[:snippetRunes]) + "…"
	}
	return text
}

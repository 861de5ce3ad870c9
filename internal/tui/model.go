package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/reaper/internal/model"
	"github.com/verte-zerg/reaper/internal/reaper"
	"github.com/verte-zerg/reaper/internal/store"
)

type tickMsg time.Time

type autosaveMsg time.Time

// Model implements the Bubble Tea writing UI.
type Model struct {
	config model.Config
	store  *store.Store
	logger *slog.Logger
	engine *reaper.Engine
	now    func() time.Time

	prompt string

	width  int
	height int

	text  []rune
	dirty bool

	sess   session
	bar    progress.Model
	notice string
}

var (
	textStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	warningTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Underline(true)
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cursorStyle      = pendingStyle.Copy().Blink(true)
	promptStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Italic(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	badgeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#0F0F0F")).Padding(0, 1)
	deadStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
)

var statusColors = map[reaper.Status]string{
	reaper.StatusSafe:     "#52C41A",
	reaper.StatusWarning:  "#FAAD14",
	reaper.StatusCritical: "#FF4D4F",
	reaper.StatusDead:     "#5C0011",
	reaper.StatusMockery:  "#B37FEB",
	reaper.StatusAscended: "#36CFC9",
}

// NewModel constructs a writing TUI model. A non-empty draft is restored
// as the starting text; the engine stays idle until the first keystroke.
func NewModel(cfg model.Config, st *store.Store, logger *slog.Logger, prompt, draft string) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Model{
		config: cfg,
		store:  st,
		logger: logger,
		engine: reaper.New(reaper.Options{Goal: cfg.Goal, Zen: cfg.Zen}),
		now:    time.Now,
		prompt: prompt,
		text:   []rune(draft),
		sess:   newSession(),
		bar:    progress.New(progress.WithSolidFill(statusColors[reaper.StatusSafe]), progress.WithoutPercentage()),
	}
	m.engine.SetWordCount(reaper.CountWords(draft))
	if draft != "" {
		m.notice = "draft restored"
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tick()}
	if cmd := m.autosave(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func tick() tea.Cmd {
	return tea.Tick(reaper.TickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) autosave() tea.Cmd {
	if m.config.AutosaveSeconds <= 0 {
		return nil
	}
	return tea.Tick(time.Duration(m.config.AutosaveSeconds)*time.Second, func(t time.Time) tea.Msg {
		return autosaveMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = m.contentWidth()
		return m, nil
	case tickMsg:
		m.engine.Advance(time.Time(msg))
		m.consume()
		return m, tick()
	case autosaveMsg:
		m.saveDraft()
		return m, m.autosave()
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.finish()
			return m, tea.Quit
		case tea.KeyCtrlR:
			m.revive()
			return m, nil
		case tea.KeyCtrlT:
			m.toggleZen()
			return m, nil
		case tea.KeyBackspace, tea.KeyDelete:
			m.handleBackspace()
			return m, nil
		case tea.KeySpace:
			m.handleRunes([]rune{' '})
			return m, nil
		case tea.KeyEnter:
			m.handleRunes([]rune{'\n'})
			return m, nil
		case tea.KeyRunes:
			m.handleRunes(msg.Runes)
			return m, nil
		default:
			return m, nil
		}
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	state := m.engine.State()
	body := m.renderBody(state)
	if m.width == 0 || m.height == 0 {
		return body
	}
	width := m.contentWidth()
	m.bar.FullColor = statusColors[state.Status]
	parts := make([]string, 0, 4)
	if m.prompt != "" {
		parts = append(parts, promptStyle.Width(width).Render(m.prompt), "")
	}
	parts = append(parts, lipgloss.NewStyle().Width(width).Render(body), "", m.bar.ViewAs(state.Progress()/100))
	content := lipgloss.JoinVertical(lipgloss.Left, parts...)
	footer := m.renderFooter(state)
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	page := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return page + "\n" + footerLine
}

func (m *Model) contentWidth() int {
	width := int(float64(m.width) * 0.70)
	if width < 1 {
		width = 1
	}
	return width
}

func (m *Model) renderBody(state reaper.State) string {
	if state.Status == reaper.StatusDead {
		return deadStyle.Render("The reaper took your words.") + "\n" + footerStyle.Render("ctrl+r to begin again · ctrl+c to quit")
	}
	warnFrom := -1
	if state.WarningText {
		warnFrom = lastWordStart(m.text)
	}
	runes := buildStyledRunes(m.text, warnFrom, true)
	if m.width == 0 {
		return renderStyledRunes(runes)
	}
	wrapped := wrapStyledRunes(runes, m.contentWidth())
	// prompt, spacer, progress bar and footer
	return tailLines(wrapped, m.height-6)
}

func (m *Model) renderFooter(state reaper.State) string {
	segments := []string{
		string(state.Status),
		fmt.Sprintf("%.1fs", state.TimeLeft.Seconds()),
	}
	if state.Goal > 0 {
		segments = append(segments, fmt.Sprintf("%d/%d words", state.Words, state.Goal))
	} else {
		segments = append(segments, fmt.Sprintf("%d words", state.Words))
	}
	footer := footerStyle.Render(strings.Join(segments, "  "))
	if state.FlowActive {
		footer += " " + badgeStyle.Background(lipgloss.Color("#36CFC9")).Render("FLOW")
	}
	if state.GhostTyping {
		footer += " " + badgeStyle.Background(lipgloss.Color("#8C8C8C")).Render("GHOST")
	}
	if state.Zen {
		footer += " " + badgeStyle.Background(lipgloss.Color("#597EF7")).Render("ZEN")
	}
	if m.notice != "" {
		footer += "  " + footerStyle.Render(m.notice)
	}
	return footer
}

func (m *Model) dead() bool {
	return m.engine.State().Status == reaper.StatusDead
}

func (m *Model) handleRunes(runes []rune) {
	if m.dead() || len(runes) == 0 {
		return
	}
	m.text = append(m.text, runes...)
	m.stroke()
}

func (m *Model) handleBackspace() {
	if m.dead() {
		return
	}
	// Nothing to delete: the text is unchanged, so it is not a keystroke.
	if len(m.text) == 0 {
		return
	}
	m.text = m.text[:len(m.text)-1]
	m.stroke()
}

func (m *Model) stroke() {
	text := string(m.text)
	m.engine.SetWordCount(reaper.CountWords(text))
	m.engine.Stroke(m.now(), text)
	m.dirty = true
	m.notice = ""
	m.consume()
}

func (m *Model) toggleZen() {
	on := !m.engine.State().Zen
	m.engine.SetZen(m.now(), on)
	m.consume()
	m.logger.Debug("zen toggled", "on", on)
}

func (m *Model) revive() {
	if !m.dead() {
		return
	}
	m.sess = newSession()
	m.text = nil
	m.dirty = false
	m.notice = ""
	m.engine.SetWordCount(0)
	m.engine.Revive(m.now())
	m.consume()
}

// consume drains engine events into the session log and reacts to death.
func (m *Model) consume() {
	for _, ev := range m.engine.Drain() {
		m.logger.Debug("engine event", "type", ev.Type, "time_left", ev.TimeLeft, "status", ev.Status)
		m.sess.observe(ev)
		switch ev.Type {
		case reaper.EventAscended:
			m.notice = "pact fulfilled"
		case reaper.EventDeath:
			m.onDeath(ev.At)
		}
	}
	m.sess.notePeak(m.engine.State().TimeLeft)
}

func (m *Model) onDeath(at time.Time) {
	if err := m.store.DiscardDraft(context.Background()); err != nil {
		m.logger.Error("failed to discard draft", "err", err)
		m.notice = "draft discard failed"
	}
	m.record(at)
	m.text = nil
	m.dirty = false
}

func (m *Model) record(endedAt time.Time) {
	if !m.sess.open || m.sess.recorded {
		return
	}
	stats := m.sess.stats(endedAt, m.engine.State(), string(m.text))
	if _, err := m.store.InsertSession(context.Background(), stats, m.sess.events); err != nil {
		m.logger.Error("failed to save session", "err", err)
		m.notice = "session not saved"
		return
	}
	m.sess.recorded = true
	m.logger.Info("session recorded", "uid", stats.UID, "words", stats.Words, "survived_ms", stats.SurvivedMs, "deaths", stats.Deaths)
}

func (m *Model) saveDraft() {
	if !m.dirty || m.dead() {
		return
	}
	draft := model.Draft{Text: string(m.text), UpdatedAt: m.now()}
	if err := m.store.SaveDraft(context.Background(), draft); err != nil {
		m.logger.Warn("failed to save draft", "err", err)
		m.notice = "autosave failed"
		return
	}
	m.dirty = false
}

// finish flushes the draft and records the session before quitting.
func (m *Model) finish() {
	now := m.now()
	m.engine.Advance(now)
	m.consume()
	m.saveDraft()
	m.record(now)
}

// Package tui renders the game in the terminal: a start screen with
// difficulty and mission selection, the scene view with dialogue and
// options, word inspection with debounced analysis, and the recap.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"magyarkaland/internal/game"
	"magyarkaland/internal/models"
	"magyarkaland/internal/scenario"
)

// inspectDelay is the debounce before a selected word is analyzed, so
// skimming across words does not fire one request per word.
const inspectDelay = 300 * time.Millisecond

// minInspectLen skips words too short to carry interesting suffixes.
const minInspectLen = 5

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true)

	narrationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC")).
			Italic(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	dialogueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1C1C1C")).
			Background(lipgloss.Color("#FFA500")).
			Bold(true)

	inspectStyle = lipgloss.NewStyle().
			Underline(true).
			Foreground(lipgloss.Color("#87CEEB"))

	positiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98")).
			Italic(true)

	negativeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF7F7F")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type model struct {
	ctrl      *game.Controller
	scenarios []scenario.Scenario

	snap     game.Snapshot
	glossary []models.EncounteredWord

	// Start screen.
	difficultyCursor int
	scenarioCursor   int // 0 = custom prompt, 1.. = scenarios[i-1]
	promptInput      textinput.Model

	// Game screen.
	optionCursor int
	answerInput  textinput.Model
	imageReady   bool

	// Word inspection.
	wordCursor int
	inspectSeq int
	breakdown  *models.WordBreakdown
	analyzing  bool

	statusMsg string
	width     int
	height    int
}

type sceneMsg struct {
	snap game.Snapshot
	job  *game.ImageJob
	err  error
}

type imageMsg struct {
	snap game.Snapshot
}

type inspectTickMsg struct {
	seq  int
	word string
}

type breakdownMsg struct {
	seq       int
	word      string
	breakdown models.WordBreakdown
}

func NewModel(ctrl *game.Controller, scenarios []scenario.Scenario) model {
	prompt := textinput.New()
	prompt.Placeholder = "e.g. 'Order a lángos at a street food vendor'"
	prompt.CharLimit = 156
	prompt.Width = 50

	answer := textinput.New()
	answer.Placeholder = "Válaszolj magyarul..."
	answer.CharLimit = 200
	answer.Width = 60

	return model{
		ctrl:        ctrl,
		scenarios:   scenarios,
		snap:        ctrl.Snapshot(),
		promptInput: prompt,
		answerInput: answer,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sceneMsg:
		m.snap = msg.snap
		m.optionCursor = 0
		m.resetInspection()
		m.imageReady = false
		m.statusMsg = ""
		m.glossary = m.ctrl.EncounteredWords()
		if m.snap.State == models.StatePlaying && m.snap.Mission != nil && m.snap.Mission.Difficulty.FreeText() {
			m.answerInput.Reset()
			m.answerInput.Focus()
		}
		if msg.job != nil {
			return m, m.resolveImage(*msg.job)
		}
		return m, nil

	case imageMsg:
		m.snap = msg.snap
		m.imageReady = true
		return m, nil

	case inspectTickMsg:
		// A newer selection cancelled this one.
		if msg.seq != m.inspectSeq {
			return m, nil
		}
		m.analyzing = true
		return m, m.analyzeWord(msg.seq, msg.word)

	case breakdownMsg:
		if msg.seq != m.inspectSeq {
			return m, nil
		}
		m.analyzing = false
		breakdown := msg.breakdown
		m.breakdown = &breakdown
		m.glossary = m.ctrl.EncounteredWords()
		return m, nil
	}

	return m.updateInputs(msg)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.snap.State {
	case models.StateStart:
		return m.handleStartKey(msg)
	case models.StatePlaying:
		return m.handlePlayingKey(msg)
	case models.StateFinished:
		return m.handleRecapKey(msg)
	}
	// Loading: only quit is honored.
	if msg.Type == tea.KeyEsc {
		return m, tea.Quit
	}
	return m, nil
}

func (m model) handleStartKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.promptInput.Focused() {
		switch msg.Type {
		case tea.KeyEsc, tea.KeyTab:
			m.promptInput.Blur()
			return m, nil
		case tea.KeyEnter:
			return m.startGame()
		}
		var cmd tea.Cmd
		m.promptInput, cmd = m.promptInput.Update(msg)
		return m, cmd
	}

	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyUp:
		if m.difficultyCursor > 0 {
			m.difficultyCursor--
		}
	case tea.KeyDown:
		if m.difficultyCursor < len(models.Difficulties)-1 {
			m.difficultyCursor++
		}
	case tea.KeyLeft:
		if m.scenarioCursor > 0 {
			m.scenarioCursor--
		}
	case tea.KeyRight:
		if m.scenarioCursor < len(m.scenarios) {
			m.scenarioCursor++
		}
	case tea.KeyTab:
		m.scenarioCursor = 0
		return m, m.promptInput.Focus()
	case tea.KeyEnter:
		return m.startGame()
	}
	return m, nil
}

func (m model) startGame() (tea.Model, tea.Cmd) {
	difficulty := models.Difficulties[m.difficultyCursor]
	prompt := strings.TrimSpace(m.promptInput.Value())
	if m.scenarioCursor > 0 {
		prompt = m.scenarios[m.scenarioCursor-1].Prompt
	}

	m.promptInput.Blur()
	m.snap.State = models.StateLoading
	ctrl := m.ctrl
	return m, func() tea.Msg {
		snap, job, err := ctrl.StartGame(context.Background(), difficulty, prompt)
		return sceneMsg{snap: snap, job: job, err: err}
	}
}

func (m model) handlePlayingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	scene := m.snap.Scene
	if scene == nil {
		return m, nil
	}
	freeText := m.snap.Mission != nil && m.snap.Mission.Difficulty.FreeText()

	if freeText && m.answerInput.Focused() {
		switch msg.Type {
		case tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.sendAnswer(-1, m.answerInput.Value())
		case tea.KeyLeft, tea.KeyRight:
			// Fall through to word inspection below.
		default:
			var cmd tea.Cmd
			m.answerInput, cmd = m.answerInput.Update(msg)
			return m, cmd
		}
	}

	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyUp:
		if m.optionCursor > 0 {
			m.optionCursor--
		}
		return m, nil
	case tea.KeyDown:
		if m.optionCursor < len(scene.Options)-1 {
			m.optionCursor++
		}
		return m, nil
	case tea.KeyLeft:
		return m.moveWordCursor(-1)
	case tea.KeyRight:
		return m.moveWordCursor(1)
	case tea.KeyEnter:
		if !freeText {
			return m.sendAnswer(m.optionCursor, "")
		}
		return m, nil
	}

	if msg.String() == "r" && !freeText {
		m.snap = m.ctrl.Reset()
		m.resetInspection()
		m.glossary = nil
		return m, nil
	}
	return m, nil
}

func (m model) sendAnswer(optionIndex int, textInput string) (tea.Model, tea.Cmd) {
	m.snap.State = models.StateLoading
	m.answerInput.Blur()
	ctrl := m.ctrl
	return m, func() tea.Msg {
		snap, job, err := ctrl.SelectOption(context.Background(), optionIndex, textInput)
		return sceneMsg{snap: snap, job: job, err: err}
	}
}

func (m model) handleRecapKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		m.snap = m.ctrl.Reset()
		m.glossary = nil
		m.statusMsg = ""
		m.resetInspection()
		return m, nil
	}

	if msg.String() == "e" {
		words := m.ctrl.EncounteredWords()
		if err := game.ExportRecap(game.RecapFilename, words); err != nil {
			m.statusMsg = errorStyle.Render(fmt.Sprintf("Export failed: %v", err))
		} else {
			m.statusMsg = fmt.Sprintf("Exported %s", game.RecapFilename)
		}
	}
	return m, nil
}

// moveWordCursor shifts the inspected word and schedules its analysis
// after the debounce delay; the previous pending analysis is cancelled
// by the sequence bump.
func (m model) moveWordCursor(delta int) (tea.Model, tea.Cmd) {
	words := m.inspectableWords()
	if len(words) == 0 {
		return m, nil
	}

	m.wordCursor += delta
	if m.wordCursor < 0 {
		m.wordCursor = 0
	}
	if m.wordCursor >= len(words) {
		m.wordCursor = len(words) - 1
	}

	m.inspectSeq++
	m.breakdown = nil
	m.analyzing = false

	seq := m.inspectSeq
	word := words[m.wordCursor]
	return m, tea.Tick(inspectDelay, func(time.Time) tea.Msg {
		return inspectTickMsg{seq: seq, word: word}
	})
}

func (m *model) resetInspection() {
	m.wordCursor = 0
	m.inspectSeq++
	m.breakdown = nil
	m.analyzing = false
}

// inspectableWords lists the dialogue and option words long enough to
// plausibly carry suffixes.
func (m model) inspectableWords() []string {
	scene := m.snap.Scene
	if scene == nil {
		return nil
	}

	var texts []string
	if scene.Dialogue != nil {
		texts = append(texts, scene.Dialogue.Hungarian)
	}
	for _, o := range scene.Options {
		texts = append(texts, o.Hungarian)
	}

	var words []string
	for _, field := range strings.Fields(strings.Join(texts, " ")) {
		if len([]rune(game.Normalize(field))) >= minInspectLen {
			words = append(words, field)
		}
	}
	return words
}

func (m model) resolveImage(job game.ImageJob) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return imageMsg{snap: ctrl.ResolveImage(context.Background(), job)}
	}
}

func (m model) analyzeWord(seq int, word string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		breakdown := ctrl.Cache().Analyze(context.Background(), word)
		return breakdownMsg{seq: seq, word: word, breakdown: breakdown}
	}
}

func (m model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.promptInput.Focused() {
		m.promptInput, cmd = m.promptInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.answerInput.Focused() {
		m.answerInput, cmd = m.answerInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	var s string
	switch m.snap.State {
	case models.StateStart:
		s = m.viewStart()
	case models.StateLoading:
		s = m.viewLoading()
	case models.StatePlaying:
		s = m.viewPlaying()
	case models.StateFinished:
		s = m.viewRecap()
	}
	return "\n" + s + "\n"
}

func (m model) viewStart() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Hungarian RPG Adventure") + "\n")
	b.WriteString(dimStyle.Render("Kalandra fel! (To adventure!)") + "\n\n")
	b.WriteString("Choose your difficulty:\n\n")

	for i, d := range models.Difficulties {
		line := fmt.Sprintf("  %s - %s", d, models.DifficultyDescriptions[d])
		if i == m.difficultyCursor {
			line = selectedStyle.Render("▸ " + string(d)) + dimStyle.Render(" - "+models.DifficultyDescriptions[d])
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\nMission: ")
	if m.scenarioCursor == 0 {
		b.WriteString(selectedStyle.Render("custom") + "  " + m.promptInput.View() + "\n")
	} else {
		preset := m.scenarios[m.scenarioCursor-1]
		b.WriteString(selectedStyle.Render(preset.Title) + "  " + dimStyle.Render(preset.Prompt) + "\n")
	}

	if m.snap.Err != "" {
		b.WriteString("\n" + errorStyle.Render(m.snap.Err) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("↑/↓ difficulty · ←/→ mission preset · tab custom mission · enter start · esc quit"))
	return b.String()
}

func (m model) viewLoading() string {
	return titleStyle.Render("Hungarian RPG Adventure") + "\n\n  Forging your destiny... please wait.\n"
}

func (m model) viewPlaying() string {
	scene := m.snap.Scene
	if scene == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.snap.Mission.Title) + dimStyle.Render(fmt.Sprintf("  ·  turn %d", scene.Turn)) + "\n")

	if m.imageReady {
		b.WriteString(dimStyle.Render("[scene illustrated]") + "\n\n")
	} else {
		b.WriteString(dimStyle.Render("[illustrating the scene...]") + "\n\n")
	}

	if scene.Feedback != "" {
		style := positiveStyle
		if scene.FeedbackType == models.FeedbackNegative {
			style = negativeStyle
		}
		b.WriteString(style.Render(scene.Feedback) + "\n\n")
	}

	b.WriteString(narrationStyle.Width(contentWidth(m.width)).Render(scene.Narration) + "\n\n")

	if scene.Dialogue != nil {
		b.WriteString(speakerStyle.Render(scene.Dialogue.Speaker+":") + "\n")
		b.WriteString(m.renderInspectable(scene.Dialogue.Hungarian) + "\n")
		if scene.Dialogue.English != "" {
			b.WriteString(dimStyle.Render("\""+scene.Dialogue.English+"\"") + "\n")
		}
		b.WriteString("\n")
	}

	freeText := m.snap.Mission.Difficulty.FreeText()
	if freeText {
		b.WriteString(speakerStyle.Render(scene.Question) + "\n")
		b.WriteString(m.answerInput.View() + "\n")
	} else {
		for i, o := range scene.Options {
			prefix := "  "
			text := o.Hungarian
			if i == m.optionCursor {
				prefix = selectedStyle.Render("▸ ")
				text = m.renderInspectable(o.Hungarian)
			}
			b.WriteString(prefix + text + "\n")
			if o.English != "" {
				b.WriteString(dimStyle.Render("    \""+o.English+"\"") + "\n")
			}
		}
	}

	main := b.String()
	sidebar := m.renderSidebar()
	view := lipgloss.JoinHorizontal(lipgloss.Top, main, sidebar)

	help := "↑/↓ option · enter answer · ←/→ inspect word · r restart · esc quit"
	if freeText {
		help = "type your answer · enter send · ←/→ inspect word · esc quit"
	}
	return view + "\n\n" + helpStyle.Render(help)
}

// renderInspectable highlights the currently inspected word within a
// line of Hungarian text.
func (m model) renderInspectable(text string) string {
	words := m.inspectableWords()
	if len(words) == 0 {
		return dialogueStyle.Render(text)
	}
	selected := words[m.wordCursor]

	fields := strings.Fields(text)
	for i, f := range fields {
		if f == selected {
			fields[i] = inspectStyle.Render(f)
		}
	}
	return dialogueStyle.Render(strings.Join(fields, " "))
}

func (m model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("WORD") + "\n")

	words := m.inspectableWords()
	switch {
	case len(words) == 0:
		b.WriteString(dimStyle.Render("(nothing to inspect)") + "\n")
	case m.analyzing:
		b.WriteString(words[m.wordCursor] + "\n" + dimStyle.Render("analyzing...") + "\n")
	case m.breakdown != nil:
		b.WriteString(words[m.wordCursor] + "\n")
		b.WriteString(fmt.Sprintf("root: %s (%s)\n", m.breakdown.Root.Text, m.breakdown.Root.Meaning))
		for _, suffix := range m.breakdown.Suffixes {
			b.WriteString(fmt.Sprintf("%s: %s\n  %s\n", suffix.Text, suffix.Meaning, suffix.Function))
		}
	default:
		b.WriteString(words[m.wordCursor] + "\n" + dimStyle.Render("←/→ then wait to analyze") + "\n")
	}

	b.WriteString("\n" + titleStyle.Render("GLOSSARY") + "\n")
	if len(m.glossary) == 0 {
		b.WriteString(dimStyle.Render("(hover words to grow it)"))
	}
	for _, w := range m.glossary {
		b.WriteString(fmt.Sprintf("%s ×%d\n", w.Word, w.Count))
	}

	return sidebarStyle.Width(sidebarWidth(m.width)).Render(b.String())
}

func (m model) viewRecap() string {
	words := m.ctrl.EncounteredWords()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Szép munka! (Great work!)") + "\n")
	if m.snap.Mission != nil {
		b.WriteString(fmt.Sprintf("You have completed the mission: %q.\n\n", m.snap.Mission.Title))
	}
	b.WriteString(titleStyle.Render("Suffix Mastery Report") + "\n\n")

	if len(words) == 0 {
		b.WriteString(dimStyle.Render("No new complex words were analyzed in this mission.") + "\n")
	}
	for _, w := range words {
		b.WriteString(fmt.Sprintf("%s %s\n", w.Word, dimStyle.Render(fmt.Sprintf("(encountered %dx)", w.Count))))
		b.WriteString(fmt.Sprintf("  root: %s (%s)\n", w.Breakdown.Root.Text, w.Breakdown.Root.Meaning))
		for _, suffix := range w.Breakdown.Suffixes {
			b.WriteString(fmt.Sprintf("  %s - %s\n", suffix.Text, suffix.Function))
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n" + m.statusMsg + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("e export CSV for Anki · enter play again · esc quit"))
	return b.String()
}

func contentWidth(total int) int {
	if total == 0 {
		return 72
	}
	return int(float64(total) * 0.7)
}

func sidebarWidth(total int) int {
	if total == 0 {
		return 28
	}
	return int(float64(total) * 0.25)
}

// Run starts the TUI and blocks until the player quits.
func Run(ctrl *game.Controller, scenarios []scenario.Scenario) error {
	p := tea.NewProgram(NewModel(ctrl, scenarios), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

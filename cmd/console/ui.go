package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/town-engine/internal/rules"
	"github.com/jwebster45206/town-engine/internal/sim"
	"github.com/jwebster45206/town-engine/pkg/town"
)

const (
	PlaceHolderText = "Say something to the selected resident, or /help..."
	maxLogLines     = 200
	refreshInterval = 250 * time.Millisecond
)

// Town is the part of the engine the console drives.
type Town interface {
	Snapshot() sim.Snapshot
	Buildings() []town.Building
	SyncNPCs(updates []town.Update)
	SetPlayerIntent(dx, dy float64)
	Summon(id string) error
	Select(id string) error
	Say(id, message string) error
}

type Levels interface {
	Status() rules.Status
	Next() (int, error)
}

type CognitionStatus interface {
	CoolingOff() bool
}

// logLine is one entry in the town log.
type logLine struct {
	speaker string
	text    string
	kind    sim.ThoughtKind
}

func (l logLine) plain() string {
	if l.speaker == "" {
		return l.text
	}
	return l.speaker + ": " + l.text
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	town      Town
	levels    Levels
	cognition CognitionStatus
	events    <-chan sim.Event

	logViewport  viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int

	snap     sim.Snapshot
	log      []logLine
	selected string
	intent   [2]float64
	notice   string

	showQuitModal bool
}

type eventMsg sim.Event

type refreshMsg struct{}

var (
	logPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	thoughtStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("205")).
			Bold(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

var title = cases.Title(language.English)

func NewConsoleUI(t Town, levels Levels, cognition CognitionStatus, events <-chan sim.Event) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(2)
	ta.ShowLineNumbers = false

	logVp := viewport.New(50, 20)
	logVp.MouseWheelEnabled = true

	return ConsoleUI{
		town:         t,
		levels:       levels,
		cognition:    cognition,
		events:       events,
		textarea:     ta,
		logViewport:  logVp,
		metaViewport: viewport.New(20, 20),
		snap:         t.Snapshot(),
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForEvent(m.events), refresh())
}

func waitForEvent(events <-chan sim.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.logViewport, vpCmd = m.logViewport.Update(msg)
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		logWidth := int(float64(m.width)*0.65) - 4
		metaWidth := m.width - logWidth - 6
		m.logViewport.Width = logWidth - 2
		m.logViewport.Height = m.height - 6
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 2
		m.textarea.SetWidth(logWidth - 4)
		m.ready = true
		m.writeLog()
		m.metaViewport.SetContent(m.writeMetadata())

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyShiftUp:
			m.walk(0, -1)
			return m, nil
		case tea.KeyShiftDown:
			m.walk(0, 1)
			return m, nil
		case tea.KeyShiftLeft:
			m.walk(-1, 0)
			return m, nil
		case tea.KeyShiftRight:
			m.walk(1, 0)
			return m, nil
		case tea.KeyTab:
			m.cycleSelection()
			return m, nil
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				m.handleCommand(input)
			} else {
				m.say(input)
			}
			m.writeLog()
			m.metaViewport.SetContent(m.writeMetadata())
			return m, nil
		}

	case eventMsg:
		m.onEvent(sim.Event(msg))
		m.writeLog()
		return m, waitForEvent(m.events)

	case refreshMsg:
		m.snap = m.town.Snapshot()
		m.metaViewport.SetContent(m.writeMetadata())
		return m, refresh()
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.logViewport, vpCmd = m.logViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd)
}

// walk sets the player's direction. Pressing the current direction again stops.
func (m *ConsoleUI) walk(dx, dy float64) {
	if m.intent == [2]float64{dx, dy} {
		dx, dy = 0, 0
	}
	m.intent = [2]float64{dx, dy}
	m.town.SetPlayerIntent(dx, dy)
}

func (m *ConsoleUI) cycleSelection() {
	if len(m.snap.NPCs) == 0 {
		return
	}
	next := 0
	for i, v := range m.snap.NPCs {
		if v.ID == m.selected {
			next = (i + 1) % len(m.snap.NPCs)
		}
	}
	m.selectNPC(m.snap.NPCs[next].ID)
}

func (m *ConsoleUI) selectNPC(id string) {
	if err := m.town.Select(id); err != nil {
		m.notice = err.Error()
		return
	}
	m.selected = id
	m.metaViewport.SetContent(m.writeMetadata())
}

func (m *ConsoleUI) say(message string) {
	if m.selected == "" {
		m.notice = "Select someone first (Tab or /select <name>)."
		return
	}
	if err := m.town.Say(m.selected, message); err != nil {
		m.notice = err.Error()
		return
	}
	m.appendLog(logLine{speaker: "You", text: message, kind: "player"})
}

func (m *ConsoleUI) onEvent(ev sim.Event) {
	switch ev.Type {
	case sim.EventThought:
		speaker := m.nameOf(ev.NPCID)
		if ev.Kind == sim.KindSystem {
			speaker = ""
		}
		m.appendLog(logLine{speaker: speaker, text: ev.Text, kind: ev.Kind})
	case sim.EventApproached:
		m.selected = ev.NPCID
		m.appendLog(logLine{text: fmt.Sprintf("%s walks up to you.", m.nameOf(ev.NPCID)), kind: sim.KindSystem})
	case sim.EventSelected:
		m.selected = ev.NPCID
	case sim.EventLevelCompleted:
		m.appendLog(logLine{text: fmt.Sprintf("LEVEL UP! %s Type /next to continue.", ev.Text), kind: sim.KindSystem})
	case sim.EventLevelStarted:
		m.selected = ""
		m.appendLog(logLine{text: ev.Text, kind: sim.KindSystem})
	case sim.EventTimeUpdated:
		m.snap.Hour = ev.Hour
		m.snap.Period = ev.Period
	}
}

func (m *ConsoleUI) appendLog(l logLine) {
	m.log = append(m.log, l)
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
}

func (m ConsoleUI) nameOf(id string) string {
	if v, ok := m.snap.NPC(id); ok {
		return v.Name
	}
	return id
}

// findNPC resolves a name or id typed by the player.
func findNPC(snap sim.Snapshot, query string) (town.View, bool) {
	query = strings.TrimSpace(query)
	for _, v := range snap.NPCs {
		if strings.EqualFold(v.ID, query) || strings.EqualFold(v.Name, query) {
			return v, true
		}
	}
	return town.View{}, false
}

func (m *ConsoleUI) handleCommand(input string) {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]
	m.notice = ""

	switch cmd {
	case "/help":
		m.appendLog(logLine{kind: sim.KindSystem, text: helpText})

	case "/select", "/summon":
		if len(args) == 0 {
			m.notice = "Usage: " + cmd + " <name>"
			return
		}
		v, ok := findNPC(m.snap, strings.Join(args, " "))
		if !ok {
			m.notice = fmt.Sprintf("Nobody called %q lives here.", strings.Join(args, " "))
			return
		}
		if cmd == "/select" {
			m.selectNPC(v.ID)
			return
		}
		if err := m.town.Summon(v.ID); err != nil {
			m.notice = err.Error()
			return
		}
		m.appendLog(logLine{kind: sim.KindSystem, text: fmt.Sprintf("You wave at %s.", v.Name)})

	case "/go":
		if len(args) < 2 {
			m.notice = "Usage: /go <name> <place>"
			return
		}
		v, ok := findNPC(m.snap, args[0])
		if !ok {
			m.notice = fmt.Sprintf("Nobody called %q lives here.", args[0])
			return
		}
		place := strings.Join(args[1:], " ")
		b, ok := town.NewRegistry(m.town.Buildings()).Match(place, v.Position.Vec())
		if !ok {
			m.notice = fmt.Sprintf("There is no %q in town.", place)
			return
		}
		dest := town.Point{X: b.X, Y: b.Y}
		label := "moving"
		m.town.SyncNPCs([]town.Update{{ID: v.ID, Destination: &dest, Target: &b.Name, Label: &label}})
		m.appendLog(logLine{kind: sim.KindSystem, text: fmt.Sprintf("%s is now moving to the %s.", v.Name, b.Name)})

	case "/next":
		level, err := m.levels.Next()
		if err != nil {
			m.notice = err.Error()
			return
		}
		m.notice = fmt.Sprintf("Starting level %d.", level)

	case "/stop":
		m.intent = [2]float64{}
		m.town.SetPlayerIntent(0, 0)

	case "/copy":
		lines := make([]string, len(m.log))
		for i, l := range m.log {
			lines[i] = l.plain()
		}
		if err := clipboard.WriteAll(strings.Join(lines, "\n")); err != nil {
			m.notice = "Clipboard unavailable: " + err.Error()
			return
		}
		m.notice = fmt.Sprintf("Copied %d lines.", len(lines))

	default:
		m.notice = fmt.Sprintf("Unknown command %s. Try /help.", cmd)
	}
}

const helpText = `Commands:
• Tab - select the next resident
• Shift+Arrows - walk (press again to stop)
• /select <name> - talk to someone
• /summon <name> - ask someone to come to you
• /go <name> <place> - send someone somewhere
• /next - start the next level
• /stop - stand still
• /copy - copy the town log
• Ctrl+C - quit`

// writeLog renders the town log for the current viewport width.
func (m *ConsoleUI) writeLog() {
	width := m.logViewport.Width - 6
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("TOWN LOG") + "\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")
	for _, l := range m.log {
		content.WriteString(formatLogLine(l, width) + "\n\n")
	}
	m.logViewport.SetContent(content.String())
	m.logViewport.GotoBottom()
}

func formatLogLine(l logLine, width int) string {
	if l.speaker == "" {
		return systemStyle.Render(wordwrap.String(l.text, width))
	}

	prefix := l.speaker + ": "
	body := wordwrap.String(l.text, width-len(prefix))
	switch l.kind {
	case sim.KindThought:
		return speakerStyle.Render(prefix) + thoughtStyle.Render("("+body+")")
	case "player":
		return userStyle.Render(prefix) + body
	default:
		return speakerStyle.Render(prefix) + body
	}
}

func (m ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("TOWN") + "\n\n")

	h := int(m.snap.Hour)
	mins := int((m.snap.Hour - float64(h)) * 60)
	content.WriteString(fmt.Sprintf("%02d:%02d %s\n", h, mins, m.snap.Period))
	if m.cognition != nil && m.cognition.CoolingOff() {
		content.WriteString(loadingStyle.Render("Residents are catching their breath...") + "\n")
	}
	content.WriteString("\n")

	if m.levels != nil {
		st := m.levels.Status()
		content.WriteString(titleStyle.Render(fmt.Sprintf("LEVEL %d", st.Level)) + "\n")
		content.WriteString(wordwrap.String(st.Goal, max(m.metaViewport.Width-2, 10)) + "\n")
		if st.Required > 0 {
			content.WriteString(fmt.Sprintf("Progress: %d/%d\n", st.Present, st.Required))
		}
		if st.Complete {
			content.WriteString(systemStyle.Render("Complete! /next") + "\n")
		}
		content.WriteString("\n")
	}

	content.WriteString(titleStyle.Render("RESIDENTS") + "\n")
	for _, v := range m.snap.NPCs {
		name := v.Name
		if v.ID == m.selected {
			name = selectedStyle.Render(" " + name + " ")
		} else {
			name = speakerStyle.Render(name)
		}
		content.WriteString(name + "\n")
		content.WriteString(fmt.Sprintf("  %s, %s\n", title.String(v.Mood), describeState(v)))
	}

	if m.notice != "" {
		content.WriteString("\n" + errorStyle.Render(m.notice) + "\n")
	}

	content.WriteString("\n" + promptStyle.Render("Tab: select • /help") + "\n")
	return content.String()
}

func describeState(v town.View) string {
	switch {
	case v.Partner == town.PartnerPlayer:
		return "talking to you"
	case v.Partner != "":
		return "chatting with " + v.Partner
	case v.TargetLocation != "":
		return "heading to " + v.TargetLocation
	case strings.HasPrefix(v.Label, "at_"):
		return "at " + title.String(strings.ReplaceAll(strings.TrimPrefix(v.Label, "at_"), "_", " "))
	default:
		return "idle"
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case eventMsg:
		m.onEvent(sim.Event(msg))
		return m, waitForEvent(m.events)

	case refreshMsg:
		return m, refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave Town?"))
	content.WriteString("\n\n")
	content.WriteString("The residents will carry on without you.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to stay, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	logWidth := int(float64(m.width)*0.65) - 4
	metaWidth := m.width - logWidth - 6

	logPanel := logPanelStyle.Width(logWidth).Height(m.height - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.logViewport.View(),
			separatorStyle.Render(strings.Repeat("─", max(logWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, logPanel, metaPanel)
}

//go:build !gui

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/skimreader/skim/internal/reader"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	orpStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF0000"))

	wordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	completeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	tocTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	tocCursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFAA00"))
)

type model struct {
	sess *session
	*reader.Reader
	cfg Config

	bar      progress.Model
	tickSeq  int
	zen      bool
	tocOpen  bool
	tocIndex int
	quitting bool
	width    int
	height   int
}

// tickMsg carries the sequence it was scheduled under so a stale timer chain
// is dropped instead of stacking on top of its replacement.
type tickMsg struct {
	seq int
}

func newModel(sess *session, cfg Config) model {
	return model{
		sess:   sess,
		Reader: sess.Reader,
		cfg:    cfg,
		bar:    progress.New(progress.WithDefaultGradient()),
		width:  80,
		height: 24,
	}
}

func (m model) tick() tea.Cmd {
	seq := m.tickSeq
	return tea.Tick(m.Delay(), func(time.Time) tea.Msg {
		return tickMsg{seq: seq}
	})
}

func (m model) Init() tea.Cmd {
	return m.tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.tocOpen {
			return m.updateTOC(msg)
		}
		return m.updateReading(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := msg.Width - 4
		if w < 10 {
			w = 10
		}
		m.bar.Width = w
		return m, nil

	case tickMsg:
		if msg.seq != m.tickSeq || m.Paused {
			return m, nil
		}
		if m.Advance() {
			return m, m.tick()
		}
		m.sess.save()
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m model) updateReading(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		m.Paused = !m.Paused
		if !m.Paused {
			m.tickSeq++
			return m, m.tick()
		}
		return m, nil

	case "+", "=", "up":
		m.WPM = m.cfg.clampWPM(m.WPM + m.cfg.WPMStep)
		return m, nil

	case "-", "_", "down":
		m.WPM = m.cfg.clampWPM(m.WPM - m.cfg.WPMStep)
		return m, nil

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		n := int(msg.String()[0] - '1')
		if n < len(m.cfg.SpeedPresets) {
			m.WPM = m.cfg.clampWPM(m.cfg.SpeedPresets[n])
		}
		return m, nil

	case "left":
		m.pauseOnSlowArrow()
		m.JumpToPrevSentence()
		return m, nil

	case "right":
		m.pauseOnSlowArrow()
		m.JumpToNextSentence()
		return m, nil

	case "[":
		m.Paused = true
		m.PrevChapter()
		return m, nil

	case "]":
		m.Paused = true
		m.NextChapter()
		return m, nil

	case "t", "T":
		if len(m.Chapters) > 0 {
			m.Paused = true
			m.tocOpen = true
			m.tocIndex = m.CurrentChapter
		}
		return m, nil

	case "z", "Z":
		m.zen = !m.zen
		return m, nil

	case "r", "R":
		m.JumpTo(0)
		if m.sess.Store != nil && m.sess.FileHash != "" {
			m.sess.Store.Clear(m.sess.FileHash)
		}
		return m, nil

	case "q", "Q", "ctrl+c":
		m.sess.save()
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m model) updateTOC(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.tocIndex > 0 {
			m.tocIndex--
		}
	case "down", "j":
		if m.tocIndex < len(m.Chapters)-1 {
			m.tocIndex++
		}
	case "enter":
		m.JumpToChapter(m.tocIndex)
		m.tocOpen = false
	case "t", "T", "esc":
		m.tocOpen = false
	case "q", "Q", "ctrl+c":
		m.sess.save()
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// pauseOnSlowArrow pauses unless arrows are being tapped in quick succession.
func (m *model) pauseOnSlowArrow() {
	now := time.Now()
	if now.Sub(m.LastArrowPress) > m.cfg.ArrowPause {
		m.Paused = true
	}
	m.LastArrowPress = now
}

func (m model) View() string {
	if m.quitting {
		if m.AtEnd() {
			return completeStyle.Render("\n  Reading complete!\n")
		}
		return ""
	}

	if len(m.Words) == 0 {
		return "No text to read."
	}

	if m.tocOpen {
		return m.viewTOC()
	}

	word := m.CurrentWord()
	line := anchorORPText(formatWord(word), word, m.width)

	if m.zen {
		vPad := m.height / 2
		if vPad < 0 {
			vPad = 0
		}
		return strings.Repeat("\n", vPad) + line
	}

	pause := ""
	if m.Paused {
		pause = pausedStyle.Render(" [PAUSED]")
	}

	current, total := m.Progress()
	chapter := m.CurrentChapterTitle()
	if chapter != "" {
		chapter = " | " + chapter
	}
	status := statusStyle.Render(
		fmt.Sprintf("%s%s | Word %d/%d | %d WPM%s",
			m.sess.Title,
			chapter,
			current,
			total,
			m.WPM,
			pause,
		),
	)

	controls := controlsStyle.Render(
		"SPACE: pause  ↑/↓: speed  ←/→: sentence  [/]: chapter  T: contents  Z: zen  Q: quit")

	// Status + progress bar at top, controls at bottom
	avail := m.height - 3
	if avail < 1 {
		avail = 1
	}
	vPad := avail / 2

	var sb strings.Builder
	sb.WriteString(status)
	sb.WriteString("\n")
	sb.WriteString("  " + m.bar.ViewAs(m.Fraction()))
	sb.WriteString("\n")

	for i := 0; i < vPad; i++ {
		sb.WriteString("\n")
	}
	sb.WriteString(line)
	for i := 0; i < avail-vPad; i++ {
		sb.WriteString("\n")
	}
	sb.WriteString(controls)

	return sb.String()
}

func (m model) viewTOC() string {
	var sb strings.Builder
	sb.WriteString(tocTitleStyle.Render("Contents"))
	sb.WriteString("\n\n")

	// Window the list around the cursor
	visible := m.height - 4
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.tocIndex >= visible {
		start = m.tocIndex - visible + 1
	}
	end := start + visible
	if end > len(m.Chapters) {
		end = len(m.Chapters)
	}

	for i := start; i < end; i++ {
		ch := m.Chapters[i]
		row := fmt.Sprintf("  %s (word %d)", ch.Title, ch.Index+1)
		if i == m.tocIndex {
			row = tocCursorStyle.Render("> " + strings.TrimSpace(row))
		}
		sb.WriteString(row)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(controlsStyle.Render("↑/↓: move  ENTER: jump  T: close  Q: quit"))
	return sb.String()
}

// formatWord styles a word with its ORP letter highlighted.
func formatWord(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return ""
	}
	orp := reader.ORPIndex(word)
	if orp >= len(runes) {
		orp = len(runes) - 1
	}

	before := string(runes[:orp])
	focus := string(runes[orp])
	after := ""
	if orp+1 < len(runes) {
		after = string(runes[orp+1:])
	}

	return wordStyle.Render(before) +
		orpStyle.Render(focus) +
		wordStyle.Render(after)
}

// anchorORPText left-pads a formatted word so its ORP letter sits at the
// horizontal center of the terminal.
func anchorORPText(text string, word string, width int) string {
	anchor := width / 2
	pad := anchor - reader.ORPIndex(word)
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + text
}

func main() {
	cfg := DefaultConfig()

	wpm := flag.Int("w", cfg.DefaultWPM, "Words per minute")
	fresh := flag.Bool("fresh", false, "Ignore saved reading position")
	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Skim - Terminal Speed Reading Tool\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  skim [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  skim book.epub            Read an EPUB at 300 WPM\n")
		fmt.Fprintf(os.Stderr, "  skim -w 500 paper.pdf     Read a PDF at 500 WPM\n")
		fmt.Fprintf(os.Stderr, "  cat notes.txt | skim      Read from stdin\n")
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  SPACE    Pause/play\n")
		fmt.Fprintf(os.Stderr, "  +/- ↑/↓  Adjust speed by 50 WPM\n")
		fmt.Fprintf(os.Stderr, "  1-5      Speed presets\n")
		fmt.Fprintf(os.Stderr, "  ←/→      Jump to previous/next sentence\n")
		fmt.Fprintf(os.Stderr, "  [/]      Jump to previous/next chapter\n")
		fmt.Fprintf(os.Stderr, "  T        Table of contents\n")
		fmt.Fprintf(os.Stderr, "  Z        Zen mode (hide everything but the word)\n")
		fmt.Fprintf(os.Stderr, "  R        Restart from the beginning\n")
		fmt.Fprintf(os.Stderr, "  Q        Quit\n")
	}
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("skim %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	var (
		sess *session
		err  error
	)
	if flag.NArg() > 0 {
		sess, err = loadFile(flag.Arg(0), cfg, cfg.clampWPM(*wpm), *fresh)
	} else {
		sess, err = loadStdin(cfg.clampWPM(*wpm))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describeError(err))
		os.Exit(1)
	}

	p := tea.NewProgram(newModel(sess, cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

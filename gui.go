//go:build gui

package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/skimreader/skim/internal/reader"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type guiModel struct {
	sess *session
	*reader.Reader
	cfg        Config
	fontSize   float32
	tocVisible bool
}

func createWordDisplay(word string, fontSize float32, windowWidth float32) *fyne.Container {
	runes := []rune(word)
	orp := reader.ORPIndex(word)
	if orp >= len(runes) && len(runes) > 0 {
		orp = len(runes) - 1
	}
	if orp < 0 {
		orp = 0
	}

	before := ""
	focus := ""
	after := ""
	if len(runes) > 0 {
		before = string(runes[:orp])
		focus = string(runes[orp])
		if orp+1 < len(runes) {
			after = string(runes[orp+1:])
		}
	}

	beforeText := canvas.NewText(before, color.White)
	beforeText.TextSize = fontSize
	beforeText.TextStyle.Bold = true

	focusText := canvas.NewText(focus, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	focusText.TextSize = fontSize
	focusText.TextStyle.Bold = true

	afterText := canvas.NewText(after, color.White)
	afterText.TextSize = fontSize
	afterText.TextStyle.Bold = true

	beforeSize := beforeText.MinSize()
	focusSize := focusText.MinSize()

	// Anchor the ORP letter at the horizontal center
	centerX := windowWidth / 2
	beforeX := centerX - beforeSize.Width
	focusX := centerX
	afterX := centerX + focusSize.Width

	if beforeX < 0 {
		beforeX = 0
	}

	c := &fyne.Container{
		Layout: &centerVerticalLayout{},
		Objects: []fyne.CanvasObject{
			beforeText,
			focusText,
			afterText,
		},
	}

	beforeText.Move(fyne.NewPos(beforeX, 0))
	focusText.Move(fyne.NewPos(focusX, 0))
	afterText.Move(fyne.NewPos(afterX, 0))

	return c
}

type centerVerticalLayout struct{}

func (l *centerVerticalLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	var maxH float32
	for _, o := range objects {
		if size := o.MinSize(); size.Height > maxH {
			maxH = size.Height
		}
	}
	return fyne.NewSize(0, maxH)
}

func (l *centerVerticalLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	var maxH float32
	for _, o := range objects {
		if objSize := o.MinSize(); objSize.Height > maxH {
			maxH = objSize.Height
		}
	}

	y := (size.Height - maxH) / 2
	if y < 0 {
		y = 0
	}

	for _, o := range objects {
		pos := o.Position()
		o.Move(fyne.NewPos(pos.X, y))
		o.Resize(o.MinSize())
	}
}

func main() {
	cfg := DefaultConfig()

	wpm := flag.Int("w", cfg.DefaultWPM, "Words per minute")
	fresh := flag.Bool("fresh", false, "Ignore saved reading position")
	showTOC := flag.Bool("toc", false, "Show table of contents at startup")
	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Skim - GUI Speed Reading Tool\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  skim-gui [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  skim-gui book.epub          Read an EPUB at 300 WPM\n")
		fmt.Fprintf(os.Stderr, "  skim-gui --toc book.epub    Show contents panel at startup\n")
		fmt.Fprintf(os.Stderr, "  cat notes.txt | skim-gui    Read from stdin\n")
	}
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("skim-gui %s (commit: %s, built: %s)\n", version, commit, date)
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

	m := &guiModel{
		sess:     sess,
		Reader:   sess.Reader,
		cfg:      cfg,
		fontSize: cfg.DefaultFontSize,
	}
	m.Paused = true // GUI starts paused

	if *showTOC && len(m.Chapters) > 0 {
		m.tocVisible = true
	}

	a := app.New()
	w := a.NewWindow("Skim - Speed Reader")

	current, total := m.Progress()
	statusLabel := widget.NewLabel(fmt.Sprintf("Word %d/%d | %d WPM | Font: %.0f [PAUSED]",
		current, total, m.WPM, m.fontSize))
	statusLabel.Alignment = fyne.TextAlignCenter

	tocHint := ""
	if len(m.Chapters) > 0 {
		tocHint = "  T: contents"
	}
	controlsLabel := widget.NewLabel("SPACE: pause  ↑/↓: speed  +/-: font  ←/→: sentence  R: restart" + tocHint + "  F: fullscreen  Q: quit")
	controlsLabel.Alignment = fyne.TextAlignCenter

	wordContainer := container.NewMax()

	var tocList *widget.List
	var tocPanel *container.Split
	var mainContainer *fyne.Container

	if len(m.Chapters) > 0 {
		tocList = widget.NewList(
			func() int { return len(m.Chapters) },
			func() fyne.CanvasObject {
				return container.NewVBox(
					widget.NewLabel("Title"),
					widget.NewLabel("Position"),
				)
			},
			func(id widget.ListItemID, obj fyne.CanvasObject) {
				ch := m.Chapters[id]
				vbox := obj.(*fyne.Container)
				titleLabel := vbox.Objects[0].(*widget.Label)
				posLabel := vbox.Objects[1].(*widget.Label)

				titleLabel.SetText(ch.Title)
				titleLabel.TextStyle.Bold = true
				posLabel.SetText(fmt.Sprintf("word %d", ch.Index+1))
			},
		)

		tocList.OnSelected = func(id widget.ListItemID) {
			if id < len(m.Chapters) {
				m.JumpToChapter(id)
				m.tocVisible = false
				tocPanel.Leading.Hide()
				tocPanel.Refresh()
			}
		}
	}

	readingContent := container.NewBorder(
		statusLabel,
		controlsLabel,
		nil, nil,
		wordContainer,
	)

	if len(m.Chapters) > 0 {
		tocContainer := container.NewBorder(
			widget.NewLabel("Table of Contents"),
			widget.NewLabel("Click to jump • T to close"),
			nil, nil,
			tocList,
		)

		tocPanel = container.NewHSplit(tocContainer, readingContent)
		tocPanel.Offset = 0.33

		if !m.tocVisible {
			tocContainer.Hide()
		}

		mainContainer = container.NewMax(tocPanel)
	} else {
		mainContainer = container.NewMax(readingContent)
	}

	ticker := time.NewTicker(m.Delay())
	done := make(chan bool)
	var closeOnce sync.Once

	updateDisplay := func() {
		if m.CurrentIndex >= len(m.Words) {
			m.JumpTo(len(m.Words) - 1)
		}

		canvasWidth := w.Canvas().Size().Width
		if canvasWidth <= 0 {
			canvasWidth = 800
		}

		wordContainer.Objects = []fyne.CanvasObject{
			createWordDisplay(m.CurrentWord(), m.fontSize, canvasWidth),
		}
		wordContainer.Refresh()

		pauseText := ""
		if m.Paused {
			pauseText = " [PAUSED]"
		}
		chapter := m.CurrentChapterTitle()
		if chapter != "" {
			chapter = " | " + chapter
		}
		current, total := m.Progress()
		statusLabel.SetText(fmt.Sprintf("Word %d/%d%s | %d WPM | Font: %.0f%s",
			current, total, chapter, m.WPM, m.fontSize, pauseText))
	}

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if !m.Paused && !m.AtEnd() {
					m.Advance()
					fyne.Do(updateDisplay)
				} else if m.AtEnd() && !m.Paused {
					m.Paused = true
					fyne.Do(updateDisplay)
				}
			}
		}
	}()

	w.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		switch key.Name {
		case fyne.KeySpace:
			m.Paused = !m.Paused
			updateDisplay()

		case fyne.KeyUp:
			m.WPM = m.cfg.clampWPM(m.WPM + m.cfg.WPMStep)
			ticker.Reset(m.Delay())
			updateDisplay()

		case fyne.KeyDown:
			m.WPM = m.cfg.clampWPM(m.WPM - m.cfg.WPMStep)
			ticker.Reset(m.Delay())
			updateDisplay()

		case fyne.KeyLeft:
			now := time.Now()
			if now.Sub(m.LastArrowPress) > m.cfg.ArrowPause {
				m.Paused = true
			}
			m.LastArrowPress = now
			m.JumpToPrevSentence()
			updateDisplay()

		case fyne.KeyRight:
			now := time.Now()
			if now.Sub(m.LastArrowPress) > m.cfg.ArrowPause {
				m.Paused = true
			}
			m.LastArrowPress = now
			m.JumpToNextSentence()
			updateDisplay()

		case fyne.KeyF:
			w.SetFullScreen(!w.FullScreen())

		case fyne.KeyQ:
			m.sess.save()
			closeOnce.Do(func() {
				close(done)
			})
			a.Quit()
		}
	})

	w.Canvas().SetOnTypedRune(func(r rune) {
		switch r {
		case 't', 'T':
			if tocPanel != nil && len(m.Chapters) > 0 {
				m.tocVisible = !m.tocVisible
				if m.tocVisible {
					m.Paused = true
					tocPanel.Leading.Show()
				} else {
					tocPanel.Leading.Hide()
				}
				tocPanel.Refresh()
				updateDisplay()
			}

		case '[':
			m.Paused = true
			m.PrevChapter()
			updateDisplay()

		case ']':
			m.Paused = true
			m.NextChapter()
			updateDisplay()

		case 'r', 'R':
			m.JumpTo(0)
			if m.sess.Store != nil && m.sess.FileHash != "" {
				m.sess.Store.Clear(m.sess.FileHash)
			}
			updateDisplay()

		case '+', '=':
			if m.fontSize < m.cfg.MaxFontSize {
				m.fontSize += m.cfg.FontSizeStep
				updateDisplay()
			}
		case '-':
			if m.fontSize > m.cfg.MinFontSize {
				m.fontSize -= m.cfg.FontSizeStep
				updateDisplay()
			}
		}
	})

	w.Resize(fyne.NewSize(800, 600))
	w.SetContent(mainContainer)

	// Pause and redraw when the window width changes
	var lastWidth float32 = 800
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				time.Sleep(100 * time.Millisecond)
				currentWidth := w.Canvas().Size().Width
				if currentWidth > 0 && currentWidth != lastWidth {
					lastWidth = currentWidth
					m.Paused = true
					fyne.Do(updateDisplay)
				}
			}
		}
	}()

	w.SetOnClosed(func() {
		m.sess.save()
		closeOnce.Do(func() {
			close(done)
		})
	})

	// Draw the first word once the window is up
	go func() {
		time.Sleep(100 * time.Millisecond)
		fyne.Do(updateDisplay)
	}()

	w.ShowAndRun()
}

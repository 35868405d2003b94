package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"musicplay/internal/model"
	"musicplay/pkg/spec"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	playingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	footerStyle  = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderTop(true).BorderForeground(lipgloss.Color("238"))
)

var blocks = []rune("▁▂▃▄▅▆▇█")

const (
	spectrumRows = 4
	meterWidth   = 8
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(spec.AppName))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d songs", m.status.Count)))
	b.WriteString("\n\n")

	footer := m.footer()
	listHeight := m.height - lipgloss.Height(footer) - 3
	if listHeight < 1 {
		listHeight = 1
	}

	rows := m.player.Adapter().Render(m.cursor, listHeight)
	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("No music found. Press r to scan again."))
		b.WriteString("\n")
	}
	for _, r := range rows {
		b.WriteString(m.row(r.Song, r.Cursor))
		b.WriteString("\n")
	}

	b.WriteString(footer)
	return b.String()
}

func (m Model) row(s model.Song, cursor bool) string {
	mark := "  "
	if s.IsPlaying {
		mark = "♪ "
	}
	dur := s.DurationString()
	width := m.width - len([]rune(mark)) - len(dur) - 2
	line := mark + fit(s.DisplayLine(), width) + "  " + dur

	switch {
	case cursor:
		return cursorStyle.Render(line)
	case s.IsPlaying:
		return playingStyle.Render(line)
	}
	return line
}

func (m Model) footer() string {
	var lines []string

	st := m.status
	if st.Song != nil {
		state := "▶"
		if st.Paused {
			state = "⏸"
		} else if !st.Playing {
			state = "■"
		}
		lines = append(lines, fmt.Sprintf("%s %s", state, fit(st.Song.DisplayLine(), m.width-2)))

		pct := 0.0
		if st.Length > 0 {
			pct = st.Position / st.Length
		}
		elapsed := model.Song{Duration: st.PositionDuration()}.DurationString()
		total := model.Song{Duration: st.LengthDuration()}.DurationString()
		line := fmt.Sprintf("%s %s / %s  vol %+.1f", m.bar.ViewAs(pct), elapsed, total, st.VolumeDB)
		if m.opts.Samples != nil {
			line += " " + barStyle.Render(renderMeter(m.level, meterWidth))
		}
		lines = append(lines, line)
	} else {
		lines = append(lines, dimStyle.Render("Nothing playing"))
	}

	if m.opts.Visualizer && len(m.levels) > 0 {
		lines = append(lines, barStyle.Render(renderSpectrum(m.levels, spectrumRows)))
	}
	if m.message != "" {
		lines = append(lines, errStyle.Render(m.message))
	}

	h := help.New()
	h.Width = m.width
	lines = append(lines, h.ShortHelpView(keys.help()))

	return footerStyle.Width(m.width).Render(strings.Join(lines, "\n"))
}

// renderMeter draws a 0..1 level as a bar of width cells.
func renderMeter(level float64, width int) string {
	n := int(level*float64(width) + 0.5)
	n = max(0, min(width, n))
	return strings.Repeat("▮", n) + strings.Repeat("▯", width-n)
}

// renderSpectrum draws levels as rows of block characters, top row first.
func renderSpectrum(levels []float64, rows int) string {
	out := make([]string, rows)
	steps := len(blocks)
	for r := 0; r < rows; r++ {
		var line strings.Builder
		floor := float64(rows-1-r) / float64(rows)
		for _, lv := range levels {
			fill := (lv - floor) * float64(rows)
			switch {
			case fill <= 0:
				line.WriteRune(' ')
			case fill >= 1:
				line.WriteRune(blocks[steps-1])
			default:
				line.WriteRune(blocks[int(fill*float64(steps-1))])
			}
			line.WriteRune(' ')
		}
		out[r] = line.String()
	}
	return strings.Join(out, "\n")
}

// fit truncates s to width runes with an ellipsis.
func fit(s string, width int) string {
	r := []rune(s)
	if width <= 0 {
		return ""
	}
	if len(r) <= width {
		return s + strings.Repeat(" ", width-len(r))
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/game"
	"github.com/vovakirdan/pong-arena/internal/netsync"
	"github.com/vovakirdan/pong-arena/internal/powerup"
)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault:       lipgloss.NewStyle(),
	core.ColorGray:          lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	core.ColorWhite:         lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	core.ColorBrightWhite:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	core.ColorBrightCyan:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	core.ColorBrightMagenta: lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	core.ColorBrightYellow:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	core.ColorGreen:         lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	core.ColorRed:           lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	core.ColorBlue:          lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	core.ColorBrightGreen:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	core.ColorBrightRed:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			startColor := s.GetCell(x, y).Color

			var run strings.Builder
			for x < s.Width() {
				cell := s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// viewport maps table coordinates onto the cells inside the field border.
type viewport struct {
	x0, y0 int // top-left cell inside the border
	w, h   int
	table  game.Table
}

func newViewport(screenW, screenH int, t game.Table) viewport {
	return viewport{x0: 1, y0: 1, w: max(screenW-2, 1), h: max(screenH-2, 1), table: t}
}

// cell returns the screen cell containing table point (x, y).
func (v viewport) cell(x, y float64) (int, int) {
	cx := int(x / v.table.Width * float64(v.w))
	cy := int(y / v.table.Height * float64(v.h))
	return v.x0 + core.Clamp(cx, 0, v.w-1), v.y0 + core.Clamp(cy, 0, v.h-1)
}

// rows returns how many rows a vertical table extent covers, at least one.
func (v viewport) rows(extent float64) int {
	return max(1, int(math.Round(extent/v.table.Height*float64(v.h))))
}

// cols returns how many columns a horizontal table extent covers, at least one.
func (v viewport) cols(extent float64) int {
	return max(1, int(math.Round(extent/v.table.Width*float64(v.w))))
}

var powerUpColors = map[powerup.Type]core.Color{
	powerup.PaddleGrow:   core.ColorBrightGreen,
	powerup.PaddleShrink: core.ColorBrightRed,
	powerup.BallGrow:     core.ColorGreen,
	powerup.BallShrink:   core.ColorRed,
	powerup.PaddleSlow:   core.ColorBlue,
}

// drawField draws the table, walls, paddles, power-ups and ball. The local
// player's paddle is cyan and the opponent's magenta.
func drawField(s *core.Screen, v netsync.View, t game.Table) {
	s.Clear()
	s.DrawBox(0, 0, s.Width(), s.Height(), core.ColorGray)
	vp := newViewport(s.Width(), s.Height(), t)

	mid, _ := vp.cell(t.Width/2, 0)
	for y := vp.y0; y < vp.y0+vp.h; y += 2 {
		s.SetColored(mid, y, '┊', core.ColorGray)
	}

	for _, r := range v.Walls {
		x, y := vp.cell(r.MinX, r.MinY)
		s.DrawRect(x, y, vp.cols(r.Width()), vp.rows(r.Height()), '▓', core.ColorGray)
	}

	drawPaddle := func(p game.Paddle, c core.Color) {
		x, top := vp.cell(p.X, p.Y-p.Height/2)
		s.DrawVLine(x, top, vp.rows(p.Height), '█', c)
	}
	drawPaddle(v.Own, core.ColorBrightCyan)
	drawPaddle(v.Opponent, core.ColorBrightMagenta)

	for _, pu := range v.PowerUps {
		if pu.Active {
			continue
		}
		c, ok := powerUpColors[pu.Type]
		if !ok {
			c = core.ColorWhite
		}
		x, y := vp.cell(pu.X, pu.Y)
		s.SetColored(x, y, pu.Type.Glyph(), c)
	}

	bx, by := vp.cell(v.Ball.X, v.Ball.Y)
	s.SetColored(bx, by, '●', core.ColorBrightYellow)
}

package core

import (
	"strings"
	"testing"
)

// fieldBox is a bordered 12x6 screen like the one the match view starts from.
func fieldBox() *Screen {
	s := NewScreen(12, 6)
	s.DrawBox(0, 0, s.Width(), s.Height(), ColorGray)
	return s
}

func TestFieldBoxOutline(t *testing.T) {
	s := fieldBox()

	want := []string{
		"┌──────────┐",
		"│          │",
		"│          │",
		"│          │",
		"│          │",
		"└──────────┘",
	}
	if got := s.String(); got != strings.Join(want, "\n") {
		t.Errorf("box outline:\n%s\nwant:\n%s", got, strings.Join(want, "\n"))
	}
	for _, pt := range [][2]int{{0, 0}, {11, 5}, {5, 0}, {0, 3}} {
		if c := s.GetCell(pt[0], pt[1]); c.Color != ColorGray {
			t.Errorf("border cell %v colour = %v, want gray", pt, c.Color)
		}
	}
	if c := s.GetCell(5, 3); c != blank {
		t.Errorf("interior cell = %+v, want blank", c)
	}
}

func TestDrawBoxTooSmallIsSkipped(t *testing.T) {
	for _, size := range [][2]int{{1, 5}, {5, 1}, {0, 0}} {
		s := NewScreen(6, 6)
		s.DrawBox(0, 0, size[0], size[1], ColorGray)
		if strings.TrimSpace(strings.ReplaceAll(s.String(), "\n", "")) != "" {
			t.Errorf("DrawBox(%dx%d) drew on the screen:\n%s", size[0], size[1], s.String())
		}
	}
}

func TestPaddleLinesClipAtScreenEdge(t *testing.T) {
	tests := []struct {
		name    string
		x, y, n int
		want    int // cells painted
	}{
		{"inside", 1, 1, 3, 3},
		{"past the bottom", 1, 4, 5, 2},
		{"starting above the top", 1, -2, 4, 2},
		{"off screen", 20, 0, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScreen(4, 6)
			s.DrawVLine(tt.x, tt.y, tt.n, '█', ColorBrightCyan)
			if got := strings.Count(s.String(), "█"); got != tt.want {
				t.Errorf("painted %d cells, want %d", got, tt.want)
			}
		})
	}
}

func TestWallRectKeepsColourAndClips(t *testing.T) {
	s := NewScreen(5, 4)
	s.DrawRect(3, 2, 4, 4, '▓', ColorGray)

	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			c := s.GetCell(x, y)
			inside := x >= 3 && y >= 2
			if inside && (c.Rune != '▓' || c.Color != ColorGray) {
				t.Errorf("cell (%d,%d) = %+v, want gray wall", x, y, c)
			}
			if !inside && c != blank {
				t.Errorf("cell (%d,%d) = %+v, want blank", x, y, c)
			}
		}
	}
}

func TestOverlayTextCentred(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"YOU WIN", "  YOU WIN   "},
		{"[✓] P1", "   [✓] P1   "},
		{"a very long overlay line", "long overlay"},
	}
	for _, tt := range tests {
		s := NewScreen(12, 1)
		s.DrawTextCentered(0, tt.text, ColorBrightWhite)
		if got := s.Row(0); got != tt.want {
			t.Errorf("DrawTextCentered(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}

	s := NewScreen(12, 1)
	s.DrawTextCentered(0, "YOU WIN", ColorBrightWhite)
	if c := s.GetCell(2, 0); c.Rune != 'Y' || c.Color != ColorBrightWhite {
		t.Errorf("overlay cell = %+v, want bright white Y", c)
	}
	if c := s.GetCell(1, 0); c != blank {
		t.Errorf("cell before overlay = %+v, want blank", c)
	}
}

func TestClearDropsColours(t *testing.T) {
	s := fieldBox()
	s.SetColored(4, 2, '●', ColorBrightYellow)
	s.Clear()
	for y := 0; y < s.Height(); y++ {
		for x := 0; x < s.Width(); x++ {
			if c := s.GetCell(x, y); c != blank {
				t.Fatalf("cell (%d,%d) = %+v after Clear", x, y, c)
			}
		}
	}
}

func TestResizeKeepsCellsThatFit(t *testing.T) {
	s := NewScreen(6, 4)
	s.SetColored(1, 1, '●', ColorBrightYellow)
	s.SetColored(5, 3, '█', ColorBrightMagenta)

	s.Resize(3, 3)
	if s.Width() != 3 || s.Height() != 3 {
		t.Fatalf("size = %dx%d, want 3x3", s.Width(), s.Height())
	}
	if c := s.GetCell(1, 1); c.Rune != '●' || c.Color != ColorBrightYellow {
		t.Errorf("ball cell lost on shrink: %+v", c)
	}

	s.Resize(8, 5)
	if c := s.GetCell(1, 1); c.Rune != '●' {
		t.Errorf("ball cell lost on grow: %+v", c)
	}
	if c := s.GetCell(5, 3); c != blank {
		t.Errorf("cell cropped by the shrink came back: %+v", c)
	}
	if got := len([]rune(s.Row(4))); got != 8 {
		t.Errorf("Row(4) has %d runes, want 8", got)
	}
}

func TestNegativeSizeIsEmpty(t *testing.T) {
	s := NewScreen(-3, -1)
	if s.Width() != 0 || s.Height() != 0 || s.String() != "" {
		t.Errorf("NewScreen(-3, -1) = %dx%d %q", s.Width(), s.Height(), s.String())
	}
	s.Set(0, 0, 'x') // must not panic
	if s.Get(0, 0) != ' ' {
		t.Error("Get on an empty screen should return a space")
	}
}

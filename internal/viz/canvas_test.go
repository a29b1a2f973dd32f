package viz

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestCanvasSet(t *testing.T) {
	tests := []struct {
		name string
		x, y int
		want rune
	}{
		{"top left", 0, 0, 0x2801},
		{"top right", 1, 0, 0x2808},
		{"third row", 0, 2, 0x2804},
		{"bottom right", 1, 3, 0x2880},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCanvas(2, 2)
			c.Set(tt.x, tt.y)
			if got := c.Grid[0][0]; got != tt.want {
				t.Errorf("Grid[0][0] = %U, want %U", got, tt.want)
			}
		})
	}
}

func TestCanvasOutOfBounds(t *testing.T) {
	c := NewCanvas(2, 2)
	c.Set(-1, 0)
	c.Set(0, -1)
	c.Set(4, 0)
	c.Set(0, 8)
	if c.String() != NewCanvas(2, 2).String() {
		t.Error("out of bounds dots should be ignored")
	}
}

func TestCanvasColor(t *testing.T) {
	c := NewCanvas(3, 1)
	c.SetColor(0, 0, 2)
	c.SetColor(1, 1, 5)
	c.Set(2, 0)

	if c.Colors[0][0] != 5 {
		t.Errorf("Colors[0][0] = %d, want 5", c.Colors[0][0])
	}
	if c.Colors[0][1] != -1 {
		t.Errorf("Colors[0][1] = %d, want -1", c.Colors[0][1])
	}

	c.Unset(0, 0)
	if c.Colors[0][0] != 5 {
		t.Errorf("cell with dots left lost its color")
	}
	c.Unset(1, 1)
	if c.Grid[0][0] != blank || c.Colors[0][0] != -1 {
		t.Errorf("emptied cell = %U color %d, want blank uncolored", c.Grid[0][0], c.Colors[0][0])
	}
}

func TestCanvasClear(t *testing.T) {
	c := NewCanvas(4, 2)
	c.DrawRect(0, 0, 7, 7)
	c.Clear()
	for i := range c.Grid {
		for j := range c.Grid[i] {
			if c.Grid[i][j] != blank || c.Colors[i][j] != -1 {
				t.Fatalf("cell (%d,%d) not cleared", i, j)
			}
		}
	}
}

func TestDrawLine(t *testing.T) {
	c := NewCanvas(4, 1)
	c.DrawLine(0, 0, 7, 0)
	for col := 0; col < 4; col++ {
		if got := c.Grid[0][col]; got != 0x2809 {
			t.Errorf("Grid[0][%d] = %U, want %U", col, got, rune(0x2809))
		}
	}
}

func TestCanvasRender(t *testing.T) {
	c := NewCanvas(3, 2)
	c.SetColor(0, 0, 0)
	c.SetColor(4, 4, 1)

	palette := []lipgloss.Style{lipgloss.NewStyle(), lipgloss.NewStyle()}
	out := c.Render(palette)
	if got := strings.Count(out, "\n"); got != 2 {
		t.Errorf("Render lines = %d, want 2", got)
	}
	if !strings.ContainsRune(out, 0x2801) {
		t.Error("Render lost the colored dot")
	}
	if plain := c.Render(nil); plain != c.String() {
		t.Errorf("Render(nil) = %q, want %q", plain, c.String())
	}
}

func TestHexColor(t *testing.T) {
	tests := []struct {
		r, g, b int
		want    string
	}{
		{0, 0, 0, "#000000"},
		{255, 128, 1, "#ff8001"},
		{300, -4, 16, "#ff0010"},
	}
	for _, tt := range tests {
		if got := hexColor(tt.r, tt.g, tt.b); got != tt.want {
			t.Errorf("hexColor(%d,%d,%d) = %s, want %s", tt.r, tt.g, tt.b, got, tt.want)
		}
		r, g, b := parseHex(tt.want)
		if hexColor(r, g, b) != tt.want {
			t.Errorf("parseHex(%s) = %d,%d,%d", tt.want, r, g, b)
		}
	}
}

func TestNextTheme(t *testing.T) {
	seen := map[string]bool{}
	th := Themes[0]
	for range Themes {
		seen[th.Name] = true
		th = NextTheme(th.Name)
	}
	if len(seen) != len(Themes) || th.Name != Themes[0].Name {
		t.Errorf("NextTheme did not cycle through %v", ThemeNames())
	}
	if GetTheme("nope").Name != Themes[0].Name {
		t.Error("unknown theme should fall back to the first")
	}
}

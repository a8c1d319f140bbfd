package render

import (
	"strconv"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/pfx/parameter"
)

// TerminalTarget rasterizes pass elements onto a tcell screen, one cell per pixel
type TerminalTarget struct {
	screen     tcell.Screen
	glyphs     []rune
	background tcell.Color
}

// NewTerminalTarget draws on screen with the default age glyph ramp
func NewTerminalTarget(screen tcell.Screen) *TerminalTarget {
	return &TerminalTarget{
		screen:     screen,
		glyphs:     []rune(parameter.TerminalGlyphs),
		background: tcell.ColorBlack,
	}
}

// Size returns the screen size in cells
func (t *TerminalTarget) Size() (int, int) { return t.screen.Size() }

// Draw clears the screen and plots every vertex; GPU draws show as a count in the corner
func (t *TerminalTarget) Draw(elements []*Element) {
	bg := tcell.StyleDefault.Background(t.background)
	t.screen.Fill(' ', bg)
	w, h := t.screen.Size()

	gpu := 0
	for _, e := range elements {
		if e.Draw != nil {
			gpu += e.Draw.Count
		}
		for _, v := range e.Vertices {
			x, y := int(v.Screen.X()), int(v.Screen.Y())
			if x < 0 || y < 0 || x >= w || y >= h || v.Alpha <= 0 {
				continue
			}
			style := bg.Foreground(rgbaColor(v.Color, v.Alpha))
			t.screen.SetContent(x, y, t.glyph(v.Age), nil, style)
		}
	}
	if gpu > 0 {
		t.text(0, 0, "gpu:"+strconv.Itoa(gpu), bg.Foreground(tcell.ColorYellow))
	}
}

// Show presents the frame
func (t *TerminalTarget) Show() { t.screen.Show() }

func (t *TerminalTarget) glyph(age float32) rune {
	if len(t.glyphs) == 0 {
		return '*'
	}
	i := int(age * float32(len(t.glyphs)))
	return t.glyphs[min(max(i, 0), len(t.glyphs)-1)]
}

func (t *TerminalTarget) text(x, y int, s string, style tcell.Style) {
	for i, r := range []rune(s) {
		t.screen.SetContent(x+i, y, r, nil, style)
	}
}

// rgbaColor unpacks 0xRRGGBBAA, scaling by alpha toward black
func rgbaColor(c uint32, alpha float32) tcell.Color {
	a := min(max(alpha, 0), 1)
	r := int32(float32((c>>24)&0xff) * a)
	g := int32(float32((c>>16)&0xff) * a)
	b := int32(float32((c>>8)&0xff) * a)
	return tcell.NewRGBColor(r, g, b)
}

package layout

// ColorPair is the fill and accent/border color for one calendar.
type ColorPair struct {
	Fill   Color
	Border Color
}

// DefaultPalette cycles blue, green, yellow, red, purple.
var DefaultPalette = []ColorPair{
	{Fill: mustHex("#e8f0fe"), Border: mustHex("#4285f4")},
	{Fill: mustHex("#e6f4ea"), Border: mustHex("#34a853")},
	{Fill: mustHex("#fef7e0"), Border: mustHex("#fbbc04")},
	{Fill: mustHex("#fce8e6"), Border: mustHex("#ea4335")},
	{Fill: mustHex("#f3e8fd"), Border: mustHex("#a142f4")},
}

// ColorAssigner hands out palette entries to calendar names in order of
// first appearance. It is meant for a single layout pass and is not safe
// for concurrent use.
type ColorAssigner struct {
	palette []ColorPair
	index   map[string]int
}

// NewColorAssigner returns an assigner over DefaultPalette.
func NewColorAssigner() *ColorAssigner {
	return NewColorAssignerWithPalette(DefaultPalette)
}

// NewColorAssignerWithPalette returns an assigner over palette, which must
// not be empty.
func NewColorAssignerWithPalette(palette []ColorPair) *ColorAssigner {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return &ColorAssigner{
		palette: append([]ColorPair(nil), palette...),
		index:   make(map[string]int),
	}
}

// Index returns the palette index for calendar, assigning the next one if
// the name has not been seen yet.
func (a *ColorAssigner) Index(calendar string) int {
	idx, ok := a.index[calendar]
	if !ok {
		idx = len(a.index) % len(a.palette)
		a.index[calendar] = idx
	}
	return idx
}

// ColorFor returns the fill and border colors for calendar.
func (a *ColorAssigner) ColorFor(calendar string) (fill, border Color) {
	p := a.palette[a.Index(calendar)]
	return p.Fill, p.Border
}

// Len reports how many distinct calendars have been seen.
func (a *ColorAssigner) Len() int { return len(a.index) }

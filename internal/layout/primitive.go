package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an opaque RGB color.
type Color struct {
	R, G, B uint8
}

// Hex parses "#rrggbb".
func Hex(s string) (Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("color %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

func mustHex(s string) Color {
	c, err := Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// FontStyle follows the PDF core-font convention: "" regular, "B" bold,
// "I" italic.
type FontStyle string

const (
	Regular FontStyle = ""
	Bold    FontStyle = "B"
	Italic  FontStyle = "I"
)

// Font selects a typeface for a Text primitive. Size is in points.
type Font struct {
	Family string
	Style  FontStyle
	Size   float64
}

// Align is the horizontal anchor of a Text primitive's X coordinate.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Primitive is one drawing command. Coordinates are page points with the
// origin at the top-left corner and y growing downwards. Later primitives
// paint over earlier ones.
type Primitive interface {
	primitive()
}

// FilledRect is a solid rectangle with (X, Y) at its top-left corner.
type FilledRect struct {
	X, Y, W, H float64
	Fill       Color
}

// StrokedRect is a rectangle outline.
type StrokedRect struct {
	X, Y, W, H float64
	Stroke     Color
	LineWidth  float64
}

// RoundedRect is a rectangle with rounded corners, either filled or
// outlined.
type RoundedRect struct {
	X, Y, W, H float64
	Radius     float64
	Color      Color
	Filled     bool
	LineWidth  float64
}

// Line is a straight stroke.
type Line struct {
	X1, Y1, X2, Y2 float64
	Stroke         Color
	LineWidth      float64
}

// Text is a single run of text; Y is the baseline.
type Text struct {
	X, Y  float64
	Text  string
	Font  Font
	Color Color
	Align Align
}

func (FilledRect) primitive()  {}
func (StrokedRect) primitive() {}
func (RoundedRect) primitive() {}
func (Line) primitive()        {}
func (Text) primitive()        {}

// Package layout turns a day's PlannerData into an ordered list of drawing
// primitives for one fixed-size page. It does no I/O; the same input always
// yields the same primitives, the footer timestamp being the only value
// taken from the caller's clock.
package layout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dailyplanner/internal/model"
)

var (
	// ErrInvalidHours is returned when the visible hour range is empty or
	// outside 0..24.
	ErrInvalidHours = errors.New("day start hour must be before day end hour, within 0..24")
	// ErrPageTooSmall is returned when the fixed sections leave no room
	// for the schedule and task columns.
	ErrPageTooSmall = errors.New("page too small for planner layout")
	ErrNoData       = errors.New("planner data is nil")
)

// Input is everything one layout pass depends on.
type Input struct {
	Data         *model.PlannerData
	DayStartHour int
	DayEndHour   int
	// Page defaults to A4 when zero.
	Page Page
	// Colors is owned by this pass. Nil means a fresh assigner.
	Colors *ColorAssigner
	// GeneratedAt is printed in the footer.
	GeneratedAt time.Time
}

// Layout computes the page. Calendars get palette colors in the order
// their first event appears in Data.Events.
func Layout(in Input) ([]Primitive, error) {
	if in.Data == nil {
		return nil, ErrNoData
	}
	if in.DayStartHour < 0 || in.DayEndHour > 24 || in.DayStartHour >= in.DayEndHour {
		return nil, fmt.Errorf("%w: got %d..%d", ErrInvalidHours, in.DayStartHour, in.DayEndHour)
	}

	page := in.Page
	if page == (Page{}) {
		page = A4()
	}
	f := newFrame(page)
	hours := in.DayEndHour - in.DayStartHour
	if f.middleBottom-(f.middleTop+scheduleTitleGap) < float64(hours)*minRowHeight || f.todoWidth <= 0 {
		return nil, ErrPageTooSmall
	}

	colors := in.Colors
	if colors == nil {
		colors = NewColorAssigner()
	}
	for _, ev := range in.Data.Events {
		colors.Index(ev.CalendarName)
	}

	c := &canvas{}
	c.header(f, in.Data.Date)
	c.readiness(f)
	c.schedule(f, in.Data, in.DayStartHour, in.DayEndHour, colors)
	c.todos(f, in.Data)
	c.billable(f)
	c.reflection(f)
	c.footer(f, in.GeneratedAt)
	return c.prims, nil
}

type canvas struct {
	prims []Primitive
}

func (c *canvas) add(p Primitive) {
	c.prims = append(c.prims, p)
}

func (c *canvas) text(x, y float64, s string, fnt Font, col Color) {
	c.add(Text{X: x, Y: y, Text: s, Font: fnt, Color: col})
}

func (c *canvas) line(x1, y1, x2, y2 float64, col Color, width float64) {
	c.add(Line{X1: x1, Y1: y1, X2: x2, Y2: y2, Stroke: col, LineWidth: width})
}

func (c *canvas) header(f frame, day model.Date) {
	c.add(RoundedRect{
		X: f.left, Y: f.page.MarginTop, W: f.contentWidth, H: headerHeight,
		Radius: headerRadius, Color: colorHeaderBG, Filled: true,
	})
	// Baseline sits so the cap height is roughly centred in the bar.
	baseline := f.headerBottom - (headerHeight-fontSizeTitle)/2
	label := day.In(time.UTC).Format("Monday, 2 January 2006")
	c.text(f.left+6*MM, baseline, label, font(Bold, fontSizeTitle), colorHeaderText)
}

func (c *canvas) readiness(f frame) {
	y := f.headerBottom + 7*MM
	c.text(f.left, y, "Readiness", font(Bold, fontSizeSection), colorSectionHeader)

	y += 6 * MM
	const boxW, boxH = 22 * MM, 5 * MM
	small := font(Regular, fontSizeSmall)
	c.text(f.left, y-1*MM, "Readiness:", small, colorLabel)
	c.add(StrokedRect{X: f.left + 18*MM, Y: y - 4*MM, W: boxW, H: boxH, Stroke: colorFieldLine, LineWidth: 0.4})
	c.text(f.left+48*MM, y-1*MM, "Sleep:", small, colorLabel)
	c.add(StrokedRect{X: f.left + 60*MM, Y: y - 4*MM, W: boxW, H: boxH, Stroke: colorFieldLine, LineWidth: 0.4})

	y += 8 * MM
	c.text(f.left, y, "How are you feeling? Why?", font(Italic, fontSizeSmall), colorLabel)
	y += 4 * MM
	c.line(f.left, y, f.right(), y, colorFieldLine, 0.3)
}

func (c *canvas) sectionTitle(f frame, y float64, title string) {
	c.line(f.left, y-sectionRule, f.right(), y-sectionRule, colorDivider, 0.5)
	c.text(f.left, y, title, font(Bold, fontSizeSection), colorSectionHeader)
}

func (c *canvas) billable(f frame) {
	c.sectionTitle(f, f.billableTop, "Billable Hours")
	y := f.billableTop + 5*MM
	for i := 0; i < 2; i++ {
		ly := y + float64(i)*5*MM
		c.line(f.left, ly, f.right(), ly, colorFieldLine, 0.3)
	}
}

func (c *canvas) reflection(f frame) {
	c.sectionTitle(f, f.reflectionTop, "Reflection")
	y := f.reflectionTop + 6*MM

	prompt := font(Italic, fontSizeLabel)
	c.text(f.left, y, "What was best in the day?", prompt, colorLabel)
	c.line(f.left+42*MM, y+0.5*MM, f.right(), y+0.5*MM, colorFieldLine, 0.3)

	y += promptPitch
	c.text(f.left, y, "Day rating:", font(Regular, fontSizeLabel), colorLabel)
	for i := 0; i < ratingSteps; i++ {
		c.add(RoundedRect{
			X: f.left + 22*MM + float64(i)*ratingSpacing, Y: y - 3*MM, W: ratingSize, H: ratingSize,
			Radius: ratingSize / 2, Color: colorFieldLine, LineWidth: 0.4,
		})
	}

	y += promptPitch
	c.text(f.left, y, "What did I learn today?", prompt, colorLabel)
	c.line(f.left+40*MM, y+0.5*MM, f.right(), y+0.5*MM, colorFieldLine, 0.3)

	y += promptPitch
	c.text(f.left, y, "Notes:", prompt, colorLabel)
	y += 4 * MM

	n := int((f.notesBottom - y) / reflectionLinePitch)
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		ly := y + float64(i)*reflectionLinePitch
		c.line(f.left, ly, f.right(), ly, colorFieldLine, 0.3)
	}
}

func (c *canvas) footer(f frame, at time.Time) {
	y := f.page.Height - f.page.MarginBottom + 3*MM
	small := font(Regular, fontSizeFooter)
	c.text(f.left, y, "Generated: "+at.Format("2006-01-02 15:04"), small, colorTodoContext)
	c.add(Text{X: f.right(), Y: y, Text: "Daily Planner", Font: small, Color: colorTodoContext, Align: AlignRight})
}

// truncate cuts s to at most n runes after flattening line breaks.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// charsFit estimates how many characters of the given size fit in width.
func charsFit(width, size float64) int {
	if width <= 0 {
		return 0
	}
	return int(width / (size * charWidthFactor))
}

package layout

// MM is one millimetre in page points.
const MM = 72.0 / 25.4

// Page is the fixed page size and margins, in points.
type Page struct {
	Width, Height float64

	MarginLeft   float64
	MarginRight  float64
	MarginTop    float64
	MarginBottom float64
}

// A4 is a portrait A4 page with the planner's default margins.
func A4() Page {
	return Page{
		Width:        210 * MM,
		Height:       297 * MM,
		MarginLeft:   15 * MM,
		MarginRight:  15 * MM,
		MarginTop:    15 * MM,
		MarginBottom: 12 * MM,
	}
}

// ContentWidth is the width between the side margins.
func (p Page) ContentWidth() float64 {
	return p.Width - p.MarginLeft - p.MarginRight
}

// Section sizes and spacing.
const (
	headerHeight     = 12 * MM
	headerRadius     = 3 * MM
	readinessHeight  = 25 * MM
	billableHeight   = 12 * MM
	reflectionHeight = 42 * MM
	footerHeight     = 5 * MM
	billablePad      = 4 * MM
	middleGap        = 5 * MM
	// sectionRule is how far a bottom block's divider sits above its title
	// baseline.
	sectionRule     = 6 * MM
	middleBottomPad = 2 * MM

	scheduleWidthRatio = 0.58
	todoWidthRatio     = 0.42
	columnGap          = 5 * MM
)

// Schedule column.
const (
	scheduleTitleGap = 5 * MM
	bannerBarHeight  = 5 * MM
	// bannerHeight is the vertical space one all-day banner takes from the
	// hour grid, including the gap below it.
	bannerHeight   = 6 * MM
	bannerAccent   = 1.5 * MM
	hourLabelWidth = 12 * MM
	maxRowHeight   = 12 * MM
	minRowHeight   = 3 * MM
	eventAccent    = 1.2 * MM
	eventInset     = 1 * MM
	compactHeight  = 7 * MM
	minLabelHeight = 3 * MM
	locationHeight = 12 * MM
	titleCap       = 40
	locationCap    = 35
	bannerCap      = 70
)

// Todo column.
const (
	todoTitleGap    = 6 * MM
	todoBottomPad   = 5 * MM
	todoRowPitch    = 4.5 * MM
	todoDetailPitch = 3.2 * MM
	todoGroupGap    = 2 * MM
	checkboxSize    = 2.8 * MM
	// charWidthFactor approximates the average Helvetica glyph width as a
	// fraction of the font size.
	charWidthFactor = 0.4
)

// Reflection block.
const (
	reflectionLinePitch = 4.5 * MM
	promptPitch         = 7 * MM
	ratingSteps         = 5
	ratingSize          = 3.5 * MM
	ratingSpacing       = 6 * MM
)

const fontFamily = "Helvetica"

// Font sizes in points.
const (
	fontSizeTitle   = 16
	fontSizeSection = 11
	fontSizeHour    = 8
	fontSizeEvent   = 8
	fontSizeTodo    = 8.5
	fontSizeContext = 8
	fontSizeLabel   = 8
	fontSizeSmall   = 7
	fontSizeFooter  = 6
)

var (
	colorHeaderBG      = mustHex("#1a1a2e")
	colorHeaderText    = mustHex("#ffffff")
	colorHourLine      = mustHex("#d0d0d0")
	colorHourText      = mustHex("#555555")
	colorEventText     = mustHex("#1a1a2e")
	colorTodoCheckbox  = mustHex("#666666")
	colorTodoText      = mustHex("#1a1a2e")
	colorTodoContext   = mustHex("#888888")
	colorTodoProject   = mustHex("#aaaaaa")
	colorOverdue       = mustHex("#cc0000")
	colorSectionHeader = mustHex("#1a1a2e")
	colorDivider       = mustHex("#cccccc")
	colorLabel         = mustHex("#555555")
	colorFieldLine     = mustHex("#bbbbbb")
)

func font(style FontStyle, size float64) Font {
	return Font{Family: fontFamily, Style: style, Size: size}
}

// frame holds the absolute positions of every section for one page.
type frame struct {
	page Page

	left          float64
	contentWidth  float64
	scheduleWidth float64
	todoX         float64
	todoWidth     float64

	headerBottom  float64
	middleTop     float64
	middleBottom  float64
	billableTop   float64
	reflectionTop float64
	notesBottom   float64
}

func newFrame(p Page) frame {
	cw := p.ContentWidth()
	f := frame{
		page:          p,
		left:          p.MarginLeft,
		contentWidth:  cw,
		scheduleWidth: cw*scheduleWidthRatio - columnGap/2,
		todoWidth:     cw*todoWidthRatio - columnGap/2,
	}
	f.todoX = f.left + f.scheduleWidth + columnGap

	f.headerBottom = p.MarginTop + headerHeight
	f.middleTop = f.headerBottom + readinessHeight + middleGap

	f.notesBottom = p.Height - p.MarginBottom - footerHeight
	f.reflectionTop = f.notesBottom - reflectionHeight
	f.billableTop = f.reflectionTop - billableHeight - billablePad
	f.middleBottom = f.billableTop - sectionRule - middleBottomPad
	return f
}

func (f frame) right() float64 { return f.left + f.contentWidth }

package layout

import (
	"fmt"
	"sort"

	"dailyplanner/internal/model"
)

// span is a timed event clipped to the visible hour range.
type span struct {
	ev         model.Event
	start, end float64 // fractional hours
	lane       int
	lanes      int
}

func (c *canvas) schedule(f frame, data *model.PlannerData, startHour, endHour int, colors *ColorAssigner) {
	c.text(f.left, f.middleTop, "Schedule", font(Bold, fontSizeSection), colorSectionHeader)

	hours := endHour - startHour
	y := f.middleTop + scheduleTitleGap
	minGrid := float64(hours) * minRowHeight

	for _, ev := range data.AllDayEvents() {
		if f.middleBottom-(y+bannerHeight) < minGrid {
			break
		}
		c.banner(f, y, ev, colors)
		y += bannerHeight
	}

	gridTop := y
	rowH := (f.middleBottom - gridTop) / float64(hours)
	if rowH > maxRowHeight {
		rowH = maxRowHeight
	}

	hourFont := font(Regular, fontSizeHour)
	for i := 0; i < hours; i++ {
		slotY := gridTop + float64(i)*rowH
		c.text(f.left, slotY+3*MM, fmt.Sprintf("%02d:00", startHour+i), hourFont, colorHourText)
		c.line(f.left+hourLabelWidth, slotY, f.left+f.scheduleWidth, slotY, colorHourLine, 0.3)
	}

	spans := clipEvents(data.TimedEvents(), float64(startHour), float64(endHour))
	assignLanes(spans)

	x := f.left + hourLabelWidth + 1*MM
	w := f.scheduleWidth - hourLabelWidth - 2*MM
	for _, s := range spans {
		top := gridTop + (s.start-float64(startHour))*rowH
		h := (s.end - s.start) * rowH
		laneW := w / float64(s.lanes)
		c.event(s, x+float64(s.lane)*laneW, top, laneW, h, colors)
	}
}

func (c *canvas) banner(f frame, y float64, ev model.Event, colors *ColorAssigner) {
	fill, border := colors.ColorFor(ev.CalendarName)
	c.add(FilledRect{X: f.left, Y: y, W: f.scheduleWidth, H: bannerBarHeight, Fill: fill})
	c.add(FilledRect{X: f.left, Y: y, W: bannerAccent, H: bannerBarHeight, Fill: border})
	c.text(f.left+4*MM, y+3.5*MM, truncate(ev.Title, bannerCap), font(Bold, fontSizeEvent), colorEventText)
}

func (c *canvas) event(s span, x, y, w, h float64, colors *ColorAssigner) {
	fill, border := colors.ColorFor(s.ev.CalendarName)
	c.add(FilledRect{X: x, Y: y, W: w, H: h, Fill: fill})
	c.add(FilledRect{X: x, Y: y, W: eventAccent, H: h, Fill: border})

	tx := x + eventAccent + eventInset
	textW := w - eventAccent - 2*eventInset
	label := timeLabel(s.ev)

	if h < minLabelHeight {
		return
	}
	if h < compactHeight {
		line := label + " " + s.ev.Title
		n := min(titleCap, charsFit(textW, fontSizeSmall))
		c.text(tx, y+h/2+fontSizeSmall*0.35, truncate(line, n), font(Regular, fontSizeSmall), colorEventText)
		return
	}

	c.text(tx, y+3*MM, label, font(Regular, fontSizeSmall), colorHourText)
	n := min(titleCap, charsFit(textW, fontSizeEvent))
	c.text(tx, y+6.2*MM, truncate(s.ev.Title, n), font(Bold, fontSizeEvent), colorEventText)
	if h > locationHeight && s.ev.Location != "" {
		n := min(locationCap, charsFit(textW, fontSizeSmall))
		c.text(tx, y+9.5*MM, truncate("@ "+s.ev.Location, n), font(Italic, fontSizeSmall), colorHourText)
	}
}

func timeLabel(ev model.Event) string {
	if ev.End == nil {
		return ev.Start.String()
	}
	return ev.Start.String() + " - " + ev.End.String()
}

// clipEvents converts timed events to hour spans inside [from, to]. Events
// without a usable end last one hour. Spans left empty by clipping are
// dropped.
func clipEvents(events []model.Event, from, to float64) []span {
	out := make([]span, 0, len(events))
	for _, ev := range events {
		if ev.Start == nil {
			continue
		}
		start := ev.Start.Hours()
		end := start + 1
		if ev.End != nil && ev.End.Hours() > start {
			end = ev.End.Hours()
		}
		start = max(start, from)
		end = min(end, to)
		if start >= end {
			continue
		}
		out = append(out, span{ev: ev, start: start, end: end, lanes: 1})
	}
	return out
}

// assignLanes places overlapping spans side by side. Spans that overlap
// transitively share a lane count. Draw order is left unchanged.
func assignLanes(spans []span) {
	order := make([]int, len(spans))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return spans[order[a]].start < spans[order[b]].start
	})

	var (
		cluster    []int
		laneEnds   []float64
		clusterEnd float64
	)
	flush := func() {
		for _, i := range cluster {
			spans[i].lanes = len(laneEnds)
		}
		cluster = cluster[:0]
		laneEnds = laneEnds[:0]
	}
	for _, i := range order {
		s := &spans[i]
		if len(cluster) > 0 && s.start >= clusterEnd {
			flush()
		}
		lane := -1
		for l, end := range laneEnds {
			if end <= s.start {
				lane = l
				break
			}
		}
		if lane < 0 {
			lane = len(laneEnds)
			laneEnds = append(laneEnds, 0)
		}
		laneEnds[lane] = s.end
		s.lane = lane
		if len(cluster) == 0 || s.end > clusterEnd {
			clusterEnd = s.end
		}
		cluster = append(cluster, i)
	}
	flush()
}

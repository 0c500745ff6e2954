package layout

import (
	"sort"
	"strings"
	"time"

	"dailyplanner/internal/model"
	"dailyplanner/internal/todo"
)

const uncategorized = "uncategorized"

type todoGroup struct {
	context string
	todos   []model.Todo
}

// groupTodos buckets todos by context, keeping input order inside each
// group and sorting groups by name.
func groupTodos(todos []model.Todo) []todoGroup {
	idx := make(map[string]int)
	var groups []todoGroup
	for _, t := range todos {
		ctx := t.Context
		if ctx == "" {
			ctx = uncategorized
		}
		i, ok := idx[ctx]
		if !ok {
			i = len(groups)
			idx[ctx] = i
			groups = append(groups, todoGroup{context: ctx})
		}
		groups[i].todos = append(groups[i].todos, t)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].context < groups[b].context
	})
	return groups
}

func (c *canvas) todos(f frame, data *model.PlannerData) {
	x := f.todoX
	divX := x - columnGap/2
	c.line(divX, f.middleTop-3*MM, divX, f.middleBottom, colorDivider, 0.5)
	c.text(x, f.middleTop, "Tasks", font(Bold, fontSizeSection), colorSectionHeader)

	y := f.middleTop + todoTitleGap
	limit := f.middleBottom - todoBottomPad
	if len(data.Todos) == 0 {
		c.text(x, y+3*MM, "No tasks due", font(Italic, fontSizeTodo), colorTodoContext)
		return
	}

	descCap := charsFit(f.todoWidth-checkboxSize-2*MM, fontSizeTodo)
	detailCap := charsFit(f.todoWidth-checkboxSize-2*MM, fontSizeSmall)
	textX := x + checkboxSize + 2*MM

	for _, g := range groupTodos(data.Todos) {
		// A context label is only drawn with room for its first row.
		first, _ := todoDetail(g.todos[0], data.Date)
		need := 2 * todoRowPitch
		if first != "" {
			need += todoDetailPitch
		}
		if y+need > limit {
			return
		}
		y += todoRowPitch
		c.text(x, y, "@ "+g.context, font(Bold, fontSizeContext), colorTodoContext)

		for _, t := range g.todos {
			detail, overdue := todoDetail(t, data.Date)
			need := todoRowPitch
			if detail != "" {
				need += todoDetailPitch
			}
			if y+need > limit {
				return
			}
			y += todoRowPitch
			c.add(StrokedRect{X: x, Y: y - checkboxSize + 0.5*MM, W: checkboxSize, H: checkboxSize, Stroke: colorTodoCheckbox, LineWidth: 0.5})
			c.text(textX, y, truncate(t.Description, descCap), font(Regular, fontSizeTodo), colorTodoText)
			if detail != "" {
				y += todoDetailPitch
				col := colorTodoProject
				if overdue {
					col = colorOverdue
				}
				c.text(textX, y, truncate(detail, detailCap), font(Regular, fontSizeSmall), col)
			}
		}
		y += todoGroupGap
	}
}

// todoDetail builds the optional second line of a todo row. overdue
// reports whether the line needs the overdue color.
func todoDetail(t model.Todo, day model.Date) (string, bool) {
	var parts []string
	if t.Project != "" {
		parts = append(parts, "» "+t.Project)
	}
	overdue := todo.Overdue(t, day)
	switch {
	case overdue:
		parts = append(parts, "! "+t.Due.In(time.UTC).Format("02.01.2006"))
	case todo.DueToday(t, day):
		parts = append(parts, "due today")
	}
	return strings.Join(parts, "  ·  "), overdue
}

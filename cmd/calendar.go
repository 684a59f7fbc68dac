package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nvkalinin/meal-planner/calendar"
)

type Calendar struct {
	Month     string `long:"month" short:"m" value-name:"YYYY-MM" description:"Какой месяц показать. По умолчанию - месяц выбранной даты."`
	Select    string `long:"select" value-name:"YYYY-MM-DD" description:"Выбранная дата. По умолчанию - сегодня."`
	Shift     int    `long:"shift" value-name:"num" description:"Сдвинуть отображаемый месяц на num месяцев вперед (или назад, если num < 0)."`
	WeekStart string `long:"week-start" env:"WEEK_START" value-name:"day" default:"sunday" description:"Первый день недели."`
	JSON      bool   `long:"json" description:"Вывести сетку в JSON."`

	out io.Writer        // Если nil - os.Stdout.
	now func() time.Time // Если nil - time.Now.
}

func (c *Calendar) Execute(args []string) error {
	cal, err := c.makeCalendar()
	if err != nil {
		return err
	}

	out := c.out
	if out == nil {
		out = os.Stdout
	}

	if c.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cal.View())
	}

	_, err = io.WriteString(out, renderCalendar(cal))
	return err
}

// makeCalendar применяет опции в порядке: выбранная дата, месяц, сдвиг.
func (c *Calendar) makeCalendar() (*calendar.Calendar, error) {
	weekStart, err := calendar.ParseWeekday(c.WeekStart)
	if err != nil {
		return nil, fmt.Errorf("week start: %w", err)
	}

	cal := calendar.NewCalendar(calendar.Opts{Now: c.now, WeekStart: weekStart})

	if c.Select != "" {
		if err := cal.SelectDateString(c.Select); err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
	}
	if c.Month != "" {
		m, err := calendar.ParseMonth(c.Month, cal.Month().Location())
		if err != nil {
			return nil, fmt.Errorf("month: %w", err)
		}
		cal.SetMonth(m)
	}

	for i := 0; i < c.Shift; i++ {
		cal.NextMonth()
	}
	for i := 0; i > c.Shift; i-- {
		cal.PrevMonth()
	}
	return cal, nil
}

// renderCalendar печатает сетку: [15] - выбранный день, * - сегодня, (30) - дни соседних месяцев.
func renderCalendar(cal *calendar.Calendar) string {
	const cellWidth = 6

	b := &strings.Builder{}
	fmt.Fprintf(b, "%s\n", cal.MonthLabel())

	for _, name := range cal.DayNames() {
		fmt.Fprintf(b, "%*s", cellWidth, name)
	}
	b.WriteString("\n")

	for _, week := range cal.Grid() {
		for _, d := range week.Days {
			fmt.Fprintf(b, "%*s", cellWidth, dayCell(d))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(b, "Selected: %s\n", cal.SelectedLabel())
	return b.String()
}

func dayCell(d calendar.Day) string {
	cell := strconv.Itoa(d.DayNumber)
	switch {
	case d.IsSelected:
		cell = "[" + cell + "]"
	case !d.IsCurrentMonth:
		cell = "(" + cell + ")"
	}
	if d.IsToday {
		cell += "*"
	}
	return cell
}

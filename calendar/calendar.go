package calendar

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"

	monthLabelLayout    = "January 2006"
	selectedLabelLayout = "January 2, 2006"
)

// Day - одна ячейка сетки календаря.
type Day struct {
	Date           time.Time `json:"-"` // Полдень этого дня в часовом поясе календаря.
	DateString     string    `json:"date"`
	DayNumber      int       `json:"day_number"`
	IsCurrentMonth bool      `json:"is_current_month"`
	IsToday        bool      `json:"is_today"`
	IsSelected     bool      `json:"is_selected"`
}

// Week - строка сетки, всегда ровно 7 дней начиная с Opts.WeekStart.
type Week struct {
	Days [7]Day `json:"days"`
}

// ParseError возвращается, если строку не удалось разобрать как дату (или месяц).
type ParseError struct {
	Value  string
	Layout string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q as %s: %v", e.Value, e.Layout, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type Opts struct {
	Now       func() time.Time // Источник текущей даты. Если nil - time.Now.
	WeekStart time.Weekday     // С какого дня начинается неделя. По умолчанию воскресенье.
}

// Calendar хранит отображаемый месяц и выбранную дату, сетка вычисляется заново при каждом вызове Grid.
// Не потокобезопасен.
type Calendar struct {
	Opts
	month    time.Time
	selected time.Time
}

func NewCalendar(opts Opts) *Calendar {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	today := opts.Now()
	return &Calendar{
		Opts:     opts,
		month:    today,
		selected: today,
	}
}

func (c *Calendar) Month() time.Time {
	return c.month
}

func (c *Calendar) Selected() time.Time {
	return c.selected
}

// Grid возвращает недели от начала недели с первым днем месяца до конца недели с последним днем месяца.
func (c *Calendar) Grid() []Week {
	loc := c.month.Location()
	y, m, _ := c.month.Date()

	// Дни считаются в UTC: в поясах, где летнее время начинается в полночь, локальной полуночи
	// может не быть, и time.Date вернул бы 23:00 предыдущего дня.
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(y, m, DaysInMonth(y, m), 0, 0, 0, 0, time.UTC)

	lead := (int(first.Weekday()) - int(c.WeekStart) + 7) % 7
	trail := (int(c.WeekStart) + 6 - int(last.Weekday()) + 7) % 7
	total := lead + last.Day() + trail

	today := c.Now()
	weeks := make([]Week, total/7)
	for i := 0; i < total; i++ {
		d := first.AddDate(0, 0, i-lead)
		dy, dm, dd := d.Date()
		date := dayAt(dy, dm, dd, loc)

		weeks[i/7].Days[i%7] = Day{
			Date:           date,
			DateString:     d.Format(DateLayout),
			DayNumber:      dd,
			IsCurrentMonth: dy == y && dm == m,
			IsToday:        sameDay(date, today),
			IsSelected:     sameDay(date, c.selected),
		}
	}
	return weeks
}

func (c *Calendar) PrevMonth() {
	c.month = AddMonths(c.month, -1)
}

func (c *Calendar) NextMonth() {
	c.month = AddMonths(c.month, 1)
}

// SetMonth меняет отображаемый месяц, выбранная дата не меняется.
func (c *Calendar) SetMonth(t time.Time) {
	c.month = t
}

func (c *Calendar) Today() {
	today := c.Now()
	c.month = today
	c.selected = today
}

// SelectDay выбирает дату. Если она в другом месяце, календарь переключается на этот месяц.
func (c *Calendar) SelectDay(t time.Time) {
	c.selected = t
	if !sameMonth(t, c.month) {
		c.month = t
	}
}

// SelectDateString разбирает дату в формате YYYY-MM-DD и выбирает ее.
// При ошибке состояние календаря не меняется.
func (c *Calendar) SelectDateString(s string) error {
	t, err := ParseDate(s, c.month.Location())
	if err != nil {
		return err
	}
	c.SelectDay(t)
	return nil
}

func (c *Calendar) IsDateSelected(t time.Time) bool {
	return sameDay(t, c.selected)
}

func (c *Calendar) SelectedDateString() string {
	return c.selected.Format(DateLayout)
}

func (c *Calendar) MonthLabel() string {
	return c.month.Format(monthLabelLayout)
}

func (c *Calendar) SelectedLabel() string {
	return c.selected.Format(selectedLabelLayout)
}

// DayNames возвращает сокращенные названия дней недели в порядке колонок сетки.
func (c *Calendar) DayNames() []string {
	names := make([]string, 7)
	for i := range names {
		wd := time.Weekday((int(c.WeekStart) + i) % 7)
		names[i] = wd.String()[:3]
	}
	return names
}

// ParseDate строго разбирает YYYY-MM-DD, несуществующие даты (2025-02-30) считаются ошибкой.
// Результат - полдень этого дня в loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return parse(s, DateLayout, loc)
}

// ParseMonth строго разбирает YYYY-MM и возвращает первое число месяца.
// Как и ParseDate, возвращает полдень: полночь в loc может не существовать.
func ParseMonth(s string, loc *time.Location) (time.Time, error) {
	return parse(s, MonthLayout, loc)
}

func parse(s, layout string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	val := strings.TrimSpace(s)
	// time.Parse принимает однозначные месяц/день в некоторых раскладках, здесь нужен только канонический вид.
	if len(val) != len(layout) {
		return time.Time{}, &ParseError{Value: s, Layout: layout, Err: fmt.Errorf("expected %d characters", len(layout))}
	}

	t, err := time.Parse(layout, val)
	if err != nil {
		return time.Time{}, &ParseError{Value: s, Layout: layout, Err: err}
	}
	y, m, d := t.Date()
	return dayAt(y, m, d, loc), nil
}

// dayAt - полдень указанного дня. В отличие от полуночи, полдень существует в любом поясе.
func dayAt(y int, m time.Month, d int, loc *time.Location) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, loc)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

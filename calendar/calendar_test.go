package calendar

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(y int, m time.Month, d int) func() time.Time {
	return func() time.Time {
		return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func flatten(weeks []Week) []Day {
	days := make([]Day, 0, len(weeks)*7)
	for _, w := range weeks {
		days = append(days, w.Days[:]...)
	}
	return days
}

func TestCalendar_GridShape(t *testing.T) {
	for _, ws := range []time.Weekday{time.Sunday, time.Monday, time.Saturday} {
		c := NewCalendar(Opts{Now: fixedClock(2025, time.November, 10), WeekStart: ws})

		for y := 1999; y <= 2031; y++ {
			for m := time.January; m <= time.December; m++ {
				c.SetMonth(date(y, m, 17))
				days := flatten(c.Grid())

				require.NotEmpty(t, days)
				assert.Zero(t, len(days)%7, "%d-%02d", y, m)
				assert.Equal(t, ws, days[0].Date.Weekday(), "%d-%02d", y, m)

				inMonth := 0
				for i, d := range days {
					if i > 0 {
						assert.Equal(t, days[i-1].Date.AddDate(0, 0, 1), d.Date, "%d-%02d: gap at %d", y, m, i)
					}
					assert.Equal(t, d.Date.Year() == y && d.Date.Month() == m, d.IsCurrentMonth)
					assert.Equal(t, d.Date.Format(DateLayout), d.DateString)
					assert.Equal(t, d.Date.Day(), d.DayNumber)
					if d.IsCurrentMonth {
						inMonth++
					}
				}
				assert.Equal(t, DaysInMonth(y, m), inMonth, "%d-%02d", y, m)

				// Лишних недель нет: первая и последняя неделя содержат дни текущего месяца.
				assert.True(t, days[6].IsCurrentMonth)
				assert.True(t, days[len(days)-7].IsCurrentMonth)
			}
		}
	}
}

func TestCalendar_GridMonthStartsOnSunday(t *testing.T) {
	c := NewCalendar(Opts{Now: fixedClock(2025, time.June, 1)})
	weeks := c.Grid()

	require.Len(t, weeks, 5)
	assert.Equal(t, "2025-06-01", weeks[0].Days[0].DateString)
	assert.True(t, weeks[0].Days[0].IsCurrentMonth)
	assert.Equal(t, "2025-07-05", weeks[4].Days[6].DateString)
	assert.False(t, weeks[4].Days[6].IsCurrentMonth)
}

func TestCalendar_GridExactWeeks(t *testing.T) {
	// Февраль 2015 начинается в воскресенье и заканчивается в субботу.
	c := NewCalendar(Opts{Now: fixedClock(2015, time.February, 10)})
	weeks := c.Grid()

	require.Len(t, weeks, 4)
	assert.Equal(t, "2015-02-01", weeks[0].Days[0].DateString)
	assert.Equal(t, "2015-02-28", weeks[3].Days[6].DateString)
	for _, d := range flatten(weeks) {
		assert.True(t, d.IsCurrentMonth)
	}
}

func TestCalendar_GridOverflow(t *testing.T) {
	c := NewCalendar(Opts{Now: fixedClock(2025, time.November, 10)})
	weeks := c.Grid()

	require.Len(t, weeks, 6)
	assert.Equal(t, "2025-10-26", weeks[0].Days[0].DateString)
	assert.False(t, weeks[0].Days[0].IsCurrentMonth)
	assert.Equal(t, "2025-11-01", weeks[0].Days[6].DateString)
	assert.Equal(t, "2025-12-06", weeks[5].Days[6].DateString)

	c = NewCalendar(Opts{Now: fixedClock(2025, time.November, 10), WeekStart: time.Monday})
	weeks = c.Grid()

	require.Len(t, weeks, 5)
	assert.Equal(t, "2025-10-27", weeks[0].Days[0].DateString)
	assert.Equal(t, "2025-11-30", weeks[4].Days[6].DateString)
}

func TestCalendar_Selected(t *testing.T) {
	c := NewCalendar(Opts{Now: fixedClock(2025, time.November, 10)})
	c.SelectDay(date(2025, time.November, 15))

	selected := 0
	for _, d := range flatten(c.Grid()) {
		if d.IsSelected {
			selected++
			assert.Equal(t, "2025-11-15", d.DateString)
		}
	}
	assert.Equal(t, 1, selected)
}

func TestCalendar_TodayAndSelectedIndependent(t *testing.T) {
	c := NewCalendar(Opts{Now: fixedClock(2025, time.November, 10)})
	c.SelectDay(date(2025, time.November, 20))

	for _, d := range flatten(c.Grid()) {
		assert.Equal(t, d.DateString == "2025-11-10", d.IsToday)
		assert.Equal(t, d.DateString == "2025-11-20", d.IsSelected)
	}
}

func TestCalendar_SelectDayOtherMonth(t *testing.T) {
	c := NewCalendar(Opts{Now: fixedClock(2025, time.November, 10)})

	c.SelectDay(date(2025, time.November, 28))
	assert.Equal(t, time.November, c.Month().Month())
	assert.Equal(t, 10, c.Month().Day(), "в пределах месяца отображаемый месяц не меняется")

	c.SelectDay(date(2025, time.December, 3))
	assert.Equal(t, time.December, c.Month().Month())
	assert.Equal(t, 2025, c.Month().Year())
	assert.Equal(t, "2025-12-03", c.SelectedDateString())
	assert.Equal(t, "December 2025", c.MonthLabel())
}

func TestCalendar_SelectDateString(t *testing.T) {
	c := NewCalendar(Opts{Now: fixedClock(2025, time.November, 10)})

	require.NoError(t, c.SelectDateString("2026-01-05"))
	assert.Equal(t, "2026-01-05", c.SelectedDateString())
	assert.Equal(t, "January 2026", c.MonthLabel())

	require.NoError(t, c.SelectDateString(" 2026-01-07\n"))
	assert.Equal(t, "2026-01-07", c.SelectedDateString())

	for _, bad := range []string{"not-a-date", "", "2025-02-30", "2025-13-01", "2025-1-5", "05/01/2026", "2026-01-05T10:00:00Z"} {
		err := c.SelectDateString(bad)

		var perr *ParseError
		require.True(t, errors.As(err, &perr), "%q", bad)
		assert.Equal(t, bad, perr.Value)
		assert.Equal(t, "2026-01-07", c.SelectedDateString(), "%q: выбранная дата не должна меняться", bad)
		assert.Equal(t, "January 2026", c.MonthLabel())
	}
}

func TestCalendar_Navigate(t *testing.T) {
	c := NewCalendar(Opts{Now: fixedClock(2025, time.January, 31)})

	c.NextMonth()
	assert.Equal(t, "2025-02-28", c.Month().Format(DateLayout))
	assert.Equal(t, "2025-01-31", c.SelectedDateString(), "навигация не меняет выбранную дату")

	c.NextMonth()
	// День уже ограничен февралем, обратно к 31 не возвращается.
	assert.Equal(t, "2025-03-28", c.Month().Format(DateLayout))

	c.PrevMonth()
	c.PrevMonth()
	c.PrevMonth()
	assert.Equal(t, "2024-12-28", c.Month().Format(DateLayout))
	assert.Equal(t, "December 2024", c.MonthLabel())
	assert.Equal(t, "2025-01-31", c.SelectedDateString())
}

func TestAddMonths(t *testing.T) {
	tbl := []struct {
		from time.Time
		n    int
		exp  string
	}{
		{date(2025, time.January, 31), 1, "2025-02-28"},
		{date(2024, time.January, 31), 1, "2024-02-29"},
		{date(2025, time.March, 31), -1, "2025-02-28"},
		{date(2025, time.May, 31), 1, "2025-06-30"},
		{date(2025, time.December, 31), 2, "2026-02-28"},
		{date(2025, time.October, 31), -13, "2024-09-30"},
		{date(2025, time.November, 15), 0, "2025-11-15"},
		{date(2025, time.November, 15), 12, "2026-11-15"},
	}

	for _, tt := range tbl {
		got := AddMonths(tt.from, tt.n)
		assert.Equal(t, tt.exp, got.Format(DateLayout), "%s %+d", tt.from.Format(DateLayout), tt.n)
	}

	withTime := time.Date(2025, time.January, 31, 18, 45, 10, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.February, 28, 18, 45, 10, 0, time.UTC), AddMonths(withTime, 1))
}

func TestCalendar_Today(t *testing.T) {
	now := time.Date(2025, time.November, 10, 10, 30, 0, 0, time.UTC)
	c := NewCalendar(Opts{Now: func() time.Time { return now }})

	c.SelectDay(date(2026, time.March, 3))
	now = time.Date(2025, time.November, 12, 8, 0, 0, 0, time.UTC)
	c.Today()

	assert.Equal(t, now, c.Month())
	assert.Equal(t, now, c.Selected())

	found := false
	for _, d := range flatten(c.Grid()) {
		if d.IsToday && d.IsSelected {
			found = true
			assert.Equal(t, "2025-11-12", d.DateString)
		}
	}
	assert.True(t, found)
}

func TestCalendar_IsDateSelected(t *testing.T) {
	c := NewCalendar(Opts{Now: fixedClock(2025, time.November, 10)})
	c.SelectDay(date(2025, time.November, 15))

	assert.True(t, c.IsDateSelected(time.Date(2025, time.November, 15, 23, 59, 59, 0, time.UTC)))
	assert.True(t, c.IsDateSelected(date(2025, time.November, 15)))
	assert.False(t, c.IsDateSelected(date(2025, time.November, 16)))
	assert.False(t, c.IsDateSelected(date(2024, time.November, 15)))
}

func TestCalendar_Labels(t *testing.T) {
	c := NewCalendar(Opts{Now: fixedClock(2025, time.November, 10)})
	c.SelectDay(date(2025, time.November, 5))

	assert.Equal(t, "November 2025", c.MonthLabel())
	assert.Equal(t, "November 5, 2025", c.SelectedLabel())

	c.NextMonth()
	assert.Equal(t, "December 2025", c.MonthLabel())
	assert.Equal(t, "November 5, 2025", c.SelectedLabel())
}

func TestCalendar_DayNames(t *testing.T) {
	c := NewCalendar(Opts{})
	assert.Equal(t, []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}, c.DayNames())

	c = NewCalendar(Opts{WeekStart: time.Monday})
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}, c.DayNames())
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2025-11", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.November, 1, 12, 0, 0, 0, time.UTC), m)

	_, err = ParseMonth("2025-13", time.UTC)
	var perr *ParseError
	assert.True(t, errors.As(err, &perr))

	_, err = ParseMonth("2025-11-01", time.UTC)
	assert.True(t, errors.As(err, &perr))
}

// В этих поясах летнее время начиналось в полночь, и локальной полуночи в день перехода не было.
var midnightDSTZones = []string{"America/Sao_Paulo", "America/Asuncion", "America/Havana"}

func TestCalendar_GridShapeDST(t *testing.T) {
	for _, zone := range midnightDSTZones {
		loc, err := time.LoadLocation(zone)
		require.NoError(t, err)

		for _, ws := range []time.Weekday{time.Sunday, time.Monday} {
			c := NewCalendar(Opts{
				Now:       func() time.Time { return time.Date(2025, time.November, 10, 12, 0, 0, 0, loc) },
				WeekStart: ws,
			})

			for y := 2000; y <= 2026; y++ {
				for m := time.January; m <= time.December; m++ {
					c.SetMonth(time.Date(y, m, 15, 12, 0, 0, 0, loc))

					var days []Day
					require.NotPanics(t, func() { days = flatten(c.Grid()) }, "%s %d-%02d", zone, y, m)
					require.NotEmpty(t, days)
					assert.Equal(t, ws, days[0].Date.Weekday(), "%s %d-%02d", zone, y, m)

					inMonth := 0
					for i, d := range days {
						if i > 0 {
							prev, err := time.Parse(DateLayout, days[i-1].DateString)
							require.NoError(t, err)
							assert.Equal(t, prev.AddDate(0, 0, 1).Format(DateLayout), d.DateString,
								"%s %d-%02d: gap at %d", zone, y, m, i)
						}
						assert.Equal(t, d.Date.Format(DateLayout), d.DateString)
						assert.Equal(t, d.Date.Day(), d.DayNumber)
						if d.IsCurrentMonth {
							inMonth++
						}
					}
					assert.Equal(t, DaysInMonth(y, m), inMonth, "%s %d-%02d", zone, y, m)
				}
			}
		}
	}
}

func TestCalendar_SelectDateStringDST(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	c := NewCalendar(Opts{Now: func() time.Time { return time.Date(2018, time.October, 20, 12, 0, 0, 0, loc) }})

	// 4 ноября 2018 часы переводились с 00:00 на 01:00.
	require.NoError(t, c.SelectDateString("2018-11-04"))
	assert.Equal(t, "2018-11-04", c.SelectedDateString())
	assert.Equal(t, "November 4, 2018", c.SelectedLabel())
	assert.Equal(t, "November 2018", c.MonthLabel())

	selected := 0
	for _, d := range flatten(c.Grid()) {
		if d.IsSelected {
			selected++
			assert.Equal(t, "2018-11-04", d.DateString)
		}
	}
	assert.Equal(t, 1, selected)
}

func TestParseMonthDST(t *testing.T) {
	loc, err := time.LoadLocation("America/Asuncion")
	require.NoError(t, err)

	// 1 октября 2023 в Асунсьоне не было полуночи.
	m, err := ParseMonth("2023-10", loc)
	require.NoError(t, err)
	assert.Equal(t, time.October, m.Month())
	assert.Equal(t, 1, m.Day())

	d, err := ParseDate("2023-10-01", loc)
	require.NoError(t, err)
	assert.Equal(t, "2023-10-01", d.Format(DateLayout))

	c := NewCalendar(Opts{Now: func() time.Time { return time.Date(2023, time.September, 15, 12, 0, 0, 0, loc) }})
	c.SetMonth(m)
	weeks := c.Grid()
	require.Len(t, weeks, 5)
	assert.Equal(t, "2023-10-01", weeks[0].Days[0].DateString)
	assert.Equal(t, "2023-11-04", weeks[4].Days[6].DateString)
}

func TestAddMonthsDST(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	// Полночь 4 ноября 2018 не существует, остается тот же день.
	got := AddMonths(time.Date(2018, time.October, 4, 0, 0, 0, 0, loc), 1)
	assert.Equal(t, "2018-11-04", got.Format(DateLayout))

	got = AddMonths(time.Date(2018, time.October, 4, 18, 30, 0, 0, loc), 1)
	assert.Equal(t, time.Date(2018, time.November, 4, 18, 30, 0, 0, loc), got)
}

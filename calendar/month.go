package calendar

import "time"

// AddMonths сдвигает t на n месяцев. В отличие от time.AddDate, который переносит лишние дни
// в следующий месяц (31 января + 1 месяц = 3 марта), день месяца ограничивается длиной
// целевого месяца: 31 января + 1 месяц = 28 (29) февраля. Время суток сохраняется,
// если оно существует в целевой день (иначе - полдень).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()

	target := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	ty, tm := target.Year(), target.Month()
	if last := DaysInMonth(ty, tm); d > last {
		d = last
	}

	res := time.Date(ty, tm, d, hh, mm, ss, t.Nanosecond(), t.Location())
	if ry, rm, rd := res.Date(); ry != ty || rm != tm || rd != d {
		// Время попало в переход на летнее время.
		return dayAt(ty, tm, d, t.Location())
	}
	return res
}

func DaysInMonth(y int, m time.Month) int {
	// day=0 нормализуется: будет выбран последний день предыдущего месяца.
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

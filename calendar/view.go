package calendar

import (
	"fmt"
	"strings"
	"time"
)

// View - снимок состояния календаря для отдачи наружу (REST, вывод CLI в JSON).
type View struct {
	MonthLabel    string   `json:"month_label"`
	SelectedLabel string   `json:"selected_label"`
	SelectedDate  string   `json:"selected_date"`
	DayNames      []string `json:"day_names"`
	Weeks         []Week   `json:"weeks"`
}

func (c *Calendar) View() View {
	return View{
		MonthLabel:    c.MonthLabel(),
		SelectedLabel: c.SelectedLabel(),
		SelectedDate:  c.SelectedDateString(),
		DayNames:      c.DayNames(),
		Weeks:         c.Grid(),
	}
}

// ParseWeekday принимает полное или трехбуквенное английское название дня недели без учета регистра.
func ParseWeekday(s string) (time.Weekday, error) {
	val := strings.ToLower(strings.TrimSpace(s))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if val == name || val == name[:3] {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday '%s'", s)
}

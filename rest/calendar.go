package rest

import (
	"net/http"

	"github.com/nvkalinin/meal-planner/calendar"
)

// calendarCtrl строит сетку месяца. Сначала применяется selected (он может переключить месяц), затем month.
func (s *Server) calendarCtrl(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := calendar.Opts{Now: s.now, WeekStart: s.Opts.WeekStart}
	if ws := q.Get("week_start"); ws != "" {
		wd, err := calendar.ParseWeekday(ws)
		if err != nil {
			sendErrorJson(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.WeekStart = wd
	}
	cal := calendar.NewCalendar(opts)

	if sel := q.Get("selected"); sel != "" {
		if err := cal.SelectDateString(sel); err != nil {
			sendErrorJson(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if mon := q.Get("month"); mon != "" {
		m, err := calendar.ParseMonth(mon, cal.Month().Location())
		if err != nil {
			sendErrorJson(w, http.StatusBadRequest, err.Error())
			return
		}
		cal.SetMonth(m)
	}

	sendData(w, http.StatusOK, cal.View())
}

package rest

import (
	"errors"
	"net/http"

	"github.com/nvkalinin/meal-planner/calendar"
	"github.com/nvkalinin/meal-planner/log"
	"github.com/nvkalinin/meal-planner/mealplan"
	"github.com/nvkalinin/meal-planner/store"
)

// sendPlannerError переводит ошибки mealplan в HTTP-статусы.
func sendPlannerError(w http.ResponseWriter, err error) {
	var parseErr *calendar.ParseError
	switch {
	case errors.As(err, &parseErr):
		sendErrorJson(w, http.StatusBadRequest, parseErr.Error())
	case errors.Is(err, mealplan.ErrInvalidPlan):
		sendErrorJson(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, mealplan.ErrMealNotFound):
		sendErrorJson(w, http.StatusNotFound, "Meal not found")
	case errors.Is(err, mealplan.ErrRecipeNotFound):
		sendErrorJson(w, http.StatusNotFound, "Recipe not found")
	default:
		log.Printf("[ERROR] rest meal plan: %v", err)
		sendErrorJson(w, http.StatusInternalServerError, "internal error")
	}
}

// activeMealPlanCtrl отдает активный план, либо {"data": null}.
func (s *Server) activeMealPlanCtrl(w http.ResponseWriter, r *http.Request) {
	plan, found := s.Planner.Active()
	if !found {
		sendData(w, http.StatusOK, nil)
		return
	}
	sendData(w, http.StatusOK, plan)
}

func (s *Server) showMealPlanCtrl(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		sendErrorJson(w, http.StatusBadRequest, "invalid meal plan id")
		return
	}

	plan, found := s.Planner.Find(id)
	if !found {
		sendErrorJson(w, http.StatusNotFound, "Meal plan not found")
		return
	}
	sendData(w, http.StatusOK, plan)
}

func (s *Server) createMealPlanCtrl(w http.ResponseWriter, r *http.Request) {
	plan := &store.MealPlan{}
	if err := readJson(r, plan); err != nil {
		sendErrorJson(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	if err := s.Planner.Create(plan); err != nil {
		sendPlannerError(w, err)
		return
	}
	sendData(w, http.StatusCreated, plan)
}

func (s *Server) dailyDigestCtrl(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = s.now().Format(calendar.DateLayout)
	}

	digest, err := s.Planner.DailyDigest(date)
	if err != nil {
		sendPlannerError(w, err)
		return
	}
	sendData(w, http.StatusOK, digest)
}

func (s *Server) upcomingCtrl(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", mealplan.DefaultUpcoming)
	sendData(w, http.StatusOK, s.Planner.Upcoming(limit))
}

func (s *Server) alternativesCtrl(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		sendErrorJson(w, http.StatusBadRequest, "invalid meal id")
		return
	}

	alts, err := s.Planner.Alternatives(id, intQuery(r, "limit", mealplan.DefaultAlternatives))
	if err != nil {
		sendPlannerError(w, err)
		return
	}
	sendData(w, http.StatusOK, alts)
}

func (s *Server) swapCtrl(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		sendErrorJson(w, http.StatusBadRequest, "invalid meal id")
		return
	}

	req := &struct {
		NewRecipeID int64 `json:"new_recipe_id"`
	}{}
	if err := readJson(r, req); err != nil {
		sendErrorJson(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if req.NewRecipeID <= 0 {
		sendErrorJson(w, http.StatusUnprocessableEntity, "new_recipe_id is required")
		return
	}

	meal, err := s.Planner.Swap(id, req.NewRecipeID)
	if err != nil {
		sendPlannerError(w, err)
		return
	}
	sendData(w, http.StatusOK, meal)
}

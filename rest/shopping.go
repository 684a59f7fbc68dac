package rest

import (
	"errors"
	"net/http"

	"github.com/nvkalinin/meal-planner/log"
	"github.com/nvkalinin/meal-planner/shopping"
)

func sendShoppingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shopping.ErrInvalidList), errors.Is(err, shopping.ErrInvalidItem):
		sendErrorJson(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, shopping.ErrListNotFound):
		sendErrorJson(w, http.StatusNotFound, "Shopping list not found")
	case errors.Is(err, shopping.ErrItemNotFound):
		sendErrorJson(w, http.StatusNotFound, "Shopping list item not found")
	default:
		log.Printf("[ERROR] rest shopping: %v", err)
		sendErrorJson(w, http.StatusInternalServerError, "internal error")
	}
}

// activeListCtrl отдает последний незавершенный список, либо {"data": null}.
func (s *Server) activeListCtrl(w http.ResponseWriter, r *http.Request) {
	l, found := s.Lists.Active()
	if !found {
		sendData(w, http.StatusOK, nil)
		return
	}
	sendData(w, http.StatusOK, l)
}

func (s *Server) showListCtrl(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		sendErrorJson(w, http.StatusBadRequest, "invalid shopping list id")
		return
	}

	l, found := s.Lists.Find(id)
	if !found {
		sendErrorJson(w, http.StatusNotFound, "Shopping list not found")
		return
	}
	sendData(w, http.StatusOK, l)
}

func (s *Server) createListCtrl(w http.ResponseWriter, r *http.Request) {
	req := &struct {
		Name       string `json:"name"`
		MealPlanID *int64 `json:"meal_plan_id"`
	}{}
	if err := readJson(r, req); err != nil {
		sendErrorJson(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	l, err := s.Lists.Create(req.Name, req.MealPlanID)
	if err != nil {
		sendShoppingError(w, err)
		return
	}
	sendData(w, http.StatusCreated, l)
}

func (s *Server) listCategoriesCtrl(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		sendErrorJson(w, http.StatusBadRequest, "invalid shopping list id")
		return
	}

	l, found := s.Lists.Find(id)
	if !found {
		sendErrorJson(w, http.StatusNotFound, "Shopping list not found")
		return
	}
	sendData(w, http.StatusOK, shopping.ByCategory(l))
}

func (s *Server) addItemCtrl(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		sendErrorJson(w, http.StatusBadRequest, "invalid shopping list id")
		return
	}

	var req shopping.AddItemRequest
	if err := readJson(r, &req); err != nil {
		sendErrorJson(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	item, err := s.Lists.AddItem(id, req)
	if err != nil {
		sendShoppingError(w, err)
		return
	}
	sendData(w, http.StatusCreated, item)
}

func (s *Server) completeListCtrl(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		sendErrorJson(w, http.StatusBadRequest, "invalid shopping list id")
		return
	}

	l, err := s.Lists.Complete(id)
	if err != nil {
		sendShoppingError(w, err)
		return
	}
	sendData(w, http.StatusOK, l)
}

func (s *Server) toggleItemCtrl(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		sendErrorJson(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := s.Lists.Toggle(id)
	if err != nil {
		sendShoppingError(w, err)
		return
	}
	sendData(w, http.StatusOK, item)
}

func (s *Server) deleteItemCtrl(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		sendErrorJson(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := s.Lists.DeleteItem(id); err != nil {
		sendShoppingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

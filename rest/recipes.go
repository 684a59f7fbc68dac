package rest

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/nvkalinin/meal-planner/log"
	"github.com/nvkalinin/meal-planner/store"
)

type pageMeta struct {
	CurrentPage int    `json:"current_page"`
	From        *int   `json:"from"`
	LastPage    int    `json:"last_page"`
	Path        string `json:"path"`
	PerPage     int    `json:"per_page"`
	To          *int   `json:"to"`
	Total       int    `json:"total"`
}

type pageLinks struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

type recipePageResponse struct {
	Data  []store.Recipe `json:"data"`
	Meta  pageMeta       `json:"meta"`
	Links pageLinks      `json:"links"`
}

func (s *Server) listRecipesCtrl(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.RecipeFilter{
		Search:     q.Get("search"),
		MealType:   store.MealType(q.Get("meal_type")),
		Difficulty: store.Difficulty(q.Get("difficulty")),
		Page:       intQuery(r, "page", 1),
		PerPage:    intQuery(r, "per_page", store.DefaultPerPage),
	}.Normalize()

	page, err := s.Store.ListRecipes(f)
	if err != nil {
		log.Printf("[ERROR] rest cannot list recipes: %v", err)
		sendErrorJson(w, http.StatusInternalServerError, "cannot list recipes")
		return
	}

	sendJsonResponse(w, makeRecipePage(page, requestPath(r)))
}

func makeRecipePage(page store.RecipePage, path string) recipePageResponse {
	pageURL := func(n int) string {
		return fmt.Sprintf("%s?page=%d", path, n)
	}
	optInt := func(n int) *int {
		if n == 0 {
			return nil
		}
		return &n
	}

	last := page.LastPage()
	res := recipePageResponse{
		Data: page.Recipes,
		Meta: pageMeta{
			CurrentPage: page.Page,
			From:        optInt(page.From()),
			LastPage:    last,
			Path:        path,
			PerPage:     page.PerPage,
			To:          optInt(page.To()),
			Total:       page.Total,
		},
		Links: pageLinks{
			First: pageURL(1),
			Last:  pageURL(last),
		},
	}
	if page.Page > 1 {
		prev := pageURL(page.Page - 1)
		res.Links.Prev = &prev
	}
	if page.Page < last {
		next := pageURL(page.Page + 1)
		res.Links.Next = &next
	}
	return res
}

// requestPath - абсолютный URL запроса без query.
func requestPath(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host + strings.TrimRight(r.URL.Path, "/")
}

func (s *Server) showRecipeCtrl(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		sendErrorJson(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	recipe, found := s.Store.FindRecipe(id)
	if !found || !recipe.IsActive {
		sendErrorJson(w, http.StatusNotFound, "Recipe not found")
		return
	}

	sendData(w, http.StatusOK, recipe)
}

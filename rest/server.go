package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/nvkalinin/meal-planner/log"
	"github.com/nvkalinin/meal-planner/mealplan"
	"github.com/nvkalinin/meal-planner/shopping"
	"github.com/nvkalinin/meal-planner/store"
)

type Store interface {
	FindRecipe(id int64) (*store.Recipe, bool)
	ListRecipes(f store.RecipeFilter) (store.RecipePage, error)
}

type Planner interface {
	Create(plan *store.MealPlan) error
	Find(id int64) (*store.MealPlan, bool)
	Active() (*store.MealPlan, bool)
	DailyDigest(date string) (mealplan.Digest, error)
	Upcoming(limit int) []store.DailyMeal
	Alternatives(mealID int64, limit int) ([]mealplan.Alternative, error)
	Swap(mealID, newRecipeID int64) (*store.MealPlanRecipe, error)
}

type ShoppingLists interface {
	Create(name string, mealPlanID *int64) (*store.ShoppingList, error)
	Find(id int64) (*store.ShoppingList, bool)
	Active() (*store.ShoppingList, bool)
	AddItem(listID int64, req shopping.AddItemRequest) (*store.ShoppingListItem, error)
	Toggle(itemID int64) (*store.ShoppingListItem, error)
	DeleteItem(itemID int64) error
	Complete(listID int64) (*store.ShoppingList, error)
}

type Syncer interface {
	UpdateCatalog() (int, error)
}

type Backuper interface {
	Backup(w io.Writer) error
}

type Server struct {
	Store   Store
	Planner Planner
	Lists   ShoppingLists
	Syncer  Syncer
	Backup  Backuper // Если nil, /api/admin/backup отвечает 501.
	Opts    Opts

	mu      sync.Mutex
	httpSrv *http.Server
}

type Opts struct {
	Listen      string
	LogRequests bool
	AdminPasswd string // Если пустой, /api/admin/* отключены.

	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	RateLimiter bool
	ReqLimit    int
	LimitWindow time.Duration

	WeekStart time.Weekday     // Первый день недели в /api/calendar по умолчанию.
	Now       func() time.Time // Если nil - time.Now.
}

func (s *Server) Run() error {
	srv := &http.Server{
		Addr:              s.Opts.Listen,
		Handler:           s.routes(),
		ReadTimeout:       s.Opts.ReadTimeout,
		ReadHeaderTimeout: s.Opts.ReadHeaderTimeout,
		WriteTimeout:      s.Opts.WriteTimeout,
		IdleTimeout:       s.Opts.IdleTimeout,
	}

	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	log.Printf("[INFO] rest server listening on %s", s.Opts.Listen)
	return srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpSrv
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	m := newMetrics()

	r.Use(middleware.RequestID)
	if s.Opts.LogRequests {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(m.middleware)

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pong"))
	})
	r.Handle("/metrics", m.handler())

	r.Route("/api", func(r chi.Router) {
		if s.Opts.RateLimiter {
			r.Use(httprate.LimitByIP(s.Opts.ReqLimit, s.Opts.LimitWindow))
		}

		r.Get("/calendar", s.calendarCtrl)

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", s.listRecipesCtrl)
			r.Get("/{id}", s.showRecipeCtrl)
		})

		r.Route("/meal-plans", func(r chi.Router) {
			r.Get("/", s.activeMealPlanCtrl)
			r.Post("/", s.createMealPlanCtrl)
			r.Get("/daily-digest", s.dailyDigestCtrl)
			r.Get("/upcoming", s.upcomingCtrl)
			r.Get("/{id}", s.showMealPlanCtrl)
		})
		r.Route("/meal-plan-recipes/{id}", func(r chi.Router) {
			r.Get("/alternatives", s.alternativesCtrl)
			r.Put("/swap", s.swapCtrl)
		})

		r.Route("/shopping-lists", func(r chi.Router) {
			r.Get("/", s.activeListCtrl)
			r.Post("/", s.createListCtrl)
			r.Get("/{id}", s.showListCtrl)
			r.Get("/{id}/categories", s.listCategoriesCtrl)
			r.Post("/{id}/items", s.addItemCtrl)
			r.Patch("/{id}/complete", s.completeListCtrl)
		})
		r.Route("/shopping-list-items/{id}", func(r chi.Router) {
			r.Patch("/toggle", s.toggleItemCtrl)
			r.Delete("/", s.deleteItemCtrl)
		})

		r.Route("/admin", s.adminRoutes)
	})

	return r
}

func (s *Server) now() time.Time {
	if s.Opts.Now == nil {
		return time.Now()
	}
	return s.Opts.Now()
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, errors.New("id must be positive")
	}
	return id, nil
}

// intQuery возвращает def, если параметр отсутствует или не является числом.
func intQuery(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return v
}

func readJson(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	return dec.Decode(dst)
}

type dataResponse struct {
	Data any `json:"data"`
}

func sendData(w http.ResponseWriter, status int, data any) {
	sendJsonStatus(w, status, dataResponse{Data: data})
}

func sendJsonResponse(w http.ResponseWriter, data any) {
	sendJsonStatus(w, http.StatusOK, data)
}

func sendJsonStatus(w http.ResponseWriter, status int, data any) {
	respJson, err := json.Marshal(data)
	if err != nil {
		log.Printf("[WARN] rest cannot marshal response data: %+v", err)
		sendErrorJson(w, http.StatusInternalServerError, "cannot marshal response data")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err = w.Write(respJson); err != nil {
		log.Printf("[WARN] rest cannot write response data: %+v", err)
	}
}

func sendErrorJson(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	restErr := &struct {
		Message string `json:"message"`
	}{msg}

	errJson, err := json.Marshal(restErr)
	if err != nil {
		log.Printf("[WARN] rest cannot marshal error: %+v", err)
		return
	}

	if _, err = w.Write(errJson); err != nil {
		log.Printf("[WARN] rest cannot write error: %+v", err)
	}
}

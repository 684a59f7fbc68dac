package mealplan

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nvkalinin/meal-planner/calendar"
	"github.com/nvkalinin/meal-planner/log"
	"github.com/nvkalinin/meal-planner/store"
)

const (
	DefaultUpcoming     = 5
	DefaultAlternatives = 10
)

var (
	ErrInvalidPlan    = errors.New("invalid meal plan")
	ErrMealNotFound   = errors.New("meal not found")
	ErrRecipeNotFound = errors.New("recipe not found")
)

type Store interface {
	FindRecipe(id int64) (*store.Recipe, bool)
	ListRecipes(f store.RecipeFilter) (store.RecipePage, error)

	FindMealPlan(id int64) (*store.MealPlan, bool)
	ActiveMealPlan() (*store.MealPlan, bool)
	FindMealPlanByMeal(mealID int64) (*store.MealPlan, bool)
	PutMealPlan(p *store.MealPlan) error
}

type Planner struct {
	Store Store
	Now   func() time.Time // Если nil - time.Now.
}

// Digest - сводка приемов пищи на один день.
type Digest struct {
	Date  string            `json:"date"`
	Meals []store.DailyMeal `json:"meals"`
}

// Alternative - рецепт, которым можно заменить прием пищи.
type Alternative struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	ImagePath   string         `json:"image_path,omitempty"`
	PrepTime    int            `json:"prep_time"`
	CookTime    int            `json:"cook_time"`
	MealType    store.MealType `json:"meal_type"`
}

func (p *Planner) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *Planner) today() string {
	return p.now().Format(calendar.DateLayout)
}

// Create проверяет и сохраняет новый план. Если план активный, предыдущий активный план деактивируется.
func (p *Planner) Create(plan *store.MealPlan) error {
	if err := p.validate(plan); err != nil {
		return err
	}

	ts := p.now().UTC()
	plan.ID = 0
	plan.CreatedAt, plan.UpdatedAt = ts, ts
	for i := range plan.Meals {
		m := &plan.Meals[i]
		m.ID = 0
		m.CreatedAt, m.UpdatedAt = ts, ts
	}

	if err := p.Store.PutMealPlan(plan); err != nil {
		return fmt.Errorf("mealplan cannot save plan: %w", err)
	}
	p.embedRecipes(plan)

	log.Printf("[INFO] mealplan created plan %d (%s..%s, %d meals, active=%v)",
		plan.ID, plan.StartDate, plan.EndDate, len(plan.Meals), plan.IsActive)
	return nil
}

// validate приводит даты к каноническому виду YYYY-MM-DD и проверяет приемы пищи.
func (p *Planner) validate(plan *store.MealPlan) error {
	start, err := calendar.ParseDate(plan.StartDate, time.UTC)
	if err != nil {
		return fmt.Errorf("%w: start_date: %v", ErrInvalidPlan, err)
	}
	end, err := calendar.ParseDate(plan.EndDate, time.UTC)
	if err != nil {
		return fmt.Errorf("%w: end_date: %v", ErrInvalidPlan, err)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end_date must not be before start_date", ErrInvalidPlan)
	}
	plan.StartDate = start.Format(calendar.DateLayout)
	plan.EndDate = end.Format(calendar.DateLayout)

	for i := range plan.Meals {
		m := &plan.Meals[i]

		date, err := calendar.ParseDate(m.MealDate, time.UTC)
		if err != nil {
			return fmt.Errorf("%w: meals.%d.meal_date: %v", ErrInvalidPlan, i, err)
		}
		if date.Before(start) || date.After(end) {
			return fmt.Errorf("%w: meals.%d.meal_date: %s is outside of the plan", ErrInvalidPlan, i, m.MealDate)
		}
		m.MealDate = date.Format(calendar.DateLayout)

		if !m.MealType.Valid() {
			return fmt.Errorf("%w: meals.%d.meal_type: unknown meal type '%s'", ErrInvalidPlan, i, m.MealType)
		}
		if m.Servings <= 0 {
			return fmt.Errorf("%w: meals.%d.servings: must be positive", ErrInvalidPlan, i)
		}
		if _, ok := p.activeRecipe(m.RecipeID); !ok {
			return fmt.Errorf("%w: meals.%d.recipe_id: recipe %d not found", ErrInvalidPlan, i, m.RecipeID)
		}
	}
	return nil
}

func (p *Planner) activeRecipe(id int64) (*store.Recipe, bool) {
	r, ok := p.Store.FindRecipe(id)
	if !ok || !r.IsActive {
		return nil, false
	}
	return r, true
}

// embedRecipes подставляет рецепты в приемы пищи. Рецепты, которых уже нет в каталоге, остаются nil.
func (p *Planner) embedRecipes(plan *store.MealPlan) {
	cache := make(map[int64]*store.Recipe)
	for i := range plan.Meals {
		m := &plan.Meals[i]

		r, cached := cache[m.RecipeID]
		if !cached {
			var ok bool
			if r, ok = p.Store.FindRecipe(m.RecipeID); !ok {
				log.Printf("[WARN] mealplan plan %d refers to missing recipe %d", plan.ID, m.RecipeID)
			}
			cache[m.RecipeID] = r
		}
		m.Recipe = r
	}
}

func (p *Planner) Find(id int64) (*store.MealPlan, bool) {
	plan, ok := p.Store.FindMealPlan(id)
	if !ok {
		return nil, false
	}
	p.embedRecipes(plan)
	return plan, true
}

// Active возвращает активный план с рецептами.
func (p *Planner) Active() (*store.MealPlan, bool) {
	plan, ok := p.Store.ActiveMealPlan()
	if !ok {
		return nil, false
	}
	p.embedRecipes(plan)
	return plan, true
}

// MealsForDate возвращает приемы пищи активного плана на дату, упорядоченные по типу.
// Если активного плана нет, возвращается пустой список.
func (p *Planner) MealsForDate(date string) ([]store.DailyMeal, error) {
	d, err := calendar.ParseDate(date, time.UTC)
	if err != nil {
		return nil, err
	}
	date = d.Format(calendar.DateLayout)

	meals := []store.DailyMeal{}
	plan, ok := p.Active()
	if !ok {
		return meals, nil
	}

	for _, m := range plan.Meals {
		if m.MealDate == date {
			meals = append(meals, store.NewDailyMeal(m))
		}
	}
	sortMeals(meals)
	return meals, nil
}

// DailyDigest - приемы пищи на дату. Пустая дата означает сегодня.
func (p *Planner) DailyDigest(date string) (Digest, error) {
	if date == "" {
		date = p.today()
	}

	d, err := calendar.ParseDate(date, time.UTC)
	if err != nil {
		return Digest{}, err
	}
	date = d.Format(calendar.DateLayout)

	meals, err := p.MealsForDate(date)
	if err != nil {
		return Digest{}, err
	}
	return Digest{Date: date, Meals: meals}, nil
}

// Upcoming возвращает ближайшие limit приемов пищи, начиная с сегодняшнего дня.
func (p *Planner) Upcoming(limit int) []store.DailyMeal {
	if limit <= 0 {
		limit = DefaultUpcoming
	}

	meals := []store.DailyMeal{}
	plan, ok := p.Active()
	if !ok {
		return meals
	}

	today := p.today()
	for _, m := range plan.Meals {
		// Даты в каноническом виде, поэтому их можно сравнивать как строки.
		if m.MealDate >= today {
			meals = append(meals, store.NewDailyMeal(m))
		}
	}
	sortMeals(meals)

	if len(meals) > limit {
		meals = meals[:limit]
	}
	return meals
}

func sortMeals(meals []store.DailyMeal) {
	sort.SliceStable(meals, func(i, j int) bool {
		a, b := meals[i], meals[j]
		if a.MealDate != b.MealDate {
			return a.MealDate < b.MealDate
		}
		if a.MealType.Order() != b.MealType.Order() {
			return a.MealType.Order() < b.MealType.Order()
		}
		return a.ID < b.ID
	})
}

// Alternatives подбирает активные рецепты того же типа, что и прием пищи, кроме текущего рецепта.
func (p *Planner) Alternatives(mealID int64, limit int) ([]Alternative, error) {
	if limit <= 0 {
		limit = DefaultAlternatives
	}
	if limit > store.MaxPerPage-1 {
		limit = store.MaxPerPage - 1
	}

	plan, ok := p.Store.FindMealPlanByMeal(mealID)
	if !ok {
		return nil, ErrMealNotFound
	}
	meal := plan.Meals[plan.MealIndex(mealID)]

	// Текущий рецепт может попасть в выборку, поэтому берется на один больше.
	page, err := p.Store.ListRecipes(store.RecipeFilter{MealType: meal.MealType, PerPage: limit + 1})
	if err != nil {
		return nil, fmt.Errorf("mealplan cannot list alternatives for meal %d: %w", mealID, err)
	}

	res := make([]Alternative, 0, limit)
	for _, r := range page.Recipes {
		if r.ID == meal.RecipeID {
			continue
		}
		if len(res) == limit {
			break
		}
		res = append(res, Alternative{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			ImagePath:   r.ImagePath,
			PrepTime:    r.PrepTime,
			CookTime:    r.CookTime,
			MealType:    r.MealType,
		})
	}
	return res, nil
}

// Swap заменяет рецепт приема пищи и возвращает обновленный прием пищи с новым рецептом.
func (p *Planner) Swap(mealID, newRecipeID int64) (*store.MealPlanRecipe, error) {
	plan, ok := p.Store.FindMealPlanByMeal(mealID)
	if !ok {
		return nil, ErrMealNotFound
	}

	r, ok := p.activeRecipe(newRecipeID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrRecipeNotFound, newRecipeID)
	}

	i := plan.MealIndex(mealID)
	oldRecipeID := plan.Meals[i].RecipeID
	plan.Meals[i].RecipeID = r.ID
	plan.Meals[i].UpdatedAt = p.now().UTC()

	if err := p.Store.PutMealPlan(plan); err != nil {
		return nil, fmt.Errorf("mealplan cannot save plan %d: %w", plan.ID, err)
	}
	log.Printf("[INFO] mealplan meal %d: recipe %d swapped for %d", mealID, oldRecipeID, r.ID)

	meal := plan.Meals[i]
	meal.Recipe = r
	return &meal, nil
}

package store

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
	Dessert   MealType = "dessert"
)

// MealTypes - все типы приемов пищи в порядке, в котором они идут в течение дня.
var MealTypes = []MealType{Breakfast, Lunch, Dinner, Snack, Dessert}

// Order возвращает порядковый номер приема пищи в течение дня. Для неизвестных типов - len(MealTypes).
func (t MealType) Order() int {
	for i, mt := range MealTypes {
		if mt == t {
			return i
		}
	}
	return len(MealTypes)
}

func (t MealType) Valid() bool {
	return t.Order() < len(MealTypes)
}

func (d Difficulty) Valid() bool {
	return d == Easy || d == Medium || d == Hard
}

type Recipe struct {
	ID           int64      `json:"id" yaml:"id"`
	Title        string     `json:"title" yaml:"title"`
	Description  string     `json:"description" yaml:"description"`
	Instructions string     `json:"instructions" yaml:"instructions"`
	PrepTime     int        `json:"prep_time" yaml:"prep_time"` // Минуты.
	CookTime     int        `json:"cook_time" yaml:"cook_time"`
	TotalTime    int        `json:"total_time" yaml:"total_time"`
	Servings     int        `json:"servings" yaml:"servings"`
	Difficulty   Difficulty `json:"difficulty" yaml:"difficulty"`
	MealType     MealType   `json:"meal_type" yaml:"meal_type"`
	ImagePath    string     `json:"image_path,omitempty" yaml:"image_path"`
	IsActive     bool       `json:"is_active" yaml:"is_active"`
	CreatedAt    time.Time  `json:"created_at" yaml:"-"`
	UpdatedAt    time.Time  `json:"updated_at" yaml:"-"`
}

// Recipes - каталог рецептов, ключ - Recipe.ID.
type Recipes map[int64]Recipe

func (r Recipes) Copy() Recipes {
	rCopy := make(Recipes, len(r))
	for id, recipe := range r {
		rCopy[id] = recipe
	}
	return rCopy
}

type MealPlan struct {
	ID        int64            `json:"id"`
	StartDate string           `json:"start_date"` // YYYY-MM-DD
	EndDate   string           `json:"end_date"`
	IsActive  bool             `json:"is_active"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Meals     []MealPlanRecipe `json:"meals,omitempty"`
}

type MealPlanRecipe struct {
	ID         int64     `json:"id"`
	MealPlanID int64     `json:"meal_plan_id"`
	RecipeID   int64     `json:"recipe_id"`
	Recipe     *Recipe   `json:"recipe,omitempty"`
	MealDate   string    `json:"meal_date"` // YYYY-MM-DD
	MealType   MealType  `json:"meal_type"`
	IsLeftover bool      `json:"is_leftover"`
	Servings   int       `json:"servings"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (p *MealPlan) Copy() *MealPlan {
	pCopy := *p
	pCopy.Meals = make([]MealPlanRecipe, len(p.Meals))
	copy(pCopy.Meals, p.Meals)
	for i := range pCopy.Meals {
		if r := pCopy.Meals[i].Recipe; r != nil {
			rCopy := *r
			pCopy.Meals[i].Recipe = &rCopy
		}
	}
	return &pCopy
}

// DailyMeal - прием пищи в представлении для дневной сводки.
type DailyMeal struct {
	ID         int64    `json:"id"`
	Recipe     *Recipe  `json:"recipe"`
	MealType   MealType `json:"meal_type"`
	MealDate   string   `json:"meal_date"`
	Servings   int      `json:"servings"`
	IsLeftover bool     `json:"is_leftover"`
}

func NewDailyMeal(m MealPlanRecipe) DailyMeal {
	return DailyMeal{
		ID:         m.ID,
		Recipe:     m.Recipe,
		MealType:   m.MealType,
		MealDate:   m.MealDate,
		Servings:   m.Servings,
		IsLeftover: m.IsLeftover,
	}
}

type Category string

const (
	Produce   Category = "produce"
	Dairy     Category = "dairy"
	Meat      Category = "meat"
	Seafood   Category = "seafood"
	Pantry    Category = "pantry"
	Spices    Category = "spices"
	Beverages Category = "beverages"
	Frozen    Category = "frozen"
	Bakery    Category = "bakery"
	Other     Category = "other"
)

// Categories - порядок отделов магазина при группировке списка покупок.
var Categories = []Category{Produce, Dairy, Meat, Seafood, Pantry, Spices, Beverages, Frozen, Bakery, Other}

func (c Category) Valid() bool {
	for _, cat := range Categories {
		if cat == c {
			return true
		}
	}
	return false
}

type ShoppingList struct {
	ID          int64              `json:"id"`
	MealPlanID  *int64             `json:"meal_plan_id,omitempty"`
	Name        string             `json:"name"`
	IsCompleted bool               `json:"is_completed"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Items       []ShoppingListItem `json:"items,omitempty"`
}

type ShoppingListItem struct {
	ID             int64     `json:"id"`
	ShoppingListID int64     `json:"shopping_list_id"`
	IngredientID   *int64    `json:"ingredient_id,omitempty"`
	Name           string    `json:"name"`
	Quantity       float64   `json:"quantity"`
	Unit           string    `json:"unit"`
	Category       Category  `json:"category"`
	IsChecked      bool      `json:"is_checked"`
	IsCustom       bool      `json:"is_custom"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (l *ShoppingList) Copy() *ShoppingList {
	lCopy := *l
	lCopy.Items = make([]ShoppingListItem, len(l.Items))
	copy(lCopy.Items, l.Items)
	return &lCopy
}

// ItemIndex возвращает индекс позиции с указанным id, либо -1.
func (l *ShoppingList) ItemIndex(itemID int64) int {
	for i, item := range l.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

// MealIndex возвращает индекс приема пищи с указанным id, либо -1.
func (p *MealPlan) MealIndex(mealID int64) int {
	for i, meal := range p.Meals {
		if meal.ID == mealID {
			return i
		}
	}
	return -1
}

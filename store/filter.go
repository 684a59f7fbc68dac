package store

import (
	"sort"
	"strings"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// RecipeFilter описывает фильтры списка рецептов. Пустое значение поля отключает фильтр.
// Неактивные рецепты не попадают в выборку никогда.
type RecipeFilter struct {
	Search     string // Подстрока в названии или описании, без учета регистра.
	MealType   MealType
	Difficulty Difficulty
	Page       int
	PerPage    int
}

// Normalize подставляет значения по умолчанию для страницы и размера страницы.
func (f RecipeFilter) Normalize() RecipeFilter {
	if f.PerPage <= 0 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

func (f RecipeFilter) Offset() int {
	return (f.Page - 1) * f.PerPage
}

// Match проверяет рецепт на соответствие всем фильтрам (кроме пагинации).
func (f RecipeFilter) Match(r Recipe) bool {
	if !r.IsActive {
		return false
	}
	if f.MealType != "" && r.MealType != f.MealType {
		return false
	}
	if f.Difficulty != "" && r.Difficulty != f.Difficulty {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.Title), needle) && !strings.Contains(strings.ToLower(r.Description), needle) {
			return false
		}
	}
	return true
}

// RecipePage - одна страница выборки рецептов.
type RecipePage struct {
	Recipes []Recipe
	Total   int
	Page    int
	PerPage int
}

func (p RecipePage) LastPage() int {
	if p.Total == 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// From возвращает номер первой записи на странице (с 1), либо 0, если страница пуста.
func (p RecipePage) From() int {
	if len(p.Recipes) == 0 {
		return 0
	}
	return (p.Page-1)*p.PerPage + 1
}

func (p RecipePage) To() int {
	if len(p.Recipes) == 0 {
		return 0
	}
	return p.From() + len(p.Recipes) - 1
}

// FilterRecipes применяет фильтр к каталогу в памяти. Результат отсортирован по id.
func FilterRecipes(all Recipes, f RecipeFilter) RecipePage {
	f = f.Normalize()

	matched := make([]Recipe, 0, len(all))
	for _, r := range all {
		if f.Match(r) {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ID < matched[j].ID
	})

	return Paginate(matched, f)
}

// Paginate вырезает из отсортированной выборки страницу f.Page.
func Paginate(matched []Recipe, f RecipeFilter) RecipePage {
	f = f.Normalize()
	page := RecipePage{
		Total:   len(matched),
		Page:    f.Page,
		PerPage: f.PerPage,
		Recipes: []Recipe{},
	}

	from := f.Offset()
	if from >= len(matched) {
		return page
	}
	to := from + f.PerPage
	if to > len(matched) {
		to = len(matched)
	}
	page.Recipes = append(page.Recipes, matched[from:to]...)
	return page
}

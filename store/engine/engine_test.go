package engine

import (
	"testing"
	"time"

	"github.com/nvkalinin/meal-planner/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// engine - общий набор методов всех хранилищ, по нему гоняются одинаковые тесты.
type engine interface {
	FindRecipe(id int64) (*store.Recipe, bool)
	ListRecipes(f store.RecipeFilter) (store.RecipePage, error)
	PutRecipes(data store.Recipes) error

	FindMealPlan(id int64) (*store.MealPlan, bool)
	ActiveMealPlan() (*store.MealPlan, bool)
	FindMealPlanByMeal(mealID int64) (*store.MealPlan, bool)
	PutMealPlan(p *store.MealPlan) error

	FindShoppingList(id int64) (*store.ShoppingList, bool)
	ActiveShoppingList() (*store.ShoppingList, bool)
	FindShoppingListByItem(itemID int64) (*store.ShoppingList, bool)
	PutShoppingList(l *store.ShoppingList) error
}

var (
	_ engine = (*Memory)(nil)
	_ engine = (*Bolt)(nil)
	_ engine = (*Postgres)(nil)
)

var created = time.Date(2025, time.November, 1, 12, 0, 0, 0, time.UTC)

var sampleRecipes = store.Recipes{
	1: {ID: 1, Title: "Overnight Oats", Description: "No-cook breakfast", MealType: store.Breakfast, Difficulty: store.Easy, Servings: 1, IsActive: true, CreatedAt: created, UpdatedAt: created},
	2: {ID: 2, Title: "Chicken Soup", Description: "Classic comfort food", MealType: store.Lunch, Difficulty: store.Medium, Servings: 4, IsActive: true, CreatedAt: created, UpdatedAt: created},
	3: {ID: 3, Title: "Beef Wellington", Description: "Pastry-wrapped beef", MealType: store.Dinner, Difficulty: store.Hard, Servings: 6, IsActive: true, CreatedAt: created, UpdatedAt: created},
	4: {ID: 4, Title: "Oat Cookies", Description: "Chewy 100% oat", MealType: store.Dessert, Difficulty: store.Easy, Servings: 12, IsActive: true, CreatedAt: created, UpdatedAt: created},
	5: {ID: 5, Title: "Retired Oat Bar", Description: "Old recipe", MealType: store.Snack, Difficulty: store.Easy, IsActive: false, CreatedAt: created, UpdatedAt: created},
}

func pageIDs(p store.RecipePage) []int64 {
	res := make([]int64, len(p.Recipes))
	for i, r := range p.Recipes {
		res[i] = r.ID
	}
	return res
}

func testRecipes(t *testing.T, e engine) {
	require.NoError(t, e.PutRecipes(sampleRecipes))

	r, ok := e.FindRecipe(2)
	require.True(t, ok)
	assert.Equal(t, "Chicken Soup", r.Title)
	assert.Equal(t, store.Lunch, r.MealType)
	assert.True(t, created.Equal(r.CreatedAt))

	r, ok = e.FindRecipe(5)
	require.True(t, ok, "неактивные рецепты хранятся, фильтруются при выдаче")
	assert.False(t, r.IsActive)

	_, ok = e.FindRecipe(100)
	assert.False(t, ok)

	page, err := e.ListRecipes(store.RecipeFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, pageIDs(page))
	assert.Equal(t, 4, page.Total)

	page, err = e.ListRecipes(store.RecipeFilter{Search: "oat", PerPage: 1, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, pageIDs(page))
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.LastPage())

	page, err = e.ListRecipes(store.RecipeFilter{Search: "100%"})
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, pageIDs(page))

	page, err = e.ListRecipes(store.RecipeFilter{MealType: store.Dinner, Difficulty: store.Hard})
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, pageIDs(page))

	page, err = e.ListRecipes(store.RecipeFilter{MealType: "brunch"})
	require.NoError(t, err)
	assert.Empty(t, page.Recipes)
	assert.Equal(t, 0, page.Total)

	// Повторное сохранение не меняет CreatedAt.
	later := created.Add(48 * time.Hour)
	upd := sampleRecipes[2]
	upd.Title = "Chicken Noodle Soup"
	upd.CreatedAt = later
	upd.UpdatedAt = later
	require.NoError(t, e.PutRecipes(store.Recipes{2: upd}))

	r, ok = e.FindRecipe(2)
	require.True(t, ok)
	assert.Equal(t, "Chicken Noodle Soup", r.Title)
	assert.True(t, created.Equal(r.CreatedAt))
	assert.True(t, later.Equal(r.UpdatedAt))
}

func testMealPlans(t *testing.T, e engine) {
	_, ok := e.ActiveMealPlan()
	assert.False(t, ok)

	first := &store.MealPlan{
		StartDate: "2025-11-10",
		EndDate:   "2025-11-16",
		IsActive:  true,
		Meals: []store.MealPlanRecipe{
			{RecipeID: 1, MealDate: "2025-11-10", MealType: store.Breakfast, Servings: 1, Recipe: &store.Recipe{ID: 1}},
			{RecipeID: 2, MealDate: "2025-11-10", MealType: store.Lunch, Servings: 2},
		},
	}
	require.NoError(t, e.PutMealPlan(first))
	require.NotZero(t, first.ID)
	require.NotZero(t, first.Meals[0].ID)
	require.NotEqual(t, first.Meals[0].ID, first.Meals[1].ID)
	assert.Equal(t, first.ID, first.Meals[1].MealPlanID)
	assert.NotNil(t, first.Meals[0].Recipe, "рецепт у вызывающего остается")

	active, ok := e.ActiveMealPlan()
	require.True(t, ok)
	assert.Equal(t, first.ID, active.ID)
	require.Len(t, active.Meals, 2)
	assert.Nil(t, active.Meals[0].Recipe, "рецепты в плане не хранятся, только recipe_id")

	byMeal, ok := e.FindMealPlanByMeal(first.Meals[1].ID)
	require.True(t, ok)
	assert.Equal(t, first.ID, byMeal.ID)

	second := &store.MealPlan{StartDate: "2025-11-17", EndDate: "2025-11-23", IsActive: true}
	require.NoError(t, e.PutMealPlan(second))
	assert.NotEqual(t, first.ID, second.ID)

	active, ok = e.ActiveMealPlan()
	require.True(t, ok)
	assert.Equal(t, second.ID, active.ID)

	old, ok := e.FindMealPlan(first.ID)
	require.True(t, ok)
	assert.False(t, old.IsActive, "новый активный план деактивирует предыдущий")

	_, ok = e.FindMealPlan(second.ID + 100)
	assert.False(t, ok)
	_, ok = e.FindMealPlanByMeal(first.Meals[1].ID + 100)
	assert.False(t, ok)

	// Изменение приема пищи существующего плана.
	old.Meals[1].RecipeID = 3
	require.NoError(t, e.PutMealPlan(old))
	old, ok = e.FindMealPlan(first.ID)
	require.True(t, ok)
	assert.Equal(t, int64(3), old.Meals[1].RecipeID)
	assert.Equal(t, first.Meals[1].ID, old.Meals[1].ID)
}

func testShoppingLists(t *testing.T, e engine) {
	_, ok := e.ActiveShoppingList()
	assert.False(t, ok)

	l := &store.ShoppingList{
		Name: "Weekly",
		Items: []store.ShoppingListItem{
			{Name: "Milk", Quantity: 1, Unit: "gallon", Category: store.Dairy},
		},
	}
	require.NoError(t, e.PutShoppingList(l))
	require.NotZero(t, l.ID)
	require.NotZero(t, l.Items[0].ID)
	assert.Equal(t, l.ID, l.Items[0].ShoppingListID)

	l.Items = append(l.Items, store.ShoppingListItem{Name: "Apples", Quantity: 2, Unit: "lbs", Category: store.Produce})
	require.NoError(t, e.PutShoppingList(l))
	require.NotZero(t, l.Items[1].ID)
	assert.NotEqual(t, l.Items[0].ID, l.Items[1].ID)

	found, ok := e.FindShoppingListByItem(l.Items[1].ID)
	require.True(t, ok)
	assert.Equal(t, l.ID, found.ID)
	assert.Len(t, found.Items, 2)

	active, ok := e.ActiveShoppingList()
	require.True(t, ok)
	assert.Equal(t, l.ID, active.ID)

	l.IsCompleted = true
	require.NoError(t, e.PutShoppingList(l))
	_, ok = e.ActiveShoppingList()
	assert.False(t, ok)

	stored, ok := e.FindShoppingList(l.ID)
	require.True(t, ok)
	assert.True(t, stored.IsCompleted)

	_, ok = e.FindShoppingListByItem(l.Items[1].ID + 100)
	assert.False(t, ok)
}

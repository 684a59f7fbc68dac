package shopping

import (
	"testing"
	"time"

	"github.com/nvkalinin/meal-planner/store"
	"github.com/nvkalinin/meal-planner/store/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, time.November, 6, 9, 0, 0, 0, time.UTC)

func makeLists(t *testing.T) *Lists {
	mem := engine.NewMemory()
	require.NoError(t, mem.PutMealPlan(&store.MealPlan{StartDate: "2025-11-10", EndDate: "2025-11-16", IsActive: true}))
	return &Lists{Store: mem, Now: func() time.Time { return now }}
}

func ptr(v int64) *int64 {
	return &v
}

func TestLists_Create(t *testing.T) {
	s := makeLists(t)

	_, ok := s.Active()
	assert.False(t, ok)

	l, err := s.Create("  Weekly Shopping List ", ptr(1))
	require.NoError(t, err)
	assert.NotZero(t, l.ID)
	assert.Equal(t, "Weekly Shopping List", l.Name)
	assert.Equal(t, int64(1), *l.MealPlanID)
	assert.Equal(t, now, l.CreatedAt)
	assert.False(t, l.IsCompleted)

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, l.ID, active.ID)

	_, err = s.Create(" ", nil)
	assert.ErrorIs(t, err, ErrInvalidList)
	_, err = s.Create("Party", ptr(42))
	assert.ErrorIs(t, err, ErrInvalidList)

	party, err := s.Create("Party", nil)
	require.NoError(t, err)
	assert.Nil(t, party.MealPlanID)

	active, ok = s.Active()
	require.True(t, ok)
	assert.Equal(t, party.ID, active.ID, "активный - последний созданный")
}

func TestLists_AddItem(t *testing.T) {
	s := makeLists(t)
	l, err := s.Create("Weekly", nil)
	require.NoError(t, err)

	item, err := s.AddItem(l.ID, AddItemRequest{Name: " Milk ", Quantity: 1, Unit: "gallon", Category: store.Dairy})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, l.ID, item.ShoppingListID)
	assert.Equal(t, "Milk", item.Name)
	assert.True(t, item.IsCustom)
	assert.False(t, item.IsChecked)

	item, err = s.AddItem(l.ID, AddItemRequest{Name: "Birthday candles", Quantity: 12})
	require.NoError(t, err)
	assert.Equal(t, store.Other, item.Category)

	stored, ok := s.Find(l.ID)
	require.True(t, ok)
	assert.Len(t, stored.Items, 2)

	tbl := map[string]AddItemRequest{
		"no name":      {Quantity: 1},
		"zero qty":     {Name: "Eggs"},
		"negative qty": {Name: "Eggs", Quantity: -2},
		"bad category": {Name: "Eggs", Quantity: 12, Category: "eggs"},
	}
	for name, req := range tbl {
		t.Run(name, func(t *testing.T) {
			_, err := s.AddItem(l.ID, req)
			assert.ErrorIs(t, err, ErrInvalidItem)
		})
	}

	_, err = s.AddItem(l.ID+100, AddItemRequest{Name: "Eggs", Quantity: 12})
	assert.ErrorIs(t, err, ErrListNotFound)
}

func TestLists_ToggleAndDelete(t *testing.T) {
	s := makeLists(t)
	l, err := s.Create("Weekly", nil)
	require.NoError(t, err)

	milk, err := s.AddItem(l.ID, AddItemRequest{Name: "Milk", Quantity: 1, Category: store.Dairy})
	require.NoError(t, err)
	apples, err := s.AddItem(l.ID, AddItemRequest{Name: "Apples", Quantity: 2, Unit: "lbs", Category: store.Produce})
	require.NoError(t, err)

	toggled, err := s.Toggle(milk.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsChecked)

	toggled, err = s.Toggle(milk.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsChecked)

	require.NoError(t, s.DeleteItem(milk.ID))
	stored, ok := s.Find(l.ID)
	require.True(t, ok)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, apples.ID, stored.Items[0].ID)

	_, err = s.Toggle(milk.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.ErrorIs(t, s.DeleteItem(milk.ID), ErrItemNotFound)
}

func TestLists_Complete(t *testing.T) {
	s := makeLists(t)
	l, err := s.Create("Weekly", nil)
	require.NoError(t, err)

	done, err := s.Complete(l.ID)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)

	_, ok := s.Active()
	assert.False(t, ok)

	done, err = s.Complete(l.ID)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)

	_, err = s.Complete(l.ID + 100)
	assert.ErrorIs(t, err, ErrListNotFound)
}

func TestByCategory(t *testing.T) {
	l := &store.ShoppingList{Items: []store.ShoppingListItem{
		{ID: 1, Name: "Milk", Category: store.Dairy},
		{ID: 2, Name: "Lettuce", Category: store.Produce},
		{ID: 3, Name: "Rice", Category: store.Pantry},
		{ID: 4, Name: "Cheese", Category: store.Dairy},
		{ID: 5, Name: "Apples", Category: store.Produce},
		{ID: 6, Name: "Mystery", Category: "unknown"},
	}}

	groups := ByCategory(l)
	require.Len(t, groups, 4)

	var cats []store.Category
	for _, g := range groups {
		cats = append(cats, g.Category)
	}
	assert.Equal(t, []store.Category{store.Produce, store.Dairy, store.Pantry, store.Other}, cats)
	assert.Equal(t, "Lettuce", groups[0].Items[0].Name)
	assert.Equal(t, "Apples", groups[0].Items[1].Name)
	assert.Equal(t, "Mystery", groups[3].Items[0].Name)

	assert.Empty(t, ByCategory(&store.ShoppingList{}))
}

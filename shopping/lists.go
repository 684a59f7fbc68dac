package shopping

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nvkalinin/meal-planner/log"
	"github.com/nvkalinin/meal-planner/store"
)

var (
	ErrInvalidList  = errors.New("invalid shopping list")
	ErrInvalidItem  = errors.New("invalid shopping list item")
	ErrListNotFound = errors.New("shopping list not found")
	ErrItemNotFound = errors.New("shopping list item not found")
)

type Store interface {
	FindMealPlan(id int64) (*store.MealPlan, bool)

	FindShoppingList(id int64) (*store.ShoppingList, bool)
	ActiveShoppingList() (*store.ShoppingList, bool)
	FindShoppingListByItem(itemID int64) (*store.ShoppingList, bool)
	PutShoppingList(l *store.ShoppingList) error
}

type Lists struct {
	Store Store
	Now   func() time.Time // Если nil - time.Now.
}

type AddItemRequest struct {
	Name     string         `json:"name"`
	Quantity float64        `json:"quantity"`
	Unit     string         `json:"unit"`
	Category store.Category `json:"category"`
	Notes    string         `json:"notes,omitempty"`
}

// Group - позиции списка одного отдела магазина.
type Group struct {
	Category store.Category           `json:"category"`
	Items    []store.ShoppingListItem `json:"items"`
}

func (s *Lists) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Create создает пустой список. mealPlanID необязателен, но если указан - план должен существовать.
func (s *Lists) Create(name string, mealPlanID *int64) (*store.ShoppingList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidList)
	}
	if mealPlanID != nil {
		if _, ok := s.Store.FindMealPlan(*mealPlanID); !ok {
			return nil, fmt.Errorf("%w: meal plan %d not found", ErrInvalidList, *mealPlanID)
		}
	}

	ts := s.now()
	l := &store.ShoppingList{
		MealPlanID: mealPlanID,
		Name:       name,
		CreatedAt:  ts,
		UpdatedAt:  ts,
		Items:      []store.ShoppingListItem{},
	}
	if err := s.Store.PutShoppingList(l); err != nil {
		return nil, fmt.Errorf("shopping cannot save list: %w", err)
	}

	log.Printf("[INFO] shopping created list %d '%s'", l.ID, l.Name)
	return l, nil
}

func (s *Lists) Find(id int64) (*store.ShoppingList, bool) {
	return s.Store.FindShoppingList(id)
}

// Active возвращает последний незавершенный список.
func (s *Lists) Active() (*store.ShoppingList, bool) {
	return s.Store.ActiveShoppingList()
}

// ByCategory группирует позиции списка по отделам магазина в порядке store.Categories.
// Пустые группы не возвращаются, порядок позиций внутри группы сохраняется.
func ByCategory(l *store.ShoppingList) []Group {
	byCat := make(map[store.Category][]store.ShoppingListItem)
	for _, item := range l.Items {
		cat := item.Category
		if !cat.Valid() {
			cat = store.Other
		}
		byCat[cat] = append(byCat[cat], item)
	}

	groups := make([]Group, 0, len(byCat))
	for _, cat := range store.Categories {
		if items, ok := byCat[cat]; ok {
			groups = append(groups, Group{Category: cat, Items: items})
		}
	}
	return groups
}

// AddItem добавляет в список позицию, введенную пользователем вручную.
func (s *Lists) AddItem(listID int64, req AddItemRequest) (*store.ShoppingListItem, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Unit = strings.TrimSpace(req.Unit)
	if req.Category == "" {
		req.Category = store.Other
	}

	switch {
	case req.Name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidItem)
	case req.Quantity <= 0:
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidItem)
	case !req.Category.Valid():
		return nil, fmt.Errorf("%w: unknown category '%s'", ErrInvalidItem, req.Category)
	}

	l, ok := s.Store.FindShoppingList(listID)
	if !ok {
		return nil, ErrListNotFound
	}

	ts := s.now()
	l.Items = append(l.Items, store.ShoppingListItem{
		Name:      req.Name,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		Category:  req.Category,
		IsCustom:  true,
		Notes:     req.Notes,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	l.UpdatedAt = ts

	if err := s.Store.PutShoppingList(l); err != nil {
		return nil, fmt.Errorf("shopping cannot save list %d: %w", l.ID, err)
	}

	item := l.Items[len(l.Items)-1]
	log.Printf("[DEBUG] shopping list %d: added item %d '%s'", l.ID, item.ID, item.Name)
	return &item, nil
}

// Toggle инвертирует отметку "куплено" у позиции.
func (s *Lists) Toggle(itemID int64) (*store.ShoppingListItem, error) {
	l, ok := s.Store.FindShoppingListByItem(itemID)
	if !ok {
		return nil, ErrItemNotFound
	}

	ts := s.now()
	i := l.ItemIndex(itemID)
	l.Items[i].IsChecked = !l.Items[i].IsChecked
	l.Items[i].UpdatedAt = ts
	l.UpdatedAt = ts

	if err := s.Store.PutShoppingList(l); err != nil {
		return nil, fmt.Errorf("shopping cannot save list %d: %w", l.ID, err)
	}

	item := l.Items[i]
	return &item, nil
}

func (s *Lists) DeleteItem(itemID int64) error {
	l, ok := s.Store.FindShoppingListByItem(itemID)
	if !ok {
		return ErrItemNotFound
	}

	i := l.ItemIndex(itemID)
	l.Items = append(l.Items[:i], l.Items[i+1:]...)
	l.UpdatedAt = s.now()

	if err := s.Store.PutShoppingList(l); err != nil {
		return fmt.Errorf("shopping cannot save list %d: %w", l.ID, err)
	}
	log.Printf("[DEBUG] shopping list %d: deleted item %d", l.ID, itemID)
	return nil
}

// Complete помечает список завершенным. Повторный вызов ничего не меняет.
func (s *Lists) Complete(listID int64) (*store.ShoppingList, error) {
	l, ok := s.Store.FindShoppingList(listID)
	if !ok {
		return nil, ErrListNotFound
	}
	if l.IsCompleted {
		return l, nil
	}

	l.IsCompleted = true
	l.UpdatedAt = s.now()
	if err := s.Store.PutShoppingList(l); err != nil {
		return nil, fmt.Errorf("shopping cannot save list %d: %w", l.ID, err)
	}

	log.Printf("[INFO] shopping list %d completed", l.ID)
	return l, nil
}

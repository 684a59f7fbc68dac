package engine

import (
	"sync"

	"github.com/nvkalinin/meal-planner/store"
)

type Memory struct {
	mu      sync.RWMutex
	recipes store.Recipes
	plans   map[int64]*store.MealPlan
	lists   map[int64]*store.ShoppingList
	planSeq int64
	mealSeq int64
	listSeq int64
	itemSeq int64
}

func NewMemory() *Memory {
	return &Memory{
		recipes: make(store.Recipes),
		plans:   make(map[int64]*store.MealPlan),
		lists:   make(map[int64]*store.ShoppingList),
	}
}

func (m *Memory) FindRecipe(id int64) (*store.Recipe, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.recipes[id]
	if !ok {
		return nil, false
	}
	return &r, true
}

func (m *Memory) ListRecipes(f store.RecipeFilter) (store.RecipePage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return store.FilterRecipes(m.recipes, f), nil
}

// PutRecipes добавляет или заменяет рецепты. CreatedAt уже сохраненных рецептов не меняется.
func (m *Memory) PutRecipes(data store.Recipes) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, r := range data {
		if old, exists := m.recipes[id]; exists && !old.CreatedAt.IsZero() {
			r.CreatedAt = old.CreatedAt
		}
		m.recipes[id] = r
	}
	return nil
}

func (m *Memory) FindMealPlan(id int64) (*store.MealPlan, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plans[id]
	if !ok {
		return nil, false
	}
	return p.Copy(), true
}

func (m *Memory) ActiveMealPlan() (*store.MealPlan, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var active *store.MealPlan
	for _, p := range m.plans {
		if p.IsActive && (active == nil || p.ID > active.ID) {
			active = p
		}
	}
	if active == nil {
		return nil, false
	}
	return active.Copy(), true
}

func (m *Memory) FindMealPlanByMeal(mealID int64) (*store.MealPlan, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.plans {
		if p.MealIndex(mealID) >= 0 {
			return p.Copy(), true
		}
	}
	return nil, false
}

// PutMealPlan сохраняет план, назначая id плану и приемам пищи, если они не заданы.
// Если план активный, остальные планы становятся неактивными.
func (m *Memory) PutMealPlan(p *store.MealPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == 0 {
		m.planSeq++
		p.ID = m.planSeq
	}
	for i := range p.Meals {
		if p.Meals[i].ID == 0 {
			m.mealSeq++
			p.Meals[i].ID = m.mealSeq
		}
		p.Meals[i].MealPlanID = p.ID
	}

	if p.IsActive {
		for id, other := range m.plans {
			if id != p.ID && other.IsActive {
				other.IsActive = false
			}
		}
	}

	saved := p.Copy()
	for i := range saved.Meals {
		saved.Meals[i].Recipe = nil
	}
	m.plans[p.ID] = saved
	return nil
}

func (m *Memory) FindShoppingList(id int64) (*store.ShoppingList, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.lists[id]
	if !ok {
		return nil, false
	}
	return l.Copy(), true
}

// ActiveShoppingList возвращает последний незавершенный список.
func (m *Memory) ActiveShoppingList() (*store.ShoppingList, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var active *store.ShoppingList
	for _, l := range m.lists {
		if !l.IsCompleted && (active == nil || l.ID > active.ID) {
			active = l
		}
	}
	if active == nil {
		return nil, false
	}
	return active.Copy(), true
}

func (m *Memory) FindShoppingListByItem(itemID int64) (*store.ShoppingList, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, l := range m.lists {
		if l.ItemIndex(itemID) >= 0 {
			return l.Copy(), true
		}
	}
	return nil, false
}

func (m *Memory) PutShoppingList(l *store.ShoppingList) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l.ID == 0 {
		m.listSeq++
		l.ID = m.listSeq
	}
	for i := range l.Items {
		if l.Items[i].ID == 0 {
			m.itemSeq++
			l.Items[i].ID = m.itemSeq
		}
		l.Items[i].ShoppingListID = l.ID
	}

	m.lists[l.ID] = l.Copy()
	return nil
}

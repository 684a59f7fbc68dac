package engine

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/nvkalinin/meal-planner/log"
	"github.com/nvkalinin/meal-planner/store"
	"go.etcd.io/bbolt"
)

const (
	recipesBucket = "recipes"
	plansBucket   = "meal_plans"
	mealsBucket   = "meals" // Используется только как счетчик id приемов пищи.
	listsBucket   = "shopping_lists"
	itemsBucket   = "shopping_items" // Используется только как счетчик id позиций списков.
)

// Bolt хранит каждую сущность (рецепт, план, список покупок) отдельным JSON-значением в своем бакете.
// Ключ - id в формате big-endian uint64, поэтому курсор обходит записи в порядке возрастания id.
//
// Приемы пищи и позиции списков покупок хранятся внутри планов и списков: они всегда читаются и
// изменяются вместе с родительской сущностью, а отдельные ключи потребовали бы транзакций по нескольким
// бакетам на каждое чтение плана.
type Bolt struct {
	db *bbolt.DB
}

func NewBolt(file string) (*Bolt, error) {
	b, err := bbolt.Open(file, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot open bolt store: %w", err)
	}
	log.Printf("[DEBUG] store/bolt opened %s successfully", file)

	err = b.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{recipesBucket, plansBucket, mealsBucket, listsBucket, itemsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("bolt cannot create bucket '%s': %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	return &Bolt{
		db: b,
	}, nil
}

func (b *Bolt) Close() error {
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("cannot close bolt store: %w", err)
	}
	log.Printf("[DEBUG] store/bolt closed successfully")
	return nil
}

func itob(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func btoi(k []byte) int64 {
	return int64(binary.BigEndian.Uint64(k))
}

func (b *Bolt) FindRecipe(id int64) (r *store.Recipe, ok bool) {
	_ = b.db.View(func(tx *bbolt.Tx) error {
		val := tx.Bucket([]byte(recipesBucket)).Get(itob(id))
		log.Printf("[DEBUG] store/bolt get recipe id=%d len=%d", id, len(val))
		if val == nil {
			return nil
		}

		r = &store.Recipe{}
		if err := json.Unmarshal(val, r); err != nil {
			log.Printf("[WARN] bolt: invalid recipe at %d: %v", id, err)
			r = nil
			return nil
		}
		ok = true
		return nil
	})
	return
}

// ListRecipes обходит весь бакет рецептов. Каталог рецептов небольшой, поэтому отдельные индексы
// по типу приема пищи и сложности не ведутся.
func (b *Bolt) ListRecipes(f store.RecipeFilter) (store.RecipePage, error) {
	f = f.Normalize()
	matched := make([]store.Recipe, 0, 64)

	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(recipesBucket)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var r store.Recipe
			if err := json.Unmarshal(v, &r); err != nil {
				log.Printf("[WARN] bolt: invalid recipe at %d: %v", btoi(k), err)
				continue
			}
			if f.Match(r) {
				matched = append(matched, r)
			}
		}
		return nil
	})
	if err != nil {
		return store.RecipePage{}, fmt.Errorf("bolt cannot list recipes: %w", err)
	}

	return store.Paginate(matched, f), nil
}

// PutRecipes добавляет или заменяет рецепты. CreatedAt уже сохраненных рецептов не меняется.
func (b *Bolt) PutRecipes(data store.Recipes) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(recipesBucket))

		for id, r := range data {
			key := itob(id)

			if old := bucket.Get(key); old != nil {
				var prev store.Recipe
				if err := json.Unmarshal(old, &prev); err == nil && !prev.CreatedAt.IsZero() {
					r.CreatedAt = prev.CreatedAt
				}
			}

			val, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("bolt cannot marshal recipe %d: %v", id, err)
			}

			log.Printf("[DEBUG] store/bolt put recipe id=%d len=%d", id, len(val))
			if err := bucket.Put(key, val); err != nil {
				return fmt.Errorf("bolt cannot put recipe %d: %v", id, err)
			}
		}
		return nil
	})
}

func (b *Bolt) FindMealPlan(id int64) (*store.MealPlan, bool) {
	return b.findPlan(func(p *store.MealPlan) bool { return p.ID == id })
}

func (b *Bolt) ActiveMealPlan() (*store.MealPlan, bool) {
	return b.findPlan(func(p *store.MealPlan) bool { return p.IsActive })
}

func (b *Bolt) FindMealPlanByMeal(mealID int64) (*store.MealPlan, bool) {
	return b.findPlan(func(p *store.MealPlan) bool { return p.MealIndex(mealID) >= 0 })
}

// findPlan возвращает последний (с наибольшим id) план, для которого match вернет true.
func (b *Bolt) findPlan(match func(p *store.MealPlan) bool) (res *store.MealPlan, ok bool) {
	_ = b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(plansBucket)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			p := &store.MealPlan{}
			if err := json.Unmarshal(v, p); err != nil {
				log.Printf("[WARN] bolt: invalid meal plan at %d: %v", btoi(k), err)
				continue
			}
			if match(p) {
				res, ok = p, true
				return nil
			}
		}
		return nil
	})
	return
}

// PutMealPlan сохраняет план, назначая id плану и приемам пищи, если они не заданы.
// Если план активный, остальные планы в той же транзакции становятся неактивными.
// Назначенные id попадают в p только после успешного коммита.
func (b *Bolt) PutMealPlan(p *store.MealPlan) error {
	saved := p.Copy()
	for i := range saved.Meals {
		saved.Meals[i].Recipe = nil
	}

	err := b.db.Update(func(tx *bbolt.Tx) error {
		plans := tx.Bucket([]byte(plansBucket))
		meals := tx.Bucket([]byte(mealsBucket))

		if saved.ID == 0 {
			seq, err := plans.NextSequence()
			if err != nil {
				return fmt.Errorf("bolt cannot allocate meal plan id: %w", err)
			}
			saved.ID = int64(seq)
		}
		for i := range saved.Meals {
			if saved.Meals[i].ID == 0 {
				seq, err := meals.NextSequence()
				if err != nil {
					return fmt.Errorf("bolt cannot allocate meal id: %w", err)
				}
				saved.Meals[i].ID = int64(seq)
			}
			saved.Meals[i].MealPlanID = saved.ID
		}

		if saved.IsActive {
			if err := deactivateOthers(plans, saved.ID); err != nil {
				return err
			}
		}
		return putJSON(plans, saved.ID, saved)
	})
	if err != nil {
		return err
	}

	setPlanIDs(p, saved)
	return nil
}

// setPlanIDs переносит id, назначенные хранилищем, из сохраненной копии в план вызывающего.
func setPlanIDs(dst, src *store.MealPlan) {
	dst.ID = src.ID
	for i := range dst.Meals {
		dst.Meals[i].ID = src.Meals[i].ID
		dst.Meals[i].MealPlanID = src.ID
	}
}

func setListIDs(dst, src *store.ShoppingList) {
	dst.ID = src.ID
	for i := range dst.Items {
		dst.Items[i].ID = src.Items[i].ID
		dst.Items[i].ShoppingListID = src.ID
	}
}

func deactivateOthers(plans *bbolt.Bucket, activeID int64) error {
	updates := make(map[int64]*store.MealPlan)

	c := plans.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		id := btoi(k)
		if id == activeID {
			continue
		}

		other := &store.MealPlan{}
		if err := json.Unmarshal(v, other); err != nil {
			log.Printf("[WARN] bolt: invalid meal plan at %d: %v", id, err)
			continue
		}
		if other.IsActive {
			other.IsActive = false
			updates[id] = other
		}
	}

	// Изменять бакет во время обхода курсором нельзя.
	for id, other := range updates {
		if err := putJSON(plans, id, other); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bolt) FindShoppingList(id int64) (*store.ShoppingList, bool) {
	return b.findList(func(l *store.ShoppingList) bool { return l.ID == id })
}

// ActiveShoppingList возвращает последний незавершенный список.
func (b *Bolt) ActiveShoppingList() (*store.ShoppingList, bool) {
	return b.findList(func(l *store.ShoppingList) bool { return !l.IsCompleted })
}

func (b *Bolt) FindShoppingListByItem(itemID int64) (*store.ShoppingList, bool) {
	return b.findList(func(l *store.ShoppingList) bool { return l.ItemIndex(itemID) >= 0 })
}

func (b *Bolt) findList(match func(l *store.ShoppingList) bool) (res *store.ShoppingList, ok bool) {
	_ = b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(listsBucket)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			l := &store.ShoppingList{}
			if err := json.Unmarshal(v, l); err != nil {
				log.Printf("[WARN] bolt: invalid shopping list at %d: %v", btoi(k), err)
				continue
			}
			if match(l) {
				res, ok = l, true
				return nil
			}
		}
		return nil
	})
	return
}

func (b *Bolt) PutShoppingList(l *store.ShoppingList) error {
	saved := l.Copy()

	err := b.db.Update(func(tx *bbolt.Tx) error {
		lists := tx.Bucket([]byte(listsBucket))
		items := tx.Bucket([]byte(itemsBucket))

		if saved.ID == 0 {
			seq, err := lists.NextSequence()
			if err != nil {
				return fmt.Errorf("bolt cannot allocate shopping list id: %w", err)
			}
			saved.ID = int64(seq)
		}
		for i := range saved.Items {
			if saved.Items[i].ID == 0 {
				seq, err := items.NextSequence()
				if err != nil {
					return fmt.Errorf("bolt cannot allocate shopping item id: %w", err)
				}
				saved.Items[i].ID = int64(seq)
			}
			saved.Items[i].ShoppingListID = saved.ID
		}

		return putJSON(lists, saved.ID, saved)
	})
	if err != nil {
		return err
	}

	setListIDs(l, saved)
	return nil
}

func putJSON(bucket *bbolt.Bucket, id int64, v any) error {
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("bolt cannot marshal %T %d: %v", v, id, err)
	}

	log.Printf("[DEBUG] store/bolt put %T id=%d len=%d", v, id, len(val))
	if err := bucket.Put(itob(id), val); err != nil {
		return fmt.Errorf("bolt cannot put %T %d: %v", v, id, err)
	}
	return nil
}

func (b *Bolt) Backup(w io.Writer) error {
	return b.db.View(func(tx *bbolt.Tx) error {
		log.Printf("[DEBUG] store/bolt writing backup len=%d", tx.Size())
		_, err := tx.WriteTo(w)
		return err
	})
}

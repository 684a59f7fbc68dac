package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/nvkalinin/meal-planner/log"
	"github.com/nvkalinin/meal-planner/store"
)

type Source interface {
	// GetRecipes может вернуть неполные рецепты: пустые поля заполняются из предыдущих источников.
	GetRecipes() (store.Recipes, error)
}

type Store interface {
	PutRecipes(data store.Recipes) error
}

type ProcOpts struct {
	Src      []Source         // Упорядоченный список источников рецептов.
	Store    Store            // Куда сохранять итоговый каталог (необязательно, если нужен только MakeCatalog).
	UpdateAt time.Time        // Используется только время, остальное игнорируется.
	Now      func() time.Time // Если nil - time.Now.
}

type Processor struct {
	ProcOpts
	stopCh chan struct{}
	doneCh chan struct{}
}

func NewProcessor(opts ProcOpts) *Processor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Processor{
		ProcOpts: opts,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// RunUpdates раз в сутки (UpdateAt) синхронизирует каталог рецептов со всеми источниками.
// Блокируется до вызова Shutdown.
func (p *Processor) RunUpdates() {
	defer close(p.doneCh)

	t := time.NewTimer(p.untilNextRun())
	defer t.Stop()

	for {
		select {
		case <-t.C:
			if _, err := p.UpdateCatalog(); err != nil {
				log.Printf("[WARN] catalog/proc scheduled sync: %+v", err)
			}
			t.Reset(p.untilNextRun())

		case <-p.stopCh:
			return
		}
	}
}

// Shutdown останавливает RunUpdates и ждет его завершения. Вызывать только если RunUpdates был запущен.
func (p *Processor) Shutdown(ctx context.Context) error {
	close(p.stopCh)

	select {
	case <-p.doneCh:
		return nil
	case <-ctx.Done():
		log.Printf("[WARN] catalog/proc shutdown timeout")
		return ctx.Err()
	}
}

func (p *Processor) untilNextRun() time.Duration {
	now := p.Now()

	nextRun := time.Date(
		now.Year(), now.Month(), now.Day(),
		p.UpdateAt.Hour(), p.UpdateAt.Minute(), p.UpdateAt.Second(), p.UpdateAt.Nanosecond(),
		now.Location(),
	)

	d := nextRun.Sub(now)
	if d < 0 {
		d += 24 * time.Hour
	}
	return d
}

// UpdateCatalog собирает каталог и сохраняет его в Store. Возвращает количество сохраненных рецептов.
func (p *Processor) UpdateCatalog() (int, error) {
	cat := p.MakeCatalog()
	if len(cat) == 0 {
		return 0, nil
	}

	now := p.Now().UTC()
	for id, r := range cat {
		r.CreatedAt = now
		r.UpdatedAt = now
		cat[id] = r
	}

	if err := p.Store.PutRecipes(cat); err != nil {
		return 0, fmt.Errorf("catalog/proc cannot store %d recipes: %w", len(cat), err)
	}
	log.Printf("[INFO] catalog/proc stored %d recipes", len(cat))
	return len(cat), nil
}

// MakeCatalog собирает каталог рецептов из источников Src.
// Если два источника возвращают рецепт с одним id, непустые поля последнего заменяют поля первого.
// Если источник вернет ошибку, он будет пропущен. Рецепты, которые после слияния остались без названия
// или с неизвестным типом приема пищи/сложностью, в каталог не попадают.
func (p *Processor) MakeCatalog() store.Recipes {
	cat := make(store.Recipes)

	for i, src := range p.Src {
		recipes, err := src.GetRecipes()
		if err != nil {
			log.Printf("[WARN] catalog/proc skipping source %d (%T), error: %+v", i, src, err)
			continue
		}

		cat = merge(cat, recipes)
	}

	for id, r := range cat {
		if err := validate(r); err != nil {
			log.Printf("[WARN] catalog/proc skipping recipe %d: %v", id, err)
			delete(cat, id)
		}
	}
	return cat
}

func validate(r store.Recipe) error {
	if r.Title == "" {
		return fmt.Errorf("empty title")
	}
	if !r.MealType.Valid() {
		return fmt.Errorf("unknown meal type '%s'", r.MealType)
	}
	if !r.Difficulty.Valid() {
		return fmt.Errorf("unknown difficulty '%s'", r.Difficulty)
	}
	return nil
}

func merge(r1 store.Recipes, r2 store.Recipes) store.Recipes {
	res := r1.Copy()
	for id, r := range r2 {
		merged, exists := res[id]
		if !exists {
			merged.ID = id
		}
		merged.IsActive = r.IsActive

		if r.Title != "" {
			merged.Title = r.Title
		}
		if r.Description != "" {
			merged.Description = r.Description
		}
		if r.Instructions != "" {
			merged.Instructions = r.Instructions
		}
		if r.PrepTime != 0 {
			merged.PrepTime = r.PrepTime
		}
		if r.CookTime != 0 {
			merged.CookTime = r.CookTime
		}
		if r.TotalTime != 0 {
			merged.TotalTime = r.TotalTime
		}
		if r.Servings != 0 {
			merged.Servings = r.Servings
		}
		if r.Difficulty != "" {
			merged.Difficulty = r.Difficulty
		}
		if r.MealType != "" {
			merged.MealType = r.MealType
		}
		if r.ImagePath != "" {
			merged.ImagePath = r.ImagePath
		}

		if merged.TotalTime == 0 {
			merged.TotalTime = merged.PrepTime + merged.CookTime
		}
		res[id] = merged
	}
	return res
}

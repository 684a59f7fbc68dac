package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nvkalinin/meal-planner/log"
	"github.com/nvkalinin/meal-planner/store"
)

// Рецепты хранятся в обычной таблице, чтобы фильтры списка выполнялись на стороне БД.
// Планы и списки покупок - JSONB-документами, как и в bolt: вложенные сущности читаются и пишутся
// только вместе с родительской.
const pgSchema = `
CREATE TABLE IF NOT EXISTS recipes (
	id           BIGINT PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	instructions TEXT NOT NULL DEFAULT '',
	prep_time    INTEGER NOT NULL DEFAULT 0,
	cook_time    INTEGER NOT NULL DEFAULT 0,
	total_time   INTEGER NOT NULL DEFAULT 0,
	servings     INTEGER NOT NULL DEFAULT 0,
	difficulty   TEXT NOT NULL,
	meal_type    TEXT NOT NULL,
	image_path   TEXT NOT NULL DEFAULT '',
	is_active    BOOLEAN NOT NULL DEFAULT TRUE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS recipes_meal_type_idx ON recipes (meal_type);
CREATE INDEX IF NOT EXISTS recipes_difficulty_idx ON recipes (difficulty);
CREATE INDEX IF NOT EXISTS recipes_is_active_idx ON recipes (is_active);

CREATE TABLE IF NOT EXISTS meal_plans (
	id        BIGSERIAL PRIMARY KEY,
	is_active BOOLEAN NOT NULL DEFAULT FALSE,
	body      JSONB NOT NULL
);
CREATE SEQUENCE IF NOT EXISTS meal_ids;

CREATE TABLE IF NOT EXISTS shopping_lists (
	id           BIGSERIAL PRIMARY KEY,
	is_completed BOOLEAN NOT NULL DEFAULT FALSE,
	body         JSONB NOT NULL
);
CREATE SEQUENCE IF NOT EXISTS shopping_item_ids;
`

const recipeColumns = `id, title, description, instructions, prep_time, cook_time, total_time, servings,
	difficulty, meal_type, image_path, is_active, created_at, updated_at`

type PostgresOpts struct {
	DSN          string
	MaxConns     int32
	QueryTimeout time.Duration
}

type Postgres struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewPostgres(opts PostgresOpts) (*Postgres, error) {
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 5 * time.Second
	}

	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("cannot parse postgres dsn: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("cannot open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot migrate postgres schema: %w", err)
	}
	log.Printf("[DEBUG] store/postgres connected, schema is up to date")

	return &Postgres{pool: pool, timeout: opts.QueryTimeout}, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	log.Printf("[DEBUG] store/postgres closed successfully")
	return nil
}

func (p *Postgres) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), p.timeout)
}

func scanRecipe(row pgx.Row) (store.Recipe, error) {
	var r store.Recipe
	var difficulty, mealType string
	err := row.Scan(&r.ID, &r.Title, &r.Description, &r.Instructions, &r.PrepTime, &r.CookTime, &r.TotalTime,
		&r.Servings, &difficulty, &mealType, &r.ImagePath, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	r.Difficulty = store.Difficulty(difficulty)
	r.MealType = store.MealType(mealType)
	return r, err
}

func (p *Postgres) FindRecipe(id int64) (*store.Recipe, bool) {
	ctx, cancel := p.ctx()
	defer cancel()

	row := p.pool.QueryRow(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = $1`, id)
	r, err := scanRecipe(row)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("[WARN] postgres: cannot find recipe %d: %v", id, err)
		}
		return nil, false
	}
	return &r, true
}

// likePattern экранирует спецсимволы LIKE, чтобы строка поиска искалась как подстрока.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func (p *Postgres) ListRecipes(f store.RecipeFilter) (store.RecipePage, error) {
	f = f.Normalize()
	ctx, cancel := p.ctx()
	defer cancel()

	where := []string{"is_active"}
	args := []any{}
	if f.MealType != "" {
		args = append(args, string(f.MealType))
		where = append(where, fmt.Sprintf("meal_type = $%d", len(args)))
	}
	if f.Difficulty != "" {
		args = append(args, string(f.Difficulty))
		where = append(where, fmt.Sprintf("difficulty = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, likePattern(f.Search))
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	cond := strings.Join(where, " AND ")

	page := store.RecipePage{Page: f.Page, PerPage: f.PerPage, Recipes: []store.Recipe{}}
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM recipes WHERE `+cond, args...).Scan(&page.Total); err != nil {
		return store.RecipePage{}, fmt.Errorf("postgres cannot count recipes: %w", err)
	}

	args = append(args, f.PerPage, f.Offset())
	query := fmt.Sprintf(`SELECT %s FROM recipes WHERE %s ORDER BY id LIMIT $%d OFFSET $%d`,
		recipeColumns, cond, len(args)-1, len(args))
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return store.RecipePage{}, fmt.Errorf("postgres cannot list recipes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return store.RecipePage{}, fmt.Errorf("postgres cannot scan recipe: %w", err)
		}
		page.Recipes = append(page.Recipes, r)
	}
	if err := rows.Err(); err != nil {
		return store.RecipePage{}, fmt.Errorf("postgres cannot list recipes: %w", err)
	}
	return page, nil
}

// PutRecipes добавляет или заменяет рецепты. CreatedAt уже сохраненных рецептов не меняется.
func (p *Postgres) PutRecipes(data store.Recipes) error {
	ctx, cancel := p.ctx()
	defer cancel()

	batch := &pgx.Batch{}
	for _, r := range data {
		created := r.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		updated := r.UpdatedAt
		if updated.IsZero() {
			updated = created
		}

		batch.Queue(`INSERT INTO recipes (`+recipeColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title, description = EXCLUDED.description, instructions = EXCLUDED.instructions,
				prep_time = EXCLUDED.prep_time, cook_time = EXCLUDED.cook_time, total_time = EXCLUDED.total_time,
				servings = EXCLUDED.servings, difficulty = EXCLUDED.difficulty, meal_type = EXCLUDED.meal_type,
				image_path = EXCLUDED.image_path, is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at`,
			r.ID, r.Title, r.Description, r.Instructions, r.PrepTime, r.CookTime, r.TotalTime, r.Servings,
			string(r.Difficulty), string(r.MealType), r.ImagePath, r.IsActive, created, updated)
	}

	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres cannot put recipes: %w", err)
	}
	return nil
}

func (p *Postgres) FindMealPlan(id int64) (*store.MealPlan, bool) {
	return p.findPlan(`SELECT body FROM meal_plans WHERE id = $1`, id)
}

func (p *Postgres) ActiveMealPlan() (*store.MealPlan, bool) {
	return p.findPlan(`SELECT body FROM meal_plans WHERE is_active ORDER BY id DESC LIMIT 1`)
}

func (p *Postgres) FindMealPlanByMeal(mealID int64) (*store.MealPlan, bool) {
	return p.findPlan(`SELECT body FROM meal_plans
		WHERE body->'meals' @> jsonb_build_array(jsonb_build_object('id', $1::bigint))
		ORDER BY id DESC LIMIT 1`, mealID)
}

func (p *Postgres) findPlan(query string, args ...any) (*store.MealPlan, bool) {
	plan := &store.MealPlan{}
	if !p.findDoc(plan, query, args...) {
		return nil, false
	}
	return plan, true
}

func (p *Postgres) findDoc(dst any, query string, args ...any) bool {
	ctx, cancel := p.ctx()
	defer cancel()

	var body []byte
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&body); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("[WARN] postgres: cannot load %T: %v", dst, err)
		}
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		log.Printf("[WARN] postgres: invalid %T document: %v", dst, err)
		return false
	}
	return true
}

// PutMealPlan сохраняет план, назначая id плану и приемам пищи, если они не заданы.
// Если план активный, остальные планы в той же транзакции становятся неактивными.
// Назначенные id попадают в plan только после успешного коммита.
func (p *Postgres) PutMealPlan(plan *store.MealPlan) error {
	ctx, cancel := p.ctx()
	defer cancel()

	saved := plan.Copy()
	for i := range saved.Meals {
		saved.Meals[i].Recipe = nil
	}

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if saved.ID == 0 {
			if err := tx.QueryRow(ctx, `SELECT nextval('meal_plans_id_seq')`).Scan(&saved.ID); err != nil {
				return fmt.Errorf("postgres cannot allocate meal plan id: %w", err)
			}
		}
		for i := range saved.Meals {
			if saved.Meals[i].ID == 0 {
				if err := tx.QueryRow(ctx, `SELECT nextval('meal_ids')`).Scan(&saved.Meals[i].ID); err != nil {
					return fmt.Errorf("postgres cannot allocate meal id: %w", err)
				}
			}
			saved.Meals[i].MealPlanID = saved.ID
		}

		if saved.IsActive {
			_, err := tx.Exec(ctx, `UPDATE meal_plans
				SET is_active = FALSE, body = jsonb_set(body, '{is_active}', 'false')
				WHERE is_active AND id <> $1`, saved.ID)
			if err != nil {
				return fmt.Errorf("postgres cannot deactivate meal plans: %w", err)
			}
		}

		body, err := json.Marshal(saved)
		if err != nil {
			return fmt.Errorf("postgres cannot marshal meal plan %d: %w", saved.ID, err)
		}

		_, err = tx.Exec(ctx, `INSERT INTO meal_plans (id, is_active, body) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET is_active = EXCLUDED.is_active, body = EXCLUDED.body`,
			saved.ID, saved.IsActive, body)
		if err != nil {
			return fmt.Errorf("postgres cannot put meal plan %d: %w", saved.ID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	setPlanIDs(plan, saved)
	return nil
}

func (p *Postgres) FindShoppingList(id int64) (*store.ShoppingList, bool) {
	return p.findList(`SELECT body FROM shopping_lists WHERE id = $1`, id)
}

// ActiveShoppingList возвращает последний незавершенный список.
func (p *Postgres) ActiveShoppingList() (*store.ShoppingList, bool) {
	return p.findList(`SELECT body FROM shopping_lists WHERE NOT is_completed ORDER BY id DESC LIMIT 1`)
}

func (p *Postgres) FindShoppingListByItem(itemID int64) (*store.ShoppingList, bool) {
	return p.findList(`SELECT body FROM shopping_lists
		WHERE body->'items' @> jsonb_build_array(jsonb_build_object('id', $1::bigint))
		ORDER BY id DESC LIMIT 1`, itemID)
}

func (p *Postgres) findList(query string, args ...any) (*store.ShoppingList, bool) {
	l := &store.ShoppingList{}
	if !p.findDoc(l, query, args...) {
		return nil, false
	}
	return l, true
}

func (p *Postgres) PutShoppingList(l *store.ShoppingList) error {
	ctx, cancel := p.ctx()
	defer cancel()

	saved := l.Copy()
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if saved.ID == 0 {
			if err := tx.QueryRow(ctx, `SELECT nextval('shopping_lists_id_seq')`).Scan(&saved.ID); err != nil {
				return fmt.Errorf("postgres cannot allocate shopping list id: %w", err)
			}
		}
		for i := range saved.Items {
			if saved.Items[i].ID == 0 {
				if err := tx.QueryRow(ctx, `SELECT nextval('shopping_item_ids')`).Scan(&saved.Items[i].ID); err != nil {
					return fmt.Errorf("postgres cannot allocate shopping item id: %w", err)
				}
			}
			saved.Items[i].ShoppingListID = saved.ID
		}

		body, err := json.Marshal(saved)
		if err != nil {
			return fmt.Errorf("postgres cannot marshal shopping list %d: %w", saved.ID, err)
		}

		_, err = tx.Exec(ctx, `INSERT INTO shopping_lists (id, is_completed, body) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET is_completed = EXCLUDED.is_completed, body = EXCLUDED.body`,
			saved.ID, saved.IsCompleted, body)
		if err != nil {
			return fmt.Errorf("postgres cannot put shopping list %d: %w", saved.ID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	setListIDs(l, saved)
	return nil
}

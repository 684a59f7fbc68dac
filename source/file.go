package source

import (
	"fmt"
	"os"

	"github.com/nvkalinin/meal-planner/store"
	"gopkg.in/yaml.v3"
)

// File - источник, который берет рецепты из YAML-файла. Ключ верхнего уровня - id рецепта.
// Поля, которые не указаны, остаются такими, какими их вернули предыдущие источники.
type File struct {
	Path string
}

type fileRecipe struct {
	Title        string           `yaml:"title"`
	Description  string           `yaml:"description"`
	Instructions string           `yaml:"instructions"`
	PrepTime     int              `yaml:"prep_time"`
	CookTime     int              `yaml:"cook_time"`
	TotalTime    int              `yaml:"total_time"`
	Servings     int              `yaml:"servings"`
	Difficulty   store.Difficulty `yaml:"difficulty"`
	MealType     store.MealType   `yaml:"meal_type"`
	ImagePath    string           `yaml:"image_path"`
	IsActive     *bool            `yaml:"is_active"` // Если не указано - рецепт активен.
}

func (f *File) GetRecipes() (store.Recipes, error) {
	// Админ может менять файл, поэтому читаем его при каждом вызове.
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("cannot read recipes yaml: %w", err)
	}

	parsed := map[int64]fileRecipe{}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("cannot parse recipes yaml: %w", err)
	}

	recipes := make(store.Recipes, len(parsed))
	for id, fr := range parsed {
		active := true
		if fr.IsActive != nil {
			active = *fr.IsActive
		}

		recipes[id] = store.Recipe{
			ID:           id,
			Title:        fr.Title,
			Description:  fr.Description,
			Instructions: fr.Instructions,
			PrepTime:     fr.PrepTime,
			CookTime:     fr.CookTime,
			TotalTime:    fr.TotalTime,
			Servings:     fr.Servings,
			Difficulty:   fr.Difficulty,
			MealType:     fr.MealType,
			ImagePath:    fr.ImagePath,
			IsActive:     active,
		}
	}
	return recipes, nil
}

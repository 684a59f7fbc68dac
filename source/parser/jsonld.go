package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nvkalinin/meal-planner/log"
	"github.com/nvkalinin/meal-planner/store"
)

// JSONLD читает рецепты из блоков <script type="application/ld+json"> с объектом типа Recipe.
type JSONLD struct {
	Site
}

func (j *JSONLD) GetRecipes() (store.Recipes, error) {
	return j.getRecipes("jsonld", j.parseRecipe)
}

type ldRecipe struct {
	Type         json.RawMessage `json:"@type"`
	Graph        []ldRecipe      `json:"@graph"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	PrepTime     string          `json:"prepTime"`
	CookTime     string          `json:"cookTime"`
	TotalTime    string          `json:"totalTime"`
	Yield        json.RawMessage `json:"recipeYield"`
	Category     json.RawMessage `json:"recipeCategory"`
	Instructions json.RawMessage `json:"recipeInstructions"`
	Image        json.RawMessage `json:"image"`
	Difficulty   string          `json:"difficulty"`
}

func (*JSONLD) parseRecipe(doc *goquery.Document) (store.Recipe, error) {
	var found *ldRecipe
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, n *goquery.Selection) bool {
		var objs []ldRecipe
		if err := decodeOneOrMany([]byte(n.Text()), &objs); err != nil {
			log.Printf("[WARN] parser/jsonld skipping script at index %d: %v", i, err)
			return true
		}
		found = findRecipe(objs)
		return found == nil
	})
	if found == nil {
		return store.Recipe{}, fmt.Errorf("recipe object not found")
	}

	ld := found
	r := store.Recipe{
		Title:       cleanText(ld.Name),
		Description: cleanText(ld.Description),
	}
	if r.Title == "" {
		return store.Recipe{}, fmt.Errorf("recipe name is empty")
	}

	if mins, ok := parseMinutes(ld.PrepTime); ok {
		r.PrepTime = mins
	}
	if mins, ok := parseMinutes(ld.CookTime); ok {
		r.CookTime = mins
	}
	if mins, ok := parseMinutes(ld.TotalTime); ok {
		r.TotalTime = mins
	}

	for _, y := range flatStrings(ld.Yield) {
		if n, ok := parseServings(y); ok {
			r.Servings = n
			break
		}
	}
	for _, c := range flatStrings(ld.Category) {
		if mt, ok := mapMealType(c); ok {
			r.MealType = mt
			break
		}
	}
	if d, ok := mapDifficulty(ld.Difficulty); ok {
		r.Difficulty = d
	}

	var steps []string
	for _, s := range flatStrings(ld.Instructions) {
		if s = cleanText(s); s != "" {
			steps = append(steps, s)
		}
	}
	r.Instructions = strings.Join(steps, "\n")

	if images := flatStrings(ld.Image); len(images) > 0 {
		r.ImagePath = strings.TrimSpace(images[0])
	}
	return r, nil
}

func findRecipe(objs []ldRecipe) *ldRecipe {
	for i := range objs {
		if isRecipeType(objs[i].Type) {
			return &objs[i]
		}
		if r := findRecipe(objs[i].Graph); r != nil {
			return r
		}
	}
	return nil
}

// isRecipeType учитывает, что @type может быть строкой или массивом строк.
func isRecipeType(raw json.RawMessage) bool {
	var types []string
	if err := decodeOneOrMany(raw, &types); err != nil {
		return false
	}
	for _, t := range types {
		if t == "Recipe" {
			return true
		}
	}
	return false
}

// decodeOneOrMany декодирует как одиночное значение, так и массив значений.
func decodeOneOrMany[T any](data []byte, dst *[]T) error {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 {
		return fmt.Errorf("empty json")
	}
	if data[0] == '[' {
		return json.Unmarshal(data, dst)
	}

	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*dst = []T{one}
	return nil
}

// flatStrings превращает строку, число, массив или объекты HowToStep/ImageObject в список строк.
func flatStrings(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}

	var res []string
	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case string:
			res = append(res, val)
		case float64:
			res = append(res, fmt.Sprintf("%g", val))
		case []any:
			for _, item := range val {
				walk(item)
			}
		case map[string]any:
			if items, ok := val["itemListElement"]; ok {
				walk(items)
				return
			}
			for _, key := range []string{"text", "url", "name"} {
				if s, ok := val[key].(string); ok {
					res = append(res, s)
					return
				}
			}
		}
	}
	walk(v)
	return res
}

package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nvkalinin/meal-planner/log"
	"github.com/nvkalinin/meal-planner/store"
)

// Microdata читает рецепты, размеченные атрибутами itemscope/itemprop по схеме https://schema.org/Recipe.
type Microdata struct {
	Site
}

func (m *Microdata) GetRecipes() (store.Recipes, error) {
	return m.getRecipes("microdata", m.parseRecipe)
}

func (*Microdata) parseRecipe(doc *goquery.Document) (store.Recipe, error) {
	scope := doc.Find(`[itemscope][itemtype$="schema.org/Recipe"]`).First()
	if scope.Length() == 0 {
		return store.Recipe{}, fmt.Errorf("recipe scope not found")
	}

	var r store.Recipe
	r.Title = cleanText(prop(scope, "name"))
	if r.Title == "" {
		return store.Recipe{}, fmt.Errorf("recipe name is empty")
	}
	r.Description = cleanText(prop(scope, "description"))

	if mins, ok := parseMinutes(prop(scope, "prepTime")); ok {
		r.PrepTime = mins
	}
	if mins, ok := parseMinutes(prop(scope, "cookTime")); ok {
		r.CookTime = mins
	}
	if mins, ok := parseMinutes(prop(scope, "totalTime")); ok {
		r.TotalTime = mins
	}
	if n, ok := parseServings(prop(scope, "recipeYield")); ok {
		r.Servings = n
	}

	scope.Find(`[itemprop="recipeCategory"]`).EachWithBreak(func(_ int, n *goquery.Selection) bool {
		if mt, ok := mapMealType(propValue(n)); ok {
			r.MealType = mt
			return false
		}
		return true
	})
	if r.MealType == "" {
		log.Printf("[DEBUG] parser/microdata recipe '%s' has no known category", r.Title)
	}

	// Сложность не входит в schema.org, но часто встречается в разметке сайтов.
	if d, ok := mapDifficulty(scope.Find("[data-difficulty]").First().AttrOr("data-difficulty", "")); ok {
		r.Difficulty = d
	}

	var steps []string
	scope.Find(`[itemprop="recipeInstructions"]`).Each(func(_ int, n *goquery.Selection) {
		if s := cleanText(n.Text()); s != "" {
			steps = append(steps, s)
		}
	})
	r.Instructions = strings.Join(steps, "\n")

	if img := scope.Find(`[itemprop="image"]`).First(); img.Length() > 0 {
		r.ImagePath = strings.TrimSpace(firstAttr(img, "src", "content", "href"))
	}
	return r, nil
}

// prop возвращает значение первого свойства name внутри scope.
func prop(scope *goquery.Selection, name string) string {
	n := scope.Find(`[itemprop="` + name + `"]`).First()
	if n.Length() == 0 {
		return ""
	}
	return propValue(n)
}

// propValue учитывает, что значение может лежать в атрибуте (meta, time) или в тексте элемента.
func propValue(n *goquery.Selection) string {
	if v := firstAttr(n, "content", "datetime"); v != "" {
		return v
	}
	return n.Text()
}

func firstAttr(n *goquery.Selection, attrs ...string) string {
	for _, a := range attrs {
		if v, ok := n.Attr(a); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

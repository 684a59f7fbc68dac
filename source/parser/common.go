package parser

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nvkalinin/meal-planner/log"
	"github.com/nvkalinin/meal-planner/store"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"
)

// Site - общие настройки обхода сайта с рецептами: сначала загружается страница-индекс со ссылками
// вида <a data-recipe-id="12" href="/recipes/12">, затем страница каждого рецепта.
type Site struct {
	Client    *http.Client
	UserAgent string
	BaseURL   string
	IndexPath string        // По умолчанию /recipes/.
	Limiter   *rate.Limiter // Ограничивает частоту запросов к сайту. Если nil - без ограничений.
}

type recipeLink struct {
	id  int64
	url string
}

func (s *Site) indexURL() string {
	path := s.IndexPath
	if path == "" {
		path = "/recipes/"
	}
	return strings.TrimRight(s.BaseURL, "/") + path
}

// fetch загружает страницу и возвращает ее DOM. name используется только в логах.
func (s *Site) fetch(name string, url string) (*goquery.Document, error) {
	if s.Limiter != nil {
		if err := s.Limiter.Wait(context.Background()); err != nil {
			return nil, fmt.Errorf("parser/%s rate limiter: %w", name, err)
		}
	}

	req, err := http.NewRequest(http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("parser/%s cannot make request: %w", name, err)
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	log.Printf("[DEBUG] parser/%s request: URL=%s", name, url)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("parser/%s cannot GET %s: %w", name, url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("[WARN] parser/%s cannot close response: %+v", name, err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("parser/%s GET %s: unexpected status %d", name, url, resp.StatusCode)
	}

	dom, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parser/%s cannot parse html: %w", name, err)
	}
	return dom, nil
}

// findLinks находит на странице-индексе ссылки на рецепты. Дубликаты и ссылки без id пропускаются.
func (s *Site) findLinks(name string, doc *goquery.Document) []recipeLink {
	nodes := doc.Find("a[data-recipe-id]")
	log.Printf("[DEBUG] parser/%s found %d recipe links", name, nodes.Length())

	seen := make(map[int64]bool, nodes.Length())
	links := make([]recipeLink, 0, nodes.Length())
	nodes.Each(func(i int, n *goquery.Selection) {
		rawID, _ := n.Attr("data-recipe-id")
		id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
		if err != nil || id <= 0 {
			log.Printf("[WARN] parser/%s skipping link at index %d: invalid id '%s'", name, i, rawID)
			return
		}
		if seen[id] {
			log.Printf("[WARN] parser/%s skipping link at index %d: recipe %d was already found", name, i, id)
			return
		}

		href, ok := n.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			log.Printf("[WARN] parser/%s skipping recipe %d: empty href", name, id)
			return
		}

		seen[id] = true
		links = append(links, recipeLink{id: id, url: s.absURL(href)})
	})
	return links
}

func (s *Site) absURL(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(href, "/")
}

// getRecipes загружает индекс и все рецепты из него. Рецепт, страницу которого не удалось загрузить
// или разобрать, пропускается; ошибка возвращается только если недоступен сам индекс.
func (s *Site) getRecipes(name string, parse func(doc *goquery.Document) (store.Recipe, error)) (store.Recipes, error) {
	index, err := s.fetch(name, s.indexURL())
	if err != nil {
		return nil, err
	}

	links := s.findLinks(name, index)
	recipes := make(store.Recipes, len(links))
	for _, link := range links {
		doc, err := s.fetch(name, link.url)
		if err != nil {
			log.Printf("[WARN] parser/%s skipping recipe %d: %v", name, link.id, err)
			continue
		}

		r, err := parse(doc)
		if err != nil {
			log.Printf("[WARN] parser/%s skipping recipe %d: %v", name, link.id, err)
			continue
		}

		r.ID = link.id
		r.IsActive = true
		if r.TotalTime == 0 {
			r.TotalTime = r.PrepTime + r.CookTime
		}
		if r.Difficulty == "" {
			r.Difficulty = difficultyByTime(r.TotalTime)
		}
		recipes[link.id] = r
	}

	if len(recipes) != len(links) {
		log.Printf("[WARN] parser/%s returns incomplete catalog: %d of %d recipes", name, len(recipes), len(links))
	}
	return recipes, nil
}

// cleanText устраняет неожиданные символы вроде неразрывного пробела и схлопывает пробелы.
func cleanText(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// parseMinutes разбирает длительность ISO 8601 (PT1H30M) или просто число минут.
func parseMinutes(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n, true
	}

	m := isoDuration.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0, false
	}

	var parts [4]int
	for i := range parts {
		if m[i+1] != "" {
			parts[i], _ = strconv.Atoi(m[i+1])
		}
	}
	days, hours, mins, secs := parts[0], parts[1], parts[2], parts[3]
	return days*24*60 + hours*60 + mins + (secs+59)/60, true
}

var leadingNumber = regexp.MustCompile(`\d+`)

// parseServings достает количество порций из строк вида "4 servings" или "Serves 6".
func parseServings(s string) (int, bool) {
	num := leadingNumber.FindString(s)
	if num == "" {
		return 0, false
	}
	n, err := strconv.Atoi(num)
	return n, err == nil && n > 0
}

func mapMealType(category string) (store.MealType, bool) {
	// @formatter:off
	switch strings.ToLower(cleanText(category)) {
	case "breakfast", "brunch":                          return store.Breakfast, true
	case "lunch", "salad", "soup", "sandwich":           return store.Lunch, true
	case "dinner", "main course", "main dish", "entree": return store.Dinner, true
	case "snack", "appetizer", "starter", "side dish":   return store.Snack, true
	case "dessert", "baking", "sweets":                  return store.Dessert, true
	default:                                             return "", false
	}
	// @formatter:on
}

func mapDifficulty(s string) (store.Difficulty, bool) {
	// @formatter:off
	switch strings.ToLower(cleanText(s)) {
	case "easy", "simple", "beginner":        return store.Easy, true
	case "medium", "moderate", "intermediate": return store.Medium, true
	case "hard", "difficult", "advanced":      return store.Hard, true
	default:                                   return "", false
	}
	// @formatter:on
}

// difficultyByTime используется, если сайт не указывает сложность рецепта.
func difficultyByTime(totalMinutes int) store.Difficulty {
	switch {
	case totalMinutes <= 20:
		return store.Easy
	case totalMinutes <= 60:
		return store.Medium
	default:
		return store.Hard
	}
}

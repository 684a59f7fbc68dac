package source

import (
	"github.com/nvkalinin/meal-planner/store"
)

// Starter возвращает небольшой встроенный каталог, чтобы у нового сервера было из чего составлять планы.
// Идет первым в списке источников: остальные источники могут изменить или скрыть любой из этих рецептов.
type Starter struct{}

func NewStarter() *Starter {
	return &Starter{}
}

func (*Starter) GetRecipes() (store.Recipes, error) {
	list := []store.Recipe{
		{ID: 1, Title: "Overnight Oats", MealType: store.Breakfast, Difficulty: store.Easy, PrepTime: 5, CookTime: 0, Servings: 1,
			Description: "Rolled oats soaked in milk with berries and honey.",
			Instructions: "Mix oats, milk and yogurt in a jar. Refrigerate overnight. Top with berries and honey."},
		{ID: 2, Title: "Veggie Omelette", MealType: store.Breakfast, Difficulty: store.Easy, PrepTime: 5, CookTime: 10, Servings: 1,
			Description: "Three-egg omelette with peppers, spinach and cheese.",
			Instructions: "Whisk eggs. Saute vegetables, pour eggs over, add cheese and fold."},
		{ID: 3, Title: "Chicken Caesar Wrap", MealType: store.Lunch, Difficulty: store.Easy, PrepTime: 15, CookTime: 10, Servings: 2,
			Description: "Grilled chicken, romaine and parmesan in a tortilla.",
			Instructions: "Grill chicken and slice. Toss romaine with dressing. Wrap everything in tortillas."},
		{ID: 4, Title: "Lentil Soup", MealType: store.Lunch, Difficulty: store.Easy, PrepTime: 10, CookTime: 35, Servings: 4,
			Description: "Hearty red lentil soup with cumin and lemon.",
			Instructions: "Saute onion and carrot, add lentils, stock and spices. Simmer 30 minutes, blend, finish with lemon."},
		{ID: 5, Title: "Salmon with Roasted Vegetables", MealType: store.Dinner, Difficulty: store.Medium, PrepTime: 15, CookTime: 25, Servings: 2,
			Description: "Oven-baked salmon fillets on a tray of seasonal vegetables.",
			Instructions: "Roast vegetables 10 minutes, add salmon, roast 15 minutes more."},
		{ID: 6, Title: "Beef Stir-Fry", MealType: store.Dinner, Difficulty: store.Medium, PrepTime: 20, CookTime: 10, Servings: 3,
			Description: "Quick beef and broccoli stir-fry with ginger soy sauce.",
			Instructions: "Sear beef strips, remove. Stir-fry broccoli, return beef, add sauce and toss."},
		{ID: 7, Title: "Hummus and Veggie Sticks", MealType: store.Snack, Difficulty: store.Easy, PrepTime: 10, CookTime: 0, Servings: 4,
			Description: "Homemade hummus with carrot and cucumber sticks.",
			Instructions: "Blend chickpeas, tahini, lemon and garlic until smooth. Serve with sliced vegetables."},
		{ID: 8, Title: "Chocolate Mousse", MealType: store.Dessert, Difficulty: store.Hard, PrepTime: 30, CookTime: 5, Servings: 6,
			Description: "Airy dark chocolate mousse.",
			Instructions: "Melt chocolate, fold in whipped yolks, then whipped whites. Chill 4 hours."},
	}

	recipes := make(store.Recipes, len(list))
	for _, r := range list {
		r.TotalTime = r.PrepTime + r.CookTime
		r.IsActive = true
		recipes[r.ID] = r
	}
	return recipes, nil
}

package store

import "recipebook/internal/recipeapi"

// Messages carrying request results back into the Store. Seq is the
// per-feed sequence number the request was issued with.

type RecipesLoadedMsg struct {
	Seq     uint64
	Recipes []recipeapi.Recipe
	Err     error
}

type MealPlanLoadedMsg struct {
	Seq  uint64
	Plan recipeapi.MealPlan
	Err  error
}

type ShoppingListLoadedMsg struct {
	Seq   uint64
	Items recipeapi.ShoppingList
	Err   error
}

type IngredientUsageLoadedMsg struct {
	Seq   uint64
	Usage recipeapi.IngredientUsage
	Err   error
}

type RecipeCreatedMsg struct {
	Recipe recipeapi.Recipe
	Err    error
}

type RecipeUpdatedMsg struct {
	ID     int64
	Recipe recipeapi.Recipe
	Err    error
}

type RecipeDeletedMsg struct {
	ID  int64
	Err error
}

type MealPlannedMsg struct {
	Day      recipeapi.Day
	RecipeID int64
	Err      error
}

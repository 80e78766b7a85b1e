package recipeapi

import (
	"fmt"
	"strings"
)

// Recipe is a recipe as stored by the service.
type Recipe struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
}

// RecipeInput is the body of create and update requests. Updates replace
// every field.
type RecipeInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
}

// Day is a day of the week a recipe can be planned for.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Days returns the seven days in week order.
func Days() []Day {
	return []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

func (d Day) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d Day) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// ParseDay accepts a day name in any case.
func ParseDay(s string) (Day, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range dayNames {
		if n == name {
			return Day(i), nil
		}
	}
	return -1, fmt.Errorf("unknown day %q", s)
}

func (d Day) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid day %d", int(d))
	}
	return []byte(dayNames[d]), nil
}

func (d *Day) UnmarshalText(text []byte) error {
	parsed, err := ParseDay(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MealPlan maps planned days to their recipe. Days without a recipe are
// absent.
type MealPlan map[Day]Recipe

// ShoppingList is the service-derived list of ingredients to buy.
type ShoppingList []string

// IngredientUsage counts how often each ingredient occurs.
type IngredientUsage map[string]int

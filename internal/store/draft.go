package store

import (
	"errors"
	"strings"

	"recipebook/internal/recipeapi"
)

var errTitleRequired = errors.New("title is required")

// Field names one editable field of a Draft.
type Field int

const (
	FieldTitle Field = iota
	FieldDescription
	FieldIngredients
)

// Fields returns the draft fields in form order.
func Fields() []Field {
	return []Field{FieldTitle, FieldDescription, FieldIngredients}
}

func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldDescription:
		return "description"
	case FieldIngredients:
		return "ingredients"
	default:
		return "unknown"
	}
}

// Draft is an unsaved recipe. Ingredients stay one raw comma separated
// string until the draft is submitted.
type Draft struct {
	Title       string
	Description string
	Ingredients string
}

// DraftFrom snapshots r for editing.
func DraftFrom(r recipeapi.Recipe) Draft {
	return Draft{
		Title:       r.Title,
		Description: r.Description,
		Ingredients: JoinIngredients(r.Ingredients),
	}
}

func (d Draft) Get(f Field) string {
	switch f {
	case FieldTitle:
		return d.Title
	case FieldDescription:
		return d.Description
	case FieldIngredients:
		return d.Ingredients
	default:
		return ""
	}
}

func (d Draft) With(f Field, v string) Draft {
	switch f {
	case FieldTitle:
		d.Title = v
	case FieldDescription:
		d.Description = v
	case FieldIngredients:
		d.Ingredients = v
	}
	return d
}

func (d Draft) input() (recipeapi.RecipeInput, error) {
	if strings.TrimSpace(d.Title) == "" {
		return recipeapi.RecipeInput{}, errTitleRequired
	}
	return recipeapi.RecipeInput{
		Title:       d.Title,
		Description: d.Description,
		Ingredients: ParseIngredients(d.Ingredients),
	}, nil
}

// ParseIngredients splits raw on commas, trims every piece and drops the
// empty ones. Order and duplicates are kept. The result is never nil.
func ParseIngredients(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func JoinIngredients(ingredients []string) string {
	return strings.Join(ingredients, ", ")
}

package store

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"recipebook/internal/recipeapi"
)

// fakeAPI answers from fixed data and records every call by name.
type fakeAPI struct {
	mu sync.Mutex

	calls    []string
	errs     map[string]error
	recipes  []recipeapi.Recipe
	plan     recipeapi.MealPlan
	shopping recipeapi.ShoppingList
	usage    recipeapi.IngredientUsage
	nextID   int64

	searches []string
	created  []recipeapi.RecipeInput
	updated  map[int64]recipeapi.RecipeInput
	deleted  []int64
	planned  map[recipeapi.Day]int64
}

func newFakeAPI(recipes ...recipeapi.Recipe) *fakeAPI {
	return &fakeAPI{
		errs:     map[string]error{},
		recipes:  recipes,
		plan:     recipeapi.MealPlan{},
		shopping: recipeapi.ShoppingList{"leek"},
		usage:    recipeapi.IngredientUsage{"leek": 1},
		nextID:   100,
		updated:  map[int64]recipeapi.RecipeInput{},
		planned:  map[recipeapi.Day]int64{},
	}
}

func (f *fakeAPI) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.errs[name]
}

func (f *fakeAPI) failWith(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[name] = err
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeAPI) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeAPI) ListRecipes(ctx context.Context) ([]recipeapi.Recipe, error) {
	if err := f.record("list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recipeapi.Recipe(nil), f.recipes...), nil
}

func (f *fakeAPI) SearchRecipes(ctx context.Context, query string) ([]recipeapi.Recipe, error) {
	if err := f.record("search"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, query)
	out := []recipeapi.Recipe{}
	for _, r := range f.recipes {
		if strings.Contains(strings.ToLower(r.Title), strings.ToLower(query)) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAPI) CreateRecipe(ctx context.Context, in recipeapi.RecipeInput) (recipeapi.Recipe, error) {
	if err := f.record("create"); err != nil {
		return recipeapi.Recipe{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	r := recipeapi.Recipe{ID: f.nextID, Title: in.Title, Description: in.Description, Ingredients: in.Ingredients}
	f.nextID++
	f.recipes = append(f.recipes, r)
	return r, nil
}

func (f *fakeAPI) UpdateRecipe(ctx context.Context, id int64, in recipeapi.RecipeInput) (recipeapi.Recipe, error) {
	if err := f.record("update"); err != nil {
		return recipeapi.Recipe{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[id] = in
	return recipeapi.Recipe{ID: id, Title: in.Title, Description: in.Description, Ingredients: in.Ingredients}, nil
}

func (f *fakeAPI) DeleteRecipe(ctx context.Context, id int64) error {
	if err := f.record("delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) GetMealPlan(ctx context.Context) (recipeapi.MealPlan, error) {
	if err := f.record("mealplan"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := recipeapi.MealPlan{}
	for d, r := range f.plan {
		out[d] = r
	}
	return out, nil
}

func (f *fakeAPI) PlanMeal(ctx context.Context, day recipeapi.Day, recipeID int64) error {
	if err := f.record("plan"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.planned[day] = recipeID
	return nil
}

func (f *fakeAPI) GetShoppingList(ctx context.Context) (recipeapi.ShoppingList, error) {
	if err := f.record("shopping"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(recipeapi.ShoppingList(nil), f.shopping...), nil
}

func (f *fakeAPI) GetIngredientUsage(ctx context.Context) (recipeapi.IngredientUsage, error) {
	if err := f.record("usage"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := recipeapi.IngredientUsage{}
	for k, v := range f.usage {
		out[k] = v
	}
	return out, nil
}

// run executes cmd, expanding batches, and returns the resulting messages
// in command order.
func run(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(t, c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// drain applies the results of cmd and of every follow-up command until
// nothing is left in flight.
func drain(t *testing.T, s *Store, cmd tea.Cmd) {
	t.Helper()
	queue := run(t, cmd)
	for len(queue) > 0 {
		msg := queue[0]
		queue = append(queue[1:], run(t, s.Apply(msg))...)
	}
}

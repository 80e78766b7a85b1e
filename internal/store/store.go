// Package store holds every piece of client state and the rules that keep
// it consistent with the recipe service.
//
// Intents mutate local state and return a tea.Cmd doing the network work.
// The command captures its inputs by value and never touches the Store;
// its result comes back as a message handed to Apply on the same goroutine
// that dispatches intents, so the Store needs no locking.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"recipebook/internal/recipeapi"
)

// API is the recipe service as seen by the Store.
type API interface {
	ListRecipes(ctx context.Context) ([]recipeapi.Recipe, error)
	SearchRecipes(ctx context.Context, query string) ([]recipeapi.Recipe, error)
	CreateRecipe(ctx context.Context, in recipeapi.RecipeInput) (recipeapi.Recipe, error)
	UpdateRecipe(ctx context.Context, id int64, in recipeapi.RecipeInput) (recipeapi.Recipe, error)
	DeleteRecipe(ctx context.Context, id int64) error
	GetMealPlan(ctx context.Context) (recipeapi.MealPlan, error)
	PlanMeal(ctx context.Context, day recipeapi.Day, recipeID int64) error
	GetShoppingList(ctx context.Context) (recipeapi.ShoppingList, error)
	GetIngredientUsage(ctx context.Context) (recipeapi.IngredientUsage, error)
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func WithStalePolicy(p StalePolicy) Option {
	return func(s *Store) {
		s.policy = p
	}
}

type Store struct {
	ctx    context.Context
	api    API
	log    *slog.Logger
	policy StalePolicy

	recipes  []recipeapi.Recipe
	search   string
	mealPlan recipeapi.MealPlan
	shopping recipeapi.ShoppingList
	usage    recipeapi.IngredientUsage
	errMsg   string

	addDraft      Draft
	editDraft     Draft
	editID        int64
	editing       bool
	pendingDelete *recipeapi.Recipe

	feeds [feedCount]feedStatus
}

// New builds a Store whose requests run under ctx.
func New(ctx context.Context, api API, opts ...Option) *Store {
	s := &Store{
		ctx:      ctx,
		api:      api,
		log:      slog.New(slog.DiscardHandler),
		recipes:  []recipeapi.Recipe{},
		mealPlan: recipeapi.MealPlan{},
		shopping: recipeapi.ShoppingList{},
		usage:    recipeapi.IngredientUsage{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "store")
	return s
}

// Init fetches every feed.
func (s *Store) Init() tea.Cmd {
	return s.fetch(allFeeds...)
}

// Reload refetches every feed on demand.
func (s *Store) Reload() tea.Cmd {
	s.errMsg = ""
	return s.fetch(allFeeds...)
}

// SetSearch changes the filter. A blank term lists every recipe.
func (s *Store) SetSearch(term string) tea.Cmd {
	if term == s.search {
		return nil
	}
	s.search = term
	s.errMsg = ""
	return s.fetch(RefetchFeeds(IntentSearch)...)
}

func (s *Store) SetAddField(f Field, v string) {
	s.addDraft = s.addDraft.With(f, v)
}

func (s *Store) SetEditField(f Field, v string) {
	if !s.editing {
		return
	}
	s.editDraft = s.editDraft.With(f, v)
}

// SubmitAdd creates a recipe from the add draft. The draft is cleared only
// once the service accepts it.
func (s *Store) SubmitAdd() tea.Cmd {
	s.errMsg = ""
	in, err := s.addDraft.input()
	if err != nil {
		s.errMsg = err.Error()
		return nil
	}
	ctx, api := s.ctx, s.api
	return func() tea.Msg {
		r, err := api.CreateRecipe(ctx, in)
		return RecipeCreatedMsg{Recipe: r, Err: err}
	}
}

// StartEdit puts recipe id in edit mode, discarding any other unsaved edit.
func (s *Store) StartEdit(id int64) bool {
	r, ok := s.recipe(id)
	if !ok {
		s.errMsg = fmt.Sprintf("recipe %d is not loaded", id)
		return false
	}
	if s.editing && s.editID != id {
		s.log.Debug("discarding unsaved edit", "recipe_id", s.editID)
	}
	s.editDraft = DraftFrom(r)
	s.editID = id
	s.editing = true
	return true
}

func (s *Store) CancelEdit() {
	s.editDraft = Draft{}
	s.editID = 0
	s.editing = false
}

// SubmitEdit replaces the edited recipe with the edit draft.
func (s *Store) SubmitEdit() tea.Cmd {
	s.errMsg = ""
	if !s.editing {
		s.errMsg = "no recipe is being edited"
		return nil
	}
	in, err := s.editDraft.input()
	if err != nil {
		s.errMsg = err.Error()
		return nil
	}
	ctx, api, id := s.ctx, s.api, s.editID
	return func() tea.Msg {
		r, err := api.UpdateRecipe(ctx, id, in)
		return RecipeUpdatedMsg{ID: id, Recipe: r, Err: err}
	}
}

// BeginDelete asks for confirmation before recipe id is deleted. Nothing
// is sent until ResolveDelete.
func (s *Store) BeginDelete(id int64) bool {
	r, ok := s.recipe(id)
	if !ok {
		s.errMsg = fmt.Sprintf("recipe %d is not loaded", id)
		return false
	}
	s.pendingDelete = &r
	return true
}

// ResolveDelete is the user's answer to BeginDelete. Declining changes
// nothing and sends nothing.
func (s *Store) ResolveDelete(confirmed bool) tea.Cmd {
	pending := s.pendingDelete
	s.pendingDelete = nil
	if pending == nil {
		return nil
	}
	if !confirmed {
		s.log.Debug("delete declined", "recipe_id", pending.ID)
		return nil
	}
	s.errMsg = ""
	ctx, api, id := s.ctx, s.api, pending.ID
	return func() tea.Msg {
		return RecipeDeletedMsg{ID: id, Err: api.DeleteRecipe(ctx, id)}
	}
}

// PlanMeal assigns recipe id to day, replacing whatever was planned.
func (s *Store) PlanMeal(day recipeapi.Day, id int64) tea.Cmd {
	s.errMsg = ""
	ctx, api := s.ctx, s.api
	return func() tea.Msg {
		return MealPlannedMsg{Day: day, RecipeID: id, Err: api.PlanMeal(ctx, day, id)}
	}
}

func (s *Store) DismissError() {
	s.errMsg = ""
}

// Apply folds a request result into the Store and returns the follow-up
// fetches. Messages the Store does not know are ignored.
func (s *Store) Apply(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case RecipesLoadedMsg:
		if s.settle(FeedRecipes, msg.Seq, msg.Err) {
			s.recipes = orEmpty(msg.Recipes)
		}
	case MealPlanLoadedMsg:
		if s.settle(FeedMealPlan, msg.Seq, msg.Err) {
			s.mealPlan = msg.Plan
			if s.mealPlan == nil {
				s.mealPlan = recipeapi.MealPlan{}
			}
		}
	case ShoppingListLoadedMsg:
		if s.settle(FeedShoppingList, msg.Seq, msg.Err) {
			s.shopping = msg.Items
			if s.shopping == nil {
				s.shopping = recipeapi.ShoppingList{}
			}
		}
	case IngredientUsageLoadedMsg:
		if s.settle(FeedIngredientUsage, msg.Seq, msg.Err) {
			s.usage = msg.Usage
			if s.usage == nil {
				s.usage = recipeapi.IngredientUsage{}
			}
		}
	case RecipeCreatedMsg:
		if msg.Err != nil {
			s.fail("create recipe", msg.Err)
			return nil
		}
		s.log.Info("recipe created", "recipe_id", msg.Recipe.ID)
		s.addDraft = Draft{}
		return s.fetch(RefetchFeeds(IntentCreate)...)
	case RecipeUpdatedMsg:
		if msg.Err != nil {
			s.fail("update recipe", msg.Err)
			return nil
		}
		s.log.Info("recipe updated", "recipe_id", msg.ID)
		if s.editing && s.editID == msg.ID {
			s.CancelEdit()
		}
		return s.fetch(RefetchFeeds(IntentUpdate)...)
	case RecipeDeletedMsg:
		if msg.Err != nil {
			s.fail("delete recipe", msg.Err)
			return nil
		}
		s.log.Info("recipe deleted", "recipe_id", msg.ID)
		if s.editing && s.editID == msg.ID {
			s.CancelEdit()
		}
		return s.fetch(RefetchFeeds(IntentDelete)...)
	case MealPlannedMsg:
		if msg.Err != nil {
			s.fail("plan meal", msg.Err)
			return nil
		}
		s.log.Info("meal planned", "day", msg.Day, "recipe_id", msg.RecipeID)
		return s.fetch(RefetchFeeds(IntentPlanMeal)...)
	}
	return nil
}

func (s *Store) Recipes() []recipeapi.Recipe { return s.recipes }

func (s *Store) SearchTerm() string { return s.search }

// Loading reports whether the recipes feed is being fetched. The other
// feeds surface errors but no loading indicator.
func (s *Store) Loading() bool { return s.feeds[FeedRecipes].state == Loading }

func (s *Store) FeedState(f Feed) FeedState { return s.feeds[f].state }

// Err is the latest failure across all feeds and intents, or "".
func (s *Store) Err() string { return s.errMsg }

func (s *Store) AddDraft() Draft { return s.addDraft }

func (s *Store) EditDraft() Draft { return s.editDraft }

// EditingID returns the recipe in edit mode, if any.
func (s *Store) EditingID() (int64, bool) { return s.editID, s.editing }

func (s *Store) PendingDelete() (recipeapi.Recipe, bool) {
	if s.pendingDelete == nil {
		return recipeapi.Recipe{}, false
	}
	return *s.pendingDelete, true
}

func (s *Store) MealPlan() recipeapi.MealPlan { return s.mealPlan }

func (s *Store) ShoppingList() recipeapi.ShoppingList { return s.shopping }

func (s *Store) IngredientUsage() recipeapi.IngredientUsage { return s.usage }

func (s *Store) fetch(feeds ...Feed) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(feeds))
	for _, f := range feeds {
		cmds = append(cmds, s.fetchFeed(f))
	}
	return tea.Batch(cmds...)
}

func (s *Store) fetchFeed(f Feed) tea.Cmd {
	st := &s.feeds[f]
	st.issued++
	st.inflight++
	st.state = Loading
	seq := st.issued
	ctx, api := s.ctx, s.api

	switch f {
	case FeedRecipes:
		term := s.search
		return func() tea.Msg {
			var (
				rs  []recipeapi.Recipe
				err error
			)
			if strings.TrimSpace(term) == "" {
				rs, err = api.ListRecipes(ctx)
			} else {
				rs, err = api.SearchRecipes(ctx, term)
			}
			return RecipesLoadedMsg{Seq: seq, Recipes: rs, Err: err}
		}
	case FeedMealPlan:
		return func() tea.Msg {
			plan, err := api.GetMealPlan(ctx)
			return MealPlanLoadedMsg{Seq: seq, Plan: plan, Err: err}
		}
	case FeedShoppingList:
		return func() tea.Msg {
			items, err := api.GetShoppingList(ctx)
			return ShoppingListLoadedMsg{Seq: seq, Items: items, Err: err}
		}
	case FeedIngredientUsage:
		return func() tea.Msg {
			usage, err := api.GetIngredientUsage(ctx)
			return IngredientUsageLoadedMsg{Seq: seq, Usage: usage, Err: err}
		}
	}
	return nil
}

// settle records a response for feed f and reports whether its data should
// replace the current value. Failures keep the last good data.
func (s *Store) settle(f Feed, seq uint64, err error) bool {
	st := &s.feeds[f]
	if st.inflight > 0 {
		st.inflight--
	}
	if seq < st.issued && s.policy == DropStale {
		s.log.Debug("dropping stale response", "feed", f, "seq", seq, "latest", st.issued)
		return false
	}
	if err != nil {
		s.log.Warn("fetch failed", "feed", f, "seq", seq, "error", err)
		s.errMsg = err.Error()
		st.state = Errored
	} else {
		st.state = Loaded
	}
	if s.policy == ApplyLastArrival && st.inflight > 0 {
		st.state = Loading
	}
	return err == nil
}

func (s *Store) fail(op string, err error) {
	s.log.Warn("intent failed", "op", op, "error", err)
	s.errMsg = err.Error()
}

func (s *Store) recipe(id int64) (recipeapi.Recipe, bool) {
	for _, r := range s.recipes {
		if r.ID == id {
			return r, true
		}
	}
	return recipeapi.Recipe{}, false
}

func orEmpty(rs []recipeapi.Recipe) []recipeapi.Recipe {
	if rs == nil {
		return []recipeapi.Recipe{}
	}
	return rs
}

// Package apitest runs an in-memory recipe service for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"recipebook/internal/recipeapi"
)

// Request is one request seen by the server.
type Request struct {
	Method string
	Path   string
	Query  string
}

type failure struct {
	method string
	path   string
	status int
}

// Server mimics the recipe service: recipes, a weekly plan and the
// shopping list / ingredient usage derived from the stored recipes.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	nextID   int64
	recipes  []recipeapi.Recipe
	plan     map[recipeapi.Day]int64
	requests []Request
	failures []failure
}

func NewServer() *Server {
	s := &Server{nextID: 1, recipes: []recipeapi.Recipe{}, plan: map[recipeapi.Day]int64{}}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /recipes", s.listRecipes)
	mux.HandleFunc("GET /recipes/search", s.searchRecipes)
	mux.HandleFunc("POST /recipes", s.createRecipe)
	mux.HandleFunc("PUT /recipes/{id}", s.updateRecipe)
	mux.HandleFunc("DELETE /recipes/{id}", s.deleteRecipe)
	mux.HandleFunc("GET /meal-plan", s.mealPlan)
	mux.HandleFunc("POST /meal-plan/{day}", s.planMeal)
	mux.HandleFunc("GET /shopping-list", s.shoppingList)
	mux.HandleFunc("GET /ingredient-usage", s.ingredientUsage)
	s.Server = httptest.NewServer(s.record(mux))
	return s
}

// FailNext makes the next request matching method and path answer with
// status instead of being served.
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, path: path, status: status})
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests hit method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Seed stores a recipe directly and returns it with its id.
func (s *Server) Seed(in recipeapi.RecipeInput) recipeapi.Recipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(in)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery})
		for i, f := range s.failures {
			if f.method == r.Method && f.path == r.URL.Path {
				s.failures = append(s.failures[:i], s.failures[i+1:]...)
				s.mu.Unlock()
				writeDetail(w, f.status, "injected failure")
				return
			}
		}
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listRecipes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.recipes)
}

func (s *Server) searchRecipes(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("query"))
	s.mu.Lock()
	defer s.mu.Unlock()
	found := []recipeapi.Recipe{}
	for _, rec := range s.recipes {
		if strings.Contains(strings.ToLower(rec.Title), q) {
			found = append(found, rec)
		}
	}
	writeJSON(w, http.StatusOK, found)
}

func (s *Server) createRecipe(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.insert(in))
}

func (s *Server) updateRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Recipe not found")
		return
	}
	s.recipes[i] = recipeapi.Recipe{ID: id, Title: in.Title, Description: in.Description, Ingredients: in.Ingredients}
	writeJSON(w, http.StatusOK, s.recipes[i])
}

func (s *Server) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Recipe not found")
		return
	}
	s.recipes = append(s.recipes[:i], s.recipes[i+1:]...)
	for day, rid := range s.plan {
		if rid == id {
			delete(s.plan, day)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Recipe deleted"})
}

func (s *Server) mealPlan(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]recipeapi.Recipe{}
	for day, id := range s.plan {
		if i := s.index(id); i >= 0 {
			out[day.String()] = s.recipes[i]
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) planMeal(w http.ResponseWriter, r *http.Request) {
	day, err := recipeapi.ParseDay(r.PathValue("day"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	id, err := strconv.ParseInt(r.URL.Query().Get("recipe_id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "recipe_id must be an integer")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index(id) < 0 {
		writeDetail(w, http.StatusNotFound, "Recipe not found")
		return
	}
	s.plan[day] = id
	writeJSON(w, http.StatusOK, map[string]string{"message": "Planned recipe " + strconv.FormatInt(id, 10) + " for " + day.String()})
}

func (s *Server) shoppingList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	items := []string{}
	for _, rec := range s.recipes {
		for _, ing := range rec.Ingredients {
			if !seen[ing] {
				seen[ing] = true
				items = append(items, ing)
			}
		}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) ingredientUsage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int{}
	for _, rec := range s.recipes {
		for _, ing := range rec.Ingredients {
			counts[ing]++
		}
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) insert(in recipeapi.RecipeInput) recipeapi.Recipe {
	if in.Ingredients == nil {
		in.Ingredients = []string{}
	}
	rec := recipeapi.Recipe{ID: s.nextID, Title: in.Title, Description: in.Description, Ingredients: in.Ingredients}
	s.nextID++
	s.recipes = append(s.recipes, rec)
	return rec
}

func (s *Server) index(id int64) int {
	for i, rec := range s.recipes {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

func decodeInput(w http.ResponseWriter, r *http.Request) (recipeapi.RecipeInput, bool) {
	var in recipeapi.RecipeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return in, false
	}
	if strings.TrimSpace(in.Title) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "title is required"}},
		})
		return in, false
	}
	if in.Ingredients == nil {
		in.Ingredients = []string{}
	}
	return in, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "id must be an integer")
		return 0, false
	}
	return id, true
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package recipeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const maxErrorBody = 4 << 10

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientOpts struct {
	BaseURL    string
	HTTPClient HTTPClient
	Logger     *slog.Logger
}

// Client talks to the recipe service. Each method is exactly one round
// trip; nothing is retried or cached.
type Client struct {
	base       *url.URL
	httpClient HTTPClient
	log        *slog.Logger
}

func NewClient(opts ClientOpts) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", opts.BaseURL, err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: want an absolute http(s) url", opts.BaseURL)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		base:       base,
		httpClient: hc,
		log:        logger.With("component", "recipeapi"),
	}, nil
}

func (c *Client) ListRecipes(ctx context.Context) ([]Recipe, error) {
	var out []Recipe
	if err := c.do(ctx, "list recipes", http.MethodGet, nil, nil, &out, "recipes"); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchRecipes refuses blank queries; callers list instead.
func (c *Client) SearchRecipes(ctx context.Context, query string) ([]Recipe, error) {
	const op = "search recipes"
	if strings.TrimSpace(query) == "" {
		return nil, &RequestError{Op: op, Kind: KindInvalid, Detail: "empty search query"}
	}
	var out []Recipe
	q := url.Values{"query": {query}}
	if err := c.do(ctx, op, http.MethodGet, q, nil, &out, "recipes", "search"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateRecipe(ctx context.Context, in RecipeInput) (Recipe, error) {
	var out Recipe
	if err := c.do(ctx, "create recipe", http.MethodPost, nil, normalizeInput(in), &out, "recipes"); err != nil {
		return Recipe{}, err
	}
	return out, nil
}

func (c *Client) UpdateRecipe(ctx context.Context, id int64, in RecipeInput) (Recipe, error) {
	var out Recipe
	if err := c.do(ctx, "update recipe", http.MethodPut, nil, normalizeInput(in), &out, "recipes", formatID(id)); err != nil {
		return Recipe{}, err
	}
	return out, nil
}

func (c *Client) DeleteRecipe(ctx context.Context, id int64) error {
	return c.do(ctx, "delete recipe", http.MethodDelete, nil, nil, nil, "recipes", formatID(id))
}

func (c *Client) GetMealPlan(ctx context.Context) (MealPlan, error) {
	const op = "get meal plan"
	var raw map[string]Recipe
	if err := c.do(ctx, op, http.MethodGet, nil, nil, &raw, "meal-plan"); err != nil {
		return nil, err
	}
	plan := make(MealPlan, len(raw))
	for name, r := range raw {
		day, err := ParseDay(name)
		if err != nil {
			c.log.Warn("skipping meal plan entry", "op", op, "day", name, "recipe_id", r.ID)
			continue
		}
		plan[day] = r
	}
	return plan, nil
}

func (c *Client) PlanMeal(ctx context.Context, day Day, recipeID int64) error {
	const op = "plan meal"
	if !day.Valid() {
		return &RequestError{Op: op, Kind: KindInvalid, Detail: fmt.Sprintf("invalid day %d", int(day))}
	}
	q := url.Values{"recipe_id": {formatID(recipeID)}}
	return c.do(ctx, op, http.MethodPost, q, nil, nil, "meal-plan", day.String())
}

func (c *Client) GetShoppingList(ctx context.Context) (ShoppingList, error) {
	var out ShoppingList
	if err := c.do(ctx, "get shopping list", http.MethodGet, nil, nil, &out, "shopping-list"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetIngredientUsage(ctx context.Context) (IngredientUsage, error) {
	var out IngredientUsage
	if err := c.do(ctx, "get ingredient usage", http.MethodGet, nil, nil, &out, "ingredient-usage"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method string, query url.Values, body, out any, path ...string) error {
	u := c.base.JoinPath(path...)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Op: op, Kind: KindInvalid, Detail: "encode body", Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return &RequestError{Op: op, Kind: KindInvalid, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("request failed", "op", op, "method", method, "path", u.Path, "error", err)
		return &RequestError{Op: op, Kind: KindTransport, Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()
	c.log.Debug("request", "op", op, "method", method, "path", u.Path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		rerr := &RequestError{
			Op:         op,
			Kind:       KindService,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(raw),
		}
		c.log.Warn("request rejected", "op", op, "status", resp.StatusCode, "detail", rerr.Detail)
		return rerr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Warn("malformed response", "op", op, "error", err)
		return &RequestError{Op: op, Kind: KindTransport, Detail: "malformed response", Err: err}
	}
	return nil
}

func normalizeInput(in RecipeInput) RecipeInput {
	if in.Ingredients == nil {
		in.Ingredients = []string{}
	}
	return in
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// unwrapURLError drops the *url.Error wrapper so messages do not repeat the
// method and full URL.
func unwrapURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err
	}
	return err
}

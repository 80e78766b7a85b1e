package store

import "fmt"

// Feed is one independently fetched data set.
type Feed int

const (
	FeedRecipes Feed = iota
	FeedMealPlan
	FeedShoppingList
	FeedIngredientUsage
	feedCount
)

var allFeeds = []Feed{FeedRecipes, FeedMealPlan, FeedShoppingList, FeedIngredientUsage}

func (f Feed) String() string {
	switch f {
	case FeedRecipes:
		return "recipes"
	case FeedMealPlan:
		return "meal plan"
	case FeedShoppingList:
		return "shopping list"
	case FeedIngredientUsage:
		return "ingredient usage"
	default:
		return fmt.Sprintf("Feed(%d)", int(f))
	}
}

type FeedState int

const (
	NotLoaded FeedState = iota
	Loading
	Loaded
	Errored
)

func (s FeedState) String() string {
	switch s {
	case NotLoaded:
		return "not loaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("FeedState(%d)", int(s))
	}
}

// StalePolicy decides what happens to a response for a feed that has a
// newer request outstanding or already answered.
type StalePolicy int

const (
	// DropStale ignores responses older than the newest request issued
	// for the same feed.
	DropStale StalePolicy = iota
	// ApplyLastArrival applies every response in arrival order.
	ApplyLastArrival
)

// ParseStalePolicy accepts "drop" and "apply".
func ParseStalePolicy(s string) (StalePolicy, error) {
	switch s {
	case "", "drop":
		return DropStale, nil
	case "apply":
		return ApplyLastArrival, nil
	default:
		return DropStale, fmt.Errorf("unknown stale response policy %q", s)
	}
}

func (p StalePolicy) String() string {
	if p == ApplyLastArrival {
		return "apply"
	}
	return "drop"
}

// Intent is a user action that can invalidate feeds.
type Intent int

const (
	IntentSearch Intent = iota
	IntentCreate
	IntentUpdate
	IntentDelete
	IntentPlanMeal
)

// RefetchFeeds lists the feeds refetched after intent succeeds. Creating
// a recipe cannot touch the plan; planning a meal changes nothing but the
// plan.
func RefetchFeeds(intent Intent) []Feed {
	switch intent {
	case IntentCreate:
		return []Feed{FeedRecipes, FeedShoppingList, FeedIngredientUsage}
	case IntentPlanMeal:
		return []Feed{FeedMealPlan}
	default:
		return append([]Feed(nil), allFeeds...)
	}
}

type feedStatus struct {
	state    FeedState
	issued   uint64
	inflight int
}

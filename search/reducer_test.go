package search

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deathrjj/age-github-search-tui/models"
)

func intPtr(n int) *int { return &n }

func stateWith(profiles ...models.UserProfile) models.SearchState {
	s := models.NewSearchState()
	return Reduce(s, SearchSuccess{Items: profiles, TotalCount: len(profiles), Page: 1, IsNewSearch: true})
}

func TestReduce_SetQuery(t *testing.T) {
	s := stateWith(profile(1, "a"))
	next := Reduce(s, SetQuery{Query: "react"})

	assert.Equal(t, "react", next.Query)
	assert.Equal(t, s.ResultsOrder, next.ResultsOrder)
	assert.Equal(t, "", s.Query)
}

func TestReduce_SearchStart(t *testing.T) {
	s := stateWith(profile(1, "a"))
	s.Error = "boom"

	next := Reduce(s, SearchStart{Query: "octo", IsNewSearch: true})
	assert.True(t, next.Loading)
	assert.Empty(t, next.Error)
	assert.Equal(t, "octo", next.Query)
	assert.Empty(t, next.Results)
	assert.Empty(t, next.ResultsOrder)

	next = Reduce(s, SearchStart{Query: "octo", IsNewSearch: false})
	assert.True(t, next.Loading)
	assert.Len(t, next.ResultsOrder, 1)
}

func TestReduce_SearchSuccessPagination(t *testing.T) {
	s := Reduce(models.NewSearchState(), SearchStart{Query: "octo", IsNewSearch: true})

	next := Reduce(s, SearchSuccess{
		Items:          []models.UserProfile{profile(1, "octocat")},
		TotalCount:     45,
		Page:           1,
		APILimitations: models.APILimitations{Remaining: intPtr(9), RateLimit: intPtr(10)},
		IsNewSearch:    true,
	})

	assert.False(t, next.Loading)
	assert.Empty(t, next.Error)
	assert.Equal(t, 1, next.Pagination.CurrentPage)
	assert.Equal(t, 2, next.Pagination.TotalPages)
	assert.Equal(t, 45, next.Pagination.TotalItems)
	assert.True(t, next.Pagination.HasNextPage)
	assert.False(t, next.Pagination.HasPreviousPage)
	require.NotNil(t, next.APILimitations.Remaining)
	assert.Equal(t, 9, *next.APILimitations.Remaining)

	next = Reduce(next, SearchSuccess{
		Items:      []models.UserProfile{profile(2, "octodog")},
		TotalCount: 45,
		Page:       2,
	})
	assert.Equal(t, []models.ResultID{"1", "2"}, next.ResultsOrder)
	assert.False(t, next.Pagination.HasNextPage)
	assert.True(t, next.Pagination.HasPreviousPage)
}

func TestReduce_SearchError(t *testing.T) {
	s := stateWith(profile(1, "a"), profile(2, "b"))
	s.Pagination.CurrentPage = 3
	s.Loading = true

	first := Reduce(s, SearchError{Message: "HTTP 500: Internal Server Error", IsNewSearch: true})
	assert.False(t, first.Loading)
	assert.Equal(t, "HTTP 500: Internal Server Error", first.Error)
	assert.Empty(t, first.Results)
	assert.Empty(t, first.ResultsOrder)
	assert.Equal(t, 1, first.Pagination.CurrentPage)

	later := Reduce(s, SearchError{Message: "network down", IsNewSearch: false})
	assert.Equal(t, "network down", later.Error)
	assert.Len(t, later.ResultsOrder, 2)
	assert.Equal(t, 3, later.Pagination.CurrentPage)
}

func TestReduce_AbortKeepsEverythingButLoading(t *testing.T) {
	s := stateWith(profile(1, "a"))
	s.Query = "a"
	s.Error = "old"
	s.Loading = true

	next := Reduce(s, AbortSearch{})
	assert.False(t, next.Loading)
	assert.Equal(t, "a", next.Query)
	assert.Equal(t, "old", next.Error)
	assert.Len(t, next.ResultsOrder, 1)
}

func TestReduce_ClearResults(t *testing.T) {
	s := stateWith(profile(1, "a"))
	s.Error = "old"

	next := Reduce(s, ClearResults{})
	assert.Empty(t, next.Results)
	assert.Empty(t, next.ResultsOrder)
	assert.Empty(t, next.Error)
}

func TestReduce_ToggleUser(t *testing.T) {
	s := stateWith(profile(5, "e"))

	next := Reduce(s, ToggleUser{UserID: 5})
	assert.True(t, next.SelectedUsers["5"])
	assert.Empty(t, s.SelectedUsers)

	back := Reduce(next, ToggleUser{UserID: "5"})
	assert.NotContains(t, back.SelectedUsers, models.ResultID("5"))
}

func TestReduce_ToggleUserMissingIDIsAccepted(t *testing.T) {
	s := stateWith(profile(1, "a"))

	var next models.SearchState
	require.NotPanics(t, func() {
		next = Reduce(s, ToggleUser{UserID: 404})
	})
	assert.True(t, next.SelectedUsers["404"])
}

func TestReduce_SelectAll(t *testing.T) {
	s := stateWith(profile(1, "a"), profile(2, "b"))

	all := Reduce(s, SelectAll{SelectAll: true})
	assert.Equal(t, models.UserSelectionMap{"1": true, "2": true}, all.SelectedUsers)

	none := Reduce(all, SelectAll{SelectAll: false})
	assert.Empty(t, none.SelectedUsers)
}

func TestReduce_DeleteSelected(t *testing.T) {
	s := stateWith(profile(1, "a"), profile(2, "b"))
	s = Reduce(s, ToggleUser{UserID: 1})

	next := Reduce(s, DeleteSelected{})
	assert.Equal(t, []models.ResultID{"2"}, next.ResultsOrder)
	assert.Empty(t, next.SelectedUsers)

	// empty selection still clears selection and keeps results
	again := Reduce(next, DeleteSelected{})
	assert.Equal(t, next.ResultsOrder, again.ResultsOrder)
}

func TestReduce_DuplicateSelected(t *testing.T) {
	s := stateWith(profile(1, "a"), profile(2, "b"))
	s = Reduce(s, ToggleUser{UserID: 1})

	once := Reduce(s, DuplicateSelected{})
	assert.Equal(t, []models.ResultID{"1", "1_copy", "2"}, once.ResultsOrder)
	assert.Equal(t, models.UserSelectionMap{"1": true}, once.SelectedUsers)

	twice := Reduce(once, DuplicateSelected{})
	assert.Equal(t, once.ResultsOrder, twice.ResultsOrder)
	assert.Equal(t, once.Results, twice.Results)
}

func TestReduce_DuplicateOfDuplicateIsNoop(t *testing.T) {
	s := models.NewSearchState()
	s.Results = map[models.ResultID]models.UserProfile{
		"1": {ID: models.NumericID(1), IsDuplicate: true},
	}
	s.ResultsOrder = []models.ResultID{"1"}
	s.SelectedUsers = models.UserSelectionMap{"1": true}

	next := Reduce(s, DuplicateSelected{})
	assert.Equal(t, s.Results, next.Results)
	assert.Equal(t, s.ResultsOrder, next.ResultsOrder)
}

func TestReduce_DuplicatePlacement(t *testing.T) {
	s := stateWith(profile(1, "a"), profile(2, "b"), profile(3, "c"), profile(4, "d"))

	for i, id := range s.ResultsOrder {
		sel := Reduce(s, ToggleUser{UserID: id})
		next := Reduce(sel, DuplicateSelected{})
		require.Greater(t, len(next.ResultsOrder), i+1)
		assert.Equal(t, models.CopyOf(id), next.ResultsOrder[i+1])
	}
}

func TestReduce_ShowNotification(t *testing.T) {
	s := Reduce(models.NewSearchState(), ShowNotification{Message: "Hello"})
	assert.Equal(t, "Hello", s.Notification)

	s = Reduce(s, ShowNotification{})
	assert.Empty(t, s.Notification)
}

type unknownAction struct{ Action }

func TestReduce_UnknownActionReturnsState(t *testing.T) {
	s := stateWith(profile(1, "a"))
	next := Reduce(s, unknownAction{})
	assert.Equal(t, s, next)
}

// assertOrderInvariant checks that order and results hold the same ids and
// order has no repeats.
func assertOrderInvariant(t *testing.T, s models.SearchState) {
	t.Helper()
	seen := make(map[models.ResultID]bool, len(s.ResultsOrder))
	for _, id := range s.ResultsOrder {
		require.False(t, seen[id], "id %s repeated in order", id)
		seen[id] = true
		require.Contains(t, s.Results, id)
	}
	require.Len(t, s.Results, len(s.ResultsOrder))
}

func TestReduce_OrderInvariantUnderRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		s := models.NewSearchState()
		for step := 0; step < 40; step++ {
			var a Action
			switch rng.Intn(6) {
			case 0, 1:
				items := make([]models.UserProfile, rng.Intn(5))
				for i := range items {
					n := int64(rng.Intn(12))
					items[i] = profile(n, fmt.Sprintf("u%d", n))
				}
				a = SearchSuccess{Items: items, TotalCount: 100, Page: 1 + rng.Intn(3), IsNewSearch: rng.Intn(4) == 0}
			case 2:
				if len(s.ResultsOrder) > 0 {
					a = ToggleUser{UserID: s.ResultsOrder[rng.Intn(len(s.ResultsOrder))]}
				} else {
					a = ToggleUser{UserID: rng.Intn(12)}
				}
			case 3:
				a = DeleteSelected{}
			case 4:
				a = DuplicateSelected{}
			default:
				a = SelectAll{SelectAll: rng.Intn(2) == 0}
			}
			s = Reduce(s, a)
			assertOrderInvariant(t, s)
		}
	}
}

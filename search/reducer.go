package search

import "github.com/deathrjj/age-github-search-tui/models"

// Reduce returns the state that follows action. It never mutates state and
// never fails: ids that are missing and empty selections are no-ops.
func Reduce(state models.SearchState, action Action) models.SearchState {
	switch a := action.(type) {
	case SetQuery:
		state.Query = a.Query
		return state

	case SearchStart:
		state.Query = a.Query
		state.Loading = true
		state.Error = ""
		if a.IsNewSearch {
			state.Results = map[models.ResultID]models.UserProfile{}
			state.ResultsOrder = []models.ResultID{}
		}
		return state

	case SearchSuccess:
		state.Results, state.ResultsOrder = MergeResults(state.Results, state.ResultsOrder, a.Items, a.IsNewSearch)

		totalPages := 0
		if state.Pagination.PerPage > 0 {
			totalPages = (a.TotalCount + state.Pagination.PerPage - 1) / state.Pagination.PerPage
		}
		state.Pagination.CurrentPage = a.Page
		state.Pagination.TotalItems = a.TotalCount
		state.Pagination.TotalPages = totalPages
		state.Pagination.HasNextPage = a.Page < totalPages
		state.Pagination.HasPreviousPage = a.Page > 1

		state.Loading = false
		state.Error = ""
		state.APILimitations = a.APILimitations
		return state

	case SearchError:
		state.Loading = false
		state.Error = a.Message
		if a.IsNewSearch {
			state.Results = map[models.ResultID]models.UserProfile{}
			state.ResultsOrder = []models.ResultID{}
			state.Pagination.CurrentPage = 1
		}
		return state

	case AbortSearch:
		state.Loading = false
		return state

	case ClearResults:
		state.Results = map[models.ResultID]models.UserProfile{}
		state.ResultsOrder = []models.ResultID{}
		state.Error = ""
		return state

	case ToggleUser:
		id := models.ToID(a.UserID)
		next := make(models.UserSelectionMap, len(state.SelectedUsers)+1)
		for k, v := range state.SelectedUsers {
			next[k] = v
		}
		if next[id] {
			delete(next, id)
		} else {
			next[id] = true
		}
		state.SelectedUsers = next
		return state

	case SelectAll:
		if !a.SelectAll {
			state.SelectedUsers = models.UserSelectionMap{}
			return state
		}
		next := make(models.UserSelectionMap, len(state.Results))
		for id := range state.Results {
			next[id] = true
		}
		state.SelectedUsers = next
		return state

	case DeleteSelected:
		state.Results, state.ResultsOrder = DeleteSelectedResults(state.Results, state.ResultsOrder, state.SelectedUsers)
		state.SelectedUsers = models.UserSelectionMap{}
		return state

	case DuplicateSelected:
		state.Results, state.ResultsOrder, _ = DuplicateSelectedInOrder(state.Results, state.ResultsOrder, state.SelectedUsers)
		return state

	case ShowNotification:
		state.Notification = a.Message
		return state

	default:
		return state
	}
}

package models

import "time"

// DefaultPerPage is the page size requested from the search endpoint.
const DefaultPerPage = 30

// APILimitations holds the last observed rate-limit headers. A nil field means
// the header was absent, which is different from zero.
type APILimitations struct {
	Remaining *int
	RateLimit *int
	Reset     *time.Time
}

// Pagination describes where the accumulated results stand in the remote result set.
type Pagination struct {
	CurrentPage     int
	TotalItems      int
	PerPage         int
	HasNextPage     bool
	HasPreviousPage bool
	TotalPages      int
}

// SearchState is the whole search session. It is only ever replaced through
// reducer transitions; snapshots handed out must be treated as read-only.
type SearchState struct {
	Query         string
	Results       map[ResultID]UserProfile
	ResultsOrder  []ResultID
	SelectedUsers UserSelectionMap
	Loading       bool
	// Error is the message of the last failed request, empty when none.
	Error          string
	APILimitations APILimitations
	// Notification is the transient user-facing message, empty when none.
	Notification string
	Pagination   Pagination
}

// NewSearchState returns the state a session starts with.
func NewSearchState() SearchState {
	return SearchState{
		Results:       map[ResultID]UserProfile{},
		ResultsOrder:  []ResultID{},
		SelectedUsers: UserSelectionMap{},
		Pagination: Pagination{
			CurrentPage: 1,
			PerPage:     DefaultPerPage,
		},
	}
}

// SelectedCount returns the number of selected results.
func (s SearchState) SelectedCount() int {
	return len(s.SelectedUsers)
}

// Profiles returns the results in render order.
func (s SearchState) Profiles() []UserProfile {
	out := make([]UserProfile, 0, len(s.ResultsOrder))
	for _, id := range s.ResultsOrder {
		if p, ok := s.Results[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// SearchPage is one decoded page of the user search endpoint.
type SearchPage struct {
	Items      []UserProfile
	TotalCount int
	Limits     APILimitations
}

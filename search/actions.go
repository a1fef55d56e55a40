package search

import "github.com/deathrjj/age-github-search-tui/models"

// Action is a session event. The set is closed: only the types below
// implement it.
type Action interface {
	isAction()
}

// SetQuery replaces the query text only.
type SetQuery struct {
	Query string
}

// SearchStart marks a request as in flight.
type SearchStart struct {
	Query       string
	IsNewSearch bool
}

// SearchSuccess carries one fetched page.
type SearchSuccess struct {
	Items          []models.UserProfile
	TotalCount     int
	Page           int
	APILimitations models.APILimitations
	IsNewSearch    bool
}

// SearchError carries the message of a failed request.
type SearchError struct {
	Message     string
	IsNewSearch bool
}

// AbortSearch stops the loading indicator of a cancelled request.
type AbortSearch struct{}

// ClearResults empties the results.
type ClearResults struct{}

// ToggleUser flips the selection of one result. UserID may be numeric or a string.
type ToggleUser struct {
	UserID any
}

// SelectAll selects every result, or clears the selection.
type SelectAll struct {
	SelectAll bool
}

// DeleteSelected removes the selected results.
type DeleteSelected struct{}

// DuplicateSelected inserts a copy after each selected result.
type DuplicateSelected struct{}

// ShowNotification replaces the notification. An empty message clears it.
type ShowNotification struct {
	Message string
}

func (SetQuery) isAction()          {}
func (SearchStart) isAction()       {}
func (SearchSuccess) isAction()     {}
func (SearchError) isAction()       {}
func (AbortSearch) isAction()       {}
func (ClearResults) isAction()      {}
func (ToggleUser) isAction()        {}
func (SelectAll) isAction()         {}
func (DeleteSelected) isAction()    {}
func (DuplicateSelected) isAction() {}
func (ShowNotification) isAction()  {}

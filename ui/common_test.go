package ui

import (
	"testing"

	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deathrjj/age-github-search-tui/models"
)

func intPtr(n int) *int { return &n }

func testState() models.SearchState {
	st := models.NewSearchState()
	st.Results = map[models.ResultID]models.UserProfile{
		"1":      {Login: "octocat", ID: models.NumericID(1)},
		"1_copy": {Login: "octocat", ID: models.StringID("1_copy"), IsDuplicate: true},
		"2":      {Login: "hubot", ID: models.NumericID(2)},
	}
	st.ResultsOrder = []models.ResultID{"1", "1_copy", "2"}
	return st
}

func TestMaskLogin(t *testing.T) {
	tests := []struct {
		name  string
		login string
		demo  bool
		want  string
	}{
		{"demo off", "octocat", false, "octocat"},
		{"demo on", "octocat", true, "oc*****"},
		{"short login", "ab", true, "ab"},
		{"multibyte", "žluťák", true, "žl****"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskLogin(tt.login, tt.demo))
		})
	}
}

func TestFormatProfileLine(t *testing.T) {
	p := models.UserProfile{Login: "octocat"}
	assert.Equal(t, "[white]- octocat", FormatProfileLine(p, false, false))
	assert.Equal(t, "[green]✓ octocat", FormatProfileLine(p, true, false))

	p.IsDuplicate = true
	assert.Equal(t, "[green]✓ oc***** [gray](copy)", FormatProfileLine(p, true, true))
}

func TestStatusLine(t *testing.T) {
	assert.Empty(t, StatusLine(models.NewSearchState()))

	st := testState()
	st.Pagination = models.Pagination{CurrentPage: 1, TotalItems: 45, PerPage: 30, HasNextPage: true, TotalPages: 2}
	st.SelectedUsers = models.UserSelectionMap{"2": true}
	st.APILimitations = models.APILimitations{Remaining: intPtr(8), RateLimit: intPtr(10)}
	st.Loading = true
	st.Error = "HTTP 500: Internal Server Error"
	st.Notification = "careful"

	line := StatusLine(st)
	assert.Contains(t, line, "Page 1/2 | 3 of 45 users")
	assert.Contains(t, line, "1 selected")
	assert.Contains(t, line, "Quota 8/10")
	assert.Contains(t, line, "Loading...")
	assert.Contains(t, line, "[red]HTTP 500: Internal Server Error[-]")
	assert.Contains(t, line, "careful")

	st.APILimitations.RateLimit = nil
	assert.Contains(t, StatusLine(st), "Quota 8")
}

func TestSelectedLogins(t *testing.T) {
	st := testState()
	st.SelectedUsers = models.UserSelectionMap{"2": true, "1_copy": true, "1": true, "missing": true}

	assert.Equal(t, []string{"octocat", "hubot"}, SelectedLogins(st))

	st.SelectedUsers = models.UserSelectionMap{}
	assert.Empty(t, SelectedLogins(st))
}

func TestSelectAllTarget(t *testing.T) {
	st := testState()
	assert.True(t, SelectAllTarget(st))

	st.SelectedUsers = models.UserSelectionMap{"1": true}
	assert.False(t, SelectAllTarget(st))
}

func TestUpdateResultList(t *testing.T) {
	st := testState()
	st.SelectedUsers = models.UserSelectionMap{"2": true}

	list := tview.NewList()
	rows := UpdateResultList(list, st, false)

	require.Equal(t, []models.ResultID{"1", "1_copy", "2"}, rows)
	require.Equal(t, 3, list.GetItemCount())
	text, _ := list.GetItemText(2)
	assert.Equal(t, "[green]✓ hubot", text)

	list.SetCurrentItem(2)
	st.ResultsOrder = []models.ResultID{"1", "2"}
	rows = UpdateResultList(list, st, false)
	assert.Equal(t, []models.ResultID{"1", "2"}, rows)
	assert.Equal(t, 2, list.GetItemCount())
}

func TestKeyHints(t *testing.T) {
	assert.NotContains(t, KeyHints("results", false, 0, false), "^D")
	assert.Contains(t, KeyHints("results", true, 0, false), "^D: Duplicate")
	assert.Contains(t, KeyHints("search", false, 1, false), "Switch to Data")
	assert.Equal(t, "⏎ : Encrypt | ⇥ : Switch to Recipients", KeyHints("encrypt", false, 1, true))
	assert.Equal(t, "⇥ : Switch to Recipients", KeyHints("encrypt", false, 1, false))
	assert.Empty(t, KeyHints("", false, 0, false))
}

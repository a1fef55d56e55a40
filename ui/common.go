package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/deathrjj/age-github-search-tui/models"
)

// MaskLogin censors all characters after the first two when demo is set.
func MaskLogin(login string, demo bool) string {
	runes := []rune(login)
	if !demo || len(runes) <= 2 {
		return login
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-2)
}

// FormatProfileLine renders one result row.
// It prefixes logins with "- " if unselected or "✓ " if selected.
func FormatProfileLine(p models.UserProfile, selected, demo bool) string {
	prefix := "- "
	color := "white"
	if selected {
		prefix = "✓ "
		color = "green"
	}
	line := fmt.Sprintf("[%s]%s%s", color, prefix, MaskLogin(p.Login, demo))
	if p.IsDuplicate {
		line += " [gray](copy)"
	}
	return line
}

// StatusLine summarises the session state for the status bar.
func StatusLine(st models.SearchState) string {
	var parts []string

	if len(st.ResultsOrder) > 0 || st.Pagination.TotalItems > 0 {
		p := st.Pagination
		parts = append(parts, fmt.Sprintf("Page %d/%d | %d of %d users",
			p.CurrentPage, p.TotalPages, len(st.ResultsOrder), p.TotalItems))
	}
	if n := st.SelectedCount(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	if r := st.APILimitations.Remaining; r != nil {
		if l := st.APILimitations.RateLimit; l != nil {
			parts = append(parts, fmt.Sprintf("Quota %d/%d", *r, *l))
		} else {
			parts = append(parts, fmt.Sprintf("Quota %d", *r))
		}
	}
	if st.Loading {
		parts = append(parts, "[yellow]Loading...[-]")
	}
	if st.Error != "" {
		parts = append(parts, "[red]"+tview.Escape(st.Error)+"[-]")
	}
	if st.Notification != "" {
		parts = append(parts, "[orange]"+tview.Escape(st.Notification)+"[-]")
	}
	return strings.Join(parts, " | ")
}

// SelectedLogins returns the logins of the selected results in render order.
// A login selected through several copies is listed once.
func SelectedLogins(st models.SearchState) []string {
	var logins []string
	seen := make(map[string]bool)
	for _, id := range st.ResultsOrder {
		if !st.SelectedUsers[id] {
			continue
		}
		p, ok := st.Results[id]
		if !ok || p.Login == "" || seen[p.Login] {
			continue
		}
		seen[p.Login] = true
		logins = append(logins, p.Login)
	}
	return logins
}

// UpdateResultList refreshes the list from the state and returns the ids in
// row order.
func UpdateResultList(list *tview.List, st models.SearchState, demo bool) []models.ResultID {
	current := list.GetCurrentItem()
	list.Clear()

	rows := make([]models.ResultID, 0, len(st.ResultsOrder))
	for _, p := range st.Profiles() {
		id := p.ResultID()
		list.AddItem(FormatProfileLine(p, st.SelectedUsers[id], demo), "", 0, nil)
		rows = append(rows, id)
	}
	if current >= 0 && current < len(rows) {
		list.SetCurrentItem(current)
	}
	return rows
}

// KeyHints returns the bottom bar help for the focused component.
func KeyHints(focus string, editMode bool, selected int, hasData bool) string {
	switch focus {
	case "results", "search":
		text := "↑/↓: Move Highlight | ⏎ : Toggle Selection | ^E: Edit Mode"
		if editMode {
			text += " | ^A: Select All | ^D: Duplicate | ^X: Delete"
		}
		if selected > 0 {
			text += " | ⇥ : Switch to Data"
		}
		return text
	case "data":
		return "⇥ : Switch to Encrypt Button"
	case "encrypt":
		if hasData {
			return "⏎ : Encrypt | ⇥ : Switch to Recipients"
		}
		return "⇥ : Switch to Recipients"
	}
	return ""
}

// SelectAllTarget reports the SelectAll argument for the select-all toggle:
// select everything when nothing is selected, clear otherwise.
func SelectAllTarget(st models.SearchState) bool {
	return st.SelectedCount() == 0
}

// CreateErrorModal creates a modal to display error messages
func CreateErrorModal(app *tview.Application, message string, returnFocus tview.Primitive) *tview.Modal {
	return tview.NewModal().
		SetText(message).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			app.SetRoot(returnFocus, true)
		})
}

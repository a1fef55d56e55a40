package ui

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/deathrjj/age-github-search-tui/encryption"
	"github.com/deathrjj/age-github-search-tui/models"
	"github.com/deathrjj/age-github-search-tui/search"
)

// SearchUI handles the search and encryption UI flow
type SearchUI struct {
	App      *tview.Application
	Session  *search.Session
	Keys     encryption.KeyFetcher
	DemoMode bool
	Logger   *zap.Logger

	// Output is the armored ciphertext once encryption succeeded.
	Output string

	typing    search.GateConfig
	deleting  search.GateConfig
	debouncer *search.InputDebouncer
	ctx       context.Context
	unsub     func()

	editMode  bool
	rendering bool
	rows      []models.ResultID

	searchInput   *tview.InputField
	resultList    *tview.List
	resultsPanel  *tview.Flex
	dataInput     *tview.TextArea
	encryptButton *tview.Button
	statusBar     *tview.TextView
	bottomBar     *tview.TextView
	layout        tview.Primitive
}

// NewSearchUI creates a new search UI instance
func NewSearchUI(app *tview.Application, session *search.Session, keys encryption.KeyFetcher,
	typing, deleting search.GateConfig, demo bool, logger *zap.Logger) *SearchUI {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchUI{
		App:      app,
		Session:  session,
		Keys:     keys,
		DemoMode: demo,
		Logger:   logger,
		typing:   typing,
		deleting: deleting,
	}
}

// Start builds the layout, subscribes to the session and takes over the screen.
func (ui *SearchUI) Start(ctx context.Context) {
	ui.ctx = ctx
	ui.debouncer = search.NewInputDebouncer(ui.Session.DebouncedTrigger(ctx), ui.typing, ui.deleting, ui.Logger)

	// Create result list.
	ui.resultList = tview.NewList().
		ShowSecondaryText(false).
		SetWrapAround(false)
	ui.resultList.SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		if index < 0 || index >= len(ui.rows) {
			return
		}
		ui.Session.ToggleUserSelection(ui.rows[index])
		ui.render()
	})
	ui.resultList.SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		if ui.rendering || index != len(ui.rows)-1 {
			return
		}
		go ui.Session.LoadNextPage(ui.ctx)
	})
	ui.resultList.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if ui.handleShortcut(event) {
			return nil
		}
		switch event.Key() {
		case tcell.KeyTab:
			if ui.Session.State().SelectedCount() > 0 {
				ui.App.SetFocus(ui.dataInput)
				ui.updateBottomBar()
			}
			return nil
		case tcell.KeyUp, tcell.KeyDown, tcell.KeyEnter, tcell.KeyPgUp, tcell.KeyPgDn:
			return event
		case tcell.KeyRune:
			ui.App.SetFocus(ui.searchInput)
			current := ui.searchInput.GetText()
			ui.searchInput.SetText(current + string(event.Rune()))
			ui.updateBottomBar()
			return nil
		default:
			ui.App.SetFocus(ui.searchInput)
			ui.updateBottomBar()
			return event
		}
	})

	// Create search input.
	ui.searchInput = tview.NewInputField().SetLabel("Search: ")
	ui.searchInput.SetChangedFunc(func(text string) {
		ui.debouncer.OnInput(text)
	})
	ui.searchInput.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if ui.handleShortcut(event) {
			return nil
		}
		switch event.Key() {
		case tcell.KeyUp, tcell.KeyDown, tcell.KeyEnter:
			ui.App.SetFocus(ui.resultList)
			ui.updateBottomBar()
			return nil
		case tcell.KeyEscape:
			ui.debouncer.Cancel()
			ui.Session.AbortSearch()
			return nil
		}
		return event
	})

	// Left panel: search input and result list.
	ui.resultsPanel = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.searchInput, 3, 0, true).
		AddItem(ui.resultList, 0, 1, false)
	ui.resultsPanel.SetBorder(true).SetTitle("Recipients")

	// Create Data panel as a text area.
	ui.dataInput = tview.NewTextArea().
		SetWrap(true).
		SetWordWrap(true)

	ui.encryptButton = tview.NewButton("Encrypt").
		SetSelectedFunc(ui.encrypt)

	ui.dataInput.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyTab {
			ui.App.SetFocus(ui.encryptButton)
			ui.updateBottomBar()
			return nil
		}
		ui.updateBottomBar()
		return event
	})
	ui.encryptButton.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyTab {
			ui.App.SetFocus(ui.resultList)
			ui.updateBottomBar()
			return nil
		}
		return event
	})

	dataPanel := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.dataInput, 0, 1, false).
		AddItem(ui.encryptButton, 1, 0, false)
	dataPanel.SetBorder(true).SetTitle("Data")

	ui.statusBar = tview.NewTextView().
		SetDynamicColors(true)
	ui.bottomBar = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)

	// Main layout: two columns on top, status and bottom bar as last rows.
	mainFlex := tview.NewFlex().
		AddItem(ui.resultsPanel, 0, 1, true).
		AddItem(dataPanel, 0, 1, false)
	ui.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(mainFlex, 0, 1, true).
		AddItem(ui.statusBar, 1, 0, false).
		AddItem(ui.bottomBar, 1, 0, false)

	// Listeners may run on the event loop, so redraws are queued from a
	// separate goroutine and always read the latest state.
	ui.unsub = ui.Session.Subscribe(func(models.SearchState) {
		go ui.App.QueueUpdateDraw(ui.render)
	})

	ui.App.SetRoot(ui.layout, true).SetFocus(ui.searchInput)
	ui.render()
}

// Close stops pending searches and detaches from the session.
func (ui *SearchUI) Close() {
	if ui.debouncer != nil {
		ui.debouncer.Cancel()
	}
	if ui.unsub != nil {
		ui.unsub()
		ui.unsub = nil
	}
}

// handleShortcut applies the edit mode shortcuts. Bulk operations only work
// in edit mode.
func (ui *SearchUI) handleShortcut(event *tcell.EventKey) bool {
	switch event.Key() {
	case tcell.KeyCtrlE:
		ui.editMode = !ui.editMode
	case tcell.KeyCtrlA:
		if !ui.editMode {
			return false
		}
		ui.Session.ToggleSelectAllUsers(SelectAllTarget(ui.Session.State()))
	case tcell.KeyCtrlD:
		if !ui.editMode || ui.Session.State().SelectedCount() == 0 {
			return ui.editMode
		}
		ui.Session.DuplicateUserSelection()
	case tcell.KeyCtrlX:
		if !ui.editMode || ui.Session.State().SelectedCount() == 0 {
			return ui.editMode
		}
		ui.Session.DeleteUserSelection()
	default:
		return false
	}
	ui.render()
	return true
}

func (ui *SearchUI) render() {
	st := ui.Session.State()

	ui.rendering = true
	ui.rows = UpdateResultList(ui.resultList, st, ui.DemoMode)
	ui.rendering = false

	title := "Recipients"
	if ui.editMode {
		title += " [EDIT]"
	}
	ui.resultsPanel.SetTitle(title)
	ui.statusBar.SetText(StatusLine(st))
	ui.updateBottomBar()
}

// updateBottomBar updates the bottom bar text based on current focus.
func (ui *SearchUI) updateBottomBar() {
	var focus string
	switch ui.App.GetFocus() {
	case ui.resultList:
		focus = "results"
	case ui.searchInput:
		focus = "search"
	case ui.dataInput:
		focus = "data"
	case ui.encryptButton:
		focus = "encrypt"
	}
	st := ui.Session.State()
	ui.bottomBar.SetText(KeyHints(focus, ui.editMode, st.SelectedCount(), ui.dataInput.GetText() != ""))
}

func (ui *SearchUI) encrypt() {
	plaintext := ui.dataInput.GetText()
	logins := SelectedLogins(ui.Session.State())
	if plaintext == "" || len(logins) == 0 {
		return
	}

	go func() {
		encrypted, err := ui.encryptFor(plaintext, logins)
		if err != nil {
			ui.Logger.Error("Encryption failed", zap.Strings("logins", logins), zap.Error(err))
			ui.App.QueueUpdateDraw(func() {
				modal := tview.NewModal().
					SetText(fmt.Sprintf("Encryption failed: %v", err)).
					AddButtons([]string{"OK"}).
					SetDoneFunc(func(buttonIndex int, buttonLabel string) {
						ui.App.SetRoot(ui.layout, true).SetFocus(ui.dataInput)
						ui.updateBottomBar()
					})
				ui.App.SetRoot(modal, false)
			})
			return
		}

		if err := encryption.CopyToClipboard(encrypted); err != nil {
			ui.Logger.Warn("Could not copy ciphertext to clipboard", zap.Error(err))
		}
		ui.Logger.Info("Encrypted data", zap.Int("recipients", len(logins)))
		ui.App.QueueUpdate(func() {
			ui.Output = encrypted
		})
		ui.App.Stop()
	}()
}

func (ui *SearchUI) encryptFor(plaintext string, logins []string) (string, error) {
	keys, err := encryption.CollectRecipients(ui.ctx, ui.Keys, logins)
	if err != nil {
		return "", fmt.Errorf("failed to fetch keys: %w", err)
	}
	return encryption.Encrypt(plaintext, keys)
}

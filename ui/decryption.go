package ui

import (
	"errors"
	"fmt"
	"os"

	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/deathrjj/age-github-search-tui/encryption"
)

// DecryptionUI handles the decryption UI flow
type DecryptionUI struct {
	App           *tview.Application
	EncryptedText string
	// KeyPath is the SSH private key used for decryption, asked for when empty.
	KeyPath string
	// OnSkip continues with the search flow.
	OnSkip func()
	Logger *zap.Logger

	// Output is the plaintext once decryption succeeded.
	Output string
}

// NewDecryptionUI creates a new decryption UI instance
func NewDecryptionUI(app *tview.Application, encryptedText, keyPath string, onSkip func(), logger *zap.Logger) *DecryptionUI {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DecryptionUI{
		App:           app,
		EncryptedText: encryptedText,
		KeyPath:       keyPath,
		OnSkip:        onSkip,
		Logger:        logger,
	}
}

// PromptForDecryption shows a prompt asking if the user wants to decrypt the age file
func (ui *DecryptionUI) PromptForDecryption() {
	modal := tview.NewModal().
		SetText("Age file detected in clipboard. Would you like to decrypt it?").
		AddButtons([]string{"Yes", "No"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			if buttonLabel != "Yes" {
				ui.skip()
				return
			}
			if ui.KeyPath == "" {
				ui.PromptForPrivateKeyPath()
				return
			}
			ui.decrypt(ui.KeyPath, "", nil)
		})

	ui.App.SetRoot(modal, true)
}

// PromptForPrivateKeyPath shows a form to enter the SSH private key path
func (ui *DecryptionUI) PromptForPrivateKeyPath() {
	form := tview.NewForm()

	var keyPath string

	form.AddInputField("Path to SSH private key:", "", 50, nil, func(text string) {
		keyPath = text
	})

	form.AddButton("Continue", func() {
		if keyPath == "" {
			errorModal := CreateErrorModal(ui.App, "Please enter a valid file path", form)
			ui.App.SetRoot(errorModal, true)
			return
		}

		if _, err := os.Stat(keyPath); errors.Is(err, os.ErrNotExist) {
			errorModal := CreateErrorModal(ui.App, "File does not exist. Please enter a valid path.", form)
			ui.App.SetRoot(errorModal, true)
			return
		}

		ui.KeyPath = keyPath
		ui.decrypt(keyPath, "", nil)
	})

	form.AddButton("Cancel", ui.skip)

	form.SetBorder(true).SetTitle("SSH Private Key Path").SetTitleAlign(tview.AlignCenter)
	ui.App.SetRoot(form, true)
	ui.App.SetFocus(form)
}

// PromptForPassphrase shows a prompt for entering the SSH key passphrase
func (ui *DecryptionUI) PromptForPassphrase(privateKeyPath string) {
	form := tview.NewForm()

	var passphrase string

	form.AddPasswordField("Passphrase:", "", 50, '*', func(text string) {
		passphrase = text
	})

	form.AddButton("Decrypt", func() {
		ui.decrypt(privateKeyPath, passphrase, form)
	})

	form.AddButton("Cancel", ui.skip)

	form.SetBorder(true).SetTitle("SSH Key Passphrase").SetTitleAlign(tview.AlignCenter)
	ui.App.SetRoot(form, true)
	ui.App.SetFocus(form)
}

// decrypt tries the key and stops the app on success. Errors return to
// returnTo when set, otherwise they end the app.
func (ui *DecryptionUI) decrypt(keyPath, passphrase string, returnTo tview.Primitive) {
	decrypted, err := encryption.DecryptAgeFile(ui.EncryptedText, keyPath, passphrase)
	if err == nil {
		ui.Logger.Info("Decrypted clipboard age file")
		ui.Output = decrypted
		ui.App.Stop()
		return
	}

	if errors.Is(err, encryption.ErrPassphraseRequired) {
		ui.PromptForPassphrase(keyPath)
		return
	}

	ui.Logger.Warn("Decryption failed", zap.Error(err))
	if returnTo != nil {
		ui.App.SetRoot(CreateErrorModal(ui.App, fmt.Sprintf("Error decrypting: %v", err), returnTo), true)
		return
	}
	errorModal := tview.NewModal().
		SetText(fmt.Sprintf("Error decrypting: %v", err)).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			ui.App.Stop()
		})
	ui.App.SetRoot(errorModal, true)
}

func (ui *DecryptionUI) skip() {
	if ui.OnSkip == nil {
		ui.App.Stop()
		return
	}
	ui.OnSkip()
}

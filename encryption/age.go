package encryption

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"filippo.io/age"
	"filippo.io/age/agessh"
	"filippo.io/age/armor"
	"github.com/atotto/clipboard"
	"golang.org/x/crypto/ssh"
	"golang.org/x/sync/errgroup"
)

const (
	armorHeader = "-----BEGIN AGE ENCRYPTED FILE-----"
	armorFooter = "-----END AGE ENCRYPTED FILE-----"

	// maxKeyFetches bounds concurrent key lookups against the GitHub API.
	maxKeyFetches = 4
)

var (
	// ErrPassphraseRequired is returned when the SSH key is passphrase protected
	// and no passphrase was given.
	ErrPassphraseRequired = errors.New("ssh key is passphrase protected, please provide passphrase")
	// ErrNoRecipients is returned when none of the selected users publishes a key.
	ErrNoRecipients = errors.New("none of the selected users has a public SSH key")
)

// KeyFetcher retrieves the public SSH keys of a login.
type KeyFetcher interface {
	FetchUserKeys(ctx context.Context, login string) ([]string, error)
}

// IsArmored reports whether text looks like an armored age file.
func IsArmored(text string) bool {
	return strings.Contains(text, armorHeader) && strings.Contains(text, armorFooter)
}

// CheckClipboardForAgeFile checks if the clipboard contains an age encrypted file
func CheckClipboardForAgeFile() (string, bool) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", false
	}
	if IsArmored(text) {
		return text, true
	}
	return "", false
}

// CopyToClipboard writes text to the system clipboard.
func CopyToClipboard(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// CollectRecipients fetches the keys of every login concurrently. Repeated
// logins are fetched once.
func CollectRecipients(ctx context.Context, fetcher KeyFetcher, logins []string) (map[string][]string, error) {
	unique := make([]string, 0, len(logins))
	seen := make(map[string]bool, len(logins))
	for _, l := range logins {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		unique = append(unique, l)
	}

	var mu sync.Mutex
	keys := make(map[string][]string, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxKeyFetches)
	for _, login := range unique {
		g.Go(func() error {
			k, err := fetcher.FetchUserKeys(gctx, login)
			if err != nil {
				return err
			}
			mu.Lock()
			keys[login] = k
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Encrypt encrypts plaintext with age for every supported SSH key in
// keysByLogin and returns armored output. Unsupported keys are skipped.
func Encrypt(plaintext string, keysByLogin map[string][]string) (string, error) {
	logins := make([]string, 0, len(keysByLogin))
	for login := range keysByLogin {
		logins = append(logins, login)
	}
	sort.Strings(logins)

	var recipients []age.Recipient
	for _, login := range logins {
		for _, keyStr := range keysByLogin[login] {
			// GitHub lists every key type; age only supports ssh-rsa and ssh-ed25519.
			rec, err := agessh.ParseRecipient(keyStr)
			if err != nil {
				continue
			}
			recipients = append(recipients, rec)
		}
	}
	if len(recipients) == 0 {
		return "", ErrNoRecipients
	}

	var buf bytes.Buffer
	armorWriter := armor.NewWriter(&buf)

	w, err := age.Encrypt(armorWriter, recipients...)
	if err != nil {
		return "", fmt.Errorf("failed to start encryption: %w", err)
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", fmt.Errorf("failed to encrypt: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finish encryption: %w", err)
	}
	if err := armorWriter.Close(); err != nil {
		return "", fmt.Errorf("failed to finish armor: %w", err)
	}

	return buf.String(), nil
}

// ParseSSHIdentity parses a PEM SSH private key. Protected keys need a
// passphrase, otherwise ErrPassphraseRequired is returned.
func ParseSSHIdentity(keyData []byte, passphrase string) (age.Identity, error) {
	identity, err := agessh.ParseIdentity(keyData)
	if err == nil {
		return identity, nil
	}

	var missing *ssh.PassphraseMissingError
	if !errors.As(err, &missing) {
		return nil, fmt.Errorf("failed to parse SSH key: %w", err)
	}
	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}
	if missing.PublicKey == nil {
		return nil, fmt.Errorf("failed to parse SSH key: protected key without embedded public key")
	}

	encrypted, err := agessh.NewEncryptedSSHIdentity(missing.PublicKey, keyData, func() ([]byte, error) {
		return []byte(passphrase), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse protected SSH key: %w", err)
	}
	return encrypted, nil
}

// Decrypt decrypts an armored age file with identity.
func Decrypt(encryptedText string, identity age.Identity) (string, error) {
	r, err := age.Decrypt(armor.NewReader(strings.NewReader(encryptedText)), identity)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	decrypted, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read decrypted content: %w", err)
	}
	return string(decrypted), nil
}

// DecryptAgeFile decrypts an armored age file using a private key file
func DecryptAgeFile(encryptedText, privateKeyPath, passphrase string) (string, error) {
	keyData, err := os.ReadFile(filepath.Clean(privateKeyPath))
	if err != nil {
		return "", fmt.Errorf("failed to read private key file: %w", err)
	}

	identity, err := ParseSSHIdentity(keyData, passphrase)
	if err != nil {
		return "", err
	}
	return Decrypt(encryptedText, identity)
}

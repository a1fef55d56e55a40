package encryption

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

type testKey struct {
	authorized string
	private    []byte
}

func newTestKey(t *testing.T, passphrase string) testKey {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)

	var block *pem.Block
	if passphrase == "" {
		block, err = ssh.MarshalPrivateKey(priv, "test")
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(priv, "test", []byte(passphrase))
	}
	require.NoError(t, err)

	return testKey{
		authorized: string(ssh.MarshalAuthorizedKey(sshPub)),
		private:    pem.EncodeToMemory(block),
	}
}

type fakeFetcher struct {
	mu    sync.Mutex
	keys  map[string][]string
	calls map[string]int
	err   error
}

func (f *fakeFetcher) FetchUserKeys(_ context.Context, login string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[login]++
	if f.err != nil {
		return nil, f.err
	}
	return f.keys[login], nil
}

func TestIsArmored(t *testing.T) {
	assert.True(t, IsArmored(armorHeader+"\nabc\n"+armorFooter+"\n"))
	assert.False(t, IsArmored(armorHeader+"\nabc\n"))
	assert.False(t, IsArmored("hello"))
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	alice := newTestKey(t, "")
	bob := newTestKey(t, "")

	armored, err := Encrypt("secret data", map[string][]string{
		"alice": {alice.authorized},
		"bob":   {bob.authorized},
	})
	require.NoError(t, err)
	assert.True(t, IsArmored(armored))

	for name, key := range map[string]testKey{"alice": alice, "bob": bob} {
		t.Run(name, func(t *testing.T) {
			identity, err := ParseSSHIdentity(key.private, "")
			require.NoError(t, err)

			plain, err := Decrypt(armored, identity)
			require.NoError(t, err)
			assert.Equal(t, "secret data", plain)
		})
	}
}

func TestEncrypt_SkipsUnsupportedKeys(t *testing.T) {
	alice := newTestKey(t, "")

	armored, err := Encrypt("x", map[string][]string{
		"alice": {"not-a-key", alice.authorized},
	})
	require.NoError(t, err)
	assert.True(t, IsArmored(armored))
}

func TestEncrypt_NoRecipients(t *testing.T) {
	_, err := Encrypt("x", map[string][]string{"ghost": nil})
	assert.ErrorIs(t, err, ErrNoRecipients)

	_, err = Encrypt("x", nil)
	assert.ErrorIs(t, err, ErrNoRecipients)
}

func TestParseSSHIdentity_Passphrase(t *testing.T) {
	key := newTestKey(t, "hunter2")

	_, err := ParseSSHIdentity(key.private, "")
	assert.ErrorIs(t, err, ErrPassphraseRequired)

	armored, err := Encrypt("protected", map[string][]string{"carol": {key.authorized}})
	require.NoError(t, err)

	identity, err := ParseSSHIdentity(key.private, "hunter2")
	require.NoError(t, err)

	plain, err := Decrypt(armored, identity)
	require.NoError(t, err)
	assert.Equal(t, "protected", plain)

	wrong, err := ParseSSHIdentity(key.private, "wrong")
	require.NoError(t, err)
	_, err = Decrypt(armored, wrong)
	assert.Error(t, err)
}

func TestParseSSHIdentity_Garbage(t *testing.T) {
	_, err := ParseSSHIdentity([]byte("garbage"), "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPassphraseRequired)
}

func TestDecryptAgeFile(t *testing.T) {
	key := newTestKey(t, "")
	path := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(path, key.private, 0o600))

	armored, err := Encrypt("from file", map[string][]string{"dave": {key.authorized}})
	require.NoError(t, err)

	plain, err := DecryptAgeFile(armored, path, "")
	require.NoError(t, err)
	assert.Equal(t, "from file", plain)

	_, err = DecryptAgeFile(armored, filepath.Join(t.TempDir(), "missing"), "")
	assert.Error(t, err)

	other := newTestKey(t, "")
	otherPath := filepath.Join(t.TempDir(), "other")
	require.NoError(t, os.WriteFile(otherPath, other.private, 0o600))
	_, err = DecryptAgeFile(armored, otherPath, "")
	assert.Error(t, err)
}

func TestCollectRecipients(t *testing.T) {
	f := &fakeFetcher{keys: map[string][]string{
		"alice": {"ssh-ed25519 AAAA alice"},
		"bob":   {"ssh-rsa BBBB bob", "ssh-ed25519 CCCC bob"},
	}}

	keys, err := CollectRecipients(context.Background(), f, []string{"alice", "bob", "alice", ""})
	require.NoError(t, err)
	assert.Equal(t, f.keys, keys)
	assert.Equal(t, map[string]int{"alice": 1, "bob": 1}, f.calls)
}

func TestCollectRecipients_Error(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeFetcher{err: boom}

	_, err := CollectRecipients(context.Background(), f, []string{"alice"})
	assert.ErrorIs(t, err, boom)
}

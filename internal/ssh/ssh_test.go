package ssh

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gossh "golang.org/x/crypto/ssh"
)

func writeKey(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := gossh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path
}

func TestKeyFile(t *testing.T) {
	m, err := KeyFile(writeKey(t))
	require.NoError(t, err)
	assert.NotNil(t, m)

	_, err = KeyFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	garbage := filepath.Join(t.TempDir(), "garbage")
	require.NoError(t, os.WriteFile(garbage, []byte("not a key"), 0o600))
	_, err = KeyFile(garbage)
	require.Error(t, err)
}

func TestAuthMethods(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")

	methods, err := AuthMethods(writeKey(t))
	require.NoError(t, err)
	assert.Len(t, methods, 1)

	_, err = AuthMethods("")
	require.Error(t, err)
}

func TestHostKeyCallback(t *testing.T) {
	cb, err := HostKeyCallback("", true)
	require.NoError(t, err)
	assert.NotNil(t, cb)

	knownHosts := filepath.Join(t.TempDir(), "known_hosts")
	require.NoError(t, os.WriteFile(knownHosts, nil, 0o600))
	cb, err = HostKeyCallback(knownHosts, false)
	require.NoError(t, err)
	assert.NotNil(t, cb)

	_, err = HostKeyCallback(filepath.Join(t.TempDir(), "missing"), false)
	require.Error(t, err)
}

func TestDefaultKnownHostsFile(t *testing.T) {
	t.Setenv("HOME", "/home/dfilter")
	assert.Equal(t, "/home/dfilter/.ssh/known_hosts", DefaultKnownHostsFile())
}

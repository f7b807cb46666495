package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-01-01"})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"BETTER_AUTH_SECRET", "BIZADMIN_PORT", "BIZADMIN_ENV", "D1_VITE_REACT"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := "Database:\n  path: " + filepath.Join(dir, "app.db") + "\nAuth:\n  secret: test-secret\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "bizadmin 1.2.3")
	assert.Contains(t, out, "Commit: abc123")

	out, err = run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)
}

func TestHelp(t *testing.T) {
	out, err := run(t, "--help")
	require.NoError(t, err)
	for _, sub := range []string{"serve", "migrate", "create-admin", "users", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestMigrate(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "--config", cfg, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrate up: done")

	out, err = run(t, "--config", cfg, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "migrate status: done")

	_, err = run(t, "--config", cfg, "migrate", "sideways")
	assert.Error(t, err)
}

func TestCreateAdmin(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "--config", cfg, "create-admin", "--name", "Root", "--email", "root@example.com", "--password", "password123")
	require.NoError(t, err)
	assert.Contains(t, out, "admin root@example.com")

	_, err = run(t, "--config", cfg, "create-admin", "--password", "password123")
	assert.Error(t, err, "email is required")

	_, err = run(t, "--config", cfg, "create-admin", "--email", "not-an-email", "--password", "password123")
	assert.Error(t, err)
}

func TestCreateAdmin_PromptsForPassword(t *testing.T) {
	cfg := writeConfig(t)
	orig := askPassword
	t.Cleanup(func() { askPassword = orig })

	var asked string
	askPassword = func(message string) (string, error) {
		asked = message
		return "prompted-pass1", nil
	}
	out, err := run(t, "--config", cfg, "create-admin", "--email", "ops@example.com")
	require.NoError(t, err)
	assert.Contains(t, asked, "ops@example.com")
	assert.Contains(t, out, "admin ops@example.com")

	askPassword = func(string) (string, error) { return "", errors.New("interrupt") }
	_, err = run(t, "--config", cfg, "create-admin", "--email", "other@example.com")
	assert.Error(t, err)
}

func TestUsers(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "--config", cfg, "users")
	require.NoError(t, err)
	assert.Contains(t, out, "no users")

	_, err = run(t, "--config", cfg, "create-admin", "--name", "Root", "--email", "root@example.com", "--password", "password123")
	require.NoError(t, err)

	out, err = run(t, "--config", cfg, "users", "--filter-field", "role", "--filter-value", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "root@example.com")
	assert.Contains(t, out, "1 of 1 users")

	_, err = run(t, "--config", cfg, "users", "--sort-by", "password")
	assert.Error(t, err)
}

func TestBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("General:\n  env: staging\n"), 0o644))

	_, err := run(t, "--config", path, "migrate")
	assert.Error(t, err)
}

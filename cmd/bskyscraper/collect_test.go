package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bskyscraper/pkg/auth"
	"bskyscraper/pkg/config"
)

func newCollectTestCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "collect"}
	addCollectFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestCollectOverridesOnlyChangedFlags(t *testing.T) {
	cmd := newCollectTestCmd(t)

	flags, err := collectOverrides(cmd)
	require.NoError(t, err)
	assert.Empty(t, flags)
}

func TestCollectOverrides(t *testing.T) {
	cmd := newCollectTestCmd(t,
		"--max-posts", "120",
		"--per-request", "25",
		"--delay", "0.5",
		"--no-timestamp",
		"--no-quotes",
		"--output", "/tmp/out",
		"--filename", "timeline",
	)

	flags, err := collectOverrides(cmd)
	require.NoError(t, err)

	assert.Equal(t, 120, flags["max-posts"])
	assert.Equal(t, 25, flags["posts-per-request"])
	assert.Equal(t, 500*time.Millisecond, flags["rate-limit-delay"])
	assert.Equal(t, false, flags["include-timestamp"])
	assert.Equal(t, false, flags["collect-quotes"])
	assert.Equal(t, "/tmp/out", flags["output-dir"])
	assert.Equal(t, "timeline", flags["filename"])
	assert.NotContains(t, flags, "collect-images")

	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(flags)
	assert.Equal(t, 120, cfg.Collection.MaxPosts)
	assert.False(t, cfg.Collection.CollectQuotes)
	assert.True(t, cfg.Collection.CollectImages)
	assert.NoError(t, cfg.Validate())
}

func TestCollectOverridesInvalidDelay(t *testing.T) {
	cmd := newCollectTestCmd(t, "--delay", "later")

	_, err := collectOverrides(cmd)
	assert.Error(t, err)
}

func withManager(t *testing.T, manager *auth.Manager) {
	t.Helper()
	orig := newCredentialManager
	newCredentialManager = func() (*auth.Manager, error) { return manager, nil }
	t.Cleanup(func() { newCredentialManager = orig })
}

func TestResolveCredentialsKeepsConfigured(t *testing.T) {
	withManager(t, nil)

	cfg := config.DefaultConfig()
	cfg.Bluesky.Identifier = "alice.bsky.social"
	cfg.Bluesky.Password = "from-env"

	require.NoError(t, resolveCredentials(cfg, "", false))
	assert.Equal(t, "from-env", cfg.Bluesky.Password)
}

func TestResolveCredentialsFromStore(t *testing.T) {
	t.Setenv("BSKYSCRAPER_IDENTIFIER", "")
	t.Setenv("BSKYSCRAPER_PASSWORD", "")

	manager, store := auth.NewMockManager()
	require.NoError(t, store.Store(&auth.Account{
		Identifier: "bob.bsky.social",
		Password:   "abcd-efgh-ijkl-mnop",
		Host:       "https://pds.example.com",
	}))
	withManager(t, manager)

	cfg := config.DefaultConfig()
	require.NoError(t, resolveCredentials(cfg, "", false))
	assert.Equal(t, "bob.bsky.social", cfg.Bluesky.Identifier)
	assert.Equal(t, "abcd-efgh-ijkl-mnop", cfg.Bluesky.Password)
	assert.Equal(t, "https://pds.example.com", cfg.Bluesky.Host)

	cfg = config.DefaultConfig()
	cfg.Bluesky.Host = "https://flag.example.com"
	require.NoError(t, resolveCredentials(cfg, "@Bob.bsky.social", true))
	assert.Equal(t, "https://flag.example.com", cfg.Bluesky.Host, "--host wins over the stored host")
}

func TestResolveCredentialsMissing(t *testing.T) {
	manager, _ := auth.NewMockManager()
	withManager(t, manager)

	err := resolveCredentials(config.DefaultConfig(), "nobody.bsky.social", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrCredentialsNotFound)
}

func TestPrintAccountsMasksPasswords(t *testing.T) {
	var buf bytes.Buffer
	printAccounts(&buf, []*auth.Account{{
		Identifier:   "alice.bsky.social",
		Password:     "abcd-efgh-ijkl-mnop",
		LastModified: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}})

	assert.Contains(t, buf.String(), "Identifier: alice.bsky.social")
	assert.Contains(t, buf.String(), "abcd...mnop")
	assert.NotContains(t, buf.String(), "efgh-ijkl")
	assert.Contains(t, buf.String(), "2024-01-02 03:04:05")

	buf.Reset()
	printAccounts(&buf, nil)
	assert.Contains(t, buf.String(), "auth login")
}

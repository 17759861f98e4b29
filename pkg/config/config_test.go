package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/sealsign-pades/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DefaultEndpoint, cfg.SealSign.Endpoint)
	assert.Equal(t, "Default", cfg.SealSign.Profile)
	assert.True(t, cfg.SealSign.VerifyPeer, "la verificación TLS debe estar activa por defecto")
	assert.Equal(t, 60*time.Second, cfg.SealSign.Timeout)
	assert.False(t, cfg.SealSign.CollectVerification)
	assert.Equal(t, "127.0.0.1:8089", cfg.Sandbox.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SEALSIGN_ACCOUNT_ID", "acme")
	t.Setenv("SEALSIGN_PIN", "1234")
	t.Setenv("SEALSIGN_PROFILE", "PAdES")
	t.Setenv("SEALSIGN_VERIFY_PEER", "false")
	t.Setenv("SEALSIGN_TIMEOUT_SECONDS", "15")
	t.Setenv("SEALSIGN_COLLECT_VERIFICATION", "true")
	t.Setenv("SEALSIGN_PEER_NAME", "services.sealsignportal.com")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "acme", cfg.SealSign.AccountID)
	assert.Equal(t, "1234", cfg.SealSign.PIN)
	assert.Equal(t, "PAdES", cfg.SealSign.Profile)
	assert.False(t, cfg.SealSign.VerifyPeer)
	assert.Equal(t, 15*time.Second, cfg.SealSign.Timeout)
	assert.True(t, cfg.SealSign.CollectVerification)
	assert.Equal(t, "services.sealsignportal.com", cfg.SealSign.PeerName)
}

func TestLoad_InvalidNumbersFallBackToDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SEALSIGN_TIMEOUT_SECONDS", "abc")
	t.Setenv("SEALSIGN_VERIFY_PEER", "quizás")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.SealSign.Timeout)
	assert.True(t, cfg.SealSign.VerifyPeer)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

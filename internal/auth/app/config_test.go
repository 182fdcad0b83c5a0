package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequiredSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("GATEKEEP_ACCESS_SECRET", "unit-test-access-secret-0123456789")
	t.Setenv("GATEKEEP_REFRESH_SECRET", "unit-test-refresh-secret-012345678")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredSecrets(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "gatekeep", cfg.Issuer)
	require.Equal(t, []string{"gatekeep-api"}, cfg.Audience)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	require.Equal(t, RegistrySQLite, cfg.RegistryBackend)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "dev", cfg.Env)
	require.False(t, cfg.SecureCookies) // dev default
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("GATEKEEP_ENV", "prod")
	t.Setenv("GATEKEEP_AUDIENCE", "svc-a, svc-b")
	t.Setenv("GATEKEEP_ACCESS_TTL", "5m")
	t.Setenv("GATEKEEP_REGISTRY_BACKEND", "redis")
	t.Setenv("GATEKEEP_PORT", "9999")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, []string{"svc-a", "svc-b"}, cfg.Audience)
	require.Equal(t, 5*time.Minute, cfg.AccessTTL)
	require.Equal(t, RegistryRedis, cfg.RegistryBackend)
	require.Equal(t, 9999, cfg.Port)
	require.True(t, cfg.SecureCookies) // prod default
}

func TestLoadConfigRejectsMissingSecrets(t *testing.T) {
	t.Setenv("GATEKEEP_ACCESS_SECRET", "")
	t.Setenv("GATEKEEP_REFRESH_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsShortSecrets(t *testing.T) {
	t.Setenv("GATEKEEP_ACCESS_SECRET", "too-short")
	t.Setenv("GATEKEEP_REFRESH_SECRET", "also-too-short")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsIdenticalSecrets(t *testing.T) {
	t.Setenv("GATEKEEP_ACCESS_SECRET", "the-same-secret-on-both-classes-!!")
	t.Setenv("GATEKEEP_REFRESH_SECRET", "the-same-secret-on-both-classes-!!")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsUnknownRegistry(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("GATEKEEP_REGISTRY_BACKEND", "etcd")

	_, err := LoadConfig()
	require.Error(t, err)
}

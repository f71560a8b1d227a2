package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		raw  string
		def  bool
		want bool
	}{
		{"", true, true},
		{"", false, false},
		{"true", false, true},
		{"SIM", false, true},
		{"não", true, false},
		{"0", true, false},
		{"maybe", true, true},
	}

	for _, tt := range tests {
		t.Setenv("SMARTLEGAL_TEST_BOOL", tt.raw)
		assert.Equal(t, tt.want, GetEnvBool("SMARTLEGAL_TEST_BOOL", tt.def), "raw=%q", tt.raw)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("SMARTLEGAL_TEST_INT", "42")
	assert.Equal(t, 42, GetEnvInt("SMARTLEGAL_TEST_INT", 1))

	t.Setenv("SMARTLEGAL_TEST_INT", "x")
	assert.Equal(t, 1, GetEnvInt("SMARTLEGAL_TEST_INT", 1))
}

func TestLoadRereadsEnvironment(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("MAX_UPLOAD_MB", "2")
	Load()
	t.Cleanup(Load)

	assert.Equal(t, "sqlite", DatabaseDriver)
	assert.Equal(t, int64(2<<20), MaxUploadBytes)
}

func TestLoadFirmProfile_MissingFileUsesDefaults(t *testing.T) {
	profile, err := LoadFirmProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultFirmProfile().LawyerOAB, profile.LawyerOAB)
}

func TestLoadFirmProfile_OverridesKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "firm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lawyer_name: Dra. Fulana\nlawyer_oab: OAB/SP-1\n"), 0o644))

	profile, err := LoadFirmProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "Dra. Fulana", profile.LawyerName)
	assert.Equal(t, "OAB/SP-1", profile.LawyerOAB)
	assert.NotEmpty(t, profile.LegalGroundText)
}

func TestLoadFirmProfile_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "firm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_requests: [unterminated"), 0o644))

	_, err := LoadFirmProfile(path)
	assert.Error(t, err)
}

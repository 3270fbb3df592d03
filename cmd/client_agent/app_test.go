package clientagent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ride-hail-realtime/internal/domain/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
identity:
  id: rider-42
  role: rider
broker:
  url: ws://localhost:8083/mqtt
api:
  base_url: http://localhost:3000
`

func TestRun_MissingConfig(t *testing.T) {
	err := Run(context.Background(), Options{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestRun_RejectsRoleOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalConfig), 0o600))

	err := Run(context.Background(), Options{ConfigPath: path, Role: "dispatcher"})
	assert.ErrorIs(t, err, user.ErrInvalidRole)
}

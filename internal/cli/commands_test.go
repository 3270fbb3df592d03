package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"ride-hail-realtime/internal/general/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, run RunFunc, args ...string) (string, error) {
	t.Helper()
	if run == nil {
		run = func(context.Context, string, string) error { return nil }
	}
	root := NewRootCommand(run)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMintConnectionToken(t *testing.T) {
	token, claims, err := MintConnectionToken("dev-secret", "driver-7", "DRIVER", time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "driver-7", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Minute), claims.Expiry(), 5*time.Second)

	_, _, err = MintConnectionToken("dev-secret", "driver-7", "admin", time.Minute)
	assert.Error(t, err)

	_, _, err = MintConnectionToken("", "driver-7", "driver", time.Minute)
	assert.ErrorIs(t, err, jwt.ErrEmptySecret)
}

func TestTokenMintThenInspect(t *testing.T) {
	out, err := execute(t, nil, "token", "mint", "--identity", "rider-1", "--secret", "s3cret", "--ttl", "2m")
	require.NoError(t, err)
	require.Contains(t, out, "TOKEN:")
	assert.Contains(t, out, "sub:  rider-1")
	assert.Contains(t, out, "role: rider")

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	token := strings.TrimSpace(lines[1])

	out, err = execute(t, nil, "token", "inspect", token)
	require.NoError(t, err)
	assert.NotContains(t, out, "TOKEN:")
	assert.Contains(t, out, "sub:  rider-1")
}

func TestTokenMint_RequiresFlags(t *testing.T) {
	_, err := execute(t, nil, "token", "mint", "--identity", "rider-1")
	assert.Error(t, err)
}

func TestRunPassesFlags(t *testing.T) {
	var gotPath, gotRole string
	_, err := execute(t, func(_ context.Context, path, role string) error {
		gotPath, gotRole = path, role
		return nil
	}, "run", "--config", "/etc/rh.yaml", "--role", "driver")
	require.NoError(t, err)
	assert.Equal(t, "/etc/rh.yaml", gotPath)
	assert.Equal(t, "driver", gotRole)

	_, err = execute(t, func(_ context.Context, path, _ string) error {
		gotPath = path
		return nil
	}, "run")
	require.NoError(t, err)
	assert.Equal(t, "config/config.yaml", gotPath)
}

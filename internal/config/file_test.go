package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/casadocigano/fidelidade/internal/errors"
)

func TestGet(t *testing.T) {
	cfg := Default("/home/caixa/.fidelidade")

	tests := []struct {
		key  string
		want string
	}{
		{"api_base", DefaultAPIBase},
		{"timeout", "30s"},
		{"session.backend", "file"},
		{"session.dir", "/home/caixa/.fidelidade/session"},
		{"defaults.per_page", "10"},
		{"defaults.gift_name", "Brinde"},
		{"redis.db", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := cfg.Get(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetUnknownKey(t *testing.T) {
	_, err := Default("/tmp").Get("providers.default")
	var fe *errors.FidelidadeError
	require.True(t, stderrors.As(err, &fe))
	assert.Equal(t, errors.ErrCodeConfigKey, fe.Code)
}

func TestKeysSortedAndGettable(t *testing.T) {
	cfg := Default("/tmp")
	ks := Keys()
	require.Len(t, ks, len(keys))
	assert.IsNonDecreasing(t, ks)
	for _, k := range ks {
		_, err := cfg.Get(k)
		assert.NoError(t, err, k)
	}
}

func TestSetCreatesAndPreserves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	require.NoError(t, Set(path, "api_base", "http://loja:5000"))
	require.NoError(t, Set(path, "redis.db", "3"))
	require.NoError(t, Set(path, "timeout", "1m"))
	require.NoError(t, Set(path, "redis.addr", "cache:6379"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "http://loja:5000", doc["api_base"])
	assert.Equal(t, "1m0s", doc["timeout"])
	redis := doc["redis"].(map[string]any)
	assert.Equal(t, 3, redis["db"])
	assert.Equal(t, "cache:6379", redis["addr"])
}

func TestSetRoundTripsThroughLoad(t *testing.T) {
	home := isolate(t)
	require.NoError(t, Set(Path(home), "defaults.per_page", "20"))
	require.NoError(t, Set(Path(home), "timeout", "45s"))

	cfg, err := Load(home)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Defaults.PerPage)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
}

func TestSetRejects(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	tests := []struct {
		name  string
		key   string
		value string
		code  errors.ErrorCode
	}{
		{"unknown key", "budget.max", "1", errors.ErrCodeConfigKey},
		{"not an int", "redis.db", "zero", errors.ErrCodeConfigInvalid},
		{"not a duration", "timeout", "soon", errors.ErrCodeConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Set(path, tt.key, tt.value)
			var fe *errors.FidelidadeError
			require.True(t, stderrors.As(err, &fe))
			assert.Equal(t, tt.code, fe.Code)
		})
	}

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "rejected writes leave no file behind")
}

func TestSetCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	writeFile(t, path, ":\n- [")

	err := Set(path, "api_base", "http://x:1")
	require.Error(t, err)
}

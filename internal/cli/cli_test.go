package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"B3Sentinel/internal/portfolio"
)

func TestParseCash(t *testing.T) {
	tests := []struct {
		in        string
		allowZero bool
		want      float64
		wantErr   bool
	}{
		{"1500", false, 1500, false},
		{"1.500,50", false, 1500.50, false},
		{"R$ 250,00", false, 250, false},
		{"0", true, 0, false},
		{"0", false, 0, true},
		{"-10", true, 0, true},
		{"abc", false, 0, true},
		{"NaN", false, 0, true},
		{"nan", true, 0, true},
		{"Inf", false, 0, true},
		{"-Inf", true, 0, true},
		{"", true, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCash(tt.in, tt.allowZero)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCash)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "b3sentinel test\n", out)
}

func TestScreen_Offline(t *testing.T) {
	out, err := run(t, "--offline", "screen", "--cash", "5000")
	require.NoError(t, err)
	assert.Contains(t, out, "Triagem")
	assert.Contains(t, out, "R$ 5000.00")
}

func TestScreen_InvalidCash(t *testing.T) {
	for _, cash := range []string{"muito", "NaN", "Inf"} {
		_, err := run(t, "--offline", "screen", "--cash", cash)
		assert.ErrorIs(t, err, ErrInvalidCash, cash)
	}
}

func TestScreen_OfflineBasket(t *testing.T) {
	out, err := run(t, "--offline", "screen", "--basket", "--cash", "5000")
	require.NoError(t, err)
	assert.Contains(t, out, "Cesta de compra")
}

func TestRebalance_Offline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carteira.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"MXRF11": 10, "petr4": 5}`), 0644))

	out, err := run(t, "--offline", "rebalance", "--portfolio", path, "--cash", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Diagnóstico de alocação")
	assert.Contains(t, out, "RENDA")
}

func TestRebalance_MissingPortfolio(t *testing.T) {
	_, err := run(t, "--offline", "rebalance", "--portfolio", filepath.Join(t.TempDir(), "nope.json"), "--cash", "0")
	assert.ErrorIs(t, err, portfolio.ErrNotFound)
}

func TestInvalidConfigFailsBeforeRunning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("allocation:\n  income_target: 0.9\n  growth_target: 0.3\n"), 0644))

	cmd := NewRootCmd("test")
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "--offline", "screen", "--cash", "100"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1.0")
}

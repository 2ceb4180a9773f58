//go:build !integration

package main

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFilterFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("filter", pflag.ContinueOnError)
	addFilterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestFilterFromFlags(t *testing.T) {
	fs := parseFilterFlags(t,
		"--type", "startup",
		"--sector", "Health",
		"--capability", "NLP",
		"--city", "stockholm",
		"--min-quality", "40",
		"--relevant",
		"--limit", "10",
	)

	f, err := filterFromFlags(fs)
	require.NoError(t, err)
	assert.Equal(t, "startup", f.Type)
	assert.Equal(t, "Health", f.Sector)
	assert.Empty(t, f.Domain)
	assert.Equal(t, "NLP", f.Capability)
	assert.Equal(t, "stockholm", f.City)
	assert.Equal(t, 40, f.MinQuality)
	assert.True(t, f.OnlyRelevant)
	assert.Equal(t, 10, f.Limit)
	assert.Nil(t, f.GreaterStockholm, "greater stockholm is inactive unless given")
}

func TestFilterFromFlags_GreaterStockholm(t *testing.T) {
	f, err := filterFromFlags(parseFilterFlags(t, "--greater-stockholm=false"))
	require.NoError(t, err)
	require.NotNil(t, f.GreaterStockholm)
	assert.False(t, *f.GreaterStockholm)

	f, err = filterFromFlags(parseFilterFlags(t, "--greater-stockholm"))
	require.NoError(t, err)
	require.NotNil(t, f.GreaterStockholm)
	assert.True(t, *f.GreaterStockholm)
}

func TestFilterFromFlags_QualityOutOfRange(t *testing.T) {
	for _, v := range []string{"-1", "101"} {
		t.Run(v, func(t *testing.T) {
			_, err := filterFromFlags(parseFilterFlags(t, "--min-quality="+v))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "--min-quality")
		})
	}
}

func TestFilterFromFlags_Unregistered(t *testing.T) {
	_, err := filterFromFlags(pflag.NewFlagSet("empty", pflag.ContinueOnError))
	require.Error(t, err)
}

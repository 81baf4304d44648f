package config

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitsViper(t *testing.T, yml string) *viper.Viper {
	t.Helper()

	v := viper.New()
	v.SetConfigType("yml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yml)))
	return v
}

func TestLimitsHolderLoad(t *testing.T) {
	holder := &LimitsHolder{}
	v := limitsViper(t, "limits:\n  dailyCeiling: \"1500.00\"\n")

	require.NoError(t, holder.load(v))
	assert.True(t, holder.DailyCeiling().Equal(decimal.RequireFromString("1500.00")))
}

func TestLimitsHolderLoadFallsBackToDefault(t *testing.T) {
	holder := &LimitsHolder{}
	v := limitsViper(t, "limits:\n  dailyCeiling: \"\"\n")

	require.NoError(t, holder.load(v))
	assert.True(t, holder.DailyCeiling().Equal(decimal.RequireFromString("2000.00")))
}

func TestLimitsHolderRejectsGarbage(t *testing.T) {
	holder := &LimitsHolder{}
	require.NoError(t, holder.load(limitsViper(t, "limits:\n  dailyCeiling: \"900.00\"\n")))

	// A bad reload keeps the previous ceiling in place.
	err := holder.load(limitsViper(t, "limits:\n  dailyCeiling: \"a lot\"\n"))
	require.Error(t, err)
	assert.True(t, holder.DailyCeiling().Equal(decimal.RequireFromString("900.00")))
}

func TestDailyCeilingDefaultWhenUnset(t *testing.T) {
	holder := &LimitsHolder{}
	assert.True(t, holder.DailyCeiling().Equal(decimal.RequireFromString("2000.00")))
}

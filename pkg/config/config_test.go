package config_test

import (
	"testing"

	"github.com/gambit-chess/engine/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAllProfiles(t *testing.T) {
	for _, name := range config.Names() {
		cfg, err := config.Load(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, cfg.RulesetType)
		assert.Greater(t, cfg.InitialBattlePoints, 0)
		assert.True(t, cfg.Regeneration.PerTactic["check"].Enabled)
	}
}

func TestStandardProfileTieBreak(t *testing.T) {
	cfg := config.MustLoad("standard")
	assert.True(t, cfg.DuelResolution.DefenderWinsTies)
}

func TestAttackerTiesProfileFlipsTieBreak(t *testing.T) {
	cfg := config.MustLoad("attacker-ties")
	assert.False(t, cfg.DuelResolution.DefenderWinsTies)
}

func TestUnknownProfile(t *testing.T) {
	_, err := config.Load("does-not-exist")
	assert.Error(t, err)
}

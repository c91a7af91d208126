package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_NAME", "kirana")
	t.Setenv("STORE_PREFIX", "")
	t.Setenv("ORDER_TRANSITION_POLICY", "")
	t.Setenv("SERVICE_FEE", "")

	cfg := LoadConfig()

	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "postgres", cfg.DBUser)
	assert.Equal(t, "GKS", cfg.StorePrefix, "store prefix should default")
	assert.Equal(t, "lenient", cfg.TransitionPolicy, "transition policy should default")
	assert.Equal(t, float64(5), cfg.ServiceFee)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("STORE_PREFIX", "XYZ")
	t.Setenv("ORDER_TRANSITION_POLICY", "strict")
	t.Setenv("SERVICE_FEE", "7.5")
	t.Setenv("DELIVERY_FEE", "not-a-number")

	cfg := LoadConfig()

	assert.Equal(t, "XYZ", cfg.StorePrefix)
	assert.Equal(t, "strict", cfg.TransitionPolicy)
	assert.Equal(t, 7.5, cfg.ServiceFee)
	assert.Equal(t, float64(10), cfg.DeliveryFee, "invalid float should fall back")
}

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsAndEnvOverride(t *testing.T) {
	t.Setenv("APP_CONFIG_NAME", "does-not-exist")
	t.Setenv("APP_GATEWAY_TERMINAL_ID", "134754")
	t.Setenv("APP_SERVER_PORT", "9000")

	c, err := New()
	require.NoError(t, err)
	require.Equal(t, EnvDev, c.Env)
	require.Equal(t, 9000, c.Server.Port)
	require.Equal(t, "134754", c.Gateway.TerminalID)
	require.EqualValues(t, 10, c.Gateway.AmountMultiplier)
	require.Equal(t, "payment.reconciled", c.Kafka.Topic)
	require.Positive(t, c.Gateway.VerifyTimeout)
}

func TestValidate_ProdRequiresGatewaySettings(t *testing.T) {
	c := &Config{Env: EnvProd, Gateway: GatewayConfig{AmountMultiplier: 10}}
	require.Error(t, c.Validate())

	c.Gateway.TerminalID = "1"
	c.Gateway.CallbackURL = "https://shop.example/api/v1/payment/callback"
	c.Frontend.CallbackURL = "https://shop.example/payment/result"
	c.JWT.Secret = "s"
	require.NoError(t, c.Validate())

	c.Gateway.AmountMultiplier = 0
	require.Error(t, c.Validate())
}

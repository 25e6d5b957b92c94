package config_test

import (
	"testing"

	"github.com/Amund211/conduction/internal/config"
	"github.com/stretchr/testify/require"
)

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

var allVariablesExceptEnv = []string{"SENTRY_DSN", "OTEL_EXPORTER_OTLP_ENDPOINT"}

func TestGetConfig(t *testing.T) {
	compareConfig := func(sentryDSN, oTelEndpoint string, env environment, conf config.Config) {
		t.Helper()
		require.Equal(t, sentryDSN, conf.SentryDSN())
		require.Equal(t, oTelEndpoint, conf.OTelEndpoint())
		require.Equal(t, env == production, conf.IsProduction())
		require.Equal(t, env == staging, conf.IsStaging())
		require.Equal(t, env == development, conf.IsDevelopment())
	}

	t.Run("ensure base environment is clean", func(t *testing.T) {
		t.Run("environment is missing", func(t *testing.T) {
			// CONDUCTION_ENVIRONMENT is required, so this should fail
			_, err := config.ConfigFromEnv()
			require.ErrorIs(t, err, config.ErrMissingRequiredValue)
		})

		t.Run("development environment should be empty", func(t *testing.T) {
			t.Setenv("CONDUCTION_ENVIRONMENT", "development")

			conf, err := config.ConfigFromEnv()
			require.NoError(t, err)
			compareConfig("", "", development, conf)
		})
	})

	t.Run("values are read correctly", func(t *testing.T) {
		for _, variable := range allVariablesExceptEnv {
			t.Setenv(variable, variable)
		}

		for _, env := range []environment{production, staging, development} {
			t.Run(string(env), func(t *testing.T) {
				t.Setenv("CONDUCTION_ENVIRONMENT", string(env))

				conf, err := config.ConfigFromEnv()
				require.NoError(t, err)
				compareConfig("SENTRY_DSN", "OTEL_EXPORTER_OTLP_ENDPOINT", env, conf)
			})
		}
	})

	t.Run("production and staging fail when missing sentry dsn", func(t *testing.T) {
		for _, variable := range allVariablesExceptEnv {
			t.Setenv(variable, "placeholder_value")
		}

		for _, env := range []environment{production, staging} {
			t.Run(string(env), func(t *testing.T) {
				t.Setenv("CONDUCTION_ENVIRONMENT", string(env))
				t.Setenv("SENTRY_DSN", "")

				_, err := config.ConfigFromEnv()
				require.ErrorIs(t, err, config.ErrMissingRequiredValue)
			})
		}
	})

	t.Run("otel endpoint is optional everywhere", func(t *testing.T) {
		t.Setenv("SENTRY_DSN", "placeholder_value")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

		for _, env := range []environment{production, staging, development} {
			t.Run(string(env), func(t *testing.T) {
				t.Setenv("CONDUCTION_ENVIRONMENT", string(env))

				conf, err := config.ConfigFromEnv()
				require.NoError(t, err)
				require.Empty(t, conf.OTelEndpoint())
			})
		}
	})

	t.Run("invalid environment", func(t *testing.T) {
		for _, env := range []string{"", "invalid", "my-env"} {
			t.Run(env, func(t *testing.T) {
				t.Setenv("CONDUCTION_ENVIRONMENT", env)
				_, err := config.ConfigFromEnv()
				require.ErrorIs(t, err, config.ErrInvalidValue)
			})
		}
	})
}

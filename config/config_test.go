package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYaml = `
global:
  bindPort: "9000"
  fullDomainUrl: "https://course.example.com/"
  allowedOrigins:
    - "https://course.example.com/"
    - " http://localhost:5173 "
fusionAuth:
  host: "http://fusionauth:9011/"
  apiKey: "fa-key"
  appId: "app-1"
stripe:
  secretKey: "sk_test_123\n"
  webhookSecret: " whsec_abc\n"
  product:
    unitAmount: 4900
postgres:
  url: "postgres://u:p@db:5432/course"
observer:
  maxAttempts: 4
  interval: 250ms
`

func TestParseAndDefaults(t *testing.T) {
	conf, err := Parse([]byte(sampleYaml))
	require.NoError(t, err)

	conf.ApplyDefaults()
	conf.Trim()
	require.NoError(t, conf.Validate())

	assert.Equal(t, "9000", conf.Global.BindPort)
	assert.Equal(t, "https://course.example.com", conf.Global.FullDomainURL)
	assert.Equal(t, []string{"https://course.example.com", "http://localhost:5173"}, conf.Global.AllowedOrigins)
	assert.Equal(t, "http://fusionauth:9011", conf.FusionAuth.Host)
	assert.Equal(t, "http://fusionauth:9011", conf.FusionAuth.PublicHost)
	assert.Equal(t, "sk_test_123", conf.Stripe.SecretKey)
	assert.Equal(t, "whsec_abc", conf.Stripe.WebhookSecret)
	assert.Equal(t, int64(4900), conf.Stripe.Product.UnitAmount)
	assert.Equal(t, DefaultProductName, conf.Stripe.Product.Name)
	assert.Equal(t, DefaultCurrency, conf.Stripe.Product.Currency)
	assert.Equal(t, "payment", conf.Stripe.Mode)
	assert.Equal(t, 4, conf.Observer.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, conf.Observer.Interval)
	assert.Equal(t, 1, conf.Course.FreeWeeks)
	assert.Equal(t, "/syllabus", conf.Course.PostPaymentURL)
	assert.Equal(t, "https://course.example.com/auth/oauth-cb", conf.OauthRedirectURL())
}

func TestApplyEnvOverridesAndTrims(t *testing.T) {
	conf, err := Parse([]byte(sampleYaml))
	require.NoError(t, err)

	v := viper.New()
	v.Set(EnvStripeSecretKey, "sk_live_override\r\n")
	v.Set(EnvDatabaseURL, "postgres://other")
	conf.ApplyEnv(v)
	conf.ApplyDefaults()
	conf.Trim()

	assert.Equal(t, "sk_live_override", conf.Stripe.SecretKey)
	assert.Equal(t, "postgres://other", conf.Postgres.URL)
	assert.Equal(t, "whsec_abc", conf.Stripe.WebhookSecret, "unset env keeps the file value")
}

func TestValidateReportsAllMissing(t *testing.T) {
	conf := Config{}
	conf.ApplyDefaults()
	err := conf.Validate()
	require.Error(t, err)
	for _, name := range []string{EnvStripeSecretKey, EnvStripeWebhookSecret, EnvFusionAuthHost, EnvFusionAuthAPIKey, EnvDatabaseURL} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	conf, err := Parse([]byte(sampleYaml))
	require.NoError(t, err)
	conf.ApplyDefaults()
	conf.Stripe.Mode = "setup"
	assert.Error(t, conf.Validate())
}

func TestLoadConfigYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, ioutil.WriteFile(path, []byte(sampleYaml), 0600))

	t.Setenv(EnvStripeWebhookSecret, "whsec_from_env\n")
	conf, err := LoadConfigYaml(path)
	require.NoError(t, err)
	assert.Equal(t, "whsec_from_env", conf.Stripe.WebhookSecret)

	_, err = LoadConfigYaml(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestOriginAllowed(t *testing.T) {
	conf := Config{}
	assert.True(t, conf.OriginAllowed("https://anything.example"))

	conf.Global.AllowedOrigins = []string{"https://course.example.com"}
	assert.True(t, conf.OriginAllowed("https://course.example.com"))
	assert.True(t, conf.OriginAllowed("https://course.example.com/"))
	assert.False(t, conf.OriginAllowed("https://evil.example.com"))
}

func TestNormalizeOrigin(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "https://example.com", want: "https://example.com", ok: true},
		{in: "https://example.com/", want: "https://example.com", ok: true},
		{in: "http://localhost:5173", want: "http://localhost:5173", ok: true},
		{in: "example.com"},
		{in: "ftp://example.com"},
		{in: "https://example.com/payment"},
		{in: "https://example.com?x=1"},
		{in: ""},
	}

	for _, tt := range tests {
		got, err := NormalizeOrigin(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

package config

import (
	"fmt"
	"io/ioutil"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	DefaultProductName        = "AI Course Pro Access"
	DefaultProductDescription = "Lifetime access to all 10 weeks of content, projects, and expert sessions."
	DefaultUnitAmount         = 1900
	DefaultCurrency           = "usd"
	DefaultCheckoutMode       = "payment"
)

// environment variables that override values from the yaml file
const (
	EnvStripeSecretKey        = "STRIPE_SECRET_KEY"
	EnvStripeWebhookSecret    = "STRIPE_WEBHOOK_SECRET"
	EnvFusionAuthHost         = "FUSIONAUTH_HOST"
	EnvFusionAuthAPIKey       = "FUSIONAUTH_API_KEY"
	EnvFusionAuthClientSecret = "FUSIONAUTH_CLIENT_SECRET"
	EnvDatabaseURL            = "DATABASE_URL"
	EnvBindAddr               = "BIND_ADDR"
	EnvBindPort               = "BIND_PORT"
)

type Global struct {
	BindAddr       string   `yaml:"bindAddr"`
	BindPort       string   `yaml:"bindPort"`
	FullDomainURL  string   `yaml:"fullDomainUrl"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type FusionAuth struct {
	Host                    string `yaml:"host"`
	PublicHost              string `yaml:"publicHost"`
	APIKey                  string `yaml:"apiKey"`
	AppID                   string `yaml:"appId"`
	TenantID                string `yaml:"tenantId"`
	OauthClientID           string `yaml:"oauthClientId"`
	OauthClientSecret       string `yaml:"oauthClientSecret"`
	AuthCallbackRedirectURL string `yaml:"authCallbackRedirectUrl"`
}

// Product is the single item sold through checkout. The price lives here
// rather than in code because it has changed between releases.
type Product struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	UnitAmount  int64  `yaml:"unitAmount"`
	Currency    string `yaml:"currency"`
}

type Stripe struct {
	SecretKey     string  `yaml:"secretKey"`
	WebhookSecret string  `yaml:"webhookSecret"`
	Mode          string  `yaml:"mode"`
	Product       Product `yaml:"product"`
}

type Postgres struct {
	URL string `yaml:"url"`
}

type JWT struct {
	CookieName          string `yaml:"cookieName"`
	RefreshCookieName   string `yaml:"refreshCookieName"`
	CookieMaxAgeSeconds int    `yaml:"cookieMaxAgeSeconds"`
	CookieDomain        string `yaml:"cookieDomain"`
	CookieSetSecure     bool   `yaml:"cookieSetSecure"`
}

// Observer bounds how long the payment result page waits for the
// entitlement to show up in a refreshed session.
type Observer struct {
	MaxAttempts int           `yaml:"maxAttempts"`
	Interval    time.Duration `yaml:"interval"`
}

type Course struct {
	FreeWeeks        int    `yaml:"freeWeeks"`
	HomeURL          string `yaml:"homeUrl"`
	PostPaymentURL   string `yaml:"postPaymentUrl"`
	PricingURL       string `yaml:"pricingUrl"`
	WebhookBodyLimit int64  `yaml:"webhookBodyLimit"`
}

type Config struct {
	Global     Global     `yaml:"global"`
	FusionAuth FusionAuth `yaml:"fusionAuth"`
	Stripe     Stripe     `yaml:"stripe"`
	Postgres   Postgres   `yaml:"postgres"`
	JWT        JWT        `yaml:"jwt"`
	Observer   Observer   `yaml:"observer"`
	Course     Course     `yaml:"course"`
}

// LoadConfigYaml reads the yaml file at path, then applies environment
// overrides and defaults. An empty path skips the file entirely.
func LoadConfigYaml(path string) (Config, error) {
	conf := Config{}
	if path != "" {
		b, err := ioutil.ReadFile(path)
		if err != nil {
			return conf, fmt.Errorf("failed to read config file %v: %w", path, err)
		}
		conf, err = Parse(b)
		if err != nil {
			return conf, err
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	conf.ApplyEnv(v)
	conf.ApplyDefaults()
	conf.Trim()

	return conf, conf.Validate()
}

// Parse unmarshals raw yaml without applying env overrides or defaults.
func Parse(b []byte) (Config, error) {
	conf := Config{}
	err := yaml.Unmarshal(b, &conf)
	if err != nil {
		return conf, fmt.Errorf("failed to parse config yaml: %w", err)
	}
	return conf, nil
}

// ApplyEnv overwrites secrets and bind settings with any non-empty values
// found through v.
func (c *Config) ApplyEnv(v *viper.Viper) {
	set := func(dst *string, key string) {
		if val := v.GetString(key); val != "" {
			*dst = val
		}
	}
	set(&c.Stripe.SecretKey, EnvStripeSecretKey)
	set(&c.Stripe.WebhookSecret, EnvStripeWebhookSecret)
	set(&c.FusionAuth.Host, EnvFusionAuthHost)
	set(&c.FusionAuth.APIKey, EnvFusionAuthAPIKey)
	set(&c.FusionAuth.OauthClientSecret, EnvFusionAuthClientSecret)
	set(&c.Postgres.URL, EnvDatabaseURL)
	set(&c.Global.BindAddr, EnvBindAddr)
	set(&c.Global.BindPort, EnvBindPort)
}

func (c *Config) ApplyDefaults() {
	if c.Global.BindPort == "" {
		c.Global.BindPort = "8080"
	}
	if c.FusionAuth.PublicHost == "" {
		c.FusionAuth.PublicHost = c.FusionAuth.Host
	}
	if c.Stripe.Mode == "" {
		c.Stripe.Mode = DefaultCheckoutMode
	}
	p := &c.Stripe.Product
	if p.Name == "" {
		p.Name = DefaultProductName
	}
	if p.Description == "" {
		p.Description = DefaultProductDescription
	}
	if p.UnitAmount == 0 {
		p.UnitAmount = DefaultUnitAmount
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	if c.JWT.CookieName == "" {
		c.JWT.CookieName = "course_jwt"
	}
	if c.JWT.RefreshCookieName == "" {
		c.JWT.RefreshCookieName = "course_refresh"
	}
	if c.JWT.CookieMaxAgeSeconds == 0 {
		c.JWT.CookieMaxAgeSeconds = 60 * 60 * 24 * 30
	}
	if c.Observer.MaxAttempts == 0 {
		c.Observer.MaxAttempts = 10
	}
	if c.Observer.Interval == 0 {
		c.Observer.Interval = time.Second
	}
	if c.Course.FreeWeeks == 0 {
		c.Course.FreeWeeks = 1
	}
	if c.Course.HomeURL == "" {
		c.Course.HomeURL = "/"
	}
	if c.Course.PostPaymentURL == "" {
		c.Course.PostPaymentURL = "/syllabus"
	}
	if c.Course.PricingURL == "" {
		c.Course.PricingURL = "/#pricing"
	}
	if c.Course.WebhookBodyLimit == 0 {
		c.Course.WebhookBodyLimit = 64 * 1024
	}
	if c.FusionAuth.AuthCallbackRedirectURL == "" {
		c.FusionAuth.AuthCallbackRedirectURL = "/"
	}
}

// Trim strips whitespace that deployment tooling tends to leave around
// secrets and hosts, most often a trailing newline.
func (c *Config) Trim() {
	for _, s := range []*string{
		&c.Stripe.SecretKey,
		&c.Stripe.WebhookSecret,
		&c.FusionAuth.Host,
		&c.FusionAuth.PublicHost,
		&c.FusionAuth.APIKey,
		&c.FusionAuth.AppID,
		&c.FusionAuth.TenantID,
		&c.FusionAuth.OauthClientID,
		&c.FusionAuth.OauthClientSecret,
		&c.Postgres.URL,
		&c.Global.FullDomainURL,
	} {
		*s = strings.TrimSpace(*s)
	}
	c.FusionAuth.Host = strings.TrimRight(c.FusionAuth.Host, "/")
	c.FusionAuth.PublicHost = strings.TrimRight(c.FusionAuth.PublicHost, "/")
	c.Global.FullDomainURL = strings.TrimRight(c.Global.FullDomainURL, "/")
	for i, o := range c.Global.AllowedOrigins {
		c.Global.AllowedOrigins[i] = strings.TrimRight(strings.TrimSpace(o), "/")
	}
}

// Validate reports every required value that is missing, not just the
// first one.
func (c Config) Validate() error {
	missing := []string{}
	if c.Stripe.SecretKey == "" {
		missing = append(missing, EnvStripeSecretKey)
	}
	if c.Stripe.WebhookSecret == "" {
		missing = append(missing, EnvStripeWebhookSecret)
	}
	if c.FusionAuth.Host == "" {
		missing = append(missing, EnvFusionAuthHost)
	}
	if c.FusionAuth.APIKey == "" {
		missing = append(missing, EnvFusionAuthAPIKey)
	}
	if c.Postgres.URL == "" {
		missing = append(missing, EnvDatabaseURL)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config values: %v", strings.Join(missing, ", "))
	}
	if c.Stripe.Mode != "payment" && c.Stripe.Mode != "subscription" {
		return fmt.Errorf("stripe mode must be payment or subscription, got %q", c.Stripe.Mode)
	}
	if c.Stripe.Product.UnitAmount < 0 {
		return fmt.Errorf("stripe product unit amount must not be negative")
	}
	return nil
}

// OauthRedirectURL is where the identity provider sends the browser after
// login.
func (c Config) OauthRedirectURL() string {
	return fmt.Sprintf("%v/auth/oauth-cb", c.Global.FullDomainURL)
}

// OriginAllowed reports whether origin may be embedded in a checkout
// redirect. An empty allow list accepts any well formed origin.
func (c Config) OriginAllowed(origin string) bool {
	if len(c.Global.AllowedOrigins) == 0 {
		return true
	}
	origin = strings.TrimRight(origin, "/")
	for _, o := range c.Global.AllowedOrigins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// NormalizeOrigin checks that origin is a bare http(s) base URL and returns
// it without a trailing slash.
func NormalizeOrigin(origin string) (string, error) {
	origin = strings.TrimSpace(origin)
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("invalid origin %q: %w", origin, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid origin %q: scheme must be http or https", origin)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid origin %q: missing host", origin)
	}
	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return "", fmt.Errorf("invalid origin %q: must not carry a path, query or credentials", origin)
	}
	return u.Scheme + "://" + u.Host, nil
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values come from env (or a .env file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App     AppConfig
	Storage StorageConfig
	Redis   RedisConfig
	Webhook WebhookConfig
	Listing ListingConfig
	Auth    AuthConfig
}

type AppConfig struct {
	Env      string
	Port     int
	LogLevel string
}

// StorageConfig is the relational store. Both URL and Key are required for
// the call endpoints; their absence is reported by Validate on the storage
// section alone so the process can still start and answer 500.
type StorageConfig struct {
	// URL is a postgres:// URL without a password.
	URL string
	// Key is the privileged role's password.
	Key string

	ConnectTimeout time.Duration
	AutoMigrate    bool
}

// RedisConfig is optional; an empty Host disables the listing cache.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	CacheTTL time.Duration
}

type WebhookConfig struct {
	// SigningSecret enables HMAC signature verification when non-empty.
	SigningSecret      string
	SignatureTolerance time.Duration
	UpsertPolicy       string
	MaxBodyBytes       int64
}

type ListingConfig struct {
	// RateLimit is requests per second for listing endpoints; 0 disables it.
	RateLimit float64
	RateBurst int
}

// AuthConfig protects the read endpoints when JWTSecret is set.
type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	TokenTTL    time.Duration
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.LogLevel = strings.TrimSpace(os.Getenv("LOG_LEVEL"))

	c.Storage = StorageFromEnv()

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	if c.Redis.Host != "" {
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")
	c.Redis.CacheTTL = mustDuration("LISTING_CACHE_TTL")

	c.Webhook.SigningSecret = os.Getenv("WEBHOOK_SIGNING_SECRET")
	c.Webhook.SignatureTolerance = mustDuration("WEBHOOK_SIGNATURE_TOLERANCE")
	c.Webhook.UpsertPolicy = strings.TrimSpace(os.Getenv("WEBHOOK_UPSERT_POLICY"))
	{
		n, err := optInt64("WEBHOOK_MAX_BODY_BYTES")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Webhook.MaxBodyBytes = n
	}

	{
		f, err := optFloat("LISTING_RATE_LIMIT")
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Listing.RateLimit = f
		n, err := optInt64("LISTING_RATE_BURST")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Listing.RateBurst = int(n)
	}

	c.Auth = AuthFromEnv()

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	c.applyDefaults()
	return c, nil
}

// StorageFromEnv reads only the storage section, with defaults applied.
// Tools that talk to the database without serving HTTP use it directly.
func StorageFromEnv() StorageConfig {
	s := StorageConfig{
		URL:            strings.TrimSpace(os.Getenv("STORAGE_URL")),
		Key:            os.Getenv("STORAGE_KEY"),
		ConnectTimeout: mustDuration("STORAGE_CONNECT_TIMEOUT"),
		AutoMigrate:    optBool("STORAGE_AUTO_MIGRATE"),
	}
	if s.ConnectTimeout <= 0 {
		s.ConnectTimeout = 30 * time.Second
	}
	return s
}

// AuthFromEnv reads only the auth section, with defaults applied.
func AuthFromEnv() AuthConfig {
	a := AuthConfig{
		JWTSecret:   os.Getenv("LISTING_JWT_SECRET"),
		JWTIssuer:   strings.TrimSpace(os.Getenv("JWT_ISSUER")),
		JWTAudience: strings.TrimSpace(os.Getenv("JWT_AUDIENCE")),
		TokenTTL:    mustDuration("JWT_TOKEN_TTL"),
	}
	if a.TokenTTL <= 0 {
		a.TokenTTL = 24 * time.Hour
	}
	return a
}

// Validate checks everything the process needs to start.
// Storage is checked separately by Storage.Validate.
func (c Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.Redis.Host != "" && (c.Redis.Port <= 0 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	switch c.Webhook.UpsertPolicy {
	case "", "replace", "merge":
	default:
		errs = append(errs, fmt.Errorf("WEBHOOK_UPSERT_POLICY must be one of replace, merge, got %q", c.Webhook.UpsertPolicy))
	}
	if c.Webhook.MaxBodyBytes < 0 {
		errs = append(errs, errors.New("WEBHOOK_MAX_BODY_BYTES must not be negative"))
	}

	if c.Listing.RateLimit < 0 {
		errs = append(errs, errors.New("LISTING_RATE_LIMIT must not be negative"))
	}
	if c.Listing.RateBurst < 0 {
		errs = append(errs, errors.New("LISTING_RATE_BURST must not be negative"))
	}

	if c.IsProduction() && c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("LISTING_JWT_SECRET must be at least 32 bytes in production"))
	}

	return joinErrors(errs)
}

func (c *Config) applyDefaults() {
	if c.Redis.CacheTTL <= 0 {
		c.Redis.CacheTTL = 30 * time.Second
	}
	if c.Webhook.SignatureTolerance <= 0 {
		c.Webhook.SignatureTolerance = 5 * time.Minute
	}
	if c.Webhook.UpsertPolicy == "" {
		c.Webhook.UpsertPolicy = "replace"
	}
	if c.Webhook.MaxBodyBytes == 0 {
		c.Webhook.MaxBodyBytes = 5 << 20
	}
	if c.Listing.RateLimit > 0 && c.Listing.RateBurst == 0 {
		c.Listing.RateBurst = int(c.Listing.RateLimit) + 1
	}
}

// Validate reports whether the storage endpoint and access key are usable.
func (s StorageConfig) Validate() error {
	var errs []error
	if s.URL == "" {
		errs = append(errs, errors.New("STORAGE_URL is required"))
	} else if u, err := url.Parse(s.URL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") || u.Host == "" {
		errs = append(errs, fmt.Errorf("STORAGE_URL must be a postgres:// URL"))
	}
	if s.Key == "" {
		errs = append(errs, errors.New("STORAGE_KEY is required"))
	}
	return joinErrors(errs)
}

// DSN combines the storage URL and key.
// Avoid logging this string; it contains secrets.
func (s StorageConfig) DSN() (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return "", err
	}
	user := "postgres"
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, s.Key)
	return u.String(), nil
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optInt64(key string) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optFloat(key string) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, v)
	}
	return f, nil
}

func optBool(key string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return b
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr[T any](errs []error, n T, err error) (T, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Config represents the configuration of the metadata resolution engine.
type Config struct {
	LogLevel string          `yaml:"logLevel"`
	Resolver *ResolverConfig `yaml:"resolver"`
}

// ResolverConfig controls gateway selection, per-attempt deadlines and the
// lifetime of cached resolutions.
type ResolverConfig struct {
	// PrimaryGateway is the preferred content gateway base; it is always the
	// first candidate tried for a bare content identifier.
	PrimaryGateway string `yaml:"primaryGateway"`
	// ExtraGateways are public mirrors appended after the primary, in order.
	ExtraGateways []string `yaml:"extraGateways"`
	// ArweaveGateway serves ar:// references over https.
	ArweaveGateway string `yaml:"arweaveGateway"`

	RequestTimeoutMs int   `yaml:"requestTimeoutMs"`
	CacheTtlMs       int   `yaml:"cacheTtlMs"`
	CacheMaxEntries  int64 `yaml:"cacheMaxEntries"`

	Failsafe *FailsafeConfig `yaml:"failsafe"`
}

type FailsafeConfig struct {
	Retry   *RetryPolicyConfig   `yaml:"retry"`
	Timeout *TimeoutPolicyConfig `yaml:"timeout"`
}

type RetryPolicyConfig struct {
	MaxAttempts     int     `yaml:"maxAttempts"`
	Delay           string  `yaml:"delay"`
	BackoffMaxDelay string  `yaml:"backoffMaxDelay"`
	BackoffFactor   float64 `yaml:"backoffFactor"`
	Jitter          string  `yaml:"jitter"`
}

type TimeoutPolicyConfig struct {
	Duration string `yaml:"duration"`
}

const (
	DefaultPrimaryGateway = "https://ipfs.io/ipfs/"
	DefaultArweaveGateway = "https://arweave.net/"

	DefaultRequestTimeoutMs = 5000
	DefaultCacheTtlMs       = 300_000
	DefaultCacheMaxEntries  = 4096
)

// DefaultExtraGateways are well-known public mirrors tried after the primary
// gateway, in fixed preference order.
var DefaultExtraGateways = []string{
	"https://cloudflare-ipfs.com/ipfs/",
	"https://gateway.pinata.cloud/ipfs/",
	"https://dweb.link/ipfs/",
	"https://w3s.link/ipfs/",
}

// LoadConfig loads the configuration from the specified file and applies
// defaults plus environment overrides.
func LoadConfig(fs afero.Fs, filename string) (*Config, error) {
	data, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, err
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	cfg.SetDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// NewDefaultConfig returns a config usable without any file on disk.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.Resolver == nil {
		c.Resolver = &ResolverConfig{}
	}
	c.Resolver.SetDefaults()
}

func (r *ResolverConfig) SetDefaults() {
	if r.PrimaryGateway == "" {
		r.PrimaryGateway = DefaultPrimaryGateway
	}
	if len(r.ExtraGateways) == 0 {
		r.ExtraGateways = append([]string{}, DefaultExtraGateways...)
	}
	if r.ArweaveGateway == "" {
		r.ArweaveGateway = DefaultArweaveGateway
	}
	if r.RequestTimeoutMs <= 0 {
		r.RequestTimeoutMs = DefaultRequestTimeoutMs
	}
	if r.CacheTtlMs <= 0 {
		r.CacheTtlMs = DefaultCacheTtlMs
	}
	if r.CacheMaxEntries <= 0 {
		r.CacheMaxEntries = DefaultCacheMaxEntries
	}
	if r.Failsafe == nil {
		r.Failsafe = &FailsafeConfig{
			Timeout: &TimeoutPolicyConfig{
				Duration: (time.Duration(r.RequestTimeoutMs) * time.Millisecond).String(),
			},
		}
	}
}

func (c *Config) Validate() error {
	r := c.Resolver
	if !strings.HasPrefix(r.PrimaryGateway, "http://") && !strings.HasPrefix(r.PrimaryGateway, "https://") {
		return fmt.Errorf("resolver.primaryGateway must be an http(s) base url, got %q", r.PrimaryGateway)
	}
	for _, g := range r.ExtraGateways {
		if !strings.HasPrefix(g, "http://") && !strings.HasPrefix(g, "https://") {
			return fmt.Errorf("resolver.extraGateways entry must be an http(s) base url, got %q", g)
		}
	}
	return nil
}

// Recognized environment overrides for the handful of options callers tune
// in deployments without shipping a config file.
func (c *Config) applyEnvOverrides() {
	r := c.Resolver
	if v := os.Getenv("METARESOLVE_PRIMARY_GATEWAY"); v != "" {
		r.PrimaryGateway = v
	}
	if v := os.Getenv("METARESOLVE_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			r.RequestTimeoutMs = ms
		}
	}
	if v := os.Getenv("METARESOLVE_CACHE_TTL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			r.CacheTtlMs = ms
		}
	}
}

// RequestTimeout returns the per-attempt deadline as a duration.
func (r *ResolverConfig) RequestTimeout() time.Duration {
	return time.Duration(r.RequestTimeoutMs) * time.Millisecond
}

// CacheTtl returns the cache entry lifetime as a duration.
func (r *ResolverConfig) CacheTtl() time.Duration {
	return time.Duration(r.CacheTtlMs) * time.Millisecond
}

// Gateways returns the full ordered gateway base list, primary first.
func (r *ResolverConfig) Gateways() []string {
	out := make([]string, 0, len(r.ExtraGateways)+1)
	out = append(out, r.PrimaryGateway)
	out = append(out, r.ExtraGateways...)
	return out
}

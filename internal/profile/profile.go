package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/hrygo/timexkit/plugin/timex/resolver"
	"github.com/hrygo/timexkit/server/timezone"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TIMEXKIT"

// Profile is the configuration shared by the CLI and the server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string `mapstructure:"mode"`
	// Addr is the binding address for server
	Addr string `mapstructure:"addr"`
	// Port is the binding port for server
	Port int `mapstructure:"port"`
	// Version is the current version of server
	Version string `mapstructure:"version"`

	// Resolution defaults, overridable per request.
	Timezone     string `mapstructure:"timezone"`
	Policy       string `mapstructure:"policy"`
	Direction    string `mapstructure:"direction"`
	SingleResult bool   `mapstructure:"single_result"`
	HorizonYears int    `mapstructure:"horizon_years"`

	// Service tuning.
	CacheSize        int     `mapstructure:"cache_size"`
	BatchConcurrency int     `mapstructure:"batch_concurrency"`
	MaxBatch         int     `mapstructure:"max_batch"`
	RateLimit        float64 `mapstructure:"rate_limit"`
	RateBurst        int     `mapstructure:"rate_burst"`

	// Resolution history. Empty Driver disables it.
	Driver string `mapstructure:"driver"`
	// DSN points to where the history is stored
	DSN string `mapstructure:"dsn"`
	// Data is the data directory used for the default sqlite DSN
	Data string `mapstructure:"data"`
}

// Defaults registers the default of every key on v.
func Defaults(v *viper.Viper) {
	v.SetDefault("mode", "dev")
	v.SetDefault("addr", "")
	v.SetDefault("port", 8081)
	v.SetDefault("timezone", timezone.TimezoneUTC)
	v.SetDefault("policy", resolver.BiasPast.Name())
	v.SetDefault("direction", resolver.Forward.String())
	v.SetDefault("single_result", false)
	v.SetDefault("horizon_years", 100)
	v.SetDefault("cache_size", 4096)
	v.SetDefault("batch_concurrency", 8)
	v.SetDefault("max_batch", 256)
	v.SetDefault("rate_limit", 20.0)
	v.SetDefault("rate_burst", 40)
	v.SetDefault("driver", "")
	v.SetDefault("dsn", "")
	v.SetDefault("data", ".")
}

// Load reads the profile from v after applying defaults and TIMEXKIT_* environment
// variables, then validates it.
func Load(v *viper.Viper) (*Profile, error) {
	Defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	p := &Profile{}
	if err := v.Unmarshal(p); err != nil {
		return nil, errors.Wrap(err, "failed to decode profile")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// HistoryEnabled reports whether resolutions are persisted.
func (p *Profile) HistoryEnabled() bool {
	return p.Driver != ""
}

// Context builds the default resolution context. Callers set the reference.
func (p *Profile) Context() (resolver.Context, error) {
	policy, ok := resolver.PolicyByName(p.Policy)
	if !ok {
		return resolver.Context{}, errors.Errorf("unknown policy %q", p.Policy)
	}
	dir, ok := resolver.ParseDirection(p.Direction)
	if !ok {
		return resolver.Context{}, errors.Errorf("unknown direction %q", p.Direction)
	}
	ctx := resolver.Context{
		Policy:       policy,
		Direction:    dir,
		SingleResult: p.SingleResult,
	}
	ctx.Horizon.Years = p.HorizonYears
	return ctx, nil
}

// Location returns the configured default location.
func (p *Profile) Location() *time.Location {
	loc, _ := timezone.ParseTimezone(p.Timezone)
	return loc
}

func checkDataDir(dataDir string) (string, error) {
	absDir, err := filepath.Abs(dataDir)
	if err != nil {
		return "", err
	}
	absDir = strings.TrimRight(absDir, "\\/")
	if _, err := os.Stat(absDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", absDir)
	}
	return absDir, nil
}

// Validate fills in derived values and rejects invalid settings.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}
	if !timezone.IsValidTimezone(p.Timezone) {
		return errors.Errorf("invalid timezone %q", p.Timezone)
	}
	if _, err := p.Context(); err != nil {
		return errors.Wrap(err, "invalid resolution defaults")
	}
	if p.HorizonYears <= 0 {
		return errors.Errorf("horizon_years must be positive, got %d", p.HorizonYears)
	}
	if p.CacheSize < 0 {
		p.CacheSize = 0
	}
	if p.BatchConcurrency <= 0 {
		p.BatchConcurrency = 1
	}
	if p.MaxBatch <= 0 {
		p.MaxBatch = 256
	}

	switch p.Driver {
	case "":
	case "sqlite":
		if p.DSN == "" {
			dataDir, err := checkDataDir(p.Data)
			if err != nil {
				return err
			}
			p.Data = dataDir
			p.DSN = filepath.Join(dataDir, fmt.Sprintf("timexkit_%s.db", p.Mode))
		}
	case "postgres":
		if p.DSN == "" {
			return errors.New("dsn is required for the postgres driver")
		}
	default:
		return errors.Errorf("unknown driver %q: only 'sqlite' and 'postgres' are supported", p.Driver)
	}
	return nil
}

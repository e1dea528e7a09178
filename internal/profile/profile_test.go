package profile

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/timexkit/plugin/timex/resolver"
)

func TestLoadDefaults(t *testing.T) {
	p, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "dev", p.Mode)
	assert.Equal(t, 8081, p.Port)
	assert.Equal(t, "UTC", p.Timezone)
	assert.Equal(t, 100, p.HorizonYears)
	assert.Equal(t, 4096, p.CacheSize)
	assert.False(t, p.HistoryEnabled())
	assert.True(t, p.IsDev())

	ctx, err := p.Context()
	require.NoError(t, err)
	assert.Equal(t, "past", ctx.Policy.Name())
	assert.Equal(t, resolver.Forward, ctx.Direction)
	assert.Equal(t, 100, ctx.Horizon.Years)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TIMEXKIT_POLICY", "future")
	t.Setenv("TIMEXKIT_DIRECTION", "backward")
	t.Setenv("TIMEXKIT_HORIZON_YEARS", "5")
	t.Setenv("TIMEXKIT_SINGLE_RESULT", "true")
	t.Setenv("TIMEXKIT_TIMEZONE", "Asia/Shanghai")

	p, err := Load(viper.New())
	require.NoError(t, err)

	ctx, err := p.Context()
	require.NoError(t, err)
	assert.Equal(t, "future", ctx.Policy.Name())
	assert.Equal(t, resolver.Backward, ctx.Direction)
	assert.True(t, ctx.SingleResult)
	assert.Equal(t, 5, ctx.Horizon.Years)
	assert.Equal(t, "Asia/Shanghai", p.Location().String())
}

func TestLoadOverrides(t *testing.T) {
	v := viper.New()
	v.Set("port", 9000)
	v.Set("mode", "prod")
	p, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 9000, p.Port)
	assert.False(t, p.IsDev())
}

func TestValidate(t *testing.T) {
	valid := func() *Profile {
		return &Profile{Mode: "dev", Port: 8081, Timezone: "UTC", Policy: "past", Direction: "forward", HorizonYears: 100}
	}

	tests := []struct {
		name   string
		modify func(*Profile)
		ok     bool
	}{
		{"valid", func(*Profile) {}, true},
		{"bad port", func(p *Profile) { p.Port = 0 }, false},
		{"bad timezone", func(p *Profile) { p.Timezone = "Mars/Olympus" }, false},
		{"bad policy", func(p *Profile) { p.Policy = "sideways" }, false},
		{"bad direction", func(p *Profile) { p.Direction = "up" }, false},
		{"bad horizon", func(p *Profile) { p.HorizonYears = 0 }, false},
		{"unknown driver", func(p *Profile) { p.Driver = "mysql" }, false},
		{"postgres needs dsn", func(p *Profile) { p.Driver = "postgres" }, false},
		{"postgres with dsn", func(p *Profile) { p.Driver = "postgres"; p.DSN = "postgres://localhost/timexkit" }, true},
		{"missing data dir", func(p *Profile) { p.Driver = "sqlite"; p.Data = "/does/not/exist" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.modify(p)
			err := p.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	p := &Profile{Mode: "weird", Port: 1, Timezone: "", HorizonYears: 1, Driver: "sqlite", Data: dir}
	require.NoError(t, p.Validate())

	assert.Equal(t, "demo", p.Mode)
	assert.Equal(t, 1, p.BatchConcurrency)
	assert.Equal(t, 256, p.MaxBatch)
	assert.Equal(t, filepath.Join(dir, "timexkit_demo.db"), p.DSN)
	assert.True(t, p.HistoryEnabled())
}

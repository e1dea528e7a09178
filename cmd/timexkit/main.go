package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/timexkit/internal/observability"
	"github.com/hrygo/timexkit/internal/profile"
	"github.com/hrygo/timexkit/server/service/resolve"
	"github.com/hrygo/timexkit/store"
	"github.com/hrygo/timexkit/store/db"
)

var version = "dev"

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "timexkit",
		Short: "Parse, normalize and resolve TIMEX temporal expressions",
		Long: `timexkit resolves TIMEX expressions (2021-06-15, XXXX-WXX-3, (T08,PT2H), P3D, ...)
against a reference instant and prints concrete dates, times and ranges.

Defaults come from a config file, TIMEXKIT_* environment variables and flags, in
increasing order of precedence.`,
		SilenceUsage: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./timexkit.yaml)")
	flags.String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("timezone", "UTC", "IANA timezone of the reference instant")
	flags.String("policy", "past", "ordering of fuzzy candidates: past, future or nearest")
	flags.String("direction", "forward", "direction of bare durations: forward or backward")
	flags.Bool("single", false, "return only the preferred candidate")
	flags.Int("horizon-years", 100, "extent of before/after ranges in years")
	flags.String("driver", "", `history driver, "sqlite" or "postgres"; empty disables history`)
	flags.String("dsn", "", "history database source name")
	flags.String("data", ".", "data directory for the default sqlite database")
	flags.StringP("output", "o", "text", "output format: text, json or yaml")

	for key, flag := range map[string]string{
		"mode":          "mode",
		"timezone":      "timezone",
		"policy":        "policy",
		"direction":     "direction",
		"single_result": "single",
		"horizon_years": "horizon-years",
		"driver":        "driver",
		"dsn":           "dsn",
		"data":          "data",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("timexkit")
		viper.SetConfigType("yaml")
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "failed to read config:", err)
			os.Exit(1)
		}
	}
}

func loadProfile() (*profile.Profile, error) {
	p, err := profile.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	p.Version = version
	return p, nil
}

func newLogger(p *profile.Profile) *slog.Logger {
	if p.IsDev() {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// openStore opens and migrates the history store, or returns nil when history is disabled.
func openStore(ctx context.Context, p *profile.Profile) (*store.Store, error) {
	if !p.HistoryEnabled() {
		return nil, nil
	}
	driver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, err
	}
	st := store.New(driver)
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// cliService builds a service for one CLI invocation. The returned func releases it.
func cliService(ctx context.Context) (*resolve.Service, *observability.RequestContext, func(), error) {
	p, err := loadProfile()
	if err != nil {
		return nil, nil, nil, err
	}
	// results go to stdout; only errors are logged
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	st, err := openStore(ctx, p)
	if err != nil {
		return nil, nil, nil, err
	}
	opts := []resolve.Option{resolve.WithLogger(logger)}
	if st != nil {
		opts = append(opts, resolve.WithStore(st))
	}
	svc, err := resolve.NewService(p, opts...)
	if err != nil {
		if st != nil {
			st.Close()
		}
		return nil, nil, nil, err
	}
	release := func() {
		if st != nil {
			st.Close()
		}
	}
	return svc, observability.NewRequestContext(logger, "cli", "cli"), release, nil
}

func main() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

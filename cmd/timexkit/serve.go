package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/timexkit/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resolution API over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}
		logger := newLogger(p)
		slog.SetDefault(logger)

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		st, err := openStore(ctx, p)
		if err != nil {
			return err
		}
		s, err := server.NewServer(ctx, p, st, logger)
		if err != nil {
			if st != nil {
				st.Close()
			}
			return err
		}
		if err := s.Start(ctx); err != nil {
			s.Shutdown(context.Background())
			return err
		}
		printGreetings(p.Version, s.Addr(), p.HistoryEnabled())

		<-ctx.Done()
		s.Shutdown(context.Background())
		return nil
	},
}

func init() {
	f := serveCmd.Flags()
	f.String("addr", "", "address of server")
	f.Int("port", 8081, "port of server")
	f.Float64("rate-limit", 20, "requests per second per client, 0 disables limiting")
	f.Int("rate-burst", 40, "burst size of the per-client limiter")
	f.Int("cache-size", 4096, "parsed expressions kept in memory")
	f.Int("batch-concurrency", 8, "parallel workers per batch request")
	f.Int("max-batch", 256, "largest accepted batch")

	for key, flag := range map[string]string{
		"addr":              "addr",
		"port":              "port",
		"rate_limit":        "rate-limit",
		"rate_burst":        "rate-burst",
		"cache_size":        "cache-size",
		"batch_concurrency": "batch-concurrency",
		"max_batch":         "max-batch",
	} {
		if err := viper.BindPFlag(key, f.Lookup(flag)); err != nil {
			panic(err)
		}
	}
	rootCmd.AddCommand(serveCmd)
}

func printGreetings(version, addr string, history bool) {
	slog.Info("timexkit ready", "version", version, "addr", addr, "history", history)
}

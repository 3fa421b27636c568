package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gungnir/internal/cli"
	"gungnir/internal/engine"
	"gungnir/internal/gateway"
	"gungnir/internal/metrics"
	gnet "gungnir/internal/net"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("exiting")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gungnir",
		Short: "Single-instrument continuous double-auction matching engine",
		Long: "Reads commands from stdin, one per line (BUY/SELL LIMIT <price> <qty>, " +
			"BUY/SELL MARKET <qty>, CANCEL <id>), prints trades to stdout and rejects " +
			"to stderr.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(
				context.Background(),
				syscall.SIGTERM,
				syscall.SIGINT,
			)
			defer stop()

			driver := cli.NewDriver(gateway.New(), engine.New())
			return driver.Run(ctx, os.Stdin, os.Stdout, os.Stderr)
		},
	}

	root.PersistentFlags().String("log-level", "info", "zerolog level (trace..disabled)")

	viper.SetEnvPrefix("GUNGNIR")
	viper.AutomaticEnv()
	cobra.CheckErr(viper.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level")))

	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the same line protocol over TCP, with a metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(
				context.Background(),
				syscall.SIGTERM,
				syscall.SIGINT,
			)
			defer stop()

			driver := cli.NewDriver(gateway.New(), engine.New())
			srv := gnet.New(viper.GetString("listen"), driver)
			if err := srv.Start(ctx); err != nil {
				return err
			}

			if addr := viper.GetString("metrics-listen"); addr != "" {
				go serveMetrics(ctx, addr)
			}

			return srv.Run(ctx)
		},
	}

	serve.Flags().String("listen", "0.0.0.0:9001", "address to serve the order protocol on")
	serve.Flags().String("metrics-listen", "0.0.0.0:9102", "address to serve prometheus metrics on (empty disables)")
	cobra.CheckErr(viper.BindPFlag("listen", serve.Flags().Lookup("listen")))
	cobra.CheckErr(viper.BindPFlag("metrics-listen", serve.Flags().Lookup("metrics-listen")))

	return serve
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("metrics server shutdown")
		}
	}()

	log.Info().Str("address", addr).Msg("metrics server running")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("metrics server failed")
	}
}

func setupLogging() {
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	logAdapter "github.com/bft-labs/flashguard/internal/adapters/log"
	"github.com/bft-labs/flashguard/internal/cliconfig"
	"github.com/bft-labs/flashguard/internal/ports"
	"github.com/bft-labs/flashguard/pkg/flashguard"
)

const longHelp = `Keep a Discord media channel tidy.

Every image or video posted to the channel is hidden behind a spoiler,
announced to a role, and deleted together with its replies once the expiry
window has passed. Text posted while nothing is open is removed at once.

Configuration is read from a TOML file, a .env file, FLASHGUARD_* environment
variables and flags, in increasing order of precedence.`

var exampleUsage = strings.TrimSpace(`
  flashguard --token <bot-token> --channel-id 123456789012345678 --role-id 234567890123456789
  flashguard --config $HOME/.flashguard/config.toml --metrics-addr :9100
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath, envPath string

	log := cliconfig.NewLogger(os.Stderr, cliconfig.DefaultLogLevel, cliconfig.DefaultLogFormat)

	root := &cobra.Command{
		Use:           "flashguard",
		Short:         "Spoiler-enforcing, self-cleaning Discord media channel bot",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			if err := cliconfig.LoadDotEnv(envPath); err != nil {
				return fmt.Errorf("load %s: %w", envPath, err)
			}
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			log = cliconfig.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			log.Info().Interface("config", cfg.Redacted()).Msg("configuration")

			return run(cmd.Context(), log, cfg)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.flashguard/config.toml)")
	root.Flags().StringVar(&envPath, "env-file", ".env", "path to a .env file with environment overrides")
	root.Flags().StringVar(&cfg.Token, "token", cfg.Token, "Discord bot token")
	root.Flags().StringVar(&cfg.ChannelID, "channel-id", cfg.ChannelID, "ID of the moderated channel")
	root.Flags().StringVar(&cfg.RoleID, "role-id", cfg.RoleID, "ID of the role pinged for new media (optional)")
	root.Flags().DurationVar(&cfg.Expiry, "expiry", cfg.Expiry, "how long a batch stays in the channel")
	root.Flags().StringVar(&cfg.CommandPrefix, "prefix", cfg.CommandPrefix, "operator command prefix")
	root.Flags().StringVar(&cfg.RelayName, "relay-name", cfg.RelayName, "display name of the temporary re-upload webhook")
	root.Flags().DurationVar(&cfg.DownloadTimeout, "download-timeout", cfg.DownloadTimeout, "timeout for each attachment download")
	root.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "address to serve Prometheus metrics on (disabled when empty)")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.Flags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (console or json)")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("flashguard")
		os.Exit(1)
	}
}

// run starts the bot and blocks until ctx is canceled, then stops it.
func run(ctx context.Context, log zerolog.Logger, cfg cliconfig.Config) error {
	opts := []flashguard.Option{
		flashguard.WithLogger(logAdapter.NewZerologAdapter(log).With(ports.String("channel_id", cfg.ChannelID))),
	}

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, flashguard.WithMetrics(reg))

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	bot, err := flashguard.New(flashguard.Config{
		Token:           cfg.Token,
		ChannelID:       cfg.ChannelID,
		RoleID:          cfg.RoleID,
		Expiry:          cfg.Expiry,
		CommandPrefix:   cfg.CommandPrefix,
		RelayName:       cfg.RelayName,
		DownloadTimeout: cfg.DownloadTimeout,
	}, opts...)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	if metricsSrv != nil {
		go func() {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	if err := bot.Start(ctx); err != nil {
		return fmt.Errorf("start bot: %w", err)
	}

	<-ctx.Done()
	log.Info().Msg("received signal, stopping...")

	if err := bot.Stop(); err != nil {
		return fmt.Errorf("stop bot: %w", err)
	}
	return nil
}

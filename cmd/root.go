package cmd

import (
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/back2basic/linkcollector/config"
	"github.com/back2basic/linkcollector/dns"
	"github.com/back2basic/linkcollector/live"
	"github.com/back2basic/linkcollector/logging"
	"github.com/back2basic/linkcollector/poller"
	"github.com/back2basic/linkcollector/prom"
	"github.com/back2basic/linkcollector/registry"
	"github.com/back2basic/linkcollector/storage"
	"github.com/back2basic/linkcollector/transport"
)

const dnsCacheTTL = 10 * time.Minute

type rootOptions struct {
	v       *viper.Viper
	cfgFile string
}

func newRootCmd() (*cobra.Command, *rootOptions) {
	opts := &rootOptions{v: viper.New()}
	config.SetDefaults(opts.v)

	cmd := &cobra.Command{
		Use:   "linkcollector",
		Short: "Polls link traffic counters from NDN peers for the traffic map",
		Long: `linkcollector periodically asks every peer prefix listed in the link file
for the byte counters of its links, and rewrites the statistics file read
by the map website after each reply.

Optionally it also exposes Prometheus metrics, keeps the latest sample per
link in SQLite and Appwrite, and prints a live table to the console.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.cfgFile, "config", "", "config file (yaml)")
	f.StringP("link-file", "f", "", "file listing link ids, peer prefixes and addresses")
	f.IntP("link-count", "n", 0, "number of link ids to read from the link file")
	f.StringP("map-addr", "s", "127.0.0.1", "address of the map server")
	f.IntP("poll-period", "t", 1, "poll period in seconds")
	f.IntP("timeout", "r", 500, "request timeout in milliseconds")
	f.IntP("debug", "d", 0, "debug verbosity (0 off, 1 on)")
	f.StringP("stat-file", "l", "stat", "statistics file written after every reply")
	f.Int("warmup", 100, "delay before the first poll cycle in milliseconds")
	f.String("counter-unit", "bytes", "unit of the stored counters (bytes or bits)")
	f.StringSlice("peer", nil, "peer route as prefix=url (repeatable)")
	f.String("default-peer", "", "base url used for prefixes without a peer route")
	f.String("metrics-addr", "", "listen address for prometheus metrics (empty disables)")
	f.String("sqlite", "", "sqlite database keeping the latest sample per link (empty disables)")
	f.Duration("export-interval", time.Minute, "how often snapshots are pushed to the sinks")
	f.Duration("live-interval", 0, "print the live table on this interval (0 disables)")

	for key, flag := range map[string]string{
		"link_file":       "link-file",
		"link_count":      "link-count",
		"map_addr":        "map-addr",
		"poll_period":     "poll-period",
		"timeout":         "timeout",
		"debug":           "debug",
		"stat_file":       "stat-file",
		"warmup":          "warmup",
		"counter_unit":    "counter-unit",
		"peers":           "peer",
		"default_peer":    "default-peer",
		"metrics_addr":    "metrics-addr",
		"sqlite_path":     "sqlite",
		"export_interval": "export-interval",
		"live_interval":   "live-interval",
	} {
		_ = opts.v.BindPFlag(key, f.Lookup(flag))
	}
	return cmd, opts
}

// Execute runs the root command.
func Execute() error {
	cmd, _ := newRootCmd()
	return cmd.Execute()
}

// load merges the config file, LINKCOLLECTOR_ env vars and parsed flags.
func (o *rootOptions) load() (*config.Config, error) {
	if o.cfgFile != "" {
		o.v.SetConfigFile(o.cfgFile)
	}
	o.v.SetEnvPrefix("LINKCOLLECTOR")
	o.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	o.v.AutomaticEnv()
	return config.Load(o.v)
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	reg, err := registry.LoadFile(cfg.LinkFile, cfg.LinkCount, logger)
	if err != nil {
		return err
	}
	for _, d := range reg.DuplicateAddresses() {
		logger.Warn("address shared by several links, the last one gets the updates",
			zap.String("prefix", d.Prefix),
			zap.String("address", d.Address),
			zap.Ints("link_ids", d.LinkIDs),
		)
	}

	// Everything below is a runtime failure, not a usage error.
	cmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	observers := poller.Observers{}

	if cfg.MetricsAddr != "" {
		collector := prom.New()
		promReg := prometheus.NewRegistry()
		if err := collector.Register(promReg); err != nil {
			return err
		}
		observers = append(observers, collector)
		g.Go(func() error { return prom.Serve(ctx, cfg.MetricsAddr, promReg, logger) })
	}

	var sinks []storage.Sink
	if cfg.SQLitePath != "" {
		db, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return err
		}
		sinks = append(sinks, db)
	}
	if aw := storage.NewAppwriteFromEnv(dns.NewResolver(dnsCacheTTL), logger); aw != nil {
		sinks = append(sinks, aw)
	}
	if len(sinks) > 0 {
		exporter := storage.NewExporter(clock.New(), cfg.ExportInterval, sinks, logger)
		defer func() {
			if err := exporter.Close(); err != nil {
				logger.Warn("closing sinks", zap.Error(err))
			}
		}()
		observers = append(observers, poller.OnFlush(exporter.Offer))
		g.Go(func() error { return exporter.Run(ctx) })
	}

	if cfg.LiveInterval > 0 {
		printer := live.New(cfg.StatFile, os.Stdout, cfg.LiveInterval, nil, logger)
		g.Go(func() error { return printer.Run(ctx) })
	}

	routes, err := cfg.Routes()
	if err != nil {
		return err
	}
	tr := transport.NewHTTP(routes, cfg.DefaultPeer, &http.Client{})

	loop := poller.New(reg, tr, storage.NewStatFile(cfg.StatFile), poller.Config{
		Warmup:  cfg.WarmupDelay(),
		Period:  cfg.PollInterval(),
		Timeout: cfg.RequestTimeout(),
		Unit:    cfg.Unit(),
		Verbose: cfg.Debug > 0,
	}, poller.WithObserver(observers), poller.WithLogger(logger))

	logger.Info("starting collector",
		zap.Int("links", reg.Len()),
		zap.Int("prefixes", len(reg.Prefixes())),
		zap.Duration("poll_period", cfg.PollInterval()),
		zap.Duration("timeout", cfg.RequestTimeout()),
		zap.String("map_addr", cfg.MapAddr),
		zap.String("stat_file", cfg.StatFile),
	)

	loop.Start()
	g.Go(func() error { return loop.Run(ctx) })

	if err := g.Wait(); err != nil {
		logger.Error("collector stopped", zap.Error(err))
		return err
	}
	logger.Info("exiting")
	return nil
}

package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-formschema/internal/demo"
	"github.com/goliatone/go-formschema/internal/server"
	"github.com/goliatone/go-formschema/internal/watch"
	"github.com/goliatone/go-formschema/pkg/options"
	"github.com/goliatone/go-formschema/pkg/orchestrator"
	"github.com/goliatone/go-formschema/pkg/values"
)

// ServeOptions holds the serve command flags.
type ServeOptions struct {
	Addr      string
	Templates string
	Title     string
	Watch     bool
	Grace     time.Duration
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the form over HTTP",
		Long: `Serve the form over HTTP. Every visit to / starts a new form session;
the form posts back to itself until it is submitted or cancelled.

With --watch the schema, rules and values documents are reloaded when they
change on disk. Running sessions keep the definition they started with.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, rootOpts, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Addr, "addr", "", "listen address (default FORMSCHEMA_ADDR)")
	flags.StringVar(&opts.Templates, "templates", "", "directory of template overrides")
	flags.StringVar(&opts.Title, "title", "", "page title")
	flags.BoolVar(&opts.Watch, "watch", false, "reload documents when they change")
	flags.DurationVar(&opts.Grace, "grace", 5*time.Second, "shutdown grace period")

	return cmd
}

func runServe(cmd *cobra.Command, rootOpts *RootOptions, opts *ServeOptions) error {
	cfg := rootOpts.config
	addr := firstNonEmpty(opts.Addr, cfg.Addr)
	if cfg.BaseURL == "" {
		rootOpts.config.BaseURL = "http://" + listenHost(addr)
	}

	orch := orchestrator.New(orchestrator.WithLogger(rootOpts.logger))
	def, err := rootOpts.definition(cmd.Context(), orch)
	if err != nil {
		return err
	}

	serverOpts := []server.Option{
		server.WithOptionSource(rootOpts.optionSource()),
		server.WithTemplatesDir(firstNonEmpty(opts.Templates, cfg.TemplatesDir)),
		server.WithSessionTTL(cfg.SessionTTL),
		server.WithTitle(opts.Title),
		server.WithLogger(rootOpts.logger),
		server.WithSubmit(func(_ context.Context, vals values.Values) error {
			rootOpts.logger.Info("form submitted", "values", vals)
			return nil
		}),
	}
	if rootOpts.usesDemo() {
		translator, err := demo.Translations()
		if err != nil {
			return WrapExitError(ExitCommandError, "load translations", err)
		}
		serverOpts = append(serverOpts, server.WithItems(demo.Items), server.WithLocale(cfg.Locale, translator))
	}

	srv, err := server.New(def, serverOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "start server", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return srv.ListenAndServe(ctx, addr, opts.Grace)
	})

	if (opts.Watch || cfg.Watch) && !rootOpts.usesDemo() {
		watcher, err := watch.New(
			[]string{rootOpts.Schema, rootOpts.Rules, rootOpts.Values, rootOpts.OpenAPI},
			func(ctx context.Context) error {
				next, err := rootOpts.definition(ctx, orch)
				if err != nil {
					return err
				}
				return srv.SetDefinition(next)
			},
			watch.WithLogger(rootOpts.logger),
		)
		if err != nil {
			return WrapExitError(ExitCommandError, "watch documents", err)
		}
		group.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	if err := group.Wait(); err != nil {
		return WrapExitError(ExitCommandError, "serve", err)
	}
	return nil
}

func listenHost(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

// optionCache picks Redis when an address is configured, else an in-process
// cache.
func (o *RootOptions) optionCache() options.Cache {
	if o.config.RedisAddr == "" {
		return options.NewMemoryCache(o.config.CacheTTL)
	}
	client := redis.NewClient(&redis.Options{Addr: o.config.RedisAddr})
	cache, err := options.NewRedisCache(options.RedisConfig{
		Client:    client,
		KeyPrefix: o.config.RedisPrefix,
		TTL:       o.config.CacheTTL,
	})
	if err != nil {
		o.logger.Warn("redis option cache unavailable, using memory", "err", err)
		return options.NewMemoryCache(o.config.CacheTTL)
	}
	return cache
}

// apigate is the CMS API gateway server. It terminates the HTTP pipeline
// in front of the content services: maintenance gating, API versioning,
// role-aware rate limiting, response enveloping, and activity logging.
//
// Configuration comes from a YAML file (--config, default config.yaml)
// with APIGATE_-prefixed environment overrides. Redis and Postgres are
// optional: without Redis the maintenance flag and rate counters live in
// process memory, without Postgres activity records go to the log.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/dmitrymomot/apigate"
	"github.com/dmitrymomot/apigate/config"
	"github.com/dmitrymomot/apigate/middlewares"
	"github.com/dmitrymomot/apigate/migrations"
	"github.com/dmitrymomot/apigate/pkg/activity"
	"github.com/dmitrymomot/apigate/pkg/apiversion"
	"github.com/dmitrymomot/apigate/pkg/db"
	"github.com/dmitrymomot/apigate/pkg/flagstore"
	"github.com/dmitrymomot/apigate/pkg/identity"
	"github.com/dmitrymomot/apigate/pkg/logger"
	"github.com/dmitrymomot/apigate/pkg/maintenance"
	"github.com/dmitrymomot/apigate/pkg/ratelimit"
	"github.com/dmitrymomot/apigate/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string

	flags := pflag.NewFlagSet("apigate", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", "config.yaml", "path to the configuration file")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.NewWithSentry(cfg.Logger, cfg.Sentry, middlewares.RequestIDExtractor())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		flagStore  flagstore.Store[bool]
		stateStore flagstore.Store[maintenance.State]
		counter    flagstore.Counter
		runOpts    []apigate.RunOption
		healthOpts []apigate.HealthOption
	)

	if cfg.Redis.URL != "" {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		flagStore = flagstore.NewRedis[bool](client, nil, flagstore.WithPrefix("apigate"))
		stateStore = flagstore.NewRedis[maintenance.State](client, nil, flagstore.WithPrefix("apigate"))
		counter = flagstore.NewRedisCounter(client, "apigate:ratelimit")
		runOpts = append(runOpts, apigate.ShutdownHook(redis.Shutdown(client)))
		healthOpts = append(healthOpts, apigate.WithReadinessCheck("redis", redis.Healthcheck(client)))
		log.Info("using redis-backed stores")
	} else {
		flagStore = flagstore.NewMemory[bool]()
		stateStore = flagstore.NewMemory[maintenance.State]()
		counter = flagstore.NewMemoryCounter()
		log.Warn("no redis configured, maintenance flag and rate counters are per-process")
	}

	var recorder activity.Recorder = activity.NewLogRecorder(log)
	if cfg.Database.URL != "" {
		pool, err := db.Connect(ctx, cfg.Database.Config)
		if err != nil {
			return err
		}
		if cfg.Database.Migrate {
			runOpts = append(runOpts, apigate.StartupHook(func(ctx context.Context) error {
				return db.Migrate(ctx, pool, migrations.FS, log)
			}))
		}
		recorder = activity.NewPostgresRecorder(pool)
		runOpts = append(runOpts, apigate.ShutdownHook(db.Shutdown(pool)))
		healthOpts = append(healthOpts, apigate.WithReadinessCheck("postgres", db.Healthcheck(pool)))
		log.Info("activity log persisted to postgres")
	} else {
		log.Warn("no database configured, activity records go to the log")
	}

	manager := maintenance.NewManager(flagStore, stateStore)
	limiter := ratelimit.New(counter)
	resolver := newVersionResolver(cfg.Versions)

	if len(cfg.Maintenance.Windows) > 0 {
		scheduler, err := newScheduler(cfg.Maintenance.Windows, manager, log)
		if err != nil {
			return err
		}
		runOpts = append(runOpts,
			apigate.StartupHook(func(context.Context) error {
				scheduler.Start()
				return nil
			}),
			apigate.ShutdownHook(scheduler.Stop),
		)
	}

	app := apigate.New(
		apigate.WithCustomLogger(log),
		apigate.WithMiddleware(buildPipeline(cfg, manager, limiter, resolver, recorder)...),
		apigate.WithHandlers(&gatewayHandler{manager: manager, resolver: resolver}),
		apigate.WithHealthChecks(healthOpts...),
	)

	runOpts = append(runOpts,
		apigate.Logger(log),
		apigate.ShutdownTimeout(cfg.Server.ShutdownTimeout),
	)
	return app.Run(cfg.Server.Addr, runOpts...)
}

// buildPipeline composes the global middleware chain. Order matters:
// activity wraps everything so it records the final status; formatting
// runs outside the gates so their rejections are enveloped; authentication
// precedes the maintenance gate so identity bypass works.
func buildPipeline(
	cfg *config.Config,
	manager *maintenance.Manager,
	limiter *ratelimit.Limiter,
	resolver *apiversion.Resolver,
	recorder activity.Recorder,
) []apigate.Middleware {
	var corsOpts []middlewares.CORSOption
	if len(cfg.CORS.AllowOrigins) > 0 {
		corsOpts = append(corsOpts, middlewares.WithAllowOrigins(cfg.CORS.AllowOrigins...))
	}
	if cfg.CORS.AllowCredentials {
		corsOpts = append(corsOpts, middlewares.WithAllowCredentials())
	}

	var maintOpts []middlewares.MaintenanceOption
	if len(cfg.Maintenance.AllowedPrefixes) > 0 {
		maintOpts = append(maintOpts, middlewares.WithAllowedPrefixes(cfg.Maintenance.AllowedPrefixes...))
	}
	if len(cfg.Maintenance.AllowedIPs) > 0 {
		maintOpts = append(maintOpts, middlewares.WithAllowedIPs(cfg.Maintenance.AllowedIPs...))
	}
	if len(cfg.Maintenance.BypassRoles) > 0 {
		maintOpts = append(maintOpts, middlewares.WithBypassRoles(cfg.Maintenance.BypassRoles...))
	}
	if cfg.Maintenance.BypassPermission != "" {
		maintOpts = append(maintOpts, middlewares.WithBypassPermission(cfg.Maintenance.BypassPermission))
	}
	if len(cfg.Maintenance.AllowedUserIDs) > 0 {
		maintOpts = append(maintOpts, middlewares.WithAllowedUserIDs(cfg.Maintenance.AllowedUserIDs...))
	}

	var rateOpts []middlewares.RateLimitOption
	if len(cfg.RateLimit.ClassPrefixes) > 0 {
		rateOpts = append(rateOpts, middlewares.WithClassPrefixes(cfg.RateLimit.ClassPrefixes))
	}

	var activityOpts []middlewares.ActivityOption
	if len(cfg.Activity.ExcludedPrefixes) > 0 {
		activityOpts = append(activityOpts, middlewares.WithExcludedPrefixes(cfg.Activity.ExcludedPrefixes...))
	}

	pipeline := []apigate.Middleware{
		middlewares.RequestID(),
		middlewares.CORS(corsOpts...),
	}
	if cfg.Activity.Enabled {
		pipeline = append(pipeline, middlewares.Activity(recorder, activityOpts...))
	}
	return append(pipeline,
		middlewares.Format(),
		middlewares.Recover(),
		middlewares.Authenticate(identity.HeaderResolver{}),
		middlewares.Maintenance(manager, maintOpts...),
		middlewares.Version(resolver),
		middlewares.RateLimit(limiter, rateOpts...),
	)
}

func newScheduler(windows []config.MaintenanceWindowConfig, manager *maintenance.Manager, log *slog.Logger) (*maintenance.Scheduler, error) {
	specs := make([]maintenance.Window, 0, len(windows))
	for _, w := range windows {
		specs = append(specs, maintenance.Window{
			Cron:     w.Cron,
			Duration: w.Duration,
			State: maintenance.State{
				Message: w.Message,
				Reason:  w.Reason,
			},
		})
	}
	return maintenance.NewScheduler(manager, log, specs...)
}

func newVersionResolver(cfg config.VersionsConfig) *apiversion.Resolver {
	opts := make([]apiversion.Option, 0, len(cfg.Deprecated))
	for version, dep := range cfg.Deprecated {
		opts = append(opts, apiversion.WithDeprecated(version, apiversion.Deprecation{
			SunsetAt: dep.SunsetAt,
			DocsURL:  dep.DocsURL,
		}))
	}
	return apiversion.New(cfg.Supported, cfg.Default, opts...)
}

// gatewayHandler exposes the gateway's own endpoints: the maintenance
// status poll and the API status page.
type gatewayHandler struct {
	manager  *maintenance.Manager
	resolver *apiversion.Resolver
}

func (h *gatewayHandler) Routes(r apigate.Router) {
	r.GET("/api/maintenance/status", h.maintenanceStatus)
	r.GET("/api/status", h.apiStatus)
}

func (h *gatewayHandler) maintenanceStatus(c apigate.Context) error {
	status, err := h.manager.Status(c)
	if err != nil {
		return apigate.ErrInternal("Failed to load maintenance status", apigate.WithError(err))
	}
	return c.JSON(http.StatusOK, status)
}

func (h *gatewayHandler) apiStatus(c apigate.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":             "operational",
		"default_version":    h.resolver.Default(),
		"supported_versions": h.resolver.SupportedVersions(),
	})
}

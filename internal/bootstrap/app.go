package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"kalaklub-site/internal/downloads"
	"kalaklub-site/internal/forms"
	"kalaklub-site/internal/notify"
	"kalaklub-site/internal/ratelimit"
	"kalaklub-site/internal/records"
	"kalaklub-site/internal/services/health"
	"kalaklub-site/internal/shared/config"
	"kalaklub-site/internal/shared/server"
	"kalaklub-site/internal/shared/storage/db"
	"kalaklub-site/internal/shared/storage/object"
	localstore "kalaklub-site/internal/shared/storage/object/local"
	s3store "kalaklub-site/internal/shared/storage/object/s3"
	"kalaklub-site/internal/shared/telemetry"
	"kalaklub-site/internal/submissions"
)

const (
	applyRateMessage   = "Please wait a few minutes before submitting another application."
	contactRateMessage = "Please wait a few minutes before sending another message."
)

// App holds shared dependencies.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Redis    *redis.Client
	Sweeper  *cron.Cron
	Limiter  *ratelimit.Limiter
	Mailer   notify.Sender
	Store    object.Store
	Location *time.Location

	ApplicationPipeline *submissions.Pipeline
	ContactPipeline     *submissions.Pipeline
	DownloadsHandler    *downloads.Handler
}

type options struct {
	mailer notify.Sender
	store  object.Store
	now    func() time.Time
}

// Option overrides a dependency, mainly for tests.
type Option func(*options)

// WithMailer replaces the configured mail transport.
func WithMailer(s notify.Sender) Option {
	return func(o *options) { o.mailer = s }
}

// WithObjectStore replaces the configured download source.
func WithObjectStore(s object.Store) Option {
	return func(o *options) { o.store = s }
}

// WithClock replaces time.Now for rate limiting and record timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Build prepares every dependency and the router.
func Build(cfg config.Config, opts ...Option) (*App, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	app := &App{Config: cfg, Location: loadLocation(cfg.TimeZone)}

	if err := app.buildLimiter(ctx, o.now); err != nil {
		return nil, err
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.DB = sqlDB

	app.Mailer = o.mailer
	if app.Mailer == nil {
		if app.Mailer, err = buildMailer(cfg); err != nil {
			app.Close()
			return nil, err
		}
	}

	app.Store = o.store
	if app.Store == nil {
		if app.Store, err = buildStore(ctx, cfg); err != nil {
			app.Close()
			return nil, err
		}
	}

	composer, err := notify.NewComposer(app.Location)
	if err != nil {
		app.Close()
		return nil, err
	}
	dispatcher := &notify.Dispatcher{
		Sender:   app.Mailer,
		Composer: composer,
		Routes: map[string]notify.Route{
			forms.Application.Name: {
				Operator: cfg.AdmissionsEmail,
				From:     notify.Address{Name: cfg.MailFromNameApplications, Email: cfg.MailFrom},
			},
			forms.Contact.Name: {
				Operator: cfg.ContactEmail,
				From:     notify.Address{Name: cfg.MailFromNameContact, Email: cfg.MailFrom},
			},
		},
	}

	app.ApplicationPipeline = app.pipeline(forms.Application, cfg.ApplicationsFile, cfg.ApplyCooldown, applyRateMessage, dispatcher, o.now)
	app.ContactPipeline = app.pipeline(forms.Contact, cfg.ContactsFile, cfg.ContactCooldown, contactRateMessage, dispatcher, o.now)

	catalog, err := downloads.LoadCatalog(cfg.DownloadCatalog)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.DownloadsHandler = downloads.NewHandler(catalog, app.Store, cfg.DownloadLog, app.Location)
	app.DownloadsHandler.Now = o.now

	checks := map[string]health.Pinger{}
	if app.Redis != nil {
		checks["redis"] = health.PingFunc(func(ctx context.Context) error { return app.Redis.Ping(ctx).Err() })
	}
	if app.DB != nil {
		checks["postgres"] = health.PingFunc(app.DB.PingContext)
	}

	app.Router, err = server.NewRouter(server.RouterDeps{
		Config:      cfg,
		Limiter:     app.Limiter,
		Application: submissions.NewApplicationHandler(app.ApplicationPipeline, cfg.MaxFormBytes, cfg.ApplicationSuccessURL),
		Contact:     submissions.NewContactHandler(app.ContactPipeline, cfg.MaxFormBytes),
		Downloads:   app.DownloadsHandler,
		Health:      health.NewService(checks),
	})
	if err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) pipeline(form *forms.Form, path string, cooldown time.Duration, rateMsg string, n submissions.Notifier, now func() time.Time) *submissions.Pipeline {
	var sink records.Sink = records.NewFileSink(path, form.Columns())
	if a.DB != nil {
		sink = &records.Mirrored{Primary: sink, Mirrors: []records.Sink{&records.PGSink{DB: a.DB}}}
	}
	return &submissions.Pipeline{
		Form:             form,
		Limiter:          a.Limiter,
		Cooldown:         cooldown,
		RateLimitMessage: rateMsg,
		Records:          sink,
		Notifier:         n,
		Location:         a.Location,
		Now:              now,
	}
}

func (a *App) buildLimiter(ctx context.Context, now func() time.Time) error {
	switch a.Config.RateLimitStore {
	case "redis":
		rdb, err := ratelimit.NewRedisClient(ctx, a.Config.RedisURL)
		if err != nil {
			return err
		}
		a.Redis = rdb
		a.Limiter = ratelimit.NewLimiter(ratelimit.NewRedisStore(rdb), now)
	default:
		store := ratelimit.NewMemoryStore(a.Config.SessionTTL)
		sweeper, err := ratelimit.StartSweeper(store, a.Config.SweepSchedule, now)
		if err != nil {
			return err
		}
		a.Sweeper = sweeper
		a.Limiter = ratelimit.NewLimiter(store, now)
	}
	return nil
}

// Close releases background jobs and connections.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.Sweeper != nil {
		<-a.Sweeper.Stop().Done()
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			sqlDB.Close()
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.mirror_disabled", map[string]any{"error": err})
			return nil, nil
		}
		return nil, fmt.Errorf("submission mirror: %w", err)
	}
	return sqlDB, nil
}

func buildMailer(cfg config.Config) (notify.Sender, error) {
	if cfg.MailTransport != "smtp" {
		return notify.LogSender{}, nil
	}
	return notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		TLS:      cfg.SMTPTLS,
		Timeout:  cfg.SMTPTimeout,
	})
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.DownloadsDir), nil
	}
}

func loadLocation(name string) *time.Location {
	if strings.TrimSpace(name) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		telemetry.Warn("bootstrap.timezone_fallback", map[string]any{"zone": name, "error": err})
		return time.UTC
	}
	return loc
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

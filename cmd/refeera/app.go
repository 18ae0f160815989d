package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"refeera/internal/audit"
	"refeera/internal/auth/adapters"
	businesshandler "refeera/internal/business/handler"
	businessservice "refeera/internal/business/service"
	businessstore "refeera/internal/business/store/business"
	"refeera/internal/credential"
	"refeera/internal/mail"
	partnerhandler "refeera/internal/partner/handler"
	partnerservice "refeera/internal/partner/service"
	partnerstore "refeera/internal/partner/store/partner"
	"refeera/internal/platform/config"
	platformmetrics "refeera/internal/platform/metrics"
	"refeera/internal/platform/mongo"
	"refeera/internal/platform/postgres"
	redisclient "refeera/internal/platform/redis"
	referralhandler "refeera/internal/referral/handler"
	referralmetrics "refeera/internal/referral/metrics"
	referralservice "refeera/internal/referral/service"
	referralstore "refeera/internal/referral/store/referral"
	submissionstore "refeera/internal/referral/store/submission"
	"refeera/internal/upload"
	userhandler "refeera/internal/user/handler"
	userservice "refeera/internal/user/service"
	userstore "refeera/internal/user/store/user"
	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/platform/httputil"
	authmw "refeera/pkg/platform/middleware/auth"
	"refeera/pkg/platform/middleware/metadata"
	"refeera/pkg/platform/middleware/ratelimit"
	"refeera/pkg/platform/middleware/request"
	"refeera/pkg/platform/middleware/requesttime"
	"refeera/pkg/requestcontext"
)

// app is the wired process: the router plus whatever must be released on
// shutdown.
type app struct {
	router  http.Handler
	closers []func(context.Context) error
	checks  []healthCheck
	logger  *slog.Logger
}

type healthCheck struct {
	name  string
	check func(context.Context) error
}

type stores struct {
	users       userservice.Store
	businesses  businessservice.Store
	partners    partnerStore
	referrals   referralservice.ReferralStore
	submissions referralservice.SubmissionStore
}

// partnerStore is satisfied by every partner store backend.
type partnerStore interface {
	partnerservice.Store
	referralservice.PartnerLookup
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{logger: logger}
	st, err := a.openStores(ctx, cfg)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	otps, err := a.openOTPStore(ctx, cfg)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	uploads, err := upload.NewDiskStorage(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("upload storage: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	auditor, err := a.openAudit(cfg, reg)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	var mailer mail.Mailer = mail.NewLogMailer(logger, cfg.Links.AppBaseURL)
	if cfg.Mail.Host != "" {
		mailer = mail.NewSMTPMailer(cfg.Mail, cfg.Links.AppBaseURL)
	}

	tokens := credential.NewTokenService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.UserTokenTTL, cfg.Auth.BusinessTokenTTL)
	hasher := credential.NewPasswordHasher(cfg.Auth.BcryptCost)

	users := userservice.New(st.users, hasher, tokens, otps, mailer,
		userservice.WithLogger(logger),
		userservice.WithAuditPublisher(auditor),
		userservice.WithOTPTTLs(cfg.Auth.VerifyOTPTTL, cfg.Auth.ResetOTPTTL),
	)
	businesses := businessservice.New(st.businesses, hasher, tokens,
		businessservice.WithLogger(logger),
		businessservice.WithAuditPublisher(auditor),
	)
	partners := partnerservice.New(st.partners, uploads,
		partnerservice.WithLogger(logger),
		partnerservice.WithAuditPublisher(auditor),
	)
	referrals := referralservice.New(st.referrals, st.submissions, st.partners,
		referralservice.WithLogger(logger),
		referralservice.WithAuditPublisher(auditor),
		referralservice.WithMetrics(referralmetrics.New(reg)),
		referralservice.WithLinkBase(cfg.Links.ReferralBase),
	)

	resolver := adapters.NewPrincipalResolver(users, businesses)
	anyPrincipal := authmw.RequireAuth(tokens, resolver, logger)
	userOnly := authmw.RequireAuth(tokens, resolver, logger, requestcontext.PrincipalUser)
	businessOnly := authmw.RequireAuth(tokens, resolver, logger, requestcontext.PrincipalBusiness)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	if cfg.Server.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(metadata.ClientMetadata)
	r.Use(request.Recovery(logger))
	r.Use(request.AccessLog(logger))
	r.Use(platformmetrics.New(reg).Middleware)
	r.Use(cors.Handler(corsOptions(cfg.CORS.Origins)))
	if cfg.Limits.RPS > 0 {
		r.Use(ratelimit.New(cfg.Limits.RPS, cfg.Limits.Burst).Middleware(logger))
	}

	r.Get("/health", a.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploads.Dir()))))

	userhandler.New(users, logger, userOnly).Register(r)
	businesshandler.New(businesses, logger, businessOnly).Register(r)
	partnerhandler.New(partners, logger, userOnly).Register(r)
	referralhandler.New(referrals, logger, anyPrincipal).Register(r)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Not found"))
	})

	a.router = r
	return a, nil
}

func (a *app) openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return &stores{
			users:       userstore.NewInMemory(),
			businesses:  businessstore.NewInMemory(),
			partners:    partnerstore.NewInMemory(),
			referrals:   referralstore.NewInMemory(),
			submissions: submissionstore.NewInMemory(),
		}, nil
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		a.checks = append(a.checks, healthCheck{name: "postgres", check: db.PingContext})
		if err := postgres.Migrate(db); err != nil {
			return nil, err
		}
		return postgresStores(db), nil
	case config.BackendMongo:
		client, err := mongo.Connect(ctx, cfg.Store.MongoURI)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Disconnect)
		a.checks = append(a.checks, healthCheck{name: "mongo", check: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		}})
		db := client.Database(cfg.Store.MongoDatabase)
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			return nil, err
		}
		return mongoStores(db), nil
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}
}

func postgresStores(db *sql.DB) *stores {
	return &stores{
		users:       userstore.NewPostgres(db),
		businesses:  businessstore.NewPostgres(db),
		partners:    partnerstore.NewPostgres(db),
		referrals:   referralstore.NewPostgres(db),
		submissions: submissionstore.NewPostgres(db),
	}
}

func mongoStores(db *mongodriver.Database) *stores {
	return &stores{
		users:       userstore.NewMongo(db),
		businesses:  businessstore.NewMongo(db),
		partners:    partnerstore.NewMongo(db),
		referrals:   referralstore.NewMongo(db),
		submissions: submissionstore.NewMongo(db),
	}
}

func (a *app) openOTPStore(ctx context.Context, cfg config.Config) (credential.OTPStore, error) {
	client, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client == nil {
		a.logger.Warn("REDIS_URL not set, one-time codes are kept in memory")
		return credential.NewInMemoryOTPStore(), nil
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	a.checks = append(a.checks, healthCheck{name: "redis", check: client.Health})
	return credential.NewRedisOTPStore(client), nil
}

// handleHealth reports 503 when any backing service fails its check.
func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	status := http.StatusOK
	for _, hc := range a.checks {
		if err := hc.check(r.Context()); err != nil {
			a.logger.WarnContext(r.Context(), "health check failed", "check", hc.name, "error", err)
			body[hc.name] = "down"
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		body[hc.name] = "up"
	}
	httputil.WriteJSON(w, status, body)
}

func (a *app) openAudit(cfg config.Config, reg prometheus.Registerer) (audit.Publisher, error) {
	fallback := audit.NewLogPublisher(a.logger)
	if len(cfg.Kafka.Brokers) == 0 {
		return fallback, nil
	}
	p, err := audit.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, fallback, a.logger,
		audit.WithKafkaMetrics(audit.NewMetrics(reg)),
		audit.WithBreaker(5, 30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("audit publisher: %w", err)
	}
	a.closers = append(a.closers, p.Close)
	return p, nil
}

func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Error("shutdown close failed", "error", err)
		}
	}
	a.closers = nil
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}
}

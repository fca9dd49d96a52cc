package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"sportclub/internal/club/drafts"
	clubhandler "sportclub/internal/club/handler"
	clubmetrics "sportclub/internal/club/metrics"
	clubservice "sportclub/internal/club/service"
	clubstore "sportclub/internal/club/store"
	"sportclub/internal/contact"
	"sportclub/internal/eligibility"
	"sportclub/internal/identifier"
	jwttoken "sportclub/internal/jwt_token"
	memberhandler "sportclub/internal/member/handler"
	membermetrics "sportclub/internal/member/metrics"
	memberservice "sportclub/internal/member/service"
	memberstore "sportclub/internal/member/store"
	"sportclub/internal/platform/config"
	"sportclub/internal/platform/httpserver"
	"sportclub/internal/platform/logger"
	"sportclub/internal/platform/metrics"
	"sportclub/internal/platform/postgres"
	"sportclub/internal/platform/ratelimit"
	redisclient "sportclub/internal/platform/redis"
	"sportclub/internal/registration"
	httptransport "sportclub/internal/transport/http"
	id "sportclub/pkg/domain"
	"sportclub/pkg/platform/audit"
	"sportclub/pkg/platform/audit/publishers/fallback"
	"sportclub/pkg/platform/audit/publishers/kafka"
	"sportclub/pkg/platform/audit/publishers/logpub"
	"sportclub/pkg/platform/circuit"
	"sportclub/pkg/platform/sentinel"
)

type auditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type infra struct {
	members memberservice.Store
	clubs   clubservice.Store
	drafts  clubservice.DraftStore
	audit   auditPublisher
	limits  ratelimit.Store
	health  []httptransport.HealthCheck
	closers []func()
}

func (i *infra) close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		i.closers[j]()
	}
}

func main() {
	cfg, err := config.Load(config.DotenvPath())
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	deps, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close()

	validator, thresholds, err := buildRules(cfg.Rules)
	if err != nil {
		return err
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	tokens := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer)

	memberSvc := memberservice.New(deps.members,
		memberservice.WithLogger(log),
		memberservice.WithAuditPublisher(deps.audit),
		memberservice.WithMetrics(membermetrics.New(registry)),
		memberservice.WithValidator(validator),
		memberservice.WithThresholds(thresholds),
		memberservice.WithTokenIssuer(tokens, cfg.Server.AccessTokenTTL),
		memberservice.WithClubDirectory(clubDirectory{store: deps.clubs}),
	)
	clubSvc := clubservice.New(deps.clubs, deps.drafts, memberSvc,
		clubservice.WithLogger(log),
		clubservice.WithAuditPublisher(deps.audit),
		clubservice.WithMetrics(clubmetrics.New(registry)),
		clubservice.WithValidator(validator),
		clubservice.WithThresholds(thresholds),
	)

	if err := seedAdmin(ctx, memberSvc, cfg.Bootstrap, log); err != nil {
		return err
	}

	var publicLimit func(http.Handler) http.Handler
	if !cfg.RateLimit.Disabled {
		publicLimit = ratelimit.PerIP(deps.limits, cfg.RateLimit.PublicRequests, cfg.RateLimit.Window, log)
	} else {
		log.Info("rate limiting disabled")
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Members:  memberhandler.New(memberSvc, log),
		Clubs:    clubhandler.New(clubSvc, log),
		Sessions: tokens,
		Metrics:  metrics.New(registry),
		Health:   deps.health,
		Logger:   log,

		PublicLimit: publicLimit,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting sportclub", "addr", cfg.Server.Addr)
		return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout)
	})
	err = g.Wait()
	log.Info("server stopped")
	return err
}

// buildInfra picks Postgres, Redis and Kafka when configured and falls back
// to in-process implementations otherwise.
func buildInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	deps := &infra{}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	if db != nil {
		deps.closers = append(deps.closers, func() { _ = db.Close() })
		deps.members = memberstore.NewPostgres(db)
		deps.clubs = clubstore.NewPostgres(db)
		deps.health = append(deps.health, httptransport.HealthCheck{Name: "postgres", Check: pingDB(db)})
		log.Info("using postgres stores")
	} else {
		deps.members = memberstore.NewInMemory()
		deps.clubs = clubstore.NewInMemory()
		log.Warn("postgres not configured, members and clubs are kept in memory")
	}

	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		deps.close()
		return nil, err
	}
	if rdb != nil {
		deps.closers = append(deps.closers, func() { _ = rdb.Close() })
		deps.drafts = drafts.NewRedisStore(rdb.Client, cfg.Redis.DraftTTL)
		deps.limits = ratelimit.NewRedis(rdb.Client)
		deps.health = append(deps.health, httptransport.HealthCheck{Name: "redis", Check: rdb.Health})
	} else {
		deps.drafts = drafts.NewMemoryStore(cfg.Redis.DraftTTL)
		deps.limits = ratelimit.NewInMemory()
		log.Warn("redis not configured, slate drafts are kept in memory")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := kafka.New(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, kafka.WithLogger(log))
		if err != nil {
			deps.close()
			return nil, err
		}
		deps.closers = append(deps.closers, pub.Close)
		if err := pub.EnsureTopic(ctx, cfg.Kafka.Partitions); err != nil {
			deps.close()
			return nil, err
		}
		deps.audit = fallback.New(pub, logpub.New(log), circuit.New("kafka-audit"), log)
	} else {
		deps.audit = logpub.New(log)
	}
	return deps, nil
}

func buildRules(r config.Rules) (*registration.Validator, eligibility.Thresholds, error) {
	thresholds := eligibility.Thresholds{
		Registration:   r.MinRegistrationAge,
		Directive:      r.MinDirectiveAge,
		SelfEnrollment: r.MinSelfEnrollmentAge,
	}
	ids, err := identifier.NewValidator(r.PassportMinLen, r.PassportMaxLen)
	if err != nil {
		return nil, thresholds, fmt.Errorf("identifier rules: %w", err)
	}
	mobile, err := contact.NewMobileRule(r.MobileCallingCode, r.MobilePrefix, r.MobileDigits)
	if err != nil {
		return nil, thresholds, fmt.Errorf("mobile rule: %w", err)
	}
	v := registration.New(
		registration.WithThresholds(thresholds),
		registration.WithIdentifierValidator(ids),
		registration.WithMobileRule(mobile),
	)
	return v, thresholds, nil
}

func seedAdmin(ctx context.Context, svc *memberservice.Service, b config.BootstrapConfig, log *slog.Logger) error {
	if b.AdminEmail == "" {
		return nil
	}
	birth, err := eligibility.ParseBirthDate(b.AdminBirthDate)
	if err != nil {
		return fmt.Errorf("bootstrap admin birth date: %w", err)
	}
	admin, err := svc.EnsureAdmin(ctx, memberservice.AdminSeed{
		Email:     b.AdminEmail,
		Password:  b.AdminPassword,
		Name:      b.AdminName,
		BirthDate: birth,
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	log.Info("bootstrap admin ready", "user_id", admin.ID.String())
	return nil
}

func pingDB(db *sql.DB) func(context.Context) error {
	return db.PingContext
}

// clubDirectory answers enrollment lookups straight from the club store.
type clubDirectory struct {
	store clubservice.Store
}

func (d clubDirectory) ClubStatus(ctx context.Context, clubID id.ClubID) (exists, active bool, err error) {
	c, err := d.store.FindByID(ctx, clubID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return true, c.Active, nil
}

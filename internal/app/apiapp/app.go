package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/eventmatch/backend/internal/config"
	"github.com/ivankudzin/eventmatch/backend/internal/infra/httpclient"
	s3infra "github.com/ivankudzin/eventmatch/backend/internal/infra/s3"
	"github.com/ivankudzin/eventmatch/backend/internal/infra/telegram"
	pgrepo "github.com/ivankudzin/eventmatch/backend/internal/repo/postgres"
	redrepo "github.com/ivankudzin/eventmatch/backend/internal/repo/redis"
	authsvc "github.com/ivankudzin/eventmatch/backend/internal/services/auth"
	blocksvc "github.com/ivankudzin/eventmatch/backend/internal/services/blocks"
	convsvc "github.com/ivankudzin/eventmatch/backend/internal/services/conversations"
	discoverysvc "github.com/ivankudzin/eventmatch/backend/internal/services/discovery"
	eventsvc "github.com/ivankudzin/eventmatch/backend/internal/services/events"
	matchsvc "github.com/ivankudzin/eventmatch/backend/internal/services/matches"
	mediasvc "github.com/ivankudzin/eventmatch/backend/internal/services/media"
	notifysvc "github.com/ivankudzin/eventmatch/backend/internal/services/notify"
	profilesvc "github.com/ivankudzin/eventmatch/backend/internal/services/profiles"
	ratesvc "github.com/ivankudzin/eventmatch/backend/internal/services/rate"
	statssvc "github.com/ivankudzin/eventmatch/backend/internal/services/stats"
	swipesvc "github.com/ivankudzin/eventmatch/backend/internal/services/swipes"
)

const startupCheckTimeout = 5 * time.Second

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	notifier   *notifysvc.Service
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, cfg, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	pingCtx, cancelPing := context.WithTimeout(ctx, startupCheckTimeout)
	if err := redrepo.Ping(pingCtx, redisClient); err != nil {
		log.Warn("redis is unreachable, rate limits and caches will fail", zap.Error(err))
	}
	cancelPing()

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, profile photos will be omitted", zap.Error(err))
	} else {
		s3Client = c
	}
	photoStorage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	if s3Client != nil {
		bucketCtx, cancelBucket := context.WithTimeout(ctx, startupCheckTimeout)
		if err := photoStorage.EnsureBucket(bucketCtx); err != nil {
			log.Warn("photo bucket check failed", zap.Error(err))
		}
		cancelBucket()
	}

	sessionRepo := redrepo.NewSessionRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)
	cacheRepo := redrepo.NewCacheRepo(redisClient)
	userRepo := pgrepo.NewUserRepo(pool)
	eventRepo := pgrepo.NewEventRepo(pool)
	blockRepo := pgrepo.NewBlockRepo(pool)
	candidateRepo := pgrepo.NewCandidateRepo(pool)
	profileRepo := pgrepo.NewProfileRepo(pool)
	swipeRepo := pgrepo.NewSwipeRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	messageRepo := pgrepo.NewMessageRepo(pool)
	statsRepo := pgrepo.NewStatsRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, sessionRepo)

	notifyDeps := notifysvc.Dependencies{Contacts: userRepo, Logger: log}
	if cfg.Telegram.Token != "" {
		bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.Endpoint, httpclient.New(cfg.Telegram.HTTPTimeout))
		if err != nil {
			log.Warn("telegram bot init failed, notifications disabled", zap.Error(err))
		} else {
			log.Info("telegram notifications enabled", zap.String("bot", bot.Username()))
			notifyDeps.Sender = bot
		}
	}
	notifier := notifysvc.NewService(notifyDeps, notifysvc.Config{Timeout: cfg.Telegram.NotifyTimeout})

	rateLimiter := ratesvc.NewLimiter(rateRepo, map[string]ratesvc.Limits{
		ratesvc.ActionSwipe: {
			PerMinute: cfg.Matching.SwipeRate.PerMinute,
			Per10Sec:  cfg.Matching.SwipeRate.Per10Sec,
		},
		ratesvc.ActionMessage: {
			PerMinute: cfg.Matching.MessageRate.PerMinute,
			Per10Sec:  cfg.Matching.MessageRate.Per10Sec,
		},
	})

	eventService := eventsvc.NewService(eventRepo)
	blockService := blocksvc.NewService(blocksvc.Dependencies{
		Store:  blockRepo,
		Cache:  cacheRepo,
		Events: eventService,
		Logger: log,
	}, blocksvc.Config{CacheTTL: cfg.Matching.BlockCacheTTL})
	profileService := profilesvc.NewService(profilesvc.Dependencies{
		Store:  profileRepo,
		Photos: photoStorage,
		Logger: log,
	}, profilesvc.Config{PhotoURLTTL: cfg.Matching.PhotoURLTTL})
	discoveryService := discoverysvc.NewService(discoverysvc.Dependencies{
		Candidates:    candidateRepo,
		Registrations: eventService,
		Blocks:        blockService,
		Profiles:      profileService,
	}, discoverysvc.Config{
		DefaultLimit: cfg.Matching.DefaultPageLimit,
		MaxLimit:     cfg.Matching.MaxPageLimit,
	})
	swipeService := swipesvc.NewService(swipesvc.Dependencies{
		Swipes:        swipeRepo,
		Matches:       matchRepo,
		Registrations: eventService,
		Blocks:        blockService,
		RateLimiter:   rateLimiter,
		Notifier:      notifier,
	})
	matchService := matchsvc.NewService(matchsvc.Dependencies{
		Matches:       matchRepo,
		Registrations: eventService,
		Blocks:        blockService,
		Profiles:      profileService,
	})
	conversationService := convsvc.NewService(convsvc.Dependencies{
		Messages:      messageRepo,
		Matches:       matchService,
		Registrations: eventService,
		Blocks:        blockService,
		RateLimiter:   rateLimiter,
		Notifier:      notifier,
	}, convsvc.Config{
		DefaultLimit: cfg.Matching.DefaultPageLimit,
		MaxLimit:     cfg.Matching.MaxPageLimit,
	})
	statsService := statssvc.NewService(statssvc.Dependencies{
		Counts: statsRepo,
		Events: eventService,
		Cache:  cacheRepo,
		Logger: log,
	}, statssvc.Config{CacheTTL: cfg.Matching.StatsCacheTTL})

	RegisterRoutes(r, Dependencies{
		AuthService:         authService,
		DiscoveryService:    discoveryService,
		SwipeService:        swipeService,
		MatchService:        matchService,
		ConversationService: conversationService,
		BlockService:        blockService,
		StatsService:        statsService,
		Logger:              log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		notifier:   notifier,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, lets pending notifications finish and
// closes the stores.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	a.notifier.Wait()
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}

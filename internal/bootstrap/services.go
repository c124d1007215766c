package bootstrap

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/courseq/courseq/config"
	"github.com/courseq/courseq/internal/cas"
	"github.com/courseq/courseq/internal/data"
	"github.com/courseq/courseq/internal/directory"
	"github.com/courseq/courseq/internal/service"
	"github.com/courseq/courseq/internal/session"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth     *service.AuthService
	Courses  *service.CourseService
	Events   *service.EventService
	Queue    *service.QueueService
	Sessions *session.Store
	Cache    *data.RedisCacheRepo
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Users     *data.UserRepo
	Courses   *data.CourseRepo
	Events    *data.EventRepo
	Queue     *data.QueueRepo
	CacheRepo *data.RedisCacheRepo
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient) *serviceRepositories {
	return &serviceRepositories{
		Users:     data.NewUserRepo(db),
		Courses:   data.NewCourseRepo(db),
		Events:    data.NewEventRepo(db),
		Queue:     data.NewQueueRepo(db),
		CacheRepo: data.NewRedisCacheRepo(redisClient),
	}
}

// buildDirectoryClient wires the campus directory lookup used to
// auto-provision first-time logins. Returns nil when no directory endpoint
// is configured, in which case every first login goes through the
// onboarding form instead.
//
//nolint:ireturn // the lookup is consumed through the Lookuper port.
func buildDirectoryClient(cfg config.DirectoryConfig, cache directory.Cache, logger *slog.Logger) (directory.Lookuper, error) {
	if !cfg.Enabled() {
		logger.Info("directory lookups disabled, first logins use manual onboarding")
		return nil, nil
	}

	client, err := directory.NewClient(directory.ClientConfig{
		URL:    cfg.URL,
		APIKey: cfg.APIKey,
		Fields: directory.FieldMap{
			FirstName: cfg.FieldFirstName,
			LastName:  cfg.FieldLastName,
			Email:     cfg.FieldEmail,
			Year:      cfg.FieldYear,
		},
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, err
	}

	logger.Info("directory lookups enabled", "url", cfg.URL, "cache_ttl", cfg.CacheTTL)
	return directory.NewCachedClient(client, cache, cfg.CacheTTL, logger), nil
}

// BuildServices initializes all application services with their dependencies.
func BuildServices(deps ServiceDeps) (ServiceContainer, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	repos := buildRepositories(deps.DB, deps.RedisClient)

	casClient, err := cas.NewClient(cas.ClientConfig{
		BaseURL:              cfg.CAS.BaseURL,
		Version:              cfg.CAS.Version,
		ValidatePathOverride: cfg.CAS.ValidatePath,
		HTTPClient:           &http.Client{Timeout: 10 * time.Second},
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	resolver := cas.ServiceResolver{
		Origin:       cfg.HTTP.Origin,
		CallbackPath: cfg.CAS.CallbackPath,
	}

	lookup, err := buildDirectoryClient(cfg.Directory, repos.CacheRepo, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	verifier := service.NewAccountVerifier(service.AccountVerifierOptions{
		Users:     repos.Users,
		Directory: lookup,
		Logger:    logger,
	})

	sessions, err := session.NewStore(session.Config{
		CookieName: cfg.Session.CookieName,
		Secrets:    cfg.Session.Secrets,
		MaxAge:     cfg.Session.MaxAge,
		Secure:     cfg.Session.Secure,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	return ServiceContainer{
		Auth: service.NewAuthService(service.AuthServiceOptions{
			Client:   casClient,
			Resolver: resolver,
			Verifier: verifier,
			Users:    repos.Users,
			Logger:   logger,
		}),
		Courses: service.NewCourseService(service.CourseServiceOptions{
			Courses: repos.Courses,
			Events:  repos.Events,
		}),
		Events: service.NewEventService(service.EventServiceOptions{
			Courses: repos.Courses,
			Events:  repos.Events,
		}),
		Queue: service.NewQueueService(service.QueueServiceOptions{
			Courses: repos.Courses,
			Events:  repos.Events,
			Queue:   repos.Queue,
		}),
		Sessions: sessions,
		Cache:    repos.CacheRepo,
	}, nil
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/readlingo/readlingo/core"
	billingmod "github.com/readlingo/readlingo/modules/billing"
	"github.com/readlingo/readlingo/modules/translate"
	"github.com/readlingo/readlingo/pkg/billing"
	"github.com/readlingo/readlingo/pkg/config"
	"github.com/readlingo/readlingo/pkg/httpserver"
	"github.com/readlingo/readlingo/pkg/jwt"
	"github.com/readlingo/readlingo/pkg/logger"
	"github.com/readlingo/readlingo/pkg/membership"
	"github.com/readlingo/readlingo/pkg/mongo"
	"github.com/readlingo/readlingo/pkg/redis"
)

// appConfig holds the secrets that belong to no single package.
type appConfig struct {
	JWTSigningKey string `env:"JWT_SIGNING_KEY,required"`
}

func main() {
	ctx := context.Background()

	var (
		appCfg    appConfig
		logCfg    logger.Config
		mongoCfg  mongo.Config
		redisCfg  redis.Config
		httpCfg   httpserver.Config
		billCfg   billing.Config
		moduleCfg billingmod.Config
		transCfg  translate.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&logCfg)
	config.MustLoad(&mongoCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&billCfg)
	config.MustLoad(&moduleCfg)
	config.MustLoad(&transCfg)

	log := logger.New(logCfg)
	slog.SetDefault(log)

	db, err := mongo.Connect(ctx, mongoCfg)
	if err != nil {
		log.Error("failed to connect to mongo", slog.Any("error", err))
		os.Exit(1)
	}

	cache, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		log.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}

	provider, err := billing.NewStripeProvider(billCfg)
	if err != nil {
		log.Error("failed to initialize billing provider", slog.Any("error", err))
		os.Exit(1)
	}

	tokens, err := jwt.New(appCfg.JWTSigningKey)
	if err != nil {
		log.Error("failed to initialize token service", slog.Any("error", err))
		os.Exit(1)
	}

	gemini, err := translate.NewGeminiTranslator(ctx, transCfg)
	if err != nil {
		log.Error("failed to initialize translator", slog.Any("error", err))
		os.Exit(1)
	}
	translator := translate.NewCachedTranslator(gemini, cache, transCfg.CacheTTL, log)

	store := membership.NewMongoStore(db)
	billingHandlers := billingmod.NewHandlers(store, provider, billCfg, moduleCfg, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthHandler(mongo.Healthcheck(db), redis.Healthcheck(cache)))
	r.Route("/api", func(api chi.Router) {
		billingmod.Routes(api, billingHandlers, tokens)
		translate.Routes(api, translate.NewHandlers(translator))
	})

	srv := httpserver.New(httpCfg, log)
	if err := srv.Run(ctx, r); err != nil {
		log.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func healthHandler(checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				core.WriteError(w, http.StatusServiceUnavailable, core.ErrServiceUnavailable.Code, "Dependency unhealthy", err.Error())
				return
			}
		}
		core.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

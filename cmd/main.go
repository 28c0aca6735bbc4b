package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"supportbot/internal/chat"
	"supportbot/internal/config"
	"supportbot/internal/history"
	"supportbot/internal/knowledge"
	"supportbot/internal/model"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// --- cache tier (optional) ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	defer rdb.Close()
	var cache history.Cache
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, running without cache tier", zap.Error(err))
	} else {
		cache = history.NewRedisCache(rdb)
	}

	// --- durable tier ---
	var durable history.Durable
	switch cfg.StoreDriver {
	case "postgres":
		if cfg.PostgresDSN == "" {
			log.Fatal("DATABASE_URL is not set")
		}
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Fatal("postgres open", zap.Error(err))
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal("postgres ping", zap.Error(err))
		}
		pg := history.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal("postgres schema", zap.Error(err))
		}
		durable = pg
	case "mongo", "":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal("mongo connect", zap.Error(err))
		}
		defer func() {
			dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer dcancel()
			_ = client.Disconnect(dctx)
		}()
		if err := client.Ping(ctx, nil); err != nil {
			log.Fatal("mongo ping", zap.Error(err))
		}
		durable = history.NewMongoStore(client.Database(cfg.MongoDB))
	default:
		log.Fatal("unsupported STORE_DRIVER", zap.String("driver", cfg.StoreDriver))
	}

	// --- knowledge corpus ---
	corpora, err := knowledge.LoadDir(cfg.KnowledgeDir)
	if err != nil {
		log.Fatal("knowledge load", zap.Error(err))
	}
	index := knowledge.NewIndex(corpora)
	log.Info("knowledge corpus loaded", zap.Strings("domains", index.Domains()))

	// --- model ---
	provider, err := model.NewProvider(model.ProviderConfig{
		Provider:     cfg.ModelProvider,
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		OpenAIModel:  cfg.OpenAIModel,
		Timeout:      cfg.ModelTimeout,
	})
	if err != nil {
		log.Fatal("model provider", zap.Error(err))
	}
	generator := model.NewClient(provider, log, cfg.ModelTimeout)
	log.Info("model provider ready", zap.String("provider", provider.Name()))

	// --- chat module wiring ---
	store := history.NewStore(cache, durable, log)
	var observer *chat.Observer
	if cfg.ObserverURL != "" {
		observer = chat.NewObserver(cfg.ObserverURL, log)
	}
	svc := chat.NewService(index, store, generator, observer, log)
	handler := chat.NewHandler(svc, store)

	// --- router ---
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	chat.RegisterRoutes(r, handler)

	// --- health ---
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info("listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown incomplete", zap.Error(err))
	}
}

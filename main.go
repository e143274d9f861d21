package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/BrewReview/BR-Backend/internal/auth"
	"github.com/BrewReview/BR-Backend/internal/auth/oauth"
	"github.com/BrewReview/BR-Backend/internal/config"
	"github.com/BrewReview/BR-Backend/internal/db"
	"github.com/BrewReview/BR-Backend/internal/events"
	"github.com/BrewReview/BR-Backend/internal/middleware"
	"github.com/BrewReview/BR-Backend/internal/moderation"
	"github.com/BrewReview/BR-Backend/internal/reviews"
	"github.com/BrewReview/BR-Backend/internal/roles"
	"github.com/BrewReview/BR-Backend/internal/twofactor"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	conn, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := auth.Init(conn); err != nil {
		log.Fatalf("Failed to init auth: %v", err)
	}
	if err := roles.Init(conn); err != nil {
		log.Fatalf("Failed to init roles: %v", err)
	}
	if err := reviews.Init(conn); err != nil {
		log.Fatalf("Failed to init reviews: %v", err)
	}
	if err := moderation.Init(conn); err != nil {
		log.Fatalf("Failed to init moderation: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}

	// Sessions live in redis when REDIS_ADDR is set, otherwise in postgres.
	var sessionPersistence auth.SessionPersistence
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		sessionPersistence = auth.NewRedisSessionPersistence(client)
		log.Println("Sessions backed by redis")
	} else {
		sessionPersistence = auth.NewGormSessionPersistence(conn)
	}
	sessions := auth.NewSessionStore(sessionPersistence)

	providers := make(map[string]oauth.Provider)
	for name, pc := range cfg.OAuth {
		provider, err := oauth.New(oauth.Config{
			Name:         name,
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			AuthURL:      pc.AuthURL,
			TokenURL:     pc.TokenURL,
			UserInfoURL:  pc.UserInfoURL,
			RedirectURL:  pc.RedirectURL,
			Scopes:       pc.Scopes,
		})
		if err != nil {
			log.Fatalf("Failed to configure OAuth provider %s: %v", name, err)
		}
		providers[name] = provider
	}

	users := auth.NewGormUserStore(conn)
	accounts := auth.NewGormOAuthAccountStore(conn)
	authService := auth.NewService(users, accounts, sessions, providers)
	authHandler := auth.NewHandler(authService, users)

	roleStore := roles.NewStore(conn)
	roleProcessor := roles.NewProcessor(roleStore, roleStore, roleStore)
	roleHandler := roles.NewHandler(roleStore, roleProcessor)

	reviewStore := reviews.NewStore(conn)
	reviewHandler := reviews.NewHandler(reviewStore, cfg.Moderation.FlagHideThreshold)

	publisher := events.NewPublisherFromEnv()
	if publisher != nil {
		log.Println("Moderation events published to rabbitmq")
	}
	var classifier moderation.Classifier
	if cfg.Moderation.ClassifierURL != "" {
		classifier = moderation.NewHTTPClassifier(cfg.Moderation.ClassifierURL, cfg.Moderation.ClassifierKey)
	}
	engine := moderation.NewEngine(
		&moderation.GormWordStore{DB: conn},
		reviewStore, users, publisher, classifier,
		cfg.Moderation.HateThreshold,
	)
	if err := engine.LoadWordSet(); err != nil {
		log.Fatalf("Failed to load offensive words: %v", err)
	}
	moderationHandler := moderation.NewHandler(engine, reviewStore)

	totpEngine := twofactor.NewEngine(cfg.TOTP.Issuer, cfg.TOTP.SecretLength, cfg.TOTP.PeriodSec, nil)
	totpHandler := twofactor.NewHandler(totpEngine, users)

	// Clear out upgrade requests left behind by bans.
	if removed, err := roleProcessor.SweepBanned(); err != nil {
		log.Printf("Upgrade-request sweep finished with errors: %v", err)
	} else if removed > 0 {
		log.Printf("Swept %d upgrade requests from banned users", removed)
	}

	session := middleware.SessionMiddleware(auth.NewSessionInfo(sessions))
	admin := middleware.AdminMiddleware(roleStore)
	loginLimit := middleware.NewRateLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst).Middleware

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes(authHandler, session, admin, loginLimit))
	r.Mount("/auth/2fa", twofactor.SetupRoutes(totpHandler, session))
	r.Mount("/reviews", reviews.SetupRoutes(reviewHandler, session))
	r.Mount("/moderation", moderation.SetupRoutes(moderationHandler, session, admin))
	r.Mount("/roles", roles.SetupRoutes(roleHandler, session, admin))

	fmt.Println("Server listening on port :" + port + "...")

	if err := http.ListenAndServe("0.0.0.0:"+port, r); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

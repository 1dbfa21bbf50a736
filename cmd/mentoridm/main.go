package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jinzhu/copier"
	"github.com/lmittmann/tint"

	"github.com/mentorhub/mentor-idm/pkg/account"
	"github.com/mentorhub/mentor-idm/pkg/config"
	"github.com/mentorhub/mentor-idm/pkg/identity"
	"github.com/mentorhub/mentor-idm/pkg/kvstore"
	"github.com/mentorhub/mentor-idm/pkg/loginflow"
	"github.com/mentorhub/mentor-idm/pkg/ratelimit"
	"github.com/mentorhub/mentor-idm/pkg/signup"
	"github.com/mentorhub/mentor-idm/pkg/totp"
	"github.com/mentorhub/mentor-idm/pkg/twofa"
	twofaapi "github.com/mentorhub/mentor-idm/pkg/twofa/api"
)

func main() {
	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	cfg := config.Config{}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed reading config", "error", err)
		os.Exit(1)
	}

	store, err := kvstore.NewStore(cfg.Store.Type, kvstore.Config{DataDir: cfg.Store.DataDir})
	if err != nil {
		slog.Error("Failed creating store", "type", cfg.Store.Type, "error", err)
		os.Exit(1)
	}

	accountService := account.NewService(account.NewKVRepository(store))

	engine := totp.NewEngine(
		totp.WithIssuer(cfg.TwoFa.Issuer),
		totp.WithSkew(cfg.TwoFa.Skew),
	)
	twoFaService := twofa.NewTwoFaService(
		twofa.NewKVRepository(store),
		accountService,
		twofa.WithEngine(engine),
	)

	sessionExpiry, err := cfg.JWT.ParseSessionExpiry()
	if err != nil {
		slog.Error("Invalid session expiry", "value", cfg.JWT.SessionExpiry, "error", err)
		os.Exit(1)
	}
	tempTokenExpiry, err := cfg.JWT.ParseTempTokenExpiry()
	if err != nil {
		slog.Error("Invalid temp token expiry", "value", cfg.JWT.TempTokenExpiry, "error", err)
		os.Exit(1)
	}
	provider := identity.NewLocalProvider(accountService, cfg.JWT.Secret,
		identity.WithIssuer(cfg.JWT.Issuer),
		identity.WithSessionExpiry(sessionExpiry),
		identity.WithTempTokenExpiry(tempTokenExpiry),
	)

	flowService := loginflow.NewLoginFlowService(provider, twoFaService, accountService)
	signupService := signup.NewSignupService(accountService,
		signup.WithTwoFactorService(twoFaService),
		signup.WithRegistrationEnabled(cfg.Signup.RegistrationEnabled),
		signup.WithMinPasswordLength(cfg.Signup.MinPasswordLength),
	)

	tokenAuth := jwtauth.New("HS256", []byte(cfg.JWT.Secret), nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(httplog.RequestLogger(httplog.NewLogger("mentor-idm", httplog.Options{
		LogLevel: slog.LevelInfo,
		Concise:  true,
	})))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	// Verifier only parses a bearer token into the context; enforcement stays
	// with Authenticator on the protected group. Running it first lets the
	// per-account rate limit key off the session subject.
	r.Use(jwtauth.Verifier(tokenAuth))
	r.Use(rateLimiter(cfg.RateLimit).Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Mount("/2fa", twofaapi.Routes(twofaapi.NewHandle(twoFaService)))
		r.Mount("/signup", signup.Routes(signup.NewHandle(signupService)))
		r.Mount("/", loginflow.Routes(loginflow.NewHandle(flowService)))

		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Authenticator(tokenAuth))
			r.Get("/me", meHandler(accountService))
		})
	})

	slog.Info("Starting mentor-idm", "addr", cfg.Server.Addr(), "store", cfg.Store.Type)
	if err := http.ListenAndServe(cfg.Server.Addr(), r); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func rateLimiter(cfg config.RateLimitConfig) *ratelimit.Middleware {
	rlConfig := ratelimit.DefaultConfig()
	copier.Copy(rlConfig, &cfg)
	rlConfig.EndpointLimits = map[string]ratelimit.EndpointLimit{
		"POST /auth/login":      {Capacity: cfg.LoginCapacity, RefillRate: cfg.LoginRefillRate},
		"POST /auth/login/2fa":  {Capacity: cfg.VerifyCapacity, RefillRate: cfg.VerifyRefillRate},
		"POST /auth/2fa/verify": {Capacity: cfg.VerifyCapacity, RefillRate: cfg.VerifyRefillRate},
		"POST /auth/signup":     {Capacity: cfg.SignupCapacity, RefillRate: cfg.SignupRefillRate},
	}
	return ratelimit.NewMiddleware(rlConfig)
}

func meHandler(accounts *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		sub, _ := claims["sub"].(string)
		accountID, err := uuid.Parse(sub)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		acct, err := accounts.GetAccount(r.Context(), accountID)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		render.JSON(w, r, map[string]string{
			"id":    acct.ID.String(),
			"email": acct.Email,
			"role":  string(acct.Role),
		})
	}
}

package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitChallengeAPI/handlers"
	"fitChallengeAPI/internal/auth"
	"fitChallengeAPI/internal/clock"
	"fitChallengeAPI/internal/config"
	"fitChallengeAPI/internal/notification"
	"fitChallengeAPI/middleware"
	"fitChallengeAPI/services"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	Port            string
	DuplicatePolicy string
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if opts.Port != "" {
				cfg.Port = opts.Port
			}
			if opts.DuplicatePolicy != "" {
				cfg.DuplicatePolicy = config.DuplicatePolicy(opts.DuplicatePolicy)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&opts.Port, "port", "", "listen port, overrides PORT")
	cmd.Flags().StringVar(&opts.DuplicatePolicy, "duplicate-policy", "", "reject|upsert|allow-multiple, overrides ENROLLMENT_DUPLICATE_POLICY")

	return cmd
}

func runServe(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		log.Println("Closing store...")
		st.Close()
	}()

	clk := clock.Real()
	middleware.InitPrometheus(prometheus.DefaultRegisterer)
	services.InitMetrics(prometheus.DefaultRegisterer)

	tokens := auth.NewTokens(cfg.JWTSecret, clk)
	var verifier auth.Verifier = tokens
	if cfg.AuthProvider == "clerk" {
		clerk.SetKey(cfg.ClerkSecretKey)
		verifier = middleware.NewClerkVerifier(st)
		log.Println("Clerk initialized successfully")
	}

	dispatcher := services.NewNotificationDispatcher(st)
	defer dispatcher.Stop()

	fcmService, err := notification.NewFCMService(ctx, cfg.FCMKeyFile)
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
		dispatcher.SetPushProvider(services.LogPushProvider{})
	} else {
		dispatcher.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	challengeService := services.NewChallengeService(st, clk, cfg.InviteLinkPrefix)
	enrollmentService := services.NewEnrollmentService(st, clk, cfg.DuplicatePolicy)
	progressService := services.NewProgressService(st, clk, cfg.StrictDays)
	progressService.SetNotifier(dispatcher)
	userService := services.NewUserService(st, tokens, clk)
	postService := services.NewPostService(st, clk)
	postService.SetNotifier(dispatcher)

	var webhookHandler *handlers.WebhookHandler
	if cfg.ClerkWebhookSecret != "" {
		webhookHandler, err = handlers.NewWebhookHandler(userService, cfg.ClerkWebhookSecret, clk)
		if err != nil {
			return err
		}
		log.Println("Clerk webhook enabled")
	}

	log.Printf("Enrollment duplicate policy: %s, strict days: %v", cfg.DuplicatePolicy, cfg.StrictDays)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Cleanup(ctx)

	router := handlers.NewRouter(handlers.RouterConfig{
		Challenges:     handlers.NewChallengeHandler(challengeService, enrollmentService, progressService),
		Progress:       handlers.NewProgressHandler(progressService),
		Users:          handlers.NewUserHandler(userService),
		Posts:          handlers.NewPostHandler(postService),
		Webhooks:       webhookHandler,
		Verifier:       verifier,
		Limiter:        limiter,
		MetricsUser:    cfg.MetricsUser,
		MetricsPass:    cfg.MetricsPass,
		Health:         st.Ping,
		AllowedOrigins: cfg.AllowedOrigins,
		AccessLog:      os.Stdout,
	})

	server := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Println("Shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
	return nil
}

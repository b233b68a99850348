// Package main is the entry point for the school website server.
// It loads configuration, connects to services, warms the content catalog,
// sets up routing, and starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schoolsite/internal/cache"
	"schoolsite/internal/catalog"
	"schoolsite/internal/config"
	"schoolsite/internal/content"
	"schoolsite/internal/database"
	"schoolsite/internal/handlers"
	"schoolsite/internal/mail"
	"schoolsite/internal/middleware"
	"schoolsite/internal/normalize"
	"schoolsite/internal/notify"
	"schoolsite/internal/render"
	"schoolsite/internal/router"
	"schoolsite/internal/session"
	"schoolsite/internal/store"
)

const (
	notificationTTL   = 5 * time.Second
	notificationPrune = 30 * time.Second

	formSubmissionsPerWindow = 5
	formWindow               = time.Minute

	mailRetryInterval = 5 * time.Minute
	mailRetryBatch    = 20
)

func main() {
	// Load configuration from environment variables (and .env if present).
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: outputs JSON in production, text in development.
	var handler slog.Handler
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"cms", cfg.CMSURL,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL.
	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Connect to Valkey (page cache + session store).
	valkeyClient, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)
	pageCache := cache.NewPageCache(valkeyClient, cache.DefaultPageTTL)

	notifier := notify.NewCenter(notificationTTL)
	go notifier.Run(ctx, notificationPrune)

	// Content client, normalizer and the in-memory catalog of collections.
	cms := content.New(content.Config{
		BaseURL:  cfg.APIURL(),
		Timeout:  cfg.CMSTimeout,
		Notifier: notifier,
	})
	cat := catalog.New(cms, normalize.New(cfg.MediaURL))

	// The site still starts when the CMS is down; pages retry on demand.
	if err := cat.LoadAll(ctx); err != nil {
		slog.Warn("initial catalog load incomplete", "error", err)
	}
	go cat.Run(ctx, cfg.CatalogRefresh)

	renderer, err := render.New(cfg.SiteName)
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	sender, err := mail.New(mail.Config{
		Provider:          cfg.MailProvider,
		EmailJSServiceID:  cfg.EmailJSServiceID,
		EmailJSTemplateID: cfg.EmailJSTemplateID,
		EmailJSPublicKey:  cfg.EmailJSPublicKey,
		EmailJSBaseURL:    cfg.EmailJSBaseURL,
		SMTPHost:          cfg.SMTPHost,
		SMTPPort:          cfg.SMTPPort,
		SMTPUser:          cfg.SMTPUser,
		SMTPPassword:      cfg.SMTPPassword,
		From:              cfg.MailFrom,
		To:                cfg.ContactTo,
	})
	if err != nil {
		slog.Error("failed to initialize mail delivery", "error", err)
		os.Exit(1)
	}
	if sender == nil {
		slog.Warn("no mail provider configured, contact messages are only stored")
	}

	// Initialize data stores.
	messageStore := store.NewMessageStore(db)
	webhookLog := store.NewWebhookLogStore(db)

	limiter := middleware.NewRateLimiter(formSubmissionsPerWindow, formWindow)
	defer limiter.Stop()

	contact := handlers.NewContact(renderer, messageStore, sender, notifier, cfg.ContactTo)
	go contact.RunRetry(ctx, mailRetryInterval, mailRetryBatch)

	public := handlers.NewPublic(renderer, cat, cms, notifier, pageCache, sessionStore, cfg.PageSize)

	r := router.New(router.Deps{
		Sessions:      sessionStore,
		Public:        public,
		Contact:       contact,
		Auth:          handlers.NewAuth(renderer, sessionStore, cms, notifier),
		Webhook:       handlers.NewWebhook(cfg.CMSWebhookSecret, cat, pageCache, webhookLog),
		FormLimiter:   limiter,
		MediaOrigin:   cfg.MediaURL,
		SecureCookies: secureCookies,
	})

	// WriteTimeout covers a page that waits on the CMS for a full
	// collection load before rendering.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.CMSTimeout + 20*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	<-ctx.Done()
	slog.Info("shutdown signal received")

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// Package app wires the storage, domain services and HTTP router shared by
// the server and the stockctl CLI.
package app

import (
	"context"
	"fmt"
	"net/http"

	"stockroom/internal/config"
	"stockroom/internal/core/i18n"
	"stockroom/internal/domain/auth"
	"stockroom/internal/domain/backup"
	"stockroom/internal/domain/importer"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/reports"
	"stockroom/internal/domain/settings"
	"stockroom/internal/infrastructure/cache"
	v1 "stockroom/internal/infrastructure/http/v1"
	"stockroom/internal/infrastructure/print"
	"stockroom/internal/infrastructure/storage/postgres"
	"stockroom/internal/infrastructure/storage/postgres/auth_repo"
	"stockroom/internal/infrastructure/storage/postgres/document_repo"
	"stockroom/pkg/logger"
	"stockroom/pkg/numerator"
)

// App holds the assembled services.
type App struct {
	Config *config.Config
	Log    *logger.Logger
	Bundle *i18n.Bundle

	Pool      *postgres.Pool
	TxManager *postgres.TxManager

	Users     *auth_repo.UserRepo
	JWT       *auth.JWTService
	Auth      *auth.Service
	Inventory *inventory.Service
	Settings  *settings.Service
	Reports   *reports.Service
	Importer  *importer.Service
	Backup    *backup.Service
	Renderer  *print.HTMLRenderer
	Drafts    *cache.DraftCache

	listener *cache.SettingsListener
}

// New connects to the database and builds every service. Migrations are
// not applied; call Migrate.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	if cfg.DBMaxConns > 0 {
		poolCfg.MaxConns = cfg.DBMaxConns
	}
	if cfg.DBMinConns > 0 {
		poolCfg.MinConns = cfg.DBMinConns
	}
	if cfg.DBConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.DBConnLifetime
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	txm := postgres.NewTxManager(pool)
	txm.SetStatementTimeout(cfg.StatementTimout)

	bundle := i18n.Default().WithFallback(cfg.DefaultLocale)
	loc := cfg.Location()

	jwtCfg := auth.DefaultJWTConfig(cfg.JWTSecret)
	if cfg.JWTIssuer != "" {
		jwtCfg.Issuer = cfg.JWTIssuer
	}
	if cfg.AccessTokenTTL > 0 {
		jwtCfg.AccessTokenTTL = cfg.AccessTokenTTL
	}
	jwtService := auth.NewJWTService(jwtCfg)

	authCfg := auth.DefaultServiceConfig()
	if cfg.LoginMaxAttempts > 0 {
		authCfg.MaxLoginAttempts = cfg.LoginMaxAttempts
	}
	if cfg.LoginLockDuration > 0 {
		authCfg.LockDuration = cfg.LoginLockDuration
	}
	authCfg.DefaultLocale = bundle.Normalize(cfg.DefaultLocale)

	users := auth_repo.NewUserRepo(txm)
	authService := auth.NewService(users, txm, jwtService, bundle, authCfg)

	numbers := numerator.NewWithResolver(txm.NumeratorQuerier)
	inventoryService := inventory.NewService(document_repo.NewRepositories(txm), txm, numbers)

	store := settings.NewStore(postgres.NewSettingsRepo(txm), cfg.SettingsQuotaBytes)
	settingsService := settings.NewService(store)

	renderer, err := print.NewHTMLRenderer()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("load print templates: %w", err)
	}

	catalog, err := reports.NewSubSourceCatalog()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("compile sub-sources: %w", err)
	}
	reportsService := reports.NewService(
		settingsService,
		reports.NewStoreReader(inventoryService, authService),
		catalog,
		bundle,
		renderer,
		loc,
	)

	backupService, err := backup.NewService(inventoryService, users, store, txm)
	if err != nil {
		pool.Close()
		return nil, err
	}

	a := &App{
		Config:    cfg,
		Log:       log,
		Bundle:    bundle,
		Pool:      pool,
		TxManager: txm,
		Users:     users,
		JWT:       jwtService,
		Auth:      authService,
		Inventory: inventoryService,
		Settings:  settingsService,
		Reports:   reportsService,
		Importer:  importer.NewService(inventoryService),
		Backup:    backupService,
		Renderer:  renderer,
		Drafts:    cache.NewDraftCache(cfg.DraftTTL),
	}
	if cfg.SettingsListen {
		a.listener = cache.NewSettingsListener(pool.Pool, postgres.SettingsChannel, store)
	}
	return a, nil
}

// Migrate applies pending schema migrations.
func (a *App) Migrate(ctx context.Context) ([]string, error) {
	return postgres.Migrate(ctx, a.TxManager)
}

// LoadSettings reads the persisted settings into the store.
func (a *App) LoadSettings(ctx context.Context) error {
	snap, err := a.Settings.Store().Reload(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	logger.Info(ctx, "settings loaded", "version", snap.Version)
	return nil
}

// EnsureAdmin seeds the configured admin account into an empty user table.
func (a *App) EnsureAdmin(ctx context.Context) error {
	if a.Config.AdminPassword == "" {
		return nil
	}
	created, err := a.Auth.EnsureAdmin(ctx, a.Config.AdminUsername, a.Config.AdminPassword)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		logger.Info(ctx, "admin account created", "username", a.Config.AdminUsername)
	}
	return nil
}

// Router builds the HTTP API.
func (a *App) Router() http.Handler {
	return v1.NewRouter(v1.RouterConfig{
		Logger:           a.Log,
		JWTValidator:     a.JWT,
		Bundle:           a.Bundle,
		Database:         a.Pool,
		AuthService:      a.Auth,
		InventoryService: a.Inventory,
		ReportsService:   a.Reports,
		SettingsService:  a.Settings,
		Importer:         a.Importer,
		Backup:           a.Backup,
		Drafts:           a.Drafts,
		Renderer:         a.Renderer,
		Location:         a.Config.Location(),
		MaxUploadBytes:   a.Config.MaxUploadBytes,
		Debug:            a.Config.IsDevelopment(),
	})
}

// Start launches background workers: draft expiry and the settings listener.
func (a *App) Start(ctx context.Context) {
	a.Drafts.Start(ctx)
	if a.listener != nil {
		a.listener.Start(ctx)
	}
}

// Close stops background workers and closes the pool.
func (a *App) Close() {
	if a.listener != nil {
		a.listener.Stop()
	}
	a.Drafts.Stop()
	a.Pool.Close()
}

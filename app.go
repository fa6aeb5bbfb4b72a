package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"bma/internal/auth"
	"bma/internal/config"
	"bma/internal/database"
	"bma/internal/deeplink"
	"bma/internal/keystore"
	"bma/internal/security"
	"bma/internal/supabase"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// App struct — ponto central do Wails, conecta todos os services
type App struct {
	ctx             context.Context
	db              *database.Service
	coordinator     *auth.Coordinator
	settings        *config.Settings
	settingsWatcher *config.Watcher
	logSanitizer    *security.LogSanitizer

	mu           sync.Mutex
	authReady    bool
	pendingLinks []string
}

// NewApp creates a new App application struct
func NewApp() *App {
	return &App{}
}

// Startup is called when the app starts
// Inicializa banco, auth e emite evento de hydration para o frontend
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	log.Println("[BMA] Starting up...")

	// 1. Garantir diretórios existem
	if err := config.EnsureDataDirs(); err != nil {
		log.Printf("[BMA] Error creating data dirs: %v", err)
	}

	// 2. Inicializar sanitizer de logs
	a.logSanitizer = security.NewLogSanitizer()

	// 3. Inicializar banco de dados SQLite
	dbService, err := database.NewService()
	if err != nil {
		log.Printf("[BMA] Error initializing database: %v", err)
	} else {
		a.db = dbService
		log.Println("[BMA] Database initialized")
	}

	// 4. Carregar settings (.env com credenciais do Supabase)
	settings, err := config.LoadSettings()
	if err != nil {
		log.Printf("[BMA] Error loading settings: %v", err)
		a.emitEvent("config:error", err.Error())
		return
	}
	a.settings = settings

	// 4.1 Observar mudanças no .env para hot-reload de settings
	watcher, err := config.NewWatcher(config.EnvFilePath(), func(updated *config.Settings) {
		a.mu.Lock()
		a.settings = updated
		a.mu.Unlock()
		log.Println("[BMA] Settings reloaded")
		a.emitEvent("config:changed", nil)
	})
	if err != nil {
		log.Printf("[BMA] Could not watch settings file: %v", err)
	} else {
		a.settingsWatcher = watcher
	}

	// 5. Inicializar coordinator de auth
	backend := supabase.NewClient(settings.SupabaseURL, settings.SupabaseAnonKey)
	openBrowser := func(url string) error {
		runtime.BrowserOpenURL(a.ctx, url)
		return nil
	}

	a.coordinator = auth.NewCoordinator(auth.Options{
		Backend:     backend,
		Store:       keystore.NewStore(),
		Handoff:     auth.NewLoopbackHandoff(settings.CallbackPort, openBrowser),
		OpenBrowser: openBrowser,
		SiteURL:     settings.SiteURL,
		Recorder:    a.recordAuthAudit,
		OnProfile:   a.cacheProfile,
		OnPasswordRecovery: func() {
			a.emitEvent("auth:password_recovery", nil)
		},
	})

	a.coordinator.Subscribe(func(state auth.AuthState) {
		a.emitEvent("auth:changed", state)
	})

	// O bootstrap valida a sessão persistida contra o backend; roda fora do
	// startup do Wails para a janela abrir imediatamente (em loading).
	go func() {
		a.coordinator.Start(context.Background())
		log.Println("[BMA] Auth coordinator started")

		a.mu.Lock()
		a.authReady = true
		pending := a.pendingLinks
		a.pendingLinks = nil
		a.mu.Unlock()

		for _, link := range pending {
			a.routeDeepLink(link)
		}
	}()

	log.Println("[BMA] Startup complete")
}

// DomReady is called when the frontend DOM is ready
func (a *App) DomReady(ctx context.Context) {
	log.Println("[BMA] DOM Ready")

	// Emitir evento de hydration para o frontend quando ele estiver pronto
	a.emitHydration()
}

// Shutdown is called when the app is shutting down
func (a *App) Shutdown(ctx context.Context) {
	log.Println("[BMA] Shutting down...")

	if a.settingsWatcher != nil {
		if err := a.settingsWatcher.Close(); err != nil {
			log.Printf("[BMA] Error closing settings watcher: %v", err)
		}
	}

	if a.coordinator != nil {
		a.coordinator.Dispose()
	}

	// Fechar conexão com banco
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Printf("[BMA] Error closing database: %v", err)
		}
	}
}

// emitEvent emite um evento para o frontend. Seguro antes do ctx existir
// (testes e startup parcial).
func (a *App) emitEvent(eventName string, data interface{}) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventName, data)
}

// recordAuthAudit persiste cada transição de auth com detalhe sanitizado
func (a *App) recordAuthAudit(kind, detail string) {
	if a.db == nil {
		return
	}
	if err := a.db.SaveAuthAudit(&database.AuthAudit{
		Kind:   kind,
		Detail: a.logSanitizer.Sanitize(detail),
	}); err != nil {
		log.Printf("[BMA] Failed to record auth audit: %v", err)
	}
}

// cacheProfile guarda o último perfil autenticado para exibição offline
func (a *App) cacheProfile(user *auth.User, provider string) {
	if a.db == nil || user == nil {
		return
	}
	if err := a.db.UpsertCachedProfile(&database.CachedProfile{
		UserID:   user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Avatar:   user.Avatar,
		Provider: provider,
	}); err != nil {
		log.Printf("[BMA] Failed to cache profile: %v", err)
	}
}

// emitHydration envia o estado inicial para o frontend
func (a *App) emitHydration() {
	payload := a.getHydrationPayload()
	a.emitEvent("app:hydrated", payload)
	log.Println("[BMA] Hydration emitted")
}

// HydrationPayload é o payload enviado ao frontend no startup
type HydrationPayload struct {
	Auth                auth.AuthState `json:"auth"`
	Theme               string         `json:"theme"`
	Language            string         `json:"language"`
	OnboardingCompleted bool           `json:"onboardingCompleted"`
	Version             string         `json:"version"`
}

// getHydrationPayload constrói o payload inicial
func (a *App) getHydrationPayload() HydrationPayload {
	payload := HydrationPayload{
		Auth:     auth.AuthState{IsLoading: true},
		Theme:    "system",
		Language: "en-US",
		Version:  config.AppVersion,
	}

	if a.coordinator != nil {
		payload.Auth = a.coordinator.GetState()
	}

	// Carregar configurações do banco
	if a.db != nil {
		if cfg, err := a.db.GetConfig(); err == nil {
			payload.Theme = cfg.Theme
			if cfg.Language != "" {
				payload.Language = cfg.Language
			}
			payload.OnboardingCompleted = cfg.OnboardingCompleted
		}
	}

	return payload
}

// === Auth Bindings (expostos ao Frontend) ===

// AuthLogin autentica com e-mail e senha
func (a *App) AuthLogin(email, password string) auth.AuthResult {
	if a.coordinator == nil {
		return auth.AuthResult{Success: false, Error: "auth service not initialized"}
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return auth.AuthResult{Success: false, Error: "Please fill in all fields"}
	}

	return a.coordinator.Login(a.ctx, email, password)
}

// AuthSignUp cria uma nova conta
func (a *App) AuthSignUp(email, password, name string) auth.AuthResult {
	if a.coordinator == nil {
		return auth.AuthResult{Success: false, Error: "auth service not initialized"}
	}

	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return auth.AuthResult{Success: false, Error: "Please fill in all fields"}
	}
	if len(password) < 6 {
		return auth.AuthResult{Success: false, Error: "Password must be at least 6 characters"}
	}

	return a.coordinator.SignUp(a.ctx, email, password, name)
}

// AuthLoginOAuth inicia o fluxo OAuth com o provider informado (google, apple)
func (a *App) AuthLoginOAuth(provider string) auth.AuthResult {
	if a.coordinator == nil {
		return auth.AuthResult{Success: false, Error: "auth service not initialized"}
	}

	result := a.coordinator.SignInWithOAuth(a.ctx, provider)
	if result.Success && result.Message == "" {
		runtime.WindowShow(a.ctx)
	}
	return result
}

// AuthLogout encerra a sessão do usuário
func (a *App) AuthLogout() error {
	if a.coordinator == nil {
		return fmt.Errorf("auth service not initialized")
	}

	a.coordinator.Logout(a.ctx)
	return nil
}

// AuthReloadUser rebusca o perfil do usuário autenticado no backend
func (a *App) AuthReloadUser() auth.AuthResult {
	if a.coordinator == nil {
		return auth.AuthResult{Success: false, Error: "auth service not initialized"}
	}
	return a.coordinator.ReloadUser(a.ctx)
}

// AuthResetPassword envia o e-mail de redefinição de senha
func (a *App) AuthResetPassword(email string) auth.AuthResult {
	if a.coordinator == nil {
		return auth.AuthResult{Success: false, Error: "auth service not initialized"}
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return auth.AuthResult{Success: false, Error: "Please fill in all fields"}
	}

	return a.coordinator.ResetPassword(a.ctx, email)
}

// GetAuthState retorna o snapshot atual do estado de auth
func (a *App) GetAuthState() auth.AuthState {
	if a.coordinator == nil {
		return auth.AuthState{IsLoading: true}
	}
	return a.coordinator.GetState()
}

// HandleDeepLink processa links bma2026:// (chamado pelo macOS e pela
// segunda instância). Links recebidos antes do coordinator ficar pronto
// são enfileirados e processados depois do bootstrap.
func (a *App) HandleDeepLink(urlStr string) {
	log.Printf("[BMA] Deep Link received: %s", a.logSanitizer.Sanitize(urlStr))

	urlStr = strings.TrimSpace(urlStr)
	if urlStr == "" {
		return
	}

	a.mu.Lock()
	if !a.authReady {
		a.pendingLinks = append(a.pendingLinks, urlStr)
		a.mu.Unlock()
		log.Println("[BMA] Deep link queued until auth is ready")
		return
	}
	a.mu.Unlock()

	a.routeDeepLink(urlStr)
}

// routeDeepLink despacha um deep link para o fluxo correspondente
func (a *App) routeDeepLink(urlStr string) {
	ctx := a.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case deeplink.IsPasswordRecovery(urlStr):
		a.coordinator.NotifyPasswordRecovery()

	case deeplink.IsAuthCallback(urlStr):
		result := a.coordinator.HandleAuthCallback(ctx, urlStr)
		if result.Success {
			log.Println("[BMA] Auth success via deep link")
			if a.ctx != nil {
				runtime.WindowShow(a.ctx)
			}
		} else {
			log.Printf("[BMA] Auth deep link failed: %s", result.Error)
			a.emitEvent("auth:error", result.Error)
		}

	default:
		confirmation, ok := deeplink.ParseEmailConfirmation(urlStr)
		if !ok {
			log.Printf("[BMA] Ignored unknown deep link")
			return
		}

		result := a.coordinator.ConfirmEmailToken(ctx, confirmation.TokenHash)
		if result.Success {
			log.Println("[BMA] Email confirmed via deep link")
			if a.ctx != nil {
				runtime.WindowShow(a.ctx)
			}
		} else {
			log.Printf("[BMA] Email confirmation failed: %s", result.Error)
			a.emitEvent("auth:error", result.Error)
		}
	}
}

// === Config Bindings (expostos ao Frontend) ===

// GetUserConfig retorna as preferências locais do usuário
func (a *App) GetUserConfig() (*database.UserConfig, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return a.db.GetConfig()
}

// UpdateUserConfig persiste preferências locais (tema, idioma, onboarding)
func (a *App) UpdateUserConfig(theme, language string, onboardingCompleted bool) error {
	if a.db == nil {
		return fmt.Errorf("database not initialized")
	}

	cfg, err := a.db.GetConfig()
	if err != nil {
		return err
	}

	if theme != "" {
		cfg.Theme = theme
	}
	if language != "" {
		cfg.Language = language
	}
	cfg.OnboardingCompleted = onboardingCompleted

	if err := a.db.UpdateConfig(cfg); err != nil {
		return err
	}

	a.emitEvent("config:changed", cfg)
	return nil
}

// GetCachedProfile retorna o último perfil autenticado (exibição offline)
func (a *App) GetCachedProfile() (*database.CachedProfile, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return a.db.GetCachedProfile()
}

// GetAuthAuditTrail retorna as últimas transições de auth registradas
func (a *App) GetAuthAuditTrail(limit int) ([]database.AuthAudit, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return a.db.ListAuthAudits(limit)
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"bma/internal/deeplink"
	"bma/internal/keystore"
	"bma/internal/supabase"
)

const (
	// refreshMargin é a antecedência com que o access token é renovado
	refreshMargin = 60 * time.Second

	genericErrorMessage = "An unexpected error occurred. Please try again."
)

// Backend é o contrato consumido do serviço de auth remoto
type Backend interface {
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Credentials, error)
	SignUp(ctx context.Context, params supabase.SignUpParams) (*supabase.SignUpData, error)
	AuthorizeURL(params supabase.OAuthParams) (string, error)
	ExchangeCode(ctx context.Context, code, verifier string) (*supabase.Credentials, error)
	ExchangeSession(ctx context.Context, accessToken, refreshToken string) (*supabase.Credentials, error)
	RefreshSession(ctx context.Context, refreshToken string) (*supabase.Credentials, error)
	CurrentUser(ctx context.Context, accessToken string) (*supabase.Principal, error)
	VerifyEmailToken(ctx context.Context, tokenHash string) (*supabase.Credentials, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
}

// TokenStore persiste o par de tokens entre execuções do app
type TokenStore interface {
	Save(pair keystore.TokenPair) error
	Load() (*keystore.TokenPair, error)
	Clear() error
}

// Options configura o Coordinator. Backend e Store são obrigatórios.
type Options struct {
	Backend Backend
	Store   TokenStore
	Handoff Handoff

	// OpenBrowser abre uma URL no browser externo (fallback do handoff)
	OpenBrowser func(url string) error

	// SiteURL é a base dos destinos web (reset de senha)
	SiteURL string

	// Recorder recebe cada transição para auditoria (opcional)
	Recorder func(kind, detail string)

	// OnProfile recebe o perfil a cada sign-in (cache local, opcional)
	OnProfile func(user *User, provider string)

	// OnPasswordRecovery sinaliza à UI para rotear ao formulário de senha
	OnPasswordRecovery func()
}

// sessionEvent é a unidade do push stream interno. Todo write de estado
// passa por aqui — um único chokepoint auditável.
type sessionEvent struct {
	kind  string
	creds *supabase.Credentials
	ack   chan struct{}
}

// Coordinator é a autoridade única sobre "este dispositivo está autenticado".
// Normaliza resposta de rede, callback de browser, deep link e refresh de
// token em um reducer serial.
type Coordinator struct {
	backend Backend
	store   TokenStore
	handoff Handoff
	opts    Options

	mu      sync.RWMutex
	session *Session
	user    *User
	loading bool

	listeners    map[int]func(AuthState)
	nextListener int

	events  chan sessionEvent
	done    chan struct{}
	started bool
}

// NewCoordinator cria um Coordinator parado; chame Start para inicializar
func NewCoordinator(opts Options) *Coordinator {
	return &Coordinator{
		backend:   opts.Backend,
		store:     opts.Store,
		handoff:   opts.Handoff,
		opts:      opts,
		loading:   true,
		listeners: make(map[int]func(AuthState)),
		events:    make(chan sessionEvent, 16),
		done:      make(chan struct{}),
	}
}

// Start executa o bootstrap de sessão e liga o reducer + auto refresh.
// Bloqueia até o primeiro check de sessão resolver; isLoading fica false
// depois disso, aconteça o que acontecer.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	go c.run()

	c.bootstrap(ctx)

	c.mu.Lock()
	c.loading = false
	snapshot := c.stateLocked()
	handlers := c.listenersLocked()
	c.mu.Unlock()
	notifyAll(handlers, snapshot)

	go c.autoRefreshLoop()
}

// Dispose libera o reducer, o auto refresh e os subscribers
func (c *Coordinator) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
	}
	close(c.done)
	c.listeners = make(map[int]func(AuthState))
}

// bootstrap recupera a sessão persistida e valida que a conta ainda existe.
// Qualquer falha resolve silenciosamente para deslogado — nunca chega à UI.
func (c *Coordinator) bootstrap(ctx context.Context) {
	pair, err := c.store.Load()
	if err != nil {
		if !errors.Is(err, keystore.ErrNoSession) {
			log.Printf("[AUTH] Could not load stored session: %v", err)
		}
		return
	}

	// Token vencido (ou quase): renovar antes de confiar nele
	if !pair.ExpiresAt.IsZero() && time.Until(pair.ExpiresAt) < refreshMargin {
		creds, refreshErr := c.backend.RefreshSession(ctx, pair.RefreshToken)
		if refreshErr != nil {
			log.Printf("[AUTH] Stored session refresh failed, signing out: %v", refreshErr)
			c.forceLocalSignOut(ctx, pair.AccessToken)
			return
		}
		c.dispatchWait(EventSignedIn, creds)
		return
	}

	// Liveness check: token estruturalmente válido pode apontar para conta
	// removida ou revogada.
	principal, err := c.backend.CurrentUser(ctx, pair.AccessToken)
	if err != nil {
		log.Printf("[AUTH] Stored session failed liveness check, signing out: %v", err)
		c.forceLocalSignOut(ctx, pair.AccessToken)
		return
	}

	expiresIn := int(time.Until(pair.ExpiresAt) / time.Second)
	c.dispatchWait(EventSignedIn, &supabase.Credentials{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    expiresIn,
		TokenType:    "bearer",
		User:         principal,
	})
}

// forceLocalSignOut limpa estado local e revoga a sessão remota best-effort
func (c *Coordinator) forceLocalSignOut(ctx context.Context, accessToken string) {
	if accessToken != "" {
		if err := c.backend.SignOut(ctx, accessToken); err != nil && !errors.Is(err, supabase.ErrSessionMissing) {
			log.Printf("[AUTH] Remote sign-out failed: %v", err)
		}
	}
	c.dispatchWait(EventSignedOut, nil)
}

// === Push stream (reducer serial) ===

func (c *Coordinator) run() {
	for {
		select {
		case evt := <-c.events:
			c.apply(evt.kind, evt.creds)
			if evt.ack != nil {
				close(evt.ack)
			}
		case <-c.done:
			return
		}
	}
}

func (c *Coordinator) dispatch(kind string, creds *supabase.Credentials) {
	select {
	case c.events <- sessionEvent{kind: kind, creds: creds}:
	case <-c.done:
	}
}

func (c *Coordinator) dispatchWait(kind string, creds *supabase.Credentials) {
	ack := make(chan struct{})
	select {
	case c.events <- sessionEvent{kind: kind, creds: creds, ack: ack}:
	case <-c.done:
		return
	}
	select {
	case <-ack:
	case <-c.done:
	}
}

// apply é o único escritor de session/user. Mapeia cada kind do push stream
// para a transição de estado correspondente.
func (c *Coordinator) apply(kind string, creds *supabase.Credentials) {
	c.mu.Lock()

	var persist *Session
	clearStore := false

	switch kind {
	case EventSignedOut:
		c.session = nil
		c.user = nil
		clearStore = true

	case EventPasswordRecovery:
		// Sinal puro para a UI — nenhuma mudança de estado

	case EventTokenRefreshed:
		// Refresh de token nunca muda identidade: só a sessão é substituída
		if c.session != nil {
			if refreshed := sessionFromCredentials(creds); refreshed != nil {
				if refreshed.Provider == "" {
					refreshed.Provider = c.session.Provider
				}
				c.session = refreshed
				persist = refreshed
			}
			break
		}
		fallthrough

	default:
		// SIGNED_IN, USER_UPDATED e kinds desconhecidos: substituir ambos
		// a partir do payload. Kind desconhecido é tratado como sign-in para
		// não descartar sessões válidas de eventos futuros.
		var session *Session
		var user *User
		if creds != nil {
			session = sessionFromCredentials(creds)
			user = mapPrincipal(creds.User)
		}
		// Invariante: session e user são nulos ou presentes juntos
		if session == nil || user == nil {
			session = nil
			user = nil
			clearStore = true
		} else {
			persist = session
		}
		c.session = session
		c.user = user
	}

	snapshot := c.stateLocked()
	user := c.user
	var provider string
	if c.session != nil {
		provider = c.session.Provider
	}
	handlers := c.listenersLocked()
	c.mu.Unlock()

	if persist != nil {
		if err := c.store.Save(keystore.TokenPair{
			AccessToken:  persist.AccessToken,
			RefreshToken: persist.RefreshToken,
			Provider:     persist.Provider,
			ExpiresAt:    persist.ExpiresAt,
		}); err != nil {
			log.Printf("[AUTH] Failed to persist session: %v", err)
		}
	}
	if clearStore {
		if err := c.store.Clear(); err != nil {
			log.Printf("[AUTH] Failed to clear stored session: %v", err)
		}
	}

	if c.opts.Recorder != nil {
		c.opts.Recorder(kind, describeTransition(kind, user))
	}
	if kind == EventPasswordRecovery && c.opts.OnPasswordRecovery != nil {
		c.opts.OnPasswordRecovery()
	}
	if user != nil && c.opts.OnProfile != nil && kind != EventPasswordRecovery {
		c.opts.OnProfile(user, provider)
	}

	if kind != EventPasswordRecovery {
		notifyAll(handlers, snapshot)
	}
}

func describeTransition(kind string, user *User) string {
	if user == nil {
		return kind
	}
	return fmt.Sprintf("%s user=%s", kind, user.ID)
}

// === Estado publicado ===

func (c *Coordinator) stateLocked() AuthState {
	state := AuthState{
		IsAuthenticated: c.session != nil && c.user != nil,
		IsLoading:       c.loading,
	}
	if c.user != nil {
		userCopy := *c.user
		state.User = &userCopy
	}
	if c.session != nil {
		state.Provider = c.session.Provider
	}
	return state
}

func (c *Coordinator) listenersLocked() []func(AuthState) {
	handlers := make([]func(AuthState), 0, len(c.listeners))
	for _, handler := range c.listeners {
		handlers = append(handlers, handler)
	}
	return handlers
}

func notifyAll(handlers []func(AuthState), state AuthState) {
	for _, handler := range handlers {
		handler(state)
	}
}

// GetState retorna um snapshot do estado publicado
func (c *Coordinator) GetState() AuthState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stateLocked()
}

// Subscribe registra um observer de estado e o chama imediatamente com o
// snapshot atual. O func retornado desfaz a inscrição — aquisição com
// liberação garantida no teardown do consumidor.
func (c *Coordinator) Subscribe(handler func(AuthState)) func() {
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = handler
	snapshot := c.stateLocked()
	c.mu.Unlock()

	handler(snapshot)

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// AccessToken expõe o access token corrente para chamadas de API do app
func (c *Coordinator) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

// === Operações ===

// Login executa o password grant. O estado não é alterado aqui: o evento
// SIGNED_IN do push stream é quem escreve, evitando writes duplicados.
func (c *Coordinator) Login(ctx context.Context, email, password string) AuthResult {
	creds, err := c.backend.SignInWithPassword(ctx, email, password)
	if err != nil {
		return failureResult("login", err)
	}
	if creds == nil || creds.User == nil {
		return AuthResult{Success: false, Error: "Login failed. Please try again."}
	}

	c.dispatch(EventSignedIn, creds)
	return AuthResult{Success: true}
}

// SignUp cria uma conta. Quando o projeto exige confirmação de e-mail o
// backend não devolve sessão e o resultado orienta o usuário a checar o inbox.
func (c *Coordinator) SignUp(ctx context.Context, email, password, name string) AuthResult {
	data, err := c.backend.SignUp(ctx, supabase.SignUpParams{
		Email:           email,
		Password:        password,
		Name:            name,
		EmailRedirectTo: deeplink.SignUpRedirectURL(),
	})
	if err != nil {
		return failureResult("signup", err)
	}

	switch {
	case data.User != nil && data.Session == nil:
		return AuthResult{Success: true, Message: "Please check your email to confirm your account."}
	case data.User != nil && data.Session != nil:
		c.dispatch(EventSignedIn, data.Session)
		return AuthResult{Success: true}
	default:
		return AuthResult{Success: false, Error: "Sign up failed. Please try again."}
	}
}

// SignInWithOAuth roda o fluxo PKCE com handoff pelo browser. Bloqueia até
// o handoff resolver (sucesso, cancelamento ou erro).
func (c *Coordinator) SignInWithOAuth(ctx context.Context, provider string) AuthResult {
	pkce, err := GeneratePKCE()
	if err != nil {
		return failureResult("oauth", err)
	}

	result := c.handoff.Authenticate(ctx, func(redirectURL string) (string, error) {
		return c.backend.AuthorizeURL(supabase.OAuthParams{
			Provider:            provider,
			RedirectTo:          redirectURL,
			CodeChallenge:       pkce.CodeChallenge,
			SkipBrowserRedirect: true,
		})
	})

	switch result.Outcome {
	case HandoffSuccess:
		return c.completeCallback(ctx, result.CallbackURL, pkce.CodeVerifier)

	case HandoffCancel:
		return AuthResult{Success: false, Error: "sign-in was cancelled"}

	default:
		// Handoff indisponível: abrir browser externo com redirect via deep
		// link — a entrega do deep link completa o fluxo depois.
		if errors.Is(result.Err, ErrHandoffUnavailable) && c.opts.OpenBrowser != nil {
			authURL, urlErr := c.backend.AuthorizeURL(supabase.OAuthParams{
				Provider:            provider,
				RedirectTo:          deeplink.OAuthRedirectURL(),
				SkipBrowserRedirect: true,
			})
			if urlErr == nil && c.opts.OpenBrowser(authURL) == nil {
				return AuthResult{Success: true, Message: "complete sign-in in your browser and return to the app"}
			}
		}
		if result.Err != nil {
			log.Printf("[AUTH] OAuth handoff failed: %v", result.Err)
		}
		return AuthResult{Success: false, Error: "sign-in failed"}
	}
}

// completeCallback extrai credenciais de uma URL de callback e estabelece a
// sessão explicitamente — a auto-detecção de URL do backend não é confiável
// entre os targets.
func (c *Coordinator) completeCallback(ctx context.Context, callbackURL, verifier string) AuthResult {
	var creds *supabase.Credentials
	var err error

	if code := deeplink.AuthCode(callbackURL); code != "" && verifier != "" {
		creds, err = c.backend.ExchangeCode(ctx, code, verifier)
	} else {
		pair, parseErr := deeplink.ParseCallbackTokens(callbackURL)
		if parseErr != nil {
			return AuthResult{Success: false, Error: parseErr.Error()}
		}
		creds, err = c.backend.ExchangeSession(ctx, pair.AccessToken, pair.RefreshToken)
	}

	if err != nil {
		return failureResult("callback", err)
	}
	if creds == nil || creds.User == nil {
		return AuthResult{Success: false, Error: "sign-in failed"}
	}

	c.dispatch(EventSignedIn, creds)
	return AuthResult{Success: true}
}

// HandleAuthCallback completa um retorno de OAuth entregue por deep link
// (sem PKCE verifier — fluxo implicit)
func (c *Coordinator) HandleAuthCallback(ctx context.Context, callbackURL string) AuthResult {
	return c.completeCallback(ctx, callbackURL, "")
}

// ConfirmEmailToken completa a confirmação de e-mail de um deep link.
// Chamada única, sem retry — a tela de confirmação oferece o caminho de
// nova tentativa.
func (c *Coordinator) ConfirmEmailToken(ctx context.Context, tokenHash string) AuthResult {
	creds, err := c.backend.VerifyEmailToken(ctx, tokenHash)
	if err != nil {
		return failureResult("email confirmation", err)
	}
	if creds == nil || creds.User == nil {
		return AuthResult{Success: false, Error: "sign-in failed"}
	}

	c.dispatch(EventSignedIn, creds)
	return AuthResult{Success: true}
}

// ReloadUser rebusca o principal no backend e publica USER_UPDATED — usado
// depois de edições de perfil feitas fora deste dispositivo. A sessão
// corrente é mantida; só a identidade publicada muda.
func (c *Coordinator) ReloadUser(ctx context.Context) AuthResult {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	if session == nil {
		return AuthResult{Success: false, Error: "no active session"}
	}

	principal, err := c.backend.CurrentUser(ctx, session.AccessToken)
	if err != nil {
		return failureResult("user reload", err)
	}

	expiresIn := 0
	if !session.ExpiresAt.IsZero() {
		expiresIn = int(time.Until(session.ExpiresAt) / time.Second)
	}
	c.dispatch(EventUserUpdated, &supabase.Credentials{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    expiresIn,
		TokenType:    session.TokenType,
		User:         principal,
	})
	return AuthResult{Success: true}
}

// NotifyPasswordRecovery propaga o sinal de redefinição de senha para a UI
func (c *Coordinator) NotifyPasswordRecovery() {
	c.dispatch(EventPasswordRecovery, nil)
}

// Logout revoga a sessão remota e limpa o estado local. O estado local é
// sempre limpo, mesmo com falha remota — o usuário nunca fica preso em uma
// tela autenticada depois de pedir logout.
func (c *Coordinator) Logout(ctx context.Context) {
	accessToken := c.AccessToken()
	if accessToken != "" {
		if err := c.backend.SignOut(ctx, accessToken); err != nil {
			if errors.Is(err, supabase.ErrSessionMissing) {
				// Já deslogado no backend: o estado desejado já vale
				log.Printf("[AUTH] Sign-out found no remote session, clearing local state")
			} else {
				log.Printf("[AUTH] Remote sign-out failed: %v", err)
			}
		}
	}

	c.dispatchWait(EventSignedOut, nil)
}

// ResetPassword dispara o e-mail de redefinição. A mensagem de sucesso é
// sempre genérica para não vazar existência de conta.
func (c *Coordinator) ResetPassword(ctx context.Context, email string) AuthResult {
	err := c.backend.ResetPasswordForEmail(ctx, email, deeplink.SitePasswordResetURL(c.opts.SiteURL))
	if err != nil {
		return failureResult("password reset", err)
	}

	return AuthResult{Success: true, Message: "Password reset email sent. Please check your inbox."}
}

// === Auto refresh ===

func (c *Coordinator) autoRefreshLoop() {
	for {
		c.mu.RLock()
		session := c.session
		c.mu.RUnlock()

		wait := 30 * time.Second
		if session != nil && !session.ExpiresAt.IsZero() {
			wait = time.Until(session.ExpiresAt.Add(-refreshMargin))
			if wait < time.Second {
				wait = time.Second
			}
		}

		select {
		case <-time.After(wait):
		case <-c.done:
			return
		}

		c.mu.RLock()
		session = c.session
		c.mu.RUnlock()
		if session == nil || session.ExpiresAt.IsZero() {
			continue
		}
		if time.Until(session.ExpiresAt) > refreshMargin {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		creds, err := c.backend.RefreshSession(ctx, session.RefreshToken)
		cancel()

		if err != nil {
			var apiErr *supabase.APIError
			if errors.As(err, &apiErr) {
				// Refresh rejeitado pelo backend: sessão revogada
				log.Printf("[AUTH] Token refresh rejected, signing out: %v", err)
				c.dispatch(EventSignedOut, nil)
				continue
			}
			log.Printf("[AUTH] Token refresh failed, will retry: %v", err)
			continue
		}

		c.dispatch(EventTokenRefreshed, creds)
	}
}

// failureResult converte erros em AuthResult. Mensagens rejeitadas pelo
// backend vão verbatim; qualquer outra coisa vira mensagem genérica —
// nenhuma falha atravessa a fronteira das operações sem tratamento.
func failureResult(op string, err error) AuthResult {
	var apiErr *supabase.APIError
	if errors.As(err, &apiErr) {
		return AuthResult{Success: false, Error: apiErr.Message}
	}

	log.Printf("[AUTH] Unexpected %s error: %v", op, err)
	return AuthResult{Success: false, Error: genericErrorMessage}
}

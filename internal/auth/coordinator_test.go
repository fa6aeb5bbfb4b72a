package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"bma/internal/keystore"
	"bma/internal/supabase"
)

// === Fakes ===

type fakeBackend struct {
	mu sync.Mutex

	signInFunc  func(email, password string) (*supabase.Credentials, error)
	signUpFunc  func(params supabase.SignUpParams) (*supabase.SignUpData, error)
	currentFunc func(accessToken string) (*supabase.Principal, error)
	refreshFunc func(refreshToken string) (*supabase.Credentials, error)
	verifyFunc  func(tokenHash string) (*supabase.Credentials, error)
	signOutErr  error

	exchangeSessionCalls int
	exchangeCodeCalls    int
	signOutCalls         int
	authorizeParams      []supabase.OAuthParams
}

func (b *fakeBackend) SignInWithPassword(ctx context.Context, email, password string) (*supabase.Credentials, error) {
	return b.signInFunc(email, password)
}

func (b *fakeBackend) SignUp(ctx context.Context, params supabase.SignUpParams) (*supabase.SignUpData, error) {
	return b.signUpFunc(params)
}

func (b *fakeBackend) AuthorizeURL(params supabase.OAuthParams) (string, error) {
	b.mu.Lock()
	b.authorizeParams = append(b.authorizeParams, params)
	b.mu.Unlock()
	return "https://example.supabase.co/auth/v1/authorize?provider=" + params.Provider, nil
}

func (b *fakeBackend) lastAuthorize() supabase.OAuthParams {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.authorizeParams) == 0 {
		return supabase.OAuthParams{}
	}
	return b.authorizeParams[len(b.authorizeParams)-1]
}

func (b *fakeBackend) ExchangeCode(ctx context.Context, code, verifier string) (*supabase.Credentials, error) {
	b.mu.Lock()
	b.exchangeCodeCalls++
	b.mu.Unlock()
	return testCredentials("user-oauth", "oauth@example.com"), nil
}

func (b *fakeBackend) ExchangeSession(ctx context.Context, accessToken, refreshToken string) (*supabase.Credentials, error) {
	b.mu.Lock()
	b.exchangeSessionCalls++
	b.mu.Unlock()

	creds := testCredentials("user-oauth", "oauth@example.com")
	creds.AccessToken = accessToken
	creds.RefreshToken = refreshToken
	return creds, nil
}

func (b *fakeBackend) RefreshSession(ctx context.Context, refreshToken string) (*supabase.Credentials, error) {
	if b.refreshFunc != nil {
		return b.refreshFunc(refreshToken)
	}
	return testCredentials("user-1", "test@example.com"), nil
}

func (b *fakeBackend) CurrentUser(ctx context.Context, accessToken string) (*supabase.Principal, error) {
	if b.currentFunc != nil {
		return b.currentFunc(accessToken)
	}
	return testPrincipal("user-1", "test@example.com"), nil
}

func (b *fakeBackend) VerifyEmailToken(ctx context.Context, tokenHash string) (*supabase.Credentials, error) {
	return b.verifyFunc(tokenHash)
}

func (b *fakeBackend) SignOut(ctx context.Context, accessToken string) error {
	b.mu.Lock()
	b.signOutCalls++
	b.mu.Unlock()
	return b.signOutErr
}

func (b *fakeBackend) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	return nil
}

func (b *fakeBackend) establishCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exchangeCodeCalls + b.exchangeSessionCalls
}

type fakeStore struct {
	mu   sync.Mutex
	pair *keystore.TokenPair
}

func (s *fakeStore) Save(pair keystore.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = &pair
	return nil
}

func (s *fakeStore) Load() (*keystore.TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pair == nil {
		return nil, keystore.ErrNoSession
	}
	copied := *s.pair
	return &copied, nil
}

func (s *fakeStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = nil
	return nil
}

func (s *fakeStore) stored() *keystore.TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair
}

type fakeHandoff struct {
	result HandoffResult
}

func (h *fakeHandoff) Authenticate(ctx context.Context, buildAuthURL func(redirectURL string) (string, error)) HandoffResult {
	if _, err := buildAuthURL("http://127.0.0.1:9877/callback"); err != nil {
		return HandoffResult{Outcome: HandoffError, Err: err}
	}
	return h.result
}

// === Helpers ===

func testPrincipal(id, email string) *supabase.Principal {
	principal := &supabase.Principal{ID: id, Email: email}
	principal.AppMetadata.Provider = "email"
	principal.UserMetadata.Name = "Test User"
	return principal
}

func testCredentials(id, email string) *supabase.Credentials {
	return &supabase.Credentials{
		AccessToken:  "access-" + id,
		RefreshToken: "refresh-" + id,
		ExpiresIn:    3600,
		TokenType:    "bearer",
		User:         testPrincipal(id, email),
	}
}

func newTestCoordinator(t *testing.T, backend *fakeBackend, store *fakeStore) *Coordinator {
	t.Helper()

	coordinator := NewCoordinator(Options{
		Backend: backend,
		Store:   store,
		Handoff: &fakeHandoff{result: HandoffResult{Outcome: HandoffCancel}},
		SiteURL: "https://app.bma2026.com",
	})
	coordinator.Start(context.Background())
	t.Cleanup(coordinator.Dispose)
	return coordinator
}

func waitForAuth(t *testing.T, c *Coordinator, want bool) AuthState {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state := c.GetState()
		if state.IsAuthenticated == want && !state.IsLoading {
			return state
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state never reached isAuthenticated=%v: %+v", want, c.GetState())
	return AuthState{}
}

func assertStateInvariant(t *testing.T, state AuthState) {
	t.Helper()

	if state.IsAuthenticated != (state.User != nil) {
		t.Fatalf("invariant broken: isAuthenticated=%v user=%+v", state.IsAuthenticated, state.User)
	}
}

// === Tests ===

func TestLoginSuccessPublishesUser(t *testing.T) {
	backend := &fakeBackend{
		signInFunc: func(email, password string) (*supabase.Credentials, error) {
			return testCredentials("user-1", email), nil
		},
	}
	store := &fakeStore{}
	coordinator := newTestCoordinator(t, backend, store)

	result := coordinator.Login(context.Background(), "test@example.com", "secret")
	if !result.Success {
		t.Fatalf("login should succeed: %+v", result)
	}

	state := waitForAuth(t, coordinator, true)
	assertStateInvariant(t, state)
	if state.User.Email != "test@example.com" {
		t.Fatalf("unexpected user email: got=%q want=%q", state.User.Email, "test@example.com")
	}
	if store.stored() == nil {
		t.Fatalf("session should be persisted after login")
	}
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	backend := &fakeBackend{
		signInFunc: func(email, password string) (*supabase.Credentials, error) {
			return nil, &supabase.APIError{Status: http.StatusBadRequest, Message: "Invalid login credentials"}
		},
	}
	coordinator := newTestCoordinator(t, backend, &fakeStore{})

	result := coordinator.Login(context.Background(), "test@example.com", "wrong")
	if result.Success {
		t.Fatalf("login should fail")
	}
	if result.Error != "Invalid login credentials" {
		t.Fatalf("backend message must pass through verbatim: got=%q", result.Error)
	}

	state := coordinator.GetState()
	assertStateInvariant(t, state)
	if state.IsAuthenticated {
		t.Fatalf("failed login must not authenticate")
	}
}

func TestLoginUnexpectedErrorIsGeneric(t *testing.T) {
	backend := &fakeBackend{
		signInFunc: func(email, password string) (*supabase.Credentials, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}
	coordinator := newTestCoordinator(t, backend, &fakeStore{})

	result := coordinator.Login(context.Background(), "test@example.com", "secret")
	if result.Success {
		t.Fatalf("login should fail")
	}
	if result.Error != "An unexpected error occurred. Please try again." {
		t.Fatalf("transport errors must become the generic message: got=%q", result.Error)
	}
}

func TestSignUpPendingConfirmationDoesNotAuthenticate(t *testing.T) {
	backend := &fakeBackend{
		signUpFunc: func(params supabase.SignUpParams) (*supabase.SignUpData, error) {
			if params.EmailRedirectTo == "" {
				t.Errorf("signup must carry a redirect for the confirmation email")
			}
			return &supabase.SignUpData{User: testPrincipal("user-2", params.Email)}, nil
		},
	}
	coordinator := newTestCoordinator(t, backend, &fakeStore{})

	result := coordinator.SignUp(context.Background(), "new@example.com", "secret", "New User")
	if !result.Success {
		t.Fatalf("signup should report success: %+v", result)
	}
	if result.Message != "Please check your email to confirm your account." {
		t.Fatalf("unexpected confirmation message: got=%q", result.Message)
	}

	state := coordinator.GetState()
	assertStateInvariant(t, state)
	if state.IsAuthenticated {
		t.Fatalf("pending confirmation must not authenticate")
	}
}

func TestLogoutIsIdempotentAndAlwaysClears(t *testing.T) {
	backend := &fakeBackend{
		signInFunc: func(email, password string) (*supabase.Credentials, error) {
			return testCredentials("user-1", email), nil
		},
		signOutErr: supabase.ErrSessionMissing,
	}
	store := &fakeStore{}
	coordinator := newTestCoordinator(t, backend, store)

	coordinator.Login(context.Background(), "test@example.com", "secret")
	waitForAuth(t, coordinator, true)

	coordinator.Logout(context.Background())
	state := coordinator.GetState()
	assertStateInvariant(t, state)
	if state.IsAuthenticated {
		t.Fatalf("logout must clear the published state even when the backend session is gone")
	}
	if store.stored() != nil {
		t.Fatalf("logout must clear the persisted session")
	}

	// Segundo logout sobre estado já limpo não pode falhar nem reautenticar
	coordinator.Logout(context.Background())
	state = coordinator.GetState()
	if state.IsAuthenticated || state.User != nil {
		t.Fatalf("repeated logout must keep the device signed out: %+v", state)
	}
}

func TestStartupWithDeadAccountResolvesSignedOut(t *testing.T) {
	backend := &fakeBackend{
		currentFunc: func(accessToken string) (*supabase.Principal, error) {
			return nil, &supabase.APIError{Status: http.StatusForbidden, Code: "user_not_found", Message: "User not found"}
		},
	}
	store := &fakeStore{pair: &keystore.TokenPair{
		AccessToken:  "stale-access",
		RefreshToken: "stale-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}}

	coordinator := newTestCoordinator(t, backend, store)

	state := coordinator.GetState()
	assertStateInvariant(t, state)
	if state.IsLoading {
		t.Fatalf("isLoading must be false once the startup check resolves")
	}
	if state.IsAuthenticated {
		t.Fatalf("a dead account must resolve to signed out")
	}
	if store.stored() != nil {
		t.Fatalf("stale tokens must be purged")
	}
	if backend.signOutCalls == 0 {
		t.Fatalf("remote session should be revoked best-effort")
	}
}

func TestStartupWithLiveSessionRestores(t *testing.T) {
	backend := &fakeBackend{}
	store := &fakeStore{pair: &keystore.TokenPair{
		AccessToken:  "live-access",
		RefreshToken: "live-refresh",
		Provider:     "email",
		ExpiresAt:    time.Now().Add(time.Hour),
	}}

	coordinator := newTestCoordinator(t, backend, store)

	state := waitForAuth(t, coordinator, true)
	assertStateInvariant(t, state)
	if state.User.ID != "user-1" {
		t.Fatalf("unexpected restored user: %+v", state.User)
	}
}

func TestOAuthCancelDoesNotEstablishSession(t *testing.T) {
	backend := &fakeBackend{}
	coordinator := NewCoordinator(Options{
		Backend: backend,
		Store:   &fakeStore{},
		Handoff: &fakeHandoff{result: HandoffResult{Outcome: HandoffCancel}},
	})
	coordinator.Start(context.Background())
	t.Cleanup(coordinator.Dispose)

	result := coordinator.SignInWithOAuth(context.Background(), "google")
	if result.Success {
		t.Fatalf("cancelled handoff must not succeed")
	}
	if result.Error != "sign-in was cancelled" {
		t.Fatalf("unexpected cancel message: got=%q", result.Error)
	}
	if backend.establishCalls() != 0 {
		t.Fatalf("cancelled flow must not touch the session endpoints")
	}
	if coordinator.GetState().IsAuthenticated {
		t.Fatalf("cancelled flow must not authenticate")
	}
}

func TestOAuthCallbackTokensRoundTrip(t *testing.T) {
	backend := &fakeBackend{}
	coordinator := NewCoordinator(Options{
		Backend: backend,
		Store:   &fakeStore{},
		Handoff: &fakeHandoff{result: HandoffResult{
			Outcome:     HandoffSuccess,
			CallbackURL: "http://127.0.0.1:9877/callback#access_token=AAA&refresh_token=BBB",
		}},
	})
	coordinator.Start(context.Background())
	t.Cleanup(coordinator.Dispose)

	result := coordinator.SignInWithOAuth(context.Background(), "google")
	if !result.Success {
		t.Fatalf("oauth flow should succeed: %+v", result)
	}

	state := waitForAuth(t, coordinator, true)
	assertStateInvariant(t, state)

	if backend.exchangeSessionCalls != 1 {
		t.Fatalf("exactly one session exchange expected, got %d", backend.exchangeSessionCalls)
	}
	if token := coordinator.AccessToken(); token != "AAA" {
		t.Fatalf("callback tokens must reach the session verbatim: got=%q want=%q", token, "AAA")
	}
}

func TestOAuthCallbackWithPartialTokensFails(t *testing.T) {
	backend := &fakeBackend{}
	coordinator := NewCoordinator(Options{
		Backend: backend,
		Store:   &fakeStore{},
		Handoff: &fakeHandoff{result: HandoffResult{
			Outcome:     HandoffSuccess,
			CallbackURL: "http://127.0.0.1:9877/callback#access_token=AAA",
		}},
	})
	coordinator.Start(context.Background())
	t.Cleanup(coordinator.Dispose)

	result := coordinator.SignInWithOAuth(context.Background(), "google")
	if result.Success {
		t.Fatalf("partial token pair must not succeed")
	}
	if result.Error != "no refresh token found" {
		t.Fatalf("unexpected error: got=%q want=%q", result.Error, "no refresh token found")
	}
	if backend.establishCalls() != 0 {
		t.Fatalf("no exchange may happen without a complete token pair")
	}
}

func TestEmailConfirmationEstablishesSession(t *testing.T) {
	backend := &fakeBackend{
		verifyFunc: func(tokenHash string) (*supabase.Credentials, error) {
			if tokenHash != "pkce_abc123" {
				t.Errorf("unexpected token hash: got=%q", tokenHash)
			}
			return testCredentials("user-3", "confirmed@example.com"), nil
		},
	}
	coordinator := newTestCoordinator(t, backend, &fakeStore{})

	result := coordinator.ConfirmEmailToken(context.Background(), "pkce_abc123")
	if !result.Success {
		t.Fatalf("confirmation should succeed: %+v", result)
	}

	state := waitForAuth(t, coordinator, true)
	if state.User.Email != "confirmed@example.com" {
		t.Fatalf("unexpected confirmed user: %+v", state.User)
	}
}

func TestEmailConfirmationExpiredTokenFails(t *testing.T) {
	backend := &fakeBackend{
		verifyFunc: func(tokenHash string) (*supabase.Credentials, error) {
			return nil, &supabase.APIError{Status: http.StatusForbidden, Code: "otp_expired", Message: "Email link is invalid or has expired"}
		},
	}
	coordinator := newTestCoordinator(t, backend, &fakeStore{})

	result := coordinator.ConfirmEmailToken(context.Background(), "pkce_stale")
	if result.Success {
		t.Fatalf("expired token must not succeed")
	}
	if result.Error != "Email link is invalid or has expired" {
		t.Fatalf("backend message must pass through verbatim: got=%q", result.Error)
	}
	if coordinator.GetState().IsAuthenticated {
		t.Fatalf("expired confirmation must not authenticate")
	}
}

func TestPasswordRecoverySignalKeepsState(t *testing.T) {
	backend := &fakeBackend{
		signInFunc: func(email, password string) (*supabase.Credentials, error) {
			return testCredentials("user-1", email), nil
		},
	}

	recoveries := make(chan struct{}, 1)
	coordinator := NewCoordinator(Options{
		Backend: backend,
		Store:   &fakeStore{},
		Handoff: &fakeHandoff{result: HandoffResult{Outcome: HandoffCancel}},
		OnPasswordRecovery: func() {
			select {
			case recoveries <- struct{}{}:
			default:
			}
		},
	})
	coordinator.Start(context.Background())
	t.Cleanup(coordinator.Dispose)

	coordinator.Login(context.Background(), "test@example.com", "secret")
	waitForAuth(t, coordinator, true)

	coordinator.NotifyPasswordRecovery()

	select {
	case <-recoveries:
	case <-time.After(2 * time.Second):
		t.Fatalf("recovery signal never delivered")
	}

	state := coordinator.GetState()
	if !state.IsAuthenticated {
		t.Fatalf("recovery signal must not change the published state")
	}
}

func TestSubscribeDeliversSnapshotAndUnsubscribes(t *testing.T) {
	backend := &fakeBackend{
		signInFunc: func(email, password string) (*supabase.Credentials, error) {
			return testCredentials("user-1", email), nil
		},
	}
	coordinator := newTestCoordinator(t, backend, &fakeStore{})

	states := make(chan AuthState, 8)
	unsubscribe := coordinator.Subscribe(func(state AuthState) {
		states <- state
	})

	select {
	case state := <-states:
		if state.IsAuthenticated || state.IsLoading {
			t.Fatalf("initial snapshot should be signed out and settled: %+v", state)
		}
	case <-time.After(time.Second):
		t.Fatalf("subscriber never received the initial snapshot")
	}

	coordinator.Login(context.Background(), "test@example.com", "secret")

	select {
	case state := <-states:
		assertStateInvariant(t, state)
		if !state.IsAuthenticated {
			t.Fatalf("subscriber should observe the sign-in: %+v", state)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("subscriber never observed the sign-in")
	}

	unsubscribe()
	coordinator.Logout(context.Background())

	select {
	case state := <-states:
		t.Fatalf("unsubscribed handler must not be called: %+v", state)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestOAuthFallsBackToPlainBrowserWhenHandoffUnavailable(t *testing.T) {
	backend := &fakeBackend{}

	var openedURLs []string
	coordinator := NewCoordinator(Options{
		Backend: backend,
		Store:   &fakeStore{},
		Handoff: &fakeHandoff{result: HandoffResult{
			Outcome: HandoffError,
			Err:     fmt.Errorf("%w: port busy", ErrHandoffUnavailable),
		}},
		OpenBrowser: func(url string) error {
			openedURLs = append(openedURLs, url)
			return nil
		},
	})
	coordinator.Start(context.Background())
	t.Cleanup(coordinator.Dispose)

	result := coordinator.SignInWithOAuth(context.Background(), "google")
	if !result.Success {
		t.Fatalf("fallback must report success: %+v", result)
	}
	if result.Message != "complete sign-in in your browser and return to the app" {
		t.Fatalf("unexpected fallback message: got=%q", result.Message)
	}

	if len(openedURLs) != 1 {
		t.Fatalf("fallback must open the browser exactly once, got %d", len(openedURLs))
	}
	if redirect := backend.lastAuthorize().RedirectTo; redirect != "bma2026://auth/callback" {
		t.Fatalf("fallback must redirect via deep link: got=%q", redirect)
	}
	if backend.establishCalls() != 0 {
		t.Fatalf("the deep link completes the flow later, no exchange may happen now")
	}
	if coordinator.GetState().IsAuthenticated {
		t.Fatalf("fallback must not authenticate by itself")
	}
}

func TestTokenRefreshKeepsUserIdentity(t *testing.T) {
	backend := &fakeBackend{
		signInFunc: func(email, password string) (*supabase.Credentials, error) {
			return testCredentials("user-1", email), nil
		},
	}
	store := &fakeStore{}
	coordinator := newTestCoordinator(t, backend, store)

	coordinator.Login(context.Background(), "test@example.com", "secret")
	before := waitForAuth(t, coordinator, true)

	coordinator.dispatchWait(EventTokenRefreshed, &supabase.Credentials{
		AccessToken:  "access-rotated",
		RefreshToken: "refresh-rotated",
		ExpiresIn:    3600,
		TokenType:    "bearer",
	})

	after := coordinator.GetState()
	assertStateInvariant(t, after)
	if after.User.ID != before.User.ID || after.User.Email != before.User.Email {
		t.Fatalf("refresh must not touch identity: before=%+v after=%+v", before.User, after.User)
	}
	if after.Provider != before.Provider {
		t.Fatalf("refresh must keep the provider: got=%q want=%q", after.Provider, before.Provider)
	}
	if token := coordinator.AccessToken(); token != "access-rotated" {
		t.Fatalf("refresh must replace the session: got=%q", token)
	}

	pair := store.stored()
	if pair == nil || pair.AccessToken != "access-rotated" || pair.RefreshToken != "refresh-rotated" {
		t.Fatalf("rotated tokens must be persisted: %+v", pair)
	}
}

func TestUnknownEventKindIsTreatedAsSignIn(t *testing.T) {
	backend := &fakeBackend{}
	store := &fakeStore{}
	coordinator := newTestCoordinator(t, backend, store)

	// Kind desconhecido com sessão completa não pode descartar a sessão
	coordinator.dispatchWait("MFA_CHALLENGE_VERIFIED", testCredentials("user-9", "future@example.com"))

	state := coordinator.GetState()
	assertStateInvariant(t, state)
	if !state.IsAuthenticated || state.User.Email != "future@example.com" {
		t.Fatalf("unknown kind with full session must sign in: %+v", state)
	}

	// Kind desconhecido sem sessão resolve para deslogado, preservando o
	// invariante session/user
	coordinator.dispatchWait("MFA_CHALLENGE_VERIFIED", nil)

	state = coordinator.GetState()
	assertStateInvariant(t, state)
	if state.IsAuthenticated || state.User != nil {
		t.Fatalf("unknown kind without session must resolve signed out: %+v", state)
	}
	if store.stored() != nil {
		t.Fatalf("signed-out resolution must clear the persisted session")
	}
}

func TestReloadUserPublishesUpdatedProfile(t *testing.T) {
	backend := &fakeBackend{
		signInFunc: func(email, password string) (*supabase.Credentials, error) {
			return testCredentials("user-1", email), nil
		},
		currentFunc: func(accessToken string) (*supabase.Principal, error) {
			principal := testPrincipal("user-1", "test@example.com")
			principal.UserMetadata.Name = "Renamed User"
			return principal, nil
		},
	}
	coordinator := newTestCoordinator(t, backend, &fakeStore{})

	coordinator.Login(context.Background(), "test@example.com", "secret")
	waitForAuth(t, coordinator, true)
	tokenBefore := coordinator.AccessToken()

	result := coordinator.ReloadUser(context.Background())
	if !result.Success {
		t.Fatalf("reload should succeed: %+v", result)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state := coordinator.GetState()
		if state.User != nil && state.User.Name == "Renamed User" {
			if token := coordinator.AccessToken(); token != tokenBefore {
				t.Fatalf("reload must keep the session: got=%q want=%q", token, tokenBefore)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("updated profile never published: %+v", coordinator.GetState())
}

func TestReloadUserWithoutSessionFails(t *testing.T) {
	coordinator := newTestCoordinator(t, &fakeBackend{}, &fakeStore{})

	result := coordinator.ReloadUser(context.Background())
	if result.Success {
		t.Fatalf("reload without a session must fail")
	}
	if result.Error != "no active session" {
		t.Fatalf("unexpected error: got=%q", result.Error)
	}
}

func TestResetPasswordReturnsNeutralMessage(t *testing.T) {
	coordinator := newTestCoordinator(t, &fakeBackend{}, &fakeStore{})

	result := coordinator.ResetPassword(context.Background(), "anyone@example.com")
	if !result.Success {
		t.Fatalf("reset should succeed: %+v", result)
	}
	if result.Message != "Password reset email sent. Please check your inbox." {
		t.Fatalf("unexpected reset message: got=%q", result.Message)
	}
}

package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client fala com a superfície de auth do Supabase (GoTrue REST)
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
}

// NewClient cria um Client para o projeto em baseURL com a anon key dada
func NewClient(baseURL, anonKey string) *Client {
	return &Client{
		baseURL: baseURL,
		anonKey: anonKey,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SignInWithPassword executa o password grant
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Credentials, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", body, "", &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// SignUp cria uma conta. A sessão retornada é nil quando o projeto exige
// confirmação de e-mail — o GoTrue devolve só o usuário nesse caso.
func (c *Client) SignUp(ctx context.Context, params SignUpParams) (*SignUpData, error) {
	path := "/auth/v1/signup"
	if params.EmailRedirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(params.EmailRedirectTo)
	}

	body := map[string]interface{}{
		"email":    params.Email,
		"password": params.Password,
	}
	if params.Name != "" {
		body["data"] = map[string]string{"name": params.Name}
	}

	raw, err := c.doRaw(ctx, http.MethodPost, path, body, "")
	if err != nil {
		return nil, err
	}

	// O endpoint retorna ou uma sessão completa ou apenas o objeto de usuário.
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err == nil && creds.AccessToken != "" {
		return &SignUpData{User: creds.User, Session: &creds}, nil
	}

	var principal Principal
	if err := json.Unmarshal(raw, &principal); err != nil {
		return nil, fmt.Errorf("failed to parse signup response: %w", err)
	}
	if principal.ID == "" {
		return &SignUpData{}, nil
	}
	return &SignUpData{User: &principal}, nil
}

// AuthorizeURL monta a URL de autorização OAuth para o provider.
// A navegação fica a cargo do chamador (equivalente a skipBrowserRedirect).
func (c *Client) AuthorizeURL(params OAuthParams) (string, error) {
	if params.Provider == "" {
		return "", fmt.Errorf("provider cannot be empty")
	}

	values := url.Values{}
	values.Add("provider", params.Provider)
	if params.RedirectTo != "" {
		values.Add("redirect_to", params.RedirectTo)
	}
	if params.CodeChallenge != "" {
		values.Add("code_challenge", params.CodeChallenge)
		values.Add("code_challenge_method", "S256")
	}

	return fmt.Sprintf("%s/auth/v1/authorize?%s", c.baseURL, values.Encode()), nil
}

// ExchangeCode troca um authorization code PKCE por uma sessão
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*Credentials, error) {
	body := map[string]string{
		"auth_code":     code,
		"code_verifier": verifier,
	}

	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=pkce", body, "", &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// ExchangeSession estabelece uma sessão a partir de um par de tokens vindo
// de um callback (fragment ou query). O refresh token sustenta a troca; o
// access token acompanha a requisição para rastreio no backend.
func (c *Client) ExchangeSession(ctx context.Context, accessToken, refreshToken string) (*Credentials, error) {
	body := map[string]string{
		"refresh_token": refreshToken,
	}

	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", body, accessToken, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// RefreshSession renova a sessão usando o refresh token
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Credentials, error) {
	body := map[string]string{
		"refresh_token": refreshToken,
	}

	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", body, "", &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// CurrentUser busca o principal dono do access token (liveness check).
// Um token estruturalmente válido pode apontar para conta removida/revogada.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*Principal, error) {
	var principal Principal
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", nil, accessToken, &principal); err != nil {
		return nil, err
	}
	return &principal, nil
}

// VerifyEmailToken confirma um e-mail a partir do token_hash do deep link
func (c *Client) VerifyEmailToken(ctx context.Context, tokenHash string) (*Credentials, error) {
	body := map[string]string{
		"token_hash": tokenHash,
		"type":       "email",
	}

	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/auth/v1/verify", body, "", &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// SignOut revoga a sessão do access token. Retorna ErrSessionMissing quando
// o backend responde que não havia sessão.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", nil, accessToken, nil)
}

// ResetPasswordForEmail dispara o e-mail de redefinição de senha
func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	path := "/auth/v1/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}

	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, path, body, "", nil)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, bearer string, out interface{}) error {
	raw, err := c.doRaw(ctx, method, path, body, bearer)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method, path string, body interface{}, bearer string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.anonKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseAPIError(resp.StatusCode, raw)
	}

	return raw, nil
}

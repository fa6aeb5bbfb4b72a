package deeplink

import (
	"errors"
	"net/url"
	"strings"

	"bma/internal/config"
)

// Erros de extração de tokens de callback. Par parcial nunca é aceito.
var (
	ErrNoAccessToken  = errors.New("no access token found")
	ErrNoRefreshToken = errors.New("no refresh token found")
)

// TokenPair são os tokens extraídos de uma URL de callback
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    string
	TokenType    string
}

// EmailConfirmation é o payload de um deep link de confirmação de e-mail
type EmailConfirmation struct {
	TokenHash string
	Type      string
}

// ParseCallbackTokens extrai access_token + refresh_token de uma URL de
// callback. O fragment (#access_token=...) é inspecionado com exclusividade
// primeiro; a query só é considerada quando o fragment não traz access_token.
// Par espalhado entre fragment e query é rejeitado como par parcial.
func ParseCallbackTokens(rawURL string) (*TokenPair, error) {
	query, fragment := splitRawURL(rawURL)

	params := parseParams(fragment)
	if params.Get("access_token") == "" {
		params = parseParams(query)
	}

	access := params.Get("access_token")
	if access == "" {
		return nil, ErrNoAccessToken
	}

	refresh := params.Get("refresh_token")
	if refresh == "" {
		return nil, ErrNoRefreshToken
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    params.Get("expires_in"),
		TokenType:    params.Get("token_type"),
	}, nil
}

// AuthCode retorna o authorization code PKCE da URL, se presente
func AuthCode(rawURL string) string {
	return paramsOf(rawURL).Get("code")
}

// ParseEmailConfirmation extrai o token de confirmação de e-mail.
// Só age quando type=email acompanha um token_hash; qualquer outro deep
// link é ignorado por este handler.
func ParseEmailConfirmation(rawURL string) (*EmailConfirmation, bool) {
	params := paramsOf(rawURL)

	tokenHash := params.Get("token_hash")
	linkType := params.Get("type")
	if tokenHash == "" || linkType != "email" {
		return nil, false
	}

	return &EmailConfirmation{TokenHash: tokenHash, Type: linkType}, true
}

// IsPasswordRecovery indica um link de redefinição de senha (type=recovery).
// O coordinator não age sobre ele — é sinal para a UI rotear ao formulário.
func IsPasswordRecovery(rawURL string) bool {
	return paramsOf(rawURL).Get("type") == "recovery"
}

// IsAuthCallback indica uma URL de retorno de OAuth (deep link ou loopback)
func IsAuthCallback(rawURL string) bool {
	base := rawURL
	if idx := strings.IndexAny(base, "?#"); idx >= 0 {
		base = base[:idx]
	}
	return strings.HasPrefix(base, config.DeepLinkScheme+"://auth/callback") ||
		strings.HasSuffix(base, "/callback")
}

// InitialURL varre os argumentos de launch procurando um deep link do app.
// É o equivalente desktop da inspeção de URL em load time do target web.
func InitialURL(args []string) string {
	prefix := config.DeepLinkScheme + "://"
	for _, arg := range args {
		if strings.HasPrefix(arg, prefix) {
			return arg
		}
	}
	return ""
}

// OAuthRedirectURL é o redirect de OAuth via deep link nativo
func OAuthRedirectURL() string {
	return config.DeepLinkScheme + "://auth/callback"
}

// SignUpRedirectURL é o destino dos links de confirmação de e-mail
func SignUpRedirectURL() string {
	return config.DeepLinkScheme + "://auth/confirm"
}

// SiteConfirmURL é o destino web de confirmação hospedado no site do produto
func SiteConfirmURL(siteURL string) string {
	return strings.TrimRight(siteURL, "/") + "/auth/confirm"
}

// SitePasswordResetURL é o destino web do formulário de redefinição de senha
func SitePasswordResetURL(siteURL string) string {
	return strings.TrimRight(siteURL, "/") + "/reset-password"
}

// splitRawURL separa query e fragment de uma URL. Parse manual do prefixo
// para não depender do comportamento do net/url com schemes customizados.
func splitRawURL(rawURL string) (query, fragment string) {
	rest := rawURL
	if idx := strings.Index(rest, "#"); idx >= 0 {
		fragment = rest[idx+1:]
		rest = rest[:idx]
	}
	if idx := strings.Index(rest, "?"); idx >= 0 {
		query = rest[idx+1:]
	}
	return query, fragment
}

func parseParams(raw string) url.Values {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return url.Values{}
	}
	return values
}

// paramsOf junta fragment e query em um url.Values único, com o fragment
// vencendo colisões. Usado pelos marcadores de rota (code, token_hash, type),
// que podem chegar em qualquer uma das partes.
func paramsOf(rawURL string) url.Values {
	query, fragment := splitRawURL(rawURL)

	merged := parseParams(query)
	// Fragment aplicado por último para ter prioridade sobre a query
	for key, vals := range parseParams(fragment) {
		merged[key] = vals
	}

	return merged
}

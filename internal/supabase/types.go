package supabase

// Principal é a representação crua do usuário autenticado no Supabase
type Principal struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	AppMetadata  struct {
		Provider string `json:"provider"`
	} `json:"app_metadata"`
	UserMetadata struct {
		Name      string `json:"name"`
		FullName  string `json:"full_name"`
		AvatarURL string `json:"avatar_url"`
	} `json:"user_metadata"`
}

// Credentials é o bundle de sessão retornado pelo endpoint de token
type Credentials struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int        `json:"expires_in"`
	TokenType    string     `json:"token_type"`
	User         *Principal `json:"user"`
}

// SignUpParams são os parâmetros de criação de conta
type SignUpParams struct {
	Email           string
	Password        string
	Name            string
	EmailRedirectTo string
}

// SignUpData é o resultado do signup: sessão é nil quando o e-mail
// ainda precisa ser confirmado
type SignUpData struct {
	User    *Principal
	Session *Credentials
}

// OAuthParams são os parâmetros para montar a URL de autorização de um provider
type OAuthParams struct {
	Provider            string
	RedirectTo          string
	CodeChallenge       string
	SkipBrowserRedirect bool
}

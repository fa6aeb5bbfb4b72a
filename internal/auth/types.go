package auth

import (
	"time"

	"bma/internal/supabase"
)

// User é a projeção read-only do principal autenticado consumida pela UI
type User struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Session é o bundle de credenciais emitido pelo backend. Nunca sai do
// coordinator — a UI só enxerga AuthState.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	TokenType    string
	Provider     string
}

// AuthResult é o contrato de retorno de toda operação de auth
type AuthResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// AuthState é o estado publicado para os consumidores de UI
type AuthState struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	IsLoading       bool   `json:"isLoading"`
	User            *User  `json:"user,omitempty"`
	Provider        string `json:"provider,omitempty"`
}

// Kinds dos eventos do push stream de sessão
const (
	EventSignedIn         = "SIGNED_IN"
	EventSignedOut        = "SIGNED_OUT"
	EventTokenRefreshed   = "TOKEN_REFRESHED"
	EventUserUpdated      = "USER_UPDATED"
	EventPasswordRecovery = "PASSWORD_RECOVERY"
)

// mapPrincipal projeta o principal cru do backend no User do app
func mapPrincipal(principal *supabase.Principal) *User {
	if principal == nil {
		return nil
	}

	name := principal.UserMetadata.Name
	if name == "" {
		name = principal.UserMetadata.FullName
	}

	return &User{
		ID:     principal.ID,
		Email:  principal.Email,
		Name:   name,
		Avatar: principal.UserMetadata.AvatarURL,
	}
}

// sessionFromCredentials converte o payload de token do backend em Session
func sessionFromCredentials(creds *supabase.Credentials) *Session {
	if creds == nil || creds.AccessToken == "" {
		return nil
	}

	session := &Session{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    creds.TokenType,
	}
	if creds.ExpiresIn > 0 {
		session.ExpiresAt = time.Now().Add(time.Duration(creds.ExpiresIn) * time.Second)
	}
	if creds.User != nil {
		session.Provider = creds.User.AppMetadata.Provider
	}
	return session
}

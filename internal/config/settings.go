package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Settings agrupa a configuração carregada do ambiente (.env + variáveis)
type Settings struct {
	SupabaseURL     string `env:"SUPABASE_URL"`
	SupabaseAnonKey string `env:"SUPABASE_ANON_KEY"`
	SiteURL         string `env:"SITE_URL" envDefault:"https://app.bma2026.com"`
	CallbackPort    int    `env:"AUTH_CALLBACK_PORT" envDefault:"9877"`
}

// LoadSettings carrega .env (diretório de dados e cwd) e faz parse do ambiente.
// As credenciais do Supabase são obrigatórias — sem elas o app não consegue autenticar.
func LoadSettings() (*Settings, error) {
	// Ordem: .env do diretório de dados primeiro, depois .env local (dev).
	// godotenv nunca sobrescreve variáveis já presentes no ambiente.
	_ = godotenv.Load(EnvFilePath())
	_ = godotenv.Load()

	var s Settings
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	s.SupabaseURL = strings.TrimRight(strings.TrimSpace(s.SupabaseURL), "/")
	s.SupabaseAnonKey = strings.TrimSpace(s.SupabaseAnonKey)
	s.SiteURL = strings.TrimRight(strings.TrimSpace(s.SiteURL), "/")

	if s.SupabaseURL == "" || s.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("missing Supabase environment variables, check your .env file")
	}

	if s.CallbackPort <= 0 || s.CallbackPort > 65535 {
		s.CallbackPort = DefaultCallbackPort
	}

	return &s, nil
}

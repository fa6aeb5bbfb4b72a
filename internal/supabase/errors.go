package supabase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrSessionMissing indica que o backend não encontrou sessão para revogar.
// No logout isso é tratado como "já deslogado", não como falha.
var ErrSessionMissing = errors.New("session not found")

// APIError é um erro rejeitado pelo backend com mensagem própria
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// parseAPIError converte um corpo de erro do GoTrue em *APIError ou ErrSessionMissing
func parseAPIError(status int, body []byte) error {
	var payload struct {
		Code             string `json:"error_code"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	_ = json.Unmarshal(body, &payload)

	code := payload.Code
	if code == "" {
		code = payload.Error
	}

	if code == "session_not_found" || strings.Contains(string(body), "session_not_found") {
		return fmt.Errorf("%w (status %d)", ErrSessionMissing, status)
	}

	return &APIError{
		Status:  status,
		Code:    code,
		Message: summarizeAuthErrorBody(body),
	}
}

// summarizeAuthErrorBody extrai uma mensagem segura de um corpo de erro.
// Nunca ecoa payloads de token no texto retornado.
func summarizeAuthErrorBody(body []byte) string {
	var payload struct {
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
	}

	if err := json.Unmarshal(body, &payload); err == nil {
		for _, candidate := range []string{payload.ErrorDescription, payload.Msg, payload.Message, payload.Error} {
			candidate = strings.TrimSpace(candidate)
			if candidate != "" {
				return candidate
			}
		}
	}

	return "authentication provider returned an error"
}

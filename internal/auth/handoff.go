package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"
)

const (
	// handoffTimeout limita a vida do servidor local de callback
	handoffTimeout = 5 * time.Minute
)

// ErrHandoffUnavailable indica que o mecanismo de handoff não pôde nem
// começar (ex.: porta local indisponível). O coordinator cai para o
// browser externo + deep link nesse caso.
var ErrHandoffUnavailable = errors.New("callback server unavailable")

// HandoffOutcome classifica o desfecho do handoff de browser
type HandoffOutcome int

const (
	HandoffSuccess HandoffOutcome = iota
	HandoffCancel
	HandoffError
)

// HandoffResult é o desfecho do round-trip pelo browser
type HandoffResult struct {
	Outcome     HandoffOutcome
	CallbackURL string
	Err         error
}

// Handoff abre o browser no consent screen do provider e espera o retorno.
// buildAuthURL recebe a redirect URL do handoff e devolve a URL de autorização.
type Handoff interface {
	Authenticate(ctx context.Context, buildAuthURL func(redirectURL string) (string, error)) HandoffResult
}

// LoopbackHandoff implementa Handoff com um servidor HTTP local em 127.0.0.1
// recebendo o redirect do provider.
type LoopbackHandoff struct {
	port        int
	openBrowser func(url string) error
}

// NewLoopbackHandoff cria um LoopbackHandoff na porta preferencial dada
func NewLoopbackHandoff(port int, openBrowser func(url string) error) *LoopbackHandoff {
	return &LoopbackHandoff{
		port:        port,
		openBrowser: openBrowser,
	}
}

// Authenticate executa o round-trip completo: sobe o servidor local, abre o
// browser e espera o callback, cancelamento ou timeout.
func (h *LoopbackHandoff) Authenticate(ctx context.Context, buildAuthURL func(redirectURL string) (string, error)) HandoffResult {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", h.port))
	if err != nil {
		// Tentar porta alternativa
		listener, err = net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return HandoffResult{Outcome: HandoffError, Err: fmt.Errorf("%w: %v", ErrHandoffUnavailable, err)}
		}
	}

	port := listener.Addr().(*net.TCPAddr).Port
	redirectURL := fmt.Sprintf("http://127.0.0.1:%d/callback", port)

	authURL, err := buildAuthURL(redirectURL)
	if err != nil {
		listener.Close()
		return HandoffResult{Outcome: HandoffError, Err: err}
	}

	results := make(chan HandoffResult, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		// O provider pode devolver erro na query (ex.: consent negado)
		if providerErr := r.URL.Query().Get("error"); providerErr != "" {
			writeHandoffPage(w, false, r.URL.Query().Get("error_description"))
			outcome := HandoffError
			if providerErr == "access_denied" {
				outcome = HandoffCancel
			}
			select {
			case results <- HandoffResult{Outcome: outcome, Err: fmt.Errorf("provider returned %s", providerErr)}:
			default:
			}
			return
		}

		writeHandoffPage(w, true, "")
		select {
		case results <- HandoffResult{
			Outcome:     HandoffSuccess,
			CallbackURL: fmt.Sprintf("http://127.0.0.1:%d%s", port, r.URL.String()),
		}:
		default:
		}
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("BMA 2026 Authentication Server"))
	})

	server := &http.Server{
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
	}

	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			log.Printf("[AUTH] Callback server error: %v", serveErr)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("[AUTH] Callback server started at %s", redirectURL)

	if err := h.openBrowser(authURL); err != nil {
		return HandoffResult{Outcome: HandoffError, Err: fmt.Errorf("%w: %v", ErrHandoffUnavailable, err)}
	}

	select {
	case result := <-results:
		return result
	case <-ctx.Done():
		return HandoffResult{Outcome: HandoffCancel, Err: ctx.Err()}
	case <-time.After(handoffTimeout):
		return HandoffResult{Outcome: HandoffError, Err: fmt.Errorf("timed out waiting for browser callback")}
	}
}

func writeHandoffPage(w http.ResponseWriter, success bool, detail string) {
	w.Header().Set("Content-Type", "text/html")
	if success {
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>BMA 2026 - Sign-in Successful</title></head>
<body style="font-family: system-ui; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #0f1420; color: white;">
<div style="text-align: center;">
<h1>&#10003; Signed in successfully!</h1>
<p>You can close this window and return to BMA 2026.</p>
</div>
</body>
</html>`))
		return
	}

	if detail == "" {
		detail = "Please try again in the BMA 2026 app."
	}
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>BMA 2026 - Sign-in Failed</title></head>
<body style="font-family: system-ui; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #0f1420; color: white;">
<div style="text-align: center;">
<h1>&#10007; Sign-in failed</h1>
<p>%s</p>
</div>
</body>
</html>`, detail)
}

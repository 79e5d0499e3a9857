// Command replydraft-connect runs the one-time OAuth handshake: it serves
// /zoho/connect (redirect to the consent page) and /zoho/callback (code
// exchange), persists the token pair, and exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/mvidal/replydraft/internal/app"
	"github.com/mvidal/replydraft/internal/model"
)

type connectConfig struct {
	configPath string
	dbPath     string
	addr       string
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		app.NewLogger().WithError(err).Error("replydraft-connect failed")
		os.Exit(1)
	}
}

func parseFlags() connectConfig {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	dbPath := flag.String("db", "", "path to sqlite database (defaults to config value)")
	addr := flag.String("addr", "127.0.0.1:8085", "listen address for the callback server")
	flag.Parse()

	return connectConfig{configPath: *configPath, dbPath: *dbPath, addr: *addr}
}

func run(cfg connectConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfg.configPath, cfg.dbPath)
	if err != nil {
		return err
	}
	defer a.Close()

	state := uuid.NewString()
	done := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /zoho/connect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, a.Tokens.AuthURL(state), http.StatusFound)
	})
	mux.HandleFunc("GET /zoho/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		if err := a.Tokens.Exchange(r.Context(), code); err != nil {
			http.Error(w, "token exchange failed", http.StatusInternalServerError)
			done <- err
			return
		}
		fmt.Fprintln(w, "Zoho connected. You can close this window.")
		done <- nil
	})

	srv := &http.Server{
		Addr:              cfg.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- err
		}
	}()

	a.Log.WithField("addr", cfg.addr).Info("open http://" + cfg.addr + "/zoho/connect to authorize")

	var result error
	select {
	case <-ctx.Done():
		result = ctx.Err()
	case result = <-done:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Log.WithError(err).Warn("server shutdown failed")
	}

	if result == nil {
		a.Log.Info("token stored, account connected")
	}
	return result
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the latest result tables read-only over HTTP",
	Long: `Exposes the district, state, and monthly trend tables of the most
recent complete run. The server reads only the finished output tables and
never triggers computation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET"},
		}))

		writeJSON := func(w http.ResponseWriter, status int, v any) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(v) //nolint:errcheck
		}

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/districts", func(w http.ResponseWriter, req *http.Request) {
			result, err := st.LatestResult(req.Context())
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no complete run"})
				return
			}
			writeJSON(w, http.StatusOK, result.Districts)
		})

		r.Get("/states", func(w http.ResponseWriter, req *http.Request) {
			result, err := st.LatestResult(req.Context())
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no complete run"})
				return
			}
			writeJSON(w, http.StatusOK, result.States)
		})

		r.Get("/trends", func(w http.ResponseWriter, req *http.Request) {
			result, err := st.LatestResult(req.Context())
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no complete run"})
				return
			}
			writeJSON(w, http.StatusOK, result.Trends)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

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

	"github.com/sells-group/insight-cli/internal/analyst"
	"github.com/sells-group/insight-cli/internal/baseline"
	"github.com/sells-group/insight-cli/internal/explain"
	"github.com/sells-group/insight-cli/internal/model"
	"github.com/sells-group/insight-cli/internal/store"
)

var servePort int

const shutdownTimeout = 10 * time.Second

// shutdownOnDone drains the server once ctx fires. The signal context is
// already canceled by then, so draining gets its own deadline.
func shutdownOnDone(ctx context.Context, srv *http.Server, timeout time.Duration) {
	<-ctx.Done()
	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("server shutdown", zap.Error(err))
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for profiling and question answering",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		explainer := initExplainer()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)

		origins := cfg.Server.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/v1", func(r chi.Router) {
			r.Post("/profile", handleProfile(st))
			r.Post("/ask", handleAsk(st, explainer))
			r.Post("/baseline", handleBaseline(st))
			r.Post("/drilldown", handleDrillDown(st))
			r.Get("/artifacts/{id}", handleGetArtifact(st))
			r.Get("/artifacts", handleListArtifacts(st))
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go shutdownOnDone(ctx, srv, shutdownTimeout)

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

type fileRequest struct {
	File string `json:"file"`
}

func handleProfile(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body fileRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.File == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
			return
		}

		profile, err := profiledDataset(req.Context(), st, body.File)
		if err != nil {
			zap.L().Error("profile request failed", zap.String("file", body.File), zap.Error(err))
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func handleAsk(st store.Store, explainer *explain.Explainer) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			File     string `json:"file"`
			Question string `json:"question"`
			Explain  bool   `json:"explain"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.File == "" || body.Question == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file and question are required"})
			return
		}

		ctx := req.Context()
		profile, err := profiledDataset(ctx, st, body.File)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}

		result := analyst.Ask(ctx, body.Question, profile, body.File)
		if body.Explain && explainer != nil {
			switch {
			case result.Artifact != nil:
				prose, err := explainer.ExplainArtifact(ctx, body.Question, result.Artifact)
				if err != nil {
					zap.L().Warn("explanation failed", zap.Error(err))
				} else {
					result.Artifact.Explanation = prose
				}
			case result.GuardBlock != nil:
				prose, err := explainer.ExplainGuardBlock(ctx, body.Question, result.GuardBlock)
				if err != nil {
					zap.L().Warn("explanation failed", zap.Error(err))
				} else {
					result.GuardBlock.Explanation = prose
				}
			}
		}
		if result.Artifact != nil {
			if err := st.SaveArtifact(ctx, result.Artifact); err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func handleBaseline(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			File    string `json:"file"`
			Refresh bool   `json:"refresh"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.File == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
			return
		}

		ctx := req.Context()
		profile, err := profiledDataset(ctx, st, body.File)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}

		analysis, err := st.GetBaseline(ctx, profile.DatasetVersionID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if analysis == nil || body.Refresh {
			analysis, err = baseline.Run(ctx, profile, body.File)
			if err != nil {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
				return
			}
			if err := st.SaveBaseline(ctx, analysis); err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, analysis)
	}
}

func handleDrillDown(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			File      string `json:"file"`
			Metric    string `json:"metric"`
			Dimension string `json:"dimension"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.File == "" || body.Metric == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file and metric are required"})
			return
		}

		ctx := req.Context()
		profile, err := profiledDataset(ctx, st, body.File)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}

		result, aerr := baseline.DrillDown(ctx, body.File, profile, body.Metric, body.Dimension)
		if aerr != nil {
			writeJSON(w, http.StatusUnprocessableEntity, aerr)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func handleGetArtifact(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		artifact, err := st.GetArtifact(req.Context(), id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if artifact == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "artifact not found"})
			return
		}
		writeJSON(w, http.StatusOK, artifact)
	}
}

func handleListArtifacts(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		filter := store.ArtifactFilter{
			DatasetVersionID: req.URL.Query().Get("dataset_version_id"),
			Type:             model.ArtifactType(req.URL.Query().Get("type")),
		}
		artifacts, err := st.ListArtifacts(req.Context(), filter)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, artifacts)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

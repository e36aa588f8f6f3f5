// Command helixd is the HelixDB HTTP gateway: it preloads a .hx
// schema+query source once at startup and serves POST /query, invoking
// the named query against a shared in-process graph+vector store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ritamzico/helixdb/internal/exec"
	"github.com/ritamzico/helixdb/internal/frontend"
	"github.com/ritamzico/helixdb/internal/ir"
	"github.com/ritamzico/helixdb/internal/lang"
	"github.com/ritamzico/helixdb/internal/result"
	"github.com/ritamzico/helixdb/internal/schema"
	"github.com/ritamzico/helixdb/internal/sema"
	"github.com/ritamzico/helixdb/internal/serialization"
	"github.com/ritamzico/helixdb/internal/store/memstore"
	"github.com/ritamzico/helixdb/internal/vectorstore/flat"
)

var allowedOrigins = []string{
	"http://localhost:5173",
}

func main() {
	root := &cobra.Command{
		Use:   "helixd",
		Short: "HelixDB HTTP gateway",
		RunE:  runServe,
	}
	root.Flags().Int("port", 8080, "port to listen on")
	root.Flags().String("source", "", "path to a .hx schema+query source file (required)")
	root.Flags().String("data", "", "path to a .hxdata snapshot to preload")
	root.Flags().StringSlice("vector", nil, "vector type registration NAME:DIM:METRIC, repeatable")
	root.Flags().Duration("query-deadline", 30*time.Second, "default per-query deadline")
	root.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.MarkFlagRequired("source")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// server holds the preloaded pipeline shared across requests. HelixDB's
// in-memory backends are not safe to swap concurrently with a running
// executor, so the graph/vector pair loaded at startup is the one the
// gateway serves for its whole lifetime; persistence happens out of band
// via cmd/helix's "save" command against the same .hxdata file.
type server struct {
	ex            *exec.Executor
	byName        map[string]*ir.Plan
	queryDeadline time.Duration
	log           *logrus.Logger
}

func runServe(cmd *cobra.Command, args []string) error {
	port, _ := cmd.Flags().GetInt("port")
	sourcePath, _ := cmd.Flags().GetString("source")
	dataPath, _ := cmd.Flags().GetString("data")
	vectorSpecs, _ := cmd.Flags().GetStringSlice("vector")
	queryDeadline, _ := cmd.Flags().GetDuration("query-deadline")
	logLevel, _ := cmd.Flags().GetString("log-level")

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(logLevel); err == nil {
		log.SetLevel(lvl)
	}

	src, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("reading source %s: %w", sourcePath, err)
	}
	file, err := lang.Parse(sourcePath, string(src))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", sourcePath, err)
	}
	reg, err := schema.BuildRegistry(file)
	if err != nil {
		return fmt.Errorf("building schema: %w", err)
	}

	plans, diags := sema.Analyze(file, reg)
	if diags.HasErrors() {
		return fmt.Errorf("semantic analysis failed:\n%s", diags.Error())
	}
	byName := make(map[string]*ir.Plan, len(plans))
	for _, p := range plans {
		byName[p.Name] = p
	}

	vec := flat.New()
	if err := frontend.RegisterVectorTypes(vec, vectorSpecs); err != nil {
		return err
	}

	var graph *memstore.Store
	if dataPath != "" {
		g, v, err := serialization.LoadJSON(dataPath, reg)
		if err != nil {
			return fmt.Errorf("loading %s: %w", dataPath, err)
		}
		graph = g
		vec = v
	} else {
		graph = memstore.New(reg)
	}

	srv := &server{
		ex:            exec.New(graph, vec, reg, log),
		byName:        byName,
		queryDeadline: queryDeadline,
		log:           log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/query", srv.handleQuery)
	mux.HandleFunc("/health", srv.handleHealth)

	addr := fmt.Sprintf(":%d", port)
	log.WithFields(logrus.Fields{"addr": addr, "source": sourcePath, "queries": len(byName)}).Info("helixd listening")
	return http.ListenAndServe(addr, corsMiddleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Query  string          `json:"query"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Query == "" {
		writeError(w, http.StatusBadRequest, "missing field: query")
		return
	}

	plan, ok := s.byName[body.Query]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no query named %q", body.Query))
		return
	}

	rawParams := ""
	if len(body.Params) > 0 {
		rawParams = string(body.Params)
	}
	params, err := frontend.ParseParams(rawParams)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid params: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.queryDeadline)
	defer cancel()

	results, err := s.ex.Execute(ctx, plan, params)
	if err != nil {
		s.log.WithError(err).WithField("query", body.Query).Warn("query failed")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	rows := make([]result.Row, len(results))
	for i, res := range results {
		rows[i] = result.NewRow(res.Name, res.Values)
	}
	writeJSON(w, http.StatusOK, result.NewQueryResult(rows))
}

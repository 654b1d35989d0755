package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	prometheusotel "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"staticsearch/internal/config"
	"staticsearch/internal/index"
	"staticsearch/internal/index/storage"
	"staticsearch/internal/markdown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx := context.Background()

	configPath := flag.String("config", "", "Path to a TOML or YAML config file")
	mode := flag.String("mode", "search", "Operation mode: build, search, or serve")
	postsPath := flag.String("posts", "", "Posts JSON file to index (build mode)")
	indexPath := flag.String("index", "", "Override the index file path")
	query := flag.String("query", "", "Query string (search mode)")
	numResults := flag.Int("num", 0, "Maximum number of results (search mode)")
	listen := flag.String("listen", "", "Override the listen address (serve mode)")
	stripMarkdown := flag.Bool("strip-markdown", true, "Strip Markdown from document bodies before indexing (build mode)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if envPath := os.Getenv("STATICSEARCH_INDEX_FILE"); envPath != "" {
		cfg.Paths.IndexFile = envPath
	}
	if *indexPath != "" {
		cfg.Paths.IndexFile = *indexPath
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}
	if *numResults > 0 {
		cfg.Search.NumResults = *numResults
	}
	// The flag only overrides the config when passed explicitly.
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "strip-markdown" {
			cfg.Search.StripMarkdown = stripMarkdown
		}
	})

	switch *mode {
	case "build":
		err = runBuild(cfg, logger, *postsPath)
	case "search":
		err = runSearch(cfg, logger, *query)
	case "serve":
		err = runServe(ctx, cfg, logger)
	default:
		err = fmt.Errorf("unknown mode %q (expected build, search, or serve)", *mode)
	}
	if err != nil {
		logger.Error("command failed", "mode", *mode, "error", err)
		os.Exit(1)
	}
}

func runBuild(cfg config.AppConfig, logger *slog.Logger, postsPath string) error {
	if postsPath == "" {
		return errors.New("build mode requires -posts")
	}
	start := time.Now()

	raw, err := os.ReadFile(postsPath)
	if err != nil {
		return fmt.Errorf("read posts file: %w", err)
	}

	posts, err := index.ParsePosts(raw)
	if err != nil {
		return err
	}

	docs := cfg.Search.Schema.Apply(posts)
	if cfg.Search.StripMarkdown == nil || *cfg.Search.StripMarkdown {
		docs = stripBodies(docs)
	}

	stopwords, err := cfg.LoadStopwords()
	if err != nil {
		return err
	}

	idx, err := index.Build(index.Prepare(docs), stopwords)
	if err != nil {
		return err
	}

	if err := storage.WriteFile(cfg.Paths.IndexFile, idx); err != nil {
		return err
	}

	logger.Info("index built",
		"posts", len(posts),
		"documents", len(idx),
		"indexFile", cfg.Paths.IndexFile,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func runSearch(cfg config.AppConfig, logger *slog.Logger, query string) error {
	idx, err := storage.ReadFile(cfg.Paths.IndexFile)
	if err != nil {
		return err
	}

	stopwords, err := cfg.LoadStopwords()
	if err != nil {
		return err
	}

	start := time.Now()
	results := index.Search(idx, query, cfg.Search.NumResults, stopwords)
	logger.Info("search completed", "query", query, "hits", len(results), "duration_ms", time.Since(start).Milliseconds())

	encoder := json.NewEncoder(os.Stdout)
	for _, id := range results {
		if err := encoder.Encode(id); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	}
	return nil
}

func runServe(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) error {
	idx, err := storage.ReadFile(cfg.Paths.IndexFile)
	if err != nil {
		return err
	}

	stopwords, err := cfg.LoadStopwords()
	if err != nil {
		return err
	}

	telemetry := newTelemetry(ctx, logger, cfg.Metrics.Enabled != nil && *cfg.Metrics.Enabled)
	telemetry.observeIndexSize(len(idx))

	server := &searchServer{
		idx:        idx,
		stopwords:  stopwords,
		numResults: cfg.Search.NumResults,
		telemetry:  telemetry,
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search", server.handleSearch)
	mux.HandleFunc("/v1/health", server.handleHealth)
	if telemetry.enabled {
		mux.HandleFunc("/v1/metrics", telemetry.handleMetrics)
	}

	handler := withJSONHeaders(mux)
	handler = withTelemetry(handler, telemetry, cfg.Logging.RequestLogs == nil || *cfg.Logging.RequestLogs)

	logger.Info("staticsearch API listening", "listen", cfg.Server.Listen, "indexFile", cfg.Paths.IndexFile, "documents", len(idx))
	return http.ListenAndServe(cfg.Server.Listen, handler)
}

// strippedDocument lazily strips Markdown from the wrapped document's body.
type strippedDocument struct {
	index.Document
}

func (d strippedDocument) Body() (string, bool) {
	body, ok := d.Document.Body()
	if !ok {
		return "", false
	}
	return markdown.Strip(body), true
}

func stripBodies(docs []index.Document) []index.Document {
	out := make([]index.Document, len(docs))
	for i, doc := range docs {
		out[i] = strippedDocument{Document: doc}
	}
	return out
}

type searchServer struct {
	idx        index.Index
	stopwords  index.Stopwords
	numResults int
	telemetry  *telemetry
	logger     *slog.Logger
}

func (s *searchServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "q parameter is required", start)
		return
	}

	num, err := parseIntDefault(r.URL.Query().Get("num"), s.numResults)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid num: %v", err), start)
		return
	}

	results := index.Search(s.idx, query, num, s.stopwords)

	if s.telemetry != nil {
		s.telemetry.recordSearch(r.Context(), len(results), time.Since(start))
	}
	if s.logger != nil {
		s.logger.Info("search completed", "query", query, "hits", len(results), "duration_ms", time.Since(start).Milliseconds())
	}

	respond(w, http.StatusOK, map[string]any{
		"query":    query,
		"results":  results,
		"hits":     len(results),
		"timingMs": time.Since(start).Milliseconds(),
	})
}

func (s *searchServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	respond(w, http.StatusOK, map[string]any{"status": "ok", "documents": len(s.idx), "timingMs": time.Since(start).Milliseconds()})
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type telemetry struct {
	enabled bool
	logger  *slog.Logger

	registry       *prometheus.Registry
	metricsHandler http.Handler

	httpRequests  metric.Int64Counter
	httpErrors    metric.Int64Counter
	httpLatency   metric.Float64Histogram
	searchOps     metric.Int64Counter
	searchHits    metric.Int64Counter
	searchLatency metric.Float64Histogram

	indexGauge prometheus.Gauge
}

func newTelemetry(ctx context.Context, logger *slog.Logger, enabled bool) *telemetry {
	telemetry := &telemetry{enabled: enabled, logger: logger}
	if !enabled {
		return telemetry
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	exporter, err := prometheusotel.New(prometheusotel.WithRegisterer(registry))
	if err != nil {
		logger.Error("failed to initialize prometheus exporter", "error", err)
		return telemetry
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter("staticsearch")

	httpReq, _ := meter.Int64Counter("http_requests_total", metric.WithDescription("Total HTTP requests"))
	httpErr, _ := meter.Int64Counter("http_errors_total", metric.WithDescription("HTTP requests that returned an error status"))
	httpLatency, _ := meter.Float64Histogram("http_request_duration_ms", metric.WithDescription("Latency of HTTP requests in milliseconds"), metric.WithUnit("ms"))
	searchOps, _ := meter.Int64Counter("search_requests_total", metric.WithDescription("Search operations executed"))
	searchHits, _ := meter.Int64Counter("search_hits_total", metric.WithDescription("Documents returned across all searches"))
	searchLatency, _ := meter.Float64Histogram("search_latency_ms", metric.WithDescription("Latency of search operations"), metric.WithUnit("ms"))

	indexGauge := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "staticsearch", Name: "index_documents", Help: "Documents in the loaded index"})
	registry.MustRegister(indexGauge)

	telemetry.registry = registry
	telemetry.metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	telemetry.httpRequests = httpReq
	telemetry.httpErrors = httpErr
	telemetry.httpLatency = httpLatency
	telemetry.searchOps = searchOps
	telemetry.searchHits = searchHits
	telemetry.searchLatency = searchLatency
	telemetry.indexGauge = indexGauge

	telemetry.logger.Info("telemetry initialized", "prometheus", true)
	telemetry.httpRequests.Add(ctx, 0) // ensure metric is created eagerly
	return telemetry
}

func (t *telemetry) recordRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	if !t.enabled {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	)
	t.httpRequests.Add(ctx, 1, attrs)
	t.httpLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	if status >= http.StatusBadRequest {
		t.httpErrors.Add(ctx, 1, attrs)
	}
}

func (t *telemetry) recordSearch(ctx context.Context, hits int, duration time.Duration) {
	if !t.enabled {
		return
	}

	t.searchOps.Add(ctx, 1)
	t.searchHits.Add(ctx, int64(hits))
	t.searchLatency.Record(ctx, float64(duration.Milliseconds()))
}

func (t *telemetry) observeIndexSize(documents int) {
	if !t.enabled {
		return
	}
	t.indexGauge.Set(float64(documents))
}

func (t *telemetry) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if !t.enabled || t.registry == nil {
		respond(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}

	t.metricsHandler.ServeHTTP(w, r)
}

func withTelemetry(next http.Handler, telemetry *telemetry, logRequests bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)
		duration := time.Since(start)

		if telemetry != nil {
			telemetry.recordRequest(r.Context(), r.Method, r.URL.Path, recorder.status, duration)
		}
		if logRequests && telemetry != nil && telemetry.logger != nil {
			telemetry.logger.Info("request completed", "method", r.Method, "path", r.URL.Path, "status", recorder.status, "duration_ms", duration.Milliseconds())
		}
	})
}

func respond(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string, start time.Time) {
	respond(w, status, map[string]any{"error": message, "timingMs": time.Since(start).Milliseconds()})
}

func parseIntDefault(raw string, defaultVal int) (int, error) {
	if raw == "" {
		return defaultVal, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return val, nil
}

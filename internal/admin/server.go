// Package admin exposes the archive's operational HTTP surface: health,
// row statistics, and read endpoints over the stored records. Writes only
// arrive through the ingest path, never through this server.
package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tanzinabd23/relayer-distributor/internal/metrics"
	"github.com/tanzinabd23/relayer-distributor/internal/store"
)

// Pinger reports whether the underlying database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server provides the read-only ops API over the archive stores.
type Server struct {
	txRepo      store.TransactionRepository
	receiptRepo store.ReceiptRepository
	db          Pinger
	logger      *slog.Logger
}

func NewServer(txRepo store.TransactionRepository, receiptRepo store.ReceiptRepository, db Pinger, logger *slog.Logger) *Server {
	return &Server{
		txRepo:      txRepo,
		receiptRepo: receiptRepo,
		db:          db,
		logger:      logger,
	}
}

// Routes returns the server's handler with rate limiting applied to the
// data endpoints. Health stays unlimited so orchestrator probes are never
// shed.
func (s *Server) Routes(rl *RateLimitMiddleware) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /v1/stats", rl.Wrap(http.HandlerFunc(s.handleStats)))
	mux.Handle("GET /v1/transactions/latest", rl.Wrap(http.HandlerFunc(s.handleLatestTransactions)))
	mux.Handle("GET /v1/transactions/{id}", rl.Wrap(http.HandlerFunc(s.handleTransactionByID)))
	mux.Handle("GET /v1/receipts/latest", rl.Wrap(http.HandlerFunc(s.handleLatestReceipts)))
	mux.Handle("GET /v1/receipts/cycle-counts", rl.Wrap(http.HandlerFunc(s.handleReceiptCycleCounts)))
	mux.Handle("GET /v1/receipts/{id}", rl.Wrap(http.HandlerFunc(s.handleReceiptByID)))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		s.writeError(w, r, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	txCount, err := s.txRepo.Count(r.Context())
	if err != nil {
		s.logger.Error("count transactions", "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "count transactions failed")
		return
	}
	receiptCount, err := s.receiptRepo.Count(r.Context())
	if err != nil {
		s.logger.Error("count receipts", "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "count receipts failed")
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]int64{
		"transactions": txCount,
		"receipts":     receiptCount,
	})
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	tx, err := s.txRepo.GetByID(r.Context(), id)
	if err != nil {
		s.logger.Error("get transaction", "tx_id", id, "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "lookup failed")
		return
	}
	if tx == nil {
		s.writeError(w, r, http.StatusNotFound, "transaction not found")
		return
	}
	s.writeJSON(w, r, http.StatusOK, tx)
}

func (s *Server) handleLatestTransactions(w http.ResponseWriter, r *http.Request) {
	count := queryInt(r, "count", 0)
	txns, err := s.txRepo.GetLatest(r.Context(), count)
	if err != nil {
		s.logger.Error("latest transactions", "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "query failed")
		return
	}
	s.writeJSON(w, r, http.StatusOK, txns)
}

func (s *Server) handleReceiptByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := s.receiptRepo.GetByID(r.Context(), id)
	if err != nil {
		s.logger.Error("get receipt", "receipt_id", id, "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "lookup failed")
		return
	}
	if rec == nil {
		s.writeError(w, r, http.StatusNotFound, "receipt not found")
		return
	}
	s.writeJSON(w, r, http.StatusOK, rec)
}

func (s *Server) handleLatestReceipts(w http.ResponseWriter, r *http.Request) {
	count := queryInt(r, "count", 0)
	receipts, err := s.receiptRepo.GetLatest(r.Context(), count)
	if err != nil {
		s.logger.Error("latest receipts", "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "query failed")
		return
	}
	s.writeJSON(w, r, http.StatusOK, receipts)
}

func (s *Server) handleReceiptCycleCounts(w http.ResponseWriter, r *http.Request) {
	start := int64(queryInt(r, "start", 0))
	end := int64(queryInt(r, "end", -1))
	if end < start {
		s.writeError(w, r, http.StatusBadRequest, "end must be >= start")
		return
	}
	counts, err := s.receiptRepo.CountByCycle(r.Context(), start, end)
	if err != nil {
		s.logger.Error("receipt cycle counts", "start", start, "end", end, "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "query failed")
		return
	}
	s.writeJSON(w, r, http.StatusOK, counts)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	metrics.HTTPRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "path", r.URL.Path, "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, r, status, map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

package main

import (
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"remitledger/config"
	"remitledger/observability/logging"
	"remitledger/remit"
)

type server struct {
	service *remit.Service
	logger  *slog.Logger
	limiter *rateLimiter
}

func newServer(service *remit.Service, logger *slog.Logger, limits config.RateLimitConfig) *server {
	return &server{
		service: service,
		logger:  logger,
		limiter: newRateLimiter(limits),
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.limiter.middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/transfers/{id}", s.handleGetTransfer)
		r.Get("/ratelocks/{id}", s.handleGetRateLock)
		r.Get("/plans/{owner}", s.handleGetPlan)
		r.Get("/balances/{owner}/{token}", s.handleBalance)
		r.Get("/fees/quote", s.handleFeeQuote)
		r.Get("/fees/savings", s.handleSavings)
		r.Get("/swap/estimate", s.handleSwapEstimate)
		r.Get("/swap/quote", s.handleBestQuote)
		r.Get("/swap/path", s.handleSwapPath)

		r.Post("/admin/pause", s.handlePause(true))
		r.Post("/admin/unpause", s.handlePause(false))
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func parseAddress(raw string) ([20]byte, bool) {
	var addr [20]byte
	decoded, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(raw), "0x"))
	if err != nil || len(decoded) != len(addr) {
		return addr, false
	}
	copy(addr[:], decoded)
	return addr, true
}

func parseAmount(raw string) (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || amount.Sign() < 0 {
		return nil, false
	}
	return amount, true
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func (s *server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	paused, err := s.service.Paused()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	tally, err := s.service.PlanTally()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"paused":    paused,
		"planTally": tally,
	})
}

func (s *server) handleGetTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}
	rec, err := s.service.GetTransfer(id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        rec.ID,
		"kind":      rec.Kind.String(),
		"from":      hex.EncodeToString(rec.From[:]),
		"to":        hex.EncodeToString(rec.To[:]),
		"token":     rec.Token,
		"amount":    rec.Amount.String(),
		"status":    rec.Status.String(),
		"createdAt": rec.CreatedAt,
	})
}

func (s *server) handleGetRateLock(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rate lock id")
		return
	}
	lock, err := s.service.GetRateLock(id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        lock.ID,
		"owner":     hex.EncodeToString(lock.Owner[:]),
		"fromToken": lock.FromToken,
		"toToken":   lock.ToToken,
		"rate":      lock.LockedRate.String(),
		"amount":    lock.Amount.String(),
		"expiry":    lock.Expiry,
		"active":    lock.Active,
	})
}

func (s *server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	owner, ok := parseAddress(chi.URLParam(r, "owner"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid owner address")
		return
	}
	plan, found, err := s.service.GetPlan(owner)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "no plan for owner")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"owner":       hex.EncodeToString(plan.Owner[:]),
		"tier":        plan.Tier.String(),
		"discountBps": plan.DiscountBps,
		"startDate":   plan.StartDate,
		"endDate":     plan.EndDate,
		"active":      plan.Active,
	})
}

func (s *server) handleBalance(w http.ResponseWriter, r *http.Request) {
	owner, ok := parseAddress(chi.URLParam(r, "owner"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid owner address")
		return
	}
	balance, err := s.service.BalanceOf(chi.URLParam(r, "token"), owner)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}

func (s *server) handleFeeQuote(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	payer, ok := parseAddress(query.Get("payer"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid payer address")
		return
	}
	amount, ok := parseAmount(query.Get("amount"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	isBatch := query.Get("batch") == "true"
	batchSize := uint64(0)
	if raw := query.Get("batchSize"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid batch size")
			return
		}
		batchSize = parsed
	}
	breakdown, err := s.service.QuoteFee(payer, amount, isBatch, uint32(batchSize))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"networkFee": breakdown.NetworkFee.String(),
		"serviceFee": breakdown.ServiceFee.String(),
		"discount":   breakdown.Discount.String(),
		"total":      breakdown.Total.String(),
	})
}

func (s *server) handleSavings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	amount, ok := parseAmount(query.Get("amount"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	hours, err := strconv.ParseUint(query.Get("hours"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hours")
		return
	}
	saving := s.service.EstimateScheduleSavings(amount, uint32(hours))
	writeJSON(w, http.StatusOK, map[string]string{"saving": saving.String()})
}

func (s *server) handleSwapEstimate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	amount, ok := parseAmount(query.Get("amount"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	out, err := s.service.EstimateOutput(query.Get("from"), query.Get("to"), amount)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"output": out.String()})
}

func (s *server) handleBestQuote(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	amount, ok := parseAmount(query.Get("amount"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	quote, err := s.service.BestQuote(query.Get("from"), query.Get("to"), amount)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"venue":  quote.Venue.String(),
		"output": quote.Output.String(),
	})
}

func (s *server) handleSwapPath(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	path := s.service.SuggestPath(query.Get("from"), query.Get("to"))
	writeJSON(w, http.StatusOK, map[string]any{
		"fromToken":      path.FromToken,
		"toToken":        path.ToToken,
		"intermediaries": path.Intermediaries,
	})
}

func (s *server) handlePause(pause bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		credential := bearerToken(r)
		if credential == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		var err error
		if pause {
			err = s.service.Pause(credential)
		} else {
			err = s.service.Unpause(credential)
		}
		if err != nil {
			s.logger.Warn("admin switch rejected",
				slog.String("error", err.Error()),
				logging.MaskField("credential", credential))
			writeError(w, statusFor(err), err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	allocationauditor "moneywave/contexts/economy-core/allocation-auditor"
	auditerrors "moneywave/contexts/economy-core/allocation-auditor/domain/errors"
	audithttp "moneywave/contexts/economy-core/allocation-auditor/transport/http"
	dailydistribution "moneywave/contexts/economy-core/daily-distribution"
	distributionerrors "moneywave/contexts/economy-core/daily-distribution/domain/errors"
	distributionhttp "moneywave/contexts/economy-core/daily-distribution/transport/http"
	settlementengine "moneywave/contexts/economy-core/settlement-engine"
	settlementerrors "moneywave/contexts/economy-core/settlement-engine/domain/errors"
	settlementhttp "moneywave/contexts/economy-core/settlement-engine/transport/http"
)

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	distribution dailydistribution.Module
	settlement   settlementengine.Module
	auditor      allocationauditor.Module
}

func New(
	distribution dailydistribution.Module,
	settlement settlementengine.Module,
	auditor allocationauditor.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		distribution: distribution,
		settlement:   settlement,
		auditor:      auditor,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /v1/distribution/daily-run", s.handleDailyRun)
	s.mux.HandleFunc("GET /v1/distribution/snapshots/{snapshot_date}", s.handleGetSnapshot)

	s.mux.HandleFunc("POST /v1/games/{game_id}/settle", s.handleSettleGame)
	s.mux.HandleFunc("GET /v1/games/{game_id}/settlement", s.handleGetSettlement)

	s.mux.HandleFunc("GET /v1/audit/allocations", s.handleAuditAllocations)
}

func (s *Server) handleDailyRun(w http.ResponseWriter, r *http.Request) {
	var req distributionhttp.DailyRunRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDistributionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}

	resp, err := s.distribution.Handler.DailyRunHandler(r.Context(), req)
	if err != nil {
		writeDistributionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshotDate := r.PathValue("snapshot_date")
	resp, err := s.distribution.Handler.GetSnapshotHandler(r.Context(), snapshotDate)
	if err != nil {
		writeDistributionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSettleGame(w http.ResponseWriter, r *http.Request) {
	actorID := r.Header.Get("X-User-Id")
	if actorID == "" {
		writeSettlementError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req settlementhttp.SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSettlementError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	gameID := r.PathValue("game_id")
	resp, err := s.settlement.Handler.SettleHandler(r.Context(), actorID, gameID, req)
	if err != nil {
		writeSettlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSettlement(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("game_id")
	resp, err := s.settlement.Handler.GetSettlementHandler(r.Context(), gameID)
	if err != nil {
		writeSettlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuditAllocations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	hourRaw := query.Get("hour")
	if hourRaw == "" {
		writeAuditError(w, http.StatusBadRequest, "missing_hour", "hour query parameter is required")
		return
	}
	hourStart, err := time.Parse(time.RFC3339, hourRaw)
	if err != nil {
		writeAuditError(w, http.StatusBadRequest, "invalid_hour", "hour must be an RFC3339 timestamp")
		return
	}

	resp, err := s.auditor.Handler.VerifyHandler(r.Context(), hourStart, query.Get("domain"))
	if err != nil {
		writeAuditDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeDistributionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, distributionerrors.ErrSnapshotNotFound):
		writeDistributionError(w, http.StatusNotFound, "snapshot_not_found", err.Error())
	case errors.Is(err, distributionerrors.ErrInvalidInput):
		writeDistributionError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, distributionerrors.ErrConfigMissing):
		writeDistributionError(w, http.StatusInternalServerError, "config_missing", err.Error())
	case errors.Is(err, distributionerrors.ErrInvalidConfig),
		errors.Is(err, distributionerrors.ErrInvalidTimezone):
		writeDistributionError(w, http.StatusInternalServerError, "invalid_config", err.Error())
	default:
		writeDistributionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeSettlementDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, settlementerrors.ErrGameNotFound):
		writeSettlementError(w, http.StatusNotFound, "game_not_found", err.Error())
	case errors.Is(err, settlementerrors.ErrSettlementNotFound):
		writeSettlementError(w, http.StatusNotFound, "settlement_not_found", err.Error())
	case errors.Is(err, settlementerrors.ErrUnauthorized):
		writeSettlementError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, settlementerrors.ErrAlreadySettled):
		writeSettlementError(w, http.StatusConflict, "already_settled", err.Error())
	case errors.Is(err, settlementerrors.ErrGameNotEnded):
		writeSettlementError(w, http.StatusUnprocessableEntity, "game_not_ended", err.Error())
	case errors.Is(err, settlementerrors.ErrInvalidInput):
		writeSettlementError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeSettlementError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAuditDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auditerrors.ErrInvalidInput):
		writeAuditError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeAuditError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeDistributionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, distributionhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeSettlementError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, settlementhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeAuditError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, audithttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

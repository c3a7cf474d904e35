package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	account, err := s.accounts.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !account.HasCredentials() {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Account has no API credentials", nil)
		return
	}

	report, err := s.reports.BuildDailyReport(r.Context(), account, time.Now())
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"account": account.Name,
		}).WithError(err).Error("Failed to build daily report")
		respondError(w, http.StatusBadGateway, ErrCodeServiceUnavailable, "Failed to build daily report", nil)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleWeeklyReport(w http.ResponseWriter, r *http.Request) {
	account, err := s.accounts.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !account.HasCredentials() {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Account has no API credentials", nil)
		return
	}

	report, err := s.reports.BuildWeeklyReport(r.Context(), account, time.Now())
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"account": account.Name,
		}).WithError(err).Error("Failed to build weekly report")
		respondError(w, http.StatusBadGateway, ErrCodeServiceUnavailable, "Failed to build weekly report", nil)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// BackfillResponse reports how many records a backfill run created
type BackfillResponse struct {
	AccountID string `json:"accountId"`
	Days      int    `json:"days"`
	Created   int    `json:"created"`
}

func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	account, err := s.accounts.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !account.HasCredentials() {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Account has no API credentials", nil)
		return
	}

	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "days must be a positive integer", nil)
			return
		}
		days = parsed
	}
	if days > s.config.MaxBackfillDays {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "days exceeds the backfill limit", map[string]interface{}{
			"max": s.config.MaxBackfillDays,
		})
		return
	}

	created, err := s.backfill.RunAccount(r.Context(), account, days, time.Now())
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"account": account.Name,
		}).WithError(err).Error("Backfill failed")
		respondError(w, http.StatusBadGateway, ErrCodeServiceUnavailable, "Backfill failed", nil)
		return
	}
	respondJSON(w, http.StatusOK, BackfillResponse{AccountID: account.ID, Days: days, Created: created})
}

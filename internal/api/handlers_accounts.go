package api

import (
	"net/http"
	"time"

	"github.com/avito-insight/internal/models"
	"github.com/gorilla/mux"
)

// HealthResponse is the health endpoint payload
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Services: map[string]string{}}
	status := http.StatusOK

	if err := s.db.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Services["postgres"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		resp.Services["postgres"] = "ok"
	}

	if s.cache != nil {
		if err := s.cache.Ping(r.Context()); err != nil {
			// A dead cache degrades performance, not correctness.
			resp.Services["redis"] = err.Error()
		} else {
			resp.Services["redis"] = "ok"
		}
	}

	respondJSON(w, status, resp)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.List(r.Context())
	if err != nil {
		s.log.WithError(err).Error("Failed to list accounts")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"total":    len(accounts),
	})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.accounts.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, account)
}

// CreateAccountRequest is the account registration payload. Credentials are
// optional; accounts without them are excluded from every batch until
// credentials are set.
type CreateAccountRequest struct {
	Name               string `json:"name"`
	ClientID           string `json:"clientId"`
	ClientSecret       string `json:"clientSecret"`
	Timezone           string `json:"timezone"`
	DailyReportChatID  *int64 `json:"dailyReportChatId"`
	WeeklyReportChatID *int64 `json:"weeklyReportChatId"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Account name is required", nil)
		return
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Unknown timezone", map[string]interface{}{"timezone": req.Timezone})
			return
		}
	}

	account := &models.Account{
		Name:               req.Name,
		ClientID:           orNone(req.ClientID),
		ClientSecret:       orNone(req.ClientSecret),
		Timezone:           req.Timezone,
		DailyReportChatID:  req.DailyReportChatID,
		WeeklyReportChatID: req.WeeklyReportChatID,
	}
	if err := s.accounts.Create(r.Context(), account); err != nil {
		s.log.WithError(err).Error("Failed to create account")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, account)
}

// orNone substitutes the placeholder the batch filters recognize for an empty
// credential.
func orNone(v string) string {
	if v == "" {
		return "none"
	}
	return v
}

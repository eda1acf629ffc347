package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Pankaj-karwasra/product-importer/internal/catalog"
	"github.com/Pankaj-karwasra/product-importer/internal/queue"
)

// webhookRequest is the JSON body for webhook create and update.
type webhookRequest struct {
	Name   string   `json:"name"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Active *bool    `json:"active"`
}

func (r webhookRequest) webhook() (catalog.Webhook, error) {
	wh := catalog.Webhook{
		Name:   strings.TrimSpace(r.Name),
		URL:    strings.TrimSpace(r.URL),
		Events: r.Events,
		Active: true,
	}
	if wh.URL == "" {
		return wh, errors.New("url is required")
	}
	u, err := url.Parse(wh.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return wh, errors.New("url must be a valid http or https URL")
	}
	if r.Active != nil {
		wh.Active = *r.Active
	}
	return wh, nil
}

func (s *Server) handleListWebhooks(w http.ResponseWriter, r *http.Request) {
	webhooks, err := s.webhooks.ListWebhooks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list webhooks")
		return
	}
	writeJSON(w, webhooks)
}

func (s *Server) handleGetWebhook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseWebhookID(w, r)
	if !ok {
		return
	}

	wh, err := s.webhooks.GetWebhook(r.Context(), id)
	if err != nil {
		respondWebhookErr(w, err)
		return
	}
	writeJSON(w, wh)
}

func (s *Server) handleCreateWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	wh, err := req.webhook()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.webhooks.CreateWebhook(r.Context(), wh)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create webhook")
		return
	}
	writeJSONStatus(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateWebhook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseWebhookID(w, r)
	if !ok {
		return
	}

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	wh, err := req.webhook()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.webhooks.UpdateWebhook(r.Context(), id, wh)
	if err != nil {
		respondWebhookErr(w, err)
		return
	}
	writeJSON(w, updated)
}

func (s *Server) handleDeleteWebhook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseWebhookID(w, r)
	if !ok {
		return
	}

	if err := s.webhooks.DeleteWebhook(r.Context(), id); err != nil {
		respondWebhookErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTestWebhook enqueues a test delivery against the endpoint. The
// endpoint must exist before the job is accepted; the delivery outcome
// itself is reported by the worker.
func (s *Server) handleTestWebhook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseWebhookID(w, r)
	if !ok {
		return
	}

	if _, err := s.webhooks.GetWebhook(r.Context(), id); err != nil {
		respondWebhookErr(w, err)
		return
	}

	jobID := newJobID()
	if err := s.jobs.Submit(r.Context(), queue.NewNotifyJob(jobID, id.String())); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to enqueue test delivery")
		return
	}

	writeJSON(w, map[string]string{"job_id": jobID})
}

func parseWebhookID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "webhookID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook ID")
		return uuid.Nil, false
	}
	return id, true
}

func respondWebhookErr(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "webhook not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "webhook operation failed")
}

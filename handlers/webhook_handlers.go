package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikhilsahni7/StandupX/models"
	"go.uber.org/zap"
)

const eventResponseSubmitted = "response_submitted"

type webhookStore interface {
	ListWebhooks(ctx context.Context, ceremonyID uint) ([]models.Webhook, error)
}

// Dispatcher delivers submission events to a ceremony's webhooks.
type Dispatcher struct {
	store   webhookStore
	client  *http.Client
	logger  *zap.Logger
	pending sync.WaitGroup
}

func NewDispatcher(store webhookStore, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{store: store, client: &http.Client{Timeout: timeout}, logger: logger}
}

// subscribed reports whether hook wants event. An empty event list means all.
func subscribed(hook models.Webhook, event string) bool {
	if strings.TrimSpace(hook.Events) == "" {
		return true
	}
	for _, e := range strings.Split(hook.Events, ",") {
		if strings.TrimSpace(e) == event {
			return true
		}
	}
	return false
}

// ResponseSubmitted posts the event to every subscribed hook of the
// ceremony. Deliveries run in the background and never fail the submission.
func (d *Dispatcher) ResponseSubmitted(ctx context.Context, resp *models.CeremonyResponse) {
	hooks, err := d.store.ListWebhooks(ctx, resp.CeremonyID)
	if err != nil {
		d.logger.Error("webhook: failed to list hooks", zap.Uint("ceremony_id", resp.CeremonyID), zap.Error(err))
		return
	}

	payload, err := json.Marshal(map[string]any{
		"event":        eventResponseSubmitted,
		"ceremony_id":  resp.CeremonyID,
		"team_id":      resp.TeamID,
		"user_id":      resp.UserID,
		"response_id":  resp.ID,
		"submitted_at": resp.SubmittedAt,
	})
	if err != nil {
		d.logger.Error("webhook: failed to encode payload", zap.Error(err))
		return
	}

	for _, hook := range hooks {
		if !subscribed(hook, eventResponseSubmitted) {
			continue
		}
		d.pending.Add(1)
		go func(hook models.Webhook) {
			defer d.pending.Done()
			d.deliver(hook, payload)
		}(hook)
	}
}

func (d *Dispatcher) deliver(hook models.Webhook, payload []byte) {
	log := d.logger.With(zap.Uint("webhook_id", hook.ID), zap.String("url", hook.URL))

	req, err := http.NewRequest(http.MethodPost, hook.URL, bytes.NewReader(payload))
	if err != nil {
		log.Error("webhook: bad request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Secret", hook.Secret)

	resp, err := d.client.Do(req)
	if err != nil {
		log.Warn("webhook: delivery failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		log.Warn("webhook: receiver rejected event", zap.Int("status", resp.StatusCode))
		return
	}
	log.Info("webhook: delivered", zap.Int("status", resp.StatusCode))
}

// Wait blocks until every started delivery has finished.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

type webhookInput struct {
	URL    string `json:"url"`
	Events string `json:"events"`
	Secret string `json:"secret"`
}

func (in *webhookInput) validate() error {
	u, err := url.Parse(in.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return badRequest("url must be an absolute http(s) url")
	}
	if in.Secret == "" {
		in.Secret = uuid.NewString()
	}
	return nil
}

func (s *Server) createWebhook(w http.ResponseWriter, r *http.Request) {
	c, u, err := s.ceremony(r, canManage)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var in webhookInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := in.validate(); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	hook := &models.Webhook{UserID: u.ID, CeremonyID: c.ID, URL: in.URL, Events: in.Events, Secret: in.Secret}
	if err := s.store.CreateWebhook(r.Context(), hook); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, hook)
}

func (s *Server) listWebhooks(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.ceremony(r, canManage)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	hooks, err := s.store.ListWebhooks(r.Context(), c.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hooks)
}

// webhook loads the hook named by {id} for someone who manages its ceremony.
func (s *Server) webhook(r *http.Request) (*models.Webhook, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	ctx := r.Context()
	hook, err := s.store.GetWebhook(ctx, id)
	if err != nil {
		return nil, err
	}
	c, err := s.store.GetCeremony(ctx, hook.CeremonyID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTeam(r, c.TeamID, canManage); err != nil {
		return nil, err
	}
	return hook, nil
}

func (s *Server) updateWebhook(w http.ResponseWriter, r *http.Request) {
	hook, err := s.webhook(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	in := webhookInput{URL: hook.URL, Events: hook.Events, Secret: hook.Secret}
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := in.validate(); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	hook.URL, hook.Events, hook.Secret = in.URL, in.Events, in.Secret
	if err := s.store.UpdateWebhook(r.Context(), hook); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hook)
}

func (s *Server) deleteWebhook(w http.ResponseWriter, r *http.Request) {
	hook, err := s.webhook(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.store.DeleteWebhook(r.Context(), hook.ID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nikhilsahni7/StandupX/db"
	"github.com/nikhilsahni7/StandupX/models"
	"github.com/nikhilsahni7/StandupX/response"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func (s *Server) submitResponse(w http.ResponseWriter, r *http.Request) {
	var sub response.Submission
	if err := decodeJSON(r, &sub); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if sub.CeremonyID == 0 {
		writeError(w, http.StatusBadRequest, "ceremony_id is required")
		return
	}
	sub.UserID = currentUserID(r)

	resp, err := s.responses.Submit(r.Context(), &sub)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// form returns the ceremony's resolved questions with a blank entry for each,
// ready to be filled in.
func (s *Server) form(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.ceremony(r, canView)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	items, err := s.responses.Items(r.Context(), c.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ceremony": c,
		"items":    items,
		"entries":  response.Blank(items),
	})
}

// getResponse is open to the author and to anyone who manages the team.
func (s *Server) getResponse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	ctx := r.Context()
	resp, err := s.store.GetResponse(ctx, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if resp.UserID != currentUserID(r) {
		if err := s.authorizeTeam(r, resp.TeamID, canManage); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ownResponse loads the {id} response for its author or an admin.
func (s *Server) ownResponse(r *http.Request) (*models.CeremonyResponse, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	ctx := r.Context()
	u, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := s.store.GetResponse(ctx, id)
	if err != nil {
		return nil, err
	}
	if resp.UserID != u.ID && !u.IsAdmin() {
		return nil, errPermission
	}
	return resp, nil
}

type responseUpdate struct {
	response.Submission
	Status string `json:"status"`
}

// updateResponse replaces the answers of a response that is not yet
// completed or archived.
func (s *Server) updateResponse(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ownResponse(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var in responseUpdate
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.responses.Revise(r.Context(), resp, &in.Submission, in.Status); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	stored, err := s.store.GetResponse(r.Context(), resp.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) deleteResponse(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ownResponse(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.responses.Delete(r.Context(), resp); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) myResponses(w http.ResponseWriter, r *http.Request) {
	responses, err := s.store.FindResponses(r.Context(), db.ResponseFilter{
		UserID: currentUserID(r),
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, responses)
}

// teamResponses lists a team's responses, optionally for one ceremony.
// Members who do not manage the team only see their own.
func (s *Server) teamResponses(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathID(r, "teamId")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	ctx := r.Context()
	u, err := s.currentUser(ctx)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.checkTeam(ctx, u, teamID, canView); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	query := r.URL.Query()
	f := db.ResponseFilter{TeamID: teamID, Status: query.Get("status")}
	if raw := query.Get("ceremony_id"); raw != "" {
		if f.CeremonyID, err = parseUint(raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid ceremony_id")
			return
		}
	}
	err = s.checkTeam(ctx, u, teamID, canManage)
	switch {
	case errors.Is(err, errPermission):
		f.UserID = u.ID
	case err != nil:
		s.writeServiceError(w, r, err)
		return
	}

	responses, err := s.store.FindResponses(ctx, f)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, responses)
}

// listResponses returns every response to managers and only the caller's own
// response to other members.
func (s *Server) listResponses(w http.ResponseWriter, r *http.Request) {
	c, u, err := s.ceremony(r, canView)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	ctx := r.Context()
	responses, err := s.store.ListResponses(ctx, c.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	err = s.checkTeam(ctx, u, c.TeamID, canManage)
	switch {
	case errors.Is(err, errPermission):
		own := responses[:0]
		for _, resp := range responses {
			if resp.UserID == u.ID {
				own = append(own, resp)
			}
		}
		responses = own
	case err != nil:
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, responses)
}

func (s *Server) responseSummary(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.ceremony(r, canView)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var (
		items     []response.Item
		responses []models.CeremonyResponse
		teamSize  int
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		items, err = s.responses.Items(ctx, c.ID)
		return err
	})
	g.Go(func() error {
		var err error
		responses, err = s.store.ListResponses(ctx, c.ID)
		return err
	})
	g.Go(func() error {
		var err error
		teamSize, err = s.store.TeamSize(ctx, c.TeamID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response.Summarize(c.ID, items, responses, teamSize))
}

func (s *Server) exportResponses(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.ceremony(r, canManage)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	ctx := r.Context()
	items, err := s.responses.Items(ctx, c.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	responses, err := s.store.ListResponses(ctx, c.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=ceremony_%d_responses.csv", c.ID))
	if err := response.WriteCSV(w, items, responses); err != nil {
		s.logger.Error("export: failed writing csv", zap.Uint("ceremony_id", c.ID), zap.Error(err))
	}
}

func (s *Server) saveDraft(w http.ResponseWriter, r *http.Request) {
	c, u, err := s.ceremony(r, canView)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var sub response.Submission
	if err := decodeJSON(r, &sub); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	sub.CeremonyID = c.ID
	sub.TeamID = c.TeamID
	sub.UserID = u.ID

	if err := s.responses.SaveDraft(r.Context(), &sub); err != nil {
		s.writeDraftError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) getDraft(w http.ResponseWriter, r *http.Request) {
	c, u, err := s.ceremony(r, canView)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	sub, err := s.responses.LoadDraft(r.Context(), c.ID, u.ID)
	if err != nil {
		s.writeDraftError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) deleteDraft(w http.ResponseWriter, r *http.Request) {
	c, u, err := s.ceremony(r, canView)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.responses.DeleteDraft(r.Context(), c.ID, u.ID); err != nil {
		s.writeDraftError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeDraftError(w http.ResponseWriter, r *http.Request, err error) {
	if !s.draftsEnabled {
		writeError(w, http.StatusServiceUnavailable, "drafts are disabled")
		return
	}
	s.writeServiceError(w, r, err)
}

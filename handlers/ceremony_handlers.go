package handlers

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/nikhilsahni7/StandupX/models"
	"go.uber.org/zap"
)

var cadences = map[string]bool{
	models.CadenceDaily:    true,
	models.CadenceWeekly:   true,
	models.CadenceBiWeekly: true,
	models.CadenceMonthly:  true,
	models.CadenceCustom:   true,
}

var ceremonyStatuses = map[string]bool{
	models.CeremonyActive:   true,
	models.CeremonyPaused:   true,
	models.CeremonyArchived: true,
}

// ceremonyInput is the body of create and update requests. Nil fields are
// left unchanged on update.
type ceremonyInput struct {
	Name                 *string `json:"name"`
	Description          *string `json:"description"`
	TeamID               uint    `json:"team_id"`
	Cadence              *string `json:"cadence"`
	StartTime            *string `json:"start_time"`
	Timezone             *string `json:"timezone"`
	Status               *string `json:"status"`
	SendNotifications    *bool   `json:"send_notifications"`
	NotificationLeadTime *int    `json:"notification_lead_time"`
}

func (in *ceremonyInput) apply(c *models.Ceremony) error {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Cadence != nil {
		c.Cadence = *in.Cadence
	}
	if in.StartTime != nil {
		c.StartTime = *in.StartTime
	}
	if in.Timezone != nil {
		c.Timezone = *in.Timezone
	}
	if in.Status != nil {
		c.Status = *in.Status
		c.IsActive = c.Status == models.CeremonyActive
	}
	if in.SendNotifications != nil {
		c.SendNotifications = *in.SendNotifications
	}
	if in.NotificationLeadTime != nil {
		c.NotificationLeadTime = *in.NotificationLeadTime
	}

	if c.Name == "" {
		return badRequest("ceremony name is required")
	}
	if !cadences[c.Cadence] {
		return badRequest("unknown cadence %q", c.Cadence)
	}
	if !ceremonyStatuses[c.Status] {
		return badRequest("unknown status %q", c.Status)
	}
	if c.StartTime != "" {
		if _, err := time.Parse("15:04", c.StartTime); err != nil {
			return badRequest("start_time must be HH:MM")
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return badRequest("unknown timezone %q", c.Timezone)
	}
	if c.NotificationLeadTime < 0 {
		return badRequest("notification_lead_time must not be negative")
	}
	return nil
}

func (s *Server) createCeremony(w http.ResponseWriter, r *http.Request) {
	var in ceremonyInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if in.TeamID == 0 {
		writeError(w, http.StatusBadRequest, "team_id is required")
		return
	}
	if err := s.authorizeTeam(r, in.TeamID, canManage); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	c := &models.Ceremony{
		TeamID:               in.TeamID,
		Cadence:              models.CadenceDaily,
		Timezone:             "UTC",
		Status:               models.CeremonyActive,
		IsActive:             true,
		SendNotifications:    true,
		NotificationLeadTime: 15,
	}
	if err := in.apply(c); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.store.CreateCeremony(r.Context(), c); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.logger.Info("ceremony created", zap.Uint("ceremony_id", c.ID), zap.Uint("team_id", c.TeamID))
	writeJSON(w, http.StatusCreated, c)
}

// listCeremonies returns every ceremony for admins and the ceremonies of the
// caller's teams otherwise. ?team_id narrows the list to one team.
func (s *Server) listCeremonies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, err := s.currentUser(ctx)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var teamIDs []uint
	if !u.IsAdmin() {
		if teamIDs, err = s.store.TeamIDs(ctx, u.ID); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}
	if raw := r.URL.Query().Get("team_id"); raw != "" {
		id, err := parseUint(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid team_id")
			return
		}
		if teamIDs != nil && !slices.Contains(teamIDs, id) {
			s.writeServiceError(w, r, errPermission)
			return
		}
		teamIDs = []uint{id}
	}

	ceremonies, err := s.store.ListCeremonies(ctx, teamIDs)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ceremonies)
}

func (s *Server) getCeremony(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.ceremony(r, canView)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) updateCeremony(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.ceremony(r, canManage)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var in ceremonyInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if in.TeamID != 0 && in.TeamID != c.TeamID {
		writeError(w, http.StatusBadRequest, "a ceremony cannot move to another team")
		return
	}
	if err := in.apply(c); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.store.UpdateCeremony(r.Context(), c); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCeremony(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.ceremony(r, canManage)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.store.DeleteCeremony(r.Context(), c.ID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.logger.Info("ceremony deleted", zap.Uint("ceremony_id", c.ID))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) activateCeremony(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.ceremony(r, canManage)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	in := struct {
		IsActive *bool `json:"is_active"`
	}{}
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if in.IsActive == nil {
		writeError(w, http.StatusBadRequest, "is_active is required")
		return
	}
	c, err = s.store.SetCeremonyActive(r.Context(), c.ID, *in.IsActive)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/nikhilsahni7/StandupX/models"
)

type teamInput struct {
	Name string `json:"name"`
}

func (s *Server) createTeam(w http.ResponseWriter, r *http.Request) {
	var in teamInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		writeError(w, http.StatusBadRequest, "team name is required")
		return
	}

	team := &models.Team{Name: strings.TrimSpace(in.Name), OwnerID: currentUserID(r)}
	if err := s.store.CreateTeam(r.Context(), team); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

func (s *Server) listTeams(w http.ResponseWriter, r *http.Request) {
	u, err := s.currentUser(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	teams, err := s.store.ListTeams(r.Context(), u)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (s *Server) getTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathID(r, "teamId")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.authorizeTeam(r, teamID, canView); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	team, err := s.store.GetTeam(r.Context(), teamID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (s *Server) updateTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathID(r, "teamId")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var in teamInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		writeError(w, http.StatusBadRequest, "team name is required")
		return
	}
	if err := s.authorizeTeam(r, teamID, canManage); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	team, err := s.store.RenameTeam(r.Context(), teamID, strings.TrimSpace(in.Name))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (s *Server) addTeamMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathID(r, "teamId")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var in struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.authorizeTeam(r, teamID, canManage); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	ctx := r.Context()
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.store.AddMember(ctx, teamID, user.ID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user added to team"})
}

// removeTeamMember is open to managers and to members leaving the team.
func (s *Server) removeTeamMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathID(r, "teamId")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	userID, err := pathID(r, "userId")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if userID != currentUserID(r) {
		if err := s.authorizeTeam(r, teamID, canManage); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}
	if err := s.store.RemoveMember(r.Context(), teamID, userID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user removed from team"})
}

// deleteTeam is limited to admins and the team owner.
func (s *Server) deleteTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathID(r, "teamId")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.authorizeTeam(r, teamID, canOwn); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.store.DeleteTeam(r.Context(), teamID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listTeamManagers(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathID(r, "teamId")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.authorizeTeam(r, teamID, canView); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	team, err := s.store.GetTeam(r.Context(), teamID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	managers := team.Managers
	if managers == nil {
		managers = []models.User{}
	}
	writeJSON(w, http.StatusOK, managers)
}

// addTeamManager grants manager rights, adding the user to the team first
// when needed.
func (s *Server) addTeamManager(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathID(r, "teamId")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var in struct {
		UserID uint `json:"user_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if in.UserID == 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if err := s.authorizeTeam(r, teamID, canOwn); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.store.AddManager(r.Context(), teamID, in.UserID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "manager added to team"})
}

func (s *Server) removeTeamManager(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathID(r, "teamId")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	userID, err := pathID(r, "userId")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.authorizeTeam(r, teamID, canOwn); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.store.RemoveManager(r.Context(), teamID, userID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "manager removed from team"})
}

func (s *Server) authorizeTeam(r *http.Request, teamID uint, level access) error {
	u, err := s.currentUser(r.Context())
	if err != nil {
		return err
	}
	return s.checkTeam(r.Context(), u, teamID, level)
}

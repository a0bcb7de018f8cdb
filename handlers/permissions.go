package handlers

import (
	"context"
	"net/http"

	"github.com/nikhilsahni7/StandupX/auth"
	"github.com/nikhilsahni7/StandupX/models"
)

type access int

const (
	// canView lets team members read a ceremony and submit to it.
	canView access = iota
	// canManage adds the team's managers to canOwn.
	canManage
	// canOwn is limited to admins and the team owner.
	canOwn
)

func (s *Server) currentUser(ctx context.Context) (*models.User, error) {
	id, _ := auth.UserID(ctx)
	return s.store.GetUser(ctx, id)
}

// checkTeam verifies that u has the level of access to teamID.
func (s *Server) checkTeam(ctx context.Context, u *models.User, teamID uint, level access) error {
	if u.IsAdmin() {
		return nil
	}
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if team.OwnerID == u.ID {
		return nil
	}
	if level == canOwn {
		return errPermission
	}
	if level == canManage {
		ok, err := s.store.IsTeamManager(ctx, teamID, u.ID)
		if err != nil {
			return err
		}
		if !ok {
			return errPermission
		}
		return nil
	}
	ok, err := s.store.IsTeamMember(ctx, teamID, u.ID)
	if err != nil {
		return err
	}
	if !ok {
		return errPermission
	}
	return nil
}

// ceremony loads the ceremony named by the {id} route variable after checking
// that the caller has the level of access to its team.
func (s *Server) ceremony(r *http.Request, level access) (*models.Ceremony, *models.User, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, nil, err
	}
	ctx := r.Context()
	u, err := s.currentUser(ctx)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.store.GetCeremony(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := s.checkTeam(ctx, u, c.TeamID, level); err != nil {
		return nil, nil, err
	}
	return c, u, nil
}

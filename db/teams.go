package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikhilsahni7/StandupX/models"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken    = errors.New("email is already registered")
	ErrAlreadyMember  = errors.New("user is already a member of this team")
	ErrAlreadyManager = errors.New("user is already a manager of this team")
	ErrTeamInUse      = errors.New("team still runs ceremonies")
)

const (
	insertMember  = "INSERT INTO team_members (team_id, user_id) VALUES (?, ?)"
	insertManager = "INSERT INTO team_managers (team_id, user_id) VALUES (?, ?)"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return nil, err
	}
	return &u, nil
}

// UpsertGoogleUser links u to an existing account by Google id or email, or
// creates a new one. u is replaced with the stored user.
func (s *Store) UpsertGoogleUser(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.Where("google_id = ?", u.GoogleID).Or("email = ?", u.Email).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(u).Error
		}
		if err != nil {
			return err
		}
		existing.GoogleID = u.GoogleID
		existing.Name = u.Name
		existing.Picture = u.Picture
		if err := tx.Save(&existing).Error; err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		*u = existing
		return nil
	})
}

// CreateTeam stores t and makes its owner the first member.
func (s *Store) CreateTeam(ctx context.Context, t *models.Team) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members", "Managers").Create(t).Error; err != nil {
			return err
		}
		if err := tx.Exec(insertMember, t.ID, t.OwnerID).Error; err != nil {
			return err
		}
		return tx.Preload("Members").Preload("Managers").First(t, t.ID).Error
	})
}

func (s *Store) GetTeam(ctx context.Context, id uint) (*models.Team, error) {
	var t models.Team
	if err := s.db.WithContext(ctx).Preload("Members").Preload("Managers").First(&t, id).Error; err != nil {
		return nil, notFound(err, "team", id)
	}
	return &t, nil
}

// ListTeams returns every team for admins and the user's teams otherwise.
func (s *Store) ListTeams(ctx context.Context, u *models.User) ([]models.Team, error) {
	tx := s.db.WithContext(ctx).Order("teams.id ASC")
	if !u.IsAdmin() {
		tx = tx.Joins("JOIN team_members ON team_members.team_id = teams.id").
			Where("team_members.user_id = ?", u.ID)
	}
	var teams []models.Team
	err := tx.Find(&teams).Error
	return teams, err
}

// TeamIDs returns the ids of the teams userID belongs to.
func (s *Store) TeamIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	err := s.db.WithContext(ctx).Table("team_members").Where("user_id = ?", userID).Pluck("team_id", &ids).Error
	return ids, err
}

func (s *Store) AddMember(ctx context.Context, teamID, userID uint) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Select("id").First(&models.Team{}, teamID).Error; err != nil {
		return notFound(err, "team", teamID)
	}
	if err := s.db.WithContext(ctx).Exec(insertMember, teamID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyMember
		}
		return err
	}
	return nil
}

// RemoveMember drops the user from the team and from its managers.
func (s *Store) RemoveMember(ctx context.Context, teamID, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec("DELETE FROM team_members WHERE team_id = ? AND user_id = ?", teamID, userID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("member %d of team %d: %w", userID, teamID, ErrNotFound)
		}
		return tx.Exec("DELETE FROM team_managers WHERE team_id = ? AND user_id = ?", teamID, userID).Error
	})
}

// AddManager makes the user a manager of the team, adding them as a member
// first when needed.
func (s *Store) AddManager(ctx context.Context, teamID, userID uint) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Team{}, teamID).Error; err != nil {
			return notFound(err, "team", teamID)
		}
		var n int64
		if err := tx.Table("team_managers").Where("team_id = ? AND user_id = ?", teamID, userID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadyManager
		}
		if err := tx.Table("team_members").Where("team_id = ? AND user_id = ?", teamID, userID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			if err := tx.Exec(insertMember, teamID, userID).Error; err != nil {
				return err
			}
		}
		return tx.Exec(insertManager, teamID, userID).Error
	})
}

func (s *Store) RemoveManager(ctx context.Context, teamID, userID uint) error {
	res := s.db.WithContext(ctx).Exec("DELETE FROM team_managers WHERE team_id = ? AND user_id = ?", teamID, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("manager %d of team %d: %w", userID, teamID, ErrNotFound)
	}
	return nil
}

func (s *Store) IsTeamManager(ctx context.Context, teamID, userID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Table("team_managers").
		Where("team_id = ? AND user_id = ?", teamID, userID).Count(&n).Error
	return n > 0, err
}

// DeleteTeam removes a team with its memberships. Teams that still have
// ceremonies are refused with ErrTeamInUse.
func (s *Store) DeleteTeam(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ceremonies int64
		if err := tx.Model(&models.Ceremony{}).Where("team_id = ?", id).Count(&ceremonies).Error; err != nil {
			return err
		}
		if ceremonies > 0 {
			return fmt.Errorf("team %d: %w", id, ErrTeamInUse)
		}
		for _, join := range []string{"team_members", "team_managers"} {
			if err := tx.Exec("DELETE FROM "+join+" WHERE team_id = ?", id).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Team{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "team", id)
		}
		return nil
	})
}

func (s *Store) IsTeamMember(ctx context.Context, teamID, userID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Table("team_members").
		Where("team_id = ? AND user_id = ?", teamID, userID).Count(&n).Error
	return n > 0, err
}

func (s *Store) TeamSize(ctx context.Context, teamID uint) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Table("team_members").Where("team_id = ?", teamID).Count(&n).Error
	return int(n), err
}

func (s *Store) RenameTeam(ctx context.Context, id uint, name string) (*models.Team, error) {
	res := s.db.WithContext(ctx).Model(&models.Team{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, notFound(gorm.ErrRecordNotFound, "team", id)
	}
	return s.GetTeam(ctx, id)
}

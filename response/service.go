package response

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nikhilsahni7/StandupX/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrCeremonyInactive = errors.New("ceremony is not active")
	ErrNotTeamMember    = errors.New("user is not a member of the ceremony's team")
	ErrTeamMismatch     = errors.New("team does not run this ceremony")
	ErrAlreadySubmitted = errors.New("user already has a response for this ceremony")
	ErrResponseLocked   = errors.New("completed or archived responses cannot change")
	ErrInvalidStatus    = errors.New("invalid response status")
)

// Store is the persistence the submission flow needs. CreateResponse must
// write the response and all of its question responses in one transaction
// and return ErrAlreadySubmitted when the user already has one.
type Store interface {
	GetCeremony(ctx context.Context, id uint) (*models.Ceremony, error)
	IsTeamMember(ctx context.Context, teamID, userID uint) (bool, error)
	HasResponse(ctx context.Context, ceremonyID, userID uint) (bool, error)
	ListCeremonyQuestions(ctx context.Context, ceremonyID uint) ([]models.CeremonyQuestion, error)
	QuestionsForCeremony(ctx context.Context, ceremonyID uint) ([]models.Question, error)
	CreateResponse(ctx context.Context, resp *models.CeremonyResponse) error
	// UpdateResponse must replace the question responses in the same
	// transaction as the response fields.
	UpdateResponse(ctx context.Context, resp *models.CeremonyResponse) error
	DeleteResponse(ctx context.Context, id uint) error
}

// SubmitHook runs after a response has been stored.
type SubmitHook func(ctx context.Context, resp *models.CeremonyResponse)

type Service struct {
	store  Store
	drafts DraftStore
	logger *zap.Logger
	hooks  []SubmitHook
	now    func() time.Time
}

// NewService returns a Service. drafts may be nil when drafts are disabled.
func NewService(store Store, drafts DraftStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, drafts: drafts, logger: logger, now: time.Now}
}

// OnSubmit registers h to run after every successful submission.
func (s *Service) OnSubmit(h SubmitHook) {
	s.hooks = append(s.hooks, h)
}

// Items loads the ceremony's questions resolved against the catalog.
func (s *Service) Items(ctx context.Context, ceremonyID uint) ([]Item, error) {
	var (
		rows    []models.CeremonyQuestion
		catalog []models.Question
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.store.ListCeremonyQuestions(gctx, ceremonyID)
		return err
	})
	g.Go(func() error {
		var err error
		catalog, err = s.store.QuestionsForCeremony(gctx, ceremonyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Resolve(rows, catalog)
}

// Submit validates sub and stores it as the user's response to the ceremony.
func (s *Service) Submit(ctx context.Context, sub *Submission) (*models.CeremonyResponse, error) {
	ceremony, err := s.store.GetCeremony(ctx, sub.CeremonyID)
	if err != nil {
		return nil, err
	}
	if !ceremony.IsActive || ceremony.Status != models.CeremonyActive {
		return nil, ErrCeremonyInactive
	}
	if sub.TeamID == 0 {
		sub.TeamID = ceremony.TeamID
	}
	if sub.TeamID != ceremony.TeamID {
		return nil, ErrTeamMismatch
	}

	var (
		member, answered bool
		items            []Item
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		member, err = s.store.IsTeamMember(gctx, ceremony.TeamID, sub.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		answered, err = s.store.HasResponse(gctx, ceremony.ID, sub.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.Items(gctx, ceremony.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotTeamMember
	}
	if answered {
		return nil, ErrAlreadySubmitted
	}
	if err := Validate(items, sub); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	resp := &models.CeremonyResponse{
		CeremonyID:        ceremony.ID,
		UserID:            sub.UserID,
		TeamID:            ceremony.TeamID,
		Status:            models.ResponseSubmitted,
		IsComplete:        true,
		Notes:             sub.Notes,
		MoodRating:        sub.MoodRating,
		EnergyLevel:       sub.EnergyLevel,
		QuestionResponses: ToRecords(items, sub),
		SubmittedAt:       now,
		CompletedAt:       &now,
	}
	if err := s.store.CreateResponse(ctx, resp); err != nil {
		return nil, err
	}

	if s.drafts != nil {
		if err := s.drafts.Delete(ctx, ceremony.ID, sub.UserID); err != nil {
			s.logger.Warn("submit: failed to clear draft", zap.Uint("ceremony_id", ceremony.ID), zap.Uint("user_id", sub.UserID), zap.Error(err))
		}
	}
	for _, h := range s.hooks {
		h(ctx, resp)
	}
	s.logger.Info("submit: response stored",
		zap.Uint("ceremony_id", ceremony.ID),
		zap.Uint("user_id", sub.UserID),
		zap.Uint("response_id", resp.ID),
		zap.Int("answers", len(resp.QuestionResponses)))
	return resp, nil
}

// Locked reports whether a response in status can no longer be edited or
// deleted.
func Locked(status string) bool {
	return status == models.ResponseCompleted || status == models.ResponseArchived
}

// Revise validates sub against the ceremony's current questions and replaces
// the answers of resp with it. status may move the response to completed; an
// empty status leaves it unchanged.
func (s *Service) Revise(ctx context.Context, resp *models.CeremonyResponse, sub *Submission, status string) error {
	if Locked(resp.Status) {
		return ErrResponseLocked
	}
	switch status {
	case "", models.ResponseSubmitted, models.ResponseCompleted:
	default:
		return fmt.Errorf("%w %q", ErrInvalidStatus, status)
	}
	items, err := s.Items(ctx, resp.CeremonyID)
	if err != nil {
		return err
	}
	sub.CeremonyID = resp.CeremonyID
	sub.TeamID = resp.TeamID
	sub.UserID = resp.UserID
	if err := Validate(items, sub); err != nil {
		return err
	}

	resp.Notes = sub.Notes
	resp.MoodRating = sub.MoodRating
	resp.EnergyLevel = sub.EnergyLevel
	resp.QuestionResponses = ToRecords(items, sub)
	if status != "" {
		resp.Status = status
	}
	if resp.Status == models.ResponseCompleted && resp.CompletedAt == nil {
		now := s.now().UTC()
		resp.CompletedAt = &now
	}
	resp.IsComplete = true
	if err := s.store.UpdateResponse(ctx, resp); err != nil {
		return err
	}
	s.logger.Info("revise: response updated",
		zap.Uint("response_id", resp.ID),
		zap.String("status", resp.Status),
		zap.Int("answers", len(resp.QuestionResponses)))
	return nil
}

// Delete removes resp unless it is locked.
func (s *Service) Delete(ctx context.Context, resp *models.CeremonyResponse) error {
	if Locked(resp.Status) {
		return ErrResponseLocked
	}
	return s.store.DeleteResponse(ctx, resp.ID)
}

// SaveDraft stores sub as the user's draft without validating it.
func (s *Service) SaveDraft(ctx context.Context, sub *Submission) error {
	if s.drafts == nil {
		return ErrNoDraft
	}
	return s.drafts.Save(ctx, sub)
}

func (s *Service) LoadDraft(ctx context.Context, ceremonyID, userID uint) (*Submission, error) {
	if s.drafts == nil {
		return nil, ErrNoDraft
	}
	return s.drafts.Load(ctx, ceremonyID, userID)
}

func (s *Service) DeleteDraft(ctx context.Context, ceremonyID, userID uint) error {
	if s.drafts == nil {
		return nil
	}
	return s.drafts.Delete(ctx, ceremonyID, userID)
}

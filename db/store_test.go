package db_test

import (
	"context"
	"testing"

	"github.com/nikhilsahni7/StandupX/db"
	"github.com/nikhilsahni7/StandupX/db/dbtest"
	"github.com/nikhilsahni7/StandupX/models"
	"github.com/nikhilsahni7/StandupX/ordering"
	"github.com/nikhilsahni7/StandupX/question"
	"github.com/nikhilsahni7/StandupX/response"
	"github.com/nikhilsahni7/StandupX/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *db.Store
	owner    models.User
	member   models.User
	team     models.Team
	ceremony models.Ceremony
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: db.NewStore(dbtest.New(t))}

	f.owner = models.User{Email: "owner@example.com", Name: "Owner", Role: models.RoleMember}
	require.NoError(t, f.store.CreateUser(ctx, &f.owner))
	f.member = models.User{Email: "member@example.com", Name: "Member", Role: models.RoleMember}
	require.NoError(t, f.store.CreateUser(ctx, &f.member))

	f.team = models.Team{Name: "Platform", OwnerID: f.owner.ID}
	require.NoError(t, f.store.CreateTeam(ctx, &f.team))
	require.NoError(t, f.store.AddMember(ctx, f.team.ID, f.member.ID))

	f.ceremony = models.Ceremony{Name: "Daily", TeamID: f.team.ID, Cadence: models.CadenceDaily, IsActive: true, Status: models.CeremonyActive}
	require.NoError(t, f.store.CreateCeremony(ctx, &f.ceremony))
	return f
}

func (f *fixture) question(t *testing.T, q models.Question) models.Question {
	t.Helper()
	question.Normalize(&q)
	require.NoError(t, question.ValidateDefinition(&q).Err())
	require.NoError(t, f.store.CreateQuestion(context.Background(), &q))
	return q
}

func orderIndexes(t *testing.T, s *db.Store, ceremonyID uint) map[uint]int {
	t.Helper()
	rows, err := s.ListCeremonyQuestions(context.Background(), ceremonyID)
	require.NoError(t, err)
	out := map[uint]int{}
	for _, r := range rows {
		out[r.QuestionID] = r.OrderIndex
	}
	return out
}

func TestCeremonyQuestionOrdering(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	svc := ordering.NewService(f.store)

	var ids []uint
	for _, text := range []string{"Yesterday?", "Today?", "Blockers?"} {
		q := f.question(t, models.Question{Text: text, QuestionType: models.Paragraph})
		_, err := svc.Attach(ctx, f.ceremony.ID, q.ID, 0, true)
		require.NoError(t, err)
		ids = append(ids, q.ID)
	}
	assert.Equal(t, map[uint]int{ids[0]: 1, ids[1]: 2, ids[2]: 3}, orderIndexes(t, f.store, f.ceremony.ID))

	extra := f.question(t, models.Question{Text: "Mood?", QuestionType: models.ShortAnswer})
	_, err := svc.Attach(ctx, f.ceremony.ID, extra.ID, 1, false)
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{extra.ID: 1, ids[0]: 2, ids[1]: 3, ids[2]: 4}, orderIndexes(t, f.store, f.ceremony.ID))

	// A racing insert of the same pair hits the unique index.
	err = f.store.InsertCeremonyQuestion(ctx, &models.CeremonyQuestion{CeremonyID: f.ceremony.ID, QuestionID: extra.ID, OrderIndex: 9})
	assert.ErrorIs(t, err, ordering.ErrDuplicateAttachment)
	assert.Len(t, orderIndexes(t, f.store, f.ceremony.ID), 4)

	require.NoError(t, svc.Detach(ctx, f.ceremony.ID, extra.ID))
	assert.Equal(t, map[uint]int{ids[0]: 1, ids[1]: 2, ids[2]: 3}, orderIndexes(t, f.store, f.ceremony.ID))
	assert.ErrorIs(t, svc.Detach(ctx, f.ceremony.ID, extra.ID), ordering.ErrNotFound)

	require.NoError(t, svc.Reorder(ctx, f.ceremony.ID, []uint{ids[2], ids[0], ids[1]}))
	assert.Equal(t, map[uint]int{ids[2]: 1, ids[0]: 2, ids[1]: 3}, orderIndexes(t, f.store, f.ceremony.ID))

	err = f.store.ReorderCeremonyQuestions(ctx, f.ceremony.ID, []models.QuestionOrder{{QuestionID: 999, OrderIndex: 1}})
	assert.ErrorIs(t, err, ordering.ErrNotFound)

	_, err = svc.Update(ctx, f.ceremony.ID, ids[1], 0, false)
	require.NoError(t, err)
	rows, err := svc.List(ctx, f.ceremony.ID)
	require.NoError(t, err)
	assert.False(t, rows[2].IsRequired)
}

func TestApplyTemplateToStoredCeremony(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	svc := ordering.NewService(f.store)

	for _, text := range []string{"One", "Two"} {
		q := f.question(t, models.Question{Text: text, QuestionType: models.ShortAnswer})
		_, err := svc.Attach(ctx, f.ceremony.ID, q.ID, 0, false)
		require.NoError(t, err)
	}

	standup, _ := templates.Default().Get("daily-standup")
	res, err := svc.ApplyTemplates(ctx, f.ceremony.ID, []templates.Template{standup}, 3, false)
	require.NoError(t, err)
	require.NoError(t, res.Err())

	rows, err := svc.List(ctx, f.ceremony.ID)
	require.NoError(t, err)
	require.Len(t, rows, 7)
	for i, r := range rows {
		assert.Equal(t, i+1, r.OrderIndex)
	}

	catalog, err := f.store.QuestionsForCeremony(ctx, f.ceremony.ID)
	require.NoError(t, err)
	assert.Len(t, catalog, 7)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = f.store.QuestionsForCeremony(canceled, f.ceremony.ID)
	assert.ErrorIs(t, err, context.Canceled)

	help, err := f.store.GetQuestion(ctx, rows[6].QuestionID)
	require.NoError(t, err)
	require.Len(t, help.Options, 5)
	for i, o := range help.Options {
		assert.Equal(t, i, o.OrderIndex)
	}
}

func TestQuestions(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	choice := f.question(t, models.Question{Text: "Which area?", QuestionType: models.Dropdown, Options: []models.QuestionOption{
		{Text: "Backend"}, {Text: "Frontend"},
	}})
	f.question(t, models.Question{Text: "Anything else?", QuestionType: models.Paragraph, HelpText: "Optional area notes"})
	f.question(t, models.Question{Text: "Upload", QuestionType: models.FileUpload, AllowedFileTypes: []string{"pdf"}, MaxFileSize: ptr(int64(1 << 20))})

	all, err := f.store.ListQuestions(ctx, question.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, []string{"pdf"}, []string(all[2].AllowedFileTypes))

	byText, err := f.store.ListQuestions(ctx, question.Filter{Query: "AREA"})
	require.NoError(t, err)
	assert.Len(t, byText, 2)

	byType, err := f.store.ListQuestions(ctx, question.Filter{Type: models.Dropdown})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, []string{"Backend", "Frontend"}, byType[0].OptionValues())

	opt := models.QuestionOption{Text: "Infra"}
	require.NoError(t, f.store.AddOption(ctx, choice.ID, &opt))
	assert.Equal(t, 2, opt.OrderIndex)
	assert.Error(t, f.store.AddOption(ctx, 999, &models.QuestionOption{Text: "x"}))

	choice.Text = "Which areas?"
	choice.Options = []models.QuestionOption{{Text: "Ops", Value: "ops"}}
	require.NoError(t, f.store.UpdateQuestion(ctx, &choice))
	got, err := f.store.GetQuestion(ctx, choice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Which areas?", got.Text)
	assert.Equal(t, []string{"ops"}, got.OptionValues())

	_, err = f.store.GetQuestion(ctx, 999)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestTeams(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	team, err := f.store.GetTeam(ctx, f.team.ID)
	require.NoError(t, err)
	assert.Len(t, team.Members, 2)

	size, err := f.store.TeamSize(ctx, f.team.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, size)

	ok, err := f.store.IsTeamMember(ctx, f.team.ID, f.member.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, f.store.AddMember(ctx, f.team.ID, f.member.ID), db.ErrAlreadyMember)
	assert.ErrorIs(t, f.store.AddMember(ctx, f.team.ID, 999), db.ErrNotFound)

	teams, err := f.store.ListTeams(ctx, &f.member)
	require.NoError(t, err)
	assert.Len(t, teams, 1)

	outsider := models.User{Email: "out@example.com"}
	require.NoError(t, f.store.CreateUser(ctx, &outsider))
	teams, err = f.store.ListTeams(ctx, &outsider)
	require.NoError(t, err)
	assert.Empty(t, teams)
	ids, err := f.store.TeamIDs(ctx, outsider.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.ErrorIs(t, f.store.CreateUser(ctx, &models.User{Email: "out@example.com"}), db.ErrEmailTaken)

	require.NoError(t, f.store.RemoveMember(ctx, f.team.ID, f.member.ID))
	assert.ErrorIs(t, f.store.RemoveMember(ctx, f.team.ID, f.member.ID), db.ErrNotFound)
}

func TestUpsertGoogleUser(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	gid := "google-1"
	u := models.User{Email: f.member.Email, Name: "Member G", GoogleID: &gid}
	require.NoError(t, f.store.UpsertGoogleUser(ctx, &u))
	assert.Equal(t, f.member.ID, u.ID)
	assert.Equal(t, "Member G", u.Name)

	gid2 := "google-2"
	fresh := models.User{Email: "new@example.com", GoogleID: &gid2}
	require.NoError(t, f.store.UpsertGoogleUser(ctx, &fresh))
	assert.NotZero(t, fresh.ID)
	assert.NotEqual(t, f.member.ID, fresh.ID)
}

func TestSubmitResponse(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	ord := ordering.NewService(f.store)

	text := f.question(t, models.Question{Text: "Done?", QuestionType: models.ShortAnswer})
	boxes := f.question(t, models.Question{Text: "Areas", QuestionType: models.Checkboxes, Options: []models.QuestionOption{
		{Text: "A", Value: "a"}, {Text: "B", Value: "b"},
	}})
	_, err := ord.Attach(ctx, f.ceremony.ID, text.ID, 0, true)
	require.NoError(t, err)
	_, err = ord.Attach(ctx, f.ceremony.ID, boxes.ID, 0, true)
	require.NoError(t, err)

	svc := response.NewService(f.store, nil, nil)
	done := "done"
	sub := &response.Submission{CeremonyID: f.ceremony.ID, UserID: f.member.ID, MoodRating: ptr(7), QuestionResponses: []response.Entry{
		{QuestionID: text.ID, TextResponse: &done},
		{QuestionID: boxes.ID, SelectedOptions: []string{"a", "b"}},
	}}
	resp, err := svc.Submit(ctx, sub)
	require.NoError(t, err)

	stored, err := f.store.GetResponse(ctx, resp.ID)
	require.NoError(t, err)
	require.Len(t, stored.QuestionResponses, 2)
	assert.Equal(t, []string{"a", "b"}, []string(stored.QuestionResponses[1].SelectedOptions))
	assert.Equal(t, f.team.ID, stored.TeamID)

	_, err = svc.Submit(ctx, sub)
	assert.ErrorIs(t, err, response.ErrAlreadySubmitted)

	// The unique index also rejects a duplicate that slips past the check.
	err = f.store.CreateResponse(ctx, &models.CeremonyResponse{CeremonyID: f.ceremony.ID, UserID: f.member.ID, TeamID: f.team.ID, Status: models.ResponseSubmitted})
	assert.ErrorIs(t, err, response.ErrAlreadySubmitted)

	list, err := f.store.ListResponses(ctx, f.ceremony.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.store.SetCeremonyActive(ctx, f.ceremony.ID, false)
	require.NoError(t, err)
	sub.UserID = f.owner.ID
	_, err = svc.Submit(ctx, sub)
	assert.ErrorIs(t, err, response.ErrCeremonyInactive)
}

func TestReviseAndDeleteResponse(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	q := f.question(t, models.Question{Text: "Done?", QuestionType: models.ShortAnswer})
	_, err := ordering.NewService(f.store).Attach(ctx, f.ceremony.ID, q.ID, 0, false)
	require.NoError(t, err)

	resp := &models.CeremonyResponse{CeremonyID: f.ceremony.ID, UserID: f.member.ID, TeamID: f.team.ID, Status: models.ResponseSubmitted,
		QuestionResponses: []models.QuestionResponse{{QuestionID: q.ID, TextResponse: ptr("first")}}}
	require.NoError(t, f.store.CreateResponse(ctx, resp))

	resp.Status = models.ResponseCompleted
	resp.MoodRating = ptr(4)
	resp.QuestionResponses = []models.QuestionResponse{{QuestionID: q.ID, TextResponse: ptr("second")}}
	require.NoError(t, f.store.UpdateResponse(ctx, resp))

	stored, err := f.store.GetResponse(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseCompleted, stored.Status)
	assert.Equal(t, 4, *stored.MoodRating)
	require.Len(t, stored.QuestionResponses, 1)
	assert.Equal(t, "second", *stored.QuestionResponses[0].TextResponse)

	found, err := f.store.FindResponses(ctx, db.ResponseFilter{TeamID: f.team.ID, Status: models.ResponseCompleted})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	found, err = f.store.FindResponses(ctx, db.ResponseFilter{UserID: f.owner.ID})
	require.NoError(t, err)
	assert.Empty(t, found)

	assert.ErrorIs(t, f.store.UpdateResponse(ctx, &models.CeremonyResponse{ID: 999}), db.ErrNotFound)

	require.NoError(t, f.store.DeleteResponse(ctx, resp.ID))
	_, err = f.store.GetResponse(ctx, resp.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.ErrorIs(t, f.store.DeleteResponse(ctx, resp.ID), db.ErrNotFound)
}

func TestDeleteQuestionAndOptions(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	q := f.question(t, models.Question{Text: "Area", QuestionType: models.Dropdown, Options: []models.QuestionOption{
		{Text: "A"}, {Text: "B"}, {Text: "C"},
	}})

	opt := q.Options[2]
	opt.Text, opt.Value = "Ops", "ops"
	require.NoError(t, f.store.UpdateOption(ctx, &opt))
	assert.Equal(t, 2, opt.OrderIndex)
	assert.ErrorIs(t, f.store.UpdateOption(ctx, &models.QuestionOption{ID: opt.ID, QuestionID: 999}), db.ErrNotFound)

	require.NoError(t, f.store.DeleteOption(ctx, q.ID, q.Options[0].ID))
	got, err := f.store.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "ops"}, got.OptionValues())
	for i, o := range got.Options {
		assert.Equal(t, i, o.OrderIndex)
	}
	assert.ErrorIs(t, f.store.DeleteOption(ctx, q.ID, q.Options[0].ID), db.ErrNotFound)

	svc := ordering.NewService(f.store)
	_, err = svc.Attach(ctx, f.ceremony.ID, q.ID, 0, false)
	require.NoError(t, err)
	assert.ErrorIs(t, f.store.DeleteQuestion(ctx, q.ID), db.ErrQuestionInUse)

	require.NoError(t, svc.Detach(ctx, f.ceremony.ID, q.ID))
	require.NoError(t, f.store.DeleteQuestion(ctx, q.ID))
	_, err = f.store.GetQuestion(ctx, q.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.ErrorIs(t, f.store.DeleteQuestion(ctx, q.ID), db.ErrNotFound)
}

func TestTeamManagersAndDelete(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	lead := models.User{Email: "lead@example.com"}
	require.NoError(t, f.store.CreateUser(ctx, &lead))

	require.NoError(t, f.store.AddManager(ctx, f.team.ID, lead.ID))
	assert.ErrorIs(t, f.store.AddManager(ctx, f.team.ID, lead.ID), db.ErrAlreadyManager)
	assert.ErrorIs(t, f.store.AddManager(ctx, 999, lead.ID), db.ErrNotFound)
	ok, err := f.store.IsTeamMember(ctx, f.team.ID, lead.ID)
	require.NoError(t, err)
	assert.True(t, ok, "managers join the team")

	team, err := f.store.GetTeam(ctx, f.team.ID)
	require.NoError(t, err)
	require.Len(t, team.Managers, 1)
	assert.Equal(t, lead.ID, team.Managers[0].ID)

	// Leaving the team also drops manager rights.
	require.NoError(t, f.store.RemoveMember(ctx, f.team.ID, lead.ID))
	ok, err = f.store.IsTeamManager(ctx, f.team.ID, lead.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, f.store.RemoveManager(ctx, f.team.ID, lead.ID), db.ErrNotFound)

	require.NoError(t, f.store.AddManager(ctx, f.team.ID, f.member.ID))
	require.NoError(t, f.store.RemoveManager(ctx, f.team.ID, f.member.ID))
	ok, err = f.store.IsTeamMember(ctx, f.team.ID, f.member.ID)
	require.NoError(t, err)
	assert.True(t, ok, "removing a manager keeps the membership")

	assert.ErrorIs(t, f.store.DeleteTeam(ctx, f.team.ID), db.ErrTeamInUse)
	require.NoError(t, f.store.DeleteCeremony(ctx, f.ceremony.ID))
	require.NoError(t, f.store.DeleteTeam(ctx, f.team.ID))
	_, err = f.store.GetTeam(ctx, f.team.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	ids, err := f.store.TeamIDs(ctx, f.member.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.ErrorIs(t, f.store.DeleteTeam(ctx, f.team.ID), db.ErrNotFound)
}

func TestDeleteCeremony(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	q := f.question(t, models.Question{Text: "Done?", QuestionType: models.ShortAnswer})
	_, err := ordering.NewService(f.store).Attach(ctx, f.ceremony.ID, q.ID, 0, false)
	require.NoError(t, err)
	require.NoError(t, f.store.CreateWebhook(ctx, &models.Webhook{UserID: f.owner.ID, CeremonyID: f.ceremony.ID, URL: "http://hooks.local"}))
	_, err = response.NewService(f.store, nil, nil).Submit(ctx, &response.Submission{CeremonyID: f.ceremony.ID, UserID: f.member.ID})
	require.NoError(t, err)

	require.NoError(t, f.store.DeleteCeremony(ctx, f.ceremony.ID))

	_, err = f.store.GetCeremony(ctx, f.ceremony.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.Empty(t, orderIndexes(t, f.store, f.ceremony.ID))
	hooks, err := f.store.ListWebhooks(ctx, f.ceremony.ID)
	require.NoError(t, err)
	assert.Empty(t, hooks)
	_, err = f.store.GetQuestion(ctx, q.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, f.store.DeleteCeremony(ctx, f.ceremony.ID), db.ErrNotFound)
}

func TestListCeremonies(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	all, err := f.store.ListCeremonies(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	none, err := f.store.ListCeremonies(ctx, []uint{})
	require.NoError(t, err)
	assert.Empty(t, none)

	f.ceremony.Name = "Daily sync"
	require.NoError(t, f.store.UpdateCeremony(ctx, &f.ceremony))
	got, err := f.store.GetCeremony(ctx, f.ceremony.ID)
	require.NoError(t, err)
	assert.Equal(t, "Daily sync", got.Name)

	assert.NoError(t, f.store.Ping(ctx))
}

func ptr[T any](v T) *T { return &v }

package handlers

import (
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"

	"github.com/gorilla/mux"
	"github.com/nikhilsahni7/StandupX/db"
	"github.com/nikhilsahni7/StandupX/models"
	"github.com/nikhilsahni7/StandupX/ordering"
	"github.com/nikhilsahni7/StandupX/question"
	"github.com/nikhilsahni7/StandupX/templates"
	"go.uber.org/zap"
)

// ceremonyQuestion is an attachment row with its catalog question inlined.
type ceremonyQuestion struct {
	models.CeremonyQuestion
	Question *models.Question `json:"question,omitempty"`
}

func (s *Server) ceremonyQuestions(r *http.Request, ceremonyID uint) ([]ceremonyQuestion, error) {
	ctx := r.Context()
	rows, err := s.ordering.List(ctx, ceremonyID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.store.QuestionsForCeremony(ctx, ceremonyID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Question, len(catalog))
	for i := range catalog {
		byID[catalog[i].ID] = &catalog[i]
	}
	out := make([]ceremonyQuestion, 0, len(rows))
	for _, row := range rows {
		out = append(out, ceremonyQuestion{CeremonyQuestion: row, Question: byID[row.QuestionID]})
	}
	return out, nil
}

func (s *Server) listCeremonyQuestions(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.ceremony(r, canView)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out, err := s.ceremonyQuestions(r, c.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type attachInput struct {
	QuestionID uint  `json:"question_id"`
	OrderIndex int   `json:"order_index"`
	IsRequired *bool `json:"is_required"`
}

func (s *Server) attachQuestion(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.ceremony(r, canManage)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var in attachInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	ctx := r.Context()
	q, err := s.store.GetQuestion(ctx, in.QuestionID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	required := q.IsRequired
	if in.IsRequired != nil {
		required = *in.IsRequired
	}
	cq, err := s.ordering.Attach(ctx, c.ID, q.ID, in.OrderIndex, required)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ceremonyQuestion{CeremonyQuestion: *cq, Question: q})
}

func (s *Server) updateCeremonyQuestion(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.ceremony(r, canManage)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	questionID, err := pathID(r, "questionId")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var in struct {
		OrderIndex int   `json:"order_index"`
		IsRequired *bool `json:"is_required"`
	}
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	ctx := r.Context()
	if in.IsRequired == nil {
		rows, err := s.ordering.List(ctx, c.ID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		for _, row := range rows {
			if row.QuestionID == questionID {
				in.IsRequired = &row.IsRequired
			}
		}
		if in.IsRequired == nil {
			s.writeServiceError(w, r, ordering.ErrNotFound)
			return
		}
	}
	cq, err := s.ordering.Update(ctx, c.ID, questionID, in.OrderIndex, *in.IsRequired)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cq)
}

func (s *Server) detachQuestion(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.ceremony(r, canManage)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	questionID, err := pathID(r, "questionId")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.ordering.Detach(r.Context(), c.ID, questionID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reorderQuestions takes the full list of positions. The ids are ranked by
// order_index, so any strictly ordered indexes are accepted.
func (s *Server) reorderQuestions(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.ceremony(r, canManage)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var in struct {
		QuestionOrders []models.QuestionOrder `json:"question_orders"`
	}
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	orders := append([]models.QuestionOrder(nil), in.QuestionOrders...)
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].OrderIndex < orders[j].OrderIndex })
	ids := make([]uint, 0, len(orders))
	for i, o := range orders {
		if i > 0 && o.OrderIndex == orders[i-1].OrderIndex {
			writeError(w, http.StatusBadRequest, "order_index values must be distinct")
			return
		}
		ids = append(ids, o.QuestionID)
	}

	if err := s.ordering.Reorder(r.Context(), c.ID, ids); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out, err := s.ceremonyQuestions(r, c.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) moveQuestion(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.ceremony(r, canManage)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	questionID, err := pathID(r, "questionId")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var in struct {
		Direction string `json:"direction"`
	}
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	dir, err := ordering.ParseDirection(in.Direction)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.ordering.MoveOne(r.Context(), c.ID, questionID, dir); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out, err := s.ceremonyQuestions(r, c.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type bulkInput struct {
	Add        []uint `json:"add"`
	Remove     []uint `json:"remove"`
	StartIndex int    `json:"start_index"`
	IsRequired bool   `json:"is_required"`
}

// bulkQuestions removes and then adds questions. Both halves are attempted
// in full; per-item failures are reported in the body.
func (s *Server) bulkQuestions(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.ceremony(r, canManage)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var in bulkInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	ctx := r.Context()
	removed := s.ordering.DetachMany(ctx, c.ID, in.Remove)
	added := s.ordering.AttachMany(ctx, c.ID, in.Add, in.StartIndex, in.IsRequired)
	if n := len(removed.Failed) + len(added.Failed); n > 0 {
		s.logger.Warn("bulk question update partly failed", zap.Uint("ceremony_id", c.ID), zap.Int("failed", n))
	}
	writeJSON(w, http.StatusOK, map[string]ordering.BulkResult{"removed": removed, "added": added})
}

func (s *Server) applyTemplates(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.ceremony(r, canManage)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var in struct {
		TemplateIDs []string `json:"template_ids"`
		StartIndex  int      `json:"start_index"`
		AllRequired bool     `json:"all_required"`
	}
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if len(in.TemplateIDs) == 0 {
		writeError(w, http.StatusBadRequest, "template_ids is required")
		return
	}
	list := make([]templates.Template, 0, len(in.TemplateIDs))
	for _, id := range in.TemplateIDs {
		t, ok := s.catalog.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, "template "+id+" not found")
			return
		}
		list = append(list, t)
	}

	res, err := s.ordering.ApplyTemplates(r.Context(), c.ID, list, in.StartIndex, in.AllRequired)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if len(res.Failed) > 0 {
		s.logger.Warn("template application partly failed",
			zap.Uint("ceremony_id", c.ID), zap.Int("failed", len(res.Failed)))
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) listQuestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	f := question.Filter{Query: query.Get("search")}
	if raw := query.Get("type"); raw != "" {
		t, err := question.ParseType(raw)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		f.Type = t
	}
	if raw := query.Get("exclude"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := parseUint(strings.TrimSpace(part))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid exclude list")
				return
			}
			f.ExcludeIDs = append(f.ExcludeIDs, id)
		}
	}

	questions, err := s.store.ListQuestions(r.Context(), f)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (s *Server) createQuestion(w http.ResponseWriter, r *http.Request) {
	var q models.Question
	if err := decodeJSON(r, &q); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	q.ID = 0
	question.Normalize(&q)
	if err := question.ValidateDefinition(&q).Err(); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.store.CreateQuestion(r.Context(), &q); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) getQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	q, err := s.store.GetQuestion(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) updateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var q models.Question
	if err := decodeJSON(r, &q); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	q.ID = id
	question.Normalize(&q)
	if err := question.ValidateDefinition(&q).Err(); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	ctx := r.Context()
	if err := s.store.UpdateQuestion(ctx, &q); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	stored, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) addOption(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var opt models.QuestionOption
	if err := decodeJSON(r, &opt); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if strings.TrimSpace(opt.Text) == "" {
		writeError(w, http.StatusBadRequest, "option text is required")
		return
	}

	ctx := r.Context()
	q, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !question.HasOptions(q.QuestionType) {
		writeError(w, http.StatusBadRequest, string(q.QuestionType)+" questions take no options")
		return
	}
	value := opt.Value
	if value == "" {
		value = opt.Text
	}
	for _, existing := range q.Options {
		if existing.Value == value {
			writeError(w, http.StatusConflict, "option "+value+" already exists")
			return
		}
	}
	if err := s.store.AddOption(ctx, id, &opt); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, opt)
}

// deleteQuestion refuses questions that are still attached to a ceremony.
func (s *Server) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.store.DeleteQuestion(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listOptions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	q, err := s.store.GetQuestion(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	options := q.Options
	if options == nil {
		options = []models.QuestionOption{}
	}
	writeJSON(w, http.StatusOK, options)
}

// questionOption loads the question and the index of the {optionId} option
// among its options.
func (s *Server) questionOption(r *http.Request) (*models.Question, int, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, 0, err
	}
	optionID, err := pathID(r, "optionId")
	if err != nil {
		return nil, 0, err
	}
	q, err := s.store.GetQuestion(r.Context(), id)
	if err != nil {
		return nil, 0, err
	}
	for i, o := range q.Options {
		if o.ID == optionID {
			return q, i, nil
		}
	}
	return nil, 0, fmt.Errorf("option %d: %w", optionID, db.ErrNotFound)
}

// updateOption changes one option in place. The question must stay a valid
// definition afterwards.
func (s *Server) updateOption(w http.ResponseWriter, r *http.Request) {
	q, i, err := s.questionOption(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var in models.QuestionOption
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" {
		writeError(w, http.StatusBadRequest, "option text is required")
		return
	}
	if in.Value == "" {
		in.Value = in.Text
	}
	opt := q.Options[i]
	opt.Text, opt.Value, opt.IsCorrect = in.Text, in.Value, in.IsCorrect
	q.Options[i] = opt
	if err := question.ValidateDefinition(q).Err(); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.store.UpdateOption(r.Context(), &opt); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opt)
}

// deleteOption refuses to remove the last option of a choice question.
func (s *Server) deleteOption(w http.ResponseWriter, r *http.Request) {
	q, i, err := s.questionOption(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	opt := q.Options[i]
	q.Options = slices.Delete(q.Options, i, i+1)
	if err := question.ValidateDefinition(q).Err(); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.store.DeleteOption(r.Context(), q.ID, opt.ID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	writeJSON(w, http.StatusOK, map[string]any{
		"templates":  s.catalog.Find(query.Get("search"), query.Get("category")),
		"categories": s.catalog.Categories(),
		"tags":       s.catalog.Tags(),
	})
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	t, ok := s.catalog.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "template "+id+" not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

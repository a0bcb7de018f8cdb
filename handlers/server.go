package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/nikhilsahni7/StandupX/auth"
	"github.com/nikhilsahni7/StandupX/db"
	"github.com/nikhilsahni7/StandupX/ordering"
	"github.com/nikhilsahni7/StandupX/response"
	"github.com/nikhilsahni7/StandupX/templates"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Deps are the collaborators of the HTTP server. Redis and OAuth are
// optional.
type Deps struct {
	Store      *db.Store
	Sessions   *auth.Sessions
	Catalog    *templates.Catalog
	Drafts     response.DraftStore
	Redis      *redis.Client
	OAuth      *oauth2.Config
	Logger     *zap.Logger
	BcryptCost int

	// SubmitRate limits response submissions per user. Zero disables it.
	SubmitRate  rate.Limit
	SubmitBurst int

	WebhookTimeout time.Duration
	// GoogleUserInfoURL overrides the Google profile endpoint.
	GoogleUserInfoURL string
	// LoginRedirect is where the Google callback sends the browser.
	LoginRedirect string
}

type Server struct {
	store     *db.Store
	sessions  *auth.Sessions
	catalog   *templates.Catalog
	ordering  *ordering.Service
	responses *response.Service
	webhooks  *Dispatcher
	redis     *redis.Client
	oauth     *oauth2.Config
	logger    *zap.Logger
	limiter   *userLimiter

	draftsEnabled bool

	bcryptCost    int
	userInfoURL   string
	loginRedirect string
}

func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	catalog := d.Catalog
	if catalog == nil {
		catalog = templates.Default()
	}
	s := &Server{
		store:         d.Store,
		sessions:      d.Sessions,
		catalog:       catalog,
		ordering:      ordering.NewService(d.Store),
		responses:     response.NewService(d.Store, d.Drafts, logger.Named("response")),
		webhooks:      NewDispatcher(d.Store, d.WebhookTimeout, logger.Named("webhook")),
		redis:         d.Redis,
		oauth:         d.OAuth,
		logger:        logger,
		bcryptCost:    d.BcryptCost,
		userInfoURL:   d.GoogleUserInfoURL,
		loginRedirect: d.LoginRedirect,
		draftsEnabled: d.Drafts != nil,
	}
	if d.SubmitRate > 0 {
		s.limiter = newUserLimiter(d.SubmitRate, d.SubmitBurst)
	}
	if s.loginRedirect == "" {
		s.loginRedirect = "/"
	}
	s.responses.OnSubmit(s.webhooks.ResponseSubmitted)
	return s
}

// Wait blocks until in-flight webhook deliveries finish.
func (s *Server) Wait() {
	s.webhooks.Wait()
}

func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestLogger)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.HandleFunc("/register", s.register).Methods(http.MethodPost)
	r.HandleFunc("/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.logout).Methods(http.MethodPost)
	if s.oauth != nil {
		r.HandleFunc("/login/google", s.googleLogin).Methods(http.MethodGet)
		r.HandleFunc("/auth/google/callback", s.googleCallback).Methods(http.MethodGet)
	}

	api := r.NewRoute().Subrouter()
	api.Use(s.sessions.Middleware)

	api.HandleFunc("/me", s.me).Methods(http.MethodGet)

	api.HandleFunc("/teams", s.createTeam).Methods(http.MethodPost)
	api.HandleFunc("/teams", s.listTeams).Methods(http.MethodGet)
	api.HandleFunc("/teams/{teamId:[0-9]+}", s.getTeam).Methods(http.MethodGet)
	api.HandleFunc("/teams/{teamId:[0-9]+}", s.updateTeam).Methods(http.MethodPut)
	api.HandleFunc("/teams/{teamId:[0-9]+}/members", s.addTeamMember).Methods(http.MethodPost)
	api.HandleFunc("/teams/{teamId:[0-9]+}", s.deleteTeam).Methods(http.MethodDelete)
	api.HandleFunc("/teams/{teamId:[0-9]+}/members/{userId:[0-9]+}", s.removeTeamMember).Methods(http.MethodDelete)
	api.HandleFunc("/teams/{teamId:[0-9]+}/managers", s.listTeamManagers).Methods(http.MethodGet)
	api.HandleFunc("/teams/{teamId:[0-9]+}/managers", s.addTeamManager).Methods(http.MethodPost)
	api.HandleFunc("/teams/{teamId:[0-9]+}/managers/{userId:[0-9]+}", s.removeTeamManager).Methods(http.MethodDelete)

	api.HandleFunc("/ceremonies", s.createCeremony).Methods(http.MethodPost)
	api.HandleFunc("/ceremonies", s.listCeremonies).Methods(http.MethodGet)
	api.HandleFunc("/ceremonies/{id:[0-9]+}", s.getCeremony).Methods(http.MethodGet)
	api.HandleFunc("/ceremonies/{id:[0-9]+}", s.updateCeremony).Methods(http.MethodPut)
	api.HandleFunc("/ceremonies/{id:[0-9]+}", s.deleteCeremony).Methods(http.MethodDelete)
	api.HandleFunc("/ceremonies/{id:[0-9]+}/activate", s.activateCeremony).Methods(http.MethodPatch)

	api.HandleFunc("/ceremonies/{id:[0-9]+}/questions", s.listCeremonyQuestions).Methods(http.MethodGet)
	api.HandleFunc("/ceremonies/{id:[0-9]+}/questions", s.attachQuestion).Methods(http.MethodPost)
	api.HandleFunc("/ceremonies/{id:[0-9]+}/questions/reorder", s.reorderQuestions).Methods(http.MethodPatch)
	api.HandleFunc("/ceremonies/{id:[0-9]+}/questions/bulk", s.bulkQuestions).Methods(http.MethodPost)
	api.HandleFunc("/ceremonies/{id:[0-9]+}/questions/{questionId:[0-9]+}", s.updateCeremonyQuestion).Methods(http.MethodPut)
	api.HandleFunc("/ceremonies/{id:[0-9]+}/questions/{questionId:[0-9]+}", s.detachQuestion).Methods(http.MethodDelete)
	api.HandleFunc("/ceremonies/{id:[0-9]+}/questions/{questionId:[0-9]+}/move", s.moveQuestion).Methods(http.MethodPost)
	api.HandleFunc("/ceremonies/{id:[0-9]+}/templates", s.applyTemplates).Methods(http.MethodPost)

	for _, p := range []string{"/questions", "/questions/"} {
		api.HandleFunc(p, s.listQuestions).Methods(http.MethodGet)
		api.HandleFunc(p, s.createQuestion).Methods(http.MethodPost)
	}
	api.HandleFunc("/questions/{id:[0-9]+}", s.getQuestion).Methods(http.MethodGet)
	api.HandleFunc("/questions/{id:[0-9]+}", s.updateQuestion).Methods(http.MethodPut)
	api.HandleFunc("/questions/{id:[0-9]+}", s.deleteQuestion).Methods(http.MethodDelete)
	api.HandleFunc("/questions/{id:[0-9]+}/options", s.listOptions).Methods(http.MethodGet)
	api.HandleFunc("/questions/{id:[0-9]+}/options", s.addOption).Methods(http.MethodPost)
	api.HandleFunc("/questions/{id:[0-9]+}/options/{optionId:[0-9]+}", s.updateOption).Methods(http.MethodPut)
	api.HandleFunc("/questions/{id:[0-9]+}/options/{optionId:[0-9]+}", s.deleteOption).Methods(http.MethodDelete)

	api.HandleFunc("/templates", s.listTemplates).Methods(http.MethodGet)
	api.HandleFunc("/templates/{id}", s.getTemplate).Methods(http.MethodGet)

	for _, p := range []string{"/responses", "/responses/"} {
		api.Handle(p, s.rateLimited(http.HandlerFunc(s.submitResponse))).Methods(http.MethodPost)
	}
	api.HandleFunc("/responses/{id:[0-9]+}", s.getResponse).Methods(http.MethodGet)
	api.HandleFunc("/responses/{id:[0-9]+}", s.updateResponse).Methods(http.MethodPut)
	api.HandleFunc("/responses/{id:[0-9]+}", s.deleteResponse).Methods(http.MethodDelete)
	api.HandleFunc("/responses/user/me", s.myResponses).Methods(http.MethodGet)
	api.HandleFunc("/responses/team/{teamId:[0-9]+}", s.teamResponses).Methods(http.MethodGet)
	api.HandleFunc("/ceremonies/{id:[0-9]+}/form", s.form).Methods(http.MethodGet)
	api.HandleFunc("/ceremonies/{id:[0-9]+}/responses", s.listResponses).Methods(http.MethodGet)
	api.HandleFunc("/ceremonies/{id:[0-9]+}/responses/summary", s.responseSummary).Methods(http.MethodGet)
	api.HandleFunc("/ceremonies/{id:[0-9]+}/responses/export", s.exportResponses).Methods(http.MethodGet)

	api.HandleFunc("/ceremonies/{id:[0-9]+}/draft", s.saveDraft).Methods(http.MethodPut)
	api.HandleFunc("/ceremonies/{id:[0-9]+}/draft", s.getDraft).Methods(http.MethodGet)
	api.HandleFunc("/ceremonies/{id:[0-9]+}/draft", s.deleteDraft).Methods(http.MethodDelete)

	api.HandleFunc("/ceremonies/{id:[0-9]+}/webhooks", s.createWebhook).Methods(http.MethodPost)
	api.HandleFunc("/ceremonies/{id:[0-9]+}/webhooks", s.listWebhooks).Methods(http.MethodGet)
	api.HandleFunc("/webhooks/{id:[0-9]+}", s.updateWebhook).Methods(http.MethodPut)
	api.HandleFunc("/webhooks/{id:[0-9]+}", s.deleteWebhook).Methods(http.MethodDelete)

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"database": "ok"}
	code := http.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		status["database"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	if s.redis != nil {
		status["redis"] = "ok"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			status["redis"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, status)
}

package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/susu3304/smashmate/internal/config"
	"github.com/susu3304/smashmate/internal/domain"
	"github.com/susu3304/smashmate/internal/fare"
	"github.com/susu3304/smashmate/internal/session"
	"golang.org/x/oauth2"
)

// Store is the persistence the community endpoints talk to directly.
type Store interface {
	UpsertPlayer(ctx context.Context, id, name, email, avatarURL string) (*domain.Player, error)
	GetPlayer(ctx context.Context, id string) (*domain.Player, error)
	UpdatePlayer(ctx context.Context, id string, u domain.ProfileUpdate) (*domain.Player, error)
	DiscoverPlayers(ctx context.Context, viewerID string, limit int) ([]domain.PlayerCard, error)

	Swipe(ctx context.Context, swiperID, targetID string, liked bool) (domain.SwipeResult, error)
	GetMatch(ctx context.Context, id string) (*domain.Match, error)
	ListMatches(ctx context.Context, playerID string) ([]*domain.Match, error)
	AddMessage(ctx context.Context, matchID, senderID, body string) (*domain.Message, error)
	ListMessages(ctx context.Context, matchID string) ([]*domain.Message, error)

	CreateVenue(ctx context.Context, v *domain.Venue) error
	GetVenue(ctx context.Context, id string) (*domain.Venue, error)
	ListVenues(ctx context.Context) ([]*domain.Venue, error)

	CreateClub(ctx context.Context, c *domain.Club) error
	GetClub(ctx context.Context, id string) (*domain.Club, error)
	ListClubs(ctx context.Context) ([]*domain.Club, error)
	JoinClub(ctx context.Context, clubID, playerID string) error
	LeaveClub(ctx context.Context, clubID, playerID string) error

	CreateTournament(ctx context.Context, t *domain.Tournament) error
	GetTournament(ctx context.Context, id string) (*domain.Tournament, error)
	ListTournaments(ctx context.Context, fromDate string) ([]*domain.Tournament, error)
	EnterTournament(ctx context.Context, tournamentID, playerID string) error
	CreateJob(ctx context.Context, j *domain.Job) error
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	ListJobs(ctx context.Context, tournamentID string) ([]*domain.Job, error)
	ApplyForJob(ctx context.Context, a *domain.JobApplication) error
}

// Sessions is implemented by *session.Service.
type Sessions interface {
	Create(ctx context.Context, actor domain.Identity, in session.CreateInput) (*domain.Session, error)
	Get(ctx context.Context, actor domain.Identity, id string) (*domain.Session, error)
	List(ctx context.Context, actor domain.Identity) ([]*domain.Session, error)
	Update(ctx context.Context, actor domain.Identity, id string, patch domain.SessionPatch) (*domain.Session, error)
	SetPayment(ctx context.Context, actor domain.Identity, id, playerID string, paid bool) (*domain.Session, error)
	Transition(ctx context.Context, actor domain.Identity, id string, to domain.SessionStatus) (*domain.Session, error)
	Delete(ctx context.Context, actor domain.Identity, id string) error
	LoadAllocation(ctx context.Context, actor domain.Identity, id string) (*session.AllocationView, error)
	SaveAllocation(ctx context.Context, actor domain.Identity, id string, version int, allocs []fare.Allocation) (*session.AllocationView, error)
	Unpaid(ctx context.Context, actor domain.Identity, id string) ([]fare.Allocation, error)
	Remind(ctx context.Context, actor domain.Identity, id string) ([]fare.Allocation, error)
	ConfigureReminder(ctx context.Context, actor domain.Identity, id string, in session.ReminderInput) (*domain.ReminderSchedule, error)
}

// CoordinateResolver turns a map link into coordinates.
type CoordinateResolver interface {
	Resolve(ctx context.Context, link string) (lat, lng float64, err error)
}

type API struct {
	router      *mux.Router
	store       Store
	sessions    Sessions
	resolver    CoordinateResolver
	config      *config.Config
	oauthConfig *oauth2.Config
	jwtSecret   []byte
	discordAPI  string
	now         func() time.Time
}

func New(cfg *config.Config, store Store, sessions Sessions, resolver CoordinateResolver) *API {
	api := &API{
		router:     mux.NewRouter(),
		store:      store,
		sessions:   sessions,
		resolver:   resolver,
		config:     cfg,
		jwtSecret:  []byte(cfg.JWTSecret),
		discordAPI: "https://discord.com/api",
		now:        func() time.Time { return time.Now().UTC() },
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURI,
			Scopes:       []string{"identify", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://discord.com/api/oauth2/authorize",
				TokenURL: "https://discord.com/api/oauth2/token",
			},
		},
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	a.router.Use(recoverMiddleware)

	a.router.HandleFunc("/healthz", a.handleHealth).Methods("GET")

	// Auth endpoints
	a.router.HandleFunc("/api/auth/login", a.handleLogin).Methods("GET")
	a.router.HandleFunc("/api/auth/callback", a.handleCallback).Methods("GET")
	a.router.HandleFunc("/api/auth/logout", a.handleLogout).Methods("POST")

	// Protected endpoints
	protected := a.router.PathPrefix("/api").Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("/me", a.handleGetMe).Methods("GET")
	protected.HandleFunc("/me", a.handleUpdateMe).Methods("PUT")
	protected.HandleFunc("/players", a.handleDiscover).Methods("GET")
	protected.HandleFunc("/players/{id}", a.handleGetPlayer).Methods("GET")
	protected.HandleFunc("/swipes", a.handleSwipe).Methods("POST")
	protected.HandleFunc("/matches", a.handleListMatches).Methods("GET")
	protected.HandleFunc("/matches/{id}/messages", a.handleListMessages).Methods("GET")
	protected.HandleFunc("/matches/{id}/messages", a.handleSendMessage).Methods("POST")

	protected.HandleFunc("/venues", a.handleListVenues).Methods("GET")
	protected.HandleFunc("/venues", a.handleCreateVenue).Methods("POST")

	protected.HandleFunc("/clubs", a.handleListClubs).Methods("GET")
	protected.HandleFunc("/clubs", a.handleCreateClub).Methods("POST")
	protected.HandleFunc("/clubs/{id}", a.handleGetClub).Methods("GET")
	protected.HandleFunc("/clubs/{id}/members", a.handleJoinClub).Methods("POST")
	protected.HandleFunc("/clubs/{id}/members", a.handleLeaveClub).Methods("DELETE")

	protected.HandleFunc("/tournaments", a.handleListTournaments).Methods("GET")
	protected.HandleFunc("/tournaments", a.handleCreateTournament).Methods("POST")
	protected.HandleFunc("/tournaments/{id}", a.handleGetTournament).Methods("GET")
	protected.HandleFunc("/tournaments/{id}/entries", a.handleEnterTournament).Methods("POST")
	protected.HandleFunc("/tournaments/{id}/jobs", a.handleListJobs).Methods("GET")
	protected.HandleFunc("/tournaments/{id}/jobs", a.handleCreateJob).Methods("POST")
	protected.HandleFunc("/jobs/{id}/applications", a.handleApplyForJob).Methods("POST")

	protected.HandleFunc("/sessions", a.handleListSessions).Methods("GET")
	protected.HandleFunc("/sessions", a.handleCreateSession).Methods("POST")
	protected.HandleFunc("/sessions/{id}", a.handleGetSession).Methods("GET")
	protected.HandleFunc("/sessions/{id}", a.handlePatchSession).Methods("PATCH")
	protected.HandleFunc("/sessions/{id}", a.handleDeleteSession).Methods("DELETE")
	protected.HandleFunc("/sessions/{id}/status", a.handleSessionStatus).Methods("POST")
	protected.HandleFunc("/sessions/{id}/allocation", a.handleGetAllocation).Methods("GET")
	protected.HandleFunc("/sessions/{id}/allocation", a.handleSaveAllocation).Methods("PUT")
	protected.HandleFunc("/sessions/{id}/unpaid", a.handleUnpaid).Methods("GET")
	protected.HandleFunc("/sessions/{id}/remind", a.handleRemind).Methods("POST")
	protected.HandleFunc("/sessions/{id}/reminder", a.handleConfigureReminder).Methods("PUT")
}

// Handler returns the router wrapped in CORS. Credentials are allowed so the
// browser sends the token cookie, which rules out a wildcard origin.
func (a *API) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   a.config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(a.router)
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (a *API) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.config.WebBind,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("API server listening on http://%s", a.config.WebBind)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/jasstafel/internal/domain/gameconfig"
	"github.com/okian/jasstafel/internal/domain/history"
	"github.com/okian/jasstafel/internal/domain/model"
	"github.com/okian/jasstafel/internal/domain/session"
	"github.com/okian/jasstafel/internal/domain/strokes"
	"github.com/okian/jasstafel/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StartGame(ctx context.Context, r gameconfig.Overrides) (session.View, error)
	View(ctx context.Context, id string) (session.View, error)

	// FinalizeRound reports true when requestID was already applied.
	FinalizeRound(ctx context.Context, id, requestID string, e session.Entry) (session.Outcome, bool, error)
	ConfirmEdit(ctx context.Context, id string) (session.Outcome, error)
	CancelEdit(ctx context.Context, id string) (session.View, error)

	Navigate(ctx context.Context, id string, dir history.Direction) (session.View, error)
	JumpToLatest(ctx context.Context, id string) (session.View, error)

	DeclareStroke(ctx context.Context, id string, kind model.StrokeKind, team model.Team) (bool, session.View, error)
	AddWeis(ctx context.Context, id string, team model.Team, points int) (session.View, error)
	SetPaused(ctx context.Context, id string, paused bool) (session.View, error)
	ReplaceLedger(ctx context.Context, id string, records []model.RoundRecord) (session.View, error)
	Milestone(ctx context.Context, id string, team model.Team) (strokes.Milestone, error)

	EndGame(ctx context.Context, id string) (model.Snapshot, error)
	AbortGame(ctx context.Context, id string) (model.Snapshot, error)
	Synced(ctx context.Context, id string) (model.Snapshot, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	log           logger.Logger
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	gamesHandler  *GamesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		log:           log,
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		gamesHandler:  NewGamesHandler(deps, log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", instrument("healthz", s.log, s.healthHandler.HandleHealth))
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("GET /stats", instrument("stats", s.log, s.statsHandler.HandleStats))

	g := s.gamesHandler
	routes := []struct {
		pattern  string
		endpoint string
		handler  http.HandlerFunc
	}{
		{"POST /games", "games_create", g.HandleCreate},
		{"GET /games/{id}", "games_get", g.HandleGet},
		{"DELETE /games/{id}", "games_abort", g.HandleAbort},
		{"POST /games/{id}/end", "games_end", g.HandleEnd},
		{"POST /games/{id}/rounds", "rounds", g.HandleFinalizeRound},
		{"POST /games/{id}/edit/confirm", "edit_confirm", g.HandleConfirmEdit},
		{"POST /games/{id}/edit/cancel", "edit_cancel", g.HandleCancelEdit},
		{"POST /games/{id}/navigate", "navigate", g.HandleNavigate},
		{"POST /games/{id}/latest", "latest", g.HandleJumpToLatest},
		{"POST /games/{id}/strokes/{kind}", "strokes", g.HandleDeclareStroke},
		{"POST /games/{id}/weis", "weis", g.HandleWeis},
		{"POST /games/{id}/pause", "pause", g.HandlePause},
		{"POST /games/{id}/resume", "resume", g.HandleResume},
		{"PUT /games/{id}/ledger", "ledger", g.HandleReplaceLedger},
		{"GET /games/{id}/milestone/{team}", "milestone", g.HandleMilestone},
		{"GET /games/{id}/synced", "synced", g.HandleSynced},
	}
	for _, rt := range routes {
		mux.HandleFunc(rt.pattern, instrument(rt.endpoint, s.log, rt.handler))
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	if rec, ok := w.(*statusRecorder); ok {
		rec.code = code
	}
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeKindError maps err onto a status code and writes it.
func writeKindError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

// decodeBody decodes a JSON request body into v. An empty body is only
// accepted when optional is set.
func decodeBody(r *http.Request, v any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) && optional {
		return nil
	}
	return err
}

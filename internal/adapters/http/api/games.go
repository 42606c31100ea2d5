package api

import (
	"net/http"
	"strings"

	"github.com/okian/jasstafel/internal/domain/gameconfig"
	"github.com/okian/jasstafel/internal/domain/history"
	"github.com/okian/jasstafel/internal/domain/model"
	"github.com/okian/jasstafel/internal/domain/session"
	"github.com/okian/jasstafel/pkg/logger"
)

// roundRequest mirrors the body of POST /games/{id}/rounds.
type roundRequest struct {
	RequestID      string `json:"request_id"`
	CallingTeam    string `json:"calling_team"`
	TrumpID        string `json:"trump_id"`
	DeclaredPoints int    `json:"declared_points"`
	IsCleanSweep   bool   `json:"is_clean_sweep"`
	Counter        bool   `json:"counter"`
}

func (r roundRequest) entry() (session.Entry, error) {
	team, err := model.ParseTeam(r.CallingTeam)
	if err != nil {
		return session.Entry{}, err
	}
	trump, err := model.ParseTrumpID(r.TrumpID)
	if err != nil {
		return session.Entry{}, err
	}
	return session.Entry{
		CallingTeam:    team,
		TrumpID:        trump,
		DeclaredPoints: r.DeclaredPoints,
		IsCleanSweep:   r.IsCleanSweep,
		Counter:        r.Counter,
	}, nil
}

type roundResponse struct {
	Status    string          `json:"status"`
	Duplicate bool            `json:"duplicate"`
	Outcome   session.Outcome `json:"outcome"`
}

type navigateRequest struct {
	Direction string `json:"direction"`
}

type teamRequest struct {
	Team string `json:"team"`
}

type weisRequest struct {
	Team   string `json:"team"`
	Points int    `json:"points"`
}

type ledgerRequest struct {
	Rounds []model.RoundRecord `json:"rounds"`
}

type strokeResponse struct {
	Active bool         `json:"active"`
	View   session.View `json:"view"`
}

// GamesHandler serves the game routes.
type GamesHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(deps Dependencies, log logger.Logger) *GamesHandler {
	return &GamesHandler{deps: deps, log: log}
}

// HandleCreate handles POST /games. The body may carry rule overrides.
func (h *GamesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_game"
	var req gameconfig.Overrides
	if err := decodeBody(r, &req, true); err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	v, err := h.deps.StartGame(r.Context(), req)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// HandleGet handles GET /games/{id}.
func (h *GamesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.View(r.Context(), r.PathValue("id"))
	h.respond(w, r, "api.get_game", v, err)
}

// HandleAbort handles DELETE /games/{id}.
func (h *GamesHandler) HandleAbort(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.AbortGame(r.Context(), r.PathValue("id"))
	h.respond(w, r, "api.abort_game", snap, err)
}

// HandleEnd handles POST /games/{id}/end.
func (h *GamesHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.EndGame(r.Context(), r.PathValue("id"))
	h.respond(w, r, "api.end_game", snap, err)
}

// HandleFinalizeRound handles POST /games/{id}/rounds.
func (h *GamesHandler) HandleFinalizeRound(w http.ResponseWriter, r *http.Request) {
	const op = "api.finalize_round"
	var req roundRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	e, err := req.entry()
	if err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	out, dup, err := h.deps.FinalizeRound(r.Context(), r.PathValue("id"), strings.TrimSpace(req.RequestID), e)
	switch {
	case err != nil:
		h.fail(w, r, op, err)
	case dup:
		writeJSON(w, http.StatusOK, roundResponse{Status: "duplicate", Duplicate: true, Outcome: out})
	case out.Warning != nil:
		writeJSON(w, http.StatusAccepted, roundResponse{Status: "pending_edit", Outcome: out})
	default:
		writeJSON(w, http.StatusCreated, roundResponse{Status: "appended", Outcome: out})
	}
}

// HandleConfirmEdit handles POST /games/{id}/edit/confirm.
func (h *GamesHandler) HandleConfirmEdit(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.ConfirmEdit(r.Context(), r.PathValue("id"))
	h.respond(w, r, "api.confirm_edit", out, err)
}

// HandleCancelEdit handles POST /games/{id}/edit/cancel.
func (h *GamesHandler) HandleCancelEdit(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.CancelEdit(r.Context(), r.PathValue("id"))
	h.respond(w, r, "api.cancel_edit", v, err)
}

// HandleNavigate handles POST /games/{id}/navigate.
func (h *GamesHandler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	const op = "api.navigate"
	var req navigateRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	dir, err := history.ParseDirection(req.Direction)
	if err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	v, err := h.deps.Navigate(r.Context(), r.PathValue("id"), dir)
	h.respond(w, r, op, v, err)
}

// HandleJumpToLatest handles POST /games/{id}/latest.
func (h *GamesHandler) HandleJumpToLatest(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.JumpToLatest(r.Context(), r.PathValue("id"))
	h.respond(w, r, "api.jump_to_latest", v, err)
}

// HandleDeclareStroke handles POST /games/{id}/strokes/{kind}.
func (h *GamesHandler) HandleDeclareStroke(w http.ResponseWriter, r *http.Request) {
	const op = "api.declare_stroke"
	kind, err := model.ParseStrokeKind(r.PathValue("kind"))
	if err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	var req teamRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	team, err := model.ParseTeam(req.Team)
	if err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	active, v, err := h.deps.DeclareStroke(r.Context(), r.PathValue("id"), kind, team)
	h.respond(w, r, op, strokeResponse{Active: active, View: v}, err)
}

// HandleWeis handles POST /games/{id}/weis.
func (h *GamesHandler) HandleWeis(w http.ResponseWriter, r *http.Request) {
	const op = "api.weis"
	var req weisRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	team, err := model.ParseTeam(req.Team)
	if err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	v, err := h.deps.AddWeis(r.Context(), r.PathValue("id"), team, req.Points)
	h.respond(w, r, op, v, err)
}

// HandlePause handles POST /games/{id}/pause.
func (h *GamesHandler) HandlePause(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.SetPaused(r.Context(), r.PathValue("id"), true)
	h.respond(w, r, "api.pause", v, err)
}

// HandleResume handles POST /games/{id}/resume.
func (h *GamesHandler) HandleResume(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.SetPaused(r.Context(), r.PathValue("id"), false)
	h.respond(w, r, "api.resume", v, err)
}

// HandleReplaceLedger handles PUT /games/{id}/ledger. A broken record
// sequence is the caller's fault here.
func (h *GamesHandler) HandleReplaceLedger(w http.ResponseWriter, r *http.Request) {
	const op = "api.replace_ledger"
	var req ledgerRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	v, err := h.deps.ReplaceLedger(r.Context(), r.PathValue("id"), req.Rounds)
	if err != nil && isSequence(err) {
		err = WrapKind(op, ErrBadRequest, err)
	}
	h.respond(w, r, op, v, err)
}

// HandleMilestone handles GET /games/{id}/milestone/{team}.
func (h *GamesHandler) HandleMilestone(w http.ResponseWriter, r *http.Request) {
	const op = "api.milestone"
	team, err := model.ParseTeam(r.PathValue("team"))
	if err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	m, err := h.deps.Milestone(r.Context(), r.PathValue("id"), team)
	h.respond(w, r, op, m, err)
}

// HandleSynced handles GET /games/{id}/synced.
func (h *GamesHandler) HandleSynced(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.Synced(r.Context(), r.PathValue("id"))
	h.respond(w, r, "api.synced", snap, err)
}

func (h *GamesHandler) respond(w http.ResponseWriter, r *http.Request, op string, v any, err error) {
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *GamesHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("path", r.URL.Path),
			logger.Error(err))
	}
	writeError(w, status, code, err)
}

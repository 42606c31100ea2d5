package api

import (
	"errors"
	"net/http"

	"github.com/okian/jasstafel/internal/adapters/repository"
	service "github.com/okian/jasstafel/internal/app"
	"github.com/okian/jasstafel/internal/domain/gameconfig"
	"github.com/okian/jasstafel/internal/domain/history"
	"github.com/okian/jasstafel/internal/domain/ledger"
	"github.com/okian/jasstafel/internal/domain/model"
	"github.com/okian/jasstafel/internal/domain/scoring"
	"github.com/okian/jasstafel/internal/domain/session"
	"github.com/okian/jasstafel/internal/domain/strokes"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// KindError tags an error with the operation that failed and its kind.
type KindError struct {
	Op   string
	Kind error
	Err  error
}

func (e *KindError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *KindError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &KindError{Op: op, Kind: kind}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &KindError{Op: op, Kind: kind, Err: err}
}

type statusRule struct {
	kind   error
	status int
	code   string
}

// Checked in order; the first match wins.
var statusRules = []statusRule{
	{ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{scoring.ErrInvalidDeclaration, http.StatusBadRequest, "invalid_declaration"},
	{model.ErrUnknownTeam, http.StatusBadRequest, "unknown_team"},
	{model.ErrUnknownTrump, http.StatusBadRequest, "unknown_trump"},
	{model.ErrUnknownStroke, http.StatusBadRequest, "unknown_stroke"},
	{history.ErrUnknownDirection, http.StatusBadRequest, "unknown_direction"},
	{session.ErrInvalidWeis, http.StatusBadRequest, "invalid_weis"},
	{gameconfig.ErrInvalidSettings, http.StatusBadRequest, "invalid_settings"},
	{repository.ErrNotFound, http.StatusNotFound, "not_found"},
	{strokes.ErrStrokeConflict, http.StatusConflict, "stroke_conflict"},
	{strokes.ErrBergRequired, http.StatusConflict, "berg_required"},
	{strokes.ErrStrokeDisabled, http.StatusConflict, "stroke_disabled"},
	{strokes.ErrNotDeclarable, http.StatusConflict, "not_declarable"},
	{session.ErrInvalidState, http.StatusConflict, "invalid_state"},
	{session.ErrNoPendingEdit, http.StatusConflict, "no_pending_edit"},
	{service.ErrTooManyGames, http.StatusTooManyRequests, "too_many_games"},
	{service.ErrNotStarted, http.StatusServiceUnavailable, "not_started"},
	{ledger.ErrSequence, http.StatusInternalServerError, "sequence_violation"},
}

// statusFor maps an error to its HTTP status and machine-readable code.
func statusFor(err error) (int, string) {
	for _, r := range statusRules {
		if errors.Is(err, r.kind) {
			return r.status, r.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

func isSequence(err error) bool {
	return errors.Is(err, ledger.ErrSequence)
}

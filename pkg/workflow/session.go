// Package workflow drives one operator session through login, data entry
// and the results view.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/resistx/platform/pkg/common/models"
	"github.com/resistx/platform/pkg/encoder"
	"github.com/resistx/platform/pkg/identity"
	"github.com/resistx/platform/pkg/report"
	"github.com/resistx/platform/pkg/schema"
)

type State int

const (
	LoggedOut State = iota
	AwaitingInput
	ShowingResult
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged_out"
	case AwaitingInput:
		return "awaiting_input"
	case ShowingResult:
		return "showing_result"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidTransition  = errors.New("invalid session transition")
)

// Predictor sends a feature record to the prediction service. client.Client
// satisfies it.
type Predictor interface {
	Predict(ctx context.Context, record schema.FeatureRecord) (models.PredictionResult, error)
}

// Session is not safe for concurrent use; each operator gets their own.
type Session struct {
	verifier  identity.Verifier
	predictor Predictor

	state        State
	username     string
	observations encoder.Observations
	result       models.PredictionResult
}

func NewSession(verifier identity.Verifier, predictor Predictor) *Session {
	return &Session{verifier: verifier, predictor: predictor}
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Username() string {
	return s.username
}

// Login moves a logged-out session to AwaitingInput. A verifier error is
// returned as is and leaves the session logged out.
func (s *Session) Login(ctx context.Context, username, password string) error {
	if s.state != LoggedOut {
		return s.transitionError("login")
	}
	ok, err := s.verifier.Verify(ctx, username, password)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	s.username = username
	s.state = AwaitingInput
	return nil
}

// Submit encodes obs and asks the predictor for a result. Any fault keeps
// the session in AwaitingInput with no result.
func (s *Session) Submit(ctx context.Context, obs encoder.Observations) (models.PredictionResult, error) {
	if s.state != AwaitingInput {
		return models.PredictionResult{}, s.transitionError("submit")
	}
	record, err := encoder.Encode(obs)
	if err != nil {
		return models.PredictionResult{}, err
	}
	result, err := s.predictor.Predict(ctx, record)
	if err != nil {
		return models.PredictionResult{}, err
	}
	s.observations = obs
	s.result = result
	s.state = ShowingResult
	return result, nil
}

// TryAgain returns from the results view to data entry.
func (s *Session) TryAgain() error {
	if s.state != ShowingResult {
		return s.transitionError("try again")
	}
	s.observations = encoder.Observations{}
	s.result = models.PredictionResult{}
	s.state = AwaitingInput
	return nil
}

// Logout clears everything the session holds.
func (s *Session) Logout() error {
	if s.state == LoggedOut {
		return s.transitionError("logout")
	}
	*s = Session{verifier: s.verifier, predictor: s.predictor}
	return nil
}

// Result is the prediction being shown, if any.
func (s *Session) Result() (models.PredictionResult, bool) {
	if s.state != ShowingResult {
		return models.PredictionResult{}, false
	}
	return s.result, true
}

func (s *Session) Report(now time.Time) (report.Report, error) {
	if s.state != ShowingResult {
		return report.Report{}, s.transitionError("report")
	}
	return report.Build(s.observations, s.result, now), nil
}

func (s *Session) transitionError(action string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, action, s.state)
}

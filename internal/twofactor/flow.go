package twofactor

import (
	"context"
	"fmt"
	"sync"
	"unicode"

	"github.com/BrewReview/BR-Backend/internal/auth"
	"github.com/BrewReview/BR-Backend/internal/store"
)

// State of the setup flow.
type State int

const (
	Idle State = iota
	AwaitingUserCode
	Accepted
	Rejected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingUserCode:
		return "awaiting_user_code"
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// UserDirectory is the slice of the user store the flow needs.
type UserDirectory interface {
	GetByID(id string) (auth.User, error)
	SetTOTPSecret(userID, secret string) error
}

// Flow walks one user through two-factor enrollment or re-verification:
// Idle → AwaitingUserCode → Accepted or Rejected. It is a pure state
// machine: callers drive it with Start, Submit, Retry and Cancel, and
// observe completion through the single Result future. Rendering the
// provisioning QR and prompting for digits is entirely the caller's
// business.
type Flow struct {
	engine *Engine
	users  UserDirectory
	userID string

	mu        sync.Mutex
	state     State
	secret    []byte
	firstTime bool
	uri       string
	result    chan bool
	resolved  bool
}

func NewFlow(engine *Engine, users UserDirectory, userID string) *Flow {
	return &Flow{
		engine: engine,
		users:  users,
		userID: userID,
		state:  Idle,
		result: make(chan bool, 1),
	}
}

// Start loads the user and prepares the shared secret. First-time setup
// generates a fresh secret and a provisioning URI for QR rendering; a user
// that already enrolled gets their stored secret decoded instead. A stored
// secret that fails to decode is a configuration fault, not a bad code.
func (f *Flow) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != Idle {
		return fmt.Errorf("%w: flow already started", store.ErrInvalidArgument)
	}

	user, err := f.users.GetByID(f.userID)
	if err != nil {
		f.resolveLocked(false)
		return err
	}

	if user.TOTPSecret == "" {
		secret, err := f.engine.GenerateSecret()
		if err != nil {
			f.resolveLocked(false)
			return err
		}
		f.secret = secret
		f.firstTime = true
		f.uri = f.engine.ProvisioningURI(user.Username, secret)
	} else {
		secret, err := DecodeSecret(user.TOTPSecret)
		if err != nil {
			f.resolveLocked(false)
			return fmt.Errorf("%w: %v", store.ErrPersistenceFailure, err)
		}
		f.secret = secret
	}

	f.state = AwaitingUserCode
	return nil
}

// Submit assembles the six single-digit slots into a code and verifies it.
// Acceptance on first-time setup persists the secret; a persist failure is
// fatal and resolves the flow as failed. A wrong code moves to Rejected,
// from which Retry returns to AwaitingUserCode.
func (f *Flow) Submit(slots [6]string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != AwaitingUserCode {
		return false, fmt.Errorf("%w: flow is %s, not awaiting a code", store.ErrInvalidArgument, f.state)
	}

	code, err := assembleCode(slots)
	if err != nil {
		f.state = Rejected
		return false, err
	}

	if !f.engine.Verify(code, f.secret) {
		f.state = Rejected
		return false, nil
	}

	if f.firstTime {
		if err := f.users.SetTOTPSecret(f.userID, EncodeSecret(f.secret)); err != nil {
			f.resolveLocked(false)
			f.state = Rejected
			return false, fmt.Errorf("persist totp secret: %w", err)
		}
	}

	f.state = Accepted
	f.resolveLocked(true)
	return true, nil
}

// Retry discards the rejected attempt and waits for a fresh code. The
// secret is kept: the user only mistyped.
func (f *Flow) Retry() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != Rejected {
		return fmt.Errorf("%w: nothing to retry from %s", store.ErrInvalidArgument, f.state)
	}
	if f.resolved {
		return fmt.Errorf("%w: flow already finished", store.ErrInvalidArgument)
	}
	f.state = AwaitingUserCode
	return nil
}

// Cancel resolves the flow as failed from any state. Safe to call more
// than once; the future only fires the first time.
func (f *Flow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = Rejected
	f.resolveLocked(false)
}

// Result is the flow's single outward completion value: true exactly when
// the submitted code was accepted. It fires once, whether by acceptance,
// fatal failure or cancellation.
func (f *Flow) Result() <-chan bool {
	return f.result
}

// Wait blocks for the outcome, treating context cancellation as a Cancel.
// It never hangs after the surrounding request is torn down.
func (f *Flow) Wait(ctx context.Context) bool {
	select {
	case ok := <-f.result:
		return ok
	case <-ctx.Done():
		f.Cancel()
		return false
	}
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// ProvisioningURI returns the otpauth URL prepared by Start, empty unless
// this is a first-time setup.
func (f *Flow) ProvisioningURI() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uri
}

// FirstTime reports whether Start found no stored secret.
func (f *Flow) FirstTime() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.firstTime
}

func (f *Flow) resolveLocked(ok bool) {
	if f.resolved {
		return
	}
	f.resolved = true
	f.result <- ok
}

// assembleCode joins the six input slots, insisting each holds exactly one
// decimal digit.
func assembleCode(slots [6]string) (string, error) {
	code := ""
	for i, slot := range slots {
		if len(slot) != 1 || !unicode.IsDigit(rune(slot[0])) {
			return "", fmt.Errorf("%w: slot %d must hold one digit", store.ErrInvalidArgument, i+1)
		}
		code += slot
	}
	return code, nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"

	"github.com/BrewReview/BR-Backend/internal/auth/oauth"
	"github.com/BrewReview/BR-Backend/internal/roles"
	"github.com/BrewReview/BR-Backend/internal/store"
	"github.com/BrewReview/BR-Backend/internal/utils"
)

// UserStore is the slice of the user directory the orchestrator needs.
type UserStore interface {
	GetByUsername(username string) (User, error)
	GetByID(id string) (User, error)
	Create(user User) error
	Update(user User) error
	ReplaceRoles(userID string, roleNames []string) error
	SetAppealSubmitted(userID string, submitted bool) error
}

// OAuthAccountStore persists (provider, subject id) → user links.
type OAuthAccountStore interface {
	Find(provider, subjectID string) (OAuthAccount, error)
	Link(acc OAuthAccount) error
}

// Service is the authentication orchestrator: it combines the credential
// check (or a provider exchange) with the session store to produce an
// authenticated session.
type Service struct {
	users     UserStore
	accounts  OAuthAccountStore
	sessions  *SessionStore
	providers map[string]oauth.Provider
}

func NewService(users UserStore, accounts OAuthAccountStore, sessions *SessionStore, providers map[string]oauth.Provider) *Service {
	if providers == nil {
		providers = map[string]oauth.Provider{}
	}
	return &Service{users: users, accounts: accounts, sessions: sessions, providers: providers}
}

// Provider returns the configured client for name, if any.
func (s *Service) Provider(name string) (oauth.Provider, bool) {
	p, ok := s.providers[name]
	return p, ok
}

// Register creates a password account. The username must be free; the
// store reports store.ErrConflict otherwise.
func (s *Service) Register(username, password, email string) (User, error) {
	if username == "" || password == "" {
		return User{}, fmt.Errorf("%w: username and password are required", store.ErrInvalidArgument)
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user := User{
		UserID:         utils.GenerateUUID(),
		Username:       username,
		HashedPassword: hashed,
		Email:          email,
		Roles:          pq.StringArray{roles.User.String()},
	}
	if err := s.users.Create(user); err != nil {
		return User{}, err
	}
	user.HashedPassword = ""
	return user, nil
}

// PasswordLogin authenticates with username and password. A missing
// username propagates as store.ErrNotFound, distinct from the
// store.ErrUnauthenticated a wrong password yields, so callers can tell
// the cases apart; HTTP handlers must still collapse both into the same
// response body.
func (s *Service) PasswordLogin(username, password string) (AuthenticationResponse, error) {
	user, err := s.users.GetByUsername(username)
	if err != nil {
		return FailedAuthentication(), err
	}

	if !VerifyPassword(user.HashedPassword, password) {
		return FailedAuthentication(), fmt.Errorf("password mismatch for %q: %w", username, store.ErrUnauthenticated)
	}

	session, err := s.sessions.Create(user.UserID)
	if err != nil {
		return FailedAuthentication(), err
	}

	return AuthenticationResponse{
		AuthenticationSuccessful: true,
		SessionID:                session.SessionID,
	}, nil
}

// OAuthLogin exchanges the authorization code with the named provider and
// signs the matching local user in, creating the account on first contact.
// Transport failures surface as store.ErrUpstreamFailure alongside the
// failed response; an incomplete identity (no subject or display name) is
// a plain failed response with no error.
func (s *Service) OAuthLogin(ctx context.Context, providerName, code string) (AuthenticationResponse, error) {
	provider, ok := s.providers[providerName]
	if !ok {
		return FailedAuthentication(), fmt.Errorf("%w: unknown provider %q", store.ErrInvalidArgument, providerName)
	}

	identity, err := provider.ExchangeCode(ctx, code)
	if err != nil {
		return FailedAuthentication(), err
	}

	if identity.SubjectID == "" || identity.DisplayName == "" {
		log.Printf("[auth] %s returned incomplete identity, rejecting login", providerName)
		return FailedAuthentication(), nil
	}

	user, newAccount, err := s.resolveOAuthUser(providerName, identity)
	if err != nil {
		return FailedAuthentication(), err
	}

	session, err := s.sessions.Create(user.UserID)
	if err != nil {
		return FailedAuthentication(), err
	}

	return AuthenticationResponse{
		AuthenticationSuccessful: true,
		SessionID:                session.SessionID,
		OAuthToken:               identity.AccessToken,
		NewAccount:               newAccount,
	}, nil
}

// resolveOAuthUser finds the local user linked to (provider, subject id),
// creating and linking one on first sign-in. Existing users get their
// denormalized email refreshed when the provider reports a new one.
func (s *Service) resolveOAuthUser(providerName string, identity oauth.Identity) (User, bool, error) {
	acc, err := s.accounts.Find(providerName, identity.SubjectID)
	if err == nil {
		user, err := s.users.GetByID(acc.UserID)
		if err != nil {
			return User{}, false, fmt.Errorf("linked user %s: %w", acc.UserID, err)
		}
		if identity.Email != "" && identity.Email != user.Email {
			user.Email = identity.Email
			if err := s.users.Update(user); err != nil {
				return User{}, false, err
			}
		}
		return user, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return User{}, false, err
	}

	user := User{
		UserID:   utils.GenerateUUID(),
		Username: identity.DisplayName,
		Email:    identity.Email,
		Roles:    pq.StringArray{roles.User.String()},
	}
	if err := s.users.Create(user); err != nil {
		// The display name may already be taken locally; retry once with
		// a disambiguating suffix rather than merging accounts.
		if !errors.Is(err, store.ErrConflict) {
			return User{}, false, err
		}
		user.Username = identity.DisplayName + "-" + user.UserID[:8]
		if err := s.users.Create(user); err != nil {
			return User{}, false, err
		}
	}

	link := OAuthAccount{
		Provider:  providerName,
		SubjectID: identity.SubjectID,
		UserID:    user.UserID,
	}
	if err := s.accounts.Link(link); err != nil {
		return User{}, false, err
	}
	return user, true, nil
}

// UserForSession resolves the session cookie to its user. Ended, expired
// or unknown sessions all yield store.ErrNotFound.
func (s *Service) UserForSession(sessionID string) (User, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return User{}, err
	}
	user, err := s.users.GetByID(session.UserID)
	if err != nil {
		return User{}, err
	}
	user.HashedPassword = ""
	return user, nil
}

// Logout ends the session. Idempotent: an unknown session id still counts
// as logged out.
func (s *Service) Logout(sessionID string) (bool, error) {
	return s.sessions.End(sessionID)
}

// UpdatePassword swaps the stored hash after verifying the current one.
func (s *Service) UpdatePassword(userID, current, next string) error {
	if next == "" {
		return fmt.Errorf("%w: new password is required", store.ErrInvalidArgument)
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if !VerifyPassword(user.HashedPassword, current) {
		return fmt.Errorf("current password mismatch: %w", store.ErrUnauthenticated)
	}

	hashed, err := HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.HashedPassword = hashed
	return s.users.Update(user)
}

// Ban replaces the user's role set with banned and tears down their
// session; the user record itself is kept.
func (s *Service) Ban(userID string) error {
	if err := s.users.ReplaceRoles(userID, []string{roles.Banned.String()}); err != nil {
		return err
	}
	if session, err := s.sessions.GetByUser(userID); err == nil {
		if _, err := s.sessions.End(session.SessionID); err != nil {
			log.Printf("[auth] end session of banned user %s: %v", userID, err)
		}
	}
	return nil
}

// Unban restores the base user role and clears any pending appeal.
func (s *Service) Unban(userID string) error {
	if err := s.users.ReplaceRoles(userID, []string{roles.User.String()}); err != nil {
		return err
	}
	return s.users.SetAppealSubmitted(userID, false)
}

// SubmitAppeal marks that the banned user has appealed. Only one appeal is
// tracked per ban.
func (s *Service) SubmitAppeal(userID string) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if roles.HighestOf(user.Roles) != roles.Banned {
		return fmt.Errorf("%w: only banned users can appeal", store.ErrInvalidArgument)
	}
	if user.AppealSubmitted {
		return nil
	}
	return s.users.SetAppealSubmitted(userID, true)
}

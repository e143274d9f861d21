package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lib/pq"

	"github.com/BrewReview/BR-Backend/internal/auth/oauth"
	"github.com/BrewReview/BR-Backend/internal/store"
)

// mockUsers is an in-memory UserStore with the same conflict behavior as
// the gorm store.
type mockUsers struct {
	byID     map[string]User
	created  []User
	updated  []User
	failNext error
}

func newMockUsers(users ...User) *mockUsers {
	m := &mockUsers{byID: make(map[string]User)}
	for _, u := range users {
		m.byID[u.UserID] = u
	}
	return m
}

func (m *mockUsers) GetByUsername(username string) (User, error) {
	for _, u := range m.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("user %q: %w", username, store.ErrNotFound)
}

func (m *mockUsers) GetByID(id string) (User, error) {
	u, ok := m.byID[id]
	if !ok {
		return User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *mockUsers) Create(user User) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	for _, existing := range m.byID {
		if existing.Username == user.Username {
			return fmt.Errorf("username %q: %w", user.Username, store.ErrConflict)
		}
	}
	m.byID[user.UserID] = user
	m.created = append(m.created, user)
	return nil
}

func (m *mockUsers) Update(user User) error {
	if _, ok := m.byID[user.UserID]; !ok {
		return store.ErrNotFound
	}
	m.byID[user.UserID] = user
	m.updated = append(m.updated, user)
	return nil
}

func (m *mockUsers) ReplaceRoles(userID string, roleNames []string) error {
	u, ok := m.byID[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.Roles = pq.StringArray(roleNames)
	m.byID[userID] = u
	return nil
}

func (m *mockUsers) SetAppealSubmitted(userID string, submitted bool) error {
	u, ok := m.byID[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.AppealSubmitted = submitted
	m.byID[userID] = u
	return nil
}

// mockAccounts is an in-memory OAuthAccountStore.
type mockAccounts struct {
	links map[string]OAuthAccount // provider + "/" + subject
}

func newMockAccounts(accs ...OAuthAccount) *mockAccounts {
	m := &mockAccounts{links: make(map[string]OAuthAccount)}
	for _, a := range accs {
		m.links[a.Provider+"/"+a.SubjectID] = a
	}
	return m
}

func (m *mockAccounts) Find(provider, subjectID string) (OAuthAccount, error) {
	a, ok := m.links[provider+"/"+subjectID]
	if !ok {
		return OAuthAccount{}, store.ErrNotFound
	}
	return a, nil
}

func (m *mockAccounts) Link(acc OAuthAccount) error {
	m.links[acc.Provider+"/"+acc.SubjectID] = acc
	return nil
}

// stubProvider returns a fixed identity or error from ExchangeCode.
type stubProvider struct {
	name     string
	identity oauth.Identity
	err      error
}

func (p *stubProvider) Name() string                  { return p.name }
func (p *stubProvider) AuthCodeURL(state string) string { return "https://example.test/auth?state=" + state }
func (p *stubProvider) ExchangeCode(ctx context.Context, code string) (oauth.Identity, error) {
	return p.identity, p.err
}

func passwordUser(t *testing.T, id, username, password string) User {
	t.Helper()
	hashed, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return User{UserID: id, Username: username, HashedPassword: hashed, Roles: pq.StringArray{"user"}}
}

func newTestService(users *mockUsers, accounts *mockAccounts, providers map[string]oauth.Provider) *Service {
	return NewService(users, accounts, newTestSessionStore(newMemSessions()), providers)
}

func TestPasswordLoginSuccess(t *testing.T) {
	users := newMockUsers(passwordUser(t, "u1", "alice", "hunter2"))
	svc := newTestService(users, newMockAccounts(), nil)

	resp, err := svc.PasswordLogin("alice", "hunter2")
	if err != nil {
		t.Fatalf("PasswordLogin: %v", err)
	}
	if !resp.AuthenticationSuccessful {
		t.Error("expected successful authentication")
	}
	if resp.SessionID == "" || resp.SessionID == FailedAuthentication().SessionID {
		t.Errorf("SessionID = %q, want a real session id", resp.SessionID)
	}
}

func TestPasswordLoginUnknownUser(t *testing.T) {
	svc := newTestService(newMockUsers(), newMockAccounts(), nil)

	resp, err := svc.PasswordLogin("ghost", "whatever")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if resp != FailedAuthentication() {
		t.Errorf("resp = %+v, want failed response", resp)
	}
}

func TestPasswordLoginWrongPassword(t *testing.T) {
	users := newMockUsers(passwordUser(t, "u1", "alice", "hunter2"))
	svc := newTestService(users, newMockAccounts(), nil)

	resp, err := svc.PasswordLogin("alice", "wrong")
	if !errors.Is(err, store.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if resp != FailedAuthentication() {
		t.Errorf("resp = %+v, want failed response", resp)
	}
}

func TestPasswordLoginDistinguishesMissingUserFromBadPassword(t *testing.T) {
	users := newMockUsers(passwordUser(t, "u1", "alice", "hunter2"))
	svc := newTestService(users, newMockAccounts(), nil)

	_, missingErr := svc.PasswordLogin("ghost", "hunter2")
	_, badPassErr := svc.PasswordLogin("alice", "wrong")

	if !errors.Is(missingErr, store.ErrNotFound) || errors.Is(missingErr, store.ErrUnauthenticated) {
		t.Errorf("missing user error = %v, want pure not-found", missingErr)
	}
	if !errors.Is(badPassErr, store.ErrUnauthenticated) || errors.Is(badPassErr, store.ErrNotFound) {
		t.Errorf("bad password error = %v, want pure unauthenticated", badPassErr)
	}
}

func TestRegisterCreatesUserWithBaseRole(t *testing.T) {
	users := newMockUsers()
	svc := newTestService(users, newMockAccounts(), nil)

	user, err := svc.Register("carol", "s3cret", "carol@example.test")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.UserID == "" {
		t.Error("expected a generated user id")
	}
	if len(users.created) != 1 {
		t.Fatalf("created %d users, want 1", len(users.created))
	}
	created := users.created[0]
	if len(created.Roles) != 1 || created.Roles[0] != "user" {
		t.Errorf("roles = %v, want [user]", created.Roles)
	}
	if created.HashedPassword == "" || created.HashedPassword == "s3cret" {
		t.Error("expected a hashed password on the stored record")
	}
	if user.HashedPassword != "" {
		t.Error("returned user should not expose the hash")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	users := newMockUsers(passwordUser(t, "u1", "alice", "x"))
	svc := newTestService(users, newMockAccounts(), nil)

	_, err := svc.Register("alice", "pw", "")
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestOAuthLoginUnknownProvider(t *testing.T) {
	svc := newTestService(newMockUsers(), newMockAccounts(), nil)

	resp, err := svc.OAuthLogin(context.Background(), "myspace", "code")
	if !errors.Is(err, store.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if resp != FailedAuthentication() {
		t.Errorf("resp = %+v, want failed response", resp)
	}
}

func TestOAuthLoginExchangeFailure(t *testing.T) {
	provider := &stubProvider{name: "google", err: fmt.Errorf("%w: connection refused", store.ErrUpstreamFailure)}
	svc := newTestService(newMockUsers(), newMockAccounts(), map[string]oauth.Provider{"google": provider})

	resp, err := svc.OAuthLogin(context.Background(), "google", "code")
	if !errors.Is(err, store.ErrUpstreamFailure) {
		t.Fatalf("expected upstream failure, got %v", err)
	}
	if resp != FailedAuthentication() {
		t.Errorf("resp = %+v, want failed response", resp)
	}
}

func TestOAuthLoginIncompleteIdentity(t *testing.T) {
	provider := &stubProvider{name: "google", identity: oauth.Identity{SubjectID: "", DisplayName: "Alice"}}
	svc := newTestService(newMockUsers(), newMockAccounts(), map[string]oauth.Provider{"google": provider})

	resp, err := svc.OAuthLogin(context.Background(), "google", "code")
	if err != nil {
		t.Fatalf("expected no error for incomplete identity, got %v", err)
	}
	if resp != FailedAuthentication() {
		t.Errorf("resp = %+v, want failed response", resp)
	}
}

func TestOAuthLoginFirstContactCreatesAndLinks(t *testing.T) {
	provider := &stubProvider{name: "google", identity: oauth.Identity{
		SubjectID:   "goog-123",
		DisplayName: "Alice",
		Email:       "alice@example.test",
		AccessToken: "tok-abc",
	}}
	users := newMockUsers()
	accounts := newMockAccounts()
	svc := newTestService(users, accounts, map[string]oauth.Provider{"google": provider})

	resp, err := svc.OAuthLogin(context.Background(), "google", "code")
	if err != nil {
		t.Fatalf("OAuthLogin: %v", err)
	}
	if !resp.AuthenticationSuccessful || !resp.NewAccount {
		t.Errorf("resp = %+v, want successful new account", resp)
	}
	if resp.OAuthToken != "tok-abc" {
		t.Errorf("OAuthToken = %q, want tok-abc", resp.OAuthToken)
	}
	if len(users.created) != 1 {
		t.Fatalf("created %d users, want 1", len(users.created))
	}
	link, err := accounts.Find("google", "goog-123")
	if err != nil {
		t.Fatalf("expected link to exist: %v", err)
	}
	if link.UserID != users.created[0].UserID {
		t.Errorf("link points at %q, want %q", link.UserID, users.created[0].UserID)
	}
}

func TestOAuthLoginExistingLinkSignsInWithoutCreate(t *testing.T) {
	existing := User{UserID: "u1", Username: "Alice", Email: "old@example.test", Roles: pq.StringArray{"user"}}
	provider := &stubProvider{name: "google", identity: oauth.Identity{
		SubjectID:   "goog-123",
		DisplayName: "Alice",
		Email:       "new@example.test",
	}}
	users := newMockUsers(existing)
	accounts := newMockAccounts(OAuthAccount{Provider: "google", SubjectID: "goog-123", UserID: "u1"})
	svc := newTestService(users, accounts, map[string]oauth.Provider{"google": provider})

	resp, err := svc.OAuthLogin(context.Background(), "google", "code")
	if err != nil {
		t.Fatalf("OAuthLogin: %v", err)
	}
	if resp.NewAccount {
		t.Error("expected NewAccount = false for an existing link")
	}
	if len(users.created) != 0 {
		t.Errorf("created %d users, want 0", len(users.created))
	}
	// The provider reported a new email; the record is refreshed.
	if got := users.byID["u1"].Email; got != "new@example.test" {
		t.Errorf("email = %q, want refreshed value", got)
	}
}

func TestOAuthLoginUsernameCollisionRetriesWithSuffix(t *testing.T) {
	local := passwordUser(t, "u1", "Alice", "pw") // same display name, no link
	provider := &stubProvider{name: "google", identity: oauth.Identity{
		SubjectID:   "goog-999",
		DisplayName: "Alice",
	}}
	users := newMockUsers(local)
	svc := newTestService(users, newMockAccounts(), map[string]oauth.Provider{"google": provider})

	resp, err := svc.OAuthLogin(context.Background(), "google", "code")
	if err != nil {
		t.Fatalf("OAuthLogin: %v", err)
	}
	if !resp.AuthenticationSuccessful || !resp.NewAccount {
		t.Errorf("resp = %+v, want successful new account", resp)
	}
	if len(users.created) != 1 {
		t.Fatalf("created %d users, want 1", len(users.created))
	}
	name := users.created[0].Username
	if !strings.HasPrefix(name, "Alice-") || name == "Alice" {
		t.Errorf("username = %q, want disambiguating suffix", name)
	}
}

func TestUserForSessionStripsHash(t *testing.T) {
	users := newMockUsers(passwordUser(t, "u1", "alice", "pw"))
	svc := newTestService(users, newMockAccounts(), nil)

	resp, err := svc.PasswordLogin("alice", "pw")
	if err != nil {
		t.Fatalf("PasswordLogin: %v", err)
	}

	user, err := svc.UserForSession(resp.SessionID)
	if err != nil {
		t.Fatalf("UserForSession: %v", err)
	}
	if user.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", user.UserID)
	}
	if user.HashedPassword != "" {
		t.Error("expected the hash to be stripped")
	}
}

func TestLogoutEndsSession(t *testing.T) {
	users := newMockUsers(passwordUser(t, "u1", "alice", "pw"))
	svc := newTestService(users, newMockAccounts(), nil)

	resp, _ := svc.PasswordLogin("alice", "pw")

	ok, err := svc.Logout(resp.SessionID)
	if err != nil || !ok {
		t.Fatalf("Logout = (%v, %v), want (true, nil)", ok, err)
	}
	if _, err := svc.UserForSession(resp.SessionID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected session gone after logout, got %v", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	users := newMockUsers(passwordUser(t, "u1", "alice", "old-pw"))
	svc := newTestService(users, newMockAccounts(), nil)

	if err := svc.UpdatePassword("u1", "wrong", "new-pw"); !errors.Is(err, store.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated for wrong current password, got %v", err)
	}
	if err := svc.UpdatePassword("u1", "old-pw", ""); !errors.Is(err, store.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for empty new password, got %v", err)
	}
	if err := svc.UpdatePassword("u1", "old-pw", "new-pw"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}

	if _, err := svc.PasswordLogin("alice", "old-pw"); !errors.Is(err, store.ErrUnauthenticated) {
		t.Errorf("old password still accepted: %v", err)
	}
	if _, err := svc.PasswordLogin("alice", "new-pw"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestBanReplacesRolesAndEndsSession(t *testing.T) {
	users := newMockUsers(passwordUser(t, "u1", "alice", "pw"))
	svc := newTestService(users, newMockAccounts(), nil)

	resp, _ := svc.PasswordLogin("alice", "pw")

	if err := svc.Ban("u1"); err != nil {
		t.Fatalf("Ban: %v", err)
	}
	if got := users.byID["u1"].Roles; len(got) != 1 || got[0] != "banned" {
		t.Errorf("roles = %v, want [banned]", got)
	}
	if _, err := svc.UserForSession(resp.SessionID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected session ended by ban, got %v", err)
	}
}

func TestUnbanRestoresUserRoleAndClearsAppeal(t *testing.T) {
	banned := User{UserID: "u1", Username: "alice", Roles: pq.StringArray{"banned"}, AppealSubmitted: true}
	users := newMockUsers(banned)
	svc := newTestService(users, newMockAccounts(), nil)

	if err := svc.Unban("u1"); err != nil {
		t.Fatalf("Unban: %v", err)
	}
	got := users.byID["u1"]
	if len(got.Roles) != 1 || got.Roles[0] != "user" {
		t.Errorf("roles = %v, want [user]", got.Roles)
	}
	if got.AppealSubmitted {
		t.Error("expected appeal flag cleared")
	}
}

func TestSubmitAppeal(t *testing.T) {
	banned := User{UserID: "u1", Username: "alice", Roles: pq.StringArray{"banned"}}
	active := User{UserID: "u2", Username: "bob", Roles: pq.StringArray{"user"}}
	users := newMockUsers(banned, active)
	svc := newTestService(users, newMockAccounts(), nil)

	if err := svc.SubmitAppeal("u2"); !errors.Is(err, store.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for non-banned user, got %v", err)
	}
	if err := svc.SubmitAppeal("u1"); err != nil {
		t.Fatalf("SubmitAppeal: %v", err)
	}
	if !users.byID["u1"].AppealSubmitted {
		t.Error("expected appeal flag set")
	}
	// Second appeal is a no-op, not an error.
	if err := svc.SubmitAppeal("u1"); err != nil {
		t.Fatalf("repeat SubmitAppeal: %v", err)
	}
}

package usecase_test

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ErlanBelekov/shortly/internal/domain"
	"github.com/ErlanBelekov/shortly/internal/usecase"
)

// ---- fakes ----

type fakeUserRepo struct {
	create         func(ctx context.Context, username, passwordHash string) (*domain.User, error)
	findByUsername func(ctx context.Context, username string) (*domain.User, error)
}

func (r *fakeUserRepo) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	return r.create(ctx, username, passwordHash)
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findByUsername(ctx, username)
}

type fakeTokenRepo struct {
	create        func(ctx context.Context, userID int64, tokenHash string, issuedAt time.Time) (*domain.Token, error)
	findByHash    func(ctx context.Context, tokenHash string) (*domain.Token, error)
	deleteByHash  func(ctx context.Context, tokenHash string) (int64, error)
	deleteExpired func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (r *fakeTokenRepo) Create(ctx context.Context, userID int64, tokenHash string, issuedAt time.Time) (*domain.Token, error) {
	return r.create(ctx, userID, tokenHash, issuedAt)
}

func (r *fakeTokenRepo) FindByHash(ctx context.Context, tokenHash string) (*domain.Token, error) {
	return r.findByHash(ctx, tokenHash)
}

func (r *fakeTokenRepo) DeleteByHash(ctx context.Context, tokenHash string) (int64, error) {
	return r.deleteByHash(ctx, tokenHash)
}

func (r *fakeTokenRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.deleteExpired(ctx, cutoff)
}

type fakeHasher struct {
	hash    func(password string) (string, error)
	compare func(hash, password string) (bool, error)
}

func (h *fakeHasher) Hash(password string) (string, error) { return h.hash(password) }

func (h *fakeHasher) Compare(hash, password string) (bool, error) { return h.compare(hash, password) }

// ---- helpers ----

var (
	testNow  = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	testUser = &domain.User{ID: 7, Username: "alice", PasswordHash: "hashed:secret"}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAuth(users *fakeUserRepo, tokens *fakeTokenRepo, hasher *fakeHasher) *usecase.AuthUsecase {
	return usecase.NewAuthUsecase(users, tokens, hasher, discardLogger(),
		usecase.WithClock(func() time.Time { return testNow }))
}

func sha(raw string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}

func acceptingTokenRepo(captured *string) *fakeTokenRepo {
	return &fakeTokenRepo{
		create: func(_ context.Context, userID int64, tokenHash string, issuedAt time.Time) (*domain.Token, error) {
			if captured != nil {
				*captured = tokenHash
			}
			return &domain.Token{ID: 1, TokenHash: tokenHash, UserID: userID, CreatedAt: issuedAt, UpdatedAt: issuedAt}, nil
		},
	}
}

// ---- Validate ----

func TestValidate_TokenAgeBoundary(t *testing.T) {
	cases := []struct {
		name    string
		age     time.Duration
		wantErr error
	}{
		{"fresh", 0, nil},
		{"one millisecond short of a day", 86_399_999 * time.Millisecond, nil},
		{"exactly a day", 86_400_000 * time.Millisecond, domain.ErrTokenExpired},
		{"a year", 365 * 24 * time.Hour, domain.ErrTokenExpired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tokens := &fakeTokenRepo{
				findByHash: func(_ context.Context, tokenHash string) (*domain.Token, error) {
					return &domain.Token{ID: 1, TokenHash: tokenHash, UserID: testUser.ID, CreatedAt: testNow.Add(-tc.age)}, nil
				},
			}

			tok, err := newAuth(&fakeUserRepo{}, tokens, &fakeHasher{}).Validate(context.Background(), "raw")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if tc.wantErr == nil && tok.UserID != testUser.ID {
				t.Errorf("UserID = %d, want %d", tok.UserID, testUser.ID)
			}
			if tc.wantErr != nil && !errors.Is(err, domain.ErrUnauthorized) {
				t.Errorf("expired error %v does not wrap ErrUnauthorized", err)
			}
		})
	}
}

func TestValidate_MissingToken_NoStoreRoundTrip(t *testing.T) {
	tokens := &fakeTokenRepo{
		findByHash: func(_ context.Context, _ string) (*domain.Token, error) {
			t.Fatal("store must not be queried for an empty token")
			return nil, nil
		},
	}

	_, err := newAuth(&fakeUserRepo{}, tokens, &fakeHasher{}).Validate(context.Background(), "")
	if !errors.Is(err, domain.ErrTokenMissing) || !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("want ErrTokenMissing wrapping ErrUnauthorized, got %v", err)
	}
}

func TestValidate_UnknownToken_ReturnsNotFound(t *testing.T) {
	tokens := &fakeTokenRepo{
		findByHash: func(_ context.Context, _ string) (*domain.Token, error) {
			return nil, domain.ErrTokenNotFound
		},
	}

	_, err := newAuth(&fakeUserRepo{}, tokens, &fakeHasher{}).Validate(context.Background(), "nope")
	if !errors.Is(err, domain.ErrTokenNotFound) {
		t.Errorf("want ErrTokenNotFound, got %v", err)
	}
}

func TestValidate_LooksUpByHash(t *testing.T) {
	var gotHash string
	tokens := &fakeTokenRepo{
		findByHash: func(_ context.Context, tokenHash string) (*domain.Token, error) {
			gotHash = tokenHash
			return &domain.Token{CreatedAt: testNow}, nil
		},
	}

	if _, err := newAuth(&fakeUserRepo{}, tokens, &fakeHasher{}).Validate(context.Background(), "raw-value"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotHash != sha("raw-value") {
		t.Errorf("looked up %q, want SHA-256 of raw token", gotHash)
	}
}

func TestValidate_StoreError_IsNotUnauthorized(t *testing.T) {
	storeErr := errors.New("db down")
	tokens := &fakeTokenRepo{
		findByHash: func(_ context.Context, _ string) (*domain.Token, error) {
			return nil, storeErr
		},
	}

	_, err := newAuth(&fakeUserRepo{}, tokens, &fakeHasher{}).Validate(context.Background(), "raw")
	if !errors.Is(err, storeErr) {
		t.Errorf("want wrapped storeErr, got %v", err)
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		t.Error("store failure must not be reported as unauthorized")
	}
}

// ---- IssueToken ----

func TestIssueToken_StoresHashOfReturnedToken(t *testing.T) {
	var storedHash string
	var storedAt time.Time
	tokens := &fakeTokenRepo{
		create: func(_ context.Context, _ int64, tokenHash string, issuedAt time.Time) (*domain.Token, error) {
			storedHash, storedAt = tokenHash, issuedAt
			return &domain.Token{}, nil
		},
	}

	raw, err := newAuth(&fakeUserRepo{}, tokens, &fakeHasher{}).IssueToken(context.Background(), testUser.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raw) != 64 {
		t.Errorf("raw token length = %d, want 64 hex chars", len(raw))
	}
	if storedHash != sha(raw) {
		t.Errorf("stored hash %q is not SHA-256 of issued token", storedHash)
	}
	if !storedAt.Equal(testNow) {
		t.Errorf("issuedAt = %v, want %v", storedAt, testNow)
	}
}

func TestIssueToken_TokensAreUnique(t *testing.T) {
	auth := newAuth(&fakeUserRepo{}, acceptingTokenRepo(nil), &fakeHasher{})

	a, _ := auth.IssueToken(context.Background(), 1)
	b, _ := auth.IssueToken(context.Background(), 1)
	if a == b {
		t.Error("two issued tokens are identical")
	}
}

// ---- Signup ----

func TestSignup_HashesPasswordAndIssuesToken(t *testing.T) {
	var storedPasswordHash, storedTokenHash string
	users := &fakeUserRepo{
		create: func(_ context.Context, username, passwordHash string) (*domain.User, error) {
			storedPasswordHash = passwordHash
			return &domain.User{ID: 9, Username: username, PasswordHash: passwordHash}, nil
		},
	}
	hasher := &fakeHasher{
		hash: func(password string) (string, error) { return "hashed:" + password, nil },
	}

	raw, err := newAuth(users, acceptingTokenRepo(&storedTokenHash), hasher).Signup(context.Background(), "bob", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if storedPasswordHash != "hashed:pw" {
		t.Errorf("stored password hash %q, want hashed value", storedPasswordHash)
	}
	if storedTokenHash != sha(raw) {
		t.Error("signup did not persist the token it returned")
	}
}

func TestSignup_UsernameTaken_NoToken(t *testing.T) {
	users := &fakeUserRepo{
		create: func(_ context.Context, _, _ string) (*domain.User, error) {
			return nil, domain.ErrUsernameTaken
		},
	}
	tokens := &fakeTokenRepo{
		create: func(_ context.Context, _ int64, _ string, _ time.Time) (*domain.Token, error) {
			t.Fatal("token must not be issued for a failed signup")
			return nil, nil
		},
	}
	hasher := &fakeHasher{hash: func(p string) (string, error) { return p, nil }}

	_, err := newAuth(users, tokens, hasher).Signup(context.Background(), "alice", "pw")
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Errorf("want ErrUsernameTaken, got %v", err)
	}
}

func TestSignup_EmptyInput_Rejected(t *testing.T) {
	auth := newAuth(&fakeUserRepo{}, &fakeTokenRepo{}, &fakeHasher{})

	for _, in := range [][2]string{{"", "pw"}, {"  ", "pw"}, {"bob", ""}} {
		if _, err := auth.Signup(context.Background(), in[0], in[1]); !errors.Is(err, domain.ErrInvalidCredentialsInput) {
			t.Errorf("Signup(%q, %q) err = %v, want ErrInvalidCredentialsInput", in[0], in[1], err)
		}
	}
}

func TestSignup_PasswordOverBcryptLimit_RejectedBeforeHashing(t *testing.T) {
	users := &fakeUserRepo{
		create: func(_ context.Context, _, _ string) (*domain.User, error) {
			t.Fatal("user stored with an unusable password")
			return nil, nil
		},
	}
	hasher := &fakeHasher{
		hash: func(_ string) (string, error) {
			t.Fatal("hasher reached with an overlong password")
			return "", nil
		},
	}
	auth := newAuth(users, &fakeTokenRepo{}, hasher)

	_, err := auth.Signup(context.Background(), "bob", strings.Repeat("a", 80))
	if !errors.Is(err, domain.ErrInvalidCredentialsInput) {
		t.Errorf("want ErrInvalidCredentialsInput, got %v", err)
	}
}

func TestSignup_PasswordAtBcryptLimit_Accepted(t *testing.T) {
	users := &fakeUserRepo{
		create: func(_ context.Context, username, hash string) (*domain.User, error) {
			return &domain.User{ID: 9, Username: username, PasswordHash: hash}, nil
		},
	}
	hasher := &fakeHasher{hash: func(p string) (string, error) { return "hashed:" + p, nil }}

	_, err := newAuth(users, acceptingTokenRepo(nil), hasher).Signup(context.Background(), "bob", strings.Repeat("a", 72))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ---- Login ----

func TestLogin_UnknownUser_NeverComparesPassword(t *testing.T) {
	users := &fakeUserRepo{
		findByUsername: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	hasher := &fakeHasher{
		compare: func(_, _ string) (bool, error) {
			t.Fatal("password comparison reached for a missing user")
			return false, nil
		},
	}

	_, err := newAuth(users, &fakeTokenRepo{}, hasher).Login(context.Background(), "ghost", "pw")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("want ErrUserNotFound, got %v", err)
	}
}

func TestLogin_WrongPassword_ReturnsInvalidCredentials(t *testing.T) {
	users := &fakeUserRepo{
		findByUsername: func(_ context.Context, _ string) (*domain.User, error) { return testUser, nil },
	}
	hasher := &fakeHasher{compare: func(_, _ string) (bool, error) { return false, nil }}
	tokens := &fakeTokenRepo{
		create: func(_ context.Context, _ int64, _ string, _ time.Time) (*domain.Token, error) {
			t.Fatal("token must not be issued on a wrong password")
			return nil, nil
		},
	}

	_, err := newAuth(users, tokens, hasher).Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("want ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_PasswordOverBcryptLimit_IsWrongPassword(t *testing.T) {
	users := &fakeUserRepo{
		findByUsername: func(_ context.Context, _ string) (*domain.User, error) { return testUser, nil },
	}
	hasher := &fakeHasher{
		compare: func(_, _ string) (bool, error) {
			t.Fatal("comparison reached with an overlong password")
			return false, nil
		},
	}

	_, err := newAuth(users, &fakeTokenRepo{}, hasher).Login(context.Background(), "alice", strings.Repeat("a", 80))
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("want ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_Match_IssuesTokenForUser(t *testing.T) {
	var issuedFor int64
	users := &fakeUserRepo{
		findByUsername: func(_ context.Context, _ string) (*domain.User, error) { return testUser, nil },
	}
	hasher := &fakeHasher{
		compare: func(hash, password string) (bool, error) { return hash == "hashed:"+password, nil },
	}
	tokens := &fakeTokenRepo{
		create: func(_ context.Context, userID int64, _ string, _ time.Time) (*domain.Token, error) {
			issuedFor = userID
			return &domain.Token{}, nil
		},
	}

	raw, err := newAuth(users, tokens, hasher).Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw == "" {
		t.Error("empty token returned")
	}
	if issuedFor != testUser.ID {
		t.Errorf("token issued for user %d, want %d", issuedFor, testUser.ID)
	}
}

// ---- Revoke / Logout ----

func TestRevoke_NeverIssuedToken_DeletesZeroWithoutError(t *testing.T) {
	tokens := &fakeTokenRepo{
		deleteByHash: func(_ context.Context, _ string) (int64, error) { return 0, nil },
	}

	n, err := newAuth(&fakeUserRepo{}, tokens, &fakeHasher{}).Revoke(context.Background(), "never-issued")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("deleted = %d, want 0", n)
	}
}

func TestRevoke_DeletesByHashAndReportsCount(t *testing.T) {
	var gotHash string
	tokens := &fakeTokenRepo{
		deleteByHash: func(_ context.Context, tokenHash string) (int64, error) {
			gotHash = tokenHash
			return 2, nil
		},
	}

	n, err := newAuth(&fakeUserRepo{}, tokens, &fakeHasher{}).Revoke(context.Background(), "raw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
	if gotHash != sha("raw") {
		t.Error("revoke did not delete by token hash")
	}
}

func TestLogout_StoreError_Propagates(t *testing.T) {
	storeErr := errors.New("db down")
	tokens := &fakeTokenRepo{
		deleteByHash: func(_ context.Context, _ string) (int64, error) { return 0, storeErr },
	}

	if err := newAuth(&fakeUserRepo{}, tokens, &fakeHasher{}).Logout(context.Background(), "raw"); !errors.Is(err, storeErr) {
		t.Errorf("want wrapped storeErr, got %v", err)
	}
}

// ---- PurgeExpired ----

func TestPurgeExpired_UsesTTLCutoff(t *testing.T) {
	var gotCutoff time.Time
	tokens := &fakeTokenRepo{
		deleteExpired: func(_ context.Context, cutoff time.Time) (int64, error) {
			gotCutoff = cutoff
			return 3, nil
		},
	}

	n, err := newAuth(&fakeUserRepo{}, tokens, &fakeHasher{}).PurgeExpired(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("purged = %d, want 3", n)
	}
	if want := testNow.Add(-usecase.DefaultTokenTTL); !gotCutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", gotCutoff, want)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"account_service/internal/app/dto"
	"account_service/internal/common"
	"account_service/internal/common/security"
	"account_service/internal/domain/model"
	"account_service/internal/domain/repository"
	"account_service/internal/platform/logging"
	"account_service/internal/platform/metrics"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memRepo is an in-memory AccountRepository. WithinTx restores the previous state
// when fn fails. Update fails unless the row was read through a locking finder.
type memRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]model.Account
	locked   map[uuid.UUID]bool
	failWith error
}

func newMemRepo() *memRepo {
	return &memRepo{accounts: map[uuid.UUID]model.Account{}, locked: map[uuid.UUID]bool{}}
}

func (r *memRepo) find(match func(a *model.Account) bool) (*model.Account, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, a := range r.accounts {
		if match(&a) {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memRepo) FindByEmail(_ context.Context, email string) (*model.Account, error) {
	return r.find(func(a *model.Account) bool { return a.Email == email })
}

func (r *memRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	return r.find(func(a *model.Account) bool { return a.ID == id })
}

func (r *memRepo) lock(a *model.Account, err error) (*model.Account, error) {
	if a != nil {
		r.locked[a.ID] = true
	}
	return a, err
}

func (r *memRepo) FindByEmailForUpdate(ctx context.Context, email string) (*model.Account, error) {
	return r.lock(r.FindByEmail(ctx, email))
}

func (r *memRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	return r.lock(r.FindByID(ctx, id))
}

func (r *memRepo) FindByVerificationToken(_ context.Context, token string) (*model.Account, error) {
	return r.lock(r.find(func(a *model.Account) bool { return a.VerificationToken != nil && *a.VerificationToken == token }))
}

func (r *memRepo) FindByResetToken(_ context.Context, token string) (*model.Account, error) {
	return r.lock(r.find(func(a *model.Account) bool { return a.ResetToken != nil && *a.ResetToken == token }))
}

func (r *memRepo) Insert(_ context.Context, a *model.Account) (*model.Account, error) {
	for _, existing := range r.accounts {
		if existing.Email == a.Email {
			return nil, common.ErrEmailExist
		}
	}
	stored := *a
	now := time.Now().UTC()
	stored.CreatedAt, stored.UpdatedAt = now, now
	r.accounts[a.ID] = stored
	return &stored, nil
}

func (r *memRepo) Update(_ context.Context, a *model.Account) (*model.Account, error) {
	if _, ok := r.accounts[a.ID]; !ok {
		return nil, common.ErrUserNoLongerExist
	}
	if !r.locked[a.ID] {
		return nil, fmt.Errorf("update of %s without a locking read", a.ID)
	}
	stored := *a
	r.accounts[a.ID] = stored
	return &stored, nil
}

func (r *memRepo) List(_ context.Context, offset, limit int) ([]*model.Account, error) {
	all := make([]*model.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		a := a
		all = append(all, &a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	if offset >= len(all) {
		return []*model.Account{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memRepo) Count(context.Context) (int64, error) {
	return int64(len(r.accounts)), nil
}

func (r *memRepo) WithinTx(ctx context.Context, fn func(repo repository.AccountRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[uuid.UUID]model.Account, len(r.accounts))
	for id, a := range r.accounts {
		snapshot[id] = a
	}
	defer clear(r.locked)
	if err := fn(r); err != nil {
		r.accounts = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		r.accounts = snapshot
		return err
	}
	return nil
}

type recordingNotifier struct {
	mails []Mail
	err   error
}

func (n *recordingNotifier) Enqueue(_ context.Context, mail Mail) error {
	if n.err != nil {
		return n.err
	}
	n.mails = append(n.mails, mail)
	return nil
}

func (n *recordingNotifier) last(t *testing.T) Mail {
	t.Helper()
	require.NotEmpty(t, n.mails)
	return n.mails[len(n.mails)-1]
}

type fixture struct {
	svc      *AccountService
	repo     *memRepo
	notifier *recordingNotifier
	metrics  *metrics.Metrics
	now      time.Time
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func newFixture(t *testing.T, mutate ...func(*Policy)) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newMemRepo(),
		notifier: &recordingNotifier{},
		metrics:  metrics.New(),
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	policy := DefaultPolicy()
	for _, m := range mutate {
		m(&policy)
	}
	clock := func() time.Time { return f.now }
	codec := security.NewSessionCodec([]byte("test-secret"), time.Hour).WithClock(clock)
	f.svc = NewAccountService(f.repo, security.NewHasher(bcrypt.MinCost), codec, f.notifier, policy, logging.Discard(), f.metrics).
		WithClock(clock)
	return f
}

var ann = dto.RegisterUserDto{Name: "Ann", Email: "ann@x.com", Password: "secret1", PasswordConfirm: "secret1"}

func TestAccountService_AnnLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Register(ctx, ann)
	require.NoError(t, err)
	assert.False(t, created.Verified)
	assert.Equal(t, model.RoleUser, created.Role)
	assert.Empty(t, created.PasswordHash)
	stored := f.repo.accounts[created.ID]
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	require.NotNil(t, created.VerificationToken)
	require.NotNil(t, created.VerificationTokenExpiresAt)
	assert.Equal(t, f.now.Add(24*time.Hour), *created.VerificationTokenExpiresAt)

	mail := f.notifier.last(t)
	assert.Equal(t, MailVerification, mail.Kind)
	assert.Equal(t, "ann@x.com", mail.To)
	assert.Equal(t, *created.VerificationToken, mail.Token)
	assert.Equal(t, "http://localhost:8000/api/auth/verify?token="+mail.Token, mail.URL)

	verified, err := f.svc.VerifyEmail(ctx, *created.VerificationToken)
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	assert.Empty(t, verified.PasswordHash)
	assert.Nil(t, verified.VerificationToken)
	assert.Nil(t, verified.VerificationTokenExpiresAt)

	token, err := f.svc.Login(ctx, dto.LoginUserDto{Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = f.svc.Login(ctx, dto.LoginUserDto{Email: "ann@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, common.ErrWrongCredentials)

	account, err := f.svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, account.ID)
	assert.Empty(t, account.PasswordHash)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Registrations.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Logins.WithLabelValues(metrics.OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.MailEnqueued.WithLabelValues(string(MailVerification))))
}

func TestAccountService_RegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Register(ctx, ann)
	require.NoError(t, err)
	firstHash := f.repo.accounts[first.ID].PasswordHash

	_, err = f.svc.Register(ctx, dto.RegisterUserDto{Name: "Other", Email: "ann@x.com", Password: "another1", PasswordConfirm: "another1"})
	assert.ErrorIs(t, err, common.ErrEmailExist)

	stored, err := f.repo.FindByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, first.Name, stored.Name)
	assert.Equal(t, firstHash, stored.PasswordHash)
	assert.Len(t, f.notifier.mails, 1)
}

func TestAccountService_RegisterStorageFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.failWith = errors.New("connection reset")

	_, err := f.svc.Register(context.Background(), ann)
	require.Error(t, err)
	assert.Equal(t, common.KindServerError, common.AsAppError(err).Kind)
	assert.Empty(t, f.notifier.mails)
}

func TestAccountService_RegisterSurvivesNotifierFailure(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("redis down")

	created, err := f.svc.Register(context.Background(), ann)
	require.NoError(t, err)
	assert.NotNil(t, created)
}

func TestAccountService_VerifyEmailIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Register(ctx, ann)
	require.NoError(t, err)
	token := *created.VerificationToken

	_, err = f.svc.VerifyEmail(ctx, token)
	require.NoError(t, err)

	_, err = f.svc.VerifyEmail(ctx, token)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestAccountService_VerifyEmailRejects(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown token", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.VerifyEmail(ctx, "deadbeef")
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	})

	t.Run("empty token", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.VerifyEmail(ctx, "")
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	})

	t.Run("zero ttl", func(t *testing.T) {
		f := newFixture(t, func(p *Policy) { p.VerificationTokenTTL = 0 })
		created, err := f.svc.Register(ctx, ann)
		require.NoError(t, err)

		_, err = f.svc.VerifyEmail(ctx, *created.VerificationToken)
		assert.ErrorIs(t, err, common.ErrInvalidToken)

		stored, _ := f.repo.FindByID(ctx, created.ID)
		assert.False(t, stored.Verified)
	})

	t.Run("expired", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.svc.Register(ctx, ann)
		require.NoError(t, err)

		f.advance(24 * time.Hour)
		_, err = f.svc.VerifyEmail(ctx, *created.VerificationToken)
		assert.ErrorIs(t, err, common.ErrInvalidToken)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.TokenChecks.WithLabelValues(metrics.PurposeVerification, metrics.OutcomeFailure)))
	})
}

func TestAccountService_LoginFailuresAreIdentical(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, ann)
	require.NoError(t, err)

	_, wrongPassword := f.svc.Login(ctx, dto.LoginUserDto{Email: "ann@x.com", Password: "wrong-password"})
	_, unknownEmail := f.svc.Login(ctx, dto.LoginUserDto{Email: "nobody@x.com", Password: "wrong-password"})

	require.ErrorIs(t, wrongPassword, common.ErrWrongCredentials)
	require.ErrorIs(t, unknownEmail, common.ErrWrongCredentials)
	assert.Equal(t, common.AsAppError(wrongPassword).Error(), common.AsAppError(unknownEmail).Error())
	assert.Equal(t, common.HTTPStatusFromError(wrongPassword), common.HTTPStatusFromError(unknownEmail))
}

func TestAccountService_LoginRequiresVerificationWhenConfigured(t *testing.T) {
	f := newFixture(t, func(p *Policy) { p.RequireVerifiedLogin = true })
	ctx := context.Background()
	creds := dto.LoginUserDto{Email: "ann@x.com", Password: "secret1"}

	created, err := f.svc.Register(ctx, ann)
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, creds)
	assert.ErrorIs(t, err, common.ErrWrongCredentials)

	_, err = f.svc.VerifyEmail(ctx, *created.VerificationToken)
	require.NoError(t, err)

	token, err := f.svc.Login(ctx, creds)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestAccountService_Authenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Register(ctx, ann)
	require.NoError(t, err)
	token, err := f.svc.Login(ctx, dto.LoginUserDto{Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = f.svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, common.ErrTokenNotProvided)

	_, err = f.svc.Authenticate(ctx, token+"x")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	f.advance(time.Hour)
	_, err = f.svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	f.now = f.now.Add(-time.Hour)
	delete(f.repo.accounts, created.ID)
	_, err = f.svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, common.ErrUserNoLongerExist)
}

func seedAccount(t *testing.T, f *fixture, name, email string, role model.Role) *model.Account {
	t.Helper()
	created, err := f.svc.Register(context.Background(), dto.RegisterUserDto{
		Name: name, Email: email, Password: "secret1", PasswordConfirm: "secret1",
	})
	require.NoError(t, err)
	stored := f.repo.accounts[created.ID]
	stored.Role = role
	f.repo.accounts[created.ID] = stored
	return &stored
}

func TestAccountService_UpdateName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := seedAccount(t, f, "Root", "root@x.com", model.RoleAdmin)
	user := seedAccount(t, f, "Ann", "ann@x.com", model.RoleUser)
	other := seedAccount(t, f, "Bob", "bob@x.com", model.RoleUser)

	f.advance(time.Minute)
	renamed, err := f.svc.UpdateName(ctx, user, user.ID, dto.NameUpdateDto{Name: "Annie"})
	require.NoError(t, err)
	assert.Equal(t, "Annie", renamed.Name)
	assert.Equal(t, f.now, renamed.UpdatedAt)
	assert.Empty(t, renamed.PasswordHash)
	assert.NotEmpty(t, f.repo.accounts[user.ID].PasswordHash)

	_, err = f.svc.UpdateName(ctx, user, other.ID, dto.NameUpdateDto{Name: "Robert"})
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	renamed, err = f.svc.UpdateName(ctx, admin, other.ID, dto.NameUpdateDto{Name: "Robert"})
	require.NoError(t, err)
	assert.Equal(t, "Robert", renamed.Name)

	_, err = f.svc.UpdateName(ctx, admin, uuid.New(), dto.NameUpdateDto{Name: "Ghost"})
	assert.ErrorIs(t, err, common.ErrUserNoLongerExist)
}

func TestAccountService_UpdateRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := seedAccount(t, f, "Root", "root@x.com", model.RoleAdmin)
	user := seedAccount(t, f, "Ann", "ann@x.com", model.RoleUser)

	_, err := f.svc.UpdateRole(ctx, user, user.ID, dto.RoleUpdateDto{Role: "admin"})
	assert.ErrorIs(t, err, common.ErrPermissionDenied)
	assert.Equal(t, model.RoleUser, f.repo.accounts[user.ID].Role)

	promoted, err := f.svc.UpdateRole(ctx, admin, user.ID, dto.RoleUpdateDto{Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, promoted.Role)
	assert.Empty(t, promoted.PasswordHash)

	_, err = f.svc.UpdateRole(ctx, admin, user.ID, dto.RoleUpdateDto{Role: "superuser"})
	var vErr *common.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "invalid role", vErr.Fields["role"])
}

func TestAccountService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := seedAccount(t, f, "Ann", "ann@x.com", model.RoleUser)

	err := f.svc.ChangePassword(ctx, user, dto.UserPasswordUpdateDto{
		OldPassword: "not-it", NewPassword: "newpass1", NewPasswordConfirm: "newpass1",
	})
	assert.ErrorIs(t, err, common.ErrWrongCredentials)

	err = f.svc.ChangePassword(ctx, user, dto.UserPasswordUpdateDto{
		OldPassword: "secret1", NewPassword: "newpass1", NewPasswordConfirm: "newpass1",
	})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, dto.LoginUserDto{Email: "ann@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, common.ErrWrongCredentials)
	_, err = f.svc.Login(ctx, dto.LoginUserDto{Email: "ann@x.com", Password: "newpass1"})
	assert.NoError(t, err)
}

func TestAccountService_ForgotAndResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, ann)
	require.NoError(t, err)

	require.NoError(t, f.svc.ForgotPassword(ctx, dto.ForgotPasswordRequestDto{Email: "ann@x.com"}))
	mail := f.notifier.last(t)
	assert.Equal(t, MailPasswordReset, mail.Kind)
	assert.Contains(t, mail.URL, "/api/auth/reset-password?token=")

	reset := dto.ResetPasswordRequestDto{Token: mail.Token, NewPassword: "newpass1", NewPasswordConfirm: "newpass1"}
	require.NoError(t, f.svc.ResetPassword(ctx, reset))

	_, err = f.svc.Login(ctx, dto.LoginUserDto{Email: "ann@x.com", Password: "newpass1"})
	assert.NoError(t, err)

	err = f.svc.ResetPassword(ctx, reset)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	stored, _ := f.repo.FindByEmail(ctx, "ann@x.com")
	assert.Nil(t, stored.ResetToken)
	assert.Nil(t, stored.ResetTokenExpiresAt)
}

func TestAccountService_ForgotPasswordUnknownEmail(t *testing.T) {
	f := newFixture(t)

	err := f.svc.ForgotPassword(context.Background(), dto.ForgotPasswordRequestDto{Email: "nobody@x.com"})
	assert.NoError(t, err)
	assert.Empty(t, f.notifier.mails)
}

func TestAccountService_ResetPasswordExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, ann)
	require.NoError(t, err)
	require.NoError(t, f.svc.ForgotPassword(ctx, dto.ForgotPasswordRequestDto{Email: "ann@x.com"}))
	token := f.notifier.last(t).Token

	f.advance(time.Hour)
	err = f.svc.ResetPassword(ctx, dto.ResetPasswordRequestDto{Token: token, NewPassword: "newpass1", NewPasswordConfirm: "newpass1"})
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = f.svc.Login(ctx, dto.LoginUserDto{Email: "ann@x.com", Password: "secret1"})
	assert.NoError(t, err)
}

func TestAccountService_CancelledContextCommitsNothing(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Register(ctx, ann)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.repo.accounts)
}

func TestAccountService_ListAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		seedAccount(t, f, "N", email, model.RoleUser)
	}

	page, limit := 2, 2
	accounts, total, err := f.svc.ListAccounts(ctx, dto.RequestQueryDto{Page: &page, Limit: &limit})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, accounts, 1)
	assert.Equal(t, "c@x.com", accounts[0].Email)

	accounts, _, err = f.svc.ListAccounts(ctx, dto.RequestQueryDto{})
	require.NoError(t, err)
	assert.Len(t, accounts, 3)
	for _, a := range accounts {
		assert.Empty(t, a.PasswordHash)
	}

	far := 1 << 62
	accounts, total, err = f.svc.ListAccounts(ctx, dto.RequestQueryDto{Page: &far, Limit: &limit})
	require.NoError(t, err)
	assert.Empty(t, accounts)
	assert.Equal(t, int64(3), total)
}

func TestAccountService_PreparesDummyHashUpFront(t *testing.T) {
	f := newFixture(t)
	require.NotEmpty(t, f.svc.dummyHash)

	ok, err := f.svc.hasher.Verify(dummyPassword, f.svc.dummyHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAccountService_LocksRowBeforeWriting(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id := uuid.New()
	row := func() *pgxmock.Rows {
		return pgxmock.NewRows([]string{
			"id", "name", "email", "password", "role", "verified",
			"verification_token", "token_expires_at", "reset_token", "reset_token_expires_at",
			"created_at", "updated_at",
		}).AddRow(id, "Ann", "ann@x.com", "$2a$10$hash", "user", true, nil, nil, nil, nil, now, now)
	}
	newService := func(t *testing.T) (pgxmock.PgxPoolIface, *AccountService) {
		t.Helper()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		t.Cleanup(mock.Close)
		codec := security.NewSessionCodec([]byte("test-secret"), time.Hour)
		svc := NewAccountService(repository.NewPgAccountRepository(mock), security.NewHasher(bcrypt.MinCost),
			codec, &recordingNotifier{}, DefaultPolicy(), logging.Discard(), nil).
			WithClock(func() time.Time { return now })
		return mock, svc
	}
	updateArgs := make([]any, 11)
	for i := range updateArgs {
		updateArgs[i] = pgxmock.AnyArg()
	}

	t.Run("update name", func(t *testing.T) {
		mock, svc := newService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1 FOR UPDATE$`).
			WithArgs(id).
			WillReturnRows(row())
		mock.ExpectQuery(`UPDATE users SET`).
			WithArgs(updateArgs...).
			WillReturnRows(row())
		mock.ExpectCommit()
		mock.ExpectRollback()

		actor := &model.Account{ID: id, Role: model.RoleUser}
		_, err := svc.UpdateName(context.Background(), actor, id, dto.NameUpdateDto{Name: "Annie"})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("forgot password", func(t *testing.T) {
		mock, svc := newService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1 FOR UPDATE$`).
			WithArgs("ann@x.com").
			WillReturnRows(row())
		mock.ExpectQuery(`UPDATE users SET`).
			WithArgs(updateArgs...).
			WillReturnRows(row())
		mock.ExpectCommit()
		mock.ExpectRollback()

		err := svc.ForgotPassword(context.Background(), dto.ForgotPasswordRequestDto{Email: "ann@x.com"})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

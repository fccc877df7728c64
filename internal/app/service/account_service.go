package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"account_service/internal/app/dto"
	"account_service/internal/common"
	"account_service/internal/common/security"
	"account_service/internal/domain/model"
	"account_service/internal/domain/repository"
	"account_service/internal/platform/metrics"

	"github.com/google/uuid"
)

// Policy holds the deployment knobs of the account lifecycle.
type Policy struct {
	// RequireVerifiedLogin rejects logins of accounts whose email is not verified yet.
	RequireVerifiedLogin bool
	VerificationTokenTTL time.Duration
	ResetTokenTTL        time.Duration
	// BaseURL prefixes the links placed in verification and reset mails.
	BaseURL string
}

func DefaultPolicy() Policy {
	return Policy{
		VerificationTokenTTL: 24 * time.Hour,
		ResetTokenTTL:        time.Hour,
		BaseURL:              "http://localhost:8000",
	}
}

// dummyPassword is hashed at construction and verified against when a login names an
// unknown email, so both failure paths pay for one bcrypt comparison.
const dummyPassword = "account-service-dummy-password"

// AccountService drives the account lifecycle. Request DTOs are expected to have
// passed dto.Check at the boundary. Returned accounts never carry the password hash.
type AccountService struct {
	repo     repository.AccountRepository
	hasher   *security.Hasher
	codec    *security.SessionCodec
	notifier Notifier
	policy   Policy
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	dummyHash string
}

func NewAccountService(
	repo repository.AccountRepository,
	hasher *security.Hasher,
	codec *security.SessionCodec,
	notifier Notifier,
	policy Policy,
	logger *slog.Logger,
	m *metrics.Metrics,
) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		logger.Error("failed to prepare dummy password hash", "error", err)
	}
	return &AccountService{
		repo:      repo,
		hasher:    hasher,
		codec:     codec,
		notifier:  notifier,
		policy:    policy,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
		dummyHash: dummyHash,
	}
}

// WithClock replaces the time source used for token expiry and timestamps.
func (s *AccountService) WithClock(now func() time.Time) *AccountService {
	if now != nil {
		s.now = now
	}
	return s
}

// SessionMaxAge is the lifetime of the tokens returned by Login.
func (s *AccountService) SessionMaxAge() time.Duration { return s.codec.MaxAge() }

func (s *AccountService) clock() time.Time { return s.now().UTC() }

// Register creates an unverified account and queues its verification mail.
func (s *AccountService) Register(ctx context.Context, req dto.RegisterUserDto) (*model.Account, error) {
	var created *model.Account
	err := s.repo.WithinTx(ctx, func(repo repository.AccountRepository) error {
		existing, err := repo.FindByEmail(ctx, req.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return common.ErrEmailExist
		}

		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return err
		}

		now := s.clock()
		token, expiresAt, err := security.MintToken(s.policy.VerificationTokenTTL, now)
		if err != nil {
			return err
		}

		account := &model.Account{
			ID:           uuid.New(),
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: hash,
			Role:         model.RoleUser,
		}
		account.SetVerificationToken(token, expiresAt)

		created, err = repo.Insert(ctx, account)
		return err
	})
	s.metrics.ObserveRegistration(err == nil)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.logger.InfoContext(ctx, "account registered", "account_id", created.ID)
	if created.VerificationToken != nil {
		s.sendMail(ctx, Mail{
			Kind:  MailVerification,
			To:    created.Email,
			Name:  created.Name,
			Token: *created.VerificationToken,
			URL:   s.link("/api/auth/verify", *created.VerificationToken),
		})
	}
	created.PasswordHash = ""
	return created, nil
}

// VerifyEmail consumes a verification token and marks its account verified.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) (*model.Account, error) {
	var verified *model.Account
	err := s.repo.WithinTx(ctx, func(repo repository.AccountRepository) error {
		account, err := repo.FindByVerificationToken(ctx, token)
		if err != nil {
			return err
		}
		if account == nil {
			return common.ErrInvalidToken
		}

		now := s.clock()
		if err := security.CheckToken(token, account.VerificationToken, account.VerificationTokenExpiresAt, now); err != nil {
			return err
		}
		account.MarkVerified(now)

		verified, err = repo.Update(ctx, account)
		return err
	})
	s.metrics.ObserveTokenCheck(metrics.PurposeVerification, err == nil)
	if err != nil {
		return nil, fmt.Errorf("verify email: %w", err)
	}

	s.logger.InfoContext(ctx, "email verified", "account_id", verified.ID)
	verified.PasswordHash = ""
	return verified, nil
}

// Login checks the credentials and issues a session token. Unknown email and wrong
// password fail with the same error.
func (s *AccountService) Login(ctx context.Context, req dto.LoginUserDto) (string, error) {
	token, err := s.login(ctx, req)
	s.metrics.ObserveLogin(err == nil)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	return token, nil
}

func (s *AccountService) login(ctx context.Context, req dto.LoginUserDto) (string, error) {
	account, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return "", err
	}

	if account == nil {
		// Result ignored: the comparison only pays the same cost as a real one.
		_, _ = s.hasher.Verify(req.Password, s.dummyHash)
		return "", common.ErrWrongCredentials
	}

	ok, err := s.hasher.Verify(req.Password, account.PasswordHash)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", common.ErrWrongCredentials
	}
	if s.policy.RequireVerifiedLogin && !account.Verified {
		return "", common.ErrWrongCredentials
	}

	token, err := s.codec.Issue(account.ID, account.Role)
	if err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "account logged in", "account_id", account.ID)
	return token, nil
}

// Authenticate resolves a session token to the account it names.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*model.Account, error) {
	if token == "" {
		return nil, common.ErrTokenNotProvided
	}

	principal, err := s.codec.Verify(token)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.FindByID(ctx, principal.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, common.ErrUserNoLongerExist
	}
	account.PasswordHash = ""
	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return nil, common.ErrUserNoLongerExist
	}
	account.PasswordHash = ""
	return account, nil
}

// ListAccounts returns one page of accounts, newest first, with the total count.
func (s *AccountService) ListAccounts(ctx context.Context, q dto.RequestQueryDto) ([]*model.Account, int64, error) {
	accounts, err := s.repo.List(ctx, q.Offset(), q.LimitOrDefault())
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}
	for _, a := range accounts {
		a.PasswordHash = ""
	}
	return accounts, total, nil
}

// UpdateName renames target. Accounts may rename themselves; admins may rename anyone.
func (s *AccountService) UpdateName(ctx context.Context, actor *model.Account, targetID uuid.UUID, req dto.NameUpdateDto) (*model.Account, error) {
	if actor == nil {
		return nil, common.ErrUserNotAuthenticated
	}
	if actor.ID != targetID && actor.Role != model.RoleAdmin {
		return nil, common.ErrPermissionDenied
	}

	updated, err := s.mutate(ctx, targetID, func(account *model.Account, now time.Time) error {
		account.Name = req.Name
		account.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update name: %w", err)
	}
	updated.PasswordHash = ""
	return updated, nil
}

// UpdateRole changes the role of target. Only admins may do so.
func (s *AccountService) UpdateRole(ctx context.Context, actor *model.Account, targetID uuid.UUID, req dto.RoleUpdateDto) (*model.Account, error) {
	if actor == nil {
		return nil, common.ErrUserNotAuthenticated
	}
	if actor.Role != model.RoleAdmin {
		return nil, common.ErrPermissionDenied
	}

	role, err := model.ParseRole(req.Role)
	if err != nil {
		return nil, &common.ValidationError{Fields: map[string]string{"role": "invalid role"}}
	}
	updated, err := s.mutate(ctx, targetID, func(account *model.Account, now time.Time) error {
		account.Role = role
		account.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	s.logger.InfoContext(ctx, "role updated", "account_id", updated.ID, "role", role.String(), "actor_id", actor.ID)
	updated.PasswordHash = ""
	return updated, nil
}

// ChangePassword replaces the password of actor after checking the old one.
func (s *AccountService) ChangePassword(ctx context.Context, actor *model.Account, req dto.UserPasswordUpdateDto) error {
	if actor == nil {
		return common.ErrUserNotAuthenticated
	}

	_, err := s.mutate(ctx, actor.ID, func(account *model.Account, now time.Time) error {
		ok, err := s.hasher.Verify(req.OldPassword, account.PasswordHash)
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrWrongCredentials
		}

		hash, err := s.hasher.Hash(req.NewPassword)
		if err != nil {
			return err
		}
		account.ReplacePassword(hash, now)
		return nil
	})
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed", "account_id", actor.ID)
	return nil
}

// ForgotPassword mints a reset token for email and queues the reset mail. The caller
// sees the same result whether or not the email is registered.
func (s *AccountService) ForgotPassword(ctx context.Context, req dto.ForgotPasswordRequestDto) error {
	var (
		mail  *Mail
		found bool
	)
	err := s.repo.WithinTx(ctx, func(repo repository.AccountRepository) error {
		account, err := repo.FindByEmailForUpdate(ctx, req.Email)
		if err != nil {
			return err
		}
		if account == nil {
			return nil
		}
		found = true

		now := s.clock()
		token, expiresAt, err := security.MintToken(s.policy.ResetTokenTTL, now)
		if err != nil {
			return err
		}
		account.SetResetToken(token, expiresAt)
		account.UpdatedAt = now

		if _, err := repo.Update(ctx, account); err != nil {
			return err
		}
		mail = &Mail{
			Kind:  MailPasswordReset,
			To:    account.Email,
			Name:  account.Name,
			Token: token,
			URL:   s.link("/api/auth/reset-password", token),
		}
		return nil
	})
	if err != nil {
		if found {
			// Failing only for registered emails would reveal which emails exist.
			s.logger.ErrorContext(ctx, "failed to store reset token", "error", err)
			return nil
		}
		return fmt.Errorf("forgot password: %w", err)
	}

	if mail != nil {
		s.sendMail(ctx, *mail)
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the password of its account.
func (s *AccountService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequestDto) error {
	var accountID uuid.UUID
	err := s.repo.WithinTx(ctx, func(repo repository.AccountRepository) error {
		account, err := repo.FindByResetToken(ctx, req.Token)
		if err != nil {
			return err
		}
		if account == nil {
			return common.ErrInvalidToken
		}

		now := s.clock()
		if err := security.CheckToken(req.Token, account.ResetToken, account.ResetTokenExpiresAt, now); err != nil {
			return err
		}

		hash, err := s.hasher.Hash(req.NewPassword)
		if err != nil {
			return err
		}
		account.ReplacePassword(hash, now)

		if _, err := repo.Update(ctx, account); err != nil {
			return err
		}
		accountID = account.ID
		return nil
	})
	s.metrics.ObserveTokenCheck(metrics.PurposeReset, err == nil)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	s.logger.InfoContext(ctx, "password reset", "account_id", accountID)
	return nil
}

// mutate locks id, applies fn and stores the result in one transaction.
func (s *AccountService) mutate(ctx context.Context, id uuid.UUID, fn func(account *model.Account, now time.Time) error) (*model.Account, error) {
	var updated *model.Account
	err := s.repo.WithinTx(ctx, func(repo repository.AccountRepository) error {
		account, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if account == nil {
			return common.ErrUserNoLongerExist
		}
		if err := fn(account, s.clock()); err != nil {
			return err
		}
		updated, err = repo.Update(ctx, account)
		return err
	})
	return updated, err
}

// sendMail enqueues mail outside of any transaction. Failures are logged, never returned.
func (s *AccountService) sendMail(ctx context.Context, mail Mail) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Enqueue(ctx, mail); err != nil {
		s.logger.ErrorContext(ctx, "failed to enqueue mail", "kind", mail.Kind, "error", err)
		return
	}
	s.metrics.ObserveMailEnqueued(string(mail.Kind))
}

func (s *AccountService) link(path, token string) string {
	return strings.TrimRight(s.policy.BaseURL, "/") + path + "?token=" + url.QueryEscape(token)
}

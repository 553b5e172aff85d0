package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/config"
	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/events"
	"github.com/spec-kit/user-service/internal/identity"
	"github.com/spec-kit/user-service/internal/repository"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// UserService runs the account commands. Every command follows one order:
// provider sync, relational persist, primary event, notification, activity.
// Failures before the persist abort the command; later failures are logged,
// except notification failures of flows that mail the user a secret.
type UserService struct {
	users           repository.UserRepository
	roles           repository.RoleRepository
	provider        IdentityProvider
	publisher       events.Publisher
	notifier        Notifier
	activities      *ActivityRecorder
	hasher          auth.Hasher
	logger          *zap.Logger
	now             func() time.Time
	confirmationTTL time.Duration
	recoveryTTL     time.Duration
}

// UserDependencies encapsulates collaborators of the user service.
type UserDependencies struct {
	UserRepo     repository.UserRepository
	RoleRepo     repository.RoleRepository
	ActivityRepo repository.ActivityRepository
	Provider     IdentityProvider
	Publisher    events.Publisher
	Notifier     Notifier
	Hasher       auth.Hasher
}

// NewUserService builds the service.
func NewUserService(cfg config.AuthConfig, deps UserDependencies, logger *zap.Logger) *UserService {
	return &UserService{
		users:           deps.UserRepo,
		roles:           deps.RoleRepo,
		provider:        deps.Provider,
		publisher:       deps.Publisher,
		notifier:        deps.Notifier,
		activities:      NewActivityRecorder(deps.ActivityRepo, deps.Publisher, logger),
		hasher:          deps.Hasher,
		logger:          logger,
		now:             time.Now,
		confirmationTTL: cfg.ConfirmationTTL(),
		recoveryTTL:     cfg.RecoveryTokenTTL(),
	}
}

// CreateUserInput is a validated registration request.
type CreateUserInput struct {
	Name     string
	LastName string
	Email    string
	Phone    string
	Address  string
	Password string
	RoleID   int
}

// UpdateProfileInput is a validated profile edit.
type UpdateProfileInput struct {
	ID       string
	Name     string
	LastName string
	Email    string
	Phone    string
	Address  string
}

// CreateUser registers the account with the provider, stores it and returns
// its id. A confirmation mail that cannot be sent is reported with the id.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (string, error) {
	role, err := s.roleByID(ctx, in.RoleID)
	if err != nil {
		return "", err
	}
	if err := s.ensureEmailFree(ctx, in.Email, ""); err != nil {
		return "", err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	user := domain.NewUser(domain.NewUserInput{
		Name:         in.Name,
		LastName:     in.LastName,
		Email:        in.Email,
		Phone:        in.Phone,
		Address:      in.Address,
		PasswordHash: hash,
		RoleID:       role.ID,
	}, s.now(), s.confirmationTTL)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	externalID, err := s.provider.CreateUser(ctx, identity.Account{
		Email:    user.Email,
		Name:     user.Name,
		LastName: user.LastName,
		Password: in.Password,
	})
	if err != nil {
		return "", apperrors.NewIdentityProviderError("create user", err)
	}
	if err := s.provider.AssignRole(ctx, externalID, role.Name); err != nil {
		return "", apperrors.NewIdentityProviderError("assign role", err)
	}
	user.ExternalID = externalID

	ctx = context.WithoutCancel(ctx)
	if err := s.users.Create(ctx, user); err != nil {
		return "", apperrors.NewPersistenceError("user", "create", err)
	}

	s.publish(ctx, user.ID, events.UserCreated{
		ID:           user.ID,
		Name:         user.Name,
		LastName:     user.LastName,
		Email:        user.Email,
		Phone:        user.Phone,
		Address:      user.Address,
		PasswordHash: user.PasswordHash,
		RoleID:       user.RoleID,
		Verified:     user.Verified,
	})

	var notifyErr error
	if err := s.notifier.SendConfirmation(ctx, user.Email, user.Name, user.ConfirmationCode); err != nil {
		s.logger.Error("confirmation mail failed", zap.String("user_id", user.ID), zap.Error(err))
		notifyErr = apperrors.NewNotificationError(err)
	}

	s.record(ctx, user.ID, domain.ActionUserRegistered)
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("external_id", externalID))
	return user.ID, notifyErr
}

// UpdateProfile replaces the contact fields. It reports false when the user
// does not exist.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (bool, error) {
	user, ok, err := s.loadByID(ctx, in.ID)
	if !ok || err != nil {
		return false, err
	}
	if err := s.ensureEmailFree(ctx, in.Email, user.ID); err != nil {
		return false, err
	}
	if err := requireExternal(user); err != nil {
		return false, err
	}

	user.UpdateProfile(in.Name, in.LastName, in.Email, in.Phone, in.Address)

	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := s.provider.UpdateUser(ctx, user.ExternalID, identity.Account{
		Email:    user.Email,
		Name:     user.Name,
		LastName: user.LastName,
	}); err != nil {
		return false, apperrors.NewIdentityProviderError("update user", err)
	}

	ctx = context.WithoutCancel(ctx)
	if err := s.users.Update(ctx, user); err != nil {
		return false, apperrors.NewPersistenceError("user", "update", err)
	}

	s.publish(ctx, user.ID, events.ProfileUpdated{
		ID:       user.ID,
		Name:     user.Name,
		LastName: user.LastName,
		Email:    user.Email,
		Phone:    user.Phone,
		Address:  user.Address,
	})
	s.record(ctx, user.ID, domain.ActionProfileUpdated)
	return true, nil
}

// ChangePassword checks the current password before anything else is touched.
func (s *UserService) ChangePassword(ctx context.Context, id, current, next string) (bool, error) {
	user, ok, err := s.loadByID(ctx, id)
	if !ok || err != nil {
		return false, err
	}
	if !s.hasher.Compare(user.PasswordHash, current) {
		return false, apperrors.NewInvalidCredentials("current password does not match")
	}
	if err := requireExternal(user); err != nil {
		return false, err
	}

	return passwordResult(s.replacePassword(ctx, user, next, domain.ActionPasswordChanged))
}

// ResetPassword sets a new password using a recovery token. Unknown or
// expired tokens report false. The token is consumed.
func (s *UserService) ResetPassword(ctx context.Context, token, next string) (bool, error) {
	user, ok, err := s.load(ctx, s.users.GetByRecoveryToken, token)
	if !ok || err != nil {
		return false, err
	}
	if !user.RecoveryTokenValid(s.now()) {
		return false, nil
	}
	if err := requireExternal(user); err != nil {
		return false, err
	}

	return passwordResult(s.replacePassword(ctx, user, next, domain.ActionPasswordReset))
}

// passwordResult keeps the success flag when only the notification failed.
func passwordResult(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	return errors.Is(err, apperrors.ErrNotification), err
}

func (s *UserService) replacePassword(ctx context.Context, user *domain.User, next string, action domain.ActionType) error {
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.SetPasswordHash(hash)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.provider.SetPassword(ctx, user.ExternalID, next); err != nil {
		return apperrors.NewIdentityProviderError("reset password", err)
	}

	ctx = context.WithoutCancel(ctx)
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.NewPersistenceError("user", "update", err)
	}

	s.publish(ctx, user.ID, events.PasswordChanged{ID: user.ID, PasswordHash: user.PasswordHash})

	var notifyErr error
	if err := s.notifier.SendPasswordChanged(ctx, user.Email, user.Name); err != nil {
		s.logger.Error("password change mail failed", zap.String("user_id", user.ID), zap.Error(err))
		notifyErr = apperrors.NewNotificationError(err)
	}

	s.record(ctx, user.ID, action)
	return notifyErr
}

// AssignRole gives the user exactly one role. Unknown roles fail before any
// side effect.
func (s *UserService) AssignRole(ctx context.Context, id string, roleID int) (bool, error) {
	user, ok, err := s.loadByID(ctx, id)
	if !ok || err != nil {
		return false, err
	}
	role, err := s.roleByID(ctx, roleID)
	if err != nil {
		return false, err
	}
	if err := requireExternal(user); err != nil {
		return false, err
	}

	user.AssignRole(role.ID)

	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := s.provider.AssignRole(ctx, user.ExternalID, role.Name); err != nil {
		return false, apperrors.NewIdentityProviderError("assign role", err)
	}

	ctx = context.WithoutCancel(ctx)
	if err := s.users.Update(ctx, user); err != nil {
		return false, apperrors.NewPersistenceError("user", "update", err)
	}

	s.publish(ctx, user.ID, events.RoleAssigned{ID: user.ID, RoleID: role.ID})
	s.activities.Record(ctx, user.ID, domain.ActionRoleAssigned, domain.RoleAssignedDetail(user.Email, role.Name))
	return true, nil
}

// ConfirmAccount verifies the account when code matches. A wrong or expired
// code reports false with no side effects.
func (s *UserService) ConfirmAccount(ctx context.Context, email, code string) (bool, error) {
	user, ok, err := s.load(ctx, s.users.GetByEmail, email)
	if !ok || err != nil {
		return false, err
	}
	if !user.CanConfirm(code, s.now()) {
		return false, nil
	}

	user.Verify()

	if err := ctx.Err(); err != nil {
		return false, err
	}
	ctx = context.WithoutCancel(ctx)
	if err := s.users.Update(ctx, user); err != nil {
		return false, apperrors.NewPersistenceError("user", "update", err)
	}

	s.publish(ctx, user.ID, events.UserConfirmed{ID: user.ID, Verified: user.Verified})
	s.record(ctx, user.ID, domain.ActionAccountConfirmed)
	return true, nil
}

// RequestRecovery issues a recovery token and mails it. Unknown emails
// report false.
func (s *UserService) RequestRecovery(ctx context.Context, email string) (bool, error) {
	user, ok, err := s.load(ctx, s.users.GetByEmail, email)
	if !ok || err != nil {
		return false, err
	}

	token := user.IssueRecoveryToken(s.now(), s.recoveryTTL)

	if err := ctx.Err(); err != nil {
		return false, err
	}
	ctx = context.WithoutCancel(ctx)
	if err := s.users.Update(ctx, user); err != nil {
		return false, apperrors.NewPersistenceError("user", "update", err)
	}

	var notifyErr error
	if err := s.notifier.SendRecoveryToken(ctx, user.Email, user.Name, token); err != nil {
		s.logger.Error("recovery mail failed", zap.String("user_id", user.ID), zap.Error(err))
		notifyErr = apperrors.NewNotificationError(err)
	}

	s.record(ctx, user.ID, domain.ActionRecoveryRequest)
	return true, notifyErr
}

// loadByID reports ids that cannot be a stored key as missing, so the
// database never sees them.
func (s *UserService) loadByID(ctx context.Context, id string) (*domain.User, bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false, nil
	}
	return s.load(ctx, s.users.GetByID, id)
}

func (s *UserService) load(ctx context.Context, get func(context.Context, string) (*domain.User, error), key string) (*domain.User, bool, error) {
	user, err := get(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, apperrors.NewPersistenceError("user", "load", err)
	}
	return user, true, nil
}

func (s *UserService) roleByID(ctx context.Context, id int) (*domain.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"roleId": id})
		}
		return nil, apperrors.NewPersistenceError("role", "load", err)
	}
	return role, nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email, ownerID string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.NewPersistenceError("user", "load", err)
	}
	if existing.ID == ownerID {
		return nil
	}
	return apperrors.NewValidationError("email already registered", map[string]any{"email": email})
}

func requireExternal(user *domain.User) error {
	if !user.ExternallyAuthenticable() {
		return apperrors.NewValidationError("account is not registered with the identity provider", nil)
	}
	return nil
}

func (s *UserService) publish(ctx context.Context, userID string, ev events.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("event", ev.EventType()),
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

func (s *UserService) record(ctx context.Context, userID string, action domain.ActionType) {
	s.activities.Record(ctx, userID, action, domain.DefaultDetail(action))
}

package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emberline/stockroom/internal/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("users: user not found")
	ErrDuplicateName   = errors.New("users: name already taken")
	ErrInvalidName     = errors.New("users: name must not be blank")
	ErrInvalidPassword = errors.New("users: password must not be empty")
	ErrInvalidLevel    = errors.New("users: auth level must be positive")
	ErrSystemAccount   = errors.New("users: system account cannot be changed")

	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()
)

const (
	opServiceNew       = "users.service.new"
	opCreateUser       = "users.create"
	opChangeUsername   = "users.change_username"
	opSetUserPassword  = "users.set_password"
	opChangeAuthLevel  = "users.change_auth_level"
	opDeleteUser       = "users.delete"
	opListUsers        = "users.list"
	opValidateUser     = "users.validate"
	opLookupUser       = "users.lookup"
	opEnsureAccount    = "users.ensure_account"
	opFindAccountByKey = "users.find"
)

// ServiceError carries an operation.reason code around the underlying cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// ServiceConfig describes the dependencies of the account service.
type ServiceConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
	// HashCost is the bcrypt cost; zero selects bcrypt.DefaultCost.
	HashCost int
	Clock    func() time.Time
}

// Service manages stored accounts.
type Service struct {
	db       *gorm.DB
	logger   *zap.Logger
	hashCost int
	now      func() time.Time
}

// NewService constructs the account service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	cost := cfg.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{db: cfg.Database, logger: logger, hashCost: cost, now: clock}, nil
}

// CreateUser stores a new account. Level 0 is reserved for the system
// account and is rejected here.
func (s *Service) CreateUser(ctx context.Context, name, password string, level int) (auth.User, error) {
	name = normalize(name)
	if name == "" {
		return auth.User{}, newServiceError(opCreateUser, "invalid_name", ErrInvalidName)
	}
	if level <= SystemLevel {
		return auth.User{}, newServiceError(opCreateUser, "invalid_level", ErrInvalidLevel)
	}
	hash, err := s.hash(opCreateUser, password)
	if err != nil {
		return auth.User{}, err
	}

	account := Account{Name: name, NameKey: nameKey(name), PasswordHash: hash, AuthLevel: level}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := s.nameTaken(tx, account.NameKey, 0); err != nil {
			return err
		} else if taken {
			return newServiceError(opCreateUser, "duplicate_name", ErrDuplicateName)
		}
		if err := tx.Create(&account).Error; err != nil {
			s.logError(opCreateUser, "insert_failed", err, zap.String("name", name))
			return newServiceError(opCreateUser, "insert_failed", err)
		}
		return nil
	})
	if err != nil {
		return auth.User{}, err
	}
	s.logger.Info("user created", zap.Int64("user_id", account.ID), zap.Int("auth_level", level))
	return account.User(), nil
}

// ChangeUsername renames an account.
func (s *Service) ChangeUsername(ctx context.Context, userID int64, name string) error {
	name = normalize(name)
	if name == "" {
		return newServiceError(opChangeUsername, "invalid_name", ErrInvalidName)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := s.mutableAccount(tx, opChangeUsername, userID)
		if err != nil {
			return err
		}
		key := nameKey(name)
		if taken, err := s.nameTaken(tx, key, account.ID); err != nil {
			return err
		} else if taken {
			return newServiceError(opChangeUsername, "duplicate_name", ErrDuplicateName)
		}
		return s.update(tx, opChangeUsername, account.ID, map[string]interface{}{"name": name, "name_key": key})
	})
}

// SetUserPassword replaces an account's password.
func (s *Service) SetUserPassword(ctx context.Context, userID int64, password string) error {
	hash, err := s.hash(opSetUserPassword, password)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := s.mutableAccount(tx, opSetUserPassword, userID)
		if err != nil {
			return err
		}
		return s.update(tx, opSetUserPassword, account.ID, map[string]interface{}{"password_hash": hash})
	})
}

// ChangeAuthLevel moves an account to another level.
func (s *Service) ChangeAuthLevel(ctx context.Context, userID int64, level int) error {
	if level <= SystemLevel {
		return newServiceError(opChangeAuthLevel, "invalid_level", ErrInvalidLevel)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := s.mutableAccount(tx, opChangeAuthLevel, userID)
		if err != nil {
			return err
		}
		return s.update(tx, opChangeAuthLevel, account.ID, map[string]interface{}{"auth_level": level})
	})
}

// DeleteUser removes an account.
func (s *Service) DeleteUser(ctx context.Context, userID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := s.mutableAccount(tx, opDeleteUser, userID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&Account{}, account.ID).Error; err != nil {
			s.logError(opDeleteUser, "delete_failed", err, zap.Int64("user_id", account.ID))
			return newServiceError(opDeleteUser, "delete_failed", err)
		}
		return nil
	})
}

// Users lists every account except the system account, in id order.
func (s *Service) Users(ctx context.Context) ([]auth.User, error) {
	var accounts []Account
	err := s.db.WithContext(ctx).
		Where("auth_level > ?", SystemLevel).
		Order("user_id ASC").
		Find(&accounts).
		Error
	if err != nil {
		s.logError(opListUsers, "select_failed", err)
		return nil, newServiceError(opListUsers, "select_failed", err)
	}
	result := make([]auth.User, len(accounts))
	for i, account := range accounts {
		result[i] = account.User()
	}
	return result, nil
}

// LookupUser returns the stored account with userID. A missing account
// reports false without an error.
func (s *Service) LookupUser(ctx context.Context, userID int64) (auth.User, bool, error) {
	var account Account
	result := s.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&account)
	if result.Error != nil {
		s.logError(opLookupUser, "select_failed", result.Error, zap.Int64("user_id", userID))
		return auth.User{}, false, newServiceError(opLookupUser, "select_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return auth.User{}, false, nil
	}
	return account.User(), true, nil
}

// ValidateUser checks a name and password. An unknown name or a wrong
// password reports false without an error.
func (s *Service) ValidateUser(ctx context.Context, name, secret string) (auth.User, bool, error) {
	account, err := s.findByKey(s.db.WithContext(ctx), nameKey(name))
	if errors.Is(err, ErrUserNotFound) {
		return auth.User{}, false, nil
	}
	if err != nil {
		return auth.User{}, false, err
	}
	err = bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(secret))
	if err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.Warn("stored password hash unusable",
				zap.String("operation", opValidateUser),
				zap.Int64("user_id", account.ID),
				zap.Error(err))
		}
		return auth.User{}, false, nil
	}
	return account.User(), true, nil
}

// EnsureAccount creates the named account at level when no account with
// that name exists. It is used to seed the system account and the first
// administrator, so level 0 is allowed.
func (s *Service) EnsureAccount(ctx context.Context, name, password string, level int) (auth.User, bool, error) {
	name = normalize(name)
	if name == "" {
		return auth.User{}, false, newServiceError(opEnsureAccount, "invalid_name", ErrInvalidName)
	}
	if level < SystemLevel {
		return auth.User{}, false, newServiceError(opEnsureAccount, "invalid_level", ErrInvalidLevel)
	}
	existing, err := s.findByKey(s.db.WithContext(ctx), nameKey(name))
	if err == nil {
		return existing.User(), false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return auth.User{}, false, err
	}
	hash, err := s.hash(opEnsureAccount, password)
	if err != nil {
		return auth.User{}, false, err
	}
	account := Account{Name: name, NameKey: nameKey(name), PasswordHash: hash, AuthLevel: level}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		s.logError(opEnsureAccount, "insert_failed", err, zap.String("name", name))
		return auth.User{}, false, newServiceError(opEnsureAccount, "insert_failed", err)
	}
	return account.User(), true, nil
}

func (s *Service) hash(operation, password string) (string, error) {
	if password == "" {
		return "", newServiceError(operation, "invalid_password", ErrInvalidPassword)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", newServiceError(operation, "hash_failed", err)
	}
	return string(hash), nil
}

func (s *Service) findByKey(db *gorm.DB, key string) (Account, error) {
	var account Account
	err := db.Where("name_key = ?", key).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Account{}, ErrUserNotFound
	}
	if err != nil {
		s.logError(opFindAccountByKey, "select_failed", err)
		return Account{}, newServiceError(opFindAccountByKey, "select_failed", err)
	}
	return account, nil
}

func (s *Service) nameTaken(tx *gorm.DB, key string, exceptID int64) (bool, error) {
	var count int64
	err := tx.Model(&Account{}).
		Where("name_key = ? AND user_id <> ?", key, exceptID).
		Count(&count).
		Error
	if err != nil {
		s.logError(opFindAccountByKey, "count_failed", err)
		return false, newServiceError(opFindAccountByKey, "count_failed", err)
	}
	return count > 0, nil
}

// mutableAccount loads an account that user management may change.
func (s *Service) mutableAccount(tx *gorm.DB, operation string, userID int64) (Account, error) {
	var account Account
	err := tx.First(&account, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Account{}, newServiceError(operation, "not_found", ErrUserNotFound)
	}
	if err != nil {
		s.logError(operation, "select_failed", err, zap.Int64("user_id", userID))
		return Account{}, newServiceError(operation, "select_failed", err)
	}
	if account.AuthLevel == SystemLevel {
		return Account{}, newServiceError(operation, "system_account", ErrSystemAccount)
	}
	return account, nil
}

func (s *Service) update(tx *gorm.DB, operation string, userID int64, updates map[string]interface{}) error {
	updates["updated_at"] = s.now().UTC()
	if err := tx.Model(&Account{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
		s.logError(operation, "update_failed", err, zap.Int64("user_id", userID))
		return newServiceError(operation, "update_failed", err)
	}
	return nil
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("users service error", attrs...)
}

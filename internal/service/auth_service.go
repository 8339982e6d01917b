package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskdesk/internal/auth"
	apperrors "taskdesk/internal/errors"
	"taskdesk/internal/model"
	"taskdesk/internal/repository"
)

const (
	usernameMinLength = 3
	usernameMaxLength = 50
	fullNameMaxLength = 100

	// PasswordMaxBytes is the longest password bcrypt will hash.
	PasswordMaxBytes = 72
)

// AuthOptions tunes password handling.
type AuthOptions struct {
	BcryptCost        int
	PasswordMinLength int
}

// DefaultAuthOptions matches the production defaults.
var DefaultAuthOptions = AuthOptions{BcryptCost: bcrypt.DefaultCost, PasswordMinLength: 6}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName *string
}

// AuthService handles account and credential operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.Account, error)
	Authenticate(ctx context.Context, username, password string) (*model.Account, error)
	Login(ctx context.Context, username, password string) (accessToken string, expiresIn time.Duration, account *model.Account, err error)
	Resolve(ctx context.Context, token string) (*model.Account, error)
	GetAccount(ctx context.Context, id uint) (*model.Account, error)
}

type authService struct {
	accountRepo repository.AccountRepository
	jwtService  *auth.JWTService
	opts        AuthOptions
	dummyHash   []byte
}

// NewAuthService creates a new authentication service.
func NewAuthService(accountRepo repository.AccountRepository, jwtService *auth.JWTService, opts AuthOptions) AuthService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = DefaultAuthOptions.BcryptCost
	}
	if opts.PasswordMinLength == 0 {
		opts.PasswordMinLength = DefaultAuthOptions.PasswordMinLength
	}
	// Compared against when the username is unknown so both paths cost one bcrypt check.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("taskdesk-timing-equalizer"), opts.BcryptCost)
	return &authService{
		accountRepo: accountRepo,
		jwtService:  jwtService,
		opts:        opts,
		dummyHash:   dummy,
	}
}

// NormalizeUsername lowercases and trims a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (s *authService) validateRegistration(in *RegisterInput) error {
	var details []string

	in.Username = NormalizeUsername(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	switch n := utf8.RuneCountInString(in.Username); {
	case n == 0:
		details = append(details, "username: is required")
	case n < usernameMinLength || n > usernameMaxLength:
		details = append(details, fmt.Sprintf("username: must be between %d and %d characters", usernameMinLength, usernameMaxLength))
	case !IsAlphanumeric(in.Username):
		details = append(details, "username: may only contain letters and digits")
	}

	if in.Email == "" {
		details = append(details, "email: is required")
	} else if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		details = append(details, "email: must be a valid address")
	}

	if in.Password == "" {
		details = append(details, "password: is required")
	} else if utf8.RuneCountInString(in.Password) < s.opts.PasswordMinLength {
		details = append(details, fmt.Sprintf("password: must be at least %d characters", s.opts.PasswordMinLength))
	} else if len(in.Password) > PasswordMaxBytes {
		details = append(details, fmt.Sprintf("password: must be at most %d bytes", PasswordMaxBytes))
	}

	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if utf8.RuneCountInString(name) > fullNameMaxLength {
			details = append(details, fmt.Sprintf("full_name: must be at most %d characters", fullNameMaxLength))
		}
		if name == "" {
			in.FullName = nil
		} else {
			in.FullName = &name
		}
	}

	if len(details) > 0 {
		return apperrors.Validation("invalid registration", details...)
	}
	return nil
}

// IsAlphanumeric reports whether s holds only Unicode letters and numbers.
func IsAlphanumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}

// Register creates a new account with hashed password.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.Account, error) {
	if err := s.validateRegistration(&in); err != nil {
		return nil, err
	}

	// Check if account already exists
	exists, err := s.accountRepo.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return nil, apperrors.Internal("check account existence", err)
	}
	if exists {
		return nil, apperrors.ErrAccountExists
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.opts.BcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, apperrors.Validation("invalid registration", fmt.Sprintf("password: must be at most %d bytes", PasswordMaxBytes))
	}
	if err != nil {
		return nil, apperrors.Internal("hash password", err)
	}

	account := &model.Account{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: string(hashedPassword),
		IsActive:     true,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrAccountExists
		}
		return nil, apperrors.Internal("create account", err)
	}

	return account, nil
}

// Authenticate verifies a username/password pair.
func (s *authService) Authenticate(ctx context.Context, username, password string) (*model.Account, error) {
	account, err := s.accountRepo.FindByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Internal("find account", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, apperrors.ErrInvalidCredentials
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	return account, nil
}

// Login authenticates an active account and returns a signed access token.
func (s *authService) Login(ctx context.Context, username, password string) (string, time.Duration, *model.Account, error) {
	account, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", 0, nil, err
	}
	if !account.IsActive {
		return "", 0, nil, apperrors.ErrAccountInactive
	}

	accessToken, err := s.jwtService.GenerateAccessToken(account.Username)
	if err != nil {
		return "", 0, nil, apperrors.Internal("generate access token", err)
	}

	return accessToken, s.jwtService.Expiry(), account, nil
}

// Resolve verifies a bearer token and loads the account it names.
func (s *authService) Resolve(ctx context.Context, token string) (*model.Account, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	account, err := s.accountRepo.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.Internal("find account", err)
	}
	if !account.IsActive {
		return nil, apperrors.ErrAccountInactive
	}

	return account, nil
}

// GetAccount loads an account by ID.
func (s *authService) GetAccount(ctx context.Context, id uint) (*model.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Internal("find account", err)
	}
	return account, nil
}

package auth

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/wkxuan/booknotes/internal/config"
	"github.com/wkxuan/booknotes/internal/database/invitations"
	"github.com/wkxuan/booknotes/internal/entities"
)

var (
	ErrUserExists        = errors.New("user already exists")
	ErrInvalidInvitation = errors.New("invitation code is not valid")
	ErrUsernameRequired  = errors.New("username is required")
	ErrPasswordRequired  = errors.New("password is required")

	// ErrBadCredentials covers both unknown usernames and wrong passwords so
	// that login responses cannot be used for username enumeration.
	ErrBadCredentials = errors.New("invalid username or password")
)

// Service handles registration and credential verification.
type Service struct {
	db          *gorm.DB
	invitations *invitations.Repository
	config      config.Auth
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, invitations *invitations.Repository, cfg config.Auth) *Service {
	return &Service{
		db:          db,
		invitations: invitations,
		config:      cfg,
	}
}

// Register creates a new user gated by an invitation code.
func (s *Service) Register(username, password, invitationCode string) (*entities.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	valid, err := s.invitations.Validate(invitationCode)
	if err != nil {
		return nil, fmt.Errorf("failed to check invitation code: %w", err)
	}
	if !valid {
		return nil, ErrInvalidInvitation
	}

	var existing entities.User
	err = s.db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Username:     username,
		PasswordHash: passwordHash,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Audit stamp only; codes stay redeemable
	if err := s.invitations.MarkUsed(invitationCode); err != nil {
		log.Printf("Could not mark invitation code as used: %v", err)
	}

	return user, nil
}

// Authenticate validates credentials and returns the user. Unknown usernames
// and wrong passwords both come back as ErrBadCredentials.
func (s *Service) Authenticate(username, password string) (*entities.User, error) {
	var user entities.User
	err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}

	return &user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := s.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

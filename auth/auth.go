package auth

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovachat/relay/directory"
)

// Sentinel errors for credential operations.
var (
	// ErrInvalidCredentials indicates an unknown username or wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrMissingCredentials indicates an empty username or password.
	ErrMissingCredentials = errors.New("username and password are required")
)

// Service verifies and manages credentials stored in the directory.
type Service struct {
	users directory.UserStore
	cost  int
}

// NewService creates a credential service over the given user store.
func NewService(users directory.UserStore) *Service {
	return &Service{
		users: users,
		cost:  bcrypt.DefaultCost,
	}
}

// Register creates a new account with a bcrypt-hashed password and
// returns the stored user. An empty nickname defaults to the username.
func (s *Service) Register(username, password, nickname string) (*directory.User, error) {
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(username, string(hash), nickname)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function": "Register",
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("Account registered")

	return user, nil
}

// Login verifies the credentials and returns the user record. Unknown
// usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(username, password string) (*directory.User, error) {
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.users.UserByUsername(username)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ChangePassword verifies the old password and replaces the stored hash.
func (s *Service) ChangePassword(userID int64, oldPassword, newPassword string) error {
	if newPassword == "" {
		return ErrMissingCredentials
	}

	user, err := s.users.UserByID(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePasswordHash(userID, string(hash)); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"function": "ChangePassword",
		"user_id":  userID,
	}).Info("Password changed")

	return nil
}

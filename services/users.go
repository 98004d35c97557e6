package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/biosecret/go-todo/auth"
	"github.com/biosecret/go-todo/database"
	"github.com/biosecret/go-todo/models"
	"github.com/gofiber/fiber/v2/log"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
	// Burn costs as much as Verify and always fails.
	Burn(password string)
}

type TokenIssuer interface {
	Issue(user models.User) (string, error)
}

// UserService registers users and logs them in.
type UserService struct {
	users  *database.Collection[models.User]
	hasher PasswordHasher
	tokens TokenIssuer
}

func NewUserService(users *database.Collection[models.User], hasher PasswordHasher, tokens TokenIssuer) *UserService {
	return &UserService{users: users, hasher: hasher, tokens: tokens}
}

// Register creates a user with the next free id. Usernames are unique and
// case-sensitive.
func (s *UserService) Register(ctx context.Context, username, password string) (models.User, error) {
	log.Infow("Registering new user", "username", username)
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		log.Warn("Registration attempt with missing username or password")
		return models.User{}, ErrMissingCredentials
	}

	hash, err := s.hasher.Hash(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return models.User{}, kindError(ErrValidation, err.Error())
	}
	if err != nil {
		return models.User{}, err
	}

	var created models.User
	err = s.users.Update(ctx, func(users []models.User) ([]models.User, error) {
		for _, u := range users {
			if u.Username == username {
				return nil, ErrUsernameTaken
			}
		}
		created = models.User{
			ID:       nextUserID(users),
			Username: username,
			Password: hash,
		}
		return append(users, created), nil
	})
	if errors.Is(err, ErrUsernameTaken) {
		log.Warnw("Username already exists", "username", username)
		return models.User{}, err
	}
	if err != nil {
		return models.User{}, fmt.Errorf("register %q: %w", username, err)
	}

	log.Infow("Successfully registered user", "username", created.Username, "user_id", created.ID)
	return created, nil
}

// Login returns a signed token. Unknown users and wrong passwords fail with
// the same error.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	log.Infow("Login attempt", "username", username)
	users, err := s.users.LoadAll(ctx)
	if err != nil {
		return "", fmt.Errorf("login %q: %w", username, err)
	}

	var user *models.User
	for i := range users {
		if users[i].Username == username {
			user = &users[i]
			break
		}
	}
	if user == nil {
		s.hasher.Burn(password)
		log.Warnw("Invalid login attempt", "username", username)
		return "", ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.Password) {
		log.Warnw("Invalid login attempt", "username", username)
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(*user)
	if err != nil {
		return "", err
	}
	log.Infow("Successful login", "username", user.Username, "user_id", user.ID)
	return token, nil
}

func nextUserID(users []models.User) int {
	next := 1
	for _, u := range users {
		if u.ID >= next {
			next = u.ID + 1
		}
	}
	return next
}

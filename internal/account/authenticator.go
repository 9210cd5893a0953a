package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lifefence/internal/database"
	"lifefence/internal/util"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken     = errors.New("username already taken")
	ErrEmailTaken        = errors.New("email already taken")
	ErrParentNotFound    = errors.New("parent user not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidCredential = errors.New("invalid username or password")
)

// Store is the persistence surface the authenticator needs. *database.Database
// satisfies it.
type Store interface {
	CreateUser(ctx context.Context, params database.CreateUserParams) (database.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
	GetUserByUsername(ctx context.Context, username string) (database.User, error)
	GetUserByEmail(ctx context.Context, email string) (database.User, error)
}

// TokenStore issues and revokes bearer session tokens.
type TokenStore interface {
	Issue(ctx context.Context, userID uuid.UUID) (string, error)
	Revoke(ctx context.Context, token string) error
}

type Authenticator struct {
	store    Store
	sessions TokenStore
	logger   *slog.Logger
}

func NewAuthenticator(store Store, sessions TokenStore, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		store:    store,
		sessions: sessions,
		logger:   logger,
	}
}

type RegisterParams struct {
	Name           string
	Username       string
	Email          string
	Password       string
	DateOfBirth    time.Time
	ParentUsername util.Optional[string]
}

// Register creates a new account. Username and email must be unused; a parent
// username, when given, must resolve to an existing user.
func (a *Authenticator) Register(ctx context.Context, params RegisterParams) (database.User, error) {
	if _, err := a.store.GetUserByUsername(ctx, params.Username); err == nil {
		return database.User{}, ErrUsernameTaken
	} else if !errors.Is(err, database.ErrUserNotFound) {
		return database.User{}, err
	}

	if _, err := a.store.GetUserByEmail(ctx, params.Email); err == nil {
		return database.User{}, ErrEmailTaken
	} else if !errors.Is(err, database.ErrUserNotFound) {
		return database.User{}, err
	}

	var parentID util.Optional[uuid.UUID]
	if params.ParentUsername.IsSet {
		parent, err := a.store.GetUserByUsername(ctx, params.ParentUsername.Val)
		if err != nil {
			if errors.Is(err, database.ErrUserNotFound) {
				return database.User{}, ErrParentNotFound
			}
			return database.User{}, err
		}
		parentID = util.Some(parent.ID)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return database.User{}, fmt.Errorf("account: failed to hash password: %w", err)
	}

	user, err := a.store.CreateUser(ctx, database.CreateUserParams{
		Name:         params.Name,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: string(hash),
		DateOfBirth:  params.DateOfBirth,
		ParentID:     parentID,
	})
	if err != nil {
		return database.User{}, err
	}

	a.logger.Info("user registered", slog.String("user_id", user.ID.String()), slog.String("username", user.Username))
	return user, nil
}

// Login verifies the credentials and issues a bearer token. Unknown username
// and wrong password are indistinguishable to the caller.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, database.User, error) {
	user, err := a.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return "", database.User{}, ErrInvalidCredential
		}
		return "", database.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", database.User{}, ErrInvalidCredential
	}

	token, err := a.sessions.Issue(ctx, user.ID)
	if err != nil {
		return "", database.User{}, err
	}

	a.logger.Info("user logged in", slog.String("user_id", user.ID.String()))
	return token, user, nil
}

func (a *Authenticator) Logout(ctx context.Context, token string) error {
	return a.sessions.Revoke(ctx, token)
}

// Me returns the caller's own user record.
func (a *Authenticator) Me(ctx context.Context, userID uuid.UUID) (database.User, error) {
	user, err := a.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return database.User{}, ErrUserNotFound
		}
		return database.User{}, err
	}
	return user, nil
}

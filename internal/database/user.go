package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lifefence/internal/util"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID           uuid.UUID
	Name         string
	Username     string
	Email        string
	PasswordHash string
	DateOfBirth  time.Time
	ParentID     util.Optional[uuid.UUID]
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateUserParams struct {
	Name         string
	Username     string
	Email        string
	PasswordHash string
	DateOfBirth  time.Time
	ParentID     util.Optional[uuid.UUID]
}

func (db *Database) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	user := User{
		ID:           uuid.New(),
		Name:         params.Name,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		DateOfBirth:  params.DateOfBirth,
		ParentID:     params.ParentID,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	if _, err := db.Pool.Exec(ctx, `INSERT INTO tbl_user (id, name, username, email, password_hash, date_of_birth, parent_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.Name, user.Username, user.Email, user.PasswordHash, user.DateOfBirth, user.ParentID, user.CreatedAt, user.UpdatedAt); err != nil {
		return user, fmt.Errorf("database: failed to insert user (username=%s): %w", user.Username, err)
	}
	return user, nil
}

func (db *Database) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	return db.GetUser(ctx, GetUserParams{ID: util.Some(id)})
}

func (db *Database) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return db.GetUser(ctx, GetUserParams{Username: util.Some(username)})
}

func (db *Database) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return db.GetUser(ctx, GetUserParams{Email: util.Some(email)})
}

type GetUserParams struct {
	ID       util.Optional[uuid.UUID]
	Username util.Optional[string]
	Email    util.Optional[string]
}

func (db *Database) GetUser(ctx context.Context, params GetUserParams) (User, error) {
	var user User

	var query strings.Builder
	query.WriteString(`SELECT id, name, username, email, password_hash, date_of_birth, parent_id, created_at, updated_at FROM tbl_user WHERE 1=1`)
	var args []any
	argNum := 1

	if params.ID.IsSet {
		query.WriteString(fmt.Sprintf(" AND id = $%d", argNum))
		args = append(args, params.ID.Val)
		argNum++
	}
	if params.Username.IsSet {
		query.WriteString(fmt.Sprintf(" AND username = $%d", argNum))
		args = append(args, params.Username.Val)
		argNum++
	}
	if params.Email.IsSet {
		query.WriteString(fmt.Sprintf(" AND email = $%d", argNum))
		args = append(args, params.Email.Val)
		argNum++
	}

	err := db.Pool.QueryRow(ctx, query.String(), args...).Scan(
		&user.ID, &user.Name, &user.Username, &user.Email, &user.PasswordHash, &user.DateOfBirth, &user.ParentID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user, ErrUserNotFound
		}
		return user, fmt.Errorf("database: failed to scan user: %w", err)
	}
	return user, nil
}

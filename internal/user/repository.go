package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kirana-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, name, email, hashedPassword string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id uint) (User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, id uint, p UpdateProfileParams) (User, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const userColumns = `id, name, email, password, role, address, phone, loyalty_balance, created_at`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Password, &u.Role,
		&u.Address, &u.Phone, &u.LoyaltyBalance, &u.CreatedAt,
	)
	return u, err
}

func (r *repository) Create(ctx context.Context, name, email, hashedPassword string) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		name, email, hashedPassword,
	)

	u, err := scanUser(row)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to insert user",
			zap.String("email", email),
			zap.Error(err),
		)
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (r *repository) FindByID(ctx context.Context, id uint) (User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email,
	).Scan(&exists)
	return exists, err
}

// UpdateProfile overwrites only the fields the caller provided.
func (r *repository) UpdateProfile(ctx context.Context, id uint, p UpdateProfileParams) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET name    = COALESCE($2, name),
		    address = COALESCE($3, address),
		    phone   = COALESCE($4, phone)
		WHERE id = $1
		RETURNING `+userColumns,
		id, p.Name, p.Address, p.Phone,
	)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

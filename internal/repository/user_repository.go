package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/repository/common"
)

// Ошибки пользователей и сессий.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrSessionNotFound = errors.New("session not found")
	ErrAlreadyVerified = errors.New("profile already verified")
)

// UserRepository отвечает за работу с таблицами users, profiles и user_sessions.
type UserRepository struct {
	db sqlx.ExtContext
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db sqlx.ExtContext) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт пользователя и пустой профиль с нулевым балансом одним запросом.
func (r *UserRepository) Create(ctx context.Context, user *models.User, fullName string) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	query := `
		WITH u AS (
			INSERT INTO users (id, email, password_hash, role, is_active)
			VALUES ($1, $2, $3, $4, TRUE)
			RETURNING id, is_active, created_at, updated_at
		), p AS (
			INSERT INTO profiles (user_id, full_name)
			SELECT id, $5 FROM u
		)
		SELECT is_active, created_at, updated_at FROM u
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Role, fullName,
	).Scan(&user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

const userColumns = `id, email, password_hash, role, is_active, last_login_at, created_at, updated_at`

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) getUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := sqlx.GetContext(ctx, r.db, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get user %w", err)
	}

	return &user, nil
}

// GetProfile возвращает профиль пользователя.
func (r *UserRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return common.GetByField[models.Profile](ctx, r.db, "profiles", "user_id", userID, ErrUserNotFound)
}

// UpdateProfile меняет имя и, если передан, аватар. Баланс здесь не трогается.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName string, avatarURL *string) (*models.Profile, error) {
	var profile models.Profile
	err := sqlx.GetContext(ctx, r.db, &profile, `
		UPDATE profiles
		SET full_name = $2, avatar_url = COALESCE($3, avatar_url), updated_at = NOW()
		WHERE user_id = $1
		RETURNING *
	`, userID, fullName, avatarURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: update profile %w", err)
	}

	return &profile, nil
}

// SetVerified отмечает профиль подтверждённым. Повторное подтверждение
// возвращает ErrAlreadyVerified.
func (r *UserRepository) SetVerified(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET is_verified = TRUE, updated_at = NOW()
		WHERE user_id = $1 AND is_verified = FALSE
	`, userID)
	if err != nil {
		return fmt.Errorf("user repository: set verified %w", err)
	}

	err = expectAffected(result, ErrAlreadyVerified, "user repository: set verified")
	if !errors.Is(err, ErrAlreadyVerified) {
		return err
	}

	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, `SELECT EXISTS (SELECT 1 FROM profiles WHERE user_id = $1)`, userID); err != nil {
		return fmt.Errorf("user repository: set verified exists %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}
	return ErrAlreadyVerified
}

// ListUnverified возвращает пользователей без подтверждения, старые первыми.
func (r *UserRepository) ListUnverified(ctx context.Context, limit, offset int) ([]models.UserWithProfile, error) {
	users := []models.UserWithProfile{}
	err := sqlx.SelectContext(ctx, r.db, &users, `
		SELECT u.id, u.email, u.password_hash, u.role, u.is_active, u.last_login_at, u.created_at, u.updated_at,
		       p.full_name, p.is_verified
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		WHERE p.is_verified = FALSE
		ORDER BY u.created_at ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("user repository: list unverified %w", err)
	}

	return users, nil
}

// UpdateRoleByEmail обновляет роль пользователя.
func (r *UserRepository) UpdateRoleByEmail(ctx context.Context, email, role string) (*models.User, error) {
	if _, ok := models.ValidRoles[role]; !ok {
		return nil, fmt.Errorf("user repository: invalid role %s: %w", role, common.ErrInvalidInput)
	}

	user, err := r.getUser(ctx, `
		UPDATE users SET role = $2, updated_at = NOW()
		WHERE email = $1
		RETURNING `+userColumns, email, role)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateSession сохраняет новую сессию пользователя.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	query := `
		INSERT INTO user_sessions (id, user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.RefreshToken,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
	).Scan(&session.CreatedAt); err != nil {
		return fmt.Errorf("user repository: create session %w", err)
	}

	return nil
}

// GetSession возвращает сессию по refresh токену.
func (r *UserRepository) GetSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	return common.GetByField[models.Session](ctx, r.db, "user_sessions", "refresh_token", refreshToken, ErrSessionNotFound)
}

// DeleteSession удаляет сессию по refresh токену. Если сессии уже нет,
// возвращает ErrSessionNotFound: токен успел использовать кто-то другой.
func (r *UserRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE refresh_token = $1`, refreshToken)
	if err != nil {
		return fmt.Errorf("user repository: delete session %w", err)
	}

	return expectAffected(result, ErrSessionNotFound, "user repository: delete session")
}

// UpdateLastLoginAt обновляет время последнего входа пользователя.
func (r *UserRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("user repository: update last login at %w", err)
	}

	return nil
}

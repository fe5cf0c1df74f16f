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

// OrderRepository отвечает за работу с заказами.
type OrderRepository struct {
	db sqlx.ExtContext
}

// Ошибки уровня репозитория.
var (
	ErrOrderNotFound = errors.New("order not found")
)

const orderColumns = `id, requester_id, traveler_id, item, price, tip, from_location, to_location, status, created_at, updated_at`

// NewOrderRepository создаёт новый экземпляр.
func NewOrderRepository(db sqlx.ExtContext) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create вставляет заказ в статусе open.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, requester_id, traveler_id, item, price, tip, from_location, to_location, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		order.ID, order.RequesterID, order.TravelerID, order.Item, order.Price, order.Tip,
		order.FromLocation, order.ToLocation, order.Status, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("order repository: create %w", err)
	}
	return nil
}

// GetByID возвращает заказ по идентификатору.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetForUpdate возвращает заказ и блокирует строку до конца транзакции.
func (r *OrderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepository) get(ctx context.Context, query string, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := sqlx.GetContext(ctx, r.db, &order, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get %w", err)
	}
	return &order, nil
}

// UpdateState сохраняет статус и путешественника. traveler_id после
// назначения не переписывается: условие в WHERE не даст сменить его.
func (r *OrderRepository) UpdateState(ctx context.Context, order *models.Order) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, traveler_id = $3, updated_at = $4
		WHERE id = $1 AND (traveler_id IS NULL OR traveler_id = $3)
	`, order.ID, order.Status, order.TravelerID, order.UpdatedAt)
	if err != nil {
		if common.IsCheckViolation(err) {
			return fmt.Errorf("order repository: update state %w", common.ErrInvalidInput)
		}
		return fmt.Errorf("order repository: update state %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("order repository: update state rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// ListMarket возвращает открытые заказы, новые первыми.
func (r *OrderRepository) ListMarket(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = 'open'`
	args := []interface{}{}
	argIndex := 1

	if filter.ExcludeUserID != nil {
		query += fmt.Sprintf(" AND requester_id <> $%d", argIndex)
		args = append(args, *filter.ExcludeUserID)
		argIndex++
	}
	if filter.From != "" {
		query += fmt.Sprintf(" AND from_location ILIKE $%d", argIndex)
		args = append(args, "%"+filter.From+"%")
		argIndex++
	}
	if filter.To != "" {
		query += fmt.Sprintf(" AND to_location ILIKE $%d", argIndex)
		args = append(args, "%"+filter.To+"%")
		argIndex++
	}

	query += " ORDER BY created_at DESC, id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	orders := []models.Order{}
	if err := sqlx.SelectContext(ctx, r.db, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("order repository: list market %w", err)
	}
	return orders, nil
}

// ListByRequester возвращает заявки пользователя.
func (r *OrderRepository) ListByRequester(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	return r.listBy(ctx, "requester_id", userID, limit, offset)
}

// ListByTraveler возвращает заказы, взятые пользователем.
func (r *OrderRepository) ListByTraveler(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	return r.listBy(ctx, "traveler_id", userID, limit, offset)
}

func (r *OrderRepository) listBy(ctx context.Context, column string, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`, orderColumns, column)
	orders := []models.Order{}
	if err := sqlx.SelectContext(ctx, r.db, &orders, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("order repository: list by %s %w", column, err)
	}
	return orders, nil
}

// MarketLocations возвращает уникальные пункты открытых заказов.
func (r *OrderRepository) MarketLocations(ctx context.Context) (*models.MarketLocations, error) {
	locations := &models.MarketLocations{From: []string{}, To: []string{}}

	if err := sqlx.SelectContext(ctx, r.db, &locations.From,
		`SELECT DISTINCT from_location FROM orders WHERE status = 'open' ORDER BY from_location`); err != nil {
		return nil, fmt.Errorf("order repository: market from locations %w", err)
	}
	if err := sqlx.SelectContext(ctx, r.db, &locations.To,
		`SELECT DISTINCT to_location FROM orders WHERE status = 'open' ORDER BY to_location`); err != nil {
		return nil, fmt.Errorf("order repository: market to locations %w", err)
	}
	return locations, nil
}

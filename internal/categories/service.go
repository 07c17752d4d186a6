package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tripper-app/tripper/internal/access"
)

var (
	// ErrCategoryNotFound is returned when a category is not found
	ErrCategoryNotFound = errors.New("category not found")
)

// Service provides category lifecycle operations
type Service struct {
	pool    *pgxpool.Pool
	checker *access.Checker
}

// NewService creates a new category service
func NewService(pool *pgxpool.Pool, checker *access.Checker) *Service {
	return &Service{pool: pool, checker: checker}
}

const categoryColumns = `
	id, trip_id, name, icon_name, color, sort_order, is_default,
	created_by, created_at, updated_at
`

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	err := row.Scan(
		&c.ID,
		&c.TripID,
		&c.Name,
		&c.IconName,
		&c.Color,
		&c.SortOrder,
		&c.IsDefault,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByTrip returns the trip's categories ordered by sort order
func (s *Service) ListByTrip(ctx context.Context, tripID, userID uuid.UUID) ([]Category, error) {
	if _, err := s.checker.RequireTripAccess(ctx, tripID, userID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM categories
		WHERE trip_id = $1
		ORDER BY sort_order ASC
	`, categoryColumns)

	rows, err := s.pool.Query(ctx, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	cats := []Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		cats = append(cats, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}

	return cats, nil
}

func (s *Service) getByID(ctx context.Context, categoryID uuid.UUID) (*Category, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM categories
		WHERE id = $1
	`, categoryColumns)

	c, err := scanCategory(s.pool.QueryRow(ctx, query, categoryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return c, nil
}

// Create appends a category to the trip's list. User-created categories are
// never is_default; sort order is assigned max+1.
func (s *Service) Create(ctx context.Context, tripID, userID uuid.UUID, cmd CreateCommand) (*Category, error) {
	if _, err := s.checker.RequireEditorAccess(ctx, tripID, userID); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var nextSortOrder int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(sort_order), 0) + 1
		FROM categories
		WHERE trip_id = $1
	`, tripID).Scan(&nextSortOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to compute sort order: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO categories (trip_id, name, icon_name, color, sort_order, is_default, created_by)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		RETURNING %s
	`, categoryColumns)

	c, err := scanCategory(tx.QueryRow(ctx, query, tripID, cmd.Name, cmd.IconName, cmd.Color, nextSortOrder, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return c, nil
}

// Update applies a merge patch to a category
func (s *Service) Update(ctx context.Context, categoryID, userID uuid.UUID, cmd UpdateCommand) (*Category, error) {
	cat, err := s.getByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if _, err := s.checker.RequireEditorAccess(ctx, cat.TripID, userID); err != nil {
		return nil, err
	}

	sets := []string{"updated_at = NOW()"}
	args := []any{categoryID}

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if cmd.Name != nil {
		addSet("name", *cmd.Name)
	}
	if cmd.IconName != nil {
		addSet("icon_name", *cmd.IconName)
	}
	if cmd.Color != nil {
		addSet("color", *cmd.Color)
	}
	if cmd.SortOrder != nil {
		addSet("sort_order", *cmd.SortOrder)
	}

	query := fmt.Sprintf(`
		UPDATE categories
		SET %s
		WHERE id = $1
		RETURNING %s
	`, strings.Join(sets, ", "), categoryColumns)

	updated, err := scanCategory(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	return updated, nil
}

// Remove deletes a category. Locations referencing it keep their rows with
// category_id cleared; both steps run in one transaction.
func (s *Service) Remove(ctx context.Context, categoryID, userID uuid.UUID) (*Category, error) {
	cat, err := s.getByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if _, err := s.checker.RequireEditorAccess(ctx, cat.TripID, userID); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `
		UPDATE locations
		SET category_id = NULL, updated_at = NOW()
		WHERE category_id = $1
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to detach locations from category: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM categories WHERE id = $1`, categoryID); err != nil {
		return nil, fmt.Errorf("failed to delete category: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return cat, nil
}

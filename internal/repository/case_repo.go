package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"casetrack/internal/database"
	"casetrack/internal/models"
)

// CaseRepository handles database operations for client cases
type CaseRepository struct {
	db database.DBTX
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db database.DBTX) *CaseRepository {
	return &CaseRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *CaseRepository) WithTx(tx database.DBTX) *CaseRepository {
	return &CaseRepository{db: tx}
}

var (
	caseColumns = "client_id, user_id, " + strings.Join(models.ServiceColumns, ", ") + ", success_rate"
	caseSelect  = "SELECT " + caseColumns + " FROM client_cases"
)

// Create inserts a case. The store rejects a second case for the same
// (client, user) pair; callers check the error with Dialect.IsUniqueViolation.
func (r *CaseRepository) Create(ctx context.Context, c *models.ClientCase) error {
	args := []any{c.ClientID, c.UserID}
	for _, v := range c.Values() {
		args = append(args, v)
	}
	args = append(args, c.SuccessRate)

	query := "INSERT INTO client_cases (" + caseColumns + ") VALUES (" + placeholders(len(args)) + ")"
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

// Get retrieves the case for a (client, user) pair. It returns nil, nil when absent.
func (r *CaseRepository) Get(ctx context.Context, clientID, userID int64) (*models.ClientCase, error) {
	c := &models.ClientCase{}
	err := r.db.QueryRowContext(ctx, caseSelect+" WHERE client_id = ? AND user_id = ?", clientID, userID).
		Scan(caseDest(c)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return c, nil
}

// ListByClient returns every case of one client ordered by case worker
func (r *CaseRepository) ListByClient(ctx context.Context, clientID int64) ([]models.ClientCase, error) {
	rows, err := r.db.QueryContext(ctx, caseSelect+" WHERE client_id = ? ORDER BY user_id", clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}
	return scanCases(rows)
}

// ListAll returns every case
func (r *CaseRepository) ListAll(ctx context.Context) ([]models.ClientCase, error) {
	rows, err := r.db.QueryContext(ctx, caseSelect+" ORDER BY client_id, user_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}
	return scanCases(rows)
}

// Update overwrites the given columns of one case
func (r *CaseRepository) Update(ctx context.Context, clientID, userID int64, sets []models.Assignment) error {
	if len(sets) == 0 {
		return nil
	}
	clause, args := setClause(sets)
	args = append(args, clientID, userID)
	_, err := r.db.ExecContext(ctx, "UPDATE client_cases SET "+clause+" WHERE client_id = ? AND user_id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update case: %w", err)
	}
	return nil
}

// DeleteByClient removes every case of one client and returns how many went
func (r *CaseRepository) DeleteByClient(ctx context.Context, clientID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM client_cases WHERE client_id = ?", clientID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cases: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}

func caseDest(c *models.ClientCase) []any {
	dest := append([]any{&c.ClientID, &c.UserID}, c.ServiceFlags.Dest()...)
	return append(dest, &c.SuccessRate)
}

func scanCases(rows *sql.Rows) ([]models.ClientCase, error) {
	defer rows.Close()

	cases := make([]models.ClientCase, 0)
	for rows.Next() {
		var c models.ClientCase
		if err := rows.Scan(caseDest(&c)...); err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cases: %w", err)
	}
	return cases, nil
}

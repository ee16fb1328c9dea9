package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"casetrack/internal/database"
	"casetrack/internal/filter"
	"casetrack/internal/models"
)

// ClientRepository handles database operations for clients
type ClientRepository struct {
	db database.DBTX
}

// NewClientRepository creates a new client repository
func NewClientRepository(db database.DBTX) *ClientRepository {
	return &ClientRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *ClientRepository) WithTx(tx database.DBTX) *ClientRepository {
	return &ClientRepository{db: tx}
}

var (
	clientColumnList = strings.Join(models.ClientColumns, ", ")
	clientSelect     = "SELECT c.id, c." + strings.Join(models.ClientColumns, ", c.") + " FROM clients c"
)

// Create inserts a new client and returns it with its ID
func (r *ClientRepository) Create(ctx context.Context, profile *models.Profile) (*models.Client, error) {
	query := "INSERT INTO clients (" + clientColumnList + ") VALUES (" + placeholders(len(models.ClientColumns)) + ")"
	id, err := r.db.ExecReturningID(ctx, query, profile.Values()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &models.Client{ID: id, Profile: *profile}, nil
}

// CreateWithID inserts a client keeping its existing ID (used by restore)
func (r *ClientRepository) CreateWithID(ctx context.Context, client *models.Client) error {
	query := "INSERT INTO clients (id, " + clientColumnList + ") VALUES (" + placeholders(len(models.ClientColumns)+1) + ")"
	args := append([]any{client.ID}, client.Values()...)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create client %d: %w", client.ID, err)
	}
	return nil
}

// GetByID retrieves a client by ID. It returns nil, nil when no client matches.
func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	client := &models.Client{}
	dest := append([]any{&client.ID}, client.Dest()...)
	err := r.db.QueryRowContext(ctx, clientSelect+" WHERE c.id = ?", id).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

// List returns one page of clients ordered by ID
func (r *ClientRepository) List(ctx context.Context, skip, limit int) ([]models.Client, error) {
	rows, err := r.db.QueryContext(ctx, clientSelect+" ORDER BY c.id LIMIT ? OFFSET ?", limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	return scanClients(rows)
}

// Count returns the number of stored clients
func (r *ClientRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM clients").Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count clients: %w", err)
	}
	return total, nil
}

// Search returns the clients matching every predicate on client columns.
// No predicates returns every client.
func (r *ClientRepository) Search(ctx context.Context, preds []filter.Predicate) ([]models.Client, error) {
	where, args := filter.Where("c", preds)
	rows, err := r.db.QueryContext(ctx, clientSelect+where+" ORDER BY c.id", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search clients: %w", err)
	}
	return scanClients(rows)
}

// SearchByCases returns the distinct clients having at least one case that
// matches every predicate on client_cases columns.
func (r *ClientRepository) SearchByCases(ctx context.Context, preds []filter.Predicate) ([]models.Client, error) {
	where, args := filter.Where("cc", preds)
	query := strings.Replace(clientSelect, "SELECT", "SELECT DISTINCT", 1) +
		" JOIN client_cases cc ON cc.client_id = c.id" + where + " ORDER BY c.id"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search clients by case: %w", err)
	}
	return scanClients(rows)
}

// Update overwrites the given columns of one client
func (r *ClientRepository) Update(ctx context.Context, id int64, sets []models.Assignment) error {
	if len(sets) == 0 {
		return nil
	}
	clause, args := setClause(sets)
	_, err := r.db.ExecContext(ctx, "UPDATE clients SET "+clause+" WHERE id = ?", append(args, id)...)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	return nil
}

// Delete removes one client and reports whether it existed
func (r *ClientRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete client: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

// DeleteAll removes every client (cases go with them)
func (r *ClientRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM clients"); err != nil {
		return fmt.Errorf("failed to clear clients: %w", err)
	}
	return nil
}

func scanClients(rows *sql.Rows) ([]models.Client, error) {
	defer rows.Close()

	clients := make([]models.Client, 0)
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(append([]any{&c.ID}, c.Dest()...)...); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}
	return clients, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func setClause(sets []models.Assignment) (string, []any) {
	parts := make([]string, 0, len(sets))
	args := make([]any, 0, len(sets)+1)
	for _, s := range sets {
		parts = append(parts, s.Column+" = ?")
		args = append(args, s.Value)
	}
	return strings.Join(parts, ", "), args
}

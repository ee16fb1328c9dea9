package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"casetrack/internal/database"
	"casetrack/internal/models"
	"casetrack/internal/repository"
)

const backupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string              `json:"version"`
	ExportedAt   time.Time           `json:"exported_at"`
	DatabaseType string              `json:"database_type"`
	Users        []UserBackup        `json:"users"`
	Clients      []models.Client     `json:"clients"`
	Cases        []models.ClientCase `json:"cases"`
}

// UserBackup is a user record including its password hash
type UserBackup struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"password_hash"`
	Role         models.Role `json:"role"`
	CreatedAt    time.Time   `json:"created_at"`
}

// ImportStats counts the rows restored by an import
type ImportStats struct {
	Users   int `json:"users"`
	Clients int `json:"clients"`
	Cases   int `json:"cases"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db     *database.DB
	logger *zap.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, logger *zap.Logger) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{db: db, logger: logger.Named("backup")}
}

// Snapshot reads every user, client and case
func (s *BackupService) Snapshot(ctx context.Context) (*BackupData, error) {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.GetDialect().DriverName(),
	}

	users, err := repository.NewUserRepository(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	backup.Users = make([]UserBackup, len(users))
	for i, u := range users {
		backup.Users[i] = UserBackup{
			ID:           u.ID,
			Username:     u.Username,
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			Role:         u.Role,
			CreatedAt:    u.CreatedAt,
		}
	}

	if backup.Clients, err = repository.NewClientRepository(s.db).Search(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to export clients: %w", err)
	}
	if backup.Cases, err = repository.NewCaseRepository(s.db).ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export cases: %w", err)
	}

	s.logger.Info("snapshot taken",
		zap.Int("users", len(backup.Users)),
		zap.Int("clients", len(backup.Clients)),
		zap.Int("cases", len(backup.Cases)),
	)
	return backup, nil
}

// ExportJSON writes a JSON backup to w
func (s *BackupService) ExportJSON(ctx context.Context, w io.Writer) error {
	backup, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

// ExportXLSX writes a workbook with one sheet per table to w.
// Password hashes are left out.
func (s *BackupService) ExportXLSX(ctx context.Context, w io.Writer) error {
	backup, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Clients"); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	clientRows := make([][]any, 0, len(backup.Clients))
	for _, c := range backup.Clients {
		clientRows = append(clientRows, append([]any{c.ID}, c.Values()...))
	}
	if err := writeSheet(f, "Clients", append([]string{"id"}, models.ClientColumns...), clientRows); err != nil {
		return err
	}

	caseHeader := append([]string{"client_id", "user_id"}, models.ServiceColumns...)
	caseHeader = append(caseHeader, "success_rate")
	caseRows := make([][]any, 0, len(backup.Cases))
	for _, c := range backup.Cases {
		row := []any{c.ClientID, c.UserID}
		for _, v := range c.ServiceFlags.Values() {
			row = append(row, v)
		}
		caseRows = append(caseRows, append(row, c.SuccessRate))
	}
	if err := writeSheet(f, "Cases", caseHeader, caseRows); err != nil {
		return err
	}

	userRows := make([][]any, 0, len(backup.Users))
	for _, u := range backup.Users {
		userRows = append(userRows, []any{u.ID, u.Username, u.Email, string(u.Role), u.CreatedAt.Format(time.RFC3339)})
	}
	if err := writeSheet(f, "Users", []string{"id", "username", "email", "role", "created_at"}, userRows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any) error {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return fmt.Errorf("failed to look up sheet %s: %w", sheet, err)
	}
	if idx == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// ImportJSON restores a JSON backup in one transaction. With clear set,
// existing rows are removed first.
func (s *BackupService) ImportJSON(ctx context.Context, r io.Reader, clear bool) (*ImportStats, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	stats := &ImportStats{}
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		users := repository.NewUserRepository(tx)
		clients := repository.NewClientRepository(tx)
		cases := repository.NewCaseRepository(tx)

		if clear {
			// cases are removed with their clients
			if err := clients.DeleteAll(ctx); err != nil {
				return err
			}
			if err := users.DeleteAll(ctx); err != nil {
				return err
			}
		}

		for _, u := range backup.Users {
			user := &models.User{
				ID:           u.ID,
				Username:     u.Username,
				Email:        u.Email,
				PasswordHash: u.PasswordHash,
				Role:         u.Role,
				CreatedAt:    u.CreatedAt,
			}
			if err := users.CreateWithID(ctx, user); err != nil {
				return err
			}
			stats.Users++
		}

		for i := range backup.Clients {
			if err := clients.CreateWithID(ctx, &backup.Clients[i]); err != nil {
				return err
			}
			stats.Clients++
		}

		for i := range backup.Cases {
			if err := cases.Create(ctx, &backup.Cases[i]); err != nil {
				return err
			}
			stats.Cases++
		}

		for _, table := range []string{"users", "clients"} {
			query := tx.GetDialect().ResetSequenceQuery(table)
			if query == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, query); err != nil {
				return fmt.Errorf("failed to reset %s sequence: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("backup imported",
		zap.Int("users", stats.Users),
		zap.Int("clients", stats.Clients),
		zap.Int("cases", stats.Cases),
		zap.Bool("cleared", clear),
	)
	return stats, nil
}

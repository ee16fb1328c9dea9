package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"casetrack/internal/database"
	"casetrack/internal/models"
	"casetrack/internal/repository"
	"casetrack/migrations"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations(context.Background(), migrations.FS, nil))
	return db
}

func validProfile() models.Profile {
	return models.Profile{
		Age:                  30,
		Gender:               1,
		WorkExperience:       5,
		LevelOfSchooling:     8,
		ReadingEnglishScale:  5,
		SpeakingEnglishScale: 5,
		WritingEnglishScale:  5,
		NumeracyScale:        5,
		ComputerScale:        5,
		Housing:              3,
		IncomeSource:         2,
	}
}

func seedClient(t *testing.T, db *database.DB, mutate func(p *models.Profile)) *models.Client {
	t.Helper()

	p := validProfile()
	if mutate != nil {
		mutate(&p)
	}
	client, err := repository.NewClientRepository(db).Create(context.Background(), &p)
	require.NoError(t, err)
	return client
}

func seedWorker(t *testing.T, db *database.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
		Role:         models.RoleCaseWorker,
	}
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), user))
	return user
}

// recordingNotifier remembers every notice it is asked to send
type recordingNotifier struct {
	mu      sync.Mutex
	notices []models.ClientCase
	err     error
}

func (n *recordingNotifier) NotifyCaseAssigned(_ context.Context, _ *models.User, c *models.ClientCase) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, *c)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}

func ptr[T any](v T) *T {
	return &v
}

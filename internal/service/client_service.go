package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"casetrack/internal/apperr"
	"casetrack/internal/database"
	"casetrack/internal/filter"
	"casetrack/internal/metrics"
	"casetrack/internal/models"
	"casetrack/internal/repository"
)

// Pagination and threshold defaults
const (
	DefaultSkip    = 0
	DefaultLimit   = 50
	MaxLimit       = 150
	DefaultMinRate = 70
)

const notifyTimeout = 10 * time.Second

// CaseNotifier is told about new case assignments after they commit.
type CaseNotifier interface {
	NotifyCaseAssigned(ctx context.Context, worker *models.User, c *models.ClientCase) error
}

// ClientService implements client lookups, searches, updates and case assignment
type ClientService struct {
	db       *database.DB
	clients  *repository.ClientRepository
	cases    *repository.CaseRepository
	users    *repository.UserRepository
	notifier CaseNotifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewClientService creates a new client service. notifier and m may be nil.
func NewClientService(db *database.DB, notifier CaseNotifier, m *metrics.Metrics, logger *zap.Logger) *ClientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{
		db:       db,
		clients:  repository.NewClientRepository(db),
		cases:    repository.NewCaseRepository(db),
		users:    repository.NewUserRepository(db),
		notifier: notifier,
		metrics:  m,
		logger:   logger.Named("clients"),
	}
}

// GetClient returns one client
func (s *ClientService) GetClient(ctx context.Context, clientID int64) (*models.Client, error) {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, apperr.Internal(err, "Error retrieving client")
	}
	if client == nil {
		return nil, clientNotFound(clientID)
	}
	return client, nil
}

// GetClients returns one page of clients and the total count
func (s *ClientService) GetClients(ctx context.Context, skip, limit int) (*models.ClientList, error) {
	if skip < 0 {
		return nil, apperr.InvalidArgument("Skip value cannot be negative")
	}
	if limit < 1 {
		return nil, apperr.InvalidArgument("Limit must be greater than 0")
	}
	if limit > MaxLimit {
		return nil, apperr.InvalidArgument("Limit cannot exceed %d", MaxLimit)
	}

	clients, err := s.clients.List(ctx, skip, limit)
	if err != nil {
		return nil, apperr.Internal(err, "Error retrieving clients")
	}
	total, err := s.clients.Count(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Error retrieving clients")
	}
	return &models.ClientList{Clients: clients, Total: total}, nil
}

// GetClientsByCriteria returns the clients matching every provided criterion
func (s *ClientService) GetClientsByCriteria(ctx context.Context, criteria *filter.Criteria) ([]models.Client, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	clients, err := s.clients.Search(ctx, criteria.Predicates())
	if err != nil {
		return nil, apperr.Internal(err, "Error retrieving clients")
	}
	return clients, nil
}

// GetClientsByServices returns the clients with a case matching every provided flag
func (s *ClientService) GetClientsByServices(ctx context.Context, flags *filter.ServiceFlags) ([]models.Client, error) {
	clients, err := s.clients.SearchByCases(ctx, flags.Predicates())
	if err != nil {
		return nil, apperr.Internal(err, "Error retrieving clients")
	}
	return clients, nil
}

// GetClientServices returns every case of a client
func (s *ClientService) GetClientServices(ctx context.Context, clientID int64) ([]models.ClientCase, error) {
	cases, err := s.cases.ListByClient(ctx, clientID)
	if err != nil {
		return nil, apperr.Internal(err, "Error retrieving client services")
	}
	if len(cases) == 0 {
		return nil, apperr.NotFound("No services found for client with id %d", clientID)
	}
	return cases, nil
}

// GetClientsBySuccessRate returns the clients with a case at or above minRate
func (s *ClientService) GetClientsBySuccessRate(ctx context.Context, minRate int) ([]models.Client, error) {
	if minRate < 0 || minRate > 100 {
		return nil, apperr.InvalidArgument("Success rate must be between 0 and 100")
	}

	clients, err := s.clients.SearchByCases(ctx, []filter.Predicate{filter.Gte("success_rate", minRate)})
	if err != nil {
		return nil, apperr.Internal(err, "Error retrieving clients")
	}
	return clients, nil
}

// GetClientsByCaseWorker returns the clients assigned to a case worker
func (s *ClientService) GetClientsByCaseWorker(ctx context.Context, workerID int64) ([]models.Client, error) {
	worker, err := s.users.GetByID(ctx, workerID)
	if err != nil {
		return nil, apperr.Internal(err, "Error retrieving case worker")
	}
	if worker == nil {
		return nil, workerNotFound(workerID)
	}

	clients, err := s.clients.SearchByCases(ctx, []filter.Predicate{filter.Eq("user_id", workerID)})
	if err != nil {
		return nil, apperr.Internal(err, "Error retrieving clients")
	}
	return clients, nil
}

// UpdateClient writes the fields present in update and returns the stored client
func (s *ClientService) UpdateClient(ctx context.Context, clientID int64, update *models.ClientUpdate) (*models.Client, error) {
	sets, err := update.Assignments()
	if err != nil {
		return nil, err
	}

	var updated *models.Client
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		clients := s.clients.WithTx(tx)

		client, err := clients.GetByID(ctx, clientID)
		if err != nil {
			return err
		}
		if client == nil {
			return clientNotFound(clientID)
		}
		if err := clients.Update(ctx, clientID, sets); err != nil {
			return err
		}

		updated, err = clients.GetByID(ctx, clientID)
		return err
	})
	if err != nil {
		return nil, asInternal(err, "Failed to update client")
	}

	s.logger.Info("client updated", zap.Int64("client_id", clientID), zap.Strings("fields", columns(sets)))
	return updated, nil
}

// UpdateClientServices writes the fields present in update to the case of
// one client and case worker
func (s *ClientService) UpdateClientServices(ctx context.Context, clientID, userID int64, update *models.ServiceUpdate) (*models.ClientCase, error) {
	sets, err := update.Assignments()
	if err != nil {
		return nil, err
	}

	var updated *models.ClientCase
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		cases := s.cases.WithTx(tx)

		client, err := s.clients.WithTx(tx).GetByID(ctx, clientID)
		if err != nil {
			return err
		}
		if client == nil {
			return clientNotFound(clientID)
		}

		existing, err := cases.Get(ctx, clientID, userID)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperr.NotFound(
				"No case found for client %d with case worker %d. Cannot update services for a non-existent case assignment.",
				clientID, userID,
			)
		}
		if err := cases.Update(ctx, clientID, userID, sets); err != nil {
			return err
		}

		updated, err = cases.Get(ctx, clientID, userID)
		return err
	})
	if err != nil {
		return nil, asInternal(err, "Failed to update client services")
	}

	s.logger.Info("client services updated",
		zap.Int64("client_id", clientID),
		zap.Int64("user_id", userID),
		zap.Strings("fields", columns(sets)),
	)
	return updated, nil
}

// CreateCaseAssignment links a client to a case worker with every service
// off and a zero success rate
func (s *ClientService) CreateCaseAssignment(ctx context.Context, clientID, workerID int64) (*models.ClientCase, error) {
	created := &models.ClientCase{ClientID: clientID, UserID: workerID}
	var worker *models.User

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		client, err := s.clients.WithTx(tx).GetByID(ctx, clientID)
		if err != nil {
			return err
		}
		if client == nil {
			return clientNotFound(clientID)
		}

		worker, err = s.users.WithTx(tx).GetByID(ctx, workerID)
		if err != nil {
			return err
		}
		if worker == nil {
			return workerNotFound(workerID)
		}

		cases := s.cases.WithTx(tx)
		existing, err := cases.Get(ctx, clientID, workerID)
		if err != nil {
			return err
		}
		if existing != nil {
			return caseConflict(clientID, workerID)
		}

		err = cases.Create(ctx, created)
		if err != nil && s.db.GetDialect().IsUniqueViolation(err) {
			// lost a race with a concurrent assignment of the same pair
			return caseConflict(clientID, workerID)
		}
		return err
	})
	if err != nil {
		s.metrics.CaseAssignment(apperr.KindOf(err).String())
		return nil, asInternal(err, "Failed to create case assignment")
	}

	s.metrics.CaseAssignment("created")
	s.logger.Info("case assigned", zap.Int64("client_id", clientID), zap.Int64("user_id", workerID))
	s.notify(ctx, worker, created)
	return created, nil
}

// DeleteClient removes a client and all of its cases in one transaction
func (s *ClientService) DeleteClient(ctx context.Context, clientID int64) error {
	var removedCases int64
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		clients := s.clients.WithTx(tx)

		client, err := clients.GetByID(ctx, clientID)
		if err != nil {
			return err
		}
		if client == nil {
			return clientNotFound(clientID)
		}

		removedCases, err = s.cases.WithTx(tx).DeleteByClient(ctx, clientID)
		if err != nil {
			return err
		}

		existed, err := clients.Delete(ctx, clientID)
		if err != nil {
			return err
		}
		if !existed {
			return clientNotFound(clientID)
		}
		return nil
	})
	if err != nil {
		return asInternal(err, "Failed to delete client")
	}

	s.logger.Info("client deleted", zap.Int64("client_id", clientID), zap.Int64("cases_removed", removedCases))
	return nil
}

func (s *ClientService) notify(ctx context.Context, worker *models.User, c *models.ClientCase) {
	if s.notifier == nil || worker == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := s.notifier.NotifyCaseAssigned(ctx, worker, c); err != nil {
		s.logger.Warn("case assignment notice failed",
			zap.Int64("client_id", c.ClientID),
			zap.Int64("user_id", c.UserID),
			zap.Error(err),
		)
	}
}

func clientNotFound(id int64) error {
	return apperr.NotFound("Client with id %d not found", id)
}

func workerNotFound(id int64) error {
	return apperr.NotFound("Case worker with id %d not found", id)
}

func caseConflict(clientID, workerID int64) error {
	return apperr.Conflict("Client %d already has a case assigned to case worker %d", clientID, workerID)
}

// asInternal passes classified errors through and wraps everything else
func asInternal(err error, msg string) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Internal(err, msg)
}

func columns(sets []models.Assignment) []string {
	out := make([]string, len(sets))
	for i, s := range sets {
		out[i] = s.Column
	}
	return out
}

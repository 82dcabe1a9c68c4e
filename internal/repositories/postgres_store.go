package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"helpinghands/internal/database"
)

// PostgresStore implements Store on top of a database.Manager
type PostgresStore struct {
	manager *database.Manager
	logger  *zap.Logger
	inTx    bool

	users     UserRepository
	campaigns CampaignRepository
	donations DonationRepository
	requests  BeneficiaryRequestRepository
	tasks     VolunteerTaskRepository
}

// NewPostgresStore creates a store whose repositories run on the pool
func NewPostgresStore(manager *database.Manager, logger *zap.Logger) (*PostgresStore, error) {
	if manager == nil {
		return nil, fmt.Errorf("database manager is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	store := newPostgresStore(manager, manager.DB(), logger, false)

	logger.Info("Postgres store initialized",
		zap.Duration("slow_query_threshold", manager.SlowQueryThreshold()),
	)

	return store, nil
}

func newPostgresStore(manager *database.Manager, q querier, logger *zap.Logger, inTx bool) *PostgresStore {
	base := NewBaseRepository(q, manager.Metrics(), logger)
	return &PostgresStore{
		manager:   manager,
		logger:    logger,
		inTx:      inTx,
		users:     &userRepository{BaseRepository: base},
		campaigns: &campaignRepository{BaseRepository: base},
		donations: &donationRepository{BaseRepository: base},
		requests:  &beneficiaryRequestRepository{BaseRepository: base},
		tasks:     &volunteerTaskRepository{BaseRepository: base},
	}
}

func (s *PostgresStore) Users() UserRepository                             { return s.users }
func (s *PostgresStore) Campaigns() CampaignRepository                     { return s.campaigns }
func (s *PostgresStore) Donations() DonationRepository                     { return s.donations }
func (s *PostgresStore) BeneficiaryRequests() BeneficiaryRequestRepository { return s.requests }
func (s *PostgresStore) VolunteerTasks() VolunteerTaskRepository           { return s.tasks }

// WithTransaction executes fn within a database transaction
func (s *PostgresStore) WithTransaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	return withTransaction(ctx, s.manager.DB(), s.manager.Metrics(), s.logger, func(tx *sql.Tx) error {
		return fn(newPostgresStore(s.manager, tx, s.logger, true))
	})
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.manager.Ping(ctx)
}

// Close closes the underlying pool
func (s *PostgresStore) Close() error {
	if s.inTx {
		return nil
	}
	return s.manager.Close()
}

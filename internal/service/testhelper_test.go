package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/runnerstay/booking-service/config"
	"github.com/runnerstay/booking-service/internal/models"
	"github.com/runnerstay/booking-service/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ActivationLog{},
		&models.PointsTransaction{},
		&models.Property{},
		&models.Race{},
		&models.Booking{},
		&models.AvailabilityEntry{},
		&models.Subscription{},
		&models.BillingEvent{},
	))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		FallbackRatePerNight:  30,
		HostPenaltyFloor:      100,
		RenewalBonusPoints:    50,
		HostingRewardPerNight: 40,
		HostResponseDeadline:  48 * time.Hour,
		RefundPercentFlexible: 100,
		RefundPercentModerate: 50,
		RefundPercentStrict:   0,
		FullRefundCutoff:      30 * 24 * time.Hour,
		SchedulerInterval:     time.Minute,
	}
}

// recordingPublisher captures routing keys so tests can assert which
// lifecycle events a transition emitted.
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) published(routingKey string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, k := range p.keys {
		if k == routingKey {
			n++
		}
	}
	return n
}

// stack wires the full service graph against one test database.
type stack struct {
	db           *gorm.DB
	cfg          *config.Config
	publisher    *recordingPublisher
	users        repository.UserRepository
	bookings     repository.BookingRepository
	accounts     AccountService
	ledger       LedgerService
	cost         CostService
	availability AvailabilityService
	booking      BookingService
	subs         SubscriptionService
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db := newTestDB(t)
	cfg := testConfig()
	pub := &recordingPublisher{}

	userRepo := repository.NewUserRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	raceRepo := repository.NewRaceRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)

	accounts := NewAccountService(userRepo, pub)
	ledger := NewLedgerService(userRepo, txnRepo, accounts)
	cost := NewCostService(raceRepo, cfg)
	availability := NewAvailabilityService(availabilityRepo)
	booking := NewBookingService(bookingRepo, userRepo, raceRepo, ledger, cost, availability, pub, cfg)
	subs := NewSubscriptionService(subRepo, userRepo, raceRepo, bookingRepo, ledger, accounts, booking, pub, cfg)

	return &stack{
		db:           db,
		cfg:          cfg,
		publisher:    pub,
		users:        userRepo,
		bookings:     bookingRepo,
		accounts:     accounts,
		ledger:       ledger,
		cost:         cost,
		availability: availability,
		booking:      booking,
		subs:         subs,
	}
}

// createUser seeds an account and grants its starting points through the
// ledger, so the balance always matches the transaction sum.
func (s *stack) createUser(t *testing.T, name string, points int) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@example.com", IsActive: true}
	require.NoError(t, s.db.Create(user).Error)
	if points > 0 {
		_, err := s.ledger.Credit(context.Background(), EntryInput{
			UserID:      user.ID,
			Amount:      points,
			Type:        models.TxSubscriptionBonus,
			Description: "signup grant",
		})
		require.NoError(t, err)
		user.PointsBalance = points
	}
	return user
}

func (s *stack) createProperty(t *testing.T, hostID uint, province string, policy models.CancellationPolicy) *models.Property {
	t.Helper()
	property := &models.Property{
		HostID:             hostID,
		Name:               "Casa " + province,
		Province:           province,
		MaxGuests:          4,
		CancellationPolicy: policy,
		Active:             true,
	}
	require.NoError(t, s.db.Create(property).Error)
	return property
}

func (s *stack) createRace(t *testing.T, propertyID uint, province string, start time.Time) *models.Race {
	t.Helper()
	race := &models.Race{
		PropertyID: propertyID,
		Name:       "Marathon " + province,
		Province:   province,
		StartDate:  start,
		Available:  true,
		Active:     true,
	}
	require.NoError(t, s.db.Create(race).Error)
	return race
}

func (s *stack) balance(t *testing.T, userID uint) int {
	t.Helper()
	balance, err := s.ledger.Balance(context.Background(), userID)
	require.NoError(t, err)
	return balance
}

// requireConserved asserts the core ledger invariant: the stored balance
// equals the sum of the user's transaction amounts.
func (s *stack) requireConserved(t *testing.T, userID uint) {
	t.Helper()
	require.NoError(t, s.ledger.VerifyIntegrity(context.Background(), userID))
}

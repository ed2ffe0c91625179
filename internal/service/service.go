// Package service is the write path of the platform. Each operation runs as a
// single unit of work: the domain write and the aggregate update it triggers
// commit or roll back together, and committed events are published afterwards.
package service

import (
	"errors"
	"os"
	"time"

	"github.com/moby/locker"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"brickfund/config"
	"brickfund/internal/aggregate"
	"brickfund/internal/analytics"
	"brickfund/internal/models"
)

var (
	ErrPropertyNotFound       = errors.New("property not found")
	ErrInvestmentNotFound     = errors.New("investment not found")
	ErrReviewNotFound         = errors.New("review not found")
	ErrInvalidProperty        = errors.New("invalid property")
	ErrInvalidInvestment      = errors.New("invalid investment")
	ErrInvalidReview          = errors.New("invalid review")
	ErrBelowMinimumInvestment = errors.New("amount is below the minimum investment")
	ErrPropertyNotOpen        = errors.New("property is not open for investment")
	ErrInsufficientTokens     = errors.New("not enough tokens remaining")
	ErrInvalidTokenomics      = errors.New("invalid tokenomics")
	ErrInvalidDistribution    = errors.New("token distribution must sum to 100")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrUnsupportedCategory    = errors.New("unsupported category")
	ErrDuplicateReview        = errors.New("reviewer already reviewed this property")
)

// Publisher receives committed domain events.
type Publisher interface {
	Push(event models.DomainEvent) error
}

type Service struct {
	db         *gorm.DB
	aggregates *aggregate.Engine
	analytics  *analytics.Engine
	events     Publisher
	locks      *locker.Locker
	maxRetries int
	retryDelay time.Duration
	now        func() time.Time
	logger     *logrus.Logger
}

// NewService wires the aggregate and analytics engines over db. events may be
// nil when nobody listens for committed events.
func NewService(db *gorm.DB, events Publisher, cfg *config.Config, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	s := &Service{
		db:         db,
		aggregates: aggregate.NewEngine(db, logger),
		analytics:  analytics.NewEngine(db, logger),
		events:     events,
		locks:      locker.New(),
		retryDelay: 50 * time.Millisecond,
		maxRetries: 3,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger,
	}
	if cfg != nil {
		s.maxRetries = cfg.UnitOfWork.MaxRetries
		s.retryDelay = cfg.UnitOfWork.RetryDelay
	}
	return s
}

// SetClock replaces the time source used for defaults and report anchors.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) publish(events ...models.DomainEvent) {
	if s.events == nil {
		return
	}
	for _, event := range events {
		if event.OccurredAt.IsZero() {
			event.OccurredAt = s.now()
		}
		if err := s.events.Push(event); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"event":       event.Type,
				"property_id": event.PropertyID,
			}).Warn("Failed to publish committed event")
		}
	}
}

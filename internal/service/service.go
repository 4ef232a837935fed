package service

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/thandalhq/thandal-engine/internal/clock"
	"github.com/thandalhq/thandal-engine/internal/config"
	"github.com/thandalhq/thandal-engine/internal/repository"
)

// LedgerService is the repayment ledger and scheduling engine. It owns loan
// issuance, payment classification, the day-close sweep, capital tracking
// and risk scoring.
type LedgerService struct {
	LoanRepo      repository.LoanRepository
	RepaymentRepo repository.RepaymentRepository
	CapitalRepo   repository.CapitalRepository
	BorrowerRepo  repository.BorrowerRepository
	Clock         clock.Clock

	redis  *redis.Client
	config *config.Config
	log    *logrus.Logger
}

func NewLedgerService(
	loanRepo repository.LoanRepository,
	repaymentRepo repository.RepaymentRepository,
	capitalRepo repository.CapitalRepository,
	borrowerRepo repository.BorrowerRepository,
	redisClient *redis.Client,
	cfg *config.Config,
	log *logrus.Logger,
) *LedgerService {
	return &LedgerService{
		LoanRepo:      loanRepo,
		RepaymentRepo: repaymentRepo,
		CapitalRepo:   capitalRepo,
		BorrowerRepo:  borrowerRepo,
		Clock:         clock.System{},
		redis:         redisClient,
		config:        cfg,
		log:           log,
	}
}

func (s *LedgerService) logger() *logrus.Logger {
	if s.log != nil {
		return s.log
	}
	return logrus.StandardLogger()
}

package debt

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/kassa-pos/kassa/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetClient(ctx context.Context, clientID int64) (Client, error)
	ListClientDebts(ctx context.Context, clientID int64) ([]Debt, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates client debt operations.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds Service. audit may be nil.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger}
}

// PayDebt records a repayment against one debt and lowers the client balance.
func (s *Service) PayDebt(ctx context.Context, input PayDebtInput) (Payment, error) {
	if !input.Amount.IsPositive() || !shared.FitsMoney(input.Amount) {
		return Payment{}, ErrInvalidAmount
	}
	var payment Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		d, err := tx.LockDebt(ctx, input.DebtID)
		if err != nil {
			return err
		}
		outstanding := d.Outstanding()
		if input.Amount.GreaterThan(outstanding) {
			return fmt.Errorf("%w: outstanding %s, paying %s", ErrInvalidAmount, outstanding, input.Amount)
		}
		if err := tx.SaveDebtPaid(ctx, d.ID, d.Paid.Add(input.Amount)); err != nil {
			return fmt.Errorf("debt: save paid: %w", err)
		}
		if _, err := Reduce(ctx, tx, d.ClientID, input.Amount); err != nil {
			return err
		}
		payment, err = tx.InsertDebtPayment(ctx, Payment{
			DebtID:      d.ID,
			ClientID:    d.ClientID,
			Amount:      input.Amount,
			CreatedByID: input.ActorID,
		})
		if err != nil {
			return fmt.Errorf("debt: insert payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return Payment{}, err
	}
	s.logger.Info("debt payment recorded", slog.Int64("debt_id", payment.DebtID), slog.Int64("client_id", payment.ClientID), slog.String("amount", payment.Amount.String()))
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "debts:pay",
			Entity:   "debt",
			EntityID: strconv.FormatInt(payment.DebtID, 10),
			Meta:     map[string]any{"amount": payment.Amount.String(), "client_id": payment.ClientID},
		}); err != nil {
			s.logger.Warn("audit debt payment", slog.Any("error", err))
		}
	}
	return payment, nil
}

// GetClient returns a client and its balance.
func (s *Service) GetClient(ctx context.Context, clientID int64) (Client, error) {
	return s.repo.GetClient(ctx, clientID)
}

// ListClientDebts returns the client together with its debts.
func (s *Service) ListClientDebts(ctx context.Context, clientID int64) (ClientDebts, error) {
	client, err := s.repo.GetClient(ctx, clientID)
	if err != nil {
		return ClientDebts{}, err
	}
	debts, err := s.repo.ListClientDebts(ctx, clientID)
	if err != nil {
		return ClientDebts{}, err
	}
	return ClientDebts{Client: client, Debts: debts}, nil
}

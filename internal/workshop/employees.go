package workshop

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kassa-pos/kassa/internal/shared"
)

// CreateEmployee registers a workshop employee with zero accrued salary.
func (s *Service) CreateEmployee(ctx context.Context, actor shared.Actor, input EmployeeInput) (Employee, error) {
	first := strings.TrimSpace(input.FirstName)
	if first == "" {
		return Employee{}, ErrNameRequired
	}
	if _, err := s.Branch(ctx, actor); err != nil {
		return Employee{}, err
	}
	var created Employee
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		created, err = tx.InsertEmployee(ctx, Employee{
			FirstName: first,
			LastName:  trimmed(input.LastName),
			Phone:     trimmed(input.Phone),
			Position:  trimmed(input.Position),
			Active:    true,
		})
		return err
	})
	if err != nil {
		return Employee{}, err
	}
	s.audit(ctx, actor.ID, "workshop:employee_create", "workshop_employee", created.ID, nil)
	return created, nil
}

// UpdateEmployee edits an employee's profile. Total salary is never set here.
func (s *Service) UpdateEmployee(ctx context.Context, actor shared.Actor, id int64, input EmployeeUpdate) (Employee, error) {
	if input.FirstName != nil && strings.TrimSpace(*input.FirstName) == "" {
		return Employee{}, ErrNameRequired
	}
	if _, err := s.Branch(ctx, actor); err != nil {
		return Employee{}, err
	}
	var saved Employee
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		emp, err := tx.LockEmployee(ctx, id)
		if err != nil {
			return err
		}
		if input.FirstName != nil {
			emp.FirstName = strings.TrimSpace(*input.FirstName)
		}
		if input.LastName != nil {
			emp.LastName = trimmed(input.LastName)
		}
		if input.Phone != nil {
			emp.Phone = trimmed(input.Phone)
		}
		if input.Position != nil {
			emp.Position = trimmed(input.Position)
		}
		if input.Active != nil {
			emp.Active = *input.Active
		}
		saved, err = tx.SaveEmployee(ctx, emp)
		return err
	})
	if err != nil {
		return Employee{}, err
	}
	s.audit(ctx, actor.ID, "workshop:employee_update", "workshop_employee", saved.ID, nil)
	return saved, nil
}

// DeactivateEmployee retires an employee. Payout history keeps referencing
// the row, so employees are never hard-deleted.
func (s *Service) DeactivateEmployee(ctx context.Context, actor shared.Actor, id int64) error {
	inactive := false
	if _, err := s.UpdateEmployee(ctx, actor, id, EmployeeUpdate{Active: &inactive}); err != nil {
		return err
	}
	s.deps.Logger.Info("workshop employee deactivated", slog.Int64("employee_id", id))
	return nil
}

// GetEmployee returns one employee.
func (s *Service) GetEmployee(ctx context.Context, actor shared.Actor, id int64) (Employee, error) {
	if _, err := s.Branch(ctx, actor); err != nil {
		return Employee{}, err
	}
	return s.repo.GetEmployee(ctx, id)
}

// ListEmployees searches employees; inactive ones only on request.
func (s *Service) ListEmployees(ctx context.Context, actor shared.Actor, filter EmployeeFilter) ([]Employee, error) {
	if _, err := s.Branch(ctx, actor); err != nil {
		return nil, err
	}
	return s.repo.ListEmployees(ctx, filter)
}

package customer

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrPhoneInUse       = errors.New("phone number already registered for this tenant")
	ErrInvalidStatus    = errors.New("status must be active or inactive")
)

// Service handles customer business logic
type Service struct {
	repo *Repository
}

// NewService creates a new customer service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new customer under a tenant
func (s *Service) Create(ctx context.Context, tenantID int64, req *CreateCustomerRequest) (*Customer, error) {
	existing, err := s.repo.GetByPhone(ctx, tenantID, req.Phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrPhoneInUse
	}

	return s.repo.Create(ctx, tenantID, req)
}

// GetByID retrieves a customer scoped to a tenant
func (s *Service) GetByID(ctx context.Context, tenantID, id int64) (*Customer, error) {
	c, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCustomerNotFound
	}
	return c, nil
}

// List retrieves customers for a tenant
func (s *Service) List(ctx context.Context, tenantID int64, page, perPage int) ([]*Customer, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.List(ctx, tenantID, perPage, offset)
}

// Balance returns a customer's current closing balance
func (s *Service) Balance(ctx context.Context, tenantID, id int64) (decimal.Decimal, error) {
	balance, err := s.repo.Balance(ctx, tenantID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrCustomerNotFound
	}
	return balance, err
}

// UpdateStatus toggles a customer's service status
func (s *Service) UpdateStatus(ctx context.Context, tenantID, id int64, status string) (*Customer, error) {
	if status != string(StatusActive) && status != string(StatusInactive) {
		return nil, ErrInvalidStatus
	}

	c, err := s.repo.UpdateStatus(ctx, tenantID, id, Status(status))
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCustomerNotFound
	}
	return c, nil
}

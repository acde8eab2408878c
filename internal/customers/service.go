package customers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jobtrack-backend/internal/audit"
)

type Service struct {
	Repo  Repo
	Audit *audit.Recorder

	// now is swappable for tests.
	now func() time.Time
}

func NewService(repo Repo, recorder *audit.Recorder) *Service {
	return &Service{Repo: repo, Audit: recorder, now: time.Now}
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

type CreateInput struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	TargetedAmount float64 `json:"targetedAmount"`
	CreatedBy      string  `json:"-"`
}

// Create registers a new active customer. The email is globally unique;
// the phone is exactly ten digits; the targeted amount is at least 1.
func (s *Service) Create(ctx context.Context, input CreateInput) (Customer, error) {
	name := strings.TrimSpace(input.Name)
	if len(name) < 3 {
		return Customer{}, fmt.Errorf("%w: name must be at least 3 characters", ErrValidation)
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return Customer{}, fmt.Errorf("%w: email is required", ErrValidation)
	}
	phone := strings.TrimSpace(input.Phone)
	if !validPhone(phone) {
		return Customer{}, fmt.Errorf("%w: phone must be exactly 10 digits", ErrValidation)
	}
	if input.TargetedAmount < 1 {
		return Customer{}, fmt.Errorf("%w: targeted amount must be at least 1", ErrValidation)
	}

	taken, err := s.Repo.EmailExists(ctx, email)
	if err != nil {
		return Customer{}, err
	}
	if taken {
		return Customer{}, ErrEmailTaken
	}

	now := s.clock()
	customer := Customer{
		ID:             NewCustomerID(now),
		Name:           name,
		Email:          email,
		Phone:          phone,
		TargetedAmount: input.TargetedAmount,
		IsActive:       true,
		CreatedBy:      input.CreatedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Create(ctx, customer); err != nil {
		return Customer{}, err
	}

	s.Audit.Action(ctx, audit.SubjectCustomer, customer.ID, "created", input.CreatedBy, map[string]string{
		"name":  customer.Name,
		"email": customer.Email,
	})
	s.Audit.Event(ctx, "customer.created", customer.ID, input.CreatedBy, map[string]string{
		"name":  customer.Name,
		"email": customer.Email,
	})
	return customer, nil
}

// ToggleActive flips the customer's active flag and returns the new state.
func (s *Service) ToggleActive(ctx context.Context, customerID, performedBy string) (bool, error) {
	customer, err := s.Repo.GetByID(ctx, customerID)
	if err != nil {
		return false, err
	}
	active := !customer.IsActive
	if err := s.Repo.SetActive(ctx, customerID, active); err != nil {
		return false, err
	}

	action := "deactivated"
	if active {
		action = "activated"
	}
	s.Audit.Action(ctx, audit.SubjectCustomer, customerID, action, performedBy, map[string]string{
		"is_active": fmt.Sprintf("%t", active),
	})
	s.Audit.Event(ctx, "customer."+action, customerID, performedBy, map[string]string{
		"name": customer.Name,
	})
	return active, nil
}

func (s *Service) Get(ctx context.Context, customerID string) (Customer, error) {
	return s.Repo.GetByID(ctx, customerID)
}

func (s *Service) List(ctx context.Context) ([]Customer, error) {
	return s.Repo.List(ctx)
}

func validPhone(phone string) bool {
	if len(phone) != 10 {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package customers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"jobtrack-backend/internal/audit"
)

func newTestService(t *testing.T) (*Service, *audit.MemoryRepo) {
	t.Helper()
	auditRepo := audit.NewMemoryRepo()
	svc := NewService(NewMemoryRepo(), audit.NewRecorder(auditRepo))
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Millisecond)
	}
	return svc, auditRepo
}

func validCreateInput() CreateInput {
	return CreateInput{
		Name:           "Acme Corp",
		Email:          "billing@acme.example",
		Phone:          "9876543210",
		TargetedAmount: 5000,
		CreatedBy:      "marketing-1",
	}
}

func TestCreateCustomer(t *testing.T) {
	svc, auditRepo := newTestService(t)
	ctx := context.Background()

	customer, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(customer.ID, "CUST-") {
		t.Fatalf("id = %q, want CUST- prefix", customer.ID)
	}
	if !customer.IsActive {
		t.Fatalf("new customer not active")
	}

	actions, err := auditRepo.ListActionsForSubject(ctx, audit.SubjectCustomer, customer.ID, 10)
	if err != nil {
		t.Fatalf("ListActions: %v", err)
	}
	if len(actions) != 1 || actions[0].Action != "created" {
		t.Fatalf("actions = %+v, want one created entry", actions)
	}
}

func TestCreateCustomerValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"short name", func(in *CreateInput) { in.Name = "Ab" }},
		{"missing email", func(in *CreateInput) { in.Email = "" }},
		{"short phone", func(in *CreateInput) { in.Phone = "12345" }},
		{"non-digit phone", func(in *CreateInput) { in.Phone = "98765x3210" }},
		{"zero targeted amount", func(in *CreateInput) { in.TargetedAmount = 0 }},
	}
	for _, c := range cases {
		input := validCreateInput()
		c.mutate(&input)
		if _, err := svc.Create(ctx, input); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: err = %v, want ErrValidation", c.name, err)
		}
	}
}

func TestCreateCustomerRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validCreateInput()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	input := validCreateInput()
	input.Email = strings.ToUpper(input.Email)
	if _, err := svc.Create(ctx, input); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestToggleActive(t *testing.T) {
	svc, auditRepo := newTestService(t)
	ctx := context.Background()

	customer, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	active, err := svc.ToggleActive(ctx, customer.ID, "marketing-1")
	if err != nil {
		t.Fatalf("ToggleActive: %v", err)
	}
	if active {
		t.Fatalf("expected customer deactivated")
	}
	stored, err := svc.Get(ctx, customer.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.IsActive {
		t.Fatalf("stored customer still active")
	}

	active, err = svc.ToggleActive(ctx, customer.ID, "marketing-1")
	if err != nil {
		t.Fatalf("second ToggleActive: %v", err)
	}
	if !active {
		t.Fatalf("expected customer reactivated")
	}

	actions, err := auditRepo.ListActionsForSubject(ctx, audit.SubjectCustomer, customer.ID, 10)
	if err != nil {
		t.Fatalf("ListActions: %v", err)
	}
	var names []string
	for _, entry := range actions {
		names = append(names, entry.Action)
	}
	if len(names) != 3 || names[0] != "activated" || names[1] != "deactivated" || names[2] != "created" {
		t.Fatalf("actions = %v, want [activated deactivated created]", names)
	}
}

func TestToggleUnknownCustomer(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.ToggleActive(context.Background(), "CUST-0", "marketing-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

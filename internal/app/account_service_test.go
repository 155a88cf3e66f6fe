package app_test

import (
	"context"
	"errors"
	"testing"

	"bankprep-service/internal/app"
	"bankprep-service/internal/domain"
	"bankprep-service/internal/infra/memory"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	accounts := app.NewAccountService(memory.NewStore())

	user, err := accounts.Register(ctx, "Asha", "Asha@Example.com", "s3cret99", domain.RoleStudent)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "asha@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.PasswordHash == "" || user.PasswordHash == "s3cret99" {
		t.Fatal("password must be stored hashed")
	}

	logged, err := accounts.Login(ctx, "asha@example.com", "s3cret99")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != user.ID {
		t.Fatalf("expected the registered account, got %s", logged.ID)
	}

	if _, err := accounts.Login(ctx, "asha@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for bad password, got %v", err)
	}
	if _, err := accounts.Login(ctx, "nobody@example.com", "s3cret99"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	accounts := app.NewAccountService(memory.NewStore())

	if _, err := accounts.Register(ctx, "Asha", "asha@example.com", "s3cret99", domain.RoleStudent); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := accounts.Register(ctx, "Imposter", "asha@example.com", "other123", domain.RoleStudent); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
}

func TestRegisterForcesStudentRole(t *testing.T) {
	ctx := context.Background()
	accounts := app.NewAccountService(memory.NewStore())

	user, err := accounts.Register(ctx, "Sneaky", "sneaky@example.com", "s3cret99", "superuser")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != domain.RoleStudent {
		t.Fatalf("unknown roles must fall back to student, got %q", user.Role)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	accounts := app.NewAccountService(memory.NewStore())

	cases := [][3]string{
		{"", "a@example.com", "s3cret99"},
		{"Asha", "", "s3cret99"},
		{"Asha", "a@example.com", "short"},
	}
	for _, c := range cases {
		if _, err := accounts.Register(ctx, c[0], c[1], c[2], domain.RoleStudent); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("expected invalid credentials for %v, got %v", c, err)
		}
	}
}

package tests

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestSignupAndLogin(t *testing.T) {
	env := setupTestEnv(t)

	for i := 0; i < 5; i++ {
		email := fmt.Sprintf("user%d@mail.com", i)
		password := fmt.Sprintf("user%d_password", i)

		client := env.newClient()
		if err := client.signup(email, password); err != nil {
			t.Fatal(err)
		}

		if err := client.signup(email, password); err == nil {
			t.Fatal("duplicate signup should fail")
		}

		if err := client.login(email, "wrong_password"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("login with wrong password should be unauthorized, got %v", err)
		}

		if err := client.login("missing@mail.com", password); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("login with unknown email should be unauthorized, got %v", err)
		}

		if err := client.login(email, password); err != nil {
			t.Fatal(err)
		}
		if client.email != email || client.isAdmin {
			t.Fatalf("unexpected login result email=%v is_admin=%v", client.email, client.isAdmin)
		}
	}
}

func TestSignupValidation(t *testing.T) {
	env := setupTestEnv(t)
	client := env.newClient()

	if err := client.signup("not-an-email", "password123"); err == nil {
		t.Fatal("signup with invalid email should fail")
	}

	if err := client.signup("short@mail.com", "abc"); err == nil {
		t.Fatal("signup with short password should fail")
	}
}

func TestDefaultAccounts(t *testing.T) {
	env := setupTestEnv(t)

	admin := env.adminClient(t)
	if !admin.isAdmin {
		t.Fatal("seeded admin account should have admin rights")
	}

	user := env.userClient(t)
	if user.isAdmin {
		t.Fatal("seeded user account should not have admin rights")
	}

	demo := env.loginAs(t, "demo@example.com", "demo123")
	if demo.isAdmin {
		t.Fatal("seeded demo account should not have admin rights")
	}
}

func TestUserInfo(t *testing.T) {
	env := setupTestEnv(t)

	client := env.userClient(t)

	var info struct {
		Email     string    `json:"email"`
		CreatedAt time.Time `json:"created_at"`
		IsAdmin   bool      `json:"is_admin"`
	}
	if err := client.Get("/me").Do(&info); err != nil {
		t.Fatal(err)
	}

	if info.Email != userEmail || info.IsAdmin {
		t.Fatalf("invalid info %+v", info)
	}
}

func TestMeRequiresAuth(t *testing.T) {
	env := setupTestEnv(t)

	client := env.newClient()
	if err := client.Get("/me").Do(nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

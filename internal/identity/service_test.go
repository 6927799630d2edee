package identity

import (
	"context"
	"errors"
	"testing"
)

func validSignup() SignupInput {
	return SignupInput{
		Email:     "a@b.com",
		FirstName: "A",
		LastName:  "B",
		Password:  "Passw0rd",
	}
}

func TestSignupAndLogin(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	user, err := svc.Signup(ctx, validSignup())
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.Email != "a@b.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if string(user.PasswordHash) == "Passw0rd" {
		t.Fatal("password stored in plaintext")
	}

	logged, err := svc.Login(ctx, "a@b.com", "Passw0rd")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, logged.ID)
	}
}

func TestSignupEmailConflictCaseInsensitive(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Signup(ctx, validSignup()); err != nil {
		t.Fatalf("signup: %v", err)
	}

	in := validSignup()
	in.Email = "A@B.com"
	in.FirstName = "X"
	in.LastName = "Y"
	in.Password = "Different1"
	if _, err := svc.Signup(ctx, in); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Signup(ctx, validSignup()); err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, errWrongPw := svc.Login(ctx, "a@b.com", "not-the-password")
	_, errNoUser := svc.Login(ctx, "missing@b.com", "whatever1")

	if !errors.Is(errWrongPw, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", errWrongPw)
	}
	if !errors.Is(errNoUser, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", errNoUser)
	}
	if errWrongPw.Error() != errNoUser.Error() {
		t.Fatalf("failure messages differ: %q vs %q", errWrongPw, errNoUser)
	}
}

func TestSignupRejectsWeakPassword(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	in := validSignup()
	in.Password = "short"
	if _, err := svc.Signup(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	user, err := svc.Signup(ctx, validSignup())
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	if err := svc.UpdatePassword(ctx, user.ID, "NewPass1"); err != nil {
		t.Fatalf("update password: %v", err)
	}

	if _, err := svc.Login(ctx, "a@b.com", "Passw0rd"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password should be rejected, got %v", err)
	}
	if _, err := svc.Login(ctx, "a@b.com", "NewPass1"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	if err := svc.UpdatePassword(ctx, "4c8b3bd2-0000-0000-0000-000000000000", "NewPass1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fabline/mes-backend/internal/data/repos"
	"github.com/fabline/mes-backend/internal/data/repos/testutil"
	pkgerrors "github.com/fabline/mes-backend/internal/pkg/errors"
	"github.com/fabline/mes-backend/internal/types"
)

func newAuthService(t *testing.T) AuthService {
	t.Helper()
	log := testutil.Logger(t)
	tx := testutil.Tx(t, testutil.DB(t))
	return NewAuthService(log, repos.NewUserRepo(tx, log), "test-secret", time.Hour)
}

func TestRegisterLoginRoundtrip(t *testing.T) {
	auth := newAuthService(t)
	ctx := context.Background()

	reg, err := auth.Register(ctx, "master1", "correct horse", types.RoleMaster)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.Token == "" {
		t.Error("register should issue a token")
	}
	if reg.User.PasswordHash == "correct horse" {
		t.Error("password must be hashed")
	}

	res, err := auth.Login(ctx, "master1", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := auth.Validate(res.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != reg.User.ID || claims.Role != types.RoleMaster {
		t.Errorf("claims do not match the registered user: %+v", claims)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	auth := newAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "op1", "password-one", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := auth.Login(ctx, "op1", "password-two")
	if !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Errorf("wrong password should be unauthorized, got %v", err)
	}
	_, err = auth.Login(ctx, "nobody", "password-one")
	if !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Errorf("unknown user should be unauthorized, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	auth := newAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "op2", "short", ""); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Errorf("short password should be rejected, got %v", err)
	}
	if _, err := auth.Register(ctx, "op2", "long enough", "SUPERVISOR"); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Errorf("unknown role should be rejected, got %v", err)
	}

	if _, err := auth.Register(ctx, "op2", "long enough", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := auth.Register(ctx, "op2", "long enough", ""); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Errorf("duplicate username should be rejected, got %v", err)
	}
}

func TestValidateRejectsForeignToken(t *testing.T) {
	issuer := newAuthService(t)

	res, err := issuer.Register(context.Background(), "op3", "long enough", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	other := NewAuthService(testutil.Logger(t), nil, "other-secret", time.Hour)
	if _, err := other.Validate(res.Token); !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Errorf("token signed with a different secret must fail, got %v", err)
	}
	if _, err := issuer.Validate("not-a-token"); !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Errorf("garbage token must fail, got %v", err)
	}
}

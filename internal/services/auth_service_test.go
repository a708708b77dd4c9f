package services_test

import (
	"testing"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/davidiwezulu/ecommerce/internal/repos"
	"github.com/davidiwezulu/ecommerce/internal/services"
)

func newAuthService(t *testing.T) *services.AuthService {
	t.Helper()
	db := memdb(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	db.MustExec(`INSERT INTO users(id,email,name,password_hash,role)
		VALUES('u-demo','demo@ecommerce.test','Demo',?,'USER')`, string(hash))
	return services.NewAuthService(repos.NewUserRepo(db))
}

func TestLogin_BindsSession(t *testing.T) {
	svc := newAuthService(t)

	u, err := svc.Login("sid-1", "demo@ecommerce.test", "Passw0rd!")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != "u-demo" {
		t.Fatalf("user = %s", u.ID)
	}

	cur, err := svc.CurrentUser("sid-1")
	if err != nil {
		t.Fatal(err)
	}
	if cur == nil || cur.ID != "u-demo" {
		t.Fatalf("session not bound: %+v", cur)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := newAuthService(t)

	// Wrong password and unknown email fail identically.
	if _, err := svc.Login("sid-1", "demo@ecommerce.test", "wrong"); !errors.Is(err, services.ErrBadCreds) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := svc.Login("sid-1", "nobody@ecommerce.test", "Passw0rd!"); !errors.Is(err, services.ErrBadCreds) {
		t.Fatalf("unknown email: %v", err)
	}

	// Neither attempt may have bound the session.
	cur, err := svc.CurrentUser("sid-1")
	if err != nil {
		t.Fatal(err)
	}
	if cur != nil {
		t.Fatalf("session bound on failed login: %+v", cur)
	}
}

func TestLogout_UnbindsSession(t *testing.T) {
	svc := newAuthService(t)

	if _, err := svc.Login("sid-1", "demo@ecommerce.test", "Passw0rd!"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout("sid-1"); err != nil {
		t.Fatal(err)
	}
	cur, err := svc.CurrentUser("sid-1")
	if err != nil {
		t.Fatal(err)
	}
	if cur != nil {
		t.Fatalf("session survived logout: %+v", cur)
	}
}

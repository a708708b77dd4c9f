package services

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/pkg/errors"

	"github.com/davidiwezulu/ecommerce/internal/domain"
	"github.com/davidiwezulu/ecommerce/internal/repos"
)

// ErrBadCreds deliberately covers both an unknown email and a wrong password
// so responses cannot be used to enumerate accounts.
var ErrBadCreds = errors.New("invalid email or password")

// AuthService binds sessions to accounts. Checkout itself works for guests;
// authentication exists for order history and the admin surface.
type AuthService struct {
	Users *repos.UserRepo
}

func NewAuthService(users *repos.UserRepo) *AuthService {
	return &AuthService{Users: users}
}

// Login verifies credentials and binds the session to the account.
func (s *AuthService) Login(sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, errors.Wrap(err, "bind session")
	}
	return u, nil
}

// Logout detaches the account from the session; the session id itself stays
// valid as a guest cart key.
func (s *AuthService) Logout(sid string) error {
	return errors.Wrap(s.Users.UnbindSession(sid), "logout")
}

// CurrentUser resolves a session to its account, nil when anonymous.
func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Users.SessionUser(sid)
}

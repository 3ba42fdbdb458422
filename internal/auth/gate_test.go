package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/SLDem/BlogApp/internal/models"
	"github.com/SLDem/BlogApp/internal/util"
)

type fakeUsers map[string]*models.User

func (f fakeUsers) UserByEmail(email string) (*models.User, error) {
	if u, ok := f[email]; ok {
		return u, nil
	}
	return nil, errors.New("no such user")
}

func TestGateAuthenticate(t *testing.T) {
	clock := util.NewStubClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	ts := newTestTokenService(clock)
	users := fakeUsers{"a@x.com": {ID: 1, Email: "a@x.com"}}
	gate := NewGate(ts, users)

	token, err := ts.Issue("a@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	user, err := gate.Authenticate(token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.Email != "a@x.com" || user.ID != 1 {
		t.Fatalf("wrong user: %+v", user)
	}
}

func TestGateUniformFailures(t *testing.T) {
	clock := util.NewStubClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	ts := newTestTokenService(clock)
	gate := NewGate(ts, fakeUsers{"a@x.com": {ID: 1, Email: "a@x.com"}})

	// valid token, no matching user
	ghost, err := ts.Issue("gone@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := gate.Authenticate(ghost); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unknown subject: err = %v, want ErrUnauthorized", err)
	}

	// malformed token
	if _, err := gate.Authenticate("garbage"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("bad token: err = %v, want ErrUnauthorized", err)
	}

	// expired token
	token, err := ts.Issue("a@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	clock.Advance(time.Hour)
	if _, err := gate.Authenticate(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expired token: err = %v, want ErrUnauthorized", err)
	}
}

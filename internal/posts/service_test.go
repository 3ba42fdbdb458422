package posts

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/SLDem/BlogApp/internal/cache"
	"github.com/SLDem/BlogApp/internal/db"
	"github.com/SLDem/BlogApp/internal/models"
	"github.com/SLDem/BlogApp/internal/util"
)

func newTestService(t *testing.T) (*Service, *models.User, *util.StubClock) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	id, err := models.CreateUser(database, "a@x.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	user, err := models.GetUserByEmail(database, "a@x.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.ID != id {
		t.Fatalf("user id = %d, want %d", user.ID, id)
	}

	clock := util.NewStubClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	return New(database, cache.New(100, 300*time.Second, clock)), user, clock
}

func TestCreateAndList(t *testing.T) {
	svc, user, _ := newTestService(t)

	id, err := svc.Create(user, "hello")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != 1 {
		t.Fatalf("post id = %d, want 1", id)
	}

	listing, err := svc.List(user)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listing) != 1 || listing[0].ID != 1 || listing[0].Text != "hello" {
		t.Fatalf("listing = %+v", listing)
	}
}

func TestListServesFromCache(t *testing.T) {
	svc, user, _ := newTestService(t)

	if _, err := svc.Create(user, "first"); err != nil {
		t.Fatalf("create: %v", err)
	}
	first, err := svc.List(user)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	// write behind the service's back: the cached listing must still be served
	if _, err := models.CreatePost(svc.db, user.ID, "sneaky"); err != nil {
		t.Fatalf("direct insert: %v", err)
	}
	second, err := svc.List(user)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(second) != len(first) {
		t.Fatalf("cache miss on unchanged read: %d vs %d posts", len(second), len(first))
	}
}

func TestCreateInvalidatesCache(t *testing.T) {
	svc, user, _ := newTestService(t)

	if _, err := svc.Create(user, "first"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.List(user); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := svc.Create(user, "second"); err != nil {
		t.Fatalf("create: %v", err)
	}
	listing, err := svc.List(user)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listing) != 2 {
		t.Fatalf("listing has %d posts after second create, want 2", len(listing))
	}
}

func TestDeleteNeverResurrects(t *testing.T) {
	svc, user, _ := newTestService(t)

	id, err := svc.Create(user, "hello")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// prime the cache
	if _, err := svc.List(user); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := svc.Delete(user, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	listing, err := svc.List(user)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, p := range listing {
		if p.ID == id {
			t.Fatal("deleted post resurrected from cache")
		}
	}
	if len(listing) != 0 {
		t.Fatalf("listing = %+v, want empty", listing)
	}
}

func TestDeleteNotFound(t *testing.T) {
	svc, user, _ := newTestService(t)

	if err := svc.Delete(user, 42); !errors.Is(err, models.ErrPostNotFound) {
		t.Fatalf("err = %v, want ErrPostNotFound", err)
	}
}

func TestDeleteForeignPost(t *testing.T) {
	svc, user, _ := newTestService(t)

	if _, err := models.CreateUser(svc.db, "b@x.com", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	other, err := models.GetUserByEmail(svc.db, "b@x.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	id, err := svc.Create(other, "not yours")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(user, id); !errors.Is(err, models.ErrPostNotFound) {
		t.Fatalf("err = %v, want ErrPostNotFound", err)
	}
}

func TestCreateSizeBoundary(t *testing.T) {
	svc, user, _ := newTestService(t)

	if _, err := svc.Create(user, strings.Repeat("a", MaxTextBytes)); err != nil {
		t.Fatalf("post of exactly %d bytes rejected: %v", MaxTextBytes, err)
	}
	if _, err := svc.Create(user, strings.Repeat("a", MaxTextBytes+1)); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("err = %v, want ErrPayloadTooLarge", err)
	}
	// the oversized post must not have been persisted
	listing, err := models.ListPostsByUser(svc.db, user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listing) != 1 {
		t.Fatalf("%d posts persisted, want 1", len(listing))
	}
}

package posts

import (
	"database/sql"
	"errors"

	"github.com/SLDem/BlogApp/internal/cache"
	"github.com/SLDem/BlogApp/internal/models"
)

// MaxTextBytes bounds the encoded size of a post body.
const MaxTextBytes = 1 << 20

var ErrPayloadTooLarge = errors.New("post text too large")

// Service implements create/list/delete for an already-authenticated user.
// Reads go through the listing cache; writes invalidate the owner's entry
// before returning so a follow-up read never sees stale data.
type Service struct {
	db    *sql.DB
	cache *cache.PostCache
}

func New(db *sql.DB, c *cache.PostCache) *Service {
	return &Service{db: db, cache: c}
}

// Create persists a new post owned by user and returns its id. The size
// check runs before anything touches the database.
func (s *Service) Create(user *models.User, text string) (int64, error) {
	if len(text) > MaxTextBytes {
		return 0, ErrPayloadTooLarge
	}
	id, err := models.CreatePost(s.db, user.ID, text)
	if err != nil {
		return 0, err
	}
	s.cache.Invalidate(user.Email)
	return id, nil
}

// List returns the user's posts in insertion order, serving from the cache
// when a fresh entry exists.
func (s *Service) List(user *models.User) ([]models.Post, error) {
	if listing, ok := s.cache.Get(user.Email); ok {
		return listing, nil
	}
	listing, err := models.ListPostsByUser(s.db, user.ID)
	if err != nil {
		return nil, err
	}
	s.cache.Put(user.Email, listing)
	return listing, nil
}

// Delete removes the user's post with the given id, failing with
// models.ErrPostNotFound when no such post is owned by the user.
func (s *Service) Delete(user *models.User, postID int64) error {
	if err := models.DeletePost(s.db, postID, user.ID); err != nil {
		return err
	}
	s.cache.Invalidate(user.Email)
	return nil
}

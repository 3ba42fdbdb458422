package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/SLDem/BlogApp/internal/auth"
	"github.com/SLDem/BlogApp/internal/cache"
	"github.com/SLDem/BlogApp/internal/models"
	"github.com/SLDem/BlogApp/internal/posts"
)

type Server struct {
	db         *sql.DB
	tokens     *auth.TokenService
	gate       *auth.Gate
	posts      *posts.Service
	validate   *validator.Validate
	log        *logrus.Logger
	bcryptCost int
}

func New(db *sql.DB, tokens *auth.TokenService, postCache *cache.PostCache, log *logrus.Logger, bcryptCost int) *Server {
	s := &Server{
		db:         db,
		tokens:     tokens,
		validate:   validator.New(),
		log:        log,
		bcryptCost: bcryptCost,
	}
	s.gate = auth.NewGate(tokens, dbUsers{db})
	s.posts = posts.New(db, postCache)
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/signup", s.handleSignup)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/addpost", s.requireAuth(s.handleAddPost))
	mux.HandleFunc("/getposts", s.requireAuth(s.handleGetPosts))
	mux.HandleFunc("/deletepost", s.requireAuth(s.handleDeletePost))
	return s.withRecover(s.withLogging(mux))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.routes().ServeHTTP(w, r)
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req signupRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid email or password too short")
		return
	}
	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if _, err := models.CreateUser(s.db, req.Email, hash); err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			s.writeError(w, http.StatusConflict, "email already registered")
			return
		}
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"message": "user created"})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	user, err := models.GetUserByEmail(s.db, req.Email)
	if err != nil || !auth.VerifyPassword(user.PasswordHash, req.Password) {
		s.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type addPostRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAddPost(w http.ResponseWriter, r *http.Request, user *models.User) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req addPostRequest
	if !s.decode(w, r, &req) {
		return
	}
	id, err := s.posts.Create(user, req.Text)
	if err != nil {
		if errors.Is(err, posts.ErrPayloadTooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "post too large")
			return
		}
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]int64{"postID": id})
}

func (s *Server) handleGetPosts(w http.ResponseWriter, r *http.Request, user *models.User) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	listing, err := s.posts.List(user)
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request, user *models.User) {
	if r.Method != http.MethodDelete {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	postID, err := strconv.ParseInt(r.URL.Query().Get("postID"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	if err := s.posts.Delete(user, postID); err != nil {
		if errors.Is(err, models.ErrPostNotFound) {
			s.writeError(w, http.StatusNotFound, "post not found")
			return
		}
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "post deleted"})
}

// requireAuth resolves the bearer token before the handler runs. The token
// arrives as the "token" request parameter; any failure is a uniform 401.
func (s *Server) requireAuth(next func(http.ResponseWriter, *http.Request, *models.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.gate.Authenticate(r.URL.Query().Get("token"))
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	}
}

// decode reads the JSON request body into v. Bodies are capped slightly
// above the post size limit so an oversized post still reaches the service's
// own check while anything absurd is cut off here.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, posts.MaxTextBytes+4096)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		s.writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Error("write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.WithError(err).Error("internal error")
	s.writeError(w, http.StatusInternalServerError, "internal error")
}

// dbUsers adapts the users table to the gate's lookup interface.
type dbUsers struct {
	db *sql.DB
}

func (u dbUsers) UserByEmail(email string) (*models.User, error) {
	return models.GetUserByEmail(u.db, email)
}

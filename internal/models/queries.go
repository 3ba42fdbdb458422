package models

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateEmail = errors.New("email already registered")
	ErrPostNotFound   = errors.New("post not found")
)

func CreateUser(db *sql.DB, email, passwordHash string) (int64, error) {
	res, err := db.Exec(`INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, passwordHash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return res.LastInsertId()
}

func GetUserByEmail(db *sql.DB, email string) (*User, error) {
	row := db.QueryRow(`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email)
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func CreatePost(db *sql.DB, userID int64, text string) (int64, error) {
	res, err := db.Exec(`INSERT INTO posts (user_id, text) VALUES (?, ?)`, userID, text)
	if err != nil {
		return 0, fmt.Errorf("create post: %w", err)
	}
	return res.LastInsertId()
}

// ListPostsByUser returns the user's posts in insertion order.
func ListPostsByUser(db *sql.DB, userID int64) ([]Post, error) {
	rows, err := db.Query(`SELECT id, user_id, text, created_at FROM posts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	posts := []Post{}
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Text, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// DeletePost removes the post only if it is owned by userID.
func DeletePost(db *sql.DB, postID, userID int64) error {
	res, err := db.Exec(`DELETE FROM posts WHERE id = ? AND user_id = ?`, postID, userID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return nil
}

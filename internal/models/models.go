package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Post struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userID"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

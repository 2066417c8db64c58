package main

import "time"

type user struct {
	ID           int       `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
}

type todoItem struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UserID      int       `json:"-"`
}

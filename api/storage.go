package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

// storage is the persistence capability the handlers program against.
// postgresStorage is the production adapter; tests use an in-memory fake.
type storage interface {
	getUserByUsername(username string) (*user, error)
	insertUser(u *user) error

	getTodoByID(id int) (*todoItem, error)
	getTodosForUser(userID int) ([]*todoItem, error)
	insertTodo(t *todoItem) error
	updateTodo(t *todoItem) error
	deleteTodo(t *todoItem) error
}

func openDB(cfg config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.db.maxOpenConnections)
	db.SetMaxIdleConns(cfg.db.maxIdleConnections)
	db.SetConnMaxIdleTime(cfg.db.maxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		return nil, err
	}

	return db, nil
}

type postgresStorage struct {
	db *sql.DB
}

func newPostgresStorage(db *sql.DB) *postgresStorage {
	return &postgresStorage{db: db}
}

func (s *postgresStorage) getUserByUsername(username string) (*user, error) {
	query := `SELECT id, created_at, username, email, password_hash
			  FROM users
			  WHERE username = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, username)
	var u user
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Username, &u.Email, &u.PasswordHash)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &u, nil
}

func (s *postgresStorage) insertUser(u *user) error {
	query := `INSERT INTO users (username, email, password_hash)
			  VALUES ($1, $2, $3)
			  RETURNING id, created_at`

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := s.db.QueryRowContext(ctx, query, u.Username, u.Email, u.PasswordHash)
	err := row.Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return errUsernameTaken
	}
	return err
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// failure. The register handler pre-checks the username, but two concurrent
// registrations can still race past that check.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
}

func (s *postgresStorage) getTodoByID(id int) (*todoItem, error) {
	query := `SELECT id, created_at, user_id, title, description, is_completed
			  FROM todos
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, id)
	var t todoItem
	err := row.Scan(&t.ID, &t.CreatedAt, &t.UserID, &t.Title, &t.Description, &t.IsCompleted)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &t, nil
}

func (s *postgresStorage) getTodosForUser(userID int) ([]*todoItem, error) {
	query := `SELECT id, created_at, user_id, title, description, is_completed
			  FROM todos
			  WHERE user_id = $1
			  ORDER BY id`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := []*todoItem{}
	for rows.Next() {
		var t todoItem
		err := rows.Scan(&t.ID, &t.CreatedAt, &t.UserID, &t.Title, &t.Description, &t.IsCompleted)
		if err != nil {
			return nil, err
		}
		todos = append(todos, &t)
	}
	return todos, rows.Err()
}

func (s *postgresStorage) insertTodo(t *todoItem) error {
	query := `INSERT INTO todos (user_id, title, description)
			  VALUES ($1, $2, $3)
			  RETURNING id, created_at, is_completed`

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := s.db.QueryRowContext(ctx, query, t.UserID, t.Title, t.Description)
	err := row.Scan(&t.ID, &t.CreatedAt, &t.IsCompleted)
	return err
}

func (s *postgresStorage) updateTodo(t *todoItem) error {
	query := `UPDATE todos SET title = $1, description = $2, is_completed = $3
			  WHERE id = $4`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, query, t.Title, t.Description, t.IsCompleted, t.ID)
	return err
}

func (s *postgresStorage) deleteTodo(t *todoItem) error {
	query := `DELETE FROM todos
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, query, t.ID)
	return err
}

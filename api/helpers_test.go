package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"
)

// memoryStorage is an in-memory storage fake. It hands out copies so tests
// can assert that failed operations left the stored records untouched.
type memoryStorage struct {
	mu         sync.Mutex
	users      map[int]*user
	todos      map[int]*todoItem
	lastUserID int
	lastTodoID int
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		users: make(map[int]*user),
		todos: make(map[int]*todoItem),
	}
}

func (s *memoryStorage) getUserByUsername(username string) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memoryStorage) insertUser(u *user) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return errUsernameTaken
		}
	}
	s.lastUserID++
	u.ID = s.lastUserID
	u.CreatedAt = time.Now().UTC()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memoryStorage) getTodoByID(id int) (*todoItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *memoryStorage) getTodosForUser(userID int) ([]*todoItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	todos := []*todoItem{}
	for _, t := range s.todos {
		if t.UserID == userID {
			cp := *t
			todos = append(todos, &cp)
		}
	}
	sort.Slice(todos, func(i, j int) bool { return todos[i].ID < todos[j].ID })
	return todos, nil
}

func (s *memoryStorage) insertTodo(t *todoItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTodoID++
	t.ID = s.lastTodoID
	t.CreatedAt = time.Now().UTC()
	t.IsCompleted = false
	cp := *t
	s.todos[t.ID] = &cp
	return nil
}

func (s *memoryStorage) updateTodo(t *todoItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.todos[t.ID]; ok {
		cp := *t
		s.todos[t.ID] = &cp
	}
	return nil
}

func (s *memoryStorage) deleteTodo(t *todoItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.todos, t.ID)
	return nil
}

func newTestApplication() *application {
	var cfg config
	cfg.env = "test"
	cfg.jwt = jwtConfig{
		secret:           []byte("test-secret-0123456789"),
		issuer:           "todoapi",
		audience:         "todoapi-clients",
		expiresInMinutes: 60,
	}
	return &application{
		config:  cfg,
		storage: newMemoryStorage(),
	}
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, h http.Handler, username, password string) string {
	t.Helper()
	rec := doRequest(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("register %s: got status %d, want %d", username, rec.Code, http.StatusOK)
	}
	rec = doRequest(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: got status %d, want %d", username, rec.Code, http.StatusOK)
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Token == "" {
		t.Fatal("login returned an empty token")
	}
	return result.Token
}

func listTodos(t *testing.T, h http.Handler, token string) []todoItem {
	t.Helper()
	rec := doRequest(t, h, http.MethodGet, "/todo", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list todos: got status %d, want %d", rec.Code, http.StatusOK)
	}
	var todos []todoItem
	if err := json.NewDecoder(rec.Body).Decode(&todos); err != nil {
		t.Fatal(err)
	}
	return todos
}

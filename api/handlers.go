package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

var (
	errUsernameTaken      = errors.New("username already exists")
	errInvalidCredentials = errors.New("invalid credentials")
	errNotFound           = errors.New("resource not found")
	errServerError        = errors.New("internal server error")
)

// dummyPasswordHash is compared against when login hits an unknown username,
// so that path costs a bcrypt verification just like a wrong password does.
var dummyPasswordHash = func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("no-such-user"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
}()

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	healthCheck := struct {
		Status      string `json:"status"`
		Environment string `json:"environment"`
		Version     string `json:"version"`
	}{
		Status:      "available",
		Environment: app.config.env,
		Version:     version,
	}
	writeJSON(w, healthCheck, http.StatusOK)
}

func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	v := newValidator()
	v.checkCond(input.Username != "", "username", "must be provided")
	v.checkCond(input.Email != "", "email", "must be provided")
	v.checkPassword(input.Password)
	if v.hasErrors() {
		writeError(w, v.toError(), http.StatusBadRequest)
		return
	}

	existing, err := app.storage.getUserByUsername(input.Username)
	if err != nil {
		log.Println(err)
		writeError(w, errServerError, http.StatusInternalServerError)
		return
	}
	if existing != nil {
		writeError(w, errUsernameTaken, http.StatusConflict)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Println(err)
		writeError(w, errServerError, http.StatusInternalServerError)
		return
	}
	u := &user{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
	}
	err = app.storage.insertUser(u)
	if err != nil {
		if errors.Is(err, errUsernameTaken) {
			writeError(w, errUsernameTaken, http.StatusConflict)
			return
		}
		log.Println(err)
		writeError(w, errServerError, http.StatusInternalServerError)
		return
	}

	if app.mailer != nil {
		go func() {
			err := app.mailer.sendWelcome(u)
			if err != nil {
				log.Println(err)
			}
		}()
	}

	message := struct {
		Message string `json:"message"`
	}{
		Message: "user registered successfully",
	}
	writeJSON(w, message, http.StatusOK)
}

func (app *application) loginUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}

	u, err := app.storage.getUserByUsername(input.Username)
	if err != nil {
		log.Println(err)
		writeError(w, errServerError, http.StatusInternalServerError)
		return
	}
	if u == nil {
		bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(input.Password))
		writeError(w, errInvalidCredentials, http.StatusUnauthorized)
		return
	}
	err = bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(input.Password))
	if err != nil {
		writeError(w, errInvalidCredentials, http.StatusUnauthorized)
		return
	}

	token, err := issueToken(app.config.jwt, u)
	if err != nil {
		log.Println(err)
		writeError(w, errServerError, http.StatusInternalServerError)
		return
	}
	result := struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expiresIn"`
	}{
		Token:     token,
		ExpiresIn: app.config.jwt.expiresInMinutes,
	}
	writeJSON(w, result, http.StatusOK)
}

func (app *application) listTodosHandler(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromRequest(r)
	todos, err := app.storage.getTodosForUser(userID)
	if err != nil {
		log.Println(err)
		writeError(w, errServerError, http.StatusInternalServerError)
		return
	}
	writeJSON(w, todos, http.StatusOK)
}

func (app *application) createTodoHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	v := newValidator()
	v.checkCond(input.Title != "", "title", "must be provided")
	if v.hasErrors() {
		writeError(w, v.toError(), http.StatusBadRequest)
		return
	}

	t := &todoItem{
		Title:       input.Title,
		Description: input.Description,
		UserID:      getUserIDFromRequest(r),
	}
	err = app.storage.insertTodo(t)
	if err != nil {
		log.Println(err)
		writeError(w, errServerError, http.StatusInternalServerError)
		return
	}
	writeJSON(w, t, http.StatusCreated)
}

func (app *application) updateTodoHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	v := newValidator()
	v.checkCond(input.Title != "", "title", "must be provided")
	if v.hasErrors() {
		writeError(w, v.toError(), http.StatusBadRequest)
		return
	}

	t, err := app.todoForCaller(r)
	if err != nil {
		app.writeTodoError(w, err)
		return
	}
	t.Title = input.Title
	t.Description = input.Description
	err = app.storage.updateTodo(t)
	if err != nil {
		log.Println(err)
		writeError(w, errServerError, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) completeTodoHandler(w http.ResponseWriter, r *http.Request) {
	t, err := app.todoForCaller(r)
	if err != nil {
		app.writeTodoError(w, err)
		return
	}
	t.IsCompleted = true
	err = app.storage.updateTodo(t)
	if err != nil {
		log.Println(err)
		writeError(w, errServerError, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) deleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	t, err := app.todoForCaller(r)
	if err != nil {
		app.writeTodoError(w, err)
		return
	}
	err = app.storage.deleteTodo(t)
	if err != nil {
		log.Println(err)
		writeError(w, errServerError, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// todoForCaller resolves the {id} path value to a todo owned by the caller.
// A missing item and an item owned by someone else are both errNotFound, so
// the existence of other users' items is never revealed.
func (app *application) todoForCaller(r *http.Request) (*todoItem, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return nil, errNotFound
	}
	t, err := app.storage.getTodoByID(id)
	if err != nil {
		return nil, err
	}
	if t == nil || t.UserID != getUserIDFromRequest(r) {
		return nil, errNotFound
	}
	return t, nil
}

func (app *application) writeTodoError(w http.ResponseWriter, err error) {
	if errors.Is(err, errNotFound) {
		writeError(w, errNotFound, http.StatusNotFound)
		return
	}
	log.Println(err)
	writeError(w, errServerError, http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, value any, statusCode int) {
	data, err := json.Marshal(value)
	if err != nil {
		writeError(w, errServerError, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}

func composeJSONError(err error) string {
	jsonError := map[string]string{
		"error": err.Error(),
	}
	result, err := json.Marshal(jsonError)
	if err != nil {
		log.Println(err)
		return ""
	}
	return string(result)
}

func writeError(w http.ResponseWriter, err error, statusCode int) {
	h := w.Header()
	h.Del("Content-Length")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	fmt.Fprintln(w, composeJSONError(err))
}

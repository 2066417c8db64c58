package main

import (
	"net/http"
)

func composeRoutes(app *application) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/healthcheck", app.healthCheckHandler)

	mux.HandleFunc("POST /auth/register", app.registerUserHandler)
	mux.HandleFunc("POST /auth/login", app.loginUserHandler)

	mux.HandleFunc("GET /todo", app.requireAuthenticatedUser(app.listTodosHandler))
	mux.HandleFunc("POST /todo", app.requireAuthenticatedUser(app.createTodoHandler))
	mux.HandleFunc("PUT /todo/{id}", app.requireAuthenticatedUser(app.updateTodoHandler))
	mux.HandleFunc("DELETE /todo/{id}", app.requireAuthenticatedUser(app.deleteTodoHandler))
	mux.HandleFunc("PATCH /todo/{id}/complete", app.requireAuthenticatedUser(app.completeTodoHandler))

	return app.enableCORS(mux)
}

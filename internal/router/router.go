package router

import (
	"github.com/fasthttp/router"

	apiHandler "github.com/taskify/backend/api/handler"
)

type Handlers struct {
	Task   *apiHandler.TaskHandler
	Note   *apiHandler.NoteHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Task routes
	r.GET("/api/v1/tasks", handlers.Task.ListTasks)
	r.POST("/api/v1/tasks", handlers.Task.CreateTask)
	r.POST("/api/v1/tasks/reorder", handlers.Task.ReorderTasks)
	r.POST("/api/v1/tasks/parse", handlers.Task.ParseTask)
	r.PUT("/api/v1/tasks/{id}", handlers.Task.UpdateTask)
	r.POST("/api/v1/tasks/{id}/toggle", handlers.Task.ToggleTask)
	r.DELETE("/api/v1/tasks/{id}", handlers.Task.DeleteTask)

	// Subtask routes
	r.POST("/api/v1/tasks/{id}/subtasks", handlers.Task.AddSubtask)
	r.PUT("/api/v1/tasks/{id}/subtasks/{subId}", handlers.Task.UpdateSubtask)
	r.POST("/api/v1/tasks/{id}/subtasks/{subId}/toggle", handlers.Task.ToggleSubtask)
	r.DELETE("/api/v1/tasks/{id}/subtasks/{subId}", handlers.Task.DeleteSubtask)

	// Note routes
	r.GET("/api/v1/notes", handlers.Note.ListNotes)
	r.POST("/api/v1/notes", handlers.Note.CreateNote)
	r.PUT("/api/v1/notes/{id}", handlers.Note.UpdateNote)
	r.DELETE("/api/v1/notes/{id}", handlers.Note.DeleteNote)

	return r
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/internal/application"
	"github.com/oksasatya/go-task-manager/internal/domain/apperr"
	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/pkg/response"
)

type TaskHandler struct {
	Tasks  *application.TaskService
	Logger *logrus.Logger
}

func NewTaskHandler(tasks *application.TaskService, logger *logrus.Logger) *TaskHandler {
	return &TaskHandler{Tasks: tasks, Logger: logger}
}

type deletedTask struct {
	Message string       `json:"message"`
	Task    *entity.Task `json:"task"`
}

func (h *TaskHandler) Create(c *gin.Context) {
	var d application.TaskDraft
	if err := c.ShouldBindJSON(&d); err != nil {
		failWith(c, h.Logger, http.StatusBadRequest, invalidPayload(err))
		return
	}
	t, err := h.Tasks.Create(c.Request.Context(), principal(c).User.ID, d)
	if err != nil {
		failWith(c, h.Logger, http.StatusBadRequest, err)
		return
	}
	response.Success(c, http.StatusOK, t, "task created", nil)
}

// List accepts sort=field:asc|desc, completed, limit and skip.
func (h *TaskHandler) List(c *gin.Context) {
	f, err := application.ParseListQuery(c.Query("sort"), c.Query("completed"), c.Query("limit"), c.Query("skip"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	tasks, err := h.Tasks.List(c.Request.Context(), principal(c).User.ID, f)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, tasks, "tasks", map[string]any{"count": len(tasks)})
}

func (h *TaskHandler) Search(c *gin.Context) {
	size := 0
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fail(c, h.Logger, apperr.NewValidation("invalid query", map[string]string{"size": "must be a non-negative integer"}))
			return
		}
		size = n
	}
	tasks, err := h.Tasks.Search(c.Request.Context(), principal(c).User.ID, c.Query("q"), size)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, tasks, "tasks", map[string]any{"count": len(tasks)})
}

func (h *TaskHandler) Get(c *gin.Context) {
	t, err := h.Tasks.Get(c.Request.Context(), principal(c).User.ID, c.Param("id"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, t, "task", nil)
}

// Update accepts description and completed only.
func (h *TaskHandler) Update(c *gin.Context) {
	var fields map[string]json.RawMessage
	if err := c.ShouldBindJSON(&fields); err != nil {
		fail(c, h.Logger, invalidPayload(err))
		return
	}
	patch, err := application.ParseTaskPatch(fields)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	t, err := h.Tasks.Update(c.Request.Context(), principal(c).User.ID, c.Param("id"), patch)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, t, "task updated", nil)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	t, err := h.Tasks.Delete(c.Request.Context(), principal(c).User.ID, c.Param("id"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, deletedTask{Message: "Successfully deleted", Task: t}, "task deleted", nil)
}

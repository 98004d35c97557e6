package handlers

import (
	"context"

	"github.com/biosecret/go-todo/middleware"
	"github.com/biosecret/go-todo/models"
	"github.com/biosecret/go-todo/services"
	"github.com/gofiber/fiber/v2"
)

type TaskService interface {
	List(ctx context.Context, userID int) ([]models.Task, error)
	Add(ctx context.Context, userID int, text string) (models.Task, error)
	Edit(ctx context.Context, userID, taskID int, text, status string) (models.Task, error)
	Delete(ctx context.Context, userID, taskID int) error
	ToggleStatus(ctx context.Context, userID, taskID int) (models.Task, error)
}

type addTaskRequest struct {
	Text string `json:"text"`
}

type editTaskRequest struct {
	Text   string `json:"text"`
	Status string `json:"status"`
}

type TaskHandler struct {
	tasks TaskService
}

func NewTaskHandler(tasks TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// List godoc
// @Summary List the caller's tasks
// @Description The path user id is informational; tasks are always those of the token's user.
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {array} models.Task
// @Failure 401 {object} errorResponse
// @Router /tasks/list/{userId} [get]
func (h *TaskHandler) List(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return services.ErrMissingIdentity
	}

	tasks, err := h.tasks.List(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(tasks)
}

// Add godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param task body addTaskRequest true "Task text"
// @Success 200 {object} models.Task
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Router /tasks/add [post]
func (h *TaskHandler) Add(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return services.ErrMissingIdentity
	}
	var input addTaskRequest
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	task, err := h.tasks.Add(c.UserContext(), userID, input.Text)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(task)
}

// Edit godoc
// @Summary Replace the text and optionally the status of a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Param task body editTaskRequest true "New text and status"
// @Success 200 {object} models.Task
// @Failure 404 {object} errorResponse
// @Router /tasks/edit/{id} [put]
func (h *TaskHandler) Edit(c *fiber.Ctx) error {
	userID, taskID, err := taskParams(c)
	if err != nil {
		return err
	}
	var input editTaskRequest
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	task, err := h.tasks.Edit(c.UserContext(), userID, taskID, input.Text, input.Status)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(task)
}

// Delete godoc
// @Summary Delete a task
// @Tags tasks
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 200
// @Failure 404 {object} errorResponse
// @Router /tasks/delete/{id} [delete]
func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	userID, taskID, err := taskParams(c)
	if err != nil {
		return err
	}

	if err := h.tasks.Delete(c.UserContext(), userID, taskID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusOK)
}

// Toggle godoc
// @Summary Advance a task along open, in-progress, completed
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 200 {object} models.Task
// @Failure 404 {object} errorResponse
// @Router /tasks/toggle/{id} [put]
func (h *TaskHandler) Toggle(c *fiber.Ctx) error {
	userID, taskID, err := taskParams(c)
	if err != nil {
		return err
	}

	task, err := h.tasks.ToggleStatus(c.UserContext(), userID, taskID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(task)
}

func taskParams(c *fiber.Ctx) (userID, taskID int, err error) {
	userID, ok := middleware.UserID(c)
	if !ok {
		return 0, 0, services.ErrMissingIdentity
	}
	taskID, err = c.ParamsInt("id")
	if err != nil {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "invalid task id")
	}
	return userID, taskID, nil
}

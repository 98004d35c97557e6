package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/biosecret/go-todo/database"
	"github.com/biosecret/go-todo/events"
	"github.com/biosecret/go-todo/models"
	"github.com/gofiber/fiber/v2/log"
)

type Notifier interface {
	Publish(ev events.TaskEvent)
}

// TaskService manages the tasks of each user. Tasks owned by someone else
// behave exactly like missing ones.
type TaskService struct {
	tasks    *database.Collection[models.Task]
	notifier Notifier
}

func NewTaskService(tasks *database.Collection[models.Task], notifier Notifier) *TaskService {
	return &TaskService{tasks: tasks, notifier: notifier}
}

// List returns the caller's tasks in store order.
func (s *TaskService) List(ctx context.Context, userID int) ([]models.Task, error) {
	log.Infow("Getting all tasks", "user_id", userID)
	tasks, err := s.tasks.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks of user %d: %w", userID, err)
	}

	owned := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.UserID == userID {
			owned = append(owned, t)
		}
	}
	log.Infow("Retrieved tasks", "user_id", userID, "count", len(owned))
	return owned, nil
}

func (s *TaskService) Add(ctx context.Context, userID int, text string) (models.Task, error) {
	log.Infow("Adding new task", "user_id", userID, "text", text)
	var created models.Task
	err := s.tasks.Update(ctx, func(tasks []models.Task) ([]models.Task, error) {
		created = models.Task{
			ID:     nextTaskID(tasks),
			Text:   text,
			Status: models.StatusOpen,
			UserID: userID,
		}
		return append(tasks, created), nil
	})
	if err != nil {
		return models.Task{}, fmt.Errorf("add task for user %d: %w", userID, err)
	}

	log.Infow("Successfully added task", "task_id", created.ID, "user_id", userID)
	s.publish(events.TaskCreated, created)
	return created, nil
}

// Edit replaces the text of a task. The status is only replaced when a
// non-empty one is given.
func (s *TaskService) Edit(ctx context.Context, userID, taskID int, text, status string) (models.Task, error) {
	log.Infow("Editing task", "task_id", taskID, "user_id", userID)
	updated, err := s.mutate(ctx, userID, taskID, func(t *models.Task) {
		t.Text = text
		if status != "" {
			t.Status = status
		}
	})
	if err != nil {
		return models.Task{}, err
	}

	log.Infow("Successfully edited task", "task_id", taskID, "user_id", userID)
	s.publish(events.TaskUpdated, updated)
	return updated, nil
}

// ToggleStatus moves a task to the next status of the ring.
func (s *TaskService) ToggleStatus(ctx context.Context, userID, taskID int) (models.Task, error) {
	log.Infow("Toggling status of task", "task_id", taskID, "user_id", userID)
	updated, err := s.mutate(ctx, userID, taskID, func(t *models.Task) {
		t.Status = models.NextStatus(t.Status)
	})
	if err != nil {
		return models.Task{}, err
	}

	log.Infow("Successfully toggled status of task", "task_id", taskID, "status", updated.Status, "user_id", userID)
	s.publish(events.TaskToggled, updated)
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID int) error {
	log.Infow("Deleting task", "task_id", taskID, "user_id", userID)
	var removed models.Task
	err := s.tasks.Update(ctx, func(tasks []models.Task) ([]models.Task, error) {
		idx := findOwned(tasks, userID, taskID)
		if idx == -1 {
			return nil, ErrTaskNotFound
		}
		removed = tasks[idx]
		return append(tasks[:idx], tasks[idx+1:]...), nil
	})
	if err != nil {
		return s.wrap(err, userID, taskID)
	}

	log.Infow("Successfully deleted task", "task_id", taskID, "user_id", userID)
	s.publish(events.TaskDeleted, removed)
	return nil
}

func (s *TaskService) mutate(ctx context.Context, userID, taskID int, fn func(t *models.Task)) (models.Task, error) {
	var updated models.Task
	err := s.tasks.Update(ctx, func(tasks []models.Task) ([]models.Task, error) {
		idx := findOwned(tasks, userID, taskID)
		if idx == -1 {
			return nil, ErrTaskNotFound
		}
		fn(&tasks[idx])
		updated = tasks[idx]
		return tasks, nil
	})
	if err != nil {
		return models.Task{}, s.wrap(err, userID, taskID)
	}
	return updated, nil
}

func (s *TaskService) wrap(err error, userID, taskID int) error {
	if errors.Is(err, ErrTaskNotFound) {
		log.Warnw("Task not found", "task_id", taskID, "user_id", userID)
		return err
	}
	return fmt.Errorf("task %d of user %d: %w", taskID, userID, err)
}

func (s *TaskService) publish(eventType string, t models.Task) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(events.TaskEvent{Type: eventType, Task: t})
}

func findOwned(tasks []models.Task, userID, taskID int) int {
	for i, t := range tasks {
		if t.ID == taskID && t.UserID == userID {
			return i
		}
	}
	return -1
}

func nextTaskID(tasks []models.Task) int {
	next := 1
	for _, t := range tasks {
		if t.ID >= next {
			next = t.ID + 1
		}
	}
	return next
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard/internal/model"
)

// TaskWithAssignee is a task row joined with its assignee's username,
// as shown in the admin task directory.
type TaskWithAssignee struct {
	model.Task
	AssignedToUsername string
}

type TaskRepository struct {
	db *gorm.DB
}

type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	List(ctx context.Context, searchTerm string, page, limit int) ([]TaskWithAssignee, int64, error)
	ListByAssignee(ctx context.Context, userID uuid.UUID) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	UpdateFields(ctx context.Context, task *model.Task) error
	UpdateStatusForAssignee(ctx context.Context, taskID, userID uuid.UUID, status string) error
	SetCompletedAssignmentPath(ctx context.Context, taskID, userID uuid.UUID, path string) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByAssignee(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkDeadlineReached(ctx context.Context, before time.Time) (int64, error)
}

var _ TaskRepositoryInterface = (*TaskRepository)(nil)

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// GetByID retrieves a task by its ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// List returns one page of tasks joined with their assignee's username.
// searchTerm matches the task title or the assignee username,
// case-insensitive.
func (r *TaskRepository) List(ctx context.Context, searchTerm string, page, limit int) ([]TaskWithAssignee, int64, error) {
	base := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&model.Task{}).
			Joins("JOIN users ON users.id = tasks.assigned_to")
		if searchTerm != "" {
			pattern := "%" + searchTerm + "%"
			query = query.Where("tasks.title ILIKE ? OR users.username ILIKE ?", pattern, pattern)
		}
		return query
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []TaskWithAssignee
	err := base().
		Select("tasks.*, users.username AS assigned_to_username").
		Order("tasks.created_at").
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(&tasks).Error
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// ListByAssignee retrieves all tasks assigned to a user, earliest deadline first
func (r *TaskRepository) ListByAssignee(ctx context.Context, userID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	result := r.db.WithContext(ctx).
		Where("assigned_to = ?", userID).
		Order("deadline ASC").
		Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// Update rewrites the task's text fields, status and form path. The
// assignee is deliberately left untouched on this path.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", task.ID).
		Updates(map[string]interface{}{
			"title":       task.Title,
			"description": task.Description,
			"deadline":    task.Deadline,
			"status":      task.Status,
			"form_path":   task.FormPath,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// UpdateFields rewrites the task's text fields including the assignee.
// File paths are never touched on this path.
func (r *TaskRepository) UpdateFields(ctx context.Context, task *model.Task) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", task.ID).
		Updates(map[string]interface{}{
			"title":       task.Title,
			"description": task.Description,
			"assigned_to": task.AssignedTo,
			"deadline":    task.Deadline,
			"status":      task.Status,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// UpdateStatusForAssignee updates a task's status only if the task is
// assigned to the given user. Zero affected rows means the task does not
// exist or belongs to someone else; the caller must not learn which.
func (r *TaskRepository) UpdateStatusForAssignee(ctx context.Context, taskID, userID uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND assigned_to = ?", taskID, userID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// SetCompletedAssignmentPath stores the submission path, scoped to the
// assignee so a stale ownership check cannot be raced past.
func (r *TaskRepository) SetCompletedAssignmentPath(ctx context.Context, taskID, userID uuid.UUID, path string) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND assigned_to = ?", taskID, userID).
		Update("completed_assignment_path", path)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete removes a task by its ID
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// CountByAssignee reports how many tasks reference the given user.
func (r *TaskRepository) CountByAssignee(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("assigned_to = ?", userID).
		Count(&count).Error
	return count, err
}

// MarkDeadlineReached flips every still-open task whose deadline has
// passed to the Deadline Reached status and reports how many rows changed.
func (r *TaskRepository) MarkDeadlineReached(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("deadline < ? AND status IN ?", before, []string{model.StatusPending, model.StatusInProgress}).
		Update("status", model.StatusDeadlineReached)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

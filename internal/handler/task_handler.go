package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/notify"
	"taskboard/internal/repository"
	"taskboard/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

type TaskHandler struct {
	taskRepo repository.TaskRepositoryInterface
	userRepo repository.UserRepositoryInterface
	store    storage.StoreInterface
	notifier notify.Notifier
}

func NewTaskHandler(
	taskRepo repository.TaskRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
	store storage.StoreInterface,
	notifier notify.Notifier,
) *TaskHandler {
	return &TaskHandler{
		taskRepo: taskRepo,
		userRepo: userRepo,
		store:    store,
		notifier: notifier,
	}
}

type UpdateTaskFieldsRequest struct {
	ID               string `json:"id" binding:"required,uuid"`
	Title            string `json:"title" binding:"required"`
	Description      string `json:"description"`
	AssignedToUserID string `json:"assignedToUserId" binding:"required,uuid"`
	Deadline         string `json:"deadline" binding:"required"`
	Status           string `json:"status" binding:"required,oneof='Pending' 'In Progress' 'Completed' 'Deadline Reached'"`
}

type DeleteTaskRequest struct {
	ID string `json:"id" binding:"required,uuid"`
}

type TaskResponse struct {
	ID                      string `json:"id"`
	Title                   string `json:"title"`
	Description             string `json:"description"`
	AssignedToUserID        string `json:"assignedToUserId"`
	AssignedToUsername      string `json:"assignedToUsername"`
	Deadline                string `json:"deadline"`
	Status                  string `json:"status"`
	FormPath                string `json:"formPath"`
	CompletedAssignmentPath string `json:"completedAssignmentPath"`
}

// List returns one page of tasks joined with their assignee's username.
func (h *TaskHandler) List(c *gin.Context) {
	searchTerm, page, limit := pageParams(c)

	tasks, total, err := h.taskRepo.List(c.Request.Context(), searchTerm, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch tasks: " + err.Error()})
		return
	}

	data := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		data = append(data, TaskResponse{
			ID:                      t.ID.String(),
			Title:                   t.Title,
			Description:             t.Description,
			AssignedToUserID:        t.AssignedTo.String(),
			AssignedToUsername:      t.AssignedToUsername,
			Deadline:                t.Deadline.Format(dateLayout),
			Status:                  t.Status,
			FormPath:                t.FormPath,
			CompletedAssignmentPath: t.CompletedAssignmentPath,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": data, "totalRecords": total})
}

// Save handles the multipart task endpoint. The presence of the id field
// selects update-with-optional-file-replace; its absence selects fan-out
// creation of one task per assigned user.
func (h *TaskHandler) Save(c *gin.Context) {
	if c.PostForm("id") == "" {
		h.create(c)
		return
	}
	h.update(c)
}

func (h *TaskHandler) create(c *gin.Context) {
	title := c.PostForm("title")
	description := c.PostForm("description")
	deadlineStr := c.PostForm("deadline")
	status := c.PostForm("status")
	if status == "" {
		status = model.StatusPending
	}

	var assignedIDs []string
	idsJSON := c.DefaultPostForm("assigned_to_user_ids", "[]")
	if err := json.Unmarshal([]byte(idsJSON), &assignedIDs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid JSON for assigned_to_user_ids."})
		return
	}

	if title == "" || deadlineStr == "" || len(assignedIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Title, assigned user(s), and deadline are required."})
		return
	}
	deadline, err := time.Parse(dateLayout, deadlineStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid deadline date."})
		return
	}
	if !model.ValidStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid task status."})
		return
	}

	userIDs := make([]uuid.UUID, 0, len(assignedIDs))
	for _, raw := range assignedIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid assigned user ID: " + raw})
			return
		}
		userIDs = append(userIDs, id)
	}

	// The staged form file is shared by every fanned-out row.
	formPath, ok := h.saveFormFile(c)
	if !ok {
		return
	}

	successCount := 0
	failedIDs := make([]string, 0)
	for _, userID := range userIDs {
		task := &model.Task{
			ID:          uuid.New(),
			Title:       title,
			Description: description,
			AssignedTo:  userID,
			Deadline:    deadline,
			Status:      status,
			FormPath:    formPath,
		}
		if err := h.taskRepo.Create(c.Request.Context(), task); err != nil {
			log.Printf("failed to assign task to user %s: %v", userID, err)
			failedIDs = append(failedIDs, userID.String())
			continue
		}
		successCount++
		h.notifyAssignee(c, userID, "New Task Assigned: "+title,
			fmt.Sprintf("You have been assigned a new task: %s\nDeadline: %s", title, deadlineStr))
	}

	if successCount == 0 {
		// Nothing references the staged file; roll it back.
		if err := h.store.Remove(formPath); err != nil {
			log.Printf("failed to remove staged form file %s: %v", formPath, err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to assign task to any user."})
		return
	}

	message := fmt.Sprintf("Successfully assigned task to %d user(s).", successCount)
	if len(failedIDs) > 0 {
		message += " Some assignments failed."
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      message,
		"successCount": successCount,
		"failedIds":    failedIDs,
	})
}

func (h *TaskHandler) update(c *gin.Context) {
	title := c.PostForm("title")
	deadlineStr := c.PostForm("deadline")
	status := c.PostForm("status")
	if title == "" || deadlineStr == "" || status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Title, deadline, and status are required for update."})
		return
	}
	deadline, err := time.Parse(dateLayout, deadlineStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid deadline date."})
		return
	}
	if !model.ValidStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid task status."})
		return
	}

	taskID, err := uuid.Parse(c.PostForm("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid task ID."})
		return
	}

	// The lookup doubles as the existence check and supplies the current
	// form path and the (immutable on this path) assignee.
	existing, err := h.taskRepo.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Task not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch task: " + err.Error()})
		return
	}

	newPath, ok := h.saveFormFile(c)
	if !ok {
		return
	}

	task := &model.Task{
		ID:          taskID,
		Title:       title,
		Description: c.PostForm("description"),
		Deadline:    deadline,
		Status:      status,
		FormPath:    existing.FormPath,
	}
	if newPath != "" {
		task.FormPath = newPath
	}

	if err := h.taskRepo.Update(c.Request.Context(), task); err != nil {
		// Roll back the staged file; the row still references the old one.
		if newPath != "" {
			if rmErr := h.store.Remove(newPath); rmErr != nil {
				log.Printf("failed to remove staged form file %s: %v", newPath, rmErr)
			}
		}
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Task not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update task: " + err.Error()})
		return
	}

	if newPath != "" && existing.FormPath != "" {
		if err := h.store.Remove(existing.FormPath); err != nil {
			log.Printf("failed to remove superseded form file %s: %v", existing.FormPath, err)
		}
	}

	h.notifyAssignee(c, existing.AssignedTo, "Task Updated: "+title,
		fmt.Sprintf("Your assigned task has been updated: %s\nDeadline: %s\nStatus: %s", title, deadlineStr, status))

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Task updated successfully."})
}

// UpdateFields is the text-only update path. It may reassign the task but
// never touches the file slots.
func (h *TaskHandler) UpdateFields(c *gin.Context) {
	var req UpdateTaskFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Task ID, title, assigned user, deadline, and status are required for update."})
		return
	}

	taskID, err := uuid.Parse(req.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid task ID."})
		return
	}
	assignedTo, err := uuid.Parse(req.AssignedToUserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid assigned user ID."})
		return
	}
	deadline, err := time.Parse(dateLayout, req.Deadline)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid deadline date."})
		return
	}

	task := &model.Task{
		ID:          taskID,
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  assignedTo,
		Deadline:    deadline,
		Status:      req.Status,
	}

	if err := h.taskRepo.UpdateFields(c.Request.Context(), task); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Task not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update task: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Task updated successfully."})
}

// Delete removes a task row after deleting both slot files best-effort.
func (h *TaskHandler) Delete(c *gin.Context) {
	var req DeleteTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Task ID is required for deletion."})
		return
	}

	taskID, err := uuid.Parse(req.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid task ID."})
		return
	}

	task, err := h.taskRepo.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Task not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch task: " + err.Error()})
		return
	}

	if err := h.store.Remove(task.FormPath); err != nil {
		log.Printf("failed to remove form file %s: %v", task.FormPath, err)
	}
	if err := h.store.Remove(task.CompletedAssignmentPath); err != nil {
		log.Printf("failed to remove completed assignment file %s: %v", task.CompletedAssignmentPath, err)
	}

	if err := h.taskRepo.Delete(c.Request.Context(), taskID); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Task not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to delete task: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Task deleted successfully."})
}

// saveFormFile stages an optional form_file upload. It reports false after
// writing an error response; an absent file is fine and yields an empty path.
func (h *TaskHandler) saveFormFile(c *gin.Context) (string, bool) {
	file, err := c.FormFile("form_file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", true
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "File upload error: " + err.Error()})
		return "", false
	}

	path, err := h.store.Save(file, storage.FormPolicy)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrExtensionNotAllowed):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid file type. Only PDF, DOC, DOCX, TXT are allowed."})
		case errors.Is(err, storage.ErrFileTooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "File size exceeds 5MB limit."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to store file: " + err.Error()})
		}
		return "", false
	}
	return path, true
}

// notifyAssignee records a notification for the task's assignee. Lookup or
// delivery failures are logged, never surfaced.
func (h *TaskHandler) notifyAssignee(c *gin.Context, userID uuid.UUID, subject, body string) {
	user, err := h.userRepo.GetByID(c.Request.Context(), userID)
	if err != nil || user == nil {
		log.Printf("could not resolve email for user %s: %v", userID, err)
		return
	}
	if err := h.notifier.Send(user.Email, subject, body); err != nil {
		log.Printf("failed to record notification for %s: %v", user.Email, err)
	}
}

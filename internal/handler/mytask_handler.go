package handler

import (
	"errors"
	"log"
	"net/http"

	"taskboard/internal/middleware"
	"taskboard/internal/model"
	"taskboard/internal/repository"
	"taskboard/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MyTaskHandler serves the authenticated-user task surface. Every
// operation is scoped to tasks assigned to the caller; foreign tasks are
// indistinguishable from missing ones in the responses.
type MyTaskHandler struct {
	taskRepo repository.TaskRepositoryInterface
	store    storage.StoreInterface
}

func NewMyTaskHandler(taskRepo repository.TaskRepositoryInterface, store storage.StoreInterface) *MyTaskHandler {
	return &MyTaskHandler{taskRepo: taskRepo, store: store}
}

type UpdateMyTaskStatusRequest struct {
	ID     string `json:"id" binding:"required,uuid"`
	Status string `json:"status" binding:"required,oneof='Pending' 'In Progress' 'Completed' 'Deadline Reached'"`
}

type MyTaskResponse struct {
	ID                      string `json:"id"`
	Title                   string `json:"title"`
	Description             string `json:"description"`
	Deadline                string `json:"deadline"`
	Status                  string `json:"status"`
	FormPath                string `json:"formPath"`
	CompletedAssignmentPath string `json:"completedAssignmentPath"`
}

// List returns the caller's tasks, earliest deadline first.
func (h *MyTaskHandler) List(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied. Please log in."})
		return
	}

	tasks, err := h.taskRepo.ListByAssignee(c.Request.Context(), identity.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch tasks: " + err.Error()})
		return
	}

	data := make([]MyTaskResponse, 0, len(tasks))
	for _, t := range tasks {
		data = append(data, MyTaskResponse{
			ID:                      t.ID.String(),
			Title:                   t.Title,
			Description:             t.Description,
			Deadline:                t.Deadline.Format(dateLayout),
			Status:                  t.Status,
			FormPath:                t.FormPath,
			CompletedAssignmentPath: t.CompletedAssignmentPath,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// UpdateStatus changes the status of one of the caller's tasks.
func (h *MyTaskHandler) UpdateStatus(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied. Please log in."})
		return
	}

	var req UpdateMyTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Task ID and status are required for update."})
		return
	}

	taskID, err := uuid.Parse(req.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid task ID."})
		return
	}

	err = h.taskRepo.UpdateStatusForAssignee(c.Request.Context(), taskID, identity.UserID, req.Status)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Task not found or you do not have permission to update this task."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update task status: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Task status updated successfully."})
}

// UploadCompletedAssignment stores the caller's submission for one of
// their tasks, replacing any previous submission. Completed tasks no
// longer accept submissions.
func (h *MyTaskHandler) UploadCompletedAssignment(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied. Please log in."})
		return
	}

	if c.Query("action") != "upload_completed_assignment" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid resource or action specified for POST."})
		return
	}

	rawID := c.PostForm("task_id")
	if rawID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Task ID is required for assignment upload."})
		return
	}
	taskID, err := uuid.Parse(rawID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid task ID."})
		return
	}

	task, err := h.taskRepo.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Task not found or you do not have permission to upload for this task."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch task: " + err.Error()})
		return
	}
	if task.AssignedTo != identity.UserID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Task not found or you do not have permission to upload for this task."})
		return
	}
	if task.Status == model.StatusCompleted {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Completed tasks no longer accept submissions."})
		return
	}

	file, err := c.FormFile("completed_assignment_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No file uploaded or an upload error occurred."})
		return
	}

	path, err := h.store.Save(file, storage.CompletedAssignmentPolicy)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrExtensionNotAllowed):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid file type. Only common document/image/archive formats are allowed."})
		case errors.Is(err, storage.ErrFileTooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "File size exceeds 10MB limit."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to upload file."})
		}
		return
	}

	err = h.taskRepo.SetCompletedAssignmentPath(c.Request.Context(), taskID, identity.UserID, path)
	if err != nil {
		// Roll back the staged file; the row still references the old one.
		if rmErr := h.store.Remove(path); rmErr != nil {
			log.Printf("failed to remove staged assignment file %s: %v", path, rmErr)
		}
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Task not found or you do not have permission to upload for this task."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update task with assignment path: " + err.Error()})
		return
	}

	if task.CompletedAssignmentPath != "" {
		if err := h.store.Remove(task.CompletedAssignmentPath); err != nil {
			log.Printf("failed to remove superseded assignment file %s: %v", task.CompletedAssignmentPath, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Completed assignment uploaded successfully."})
}

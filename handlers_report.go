package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/models"
)

func dashboardStatsHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := repo.GetDashboardStats(c.Request.Context(), queryInt(c, "year"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func applicationReportHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.ReportFilter{
			Year:      queryInt(c, "year"),
			Month:     queryInt(c, "month"),
			ProgramId: queryInt(c, "program_id"),
			Status:    models.ApplicationStatus(c.Query("status")),
		}
		rows, err := repo.GetApplicationReport(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

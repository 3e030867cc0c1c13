package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/models"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
)

func payoutStatsHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := repo.GetPayoutStats(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func listPayoutsHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		payouts, err := repo.GetPayouts(c.Request.Context(), models.PayoutStatus(c.Query("status")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, payouts)
	}
}

func createPayoutHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewPayout
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		payout, err := repo.CreatePayout(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, payout)
	}
}

func payoutItemsHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramInt(c, "id")
		if !ok {
			return
		}
		items, err := repo.GetPayoutItems(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// allPayoutItemsHandler lists items across batches (payout_id filter
// optional via query).
func allPayoutItemsHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := repo.GetPayoutItems(c.Request.Context(), queryInt(c, "payout_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

type updatePayoutStatusRequest struct {
	Status models.PayoutStatus `json:"status" binding:"required"`
}

func updatePayoutStatusHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramInt(c, "id")
		if !ok {
			return
		}
		var req updatePayoutStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		payout, err := repo.UpdatePayoutStatus(c.Request.Context(), id, req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, payout)
	}
}

func importPayoutStatusesHandler(repo *models.Repo) gin.HandlerFunc {
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

		result, err := repo.ImportPayoutStatuses(c.Request.Context(), reader)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

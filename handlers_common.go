package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/config"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
)

// respondError is the single place where error kinds become status codes.
// Internal errors are logged with their root cause and surface a generic
// message only.
func respondError(c *gin.Context, err error) {
	switch utils.KindOf(err) {
	case utils.KindValidation, utils.KindDuplicate:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case utils.KindUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case utils.KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case utils.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		config.LogError(config.GetLogger(), "api", c.FullPath(), cid, nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "đã xảy ra lỗi, vui lòng thử lại sau"})
	}
}

// respondBindError maps gin binding failures to 400 with field details when
// the failure came from validator tags.
func respondBindError(c *gin.Context, err error) {
	if _, ok := err.(validator.ValidationErrors); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": utils.ProcessValidationErrors(err)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

func paramInt(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return n
}

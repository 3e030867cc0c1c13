package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/models"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
	"github.com/shopspring/decimal"
)

func myApplicationsHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		applications, err := repo.GetMyApplications(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, applications)
	}
}

func listApplicationsHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.ApplicationFilter{
			Status:    models.ApplicationStatus(c.Query("status")),
			ProgramId: queryInt(c, "program_id"),
			Search:    c.Query("search"),
			Location:  c.Query("location"),
			Page:      queryInt(c, "page"),
			Limit:     queryInt(c, "limit"),
		}
		applications, total, err := repo.GetApplications(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"applications": applications, "total": total})
	}
}

func getApplicationHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramInt(c, "id")
		if !ok {
			return
		}
		application, err := repo.GetApplication(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}

		// Citizens only see their own applications.
		role, _ := utils.GetUserRoleFromContext(c.Request.Context())
		if role == string(models.UserRoleCitizen) {
			userId, _ := utils.GetUserIdFromContext(c.Request.Context())
			if application.UserId != userId {
				c.JSON(http.StatusForbidden, gin.H{"error": "not your application"})
				return
			}
		}
		c.JSON(http.StatusOK, application)
	}
}

func createApplicationHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewApplication
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		application, err := repo.CreateApplication(c.Request.Context(), &input, models.ApplicationStatusPending, nil)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, application)
	}
}

// applicationFromForm rebuilds a NewApplication from multipart form fields.
// household_members arrives as a JSON string in this path.
func applicationFromForm(c *gin.Context) (*models.NewApplication, error) {
	input := models.NewApplication{
		ProgramId: queryFormInt(c, "program_id"),
		FullName:  c.PostForm("full_name"),
		CitizenId: c.PostForm("citizen_id"),
		Phone:     c.PostForm("phone"),
		District:  c.PostForm("district"),
		Commune:   c.PostForm("commune"),
		Village:   c.PostForm("village"),
		Address:   c.PostForm("address"),
		Reason:    c.PostForm("reason"),
	}
	if input.ProgramId == 0 || input.FullName == "" || input.CitizenId == "" {
		return nil, utils.NewValidationError("program_id, full_name and citizen_id are required")
	}

	if raw := c.PostForm("birth_date"); raw != "" {
		birthDate, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, utils.NewValidationError("birth_date must be YYYY-MM-DD")
		}
		input.BirthDate = &birthDate
	}
	if raw := c.PostForm("requested_amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, utils.NewValidationError("invalid requested_amount")
		}
		input.RequestedAmount = amount
	}
	if raw := c.PostForm("household_members"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.HouseholdMembers); err != nil {
			return nil, utils.NewValidationError("invalid household_members")
		}
	}
	return &input, nil
}

func queryFormInt(c *gin.Context, name string) int {
	n, err := strconv.Atoi(c.PostForm(name))
	if err != nil {
		return 0
	}
	return n
}

func submitApplicationHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		input, err := applicationFromForm(c)
		if err != nil {
			respondError(c, err)
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			respondError(c, utils.NewValidationError("invalid multipart form"))
			return
		}

		role, _ := utils.GetUserRoleFromContext(c.Request.Context())
		docs, written, err := saveUploadedFiles(c, form.File["files"], role)
		if err != nil {
			respondError(c, err)
			return
		}

		application, err := repo.CreateApplication(c.Request.Context(), input, models.ApplicationStatusPending, docs)
		if err != nil {
			// Files are already on disk; take them back out so no orphans
			// survive a failed submission.
			removeFiles(written)
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, application)
	}
}

type updateStatusRequest struct {
	Status  models.ApplicationStatus `json:"status" binding:"required"`
	Comment string                   `json:"comment"`
}

func updateApplicationStatusHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramInt(c, "id")
		if !ok {
			return
		}
		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		application, err := repo.UpdateApplicationStatus(c.Request.Context(), id, req.Status, req.Comment)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, application)
	}
}

// officerCreateApplicationHandler records an application on behalf of a
// citizen; these start in under_review since an officer already has them.
func officerCreateApplicationHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewApplication
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		application, err := repo.CreateApplication(c.Request.Context(), &input, models.ApplicationStatusUnderReview, nil)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, application)
	}
}

func updateApplicationHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramInt(c, "id")
		if !ok {
			return
		}
		var input models.NewApplication
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		application, err := repo.UpdateApplication(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, application)
	}
}

func deleteApplicationHandler(repo *models.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramInt(c, "id")
		if !ok {
			return
		}
		paths, err := repo.DeleteApplication(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		removeFiles(paths)
		c.JSON(http.StatusOK, gin.H{"message": "application deleted"})
	}
}

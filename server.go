package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/config"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/middlewares"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/models"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
)

const defaultPort = "8080"

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Handle SIGTERM/SIGINT for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	db := config.ConnectDatabaseWithRetry()
	repo := models.NewRepo(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Fatal("migration failed: " + err.Error())
	}

	if os.Getenv("REDIS_ADDRESS") != "" {
		config.ConnectRedisWithRetry()
		repo.WithLocker(config.GetRedisLock())
	}

	r := newRouter(repo)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed: " + err.Error())
		}
	}()
	logger.Info("listening on :" + port)

	<-sigCtx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown: " + err.Error())
	}
	if sqlDB, err := db.DB(); err == nil && sqlDB != nil {
		sqlDB.Close()
	}
}

func newRouter(repo *models.Repo) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.Use(cors.New(corsConfig()))

	// Uploaded files are served back under a fixed prefix.
	r.Static("/uploads", uploadRoot())

	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware())

	auth := api.Group("/auth")
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		limit := int64(30)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		window := 60 * time.Second
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				window = time.Duration(n) * time.Second
			}
		}
		auth.Use(middlewares.NewRateLimiter(limit, window).Middleware())
	}
	auth.POST("/register", registerHandler(repo))
	auth.POST("/login", loginHandler(repo))
	auth.POST("/forgot-password", forgotPasswordHandler(repo))
	auth.POST("/reset-password", resetPasswordHandler(repo))
	auth.GET("/me", middlewares.RequireAuth(), meHandler(repo))

	authed := api.Group("")
	authed.Use(middlewares.RequireAuth())

	authed.GET("/programs", listProgramsHandler(repo))
	authed.GET("/programs/:id", getProgramHandler(repo))

	authed.GET("/applications/mine", myApplicationsHandler(repo))
	authed.POST("/applications", createApplicationHandler(repo))
	authed.POST("/applications/submit", submitApplicationHandler(repo))
	authed.GET("/applications/:id", getApplicationHandler(repo))
	authed.PUT("/applications/:id", updateApplicationHandler(repo))

	authed.GET("/notifications", listNotificationsHandler(repo))
	authed.PUT("/notifications/read-all", markAllNotificationsReadHandler(repo))
	authed.PUT("/notifications/:id/read", markNotificationReadHandler(repo))

	authed.POST("/complaints", createComplaintHandler(repo))
	authed.GET("/complaints/mine", myComplaintsHandler(repo))

	officer := api.Group("")
	officer.Use(middlewares.RequireAuth(), middlewares.RequireOfficer())

	officer.POST("/programs", createProgramHandler(repo))
	officer.PUT("/programs/:id", updateProgramHandler(repo))
	officer.DELETE("/programs/:id", deleteProgramHandler(repo))

	officer.GET("/applications", listApplicationsHandler(repo))
	officer.POST("/applications/officer", officerCreateApplicationHandler(repo))
	officer.PUT("/applications/:id/status", updateApplicationStatusHandler(repo))
	officer.DELETE("/applications/:id", deleteApplicationHandler(repo))

	officer.GET("/reports/dashboard", dashboardStatsHandler(repo))
	officer.GET("/reports/applications", applicationReportHandler(repo))

	officer.GET("/complaints", listComplaintsHandler(repo))
	officer.GET("/complaints/stats", complaintStatsHandler(repo))
	officer.GET("/complaints/officers", listOfficersHandler(repo))
	officer.PUT("/complaints/:id/assign", assignComplaintHandler(repo))
	officer.PUT("/complaints/:id/respond", respondComplaintHandler(repo))

	officer.GET("/payouts", listPayoutsHandler(repo))
	officer.GET("/payouts/stats", payoutStatsHandler(repo))
	officer.GET("/payouts/items", allPayoutItemsHandler(repo))
	officer.POST("/payouts", createPayoutHandler(repo))
	officer.GET("/payouts/:id/items", payoutItemsHandler(repo))
	officer.PUT("/payouts/:id/status", updatePayoutStatusHandler(repo))
	officer.POST("/payouts/import-status", importPayoutStatusesHandler(repo))

	admin := api.Group("/admin")
	admin.Use(middlewares.RequireAuth(), middlewares.RequireAdmin())

	admin.GET("/users", listUsersHandler(repo))
	admin.POST("/users", createUserHandler(repo))
	admin.POST("/users/import", importUsersHandler(repo))
	admin.GET("/users/:id", getUserHandler(repo))
	admin.PUT("/users/:id", updateUserHandler(repo))
	admin.DELETE("/users/:id", deleteUserHandler(repo))
	admin.PUT("/users/:id/role", assignRoleHandler(repo))
	admin.POST("/users/:id/password", adminResetPasswordHandler(repo))
	admin.GET("/dashboard", adminDashboardHandler(repo))

	return r
}

func corsConfig() cors.Config {
	corsCfg := cors.DefaultConfig()
	// In production, require an explicit allowlist via CORS_ALLOWED_ORIGINS
	// (comma-separated). In non-production, allow all.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsCfg.AllowOrigins = []string{}
		} else {
			corsCfg.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsCfg.AddAllowHeaders("Origin", "Content-Type", "Authorization")
	corsCfg.AddExposeHeaders("Content-Length")
	corsCfg.AllowCredentials = true
	return corsCfg
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tieubaoca/studytool-be/handler"
	"github.com/tieubaoca/studytool-be/middleware"
	"github.com/tieubaoca/studytool-be/observability"
)

// startServerCmd represents the start command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the HTTP server",
	Long:  `Starts the REST server for document upload and AI study material generation`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := loadApp(ctx, true)
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer a.Close(context.Background())

		shutdownTracing, err := observability.InitTracing(ctx, a.cfg.Tracing, a.log)
		if err != nil {
			a.log.Fatal("Failed to init tracing", "error", err)
		}
		defer shutdownTracing(context.Background())

		server := &http.Server{
			Addr:    ":" + a.cfg.Port,
			Handler: newRouter(a),
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				a.log.Warn("Server shutdown failed", "error", err)
			}
		}()

		a.log.Info("Starting server", "port", a.cfg.Port, "database", a.cfg.Database.Driver, "blob_store", a.cfg.BlobStore.Driver, "ai_provider", a.cfg.AI.Provider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("Server error", "error", err)
		}
	},
}

func newRouter(a *app) *gin.Engine {
	if a.cfg.LogMode == "prod" || a.cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	corsHandler := handler.NewCorsHandler(a.cfg.AllowedOrigins)
	fileHandler := handler.NewFileHandler(a.files, a.cfg.MaxUploadBytes, a.log)
	aiHandler := handler.NewAIHandler(a.pipeline, a.artifacts, a.cfg.Auth.TrustUserHeader, a.log)

	router := gin.New()
	router.Use(gin.Recovery())
	if a.cfg.Tracing.Enabled {
		router.Use(otelgin.Middleware(observability.ServiceName))
	}
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(a.log))
	router.Use(corsHandler.CorsMiddleware())
	router.Use(middleware.Identity(middleware.IdentityConfig{
		JWTSecret:       a.cfg.Auth.JWTSecret,
		TrustUserHeader: a.cfg.Auth.TrustUserHeader,
	}, a.log))

	router.GET("/healthz", handler.HandleHealth)

	files := router.Group("/api/files")
	files.Use(middleware.RequirePrincipal())
	{
		files.POST("/upload", fileHandler.HandleUpload)
		files.GET("", fileHandler.HandleList)
		files.GET("/text/:name", fileHandler.HandleText)
		files.GET("/:name", fileHandler.HandleDownload)
		files.DELETE("/:name", fileHandler.HandleDelete)
	}

	ai := router.Group("/api/ai")
	{
		ai.POST("/summarize", aiHandler.HandleSummarize)
		ai.POST("/flashcards", aiHandler.HandleFlashcards)
		ai.POST("/quiz", aiHandler.HandleQuiz)
		ai.POST("/explain", aiHandler.HandleExplain)

		ai.GET("/flashcards", aiHandler.HandleListFlashcardSets)
		ai.GET("/flashcards/:setId", aiHandler.HandleGetFlashcardSet)
		ai.GET("/quizzes", aiHandler.HandleListQuizzes)
		ai.GET("/quizzes/:id", aiHandler.HandleGetQuiz)
		ai.GET("/summaries", aiHandler.HandleListSummaries)
	}
	return router
}

func init() {
	rootCmd.AddCommand(startServerCmd)
}

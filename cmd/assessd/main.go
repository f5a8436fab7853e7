package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	api "github.com/classforge/assessd/internal/api/http"
	auth "github.com/classforge/assessd/internal/auth/middleware"
	"github.com/classforge/assessd/internal/config"
	"github.com/classforge/assessd/internal/db"
	"github.com/classforge/assessd/internal/grading"
	"github.com/classforge/assessd/internal/logging"
	"github.com/classforge/assessd/internal/rbac"
	"github.com/classforge/assessd/internal/storage"
	"github.com/classforge/assessd/internal/store"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogPath)
	defer log.Sync() //nolint:errcheck

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}

	engine := grading.NewEngine()
	st := store.NewSQLStore(dbh, engine)

	// --- Blob store ---
	var bs storage.BlobStore
	switch cfg.BlobDriver {
	case "minio":
		bs, err = storage.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	default:
		bs, err = storage.NewFSStore(cfg.BlobBasePath)
	}
	if err != nil {
		log.Fatal("blob store", zap.Error(err))
	}

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.AdminUser, cfg.AdminPassHash)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc))

	// Protected API (JWT -> role in context -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Authoring (tutor/admin)
		pr.With(rbac.Require("assessment:create")).
			Post("/assessments", api.CreateAssessmentHandler(st))
		pr.With(rbac.Require("assessment:view")).
			Get("/assessments", api.ListAssessmentsHandler(st))
		pr.With(rbac.Require("assessment:view")).
			Get("/assessments/{assessmentID}", api.GetAssessmentHandler(st))
		pr.With(rbac.Require("assessment:publish")).
			Post("/assessments/{assessmentID}/publish", api.PublishAssessmentHandler(st))
		pr.With(rbac.Require("assessment:archive")).
			Post("/assessments/{assessmentID}/archive", api.ArchiveAssessmentHandler(st))
		pr.With(rbac.Require("assessment:delete")).
			Delete("/assessments/{assessmentID}", api.DeleteAssessmentHandler(st))

		// Student flow
		pr.With(rbac.Require("submission:create")).
			Post("/submissions", api.CreateSubmissionHandler(st))
		pr.With(rbac.RequireAny("submission:view-own", "submission:view-all")).
			Get("/submissions/{submissionID}", api.GetSubmissionHandler(st))

		// Grading (tutor/admin)
		pr.With(rbac.Require("submission:view-all")).
			Get("/assessments/{assessmentID}/submissions", api.ListSubmissionsHandler(st))
		pr.With(rbac.Require("submission:grade")).
			Get("/submissions/{submissionID}/grading", api.GetGradingWorksheetHandler(st))
		pr.With(rbac.Require("submission:grade")).
			Post("/submissions/{submissionID}/grading", api.ApplyGradesHandler(st))
		pr.With(rbac.Require("submission:release")).
			Post("/submissions/{submissionID}/release", api.ReleaseSubmissionHandler(st))

		// Artifacts
		pr.With(rbac.Require("artifact:upload")).
			Post("/artifacts", api.UploadArtifactHandler(bs, st))
		pr.With(rbac.RequireAny("submission:view-own", "submission:view-all")).
			Get("/artifacts/*", api.GetArtifactHandler(bs))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("db", cfg.DBDriver), zap.String("blob", cfg.BlobDriver))
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal("server", zap.Error(err))
	}
}

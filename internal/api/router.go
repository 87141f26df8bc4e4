package api

import (
	"errors"

	"github.com/micocomia/5902Group5/docs"
	"github.com/micocomia/5902Group5/internal/api/handlers"
	"github.com/micocomia/5902Group5/pkg/auth"
	"github.com/micocomia/5902Group5/pkg/config"
	"github.com/micocomia/5902Group5/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Learner   *handlers.LearnerHandler
	Retrieval *handlers.RetrievalHandler
	Tutor     *handlers.TutorHandler
	Document  *handlers.DocumentHandler
}

func SetupRouter(h Handlers, jwtManager *auth.JWTManager, serverCfg *config.ServerConfig, appLogger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		// Params and body values outlive the request in the file stores.
		Immutable:    true,
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				appLogger.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	requireAuth := middleware.AuthMiddleware(jwtManager, appLogger)

	authRoutes := app.Group("/auth")
	authRoutes.Post("/register", h.Auth.Register)
	authRoutes.Post("/login", h.Auth.Login)
	authRoutes.Get("/me", h.Auth.Me)
	authRoutes.Delete("/me", requireAuth, h.Auth.DeleteAccount)

	app.Get("/list-llm-models", h.Tutor.ListModels)

	app.Post("/events/log", requireAuth, h.Learner.LogEvent)
	app.Get("/events/:user_id", requireAuth, h.Learner.ListEvents)
	app.Get("/profile/:user_id", requireAuth, h.Learner.GetProfile)
	app.Put("/profile/:user_id/:goal_id", requireAuth, h.Learner.PutProfile)
	app.Get("/user-state/:user_id", requireAuth, h.Learner.GetUserState)
	app.Put("/user-state/:user_id", requireAuth, h.Learner.PutUserState)
	app.Delete("/user-state/:user_id", requireAuth, h.Learner.DeleteUserState)
	app.Get("/behavioral-metrics/:user_id", requireAuth, h.Learner.BehavioralMetrics)

	app.Get("/verified-content/courses", requireAuth, h.Retrieval.ListCourses)
	app.Post("/verified-content/index", requireAuth, h.Retrieval.IndexVerifiedContent)
	app.Post("/retrieval/search", requireAuth, h.Retrieval.Search)
	app.Post("/chat-with-tutor", requireAuth, h.Tutor.ChatWithTutor)
	app.Post("/extract-pdf-text", requireAuth, h.Document.ExtractPDFText)

	return app
}

package router

import (
	"time"

	"github.com/biosecret/go-todo/handlers"
	"github.com/biosecret/go-todo/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Routes struct {
	Env            string
	Storage        string
	LoginRateLimit int

	Users  *handlers.UserHandler
	Tasks  *handlers.TaskHandler
	Events *handlers.EventHandler
	Tokens middleware.TokenVerifier
}

func SetupRoutes(app *fiber.App, r Routes) {
	app.Get("/", handlers.HandleRoot)
	app.Get("/health", handlers.HandleHealthCheck(r.Env, r.Storage))

	users := app.Group("/users")
	users.Post("/register", r.Users.Register)
	if r.LoginRateLimit > 0 {
		users.Post("/login", limiter.New(limiter.Config{
			Max:        r.LoginRateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
			},
		}), r.Users.Login)
	} else {
		users.Post("/login", r.Users.Login)
	}

	tasks := app.Group("/tasks", middleware.JWTMiddleware(r.Tokens))
	tasks.Get("/list/:userId", r.Tasks.List)
	tasks.Post("/add", r.Tasks.Add)
	tasks.Put("/edit/:id", r.Tasks.Edit)
	tasks.Delete("/delete/:id", r.Tasks.Delete)
	tasks.Put("/toggle/:id", r.Tasks.Toggle)
	tasks.Get("/events", r.Events.Stream)
}

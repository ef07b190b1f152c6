package web

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/gofiber/template/html/v2"
	"go.uber.org/zap"

	"github.com/nexafashions/ims-admin/internal/api"
	"github.com/nexafashions/ims-admin/internal/config"
)

//go:embed views
var viewsFS embed.FS

//go:embed static
var staticFS embed.FS

// Server is the admin HTTP layer: login, the product list and the product
// editor, all rendered server-side and backed by the inventory API.
type Server struct {
	cfg    *config.Config
	client *api.Client
}

func NewServer(cfg *config.Config, client *api.Client) *Server {
	return &Server{cfg: cfg, client: client}
}

// App builds the Fiber application with all routes registered. Everything
// except the login pages sits behind the JWT cookie middleware plus an ADMIN
// role gate.
func (s *Server) App() *fiber.App {
	views, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}

	app := fiber.New(fiber.Config{
		Views: html.NewFileSystem(http.FS(views), ".html"),
	})
	app.Use(s.logRequests)
	app.Use("/static", filesystem.New(filesystem.Config{Root: http.FS(static)}))

	s.RegisterPublicRoutes(app)

	app.Use(jwtware.New(jwtware.Config{
		SigningKey:  []byte(s.cfg.JWTSecret),
		TokenLookup: "cookie:" + tokenCookie,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Redirect("/login", fiber.StatusFound)
		},
	}))
	app.Use(requireAdmin)

	s.RegisterProtectedRoutes(app)
	return app
}

func (s *Server) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/login", s.loginForm)
	app.Post("/login", s.login)
	app.Get("/logout", s.logout)
}

func (s *Server) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/product", fiber.StatusFound)
	})
	app.Get("/product", s.productList)
	app.Get("/product/add", s.productForm)
	app.Get("/product/edit/:productId", s.productForm)
	app.Post("/product/save", s.productSave)
	app.Post("/product/delete/:productId", s.productDelete)
}

// requireAdmin gates the catalog pages on the ADMIN role the backend issued
// at login.
func requireAdmin(c *fiber.Ctx) error {
	if c.Cookies(roleCookie) != adminRole {
		return c.Status(fiber.StatusForbidden).SendString("admin role required")
	}
	return c.Next()
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	zap.S().Infow("request",
		"method", c.Method(),
		"path", c.OriginalURL(),
		"status", c.Response().StatusCode(),
		"took", time.Since(start),
	)
	return err
}

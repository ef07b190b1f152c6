package web

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/nexafashions/ims-admin/internal/api"
	"github.com/nexafashions/ims-admin/internal/editor"
)

const (
	tokenCookie = "token"
	roleCookie  = "role"
	flashCookie = "flash"

	adminRole = "ADMIN"
)

// apiFor returns the API client bound to the operator's own token, so the
// backend sees the same identity the browser logged in with.
func (s *Server) apiFor(c *fiber.Ctx) *api.Client {
	return s.client.WithToken(c.Cookies(tokenCookie))
}

func (s *Server) loginForm(c *fiber.Ctx) error {
	return c.Render("login", fiber.Map{"Title": "Login", "Email": "", "Message": ""})
}

func (s *Server) login(c *fiber.Ctx) error {
	email := c.FormValue("email")
	password := c.FormValue("password")

	token, role, err := s.client.Login(c.UserContext(), email, password)
	if err != nil {
		return c.Render("login", fiber.Map{
			"Title":   "Login",
			"Message": api.ErrorMessage(err, "Login failed"),
			"Email":   email,
		})
	}

	expires := tokenExpiry(token)
	if expires.IsZero() {
		expires = time.Now().Add(24 * time.Hour)
	}
	c.Cookie(&fiber.Cookie{Name: tokenCookie, Value: token, Expires: expires, HTTPOnly: true, Path: "/"})
	c.Cookie(&fiber.Cookie{Name: roleCookie, Value: role, Expires: expires, Path: "/"})

	return c.Redirect("/product", fiber.StatusFound)
}

func (s *Server) logout(c *fiber.Ctx) error {
	expired := time.Now().Add(-time.Hour)
	c.Cookie(&fiber.Cookie{Name: tokenCookie, Value: "", Expires: expired, HTTPOnly: true, Path: "/"})
	c.Cookie(&fiber.Cookie{Name: roleCookie, Value: "", Expires: expired, Path: "/"})
	return c.Redirect("/login", fiber.StatusFound)
}

// tokenExpiry reads the exp claim without verifying the signature; the
// middleware does the real verification on every request. A zero time means
// the token carries no usable expiry.
func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func (s *Server) productList(c *fiber.Ctx) error {
	msg := s.takeFlash(c)

	products, err := s.apiFor(c).GetAllProducts(c.UserContext())
	if err != nil && msg == "" {
		msg = api.ErrorMessage(err, "Error Getting Products")
	}

	return c.Render("product_list", fiber.Map{
		"Title":    "Products",
		"Products": products,
		"Message":  msg,
	}, "layouts/main")
}

// productForm serves both /product/add and /product/edit/:productId; the
// presence of the route parameter decides the session mode.
func (s *Server) productForm(c *fiber.Ctx) error {
	ed := editor.New(s.apiFor(c), editor.WithMessageTTL(s.cfg.MessageTTL))
	ed.Open(c.UserContext(), c.Params("productId"))
	return s.renderForm(c, ed, ed.Message())
}

// productSave replays the browser's form onto an editor session and submits
// it. Success redirects to the list with a flash message; any failure
// re-renders the form with every entered value intact.
func (s *Server) productSave(c *fiber.Ctx) error {
	ed := editor.New(s.apiFor(c), editor.WithMessageTTL(s.cfg.MessageTTL))
	ed.Open(c.UserContext(), c.FormValue("productId"))

	ed.SetName(c.FormValue("name"))
	ed.SetSKU(c.FormValue("sku"))
	ed.SetPrice(c.FormValue("price"))
	ed.SetStockQuantity(c.FormValue("stockQuantity"))
	ed.SetCategoryID(c.FormValue("categoryId"))
	ed.SetSupplierID(c.FormValue("supplierId"))
	ed.SetDescription(c.FormValue("description"))

	if fh, err := c.FormFile("imageFile"); err == nil && fh != nil && fh.Size > 0 {
		f, err := fh.Open()
		if err != nil {
			return s.renderForm(c, ed, "Error Reading Image")
		}
		err = ed.ChooseImage(fh.Filename, f)
		f.Close()
		if err != nil {
			return s.renderForm(c, ed, "Error Reading Image")
		}
	}

	if err := ed.Submit(c.UserContext()); err != nil {
		msg := ed.Message()
		if msg == "" {
			msg = err.Error()
		}
		return s.renderForm(c, ed, msg)
	}

	s.setFlash(c, ed.Message())
	return c.Redirect("/product", fiber.StatusFound)
}

func (s *Server) productDelete(c *fiber.Ctx) error {
	id := c.Params("productId")
	if err := s.apiFor(c).DeleteProduct(c.UserContext(), id); err != nil {
		s.setFlash(c, api.ErrorMessage(err, "Error Deleting Product"))
	} else {
		s.setFlash(c, "Product Deleted Successfully")
	}
	return c.Redirect("/product", fiber.StatusFound)
}

func (s *Server) renderForm(c *fiber.Ctx, ed *editor.Editor, msg string) error {
	title := "Add Product"
	if ed.Editing() {
		title = "Edit Product"
	}
	return c.Render("product_form", fiber.Map{
		"Title":      title,
		"Editing":    ed.Editing(),
		"ProductID":  ed.ProductID(),
		"Draft":      ed.Draft(),
		"Categories": ed.Categories(),
		"Suppliers":  ed.Suppliers(),
		"Message":    msg,
	}, "layouts/main")
}

// Flash messages survive the post-save redirect in a cookie that expires on
// the same schedule as the on-page transient messages.
func (s *Server) setFlash(c *fiber.Ctx, msg string) {
	if msg == "" {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:    flashCookie,
		Value:   url.QueryEscape(msg),
		Expires: time.Now().Add(s.cfg.MessageTTL),
		Path:    "/",
	})
}

func (s *Server) takeFlash(c *fiber.Ctx) string {
	raw := c.Cookies(flashCookie)
	if raw == "" {
		return ""
	}
	c.Cookie(&fiber.Cookie{Name: flashCookie, Value: "", Expires: time.Now().Add(-time.Hour), Path: "/"})
	msg, err := url.QueryUnescape(raw)
	if err != nil {
		return ""
	}
	return msg
}

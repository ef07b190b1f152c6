package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second), srv
}

func writeEnvelope(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func TestAddProductMultipartFields(t *testing.T) {
	var seen map[string][]string
	var hadImage, hadProductID bool

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/products/add" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		seen = r.MultipartForm.Value
		_, hadProductID = r.MultipartForm.Value["productId"]
		_, hadImage = r.MultipartForm.File["imageFile"]
		writeEnvelope(w, Response{Status: 200, Message: "Product successfully saved"})
	}))

	err := c.AddProduct(context.Background(), ProductSubmission{
		Name: "Tee", SKU: "T-001", Price: 19.99, StockQuantity: 10,
		CategoryID: "1", SupplierID: "2", Description: "plain tee",
	})
	if err != nil {
		t.Fatalf("AddProduct failed: %v", err)
	}

	expect := map[string]string{
		"name":          "Tee",
		"sku":           "T-001",
		"price":         "19.99",
		"stockQuantity": "10",
		"categoryId":    "1",
		"supplierId":    "2",
		"description":   "plain tee",
	}
	for k, v := range expect {
		if got := seen[k]; len(got) != 1 || got[0] != v {
			t.Fatalf("field %q = %v, want %q", k, got, v)
		}
	}
	if hadProductID {
		t.Fatalf("create payload must not contain productId")
	}
	if hadImage {
		t.Fatalf("payload must not contain imageFile when none was chosen")
	}
}

func TestUpdateProductCarriesIDAndImage(t *testing.T) {
	imgData := []byte("fake image bytes")

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/products/update" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("productId"); got != "5" {
			t.Fatalf("productId = %q, want 5", got)
		}
		f, header, err := r.FormFile("imageFile")
		if err != nil {
			t.Fatalf("imageFile part missing: %v", err)
		}
		defer f.Close()
		if header.Filename != "cap.png" {
			t.Fatalf("imageFile name = %q, want cap.png", header.Filename)
		}
		b, _ := io.ReadAll(f)
		if string(b) != string(imgData) {
			t.Fatalf("imageFile bytes do not match")
		}
		writeEnvelope(w, Response{Status: 200, Message: "Product Updated successfully"})
	}))

	err := c.UpdateProduct(context.Background(), ProductSubmission{
		ProductID: "5", Name: "Cap", SKU: "C-9", Price: 15, StockQuantity: 3,
		CategoryID: "1", SupplierID: "2",
		Image: &ImageFile{Name: "cap.png", Data: imgData},
	})
	if err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}
}

func TestGetProductByIDRequiresStatus200(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/products/5":
			writeEnvelope(w, Response{Status: 200, Message: "success", Product: &Product{ID: 5, Name: "Cap"}})
		case "/api/products/9":
			// HTTP 200 but an envelope error, as the backend reports misses
			writeEnvelope(w, Response{Status: 404, Message: "Product Not Found"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	p, err := c.GetProductByID(context.Background(), "5")
	if err != nil {
		t.Fatalf("GetProductByID(5) failed: %v", err)
	}
	if p.Name != "Cap" {
		t.Fatalf("product name = %q, want Cap", p.Name)
	}

	_, err = c.GetProductByID(context.Background(), "9")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Message != "Product Not Found" {
		t.Fatalf("error message = %q", apiErr.Message)
	}
}

func TestRequestsCarryAuthAndRequestID(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Fatalf("Authorization = %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Fatalf("X-Request-ID missing")
		}
		writeEnvelope(w, Response{Status: 200, Categories: []Category{{ID: 1, Name: "Shirts"}}})
	}))

	cats, err := c.WithToken("tok-123").GetAllCategory(context.Background())
	if err != nil {
		t.Fatalf("GetAllCategory failed: %v", err)
	}
	if len(cats) != 1 || cats[0].Name != "Shirts" {
		t.Fatalf("unexpected categories: %+v", cats)
	}
}

func TestLoginReturnsTokenAndRole(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var creds map[string]string
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if creds["email"] != "admin@nexa.test" || creds["password"] != "secret" {
			writeEnvelope(w, Response{Status: 401, Message: "Invalid credentials"})
			return
		}
		writeEnvelope(w, Response{Status: 200, Message: "Login successful", Token: "tok-123", Role: "ADMIN"})
	}))

	token, role, err := c.Login(context.Background(), "admin@nexa.test", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token != "tok-123" || role != "ADMIN" {
		t.Fatalf("token/role = %q/%q", token, role)
	}

	_, _, err = c.Login(context.Background(), "admin@nexa.test", "wrong")
	if ErrorMessage(err, "fallback") != "Invalid credentials" {
		t.Fatalf("expected backend message, got %v", err)
	}
}

func TestHTTPErrorWithoutEnvelope(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))

	_, err := c.GetAllSuppliers(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Fatalf("status = %d", apiErr.Status)
	}
	if ErrorMessage(err, "Error fetching suppliers") != "Error fetching suppliers" {
		t.Fatalf("fallback message not used")
	}
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Error is a failed backend call. Message carries the backend-provided
// message when one was returned.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("inventory api error (status %d)", e.Status)
}

// ErrorMessage returns the backend-provided message carried by err, falling
// back to the given generic message when there is none.
func ErrorMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// Client talks to the inventory backend. A Client is safe for concurrent use.
type Client struct {
	baseURL string
	hc      *http.Client
	token   string
}

// New returns a Client for the backend at baseURL (without the /api suffix).
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
	}
}

// WithToken returns a copy of the client that sends the given bearer token
// with every request.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Login authenticates against the backend and returns the issued token and
// the user's role.
func (c *Client) Login(ctx context.Context, email, password string) (token, role string, err error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", "", err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return "", "", err
	}
	return resp.Token, resp.Role, nil
}

// GetAllCategory returns the category reference collection.
func (c *Client) GetAllCategory(ctx context.Context) ([]Category, error) {
	resp, err := c.getJSON(ctx, "/api/categories/all")
	if err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

// GetAllSuppliers returns the supplier reference collection.
func (c *Client) GetAllSuppliers(ctx context.Context) ([]Supplier, error) {
	resp, err := c.getJSON(ctx, "/api/suppliers/all")
	if err != nil {
		return nil, err
	}
	return resp.Suppliers, nil
}

// GetProductByID fetches one product. The record is returned only when the
// backend reports status 200 and includes a product.
func (c *Client) GetProductByID(ctx context.Context, id string) (*Product, error) {
	resp, err := c.getJSON(ctx, "/api/products/"+id)
	if err != nil {
		return nil, err
	}
	if resp.Product == nil {
		return nil, &Error{Status: resp.Status, Message: resp.Message}
	}
	return resp.Product, nil
}

// GetAllProducts returns every product, newest first (backend ordering).
func (c *Client) GetAllProducts(ctx context.Context) ([]Product, error) {
	resp, err := c.getJSON(ctx, "/api/products/all")
	if err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// AddProduct creates a product from the multipart submission.
func (c *Client) AddProduct(ctx context.Context, sub ProductSubmission) error {
	return c.sendProduct(ctx, http.MethodPost, "/api/products/add", sub)
}

// UpdateProduct updates the product identified by sub.ProductID.
func (c *Client) UpdateProduct(ctx context.Context, sub ProductSubmission) error {
	return c.sendProduct(ctx, http.MethodPut, "/api/products/update", sub)
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/products/delete/"+id, nil)
	if err != nil {
		return err
	}
	_, err = c.do(req)
	return err
}

func (c *Client) sendProduct(ctx context.Context, method, path string, sub ProductSubmission) error {
	body, contentType, err := sub.encode()
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	_, err = c.do(req)
	return err
}

// encode writes the submission as a multipart form. Part names are part of
// the backend contract and must not change.
func (sub ProductSubmission) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"name", sub.Name},
		{"sku", sub.SKU},
		{"price", strconv.FormatFloat(sub.Price, 'f', -1, 64)},
		{"stockQuantity", strconv.FormatFloat(sub.StockQuantity, 'f', -1, 64)},
		{"categoryId", sub.CategoryID},
		{"supplierId", sub.SupplierID},
		{"description", sub.Description},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	if sub.ProductID != "" {
		if err := w.WriteField("productId", sub.ProductID); err != nil {
			return nil, "", err
		}
	}
	if sub.Image != nil {
		fw, err := w.CreateFormFile("imageFile", sub.Image.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(sub.Image.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) getJSON(ctx context.Context, path string) (*Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// do executes the request and decodes the response envelope. Any HTTP error
// status or an envelope status other than 200 becomes an *Error.
func (c *Client) do(req *http.Request) (*Response, error) {
	res, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var resp Response
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		if res.StatusCode >= http.StatusBadRequest {
			return nil, &Error{Status: res.StatusCode}
		}
		return nil, fmt.Errorf("decode response from %s: %w", req.URL.Path, err)
	}
	if res.StatusCode >= http.StatusBadRequest || resp.Status != http.StatusOK {
		status := resp.Status
		if status == 0 {
			status = res.StatusCode
		}
		return nil, &Error{Status: status, Message: resp.Message}
	}
	return &resp, nil
}

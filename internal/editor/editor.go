// Package editor implements the product create/edit session: mode
// resolution, concurrent reference and entity loading, the image preview
// pipeline and submission to the inventory backend.
package editor

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"

	"github.com/nexafashions/ims-admin/internal/api"
)

// API is the slice of the inventory backend the editor depends on.
type API interface {
	GetAllCategory(ctx context.Context) ([]api.Category, error)
	GetAllSuppliers(ctx context.Context) ([]api.Supplier, error)
	GetProductByID(ctx context.Context, id string) (*api.Product, error)
	AddProduct(ctx context.Context, sub api.ProductSubmission) error
	UpdateProduct(ctx context.Context, sub api.ProductSubmission) error
}

// User-facing messages. Load and save failures prefer the backend-provided
// message and fall back to these.
const (
	MsgCategoriesFailed = "Error Getting Categories"
	MsgSuppliersFailed  = "Error fetching suppliers"
	MsgProductFailed    = "Error Getting Product By Id"
	MsgSaveFailed       = "Error Saving Product"
	MsgProductAdded     = "Product Added Successfully"
	MsgProductUpdated   = "Product Updated Successfully"
)

var (
	// ErrSubmitInFlight is returned when Submit is called while a previous
	// submission has not finished.
	ErrSubmitInFlight = errors.New("a save is already in progress")

	// ErrNotLoaded is returned when an edit session is submitted before the
	// product fetch completed; saving then would overwrite real fields with
	// blank defaults.
	ErrNotLoaded = errors.New("product is still loading")
)

// ValidationError reports a draft field that cannot be submitted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Field + " " + e.Reason }

// Draft is the editable form state. Numeric fields stay text until
// submission, mirroring how they are edited.
type Draft struct {
	Name          string
	SKU           string
	Price         string
	StockQuantity string
	CategoryID    string
	SupplierID    string
	Description   string

	// ImageURL is the persisted image location in edit mode, or a local
	// data-URL preview once a new file is chosen.
	ImageURL string

	// ImageFile is the pending replacement image, nil until one is chosen.
	ImageFile *api.ImageFile
}

// Editor owns one create/edit session. All exported methods are safe for
// concurrent use.
type Editor struct {
	api        API
	messageTTL time.Duration

	mu         sync.Mutex
	productID  string
	editing    bool
	loaded     bool
	draft      Draft
	categories []api.Category
	suppliers  []api.Supplier
	message    string
	imageSeq   uint64
	inFlight   bool
}

// Option configures an Editor.
type Option func(*Editor)

// WithMessageTTL overrides how long transient messages stay visible.
func WithMessageTTL(d time.Duration) Option {
	return func(e *Editor) { e.messageTTL = d }
}

// New returns an editor backed by the given API.
func New(backend API, opts ...Option) *Editor {
	e := &Editor{api: backend, messageTTL: 4 * time.Second}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Open resolves the session mode and runs the mount-time fetches. An empty
// productID opens a create session; a non-empty one opens an edit session
// for that product. Reference data loads in both modes. The fetches run
// concurrently, update disjoint state and fail soft: a failure surfaces a
// transient message and leaves the rest of the form usable. Open blocks
// until all fetches settle.
func (e *Editor) Open(ctx context.Context, productID string) {
	e.mu.Lock()
	e.productID = productID
	e.editing = productID != ""
	e.loaded = false
	e.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { e.loadCategories(ctx); return nil })
	g.Go(func() error { e.loadSuppliers(ctx); return nil })
	if productID != "" {
		g.Go(func() error { e.loadProduct(ctx, productID); return nil })
	}
	_ = g.Wait()
}

func (e *Editor) loadCategories(ctx context.Context) {
	cats, err := e.api.GetAllCategory(ctx)
	if err != nil {
		e.ShowMessage(api.ErrorMessage(err, MsgCategoriesFailed))
		return
	}
	e.mu.Lock()
	e.categories = cats
	e.mu.Unlock()
}

func (e *Editor) loadSuppliers(ctx context.Context) {
	sups, err := e.api.GetAllSuppliers(ctx)
	if err != nil {
		e.ShowMessage(api.ErrorMessage(err, MsgSuppliersFailed))
		return
	}
	e.mu.Lock()
	e.suppliers = sups
	e.mu.Unlock()
}

// loadProduct seeds every editable field from the fetched record. On failure
// the draft stays at its defaults and the session remains unsubmittable.
func (e *Editor) loadProduct(ctx context.Context, id string) {
	p, err := e.api.GetProductByID(ctx, id)
	if err != nil {
		e.ShowMessage(api.ErrorMessage(err, MsgProductFailed))
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.productID != id {
		// the session moved to another product while this fetch was in flight
		return
	}
	e.draft = Draft{
		Name:          p.Name,
		SKU:           p.SKU,
		Price:         formatNumber(p.Price),
		StockQuantity: formatNumber(p.StockQuantity),
		CategoryID:    strconv.FormatInt(p.CategoryID, 10),
		SupplierID:    strconv.FormatInt(p.SupplierID, 10),
		Description:   p.Description,
		ImageURL:      p.ImageURL,
	}
	e.loaded = true
}

// Field setters, one per editable field.

func (e *Editor) SetName(v string)          { e.set(func(d *Draft) { d.Name = v }) }
func (e *Editor) SetSKU(v string)           { e.set(func(d *Draft) { d.SKU = v }) }
func (e *Editor) SetPrice(v string)         { e.set(func(d *Draft) { d.Price = v }) }
func (e *Editor) SetStockQuantity(v string) { e.set(func(d *Draft) { d.StockQuantity = v }) }
func (e *Editor) SetCategoryID(v string)    { e.set(func(d *Draft) { d.CategoryID = v }) }
func (e *Editor) SetSupplierID(v string)    { e.set(func(d *Draft) { d.SupplierID = v }) }
func (e *Editor) SetDescription(v string)   { e.set(func(d *Draft) { d.Description = v }) }

func (e *Editor) set(fn func(*Draft)) {
	e.mu.Lock()
	fn(&e.draft)
	e.mu.Unlock()
}

// ChooseImage registers a newly selected image file. The file becomes the
// pending upload immediately; a data-URL preview replaces ImageURL once the
// asynchronous encode completes. A nil reader models a cancelled file dialog
// and changes nothing. Each selection bumps a sequence number and stale
// completions are dropped, so a slow encode never overwrites the preview of
// a later selection.
func (e *Editor) ChooseImage(name string, r io.Reader) error {
	if r == nil {
		return nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read image %q: %w", name, err)
	}

	e.mu.Lock()
	e.draft.ImageFile = &api.ImageFile{Name: name, Data: data}
	e.imageSeq++
	seq := e.imageSeq
	e.mu.Unlock()

	go func() {
		url := dataURL(data)
		e.mu.Lock()
		if seq == e.imageSeq {
			e.draft.ImageURL = url
		}
		e.mu.Unlock()
	}()
	return nil
}

func dataURL(data []byte) string {
	return "data:" + http.DetectContentType(data) + ";base64," +
		base64.StdEncoding.EncodeToString(data)
}

// Submit validates the draft, assembles the payload and dispatches it to the
// backend: updateProduct when editing, addProduct otherwise. Only one
// submission may be in flight at a time. A nil return means the save
// succeeded and the caller should navigate back to the product list; any
// error leaves the draft untouched for retry.
func (e *Editor) Submit(ctx context.Context) error {
	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return ErrSubmitInFlight
	}
	if e.editing && !e.loaded {
		e.mu.Unlock()
		e.ShowMessage("Product is still loading")
		return ErrNotLoaded
	}
	d := e.draft
	editing := e.editing
	productID := e.productID
	e.mu.Unlock()

	sub, err := buildSubmission(d)
	if err != nil {
		return err
	}
	if editing {
		sub.ProductID = productID
	}

	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return ErrSubmitInFlight
	}
	e.inFlight = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.inFlight = false
		e.mu.Unlock()
	}()

	if editing {
		err = e.api.UpdateProduct(ctx, sub)
	} else {
		err = e.api.AddProduct(ctx, sub)
	}
	if err != nil {
		e.ShowMessage(api.ErrorMessage(err, MsgSaveFailed))
		return err
	}

	if editing {
		e.ShowMessage(MsgProductUpdated)
	} else {
		e.ShowMessage(MsgProductAdded)
	}
	return nil
}

// buildSubmission enforces the required-field constraints and converts the
// numeric text fields. No business-rule validation happens here; the backend
// stays the authority on correctness.
func buildSubmission(d Draft) (api.ProductSubmission, error) {
	required := []struct{ field, value string }{
		{"name", d.Name},
		{"sku", d.SKU},
		{"price", d.Price},
		{"stockQuantity", d.StockQuantity},
		{"categoryId", d.CategoryID},
		{"supplierId", d.SupplierID},
	}
	for _, r := range required {
		if r.value == "" {
			return api.ProductSubmission{}, &ValidationError{Field: r.field, Reason: "is required"}
		}
	}

	price, err := cast.ToFloat64E(d.Price)
	if err != nil {
		return api.ProductSubmission{}, &ValidationError{Field: "price", Reason: "must be a number"}
	}
	stock, err := cast.ToFloat64E(d.StockQuantity)
	if err != nil {
		return api.ProductSubmission{}, &ValidationError{Field: "stockQuantity", Reason: "must be a number"}
	}

	return api.ProductSubmission{
		Name:          d.Name,
		SKU:           d.SKU,
		Price:         price,
		StockQuantity: stock,
		CategoryID:    d.CategoryID,
		SupplierID:    d.SupplierID,
		Description:   d.Description,
		Image:         d.ImageFile,
	}, nil
}

// ShowMessage sets the transient status message. The message clears itself
// after the configured delay no matter what is on screen by then; the timer
// is never renewed.
func (e *Editor) ShowMessage(msg string) {
	e.mu.Lock()
	e.message = msg
	e.mu.Unlock()
	time.AfterFunc(e.messageTTL, func() {
		e.mu.Lock()
		e.message = ""
		e.mu.Unlock()
	})
}

// Message returns the current transient message, or "".
func (e *Editor) Message() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.message
}

// Editing reports whether this is an edit session.
func (e *Editor) Editing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editing
}

// ProductID returns the id of the product being edited, or "" in create mode.
func (e *Editor) ProductID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.productID
}

// Loaded reports whether the edit-mode entity fetch has seeded the draft.
func (e *Editor) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

// Draft returns a snapshot of the editable form state.
func (e *Editor) Draft() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// Categories returns the loaded category reference collection.
func (e *Editor) Categories() []api.Category {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]api.Category, len(e.categories))
	copy(out, e.categories)
	return out
}

// Suppliers returns the loaded supplier reference collection.
func (e *Editor) Suppliers() []api.Supplier {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]api.Supplier, len(e.suppliers))
	copy(out, e.suppliers)
	return out
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

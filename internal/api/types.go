package api

// Response is the envelope every inventory backend endpoint returns. status
// and message are always present; the payload fields depend on the endpoint.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`

	Token string `json:"token,omitempty"`
	Role  string `json:"role,omitempty"`

	Categories []Category `json:"categories,omitempty"`
	Suppliers  []Supplier `json:"suppliers,omitempty"`
	Product    *Product   `json:"product,omitempty"`
	Products   []Product  `json:"products,omitempty"`
}

// Category is a read-only reference record used to populate the category
// selector. The editor never mutates it.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Supplier is a read-only reference record used to populate the supplier
// selector.
type Supplier struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product is the backend's product record.
type Product struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	SKU           string  `json:"sku"`
	Price         float64 `json:"price"`
	StockQuantity float64 `json:"stockQuantity"`
	CategoryID    int64   `json:"categoryId"`
	SupplierID    int64   `json:"supplierId"`
	Description   string  `json:"description"`
	ImageURL      string  `json:"imageUrl"`
}

// ImageFile is a newly chosen image waiting to be uploaded.
type ImageFile struct {
	Name string
	Data []byte
}

// ProductSubmission is the payload for AddProduct and UpdateProduct. It is
// sent as a multipart form; the part names are fixed by the backend contract.
type ProductSubmission struct {
	// ProductID is set only when updating an existing product.
	ProductID string

	Name          string
	SKU           string
	Price         float64
	StockQuantity float64
	CategoryID    string
	SupplierID    string
	Description   string

	// Image is nil when no replacement image was chosen; the backend then
	// keeps the persisted image untouched.
	Image *ImageFile
}

package transport

// ProductResponse is a product as returned by the API.
type ProductResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Series string `json:"series"`
	Active bool   `json:"active"`
}

// ListProductsRequest is the product list query string.
type ListProductsRequest struct {
	Search     string `form:"search"`
	ActiveOnly bool   `form:"activeOnly"`
	Page       int    `form:"page"`
	PageSize   int    `form:"pageSize"`
}

// ProductListResponse is one page of products.
type ProductListResponse struct {
	Items      []ProductResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

// Reference is a resolved product reference on a lead. ID is nil when a
// name could not be matched against the catalog.
type Reference struct {
	ID   *int64 `json:"id,omitempty"`
	Name string `json:"name"`
}

// Package client provides a typed HTTP client for the marketplace API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/politologod/vibes-marketplace/internal/models"
)

// DefaultTimeout bounds every request unless the caller's context is stricter.
const DefaultTimeout = 10 * time.Second

// APIError is a failure response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is an APIError with status 401.
func IsUnauthorized(err error) bool { return hasStatus(err, http.StatusUnauthorized) }

// IsForbidden reports whether err is an APIError with status 403.
func IsForbidden(err error) bool { return hasStatus(err, http.StatusForbidden) }

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

// IsServerError reports whether err is an APIError with a 5xx status.
func IsServerError(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode >= 500
}

func hasStatus(err error, status int) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == status
}

// Client talks to the marketplace API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a Client for the given base URL, e.g. "http://localhost:3001".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token, typically after login.
func (c *Client) SetToken(token string) { c.token = token }

// envelope mirrors the API's response wrapper.
type envelope struct {
	Success      bool            `json:"success"`
	Data         json.RawMessage `json:"data"`
	Message      string          `json:"message"`
	Error        string          `json:"error"`
	Token        string          `json:"token"`
	User         json.RawMessage `json:"user"`
	TotalResults int             `json:"totalResults"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) (*envelope, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
	}

	if resp.StatusCode >= 400 {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return &env, nil
}

func decodeData(env *envelope, out interface{}) error {
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// Session is an issued token with its reduced user view.
type Session struct {
	Token string          `json:"token"`
	User  models.AuthUser `json:"user"`
}

// RegisterRequest is the payload for Register.
type RegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	NombreCompleto string `json:"nombreCompleto"`
	Cedula         string `json:"cedula"`
	NumeroTelefono string `json:"numeroTelefono"`
	Direccion      string `json:"direccion"`
	Edad           int    `json:"edad,omitempty"`
}

func (c *Client) session(env *envelope) (*Session, error) {
	session := &Session{Token: env.Token}
	if len(env.User) > 0 {
		if err := json.Unmarshal(env.User, &session.User); err != nil {
			return nil, fmt.Errorf("decoding user: %w", err)
		}
	}
	c.token = session.Token
	return session, nil
}

// Register creates an account and stores the issued token on the client.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, req)
	if err != nil {
		return nil, err
	}
	return c.session(env)
}

// Login authenticates and stores the issued token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/auth/login", nil,
		map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	return c.session(env)
}

// Verify resolves the stored token to its user.
func (c *Client) Verify(ctx context.Context) (*models.AuthUser, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/auth/verify", nil, nil)
	if err != nil {
		return nil, err
	}
	var user models.AuthUser
	if err := json.Unmarshal(env.User, &user); err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}
	return &user, nil
}

// ListOptions are the query parameters for ListProducts.
type ListOptions struct {
	Search    string
	Sort      string
	Order     string
	Page      int
	Limit     int
	Available *bool
}

// Pagination mirrors the API's paging block.
type Pagination struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	TotalProducts int64 `json:"totalProducts"`
	HasNextPage   bool  `json:"hasNextPage"`
	HasPrevPage   bool  `json:"hasPrevPage"`
}

// ProductPage is one page of listings.
type ProductPage struct {
	Products   []models.Product
	Pagination Pagination
}

// ListProducts fetches a filtered, sorted page of listings.
func (c *Client) ListProducts(ctx context.Context, opts ListOptions) (*ProductPage, error) {
	query := url.Values{}
	if opts.Search != "" {
		query.Set("search", opts.Search)
	}
	if opts.Sort != "" {
		query.Set("sort", opts.Sort)
	}
	if opts.Order != "" {
		query.Set("order", opts.Order)
	}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Available != nil {
		query.Set("available", strconv.FormatBool(*opts.Available))
	}

	fullURL := c.baseURL + "/api/products"
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var wire struct {
		Success    bool             `json:"success"`
		Data       []models.Product `json:"data"`
		Pagination Pagination       `json:"pagination"`
		Error      string           `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		msg := wire.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	return &ProductPage{Products: wire.Data, Pagination: wire.Pagination}, nil
}

// GetProduct fetches one listing by ID.
func (c *Client) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	var product models.Product
	if err := decodeData(env, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct creates a listing owned by the authenticated user.
func (c *Client) CreateProduct(ctx context.Context, product models.Product) (*models.Product, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/products", nil, product)
	if err != nil {
		return nil, err
	}
	var created models.Product
	if err := decodeData(env, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProduct applies a partial update to an owned listing. Fields is
// marshalled as-is, so use the wire names (nombre, precio, stock, ...).
func (c *Client) UpdateProduct(ctx context.Context, id string, fields map[string]interface{}) (*models.Product, error) {
	env, err := c.do(ctx, http.MethodPut, "/api/products/"+url.PathEscape(id), nil, fields)
	if err != nil {
		return nil, err
	}
	var updated models.Product
	if err := decodeData(env, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProduct removes an owned listing.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(id), nil, nil)
	return err
}

// SearchResult is the outcome of a scored text search.
type SearchResult struct {
	Products     []models.Product
	TotalResults int
}

// SearchProducts runs the relevance-ranked text search.
func (c *Client) SearchProducts(ctx context.Context, q, categoria string, limit int) (*SearchResult, error) {
	query := url.Values{"q": []string{q}}
	if categoria != "" {
		query.Set("categoria", categoria)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	env, err := c.do(ctx, http.MethodGet, "/api/products/search", query, nil)
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := decodeData(env, &products); err != nil {
		return nil, err
	}
	return &SearchResult{Products: products, TotalResults: env.TotalResults}, nil
}

// Categories lists the distinct categories with active listings.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/products/categorias", nil, nil)
	if err != nil {
		return nil, err
	}
	var categories []string
	if err := decodeData(env, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ListUsers fetches all profiles.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/users", nil, nil)
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := decodeData(env, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches one profile by ID.
func (c *Client) GetUser(ctx context.Context, id string) (*models.User, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := decodeData(env, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByCedula fetches one profile by its legal identifier.
func (c *Client) GetUserByCedula(ctx context.Context, cedula string) (*models.User, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/users/cedula/"+url.PathEscape(cedula), nil, nil)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := decodeData(env, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type existsResponse struct {
	Existe bool `json:"existe"`
}

// CorreoExists reports whether a profile with this email exists.
func (c *Client) CorreoExists(ctx context.Context, correo string) (bool, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/users/verificar-correo/"+url.PathEscape(correo), nil, nil)
	if err != nil {
		return false, err
	}
	var out existsResponse
	if err := decodeData(env, &out); err != nil {
		return false, err
	}
	return out.Existe, nil
}

// CedulaExists reports whether a profile with this cedula exists.
func (c *Client) CedulaExists(ctx context.Context, cedula string) (bool, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/users/verificar-cedula/"+url.PathEscape(cedula), nil, nil)
	if err != nil {
		return false, err
	}
	var out existsResponse
	if err := decodeData(env, &out); err != nil {
		return false, err
	}
	return out.Existe, nil
}

// UpdateUser applies a partial update to the authenticated user's profile.
func (c *Client) UpdateUser(ctx context.Context, id string, fields map[string]interface{}) (*models.User, error) {
	env, err := c.do(ctx, http.MethodPut, "/api/users/"+url.PathEscape(id), nil, fields)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := decodeData(env, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes the authenticated user's profile.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(id), nil, nil)
	return err
}

// UpdateBankAccounts replaces the authenticated user's bank account list.
func (c *Client) UpdateBankAccounts(ctx context.Context, id string, cuentas []models.CuentaBancaria) (*models.User, error) {
	env, err := c.do(ctx, http.MethodPut, "/api/users/"+url.PathEscape(id)+"/cuentas-bancarias", nil,
		map[string]interface{}{"cuentasBancarias": cuentas})
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := decodeData(env, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePagoMovil replaces the authenticated user's mobile-payment descriptor.
func (c *Client) UpdatePagoMovil(ctx context.Context, id string, pagoMovil models.PagoMovil) (*models.User, error) {
	env, err := c.do(ctx, http.MethodPut, "/api/users/"+url.PathEscape(id)+"/pago-movil", nil, pagoMovil)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := decodeData(env, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Ping checks API liveness.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/api/ping", nil, nil)
	return err
}

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/urbanpizzeria/pos-backend/pkg/config"
	pkgerrors "github.com/urbanpizzeria/pos-backend/pkg/errors"
	"github.com/urbanpizzeria/pos-backend/pkg/logger"
)

var (
	errBaseURLRequired = errors.New("remote base url is required")
	errLoggerRequired  = errors.New("remote logger is required")
)

// Product is the wire shape of one catalog entry.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     *int      `json:"price,omitempty"`
	Varieties []Variety `json:"varieties,omitempty"`
}

// Variety is a size/price pair scoped to one product.
type Variety struct {
	Size  string `json:"size"`
	Price int    `json:"price"`
}

// OrderLine is the wire shape of one invoiced cart line.
type OrderLine struct {
	Name          string `json:"name"`
	Size          string `json:"size,omitempty"`
	Price         int    `json:"price"`
	Quantity      int    `json:"quantity"`
	IsFree        bool   `json:"isFree,omitempty"`
	OriginalPrice int    `json:"originalPrice,omitempty"`
}

// Order is the remote-owned order record.
type Order struct {
	ID          string          `json:"id,omitempty"`
	Products    []OrderLine     `json:"products"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Delivery    int             `json:"delivery"`
	Discount    int             `json:"discount"`
	Phone       *string         `json:"phone"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Client talks to the remote catalog/order service with centralized error
// mapping: read failures surface as REMOTE_UNAVAILABLE so callers can fall
// back to cached data, write rejections as REMOTE_REJECTED.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logger.Logger
}

// NewClient validates the configuration and builds the remote client.
func NewClient(cfg config.RemoteConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logg,
	}, nil
}

// FetchProducts loads the authoritative catalog.
func (c *Client) FetchProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.getJSON(ctx, "/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// RemoveProduct deletes a product identified by its (name, price) key.
func (c *Client) RemoveProduct(ctx context.Context, name string, price int) error {
	query := url.Values{}
	query.Set("name", name)
	query.Set("price", strconv.Itoa(price))
	return c.write(ctx, http.MethodDelete, "/products?"+query.Encode(), nil, nil)
}

// FetchOrders loads the authoritative order history.
func (c *Client) FetchOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.getJSON(ctx, "/orders", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CreateOrder submits a locally staged order and returns the stored record.
func (c *Client) CreateOrder(ctx context.Context, order Order) (*Order, error) {
	var created Order
	if err := c.write(ctx, http.MethodPost, "/orders", order, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// RemoveOrder deletes a finalized order by id.
func (c *Client) RemoveOrder(ctx context.Context, id string) error {
	return c.write(ctx, http.MethodDelete, "/orders/"+url.PathEscape(id), nil, nil)
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building remote request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "remote fetch failed")
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pkgerrors.New(pkgerrors.CodeRemoteUnavailable, "remote fetch failed").
			WithDetails(map[string]any{"status": resp.StatusCode, "path": path})
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "decoding remote response")
	}
	return nil
}

func (c *Client) write(ctx context.Context, method, path string, payload, dest any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding remote payload")
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building remote request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "remote write failed")
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return pkgerrors.New(pkgerrors.CodeRemoteRejected, fmt.Sprintf("remote %s %s rejected", method, path)).
			WithDetails(map[string]any{"status": resp.StatusCode, "body": string(detail)})
	}
	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeRemoteRejected, err, "decoding remote write response")
		}
	}
	return nil
}

func drainAndClose(body io.ReadCloser) {
	io.Copy(io.Discard, body)
	body.Close()
}

// Package catalogapi reads the product catalog from an external REST
// catalog (fakestoreapi/dummyjson style).
//
// Supported shapes:
//
//	GET {base}/products             [{"id":1,"title":"...","price":9.99,"image":"...","category":"..."}]
//	                                or {"products":[...]} with "thumbnail" instead of "image"
//	GET {base}/products/categories  ["beauty","fragrances"] or [{"slug":"beauty","name":"Beauty"}]
package catalogapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-backoffice/internal/domain/catalog"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog request %s: unexpected status %d", e.URL, e.Code)
}

var _ catalog.Source = (*Client)(nil)

// Client is a catalog.Source backed by a REST catalog.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for baseURL. A nil httpClient uses
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Products fetches the product list.
func (c *Client) Products(ctx context.Context) ([]catalog.Product, error) {
	body, err := c.get(ctx, "/products")
	if err != nil {
		return nil, err
	}

	products, err := decodeProducts(jx.DecodeBytes(body))
	if err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}

// Categories fetches the category names.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/products/categories")
	if err != nil {
		return nil, err
	}

	categories := []string{}
	if err := jx.DecodeBytes(body).Arr(func(d *jx.Decoder) error {
		name, err := decodeCategory(d)
		if err != nil {
			return err
		}
		categories = append(categories, name)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode categories")
	}
	return categories, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return body, nil
}

func decodeProducts(d *jx.Decoder) ([]catalog.Product, error) {
	products := []catalog.Product{}
	appendProduct := func(d *jx.Decoder) error {
		p, err := DecodeProduct(d)
		if err != nil {
			return err
		}
		products = append(products, p)
		return nil
	}

	switch d.Next() {
	case jx.Array:
		if err := d.Arr(appendProduct); err != nil {
			return nil, err
		}
	case jx.Object:
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			if key != "products" {
				return d.Skip()
			}
			return d.Arr(appendProduct)
		}); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Errorf("unexpected %s", d.Next())
	}
	return products, nil
}

// DecodeProduct reads one product object in any of the supported shapes.
func DecodeProduct(d *jx.Decoder) (catalog.Product, error) {
	var (
		p         catalog.Product
		thumbnail string
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = decodeScalar(d)
		case "title", "name":
			p.Name, err = d.Str()
		case "price":
			p.Price, err = decodeDecimal(d)
		case "image":
			p.Image, err = d.Str()
		case "thumbnail":
			thumbnail, err = d.Str()
		case "category":
			p.Category, err = d.Str()
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	if err != nil {
		return p, err
	}
	if p.Image == "" {
		p.Image = thumbnail
	}
	if p.ID == "" {
		return p, errors.New("product without id")
	}
	return p, nil
}

func decodeCategory(d *jx.Decoder) (string, error) {
	if d.Next() == jx.String {
		return d.Str()
	}

	var slug, name string
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "slug":
			slug, err = d.Str()
		case "name":
			name, err = d.Str()
		default:
			return d.Skip()
		}
		return err
	}); err != nil {
		return "", err
	}
	if slug != "" {
		return slug, nil
	}
	return name, nil
}

// decodeScalar reads a string or number as its string form.
func decodeScalar(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", errors.Errorf("unexpected %s", d.Next())
	}
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	s, err := decodeScalar(d)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(s)
}

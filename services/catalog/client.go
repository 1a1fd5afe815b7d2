package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/MarcGrol/cartbackend/lib/myerrors"
	"github.com/MarcGrol/cartbackend/lib/myhttpclient"
	"github.com/MarcGrol/cartbackend/lib/mylog"
	"github.com/MarcGrol/cartbackend/services/cart"
)

const DefaultBaseURL = "https://fakestoreapi.com"

type Client struct {
	baseURL    string
	httpClient myhttpclient.HTTPSender
	logger     mylog.Logger
}

func NewClient(baseURL string, httpClient myhttpclient.HTTPSender) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     mylog.New("catalog"),
	}
}

func (c *Client) FetchProducts(ctx context.Context) ([]Product, error) {
	products := []Product{}
	_, err := c.get(ctx, "/products", &products)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) FetchCategories(ctx context.Context) ([]string, error) {
	categories := []string{}
	_, err := c.get(ctx, "/products/categories", &categories)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) FetchProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	products := []Product{}
	_, err := c.get(ctx, "/products/category/"+url.PathEscape(category), &products)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) FetchProduct(ctx context.Context, id int) (Product, bool, error) {
	var product *Product
	found, err := c.get(ctx, fmt.Sprintf("/products/%d", id), &product)
	if err != nil {
		return Product{}, false, err
	}
	// the API answers an unknown id with an empty body
	if !found || product == nil || product.ID == 0 {
		return Product{}, false, nil
	}
	return *product, true, nil
}

// FindProduct looks up a product and converts it into what the cart holds
func (c *Client) FindProduct(ctx context.Context, productID string) (cart.Product, bool, error) {
	id, err := strconv.Atoi(productID)
	if err != nil {
		return cart.Product{}, false, nil
	}

	p, found, err := c.FetchProduct(ctx, id)
	if err != nil || !found {
		return cart.Product{}, found, err
	}

	return cart.Product{
		ProductID: strconv.Itoa(p.ID),
		Title:     p.Title,
		Price:     cart.MoneyFromFloat(p.Price),
		Image:     p.Image,
	}, true, nil
}

func (c *Client) get(ctx context.Context, path string, result any) (bool, error) {
	status, payload, err := c.httpClient.Send(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		c.logger.Log(ctx, "", mylog.SeverityError, "Error fetching %s: %s", path, err)
		return false, myerrors.NewUnavailableError(fmt.Errorf("catalog not reachable: %w", err))
	}
	if status == http.StatusNotFound {
		return false, nil
	}
	if status != http.StatusOK {
		c.logger.Log(ctx, "", mylog.SeverityError, "Unexpected http-status %d fetching %s", status, path)
		return false, myerrors.NewUnavailableError(fmt.Errorf("catalog responded with http-status %d", status))
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return true, nil
	}

	err = json.Unmarshal(payload, result)
	if err != nil {
		return false, myerrors.NewUnavailableError(fmt.Errorf("catalog response for %s not understood: %w", path, err))
	}

	return true, nil
}

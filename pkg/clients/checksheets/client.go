package checksheets

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/checksheet/internal/apperrors"
	"github.com/mamadbah2/checksheet/internal/config"
	"github.com/mamadbah2/checksheet/internal/domain/models"
)

// Client exposes the record store operations consumed by the inspection workflow.
type Client interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id int) (models.User, error)
	ListContainersByPO(ctx context.Context, po string) ([]models.Container, error)
	ListItemsByContainer(ctx context.Context, trackingNumber string) ([]models.Item, error)
	ListProperties(ctx context.Context) ([]models.Property, error)
	ListChecks(ctx context.Context, scope models.Scope) ([]models.ItemPropertyCheck, error)
	CreateCheck(ctx context.Context, check models.ItemPropertyCheck) (models.ItemPropertyCheck, error)
	UpdateCheck(ctx context.Context, check models.ItemPropertyCheck) (models.ItemPropertyCheck, error)
	GetContainerFinalized(ctx context.Context, containerCode string) (bool, error)
	FinalizeContainer(ctx context.Context, containerCode string) error
	GetSizeManifest(ctx context.Context, sizeRun string) (models.SizeManifest, error)
	GetShoeByUPC(ctx context.Context, upc string) (models.Shoe, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a record store client using the provided configuration values.
func NewClient(cfg config.CheckSheetConfig) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	restyClient := resty.New()
	restyClient.
		SetBaseURL(base + "/CheckSheets").
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout)

	return &APIClient{httpClient: restyClient}
}

// apiError is the error body returned by the store, when it sends one.
type apiError struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (c *APIClient) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.get(ctx, "/user", nil, &users, "list users"); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *APIClient) GetUser(ctx context.Context, id int) (models.User, error) {
	var user models.User
	params := map[string]string{"id": strconv.Itoa(id)}
	if err := c.get(ctx, "/user/{id}", params, &user, "get user"); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (c *APIClient) ListContainersByPO(ctx context.Context, po string) ([]models.Container, error) {
	var containers []models.Container
	params := map[string]string{"po": po}
	if err := c.get(ctx, "/container/po/{po}", params, &containers, "list containers by po"); err != nil {
		return nil, err
	}
	return containers, nil
}

func (c *APIClient) ListItemsByContainer(ctx context.Context, trackingNumber string) ([]models.Item, error) {
	var items []models.Item
	params := map[string]string{"tracking": trackingNumber}
	if err := c.get(ctx, "/item/{tracking}", params, &items, "list items by container"); err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].TrackingNumber == "" {
			items[i].TrackingNumber = trackingNumber
		}
	}
	return items, nil
}

// ListProperties fetches the catalog and parses select options once.
func (c *APIClient) ListProperties(ctx context.Context) ([]models.Property, error) {
	var records []models.PropertyRecord
	if err := c.get(ctx, "/property", nil, &records, "list properties"); err != nil {
		return nil, err
	}
	return models.ParseCatalog(records)
}

func (c *APIClient) ListChecks(ctx context.Context, scope models.Scope) ([]models.ItemPropertyCheck, error) {
	var checks []models.ItemPropertyCheck
	params := map[string]string{
		"user":      strconv.Itoa(scope.UserID),
		"container": scope.ContainerCode,
		"po":        scope.PONumber,
		"item":      scope.ItemCode,
	}
	path := "/item-property-check/user/{user}/container/{container}/po/{po}/item/{item}"
	if err := c.get(ctx, path, params, &checks, "list checks"); err != nil {
		return nil, err
	}
	return checks, nil
}

func (c *APIClient) CreateCheck(ctx context.Context, check models.ItemPropertyCheck) (models.ItemPropertyCheck, error) {
	check.ID = 0
	result := new(models.ItemPropertyCheck)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(check).
		SetResult(result).
		SetError(new(apiError)).
		Post("/item-property-check")
	if err := classify(resp, err, "create check"); err != nil {
		return models.ItemPropertyCheck{}, err
	}
	return *result, nil
}

func (c *APIClient) UpdateCheck(ctx context.Context, check models.ItemPropertyCheck) (models.ItemPropertyCheck, error) {
	if check.ID == 0 {
		return models.ItemPropertyCheck{}, apperrors.New(apperrors.KindValidation, "update check requires an id")
	}
	result := new(models.ItemPropertyCheck)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", strconv.Itoa(check.ID)).
		SetBody(check).
		SetResult(result).
		SetError(new(apiError)).
		Put("/item-property-check/{id}")
	if err := classify(resp, err, "update check"); err != nil {
		return models.ItemPropertyCheck{}, err
	}
	// some deployments answer 204 with no body
	if result.ID == 0 {
		return check, nil
	}
	return *result, nil
}

func (c *APIClient) GetContainerFinalized(ctx context.Context, containerCode string) (bool, error) {
	var status models.ContainerStatus
	params := map[string]string{"container": containerCode}
	if err := c.get(ctx, "/container-processing/complete/{container}", params, &status, "get container status"); err != nil {
		return false, err
	}
	return status.Completed, nil
}

func (c *APIClient) FinalizeContainer(ctx context.Context, containerCode string) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("container", containerCode).
		SetError(new(apiError)).
		Post("/container-processing/complete/{container}")
	return classify(resp, err, "finalize container")
}

func (c *APIClient) GetSizeManifest(ctx context.Context, sizeRun string) (models.SizeManifest, error) {
	var manifest models.SizeManifest
	params := map[string]string{"code": sizeRun}
	if err := c.get(ctx, "/size-run/{code}", params, &manifest, "get size run"); err != nil {
		return models.SizeManifest{}, err
	}
	manifest.SizeRun = sizeRun
	return manifest, nil
}

func (c *APIClient) GetShoeByUPC(ctx context.Context, upc string) (models.Shoe, error) {
	var shoe models.Shoe
	params := map[string]string{"upc": upc}
	if err := c.get(ctx, "/shoe/{upc}", params, &shoe, "get shoe by upc"); err != nil {
		return models.Shoe{}, err
	}
	if shoe.UPC == "" {
		shoe.UPC = upc
	}
	return shoe, nil
}

func (c *APIClient) get(ctx context.Context, path string, params map[string]string, out any, op string) error {
	req := c.httpClient.R().
		SetContext(ctx).
		SetResult(out).
		SetError(new(apiError))
	if len(params) > 0 {
		req.SetPathParams(params)
	}
	resp, err := req.Get(path)
	return classify(resp, err, op)
}

// classify maps transport failures and error statuses onto the error taxonomy.
func classify(resp *resty.Response, err error, op string) error {
	if err != nil {
		return apperrors.Wrap(apperrors.KindRemoteUnavailable, err, op)
	}
	code := resp.StatusCode()
	if code < http.StatusBadRequest {
		return nil
	}

	message := http.StatusText(code)
	if apiErr, ok := resp.Error().(*apiError); ok && apiErr != nil {
		switch {
		case apiErr.Message != "":
			message = apiErr.Message
		case apiErr.Title != "":
			message = apiErr.Title
		}
	}

	if code == http.StatusNotFound {
		return apperrors.Newf(apperrors.KindNotFound, "%s: %s", op, message)
	}
	return apperrors.Wrap(apperrors.KindRemoteUnavailable, fmt.Errorf("status=%d, message=%s", code, message), op)
}

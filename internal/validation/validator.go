package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"theatre/internal/models"
)

// maxProbeRow bounds the search for a free seat in the order round trip.
const maxProbeRow = 50

// ContractValidator - смоук-проверка работающего API
type ContractValidator struct {
	baseURL string
	client  *http.Client
}

// NewContractValidator создает новый валидатор
func NewContractValidator(baseURL string, client *http.Client) *ContractValidator {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ContractValidator{baseURL: baseURL, client: client}
}

// ValidateAll проверяет все публичные endpoints. Если в каталоге есть
// сеансы, оформляет заказ на свободное место и проверяет конфликт повтора.
func (v *ContractValidator) ValidateAll(ctx context.Context) error {
	slog.Info("Начинаю валидацию API", "base_url", v.baseURL)

	if err := v.validateHealth(ctx); err != nil {
		return fmt.Errorf("health validation failed: %w", err)
	}

	shows, err := v.validateCatalog(ctx)
	if err != nil {
		return fmt.Errorf("catalog validation failed: %w", err)
	}

	if err := v.validateRejections(ctx); err != nil {
		return fmt.Errorf("rejection validation failed: %w", err)
	}

	if err := v.validateOrderRoundTrip(ctx, shows); err != nil {
		return fmt.Errorf("order validation failed: %w", err)
	}

	slog.Info("Все endpoints прошли валидацию успешно")
	return nil
}

func (v *ContractValidator) validateHealth(ctx context.Context) error {
	var body map[string]interface{}
	if err := v.expectJSON(ctx, http.MethodGet, "/api/health", nil, http.StatusOK, &body); err != nil {
		return err
	}
	if body["ok"] != true {
		return fmt.Errorf("GET /api/health: expected ok=true, got %v", body["ok"])
	}
	return nil
}

func (v *ContractValidator) validateCatalog(ctx context.Context) ([]models.Show, error) {
	var actors []models.Actor
	if err := v.expectJSON(ctx, http.MethodGet, "/api/actors", nil, http.StatusOK, &actors); err != nil {
		return nil, err
	}

	var venues []models.Venue
	if err := v.expectJSON(ctx, http.MethodGet, "/api/venues", nil, http.StatusOK, &venues); err != nil {
		return nil, err
	}

	var shows []models.Show
	if err := v.expectJSON(ctx, http.MethodGet, "/api/shows", nil, http.StatusOK, &shows); err != nil {
		return nil, err
	}

	for i := 1; i < len(shows); i++ {
		if shows[i].Popularity > shows[i-1].Popularity {
			return nil, fmt.Errorf("GET /api/shows: not ordered by popularity at index %d", i)
		}
	}

	if len(shows) > 0 {
		var show models.Show
		path := fmt.Sprintf("/api/shows/%d", shows[0].ID)
		if err := v.expectJSON(ctx, http.MethodGet, path, nil, http.StatusOK, &show); err != nil {
			return nil, err
		}
		if show.ID != shows[0].ID {
			return nil, fmt.Errorf("GET %s: expected id %d, got %d", path, shows[0].ID, show.ID)
		}
	}

	slog.Info("Catalog endpoints валидны", "actors", len(actors), "venues", len(venues), "shows", len(shows))
	return shows, nil
}

func (v *ContractValidator) validateRejections(ctx context.Context) error {
	checks := []struct {
		method string
		path   string
		body   interface{}
		status int
	}{
		{http.MethodGet, "/api/shows/999999999", nil, http.StatusNotFound},
		{http.MethodGet, "/api/orders/NOPE000000", nil, http.StatusNotFound},
		{http.MethodPost, "/api/promo/apply", map[string]string{}, http.StatusBadRequest},
		{http.MethodPost, "/api/orders", map[string]interface{}{"items": []interface{}{}}, http.StatusBadRequest},
	}

	for _, chk := range checks {
		var errResp models.ErrorResponse
		if err := v.expectJSON(ctx, chk.method, chk.path, chk.body, chk.status, &errResp); err != nil {
			return err
		}
		if errResp.OK || errResp.Error == "" {
			return fmt.Errorf("%s %s: expected error body, got %+v", chk.method, chk.path, errResp)
		}
	}
	return nil
}

func (v *ContractValidator) validateOrderRoundTrip(ctx context.Context, shows []models.Show) error {
	var session *models.Session
	for i := range shows {
		if len(shows[i].Sessions) > 0 {
			session = &shows[i].Sessions[0]
			break
		}
	}
	if session == nil {
		slog.Warn("В каталоге нет сеансов, проверка заказа пропущена")
		return nil
	}

	seat, err := v.findFreeSeat(ctx, session.ID)
	if err != nil {
		return err
	}

	order := map[string]interface{}{
		"customer": map[string]string{"name": "Validator", "email": "validator@example.com", "phone": "+10000000000"},
		"items": []map[string]interface{}{
			{"sessionId": session.ID, "seat": seat, "price": session.BasePrice},
		},
	}

	var created models.CreateOrderResponse
	if err := v.expectJSON(ctx, http.MethodPost, "/api/orders", order, http.StatusOK, &created); err != nil {
		return err
	}
	if !created.OK || created.OrderID == "" {
		return fmt.Errorf("POST /api/orders: unexpected response %+v", created)
	}

	var fetched models.Order
	if err := v.expectJSON(ctx, http.MethodGet, "/api/orders/"+created.OrderID, nil, http.StatusOK, &fetched); err != nil {
		return err
	}
	if fetched.Total != created.Total || len(fetched.Tickets) != 1 {
		return fmt.Errorf("GET /api/orders/%s: order does not match placement", created.OrderID)
	}

	var conflict models.ErrorResponse
	if err := v.expectJSON(ctx, http.MethodPost, "/api/orders", order, http.StatusConflict, &conflict); err != nil {
		return err
	}

	slog.Info("Order endpoints валидны", "order_id", created.OrderID)
	return nil
}

func (v *ContractValidator) findFreeSeat(ctx context.Context, sessionID int64) (models.Seat, error) {
	var occ models.OccupiedSeatsResponse
	path := fmt.Sprintf("/api/sessions/%d/occupied", sessionID)
	if err := v.expectJSON(ctx, http.MethodGet, path, nil, http.StatusOK, &occ); err != nil {
		return models.Seat{}, err
	}

	taken := make(map[models.Seat]bool, len(occ.Seats))
	for _, s := range occ.Seats {
		taken[s] = true
	}
	for row := 1; row <= maxProbeRow; row++ {
		for col := 1; col <= maxProbeRow; col++ {
			s := models.Seat{Row: row, Col: col}
			if !taken[s] {
				return s, nil
			}
		}
	}
	return models.Seat{}, fmt.Errorf("session %d has no free seat to probe", sessionID)
}

// expectJSON performs the request, checks the status and decodes the body into out.
func (v *ContractValidator) expectJSON(ctx context.Context, method, path string, body interface{}, status int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, v.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != status {
		return fmt.Errorf("%s %s: expected %d, got %d", method, path, status, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}

package order

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// UserDirectory confirms a user exists before any reservation is attempted.
type UserDirectory interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// CartService owns the shopping cart; the coordinator only clears it after a
// committed placement, best-effort.
type CartService interface {
	Clear(ctx context.Context, userID string) error
}

// HTTPUserDirectory asks the user service whether a user exists.
type HTTPUserDirectory struct {
	HTTP    *http.Client
	BaseURL string
}

func NewHTTPUserDirectory(baseURL string) *HTTPUserDirectory {
	return &HTTPUserDirectory{
		HTTP:    &http.Client{Timeout: 5 * time.Second},
		BaseURL: baseURL,
	}
}

func (d *HTTPUserDirectory) Exists(ctx context.Context, userID string) (bool, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/users/%s", d.BaseURL, userID), nil)
	res, err := d.HTTP.Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("user service: %s", res.Status)
	}
}

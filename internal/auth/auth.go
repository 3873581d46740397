// Package auth resolves a request credential into an identity with an
// enumerated role. Role checks elsewhere in the codebase go through
// Identity.IsAdmin, never through string comparison.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

type Role int

const (
	RoleUnknown Role = iota
	RoleCustomer
	RoleAdmin
)

func ParseRole(s string) (Role, error) {
	switch s {
	case "customer":
		return RoleCustomer, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleUnknown, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	switch r {
	case RoleCustomer:
		return "customer"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

type Identity struct {
	UserID string
	Role   Role
}

func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

var ErrInvalidCredential = errors.New("invalid credential")

// Verifier turns an opaque credential (bearer token) into an identity.
type Verifier interface {
	Verify(ctx context.Context, credential string) (Identity, error)
}

// HTTPVerifier asks the auth service to verify a token.
type HTTPVerifier struct {
	HTTP    *http.Client
	BaseURL string
}

func NewHTTPVerifier(baseURL string) *HTTPVerifier {
	return &HTTPVerifier{
		HTTP:    &http.Client{Timeout: 5 * time.Second},
		BaseURL: baseURL,
	}
}

func (v *HTTPVerifier) Verify(ctx context.Context, credential string) (Identity, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, v.BaseURL+"/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer "+credential)
	res, err := v.HTTP.Do(req)
	if err != nil {
		return Identity{}, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return Identity{}, ErrInvalidCredential
	}
	var body struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return Identity{}, err
	}
	role, err := ParseRole(body.Role)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: body.UserID, Role: role}, nil
}

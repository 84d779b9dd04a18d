package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrIdentityTokenInvalid is returned when a federated identity token fails
// verification.
var ErrIdentityTokenInvalid = errors.New("identity token is invalid")

// IdentityClaims are the verified claims extracted from a federated identity
// token.
type IdentityClaims struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// IdentityVerifier verifies a federated identity token and returns the claims
// it asserts. Implementations own all provider-specific validation.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*IdentityClaims, error)
}

// googleVerifier verifies Google ID tokens against the tokeninfo endpoint and
// checks the audience against the configured OAuth client ID.
type googleVerifier struct {
	clientID string
	client   *http.Client
	endpoint string
}

const googleTokenInfoEndpoint = "https://oauth2.googleapis.com/tokeninfo"

// NewGoogleVerifier creates an IdentityVerifier for Google ID tokens.
func NewGoogleVerifier(clientID string) IdentityVerifier {
	return &googleVerifier{
		clientID: clientID,
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: googleTokenInfoEndpoint,
	}
}

// tokenInfoResponse mirrors the fields of the tokeninfo payload we consume.
type tokenInfoResponse struct {
	Aud     string `json:"aud"`
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (g *googleVerifier) Verify(ctx context.Context, idToken string) (*IdentityClaims, error) {
	reqURL := g.endpoint + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tokeninfo request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrIdentityTokenInvalid
	}

	var info tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}

	if g.clientID != "" && info.Aud != g.clientID {
		return nil, ErrIdentityTokenInvalid
	}
	if info.Sub == "" || info.Email == "" {
		return nil, ErrIdentityTokenInvalid
	}

	return &IdentityClaims{
		Subject: info.Sub,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}

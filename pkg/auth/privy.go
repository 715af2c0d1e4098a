package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	privyIssuer  = "privy.io"
	privyAPIBase = "https://auth.privy.io"
)

// PrivyClient verifies Privy access tokens and loads user profiles from the
// Privy REST API.
type PrivyClient struct {
	appID      string
	appSecret  string
	baseURL    string
	httpClient *http.Client

	mu   sync.RWMutex
	keys map[string]*ecdsa.PublicKey
}

// NewPrivyClient creates a client for the given Privy application.
func NewPrivyClient(appID, appSecret string) *PrivyClient {
	return &PrivyClient{
		appID:      appID,
		appSecret:  appSecret,
		baseURL:    privyAPIBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		keys:       map[string]*ecdsa.PublicKey{},
	}
}

// Claims are the verified contents of a Privy access token. Subject is the
// Privy DID ("did:privy:...").
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// VerifyToken validates signature, issuer, audience and expiry of a Privy
// access token and returns its claims.
func (c *PrivyClient) VerifyToken(ctx context.Context, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		kid, _ := t.Header["kid"].(string)
		return c.signingKey(ctx, kid)
	},
		jwt.WithIssuer(privyIssuer),
		jwt.WithAudience(c.appID),
		jwt.WithValidMethods([]string{"ES256"}),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid access token: missing subject")
	}
	return claims, nil
}

// signingKey returns the verification key for kid, refreshing the cached
// JWKS on a miss.
func (c *PrivyClient) signingKey(ctx context.Context, kid string) (*ecdsa.PublicKey, error) {
	c.mu.RLock()
	key, ok := c.keys[kid]
	c.mu.RUnlock()
	if ok {
		return key, nil
	}

	if err := c.refreshJWKS(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok = c.keys[kid]
	if !ok {
		return nil, fmt.Errorf("no verification key with id %q", kid)
	}
	return key, nil
}

type jwksResponse struct {
	Keys []struct {
		Kid string `json:"kid"`
		Kty string `json:"kty"`
		Crv string `json:"crv"`
		X   string `json:"x"`
		Y   string `json:"y"`
	} `json:"keys"`
}

func (c *PrivyClient) refreshJWKS(ctx context.Context) error {
	url := fmt.Sprintf("%s/api/v1/apps/%s/jwks.json", c.baseURL, c.appID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch Privy JWKS: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch Privy JWKS: status %d", resp.StatusCode)
	}

	var jwks jwksResponse
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return fmt.Errorf("failed to decode Privy JWKS: %w", err)
	}

	keys := make(map[string]*ecdsa.PublicKey, len(jwks.Keys))
	for _, k := range jwks.Keys {
		if k.Kty != "EC" || k.Crv != "P-256" {
			continue
		}
		pub, err := parseP256Key(k.X, k.Y)
		if err != nil {
			return fmt.Errorf("invalid JWKS key %q: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return fmt.Errorf("privy JWKS contained no usable keys")
	}

	c.mu.Lock()
	c.keys = keys
	c.mu.Unlock()
	return nil
}

func parseP256Key(xRaw, yRaw string) (*ecdsa.PublicKey, error) {
	xBytes, err := base64.RawURLEncoding.DecodeString(xRaw)
	if err != nil {
		return nil, err
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(yRaw)
	if err != nil {
		return nil, err
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}

// Profile is the subset of a Privy user profile the server uses.
type Profile struct {
	DID            string
	Email          string
	WalletAddress  string
	LinkedAccounts json.RawMessage
}

type privyUserResponse struct {
	ID             string            `json:"id"`
	LinkedAccounts []json.RawMessage `json:"linked_accounts"`
}

type privyLinkedAccount struct {
	Type          string `json:"type"`
	Address       string `json:"address"`
	WalletClient  string `json:"wallet_client_type"`
	ChainType     string `json:"chain_type"`
	EmailVerified bool   `json:"verified"`
}

// GetProfile fetches the Privy user behind a DID and extracts the primary
// wallet address and email from its linked accounts.
func (c *PrivyClient) GetProfile(ctx context.Context, did string) (*Profile, error) {
	url := fmt.Sprintf("%s/api/v1/users/%s", c.baseURL, did)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.appID, c.appSecret)
	req.Header.Set("privy-app-id", c.appID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Privy user: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("failed to fetch Privy user: status %d: %s", resp.StatusCode, body)
	}

	var user privyUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode Privy user: %w", err)
	}

	profile := &Profile{DID: user.ID}
	if profile.DID == "" {
		profile.DID = did
	}
	accounts, _ := json.Marshal(user.LinkedAccounts)
	profile.LinkedAccounts = accounts

	for _, raw := range user.LinkedAccounts {
		var account privyLinkedAccount
		if err := json.Unmarshal(raw, &account); err != nil {
			continue
		}
		switch account.Type {
		case "wallet":
			// First ethereum wallet wins; embedded wallets come first in
			// Privy's ordering.
			if profile.WalletAddress == "" && (account.ChainType == "" || account.ChainType == "ethereum") {
				profile.WalletAddress = account.Address
			}
		case "email":
			if profile.Email == "" {
				profile.Email = account.Address
			}
		}
	}
	return profile, nil
}

// SetBaseURL overrides the Privy API endpoint. Used in tests.
func (c *PrivyClient) SetBaseURL(u string) {
	c.baseURL = u
}

package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"roomworks/channelsync/internal/constants"
	"roomworks/channelsync/internal/db/repositories"
	"roomworks/channelsync/internal/logging"
	gormModels "roomworks/channelsync/internal/models/gorm"

	gocache "github.com/patrickmn/go-cache"
)

// Token types selecting which stored refresh token is exchanged
const (
	TokenRead  = "read"
	TokenWrite = "write"
)

// Token is a scoped access token with its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Vault stores and refreshes Beds24 access tokens for channel connections.
// Business logic never sees refresh tokens, only the current access token.
type Vault struct {
	connRepo *repositories.ConnectionRepo
	cache    *gocache.Cache
	client   *http.Client
	authURL  string
}

// NewVault creates a vault backed by the connections table and an in-process
// token cache.
func NewVault(connRepo *repositories.ConnectionRepo) *Vault {
	authURL := os.Getenv("BEDS24_API_URL")
	if authURL == "" {
		authURL = "https://api.beds24.com/v2"
	}
	return &Vault{
		connRepo: connRepo,
		cache:    gocache.New(10*time.Minute, 5*time.Minute),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		authURL: authURL + "/authentication",
	}
}

func cacheKey(connID, tokenType string) string {
	return string(constants.CachePrefixToken) + tokenType + ":" + connID
}

// GetAccessToken returns a valid access token for the connection, refreshing
// when the cached one is within the safety margin of its expiry.
func (v *Vault) GetAccessToken(ctx context.Context, conn *gormModels.ChannelConnection, tokenType string) (string, error) {
	margin := constants.TokenSafetyMarginSeconds * time.Second

	if cached, found := v.cache.Get(cacheKey(conn.ID, tokenType)); found {
		tok := cached.(*Token)
		if time.Now().Before(tok.ExpiresAt.Add(-margin)) {
			return tok.Value, nil
		}
	}

	// Fall back to the DB-cached column before hitting the token endpoint.
	if tokenType == TokenRead && conn.AccessToken != "" && conn.TokenExpiresAt != nil {
		if time.Now().Before(conn.TokenExpiresAt.Add(-margin)) {
			v.cache.Set(cacheKey(conn.ID, tokenType), &Token{Value: conn.AccessToken, ExpiresAt: *conn.TokenExpiresAt}, gocache.DefaultExpiration)
			return conn.AccessToken, nil
		}
	}

	tok, err := v.Refresh(ctx, conn, tokenType)
	if err != nil {
		return "", err
	}
	return tok.Value, nil
}

// Refresh exchanges the stored refresh token for a new access token and
// persists it. Refresh is idempotent: a concurrent second refresh simply
// overwrites the cache with an equally valid token.
func (v *Vault) Refresh(ctx context.Context, conn *gormModels.ChannelConnection, tokenType string) (*Token, error) {
	refreshToken := conn.ReadRefreshToken
	if tokenType == TokenWrite {
		refreshToken = conn.WriteRefreshToken
	}
	if refreshToken == "" {
		return nil, &AuthError{Reason: ReasonReauthRequired, Err: fmt.Errorf("no %s refresh token stored", tokenType)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.authURL+"/token", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("refreshToken", refreshToken)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, &AuthError{Reason: ReasonTransient, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// The refresh token is dead. Mark the connection so operators see it.
		if dbErr := v.connRepo.SetStatus(ctx, conn.ID, gormModels.ConnStatusError); dbErr != nil {
			logging.Error("Failed to mark connection errored after refresh rejection",
				"connection_id", conn.ID, "error", dbErr.Error())
		}
		conn.Status = gormModels.ConnStatusError
		return nil, &AuthError{Reason: ReasonReauthRequired, Err: fmt.Errorf("token endpoint returned %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &AuthError{Reason: ReasonTransient, Err: fmt.Errorf("token endpoint returned %d", resp.StatusCode)}
	}

	var body struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expiresIn"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &AuthError{Reason: ReasonTransient, Err: fmt.Errorf("failed to decode token response: %w", err)}
	}
	if body.Token == "" {
		return nil, &AuthError{Reason: ReasonReauthRequired, Err: fmt.Errorf("token endpoint returned empty token")}
	}

	tok := &Token{
		Value:     body.Token,
		ExpiresAt: time.Now().Add(time.Duration(body.ExpiresIn) * time.Second),
	}
	v.cache.Set(cacheKey(conn.ID, tokenType), tok, gocache.DefaultExpiration)

	// Only the read token is mirrored to the connection row; write tokens
	// live in cache and are re-refreshed on demand.
	if tokenType == TokenRead {
		if err := v.connRepo.UpdateTokens(ctx, conn.ID, tok.Value, tok.ExpiresAt); err != nil {
			logging.Error("Failed to persist refreshed token", "connection_id", conn.ID, "error", err.Error())
		}
		conn.AccessToken = tok.Value
		expires := tok.ExpiresAt
		conn.TokenExpiresAt = &expires
	}

	return tok, nil
}

// Invalidate drops any cached tokens for a connection, forcing the next call
// to refresh. Used by recovery's token reset.
func (v *Vault) Invalidate(connID string) {
	v.cache.Delete(cacheKey(connID, TokenRead))
	v.cache.Delete(cacheKey(connID, TokenWrite))
}

// ExchangeInviteCode performs the one-time setup handshake, turning an
// operator-supplied invite code into refresh tokens for a new connection.
func (v *Vault) ExchangeInviteCode(ctx context.Context, inviteCode string) (readToken, writeToken string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.authURL+"/setup", nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create setup request: %w", err)
	}
	req.Header.Set("code", inviteCode)

	resp, err := v.client.Do(req)
	if err != nil {
		return "", "", &AuthError{Reason: ReasonTransient, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", &AuthError{Reason: ReasonReauthRequired, Err: fmt.Errorf("setup endpoint returned %d", resp.StatusCode)}
	}

	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", &AuthError{Reason: ReasonTransient, Err: fmt.Errorf("failed to decode setup response: %w", err)}
	}

	// Beds24 issues a single refresh token per invite; scopes decide what it
	// may do. Both slots start with the same secret.
	return body.RefreshToken, body.RefreshToken, nil
}

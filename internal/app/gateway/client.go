/*
Package gateway implements the REST client for the Questify application server.

This file defines the Client struct and the five operations the client consumes:
token issuance, registration, identity lookup, quest listing, and quest completion.
It also derives the guild chat streaming address from the REST base address.
*/
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"questify/internal/pkg/errs"
	"questify/internal/pkg/logx"
)

// maxErrorBodyBytes caps how much of an error response body is read for logging.
const maxErrorBodyBytes = 2048

// Client issues authenticated REST calls against the application server.
// It holds no session state; the bearer token is passed per call by the owner.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient constructs a Client for the given base address.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logx.Logger().With().Str("component", "gateway").Logger(),
	}
}

// BaseURL returns the configured REST base address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ChatURL derives the guild chat streaming address from the REST base address
// by substituting the transport scheme prefix.
func (c *Client) ChatURL() string {
	wsBase := c.baseURL
	switch {
	case strings.HasPrefix(wsBase, "https"):
		wsBase = "wss" + strings.TrimPrefix(wsBase, "https")
	case strings.HasPrefix(wsBase, "http"):
		wsBase = "ws" + strings.TrimPrefix(wsBase, "http")
	}
	return wsBase + "/ws/guild-chat"
}

// IssueToken exchanges credentials for a bearer token via POST /token.
// The gateway expects an OAuth2-style form with username and password fields.
func (c *Client) IssueToken(ctx context.Context, identifier, secret string) (string, error) {
	form := url.Values{}
	form.Set("username", identifier)
	form.Set("password", secret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", errs.NewError(errs.ErrUnknown)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Token request failed at transport level")
		return "", errs.NewError(errs.ErrGatewayUnreachable)
	}
	defer c.drainAndClose(res.Body)

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusBadRequest {
		return "", errs.NewError(errs.ErrInvalidCredentials)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		c.logUnexpectedStatus("token", res)
		return "", errs.NewError(errs.ErrGatewayResponse)
	}

	var body tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil || body.AccessToken == "" {
		c.logger.Warn().Err(err).Msg("Token response body could not be decoded")
		return "", errs.NewError(errs.ErrGatewayResponse)
	}

	return body.AccessToken, nil
}

// Register creates an account via POST /register. The response body is unused.
func (c *Client) Register(ctx context.Context, email, secret, adventurerName string) error {
	payload, err := json.Marshal(map[string]string{
		"email":           email,
		"password":        secret,
		"adventurer_name": adventurerName,
	})
	if err != nil {
		return errs.NewError(errs.ErrUnknown)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/register", strings.NewReader(string(payload)))
	if err != nil {
		return errs.NewError(errs.ErrUnknown)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Register request failed at transport level")
		return errs.NewError(errs.ErrGatewayUnreachable)
	}
	defer c.drainAndClose(res.Body)

	if res.StatusCode == http.StatusConflict {
		return errs.NewError(errs.ErrUserAlreadyExists)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		c.logUnexpectedStatus("register", res)
		return errs.NewError(errs.ErrGatewayResponse)
	}

	return nil
}

// Me performs the identity lookup via GET /me with the given bearer token.
func (c *Client) Me(ctx context.Context, token string) (*Profile, error) {
	res, err := c.doAuthorized(ctx, http.MethodGet, "/me", token)
	if err != nil {
		return nil, err
	}
	defer c.drainAndClose(res.Body)

	if res.StatusCode == http.StatusUnauthorized {
		return nil, errs.NewError(errs.ErrTokenRejected)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		c.logUnexpectedStatus("me", res)
		return nil, errs.NewError(errs.ErrGatewayResponse)
	}

	var profile Profile
	if err := json.NewDecoder(res.Body).Decode(&profile); err != nil {
		c.logger.Warn().Err(err).Msg("Profile response body could not be decoded")
		return nil, errs.NewError(errs.ErrGatewayResponse)
	}

	return &profile, nil
}

// ListQuests fetches the full quest sequence via GET /quests.
func (c *Client) ListQuests(ctx context.Context, token string) ([]Quest, error) {
	res, err := c.doAuthorized(ctx, http.MethodGet, "/quests", token)
	if err != nil {
		return nil, err
	}
	defer c.drainAndClose(res.Body)

	if res.StatusCode == http.StatusUnauthorized {
		return nil, errs.NewError(errs.ErrTokenRejected)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		c.logUnexpectedStatus("quests", res)
		return nil, errs.NewError(errs.ErrGatewayResponse)
	}

	var quests []Quest
	if err := json.NewDecoder(res.Body).Decode(&quests); err != nil {
		c.logger.Warn().Err(err).Msg("Quest list response body could not be decoded")
		return nil, errs.NewError(errs.ErrGatewayResponse)
	}

	return quests, nil
}

// CompleteQuest issues the completion request via POST /quests/{id}/complete.
// Completion idempotence is the gateway's responsibility.
func (c *Client) CompleteQuest(ctx context.Context, token string, questID int64) error {
	res, err := c.doAuthorized(ctx, http.MethodPost, fmt.Sprintf("/quests/%d/complete", questID), token)
	if err != nil {
		return err
	}
	defer c.drainAndClose(res.Body)

	switch {
	case res.StatusCode == http.StatusUnauthorized:
		return errs.NewError(errs.ErrTokenRejected)
	case res.StatusCode == http.StatusNotFound:
		return errs.NewError(errs.ErrQuestNotFound)
	case res.StatusCode < 200 || res.StatusCode >= 300:
		c.logUnexpectedStatus("complete", res)
		return errs.NewError(errs.ErrGatewayResponse)
	}

	return nil
}

// doAuthorized performs a bearer-authenticated request with no body.
func (c *Client) doAuthorized(ctx context.Context, method, path, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, errs.NewError(errs.ErrUnknown)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("Request failed at transport level")
		return nil, errs.NewError(errs.ErrGatewayUnreachable)
	}

	return res, nil
}

func (c *Client) logUnexpectedStatus(op string, res *http.Response) {
	body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBodyBytes))
	c.logger.Warn().
		Str("operation", op).
		Int("status", res.StatusCode).
		Bytes("body", body).
		Msg("Gateway returned unexpected status")
}

// drainAndClose exhausts and closes a response body so the connection can be reused.
func (c *Client) drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxErrorBodyBytes))
	_ = body.Close()
}

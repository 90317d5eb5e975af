// Package contest implements the thin typed wrapper over the contest
// platform's v5 HTTP API (component C1, spec.md §2 and §6).
package contest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/topcoder-platform/topcoder-x-processor/internal/config"
	domainerrors "github.com/topcoder-platform/topcoder-x-processor/internal/domain/errors"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/ports"
	"github.com/topcoder-platform/topcoder-x-processor/pkg/logger"
)

// Client is the net/http-backed ContestClient. The bearer token is cached
// in an atomic.Value and refreshed lazily so concurrent handlers never
// observe a torn read (spec.md §5 "cached authentication token").
type Client struct {
	cfg        config.ContestConfig
	httpClient *http.Client
	token      atomic.Value // string
	tokenExp   atomic.Value // time.Time
}

// NewClient builds a Client against cfg.
func NewClient(cfg config.ContestConfig) *Client {
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	c.token.Store("")
	c.tokenExp.Store(time.Time{})
	return c
}

func (c *Client) bearerToken(ctx context.Context) (string, error) {
	if exp, ok := c.tokenExp.Load().(time.Time); ok && time.Now().Before(exp) {
		if tok, ok := c.token.Load().(string); ok && tok != "" {
			return tok, nil
		}
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", domainerrors.ExternalAPI("build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domainerrors.ExternalAPI("fetch access token", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", domainerrors.ExternalAPI(fmt.Sprintf("token endpoint returned %d", resp.StatusCode), nil)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", domainerrors.ExternalAPI("decode token response", err)
	}

	c.token.Store(out.AccessToken)
	c.tokenExp.Store(time.Now().Add(time.Duration(out.ExpiresIn-30) * time.Second))
	return out.AccessToken, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return domainerrors.Fatal("marshal contest request body", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return domainerrors.ExternalAPI("build contest request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domainerrors.ExternalAPI(method+" "+path, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 300 {
		logger.Error(ctx, "contest API call failed",
			zap.String("method", method), zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return domainerrors.ExternalAPI(fmt.Sprintf("%s %s returned %d: %s", method, path, resp.StatusCode, string(respBody)), nil)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return domainerrors.ExternalAPI("decode contest response", err)
		}
	}
	return nil
}

// CreateChallenge implements ports.ContestClient.
func (c *Client) CreateChallenge(ctx context.Context, in ports.CreateChallengeInput) (string, error) {
	prizeSetType := "placement"
	if in.IsCopilotPayment {
		prizeSetType = "copilot"
	}
	prizes := make([]prizeEntry, 0, len(in.Prizes))
	for _, p := range in.Prizes {
		prizes = append(prizes, prizeEntry{Type: "USD", Value: p})
	}

	body := createChallengeBody{
		TypeID:      "task",
		Name:        in.Name,
		Description: in.Description,
		PrizeSets: []prizeSet{{
			Type:   prizeSetType,
			Prizes: prizes,
		}},
		TimelineTemplateID:   c.cfg.TimelineTemplateID,
		ProjectID:            in.ProjectID,
		TrackID:              c.cfg.DefaultTrackID,
		Legacy:               legacy{PureV5Task: true},
		StartDate:            time.Now().UTC().Format(time.RFC3339),
		SubmissionGuidelines: in.SubmissionGuidelines,
	}
	if in.Task {
		body.Legacy.PureV5Task = true
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/challenges", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// UpdateChallenge implements ports.ContestClient.
func (c *Client) UpdateChallenge(ctx context.Context, challengeID string, in ports.UpdateChallengeInput) error {
	patch := map[string]interface{}{}
	if in.Status != nil {
		patch["status"] = string(*in.Status)
	}
	if len(in.Winners) > 0 {
		winners := make([]map[string]interface{}, 0, len(in.Winners))
		for _, w := range in.Winners {
			winners = append(winners, map[string]interface{}{
				"userId":    w.UserID,
				"handle":    w.Handle,
				"placement": w.Placement,
			})
		}
		patch["winners"] = winners
	}
	if in.BillingAccountID != nil {
		patch["billingAccountId"] = *in.BillingAccountID
	}
	if in.Name != nil {
		patch["name"] = *in.Name
	}
	if in.Description != nil {
		patch["description"] = *in.Description
	}
	if in.Prizes != nil {
		prizes := make([]prizeEntry, 0, len(in.Prizes))
		for _, p := range in.Prizes {
			prizes = append(prizes, prizeEntry{Type: "USD", Value: p})
		}
		patch["prizeSets"] = []prizeSet{{Type: "placement", Prizes: prizes}}
	}
	return c.do(ctx, http.MethodPatch, "/challenges/"+challengeID, patch, nil)
}

// ActivateChallenge implements ports.ContestClient.
func (c *Client) ActivateChallenge(ctx context.Context, challengeID string) error {
	status := ports.ChallengeStatusActive
	return c.UpdateChallenge(ctx, challengeID, ports.UpdateChallengeInput{Status: &status})
}

// CloseChallenge implements ports.ContestClient.
func (c *Client) CloseChallenge(ctx context.Context, challengeID string, winner ports.Winner) error {
	status := ports.ChallengeStatusCompleted
	return c.UpdateChallenge(ctx, challengeID, ports.UpdateChallengeInput{
		Status:  &status,
		Winners: []ports.Winner{winner},
	})
}

// CancelChallenge is a logged no-op: the reference platform's cancel
// endpoint is non-functional (spec.md §9 open question 2), so this records
// intent without making a remote call.
func (c *Client) CancelChallenge(ctx context.Context, challengeID string) error {
	logger.Info(ctx, "challenge cancellation requested, no-op", zap.String("challengeId", challengeID))
	return nil
}

// GetChallenge implements ports.ContestClient.
func (c *Client) GetChallenge(ctx context.Context, challengeID string) (*ports.Challenge, error) {
	var out struct {
		ID            string `json:"id"`
		CurrentStatus string `json:"status"`
		Name          string `json:"name"`
	}
	if err := c.do(ctx, http.MethodGet, "/challenges/"+challengeID, nil, &out); err != nil {
		return nil, err
	}
	return &ports.Challenge{
		ID:            out.ID,
		CurrentStatus: ports.ChallengeStatus(out.CurrentStatus),
		Name:          out.Name,
	}, nil
}

// AddResource implements ports.ContestClient.
func (c *Client) AddResource(ctx context.Context, challengeID, memberHandle string, roleID int) error {
	body := map[string]interface{}{
		"challengeId":  challengeID,
		"memberHandle": memberHandle,
		"roleId":       roleID,
	}
	return c.do(ctx, http.MethodPost, "/resources", body, nil)
}

// RemoveResource implements ports.ContestClient.
func (c *Client) RemoveResource(ctx context.Context, challengeID, memberHandle string, roleID int) error {
	body := map[string]interface{}{
		"challengeId":  challengeID,
		"memberHandle": memberHandle,
		"roleId":       roleID,
	}
	return c.do(ctx, http.MethodDelete, "/resources", body, nil)
}

// GetMemberID implements ports.ContestClient.
func (c *Client) GetMemberID(ctx context.Context, handle string) (int64, error) {
	var out struct {
		UserID int64 `json:"userId"`
	}
	if err := c.do(ctx, http.MethodGet, "/members/"+url.PathEscape(handle), nil, &out); err != nil {
		return 0, err
	}
	return out.UserID, nil
}

// GetBillingAccountID implements ports.ContestClient.
func (c *Client) GetBillingAccountID(ctx context.Context, tcDirectProjectID int64) (string, error) {
	var out struct {
		BillingAccountID int64 `json:"billingAccountId"`
	}
	if err := c.do(ctx, http.MethodGet, "/projects/"+strconv.FormatInt(tcDirectProjectID, 10), nil, &out); err != nil {
		return "", err
	}
	return strconv.FormatInt(out.BillingAccountID, 10), nil
}

type prizeEntry struct {
	Type  string `json:"type"`
	Value int    `json:"value"`
}

type prizeSet struct {
	Type   string       `json:"type"`
	Prizes []prizeEntry `json:"prizes"`
}

type legacy struct {
	PureV5Task bool `json:"pureV5Task"`
}

type createChallengeBody struct {
	TypeID               string     `json:"typeId"`
	Name                 string     `json:"name"`
	Description          string     `json:"description"`
	PrizeSets            []prizeSet `json:"prizeSets"`
	TimelineTemplateID   string     `json:"timelineTemplateId"`
	ProjectID            int64      `json:"projectId"`
	TrackID              string     `json:"trackId"`
	Legacy               legacy     `json:"legacy"`
	StartDate            string     `json:"startDate"`
	SubmissionGuidelines string     `json:"submissionGuidelines,omitempty"`
}

var _ ports.ContestClient = (*Client)(nil)

package controlplane

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"cluster-provisioner/internal/config"
	"cluster-provisioner/pkg/log"
)

const maxRequestAttempts = 4

// HTTPClient talks to the control plane's administrative REST API. It is
// constructed explicitly and injected into the provisioner; there is no
// package-level client.
type HTTPClient struct {
	baseURL        string
	publicKey      string
	privateKey     string
	organizationID string
	httpClient     *http.Client
	breaker        *gobreaker.CircuitBreaker
	logger         zerolog.Logger
}

func NewHTTPClient(cfg *config.ControlPlane) *HTTPClient {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "control-plane",
	})

	return &HTTPClient{
		baseURL:        cfg.BaseURL,
		publicKey:      cfg.PublicKey,
		privateKey:     cfg.PrivateKey,
		organizationID: cfg.OrganizationID,
		httpClient:     &http.Client{Timeout: timeout},
		breaker:        breaker,
		logger:         log.Logger.With().Str("component", "control_plane_client").Logger(),
	}
}

func (c *HTTPClient) GetProjectByName(ctx context.Context, name string) (*Project, error) {
	var project Project
	path := fmt.Sprintf("/groups/byName/%s", url.PathEscape(name))
	if err := c.do(ctx, http.MethodGet, path, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *HTTPClient) CreateProject(ctx context.Context, name string) (*Project, error) {
	var project Project
	body := map[string]string{"name": name, "orgId": c.organizationID}
	if err := c.do(ctx, http.MethodPost, "/groups", body, &project); err != nil {
		return nil, err
	}
	c.logger.Info().Str("project_id", project.ID).Str("project_name", name).Msg("Created control plane project")
	return &project, nil
}

func (c *HTTPClient) DeleteProject(ctx context.Context, projectID string) error {
	path := fmt.Sprintf("/groups/%s", url.PathEscape(projectID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *HTTPClient) ListClusters(ctx context.Context, projectID string) ([]Cluster, error) {
	var resp listResponse[Cluster]
	path := fmt.Sprintf("/groups/%s/clusters", url.PathEscape(projectID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *HTTPClient) GetCluster(ctx context.Context, projectID, clusterName string) (*Cluster, error) {
	var cluster Cluster
	path := fmt.Sprintf("/groups/%s/clusters/%s", url.PathEscape(projectID), url.PathEscape(clusterName))
	if err := c.do(ctx, http.MethodGet, path, nil, &cluster); err != nil {
		return nil, err
	}
	return &cluster, nil
}

func (c *HTTPClient) CreateCluster(ctx context.Context, projectID string, spec ClusterSpec) (*Cluster, error) {
	var cluster Cluster
	path := fmt.Sprintf("/groups/%s/clusters", url.PathEscape(projectID))
	if err := c.do(ctx, http.MethodPost, path, spec, &cluster); err != nil {
		return nil, err
	}
	c.logger.Info().
		Str("project_id", projectID).
		Str("remote_cluster_name", cluster.Name).
		Msg("Created control plane cluster")
	return &cluster, nil
}

func (c *HTTPClient) DeleteCluster(ctx context.Context, projectID, clusterName string) error {
	path := fmt.Sprintf("/groups/%s/clusters/%s", url.PathEscape(projectID), url.PathEscape(clusterName))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// WaitUntilClusterReady polls the cluster at a fixed interval until it reports
// ready, the wall-clock timeout elapses, or the context is done. On timeout it
// returns ErrWaitTimeout without touching any persisted state; the cluster may
// still become ready afterwards.
func (c *HTTPClient) WaitUntilClusterReady(
	ctx context.Context,
	projectID, clusterName string,
	timeout, pollInterval time.Duration,
) (*Cluster, error) {
	logger := c.logger.With().
		Str("operation", "wait_until_cluster_ready").
		Str("project_id", projectID).
		Str("remote_cluster_name", clusterName).
		Logger()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		cluster, err := c.GetCluster(ctx, projectID, clusterName)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if err == nil && cluster.IsReady() {
			logger.Info().Msg("Cluster is ready")
			return cluster, nil
		}
		if err == nil {
			logger.Debug().Str("state", cluster.StateName).Msg("Cluster not ready yet")
		}

		if time.Now().After(deadline) {
			logger.Warn().Dur("timeout", timeout).Msg("Gave up waiting for cluster readiness")
			return nil, ErrWaitTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *HTTPClient) CreateDatabaseUser(ctx context.Context, projectID string, spec DatabaseUserSpec) error {
	path := fmt.Sprintf("/groups/%s/databaseUsers", url.PathEscape(projectID))
	return c.do(ctx, http.MethodPost, path, newDatabaseUserRequest(spec), nil)
}

func (c *HTTPClient) UpdateDatabaseUser(ctx context.Context, projectID string, spec DatabaseUserSpec) error {
	path := fmt.Sprintf(
		"/groups/%s/databaseUsers/admin/%s",
		url.PathEscape(projectID), url.PathEscape(spec.Username),
	)
	return c.do(ctx, http.MethodPatch, path, newDatabaseUserRequest(spec), nil)
}

func (c *HTTPClient) AddNetworkAccessEntries(ctx context.Context, projectID string, entries []NetworkAccessEntry) error {
	path := fmt.Sprintf("/groups/%s/accessList", url.PathEscape(projectID))
	return c.do(ctx, http.MethodPost, path, entries, nil)
}

func (c *HTTPClient) CreateInvitation(ctx context.Context, projectID string, spec InvitationSpec) (*Invitation, error) {
	var invitation Invitation
	path := fmt.Sprintf("/groups/%s/invites", url.PathEscape(projectID))
	if err := c.do(ctx, http.MethodPost, path, spec, &invitation); err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (c *HTTPClient) GetInvitation(ctx context.Context, projectID, invitationID string) (*Invitation, error) {
	var invitation Invitation
	path := fmt.Sprintf("/groups/%s/invites/%s", url.PathEscape(projectID), url.PathEscape(invitationID))
	if err := c.do(ctx, http.MethodGet, path, nil, &invitation); err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (c *HTTPClient) CancelInvitation(ctx context.Context, projectID, invitationID string) error {
	path := fmt.Sprintf("/groups/%s/invites/%s", url.PathEscape(projectID), url.PathEscape(invitationID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *HTTPClient) GetClusterMetrics(
	ctx context.Context,
	projectID, clusterName string,
	query MetricsQuery,
) ([]Measurement, error) {
	var resp struct {
		Measurements []Measurement `json:"measurements"`
	}
	path := fmt.Sprintf(
		"/groups/%s/clusters/%s/measurements?granularity=%s&period=%s",
		url.PathEscape(projectID), url.PathEscape(clusterName),
		url.QueryEscape(query.Granularity), url.QueryEscape(query.Period),
	)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Measurements, nil
}

// databaseUserRequest is the wire shape for credential creation: a read/write
// role on the target logical database, scoped to a single cluster.
type databaseUserRequest struct {
	Username     string          `json:"username"`
	Password     string          `json:"password,omitempty"`
	DatabaseName string          `json:"databaseName"`
	Roles        []databaseRole  `json:"roles"`
	Scopes       []databaseScope `json:"scopes"`
}

type databaseRole struct {
	RoleName     string `json:"roleName"`
	DatabaseName string `json:"databaseName"`
}

type databaseScope struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func newDatabaseUserRequest(spec DatabaseUserSpec) databaseUserRequest {
	return databaseUserRequest{
		Username:     spec.Username,
		Password:     spec.Password,
		DatabaseName: "admin",
		Roles: []databaseRole{
			{RoleName: "readWrite", DatabaseName: spec.DatabaseName},
		},
		Scopes: []databaseScope{
			{Name: spec.ClusterName, Type: "CLUSTER"},
		},
	}
}

// do performs one API call: marshal, authenticate, execute behind the circuit
// breaker with bounded retries on transient failures, and parse the response
// envelope into out.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	operation := func() ([]byte, error) {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.roundTrip(ctx, method, path, reqBody)
		})
		if err == nil {
			return result.([]byte), nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.IsTransient() {
			return nil, backoff.Permanent(err)
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, backoff.Permanent(err)
		}
		c.logger.Warn().Err(err).Str("method", method).Str("path", path).Msg("Retrying control plane request")
		return nil, err
	}

	data, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxRequestAttempts),
	)
	if err != nil {
		return err
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode control plane response: %w", err)
	}
	return nil
}

func (c *HTTPClient) roundTrip(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build control plane request: %w", err)
	}
	req.SetBasicAuth(c.publicKey, c.privateKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("control plane request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read control plane response: %w", err)
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return data, nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	if unmarshalErr := json.Unmarshal(data, apiErr); unmarshalErr != nil {
		apiErr.Detail = string(data)
	}
	return nil, apiErr
}

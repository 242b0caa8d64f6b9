package jobenv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// errClientClosed guards ClusterClient use after Close.
var errClientClosed = errors.New("cluster client is closed")

// JobStatus describes a submitted job as reported by the coordinator.
type JobStatus struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Parallelism int    `json:"parallelism"`
	State       string `json:"state"`
}

// ClusterOverview summarizes the running cluster.
type ClusterOverview struct {
	TaskManagers        int `json:"taskManagers"`
	SlotsPerTaskManager int `json:"slotsPerTaskManager"`
	TotalSlots          int `json:"totalSlots"`
	Jobs                int `json:"jobs"`
}

// ClusterClient is the administrative client for submitting jobs to a
// running cluster and querying its state. Clients are constructed by the
// harness variant strategies from the derived connection configuration;
// obtain one with Harness.Client.
//
// The client's Close lifecycle is independent from the executor's. During
// teardown the harness closes the client before the executor, because the
// client depends on the executor being reachable.
type ClusterClient struct {
	baseURL string
	http    *http.Client
	closed  bool
}

// newClusterClient builds a client from a connection configuration carrying
// KeyCoordinatorHost and KeyCoordinatorPort.
func newClusterClient(conn Config) (*ClusterClient, error) {
	host := conn.GetString(KeyCoordinatorHost, "")
	if host == "" {
		return nil, fmt.Errorf("client configuration missing %s", KeyCoordinatorHost)
	}
	port, err := conn.GetInt(KeyCoordinatorPort, 0)
	if err != nil {
		return nil, err
	}
	if port <= 0 {
		return nil, fmt.Errorf("client configuration missing %s", KeyCoordinatorPort)
	}
	return &ClusterClient{
		baseURL: fmt.Sprintf("http://%s:%d", host, port),
		http:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// SubmitJob submits a named job with the given parallelism and returns its
// accepted status. Parallelism must be between 1 and the cluster's total
// slot count; the coordinator rejects anything else.
func (c *ClusterClient) SubmitJob(ctx context.Context, name string, parallelism int) (JobStatus, error) {
	if c.closed {
		return JobStatus{}, errClientClosed
	}

	body, err := json.Marshal(map[string]any{"name": name, "parallelism": parallelism})
	if err != nil {
		return JobStatus{}, fmt.Errorf("encode job submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/jobs", bytes.NewReader(body))
	if err != nil {
		return JobStatus{}, fmt.Errorf("build job submission: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var status JobStatus
	if err := c.do(req, http.StatusAccepted, &status); err != nil {
		return JobStatus{}, fmt.Errorf("submit job %q: %w", name, err)
	}
	return status, nil
}

// JobStatus fetches the current state of a previously submitted job.
func (c *ClusterClient) JobStatus(ctx context.Context, id string) (JobStatus, error) {
	if c.closed {
		return JobStatus{}, errClientClosed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/jobs/"+id, nil)
	if err != nil {
		return JobStatus{}, fmt.Errorf("build status request: %w", err)
	}
	var status JobStatus
	if err := c.do(req, http.StatusOK, &status); err != nil {
		return JobStatus{}, fmt.Errorf("job status %s: %w", id, err)
	}
	return status, nil
}

// Overview fetches the cluster summary.
func (c *ClusterClient) Overview(ctx context.Context) (ClusterOverview, error) {
	if c.closed {
		return ClusterOverview{}, errClientClosed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/overview", nil)
	if err != nil {
		return ClusterOverview{}, fmt.Errorf("build overview request: %w", err)
	}
	var ov ClusterOverview
	if err := c.do(req, http.StatusOK, &ov); err != nil {
		return ClusterOverview{}, fmt.Errorf("cluster overview: %w", err)
	}
	return ov, nil
}

// do executes req, checks for wantStatus, and decodes the JSON body into out.
func (c *ClusterClient) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only response body

	if resp.StatusCode != wantStatus {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("coordinator returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Close shuts the client down. Idempotent; idle connections are released and
// subsequent calls on the client fail. Client close is not separately
// time-boxed during Release; only the executor close is raced against the
// shutdown timeout.
func (c *ClusterClient) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.http.CloseIdleConnections()
	return nil
}

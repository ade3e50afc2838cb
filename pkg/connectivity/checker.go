package connectivity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const healthPath = "/healthz"

// Config holds configuration for the connectivity checker
type Config struct {
	// BaseURL is the n8n instance base URL to check
	BaseURL string

	// MaxRetries is the maximum number of retry attempts
	MaxRetries int

	// RetryInterval is the duration to wait between retries in seconds
	RetryInterval int

	// Timeout is the timeout for each connection attempt in seconds
	Timeout int
}

// HealthStatus is the body returned by the n8n health endpoint
type HealthStatus struct {
	Status string `json:"status"`
}

// Checker verifies that an n8n instance is reachable before a fetch starts
type Checker struct {
	config Config
	client *http.Client
}

// NewChecker creates a new connectivity checker with the provided configuration
func NewChecker(config Config) *Checker {
	// Set default values if not provided
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 5
	}

	return &Checker{
		config: config,
		client: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}
}

// healthURL derives the health endpoint from the base URL, keeping any
// path prefix the instance is served under.
func (c *Checker) healthURL() (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid n8n URL: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return "", fmt.Errorf("invalid n8n URL: %q", c.config.BaseURL)
	}
	return fmt.Sprintf("%s://%s%s%s", baseURL.Scheme, baseURL.Host, strings.TrimRight(baseURL.Path, "/"), healthPath), nil
}

// VerifyConnectivity checks if the n8n instance is reachable
// Returns nil if connectivity is successful, otherwise returns an error
func (c *Checker) VerifyConnectivity(ctx context.Context) error {
	logrus.Info("Starting n8n connectivity check")

	apiURL, err := c.healthURL()
	if err != nil {
		return err
	}

	for attempt := 1; attempt <= c.config.MaxRetries; attempt++ {
		logrus.WithFields(logrus.Fields{
			"attempt": attempt,
			"url":     apiURL,
		}).Debug("Attempting to connect to n8n")

		status, err := c.probe(ctx, apiURL)
		if err == nil {
			logrus.WithField("status", status.Status).Info("Successfully connected to n8n")
			return nil
		}
		logrus.WithError(err).Warn("Connection attempt failed")

		if attempt < c.config.MaxRetries {
			sleepDuration := time.Duration(c.config.RetryInterval) * time.Second
			logrus.WithField("retryIn", sleepDuration.String()).Debug("Retrying connection")
			select {
			case <-time.After(sleepDuration):
			case <-ctx.Done():
				return fmt.Errorf("connectivity check cancelled: %w", ctx.Err())
			}
		}
	}

	return fmt.Errorf("failed to connect to n8n after %d attempts", c.config.MaxRetries)
}

// GetHealthStatus retrieves the health status of the n8n instance
func (c *Checker) GetHealthStatus(ctx context.Context) (*HealthStatus, error) {
	apiURL, err := c.healthURL()
	if err != nil {
		return nil, err
	}
	return c.probe(ctx, apiURL)
}

func (c *Checker) probe(ctx context.Context, apiURL string) (*HealthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.config.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("server returned non-success status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	status := &HealthStatus{}
	if err := json.Unmarshal(body, status); err != nil {
		return nil, fmt.Errorf("failed to parse health status: %w", err)
	}

	return status, nil
}

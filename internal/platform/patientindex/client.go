// Package patientindex fetches the patient id to display name index from
// the patient service.
package patientindex

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// IndexPath is the patient service route that serves the index.
const IndexPath = "/patient/api/retro/get/index"

// Index maps patient ids to display names.
type Index map[int]string

// Config locates the patient service.
type Config struct {
	Host    string
	Port    string
	Timeout time.Duration
}

// DefaultConfig points at a patient service on the local host.
func DefaultConfig() Config {
	return Config{Host: "127.0.0.1", Port: "8080", Timeout: 10 * time.Second}
}

func (c Config) baseURL() string {
	return "http://" + net.JoinHostPort(c.Host, c.Port)
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger zerolog.Logger
}

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	def := DefaultConfig()
	if cfg.Host == "" {
		cfg.Host = def.Host
	}
	if cfg.Port == "" {
		cfg.Port = def.Port
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "patientindex").Logger(),
	}
}

// GetPatientIndex performs one GET against the patient service. Any
// failure is logged and reported as an absent index; it never returns an
// error to the caller.
func (c *Client) GetPatientIndex(ctx context.Context) (Index, bool) {
	c.logger.Debug().Msg("getPatientIndex called")

	idx, err := c.fetch(ctx)
	if err != nil {
		c.logger.Error().Err(err).Str("url", c.cfg.baseURL()+IndexPath).Msg("getPatientIndex external call failed")
		return nil, false
	}

	c.logger.Debug().Int("patients", len(idx)).Msg("getPatientIndex external call completed")
	return idx, true
}

func (c *Client) fetch(ctx context.Context) (Index, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.baseURL()+IndexPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", IndexPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("patient service returned status %d", resp.StatusCode)
	}

	var raw map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode patient index: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("patient service returned a null index")
	}

	idx := make(Index, len(raw))
	for k, name := range raw {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("patient index key %q is not an integer", k)
		}
		idx[id] = name
	}
	return idx, nil
}

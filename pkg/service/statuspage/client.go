package statuspage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/ops-deck/vigil/pkg/domain/interfaces"
	"github.com/ops-deck/vigil/pkg/domain/types"
)

const apiBaseURL = "https://api.statuspage.io/v1"

// Client synchronizes incident state to a public status page. It maps
// affected services to status-page components through the configured
// component map.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageID     string
	components map[string]string // affected service -> component ID
}

// NewClient creates a new status page client
func NewClient(apiKey, pageID string, components map[string]string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:    apiBaseURL,
		apiKey:     apiKey,
		pageID:     pageID,
		components: components,
	}
}

type componentUpdateRequest struct {
	Component componentUpdate `json:"component"`
}

type componentUpdate struct {
	Status string `json:"status"`
}

// SyncComponentStatus updates the status-page component mapped to the
// affected service. Services without a mapped component are skipped.
func (c *Client) SyncComponentStatus(ctx context.Context, service string, incidentStatus types.IncidentStatus, severity types.Severity) error {
	componentID, ok := c.components[service]
	if !ok {
		ctxlog.From(ctx).Debug("No status page component for service, skipping sync",
			"service", service,
		)
		return nil
	}

	pageStatus := MapComponentStatus(incidentStatus, severity)

	body, err := json.Marshal(componentUpdateRequest{
		Component: componentUpdate{Status: pageStatus},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to encode component update")
	}

	url := fmt.Sprintf("%s/pages/%s/components/%s", c.baseURL, c.pageID, componentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return goerr.Wrap(err, "failed to build component update request")
	}
	req.Header.Set("Authorization", "OAuth "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "status page request failed",
			goerr.V("componentID", componentID))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return goerr.New("status page API error",
			goerr.V("statusCode", resp.StatusCode),
			goerr.V("componentID", componentID),
			goerr.V("body", string(respBody)))
	}

	ctxlog.From(ctx).Info("Updated status page component",
		"componentID", componentID,
		"status", pageStatus,
	)
	return nil
}

// MapComponentStatus maps incident status and severity to a status-page
// component status
func MapComponentStatus(incidentStatus types.IncidentStatus, severity types.Severity) string {
	switch incidentStatus {
	case types.IncidentStatusDeclared, types.IncidentStatusInvestigating:
		switch severity {
		case types.SeverityP1:
			return "major_outage"
		case types.SeverityP2:
			return "partial_outage"
		default:
			return "degraded_performance"
		}
	case types.IncidentStatusIdentified, types.IncidentStatusMonitoring:
		if severity == types.SeverityP1 {
			return "partial_outage"
		}
		return "degraded_performance"
	case types.IncidentStatusResolved:
		return "operational"
	default:
		return "operational"
	}
}

var _ interfaces.StatusPageSync = (*Client)(nil) // Compile-time interface check

package statuspage_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/ops-deck/vigil/pkg/domain/types"
	"github.com/ops-deck/vigil/pkg/service/statuspage"
)

func TestMapComponentStatus(t *testing.T) {
	cases := []struct {
		status   types.IncidentStatus
		severity types.Severity
		want     string
	}{
		{types.IncidentStatusDeclared, types.SeverityP1, "major_outage"},
		{types.IncidentStatusDeclared, types.SeverityP2, "partial_outage"},
		{types.IncidentStatusDeclared, types.SeverityP3, "degraded_performance"},
		{types.IncidentStatusInvestigating, types.SeverityP1, "major_outage"},
		{types.IncidentStatusIdentified, types.SeverityP1, "partial_outage"},
		{types.IncidentStatusIdentified, types.SeverityP4, "degraded_performance"},
		{types.IncidentStatusMonitoring, types.SeverityP2, "degraded_performance"},
		{types.IncidentStatusResolved, types.SeverityP1, "operational"},
	}

	for _, tc := range cases {
		got := statuspage.MapComponentStatus(tc.status, tc.severity)
		gt.Equal(t, got, tc.want)
	}
}

func TestSyncComponentStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Updates the mapped component", func(t *testing.T) {
		var gotMethod, gotPath, gotAuth string
		var gotBody map[string]map[string]string

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			gt.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		client := statuspage.NewClient("key-123", "page-1", map[string]string{"payments": "comp-9"})
		client.SetBaseURL(srv.URL)

		gt.NoError(t, client.SyncComponentStatus(ctx, "payments", types.IncidentStatusDeclared, types.SeverityP1))

		gt.Equal(t, gotMethod, http.MethodPatch)
		gt.Equal(t, gotPath, "/pages/page-1/components/comp-9")
		gt.Equal(t, gotAuth, "OAuth key-123")
		gt.Equal(t, gotBody["component"]["status"], "major_outage")
	})

	t.Run("Unmapped service is skipped without a request", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request")
		}))
		defer srv.Close()

		client := statuspage.NewClient("key-123", "page-1", nil)
		client.SetBaseURL(srv.URL)

		gt.NoError(t, client.SyncComponentStatus(ctx, "payments", types.IncidentStatusDeclared, types.SeverityP1))
	})

	t.Run("API error is returned", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		client := statuspage.NewClient("bad-key", "page-1", map[string]string{"payments": "comp-9"})
		client.SetBaseURL(srv.URL)

		err := client.SyncComponentStatus(ctx, "payments", types.IncidentStatusDeclared, types.SeverityP1)
		gt.Error(t, err)
	})
}

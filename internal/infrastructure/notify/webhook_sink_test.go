package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSink_Send(t *testing.T) {
	orgID := uuid.New()
	tenantID := uuid.New()

	t.Run("posts notice as JSON", func(t *testing.T) {
		var received Notice
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		sink := NewWebhookSink(&WebhookSinkConfig{URL: server.URL, Secret: "hook-secret"})
		err := sink.Send(context.Background(), Notice{
			OrgID:    orgID,
			TenantID: tenantID,
			Kind:     KindBillGenerated,
			Subject:  "Your bill is ready",
			Body:     "Bill BILL-202608-00001 is due on September 5.",
			Metadata: map[string]string{"bill_number": "BILL-202608-00001"},
		})

		require.NoError(t, err)
		assert.Equal(t, "Bearer hook-secret", gotAuth)
		assert.Equal(t, KindBillGenerated, received.Kind)
		assert.Equal(t, tenantID, received.TenantID)
		assert.Equal(t, "BILL-202608-00001", received.Metadata["bill_number"])
	})

	t.Run("non-2xx response is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		sink := NewWebhookSink(&WebhookSinkConfig{URL: server.URL})
		err := sink.Send(context.Background(), Notice{OrgID: orgID, TenantID: tenantID, Kind: KindDueReminder})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("unreachable endpoint is an error", func(t *testing.T) {
		sink := NewWebhookSink(&WebhookSinkConfig{URL: "http://127.0.0.1:1/hooks"})
		err := sink.Send(context.Background(), Notice{OrgID: orgID, TenantID: tenantID, Kind: KindBillOverdue})
		require.Error(t, err)
	})
}

func TestMultiSink_Send(t *testing.T) {
	orgID := uuid.New()
	var calls int
	ok := sinkFunc(func(ctx context.Context, notice Notice) error {
		calls++
		return nil
	})
	failing := sinkFunc(func(ctx context.Context, notice Notice) error {
		calls++
		return assert.AnError
	})

	err := MultiSink{failing, ok}.Send(context.Background(), Notice{OrgID: orgID, Kind: KindPaymentRecorded})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

type sinkFunc func(ctx context.Context, notice Notice) error

func (f sinkFunc) Send(ctx context.Context, notice Notice) error { return f(ctx, notice) }

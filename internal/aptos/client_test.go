package aptos

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goran-ethernal/ArcadeIndexor/internal/common"
	"github.com/goran-ethernal/ArcadeIndexor/internal/logger"
	"github.com/goran-ethernal/ArcadeIndexor/pkg/chain"
	"github.com/goran-ethernal/ArcadeIndexor/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAccount = "0xc0ffee"

const transactionsPage = `[
  {
    "version": "102",
    "hash": "0xb",
    "type": "user_transaction",
    "success": true,
    "events": [
      {
        "guid": {"creation_number": "0", "account_address": "0x0"},
        "sequence_number": "0",
        "type": "0xc0ffee::multiplayer_game::GameJoinedEvent",
        "data": {"game_id": "7", "player": "0xB", "bet_amount": "10000000"}
      }
    ]
  },
  {
    "version": 101,
    "hash": "0xa",
    "type": "user_transaction",
    "events": [
      {
        "type": "0xc0ffee::multiplayer_game::GameCreatedEvent",
        "data": {"game_id": "7", "creator": "0xA", "bet_amount": "10000000"}
      },
      {
        "type": "0x1::coin::WithdrawEvent",
        "data": {"amount": "10000000"}
      }
    ]
  },
  {
    "version": "100",
    "hash": "0x9",
    "type": "genesis_transaction"
  }
]`

func newTestClient(t *testing.T, url string, retry *config.RetryConfig) *Client {
	t.Helper()

	cfg := config.ChainConfig{NodeURL: url, ContractAddress: testAccount, Retry: retry}
	cfg.ApplyDefaults()

	client, err := NewClient(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	return client
}

func TestClient_AccountTransactions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/"+testAccount+"/transactions", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(transactionsPage))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL+"/v1/", nil)

	txs, err := client.AccountTransactions(context.Background(), testAccount, 25)
	require.NoError(t, err)
	require.Len(t, txs, 3)

	// node order is preserved; sorting is the caller's job
	require.Equal(t, uint64(102), txs[0].Version)
	require.Equal(t, uint64(101), txs[1].Version)
	require.Equal(t, uint64(100), txs[2].Version)

	require.True(t, txs[0].IsUser())
	require.False(t, txs[2].IsUser())
	require.Nil(t, txs[2].Events)

	require.Len(t, txs[1].Events, 2)
	require.Equal(t, "0xc0ffee::multiplayer_game::GameCreatedEvent", txs[1].Events[0].Type)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(txs[1].Events[0].Data, &payload))
	require.Equal(t, "0xA", payload["creator"])

	chain.SortByVersion(txs)
	require.Equal(t, uint64(100), txs[0].Version)
}

func TestClient_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Account not found by Address(0xc0ffee)","error_code":"account_not_found"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, fastRetry(3))

	_, err := client.AccountTransactions(context.Background(), testAccount, 25)
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	require.Contains(t, err.Error(), "Account not found")
	require.Contains(t, err.Error(), "account_not_found")
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, fastRetry(3))

	txs, err := client.AccountTransactions(context.Background(), testAccount, 10)
	require.NoError(t, err)
	require.Empty(t, txs)
	require.Equal(t, int32(3), calls.Load())
}

func TestClient_RequestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	cfg := config.ChainConfig{
		NodeURL:         server.URL,
		ContractAddress: testAccount,
		RequestTimeout:  common.NewDuration(50 * time.Millisecond),
	}
	cfg.ApplyDefaults()

	client, err := NewClient(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	start := time.Now()
	_, err = client.AccountTransactions(context.Background(), testAccount, 25)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestClient_InvalidPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>oops</html>`},
		{name: "bad version", body: `[{"version":"-5","hash":"0x1","type":"user_transaction"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL, nil)
			_, err := client.AccountTransactions(context.Background(), testAccount, 25)
			require.Error(t, err)
		})
	}
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(config.ChainConfig{NodeURL: "ftp://node"}, logger.NewNopLogger())
	require.ErrorContains(t, err, "invalid node url scheme")
}

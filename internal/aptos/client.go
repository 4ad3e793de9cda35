package aptos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goran-ethernal/ArcadeIndexor/internal/common"
	"github.com/goran-ethernal/ArcadeIndexor/internal/logger"
	"github.com/goran-ethernal/ArcadeIndexor/pkg/chain"
	"github.com/goran-ethernal/ArcadeIndexor/pkg/config"
)

const (
	opAccountTransactions = "account_transactions"
	maxErrorBody          = 4096
)

// Compile-time check to ensure Client implements chain.Reader interface.
var _ chain.Reader = (*Client)(nil)

// Client reads transactions from an Aptos full node REST API.
// It implements the chain.Reader interface.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	retry   *config.RetryConfig
	log     *logger.Logger
}

// NewClient creates a client for the node configured in cfg.
func NewClient(cfg config.ChainConfig, log *logger.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.NodeURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid node url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid node url scheme %q", base.Scheme)
	}

	return &Client{
		baseURL: base.String(),
		http:    &http.Client{},
		timeout: cfg.RequestTimeout.Duration,
		retry:   cfg.Retry,
		log:     log.WithComponent(common.ComponentChainReader),
	}, nil
}

// wireTransaction is the subset of the node's transaction JSON the indexer needs.
type wireTransaction struct {
	Version json.Number `json:"version"`
	Hash    string      `json:"hash"`
	Type    string      `json:"type"`
	Events  []struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	} `json:"events"`
}

// AccountTransactions fetches GET {node}/accounts/{account}/transactions?limit={limit}.
func (c *Client) AccountTransactions(ctx context.Context, account string, limit int) ([]chain.Transaction, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	endpoint := fmt.Sprintf("%s/accounts/%s/transactions?limit=%s",
		c.baseURL, url.PathEscape(account), strconv.Itoa(limit))

	var wire []wireTransaction
	err := retryWithBackoff(ctx, c.retry, opAccountTransactions, func() error {
		wire = nil
		return c.getJSON(ctx, opAccountTransactions, endpoint, &wire)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions for %s: %w", account, err)
	}

	txs := make([]chain.Transaction, 0, len(wire))
	for i := range wire {
		tx, err := toTransaction(&wire[i])
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	c.log.Debugf("fetched %d transactions for account %s", len(txs), account)

	return txs, nil
}

func toTransaction(w *wireTransaction) (chain.Transaction, error) {
	version, err := common.ParseU64(w.Version.String())
	if err != nil {
		return chain.Transaction{}, fmt.Errorf("invalid version in transaction %s: %w", w.Hash, err)
	}

	tx := chain.Transaction{
		Version: version,
		Type:    w.Type,
		Hash:    w.Hash,
	}

	if len(w.Events) > 0 {
		tx.Events = make([]chain.Event, 0, len(w.Events))
		for _, e := range w.Events {
			tx.Events = append(tx.Events, chain.Event{Type: e.Type, Data: e.Data})
		}
	}

	return tx, nil
}

// getJSON performs a single bounded GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, operation, endpoint string, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestInc(operation)
	start := time.Now()
	resp, err := c.http.Do(req)
	requestDuration(operation, time.Since(start))
	if err != nil {
		requestError(operation, errorType(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		requestError(operation, "http_"+strconv.Itoa(resp.StatusCode))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		requestError(operation, "decode")
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "network"
	}
}

package chain

import (
	"context"
	"encoding/json"
	"slices"
)

// UserTransactionType is the only transaction type whose events are indexed.
const UserTransactionType = "user_transaction"

// Reader defines read access to an account's transactions on an Aptos node.
// This abstraction allows for easier testing and alternative implementations.
type Reader interface {
	// AccountTransactions returns up to limit transactions sent by account.
	// The order is whatever the node returns; callers normalise it with SortByVersion.
	AccountTransactions(ctx context.Context, account string, limit int) ([]Transaction, error)
}

// Transaction is a committed transaction as seen by the indexer.
type Transaction struct {
	Version uint64
	Type    string
	Hash    string
	Events  []Event
}

// IsUser reports whether the transaction is a user transaction.
func (t Transaction) IsUser() bool {
	return t.Type == UserTransactionType
}

// Event is a raw Move event emitted by a transaction.
type Event struct {
	// Type is the fully qualified Move type tag, e.g. 0xabc::multiplayer_game::GameCreatedEvent
	Type string
	Data json.RawMessage
}

// SortByVersion orders transactions by ascending version in place.
func SortByVersion(txs []Transaction) {
	slices.SortStableFunc(txs, func(a, b Transaction) int {
		switch {
		case a.Version < b.Version:
			return -1
		case a.Version > b.Version:
			return 1
		default:
			return 0
		}
	})
}

// After returns the transactions with a version strictly greater than version, preserving order.
func After(txs []Transaction, version uint64) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Version > version {
			out = append(out, tx)
		}
	}
	return out
}

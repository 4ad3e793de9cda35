package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/russross/meddler"
)

func init() {
	meddler.Register("rawjson", RawJSONMeddler{})
}

// RawJSONMeddler stores json.RawMessage payloads verbatim as TEXT.
type RawJSONMeddler struct{}

func (r RawJSONMeddler) PreRead(fieldAddr interface{}) (scanTarget interface{}, err error) {
	return new(sql.NullString), nil
}

func (r RawJSONMeddler) PostRead(fieldAddr, scanTarget interface{}) error {
	ns, ok := scanTarget.(*sql.NullString)
	if !ok {
		return fmt.Errorf("expected *sql.NullString, got %T", scanTarget)
	}

	ptr, ok := fieldAddr.(*json.RawMessage)
	if !ok {
		return fmt.Errorf("expected *json.RawMessage, got %T", fieldAddr)
	}

	if !ns.Valid {
		*ptr = nil
		return nil
	}
	*ptr = json.RawMessage(ns.String)
	return nil
}

func (r RawJSONMeddler) PreWrite(field interface{}) (saveValue interface{}, err error) {
	raw, ok := field.(json.RawMessage)
	if !ok {
		return nil, fmt.Errorf("expected json.RawMessage, got %T", field)
	}
	if raw == nil {
		return "null", nil
	}
	return string(raw), nil
}

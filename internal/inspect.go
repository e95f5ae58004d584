package internal

import (
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/tidwall/gjson"
)

// InspectRow describes one raw Badger key for operators.
type InspectRow struct {
	Key       string
	Kind      string
	RoomID    string
	Detail    string
	ExpiresAt string
}

type RowMapper func(key string, val []byte) InspectRow

// ScanKeys lists at most limit keys under prefix, zero meaning no limit.
func ScanKeys(db *badger.DB, prefix string, limit int, mapper RowMapper) ([]InspectRow, error) {
	if mapper == nil {
		mapper = DefaultMapper
	}
	var rows []InspectRow
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if limit > 0 && len(rows) >= limit {
				return nil
			}
			item := it.Item()
			key := string(item.KeyCopy(nil))
			err := item.Value(func(val []byte) error {
				row := mapper(key, val)
				if exp := item.ExpiresAt(); exp > 0 {
					row.ExpiresAt = time.Unix(int64(exp), 0).UTC().Format(time.RFC3339)
				}
				rows = append(rows, row)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return rows, err
}

// DefaultMapper understands the room, index, queue, lease and sequence keys.
func DefaultMapper(key string, val []byte) InspectRow {
	row := InspectRow{
		Key:       key,
		Kind:      "RAW",
		RoomID:    "-",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
		ExpiresAt: "-",
	}
	parts := strings.Split(key, ":")
	switch parts[0] {
	case "room":
		row.Kind = "ROOM"
		row.RoomID = strings.TrimPrefix(key, "room:")
		doc := gjson.ParseBytes(val)
		row.Detail = doc.Get("state").String() + " users=" + strconv.Itoa(len(doc.Get("users").Map()))
	case "index":
		row.Kind = "INDEX"
		if len(parts) == 4 {
			row.RoomID = parts[3]
			if ns, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
				row.Detail = "created " + time.Unix(0, ns).UTC().Format(time.RFC3339)
			}
		}
	case "queue":
		row.Kind = "QUEUE"
		if len(parts) == 3 {
			row.RoomID = parts[1]
			row.Detail = gjson.GetBytes(val, "event").String() + " from " + gjson.GetBytes(val, "userId").String()
		}
	case "lease":
		row.Kind = "LEASE"
		row.RoomID = strings.TrimPrefix(key, "lease:")
		row.Detail = "owner " + string(val)
	case "seq":
		row.Kind = "SEQUENCE"
	}
	return row
}

package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and dry runs. Rows are
// keyed by their natural key, so repeated upserts replace rather than
// duplicate, matching the hosted store's ON CONFLICT semantics.
type MemoryStore struct {
	mu        sync.Mutex
	tables    map[string]map[string]map[string]any
	nextTagID int
	failures  map[string]error
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables:    make(map[string]map[string]map[string]any),
		nextTagID: 1,
		failures:  make(map[string]error),
	}
}

// FailTable makes every subsequent upsert into table return err.
func (m *MemoryStore) FailTable(table string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[table] = err
}

// RowCount returns the number of rows currently held for table.
func (m *MemoryStore) RowCount(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tables[table])
}

// Row returns the stored row for the given natural key, if any.
func (m *MemoryStore) Row(table, key string) (map[string]any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.tables[table][key]
	return row, ok
}

func (m *MemoryStore) Upsert(ctx context.Context, table string, rows any, onConflict string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failures[table]; err != nil {
		return err
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	var decoded []map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		// Single-row upsert.
		var one map[string]any
		if err := json.Unmarshal(data, &one); err != nil {
			return fmt.Errorf("unsupported row shape for table %s: %w", table, err)
		}
		decoded = []map[string]any{one}
	}

	if m.tables[table] == nil {
		m.tables[table] = make(map[string]map[string]any)
	}
	for _, row := range decoded {
		key := rowKey(row, onConflict)
		if table == TableTags {
			if _, ok := row["id"]; !ok {
				// The hosted store keeps the existing id on conflict.
				if existing, ok := m.tables[table][key]; ok {
					row["id"] = existing["id"]
				} else {
					row["id"] = m.nextTagID
					m.nextTagID++
				}
			}
		}
		m.tables[table][key] = row
	}
	return nil
}

func (m *MemoryStore) ListTags(ctx context.Context) ([]TagRow, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var tags []TagRow
	for _, row := range m.tables[TableTags] {
		tag := TagRow{Name: fmt.Sprint(row["name"])}
		if id, ok := row["id"].(float64); ok {
			tag.ID = int(id)
		} else if id, ok := row["id"].(int); ok {
			tag.ID = id
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func rowKey(row map[string]any, onConflict string) string {
	cols := strings.Split(onConflict, ",")
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprint(row[strings.TrimSpace(col)])
	}
	return strings.Join(parts, "\x00")
}

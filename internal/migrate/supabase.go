package migrate

import (
	"context"
	"fmt"

	"github.com/supabase-community/supabase-go"
)

// SupabaseStore is the production Store backed by the Supabase PostgREST API.
type SupabaseStore struct {
	client *supabase.Client
}

// NewSupabaseStore connects to the hosted store. The service role key is
// required: the anon key cannot write through row-level security.
func NewSupabaseStore(url, serviceKey string) (*SupabaseStore, error) {
	client, err := supabase.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

// Upsert writes rows keyed on the onConflict column list. The underlying
// client carries its own HTTP plumbing, so the context is only consulted for
// cancellation between calls.
func (s *SupabaseStore) Upsert(ctx context.Context, table string, rows any, onConflict string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if _, _, err := s.client.From(table).Upsert(rows, onConflict, "", "").Execute(); err != nil {
		return fmt.Errorf("upsert into %s failed: %w", table, err)
	}
	return nil
}

// ListTags fetches all tags with their store-assigned ids.
func (s *SupabaseStore) ListTags(ctx context.Context) ([]TagRow, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	var tags []TagRow
	if _, err := s.client.From(TableTags).Select("id, name", "", false).ExecuteTo(&tags); err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

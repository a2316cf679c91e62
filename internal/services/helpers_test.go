package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

func decodeBody(t *testing.T, r *http.Request, v any) {
	t.Helper()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		t.Errorf("failed to decode request body: %v", err)
	}
}

func ptr[T any](v T) *T { return &v }

// pageDoer serves scripted pages keyed by cursor.
type pageDoer struct {
	pages map[string]any
	calls []string
	err   error
}

func (d *pageDoer) Do(_ context.Context, _, path string, _, out any, _ ...RequestOption) error {
	d.calls = append(d.calls, path)
	if d.err != nil {
		return d.err
	}
	page, ok := d.pages[path]
	if !ok {
		return fmt.Errorf("unexpected cursor %s", path)
	}
	data, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

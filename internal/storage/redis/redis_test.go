package redis

import (
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *Client) {
	t.Helper()

	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(s.Close)

	url := fmt.Sprintf("redis://%s/0", s.Addr())
	rcli, err := NewClient(url)
	if err != nil {
		t.Fatalf("failed to create redis client: %v", err)
	}
	t.Cleanup(func() { rcli.Close() })

	return s, rcli
}

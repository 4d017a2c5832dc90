package cache

import (
	"context"
	"testing"
)

func TestNewClientRequiresAddress(t *testing.T) {
	if _, err := NewClient(Options{Addr: "  "}); err == nil {
		t.Fatalf("expected error for blank address")
	}
	if _, err := Connect(context.Background(), Options{}); err == nil {
		t.Fatalf("expected connect error for blank address")
	}
}

func TestNewClientAppliesDefaults(t *testing.T) {
	client, err := NewClient(Options{Addr: "localhost:6379"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	opts := client.Options()
	if opts.PoolSize != 20 {
		t.Fatalf("expected pool size 20, got %d", opts.PoolSize)
	}
	if opts.DialTimeout.Seconds() != 5 {
		t.Fatalf("expected 5s dial timeout, got %s", opts.DialTimeout)
	}
}

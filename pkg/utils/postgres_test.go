package utils

import (
	"testing"
	"time"
)

func TestPostgresPoolDefaults(t *testing.T) {
	c := PostgresPoolConfig{}.withDefaults()
	if c.MaxOpenConns != 10 || c.MaxIdleConns != 10 {
		t.Fatalf("unexpected conn limits: %+v", c)
	}
	if c.PingTimeout != 5*time.Second {
		t.Fatalf("expected ping timeout 5s, got %s", c.PingTimeout)
	}
	if c.ConnectTimeout != 0 {
		t.Fatalf("connect timeout must stay opt-in, got %s", c.ConnectTimeout)
	}
}

func TestPostgresPoolKeepsExplicitValues(t *testing.T) {
	c := PostgresPoolConfig{MaxOpenConns: 3, ConnectTimeout: time.Second}.withDefaults()
	if c.MaxOpenConns != 3 {
		t.Fatalf("expected explicit max open conns kept, got %d", c.MaxOpenConns)
	}
	if c.ConnectTimeout != time.Second {
		t.Fatalf("expected connect timeout kept, got %s", c.ConnectTimeout)
	}
}

package app

import (
	"context"
	"testing"
	"time"
)

func TestMemoryDeduperMarksAndExpires(t *testing.T) {
	d := NewMemoryEventDeduper(50 * time.Millisecond)

	seen, err := d.Seen(context.Background(), "evt_1")
	if err != nil || seen {
		t.Fatalf("fresh id should not be seen: %v %v", seen, err)
	}

	if err := d.MarkProcessed(context.Background(), "evt_1"); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	if seen, _ := d.Seen(context.Background(), "evt_1"); !seen {
		t.Fatal("marked id must be seen")
	}

	time.Sleep(60 * time.Millisecond)
	if seen, _ := d.Seen(context.Background(), "evt_1"); seen {
		t.Fatal("expired id must not be seen")
	}
}

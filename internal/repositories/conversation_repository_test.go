package repositories

import "testing"

func TestPairKeyOrderIndependent(t *testing.T) {
	if pairKey(1, 2) != pairKey(2, 1) {
		t.Fatalf("pair key must not depend on argument order")
	}
	if pairKey(1, 2) != "1:2" {
		t.Fatalf("expected canonical key 1:2, got %s", pairKey(1, 2))
	}
	if pairKey(10, 2) != "2:10" {
		t.Fatalf("expected numeric ordering, got %s", pairKey(10, 2))
	}
}

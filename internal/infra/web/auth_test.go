package web

import "testing"

func TestGate_Authorize(t *testing.T) {
	gate := NewGate("PCRED_PRIVATE_SALT_2025", nil)
	accepted := gate.HashKey("super-secret")
	gate = NewGate("PCRED_PRIVATE_SALT_2025", []string{accepted})

	if !gate.Authorize("super-secret") {
		t.Error("the configured key must authorize")
	}
	if gate.Authorize("wrong-secret") {
		t.Error("an unknown key must not authorize")
	}
	if gate.Authorize("") {
		t.Error("an empty key must not authorize")
	}
}

func TestGate_HashKeyDependsOnSalt(t *testing.T) {
	a := NewGate("salt-a", nil).HashKey("key")
	b := NewGate("salt-b", nil).HashKey("key")
	if a == b {
		t.Error("hashes under different salts must differ")
	}
	if len(a) != 64 {
		t.Errorf("expected hex SHA-256 length 64, got %d", len(a))
	}
}

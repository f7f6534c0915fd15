package utils

import "testing"

func TestPasswordHashing(t *testing.T) {
	hash := HashPassword("pw123456")
	if hash == "" || hash == "pw123456" {
		t.Fatalf("expected a salted hash, got %q", hash)
	}
	if !CheckPassword("pw123456", hash) {
		t.Fatalf("expected password to match")
	}
	if CheckPassword("wrong", hash) {
		t.Fatalf("expected password mismatch")
	}
}

func TestHashIsSalted(t *testing.T) {
	if HashPassword("pw123456") == HashPassword("pw123456") {
		t.Fatalf("expected distinct salts per hash")
	}
}

package utils

import "testing"

func TestHashPassword_RoundTripsThroughStringColumn(t *testing.T) {
	hashed, err := HashPassword("demo1234")
	if err != nil {
		t.Fatal(err)
	}

	// The hash is stored in a string column; comparing must survive the
	// []byte -> string -> []byte trip.
	stored := string(hashed)
	if err := ComparePassword(stored, "demo1234"); err != nil {
		t.Fatalf("stored hash did not verify: %v", err)
	}
	if err := ComparePassword(stored, "wrong"); err == nil {
		t.Fatal("wrong password must not verify")
	}
}

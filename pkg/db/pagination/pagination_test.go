package pagination

import "testing"

func TestLimitClamps(t *testing.T) {
	cases := []struct {
		size int
		want int
	}{
		{0, 50},
		{-1, 50},
		{25, 25},
		{200, 200},
		{5000, 200},
	}
	for _, tc := range cases {
		if got := (Pagination{PageSize: tc.size}).Limit(); got != tc.want {
			t.Errorf("Limit(%d) = %d, want %d", tc.size, got, tc.want)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token := EncodeToken(1234567890)
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if got := DecodeToken(token); got != 1234567890 {
		t.Fatalf("round trip mismatch: %d", got)
	}
}

func TestDecodeTokenMalformed(t *testing.T) {
	for _, token := range []string{"", "not-base64!!", "aGVsbG8"} {
		if got := DecodeToken(token); got != 0 {
			t.Errorf("DecodeToken(%q) = %d, want 0", token, got)
		}
	}
}

func TestEncodeTokenZero(t *testing.T) {
	if got := EncodeToken(0); got != "" {
		t.Fatalf("expected empty token for zero id, got %q", got)
	}
}

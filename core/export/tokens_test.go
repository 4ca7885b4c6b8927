package export

import (
	"strings"
	"testing"
	"time"
)

func TestTokenSigner(t *testing.T) {
	now := testNow
	s := NewTokenSigner("secret", time.Hour)
	s.now = func() time.Time { return now }

	token, err := s.Sign("job-1", "csv")
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if err := s.Verify(token, "job-1", "csv"); err != nil {
		t.Errorf("Verify() error: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + ".f" + parts[1][1:] + "." + parts[2]

	tests := []struct {
		name   string
		token  string
		job    string
		format string
	}{
		{"empty", "", "job-1", "csv"},
		{"other format", token, "job-1", "json"},
		{"other job", token, "job-2", "csv"},
		{"tampered", tampered, "job-1", "csv"},
		{"not a jwt", "abc.def", "job-1", "csv"},
	}
	for _, tt := range tests {
		if err := s.Verify(tt.token, tt.job, tt.format); err == nil {
			t.Errorf("%s: Verify() succeeded", tt.name)
		}
	}

	other := NewTokenSigner("another", time.Hour)
	other.now = s.now
	if err := other.Verify(token, "job-1", "csv"); err == nil {
		t.Error("token verified with a different secret")
	}

	now = now.Add(2 * time.Hour)
	if err := s.Verify(token, "job-1", "csv"); err == nil || !strings.Contains(err.Error(), "expired") {
		t.Errorf("Verify() of expired token error = %v", err)
	}
}

func TestTokenSignerRandomSecret(t *testing.T) {
	a, b := NewTokenSigner("", time.Hour), NewTokenSigner("", time.Hour)
	token, err := a.Sign("j", "csv")
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Verify(token, "j", "csv"); err != nil {
		t.Errorf("Verify() error: %v", err)
	}
	if err := b.Verify(token, "j", "csv"); err == nil {
		t.Error("random secrets must differ")
	}
	// rand.Text yields 26 base32 characters, 130 random bits
	if len(a.secret) != 26 || string(a.secret) == string(b.secret) {
		t.Errorf("random secret = %q", a.secret)
	}
}

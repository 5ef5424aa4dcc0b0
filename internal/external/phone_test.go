package external

import (
	"errors"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "0712345678", want: "254712345678"},
		{in: "254712345678", want: "254712345678"},
		{in: "+254 712 345 678", want: "254712345678"},
		{in: "712345678", want: "254712345678"},
		{in: "0112345678", want: "254112345678"},
		{in: "0712-345-678", want: "254712345678"},
		{in: "07123", wantErr: true},
		{in: "0212345678", wantErr: true},
		{in: "2547123456789", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := NormalizePhone(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidPhone) {
				t.Errorf("NormalizePhone(%q): expected ErrInvalidPhone, got %q, %v", tt.in, got, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestPassword(t *testing.T) {
	// base64("174379" + "passkey" + "20240101120000")
	got := Password("174379", "passkey", "20240101120000")
	want := "MTc0Mzc5cGFzc2tleTIwMjQwMTAxMTIwMDAw"
	if got != want {
		t.Errorf("Password() = %q, want %q", got, want)
	}
}

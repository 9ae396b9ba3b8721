package guestusage

import (
	"errors"
	"testing"
)

func TestResolveClientKey(t *testing.T) {
	tests := []struct {
		name         string
		forwardedFor string
		realIP       string
		remoteAddr   string
		want         string
		wantErr      bool
	}{
		{
			name:         "forwarded-for single entry",
			forwardedFor: "203.0.113.7",
			remoteAddr:   "10.0.0.2:40000",
			want:         "203.0.113.7",
		},
		{
			name:         "forwarded-for takes first of chain",
			forwardedFor: "203.0.113.7, 70.41.3.18, 150.172.238.178",
			realIP:       "70.41.3.18",
			remoteAddr:   "10.0.0.2:40000",
			want:         "203.0.113.7",
		},
		{
			name:         "forwarded-for entry is trimmed",
			forwardedFor: "  203.0.113.7 , 70.41.3.18",
			want:         "203.0.113.7",
		},
		{
			name:       "real-ip used when forwarded-for absent",
			realIP:     "198.51.100.9",
			remoteAddr: "10.0.0.2:40000",
			want:       "198.51.100.9",
		},
		{
			name:       "remote addr fallback strips port",
			remoteAddr: "192.0.2.44:52811",
			want:       "192.0.2.44",
		},
		{
			name:       "remote addr without port used as is",
			remoteAddr: "192.0.2.44",
			want:       "192.0.2.44",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
		{
			name:         "whitespace-only headers fall through",
			forwardedFor: "   ",
			realIP:       " ",
			remoteAddr:   "192.0.2.44:1000",
			want:         "192.0.2.44",
		},
		{
			name:    "everything empty fails closed",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveClientKey(tt.forwardedFor, tt.realIP, tt.remoteAddr)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got key %q", got)
				}
				if !errors.Is(err, ErrNoClientIdentity) {
					t.Errorf("error = %v, want ErrNoClientIdentity", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("key = %q, want %q", got, tt.want)
			}
		})
	}
}

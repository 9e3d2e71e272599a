package container

import (
	"errors"
	"net"
	"strconv"
	"testing"

	"github.com/docker/go-connections/nat"
)

func TestParsePort(t *testing.T) {
	tests := []struct {
		input     string
		want      nat.Port
		wantError bool
	}{
		{"8080", "8080/tcp", false},
		{"8080/tcp", "8080/tcp", false},
		{"9000/tcp", "9000/tcp", false},
		{"53/udp", "53/udp", false},
		{"  5000  ", "5000/tcp", false},
		{"", "", true},
		{"invalid", "", true},
		{"0", "", true},
		{"70000", "", true},
		{"8000-8010", "", true},
		{"/tcp", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePort(tt.input)

			if tt.wantError {
				if err == nil {
					t.Errorf("ParsePort(%q) expected error, got %q", tt.input, got)
				}
				return
			}

			if err != nil {
				t.Errorf("ParsePort(%q) unexpected error: %v", tt.input, err)
				return
			}

			if got != tt.want {
				t.Errorf("ParsePort(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestAllocatePort(t *testing.T) {
	t.Run("returns port in valid range", func(t *testing.T) {
		port, err := AllocatePort()
		if err != nil {
			t.Fatalf("AllocatePort() error = %v", err)
		}
		if port < 1 || port > 65535 {
			t.Errorf("AllocatePort() = %d, out of range [1, 65535]", port)
		}
	})

	t.Run("port is free after allocation", func(t *testing.T) {
		port, err := AllocatePort()
		if err != nil {
			t.Fatalf("AllocatePort() error = %v", err)
		}

		l, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err != nil {
			t.Fatalf("port %d not bindable after allocation: %v", port, err)
		}
		l.Close()
	})

	t.Run("repeated allocations are mostly distinct", func(t *testing.T) {
		const n = 20
		seen := make(map[int]bool, n)
		for i := 0; i < n; i++ {
			port, err := AllocatePort()
			if err != nil {
				t.Fatalf("AllocatePort() error = %v", err)
			}
			seen[port] = true
		}
		// The OS may legitimately reuse a released port; require most to differ.
		if len(seen) < n/2 {
			t.Errorf("AllocatePort() returned only %d distinct ports out of %d", len(seen), n)
		}
	})
}

func TestPortAllocatorFunc(t *testing.T) {
	want := errors.New("boom")
	alloc := PortAllocatorFunc(func() (int, error) { return 0, want })

	if _, err := alloc.Allocate(); !errors.Is(err, want) {
		t.Errorf("Allocate() error = %v, want %v", err, want)
	}
}

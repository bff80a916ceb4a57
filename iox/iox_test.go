package iox

import (
	"bytes"
	"errors"
	"testing"
)

type spyCloser struct{ closed bool }

func (s *spyCloser) Close() error { s.closed = true; return errors.New("ignored") }

func TestDiscardClose(t *testing.T) {
	s := &spyCloser{}
	DiscardClose(s)
	if !s.closed {
		t.Fatal("Close was not called")
	}
}

func TestCloseFunc(t *testing.T) {
	s := &spyCloser{}
	fn := CloseFunc(s)
	if s.closed {
		t.Fatal("Close called before invoking returned func")
	}
	fn()
	if !s.closed {
		t.Fatal("Close was not called")
	}
}

func TestReadAllLimit(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		limit   int64
		wantErr bool
	}{
		{"under limit", []byte("abc"), 4, false},
		{"at limit", []byte("abcd"), 4, false},
		{"over limit", []byte("abcde"), 4, true},
		{"disabled", bytes.Repeat([]byte("x"), 100), 0, false},
		{"empty", nil, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadAllLimit(bytes.NewReader(tt.input), tt.limit)
			if tt.wantErr {
				if !errors.Is(err, ErrLimitExceeded) {
					t.Fatalf("expected ErrLimitExceeded, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.input) {
				t.Errorf("got %q, want %q", got, tt.input)
			}
		})
	}
}

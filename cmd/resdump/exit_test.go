package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/urfave/cli/v2"
)

func stubExit(t *testing.T, fn func(int)) {
	t.Helper()
	orig := osExit
	osExit = fn
	t.Cleanup(func() { osExit = orig })
}

func TestExitErrHandler_NilError(t *testing.T) {
	called := false
	stubExit(t, func(int) { called = true })

	exitErrHandler(nil, nil)
	if called {
		t.Error("nil error must not exit")
	}
}

func TestExitErrHandler_Exits(t *testing.T) {
	var got int
	stubExit(t, func(code int) { got = code })

	exitErrHandler(nil, cli.Exit("failed to store words", 2))
	if got != 2 {
		t.Errorf("exit code = %d, want 2", got)
	}
}

func TestReportError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"exit code 0 no message", cli.Exit("", 0), 0, ""},
		{"input error", cli.Exit("dump.bin: read failed", 1), 1, "dump.bin: read failed\n"},
		{"storage error", cli.Exit("failed to store words", 2), 2, "failed to store words\n"},
		{"bare exit status suppressed", cli.Exit("", 2), 2, ""},
		{"wrapped exit coder", errors.Join(errors.New("context"), cli.Exit("inner error", 42)), 42, "inner error\n"},
		{"regular error", errors.New("regular error"), 1, "Error: regular error\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if code := reportError(&buf, tt.err); code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if buf.String() != tt.wantMsg {
				t.Errorf("output = %q, want %q", buf.String(), tt.wantMsg)
			}
		})
	}
}

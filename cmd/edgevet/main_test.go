package main

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitializeSinks(t *testing.T) {
	tests := []struct {
		name    string
		outputs []string
		want    []string
	}{
		{"log only", []string{"log"}, []string{"log"}},
		{"unknown output skipped", []string{"log", "carrier-pigeon"}, []string{"log"}},
		{"empty outputs", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sinks := initializeSinks(context.Background(), tt.outputs, zerolog.Nop(), nil)
			if len(sinks) != len(tt.want) {
				t.Fatalf("got %d sinks, want %d", len(sinks), len(tt.want))
			}
			for i, s := range sinks {
				if s.Name() != tt.want[i] {
					t.Errorf("sink[%d] = %q, want %q", i, s.Name(), tt.want[i])
				}
			}
		})
	}
}

func TestInitializeSinksSkipsFailedStart(t *testing.T) {
	// A postgres sink with no reachable database must fail to start and be
	// skipped rather than abort the process.
	t.Setenv("PG_DSN", "postgres://127.0.0.1:1/nope?connect_timeout=1&sslmode=disable")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sinks := initializeSinks(ctx, []string{"postgres", "log"}, zerolog.Nop(), nil)

	if len(sinks) != 1 || sinks[0].Name() != "log" {
		names := make([]string, len(sinks))
		for i, s := range sinks {
			names[i] = s.Name()
		}
		t.Errorf("sinks = %v, want [log]", names)
	}
}

func TestNewLogger(t *testing.T) {
	// Both formats must return a usable logger.
	for _, format := range []string{"json", "console", ""} {
		logger := newLogger(format)
		logger.Debug().Str("format", format).Msg("smoke")
	}
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"wrapped unique violation", fmt.Errorf("insert workflow: %w", &pgconn.PgError{Code: "23505"}), true},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, false},
		{"message text is not enough", errors.New("duplicate key value violates unique constraint"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isUniqueViolation(tc.err); got != tc.want {
				t.Fatalf("isUniqueViolation(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsConnectivityErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"connection failure class", &pgconn.PgError{Code: "08006"}, true},
		{"admin shutdown class", &pgconn.PgError{Code: "08P01"}, true},
		{"unique violation is not connectivity", &pgconn.PgError{Code: "23505"}, false},
		{"dial failure", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
		{"wrapped net error", fmt.Errorf("exec: %w", &net.OpError{Op: "read", Err: errors.New("connection reset")}), true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"plain error", errors.New("syntax error"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isConnectivityErr(tc.err); got != tc.want {
				t.Fatalf("isConnectivityErr(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

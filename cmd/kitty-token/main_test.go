package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"kittycore/internal/auth"
)

func TestCLIIssuesVerifiableToken(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-account", "alice", "-ttl", "1h"}, "s3cret", &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	j, _ := auth.NewJWT([]byte("s3cret"))
	origin, err := j.Authenticate(context.Background(), strings.TrimSpace(stdout.String()))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if origin.Caller != "alice" {
		t.Fatalf("unexpected caller %q", origin.Caller)
	}
}

func TestCLIUsageErrors(t *testing.T) {
	cases := []struct {
		name   string
		args   []string
		secret string
		want   string
	}{
		{"no account", nil, "s3cret", "-account is required"},
		{"no secret", []string{"-account", "alice"}, "", "KITTYCORE_JWT_SECRET"},
		{"bad flag", []string{"-nope"}, "s3cret", "flag provided but not defined"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := cli(tc.args, tc.secret, &stdout, &stderr); code != 2 {
				t.Fatalf("expected exit 2, got %d", code)
			}
			if !strings.Contains(stderr.String(), tc.want) {
				t.Fatalf("stderr %q missing %q", stderr.String(), tc.want)
			}
		})
	}
}

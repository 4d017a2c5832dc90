package main

import (
	"bytes"
	"strings"
	"testing"

	"cakeshop/internal/platform/httpserver"
)

func TestIssueTokenSignsParseableToken(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetArgs([]string{"issue-token", "--jwt-secret", "cli-secret", "--subject", "merchant-7", "--email", "m7@example.com"})
	if err := root.Execute(); err != nil {
		t.Fatalf("issue-token: %v", err)
	}

	principal, err := httpserver.NewAuthenticator("cli-secret").Parse(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if principal.Subject != "merchant-7" || principal.Email != "m7@example.com" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestIssueTokenRequiresSubject(t *testing.T) {
	root := newRootCmd(&bytes.Buffer{})
	root.SetArgs([]string{"issue-token", "--jwt-secret", "cli-secret"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error without --subject")
	}
}

func TestMigrateRequiresDSN(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("POSTGRES_DSN", "")
	root := newRootCmd(&bytes.Buffer{})
	root.SetArgs([]string{"migrate", "up"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "DSN") {
		t.Fatalf("expected DSN error, got %v", err)
	}
}

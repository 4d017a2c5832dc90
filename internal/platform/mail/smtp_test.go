package mail

import "testing"

func TestNewSMTPClientRequiresHost(t *testing.T) {
	if _, err := NewSMTPClient(SMTPOptions{}); err == nil {
		t.Fatalf("expected error for missing host")
	}
}

func TestNewSMTPClientDefaultsPort(t *testing.T) {
	client, err := NewSMTPClient(SMTPOptions{Host: "smtp.example.com", Username: "user", Password: "secret"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.ServerAddr() != "smtp.example.com:587" {
		t.Fatalf("expected smtp.example.com:587, got %s", client.ServerAddr())
	}
}

package mail

import (
	"errors"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"
)

type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// NewSMTPClient configures an SMTP client. Authentication is enabled only
// when a username is set; TLS is used whenever the server offers it.
func NewSMTPClient(opts SMTPOptions) (*gomail.Client, error) {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		return nil, errors.New("smtp host is required")
	}
	port := opts.Port
	if port <= 0 {
		port = 587
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	clientOpts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTimeout(timeout),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if strings.TrimSpace(opts.Username) != "" {
		clientOpts = append(clientOpts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(opts.Username),
			gomail.WithPassword(opts.Password),
		)
	}
	return gomail.NewClient(host, clientOpts...)
}

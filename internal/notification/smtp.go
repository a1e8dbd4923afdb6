package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

// SMTPDispatcher sends plain text mail over implicit TLS (port 465).
type SMTPDispatcher struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPDispatcher(host string, port int, username, password, from string) *SMTPDispatcher {
	return &SMTPDispatcher{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (d *SMTPDispatcher) Send(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(d.host, strconv.Itoa(d.port))

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: 10 * time.Second},
		Config:    &tls.Config{ServerName: d.host, MinVersion: tls.VersionTLS12},
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to dial smtp server: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, d.host)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	defer client.Quit()

	if d.username != "" {
		if err := client.Auth(smtp.PlainAuth("", d.username, d.password, d.host)); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	if err := client.Mail(d.from); err != nil {
		return fmt.Errorf("smtp MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp RCPT TO failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA failed: %w", err)
	}
	if _, err := w.Write(buildMIME(d.from, msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return w.Close()
}

func buildMIME(from string, msg Message) []byte {
	return []byte(
		fmt.Sprintf("From: %s\r\n", from) +
			fmt.Sprintf("To: %s\r\n", msg.To) +
			fmt.Sprintf("Subject: %s\r\n", msg.Subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=\"utf-8\"\r\n" +
			"\r\n" +
			msg.Body,
	)
}

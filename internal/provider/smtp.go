package provider

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"os"
	"time"

	"github.com/notifyhub/notify-dispatch/internal/domain"
)

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// SMTPProvider delivers email through a plain SMTP relay (STARTTLS when the
// server offers it). Messages with an HTML body are sent as
// multipart/alternative.
type SMTPProvider struct {
	host     string
	port     string
	username string
	password string
	from     string
	timeout  time.Duration
	dial     dialFunc
}

func NewSMTPProvider(host, port, username, password, from string, timeout time.Duration) *SMTPProvider {
	return &SMTPProvider{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		timeout:  timeout,
		dial:     (&net.Dialer{}).DialContext,
	}
}

func (p *SMTPProvider) Name() string { return "smtp" }

func (p *SMTPProvider) Supports(ch domain.Channel) bool { return ch == domain.ChannelEmail }

// Send builds the MIME message and runs the SMTP exchange on a connection
// whose deadline is the context deadline. The connection is closed as soon
// as ctx ends, so a stalled relay never outlives the call.
func (p *SMTPProvider) Send(ctx context.Context, n domain.Notification) error {
	email, ok := n.Content().(domain.EmailContent)
	if !ok {
		return fmt.Errorf("smtp: %w: %T", ErrUnsupportedContent, n.Content())
	}

	to := n.Recipient().Identifier()
	msg, err := buildMessage(p.from, to, email)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	conn, err := p.dial(ctx, "tcp", net.JoinHostPort(p.host, p.port))
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return fmt.Errorf("smtp deadline: %w", err)
		}
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := p.exchange(conn, to, msg); err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			// conn deadline and ctx deadline are the same instant
			<-ctx.Done()
		}
		if ctx.Err() != nil {
			return fmt.Errorf("smtp send: %w", ctx.Err())
		}
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// exchange mirrors smtp.SendMail on an already dialled connection.
func (p *SMTPProvider) exchange(conn net.Conn, to string, msg []byte) error {
	c, err := smtp.NewClient(conn, p.host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: p.host}); err != nil {
			return err
		}
	}
	if p.username != "" {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("relay does not support AUTH")
		}
		if err := c.Auth(smtp.PlainAuth("", p.username, p.password, p.host)); err != nil {
			return err
		}
	}
	if err := c.Mail(p.from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func buildMessage(from, to string, c domain.EmailContent) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", c.Subject()))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if c.HTML() == "" {
		buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
		buf.WriteString(c.Text())
		return buf.Bytes(), nil
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())

	for _, part := range []struct{ contentType, text string }{
		{"text/plain; charset=\"utf-8\"", c.Text()},
		{"text/html; charset=\"utf-8\"", c.HTML()},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.contentType}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.text)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	buf.Write(body.Bytes())
	return buf.Bytes(), nil
}

var _ Provider = (*SMTPProvider)(nil)

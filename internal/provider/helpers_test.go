package provider

import (
	"context"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/notifyhub/notify-dispatch/internal/domain"
)

func emailNotification(t *testing.T, to, subject, text, html string) domain.Notification {
	t.Helper()
	r, err := domain.NewEmailRecipient(to)
	if err != nil {
		t.Fatal(err)
	}
	c, err := domain.NewEmailContent(subject, text, html)
	if err != nil {
		t.Fatal(err)
	}
	n, err := domain.NewNotification(r, c)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func smsNotification(t *testing.T, phone, text string) domain.Notification {
	t.Helper()
	r, err := domain.NewSMSRecipient(phone)
	if err != nil {
		t.Fatal(err)
	}
	c, err := domain.NewSMSContent(text)
	if err != nil {
		t.Fatal(err)
	}
	n, err := domain.NewNotification(r, c)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func logNotification(t *testing.T, user, msg string) domain.Notification {
	t.Helper()
	r, err := domain.NewLogRecipient(user)
	if err != nil {
		t.Fatal(err)
	}
	c, err := domain.NewLogContent(msg)
	if err != nil {
		t.Fatal(err)
	}
	n, err := domain.NewNotification(r, c)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

// fakeRelay answers just enough SMTP on one side of a net.Pipe to record an
// envelope. rejectRcpt makes RCPT fail with 550.
type fakeRelay struct {
	advertiseAuth bool
	rejectRcpt    bool

	mu     sync.Mutex
	from   string
	rcpt   []string
	authed bool
	data   []byte
}

func (r *fakeRelay) dial(context.Context, string, string) (net.Conn, error) {
	client, server := net.Pipe()
	go r.serve(server)
	return client, nil
}

func (r *fakeRelay) serve(conn net.Conn) {
	defer conn.Close()
	tp := textproto.NewConn(conn)

	if err := tp.PrintfLine("220 mail.local ESMTP"); err != nil {
		return
	}
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
		switch verb {
		case "EHLO":
			if r.advertiseAuth {
				tp.PrintfLine("250-mail.local")
				tp.PrintfLine("250 AUTH PLAIN")
			} else {
				tp.PrintfLine("250 mail.local")
			}
		case "AUTH":
			r.mu.Lock()
			r.authed = true
			r.mu.Unlock()
			tp.PrintfLine("235 2.7.0 accepted")
		case "MAIL":
			r.mu.Lock()
			r.from = strings.TrimSuffix(strings.TrimPrefix(line, "MAIL FROM:<"), ">")
			r.mu.Unlock()
			tp.PrintfLine("250 ok")
		case "RCPT":
			if r.rejectRcpt {
				tp.PrintfLine("550 mailbox unavailable")
				continue
			}
			r.mu.Lock()
			r.rcpt = append(r.rcpt, strings.TrimSuffix(strings.TrimPrefix(line, "RCPT TO:<"), ">"))
			r.mu.Unlock()
			tp.PrintfLine("250 ok")
		case "DATA":
			tp.PrintfLine("354 go ahead")
			body, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			r.mu.Lock()
			r.data = body
			r.mu.Unlock()
			tp.PrintfLine("250 queued")
		case "QUIT":
			tp.PrintfLine("221 bye")
			return
		default:
			tp.PrintfLine("502 not implemented")
		}
	}
}

func (r *fakeRelay) envelope() (from string, rcpt []string, authed bool, data string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.from, append([]string(nil), r.rcpt...), r.authed, string(r.data)
}

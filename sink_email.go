// FILE: lixenwraith/logsetup/sink_email.go
package logsetup

import (
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// MailgunOptions configures a Mailgun email sink
type MailgunOptions struct {
	APIKey     string
	Domain     string // derived from Sender when empty
	Sender     string // "user@host" or "Name <user@host>"
	Recipients []string
	Subject    string // fixed subject, derived from the record when empty
	Header     string
	BaseURL    string // API base, Mailgun's v3 API when empty
	Timeout    time.Duration

	SubjectFunc func(r *Record) string
	BodyFunc    func(text string, r *Record) string
}

// MailgunSink sends each record as an email through the Mailgun API
type MailgunSink struct {
	mu     sync.Mutex
	opts   MailgunOptions
	client *resty.Client
	closed bool
}

// NewMailgunSink validates opts and creates the sink. A missing domain
// that cannot be derived from the sender address is an invalid argument.
func NewMailgunSink(opts MailgunOptions) (*MailgunSink, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, invalidArgf("mailgun api key cannot be empty")
	}
	if strings.TrimSpace(opts.Sender) == "" {
		return nil, invalidArgf("mailgun sender cannot be empty")
	}
	if len(opts.Recipients) == 0 {
		return nil, invalidArgf("mailgun requires at least one recipient")
	}
	if opts.Domain == "" {
		domain, err := senderDomain(opts.Sender)
		if err != nil {
			return nil, err
		}
		opts.Domain = domain
	}
	if opts.BaseURL == "" {
		opts.BaseURL = mailgunDefaultURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = httpSinkTimeout
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetBasicAuth(mailgunAPIUser, opts.APIKey).
		SetTimeout(opts.Timeout)

	return &MailgunSink{opts: opts, client: client}, nil
}

// senderDomain extracts the host part of a sender address
func senderDomain(sender string) (string, error) {
	addr, err := mail.ParseAddress(sender)
	if err != nil {
		return "", invalidArgf("cannot derive mail domain from sender '%s': %v", sender, err)
	}
	at := strings.LastIndexByte(addr.Address, '@')
	if at < 0 || at == len(addr.Address)-1 {
		return "", invalidArgf("cannot derive mail domain from sender '%s'", sender)
	}
	return addr.Address[at+1:], nil
}

// Name implements namedSink
func (s *MailgunSink) Name() string {
	return "mailgun:" + s.opts.Domain
}

// Domain returns the sending domain
func (s *MailgunSink) Domain() string {
	return s.opts.Domain
}

// Subject returns the email subject for r
func (s *MailgunSink) Subject(r *Record) string {
	return mailSubject(s.opts.SubjectFunc, s.opts.Subject, r)
}

// Body returns the email body for the rendered text
func (s *MailgunSink) Body(text string, r *Record) string {
	if s.opts.BodyFunc != nil {
		return s.opts.BodyFunc(text, r)
	}
	return notifyBody(s.opts.Header, text)
}

// Deliver sends one message
func (s *MailgunSink) Deliver(text string, r *Record) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return fmtErrorf("mailgun sink closed")
	}

	form := url.Values{}
	form.Set("from", s.opts.Sender)
	for _, to := range s.opts.Recipients {
		form.Add("to", to)
	}
	form.Set("subject", s.Subject(r))
	form.Set("text", s.Body(text, r))

	resp, err := s.client.R().
		SetFormDataFromValues(form).
		Post("/" + s.opts.Domain + "/messages")
	if err != nil {
		return fmtErrorf("mailgun request failed: %w", err)
	}
	if resp.IsError() {
		return fmtErrorf("mailgun returned %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return nil
}

// Close releases idle connections
func (s *MailgunSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.client.GetClient().CloseIdleConnections()
	return nil
}

// SMTPOptions configures an SMTP email sink
type SMTPOptions struct {
	Host     string
	Port     int // 25 when zero
	Username string
	Password string
	From     string
	To       []string
	Subject  string

	SubjectFunc func(r *Record) string
	BodyFunc    func(text string, r *Record) string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSink sends each record as an email through an SMTP relay
type SMTPSink struct {
	mu     sync.Mutex
	opts   SMTPOptions
	addr   string
	send   sendMailFunc
	closed bool
}

// NewSMTPSink validates opts and creates the sink
func NewSMTPSink(opts SMTPOptions) (*SMTPSink, error) {
	if strings.TrimSpace(opts.Host) == "" {
		return nil, invalidArgf("smtp host cannot be empty")
	}
	if opts.Port == 0 {
		opts.Port = 25
	}
	if opts.Port < 0 || opts.Port > 65535 {
		return nil, invalidArgf("smtp port out of range: %d", opts.Port)
	}
	if _, err := mail.ParseAddress(opts.From); err != nil {
		return nil, invalidArgf("invalid smtp sender '%s': %v", opts.From, err)
	}
	if len(opts.To) == 0 {
		return nil, invalidArgf("smtp requires at least one recipient")
	}
	return &SMTPSink{
		opts: opts,
		addr: net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
		send: smtp.SendMail,
	}, nil
}

// Name implements namedSink
func (s *SMTPSink) Name() string {
	return "smtp:" + s.addr
}

// Subject returns the email subject for r
func (s *SMTPSink) Subject(r *Record) string {
	return mailSubject(s.opts.SubjectFunc, s.opts.Subject, r)
}

// Deliver sends one message
func (s *SMTPSink) Deliver(text string, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmtErrorf("smtp sink closed")
	}

	body := text
	if s.opts.BodyFunc != nil {
		body = s.opts.BodyFunc(text, r)
	}

	var auth smtp.Auth
	if s.opts.Username != "" {
		auth = smtp.PlainAuth("", s.opts.Username, s.opts.Password, s.opts.Host)
	}

	envelope, _ := mail.ParseAddress(s.opts.From)
	msg := buildMessage(s.opts.From, s.opts.To, s.Subject(r), body, r.Time)
	if err := s.send(s.addr, auth, envelope.Address, s.opts.To, msg); err != nil {
		return fmtErrorf("smtp send via '%s' failed: %w", s.addr, err)
	}
	return nil
}

// Close stops further deliveries
func (s *SMTPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func mailSubject(fn func(*Record) string, fixed string, r *Record) string {
	if fn != nil {
		return clampTitle(fn(r))
	}
	if fixed != "" {
		return clampTitle(fixed)
	}
	return defaultTitle(r)
}

// buildMessage renders an RFC 5322 plain text message with CRLF line endings
func buildMessage(from string, to []string, subject, body string, date time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

// FILE: lixenwraith/logsetup/sink_push.go
package logsetup

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

// PushOptions configures a Prowl push notification sink
type PushOptions struct {
	APIKey      string
	Application string
	Event       string // fixed title, derived from the record when empty
	Header      string // optional first line of the body
	Priority    int    // -2 (very low) to 2 (emergency)
	URL         string // optional link attached to the notification
	Endpoint    string // API endpoint, Prowl's public API when empty
	Timeout     time.Duration

	TitleFunc func(r *Record) string
	BodyFunc  func(text string, r *Record) string
}

// PushSink posts each record as a push notification
type PushSink struct {
	mu     sync.Mutex
	opts   PushOptions
	client *fasthttp.Client
	closed bool
}

// NewPushSink validates opts and creates the sink
func NewPushSink(opts PushOptions) (*PushSink, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, invalidArgf("push api key cannot be empty")
	}
	if strings.TrimSpace(opts.Application) == "" {
		return nil, invalidArgf("push application cannot be empty")
	}
	if opts.Priority < -2 || opts.Priority > 2 {
		return nil, invalidArgf("push priority must be between -2 and 2: %d", opts.Priority)
	}
	if opts.Endpoint == "" {
		opts.Endpoint = prowlDefaultURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = httpSinkTimeout
	}
	return &PushSink{
		opts: opts,
		client: &fasthttp.Client{
			Name:         "logsetup",
			ReadTimeout:  opts.Timeout,
			WriteTimeout: opts.Timeout,
		},
	}, nil
}

// Name implements namedSink
func (s *PushSink) Name() string {
	return "push:" + s.opts.Application
}

// Title returns the notification title for r
func (s *PushSink) Title(r *Record) string {
	if s.opts.TitleFunc != nil {
		return clampTitle(s.opts.TitleFunc(r))
	}
	if s.opts.Event != "" {
		return clampTitle(s.opts.Event)
	}
	return defaultTitle(r)
}

// Body returns the notification body for the rendered text
func (s *PushSink) Body(text string, r *Record) string {
	if s.opts.BodyFunc != nil {
		return s.opts.BodyFunc(text, r)
	}
	return notifyBody(s.opts.Header, text)
}

// Deliver posts one notification
func (s *PushSink) Deliver(text string, r *Record) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return fmtErrorf("push sink closed")
	}

	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	args.Set("apikey", s.opts.APIKey)
	args.Set("application", s.opts.Application)
	args.Set("event", s.Title(r))
	args.Set("description", s.Body(text, r))
	args.Set("priority", strconv.Itoa(s.opts.Priority))
	if s.opts.URL != "" {
		args.Set("url", s.opts.URL)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.opts.Endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")
	req.SetBody(args.QueryString())

	if err := s.client.DoTimeout(req, resp, s.opts.Timeout); err != nil {
		return fmtErrorf("push request failed: %w", err)
	}
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		return fmtErrorf("push endpoint returned %d: %s", code, strings.TrimSpace(string(resp.Body())))
	}
	return nil
}

// Close releases idle connections
func (s *PushSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.client.CloseIdleConnections()
	return nil
}

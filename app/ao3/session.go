package ao3

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const loginPath = "/users/login"

// Session is the authenticated upstream transport: a cookie-jar HTTP
// client logged into the archive, shared by all inbound requests.
type Session struct {
	http *resty.Client
	user string
}

type SessionOptions struct {
	// BaseURL overrides the archive root, used by tests.
	BaseURL string
	// HistoryUser is the user whose reading history is fetched.
	HistoryUser string
	UserAgent   string
	Timeout     time.Duration
}

func NewSession(opts SessionOptions) (*Session, error) {
	base := opts.BaseURL
	if base == "" {
		base = BaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(base)
	client.SetCookieJar(jar)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsed.Hostname()))
	client.SetTimeout(timeout)
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}

	return &Session{
		http: client,
		user: opts.HistoryUser,
	}, nil
}

// Login performs the archive's form login: fetch the login page, pull the
// authenticity token, post the credentials. The archive redirects away
// from the login page on success and re-renders it on failure.
func (s *Session) Login(ctx context.Context, username, password string) error {
	res, err := s.http.R().
		SetContext(ctx).
		Get(loginPath)
	if err != nil {
		return fmt.Errorf("failed to fetch login page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return fmt.Errorf("failed to parse login page: %w", err)
	}

	token := doc.Find(`input[name="authenticity_token"]`).AttrOr("value", "")
	if token == "" {
		return fmt.Errorf("could not find authenticity token on login page")
	}

	res, err = s.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"user[login]":        username,
			"user[password]":     password,
			"authenticity_token": token,
		}).
		Post(loginPath)
	if err != nil {
		return fmt.Errorf("failed to post login form: %w", err)
	}

	if res.RawResponse != nil && res.RawResponse.Request != nil {
		if strings.HasSuffix(res.RawResponse.Request.URL.Path, loginPath) {
			return ErrLoginFailed
		}
	}

	if s.user == "" {
		s.user = username
	}

	return nil
}

// FetchHistoryPage fetches one page of the reading history listing and
// returns the parsed document. Transport and auth failures propagate
// unchanged; callers treat them as retryable.
func (s *Session) FetchHistoryPage(ctx context.Context, page int) (*goquery.Document, error) {
	res, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("page", strconv.Itoa(page)).
		Get(fmt.Sprintf("/users/%s/readings", s.user))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history page %d: %w", page, err)
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("history page %d: unexpected status %d", page, res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse history page %d: %w", page, err)
	}

	return doc, nil
}

// Package agent is the HTTP session the scraper reads bookmeter through. It
// keeps cookies across requests and knows how to log in.
package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"

	"bookmeter-scraper/internal/scraper"
)

// ErrLoginFailed is returned when the site does not accept the credentials
// or the pages around the login form look different than expected.
var ErrLoginFailed = errors.New("failed to log in to bookmeter")

const mypageLinkText = "マイページ"

var mypagePattern = regexp.MustCompile(`/u/(\d+)$`)

// desktopUserAgents are picked from at random when no user agent is set.
var desktopUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:124.0) Gecko/20100101 Firefox/124.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:124.0) Gecko/20100101 Firefox/124.0",
}

// RandomUserAgent returns one of the known desktop browser user agents.
func RandomUserAgent() string {
	return desktopUserAgents[rand.IntN(len(desktopUserAgents))]
}

type Options struct {
	// Root is the site root, scraper.DefaultRoot when empty.
	Root string
	// UserAgent is sent with every request, a random desktop one when empty.
	UserAgent string
	Timeout   time.Duration
	Retries   int
	Logger    *slog.Logger
}

// Agent is a cookie-keeping bookmeter session. It satisfies scraper.Session.
type Agent struct {
	root   *url.URL
	client *resty.Client
	logger *slog.Logger
	userID string
}

// New creates an agent that is not logged in yet.
func New(opts Options) (*Agent, error) {
	if opts.Root == "" {
		opts.Root = scraper.DefaultRoot
	}
	root, err := url.Parse(strings.TrimSuffix(opts.Root, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid root %q: %w", opts.Root, err)
	}
	if root.Scheme == "" || root.Host == "" {
		return nil, fmt.Errorf("invalid root %q: must be an absolute URL", opts.Root)
	}
	if opts.UserAgent == "" {
		opts.UserAgent = RandomUserAgent()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	client := resty.New().
		SetBaseURL(root.String()).
		SetCookieJar(jar).
		SetRedirectPolicy(resty.DomainCheckRedirectPolicy(root.Hostname())).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(2*time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept-Language", "ja,en-US;q=0.7,en;q=0.3").
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	return &Agent{
		root:   root,
		client: client,
		logger: opts.Logger.With("component", "agent"),
	}, nil
}

func (a *Agent) Root() string { return a.root.String() }

func (a *Agent) LoggedIn() bool { return a.userID != "" }

func (a *Agent) UserID() string { return a.userID }

// Get fetches path, relative to the root or absolute, and parses it as HTML.
// Any final status other than 200 is an error.
func (a *Agent) Get(ctx context.Context, path string) (*scraper.Page, error) {
	res, err := a.client.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		return nil, err
	}
	return a.page(res)
}

// LogIn submits the login form and, on success, reads the logged-in user's
// id from the address of their page. It returns that id.
func (a *Agent) LogIn(ctx context.Context, mail, password string) (string, error) {
	if mail == "" || password == "" {
		return "", fmt.Errorf("%w: mail and password are required", scraper.ErrInvalidArgument)
	}

	form, err := a.Get(ctx, "/login")
	if err != nil {
		return "", fmt.Errorf("failed to open login page: %w", err)
	}
	action, fields, ok := loginForm(form)
	if !ok {
		return "", fmt.Errorf("%w: login form not found", ErrLoginFailed)
	}
	fields["mail"] = mail
	fields["password"] = password

	a.logger.InfoContext(ctx, "logging in", "root", a.Root())
	res, err := a.client.R().
		SetContext(ctx).
		SetFormData(fields).
		Post(action)
	if err != nil {
		return "", fmt.Errorf("failed to submit login form: %w", err)
	}
	landing, err := a.page(res)
	if err != nil {
		return "", fmt.Errorf("failed to submit login form: %w", err)
	}
	if landing.URL != a.Root()+"/" {
		a.logger.WarnContext(ctx, "login rejected", "landed_on", landing.URL)
		return "", fmt.Errorf("%w: landed on %s", ErrLoginFailed, landing.URL)
	}

	href, ok := mypageLink(landing)
	if !ok {
		return "", fmt.Errorf("%w: no link to the user page", ErrLoginFailed)
	}
	mypage, err := a.Get(ctx, href)
	if err != nil {
		return "", fmt.Errorf("failed to open user page: %w", err)
	}
	m := mypagePattern.FindStringSubmatch(mypage.URL)
	if m == nil {
		return "", fmt.Errorf("%w: user page %s carries no user id", ErrLoginFailed, mypage.URL)
	}

	a.userID = m[1]
	a.logger.InfoContext(ctx, "logged in", "user_id", a.userID)
	return a.userID, nil
}

func (a *Agent) page(res *resty.Response) (*scraper.Page, error) {
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	finalURL := res.Request.URL
	if raw := res.RawResponse; raw != nil && raw.Request != nil {
		finalURL = raw.Request.URL.String()
	}
	return &scraper.Page{URL: finalURL, Doc: doc}, nil
}

// loginForm returns the action and prefilled fields of the form posting to
// /login.
func loginForm(p *scraper.Page) (string, map[string]string, bool) {
	form := p.Doc.Find(`form[action="/login"]`).First()
	if form.Length() == 0 {
		return "", nil, false
	}
	fields := make(map[string]string)
	form.Find("input[name]").Each(func(_ int, input *goquery.Selection) {
		switch strings.ToLower(input.AttrOr("type", "text")) {
		case "submit", "button", "image", "checkbox", "radio":
			return
		}
		fields[input.AttrOr("name", "")] = input.AttrOr("value", "")
	})
	return form.AttrOr("action", "/login"), fields, true
}

func mypageLink(p *scraper.Page) (string, bool) {
	var href string
	p.Doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.TrimSpace(a.Text()) == mypageLinkText {
			href = a.AttrOr("href", "")
			return false
		}
		return true
	})
	return href, href != ""
}

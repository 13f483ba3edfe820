// Package session owns the authentication state against the account
// endpoints: password and MFA login, session-cookie login, guest seeding
// and expiry probing. All state lives in the cookie jar plus the Manager,
// never in globals.
package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/famomatic/nicov1/internal/cookies"
)

const (
	loginURL   = "https://account.nicovideo.jp/login/redirector?site=niconico&next_url=%2F"
	topPageURL = "https://www.nicovideo.jp/"

	// authFlagHeader is set on authenticated top-page responses; "1" is a
	// regular account, "3" premium.
	authFlagHeader = "x-niconico-authflag"

	// loginAuthID is the fixed form value the account login page submits.
	loginAuthID = "1158188129"

	mfaDeviceName = "nicov1"

	// verifyTTL bounds how long a positive probe is trusted before the top
	// page is hit again.
	verifyTTL = 5 * time.Minute
)

var (
	// ErrAuthFailed indicates rejected credentials or a rejected session cookie.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrMFARequired indicates the account needs a one-time code to finish login.
	ErrMFARequired = errors.New("mfa code required")

	// ErrSessionExpired indicates a previously valid session that no longer
	// authenticates and cannot be refreshed.
	ErrSessionExpired = errors.New("session expired")
)

// Credentials carries a password login. OTP may be empty unless the account
// has MFA enabled.
type Credentials struct {
	Mail     string
	Password string
	OTP      string
}

// Manager tracks login state for one cookie jar. Methods are safe for
// concurrent use.
type Manager struct {
	httpClient *http.Client
	jar        *Jar
	userAgent  string

	mu            sync.Mutex
	authenticated bool
	premium       bool
	verifiedAt    time.Time
	retained      *Credentials
}

// NewManager wires a manager to the given client and jar. The client must
// use jar as its CookieJar; the manager only reads and seeds through it.
func NewManager(httpClient *http.Client, jar *Jar, userAgent string) *Manager {
	return &Manager{
		httpClient: httpClient,
		jar:        jar,
		userAgent:  userAgent,
	}
}

// Authenticated reports whether the last login or probe succeeded.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticated
}

// Premium reports whether the session belongs to a premium account.
func (m *Manager) Premium() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.premium
}

// SeedGuest installs the anonymous nicosid cookie so metadata and comment
// endpoints accept requests without a login.
func (m *Manager) SeedGuest() {
	u, _ := url.Parse(topPageURL)
	m.jar.SetCookies(u, []*http.Cookie{{
		Name:    "nicosid",
		Value:   strconv.FormatInt(time.Now().Unix(), 10),
		Domain:  ".nicovideo.jp",
		Path:    "/",
		Expires: time.Now().AddDate(1, 0, 0),
	}})
}

// Login performs a password login, following the account redirector chain.
// Credentials are retained for transparent refresh on expiry.
func (m *Manager) Login(ctx context.Context, creds Credentials) error {
	resp, err := m.postForm(ctx, loginURL, url.Values{
		"mail_tel": {creds.Mail},
		"password": {creds.Password},
		"auth_id":  {loginAuthID},
	})
	if err != nil {
		return err
	}
	final := resp.Request.URL

	if strings.Contains(final.Path, "/login") {
		return ErrAuthFailed
	}
	if strings.Contains(final.Path, "/mfa") {
		if creds.OTP == "" {
			return ErrMFARequired
		}
		resp, err = m.postForm(ctx, final.String(), url.Values{
			"otp":         {creds.OTP},
			"device_name": {mfaDeviceName},
		})
		if err != nil {
			return err
		}
	}
	if err := checkLoginResponse(resp); err != nil {
		return err
	}

	m.mu.Lock()
	m.authenticated = true
	m.premium = resp.Header.Get(authFlagHeader) == "3"
	m.verifiedAt = time.Now()
	retained := creds
	retained.OTP = ""
	m.retained = &retained
	m.mu.Unlock()
	return nil
}

// LoginWithSession installs a user_session cookie and validates it against
// the top page. The session is not refreshable; on expiry the caller must
// provide a new one.
func (m *Manager) LoginWithSession(ctx context.Context, userSession string) error {
	u, _ := url.Parse(topPageURL)
	m.jar.SetCookies(u, []*http.Cookie{{
		Name:   "user_session",
		Value:  userSession,
		Domain: ".nicovideo.jp",
		Path:   "/",
		Secure: true,
	}})

	ok, premium, err := m.probe(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAuthFailed
	}
	m.mu.Lock()
	m.authenticated = true
	m.premium = premium
	m.verifiedAt = time.Now()
	m.retained = nil
	m.mu.Unlock()
	return nil
}

// Ensure guarantees the session is still usable. Guest sessions always
// pass. An authenticated session past its verify window is probed again;
// when the probe fails the manager re-logs in with retained credentials or
// reports ErrSessionExpired.
func (m *Manager) Ensure(ctx context.Context) error {
	m.mu.Lock()
	authenticated := m.authenticated
	fresh := time.Since(m.verifiedAt) < verifyTTL
	retained := m.retained
	m.mu.Unlock()

	if !authenticated {
		return nil
	}
	if fresh {
		return nil
	}

	ok, premium, err := m.probe(ctx)
	if err != nil {
		return err
	}
	if ok {
		m.mu.Lock()
		m.premium = premium
		m.verifiedAt = time.Now()
		m.mu.Unlock()
		return nil
	}

	if retained != nil {
		if err := m.Login(ctx, *retained); err != nil {
			if errors.Is(err, ErrMFARequired) || errors.Is(err, ErrAuthFailed) {
				return ErrSessionExpired
			}
			return err
		}
		return nil
	}

	m.mu.Lock()
	m.authenticated = false
	m.mu.Unlock()
	return ErrSessionExpired
}

// probe hits the top page and reads the auth flag header.
func (m *Manager) probe(ctx context.Context) (ok bool, premium bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, topPageURL, nil)
	if err != nil {
		return false, false, err
	}
	if m.userAgent != "" {
		req.Header.Set("User-Agent", m.userAgent)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return false, false, err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	flag := resp.Header.Get(authFlagHeader)
	return flag == "1" || flag == "3", flag == "3", nil
}

// LoadCookies imports a Netscape cookies.txt file into the jar. A stored
// user_session marks the manager authenticated pending the next probe.
func (m *Manager) LoadCookies(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	parsed, err := cookies.ParseNetscape(f)
	if err != nil {
		return err
	}
	m.jar.Import(parsed)

	if u, err := url.Parse(topPageURL); err == nil {
		if _, found := m.jar.Value(u, "user_session"); found {
			m.mu.Lock()
			m.authenticated = true
			m.verifiedAt = time.Time{} // force a probe on next Ensure
			m.mu.Unlock()
		}
	}
	return nil
}

// SaveCookies writes the jar's live cookies back to a cookies.txt file.
func (m *Manager) SaveCookies(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := cookies.WriteNetscape(f, m.jar.Export()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (m *Manager) postForm(ctx context.Context, endpoint string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if m.userAgent != "" {
		req.Header.Set("User-Agent", m.userAgent)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	// Only the final URL and headers matter to login handling; drain the
	// body so the connection is reusable.
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp, nil
}

func checkLoginResponse(resp *http.Response) error {
	if resp.Request.URL.String() != topPageURL {
		return ErrAuthFailed
	}
	flag := resp.Header.Get(authFlagHeader)
	if flag != "1" && flag != "3" {
		return ErrAuthFailed
	}
	return nil
}

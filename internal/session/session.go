// Package session owns the username/password/token lifecycle: reusing cached
// tokens while they are valid and driving the login flow when they are not.
package session

import (
	"context"
	"errors"
	"time"

	"agtool/internal/portal"
	"agtool/internal/settings"
)

// ErrNotLoggedIn means no valid token could be obtained: the cache was
// empty or expired and login did not produce one.
var ErrNotLoggedIn = errors.New("not logged in")

// CredentialReader obtains credentials interactively. Tests substitute a
// scripted implementation.
type CredentialReader interface {
	ReadLine(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
}

// Options carries the per-invocation login inputs from the CLI.
type Options struct {
	Username string // overrides and replaces the stored default
	Password string
	Save     bool // persist the password after a successful flow
	Forget   bool // drop the stored password after the flow
}

type Manager struct {
	Store  *settings.Store
	Client *portal.Client
	Creds  CredentialReader
	Now    func() time.Time // nil means time.Now
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// ResolveUsername applies the CLI override (persisting it as the new
// default) or falls back to the stored default. May return "".
func (m *Manager) ResolveUsername(override string) (string, error) {
	if override != "" {
		if err := m.Store.SetDefaultUsername(override); err != nil {
			return "", err
		}
		return override, nil
	}
	return m.Store.DefaultUsername(), nil
}

// CachedToken returns the stored token for username only while it is valid:
// non-empty and not past its expiry.
func (m *Manager) CachedToken(username string) string {
	token := m.Store.Token(username)
	if token == "" {
		return ""
	}
	expires := m.Store.Expires(username)
	if m.now().UnixMilli() >= expires {
		return ""
	}
	return token
}

// EnsureToken returns a valid token for the resolved user, logging in first
// when the cache cannot serve one.
func (m *Manager) EnsureToken(ctx context.Context, opts Options) (string, error) {
	username, err := m.ResolveUsername(opts.Username)
	if err != nil {
		return "", err
	}
	if token := m.CachedToken(username); token != "" {
		return token, nil
	}
	if err := m.Login(ctx, opts); err != nil {
		return "", err
	}
	token := m.CachedToken(m.Store.DefaultUsername())
	if token == "" {
		return "", ErrNotLoggedIn
	}
	return token, nil
}

// Login resolves credentials and obtains a token unless a valid one is
// already cached. An error-shaped token response discards the cached
// password and is returned as a *portal.APIError for verbatim display.
func (m *Manager) Login(ctx context.Context, opts Options) error {
	username, err := m.ResolveUsername(opts.Username)
	if err != nil {
		return err
	}
	password := m.Store.Password(username)
	if opts.Password != "" {
		password = opts.Password
	}
	if username == "" || password == "" {
		prompt := "Username: "
		if username != "" {
			prompt = "Username [ " + username + " ]: "
		}
		entered, err := m.Creds.ReadLine(prompt)
		if err != nil {
			return err
		}
		if entered != "" {
			username = entered
		}
		if err := m.Store.SetDefaultUsername(username); err != nil {
			return err
		}
	}

	if m.CachedToken(username) == "" {
		info, err := m.Client.Info(ctx)
		if err != nil {
			return err
		}
		if password == "" {
			password, err = m.Creds.ReadPassword("Password: ")
			if err != nil {
				return err
			}
		}
		if password != "" {
			tok, err := m.Client.GenerateToken(ctx, info.AuthInfo.TokenServicesURL, username, password)
			if err != nil {
				var apiErr *portal.APIError
				if errors.As(err, &apiErr) {
					_ = m.Store.RemovePassword(username)
				}
				return err
			}
			if tok.Token != "" {
				if err := m.Store.SetToken(username, tok.Token); err != nil {
					return err
				}
			}
			if tok.Expires != 0 {
				if err := m.Store.SetExpires(username, int64(tok.Expires)); err != nil {
					return err
				}
			}
		}
	}

	if opts.Forget {
		if err := m.Store.RemovePassword(username); err != nil {
			return err
		}
	}
	if opts.Save && password != "" {
		if err := m.Store.SetPassword(username, password); err != nil {
			return err
		}
	}
	return nil
}

// Logout clears the local token, expiry, and password for the resolved
// user. No portal call is made; the token simply ages out server-side.
func (m *Manager) Logout(opts Options) error {
	username, err := m.ResolveUsername(opts.Username)
	if err != nil {
		return err
	}
	if err := m.Store.RemoveToken(username); err != nil {
		return err
	}
	if err := m.Store.RemoveExpires(username); err != nil {
		return err
	}
	return m.Store.RemovePassword(username)
}

// TokenValidity returns how much longer the cached token is valid, or zero.
func (m *Manager) TokenValidity(username string) time.Duration {
	if m.CachedToken(username) == "" {
		return 0
	}
	ms := m.Store.Expires(username) - m.now().UnixMilli()
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "vkstats/pkg/errors"
	"vkstats/pkg/logger"
)

// fakeProvider is a minimal stand-in for the provider's web sign-in: an
// authorize page with a credential form, an optional consent page, and a
// redirect carrying the token in the URL fragment.
type fakeProvider struct {
	server      *httptest.Server
	needConsent bool

	loginForm   map[string]string // fields received by the login endpoint
	consentSeen bool
}

func newFakeProvider(t *testing.T, needConsent bool) *fakeProvider {
	t.Helper()
	p := &fakeProvider{needConsent: needConsent}

	mux := http.NewServeMux()
	mux.HandleFunc("/authorize", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token", r.URL.Query().Get("response_type"))
		assert.Equal(t, "stats,wall", r.URL.Query().Get("scope"))
		assert.Equal(t, "4589594", r.URL.Query().Get("client_id"))
		fmt.Fprintf(w, `<html><body>
			<form method="post" action="%s/login">
				<input type="hidden" name="to" value="aBcD">
				<input type="text" name="email">
				<input type="password" name="pass">
			</form>
		</body></html>`, p.server.URL)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		p.loginForm = map[string]string{
			"to":    r.PostFormValue("to"),
			"email": r.PostFormValue("email"),
			"pass":  r.PostFormValue("pass"),
		}
		if p.needConsent {
			http.Redirect(w, r, p.server.URL+"/consent", http.StatusFound)
			return
		}
		http.Redirect(w, r, p.server.URL+"/blank.html#access_token=AAA&user_id=42", http.StatusFound)
	})
	mux.HandleFunc("/consent", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
			<form method="post" action="%s/grant">
				<input type="hidden" name="grant_hash" value="xyz">
			</form>
		</body></html>`, p.server.URL)
	})
	mux.HandleFunc("/grant", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "xyz", r.PostFormValue("grant_hash"))
		p.consentSeen = true
		http.Redirect(w, r, p.server.URL+"/blank.html#access_token=BBB&user_id=43", http.StatusFound)
	})
	mux.HandleFunc("/blank.html", func(w http.ResponseWriter, r *http.Request) {})

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakeProvider) flowOptions() FlowOptions {
	return FlowOptions{
		AuthorizeURL: p.server.URL + "/authorize",
		RedirectURI:  p.server.URL + "/blank.html",
		ClientID:     4589594,
		Scope:        []string{"stats", "wall"},
	}
}

func TestLoginDirect(t *testing.T) {
	provider := newFakeProvider(t, false)

	flow, err := NewFlow(provider.flowOptions(), logger.NewNop())
	require.NoError(t, err)

	token, err := flow.Login(context.Background(), Credentials{Login: "user@example.com", Password: "secret"})
	require.NoError(t, err)

	assert.Equal(t, "AAA", token.AccessToken)
	assert.Equal(t, "42", token.UserID)

	// Hidden fields are replayed, credentials fill the named inputs.
	assert.Equal(t, "aBcD", provider.loginForm["to"])
	assert.Equal(t, "user@example.com", provider.loginForm["email"])
	assert.Equal(t, "secret", provider.loginForm["pass"])
	assert.False(t, provider.consentSeen)
}

func TestLoginWithConsentStep(t *testing.T) {
	provider := newFakeProvider(t, true)

	flow, err := NewFlow(provider.flowOptions(), logger.NewNop())
	require.NoError(t, err)

	token, err := flow.Login(context.Background(), Credentials{Login: "user@example.com", Password: "secret"})
	require.NoError(t, err)

	assert.True(t, provider.consentSeen)
	assert.Equal(t, "BBB", token.AccessToken)
	assert.Equal(t, "43", token.UserID)
}

func TestLoginRejectsFormWithoutCredentialFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<form method="post" action="/somewhere">
				<input type="text" name="email">
			</form>
		</body></html>`)
	}))
	defer server.Close()

	flow, err := NewFlow(FlowOptions{
		AuthorizeURL: server.URL + "/authorize",
		RedirectURI:  server.URL + "/blank.html",
		ClientID:     1,
		Scope:        []string{"wall"},
	}, logger.NewNop())
	require.NoError(t, err)

	_, err = flow.Login(context.Background(), Credentials{Login: "u", Password: "p"})
	require.Error(t, err)

	var authErr *errs.Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, errs.ErrorTypeAuth, authErr.Type)
}

func TestLoginRejectsNonPostForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<form method="get" action="/somewhere">
				<input type="text" name="email">
				<input type="password" name="pass">
			</form>
		</body></html>`)
	}))
	defer server.Close()

	flow, err := NewFlow(FlowOptions{
		AuthorizeURL: server.URL + "/authorize",
		RedirectURI:  server.URL + "/blank.html",
		ClientID:     1,
		Scope:        []string{"wall"},
	}, logger.NewNop())
	require.NoError(t, err)

	_, err = flow.Login(context.Background(), Credentials{Login: "u", Password: "p"})
	require.Error(t, err)

	var flowErr *errs.Error
	require.ErrorAs(t, err, &flowErr)
	assert.Equal(t, errs.ErrorTypeUnsupported, flowErr.Type)
}

func TestTokenFromFragment(t *testing.T) {
	token, err := tokenFromFragment("access_token=abc123&expires_in=86400&user_id=7")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token.AccessToken)
	assert.Equal(t, "7", token.UserID)

	_, err = tokenFromFragment("access_token=abc123")
	require.Error(t, err)

	_, err = tokenFromFragment("")
	require.Error(t, err)
}

package main

import (
	"bytes"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/context"
	"golang.org/x/oauth2"
	"gotest.tools/assert"
)

func TestAuthCode(t *testing.T) {
	assert.Equal(t, authCode("abc123"), "abc123")
	assert.Equal(t, authCode("http://localhost:8080/callback?code=abc123&state=state-token"), "abc123")
	assert.Equal(t, authCode("http://localhost:8080/callback"), "http://localhost:8080/callback")
}

func TestOAuthConfig(t *testing.T) {
	s := testSettings.clone()
	dir := t.TempDir()
	s.settings[sSecrets] = dir

	_, err := oauthConfig(s)
	assert.ErrorContains(t, err, "unable to read client secret file")

	assert.NilError(t, ioutil.WriteFile(filepath.Join(dir, clientSecretsFn),
		[]byte(`{"client_id":"id-1","client_secret":"shh","redirect_url":"http://localhost:8080/callback"}`), 0600))
	config, err := oauthConfig(s)
	assert.NilError(t, err)
	assert.Equal(t, config.ClientID, "id-1")
	assert.Equal(t, config.ClientSecret, "shh")
	assert.Equal(t, config.RedirectURL, "http://localhost:8080/callback")
	assert.DeepEqual(t, config.Scopes, []string{"request"})
	assert.Equal(t, config.Endpoint.TokenURL, "https://login.uber.com/oauth/v2/token")

	assert.Assert(t, strings.HasPrefix(getAuthURL(config), "https://login.uber.com/oauth/v2/authorize?"))
}

func TestOAuthConfigMissingField(t *testing.T) {
	s := testSettings.clone()
	dir := t.TempDir()
	s.settings[sSecrets] = dir
	assert.NilError(t, ioutil.WriteFile(filepath.Join(dir, clientSecretsFn), []byte(`{"client_id":"id-1"}`), 0600))

	_, err := oauthConfig(s)
	assert.ErrorContains(t, err, "client_secret")
}

func TestTokenRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ridebutton.json")
	_, err := tokenFromFile(file)
	assert.Assert(t, os.IsNotExist(err))

	tok := &oauth2.Token{AccessToken: "abc", TokenType: "Bearer", RefreshToken: "def", Expiry: time.Unix(1600000000, 0)}
	assert.NilError(t, saveToken(file, tok))

	got, err := tokenFromFile(file)
	assert.NilError(t, err)
	assert.Equal(t, got.AccessToken, "abc")
	assert.Equal(t, got.RefreshToken, "def")
	assert.Assert(t, got.Expiry.Equal(tok.Expiry))
}

func TestGetClientWithoutToken(t *testing.T) {
	config := &oauth2.Config{ClientID: "id-1", Endpoint: uberEndpoint}
	file := filepath.Join(t.TempDir(), "ridebutton.json")

	_, err := getClient(context.Background(), config, file, false, strings.NewReader(""), &bytes.Buffer{})
	assert.Equal(t, err, errNoToken)
}

func TestGetClientFromWeb(t *testing.T) {
	var code string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		code = r.Form.Get("code")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"abc","token_type":"Bearer","refresh_token":"def","expires_in":3600}`))
	}))
	defer srv.Close()

	config := &oauth2.Config{
		ClientID:     "id-1",
		ClientSecret: "shh",
		Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/authorize", TokenURL: srv.URL + "/token"},
		Scopes:       []string{rideScope},
	}
	file := filepath.Join(t.TempDir(), "ridebutton.json")

	var out bytes.Buffer
	in := strings.NewReader("http://localhost:8080/callback?code=the-code&state=state-token\n")
	client, err := getClient(context.Background(), config, file, true, in, &out)
	assert.NilError(t, err)
	assert.Assert(t, client != nil)
	assert.Equal(t, code, "the-code")
	assert.Assert(t, strings.Contains(out.String(), srv.URL+"/authorize?"))
	assert.Assert(t, strings.Contains(out.String(), "Saved credential file to: "+file))

	tok, err := tokenFromFile(file)
	assert.NilError(t, err)
	assert.Equal(t, tok.AccessToken, "abc")

	// next time the saved token is used
	out.Reset()
	_, err = getClient(context.Background(), config, file, true, strings.NewReader(""), &out)
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(out.String(), "OAUTH has a valid token in "+file))
}

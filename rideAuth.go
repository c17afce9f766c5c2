package main

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"os/user"
	"path/filepath"

	"github.com/buger/jsonparser"
	"github.com/pkg/errors"
	"golang.org/x/net/context"
	"golang.org/x/oauth2"
)

// rider OAuth endpoints
var uberEndpoint = oauth2.Endpoint{
	AuthURL:  "https://login.uber.com/oauth/v2/authorize",
	TokenURL: "https://login.uber.com/oauth/v2/token",
}

const (
	rideScope       = "request"
	tokenCacheName  = "ridebutton.json"
	clientSecretsFn = "client_secret.json"
)

var errNoToken = errors.New("no rider credentials, run 'ridebutton oauth' first")

// oauthConfig reads the app credentials from client_secret.json:
//   {"client_id": "...", "client_secret": "...", "redirect_url": "..."}
func oauthConfig(settings configSettings) (*oauth2.Config, error) {
	fName := filepath.Join(settings.GetString(sSecrets), clientSecretsFn)
	data, err := ioutil.ReadFile(fName)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read client secret file")
	}

	config := &oauth2.Config{
		Endpoint: uberEndpoint,
		Scopes:   []string{rideScope},
	}
	if config.ClientID, err = jsonparser.GetString(data, "client_id"); err != nil {
		return nil, errors.Wrapf(err, "%s: client_id", fName)
	}
	if config.ClientSecret, err = jsonparser.GetString(data, "client_secret"); err != nil {
		return nil, errors.Wrapf(err, "%s: client_secret", fName)
	}
	// optional
	config.RedirectURL, _ = jsonparser.GetString(data, "redirect_url")

	return config, nil
}

// getClient uses a Context and Config to retrieve a Token
// then generate a Client. It returns the generated Client.
func getClient(ctx context.Context, config *oauth2.Config, cacheFile string, prompt bool, in io.Reader, out io.Writer) (*http.Client, error) {
	tok, err := tokenFromFile(cacheFile)
	if err != nil {
		if !prompt {
			// run oauth to generate the token
			return nil, errNoToken
		}
		tok, err = getTokenFromWeb(ctx, config, in, out)
		if err != nil {
			return nil, err
		}
		if err := saveToken(cacheFile, tok); err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "Saved credential file to: %s\n", cacheFile)
	} else if prompt {
		fmt.Fprintln(out, "OAUTH has a valid token in "+cacheFile)
	}

	return config.Client(ctx, tok), nil
}

func getAuthURL(config *oauth2.Config) string {
	return config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
}

// getTokenFromWeb asks the user to authorize in a browser and paste the
// code, or the whole redirect URL
func getTokenFromWeb(ctx context.Context, config *oauth2.Config, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	fmt.Fprintf(out, "Go to the following link in your browser then type the "+
		"authorization code or the URL you were redirected to: \n%v\n", getAuthURL(config))

	var code string
	if _, err := fmt.Fscan(in, &code); err != nil {
		return nil, errors.Wrap(err, "unable to read authorization code")
	}
	code = authCode(code)

	tok, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "unable to retrieve token from web")
	}
	return tok, nil
}

// authCode pulls the code out of a pasted redirect URL
func authCode(s string) string {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return s
	}
	if c := u.Query().Get("code"); c != "" {
		return c
	}
	return s
}

// tokenCacheFile generates credential file path/filename.
// It returns the generated credential path/filename.
func tokenCacheFile() (string, error) {
	usr, err := user.Current()
	if err != nil {
		return "", err
	}
	tokenCacheDir := filepath.Join(usr.HomeDir, ".credentials")
	if err := os.MkdirAll(tokenCacheDir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(tokenCacheDir, url.QueryEscape(tokenCacheName)), nil
}

// tokenFromFile retrieves a Token from a given file path.
// It returns the retrieved Token and any read error encountered.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(t); err != nil {
		return nil, errors.Wrapf(err, "bad credential file %s", file)
	}
	return t, nil
}

// saveToken uses a file path to create a file and store the
// token in it.
func saveToken(file string, token *oauth2.Token) error {
	f, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrap(err, "unable to cache oauth token")
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// riderClient is the authorized http client for the rides API
func riderClient(settings configSettings, prompt bool, in io.Reader, out io.Writer) (*http.Client, error) {
	config, err := oauthConfig(settings)
	if err != nil {
		return nil, err
	}
	cacheFile, err := tokenCacheFile()
	if err != nil {
		return nil, errors.Wrap(err, "unable to get path to cached credential file")
	}
	return getClient(context.Background(), config, cacheFile, prompt, in, out)
}

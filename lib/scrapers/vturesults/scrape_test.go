package vturesults

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
	"vturesults-backend/lib/recognize"

	"github.com/stretchr/testify/require"
)

const (
	testSitePath = "JJEcbcs25"
	testResult   = "<html><body><table><td>CS101</td><td>87</td></table></body></html>"
)

// fakePortal scripts the results portal: every index fetch issues a
// fresh token + session cookie pair, and submissions are accepted only
// when the captcha guess matches `accept` and the token/cookie pair
// came from the most recent index fetch.
type fakePortal struct {
	mu         sync.Mutex
	accept     string
	noToken    bool
	badCaptcha bool

	indexGets   int
	captchaGets int
	posts       int
}

func (p *fakePortal) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(fmt.Sprintf("/%s/index.php", testSitePath), func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.indexGets++

		if p.noToken {
			fmt.Fprint(w, `<html><body><form></form></body></html>`)
			return
		}

		token := fmt.Sprintf("token-%d", p.indexGets)
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: fmt.Sprintf("sess-%d", p.indexGets)})
		fmt.Fprintf(w, `<html><body><form>
			<input type="hidden" name="Token" value="%s">
			<img src="/captcha/challenge.png">
		</form></body></html>`, token)
	})
	mux.HandleFunc("/captcha/challenge.png", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.captchaGets++
		bad := p.badCaptcha
		p.mu.Unlock()

		if bad {
			fmt.Fprint(w, "not an image at all")
			return
		}
		img := image.NewGray(image.Rect(0, 0, 24, 10))
		for i := range img.Pix {
			img.Pix[i] = 240
		}
		img.SetGray(5, 5, color.Gray{Y: 10})
		png.Encode(w, img)
	})
	mux.HandleFunc(fmt.Sprintf("/%s/resultpage.php", testSitePath), func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.posts++

		// token and session cookie must both come from the most
		// recent index fetch
		wantToken := fmt.Sprintf("token-%d", p.indexGets)
		cookie, err := r.Cookie("PHPSESSID")
		if err != nil || cookie.Value != fmt.Sprintf("sess-%d", p.indexGets) || r.FormValue("Token") != wantToken {
			fmt.Fprint(w, "<html><body>Session expired</body></html>")
			return
		}

		if r.FormValue("captchacode") != p.accept {
			fmt.Fprint(w, "<html><body>Invalid captcha code !!!</body></html>")
			return
		}
		fmt.Fprint(w, testResult)
	})
	return mux
}

func newTestClient(t *testing.T, portal *fakePortal, r recognize.Recognizer, maxAttempts int) *Client {
	server := httptest.NewServer(portal.handler())
	t.Cleanup(server.Close)

	client, err := NewClient(ClientOptions{
		BaseUrl:     server.URL,
		MaxAttempts: maxAttempts,
		Timeout:     time.Second * 5,
		Recognizer:  r,
	})
	require.NoError(t, err)
	return client
}

func TestScrapeSucceedsAfterRetries(t *testing.T) {
	portal := &fakePortal{accept: "RIGHT"}
	client := newTestClient(t, portal, recognize.NewStatic("wr.ong", "also wrong", "RI GHT."), 5)

	res, err := client.Scrape(context.Background(), ScrapeRequest{
		SitePath: testSitePath,
		LookupID: "1JJ23CS001",
	})
	require.NoError(t, err)
	require.Equal(t, testResult, res.Body)

	require.Len(t, res.Attempts, 3)
	require.Equal(t, OutcomeInvalidCaptcha, res.Attempts[0].Outcome)
	require.Equal(t, OutcomeInvalidCaptcha, res.Attempts[1].Outcome)
	require.Equal(t, OutcomeSuccess, res.Attempts[2].Outcome)
	require.Equal(t, "RIGHT", res.Attempts[2].CaptchaGuess)

	// exactly one index fetch, one captcha fetch and one post per cycle
	require.Equal(t, 3, portal.indexGets)
	require.Equal(t, 3, portal.captchaGets)
	require.Equal(t, 3, portal.posts)
}

func TestScrapeRetriesExhausted(t *testing.T) {
	portal := &fakePortal{accept: "never-guessed"}
	client := newTestClient(t, portal, recognize.NewStatic("nope"), 3)

	res, err := client.Scrape(context.Background(), ScrapeRequest{
		SitePath: testSitePath,
		LookupID: "1JJ23CS001",
	})

	var exhausted *RetriesExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 3, exhausted.Attempts)
	require.Len(t, res.Attempts, 3)
	require.Equal(t, 3, portal.posts, "no extra attempts past the budget")
}

func TestScrapeTokenNotFound(t *testing.T) {
	portal := &fakePortal{noToken: true}
	client := newTestClient(t, portal, recognize.NewStatic("x"), 5)

	_, err := client.Scrape(context.Background(), ScrapeRequest{
		SitePath: testSitePath,
		LookupID: "1JJ23CS001",
	})
	require.ErrorIs(t, err, ErrTokenNotFound)
	require.Equal(t, 1, portal.indexGets, "not retryable, the page structure changed")
	require.Equal(t, 0, portal.posts, "no submission without a token")
}

func TestScrapeUndecodableCaptcha(t *testing.T) {
	// an undecodable captcha degrades to an empty guess, which the
	// server rejects, which drives a normal retry
	portal := &fakePortal{accept: "unreachable", badCaptcha: true}
	client := newTestClient(t, portal, recognize.NewStatic("x"), 2)

	res, err := client.Scrape(context.Background(), ScrapeRequest{
		SitePath: testSitePath,
		LookupID: "1JJ23CS001",
	})

	var exhausted *RetriesExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Len(t, res.Attempts, 2)
	for _, a := range res.Attempts {
		require.Equal(t, "", a.CaptchaGuess)
	}
}

func TestScrapeTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client, err := NewClient(ClientOptions{
		BaseUrl:     server.URL,
		MaxAttempts: 3,
		Timeout:     time.Second,
		Recognizer:  recognize.NewStatic("x"),
	})
	require.NoError(t, err)

	_, err = client.Scrape(context.Background(), ScrapeRequest{
		SitePath: testSitePath,
		LookupID: "1JJ23CS001",
	})
	require.Error(t, err)
	require.Equal(t, FailureTransportError, ClassifyFailure(err).Kind)
}

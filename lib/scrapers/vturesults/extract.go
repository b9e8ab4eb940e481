package vturesults

import (
	"errors"

	"github.com/PuerkitoBio/goquery"
)

// ErrTokenNotFound means the index page had no submission token. The
// page structure changed, so retrying with a fresh captcha won't help.
var ErrTokenNotFound = errors.New("could not find submission token on index page")

// extractForm pulls the one-time submission token and the captcha image
// path out of the index page. The captcha path may be empty; the portal
// occasionally serves the form without one and the submission then
// proceeds with an empty captcha guess.
func extractForm(doc *goquery.Document) (token string, captchaPath string, err error) {
	token = doc.Find("input[name=Token]").AttrOr("value", "")
	if token == "" {
		return "", "", ErrTokenNotFound
	}
	captchaPath = doc.Find(`img[src^="/captcha/"]`).AttrOr("src", "")
	return token, captchaPath, nil
}

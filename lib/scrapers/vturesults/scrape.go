package vturesults

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"vturesults-backend/lib/captcha"
	"vturesults-backend/lib/recognize"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type ScrapeRequest struct {
	// SitePath is the per-exam path segment the portal publishes for
	// each result release, e.g. "JJEcbcs25".
	SitePath string
	// LookupID is the student identifier to look up (the "lns" form
	// field, a USN in practice).
	LookupID string
}

// Attempt records one full fetch/solve/submit cycle, kept for
// diagnostics on the final result.
type Attempt struct {
	Ordinal      int
	Outcome      Outcome
	CaptchaGuess string
}

type ScrapeResult struct {
	// Body is the raw response of the successful submission.
	Body     string
	Attempts []Attempt
}

// RetriesExhaustedError means every attempt in the budget was rejected
// as an invalid captcha. Distinct from a transport error so callers can
// tell "server unreachable" apart from "captcha never solved".
type RetriesExhaustedError struct {
	Attempts int
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("captcha rejected on all %d attempts", e.Attempts)
}

// Scrape drives the fetch -> solve -> submit -> classify loop for one
// lookup id. Each attempt works off a fresh session: new index fetch,
// new token, new cookies, new captcha. An invalid-captcha response
// restarts the cycle, anything else ends it.
func (c *Client) Scrape(ctx context.Context, req ScrapeRequest) (ScrapeResult, error) {
	ctx, span := tracer.Start(ctx, "client:Scrape")
	defer span.End()
	span.SetAttributes(
		attribute.String("site_path", req.SitePath),
		attribute.String("lookup_id", req.LookupID),
	)

	result := ScrapeResult{}
	for ordinal := 1; ordinal <= c.maxAttempts; ordinal++ {
		body, guess, err := c.attempt(ctx, req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return result, err
		}

		outcome := Classify(body)
		result.Attempts = append(result.Attempts, Attempt{
			Ordinal:      ordinal,
			Outcome:      outcome,
			CaptchaGuess: guess,
		})

		if outcome == OutcomeInvalidCaptcha {
			slog.DebugContext(
				ctx, "captcha rejected, refreshing session",
				"site_path", req.SitePath,
				"lookup_id", req.LookupID,
				"attempt", ordinal,
				"guess", guess,
			)
			continue
		}

		result.Body = body
		span.SetAttributes(attribute.Int("attempts", ordinal))
		return result, nil
	}

	err := &RetriesExhaustedError{Attempts: c.maxAttempts}
	span.SetStatus(codes.Error, err.Error())
	return result, err
}

// attempt performs exactly one index GET, at most one captcha GET and
// one submission POST, all through the same fresh session.
func (c *Client) attempt(ctx context.Context, req ScrapeRequest) (body string, guess string, err error) {
	ctx, span := tracer.Start(ctx, "client:attempt")
	defer span.End()

	session, err := c.newSession()
	if err != nil {
		return "", "", err
	}

	sitePath := strings.Trim(req.SitePath, "/")

	res, err := session.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/%s/index.php", sitePath))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch index page")
		return "", "", fmt.Errorf("fetch index page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse index page")
		return "", "", fmt.Errorf("parse index page: %w", err)
	}

	token, captchaPath, err := extractForm(doc)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", "", err
	}

	if captchaPath != "" {
		guess, err = c.solveCaptcha(ctx, session, captchaPath)
		if err != nil {
			span.SetStatus(codes.Error, "failed to fetch captcha image")
			return "", "", err
		}
	} else {
		slog.WarnContext(ctx, "no captcha image on index page", "site_path", req.SitePath)
	}

	res, err = session.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"Token":       token,
			"lns":         req.LookupID,
			"captchacode": guess,
		}).
		Post(fmt.Sprintf("/%s/resultpage.php", sitePath))
	if err != nil {
		span.SetStatus(codes.Error, "failed to submit lookup form")
		return "", "", fmt.Errorf("submit lookup form: %w", err)
	}

	return res.String(), guess, nil
}

// solveCaptcha fetches and recognizes the captcha image. Decode and
// recognition failures degrade to an empty guess instead of an error:
// the server will reject the submission as an invalid captcha, which
// already drives the retry we want.
func (c *Client) solveCaptcha(ctx context.Context, session *resty.Client, captchaPath string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:solveCaptcha")
	defer span.End()

	res, err := session.R().
		SetContext(ctx).
		Get(captchaPath)
	if err != nil {
		return "", fmt.Errorf("fetch captcha image: %w", err)
	}

	img, err := captcha.Decode(res.Body())
	if err != nil {
		slog.WarnContext(ctx, "failed to decode captcha image", "err", err)
		span.SetStatus(codes.Error, "failed to decode captcha image")
		return "", nil
	}

	text, err := c.recognizer.Recognize(ctx, captcha.Clean(img))
	if err != nil {
		slog.WarnContext(ctx, "captcha recognition failed", "err", err)
		span.SetStatus(codes.Error, "captcha recognition failed")
		return "", nil
	}

	guess := recognize.Normalize(text)
	span.SetAttributes(attribute.String("guess", guess))
	return guess, nil
}

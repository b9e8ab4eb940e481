// Package results exposes the lookup surface consumed by the CLI: a
// single-id fetch and a range fetch that decomposes into independent
// single fetches.
package results

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"time"
	"vturesults-backend/lib/resultstore"
	"vturesults-backend/lib/scrapers/vturesults"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/results")

const defaultParallelism = 4

type SingleRequest struct {
	SitePath string
	LookupID string
}

type RangeRequest struct {
	SitePath      string
	StartLookupID string
	EndLookupID   string
}

type Service struct {
	store       resultstore.Store
	client      *vturesults.Client
	parallelism int
}

func NewService(database *sql.DB, client *vturesults.Client) Service {
	return Service{
		store:       resultstore.NewStore(database),
		client:      client,
		parallelism: defaultParallelism,
	}
}

// FetchSingle scrapes one lookup id and persists what happened. The
// returned record is stored even on failure so a range scrape can be
// resumed and its gaps audited later.
func (s Service) FetchSingle(ctx context.Context, req SingleRequest) (resultstore.Record, error) {
	ctx, span := tracer.Start(ctx, "FetchSingle")
	defer span.End()
	span.SetAttributes(attribute.String("lookup_id", req.LookupID))

	res, scrapeErr := s.client.Scrape(ctx, vturesults.ScrapeRequest{
		SitePath: req.SitePath,
		LookupID: req.LookupID,
	})

	record := resultstore.Record{
		SitePath:  req.SitePath,
		LookupID:  req.LookupID,
		Attempts:  len(res.Attempts),
		FetchedAt: time.Now(),
	}
	if scrapeErr != nil {
		failure := vturesults.ClassifyFailure(scrapeErr)
		record.Outcome = string(failure.Kind)
		span.SetStatus(codes.Error, failure.Message)
	} else {
		record.Outcome = vturesults.OutcomeSuccess.String()
		record.Body = res.Body
	}

	if err := s.store.Put(ctx, record); err != nil {
		slog.ErrorContext(
			ctx, "failed to persist result",
			"lookup_id", req.LookupID,
			"err", err,
		)
		span.RecordError(err)
		if scrapeErr == nil {
			return record, err
		}
	}
	return record, scrapeErr
}

// FetchRange expands the id range and fetches every id as an
// independent scrape, a few in flight at a time. Records come back in
// range order; per-id failures are joined into the returned error but
// do not stop the remaining ids.
func (s Service) FetchRange(ctx context.Context, req RangeRequest) ([]resultstore.Record, error) {
	ctx, span := tracer.Start(ctx, "FetchRange")
	defer span.End()
	span.SetAttributes(
		attribute.String("start_lookup_id", req.StartLookupID),
		attribute.String("end_lookup_id", req.EndLookupID),
	)

	ids, err := ExpandRange(req.StartLookupID, req.EndLookupID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("count", len(ids)))

	records := make([]resultstore.Record, len(ids))
	var errList []error
	var lock sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.parallelism)

	for i, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id string) {
			defer wg.Done()
			defer func() { <-sem }()

			record, err := s.FetchSingle(ctx, SingleRequest{
				SitePath: req.SitePath,
				LookupID: id,
			})

			lock.Lock()
			defer lock.Unlock()
			records[i] = record
			if err != nil {
				slog.ErrorContext(ctx, "lookup failed", "lookup_id", id, "err", err)
				errList = append(errList, err)
			}
		}(i, id)
	}
	wg.Wait()

	return records, errors.Join(errList...)
}

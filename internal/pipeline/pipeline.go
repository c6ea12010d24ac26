// Package pipeline runs one fetch, flatten, store and report cycle.
package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/justyntemme/bookcache/internal/metadata"
	"github.com/justyntemme/bookcache/internal/records"
	"github.com/justyntemme/bookcache/internal/report"
	"github.com/justyntemme/bookcache/internal/storage"
)

// Stage names the furthest point a run reached
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageFlatten Stage = "flatten"
	StageStore   Stage = "store"
	StageReport  Stage = "report"
	StageDone    Stage = "done"
)

// Opener connects to the document store
type Opener func(ctx context.Context) (storage.DocumentStore, error)

// Result describes how a run ended. Err is nil only when Stage is StageDone.
type Result struct {
	Stage   Stage
	Err     error
	Fetch   *metadata.FetchResult
	Table   *records.Table
	Written []byte
	Summary *report.Summary
}

// Pipeline wires the catalog service, the store and the reporter
type Pipeline struct {
	fetcher  *metadata.Service
	open     Opener
	key      string
	reporter *report.Reporter
	logger   *zap.Logger
}

// New creates a pipeline
func New(fetcher *metadata.Service, open Opener, key string, reporter *report.Reporter, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if key == "" {
		key = storage.DefaultKey
	}
	return &Pipeline{
		fetcher:  fetcher,
		open:     open,
		key:      key,
		reporter: reporter,
		logger:   logger,
	}
}

// Run executes one cycle for isbns. Every failure is logged and returned in
// the Result; none aborts the process.
func (p *Pipeline) Run(ctx context.Context, isbns []string) *Result {
	res := &Result{Stage: StageFetch}

	res.Fetch = p.fetcher.FetchAll(ctx, isbns)
	p.logger.Info("Fetch finished",
		zap.Int("isbns", len(isbns)),
		zap.Int("responses", len(res.Fetch.Responses)),
		zap.Int("failures", len(res.Fetch.Failures)))

	res.Stage = StageFlatten
	table, err := records.Flatten(res.Fetch.Responses, p.logger)
	if err != nil {
		if errors.Is(err, records.ErrNoData) {
			p.logger.Warn("No data is available to fetch, please check the API creds")
		} else {
			p.logger.Error("Transform failed", zap.Error(err))
		}
		res.Err = err
		return res
	}
	res.Table = table

	doc, err := table.Document().Encode()
	if err != nil {
		p.logger.Error("Transform failed", zap.Error(err))
		res.Err = err
		return res
	}
	res.Written = doc
	p.logger.Info("Transformed records", zap.Int("rows", len(table.Rows)), zap.Int("columns", len(table.Columns)))

	res.Stage = StageStore
	store, err := p.open(ctx)
	if err != nil {
		p.logger.Error("Error in storing data", zap.Stringer("kind", storage.KindOf(err)), zap.Error(err))
		res.Err = err
		return res
	}
	defer store.Close()

	gateway := storage.NewGateway(store, p.key, p.logger)
	if err := gateway.Save(ctx, doc); err != nil {
		p.logger.Error("Error in storing data", zap.Stringer("kind", storage.KindOf(err)), zap.Error(err))
		res.Err = err
		return res
	}

	res.Stage = StageReport
	summary, err := p.reporter.Report(ctx, gateway.Store(), gateway.Key())
	if err != nil {
		res.Err = err
		return res
	}
	res.Summary = summary

	res.Stage = StageDone
	return res
}

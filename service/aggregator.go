package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tieubaoca/studytool-be/logger"
	"github.com/tieubaoca/studytool-be/types"
)

// ContentAggregator builds one corpus from a list of the caller's files.
type ContentAggregator interface {
	Aggregate(ctx context.Context, storageNames []string) (string, []types.SkippedFile, error)
}

type contentAggregator struct {
	files       FileService
	maxParallel int
	log         *logger.Logger
}

func NewContentAggregator(files FileService, maxParallel int, log *logger.Logger) ContentAggregator {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &contentAggregator{
		files:       files,
		maxParallel: maxParallel,
		log:         log.With("service", "ContentAggregator"),
	}
}

type extraction struct {
	text string
	err  error
}

// Aggregate extracts every reference in parallel and joins the texts in
// input order. A reference that fails for any reason is skipped and
// reported; only a run with no text at all is an error.
func (a *contentAggregator) Aggregate(ctx context.Context, storageNames []string) (string, []types.SkippedFile, error) {
	results := make([]extraction, len(storageNames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxParallel)
	for i, name := range storageNames {
		g.Go(func() error {
			text, err := a.files.ExtractText(gctx, name)
			if err == nil && strings.TrimSpace(text) == "" {
				err = errEmptyText
			}
			results[i] = extraction{text: text, err: err}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	texts := make([]string, 0, len(storageNames))
	skipped := []types.SkippedFile{}
	for i, r := range results {
		if r.err != nil {
			skipped = append(skipped, types.SkippedFile{
				StorageName: storageNames[i],
				Reason:      skipReason(r.err),
			})
			a.log.Warn("Skipping file", "storage_name", storageNames[i], "error", r.err)
			continue
		}
		texts = append(texts, r.text)
	}
	if len(texts) == 0 {
		return "", skipped, fmt.Errorf("%w: %d of %d files yielded no text", types.ErrNoExtractableContent, len(skipped), len(storageNames))
	}
	return strings.Join(texts, types.PageSeparator), skipped, nil
}

var errEmptyText = errors.New("file contains no text")

func skipReason(err error) string {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return "not found"
	case errors.Is(err, types.ErrDecode):
		return "not valid UTF-8 text"
	case errors.Is(err, types.ErrExtraction):
		return "text could not be extracted"
	case errors.Is(err, errEmptyText):
		return "no text"
	default:
		return "unavailable"
	}
}

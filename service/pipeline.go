package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tieubaoca/studytool-be/logger"
	"github.com/tieubaoca/studytool-be/types"
)

// Stage is the state of one pipeline run.
type Stage int

const (
	StageReceived Stage = iota
	StageAggregating
	StageGenerating
	StageParsing
	StagePersisted
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "received"
	case StageAggregating:
		return "aggregating"
	case StageGenerating:
		return "generating"
	case StageParsing:
		return "parsing"
	case StagePersisted:
		return "persisted"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

func (s Stage) Terminal() bool {
	return s == StagePersisted || s == StageFailed
}

// transitions lists the forward moves out of each non-terminal stage.
// Generating goes straight to Persisted for summaries.
var transitions = map[Stage][]Stage{
	StageReceived:    {StageAggregating, StageGenerating, StageFailed},
	StageAggregating: {StageGenerating, StageFailed},
	StageGenerating:  {StageParsing, StagePersisted, StageFailed},
	StageParsing:     {StagePersisted, StageFailed},
}

// StageError is a run that ended in StageFailed. Stage is where it failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

var tracer = otel.Tracer("github.com/tieubaoca/studytool-be/service")

// run tracks one request through the stages.
type run struct {
	kind  types.GenerationKind
	stage Stage
	trace []Stage
	span  trace.Span
}

func newRun(kind types.GenerationKind) *run {
	return &run{kind: kind, stage: StageReceived, trace: []Stage{StageReceived}, span: trace.SpanFromContext(context.Background())}
}

// start opens the span covering the whole run.
func (p *pipeline) start(ctx context.Context, kind types.GenerationKind) (context.Context, *run) {
	r := newRun(kind)
	ctx, r.span = tracer.Start(ctx, "pipeline."+string(kind))
	return ctx, r
}

func (r *run) advance(next Stage) error {
	if !slices.Contains(transitions[r.stage], next) {
		return fmt.Errorf("illegal pipeline transition %s -> %s", r.stage, next)
	}
	r.stage = next
	r.trace = append(r.trace, next)
	r.span.AddEvent(next.String())
	return nil
}

func (r *run) fail(err error) error {
	at := r.stage
	if !r.stage.Terminal() {
		r.stage = StageFailed
		r.trace = append(r.trace, StageFailed)
		r.span.AddEvent(StageFailed.String())
	}
	return &StageError{Stage: at, Err: err}
}

// Outcome describes how a run went beyond its artifact.
type Outcome struct {
	Requested int
	Returned  int
	Rejected  int
	Skipped   []types.SkippedFile
	Trace     []Stage
}

// Shortfall reports a count mismatch between what was asked for and what
// survived validation.
func (o Outcome) Shortfall() bool {
	return o.Requested > 0 && o.Requested != o.Returned
}

type SummaryResult struct {
	Summary *types.Summary
	Outcome
}

type FlashcardResult struct {
	Set *types.FlashcardSet
	Outcome
}

type QuizResult struct {
	Quiz *types.Quiz
	Outcome
}

// Pipeline composes aggregation, generation, parsing and persistence for
// each request kind.
type Pipeline interface {
	Summarize(ctx context.Context, req types.GenerationRequest) (*SummaryResult, error)
	GenerateFlashcards(ctx context.Context, req types.GenerationRequest) (*FlashcardResult, error)
	GenerateQuiz(ctx context.Context, req types.GenerationRequest) (*QuizResult, error)
	Explain(ctx context.Context, concept, material string) (string, error)
}

type pipeline struct {
	aggregator ContentAggregator
	requester  GenerationRequester
	artifacts  ArtifactService
	log        *logger.Logger
}

func NewPipeline(aggregator ContentAggregator, requester GenerationRequester, artifacts ArtifactService, log *logger.Logger) Pipeline {
	return &pipeline{
		aggregator: aggregator,
		requester:  requester,
		artifacts:  artifacts,
		log:        log.With("service", "Pipeline"),
	}
}

func validateRequest(req types.GenerationRequest) error {
	if strings.TrimSpace(req.Content) == "" && !req.FileBased() {
		return fmt.Errorf("%w: content is required", types.ErrValidation)
	}
	if req.Kind == types.KindFlashcards || req.Kind == types.KindQuiz {
		if req.Count < types.MIN_ITEM_COUNT || req.Count > types.MAX_ITEM_COUNT {
			return fmt.Errorf("%w: count must be between %d and %d", types.ErrValidation, types.MIN_ITEM_COUNT, types.MAX_ITEM_COUNT)
		}
	}
	return nil
}

// begin validates the request and assembles the corpus. Pasted content and
// file text are both used when both are given, pasted content first.
func (p *pipeline) begin(ctx context.Context, r *run, req types.GenerationRequest, out *Outcome) (string, error) {
	if _, ok := types.PrincipalFromContext(ctx); !ok {
		return "", r.fail(types.ErrUnauthenticated)
	}
	if err := validateRequest(req); err != nil {
		return "", r.fail(err)
	}
	corpus := strings.TrimSpace(req.Content)
	if !req.FileBased() {
		return corpus, nil
	}

	if err := r.advance(StageAggregating); err != nil {
		return "", r.fail(err)
	}
	text, skipped, err := p.aggregator.Aggregate(ctx, req.Files)
	out.Skipped = skipped
	if err != nil {
		return "", r.fail(err)
	}
	if corpus != "" {
		return corpus + types.PageSeparator + text, nil
	}
	return text, nil
}

func (p *pipeline) generate(ctx context.Context, r *run, data PromptData) (string, error) {
	if err := r.advance(StageGenerating); err != nil {
		return "", r.fail(err)
	}
	raw, err := p.requester.Request(ctx, r.kind, data)
	if err != nil {
		return "", r.fail(err)
	}
	return raw, nil
}

func (p *pipeline) finish(r *run, out *Outcome, err error) {
	out.Trace = slices.Clone(r.trace)
	stages := make([]string, len(r.trace))
	for i, s := range r.trace {
		stages[i] = s.String()
	}
	path := strings.Join(stages, ">")
	defer r.span.End()
	r.span.SetAttributes(
		attribute.String("pipeline.trace", path),
		attribute.Int("pipeline.requested", out.Requested),
		attribute.Int("pipeline.returned", out.Returned),
		attribute.Int("pipeline.skipped_files", len(out.Skipped)),
	)
	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, err.Error())
		var stageErr *StageError
		if errors.As(err, &stageErr) {
			p.log.Warn("Pipeline failed", "kind", r.kind, "trace", path, "stage", stageErr.Stage.String(), "error", stageErr.Err)
		}
		return
	}
	if out.Shortfall() {
		p.log.Warn("Generation shortfall", "kind", r.kind, "requested", out.Requested, "returned", out.Returned, "rejected", out.Rejected)
	}
	p.log.Info("Pipeline finished", "kind", r.kind, "trace", path, "skipped_files", len(out.Skipped))
}

func (p *pipeline) Summarize(ctx context.Context, req types.GenerationRequest) (res *SummaryResult, err error) {
	req.Kind = types.KindSummary
	ctx, r := p.start(ctx, req.Kind)
	res = &SummaryResult{}
	defer func() { p.finish(r, &res.Outcome, err) }()

	corpus, err := p.begin(ctx, r, req, &res.Outcome)
	if err != nil {
		return res, err
	}
	raw, err := p.generate(ctx, r, PromptData{Content: corpus})
	if err != nil {
		return res, err
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return res, r.fail(fmt.Errorf("%w: model returned an empty summary", types.ErrGenerationParse))
	}

	summary, err := p.artifacts.SaveSummary(ctx, text, utf8.RuneCountInString(corpus))
	if err != nil {
		return res, r.fail(err)
	}
	if err := r.advance(StagePersisted); err != nil {
		return res, r.fail(err)
	}
	res.Summary = summary
	return res, nil
}

func (p *pipeline) GenerateFlashcards(ctx context.Context, req types.GenerationRequest) (res *FlashcardResult, err error) {
	req.Kind = types.KindFlashcards
	ctx, r := p.start(ctx, req.Kind)
	res = &FlashcardResult{Outcome: Outcome{Requested: req.Count}}
	defer func() { p.finish(r, &res.Outcome, err) }()

	corpus, err := p.begin(ctx, r, req, &res.Outcome)
	if err != nil {
		return res, err
	}
	raw, err := p.generate(ctx, r, PromptData{Content: corpus, Count: req.Count})
	if err != nil {
		return res, err
	}

	if err := r.advance(StageParsing); err != nil {
		return res, r.fail(err)
	}
	parsed, err := ParseFlashcards(raw, req.Count)
	if err != nil {
		return res, r.fail(err)
	}
	res.Returned = len(parsed.Items)
	res.Rejected = len(parsed.Rejected)

	source := types.SOURCE_TEXT
	if req.FileBased() {
		source = types.SOURCE_FILES
	}
	set, err := p.artifacts.SaveFlashcardSet(ctx, source, parsed.Items)
	if err != nil {
		return res, r.fail(err)
	}
	if err := r.advance(StagePersisted); err != nil {
		return res, r.fail(err)
	}
	res.Set = set
	return res, nil
}

func (p *pipeline) GenerateQuiz(ctx context.Context, req types.GenerationRequest) (res *QuizResult, err error) {
	req.Kind = types.KindQuiz
	ctx, r := p.start(ctx, req.Kind)
	res = &QuizResult{Outcome: Outcome{Requested: req.Count}}
	defer func() { p.finish(r, &res.Outcome, err) }()

	corpus, err := p.begin(ctx, r, req, &res.Outcome)
	if err != nil {
		return res, err
	}
	raw, err := p.generate(ctx, r, PromptData{Content: corpus, Count: req.Count})
	if err != nil {
		return res, err
	}

	if err := r.advance(StageParsing); err != nil {
		return res, r.fail(err)
	}
	parsed, err := ParseQuiz(raw, req.Count)
	if err != nil {
		return res, r.fail(err)
	}
	res.Returned = len(parsed.Items)
	res.Rejected = len(parsed.Rejected)

	quiz, err := p.artifacts.SaveQuiz(ctx, req.Title, parsed.Items)
	if err != nil {
		return res, r.fail(err)
	}
	if err := r.advance(StagePersisted); err != nil {
		return res, r.fail(err)
	}
	res.Quiz = quiz
	return res, nil
}

// Explain answers a one-off question about a concept. Nothing is stored and
// no user data is read, so no principal is needed.
func (p *pipeline) Explain(ctx context.Context, concept, material string) (string, error) {
	concept = strings.TrimSpace(concept)
	if concept == "" {
		return "", fmt.Errorf("%w: concept is required", types.ErrValidation)
	}
	raw, err := p.requester.Request(ctx, types.KindExplain, PromptData{
		Concept: concept,
		Content: strings.TrimSpace(material),
	})
	if err != nil {
		return "", err
	}
	explanation := strings.TrimSpace(raw)
	if explanation == "" {
		return "", fmt.Errorf("%w: model returned an empty explanation", types.ErrGenerationParse)
	}
	return explanation, nil
}

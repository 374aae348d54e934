// Package enrichment is the Enrichment Worker: pulls unprocessed raw
// postings in bounded batches, asks a generative model to infer structured
// attributes, writes a canonical record and its embedding, and triggers
// real-time delivery.
package enrichment

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobmate/alertpipeline/internal/clock"
	"github.com/jobmate/alertpipeline/internal/embeddings"
	"github.com/jobmate/alertpipeline/internal/metrics"
	"github.com/jobmate/alertpipeline/internal/model"
	"github.com/jobmate/alertpipeline/internal/store"
)

//go:embed prompt.md
var promptTemplate string

const maxAttempts = 3

// Generator produces free-form text completions from a prompt. Satisfied by
// internal/llm.Client.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Embedder produces vectors for text. Satisfied by internal/embeddings.Service.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Worker implements the batch pull → enrich → embed → dispatch pipeline.
type Worker struct {
	store     *store.Store
	generator Generator
	embedder  Embedder
	dispatch  func(ctx context.Context, posting model.CanonicalPosting) error
	clock     clock.Clock
	logger    *zap.Logger
	batchSize int
	workers   int
}

func New(s *store.Store, generator Generator, embedder Embedder, dispatch func(context.Context, model.CanonicalPosting) error, c clock.Clock, logger *zap.Logger, batchSize, workers int) *Worker {
	if batchSize <= 0 {
		batchSize = 50
	}
	if workers <= 0 {
		workers = 2
	}
	return &Worker{
		store:     s,
		generator: generator,
		embedder:  embedder,
		dispatch:  dispatch,
		clock:     c,
		logger:    logger,
		batchSize: batchSize,
		workers:   workers,
	}
}

// RunBatch processes up to one batch of unprocessed raw postings, fanning
// out over a pool bounded to w.workers concurrent records — the same
// goroutine-plus-result-channel shape the Delivery Dispatcher uses for its
// per-user fan-out, with a semaphore added to cap concurrency. It never
// returns an error for per-record failures — those are recorded against the
// raw posting and skipped — only for failures pulling the batch itself.
func (w *Worker) RunBatch(ctx context.Context) (processed, failed int, err error) {
	raws, err := w.store.FetchUnprocessedRawPostings(ctx, w.batchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch unprocessed raw postings: %w", err)
	}

	sem := make(chan struct{}, w.workers)
	results := make(chan bool, len(raws))

	dispatched := 0
	for _, raw := range raws {
		if ctx.Err() != nil {
			break
		}
		raw := raw
		sem <- struct{}{}
		dispatched++
		go func() {
			defer func() { <-sem }()
			results <- w.processAndRecord(ctx, raw)
		}()
	}

	for i := 0; i < dispatched; i++ {
		if <-results {
			processed++
		} else {
			failed++
		}
	}
	return processed, failed, nil
}

// processAndRecord runs processOne and handles the failure side effects
// (logging, marking the raw posting errored, counting the failure metric)
// so RunBatch's fan-out goroutines stay a single call each.
func (w *Worker) processAndRecord(ctx context.Context, raw model.RawPosting) bool {
	if err := w.processOne(ctx, raw); err != nil {
		w.logger.Warn("enrichment record failed",
			zap.String("raw_id", raw.ID.String()), zap.Error(err))
		if markErr := w.store.MarkRawPostingError(ctx, raw.ID, err.Error()); markErr != nil {
			w.logger.Error("mark raw posting error failed", zap.Error(markErr))
		}
		metrics.RawPostingsFailed.Inc()
		return false
	}
	return true
}

func (w *Worker) processOne(ctx context.Context, raw model.RawPosting) error {
	hints := extractHints(raw.Payload)
	prompt := buildPrompt(hints, raw.Source)

	raw2, err := w.generateWithRetry(ctx, prompt)
	if err != nil {
		return err
	}

	resp, err := parseModelResponse(raw2)
	if err != nil {
		return err // schema violations are not retried within the batch
	}

	now := w.clock.Now()
	posting := composeCanonical(raw, hints, resp, now)

	if err := w.store.InsertCanonicalPosting(ctx, &posting); err != nil {
		return fmt.Errorf("insert canonical posting: %w", err)
	}

	sourceText := embeddings.JobProfileText(posting)
	vec, err := w.embedder.Embed(ctx, sourceText)
	if err != nil {
		// Canonical record stays ai_enhanced=false; the Scheduler's
		// back-fill pass retries the embedding separately.
		return fmt.Errorf("embed canonical posting: %w", err)
	}

	emb := model.Embedding{Vector: vec, SourceText: sourceText, Version: model.EmbeddingVersion, UpdatedAt: now}
	if err := w.store.SetCanonicalEmbedding(ctx, posting.ID, emb); err != nil {
		return fmt.Errorf("persist canonical embedding: %w", err)
	}
	posting.Embedding = emb
	posting.AIEnhanced = true

	if err := w.store.MarkRawPostingProcessed(ctx, raw.ID); err != nil {
		return fmt.Errorf("mark raw posting processed: %w", err)
	}

	metrics.RawPostingsProcessed.Inc()
	metrics.CanonicalPostingsCreated.Inc()
	metrics.EnrichmentLatencySeconds.Observe(w.clock.Now().Sub(raw.InsertedAt).Seconds())

	if w.dispatch != nil {
		if err := w.dispatch(ctx, posting); err != nil {
			w.logger.Warn("real-time dispatch failed", zap.String("posting_id", posting.ID.String()), zap.Error(err))
		}
	}
	return nil
}

// generateWithRetry retries transient generator errors (timeouts, 5xx) up
// to maxAttempts with exponential backoff (1s, 2s, 4s, ... between
// attempts; the generator errors here carry no status
// code to distinguish transient from permanent, so every call error is
// treated as transient and retried — schema violations are caught only
// after a successful call, in parseModelResponse).
func (w *Worker) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := w.generator.GenerateContent(ctx, prompt)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(1<<(attempt-1)) * time.Second):
			}
		}
	}
	return "", fmt.Errorf("generate content: exhausted %d attempts: %w", maxAttempts, lastErr)
}

// hints carries whatever the scraper payload already told us, used to seed
// the prompt and to fall back on for direct fields the model doesn't own.
type hints struct {
	Title          string `json:"title"`
	Company        string `json:"company"`
	Location       string `json:"location"`
	Description    string `json:"description"`
	URL            string `json:"url"`
	PostedDate     string `json:"posted_date"`
	Salary         string `json:"salary"`
	JobType        string `json:"job_type"`
	EmploymentType string `json:"employment_type"`
}

func extractHints(payload json.RawMessage) hints {
	var h hints
	_ = json.Unmarshal(payload, &h)
	return h
}

// employmentTypeSynonyms normalizes the scraper's free-text job_type /
// employment_type field into one of the permitted contract shapes.
var employmentTypeSynonyms = map[string]model.EmploymentType{
	"full time":  model.EmploymentFullTime,
	"fulltime":   model.EmploymentFullTime,
	"full-time":  model.EmploymentFullTime,
	"permanent":  model.EmploymentFullTime,
	"part time":  model.EmploymentPartTime,
	"parttime":   model.EmploymentPartTime,
	"part-time":  model.EmploymentPartTime,
	"contract":   model.EmploymentContract,
	"contractor": model.EmploymentContract,
	"temporary":  model.EmploymentTemporary,
	"freelance":  model.EmploymentFreelance,
	"intern":     model.EmploymentInternship,
	"internship": model.EmploymentInternship,
	"trainee":    model.EmploymentInternship,
	"graduate":   model.EmploymentInternship,
	"volunteer":  model.EmploymentVolunteer,
}

func parseEmploymentType(h hints) model.EmploymentType {
	raw := firstNonEmpty(h.JobType, h.EmploymentType)
	if raw == "" {
		return ""
	}
	if t, ok := employmentTypeSynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t
	}
	return ""
}

func buildPrompt(h hints, source string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Title: {{TITLE_HINT}}\nCompany: {{COMPANY_HINT}}\nSource: {{SOURCE}}\n{{DESCRIPTION}}\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{TITLE_HINT}}", h.Title)
	prompt = strings.ReplaceAll(prompt, "{{COMPANY_HINT}}", h.Company)
	prompt = strings.ReplaceAll(prompt, "{{SOURCE}}", source)
	prompt = strings.ReplaceAll(prompt, "{{DESCRIPTION}}", h.Description)
	return prompt
}

func composeCanonical(raw model.RawPosting, h hints, resp *modelResponse, now time.Time) model.CanonicalPosting {
	postedDate := now
	if h.PostedDate != "" {
		if t, err := time.Parse("2006-01-02", h.PostedDate); err == nil {
			postedDate = t
		}
	} else {
		postedDate = time.Date(raw.ScrapedAt.Year(), raw.ScrapedAt.Month(), raw.ScrapedAt.Day(), 0, 0, 0, 0, raw.ScrapedAt.Location())
	}

	title := resp.AIJobTitles[0]
	alternates := resp.AIJobTitles[1:]

	salary := normalizeSalary(resp.AISalaryMin, resp.AISalaryMax, resp.AISalaryCurrency)
	yearsMin, yearsMax := clampYears(resp.AIYearsExperienceMin, resp.AIYearsExperienceMax)

	city, state, country := resp.AICity, resp.AIState, resp.AICountry
	if city == "" && state == "" && country == "" && h.Location != "" {
		city, state, country = parseDisplayLocation(h.Location)
	}

	return model.CanonicalPosting{
		ID:              uuid.New(),
		RawID:           raw.ID,
		Title:           title,
		Company:         h.Company,
		DisplayLocation: h.Location,
		PostingURL:      firstNonEmpty(h.URL, raw.URL),
		Description:     h.Description,
		EmploymentType:  parseEmploymentType(h),
		ExplicitSalary:  parseExplicitSalary(h.Salary),
		PostedDate:      postedDate,
		Source:          raw.Source,

		AlternateTitles: alternates,
		RequiredSkills:  resp.AIRequiredSkills,
		PreferredSkills: resp.AIPreferredSkills,
		Industries:      resp.AIIndustry,
		Function:        resp.AIJobFunction,
		Levels:          levelsFromStrings(resp.AIJobLevel),
		Location:        model.LocationTriple{City: city, State: state, Country: country},
		WorkArrangement: model.WorkArrangement(resp.AIWorkArrangement),
		RemoteAllowed:   resp.AIRemoteAllowed,
		InferredSalary:  salary,
		YearsMin:        yearsMin,
		YearsMax:        yearsMax,
		Summary:         resp.AISummary,

		ScrapedAt: raw.ScrapedAt,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseDisplayLocation(loc string) (city, state, country string) {
	parts := strings.Split(loc, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	switch len(parts) {
	case 1:
		return parts[0], "", ""
	case 2:
		return parts[0], "", parts[1]
	default:
		return parts[0], parts[1], parts[len(parts)-1]
	}
}


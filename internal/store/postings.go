package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/jobmate/alertpipeline/internal/model"
)

// EnqueueResult reports whether Enqueue inserted a new raw posting or found
// an existing (source, source_id) pair.
type EnqueueResult string

const (
	EnqueueInserted  EnqueueResult = "inserted"
	EnqueueDuplicate EnqueueResult = "duplicate"
)

// EnqueueRawPosting inserts a scraped record, deduplicating on
// (source, source_id) per spec §4.1. Idempotent: a repeat call with the same
// key is a no-op that reports EnqueueDuplicate.
func (s *Store) EnqueueRawPosting(ctx context.Context, p *model.RawPosting) (EnqueueResult, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO raw_postings (id, source, source_id, payload, url, scraped_at, processed, inserted_at)
		 SELECT $1, $2, $3, $4::jsonb, $5, $6, false, now()
		 WHERE NOT EXISTS (
		   SELECT 1 FROM raw_postings WHERE source = $2 AND source_id = $3
		 )`,
		p.ID, p.Source, p.SourceID, p.Payload, p.URL, p.ScrapedAt,
	)
	if err != nil {
		return "", fmt.Errorf("enqueue raw posting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return EnqueueDuplicate, nil
	}
	return EnqueueInserted, nil
}

// FetchUnprocessedRawPostings pulls up to limit raw postings with
// processed=false, ordered by scraped_at ascending (spec §4.2 step 1).
func (s *Store) FetchUnprocessedRawPostings(ctx context.Context, limit int) ([]model.RawPosting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, source, source_id, payload, url, scraped_at, processed, error, inserted_at
		 FROM raw_postings
		 WHERE processed = false
		 ORDER BY scraped_at ASC
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed raw postings: %w", err)
	}
	defer rows.Close()

	var out []model.RawPosting
	for rows.Next() {
		var p model.RawPosting
		var errText *string
		if err := rows.Scan(&p.ID, &p.Source, &p.SourceID, &p.Payload, &p.URL, &p.ScrapedAt, &p.Processed, &errText, &p.InsertedAt); err != nil {
			return nil, fmt.Errorf("scan raw posting: %w", err)
		}
		if errText != nil {
			p.Error = *errText
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkRawPostingProcessed sets processed=true (spec invariant 5: exactly
// once, false -> true).
func (s *Store) MarkRawPostingProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `UPDATE raw_postings SET processed = true, error = NULL WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark raw posting processed: %w", err)
	}
	return nil
}

// MarkRawPostingError records an enrichment failure. processed stays false
// so a later pass retries (spec invariant 5, error kind (c) in §7).
func (s *Store) MarkRawPostingError(ctx context.Context, id uuid.UUID, errText string) error {
	_, err := s.pool.Exec(ctx, `UPDATE raw_postings SET error = $2 WHERE id = $1`, id, errText)
	if err != nil {
		return fmt.Errorf("mark raw posting error: %w", err)
	}
	return nil
}

// InsertCanonicalPosting writes the canonical record produced from exactly
// one raw posting. ai_enhanced starts false; SetCanonicalEmbedding flips it
// once the embedding is written (spec invariant 4).
func (s *Store) InsertCanonicalPosting(ctx context.Context, p *model.CanonicalPosting) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO canonical_postings (
		   id, raw_id, title, company, display_location, posting_url, description,
		   employment_type, salary_min, salary_max, salary_currency, posted_date, source,
		   alternate_titles, required_skills, preferred_skills, industries, function,
		   levels, city, state, country, work_arrangement, remote_allowed,
		   inferred_salary_min, inferred_salary_max, inferred_salary_currency,
		   years_min, years_max, summary, ai_enhanced, scraped_at
		 ) VALUES (
		   $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,
		   $19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,false,$31
		 )`,
		p.ID, p.RawID, p.Title, p.Company, p.DisplayLocation, p.PostingURL, p.Description,
		p.EmploymentType, p.ExplicitSalary.Min, p.ExplicitSalary.Max, p.ExplicitSalary.Currency, p.PostedDate, p.Source,
		p.AlternateTitles, p.RequiredSkills, p.PreferredSkills, p.Industries, p.Function,
		p.Levels, p.Location.City, p.Location.State, p.Location.Country, p.WorkArrangement, p.RemoteAllowed,
		p.InferredSalary.Min, p.InferredSalary.Max, p.InferredSalary.Currency,
		p.YearsMin, p.YearsMax, p.Summary, p.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("insert canonical posting: %w", err)
	}
	return nil
}

// SetCanonicalEmbedding persists the canonical posting's embedding and flips
// ai_enhanced true, completing invariant 4.
func (s *Store) SetCanonicalEmbedding(ctx context.Context, id uuid.UUID, emb model.Embedding) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE canonical_postings
		 SET embedding = $2, embedding_text = $3, embedding_version = $4, embedding_updated_at = $5,
		     ai_enhanced = true
		 WHERE id = $1`,
		id, toVector(emb.Vector), emb.SourceText, emb.Version, emb.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("set canonical embedding: %w", err)
	}
	return nil
}

// GetCanonicalPosting fetches one canonical posting by id.
func (s *Store) GetCanonicalPosting(ctx context.Context, id uuid.UUID) (*model.CanonicalPosting, error) {
	p, err := s.scanCanonicalPosting(ctx,
		`SELECT id, raw_id, title, company, display_location, posting_url, description,
		        employment_type, salary_min, salary_max, salary_currency, posted_date, source,
		        alternate_titles, required_skills, preferred_skills, industries, function,
		        levels, city, state, country, work_arrangement, remote_allowed,
		        inferred_salary_min, inferred_salary_max, inferred_salary_currency,
		        years_min, years_max, summary, ai_enhanced, embedding_version, embedding_updated_at, scraped_at
		 FROM canonical_postings WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FreshCandidatesWithEmbedding returns canonical postings posted within
// maxAge of now that carry an embedding, for the Embedding Matcher
// (spec §4.5.1).
func (s *Store) FreshCandidatesWithEmbedding(ctx context.Context, now time.Time, maxAge time.Duration, limit int) ([]model.CanonicalPosting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, raw_id, title, company, display_location, posting_url, description,
		        employment_type, salary_min, salary_max, salary_currency, posted_date, source,
		        alternate_titles, required_skills, preferred_skills, industries, function,
		        levels, city, state, country, work_arrangement, remote_allowed,
		        inferred_salary_min, inferred_salary_max, inferred_salary_currency,
		        years_min, years_max, summary, ai_enhanced, embedding_version, embedding_updated_at, scraped_at,
		        embedding
		 FROM canonical_postings
		 WHERE ai_enhanced = true AND posted_date >= $1
		 ORDER BY posted_date DESC
		 LIMIT $2`, now.Add(-maxAge), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query fresh candidates: %w", err)
	}
	defer rows.Close()

	var out []model.CanonicalPosting
	for rows.Next() {
		p, vec, err := scanCanonicalRowWithVector(rows)
		if err != nil {
			return nil, err
		}
		p.Embedding.Vector = vec.Slice()
		out = append(out, *p)
	}
	return out, rows.Err()
}

// FreshCandidates returns canonical postings posted within maxAge of now,
// regardless of embedding presence, for the Rule Matcher fallback path.
func (s *Store) FreshCandidates(ctx context.Context, now time.Time, maxAge time.Duration, limit int) ([]model.CanonicalPosting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, raw_id, title, company, display_location, posting_url, description,
		        employment_type, salary_min, salary_max, salary_currency, posted_date, source,
		        alternate_titles, required_skills, preferred_skills, industries, function,
		        levels, city, state, country, work_arrangement, remote_allowed,
		        inferred_salary_min, inferred_salary_max, inferred_salary_currency,
		        years_min, years_max, summary, ai_enhanced, embedding_version, embedding_updated_at, scraped_at
		 FROM canonical_postings
		 WHERE posted_date >= $1
		 ORDER BY posted_date DESC
		 LIMIT $2`, now.Add(-maxAge), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query fresh candidates: %w", err)
	}
	defer rows.Close()

	var out []model.CanonicalPosting
	for rows.Next() {
		p, err := scanCanonicalRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// DuplicateGroups returns groups of canonical posting ids sharing the same
// lowercased-trimmed (title, company, location) key, newest first within
// each group, for the Scheduler's dedup purge (spec §4.9).
func (s *Store) DuplicateGroups(ctx context.Context) ([][]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT array_agg(id ORDER BY scraped_at DESC) AS ids
		 FROM canonical_postings
		 GROUP BY lower(trim(title)), lower(trim(company)), lower(trim(display_location))
		 HAVING COUNT(*) > 1`,
	)
	if err != nil {
		return nil, fmt.Errorf("query duplicate groups: %w", err)
	}
	defer rows.Close()

	var groups [][]uuid.UUID
	for rows.Next() {
		var ids []uuid.UUID
		if err := rows.Scan(&ids); err != nil {
			return nil, fmt.Errorf("scan duplicate group: %w", err)
		}
		groups = append(groups, ids)
	}
	return groups, rows.Err()
}

// RepointAndDeleteDuplicate re-points any delivery history rows from loser
// onto survivor, then deletes loser. Never drops delivery history —
// invariant 1 and the "history never loses rows" rule in spec §8 scenario 6.
func (s *Store) RepointAndDeleteDuplicate(ctx context.Context, survivor uuid.UUID, loser uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin dedup tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE delivery_history SET posting_id = $1
		 WHERE posting_id = $2
		   AND NOT EXISTS (
		     SELECT 1 FROM delivery_history d2 WHERE d2.posting_id = $1 AND d2.user_id = delivery_history.user_id
		   )`,
		survivor, loser,
	); err != nil {
		return fmt.Errorf("repoint delivery history: %w", err)
	}

	// Any delivery_history rows that couldn't repoint because the survivor
	// already has a row for that user are left pointing at the loser's
	// history but the loser posting itself is removed only after those are
	// handled by the unique constraint; delete what remains for the loser.
	if _, err := tx.Exec(ctx, `DELETE FROM delivery_history WHERE posting_id = $1`, loser); err != nil {
		return fmt.Errorf("delete residual delivery history for loser: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM canonical_postings WHERE id = $1`, loser); err != nil {
		return fmt.Errorf("delete duplicate posting: %w", err)
	}

	return tx.Commit(ctx)
}

// PurgeOldUndelivered removes canonical postings older than maxAge that
// never produced a delivery history row (spec §4.9 old-record purge).
func (s *Store) PurgeOldUndelivered(ctx context.Context, now time.Time, maxAge time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM canonical_postings p
		 WHERE p.scraped_at < $1
		   AND NOT EXISTS (SELECT 1 FROM delivery_history d WHERE d.posting_id = p.id)`,
		now.Add(-maxAge),
	)
	if err != nil {
		return 0, fmt.Errorf("purge old undelivered postings: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PostingsMissingEmbedding lists enriched-but-unembedded canonical postings
// for the Scheduler's embedding back-fill pass.
func (s *Store) PostingsMissingEmbedding(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM canonical_postings WHERE embedding IS NULL ORDER BY scraped_at ASC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query postings missing embedding: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan posting id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// JobEmbeddingCoverage returns the fraction of canonical postings from the
// last 60 days carrying an embedding, for the Operational Surface.
func (s *Store) JobEmbeddingCoverage(ctx context.Context, now time.Time) (float64, error) {
	var total, withVec int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE embedding IS NOT NULL)
		 FROM canonical_postings WHERE posted_date >= $1`,
		now.Add(-60*24*time.Hour),
	).Scan(&total, &withVec)
	if err != nil {
		return 0, fmt.Errorf("query job embedding coverage: %w", err)
	}
	if total == 0 {
		return 1, nil
	}
	return float64(withVec) / float64(total), nil
}

func (s *Store) scanCanonicalPosting(ctx context.Context, query string, args ...any) (*model.CanonicalPosting, error) {
	row := s.pool.QueryRow(ctx, query, args...)
	p, err := scanCanonicalRow(singleRowScanner{row})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// rowsLike abstracts over pgx.Rows and a single pgx.Row so scanCanonicalRow
// can serve both GetCanonicalPosting and the list queries.
type rowsLike interface {
	Scan(dest ...any) error
}

type singleRowScanner struct{ row pgx.Row }

func (s singleRowScanner) Scan(dest ...any) error { return s.row.Scan(dest...) }

func scanCanonicalRow(r rowsLike) (*model.CanonicalPosting, error) {
	var p model.CanonicalPosting
	var embeddingVersion *int
	var embeddingUpdatedAt *time.Time

	err := r.Scan(
		&p.ID, &p.RawID, &p.Title, &p.Company, &p.DisplayLocation, &p.PostingURL, &p.Description,
		&p.EmploymentType, &p.ExplicitSalary.Min, &p.ExplicitSalary.Max, &p.ExplicitSalary.Currency, &p.PostedDate, &p.Source,
		&p.AlternateTitles, &p.RequiredSkills, &p.PreferredSkills, &p.Industries, &p.Function,
		&p.Levels, &p.Location.City, &p.Location.State, &p.Location.Country, &p.WorkArrangement, &p.RemoteAllowed,
		&p.InferredSalary.Min, &p.InferredSalary.Max, &p.InferredSalary.Currency,
		&p.YearsMin, &p.YearsMax, &p.Summary, &p.AIEnhanced, &embeddingVersion, &embeddingUpdatedAt, &p.ScrapedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan canonical posting: %w", err)
	}
	if embeddingVersion != nil {
		p.Embedding.Version = *embeddingVersion
	}
	if embeddingUpdatedAt != nil {
		p.Embedding.UpdatedAt = *embeddingUpdatedAt
	}
	return &p, nil
}

// scanCanonicalRowWithVector scans a row that additionally carries the raw
// embedding column as its final field.
func scanCanonicalRowWithVector(rows pgx.Rows) (*model.CanonicalPosting, pgvector.Vector, error) {
	var p model.CanonicalPosting
	var embeddingVersion *int
	var embeddingUpdatedAt *time.Time
	var vec pgvector.Vector

	err := rows.Scan(
		&p.ID, &p.RawID, &p.Title, &p.Company, &p.DisplayLocation, &p.PostingURL, &p.Description,
		&p.EmploymentType, &p.ExplicitSalary.Min, &p.ExplicitSalary.Max, &p.ExplicitSalary.Currency, &p.PostedDate, &p.Source,
		&p.AlternateTitles, &p.RequiredSkills, &p.PreferredSkills, &p.Industries, &p.Function,
		&p.Levels, &p.Location.City, &p.Location.State, &p.Location.Country, &p.WorkArrangement, &p.RemoteAllowed,
		&p.InferredSalary.Min, &p.InferredSalary.Max, &p.InferredSalary.Currency,
		&p.YearsMin, &p.YearsMax, &p.Summary, &p.AIEnhanced, &embeddingVersion, &embeddingUpdatedAt, &p.ScrapedAt,
		&vec,
	)
	if err != nil {
		return nil, pgvector.Vector{}, fmt.Errorf("scan canonical posting with vector: %w", err)
	}
	if embeddingVersion != nil {
		p.Embedding.Version = *embeddingVersion
	}
	if embeddingUpdatedAt != nil {
		p.Embedding.UpdatedAt = *embeddingUpdatedAt
	}
	return &p, vec, nil
}

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

// GetPreferences fetches the 0..1 preferences row for a user.
func (s *Store) GetPreferences(ctx context.Context, userID uuid.UUID) (*model.Preferences, error) {
	var p model.Preferences
	var embeddingVersion *int
	var embeddingText *string
	var embeddingUpdatedAt *time.Time

	err := s.pool.QueryRow(ctx,
		`SELECT user_id, desired_roles, job_categories, desired_locations, willing_to_relocate,
		        work_arrangements, employment_types, experience_level, experience_years,
		        salary_min, salary_max, salary_currency, required_skills, soft_skills,
		        industries, company_sizes, confirmed,
		        embedding_text, embedding_version, embedding_updated_at,
		        created_at, updated_at
		 FROM user_preferences WHERE user_id = $1`, userID,
	).Scan(
		&p.UserID, &p.DesiredRoles, &p.JobCategories, &p.DesiredLocations, &p.WillingToRelocate,
		&p.WorkArrangements, &p.EmploymentTypes, &p.ExperienceLevel, &p.ExperienceYears,
		&p.DesiredSalary.Min, &p.DesiredSalary.Max, &p.DesiredSalary.Currency, &p.RequiredSkills, &p.SoftSkills,
		&p.Industries, &p.CompanySizes, &p.Confirmed,
		&embeddingText, &embeddingVersion, &embeddingUpdatedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query preferences: %w", err)
	}

	if embeddingVersion != nil {
		var vec pgvector.Vector
		if err := s.pool.QueryRow(ctx,
			`SELECT embedding FROM user_preferences WHERE user_id = $1`, userID,
		).Scan(&vec); err != nil {
			return nil, fmt.Errorf("query preference embedding vector: %w", err)
		}
		p.Embedding.Vector = vec.Slice()
		p.Embedding.Version = *embeddingVersion
		if embeddingText != nil {
			p.Embedding.SourceText = *embeddingText
		}
		if embeddingUpdatedAt != nil {
			p.Embedding.UpdatedAt = *embeddingUpdatedAt
		}
	}

	return &p, nil
}

// UpsertPreferences writes a user's full preference bag, leaving the
// embedding fields untouched — those are owned exclusively by the
// Preference Projector via UpdatePreferenceEmbedding.
func (s *Store) UpsertPreferences(ctx context.Context, p *model.Preferences, now time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_preferences (
		   user_id, desired_roles, job_categories, desired_locations, willing_to_relocate,
		   work_arrangements, employment_types, experience_level, experience_years,
		   salary_min, salary_max, salary_currency, required_skills, soft_skills,
		   industries, company_sizes, confirmed, created_at, updated_at
		 ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$18)
		 ON CONFLICT (user_id) DO UPDATE SET
		   desired_roles = EXCLUDED.desired_roles,
		   job_categories = EXCLUDED.job_categories,
		   desired_locations = EXCLUDED.desired_locations,
		   willing_to_relocate = EXCLUDED.willing_to_relocate,
		   work_arrangements = EXCLUDED.work_arrangements,
		   employment_types = EXCLUDED.employment_types,
		   experience_level = EXCLUDED.experience_level,
		   experience_years = EXCLUDED.experience_years,
		   salary_min = EXCLUDED.salary_min,
		   salary_max = EXCLUDED.salary_max,
		   salary_currency = EXCLUDED.salary_currency,
		   required_skills = EXCLUDED.required_skills,
		   soft_skills = EXCLUDED.soft_skills,
		   industries = EXCLUDED.industries,
		   company_sizes = EXCLUDED.company_sizes,
		   confirmed = EXCLUDED.confirmed,
		   updated_at = EXCLUDED.updated_at`,
		p.UserID, p.DesiredRoles, p.JobCategories, p.DesiredLocations, p.WillingToRelocate,
		p.WorkArrangements, p.EmploymentTypes, p.ExperienceLevel, p.ExperienceYears,
		p.DesiredSalary.Min, p.DesiredSalary.Max, p.DesiredSalary.Currency, p.RequiredSkills, p.SoftSkills,
		p.Industries, p.CompanySizes, p.Confirmed, now,
	)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

// UpdatePreferenceEmbedding persists a freshly computed user embedding.
// Owned exclusively by the Preference Projector (spec §3.3 ownership rule).
func (s *Store) UpdatePreferenceEmbedding(ctx context.Context, userID uuid.UUID, emb model.Embedding) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE user_preferences
		 SET embedding = $2, embedding_text = $3, embedding_version = $4, embedding_updated_at = $5
		 WHERE user_id = $1`,
		userID, toVector(emb.Vector), emb.SourceText, emb.Version, emb.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update preference embedding: %w", err)
	}
	return nil
}

// UsersMissingEmbedding lists confirmed users whose preference embedding is
// absent or stale, for the Scheduler's embedding back-fill / refresh passes.
func (s *Store) UsersMissingEmbedding(ctx context.Context, staleBefore time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id FROM user_preferences
		 WHERE confirmed = true
		   AND (embedding IS NULL OR embedding_updated_at < $1)
		 ORDER BY updated_at ASC
		 LIMIT $2`, staleBefore, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query stale user embeddings: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UserEmbeddingCoverage returns the fraction of confirmed users carrying a
// usable embedding, for the Operational Surface's coverage gauge.
func (s *Store) UserEmbeddingCoverage(ctx context.Context) (float64, error) {
	var total, withVec int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE embedding IS NOT NULL)
		 FROM user_preferences WHERE confirmed = true`,
	).Scan(&total, &withVec)
	if err != nil {
		return 0, fmt.Errorf("query user embedding coverage: %w", err)
	}
	if total == 0 {
		return 1, nil
	}
	return float64(withVec) / float64(total), nil
}

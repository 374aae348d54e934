// Package model defines the domain entities shared across the alert
// pipeline's workers, mirroring the logical persistence layout in the store
// gateway without committing to its physical schema.
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EmbeddingVersion is the current embedding schema version. Matches across
// incompatible versions are rejected (spec invariant 6).
const EmbeddingVersion = 1

// EmbeddingDim is the fixed dimensionality of every stored embedding.
const EmbeddingDim = 1536

// User is a stable identity keyed by a chat-provider contact handle.
type User struct {
	ID           uuid.UUID
	Handle       string // unique contact handle, e.g. a WhatsApp number
	DisplayName  string
	IsActive     bool
	CreatedAt    time.Time
	LastActiveAt time.Time
}

// WorkArrangement is one of the permitted job modalities.
type WorkArrangement string

const (
	ArrangementRemote WorkArrangement = "remote"
	ArrangementHybrid WorkArrangement = "hybrid"
	ArrangementOnSite WorkArrangement = "on-site"
)

// EmploymentType is one of the permitted contract shapes.
type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "full-time"
	EmploymentPartTime   EmploymentType = "part-time"
	EmploymentContract   EmploymentType = "contract"
	EmploymentInternship EmploymentType = "internship"
	EmploymentFreelance  EmploymentType = "freelance"
	EmploymentTemporary  EmploymentType = "temporary"
	EmploymentVolunteer  EmploymentType = "volunteer"
)

// ExperienceLevel is one of the permitted seniority bands.
type ExperienceLevel string

const (
	LevelEntry     ExperienceLevel = "entry"
	LevelJunior    ExperienceLevel = "junior"
	LevelMid       ExperienceLevel = "mid"
	LevelSenior    ExperienceLevel = "senior"
	LevelLead      ExperienceLevel = "lead"
	LevelExecutive ExperienceLevel = "executive"
)

// SalaryRange carries a normalized-period salary band with its currency.
type SalaryRange struct {
	Min      *int   // nil when unset
	Max      *int   // nil when unset
	Currency string // ISO-ish code, e.g. "NGN", "USD"
	Period   string // "monthly" — see Enrichment Worker normalization
}

// Embedding bundles a stored vector with the text it was derived from and
// the schema version it was produced under.
type Embedding struct {
	Vector     []float32
	SourceText string
	Version    int
	UpdatedAt  time.Time
}

// HasVector reports whether e carries a usable, correctly sized vector.
func (e Embedding) HasVector() bool {
	return len(e.Vector) == EmbeddingDim
}

// Preferences is the 0..1 attribute bag attached to a User.
type Preferences struct {
	UserID uuid.UUID

	DesiredRoles       []string
	JobCategories      []string
	DesiredLocations   []string
	WillingToRelocate  bool
	WorkArrangements   []WorkArrangement
	EmploymentTypes    []EmploymentType
	ExperienceLevel    ExperienceLevel
	ExperienceYears    *int
	DesiredSalary      SalaryRange
	RequiredSkills     []string
	SoftSkills         []string
	Industries         []string
	CompanySizes       []string
	Confirmed          bool

	Embedding Embedding

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RawPosting is an immutable scraped snapshot awaiting enrichment.
type RawPosting struct {
	ID         uuid.UUID
	Source     string
	SourceID   string
	Payload    json.RawMessage
	URL        string
	ScrapedAt  time.Time
	Processed  bool
	Error      string
	InsertedAt time.Time
}

// LocationTriple is a normalized city/state/country location.
type LocationTriple struct {
	City    string
	State   string
	Country string
}

// CanonicalPosting is the normalized, enriched record produced by the
// Enrichment Worker from exactly one RawPosting.
type CanonicalPosting struct {
	ID        uuid.UUID
	RawID     uuid.UUID

	// Direct fields, copied from the raw posting.
	Title          string
	Company        string
	DisplayLocation string
	PostingURL     string
	Description    string
	EmploymentType EmploymentType
	ExplicitSalary SalaryRange
	PostedDate     time.Time
	Source         string

	// Inferred fields, written by the model.
	AlternateTitles   []string
	RequiredSkills    []string
	PreferredSkills   []string
	Industries        []string
	Function          string
	Levels            []ExperienceLevel
	Location          LocationTriple
	WorkArrangement   WorkArrangement
	RemoteAllowed     bool
	InferredSalary    SalaryRange
	YearsMin          int
	YearsMax          int
	Summary           string

	Embedding Embedding

	AIEnhanced bool
	ScrapedAt  time.Time
}

// IsFresh reports whether p is still eligible for matching, i.e. posted
// within the last maxAge relative to now (spec §4.5.1: posted_date >= today
// - 60d).
func (p CanonicalPosting) IsFresh(now time.Time, maxAge time.Duration) bool {
	return !p.PostedDate.Before(now.Add(-maxAge))
}

// DeliveryStage records whether a delivery happened on the real-time path or
// a back-fill scan.
type DeliveryStage string

const (
	StageRealTime DeliveryStage = "real_time"
	StageBackfill DeliveryStage = "backfill"
)

// DeliveryHistory is one row per (user, canonical posting) pair that reached
// — or was attempted for — a user.
type DeliveryHistory struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	PostingID   uuid.UUID
	Score       int
	Reasons     []string
	Stage       DeliveryStage
	Sent        bool
	Error       string
	ShownAt     time.Time
}

// WindowStatus is the Conversation Window lifecycle state.
type WindowStatus string

const (
	WindowActive  WindowStatus = "active"
	WindowExpired WindowStatus = "expired"
)

// ReminderStage is one of the five ledger-enforced reminder thresholds.
type ReminderStage string

const (
	StageS1 ReminderStage = "S1"
	StageS2 ReminderStage = "S2"
	StageS3 ReminderStage = "S3"
	StageS4 ReminderStage = "S4"
	StageS5 ReminderStage = "S5"
)

// ReminderStages lists every stage in ascending urgency order.
var ReminderStages = []ReminderStage{StageS1, StageS2, StageS3, StageS4, StageS5}

// ConversationWindow is the 0..1-per-user open outbound window.
type ConversationWindow struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Status           WindowStatus
	StartedAt        time.Time
	LastActivityAt   time.Time
	MessagesInWindow int
	SentStages       map[ReminderStage]bool
}

// ReminderLogEntry is one append-only idempotency record.
type ReminderLogEntry struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	WindowID uuid.UUID
	Stage    ReminderStage
	SentAt   time.Time
}

package domain

// ConflictKind classifies what two annotations disagree about.
type ConflictKind string

const (
	KindSpanOverlap         ConflictKind = "span_overlap"
	KindLabelConflict       ConflictKind = "label_conflict"
	KindSpanMismatch        ConflictKind = "span_mismatch"
	KindContextDisagreement ConflictKind = "context_disagreement"
	KindQualityDispute      ConflictKind = "quality_dispute"
)

// Severity bands a conflict by how disruptive it is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Conflict lifecycle statuses. Resolved, dismissed and archived are terminal.
const (
	StatusDetected     = "detected"
	StatusAssigned     = "assigned"
	StatusInReview     = "in_review"
	StatusVoting       = "voting"
	StatusExpertReview = "expert_review"
	StatusResolved     = "resolved"
	StatusDismissed    = "dismissed"
	StatusArchived     = "archived"
)

// VoteChoice is what a voter wants done with a conflict.
type VoteChoice string

const (
	ChoiceAnnotationA VoteChoice = "annotation_a"
	ChoiceAnnotationB VoteChoice = "annotation_b"
	ChoiceMerge       VoteChoice = "merge"
	ChoiceRejectBoth  VoteChoice = "reject_both"
	ChoiceEscalate    VoteChoice = "escalate"
)

type Project struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

type Text struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// Annotation is a labeled half-open span [Start, End) over a text.
// Invariant: Start < End, Confidence in [0,1].
type Annotation struct {
	ID           string  `json:"id"`
	TextID       string  `json:"text_id"`
	ProjectID    string  `json:"project_id"`
	AnnotatorID  string  `json:"annotator_id"`
	LabelID      string  `json:"label_id"`
	Start        int     `json:"start"`
	End          int     `json:"end"`
	SelectedText string  `json:"selected_text,omitempty"`
	Confidence   float64 `json:"confidence"`
	CreatedAt    string  `json:"created_at" format:"date-time"`
}

// Conflict is a detected disagreement between two annotations.
// At most one open (non-terminal) conflict may exist per unordered
// annotation pair and kind.
type Conflict struct {
	ID               string       `json:"id"`
	ProjectID        string       `json:"project_id"`
	TextID           string       `json:"text_id"`
	Kind             ConflictKind `json:"kind"`
	Severity         Severity     `json:"severity"`
	Score            float64      `json:"score"`
	AnnotationAID    string       `json:"annotation_a_id"`
	AnnotationBID    string       `json:"annotation_b_id"`
	Status           string       `json:"status" enum:"detected,assigned,in_review,voting,expert_review,resolved,dismissed,archived"`
	AssignedResolver *string      `json:"assigned_resolver,omitempty"`
	Deadline         *string      `json:"deadline,omitempty" format:"date-time"`
	DetectedAt       string       `json:"detected_at" format:"date-time"`
	ResolvedAt       *string      `json:"resolved_at,omitempty" format:"date-time"`
}

// Vote is one voter's choice on a conflict. Resubmission overwrites;
// the (conflict_id, voter_id) pair is unique.
type Vote struct {
	ConflictID string     `json:"conflict_id"`
	VoterID    string     `json:"voter_id"`
	Choice     VoteChoice `json:"choice"`
	Weight     float64    `json:"weight"`
	Confidence *float64   `json:"confidence,omitempty"`
	Rationale  string     `json:"rationale,omitempty"`
	CreatedAt  string     `json:"created_at" format:"date-time"`
	UpdatedAt  string     `json:"updated_at" format:"date-time"`
}

// Resolution is one resolution attempt; the trail is append-only and a
// conflict may accumulate several before reaching a terminal status.
type Resolution struct {
	ID                string   `json:"id"`
	ConflictID        string   `json:"conflict_id"`
	Strategy          string   `json:"strategy"`
	Outcome           string   `json:"outcome,omitempty"`
	ConfidenceScore   *float64 `json:"confidence_score,omitempty"`
	FinalAnnotationID *string  `json:"final_annotation_id,omitempty"`
	ResolverID        string   `json:"resolver_id"`
	Description       string   `json:"description,omitempty"`
	CreatedAt         string   `json:"created_at" format:"date-time"`
	CompletedAt       *string  `json:"completed_at,omitempty" format:"date-time"`
}

// AgreementRecord is a stored inter-annotator agreement score. Weighted
// voting reads an annotator's history of these to derive vote weights.
type AgreementRecord struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"project_id"`
	AnnotatorA  string  `json:"annotator_a"`
	AnnotatorB  string  `json:"annotator_b,omitempty"`
	Method      string  `json:"method"`
	Coefficient float64 `json:"coefficient"`
	NItems      int     `json:"n_items"`
	ComputedAt  string  `json:"computed_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	ProjectID  string `json:"project_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

// IsTerminalStatus reports whether a conflict status has no further
// transitions.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusResolved, StatusDismissed, StatusArchived:
		return true
	}
	return false
}

// PairKey returns the unordered annotation pair key used for conflict
// dedup. Symmetric in its arguments.
func PairKey(annotationA, annotationB string) string {
	if annotationB < annotationA {
		annotationA, annotationB = annotationB, annotationA
	}
	return annotationA + "|" + annotationB
}

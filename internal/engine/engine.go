package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"concord/internal/config"
	"concord/internal/conflict"
	"concord/internal/domain"
	"concord/internal/events"
	"concord/internal/repo"
	"concord/internal/resolution"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// InitProject initializes a new project with migrations already run.
func (e Engine) InitProject(ctx context.Context, projectID, description, actorID string) (domain.Project, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()

	p := domain.Project{
		ID:          projectID,
		Status:      "active",
		Description: description,
		CreatedAt:   e.now().UTC().Format(time.RFC3339),
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO projects(id,status,description,created_at) VALUES (?,?,?,?)`,
		p.ID, p.Status, nullable(p.Description), p.CreatedAt); err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	if err := e.Repo.UpsertProjectConfigTx(ctx, tx, p.ID, config.Default(p.ID)); err != nil {
		return domain.Project{}, fmt.Errorf("insert project config: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "project.init", p.ID, "project", p.ID, actorID, events.EventPayload{"status": p.Status}); err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// AddText registers a text for annotation.
func (e Engine) AddText(ctx context.Context, projectID, textID, content, actorID string) (domain.Text, error) {
	if e.Config == nil {
		return domain.Text{}, errors.New("config not loaded")
	}
	if content == "" {
		return domain.Text{}, errors.New("content is required")
	}
	if _, err := e.Repo.GetProject(ctx, projectID); err != nil {
		return domain.Text{}, err
	}
	if textID == "" {
		textID = uuid.New().String()
	}
	t := domain.Text{
		ID:        textID,
		ProjectID: projectID,
		Content:   content,
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return t, err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO texts(id,project_id,content,created_at) VALUES (?,?,?,?)`,
		t.ID, t.ProjectID, t.Content, t.CreatedAt); err != nil {
		return t, err
	}
	if err := e.Events.Append(ctx, tx, "text.added", projectID, "text", t.ID, actorID, events.EventPayload{"length": len(content)}); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	return t, nil
}

// AnnotationCreateOptions are parameters for recording an annotation.
type AnnotationCreateOptions struct {
	ID          string
	ProjectID   string
	TextID      string
	AnnotatorID string
	LabelID     string
	Start       int
	End         int
	Confidence  float64
	ActorID     string
}

// AddAnnotation records one annotator's labeled span over a text. The
// span must be half-open [start, end) within the text, and confidence
// must sit in [0,1].
func (e Engine) AddAnnotation(ctx context.Context, opts AnnotationCreateOptions) (domain.Annotation, error) {
	if e.Config == nil {
		return domain.Annotation{}, errors.New("config not loaded")
	}
	if opts.AnnotatorID == "" {
		return domain.Annotation{}, errors.New("annotator is required")
	}
	if opts.LabelID == "" {
		return domain.Annotation{}, errors.New("label is required")
	}
	if opts.Start < 0 || opts.Start >= opts.End {
		return domain.Annotation{}, fmt.Errorf("invalid span [%d,%d): start must be non-negative and below end", opts.Start, opts.End)
	}
	if opts.Confidence < 0 || opts.Confidence > 1 {
		return domain.Annotation{}, fmt.Errorf("confidence %.3f outside [0,1]", opts.Confidence)
	}
	text, err := e.Repo.GetText(ctx, opts.TextID)
	if err != nil {
		return domain.Annotation{}, err
	}
	if text.ProjectID != opts.ProjectID {
		return domain.Annotation{}, fmt.Errorf("text %s not in project %s", opts.TextID, opts.ProjectID)
	}
	if opts.End > len(text.Content) {
		return domain.Annotation{}, fmt.Errorf("span end %d beyond text length %d", opts.End, len(text.Content))
	}
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	a := domain.Annotation{
		ID:           id,
		TextID:       opts.TextID,
		ProjectID:    opts.ProjectID,
		AnnotatorID:  opts.AnnotatorID,
		LabelID:      opts.LabelID,
		Start:        opts.Start,
		End:          opts.End,
		SelectedText: text.Content[opts.Start:opts.End],
		Confidence:   opts.Confidence,
		CreatedAt:    e.now().UTC().Format(time.RFC3339),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return a, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertAnnotationTx(ctx, tx, a); err != nil {
		return a, err
	}
	if err := e.Events.Append(ctx, tx, "annotation.added", a.ProjectID, "annotation", a.ID, opts.ActorID, events.EventPayload{
		"annotator": a.AnnotatorID,
		"label":     a.LabelID,
		"start":     a.Start,
		"end":       a.End,
	}); err != nil {
		return a, err
	}
	if err := tx.Commit(); err != nil {
		return a, err
	}
	return a, nil
}

// DetectConflicts scans the project's annotations and persists any new
// conflicts. Re-running is idempotent: candidates matching an open
// conflict on the same annotation pair and kind are skipped, and
// conflict ids are content-derived.
func (e Engine) DetectConflicts(ctx context.Context, projectID, actorID string, workers int) ([]domain.Conflict, error) {
	if e.Config == nil {
		return nil, errors.New("config not loaded")
	}
	if _, err := e.Repo.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	annotations, err := e.Repo.ListAnnotations(ctx, repo.AnnotationFilters{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	open, err := e.Repo.ListOpenConflicts(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var candidates []conflict.Candidate
	if workers > 1 {
		candidates, err = conflict.DetectSharded(ctx, annotations, open, e.Config.Detection, workers)
		if err != nil {
			return nil, err
		}
	} else {
		candidates = conflict.Detect(annotations, open, e.Config.Detection)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	now := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var created []domain.Conflict
	for _, cand := range candidates {
		// Deterministic ids make concurrent first detections converge
		// on one row. A pair whose prior conflict went terminal is
		// detected again as a new generation and needs a fresh id.
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("conflict|"+cand.PairKey())).String()
		if _, err := e.Repo.GetConflictTx(ctx, tx, id); err == nil {
			id = uuid.New().String()
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		c := domain.Conflict{
			ID:            id,
			ProjectID:     cand.ProjectID,
			TextID:        cand.TextID,
			Kind:          cand.Kind,
			Severity:      cand.Severity,
			Score:         cand.Score,
			AnnotationAID: cand.AnnotationAID,
			AnnotationBID: cand.AnnotationBID,
			Status:        domain.StatusDetected,
			DetectedAt:    now,
		}
		if err := e.Repo.InsertConflictTx(ctx, tx, c); err != nil {
			return nil, fmt.Errorf("insert conflict %s: %w", c.ID, err)
		}
		if err := e.Events.Append(ctx, tx, events.TypeConflictDetected, c.ProjectID, "conflict", c.ID, actorID, events.EventPayload{
			"kind":     string(c.Kind),
			"severity": string(c.Severity),
			"score":    c.Score,
		}); err != nil {
			return nil, err
		}
		created = append(created, c)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

// AssignResolver moves a conflict to assigned and sets its deadline
// from the resolution timeout.
func (e Engine) AssignResolver(ctx context.Context, conflictID, resolverID, actorID string, force bool) (domain.Conflict, error) {
	if e.Config == nil {
		return domain.Conflict{}, errors.New("config not loaded")
	}
	if resolverID == "" {
		return domain.Conflict{}, errors.New("resolver is required")
	}
	c, err := e.Repo.GetConflict(ctx, conflictID)
	if err != nil {
		return c, err
	}
	if err := ensureConflictTransition(c.Status, domain.StatusAssigned, force); err != nil {
		return c, err
	}
	deadline := e.now().UTC().Add(e.Config.Resolution.ResolutionTimeout.Std()).Format(time.RFC3339)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return c, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateConflictResolver(ctx, tx, c.ID, domain.StatusAssigned, &resolverID, &deadline); err != nil {
		return c, err
	}
	if err := e.Events.Append(ctx, tx, events.TypeConflictAssigned, c.ProjectID, "conflict", c.ID, actorID, events.EventPayload{
		"resolver": resolverID,
		"deadline": deadline,
	}); err != nil {
		return c, err
	}
	if err := tx.Commit(); err != nil {
		return c, err
	}
	c.Status = domain.StatusAssigned
	c.AssignedResolver = &resolverID
	c.Deadline = &deadline
	return c, nil
}

// VoteOptions are parameters for casting a vote on a conflict.
type VoteOptions struct {
	ConflictID string
	VoterID    string
	Choice     domain.VoteChoice
	Weight     float64
	Confidence *float64
	Rationale  string
	ActorID    string
	Force      bool
}

// SubmitVote records or overwrites a voter's choice and moves the
// conflict into voting if it is not there yet.
func (e Engine) SubmitVote(ctx context.Context, opts VoteOptions) (domain.Vote, error) {
	if e.Config == nil {
		return domain.Vote{}, errors.New("config not loaded")
	}
	if opts.VoterID == "" {
		return domain.Vote{}, errors.New("voter is required")
	}
	switch opts.Choice {
	case domain.ChoiceAnnotationA, domain.ChoiceAnnotationB, domain.ChoiceMerge, domain.ChoiceRejectBoth, domain.ChoiceEscalate:
	default:
		return domain.Vote{}, fmt.Errorf("unknown vote choice %q", opts.Choice)
	}
	if opts.Confidence != nil && (*opts.Confidence < 0 || *opts.Confidence > 1) {
		return domain.Vote{}, fmt.Errorf("vote confidence %.3f outside [0,1]", *opts.Confidence)
	}
	c, err := e.Repo.GetConflict(ctx, opts.ConflictID)
	if err != nil {
		return domain.Vote{}, err
	}
	if domain.IsTerminalStatus(c.Status) && !opts.Force {
		return domain.Vote{}, fmt.Errorf("conflict %s is %s; no further votes", c.ID, c.Status)
	}
	if c.Status != domain.StatusVoting {
		if err := ensureConflictTransition(c.Status, domain.StatusVoting, opts.Force); err != nil {
			return domain.Vote{}, err
		}
	}
	if opts.Weight <= 0 {
		opts.Weight = 1.0
	}
	now := e.now().UTC().Format(time.RFC3339)
	v := domain.Vote{
		ConflictID: c.ID,
		VoterID:    opts.VoterID,
		Choice:     opts.Choice,
		Weight:     opts.Weight,
		Confidence: opts.Confidence,
		Rationale:  opts.Rationale,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return v, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpsertVote(ctx, tx, v); err != nil {
		return v, err
	}
	if c.Status != domain.StatusVoting {
		if err := e.Repo.UpdateConflictStatus(ctx, tx, c.ID, domain.StatusVoting); err != nil {
			return v, err
		}
	}
	if err := e.Events.Append(ctx, tx, events.TypeVoteSubmitted, c.ProjectID, "conflict", c.ID, opts.ActorID, events.EventPayload{
		"voter":  v.VoterID,
		"choice": string(v.Choice),
	}); err != nil {
		return v, err
	}
	if err := tx.Commit(); err != nil {
		return v, err
	}
	return v, nil
}

// ResolveOptions are parameters for a resolution attempt.
type ResolveOptions struct {
	ConflictID string
	// Strategy pins a strategy; empty lets the engine select one.
	Strategy string
	ActorID  string
	Force    bool
}

// ResolveConflict runs one resolution attempt. Success closes the
// conflict; an applicable failure is recorded on the append-only
// resolution trail and may trigger escalation. A not-applicable
// strategy leaves the conflict untouched.
func (e Engine) ResolveConflict(ctx context.Context, opts ResolveOptions) (resolution.Result, error) {
	if e.Config == nil {
		return resolution.Result{}, errors.New("config not loaded")
	}
	c, err := e.Repo.GetConflict(ctx, opts.ConflictID)
	if err != nil {
		return resolution.Result{}, err
	}
	if domain.IsTerminalStatus(c.Status) && !opts.Force {
		return resolution.Result{}, fmt.Errorf("conflict %s is %s; nothing to resolve", c.ID, c.Status)
	}
	annA, err := e.Repo.GetAnnotation(ctx, c.AnnotationAID)
	if err != nil {
		return resolution.Result{}, fmt.Errorf("annotation A: %w", err)
	}
	annB, err := e.Repo.GetAnnotation(ctx, c.AnnotationBID)
	if err != nil {
		return resolution.Result{}, fmt.Errorf("annotation B: %w", err)
	}
	votes, err := e.Repo.ListVotes(ctx, c.ID)
	if err != nil {
		return resolution.Result{}, err
	}
	history, err := e.Repo.KappaHistory(ctx, c.ProjectID)
	if err != nil {
		return resolution.Result{}, err
	}
	detectedAt, err := time.Parse(time.RFC3339, c.DetectedAt)
	if err != nil {
		return resolution.Result{}, fmt.Errorf("conflict %s detected_at: %w", c.ID, err)
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return resolution.Result{}, err
	}
	defer tx.Rollback()

	attempts, err := e.Repo.CountResolutionAttempts(ctx, tx, c.ID)
	if err != nil {
		return resolution.Result{}, err
	}
	rctx := resolution.Context{
		Conflict:     c,
		AnnotationA:  annA,
		AnnotationB:  annB,
		Votes:        votes,
		KappaHistory: history,
		Settings:     e.Config.Resolution,
		DetectedAt:   detectedAt,
		Now:          e.now().UTC(),
		Attempts:     attempts,
	}
	strategy := resolution.Strategy(opts.Strategy)
	if strategy == "" {
		strategy = resolution.Select(rctx)
	}

	result := resolution.Resolve(strategy, rctx)
	if result.Status == resolution.NotApplicable {
		return result, nil
	}

	now := e.now().UTC().Format(time.RFC3339)
	res := domain.Resolution{
		ID:          uuid.New().String(),
		ConflictID:  c.ID,
		Strategy:    string(result.Strategy),
		Outcome:     string(result.Outcome),
		ResolverID:  opts.ActorID,
		Description: result.Description,
		CreatedAt:   now,
	}
	if result.Confidence > 0 {
		conf := result.Confidence
		res.ConfidenceScore = &conf
	}

	if result.Status == resolution.Succeeded {
		finalID := result.FinalAnnotationID
		if result.Merged != nil {
			merged := domain.Annotation{
				ID:          uuid.New().String(),
				TextID:      c.TextID,
				ProjectID:   c.ProjectID,
				AnnotatorID: opts.ActorID,
				LabelID:     result.Merged.LabelID,
				Start:       result.Merged.Start,
				End:         result.Merged.End,
				Confidence:  result.Merged.Confidence,
				CreatedAt:   now,
			}
			text, err := e.Repo.GetText(ctx, c.TextID)
			if err != nil {
				return result, fmt.Errorf("merged annotation text: %w", err)
			}
			if merged.End <= len(text.Content) {
				merged.SelectedText = text.Content[merged.Start:merged.End]
			}
			if err := e.Repo.InsertAnnotationTx(ctx, tx, merged); err != nil {
				return result, fmt.Errorf("insert merged annotation: %w", err)
			}
			finalID = merged.ID
			result.FinalAnnotationID = merged.ID
		}
		if finalID != "" {
			res.FinalAnnotationID = &finalID
		}
		res.CompletedAt = &now
		if err := ensureConflictTransition(c.Status, domain.StatusResolved, opts.Force); err != nil {
			return result, err
		}
		if err := e.Repo.InsertResolutionTx(ctx, tx, res); err != nil {
			return result, err
		}
		if err := e.Repo.MarkConflictResolved(ctx, tx, c.ID, domain.StatusResolved, now); err != nil {
			return result, err
		}
		if err := e.Events.Append(ctx, tx, events.TypeConflictResolved, c.ProjectID, "conflict", c.ID, opts.ActorID, events.EventPayload{
			"strategy":   string(result.Strategy),
			"outcome":    string(result.Outcome),
			"confidence": result.Confidence,
		}); err != nil {
			return result, err
		}
		if err := tx.Commit(); err != nil {
			return result, err
		}
		return result, nil
	}

	// Applicable but failed: record the attempt, then decide escalation.
	if err := e.Repo.InsertResolutionTx(ctx, tx, res); err != nil {
		return result, err
	}
	if err := e.Events.Append(ctx, tx, events.TypeResolutionAttemptFailed, c.ProjectID, "conflict", c.ID, opts.ActorID, events.EventPayload{
		"strategy": string(result.Strategy),
		"reason":   string(result.Reason),
	}); err != nil {
		return result, err
	}

	rctx.Attempts = attempts + 1
	escalate := resolution.EscalationDue(rctx) ||
		(result.Reason == resolution.ReasonEscalationRequested && e.Config.Resolution.EscalationEnabled)
	if escalate {
		if c.AssignedResolver != nil {
			if err := ensureConflictTransition(c.Status, domain.StatusExpertReview, opts.Force); err == nil {
				if err := e.Repo.UpdateConflictStatus(ctx, tx, c.ID, domain.StatusExpertReview); err != nil {
					return result, err
				}
				if err := e.Events.Append(ctx, tx, events.TypeConflictEscalated, c.ProjectID, "conflict", c.ID, opts.ActorID, events.EventPayload{
					"resolver": *c.AssignedResolver,
					"attempts": rctx.Attempts,
				}); err != nil {
					return result, err
				}
			}
		} else {
			// No resolver to hand the conflict to; flag it instead of
			// guessing one.
			if err := e.Events.Append(ctx, tx, events.TypeEscalationRequired, c.ProjectID, "conflict", c.ID, opts.ActorID, events.EventPayload{
				"attempts": rctx.Attempts,
			}); err != nil {
				return result, err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return result, err
	}
	return result, nil
}

// EscalateConflict hands a conflict to an expert. The resolver is
// explicit; escalation never guesses one.
func (e Engine) EscalateConflict(ctx context.Context, conflictID, resolverID, actorID string, force bool) (domain.Conflict, error) {
	if e.Config == nil {
		return domain.Conflict{}, errors.New("config not loaded")
	}
	if resolverID == "" {
		return domain.Conflict{}, errors.New("resolver is required for escalation")
	}
	c, err := e.Repo.GetConflict(ctx, conflictID)
	if err != nil {
		return c, err
	}
	if err := ensureConflictTransition(c.Status, domain.StatusExpertReview, force); err != nil {
		return c, err
	}
	deadline := e.now().UTC().Add(e.Config.Resolution.ResolutionTimeout.Std()).Format(time.RFC3339)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return c, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateConflictResolver(ctx, tx, c.ID, domain.StatusExpertReview, &resolverID, &deadline); err != nil {
		return c, err
	}
	if err := e.Events.Append(ctx, tx, events.TypeConflictEscalated, c.ProjectID, "conflict", c.ID, actorID, events.EventPayload{
		"resolver": resolverID,
	}); err != nil {
		return c, err
	}
	if err := tx.Commit(); err != nil {
		return c, err
	}
	c.Status = domain.StatusExpertReview
	c.AssignedResolver = &resolverID
	c.Deadline = &deadline
	return c, nil
}

// DismissConflict closes a conflict without an outcome.
func (e Engine) DismissConflict(ctx context.Context, conflictID, reason, actorID string, force bool) (domain.Conflict, error) {
	if e.Config == nil {
		return domain.Conflict{}, errors.New("config not loaded")
	}
	c, err := e.Repo.GetConflict(ctx, conflictID)
	if err != nil {
		return c, err
	}
	if err := ensureConflictTransition(c.Status, domain.StatusDismissed, force); err != nil {
		return c, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return c, err
	}
	defer tx.Rollback()
	if err := e.Repo.MarkConflictResolved(ctx, tx, c.ID, domain.StatusDismissed, now); err != nil {
		return c, err
	}
	if err := e.Events.Append(ctx, tx, events.TypeConflictDismissed, c.ProjectID, "conflict", c.ID, actorID, events.EventPayload{
		"reason": reason,
	}); err != nil {
		return c, err
	}
	if err := tx.Commit(); err != nil {
		return c, err
	}
	c.Status = domain.StatusDismissed
	c.ResolvedAt = &now
	return c, nil
}

// ArchiveConflict moves a terminal conflict into the archive.
func (e Engine) ArchiveConflict(ctx context.Context, conflictID, actorID string, force bool) (domain.Conflict, error) {
	c, err := e.Repo.GetConflict(ctx, conflictID)
	if err != nil {
		return c, err
	}
	if err := ensureConflictTransition(c.Status, domain.StatusArchived, force); err != nil {
		return c, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return c, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateConflictStatus(ctx, tx, c.ID, domain.StatusArchived); err != nil {
		return c, err
	}
	if err := tx.Commit(); err != nil {
		return c, err
	}
	c.Status = domain.StatusArchived
	return c, nil
}

// ensureConflictTransition enforces the conflict lifecycle. Detected
// conflicts may resolve directly so auto-merge does not need a detour
// through assignment.
func ensureConflictTransition(oldStatus, newStatus string, force bool) error {
	if force {
		return nil
	}
	switch oldStatus {
	case domain.StatusDetected:
		switch newStatus {
		case domain.StatusAssigned, domain.StatusInReview, domain.StatusVoting, domain.StatusResolved, domain.StatusDismissed:
			return nil
		}
	case domain.StatusAssigned:
		switch newStatus {
		case domain.StatusInReview, domain.StatusVoting, domain.StatusExpertReview, domain.StatusResolved, domain.StatusDismissed:
			return nil
		}
	case domain.StatusInReview:
		switch newStatus {
		case domain.StatusVoting, domain.StatusExpertReview, domain.StatusResolved, domain.StatusDismissed:
			return nil
		}
	case domain.StatusVoting:
		switch newStatus {
		case domain.StatusExpertReview, domain.StatusResolved, domain.StatusDismissed:
			return nil
		}
	case domain.StatusExpertReview:
		switch newStatus {
		case domain.StatusResolved, domain.StatusDismissed:
			return nil
		}
	case domain.StatusResolved, domain.StatusDismissed:
		if newStatus == domain.StatusArchived {
			return nil
		}
	}
	return fmt.Errorf("invalid conflict status transition %s -> %s", oldStatus, newStatus)
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

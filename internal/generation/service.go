package generation

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"headshot-server/internal/domain"
	"headshot-server/internal/infra"
	"headshot-server/internal/ledger"
	"headshot-server/internal/predict"
)

// Predictor is the slice of the prediction client the orchestrator needs.
type Predictor interface {
	Create(ctx context.Context, req predict.CreateRequest) (*predict.Prediction, error)
	Get(ctx context.Context, id string) (*predict.Prediction, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// Previewer derives the degraded preview from raw image bytes.
type Previewer func(data []byte) ([]byte, error)

// Costs captures the credit policy for the three paid operations.
type Costs struct {
	Generate int64
	Unlock   int64
	Enhance  int64
	// RefundEnhanceOnFail controls whether a debited enhancement is credited
	// back when its job ends failed. Off by default.
	RefundEnhanceOnFail bool
}

// Service drives the generation state machine: submit, poll, materialize,
// unlock, enhance. A record is persisted only once the upstream job
// succeeded; until then the prediction id is the caller's only handle.
type Service struct {
	generations domain.GenerationRepository
	ledger      ledger.Service
	predictor   Predictor
	derive      Previewer
	model       string
	costs       Costs
	logger      infra.Logger
}

// NewService wires the orchestrator.
func NewService(generations domain.GenerationRepository, credits ledger.Service, predictor Predictor, derive Previewer, model string, costs Costs, logger infra.Logger) *Service {
	return &Service{
		generations: generations,
		ledger:      credits,
		predictor:   predictor,
		derive:      derive,
		model:       model,
		costs:       costs,
		logger:      logger,
	}
}

// Costs exposes the configured credit policy to the boundary layer.
func (s *Service) Costs() Costs {
	return s.costs
}

// JobState is the reduced status surface exposed to clients.
type JobState string

const (
	JobStatePending   JobState = "pending"
	JobStateSucceeded JobState = "succeeded"
	JobStateFailed    JobState = "failed"
)

// JobStatus is the poll response for an in-flight job.
type JobStatus struct {
	ID    string
	State JobState
	Error string
}

// Start submits a new generation job. Authenticated callers must hold at
// least the generation cost; nothing is charged here (generation is paid at
// unlock time). Anonymous submissions pass through without a balance check.
func (s *Service) Start(ctx context.Context, accountID *string, imageDataURI, style string) (string, error) {
	if strings.TrimSpace(imageDataURI) == "" {
		return "", errors.New("generation: no image provided")
	}
	if accountID != nil {
		balance, err := s.ledger.Balance(ctx, *accountID)
		if err != nil {
			return "", err
		}
		if balance < s.costs.Generate {
			return "", &domain.InsufficientCreditsError{Required: s.costs.Generate, Available: balance}
		}
	}

	prompt, _ := BuildStylePrompt(style)
	pred, err := s.predictor.Create(ctx, predict.CreateRequest{
		Model:        s.model,
		Prompt:       prompt,
		InputImages:  []string{imageDataURI},
		OutputFormat: "jpg",
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	s.logger.Info().Str("job_id", pred.ID).Str("style", style).Msg("generation submitted")
	return pred.ID, nil
}

// Status forwards the upstream job status. Terminal statuses are stable:
// re-polling a finished job yields the same result on every call.
func (s *Service) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	pred, err := s.predictor.Get(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	return &JobStatus{ID: pred.ID, State: reduceState(pred.Status), Error: pred.Error}, nil
}

// AwaitTerminal polls the upstream job until it leaves the pending state.
// When the deadline passes first, the last observed status is returned
// together with ErrPollTimeout so callers can fall back to plain polling.
func (s *Service) AwaitTerminal(ctx context.Context, jobID string, opts PollOptions) (*JobStatus, error) {
	var last *JobStatus
	err := PollUntilTerminal(ctx, opts, func(ctx context.Context) (bool, error) {
		status, err := s.Status(ctx, jobID)
		if err != nil {
			return false, err
		}
		last = status
		return status.State != JobStatePending, nil
	})
	if err != nil && !errors.Is(err, ErrPollTimeout) {
		return nil, err
	}
	return last, err
}

// MaterializeResult carries the newly persisted locked record. Only the
// preview leaves this step; the original stays behind the unlock.
type MaterializeResult struct {
	GenerationID string
	Preview      string
}

// Materialize fetches the finished job's output, derives the preview and
// persists the record in its locked state.
func (s *Service) Materialize(ctx context.Context, jobID string, accountID *string, style string) (*MaterializeResult, error) {
	raw, err := s.fetchOutput(ctx, jobID)
	if err != nil {
		return nil, err
	}
	previewBytes, err := s.derive(raw)
	if err != nil {
		return nil, fmt.Errorf("generation: derive preview: %w", err)
	}

	prompt, tag := BuildStylePrompt(style)
	g := &domain.Generation{
		ID:            uuid.NewString(),
		AccountID:     accountID,
		Prompt:        prompt,
		Style:         tag,
		OriginalImage: dataURI(raw),
		PreviewImage:  dataURI(previewBytes),
		Status:        domain.GenerationStatusCompleted,
		Unlocked:      false,
		Cost:          s.costs.Generate,
	}
	if err := s.generations.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("generation: persist: %w", err)
	}
	s.logger.Info().Str("generation_id", g.ID).Str("job_id", jobID).Msg("generation materialized")
	return &MaterializeResult{GenerationID: g.ID, Preview: g.PreviewImage}, nil
}

// Unlock charges the unlock cost and reveals the original. An unclaimed
// record is claimed by the caller; a record owned by someone else is
// indistinguishable from a missing one. Re-unlocking an already unlocked
// record returns the original without charging again.
func (s *Service) Unlock(ctx context.Context, generationID, accountID string) (string, error) {
	g, err := s.generations.GetByID(ctx, generationID)
	if err != nil {
		return "", err
	}
	if claimOrVerifyOwner(g, accountID) == ownershipDenied {
		return "", domain.ErrNotFound
	}
	if g.Unlocked {
		return g.OriginalImage, nil
	}

	err = s.generations.Unlock(ctx, g.ID, accountID, s.costs.Unlock)
	if errors.Is(err, domain.ErrDuplicateOperation) {
		// Lost a race with a concurrent unlock; nothing was charged.
		g, err = s.generations.GetByID(ctx, generationID)
		if err != nil {
			return "", err
		}
		if g.Unlocked && g.Owner() == accountID {
			return g.OriginalImage, nil
		}
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	s.logger.Info().Str("generation_id", g.ID).Str("account_id", accountID).Msg("generation unlocked")
	return g.OriginalImage, nil
}

// Enhance charges the enhancement cost up front and submits an edit job
// using the parent's unlocked image as input. The parent must be owned by
// the caller and unlocked; the charge is a pre-authorization and is only
// refunded on job failure when the refund policy is enabled.
func (s *Service) Enhance(ctx context.Context, generationID, accountID, kind string) (string, error) {
	g, err := s.generations.GetByID(ctx, generationID)
	if err != nil {
		return "", err
	}
	if g.Owner() != accountID {
		return "", domain.ErrNotFound
	}
	if !g.Unlocked {
		return "", domain.ErrGenerationLocked
	}

	if err := s.ledger.Debit(ctx, accountID, s.costs.Enhance, "enhance", ""); err != nil {
		return "", err
	}

	instruction, _ := BuildEnhancementPrompt(kind)
	pred, err := s.predictor.Create(ctx, predict.CreateRequest{
		Model:        s.model,
		Prompt:       instruction,
		InputImages:  []string{g.OriginalImage},
		OutputFormat: "jpg",
	})
	if err != nil {
		if s.costs.RefundEnhanceOnFail {
			if creditErr := s.ledger.Credit(ctx, accountID, s.costs.Enhance, "refund", ""); creditErr != nil {
				s.logger.Error().Err(creditErr).Str("account_id", accountID).Msg("refund after failed submit")
			}
		}
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	s.logger.Info().Str("job_id", pred.ID).Str("parent_id", g.ID).Str("kind", kind).Msg("enhancement submitted")
	return pred.ID, nil
}

// EnhancementResult carries the chained child record. Enhancements are
// pre-paid, so the child is born unlocked and the full image is returned.
type EnhancementResult struct {
	GenerationID string
	Image        string
}

// MaterializeEnhancement persists the finished enhancement as a new record
// chained to its parent. The parent is never mutated.
func (s *Service) MaterializeEnhancement(ctx context.Context, jobID, parentID, accountID, kind string) (*EnhancementResult, error) {
	parent, err := s.generations.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.Owner() != accountID {
		return nil, domain.ErrNotFound
	}
	if !parent.Unlocked {
		return nil, domain.ErrGenerationLocked
	}

	raw, err := s.fetchOutput(ctx, jobID)
	if err != nil {
		return nil, err
	}
	previewBytes, err := s.derive(raw)
	if err != nil {
		return nil, fmt.Errorf("generation: derive preview: %w", err)
	}

	instruction, label := BuildEnhancementPrompt(kind)
	child := &domain.Generation{
		ID:            uuid.NewString(),
		AccountID:     &accountID,
		ParentID:      &parent.ID,
		Prompt:        instruction,
		Style:         label,
		OriginalImage: dataURI(raw),
		PreviewImage:  dataURI(previewBytes),
		Status:        domain.GenerationStatusCompleted,
		Unlocked:      true,
		Cost:          s.costs.Enhance,
	}
	if err := s.generations.Create(ctx, child); err != nil {
		return nil, fmt.Errorf("generation: persist: %w", err)
	}
	s.logger.Info().Str("generation_id", child.ID).Str("parent_id", parent.ID).Msg("enhancement materialized")
	return &EnhancementResult{GenerationID: child.ID, Image: child.OriginalImage}, nil
}

// ResolveFailedEnhancement applies the refund policy for an enhancement job
// that ended failed or canceled. The refund is keyed on the job id, so
// repeated calls credit at most once.
func (s *Service) ResolveFailedEnhancement(ctx context.Context, jobID, accountID string) (bool, error) {
	if !s.costs.RefundEnhanceOnFail {
		return false, nil
	}
	pred, err := s.predictor.Get(ctx, jobID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	if pred.Status != predict.StatusFailed && pred.Status != predict.StatusCanceled {
		return false, nil
	}
	err = s.ledger.Credit(ctx, accountID, s.costs.Enhance, "refund", "refund:"+jobID)
	if errors.Is(err, domain.ErrDuplicateOperation) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.logger.Info().Str("job_id", jobID).Str("account_id", accountID).Msg("enhancement refunded")
	return true, nil
}

// ListRecent returns the account's gallery: completed records, newest first,
// preview for locked entries and original for unlocked ones.
func (s *Service) ListRecent(ctx context.Context, accountID string, limit int) ([]domain.GalleryItem, error) {
	if limit <= 0 {
		limit = 10
	}
	generations, err := s.generations.ListCompletedByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, err
	}
	items := make([]domain.GalleryItem, 0, len(generations))
	for _, g := range generations {
		items = append(items, domain.GalleryItemFrom(g))
	}
	return items, nil
}

// fetchOutput loads the raw output of a job that must already have
// succeeded. Failed jobs surface ErrUpstreamFailed, unfinished ones
// ErrJobNotFinished.
func (s *Service) fetchOutput(ctx context.Context, jobID string) ([]byte, error) {
	pred, err := s.predictor.Get(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	switch {
	case pred.Status == predict.StatusFailed || pred.Status == predict.StatusCanceled:
		if pred.Error != "" {
			return nil, fmt.Errorf("%w: %s", domain.ErrUpstreamFailed, pred.Error)
		}
		return nil, domain.ErrUpstreamFailed
	case !pred.Status.Terminal():
		return nil, domain.ErrJobNotFinished
	case len(pred.Output) == 0:
		return nil, fmt.Errorf("%w: job succeeded without output", domain.ErrUpstreamFailed)
	}
	raw, err := s.predictor.Download(ctx, pred.Output[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	return raw, nil
}

func reduceState(status predict.Status) JobState {
	switch status {
	case predict.StatusSucceeded:
		return JobStateSucceeded
	case predict.StatusFailed, predict.StatusCanceled:
		return JobStateFailed
	default:
		return JobStatePending
	}
}

type ownership int

const (
	ownershipClaimed ownership = iota
	ownershipVerified
	ownershipDenied
)

// claimOrVerifyOwner decides whether the caller may act on the record: an
// unclaimed record may be claimed, the owner is verified, anyone else is
// denied without revealing that the record exists.
func claimOrVerifyOwner(g *domain.Generation, accountID string) ownership {
	switch owner := g.Owner(); {
	case owner == "":
		return ownershipClaimed
	case owner == accountID:
		return ownershipVerified
	default:
		return ownershipDenied
	}
}

func dataURI(data []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
}

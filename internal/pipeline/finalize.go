package pipeline

import (
	"context"
	"time"

	"focusflow/internal/logging"
	"focusflow/internal/types"

	"github.com/google/uuid"
)

// =============================================================================
// FINALIZER
// =============================================================================

// Finalizer assembles the response contract and persists the session. The
// task ID is minted here exactly once, on the first finalization; clarify
// rounds re-finalize under the same ID.
type Finalizer struct {
	store types.TaskStore
}

// NewFinalizer creates the finalization stage. A nil store disables
// persistence, which drops the clarify loop but keeps one-shot capture usable.
func NewFinalizer(store types.TaskStore) *Finalizer {
	return &Finalizer{store: store}
}

// Finalize stamps IDs, recomputes the breakdown, persists, and builds the
// response. The session's state reflects whether clarification is pending.
func (f *Finalizer) Finalize(ctx context.Context, session *types.Session, questions []types.ClarificationQuestion, start time.Time) (*types.CaptureResponse, error) {
	now := time.Now().UTC()
	fresh := session.TaskID == ""
	if fresh {
		session.TaskID = uuid.New().String()
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	for i := range session.Steps {
		session.Steps[i].ParentTaskID = session.TaskID
	}

	breakdown := types.ComputeBreakdown(session.Steps)
	needsClarification := breakdown.UnknownCount > 0
	if needsClarification {
		session.State = types.StateNeedsClarification
	} else {
		session.State = types.StateReady
	}

	if f.store != nil {
		var err error
		if fresh {
			err = f.store.SaveSession(ctx, session)
		} else {
			err = f.store.UpdateSession(ctx, session)
		}
		if err != nil {
			// Persistence failure degrades the clarify loop, not this response.
			logging.Store("failed to persist session %s: %v", session.TaskID, err)
		}
	}

	if questions == nil {
		questions = []types.ClarificationQuestion{}
	}
	resp := &types.CaptureResponse{
		TaskID:             session.TaskID,
		Task:               session.Task(),
		MicroSteps:         append([]types.MicroStep(nil), session.Steps...),
		Breakdown:          breakdown,
		NeedsClarification: needsClarification,
		Clarifications:     questions,
		ProcessingTimeMs:   time.Since(start).Milliseconds(),
	}

	logging.Pipeline("finalized task %s: state=%s steps=%d unknown=%d questions=%d",
		session.TaskID, session.State, breakdown.TotalSteps, breakdown.UnknownCount, len(questions))
	return resp, nil
}

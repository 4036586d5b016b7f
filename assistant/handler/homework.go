package handler

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
)

// HomeworkHandler tracks assignments.
type HomeworkHandler struct {
	store contractx.Store
}

func NewHomework(store contractx.Store) (*HomeworkHandler, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", contractx.ErrValidation)
	}
	return &HomeworkHandler{store: store}, nil
}

func (h *HomeworkHandler) Add(ctx context.Context, userID string, p contractx.AddHomeworkParams) (contractx.Result, error) {
	saved, err := h.store.SaveHomework(ctx, contractx.HomeworkItem{
		UserID:      userID,
		Subject:     p.Subject,
		Description: p.Description,
		DueDate:     p.DueDate,
	})
	if err != nil {
		return contractx.Result{}, err
	}

	return contractx.Result{
		Payload: contractx.HomeworkAddedPayload{Item: saved},
		Actions: []contractx.Action{{
			Type:        "homework_added",
			Description: fmt.Sprintf("Added %s homework", saved.Subject),
		}},
	}, nil
}

func (h *HomeworkHandler) List(ctx context.Context, userID string, p contractx.QueryHomeworkParams) (contractx.Result, error) {
	items, err := h.store.ListHomework(ctx, userID, p.Subject, p.IncludeCompleted, p.Limit)
	if err != nil {
		return contractx.Result{}, err
	}

	return contractx.Result{
		Payload: contractx.HomeworkListPayload{Items: items},
	}, nil
}

// Complete marks the newest pending item for the subject as done. No match
// surfaces as ErrNotFound, which reads back as a conversational reply.
func (h *HomeworkHandler) Complete(ctx context.Context, userID string, p contractx.CompleteHomeworkParams) (contractx.Result, error) {
	item, err := h.store.CompleteHomework(ctx, userID, p.Subject)
	if err != nil {
		return contractx.Result{}, err
	}

	return contractx.Result{
		Payload: contractx.HomeworkCompletedPayload{Item: item},
		Actions: []contractx.Action{{
			Type:        "homework_completed",
			Description: fmt.Sprintf("Completed %s homework", item.Subject),
		}},
	}, nil
}

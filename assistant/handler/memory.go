package handler

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
)

// queryScanLimit bounds how many recent memories a free-text query scans
// before filtering.
const queryScanLimit = 20

// MemoryHandler stores and recalls user facts.
type MemoryHandler struct {
	store contractx.Store
}

func NewMemory(store contractx.Store) (*MemoryHandler, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", contractx.ErrValidation)
	}
	return &MemoryHandler{store: store}, nil
}

func (h *MemoryHandler) Store(ctx context.Context, userID string, p contractx.StoreMemoryParams) (contractx.Result, error) {
	saved, err := h.store.SaveMemory(ctx, contractx.Memory{
		UserID:   userID,
		Text:     p.Text,
		Category: p.Category,
	})
	if err != nil {
		return contractx.Result{}, err
	}

	return contractx.Result{
		Payload: contractx.MemorySavedPayload{Memory: saved},
		Actions: []contractx.Action{{
			Type:        "memory_saved",
			Description: fmt.Sprintf("Saved %s memory", saved.Category),
		}},
	}, nil
}

// Query lists recent memories, optionally narrowed by category and by a
// free-text needle matched against the stored text.
func (h *MemoryHandler) Query(ctx context.Context, userID string, p contractx.QueryMemoryParams) (contractx.Result, error) {
	needle := strings.ToLower(strings.TrimSpace(p.Query))

	fetch := p.Limit
	if needle != "" {
		fetch = queryScanLimit
	}
	items, err := h.store.RecentMemories(ctx, userID, p.Category, fetch)
	if err != nil {
		return contractx.Result{}, err
	}

	if needle != "" {
		filtered := make([]contractx.Memory, 0, len(items))
		for _, m := range items {
			if strings.Contains(strings.ToLower(m.Text), needle) {
				filtered = append(filtered, m)
			}
		}
		items = filtered
		if p.Limit > 0 && len(items) > p.Limit {
			items = items[:p.Limit]
		}
	}

	return contractx.Result{
		Payload: contractx.MemoryListPayload{Items: items},
	}, nil
}

package state

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store loads and persists poller state in durable storage.
type Store interface {
	// Load returns the stored state. A missing document yields an empty
	// state; a corrupt document is logged and also yields an empty state
	// so a single bad write can never wedge startup.
	Load(ctx context.Context) (*State, error)

	// Save durably persists the state.
	Save(ctx context.Context, s *State) error
}

// document is the persisted JSON schema. The legacy schema carried only
// last_checked_at; its id list is initialised empty on load.
type document struct {
	LastCheckedAt       *int64   `json:"last_checked_at"`
	ProcessedArticleIDs []string `json:"processed_article_ids"`
}

func encodeState(s *State) ([]byte, error) {
	doc := document{
		LastCheckedAt:       s.LastCheckedAt(),
		ProcessedArticleIDs: s.ProcessedIDs(),
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return payload, nil
}

// decodeState parses a stored document into a State. legacy reports whether
// the document predates the processed-id list and needs a one-time rewrite.
func decodeState(payload []byte, capacity int) (s *State, legacy bool, err error) {
	var doc document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, false, fmt.Errorf("decode state: %w", err)
	}

	// Distinguish "legacy schema" from "empty list" by key presence.
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(payload, &keys); err != nil {
		return nil, false, fmt.Errorf("decode state: %w", err)
	}
	_, hasIDs := keys["processed_article_ids"]

	s = New(capacity)
	if doc.LastCheckedAt != nil {
		s.Advance(*doc.LastCheckedAt)
	}
	for _, id := range doc.ProcessedArticleIDs {
		s.MarkProcessed(id)
	}

	return s, !hasIDs, nil
}

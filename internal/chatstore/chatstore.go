// Package chatstore persists chat session transcripts as per-user JSON
// documents, one document per session.
package chatstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/blob"
)

// Source is one citation attached to an exchange.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Exchange is one prompt/answer pair for a single model. Answer grows
// append-only while the model's stream is live.
type Exchange struct {
	Prompt  string   `json:"prompt"`
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources,omitempty"`
}

// History maps a model name to its ordered exchanges.
type History map[string][]Exchange

// Session is the listing metadata of one chat document.
type Session struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// Document is the persisted body of one chat session.
type Document struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	History       History   `json:"history"`
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// Store reads and writes chat documents on the blob store.
type Store struct {
	blobs blob.Store
	now   func() time.Time
}

// New creates a chat session store.
func New(blobs blob.Store) *Store {
	return &Store{blobs: blobs, now: time.Now}
}

func sessionPath(userID, id string) string {
	return blob.UserChatsDir(userID) + "/" + id + ".json"
}

// ListSessions returns the user's sessions sorted by lastUpdatedAt, newest
// first. A user with no chat directory has no sessions.
func (s *Store) ListSessions(ctx context.Context, userID string) ([]Session, error) {
	entries, err := s.blobs.ReadDir(ctx, blob.UserChatsDir(userID))
	if err == blob.ErrNotFound {
		return []Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("chatstore: list sessions for %s: %w", userID, err)
	}

	sessions := make([]Session, 0, len(entries))
	for _, e := range entries {
		id, ok := strings.CutSuffix(e.Name, ".json")
		if !ok {
			continue
		}
		doc, err := s.LoadSession(ctx, userID, id)
		if err != nil {
			// A concurrently deleted document is not an error for the listing.
			if err == blob.ErrNotFound {
				continue
			}
			return nil, err
		}
		sessions = append(sessions, Session{
			ID:            doc.ID,
			Title:         doc.Title,
			CreatedAt:     doc.CreatedAt,
			LastUpdatedAt: doc.LastUpdatedAt,
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastUpdatedAt.After(sessions[j].LastUpdatedAt)
	})
	return sessions, nil
}

// LoadSession returns a session document, or blob.ErrNotFound.
func (s *Store) LoadSession(ctx context.Context, userID, id string) (*Document, error) {
	data, err := s.blobs.Read(ctx, sessionPath(userID, id))
	if err == blob.ErrNotFound {
		return nil, blob.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("chatstore: read session %s for %s: %w", id, userID, err)
	}

	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("chatstore: decode session %s for %s: %w", id, userID, err)
	}
	if doc.ID == "" {
		doc.ID = id
	}
	return doc, nil
}

// SaveSession writes a session document. The createdAt of a pre-existing
// document at the same id is preserved; lastUpdatedAt is set to now.
func (s *Store) SaveSession(ctx context.Context, userID, id, title string, history History) (*Document, error) {
	dir := blob.UserChatsDir(userID)
	if err := s.blobs.Mkdir(ctx, dir); err != nil {
		return nil, fmt.Errorf("chatstore: create chats dir for %s: %w", userID, err)
	}

	now := s.now()
	doc := &Document{
		ID:            id,
		Title:         title,
		History:       history,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}

	// Read-before-write so resaving keeps the original creation time.
	if prev, err := s.LoadSession(ctx, userID, id); err == nil {
		doc.CreatedAt = prev.CreatedAt
		if doc.Title == "" {
			doc.Title = prev.Title
		}
	} else if err != blob.ErrNotFound {
		return nil, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("chatstore: encode session %s for %s: %w", id, userID, err)
	}
	if err := s.blobs.Write(ctx, sessionPath(userID, id), data); err != nil {
		return nil, fmt.Errorf("chatstore: write session %s for %s: %w", id, userID, err)
	}
	return doc, nil
}

// DeleteSession removes a session document. Deleting a session that does
// not exist is a successful no-op.
func (s *Store) DeleteSession(ctx context.Context, userID, id string) error {
	if err := s.blobs.Delete(ctx, sessionPath(userID, id)); err != nil {
		return fmt.Errorf("chatstore: delete session %s for %s: %w", id, userID, err)
	}
	return nil
}

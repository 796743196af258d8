package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/luca-ama/ama/internal/models"
)

// VoteResult is the server's answer to a vote toggle.
type VoteResult struct {
	Upvotes        int  `json:"upvotes"`
	HasUserUpvoted bool `json:"has_user_upvoted"`
}

// StageResult is the server's answer to a stage toggle. StagedID is the
// event's authoritative staged question after the toggle; it may name a
// different question than the target when two moderators raced.
type StageResult struct {
	Question models.Question `json:"question"`
	StagedID *uuid.UUID      `json:"staged_question_id,omitempty"`
}

// QuestionUpdate is a partial update of moderator-owned fields. Nil fields
// are left untouched.
type QuestionUpdate struct {
	IsStarred     *bool   `json:"is_starred,omitempty"`
	IsAnswered    *bool   `json:"is_answered,omitempty"`
	ModeratorNote *string `json:"moderator_note,omitempty"`
}

// Backend is the remote collaborator the sync core talks to. The server is
// authoritative for all state; the core only converges to what it reports.
type Backend interface {
	FetchQuestions(ctx context.Context, eventID uuid.UUID) ([]models.Question, error)
	CreateQuestion(ctx context.Context, eventID uuid.UUID, text string, anonymous bool) (*models.Question, error)
	ToggleVote(ctx context.Context, questionID uuid.UUID) (*VoteResult, error)
	UpdateQuestion(ctx context.Context, questionID uuid.UUID, fields QuestionUpdate) (*models.Question, error)
	ToggleStage(ctx context.Context, questionID uuid.UUID) (*StageResult, error)
}

// HTTPBackend implements Backend against the AMA REST API using the standard
// response envelope and a bearer token.
type HTTPBackend struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewHTTPBackend creates an HTTP backend client.
func NewHTTPBackend(baseURL, token string) *HTTPBackend {
	return &HTTPBackend{BaseURL: baseURL, Token: token, Client: http.DefaultClient}
}

// envelope mirrors pkg/response.Body.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func (b *HTTPBackend) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.Token)

	resp, err := b.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		if env.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, env.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// FetchQuestions returns the event's full ordered question list.
func (b *HTTPBackend) FetchQuestions(ctx context.Context, eventID uuid.UUID) ([]models.Question, error) {
	var data struct {
		Questions []models.Question `json:"questions"`
	}
	if err := b.do(ctx, http.MethodGet, "/events/"+eventID.String()+"/questions", nil, &data); err != nil {
		return nil, err
	}
	return data.Questions, nil
}

// CreateQuestion submits a new question.
func (b *HTTPBackend) CreateQuestion(ctx context.Context, eventID uuid.UUID, text string, anonymous bool) (*models.Question, error) {
	body := map[string]interface{}{"text": text, "is_anonymous": anonymous}
	var q models.Question
	if err := b.do(ctx, http.MethodPost, "/events/"+eventID.String()+"/questions", body, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// ToggleVote toggles the viewer's vote on a question.
func (b *HTTPBackend) ToggleVote(ctx context.Context, questionID uuid.UUID) (*VoteResult, error) {
	var res VoteResult
	if err := b.do(ctx, http.MethodPost, "/questions/"+questionID.String()+"/vote", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdateQuestion applies a partial update of starred/answered/note.
func (b *HTTPBackend) UpdateQuestion(ctx context.Context, questionID uuid.UUID, fields QuestionUpdate) (*models.Question, error) {
	var q models.Question
	if err := b.do(ctx, http.MethodPatch, "/questions/"+questionID.String(), fields, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// ToggleStage toggles the question's staged flag.
func (b *HTTPBackend) ToggleStage(ctx context.Context, questionID uuid.UUID) (*StageResult, error) {
	var res StageResult
	if err := b.do(ctx, http.MethodPost, "/questions/"+questionID.String()+"/stage", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

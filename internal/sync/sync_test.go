package sync

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/luca-ama/ama/internal/models"
)

// fakeBackend is a scriptable Backend for tests. Each operation returns a
// success shaped from the request unless an override or error is installed.
type fakeBackend struct {
	mu          sync.Mutex
	fetchCalls  int
	voteCalls   int
	updateCalls int
	stageCalls  int

	fetchResult []models.Question
	fetchErr    error
	onFetch     func() // runs before the fetch returns, to simulate races

	voteResult *VoteResult
	voteErr    error
	onVote     func() // runs before the vote call returns

	updateResult *models.Question
	updateErr    error
	onUpdate     func() // runs before the update call returns

	stageResult *StageResult
	stageErr    error
}

func (f *fakeBackend) FetchQuestions(ctx context.Context, eventID uuid.UUID) ([]models.Question, error) {
	f.mu.Lock()
	f.fetchCalls++
	onFetch := f.onFetch
	result, err := f.fetchResult, f.fetchErr
	f.mu.Unlock()
	if onFetch != nil {
		onFetch()
	}
	return result, err
}

func (f *fakeBackend) CreateQuestion(ctx context.Context, eventID uuid.UUID, text string, anonymous bool) (*models.Question, error) {
	return &models.Question{ID: uuid.New(), EventID: eventID, Text: text, IsAnonymous: anonymous}, nil
}

func (f *fakeBackend) ToggleVote(ctx context.Context, questionID uuid.UUID) (*VoteResult, error) {
	f.mu.Lock()
	f.voteCalls++
	onVote := f.onVote
	f.mu.Unlock()
	if onVote != nil {
		onVote()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.voteErr != nil {
		return nil, f.voteErr
	}
	if f.voteResult != nil {
		return f.voteResult, nil
	}
	return &VoteResult{Upvotes: 1, HasUserUpvoted: true}, nil
}

func (f *fakeBackend) UpdateQuestion(ctx context.Context, questionID uuid.UUID, fields QuestionUpdate) (*models.Question, error) {
	f.mu.Lock()
	f.updateCalls++
	onUpdate := f.onUpdate
	f.mu.Unlock()
	if onUpdate != nil {
		onUpdate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.updateResult != nil {
		return f.updateResult, nil
	}
	q := models.Question{ID: questionID}
	if fields.IsStarred != nil {
		q.IsStarred = *fields.IsStarred
	}
	if fields.IsAnswered != nil {
		q.IsAnswered = *fields.IsAnswered
	}
	if fields.ModeratorNote != nil {
		q.ModeratorNote = *fields.ModeratorNote
	}
	return &q, nil
}

func (f *fakeBackend) ToggleStage(ctx context.Context, questionID uuid.UUID) (*StageResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stageCalls++
	if f.stageErr != nil {
		return nil, f.stageErr
	}
	if f.stageResult != nil {
		return f.stageResult, nil
	}
	return &StageResult{Question: models.Question{ID: questionID, IsStaged: true}, StagedID: &questionID}, nil
}

// recordingNotifier captures transient user notifications.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.mu.Lock()
	n.messages = append(n.messages, message)
	n.mu.Unlock()
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func newQuestion(upvotes int, voted bool) models.Question {
	return models.Question{
		ID:             uuid.New(),
		EventID:        uuid.New(),
		Text:           "what is the roadmap?",
		Upvotes:        upvotes,
		HasUserUpvoted: voted,
		CreatedAt:      time.Now(),
	}
}

func newStoreWith(questions ...models.Question) *Store {
	s := NewStore(nil)
	s.ReplaceAll(questions)
	return s
}

func moderatorSession() Session {
	return Session{UserID: uuid.New(), Role: models.RoleModerator}
}

func participantSession() Session {
	return Session{UserID: uuid.New(), Role: models.RoleUser}
}

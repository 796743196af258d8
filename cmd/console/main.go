// Package main is a terminal view onto one AMA event. It drives the question
// sync core against a running server: optimistic mutations on vote / star /
// stage / answer / note, with a background poll keeping the list in step
// with every other open view of the same event.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luca-ama/ama/config"
	"github.com/luca-ama/ama/internal/models"
	"github.com/luca-ama/ama/internal/sync"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "AMA server base URL")
	email := flag.String("email", "", "login email")
	password := flag.String("password", "", "login password")
	eventIDStr := flag.String("event", "", "event id to join")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if *email == "" || *password == "" || *eventIDStr == "" {
		fmt.Fprintln(os.Stderr, "usage: console -server URL -email EMAIL -password PASS -event EVENT_ID")
		os.Exit(2)
	}
	eventID, err := uuid.Parse(*eventIDStr)
	if err != nil {
		logger.Fatal("invalid event id", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	token, user, err := login(*serverURL, *email, *password)
	if err != nil {
		logger.Fatal("login", zap.Error(err))
	}
	fmt.Printf("signed in as %s (%s)\n", user.FullName, user.Role)

	store := sync.NewStore(logger)
	backend := sync.NewHTTPBackend(*serverURL, token)
	session := sync.Session{UserID: user.ID, Role: user.Role}
	notifier := sync.NotifyFunc(func(msg string) { fmt.Println("! " + msg) })

	mutator := sync.NewMutator(store, backend, session, notifier, logger)
	serializer := sync.NewSerializer(cfg.Sync.DebounceWindow, logger)
	handlers := sync.NewHandlers(serializer, mutator)
	reconciler := sync.NewReconciler(store, backend, eventID, cfg.Sync.PollInterval, cfg.Sync.TypingIdle, logger)

	store.Subscribe(func() { fmt.Print("\r(list updated, type `list` to view)\n> ") })

	ctx := context.Background()
	if initial, err := backend.FetchQuestions(ctx, eventID); err != nil {
		logger.Fatal("initial fetch", zap.Error(err))
	} else {
		store.ReplaceAll(initial)
	}
	reconciler.Start(ctx)
	defer reconciler.Stop()

	fmt.Println("commands: list | ask <text> | vote N | star N | stage N | answer N | note N <text> | quit")
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		reconciler.NoteTyping()
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}
		if line == "quit" {
			break
		}
		run(ctx, line, store, backend, handlers, eventID)
		fmt.Print("> ")
	}
}

func run(ctx context.Context, line string, store *sync.Store, backend sync.Backend, handlers *sync.Handlers, eventID uuid.UUID) {
	fields := strings.SplitN(line, " ", 3)
	cmd := fields[0]

	if cmd == "list" {
		render(store.List())
		return
	}
	if cmd == "ask" {
		if len(fields) < 2 {
			fmt.Println("usage: ask <text>")
			return
		}
		text := strings.TrimPrefix(line, "ask ")
		if _, err := backend.CreateQuestion(ctx, eventID, text, false); err != nil {
			fmt.Println("! could not submit question:", err)
		}
		return
	}

	if len(fields) < 2 {
		fmt.Println("unknown command:", line)
		return
	}
	n, err := strconv.Atoi(fields[1])
	list := store.List()
	if err != nil || n < 1 || n > len(list) {
		fmt.Println("no such question number")
		return
	}
	id := list[n-1].ID

	switch cmd {
	case "vote":
		_ = handlers.OnVote(ctx, id)
	case "star":
		_ = handlers.OnStar(ctx, id)
	case "stage":
		_ = handlers.OnStage(ctx, id)
	case "answer":
		_ = handlers.OnAnswer(ctx, id)
	case "note":
		text := ""
		if len(fields) == 3 {
			text = fields[2]
		}
		_ = handlers.OnSaveNote(ctx, id, text)
	default:
		fmt.Println("unknown command:", cmd)
	}
}

func render(list []models.Question) {
	if len(list) == 0 {
		fmt.Println("no questions yet")
		return
	}
	for i, q := range list {
		marks := ""
		if q.HasUserUpvoted {
			marks += "^"
		}
		if q.IsStarred {
			marks += "*"
		}
		if q.IsStaged {
			marks += ">"
		}
		if q.IsAnswered {
			marks += "A"
		}
		author := q.AuthorName
		if author == "" {
			author = "anonymous"
		}
		fmt.Printf("%2d. [%2d%-4s] %s (%s)\n", i+1, q.Upvotes, marks, q.Text, author)
		if q.ModeratorNote != "" {
			fmt.Printf("      note: %s\n", q.ModeratorNote)
		}
	}
}

type loginData struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

func login(serverURL, email, password string) (string, *models.UserPublic, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(serverURL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", nil, err
	}
	if !env.Success {
		return "", nil, fmt.Errorf("login failed: %s", env.Error)
	}
	var data loginData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", nil, err
	}
	return data.Token, &data.User, nil
}

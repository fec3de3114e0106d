package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/silverland/nova/internal/models"
	"github.com/silverland/nova/internal/secure"
	"github.com/silverland/nova/internal/tools"
)

const testConversationID = "2f1f9a8e-7c31-4a7e-9f25-0b54a7a1c0de"

// scriptedModel returns one scripted decision per Decide call and records
// the message sequences it was shown.
type scriptedModel struct {
	decisions []*Decision
	err       error
	calls     int
	seen      [][]Message
}

func (m *scriptedModel) Decide(ctx context.Context, messages []Message, toolset []tools.Tool) (*Decision, error) {
	m.calls++
	m.seen = append(m.seen, append([]Message(nil), messages...))
	if m.err != nil {
		return nil, m.err
	}
	if len(m.decisions) == 0 {
		return &Decision{Content: "done"}, nil
	}
	d := m.decisions[0]
	if len(m.decisions) > 1 {
		m.decisions = m.decisions[1:]
	}
	return d, nil
}

type noopSearcher struct{}

func (noopSearcher) Search(ctx context.Context, query string) (string, error) { return "", nil }

func toolCall(name, args string) *Decision {
	return &Decision{ToolCalls: []ToolCall{{
		ID:        fmt.Sprintf("call_%s", name),
		Name:      name,
		Arguments: json.RawMessage(args),
	}}}
}

func testAgent(t *testing.T, model ModelClient, maxIterations int) (*Agent, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Project{}, &models.Lead{}, &models.Booking{}, &models.Checkpoint{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	registry, err := tools.NewRegistry(tools.RegistryOpts{
		Gateway:  secure.NewGateway(db, time.Second),
		Searcher: noopSearcher{},
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	agent, err := New(Opts{
		Model:         model,
		Registry:      registry,
		Checkpoints:   NewCheckpointStore(db),
		MaxIterations: maxIterations,
	})
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}
	return agent, db
}

func roles(messages []Message) []Role {
	out := make([]Role, len(messages))
	for i, m := range messages {
		out[i] = m.Role
	}
	return out
}

func TestHandleTurnInvalidConversationID(t *testing.T) {
	agent, _ := testAgent(t, &scriptedModel{}, 5)

	if _, err := agent.HandleTurn(context.Background(), "not-a-uuid", "hello"); err == nil {
		t.Fatal("expected error for malformed conversation id")
	}
}

func TestHandleTurnReadThenRespond(t *testing.T) {
	model := &scriptedModel{decisions: []*Decision{
		toolCall("read_query", `{"query": "SELECT project_name FROM projects WHERE city = 'Dubai'"}`),
		{Content: "I found two apartments in Dubai for you."},
	}}
	agent, db := testAgent(t, model, 5)
	for _, p := range []models.Project{
		{ProjectName: "Marina Heights", City: "Dubai"},
		{ProjectName: "Palm Grove", City: "Dubai"},
	} {
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seed project: %v", err)
		}
	}

	final, err := agent.HandleTurn(context.Background(), testConversationID, "Show me apartments in Dubai")
	if err != nil {
		t.Fatalf("handle turn: %v", err)
	}
	if final != "I found two apartments in Dubai for you." {
		t.Fatalf("final = %q", final)
	}

	state, err := NewCheckpointStore(db).Load(testConversationID)
	if err != nil {
		t.Fatalf("load checkpoint: %v", err)
	}
	want := []Role{RoleSystem, RoleUser, RoleToolResult, RoleAgent}
	got := roles(state.Messages)
	if len(got) != len(want) {
		t.Fatalf("roles = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("roles = %v, want %v", got, want)
		}
	}
	if state.Iterations != 1 {
		t.Errorf("iterations = %d, want 1", state.Iterations)
	}
	if !strings.Contains(state.Messages[2].Content, "retrieved 2 row(s)") {
		t.Errorf("tool result = %q, want two rows", state.Messages[2].Content)
	}
	if state.Messages[2].Call == nil || state.Messages[2].Call.Name != "read_query" {
		t.Errorf("tool result should carry the originating call")
	}
}

func TestHandleTurnIterationLimit(t *testing.T) {
	const maxIterations = 3
	// The model keeps asking for a tool on every decision.
	model := &scriptedModel{decisions: []*Decision{
		toolCall("current_time", `{}`),
	}}
	agent, db := testAgent(t, model, maxIterations)

	final, err := agent.HandleTurn(context.Background(), testConversationID, "loop forever")
	if err != nil {
		t.Fatalf("handle turn: %v", err)
	}
	if final != limitMessage {
		t.Fatalf("final = %q, want iteration-limit message", final)
	}
	if model.calls != maxIterations+1 {
		t.Errorf("model calls = %d, want %d", model.calls, maxIterations+1)
	}

	state, err := NewCheckpointStore(db).Load(testConversationID)
	if err != nil {
		t.Fatalf("load checkpoint: %v", err)
	}
	dispatched := 0
	for _, m := range state.Messages {
		if m.Role == RoleToolResult {
			dispatched++
		}
	}
	if dispatched != maxIterations {
		t.Errorf("dispatched tool calls = %d, want %d", dispatched, maxIterations)
	}
	if state.Iterations != maxIterations {
		t.Errorf("iterations = %d, want %d", state.Iterations, maxIterations)
	}
}

func TestHandleTurnDenialContinuesLoop(t *testing.T) {
	model := &scriptedModel{decisions: []*Decision{
		toolCall("write_query", `{"query": "INSERT INTO history (conversation_id) VALUES ('x')"}`),
		{Content: "Sorry, I can't record that."},
	}}
	agent, db := testAgent(t, model, 5)

	final, err := agent.HandleTurn(context.Background(), testConversationID, "write to history")
	if err != nil {
		t.Fatalf("handle turn: %v", err)
	}
	if final != "Sorry, I can't record that." {
		t.Fatalf("final = %q", final)
	}

	state, err := NewCheckpointStore(db).Load(testConversationID)
	if err != nil {
		t.Fatalf("load checkpoint: %v", err)
	}
	result := state.Messages[2]
	if result.Role != RoleToolResult || !strings.HasPrefix(result.Content, "Error: ") {
		t.Fatalf("tool result = %+v, want recorded denial", result)
	}
	// The second decision saw the denial before responding.
	if model.calls != 2 {
		t.Errorf("model calls = %d, want 2", model.calls)
	}
	last := model.seen[1]
	if last[len(last)-1].Role != RoleToolResult {
		t.Errorf("second decision should observe the tool result last")
	}
}

func TestHandleTurnExecutionFailureContinuesLoop(t *testing.T) {
	stateDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open state db: %v", err)
	}
	if err := stateDB.AutoMigrate(&models.Checkpoint{}); err != nil {
		t.Fatalf("migrate state db: %v", err)
	}

	// The gateway's own store is closed, so every query fails at the
	// connection layer rather than at validation.
	gatewayDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open gateway db: %v", err)
	}
	sqlDB, err := gatewayDB.DB()
	if err != nil {
		t.Fatalf("gateway db handle: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close gateway db: %v", err)
	}

	registry, err := tools.NewRegistry(tools.RegistryOpts{
		Gateway:  secure.NewGateway(gatewayDB, time.Second),
		Searcher: noopSearcher{},
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	model := &scriptedModel{decisions: []*Decision{
		toolCall("read_query", `{"query": "SELECT project_name FROM projects"}`),
		{Content: "I'm having trouble looking that up right now."},
	}}
	a, err := New(Opts{
		Model:         model,
		Registry:      registry,
		Checkpoints:   NewCheckpointStore(stateDB),
		MaxIterations: 5,
	})
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}

	final, err := a.HandleTurn(context.Background(), testConversationID, "Show me apartments in Dubai")
	if err != nil {
		t.Fatalf("handle turn: %v", err)
	}
	if final != "I'm having trouble looking that up right now." {
		t.Fatalf("final = %q", final)
	}
	if model.calls != 2 {
		t.Fatalf("model calls = %d, want 2", model.calls)
	}

	state, err := NewCheckpointStore(stateDB).Load(testConversationID)
	if err != nil {
		t.Fatalf("load checkpoint: %v", err)
	}
	result := state.Messages[2]
	if result.Role != RoleToolResult {
		t.Fatalf("message[2] role = %q, want tool-result", result.Role)
	}
	if !strings.Contains(result.Content, "query execution failed") {
		t.Errorf("tool result = %q, want execution failure text", result.Content)
	}
	// The second decision ran against the log including the failure.
	last := model.seen[1]
	if last[len(last)-1].Role != RoleToolResult {
		t.Errorf("second decision should observe the failed tool result last")
	}
}

func TestHandleTurnModelFailureStillCheckpoints(t *testing.T) {
	model := &scriptedModel{err: fmt.Errorf("model unavailable")}
	agent, db := testAgent(t, model, 5)

	final, err := agent.HandleTurn(context.Background(), testConversationID, "hello")
	if err != nil {
		t.Fatalf("handle turn: %v", err)
	}
	if final != failureMessage {
		t.Fatalf("final = %q, want failure message", final)
	}

	state, err := NewCheckpointStore(db).Load(testConversationID)
	if err != nil {
		t.Fatalf("load checkpoint: %v", err)
	}
	if len(state.Messages) != 3 {
		t.Fatalf("messages = %d, want system, user, agent", len(state.Messages))
	}
	if state.Messages[2].Content != failureMessage {
		t.Errorf("checkpointed final = %q", state.Messages[2].Content)
	}
}

func TestHandleTurnSecondTurnKeepsHistory(t *testing.T) {
	model := &scriptedModel{}
	agent, db := testAgent(t, model, 5)

	if _, err := agent.HandleTurn(context.Background(), testConversationID, "first"); err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if _, err := agent.HandleTurn(context.Background(), testConversationID, "second"); err != nil {
		t.Fatalf("second turn: %v", err)
	}

	state, err := NewCheckpointStore(db).Load(testConversationID)
	if err != nil {
		t.Fatalf("load checkpoint: %v", err)
	}
	want := []Role{RoleSystem, RoleUser, RoleAgent, RoleUser, RoleAgent}
	got := roles(state.Messages)
	if len(got) != len(want) {
		t.Fatalf("roles = %v, want %v", got, want)
	}
	// The system prompt is appended once, on the first turn only.
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("roles = %v, want %v", got, want)
		}
	}
	if state.Messages[3].Content != "second" {
		t.Errorf("second user message = %q", state.Messages[3].Content)
	}
}

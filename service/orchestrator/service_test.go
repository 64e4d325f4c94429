package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/planner/metrics"
	"github.com/viant/planner/model"
	"github.com/viant/planner/policy"
	"github.com/viant/planner/progress"
	"github.com/viant/planner/service/approval"
	"github.com/viant/planner/service/approval/memory"
	"github.com/viant/planner/service/capability"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// backend fakes the three remote capabilities.
type backend struct {
	mux               sync.Mutex
	conversations     []*model.Conversation
	retrieveErr       error
	retrieveFailures  int
	scores            map[string]int
	evaluationErrs    map[string]error
	evaluationFlakes  map[string]int
	submitErr         error
	limits            []int
	evaluated         []string
	submitted         []capability.Payload
	changeRequestSeed int
}

func conversations(n int) []*model.Conversation {
	var ret []*model.Conversation
	for i := 1; i <= n; i++ {
		ret = append(ret, &model.Conversation{
			ID:          fmt.Sprintf("c%d", i),
			UserMessage: fmt.Sprintf("question %d", i),
			BotResponse: fmt.Sprintf("answer %d", i),
			Timestamp:   fmt.Sprintf("2024-01-0%dT10:00:00Z", i),
		})
	}
	return ret
}

func (b *backend) registry(t *testing.T) *capability.Registry {
	registry := capability.NewRegistry()
	retrieve := capability.LookupDefinition(capability.RetrieveConversations).BindFunc(b.retrieve)
	evaluate := capability.LookupDefinition(capability.EvaluateResponse).BindFunc(b.evaluate)
	submit := capability.LookupDefinition(capability.SubmitChangeRequest).BindFunc(b.submit)
	for _, c := range []*capability.Capability{retrieve, evaluate, submit} {
		require.NoError(t, registry.Register(c))
	}
	return registry
}

func (b *backend) retrieve(_ context.Context, payload capability.Payload) (capability.Result, error) {
	b.mux.Lock()
	defer b.mux.Unlock()
	limit := payload["limit"].(int)
	b.limits = append(b.limits, limit)
	if b.retrieveFailures > 0 {
		b.retrieveFailures--
		return nil, errors.New("connection reset")
	}
	if b.retrieveErr != nil {
		return nil, b.retrieveErr
	}
	items := b.conversations
	if len(items) > limit {
		items = items[:limit]
	}
	var records []interface{}
	for _, c := range items {
		records = append(records, map[string]interface{}{
			"id": c.ID, "user_message": c.UserMessage, "bot_response": c.BotResponse, "timestamp": c.Timestamp,
		})
	}
	return capability.Result{"conversations": records}, nil
}

func (b *backend) evaluate(_ context.Context, payload capability.Payload) (capability.Result, error) {
	b.mux.Lock()
	defer b.mux.Unlock()
	question := payload["question"].(string)
	var id string
	for _, c := range b.conversations {
		if c.UserMessage == question {
			id = c.ID
		}
	}
	b.evaluated = append(b.evaluated, id)
	if b.evaluationFlakes[id] > 0 {
		b.evaluationFlakes[id]--
		return nil, errors.New("throttled")
	}
	if err := b.evaluationErrs[id]; err != nil {
		return nil, err
	}
	return capability.Result{"score": b.scores[id], "comment": "comment for " + id}, nil
}

func (b *backend) submit(_ context.Context, payload capability.Payload) (capability.Result, error) {
	b.mux.Lock()
	defer b.mux.Unlock()
	b.submitted = append(b.submitted, payload)
	if b.submitErr != nil {
		return nil, b.submitErr
	}
	b.changeRequestSeed++
	number := 100 + b.changeRequestSeed
	return capability.Result{
		"change_request_url":    fmt.Sprintf("https://github.com/acme/bot/pull/%d", number),
		"change_request_number": number,
	}, nil
}

func fastRetry() Option {
	return WithRetry(&RetryConfig{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond})
}

type fixture struct {
	backend *backend
	gateway *approval.Gateway
	service *Service
	logs    *observer.ObservedLogs
}

func newFixture(t *testing.T, b *backend, options ...approval.Option) *fixture {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	gateway := approval.New(memory.New(), append(options, approval.WithLogger(logger))...)
	service := New(b.registry(t), gateway, fastRetry(), WithLogger(logger))
	return &fixture{backend: b, gateway: gateway, service: service, logs: logs}
}

func TestService_ScenarioA(t *testing.T) {
	f := newFixture(t, &backend{conversations: conversations(5)})
	summary, err := f.service.Execute(context.Background(), "Get last 3 chats", nil)
	require.NoError(t, err)

	assert.Equal(t, []int{3}, f.backend.limits)
	assert.Empty(t, f.backend.evaluated)
	assert.Equal(t, 3, summary.Retrieved())
	assert.Equal(t, model.OutcomeNoActionNeeded, summary.Outcome.Kind)
	all, err := f.gateway.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	text := summary.String()
	for _, id := range []string{"[c1]", "[c2]", "[c3]"} {
		assert.Contains(t, text, id)
	}
	assert.NotContains(t, text, "[c4]")
}

func TestService_Scenarios(t *testing.T) {
	type testCase struct {
		description   string
		goal          string
		scores        map[string]int
		expectKind    model.OutcomeKind
		expectAverage float64
		expectReason  string
	}

	testCases := []testCase{
		{
			description:   "scenario B average at threshold",
			goal:          "Review last 2 chats",
			scores:        map[string]int{"c1": 2, "c2": 5},
			expectKind:    model.OutcomeNoActionNeeded,
			expectAverage: 3.5,
		},
		{
			description:   "scenario C average below threshold",
			goal:          "Review last 2 chats",
			scores:        map[string]int{"c1": 2, "c2": 2},
			expectKind:    model.OutcomePendingApproval,
			expectAverage: 2.0,
			expectReason:  "Automated prompt update based on evaluation. Average score: 2.0/5. 2 conversations scored below 3.",
		},
		{
			description:   "explicit change request with high scores",
			goal:          "Review 2 conversations and create pr",
			scores:        map[string]int{"c1": 5, "c2": 5},
			expectKind:    model.OutcomePendingApproval,
			expectAverage: 5,
			expectReason:  "Automated prompt update based on evaluation. Average score: 5.0/5. 0 conversations scored below 3.",
		},
		{
			description:   "any threshold in goal",
			goal:          "Review 2 chats and create a change if any score is below 3",
			scores:        map[string]int{"c1": 2, "c2": 5},
			expectKind:    model.OutcomePendingApproval,
			expectAverage: 3.5,
			expectReason:  "Automated prompt update based on evaluation. Average score: 3.5/5. 1 conversations scored below 3.",
		},
		{
			description:   "average threshold in goal",
			goal:          "Review 2 chats, flag if average score below 3",
			scores:        map[string]int{"c1": 3, "c2": 3},
			expectKind:    model.OutcomeNoActionNeeded,
			expectAverage: 3,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			f := newFixture(t, &backend{conversations: conversations(2), scores: testCase.scores})
			summary, err := f.service.Execute(context.Background(), testCase.goal, nil)
			require.NoError(t, err)

			assert.Equal(t, []string{"c1", "c2"}, f.backend.evaluated)
			require.NotNil(t, summary.AverageScore)
			assert.InDelta(t, testCase.expectAverage, *summary.AverageScore, 0.001)
			assert.Equal(t, testCase.expectKind, summary.Outcome.Kind)
			assert.Empty(t, f.backend.submitted, "submission requires approval")

			pending, err := f.gateway.List(context.Background(), approval.StatusPending)
			require.NoError(t, err)
			if testCase.expectKind != model.OutcomePendingApproval {
				assert.Empty(t, pending)
				assert.Contains(t, summary.String(), "No action needed")
				return
			}
			require.Len(t, pending, 1)
			assert.Equal(t, pending[0].ID, summary.Outcome.RequestID)
			assert.Equal(t, capability.SubmitChangeRequest, pending[0].Action)
			assert.Equal(t, DefaultPrompt, pending[0].Payload["prompt_text"])
			assert.Equal(t, testCase.expectReason, pending[0].Reason())
			assert.Contains(t, summary.String(), "waiting for approval (request "+pending[0].ID+")")
		})
	}
}

func TestService_ScenarioD(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &backend{conversations: conversations(3), scores: map[string]int{"c1": 2, "c2": 2}})

	first, err := f.service.Execute(ctx, "Review last 2 chats", nil)
	require.NoError(t, err)
	require.Equal(t, model.OutcomePendingApproval, first.Outcome.Kind)
	requestID := first.Outcome.RequestID

	second, err := f.service.Execute(ctx, "Review last 2 chats", nil)
	require.NoError(t, err)
	assert.Equal(t, requestID, second.Outcome.RequestID, "pending request is reused")
	assert.Empty(t, f.backend.submitted)

	_, err = f.gateway.Decide(ctx, requestID, approval.StatusApproved, "ship it")
	require.NoError(t, err)

	third, err := f.service.Execute(ctx, "Get last 3 chats", nil)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeChangeRequestCreated, third.Outcome.Kind)
	require.NotNil(t, third.Outcome.ChangeRequest)
	assert.Equal(t, 101, third.Outcome.ChangeRequest.Number)
	assert.Equal(t, "https://github.com/acme/bot/pull/101", third.Outcome.ChangeRequest.URL)
	require.Len(t, f.backend.submitted, 1)
	assert.Equal(t, DefaultPrompt, f.backend.submitted[0]["prompt_text"])

	processed, err := f.gateway.Get(ctx, requestID)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusProcessed, processed.Status)
	assert.NotNil(t, processed.ProcessedAt)

	fourth, err := f.service.Execute(ctx, "Get last 3 chats", nil)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeNoActionNeeded, fourth.Outcome.Kind)
	assert.Len(t, f.backend.submitted, 1, "processed request is never submitted again")
	assert.Contains(t, third.String(), "Created change request #101")
}

func TestService_ConsumedApprovalReplacesNewRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &backend{conversations: conversations(2), scores: map[string]int{"c1": 1, "c2": 1}})
	first, err := f.service.Execute(ctx, "Review last 2 chats", nil)
	require.NoError(t, err)
	_, err = f.gateway.Decide(ctx, first.Outcome.RequestID, approval.StatusApproved, "")
	require.NoError(t, err)

	second, err := f.service.Execute(ctx, "Review last 2 chats", nil)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeChangeRequestCreated, second.Outcome.Kind)
	pending, err := f.gateway.List(ctx, approval.StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestService_NothingToDo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &backend{})
	approved, err := f.gateway.Create(ctx, capability.SubmitChangeRequest, map[string]interface{}{"prompt_text": "x"}, "")
	require.NoError(t, err)
	_, err = f.gateway.Decide(ctx, approved.ID, approval.StatusApproved, "")
	require.NoError(t, err)

	summary, err := f.service.Execute(ctx, "Review 4 chats and create pr", nil)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeNothingToDo, summary.Outcome.Kind)
	assert.Empty(t, f.backend.evaluated)
	assert.Empty(t, f.backend.submitted)
	assert.Contains(t, summary.String(), "nothing to do")
}

func TestService_RetrievalFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &backend{conversations: conversations(2), retrieveErr: errors.New("status 503: unavailable")})
	approved, err := f.gateway.Create(ctx, capability.SubmitChangeRequest, map[string]interface{}{"prompt_text": "x"}, "")
	require.NoError(t, err)
	_, err = f.gateway.Decide(ctx, approved.ID, approval.StatusApproved, "")
	require.NoError(t, err)

	summary, err := f.service.Execute(ctx, "Review 2 chats and create pr", nil)
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.True(t, capability.IsCapability(err))
	assert.Equal(t, "retrieve conversations: capability retrieve_conversations failed: status 503: unavailable", err.Error())
	assert.Len(t, f.backend.limits, 3, "retrieval is retried")
	assert.Empty(t, f.backend.submitted)
	assert.Equal(t, 2, f.logs.FilterMessage("capability call failed, retrying").Len())
}

func TestService_RetrievalRecovers(t *testing.T) {
	f := newFixture(t, &backend{conversations: conversations(2), retrieveFailures: 2})
	summary, err := f.service.Execute(context.Background(), "show 2 chats", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Retrieved())
	assert.Len(t, f.backend.limits, 3)
}

func TestService_DegradedEvaluations(t *testing.T) {
	type testCase struct {
		description   string
		goal          string
		errs          map[string]error
		flakes        map[string]int
		scores        map[string]int
		expectAverage *float64
		expectKind    model.OutcomeKind
		expectCaveats int
		expectCalls   int
	}
	five := 5.0

	testCases := []testCase{
		{
			description:   "one item degraded",
			goal:          "Review 2 chats",
			errs:          map[string]error{"c1": errors.New("model timeout")},
			scores:        map[string]int{"c2": 5},
			expectAverage: &five,
			expectKind:    model.OutcomeNoActionNeeded,
			expectCaveats: 1,
			expectCalls:   4,
		},
		{
			description:   "all degraded without explicit request",
			goal:          "Review 2 chats",
			errs:          map[string]error{"c1": errors.New("boom"), "c2": errors.New("boom")},
			expectKind:    model.OutcomeNoActionNeeded,
			expectCaveats: 2,
			expectCalls:   6,
		},
		{
			description:   "all degraded with explicit request",
			goal:          "Review 2 chats and update prompt",
			errs:          map[string]error{"c1": errors.New("boom"), "c2": errors.New("boom")},
			expectKind:    model.OutcomePendingApproval,
			expectCaveats: 2,
			expectCalls:   6,
		},
		{
			description:   "flaky evaluation recovers",
			goal:          "Review 2 chats",
			flakes:        map[string]int{"c1": 2},
			scores:        map[string]int{"c1": 5, "c2": 5},
			expectAverage: &five,
			expectKind:    model.OutcomeNoActionNeeded,
			expectCalls:   4,
		},
		{
			description:   "out of range score degrades",
			goal:          "Review 2 chats",
			scores:        map[string]int{"c1": 9, "c2": 5},
			expectAverage: &five,
			expectKind:    model.OutcomeNoActionNeeded,
			expectCaveats: 1,
			expectCalls:   2,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			f := newFixture(t, &backend{
				conversations:    conversations(2),
				scores:           testCase.scores,
				evaluationErrs:   testCase.errs,
				evaluationFlakes: testCase.flakes,
			})
			ctx, tracker := progress.WithNewTracker(context.Background(), testCase.goal, nil)
			summary, err := f.service.Execute(ctx, testCase.goal, nil)
			require.NoError(t, err)

			require.Len(t, summary.Evaluations, 2)
			assert.Equal(t, "c1", summary.Evaluations[0].ConversationID)
			assert.Equal(t, "c2", summary.Evaluations[1].ConversationID)
			assert.Len(t, f.backend.evaluated, testCase.expectCalls)
			assert.Equal(t, testCase.expectKind, summary.Outcome.Kind)
			assert.Len(t, summary.Caveats, testCase.expectCaveats)
			snapshot := tracker.Snapshot()
			assert.Equal(t, 2, snapshot.Total)
			assert.Equal(t, summary.Degraded(), snapshot.Degraded)
			if testCase.expectAverage == nil {
				assert.Nil(t, summary.AverageScore)
				assert.Contains(t, summary.String(), "no score available")
				assert.Equal(t, 2, f.logs.FilterMessage("evaluation degraded").FilterLevelExact(zapcore.WarnLevel).Len())
				return
			}
			require.NotNil(t, summary.AverageScore)
			assert.InDelta(t, *testCase.expectAverage, *summary.AverageScore, 0.001)
		})
	}
}

func TestService_ManualReasonWhenNoScore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &backend{conversations: conversations(1)})
	summary, err := f.service.Execute(ctx, "list 1 chat and update prompt", &Overrides{PromptText: "Be concise."})
	require.NoError(t, err)
	require.Equal(t, model.OutcomePendingApproval, summary.Outcome.Kind)
	request, err := f.gateway.Get(ctx, summary.Outcome.RequestID)
	require.NoError(t, err)
	assert.Equal(t, ManualReason, request.Reason())
	assert.Equal(t, "Be concise.", request.Payload["prompt_text"])
}

func TestService_Policy(t *testing.T) {
	type testCase struct {
		description  string
		policy       *policy.Policy
		expectKind   model.OutcomeKind
		expectSubmit int
		expectStatus approval.Status
	}

	testCases := []testCase{
		{description: "ask", policy: nil, expectKind: model.OutcomePendingApproval, expectStatus: approval.StatusPending},
		{description: "auto", policy: &policy.Policy{Mode: policy.ModeAuto}, expectKind: model.OutcomeChangeRequestCreated, expectSubmit: 1, expectStatus: approval.StatusProcessed},
		{description: "deny", policy: &policy.Policy{Mode: policy.ModeDeny}, expectKind: model.OutcomeBlockedByPolicy},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, &backend{conversations: conversations(2), scores: map[string]int{"c1": 1, "c2": 2}}, approval.WithPolicy(testCase.policy))
			summary, err := f.service.Execute(ctx, "Review last 2 chats", nil)
			require.NoError(t, err)
			assert.Equal(t, testCase.expectKind, summary.Outcome.Kind)
			assert.Len(t, f.backend.submitted, testCase.expectSubmit)

			all, err := f.gateway.List(ctx)
			require.NoError(t, err)
			if testCase.expectStatus == "" {
				assert.Empty(t, all)
				assert.Contains(t, summary.String(), "Change request blocked by policy: submit_change_request is denied")
				return
			}
			require.Len(t, all, 1)
			assert.Equal(t, testCase.expectStatus, all[0].Status)
			if testCase.expectStatus == approval.StatusProcessed {
				assert.Equal(t, approval.AutoApprovalNote, all[0].Notes)
			}
		})
	}
}

func TestService_DenyHoldsBackApproved(t *testing.T) {
	type testCase struct {
		description string
		policy      *policy.Policy
	}

	testCases := []testCase{
		{description: "deny mode", policy: &policy.Policy{Mode: policy.ModeDeny}},
		{description: "block list", policy: &policy.Policy{Mode: policy.ModeAuto, BlockList: []string{"Submit_Change_Request"}}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			f := newFixture(t, &backend{conversations: conversations(2), scores: map[string]int{"c1": 1, "c2": 2}})
			approved, err := f.gateway.Create(context.Background(), capability.SubmitChangeRequest, map[string]interface{}{"prompt_text": "x"}, "")
			require.NoError(t, err)
			_, err = f.gateway.Decide(context.Background(), approved.ID, approval.StatusApproved, "")
			require.NoError(t, err)

			ctx := policy.WithPolicy(context.Background(), testCase.policy)
			summary, err := f.service.Execute(ctx, "Review last 2 chats", nil)
			require.NoError(t, err)
			assert.Equal(t, model.OutcomeBlockedByPolicy, summary.Outcome.Kind)
			assert.Empty(t, f.backend.submitted)
			assert.Equal(t, 1, f.logs.FilterMessage("approved change request held back by policy").Len())

			held, err := f.gateway.Get(context.Background(), approved.ID)
			require.NoError(t, err)
			assert.Equal(t, approval.StatusApproved, held.Status)

			summary, err = f.service.Execute(context.Background(), "Review last 2 chats", nil)
			require.NoError(t, err)
			assert.Equal(t, model.OutcomeChangeRequestCreated, summary.Outcome.Kind)
			assert.Equal(t, approved.ID, summary.Outcome.RequestID)
			assert.Len(t, f.backend.submitted, 1)
		})
	}
}

func TestService_SubmissionFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &backend{
		conversations: conversations(2),
		scores:        map[string]int{"c1": 1, "c2": 1},
		submitErr:     errors.New("status 422: branch exists"),
	})
	first, err := f.service.Execute(ctx, "Review last 2 chats", nil)
	require.NoError(t, err)
	_, err = f.gateway.Decide(ctx, first.Outcome.RequestID, approval.StatusApproved, "")
	require.NoError(t, err)

	summary, err := f.service.Execute(ctx, "Review last 2 chats", nil)
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.True(t, capability.IsCapability(err))
	assert.Contains(t, err.Error(), "submit change request: capability submit_change_request failed: status 422: branch exists")
	assert.Len(t, f.backend.submitted, 1, "submission is never retried")

	request, err := f.gateway.Get(ctx, first.Outcome.RequestID)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusApproved, request.Status)

	f.backend.submitErr = nil
	summary, err = f.service.Execute(ctx, "show 1 chat", nil)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeChangeRequestCreated, summary.Outcome.Kind)
	assert.Len(t, f.backend.submitted, 2)
}

func TestService_ValidationErrorNotRetried(t *testing.T) {
	registry := capability.NewRegistry()
	calls := 0
	require.NoError(t, registry.Register(capability.NewFunc(capability.RetrieveConversations, "", capability.Schema{
		"limit": {Type: capability.TypeString, Required: true},
	}, func(ctx context.Context, payload capability.Payload) (capability.Result, error) {
		calls++
		return capability.Result{}, nil
	})))
	service := New(registry, approval.New(memory.New()), fastRetry())
	_, err := service.Execute(context.Background(), "show 2 chats", nil)
	require.Error(t, err)
	assert.True(t, capability.IsValidation(err))
	assert.Equal(t, 0, calls)
}

func TestService_Deterministic(t *testing.T) {
	run := func() string {
		f := newFixture(t, &backend{conversations: conversations(3), scores: map[string]int{"c1": 4, "c2": 2, "c3": 5}})
		summary, err := f.service.Execute(context.Background(), "Review last 3 chats", nil)
		require.NoError(t, err)
		return strings.Join(f.backend.evaluated, ",") + "|" + fmt.Sprint(summary.Scores())
	}
	assert.Equal(t, run(), run())
	assert.Equal(t, "c1,c2,c3|[4 2 5]", run())
}

func TestService_Metrics(t *testing.T) {
	m := metrics.New()
	b := &backend{
		conversations:  conversations(2),
		scores:         map[string]int{"c1": 2},
		evaluationErrs: map[string]error{"c2": errors.New("down")},
	}
	gateway := approval.New(memory.New(), approval.WithMetrics(m))
	service := New(b.registry(t), gateway, fastRetry(), WithMetrics(m))

	summary, err := service.Execute(context.Background(), "Review 2 chats", nil)
	require.NoError(t, err)
	require.Equal(t, model.OutcomePendingApproval, summary.Outcome.Kind)

	expected := `
# HELP planner_approval_transitions_total Approval requests entering a status.
# TYPE planner_approval_transitions_total counter
planner_approval_transitions_total{action="submit_change_request",status="pending"} 1
# HELP planner_degraded_evaluations_total Evaluations excluded from the average after retries.
# TYPE planner_degraded_evaluations_total counter
planner_degraded_evaluations_total 1
# HELP planner_runs_total Goal runs by outcome.
# TYPE planner_runs_total counter
planner_runs_total{outcome="pending_approval"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"planner_approval_transitions_total", "planner_degraded_evaluations_total", "planner_runs_total"))

	b.retrieveErr = errors.New("offline")
	_, err = service.Execute(context.Background(), "Review 2 chats", nil)
	require.Error(t, err)
	count, err := testutil.GatherAndCount(m.Registry(), "planner_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "pending_approval and error series")
}

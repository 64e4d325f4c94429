package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/viant/planner/internal/logging"
	"github.com/viant/planner/metrics"
	"github.com/viant/planner/model"
	"github.com/viant/planner/policy"
	"github.com/viant/planner/progress"
	"github.com/viant/planner/service/approval"
	"github.com/viant/planner/service/capability"
	"github.com/viant/planner/service/goal"
	"github.com/viant/planner/tracing"
	"go.uber.org/zap"
)

// DefaultThreshold is the average score below which a change request is
// proposed unless the goal states its own threshold.
const DefaultThreshold = 3.5

// Invoker dispatches capability calls; *capability.Registry implements it.
type Invoker interface {
	Invoke(ctx context.Context, name string, payload capability.Payload) (capability.Result, error)
}

// Overrides supply literal change request content for one run.
type Overrides struct {
	PromptText string
	Reason     string
}

// Service executes goals.
type Service struct {
	registry      Invoker
	gateway       *approval.Gateway
	parse         func(goal string) *model.Intent
	retry         *RetryConfig
	defaultPrompt string
	logger        *zap.Logger
	metrics       *metrics.Metrics
}

// New creates an orchestrator.
func New(registry Invoker, gateway *approval.Gateway, options ...Option) *Service {
	ret := &Service{
		registry:      registry,
		gateway:       gateway,
		parse:         goal.Parse,
		retry:         DefaultRetryConfig(),
		defaultPrompt: DefaultPrompt,
	}
	for _, option := range options {
		option(ret)
	}
	ret.retry.ApplyDefaults()
	ret.logger = logging.OrNop(ret.logger)
	return ret
}

// Execute runs goal to completion. Retrieval or submission failures abort
// the run; evaluation failures degrade single items.
func (s *Service) Execute(ctx context.Context, goalText string, overrides *Overrides) (summary *model.Summary, err error) {
	ctx, span := tracing.StartSpan(ctx, "planner.execute", "INTERNAL")
	defer func() {
		tracing.EndSpan(span, err)
		if err != nil {
			s.metrics.ObserveRun("error")
			return
		}
		s.metrics.ObserveRun(string(summary.Outcome.Kind))
	}()

	intent := s.parse(goalText)
	span.WithAttributes(map[string]string{
		"item_count":           strconv.Itoa(intent.ItemCount),
		"needs_evaluation":     strconv.FormatBool(intent.NeedsEvaluation),
		"needs_change_request": strconv.FormatBool(intent.NeedsChangeRequest),
	})
	s.logger.Info("executing goal",
		zap.String("goal", goalText),
		zap.Int("item_count", intent.ItemCount),
		zap.Bool("needs_evaluation", intent.NeedsEvaluation),
		zap.Bool("needs_change_request", intent.NeedsChangeRequest))

	summary = &model.Summary{Intent: intent}
	if summary.Conversations, err = s.retrieve(ctx, intent.ItemCount); err != nil {
		return nil, fmt.Errorf("retrieve conversations: %w", err)
	}
	if len(summary.Conversations) == 0 {
		summary.Outcome = model.Outcome{Kind: model.OutcomeNothingToDo}
		return summary, nil
	}

	if intent.NeedsEvaluation {
		s.evaluate(ctx, summary)
	}

	consumed, err := s.consumeApproved(ctx)
	if err != nil {
		return nil, fmt.Errorf("submit change request: %w", err)
	}

	should, reason := s.shouldRequestChange(summary)
	switch {
	case consumed != nil:
		summary.Outcome = model.Outcome{Kind: model.OutcomeChangeRequestCreated, RequestID: consumed.requestID, ChangeRequest: consumed.changeRequest}
		if should {
			s.logger.Info("approved change request consumed, no new request created", zap.String("request_id", consumed.requestID))
		}
	case !should:
		summary.Outcome = model.Outcome{Kind: model.OutcomeNoActionNeeded}
	default:
		if summary.Outcome, err = s.requestChange(ctx, reason, overrides); err != nil {
			return nil, fmt.Errorf("submit change request: %w", err)
		}
	}
	return summary, nil
}

func (s *Service) retrieve(ctx context.Context, limit int) ([]*model.Conversation, error) {
	result, err := s.invokeWithRetry(ctx, capability.RetrieveConversations, capability.Payload{"limit": limit})
	if err != nil {
		return nil, err
	}
	output := struct {
		Conversations []*model.Conversation `json:"conversations"`
	}{}
	if err = result.Decode(&output); err != nil {
		return nil, &capability.CapabilityError{Capability: capability.RetrieveConversations, Cause: err}
	}
	return output.Conversations, nil
}

// evaluate scores every conversation strictly in retrieval order.
func (s *Service) evaluate(ctx context.Context, summary *model.Summary) {
	progress.UpdateCtx(ctx, progress.Delta{Total: len(summary.Conversations)})
	for _, conversation := range summary.Conversations {
		evaluation, err := s.evaluateOne(ctx, conversation)
		if err != nil {
			s.logger.Warn("evaluation degraded",
				zap.String("conversation_id", conversation.ID),
				zap.Error(err))
			evaluation = &model.Evaluation{ConversationID: conversation.ID, Degraded: true, Error: err.Error()}
			progress.UpdateCtx(ctx, progress.Delta{Degraded: 1})
			s.metrics.ObserveDegraded()
		} else {
			progress.UpdateCtx(ctx, progress.Delta{Completed: 1})
		}
		summary.Evaluations = append(summary.Evaluations, evaluation)
	}

	scores := summary.Scores()
	if degraded := summary.Degraded(); degraded > 0 {
		summary.Caveats = append(summary.Caveats, fmt.Sprintf("%d of %d evaluations degraded and excluded from the average", degraded, len(summary.Evaluations)))
	}
	if len(scores) == 0 {
		summary.Caveats = append(summary.Caveats, "no score available, the score threshold was not applied")
		return
	}
	total := 0
	for _, score := range scores {
		total += score
	}
	average := float64(total) / float64(len(scores))
	summary.AverageScore = &average
}

func (s *Service) evaluateOne(ctx context.Context, conversation *model.Conversation) (*model.Evaluation, error) {
	result, err := s.invokeWithRetry(ctx, capability.EvaluateResponse, capability.Payload{
		"question": conversation.UserMessage,
		"answer":   conversation.BotResponse,
	})
	if err != nil {
		return nil, err
	}
	output := struct {
		Score   int    `json:"score"`
		Comment string `json:"comment"`
	}{}
	if err = result.Decode(&output); err != nil {
		return nil, err
	}
	if output.Score < 1 || output.Score > 5 {
		return nil, fmt.Errorf("score %d out of range 1..5", output.Score)
	}
	return &model.Evaluation{ConversationID: conversation.ID, Score: output.Score, Comment: output.Comment}, nil
}

// shouldRequestChange applies the branching rule. Without an average no
// threshold applies; only an explicit request in the goal counts then.
func (s *Service) shouldRequestChange(summary *model.Summary) (bool, string) {
	intent := summary.Intent
	reason := ManualReason
	if summary.AverageScore != nil {
		reason = automatedReason(*summary.AverageScore, summary.Scores())
	}
	if intent.NeedsChangeRequest {
		return true, reason
	}
	if !intent.NeedsEvaluation || summary.AverageScore == nil {
		return false, ""
	}
	threshold := model.Threshold{Value: DefaultThreshold, Scope: model.ThresholdAverage}
	if intent.Threshold != nil {
		threshold = *intent.Threshold
	}
	if threshold.Scope == model.ThresholdAny {
		for _, score := range summary.Scores() {
			if float64(score) < threshold.Value {
				return true, reason
			}
		}
		return false, ""
	}
	return *summary.AverageScore < threshold.Value, reason
}

func (s *Service) requestChange(ctx context.Context, reason string, overrides *Overrides) (model.Outcome, error) {
	promptText := s.defaultPrompt
	if overrides != nil {
		if overrides.PromptText != "" {
			promptText = overrides.PromptText
		}
		if overrides.Reason != "" {
			reason = overrides.Reason
		}
	}
	payload := map[string]interface{}{"prompt_text": promptText, "reason": reason}
	request, err := s.gateway.Gate(ctx, capability.SubmitChangeRequest, payload, reason)
	if errors.Is(err, approval.ErrPolicyDenied) {
		s.logger.Info("change request blocked by policy")
		return model.Outcome{Kind: model.OutcomeBlockedByPolicy, Message: capability.SubmitChangeRequest + " is denied"}, nil
	}
	if err != nil {
		return model.Outcome{}, err
	}
	if request.Status != approval.StatusApproved {
		return model.Outcome{Kind: model.OutcomePendingApproval, RequestID: request.ID}, nil
	}
	submitted, err := s.submit(ctx, request)
	if err != nil {
		return model.Outcome{}, err
	}
	return model.Outcome{Kind: model.OutcomeChangeRequestCreated, RequestID: request.ID, ChangeRequest: submitted.changeRequest}, nil
}

type submission struct {
	requestID     string
	changeRequest *model.ChangeRequest
}

// consumeApproved submits the oldest approved change request left by an
// earlier run, if any. Approved requests stay untouched while the effective
// policy denies the action.
func (s *Service) consumeApproved(ctx context.Context) (*submission, error) {
	request, err := s.gateway.FindApprovedUnprocessed(ctx, capability.SubmitChangeRequest)
	if err != nil || request == nil {
		return nil, err
	}
	if s.gateway.Mode(ctx, capability.SubmitChangeRequest) == policy.ModeDeny {
		s.logger.Info("approved change request held back by policy", zap.String("request_id", request.ID))
		return nil, nil
	}
	s.logger.Info("consuming approved change request", zap.String("request_id", request.ID))
	return s.submit(ctx, request)
}

// submit invokes the change request capability exactly once. A failure
// leaves the request approved and unprocessed.
func (s *Service) submit(ctx context.Context, request *approval.Request) (*submission, error) {
	result, err := s.registry.Invoke(ctx, capability.SubmitChangeRequest, capability.Payload(request.Payload))
	if err != nil {
		return nil, err
	}
	changeRequest, err := decodeChangeRequest(result)
	if err != nil {
		return nil, &capability.CapabilityError{Capability: capability.SubmitChangeRequest, Cause: err}
	}
	if err = s.gateway.MarkProcessed(ctx, request.ID); err != nil {
		return nil, fmt.Errorf("mark request %s processed: %w", request.ID, err)
	}
	s.logger.Info("change request submitted",
		zap.String("request_id", request.ID),
		zap.String("url", changeRequest.URL),
		zap.Int("number", changeRequest.Number))
	return &submission{requestID: request.ID, changeRequest: changeRequest}, nil
}

func decodeChangeRequest(result capability.Result) (*model.ChangeRequest, error) {
	output := struct {
		URL      string `json:"change_request_url"`
		Number   int    `json:"change_request_number"`
		PRURL    string `json:"pr_url"`
		PRNumber int    `json:"pr_number"`
	}{}
	if err := result.Decode(&output); err != nil {
		return nil, err
	}
	ret := &model.ChangeRequest{URL: output.URL, Number: output.Number}
	if ret.URL == "" {
		ret.URL, ret.Number = output.PRURL, output.PRNumber
	}
	if ret.URL == "" {
		return nil, fmt.Errorf("result carries no change request url")
	}
	return ret, nil
}

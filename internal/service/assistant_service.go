package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"eyecare_backend/internal/util"
	"eyecare_backend/pkg/logger"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
	"go.uber.org/zap"
)

const assistantSystemPrompt = "You are an eye-care assistant inside a vision self-test app. " +
	"Give practical, general eye-health guidance in plain language. " +
	"You do not diagnose: when symptoms could be serious, tell the user to see an eye care professional."

const unavailableNotice = "The assistant is unavailable right now, please try again later."

// AssistantService wraps the chat model with a circuit breaker and retries,
// and serves the fixed responses of flows that have no model behind them.
type AssistantService struct {
	Client ChatClient

	enabled  atomic.Bool
	bulkhead bulkhead.Bulkhead[string]
	breaker  circuitbreaker.CircuitBreaker[string]
	retrier  retry.Retry[string]
}

// ResilienceConfig tunes the wrapper around the chat model.
type ResilienceConfig struct {
	MaxAttempts      int
	InitialDelay     time.Duration
	FailuresToTrip   int
	OpenStateTimeout time.Duration
	MaxConcurrent    int
}

func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		MaxAttempts:      3,
		InitialDelay:     500 * time.Millisecond,
		FailuresToTrip:   3,
		OpenStateTimeout: 60 * time.Second,
		MaxConcurrent:    5,
	}
}

func NewAssistantService(client ChatClient, enabled bool, rc ResilienceConfig) *AssistantService {
	s := &AssistantService{Client: client}
	s.enabled.Store(enabled)

	s.breaker = circuitbreaker.New[string](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     rc.OpenStateTimeout,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= rc.FailuresToTrip
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			logger.Log.Warn("assistant circuit breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	maxConcurrent := rc.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	s.bulkhead = bulkhead.New[string](bulkhead.Config{
		MaxConcurrent: maxConcurrent,
		MaxQueue:      maxConcurrent * 2,
		QueueTimeout:  30 * time.Second,
	})

	s.retrier = retry.New[string](retry.Config{
		MaxAttempts:   rc.MaxAttempts,
		InitialDelay:  rc.InitialDelay,
		MaxDelay:      10 * rc.InitialDelay,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable:   isRetryableAIError,
	})

	return s
}

// SetEnabled switches the model on or off without a restart.
func (s *AssistantService) SetEnabled(enabled bool) {
	if s.enabled.Swap(enabled) != enabled {
		logger.Log.Info("assistant toggled", zap.Bool("enabled", enabled))
	}
}

func (s *AssistantService) Enabled() bool {
	return s.enabled.Load()
}

func isRetryableAIError(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (s *AssistantService) complete(ctx context.Context, messages []AIChatMessage) (string, error) {
	if !s.enabled.Load() || s.Client == nil {
		return "", util.ErrAssistantUnavailable
	}
	reply, err := s.bulkhead.Execute(ctx, func(ctx context.Context) (string, error) {
		return s.breaker.Execute(ctx, func(ctx context.Context) (string, error) {
			return s.retrier.Do(ctx, func(ctx context.Context) (string, error) {
				return s.Client.Complete(ctx, messages)
			})
		})
	})
	if err != nil {
		logger.Log.Warn("assistant request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", util.ErrAssistantUnavailable, err)
	}
	return reply, nil
}

type ChatRequest struct {
	Message string          `json:"message" binding:"required,max=2000"`
	History []AIChatMessage `json:"history" binding:"max=20"`
}

type ChatReply struct {
	Reply string `json:"reply"`
}

// Chat answers a chatbot turn. Only user and assistant turns from the
// client history are forwarded.
func (s *AssistantService) Chat(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	messages := []AIChatMessage{{Role: "system", Content: assistantSystemPrompt}}
	for _, h := range req.History {
		if h.Role == "user" || h.Role == "assistant" {
			messages = append(messages, h)
		}
	}
	messages = append(messages, AIChatMessage{Role: "user", Content: req.Message})

	reply, err := s.complete(ctx, messages)
	if err != nil {
		return nil, err
	}
	return &ChatReply{Reply: reply}, nil
}

type SymptomsRequest struct {
	Symptoms []string `json:"symptoms" binding:"required,min=1"`
	Notes    string   `json:"notes"`
}

type SymptomsReply struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CheckSymptoms has no model behind it and always answers the fixed
// disabled response.
func (s *AssistantService) CheckSymptoms(SymptomsRequest) *SymptomsReply {
	return &SymptomsReply{Status: "disabled", Message: "AI Disabled"}
}

type IshiharaPlate struct {
	URL    string `json:"url"`
	Answer string `json:"answer"`
}

var mockIshiharaPlates = []IshiharaPlate{
	{URL: "/static/ishihara/plate-12.png", Answer: "12"},
	{URL: "/static/ishihara/plate-8.png", Answer: "8"},
	{URL: "/static/ishihara/plate-29.png", Answer: "29"},
	{URL: "/static/ishihara/plate-74.png", Answer: "74"},
}

// IshiharaPlates returns the fixed mock plate set.
func (s *AssistantService) IshiharaPlates() []IshiharaPlate {
	out := make([]IshiharaPlate, len(mockIshiharaPlates))
	copy(out, mockIshiharaPlates)
	return out
}

type WorkoutRequest struct {
	Goal        string `json:"goal" binding:"max=200"`
	Minutes     int    `json:"minutes" binding:"omitempty,min=1,max=30"`
	ScreenHours int    `json:"screenHours" binding:"omitempty,min=0,max=24"`
}

type WorkoutStep struct {
	Name         string `json:"name"`
	Seconds      int    `json:"seconds"`
	Instructions string `json:"instructions"`
}

type WorkoutPlan struct {
	Source string        `json:"source"`
	Notice string        `json:"notice,omitempty"`
	Steps  []WorkoutStep `json:"steps"`
}

var fallbackWorkout = []WorkoutStep{
	{Name: "Palming", Seconds: 60, Instructions: "Rub your hands warm and cup them over closed eyes without pressing."},
	{Name: "Far focus", Seconds: 20, Instructions: "Look at something at least 6 metres away."},
	{Name: "Near-far shift", Seconds: 60, Instructions: "Alternate focus between your thumb at arm's length and a distant object."},
	{Name: "Figure eight", Seconds: 45, Instructions: "Trace a large sideways eight with your eyes, then reverse."},
	{Name: "Blink break", Seconds: 30, Instructions: "Blink slowly and fully twenty times."},
}

// Workout asks the model for a personalised eye exercise routine and falls
// back to a fixed routine with a notice when the model cannot deliver one.
func (s *AssistantService) Workout(ctx context.Context, req WorkoutRequest) *WorkoutPlan {
	minutes := req.Minutes
	if minutes == 0 {
		minutes = 5
	}
	prompt := fmt.Sprintf(
		"Build a %d minute eye exercise routine for someone with %d hours of daily screen time. Goal: %q. "+
			`Answer with JSON only: {"steps":[{"name":"","seconds":0,"instructions":""}]}`,
		minutes, req.ScreenHours, req.Goal)

	reply, err := s.complete(ctx, []AIChatMessage{
		{Role: "system", Content: assistantSystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err == nil {
		if steps, perr := parseWorkout(reply); perr == nil {
			return &WorkoutPlan{Source: "ai", Steps: steps}
		} else {
			logger.Log.Warn("unusable workout reply", zap.Error(perr))
		}
	}

	steps := make([]WorkoutStep, len(fallbackWorkout))
	copy(steps, fallbackWorkout)
	return &WorkoutPlan{Source: "fallback", Notice: unavailableNotice, Steps: steps}
}

func parseWorkout(reply string) ([]WorkoutStep, error) {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")

	var plan struct {
		Steps []WorkoutStep `json:"steps"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &plan); err != nil {
		return nil, err
	}
	if len(plan.Steps) == 0 {
		return nil, errors.New("workout has no steps")
	}
	for _, st := range plan.Steps {
		if st.Name == "" || st.Seconds <= 0 {
			return nil, fmt.Errorf("invalid workout step %q", st.Name)
		}
	}
	return plan.Steps, nil
}

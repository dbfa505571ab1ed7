package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"eyecare_backend/internal/config"
	"eyecare_backend/internal/model"
	"eyecare_backend/internal/repository"
	"eyecare_backend/internal/util"
	"eyecare_backend/pkg/logger"
	"eyecare_backend/pkg/monitoring"
	"eyecare_backend/pkg/staircase"
	"eyecare_backend/pkg/tracing"
	"eyecare_backend/pkg/visiontest"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VisionTestService runs staircase sessions for authenticated users. Events on
// one session are serialized so exactly one evaluation is ever in flight.
type VisionTestService struct {
	Store        repository.VisionSessionStore
	ResultRepo   *repository.TestResultRepository
	Achievements *AchievementService
	Cfg          *config.VisionTestConfig

	locks   *keyedMutex
	now     func() time.Time
	newSeed func() uint64
}

func NewVisionTestService(
	store repository.VisionSessionStore,
	resultRepo *repository.TestResultRepository,
	achievements *AchievementService,
	cfg *config.VisionTestConfig,
) *VisionTestService {
	return &VisionTestService{
		Store:        store,
		ResultRepo:   resultRepo,
		Achievements: achievements,
		Cfg:          cfg,
		locks:        newKeyedMutex(),
		now:          time.Now,
		newSeed:      rand.Uint64,
	}
}

type CreateSessionRequest struct {
	Kind string `json:"kind" binding:"required"`
	Eye  string `json:"eye"`
	// Seed replays a known stimulus sequence when set.
	Seed *uint64 `json:"seed"`
}

// AnswerOutcome is the result of one submitted answer.
type AnswerOutcome struct {
	Session *model.VisionSession `json:"session"`
	Correct bool                 `json:"correct"`
	Result  *model.TestResult    `json:"result,omitempty"`
	Reward  *Reward              `json:"reward,omitempty"`
}

func (s *VisionTestService) Catalog() []*visiontest.Definition {
	return visiontest.All()
}

func (s *VisionTestService) CreateSession(ctx context.Context, userID uint, req CreateSessionRequest) (*model.VisionSession, error) {
	if _, err := visiontest.Lookup(visiontest.Kind(req.Kind)); err != nil {
		return nil, err
	}
	eye := model.Eye(req.Eye)
	if eye == "" {
		eye = model.EyeBoth
	}
	if !eye.Valid() {
		return nil, util.ErrInvalidEye
	}

	seed := s.newSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}

	now := s.now()
	session := &model.VisionSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      req.Kind,
		Eye:       eye,
		State:     staircase.NewState(seed),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// GetSession loads a session owned by userID. Sessions of other users are
// reported as not found.
func (s *VisionTestService) GetSession(ctx context.Context, userID uint, id string) (*model.VisionSession, error) {
	session, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, util.ErrSessionNotFound
	}
	return session, nil
}

func (s *VisionTestService) Start(ctx context.Context, userID uint, id string) (*model.VisionSession, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, def, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	next, err := def.Machine().Transition(session.State, staircase.Start{})
	if err != nil {
		return session, err
	}

	now := s.now()
	session.State = next
	session.StartedAt = &now
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	monitoring.SessionsStarted.WithLabelValues(session.Kind).Inc()
	return session, nil
}

// Answer scores the user's answer for the open round. An answer outside the
// offered options returns the unchanged session together with a
// *staircase.InvalidAnswerError. When the answer finishes the run its result
// is persisted and rewarded.
func (s *VisionTestService) Answer(ctx context.Context, userID uint, id, answer string) (*AnswerOutcome, error) {
	ctx, span := tracing.Tracer.Start(ctx, "VisionTestService.Answer")
	defer span.End()

	unlock := s.locks.Lock(id)
	defer unlock()

	session, def, err := s.load(ctx, userID, id)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("vision_test.kind", session.Kind),
		attribute.Int("vision_test.rank", session.State.CurrentRank),
	)

	next, err := def.Machine().Transition(session.State, staircase.Answer{Value: answer})
	if errors.Is(err, staircase.ErrInvalidAnswer) {
		monitoring.InvalidAnswers.WithLabelValues(session.Kind).Inc()
		return &AnswerOutcome{Session: session}, err
	}
	if err != nil {
		tracing.RecordError(span, err)
		return &AnswerOutcome{Session: session}, err
	}

	last := next.History[len(next.History)-1]
	session.State = next
	outcome := &AnswerOutcome{Session: session, Correct: last.Correct}

	if next.Phase == staircase.PhaseFinished {
		result, reward, err := s.finish(session)
		if err != nil {
			tracing.RecordError(span, err)
			return nil, err
		}
		outcome.Result = result
		outcome.Reward = reward
		span.SetAttributes(attribute.String("vision_test.final_label", result.FinalLabel))
	}

	if err := s.save(ctx, session); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return outcome, nil
}

func (s *VisionTestService) Restart(ctx context.Context, userID uint, id string) (*model.VisionSession, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, def, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	next, err := def.Machine().Transition(session.State, staircase.Restart{})
	if err != nil {
		return session, err
	}
	session.State = next
	session.StartedAt = nil
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Abandon discards the live session in any phase. Results already persisted
// for earlier runs are kept.
func (s *VisionTestService) Abandon(ctx context.Context, userID uint, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.GetSession(ctx, userID, id); err != nil {
		return err
	}
	return s.Store.Delete(ctx, id)
}

func (s *VisionTestService) ListResults(userID uint, kind string, page, limit int) ([]model.TestResult, int64, error) {
	return s.ResultRepo.ListByUser(userID, kind, page, limit)
}

func (s *VisionTestService) GetResult(userID, id uint) (*model.TestResult, error) {
	result, err := s.ResultRepo.FindByIDAndUserID(id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrResultNotFound
	}
	return result, err
}

func (s *VisionTestService) load(ctx context.Context, userID uint, id string) (*model.VisionSession, *visiontest.Definition, error) {
	session, err := s.GetSession(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	def, err := visiontest.Lookup(visiontest.Kind(session.Kind))
	if err != nil {
		return nil, nil, err
	}
	return session, def, nil
}

func (s *VisionTestService) save(ctx context.Context, session *model.VisionSession) error {
	session.UpdatedAt = s.now()
	if err := s.Store.Save(ctx, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// finish stores the result of a finished run and rewards it in one
// transaction. A run whose result is already stored, because the session
// save failed after an earlier finish, returns that result without a reward.
func (s *VisionTestService) finish(session *model.VisionSession) (*model.TestResult, *Reward, error) {
	existing, err := s.ResultRepo.FindBySessionRun(session.ID, session.State.Run)
	if err == nil {
		return existing, nil, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("find result: %w", err)
	}

	res := session.State.Result
	now := s.now()
	started := now
	if session.StartedAt != nil {
		started = *session.StartedAt
	}

	result := &model.TestResult{
		UserID:       session.UserID,
		SessionID:    session.ID,
		Kind:         session.Kind,
		Eye:          session.Eye,
		Seed:         session.State.Seed,
		Run:          session.State.Run,
		FinalLabel:   res.FinalLabel,
		FinalRank:    res.FinalRank,
		BelowMinimum: res.BelowMinimum,
		Completed:    res.Completed,
		Rounds:       len(res.History),
		History:      res.History,
		StartedAt:    started,
		FinishedAt:   now,
	}

	// below minimum passes no level and earns the base XP only
	result.EarnedXP = s.Cfg.BaseXP + s.Cfg.XPPerLevel*(res.FinalRank+1)

	codes := []string{model.BadgeFirstTest}
	if res.Completed {
		codes = append(codes, model.BadgePerfectSight)
	}

	var reward *Reward
	err = s.ResultRepo.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.ResultRepo.WithTx(tx).Create(result); err != nil {
			return fmt.Errorf("save result: %w", err)
		}
		var err error
		reward, err = s.Achievements.WithTx(tx).Award(session.UserID, result.EarnedXP, codes...)
		if err != nil {
			return fmt.Errorf("award result: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	monitoring.SessionsFinished.WithLabelValues(session.Kind, monitoring.Outcome(res.BelowMinimum, res.Completed)).Inc()
	logger.Log.Info("vision test finished",
		zap.Uint("user_id", session.UserID),
		zap.String("session_id", session.ID),
		zap.String("kind", session.Kind),
		zap.String("eye", string(session.Eye)),
		zap.String("final_label", res.FinalLabel),
		zap.Int("rounds", len(res.History)),
	)
	return result, reward, nil
}

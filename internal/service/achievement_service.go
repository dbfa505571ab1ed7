package service

import (
	"eyecare_backend/internal/model"
	"eyecare_backend/internal/repository"
	"eyecare_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type badgeDef struct {
	Name    string
	Icon    string
	BonusXP int
}

var badges = map[string]badgeDef{
	model.BadgeFirstTest:    {Name: "First look", Icon: "eye", BonusXP: 10},
	model.BadgePerfectSight: {Name: "Eagle eye", Icon: "eagle", BonusXP: 50},
	model.BadgeStreak7:      {Name: "Seven day streak", Icon: "flame", BonusXP: 70},
}

const xpPerUserLevel = 200

type AchievementService struct {
	AchievementRepo *repository.AchievementRepository
	UserRepo        *repository.UserRepository
}

func NewAchievementService(
	achievementRepo *repository.AchievementRepository,
	userRepo *repository.UserRepository,
) *AchievementService {
	return &AchievementService{
		AchievementRepo: achievementRepo,
		UserRepo:        userRepo,
	}
}

// WithTx returns a service whose writes go through tx.
func (s *AchievementService) WithTx(tx *gorm.DB) *AchievementService {
	return &AchievementService{
		AchievementRepo: s.AchievementRepo.WithTx(tx),
		UserRepo:        s.UserRepo.WithTx(tx),
	}
}

type UserAchievements struct {
	TotalXP      int                 `json:"totalXp"`
	CurrentLevel int                 `json:"currentLevel"`
	NextLevelXP  int                 `json:"nextLevelXp"`
	Badges       []model.Achievement `json:"badges"`
	Leaderboard  []LeaderboardEntry  `json:"leaderboard"`
}

type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	User   string `json:"user"`
	XP     int    `json:"xp"`
	Avatar string `json:"avatar,omitempty"`
}

// Reward is what a single action earned the user.
type Reward struct {
	XP     int                 `json:"xp"`
	Badges []model.Achievement `json:"badges,omitempty"`
}

func (s *AchievementService) GetUserAchievements(userID uint) (*UserAchievements, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	achievements, err := s.AchievementRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}

	leaderboard, err := s.GetLeaderboard(10)
	if err != nil {
		return nil, err
	}

	level, nextLevelXP := calculateLevel(user.XP)

	return &UserAchievements{
		TotalXP:      user.XP,
		CurrentLevel: level,
		NextLevelXP:  nextLevelXP,
		Badges:       achievements,
		Leaderboard:  leaderboard,
	}, nil
}

func (s *AchievementService) GetLeaderboard(limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	users, err := s.UserRepo.FindTopByXP(limit)
	if err != nil {
		return nil, err
	}

	leaderboard := make([]LeaderboardEntry, len(users))
	for i, user := range users {
		leaderboard[i] = LeaderboardEntry{
			Rank:   i + 1,
			User:   user.Name,
			XP:     user.XP,
			Avatar: user.Avatar,
		}
	}

	return leaderboard, nil
}

// Award adds xp to the user and grants the listed badges they do not hold
// yet. Badge bonus XP is included in the returned reward.
func (s *AchievementService) Award(userID uint, xp int, codes ...string) (*Reward, error) {
	reward := &Reward{XP: xp}
	for _, code := range codes {
		def, ok := badges[code]
		if !ok {
			continue
		}
		a := &model.Achievement{UserID: userID, Code: code, Name: def.Name, Icon: def.Icon, EarnedXP: def.BonusXP}
		created, err := s.AchievementRepo.Grant(a)
		if err != nil {
			return nil, err
		}
		if created {
			reward.XP += def.BonusXP
			reward.Badges = append(reward.Badges, *a)
			logger.Log.Info("badge granted", zap.Uint("user_id", userID), zap.String("badge", code))
		}
	}

	if reward.XP > 0 {
		if err := s.UserRepo.UpdateXP(userID, reward.XP); err != nil {
			return nil, err
		}
	}
	return reward, nil
}

func calculateLevel(xp int) (int, int) {
	level := xp / xpPerUserLevel
	return level, (level + 1) * xpPerUserLevel
}

package model

import "time"

// Quest lifecycle states as stored in quests.status.
const (
	QuestActive    = "active"
	QuestCompleted = "completed"
	QuestExpired   = "expired"
)

// Quest mirrors the `quests` table. Target tiles are persisted as a JSON
// column since they are only ever read back as a whole.
//
// Fields:
//
//	ID               – primary key identifier.
//	Title            – short player-facing headline.
//	Description      – longer player-facing text.
//	TargetTiles      – tiles the quest is anchored to (quests.target_tiles, JSON).
//	Deadline         – when the quest expires.
//	RewardXP         – XP granted on completion.
//	Status           – active | completed | expired.
//	Steps            – suggested steps (quests.steps, JSON; may be empty).
//	EstimatedMinutes – rough time-to-complete hint for the client.
//	CreatedAt        – timestamp of creation.
type Quest struct {
	ID               uint64    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	TargetTiles      []Vec2    `json:"targetTiles"`
	Deadline         time.Time `json:"deadline"`
	RewardXP         int       `json:"rewardXp"`
	Status           string    `json:"status"`
	Steps            []string  `json:"steps,omitempty"`
	EstimatedMinutes int       `json:"estimatedMinutes,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// QuestProgress mirrors the `quest_progress` table. One row per
// (user, quest) pair, upserted as the user moves through the quest.
type QuestProgress struct {
	ID            uint64     `json:"id"`
	UserID        uint64     `json:"userId"`
	QuestID       uint64     `json:"questId"`
	AcceptedAt    *time.Time `json:"acceptedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	RewardClaimed bool       `json:"rewardClaimed"`
}

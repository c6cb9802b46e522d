package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/citypulse/server/internal/queue"
	"github.com/citypulse/server/internal/repository"
)

// QuestHandler exposes the quest lifecycle over HTTP. Completion publishes a
// quest.completed event; the actual XP credit happens asynchronously in the
// progression worker.
type QuestHandler struct {
	Quests   *repository.QuestRepo
	Progress *repository.ProgressRepo
	Broker   queue.Broker
}

func NewQuestHandler(quests *repository.QuestRepo, progress *repository.ProgressRepo, broker queue.Broker) *QuestHandler {
	return &QuestHandler{Quests: quests, Progress: progress, Broker: broker}
}

// List returns currently active quests, newest first.
func (h *QuestHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	quests, err := h.Quests.ListActive(ctx, 50)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": quests})
}

// Accept marks a quest as accepted by the caller. Idempotent.
func (h *QuestHandler) Accept(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
	}
	questID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid quest id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Quests.GetByID(ctx, questID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "quest not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Progress.MarkAccepted(ctx, userID, questID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "accept failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"questId": questID, "status": "accepted"})
}

// Complete records completion and hands the reward off to the bus.
func (h *QuestHandler) Complete(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
	}
	questID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid quest id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	q, err := h.Quests.GetByID(ctx, questID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "quest not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Progress.MarkCompleted(ctx, userID, questID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "complete failed"})
	}

	evt := queue.QuestCompleted{
		QuestID:  q.ID,
		UserID:   userID,
		RewardXP: q.RewardXP,
		At:       time.Now().UTC(),
	}
	if err := h.Broker.Publish(ctx, queue.TopicQuestCompleted, evt); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "publish failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"questId": questID, "status": "completed", "rewardXp": q.RewardXP})
}

// currentUserID parses the subject set by the JWT middleware.
func currentUserID(c echo.Context) (uint64, error) {
	sub, _ := c.Get("user_id").(string)
	return strconv.ParseUint(sub, 10, 64)
}

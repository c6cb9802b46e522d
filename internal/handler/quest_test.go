package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/server/internal/model"
	"github.com/citypulse/server/internal/queue"
	"github.com/citypulse/server/internal/repository"
)

func newQuestEnv(t *testing.T) (*QuestHandler, sqlmock.Sqlmock, *queue.MemoryBroker) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	broker := queue.NewMemoryBroker()
	h := NewQuestHandler(repository.NewQuestRepo(db), repository.NewProgressRepo(db), broker)
	return h, mock, broker
}

func questRows(id uint64, rewardXP int) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "title", "description", "target_tiles", "deadline",
		"reward_xp", "status", "steps", "estimated_minutes", "created_at",
	}).AddRow(id, "Mitigate traffic spike (2)", "desc", []byte(`[{"x":1,"y":2}]`),
		now.Add(30*time.Minute), rewardXP, model.QuestActive, []byte(`[]`), 25, now)
}

func authedContext(e *echo.Echo, req *http.Request, rec http.ResponseWriter, userID, questID string) echo.Context {
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	if questID != "" {
		c.SetParamNames("id")
		c.SetParamValues(questID)
	}
	return c
}

func TestQuestListReturnsActiveQuests(t *testing.T) {
	h, mock, _ := newQuestEnv(t)
	mock.ExpectQuery("SELECT (.+) FROM quests WHERE status").
		WithArgs(model.QuestActive, 50).
		WillReturnRows(questRows(9, 60))

	e := echo.New()
	req, rec := jsonReq(http.MethodGet, "/v1/quests", "")
	require.NoError(t, h.List(authedContext(e, req, rec, "42", "")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Mitigate traffic spike")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestAcceptUnknownQuest(t *testing.T) {
	h, mock, _ := newQuestEnv(t)
	mock.ExpectQuery("SELECT (.+) FROM quests WHERE id").
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	e := echo.New()
	req, rec := jsonReq(http.MethodPost, "/v1/quests/404/accept", "")
	require.NoError(t, h.Accept(authedContext(e, req, rec, "42", "404")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuestAcceptRecordsProgress(t *testing.T) {
	h, mock, _ := newQuestEnv(t)
	mock.ExpectQuery("SELECT (.+) FROM quests WHERE id").
		WithArgs(9).
		WillReturnRows(questRows(9, 60))
	mock.ExpectExec("INSERT INTO quest_progress").
		WithArgs(uint64(42), uint64(9), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	e := echo.New()
	req, rec := jsonReq(http.MethodPost, "/v1/quests/9/accept", "")
	require.NoError(t, h.Accept(authedContext(e, req, rec, "42", "9")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestCompletePublishesReward(t *testing.T) {
	h, mock, broker := newQuestEnv(t)
	mock.ExpectQuery("SELECT (.+) FROM quests WHERE id").
		WithArgs(9).
		WillReturnRows(questRows(9, 60))
	mock.ExpectExec("INSERT INTO quest_progress").
		WithArgs(uint64(42), uint64(9), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	var got []queue.QuestCompleted
	require.NoError(t, broker.Subscribe(queue.TopicQuestCompleted, func(_ context.Context, body []byte) error {
		var evt queue.QuestCompleted
		if err := json.Unmarshal(body, &evt); err != nil {
			return err
		}
		got = append(got, evt)
		return nil
	}))

	e := echo.New()
	req, rec := jsonReq(http.MethodPost, "/v1/quests/9/complete", "")
	require.NoError(t, h.Complete(authedContext(e, req, rec, "42", "9")))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, got, 1)
	assert.Equal(t, uint64(9), got[0].QuestID)
	assert.Equal(t, uint64(42), got[0].UserID)
	assert.Equal(t, 60, got[0].RewardXP)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestCompleteRejectsBadSubject(t *testing.T) {
	h, _, _ := newQuestEnv(t)
	e := echo.New()
	req, rec := jsonReq(http.MethodPost, "/v1/quests/9/complete", "")
	c := e.NewContext(req, rec)
	c.Set("user_id", "not-a-number")
	c.SetParamNames("id")
	c.SetParamValues("9")
	require.NoError(t, h.Complete(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

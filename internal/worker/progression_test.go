package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/server/internal/queue"
)

type fakeUserStore struct {
	xp  map[uint64]int
	err error
}

func (s *fakeUserStore) AddXP(_ context.Context, userID uint64, xp int) error {
	if s.err != nil {
		return s.err
	}
	if s.xp == nil {
		s.xp = map[uint64]int{}
	}
	s.xp[userID] += xp
	return nil
}

type fakeProgressStore struct {
	claimed map[[2]uint64]bool
}

func (s *fakeProgressStore) MarkClaimed(_ context.Context, userID, questID uint64) error {
	if s.claimed == nil {
		s.claimed = map[[2]uint64]bool{}
	}
	s.claimed[[2]uint64{userID, questID}] = true
	return nil
}

func TestProgressionCreditsXPAndClaimsReward(t *testing.T) {
	b := queue.NewMemoryBroker()
	users := &fakeUserStore{}
	progress := &fakeProgressStore{}
	require.NoError(t, NewProgressionWorker(b, users, progress).Start())

	msg := queue.QuestCompleted{QuestID: 7, UserID: 42, RewardXP: 60, At: time.Now().UTC()}
	require.NoError(t, b.Publish(context.Background(), queue.TopicQuestCompleted, msg))

	assert.Equal(t, 60, users.xp[42])
	assert.True(t, progress.claimed[[2]uint64{42, 7}])

	// Each completion message credits once more; the increment is relative.
	require.NoError(t, b.Publish(context.Background(), queue.TopicQuestCompleted, msg))
	assert.Equal(t, 120, users.xp[42])
}

func TestProgressionSkipsClaimWhenCreditFails(t *testing.T) {
	b := queue.NewMemoryBroker()
	users := &fakeUserStore{err: errors.New("db down")}
	progress := &fakeProgressStore{}
	require.NoError(t, NewProgressionWorker(b, users, progress).Start())

	msg := queue.QuestCompleted{QuestID: 7, UserID: 42, RewardXP: 60}
	require.NoError(t, b.Publish(context.Background(), queue.TopicQuestCompleted, msg))

	assert.Empty(t, progress.claimed)
}

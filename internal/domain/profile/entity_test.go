package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		xp   XP
		want Level
	}{
		{0, 1},
		{50, 1},
		{99, 1},
		{100, 2},
		{199, 2},
		{250, 3},
		{1000, 11},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.xp), "xp=%d", tt.xp)
	}
}

func TestLevelForIsMonotonic(t *testing.T) {
	prev := LevelFor(0)
	for xp := XP(1); xp <= 1000; xp++ {
		current := LevelFor(xp)
		require.GreaterOrEqual(t, current, prev, "level decreased at xp=%d", xp)
		prev = current
	}
}

func TestXPToNextLevel(t *testing.T) {
	assert.Equal(t, XP(100), XPToNextLevel(0))
	assert.Equal(t, XP(1), XPToNextLevel(99))
	assert.Equal(t, XP(100), XPToNextLevel(100))
	assert.Equal(t, XP(50), XPToNextLevel(250))
}

func TestAddXP(t *testing.T) {
	p, err := NewProfile("u1", "Dina")
	require.NoError(t, err)

	total, err := p.AddXP(30)
	require.NoError(t, err)
	assert.Equal(t, XP(30), total)

	_, err = p.AddXP(-10)
	assert.ErrorIs(t, err, shared.ErrInvalidXP)
	assert.Equal(t, XP(30), p.CurrentXP)
}

func TestSyncLevelFiresOncePerThreshold(t *testing.T) {
	p, err := NewProfile("u1", "Dina")
	require.NoError(t, err)

	_, err = p.AddXP(120)
	require.NoError(t, err)

	leveledUp, oldLevel, newLevel := p.SyncLevel()
	assert.True(t, leveledUp)
	assert.Equal(t, Level(1), oldLevel)
	assert.Equal(t, Level(2), newLevel)

	// Re-delivery of the same state must not fire again.
	leveledUp, _, newLevel = p.SyncLevel()
	assert.False(t, leveledUp)
	assert.Equal(t, Level(2), newLevel)
}

func TestSyncLevelNeverDecreases(t *testing.T) {
	p, err := NewProfile("u1", "Dina")
	require.NoError(t, err)
	p.StoredLevel = 5
	p.CurrentXP = 10

	leveledUp, _, newLevel := p.SyncLevel()
	assert.False(t, leveledUp)
	assert.Equal(t, Level(5), newLevel)
	assert.Equal(t, Level(5), p.StoredLevel)
}

func TestUnlockBadge(t *testing.T) {
	p, err := NewProfile("u1", "Dina")
	require.NoError(t, err)

	require.NoError(t, p.UnlockBadge("first_task"))
	assert.True(t, p.HasBadge("first_task"))

	err = p.UnlockBadge("first_task")
	assert.ErrorIs(t, err, shared.ErrBadgeUnlocked)
	assert.Len(t, p.Badges, 1)
}

func TestLearningStyleValidation(t *testing.T) {
	assert.True(t, StyleCasual.IsValid())
	assert.True(t, StyleAcademic.IsValid())
	assert.False(t, LearningStyle("Chaotic").IsValid())

	p, err := NewProfile("u1", "Dina")
	require.NoError(t, err)
	p.UpdateDetails("Dina", "Informatics", "Databases", "Chaotic")
	assert.Equal(t, StyleCasual, p.LearningStyle)

	p.UpdateDetails("Dina", "Informatics", "Databases", StyleFormal)
	assert.Equal(t, StyleFormal, p.LearningStyle)
}

package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAgentsReplaces(t *testing.T) {
	db := openTestDB(t)

	first := []AgentRecord{
		{Name: "Bortolo", Mode: "ROUTINE", RoutineType: "SHOP", CurrentNode: "a", TargetNode: "b", UpdatedMinute: 100},
		{Name: "Marietta", Mode: "AT_DETOUR", RoutineType: "FREE_TIME", CurrentNode: "c", TargetNode: "c", UpdatedMinute: 100},
	}
	require.NoError(t, db.SaveAgents(first))

	// A later snapshot with fewer agents fully replaces the table.
	second := []AgentRecord{
		{Name: "Bortolo", Mode: "ROUTINE", RoutineType: "HOME", CurrentNode: "b", TargetNode: "a", UpdatedMinute: 200},
	}
	require.NoError(t, db.SaveAgents(second))

	var rows []AgentRecord
	require.NoError(t, db.conn.Select(&rows, "SELECT * FROM agents"))
	require.Len(t, rows, 1)
	assert.Equal(t, "Bortolo", rows[0].Name)
	assert.Equal(t, "HOME", rows[0].RoutineType)
	assert.Equal(t, 200.0, rows[0].UpdatedMinute)
}

func TestDetourEventFeed(t *testing.T) {
	db := openTestDB(t)

	events, err := db.RecentDetourEvents(10)
	require.NoError(t, err)
	assert.Empty(t, events)

	for i := 0; i < 5; i++ {
		require.NoError(t, db.AppendDetourEvent(DetourRecord{
			SimMinutes: float64(1000 + i),
			Agent:      "Bortolo",
			ChoiceID:   "osteria-luna",
			Category:   "tavern",
			Label:      "Osteria della Luna",
			Thought:    "una ombra",
		}))
	}

	events, err = db.RecentDetourEvents(3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, 1004.0, events[0].SimMinutes, "most recent first")
	assert.Equal(t, "tavern", events[0].Category)
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SetMeta("sim_minutes", "1234.5"))
	v, err := db.GetMeta("sim_minutes")
	require.NoError(t, err)
	assert.Equal(t, "1234.5", v)

	// Upsert.
	require.NoError(t, db.SetMeta("sim_minutes", "2000"))
	v, err = db.GetMeta("sim_minutes")
	require.NoError(t, err)
	assert.Equal(t, "2000", v)

	_, err = db.GetMeta("absent")
	assert.Error(t, err)
}

package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmdrelay/cmdrelay/internal/types"
)

func rosterActor(id string) types.Actor {
	return types.Actor{ID: types.ActorID(id), Name: id, Location: types.Location{World: "world"}}
}

func TestRosterCommands(t *testing.T) {
	r := NewRoster()
	r.SetCommands(map[string]string{"Fly": "essentials.fly", "spawn": ""})

	assert.Equal(t, 2, r.CommandCount())

	_, known := r.Lookup("fly")
	assert.True(t, known, "labels are case-folded")
	_, known = r.Lookup("warp")
	assert.False(t, known)
}

func TestRosterPermissionCheck(t *testing.T) {
	r := NewRoster()
	r.SetCommands(map[string]string{"fly": "essentials.fly", "spawn": ""})
	r.Upsert(rosterActor("p1"), "default", "", []string{"essentials.fly"})
	r.Upsert(rosterActor("p2"), "default", "", nil)

	check, known := r.Lookup("fly")
	require.True(t, known)
	assert.True(t, check("p1"))
	assert.False(t, check("p2"))
	assert.False(t, check("ghost"), "unannounced actors hold no permissions")

	open, known := r.Lookup("spawn")
	require.True(t, known)
	assert.True(t, open("p2"), "commands with no permission node are open")
}

func TestRosterGroupService(t *testing.T) {
	r := NewRoster()
	r.Upsert(rosterActor("p1"), "admin", "", nil)
	r.Upsert(rosterActor("p2"), "", "", nil)

	group, err := r.PrimaryGroup(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "admin", group)

	group, err = r.PrimaryGroup(context.Background(), "p2")
	require.NoError(t, err)
	assert.Equal(t, "", group)

	_, err = r.PrimaryGroup(context.Background(), "ghost")
	assert.Error(t, err)
}

func TestRosterLinkService(t *testing.T) {
	r := NewRoster()
	r.Upsert(rosterActor("p1"), "", "<@42>", nil)
	r.Upsert(rosterActor("p2"), "", "", nil)

	mention, err := r.Mention(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "<@42>", mention)

	mention, err = r.Mention(context.Background(), "p2")
	require.NoError(t, err)
	assert.Equal(t, "", mention)

	mention, err = r.Mention(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, "", mention)
}

func TestRosterUpdate(t *testing.T) {
	r := NewRoster()
	r.Upsert(rosterActor("p1"), "default", "", []string{"essentials.fly"})

	moved := rosterActor("p1")
	moved.Location = types.Location{World: "nether", X: 5, Y: 60, Z: -3}
	r.Update(moved, "admin")

	actor, ok := r.Actor("p1")
	require.True(t, ok)
	assert.Equal(t, "nether", actor.Location.World)

	group, err := r.PrimaryGroup(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "admin", group)
	assert.True(t, r.HasPermission("p1", "essentials.fly"), "update keeps the permission snapshot")

	// Updates for unknown actors are ignored, not upserted.
	r.Update(rosterActor("ghost"), "admin")
	_, ok = r.Actor("ghost")
	assert.False(t, ok)
}

func TestRosterEvict(t *testing.T) {
	r := NewRoster()
	r.Upsert(rosterActor("p1"), "default", "", nil)

	r.Evict("p1")
	_, ok := r.Actor("p1")
	assert.False(t, ok)
	assert.False(t, r.HasPermission("p1", "anything"))
}

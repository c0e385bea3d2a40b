package creature_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/creaturesim/internal/game/condition"
	"github.com/cory-johannsen/creaturesim/internal/game/creature"
	"github.com/cory-johannsen/creaturesim/internal/game/movement"
	"github.com/cory-johannsen/creaturesim/internal/game/world"
	"github.com/cory-johannsen/creaturesim/internal/testutil"
)

const hunterYAML = `
id: hunter
name: Wolf
health: 25
speed: 190
race: blood
flee_health: 8
attack:
  min: 1
  max: 4
  type: physical
  interval_ms: 2000
`

const archerYAML = `
id: archer
name: Skeleton Archer
health: 40
speed: 170
race: undead
target_distance: 4
`

func TestStepDuration_FollowsGroundSpeed(t *testing.T) {
	h := testutil.NewHarness(t)
	grass := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(105, 105))
	road := h.SpawnPlayer(t, "Bob", 100, testutil.Pos(105, 110))

	assert.Equal(t, movement.StepDuration(220, 150, movement.DefaultCurve), grass.StepDuration())
	assert.Equal(t, movement.StepDuration(220, 300, movement.DefaultCurve), road.StepDuration())
	assert.Greater(t, road.StepDuration(), grass.StepDuration())
	assert.Zero(t, grass.StepDuration()%movement.TickMs)
}

func TestStepDurationToward_DiagonalTakesThreeTimes(t *testing.T) {
	h := testutil.NewHarness(t)
	p := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(105, 105))

	assert.Equal(t, p.StepDuration(), p.StepDurationToward(world.East))
	assert.Equal(t, 3*p.StepDuration(), p.StepDurationToward(world.SouthEast))
}

func TestStepDuration_EngagedMonsterStepsAtHalfPace(t *testing.T) {
	h := testutil.NewHarness(t)
	p := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(105, 105))
	wolf := h.SpawnTemplate(t, hunterYAML, testutil.Pos(108, 105))
	calm := wolf.StepDuration()

	require.True(t, wolf.SetAttackTarget(p))

	assert.Equal(t, 2*calm, wolf.StepDuration())
}

func TestStepDuration_ZeroOnceRemoved(t *testing.T) {
	h := testutil.NewHarness(t)
	p := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(105, 105))
	h.World.Remove(p)
	assert.Zero(t, p.StepDuration())
}

func TestWalkDelay_StepCost(t *testing.T) {
	t.Run("orthogonal step", func(t *testing.T) {
		h := testutil.NewHarness(t)
		p := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(105, 105))
		assert.Zero(t, p.WalkDelay(), "a creature that never stepped may step at once")

		require.True(t, p.StartAutoWalk([]world.Direction{world.East}))

		assert.Equal(t, testutil.Pos(106, 105), p.Position())
		assert.Equal(t, p.StepDuration(), p.WalkDelay())
	})

	t.Run("diagonal step costs two", func(t *testing.T) {
		h := testutil.NewHarness(t)
		p := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(105, 105))

		require.True(t, p.StartAutoWalk([]world.Direction{world.SouthEast}))

		assert.Equal(t, testutil.Pos(106, 106), p.Position())
		assert.Equal(t, 2*p.StepDuration(), p.WalkDelay())

		h.Clock.Advance(p.StepDuration())
		assert.Equal(t, p.StepDuration(), p.WalkDelay())
	})

	t.Run("floor change costs two", func(t *testing.T) {
		h := testutil.NewHarness(t)
		p := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(104, 102))
		up := world.Position{X: 103, Y: 101, Z: 8}

		require.NoError(t, h.World.ChangeFloor(p, up))

		assert.Equal(t, up, p.Position())
		assert.Equal(t, 2*p.StepDuration(), p.WalkDelay())
	})

	t.Run("teleport costs one", func(t *testing.T) {
		h := testutil.NewHarness(t)
		p := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(104, 102))

		require.NoError(t, h.World.Teleport(p, world.Position{X: 102, Y: 101, Z: 8}))

		assert.Equal(t, p.StepDuration(), p.WalkDelay())
	})
}

func TestChangeFloor_RejectsDistantTargets(t *testing.T) {
	h := testutil.NewHarness(t)
	p := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(105, 105))

	assert.ErrorIs(t, h.World.ChangeFloor(p, testutil.Pos(106, 105)), world.ErrNotPossible, "same floor")
	assert.ErrorIs(t, h.World.ChangeFloor(p, world.Position{X: 103, Y: 101, Z: 8}), world.ErrNotPossible, "too far on x and y")
	assert.ErrorIs(t, h.World.ChangeFloor(p, world.Position{X: 105, Y: 105, Z: 9}), world.ErrNotPossible, "two floors")
	assert.Equal(t, testutil.Pos(105, 105), p.Position())
}

func TestStartAutoWalk_FollowsTheQueue(t *testing.T) {
	h := testutil.NewHarness(t)
	p := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(105, 105))
	sd := p.StepDuration()

	require.True(t, p.StartAutoWalk([]world.Direction{world.East, world.East, world.East}))
	assert.Equal(t, testutil.Pos(105, 105), p.Position(), "a multi-step walk starts after one step duration")
	assert.True(t, p.Walking())

	h.Advance(sd)
	assert.Equal(t, testutil.Pos(106, 105), p.Position())

	h.Advance(3 * sd)
	assert.Equal(t, testutil.Pos(108, 105), p.Position())
	assert.Empty(t, p.WalkQueue())
	assert.False(t, p.Walking())
}

func TestStartAutoWalk_NoMovePlayerIsRefused(t *testing.T) {
	h := testutil.NewHarness(t)
	p := h.SpawnStats(t, &creature.Player{NoMove: true}, creature.Stats{Name: "Alice", Health: 100, Speed: 220}, testutil.Pos(105, 105))

	assert.False(t, p.StartAutoWalk([]world.Direction{world.East}))

	notes := h.Notes.Of(testutil.NoteCancelWalk, p.ID())
	require.Len(t, notes, 1)
	assert.ErrorIs(t, notes[0].Err, world.ErrNotPossible)
	assert.Equal(t, testutil.Pos(105, 105), p.Position())
}

func TestWalk_BlockedStepCancelsPlayerWalk(t *testing.T) {
	h := testutil.NewHarness(t)
	p := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(109, 105))

	require.True(t, p.StartAutoWalk([]world.Direction{world.East}))

	assert.Equal(t, testutil.Pos(109, 105), p.Position())
	notes := h.Notes.Of(testutil.NoteCancelWalk, p.ID())
	require.Len(t, notes, 1)
	assert.ErrorIs(t, notes[0].Err, world.ErrNotPossible)
}

func TestWalk_OccupiedTileBlocks(t *testing.T) {
	h := testutil.NewHarness(t)
	p := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(105, 105))
	h.SpawnPlayer(t, "Bob", 100, testutil.Pos(106, 105))

	require.True(t, p.StartAutoWalk([]world.Direction{world.East}))

	assert.Equal(t, testutil.Pos(105, 105), p.Position())
	notes := h.Notes.Of(testutil.NoteCancelWalk, p.ID())
	require.Len(t, notes, 1)
	assert.ErrorIs(t, notes[0].Err, world.ErrTileOccupied)
}

func TestCancelNextWalk_DropsTheRestOfTheQueue(t *testing.T) {
	h := testutil.NewHarness(t)
	p := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(105, 105))
	sd := p.StepDuration()
	require.True(t, p.StartAutoWalk([]world.Direction{world.East, world.East, world.East, world.East}))

	h.Advance(sd)
	require.Equal(t, testutil.Pos(106, 105), p.Position())
	p.CancelNextWalk()

	h.Advance(4 * sd)
	assert.Equal(t, testutil.Pos(107, 105), p.Position())
	assert.Empty(t, p.WalkQueue())
}

func TestWalk_DrunkCreatureStaggers(t *testing.T) {
	t.Run("low roll staggers north", func(t *testing.T) {
		h := testutil.NewHarness(t, testutil.WithDice(0))
		p := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(105, 105))
		require.Equal(t, condition.Applied, p.AddCondition(h.Condition(t, "drunk", 0), false))

		require.True(t, p.StartAutoWalk([]world.Direction{world.East}))

		assert.Equal(t, testutil.Pos(105, 104), p.Position())
		assert.Equal(t, []string{"Hicks!"}, h.Notes.Texts(testutil.NoteSay, p.ID()))
	})

	t.Run("roll of two keeps the direction", func(t *testing.T) {
		h := testutil.NewHarness(t, testutil.WithDice(2))
		p := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(105, 105))
		p.AddCondition(h.Condition(t, "drunk", 0), false)

		require.True(t, p.StartAutoWalk([]world.Direction{world.East}))

		assert.Equal(t, testutil.Pos(106, 105), p.Position())
		assert.Equal(t, []string{"Hicks!"}, h.Notes.Texts(testutil.NoteSay, p.ID()))
	})

	t.Run("high roll walks straight", func(t *testing.T) {
		h := testutil.NewHarness(t, testutil.WithDice(10))
		p := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(105, 105))
		p.AddCondition(h.Condition(t, "drunk", 0), false)

		require.True(t, p.StartAutoWalk([]world.Direction{world.East}))

		assert.Equal(t, testutil.Pos(106, 105), p.Position())
		assert.Empty(t, h.Notes.Texts(testutil.NoteSay, p.ID()))
	})
}

func TestMonster_ChasesNearestPlayer(t *testing.T) {
	h := testutil.NewHarness(t)
	p := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(105, 107))
	wolf := h.SpawnTemplate(t, hunterYAML, testutil.Pos(112, 107))

	wolf.OnThink(1000)
	require.Equal(t, p, wolf.AttackTarget())
	require.Equal(t, p, wolf.FollowTarget())
	assert.True(t, wolf.HasFollowPath())

	h.Advance(20000)
	assert.Equal(t, 1, wolf.Position().Distance(p.Position()))
}

func TestMonster_IgnoresPlayersInProtectionZone(t *testing.T) {
	h := testutil.NewHarness(t)
	h.SpawnPlayer(t, "Alice", 100, testutil.Pos(102, 102))
	wolf := h.SpawnTemplate(t, hunterYAML, testutil.Pos(106, 104))

	wolf.OnThink(1000)

	assert.Nil(t, wolf.AttackTarget())
}

func TestMonster_FleesAtLowHealth(t *testing.T) {
	h := testutil.NewHarness(t)
	h.SpawnPlayer(t, "Alice", 100, testutil.Pos(105, 105))
	wolf := h.SpawnTemplate(t, hunterYAML, testutil.Pos(108, 105))
	wolf.ChangeHealth(-20)
	require.True(t, wolf.Behavior().Fleeing(wolf))

	wolf.OnThink(1000)

	assert.Equal(t, testutil.Pos(109, 105), wolf.Position())
}

func TestMonster_KeepsItsDistance(t *testing.T) {
	h := testutil.NewHarness(t)
	h.SpawnPlayer(t, "Alice", 100, testutil.Pos(105, 107))
	archer := h.SpawnTemplate(t, archerYAML, testutil.Pos(107, 107))

	archer.OnThink(1000)
	assert.Equal(t, testutil.Pos(108, 107), archer.Position())

	steps := 0
	for archer.Position().Distance(testutil.Pos(105, 107)) < 4 && steps < 10 {
		h.Advance(archer.StepDuration())
		archer.OnThink(1000)
		steps++
	}
	assert.Equal(t, 4, archer.Position().Distance(testutil.Pos(105, 107)))
}

func TestSummon_FollowsItsMaster(t *testing.T) {
	h := testutil.NewHarness(t)
	p := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(105, 107))
	tmpl, err := creature.LoadTemplateFromBytes([]byte(hunterYAML))
	require.NoError(t, err)
	wolf, err := h.World.SpawnSummon(p, tmpl, testutil.Pos(111, 107))
	require.NoError(t, err)

	wolf.OnThink(1000)
	require.Equal(t, p, wolf.FollowTarget())

	h.Advance(20000)
	assert.LessOrEqual(t, wolf.Position().Distance(p.Position()), 2)
}

func TestRemove_StopsPendingWalk(t *testing.T) {
	h := testutil.NewHarness(t)
	p := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(105, 105))
	require.True(t, p.StartAutoWalk([]world.Direction{world.East, world.East}))
	require.True(t, p.Walking())

	h.World.Remove(p)

	assert.True(t, p.IsRemoved())
	assert.False(t, p.Walking())
	h.Advance(2000)
	assert.Equal(t, testutil.Pos(105, 105), p.Position())
}

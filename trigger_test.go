package cyclefsm_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/comalice/cyclefsm"
)

func TestEdgeTriggerFiresOncePerRisingEdge(t *testing.T) {
	value := false
	trig := cyclefsm.NewEdgeTrigger(func() bool { return value })

	assert.False(t, trig.Poll())

	value = true
	const holds = 10
	fired := 0
	for i := 0; i < holds; i++ {
		if trig.Poll() {
			fired++
			assert.Equal(t, 0, i, "must fire on the first poll after the rise")
		}
	}
	assert.Equal(t, 1, fired)

	value = false
	assert.False(t, trig.Poll())
	value = true
	assert.True(t, trig.Poll())
}

func TestEdgeTriggerSeededAtConstruction(t *testing.T) {
	trig := cyclefsm.NewEdgeTrigger(func() bool { return true })
	assert.True(t, trig.Last())
	assert.False(t, trig.Poll(), "a predicate true from the start is not an edge")
}

func TestEdgeTriggerEvaluatesOncePerPoll(t *testing.T) {
	calls := 0
	trig := cyclefsm.NewEdgeTrigger(func() bool {
		calls++
		return calls%2 == 0
	})
	assert.Equal(t, 1, calls)

	trig.Poll()
	trig.Poll()
	trig.Poll()
	assert.Equal(t, 4, calls)
}

func TestPhaseIsCondition(t *testing.T) {
	clock := cyclefsm.NewCycleClock(0)
	pred := cyclefsm.PhaseIs(10, 14, 2)(clock)
	trig := cyclefsm.NewEdgeTrigger(pred)

	clock.Set(150 * time.Millisecond)
	assert.False(t, trig.Poll())
	clock.Set(250 * time.Millisecond)
	assert.True(t, trig.Poll())
	clock.Set(290 * time.Millisecond)
	assert.False(t, trig.Poll())
}

func TestWhenIgnoresClock(t *testing.T) {
	pred := cyclefsm.When(func() bool { return true })(nil)
	assert.True(t, pred())
}

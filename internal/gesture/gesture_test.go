package gesture

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vthunder/taskly/internal/clock"
)

type fakeRepo struct {
	calls []string
	err   error
}

func (f *fakeRepo) Archive(id string) error {
	f.calls = append(f.calls, "archive:"+id)
	return f.err
}

func (f *fakeRepo) DeleteActive(id string) error {
	f.calls = append(f.calls, "delete:"+id)
	return f.err
}

func (f *fakeRepo) ToggleStatus(id string) error {
	f.calls = append(f.calls, "toggle:"+id)
	return f.err
}

type fixture struct {
	clock  *clock.Fake
	repo   *fakeRepo
	edits  []string
	interp *Interpreter
}

func newFixture() *fixture {
	f := &fixture{
		clock: clock.NewFake(time.Unix(0, 0)),
		repo:  &fakeRepo{},
	}
	f.interp = New(DefaultConfig(), Deps{
		Clock:    f.clock,
		Repo:     f.repo,
		OpenEdit: func(id string) { f.edits = append(f.edits, id) },
	})
	return f
}

func TestRow_MoveAffordance(t *testing.T) {
	f := newFixture()
	row := f.interp.Row("t1")
	row.Down(200)
	assert.Equal(t, Tracking, row.State())

	a := row.Move(190)
	assert.Equal(t, Affordance{}, a, "inside the dead zone nothing shows")

	a = row.Move(170)
	assert.Equal(t, ActionArchive, a.Direction)
	assert.Equal(t, -30.0, a.Offset)
	assert.False(t, a.Armed)

	a = row.Move(150)
	assert.True(t, a.Armed, "past half the threshold the action is armed")
	assert.InDelta(t, 50.0/80.0, a.Ratio, 1e-9)

	a = row.Move(0)
	assert.Equal(t, -120.0, a.Offset, "offset is clamped")
	assert.Equal(t, 1.0, a.Ratio)

	a = row.Move(400)
	assert.Equal(t, ActionDelete, a.Direction)
	assert.Equal(t, 120.0, a.Offset)
	assert.True(t, a.Armed)
}

func TestRow_MoveWhileIdleIsIgnored(t *testing.T) {
	f := newFixture()
	assert.Equal(t, Affordance{}, f.interp.Row("t1").Move(50))
	assert.Equal(t, Outcome{}, f.interp.Row("t1").Up())
	assert.Empty(t, f.repo.calls)
}

func TestRow_LeftCommitArchivesAfterDelay(t *testing.T) {
	f := newFixture()
	out := f.interp.Swipe("t1", 200, 100)

	assert.Equal(t, ActionArchive, out.Action)
	require.NotNil(t, out.Done)
	assert.Empty(t, f.repo.calls, "commit waits for the dismissal animation")

	f.clock.Advance(299 * time.Millisecond)
	assert.Empty(t, f.repo.calls)

	f.clock.Advance(time.Millisecond)
	assert.Equal(t, []string{"archive:t1"}, f.repo.calls)
	select {
	case <-out.Done:
	default:
		t.Fatal("Done not closed after commit")
	}
}

func TestRow_RightCommitDeletes(t *testing.T) {
	f := newFixture()
	out := f.interp.Swipe("t1", 0, 81)
	assert.Equal(t, ActionDelete, out.Action)
	f.clock.Advance(time.Second)
	assert.Equal(t, []string{"delete:t1"}, f.repo.calls)
}

func TestRow_ThresholdBoundary(t *testing.T) {
	for _, dx := range []float64{-80, -79, -40, -11, 11, 40, 79, 80} {
		f := newFixture()
		out := f.interp.Swipe("t1", 500, 500+dx)
		f.clock.Advance(time.Second)
		assert.Equal(t, ActionNone, out.Action, "dx=%v", dx)
		assert.Nil(t, out.Done)
		assert.Empty(t, f.repo.calls, "dx=%v must not commit", dx)
		assert.Equal(t, Idle, f.interp.Row("t1").State())
	}

	for _, dx := range []float64{-80.5, -200, 80.5, 300} {
		f := newFixture()
		f.interp.Swipe("t1", 500, 500+dx)
		f.clock.Advance(time.Second)
		require.Len(t, f.repo.calls, 1, "dx=%v", dx)
		want := "archive:t1"
		if dx > 0 {
			want = "delete:t1"
		}
		assert.Equal(t, want, f.repo.calls[0])
	}
}

func TestRow_CommitsAtMostOnce(t *testing.T) {
	f := newFixture()
	row := f.interp.Row("t1")
	row.Down(200)
	row.Move(50)
	row.Up()

	// Further input on a committed row is ignored
	row.Down(200)
	row.Move(0)
	assert.Equal(t, Outcome{}, row.Up())
	assert.NoError(t, row.PressDelete())
	assert.NoError(t, row.TapCheckbox())

	f.clock.Advance(time.Second)
	assert.Equal(t, []string{"archive:t1"}, f.repo.calls)

	// After the commit the row is forgotten and a fresh one is handed out
	assert.NotSame(t, row, f.interp.Row("t1"))
	assert.Equal(t, Idle, f.interp.Row("t1").State())
}

func TestRow_TapOpensEdit(t *testing.T) {
	f := newFixture()
	row := f.interp.Row("t1")
	row.Down(100)
	row.Move(105)
	out := row.Up()

	assert.True(t, out.Tap)
	assert.Equal(t, []string{"t1"}, f.edits)
	assert.Empty(t, f.repo.calls)
}

func TestRow_SmallDragNeitherTapsNorCommits(t *testing.T) {
	f := newFixture()
	out := f.interp.Swipe("t1", 100, 140)
	assert.False(t, out.Tap)
	assert.Equal(t, ActionNone, out.Action)
	assert.Empty(t, f.edits)
	assert.Empty(t, f.repo.calls)
}

func TestRow_CheckboxTogglesWithoutEdit(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.interp.Row("t1").TapCheckbox())
	assert.Equal(t, []string{"toggle:t1"}, f.repo.calls)
	assert.Empty(t, f.edits)
}

func TestRow_ButtonsCommitImmediately(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.interp.Row("a").PressArchive())
	require.NoError(t, f.interp.Row("b").PressDelete())
	assert.Equal(t, []string{"archive:a", "delete:b"}, f.repo.calls)
}

func TestRow_CancelActsAsRelease(t *testing.T) {
	f := newFixture()
	row := f.interp.Row("t1")
	row.Down(300)
	row.Move(150)
	out := row.Cancel()
	assert.Equal(t, ActionArchive, out.Action)
	f.clock.Advance(time.Second)
	assert.Equal(t, []string{"archive:t1"}, f.repo.calls)
}

func TestRow_CommitErrorReported(t *testing.T) {
	f := newFixture()
	f.repo.err = errors.New("disk full")
	var got error
	interp := New(DefaultConfig(), Deps{
		Clock: f.clock,
		Repo:  f.repo,
		OnCommitted: func(id string, action Action, err error) {
			got = err
		},
	})
	interp.Swipe("t1", 0, -100)
	f.clock.Advance(time.Second)
	assert.EqualError(t, got, "disk full")
}

func TestNew_FillsDefaults(t *testing.T) {
	in := New(Config{}, Deps{Repo: &fakeRepo{}})
	cfg := in.Config()
	assert.Equal(t, 80.0, cfg.CommitThreshold)
	assert.Equal(t, 120.0, cfg.Clamp)
}

package ranking

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/datastore/entities"
	"github.com/nabos/fishclub/internal/testutil"
)

func TestPoints(t *testing.T) {
	t.Parallel()

	robalo := &entities.Species{MinLengthCM: 30, PointsPerCM: 30}
	tests := []struct {
		name    string
		species *entities.Species
		length  float64
		want    int
	}{
		{"exact product", robalo, 35.5, 1065},
		{"at minimum", robalo, 30, 900},
		{"below minimum", robalo, 29.99, 0},
		{"decimal multiplier", &entities.Species{PointsPerCM: 10}, 30.3, 303},
		{"truncates", &entities.Species{PointsPerCM: 1.5}, 10.33, 15},
		{"float-unsafe product", &entities.Species{PointsPerCM: 100}, 0.29, 29},
		{"float-unsafe product 2", &entities.Species{PointsPerCM: 0.7}, 10, 7},
		{"zero multiplier", &entities.Species{}, 50, 0},
		{"missing species", nil, 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := &entities.Catch{LengthCM: tt.length, Species: tt.species}
			assert.Equal(t, tt.want, Points(c))
		})
	}

	assert.Zero(t, Points(nil))
}

func member(id uint, name string) entities.Member {
	return entities.Member{ID: id, Name: name}
}

func catchOf(memberID uint, species *entities.Species, length float64) entities.Catch {
	return entities.Catch{MemberID: memberID, Species: species, LengthCM: length}
}

func TestEngine_CapsBestCatches(t *testing.T) {
	t.Parallel()

	sp := &entities.Species{PointsPerCM: 1}
	members := []entities.Member{member(1, "Ana"), member(2, "Bia")}
	catches := []entities.Catch{
		catchOf(1, sp, 10), catchOf(1, sp, 50), catchOf(1, sp, 40), catchOf(1, sp, 30),
		catchOf(2, sp, 45),
	}

	got := NewEngine(2).Compute(members, catches, 10)
	require.Len(t, got, 2)
	assert.Equal(t, 90, got[0].Total)
	assert.Equal(t, 45, got[1].Total)

	got = NewEngine(3).Compute(members, catches, 10)
	assert.Equal(t, 120, got[0].Total)

	assert.Equal(t, DefaultCatchCap, NewEngine(0).Cap())
}

func TestEngine_OrderAndTruncation(t *testing.T) {
	t.Parallel()

	sp := &entities.Species{PointsPerCM: 1}
	members := []entities.Member{
		member(1, "carlos"),
		member(2, "ana"),
		member(3, "Ana"),
		member(4, "Bruno"),
		member(5, "Zeca"),
	}
	catches := []entities.Catch{
		catchOf(1, sp, 200),
		catchOf(2, sp, 200),
		catchOf(3, sp, 200),
		catchOf(4, sp, 300),
		catchOf(99, sp, 1000), // unknown member
	}

	got := NewEngine(2).Compute(members, catches, 0)

	type row struct {
		Name  string
		Total int
		Rank  int
	}
	rows := make([]row, len(got))
	for i, e := range got {
		rows[i] = row{e.Member.Name, e.Total, e.Rank}
	}
	want := []row{
		{"Bruno", 300, 1},
		{"ana", 200, 2},
		{"Ana", 200, 3},
		{"carlos", 200, 4},
		{"Zeca", 0, 5},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("ranking mismatch (-want +got):\n%s", diff)
	}

	top := NewEngine(2).Compute(members, catches, 2)
	require.Len(t, top, 2)
	assert.Equal(t, 2, top[1].Rank)
}

func TestEngine_NonQualifyingCatchesIgnored(t *testing.T) {
	t.Parallel()

	strict := &entities.Species{MinLengthCM: 50, PointsPerCM: 2}
	members := []entities.Member{member(1, "Ana")}
	catches := []entities.Catch{
		catchOf(1, strict, 49), catchOf(1, strict, 49), catchOf(1, strict, 51),
		{MemberID: 1, LengthCM: 100}, // species not loaded
	}

	got := NewEngine(2).Compute(members, catches, 10)
	require.Len(t, got, 1)
	assert.Equal(t, 102, got[0].Total)
}

func TestEngine_EmptyInputs(t *testing.T) {
	t.Parallel()

	assert.Empty(t, NewEngine(2).Compute(nil, nil, 10))
}

func TestService(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	ctx := t.Context()

	robalo := testutil.CreateSpecies(t, db, "Robalo", 30, 3)
	ana := testutil.CreateMember(t, db, "Ana")
	bia := testutil.CreateMember(t, db, "Bia")
	caio := testutil.CreateMember(t, db, "Caio")
	dani := testutil.CreateMember(t, db, "Dani")

	now := time.Now()
	testutil.CreateCatch(t, db, ana, robalo, 40, now)   // 120
	testutil.CreateCatch(t, db, ana, robalo, 35.5, now) // 106
	testutil.CreateCatch(t, db, ana, robalo, 31, now)   // 93, not counted
	testutil.CreateCatch(t, db, bia, robalo, 70, now)   // 210
	testutil.CreateCatch(t, db, caio, robalo, 20, now)  // below minimum

	svc := NewService(datastore.NewMemberRepository(db), datastore.NewCatchRepository(db), NewEngine(2))

	entries, err := svc.Ranking(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "Ana", entries[0].Member.Name)
	assert.Equal(t, 226, entries[0].Total)
	assert.Equal(t, "Bia", entries[1].Member.Name)
	assert.Equal(t, "Caio", entries[2].Member.Name)
	assert.Equal(t, 0, entries[2].Total)
	assert.Equal(t, "Dani", entries[3].Member.Name)

	podium, err := svc.Podium(ctx)
	require.NoError(t, err)
	assert.Len(t, podium, PodiumSize)

	score, err := svc.MemberScore(ctx, dani.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, score.Rank)

	_, err = svc.MemberScore(ctx, 12345)
	require.ErrorIs(t, err, datastore.ErrMemberNotFound)
}

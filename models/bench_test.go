package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBenchLabels(t *testing.T) {
	require.Equal(t, "Opening Government", BenchOpeningGov.Label())
	require.Equal(t, "Opening Opposition", BenchOpeningOpp.Label())
	require.Equal(t, "Closing Government", BenchClosingGov.Label())
	require.Equal(t, "Closing Opposition", BenchClosingOpp.Label())
	require.Equal(t, "Bench(9)", Bench(9).Label())
}

func TestBenchSpeakerRoles(t *testing.T) {
	tests := []struct {
		bench    Bench
		position int
		want     string
	}{
		{BenchOpeningGov, 1, "Prime Minister"},
		{BenchOpeningGov, 2, "Deputy Prime Minister"},
		{BenchOpeningOpp, 1, "Leader of Opposition"},
		{BenchOpeningOpp, 2, "Deputy Leader of Opposition"},
		{BenchClosingGov, 1, "Member of Government"},
		{BenchClosingGov, 2, "Government Whip"},
		{BenchClosingOpp, 1, "Member of Opposition"},
		{BenchClosingOpp, 2, "Opposition Whip"},
	}
	for _, tt := range tests {
		role, err := tt.bench.SpeakerRole(tt.position)
		require.NoError(t, err)
		require.Equal(t, tt.want, role)
	}

	_, err := BenchOpeningGov.SpeakerRole(3)
	require.Error(t, err)
	_, err = Bench(-1).SpeakerRole(1)
	require.Error(t, err)
}

func TestBenchFromSlot(t *testing.T) {
	for slot := 1; slot <= BenchCount; slot++ {
		bench, err := BenchFromSlot(slot)
		require.NoError(t, err)
		require.Equal(t, Bench(slot-1), bench)
	}
	_, err := BenchFromSlot(0)
	require.Error(t, err)
	_, err = BenchFromSlot(5)
	require.Error(t, err)
}

func TestVictoryPointsForRank(t *testing.T) {
	want := []int{3, 2, 1, 0}
	total := 0
	for rank := 1; rank <= BenchCount; rank++ {
		vp, err := VictoryPointsForRank(rank)
		require.NoError(t, err)
		require.Equal(t, want[rank-1], vp)
		total += vp
	}
	require.Equal(t, 6, total)

	_, err := VictoryPointsForRank(0)
	require.Error(t, err)
	_, err = VictoryPointsForRank(5)
	require.Error(t, err)
}

func TestRegistrationSpeakerAt(t *testing.T) {
	registration := &Registration{
		Speakers: []Speaker{
			{ID: 10, Position: 2, FullName: "Second"},
			{ID: 11, Position: 1, FullName: "First"},
		},
	}
	require.Equal(t, "First", registration.SpeakerAt(1).FullName)
	require.Equal(t, "Second", registration.SpeakerAt(2).FullName)
	require.Nil(t, registration.SpeakerAt(3))

	short := &Registration{Speakers: []Speaker{{ID: 12, Position: 1}}}
	require.NotNil(t, short.SpeakerAt(1))
	require.Nil(t, short.SpeakerAt(2))
}

package models

import "fmt"

// Bench — одна из четырёх фиксированных позиций команды в комнате BP-формата.
// Слоты team1..team4 комнаты всегда соответствуют скамьям в этом порядке.
type Bench int

const (
	BenchOpeningGov Bench = iota
	BenchOpeningOpp
	BenchClosingGov
	BenchClosingOpp

	BenchCount = 4
)

var benchLabels = [BenchCount]string{
	"Opening Government",
	"Opening Opposition",
	"Closing Government",
	"Closing Opposition",
}

// Роли спикеров закреплены за скамьёй и позицией в составе (1 или 2).
var benchSpeakerRoles = [BenchCount][2]string{
	{"Prime Minister", "Deputy Prime Minister"},
	{"Leader of Opposition", "Deputy Leader of Opposition"},
	{"Member of Government", "Government Whip"},
	{"Member of Opposition", "Opposition Whip"},
}

func (b Bench) Valid() bool {
	return b >= BenchOpeningGov && b < BenchCount
}

func (b Bench) Label() string {
	if !b.Valid() {
		return fmt.Sprintf("Bench(%d)", int(b))
	}
	return benchLabels[b]
}

// SpeakerRole возвращает роль спикера на данной скамье для позиции 1 или 2.
func (b Bench) SpeakerRole(position int) (string, error) {
	if !b.Valid() {
		return "", fmt.Errorf("invalid bench %d", int(b))
	}
	if position < 1 || position > 2 {
		return "", fmt.Errorf("invalid speaker position %d", position)
	}
	return benchSpeakerRoles[b][position-1], nil
}

// BenchFromSlot переводит индекс слота комнаты (1..4) в скамью.
func BenchFromSlot(slot int) (Bench, error) {
	if slot < 1 || slot > BenchCount {
		return 0, fmt.Errorf("invalid team slot %d", slot)
	}
	return Bench(slot - 1), nil
}

// Victory points за место в комнате: 1-е → 3, 2-е → 2, 3-е → 1, 4-е → 0.
var victoryPoints = [BenchCount]int{3, 2, 1, 0}

func VictoryPointsForRank(rank int) (int, error) {
	if rank < 1 || rank > BenchCount {
		return 0, fmt.Errorf("invalid room rank %d", rank)
	}
	return victoryPoints[rank-1], nil
}

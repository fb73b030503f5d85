package scene

// Ending is a terminal outcome of a playthrough
type Ending string

const (
	EndingGood      Ending = "good"
	EndingEvil      Ending = "evil"
	EndingNeutral   Ending = "neutral"
	EndingBad       Ending = "bad"
	EndingSecret    Ending = "secret"
	EndingSacrifice Ending = "sacrifice"
	EndingCoward    Ending = "coward"
)

// Endings lists every ending in display order
var Endings = []Ending{
	EndingGood, EndingEvil, EndingNeutral, EndingBad,
	EndingSecret, EndingSacrifice, EndingCoward,
}

// Scene returns the terminal scene shown for the ending
func (e Ending) Scene() ID {
	switch e {
	case EndingGood:
		return GoodEnding
	case EndingEvil:
		return EvilEnding
	case EndingNeutral:
		return EscapeEnding
	case EndingSecret:
		return SecretEnding
	case EndingSacrifice:
		return SacrificeEnding
	case EndingCoward:
		return CowardEnding
	default:
		return BadEnding
	}
}

// RecordsBestHealth reports whether the ending counts toward the best
// health score
func (e Ending) RecordsBestHealth() bool {
	return e == EndingGood || e == EndingSecret
}

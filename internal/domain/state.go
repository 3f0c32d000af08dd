package domain

// RankProgress is one pilot rank dimension: the rank tier plus percentage
// progress toward the next tier.
type RankProgress struct {
	Rank     int
	Progress int // 0..100
}

// EngineerRank is a commander's standing with one engineer. Exactly one of
// Rank and Stage is meaningful: a numeric rank once unlocked, a named stage
// (Invited, Known, ...) before that.
type EngineerRank struct {
	Rank  *int
	Stage string
}

// PlayerState is the host-maintained snapshot of commander state handed to
// the translator with every journal entry. Sub-structures are optional;
// absent ones are nil/empty.
type PlayerState struct {
	FrontierID string
	Role       string // multicrew role, empty when flying solo

	Credits int64
	Loan    int64

	Ranks      map[string]*RankProgress // nil entry = dimension unknown
	Reputation map[string]*float64      // percent, nil entry = faction unknown
	Engineers  map[string]EngineerRank

	Cargo        map[string]int
	Raw          map[string]int
	Manufactured map[string]int
	Encoded      map[string]int

	ShipID       int64 // 0 when no ship is assigned (fighter/SRV start)
	ShipType     string
	ShipName     string
	ShipIdent    string
	HullValue    int64
	ModulesValue int64
	Rebuy        int64
	Modules      map[string]Event // raw module blocks keyed by slot

	Statistics map[string]any
}

package journal

import (
	"github.com/chadvangaalen/sfr/internal/domain"
)

// rankDimensions maps journal Rank/Progress fields to the keys the
// translator reports under.
var rankDimensions = []string{
	"Combat",
	"Trade",
	"Explore",
	"Soldier",
	"Exobiologist",
	"Empire",
	"Federation",
	"CQC",
}

var reputationFactions = []string{
	"Empire",
	"Federation",
	"Alliance",
	"Independent",
}

// Tracker folds journal entries into the commander-state snapshot the
// translator reads alongside each entry. It mirrors the journal's own
// bookkeeping events and never interprets gameplay.
type Tracker struct {
	commander string
	location  struct {
		system  string
		station string
	}
	state domain.PlayerState
}

func NewTracker() *Tracker {
	return &Tracker{
		state: domain.PlayerState{
			Ranks:      map[string]*domain.RankProgress{},
			Reputation: map[string]*float64{},
			Engineers:  map[string]domain.EngineerRank{},
		},
	}
}

// Commander returns the active commander name, empty before login.
func (t *Tracker) Commander() string { return t.commander }

// System returns the last known star system name.
func (t *Tracker) System() string { return t.location.system }

// Station returns the last known station name, empty in open space.
func (t *Tracker) Station() string { return t.location.station }

// State returns the live snapshot. Callers must not retain it across
// updates.
func (t *Tracker) State() *domain.PlayerState { return &t.state }

// Update folds one journal entry into the snapshot. Call before handing the
// same entry to the translator.
func (t *Tracker) Update(entry domain.Event) {
	switch entry.Name() {
	case "Commander":
		t.commander = entry.Str("Name")
		if fid := entry.Str("FID"); fid != "" {
			t.state.FrontierID = fid
		}

	case "LoadGame":
		t.commander = entry.Str("Commander")
		if fid := entry.Str("FID"); fid != "" {
			t.state.FrontierID = fid
		}
		t.state.Credits = entry.Int("Credits")
		t.state.Loan = entry.Int("Loan")
		t.state.ShipID = entry.Int("ShipID")
		t.state.ShipType = entry.Str("Ship")
		t.state.ShipName = entry.Str("ShipName")
		t.state.ShipIdent = entry.Str("ShipIdent")
		t.state.Role = ""

	case "Rank":
		for _, dim := range rankDimensions {
			if !entry.Has(dim) {
				continue
			}
			r := t.rank(dim)
			r.Rank = int(entry.Int(dim))
		}

	case "Progress":
		for _, dim := range rankDimensions {
			if !entry.Has(dim) {
				continue
			}
			r := t.rank(dim)
			r.Progress = int(entry.Int(dim))
		}

	case "Promotion":
		for _, dim := range rankDimensions {
			if !entry.Has(dim) {
				continue
			}
			r := t.rank(dim)
			r.Rank = int(entry.Int(dim))
			r.Progress = 0
		}

	case "Reputation":
		for _, faction := range reputationFactions {
			if !entry.Has(faction) {
				continue
			}
			v := entry.Float(faction)
			t.state.Reputation[faction] = &v
		}

	case "EngineerProgress":
		if entry.Has("Engineers") {
			t.state.Engineers = map[string]domain.EngineerRank{}
			for _, eng := range entry.List("Engineers") {
				t.updateEngineer(eng)
			}
		} else if entry.Has("Engineer") {
			t.updateEngineer(entry)
		}

	case "Cargo":
		if !entry.Has("Inventory") {
			return
		}
		t.state.Cargo = itemCountsByName(entry.List("Inventory"))

	case "Materials":
		t.state.Raw = itemCountsByName(entry.List("Raw"))
		t.state.Manufactured = itemCountsByName(entry.List("Manufactured"))
		t.state.Encoded = itemCountsByName(entry.List("Encoded"))

	case "Loadout":
		t.state.ShipID = entry.Int("ShipID")
		t.state.ShipType = entry.Str("Ship")
		t.state.ShipName = entry.Str("ShipName")
		t.state.ShipIdent = entry.Str("ShipIdent")
		t.state.HullValue = entry.Int("HullValue")
		t.state.ModulesValue = entry.Int("ModulesValue")
		t.state.Rebuy = entry.Int("Rebuy")
		t.state.Modules = map[string]domain.Event{}
		for _, module := range entry.List("Modules") {
			if slot := module.Str("Slot"); slot != "" {
				t.state.Modules[slot] = module
			}
		}

	case "SetUserShipName":
		t.state.ShipType = entry.Str("Ship")
		t.state.ShipID = entry.Int("ShipID")
		t.state.ShipName = entry.Str("UserShipName")
		t.state.ShipIdent = entry.Str("UserShipId")

	case "Statistics":
		stats := make(map[string]any, len(entry))
		for k, v := range entry {
			if k == "event" || k == "timestamp" {
				continue
			}
			stats[k] = v
		}
		t.state.Statistics = stats

	case "Location", "FSDJump", "CarrierJump":
		t.location.system = entry.Str("StarSystem")
		t.location.station = entry.Str("StationName")

	case "Docked":
		t.location.system = entry.Str("StarSystem")
		t.location.station = entry.Str("StationName")

	case "Undocked":
		t.location.station = ""

	case "JoinACrew":
		t.state.Role = "Idle"

	case "ChangeCrewRole":
		t.state.Role = entry.Str("Role")

	case "QuitACrew":
		t.state.Role = ""

	case "LoanPaidOff":
		t.state.Loan = 0
	}
}

func (t *Tracker) rank(dim string) *domain.RankProgress {
	r := t.state.Ranks[dim]
	if r == nil {
		r = &domain.RankProgress{}
		t.state.Ranks[dim] = r
	}
	return r
}

func (t *Tracker) updateEngineer(eng domain.Event) {
	name := eng.Str("Engineer")
	if name == "" {
		return
	}
	var rank domain.EngineerRank
	if eng.Has("Rank") {
		v := int(eng.Int("Rank"))
		rank.Rank = &v
	} else {
		rank.Stage = eng.Str("Progress")
	}
	t.state.Engineers[name] = rank
}

func itemCountsByName(items []domain.Event) map[string]int {
	counts := make(map[string]int, len(items))
	for _, item := range items {
		name := item.Str("Name")
		if name == "" {
			continue
		}
		counts[name] += int(item.Int("Count"))
	}
	return counts
}

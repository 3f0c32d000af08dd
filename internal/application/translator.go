package application

import (
	"sort"
	"strings"

	"github.com/chadvangaalen/sfr/internal/domain"
)

// translate applies the urgent derivation rules for one journal entry and
// runs the mandatory flush gate. The rule groups are independent: several
// may fire for a single entry.
func (e *Engine) translate(system, station string, entry domain.Event, state *domain.PlayerState) error {
	before := e.buffer.len()
	name := entry.Name()
	ts := entry.Timestamp()

	// Starting dump and rank progress.
	switch {
	case e.session.IsNewUser() || name == "StartUp" || (e.session.IsNewSession() && name == "Cargo"):
		e.session.BeginSession()
		if err := e.dumpStartingState(ts, system, station, state); err != nil {
			return err
		}
	case name == "Promotion":
		e.translatePromotion(ts, entry, state)
	case name == "EngineerProgress" && entry.Has("Engineer"):
		if err := e.translateEngineerProgress(ts, entry); err != nil {
			return err
		}
	}

	// PowerPlay affiliation.
	switch name {
	case "PowerplayJoin", "PowerplayLeave", "PowerplayDefect":
		if err := e.translatePowerplay(ts, name, entry); err != nil {
			return err
		}
	}

	// Ship and location changes.
	if name == "Loadout" && e.session.SwapPending() {
		e.addShipIdentity(ts, state)
		loadout, err := buildLoadout(state)
		if err != nil {
			return err
		}
		e.session.SetLoadout(loadout)
		e.addEvent("setCommanderShipLoadout", ts, loadout)
		e.session.ClearSwapPending()
	} else {
		switch name {
		case "Docked":
			if !e.session.ConsumeDockSuppression() {
				e.addEvent("addCommanderTravelDock", ts, domain.Payload{
					{Key: "starsystemName", Value: system},
					{Key: "stationName", Value: station},
					{Key: "shipType", Value: state.ShipType},
					{Key: "shipGameID", Value: state.ShipID},
				})
			}
		case "Undocked":
			e.session.MarkUndocked()
			e.clearStationURL()
		case "SupercruiseEntry":
			e.addEvent("setCommanderTravelLocation", ts, domain.Payload{
				{Key: "starsystemName", Value: system},
				{Key: "shipType", Value: state.ShipType},
				{Key: "shipGameID", Value: state.ShipID},
			})
			e.session.ClearUndocked()
		case "FSDJump":
			if err := e.translateJump(ts, entry, state); err != nil {
				return err
			}
		}
	}

	// Missions.
	switch name {
	case "MissionAccepted":
		if err := e.translateMissionAccepted(ts, system, station, entry); err != nil {
			return err
		}
	case "MissionAbandoned":
		r := entry.Reader()
		id := r.Int("MissionID")
		if err := r.Err(); err != nil {
			return err
		}
		e.addEvent("setCommanderMissionAbandoned", ts, domain.Payload{{Key: "missionGameID", Value: id}})
	case "MissionCompleted":
		if err := e.translateMissionCompleted(ts, entry); err != nil {
			return err
		}
	case "MissionFailed":
		r := entry.Reader()
		id := r.Int("MissionID")
		if err := r.Err(); err != nil {
			return err
		}
		e.addEvent("setCommanderMissionFailed", ts, domain.Payload{{Key: "missionGameID", Value: id}})
	}

	// Combat and carrier.
	if err := e.translateCombat(ts, system, name, entry); err != nil {
		return err
	}

	// Mandatory flush point: a terminating event, or anything that queued a
	// new record, first refreshes cargo and materials.
	if name == "ShutDown" || e.buffer.len() > before {
		e.appendInventories(ts, state)
		e.maybeFlush(e.buffer.len() > before, name == "ShutDown")
	}

	return nil
}

// dumpStartingState emits the full initial-state report set: pilot ranks,
// major-faction reputation, engineer ranks, current location, and the
// current ship with its loadout when one is assigned.
func (e *Engine) dumpStartingState(ts, system, station string, state *domain.PlayerState) error {
	ranks := make([]domain.Payload, 0, len(state.Ranks))
	for _, k := range sortedKeys(state.Ranks) {
		v := state.Ranks[k]
		if v == nil {
			continue
		}
		ranks = append(ranks, domain.Payload{
			{Key: "rankName", Value: strings.ToLower(k)},
			{Key: "rankValue", Value: v.Rank},
			{Key: "rankProgress", Value: float64(v.Progress) / 100.0},
		})
	}
	e.addEvent("setCommanderRankPilot", ts, ranks)

	reputation := make([]domain.Payload, 0, len(state.Reputation))
	for _, k := range sortedKeys(state.Reputation) {
		v := state.Reputation[k]
		if v == nil {
			continue
		}
		reputation = append(reputation, domain.Payload{
			{Key: "majorfactionName", Value: strings.ToLower(k)},
			{Key: "majorfactionReputation", Value: *v / 100.0},
		})
	}
	e.addEvent("setCommanderReputationMajorFaction", ts, reputation)

	if len(state.Engineers) > 0 { // not populated on older game versions
		engineers := make([]domain.Payload, 0, len(state.Engineers))
		for _, k := range sortedKeys(state.Engineers) {
			v := state.Engineers[k]
			p := domain.Payload{{Key: "engineerName", Value: k}}
			if v.Rank != nil {
				p = p.Set("rankValue", *v.Rank)
			} else {
				p = p.Set("rankStage", v.Stage)
			}
			engineers = append(engineers, p)
		}
		e.addEvent("setCommanderRankEngineer", ts, engineers)
	}

	e.addEvent("setCommanderTravelLocation", ts, domain.Payload{
		{Key: "starsystemName", Value: system},
		{Key: "stationName", Value: orNil(station)},
	})

	if state.ShipID != 0 { // unknown if started in a fighter or SRV
		e.addShipIdentity(ts, state)
		loadout, err := buildLoadout(state)
		if err != nil {
			return err
		}
		e.session.SetLoadout(loadout)
		e.addEvent("setCommanderShipLoadout", ts, loadout)
	}
	return nil
}

// addShipIdentity queues a full current-ship report from the state snapshot.
func (e *Engine) addShipIdentity(ts string, state *domain.PlayerState) {
	data := domain.Payload{
		{Key: "shipType", Value: state.ShipType},
		{Key: "shipGameID", Value: state.ShipID},
		{Key: "shipName", Value: orNil(state.ShipName)},
		{Key: "shipIdent", Value: orNil(state.ShipIdent)},
		{Key: "isCurrentShip", Value: true},
	}
	if state.HullValue != 0 {
		data = data.Set("shipHullValue", state.HullValue)
	}
	if state.ModulesValue != 0 {
		data = data.Set("shipModulesValue", state.ModulesValue)
	}
	data = data.Set("shipRebuyCost", state.Rebuy)
	e.addEvent("setCommanderShip", ts, data)
}

// translatePromotion resets progress on every rank dimension the entry
// names.
func (e *Engine) translatePromotion(ts string, entry domain.Event, state *domain.PlayerState) {
	for _, k := range sortedKeys(state.Ranks) {
		v := state.Ranks[k]
		if v == nil || !entry.Has(k) {
			continue
		}
		e.addEvent("setCommanderRankPilot", ts, domain.Payload{
			{Key: "rankName", Value: strings.ToLower(k)},
			{Key: "rankValue", Value: v.Rank},
			{Key: "rankProgress", Value: 0},
		})
	}
}

// translateEngineerProgress reports either the numeric rank or the named
// stage, whichever the entry carries.
func (e *Engine) translateEngineerProgress(ts string, entry domain.Event) error {
	r := entry.Reader()
	data := domain.Payload{{Key: "engineerName", Value: r.Str("Engineer")}}
	if entry.Has("Rank") {
		data = data.Set("rankValue", r.Int("Rank"))
	} else {
		data = data.Set("rankStage", r.Any("Progress"))
	}
	if err := r.Err(); err != nil {
		return err
	}
	e.addEvent("setCommanderRankEngineer", ts, data)
	return nil
}

func (e *Engine) translatePowerplay(ts, name string, entry domain.Event) error {
	r := entry.Reader()
	var data domain.Payload
	switch name {
	case "PowerplayJoin":
		data = domain.Payload{{Key: "powerName", Value: r.Str("Power")}, {Key: "rankValue", Value: 1}}
	case "PowerplayLeave":
		data = domain.Payload{{Key: "powerName", Value: r.Str("Power")}, {Key: "rankValue", Value: 0}}
	case "PowerplayDefect":
		data = domain.Payload{{Key: "powerName", Value: r.Str("ToPower")}, {Key: "rankValue", Value: 1}}
	}
	if err := r.Err(); err != nil {
		return err
	}
	e.addEvent("setCommanderRankPower", ts, data)
	return nil
}

func (e *Engine) translateJump(ts string, entry domain.Event, state *domain.PlayerState) error {
	e.session.ClearUndocked()
	e.clearSystemURL()

	r := entry.Reader()
	data := domain.Payload{
		{Key: "starsystemName", Value: r.Str("StarSystem")},
		{Key: "jumpDistance", Value: r.Any("JumpDist")},
		{Key: "shipType", Value: state.ShipType},
		{Key: "shipGameID", Value: state.ShipID},
	}
	if err := r.Err(); err != nil {
		return err
	}
	e.addEvent("addCommanderTravelFSDJump", ts, data)

	if factions := entry.List("Factions"); len(factions) > 0 {
		standings := make([]domain.Payload, 0, len(factions))
		for _, f := range factions {
			fr := f.Reader()
			standing := domain.Payload{
				{Key: "minorfactionName", Value: fr.Str("Name")},
				{Key: "minorfactionReputation", Value: fr.Any("MyReputation")},
			}
			if err := fr.Err(); err != nil {
				return err
			}
			standings = append(standings, standing)
		}
		e.addEvent("setCommanderReputationMinorFaction", ts, standings)
	}
	return nil
}

// Optional mission-specific properties, copied only when present, in this
// order.
var missionOptionalFields = []struct {
	report string
	source string
}{
	{"missionExpiry", "Expiry"}, // listed as optional in the docs, but always seems to be present
	{"starsystemNameTarget", "DestinationSystem"},
	{"stationNameTarget", "DestinationStation"},
	{"minorfactionNameTarget", "TargetFaction"},
	{"commodityName", "Commodity"},
	{"commodityCount", "Count"},
	{"targetName", "Target"},
	{"targetType", "TargetType"},
	{"killCount", "KillCount"},
	{"passengerType", "PassengerType"},
	{"passengerCount", "PassengerCount"},
	{"passengerIsVIP", "PassengerVIPs"},
	{"passengerIsWanted", "PassengerWanted"},
}

func (e *Engine) translateMissionAccepted(ts, system, station string, entry domain.Event) error {
	r := entry.Reader()
	data := domain.Payload{
		{Key: "missionName", Value: r.Str("Name")},
		{Key: "missionGameID", Value: r.Int("MissionID")},
		{Key: "influenceGain", Value: r.Any("Influence")},
		{Key: "reputationGain", Value: r.Any("Reputation")},
		{Key: "starsystemNameOrigin", Value: system},
		{Key: "stationNameOrigin", Value: orNil(station)},
		{Key: "minorfactionNameOrigin", Value: r.Str("Faction")},
	}
	if err := r.Err(); err != nil {
		return err
	}
	for _, f := range missionOptionalFields {
		if entry.Has(f.source) {
			data = data.Set(f.report, entry.Opt(f.source))
		}
	}
	e.addEvent("addCommanderMission", ts, data)
	return nil
}

func (e *Engine) translateMissionCompleted(ts string, entry domain.Event) error {
	for _, permit := range entry.Strings("PermitsAwarded") {
		e.addEvent("addCommanderPermit", ts, domain.Payload{{Key: "starsystemName", Value: permit}})
	}

	r := entry.Reader()
	data := domain.Payload{{Key: "missionGameID", Value: r.Int("MissionID")}}
	if err := r.Err(); err != nil {
		return err
	}
	if entry.Has("Donation") {
		data = data.Set("donationCredits", entry.Opt("Donation"))
	}
	if entry.Has("Reward") {
		data = data.Set("rewardCredits", entry.Opt("Reward"))
	}
	if entry.Has("PermitsAwarded") {
		permits := make([]domain.Payload, 0)
		for _, p := range entry.Strings("PermitsAwarded") {
			permits = append(permits, domain.Payload{{Key: "starsystemName", Value: p}})
		}
		data = data.Set("rewardPermits", permits)
	}
	for _, reward := range []struct {
		report string
		source string
	}{
		{"rewardCommodities", "CommodityReward"},
		{"rewardMaterials", "MaterialsReward"},
	} {
		if !entry.Has(reward.source) {
			continue
		}
		items := make([]domain.Payload, 0)
		for _, x := range entry.List(reward.source) {
			xr := x.Reader()
			item := domain.Payload{
				{Key: "itemName", Value: xr.Str("Name")},
				{Key: "itemCount", Value: xr.Int("Count")},
			}
			if err := xr.Err(); err != nil {
				return err
			}
			items = append(items, item)
		}
		data = data.Set(reward.report, items)
	}

	effects := make([]domain.Payload, 0)
	for _, faction := range entry.List("FactionEffects") {
		fr := faction.Reader()
		effect := domain.Payload{{Key: "minorfactionName", Value: fr.Str("Faction")}}
		if err := fr.Err(); err != nil {
			return err
		}
		for _, influence := range faction.List("Influence") {
			if !influence.Has("Influence") {
				continue
			}
			// Keep whichever textual influence value prints longest; the
			// service treats the longer token as the stronger effect.
			current := effect.Str("influenceGain")
			candidate := influence.Str("Influence")
			if !(len(current) > len(candidate)) {
				effect = effect.Set("influenceGain", candidate)
			}
		}
		if faction.Has("Reputation") {
			effect = effect.Set("reputationGain", faction.Opt("Reputation"))
		}
		effects = append(effects, effect)
	}
	if len(effects) > 0 {
		data = data.Set("minorfactionEffects", effects)
	}

	e.addEvent("setCommanderMissionCompleted", ts, data)
	return nil
}

func (e *Engine) translateCombat(ts, system, name string, entry domain.Event) error {
	switch name {
	case "Died":
		data := domain.Payload{{Key: "starsystemName", Value: system}}
		if killers := entry.List("Killers"); len(killers) > 0 {
			names := make([]string, 0, len(killers))
			for _, k := range killers {
				names = append(names, k.Str("Name"))
			}
			data = data.Set("wingOpponentNames", names)
		} else if entry.Has("KillerName") {
			data = data.Set("opponentName", entry.Str("KillerName"))
		}
		e.addEvent("addCommanderCombatDeath", ts, data)

	case "Interdicted":
		r := entry.Reader()
		data := domain.Payload{
			{Key: "starsystemName", Value: system},
			{Key: "isPlayer", Value: r.Bool("IsPlayer")},
			{Key: "isSubmit", Value: r.Bool("Submitted")},
		}
		if err := r.Err(); err != nil {
			return err
		}
		data = setOpponent(data, entry, "Interdictor")
		e.addEvent("addCommanderCombatInterdicted", ts, data)

	case "Interdiction":
		r := entry.Reader()
		data := domain.Payload{
			{Key: "starsystemName", Value: system},
			{Key: "isPlayer", Value: r.Bool("IsPlayer")},
			{Key: "isSuccess", Value: r.Bool("Success")},
		}
		if err := r.Err(); err != nil {
			return err
		}
		data = setOpponent(data, entry, "Interdicted")
		e.addEvent("addCommanderCombatInterdiction", ts, data)

	case "EscapeInterdiction":
		r := entry.Reader()
		data := domain.Payload{
			{Key: "starsystemName", Value: system},
			{Key: "opponentName", Value: r.Str("Interdictor")},
			{Key: "isPlayer", Value: r.Bool("IsPlayer")},
		}
		if err := r.Err(); err != nil {
			return err
		}
		e.addEvent("addCommanderCombatInterdictionEscape", ts, data)

	case "PVPKill":
		r := entry.Reader()
		data := domain.Payload{
			{Key: "starsystemName", Value: system},
			{Key: "opponentName", Value: r.Str("Victim")},
		}
		if err := r.Err(); err != nil {
			return err
		}
		e.addEvent("addCommanderCombatKill", ts, data)

	case "RedeemVoucher":
		e.addEvent("addCommanderFactionKillBond", ts, domain.Payload{
			{Key: "starsystemName", Value: system},
			{Key: "type", Value: entry.Opt("Type")},
			{Key: "faction", Value: entry.Opt("Faction")},
			{Key: "amount", Value: entry.Opt("Amount")},
		})

	case "ShipTargeted":
		if entry.Int("ScanStage") != 3 {
			return nil
		}
		e.addEvent("addCommanderShipScan", ts, domain.Payload{
			{Key: "starsystemName", Value: system},
			{Key: "nameRaw", Value: entry.Opt("PilotName")},
			{Key: "name", Value: entry.Opt("PilotName_Localised")},
			{Key: "rank", Value: entry.Opt("PilotRank")},
			{Key: "shipRaw", Value: entry.Opt("Ship")},
			{Key: "ship", Value: entry.Opt("Ship_Localised")},
			{Key: "power", Value: entry.Opt("Power")},
			{Key: "status", Value: entry.Opt("LegalStatus")},
			{Key: "squadronId", Value: entry.Opt("SquadronID")},
			{Key: "bounty", Value: entry.Opt("Bounty")},
		})

	case "CarrierJumpRequest":
		e.addEvent("addCarrierJumpRequest", ts, domain.Payload{
			{Key: "starsystemName", Value: system},
			{Key: "carrierId", Value: entry.Opt("CarrierID")},
			{Key: "system", Value: entry.Opt("SystemName")},
			{Key: "body", Value: entry.Opt("Body")},
		})

	case "CarrierStats":
		r := entry.Reader()
		space := r.Object("SpaceUsage")
		finance := r.Object("Finance")
		if err := r.Err(); err != nil {
			return err
		}
		e.addEvent("addCarrierStats", ts, domain.Payload{
			{Key: "starsystemName", Value: system},
			{Key: "carrierId", Value: entry.Opt("CarrierID")},
			{Key: "callsign", Value: entry.Opt("Callsign")},
			{Key: "name", Value: entry.Opt("Name")},
			{Key: "dockingAccess", Value: entry.Opt("DockingAccess")},
			{Key: "fuelLevel", Value: entry.Opt("FuelLevel")},
			{Key: "jumpRangeCurr", Value: entry.Opt("JumpRangeCurr")},
			{Key: "jumpRangeMax", Value: entry.Opt("JumpRangeMax")},
			{Key: "freeSpaceCurr", Value: space.Opt("FreeSpace")},
			{Key: "freeSpaceMax", Value: space.Opt("TotalCapacity")},
			{Key: "bankBalance", Value: finance.Opt("CarrierBalance")},
		})
	}
	return nil
}

// setOpponent resolves the opponent name from the first of several source
// fields, in fixed priority order.
func setOpponent(data domain.Payload, entry domain.Event, primary string) domain.Payload {
	for _, key := range []string{primary, "Faction", "Power"} {
		if entry.Has(key) {
			return data.Set("opponentName", entry.Opt(key))
		}
	}
	return data
}

// appendInventories queues full cargo and materials reports whenever they
// changed since last queued, updating the cache.
func (e *Engine) appendInventories(ts string, state *domain.PlayerState) {
	cargo := itemCounts(state.Cargo)
	if e.session.UpdateCargo(cargo) {
		e.addEvent("setCommanderInventoryCargo", ts, cargo)
	}

	materials := make([]domain.Payload, 0)
	for _, category := range []map[string]int{state.Raw, state.Manufactured, state.Encoded} {
		materials = append(materials, itemCounts(category)...)
	}
	if e.session.UpdateMaterials(materials) {
		e.addEvent("setCommanderInventoryMaterials", ts, materials)
	}
}

func itemCounts(counts map[string]int) []domain.Payload {
	items := make([]domain.Payload, 0, len(counts))
	for _, k := range sortedKeys(counts) {
		items = append(items, domain.Payload{
			{Key: "itemName", Value: k},
			{Key: "itemCount", Value: counts[k]},
		})
	}
	return items
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

package application

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/chadvangaalen/sfr/internal/domain"
)

// translateTrailing applies the derivations that need not be sent
// immediately; their records ride along with the next mandatory flush.
func (e *Engine) translateTrailing(system, station string, entry domain.Event, state *domain.PlayerState) error {
	name := entry.Name()
	ts := entry.Timestamp()

	// Credits and statistics only on startup, otherwise they may be stale.
	switch name {
	case "LoadGame":
		e.addEvent("setCommanderCredits", ts, domain.Payload{
			{Key: "commanderCredits", Value: state.Credits},
			{Key: "commanderLoan", Value: state.Loan},
		})
		e.session.SetLastCredits(state.Credits)
	case "Statistics":
		e.addEvent("setCommanderGameStatistics", ts, state.Statistics)
	}

	// Buying, selling and swapping ships.
	switch name {
	case "ShipyardNew":
		r := entry.Reader()
		data := domain.Payload{
			{Key: "shipType", Value: r.Str("ShipType")},
			{Key: "shipGameID", Value: r.Int("NewShipID")},
		}
		if err := r.Err(); err != nil {
			return err
		}
		e.addEvent("addCommanderShip", ts, data)
		// Send the following loadout event immediately.
		e.session.MarkSwapPending()

	case "ShipyardBuy", "ShipyardSell", "SellShipOnRebuy", "ShipyardSwap":
		if name == "ShipyardSwap" {
			// Name and ident of the new ship are unknown until the
			// following loadout event.
			e.session.MarkSwapPending()
		}
		if entry.Has("StoreShipID") {
			e.addEvent("setCommanderShip", ts, domain.Payload{
				{Key: "shipType", Value: entry.Opt("StoreOldShip")},
				{Key: "shipGameID", Value: entry.Opt("StoreShipID")},
				{Key: "starsystemName", Value: system},
				{Key: "stationName", Value: orNil(station)},
			})
		} else if entry.Has("SellShipID") {
			shipType := entry.Opt("SellOldShip")
			if shipType == nil {
				shipType = entry.Opt("ShipType")
			}
			e.addEvent("delCommanderShip", ts, domain.Payload{
				{Key: "shipType", Value: shipType},
				{Key: "shipGameID", Value: entry.Opt("SellShipID")},
			})
		}

	case "SetUserShipName":
		e.addEvent("setCommanderShip", ts, domain.Payload{
			{Key: "shipType", Value: state.ShipType},
			{Key: "shipGameID", Value: state.ShipID},
			{Key: "shipName", Value: orNil(state.ShipName)},
			{Key: "shipIdent", Value: orNil(state.ShipIdent)},
			{Key: "isCurrentShip", Value: true},
		})

	case "ShipyardTransfer":
		r := entry.Reader()
		data := domain.Payload{
			{Key: "shipType", Value: r.Str("ShipType")},
			{Key: "shipGameID", Value: r.Int("ShipID")},
			{Key: "starsystemName", Value: system},
			{Key: "stationName", Value: orNil(station)},
			{Key: "transferTime", Value: r.Any("TransferTime")},
		}
		if err := r.Err(); err != nil {
			return err
		}
		e.addEvent("setCommanderShipTransfer", ts, data)
	}

	if name == "StoredShips" {
		if err := e.translateFleet(ts, entry); err != nil {
			return err
		}
	}

	// Loadout changes outside the starting window.
	if name == "Loadout" && !e.session.IsNewSession() {
		loadout, err := buildLoadout(state)
		if err != nil {
			return err
		}
		if e.session.UpdateLoadout(loadout) {
			shipID := state.ShipID
			e.buffer.removeWhere(func(r domain.ReportRecord) bool {
				return r.EventName == "setCommanderShipLoadout" && r.DataShipID() == shipID
			})
			e.addEvent("setCommanderShipLoadout", ts, loadout)
		}
	}

	if name == "StoredModules" {
		if err := e.translateStoredModules(ts, entry); err != nil {
			return err
		}
	}

	if name == "CommunityGoal" {
		if err := e.translateCommunityGoals(ts, entry); err != nil {
			return err
		}
	}

	if name == "Friends" {
		switch entry.Str("Status") {
		case "Added", "Online":
			e.addEvent("addCommanderFriend", ts, domain.Payload{
				{Key: "commanderName", Value: entry.Str("Name")},
				{Key: "gamePlatform", Value: "pc"},
			})
		case "Declined", "Lost":
			e.addEvent("delCommanderFriend", ts, domain.Payload{
				{Key: "commanderName", Value: entry.Str("Name")},
				{Key: "gamePlatform", Value: "pc"},
			})
		}
	}

	return nil
}

// translateFleet rebuilds the full fleet listing and, when it differs from
// the cached one, replaces any unsent ship reports with one per member.
func (e *Engine) translateFleet(ts string, entry domain.Event) error {
	r := entry.Reader()
	here := r.List("ShipsHere")
	remote := r.List("ShipsRemote")
	if err := r.Err(); err != nil {
		return err
	}

	fleet := make([]domain.Payload, 0, len(here)+len(remote))
	for _, x := range here {
		xr := x.Reader()
		ship := domain.Payload{
			{Key: "shipType", Value: xr.Str("ShipType")},
			{Key: "shipGameID", Value: xr.Int("ShipID")},
			{Key: "shipName", Value: x.Opt("Name")},
			{Key: "isHot", Value: xr.Bool("Hot")},
			{Key: "starsystemName", Value: entry.Opt("StarSystem")},
			{Key: "stationName", Value: entry.Opt("StationName")},
			{Key: "marketID", Value: entry.Opt("MarketID")},
		}
		if err := xr.Err(); err != nil {
			return err
		}
		fleet = append(fleet, ship)
	}
	for _, x := range remote {
		xr := x.Reader()
		ship := domain.Payload{
			{Key: "shipType", Value: xr.Str("ShipType")},
			{Key: "shipGameID", Value: xr.Int("ShipID")},
			{Key: "shipName", Value: x.Opt("Name")},
			{Key: "isHot", Value: xr.Bool("Hot")},
			{Key: "starsystemName", Value: x.Opt("StarSystem")}, // not present for ships in transit
			{Key: "marketID", Value: x.Opt("ShipMarketID")},     //   "
		}
		if err := xr.Err(); err != nil {
			return err
		}
		fleet = append(fleet, ship)
	}
	sort.SliceStable(fleet, func(i, j int) bool {
		return fleet[i].Int("shipGameID") < fleet[j].Int("shipGameID")
	})

	if !e.session.UpdateFleet(fleet) {
		return nil
	}
	e.buffer.removeWhere(func(r domain.ReportRecord) bool {
		return r.EventName == "setCommanderShip"
	})
	for _, ship := range fleet {
		e.addEvent("setCommanderShip", ts, ship)
	}
	return nil
}

// translateStoredModules rebuilds the stored-modules listing ordered by
// storage slot and, on change, replaces any unsent report.
func (e *Engine) translateStoredModules(ts string, entry domain.Event) error {
	r := entry.Reader()
	items := r.List("Items")
	if err := r.Err(); err != nil {
		return err
	}

	bySlot := make(map[int64]domain.Event, len(items))
	slots := make([]int64, 0, len(items))
	for _, item := range items {
		ir := item.Reader()
		slot := ir.Int("StorageSlot")
		if err := ir.Err(); err != nil {
			return err
		}
		if _, seen := bySlot[slot]; !seen {
			slots = append(slots, slot)
		}
		bySlot[slot] = item
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })

	modules := make([]domain.Payload, 0, len(slots))
	for _, slot := range slots {
		item := bySlot[slot]
		ir := item.Reader()
		module := domain.Payload{
			{Key: "itemName", Value: ir.Str("Name")},
			{Key: "itemValue", Value: ir.Int("BuyPrice")},
			{Key: "isHot", Value: ir.Bool("Hot")},
		}
		if err := ir.Err(); err != nil {
			return err
		}

		// Location can be absent if in transit.
		if item.Has("StarSystem") {
			module = module.Set("starsystemName", item.Opt("StarSystem"))
		}
		if item.Has("MarketID") {
			module = module.Set("marketID", item.Opt("MarketID"))
		}

		if item.Has("EngineerModifications") {
			engineering := domain.Payload{{Key: "blueprintName", Value: item.Opt("EngineerModifications")}}
			if item.Has("Level") {
				engineering = engineering.Set("blueprintLevel", item.Opt("Level"))
			}
			if item.Has("Quality") {
				engineering = engineering.Set("blueprintQuality", item.Opt("Quality"))
			}
			module = module.Set("engineering", engineering)
		}

		modules = append(modules, module)
	}

	if !e.session.UpdateStoredModules(modules) {
		return nil
	}
	e.buffer.removeWhere(func(r domain.ReportRecord) bool {
		return r.EventName == "setCommanderStorageModules"
	})
	e.addEvent("setCommanderStorageModules", ts, modules)
	return nil
}

// translateCommunityGoals replaces all unsent community-goal reports with a
// goal-definition plus personal-contribution pair per active goal.
func (e *Engine) translateCommunityGoals(ts string, entry domain.Event) error {
	e.buffer.removeWhere(func(r domain.ReportRecord) bool {
		return r.EventName == "setCommunityGoal" || r.EventName == "setCommanderCommunityGoalProgress"
	})

	for _, goal := range entry.List("CurrentGoals") {
		gr := goal.Reader()
		data := domain.Payload{
			{Key: "communitygoalGameID", Value: gr.Int("CGID")},
			{Key: "communitygoalName", Value: gr.Str("Title")},
			{Key: "starsystemName", Value: gr.Str("SystemName")},
			{Key: "stationName", Value: gr.Str("MarketName")},
			{Key: "goalExpiry", Value: gr.Any("Expiry")},
			{Key: "isCompleted", Value: gr.Bool("IsComplete")},
			{Key: "contributorsNum", Value: gr.Int("NumContributors")},
			{Key: "contributionsTotal", Value: gr.Int("CurrentTotal")},
		}
		if err := gr.Err(); err != nil {
			return err
		}
		if goal.Has("TierReached") {
			tier, err := trailingInt(goal.Str("TierReached"))
			if err != nil {
				return err
			}
			data = data.Set("tierReached", tier)
		}
		if goal.Has("TopRankSize") {
			data = data.Set("topRankSize", goal.Opt("TopRankSize"))
		}
		if top := goal.Object("TopTier"); top != nil {
			tier, err := trailingInt(top.Str("Name"))
			if err != nil {
				return err
			}
			data = data.Set("tierMax", tier)
			data = data.Set("completionBonus", top.Opt("Bonus"))
		}
		e.addEvent("setCommunityGoal", ts, data)

		pr := goal.Reader()
		progress := domain.Payload{
			{Key: "communitygoalGameID", Value: pr.Int("CGID")},
			{Key: "contribution", Value: pr.Int("PlayerContribution")},
			{Key: "percentileBand", Value: pr.Int("PlayerPercentileBand")},
		}
		if err := pr.Err(); err != nil {
			return err
		}
		if goal.Has("Bonus") {
			progress = progress.Set("percentileBandReward", goal.Opt("Bonus"))
		}
		if goal.Has("PlayerInTopRank") {
			progress = progress.Set("isTopRank", goal.Opt("PlayerInTopRank"))
		}
		e.addEvent("setCommanderCommunityGoalProgress", ts, progress)
	}
	return nil
}

// trailingInt parses the integer off the end of a free-text tier name, e.g.
// "Tier 5" -> 5.
func trailingInt(s string) (int, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("no trailing number in %q", s)
	}
	n, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0, fmt.Errorf("parse trailing number in %q: %w", s, err)
	}
	return n, nil
}

package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chadvangaalen/sfr/internal/domain"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestStartingDumpOnNewUser(t *testing.T) {
	e, sender := newTestEngine(t)

	state := &domain.PlayerState{
		FrontierID: "F1",
		Ranks: map[string]*domain.RankProgress{
			"Combat": {Rank: 3, Progress: 40},
			"Trade":  nil,
		},
		Reputation: map[string]*float64{
			"Empire":     floatPtr(75),
			"Federation": nil,
		},
		Engineers: map[string]domain.EngineerRank{
			"Felicity Farseer": {Rank: intPtr(5)},
			"Elvira Martuuk":   {Stage: "Invited"},
		},
		ShipID:    42,
		ShipType:  "krait_mkii",
		ShipName:  "Nomad",
		ShipIdent: "NM-01",
		Rebuy:     505000,
		Modules: map[string]domain.Event{
			"PowerPlant": {
				"Slot":     "PowerPlant",
				"Item":     "int_powerplant_size4_class5",
				"Health":   1.0,
				"On":       true,
				"Priority": 1,
			},
		},
	}

	e.SetCredentials()
	handle(t, e, "Sol", "Abraham Lincoln", domain.Event{"event": "Music", "timestamp": "t1"}, state)
	e.Stop()

	batches := sender.sent()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{
		"setCommanderRankPilot",
		"setCommanderReputationMajorFaction",
		"setCommanderRankEngineer",
		"setCommanderTravelLocation",
		"setCommanderShip",
		"setCommanderShipLoadout",
		"setCommanderInventoryCargo",
		"setCommanderInventoryMaterials",
	}, eventNames(batches[0]))

	ranks, ok := batches[0].Events[0].EventData.([]domain.Payload)
	require.True(t, ok)
	require.Len(t, ranks, 1) // nil Trade dimension dropped
	name, _ := ranks[0].Get("rankName")
	assert.Equal(t, "combat", name)
	progress, _ := ranks[0].Get("rankProgress")
	assert.Equal(t, 0.4, progress)

	reputation, ok := batches[0].Events[1].EventData.([]domain.Payload)
	require.True(t, ok)
	require.Len(t, reputation, 1)
	value, _ := reputation[0].Get("majorfactionReputation")
	assert.Equal(t, 0.75, value)

	engineers, ok := batches[0].Events[2].EventData.([]domain.Payload)
	require.True(t, ok)
	require.Len(t, engineers, 2)
	// Sorted by engineer name: Elvira before Felicity.
	stage, _ := engineers[0].Get("rankStage")
	assert.Equal(t, "Invited", stage)
	rank, _ := engineers[1].Get("rankValue")
	assert.Equal(t, 5, rank)

	ship := payloadOf(t, batches[0].Events[4])
	assert.EqualValues(t, 42, ship.Int("shipGameID"))
	current, _ := ship.Get("isCurrentShip")
	assert.Equal(t, true, current)
	rebuy, _ := ship.Get("shipRebuyCost")
	assert.EqualValues(t, 505000, rebuy)
	_, hasHull := ship.Get("shipHullValue")
	assert.False(t, hasHull) // zero value omitted

	loadout := payloadOf(t, batches[0].Events[5])
	assert.EqualValues(t, 42, loadout.Int("shipGameID"))
}

func TestStartingDumpSkipsShipWithoutID(t *testing.T) {
	e, sender := newTestEngine(t)

	e.SetCredentials()
	handle(t, e, "Sol", "", domain.Event{"event": "Music", "timestamp": "t1"}, &domain.PlayerState{
		Ranks:      map[string]*domain.RankProgress{},
		Reputation: map[string]*float64{},
	})
	e.Stop()

	batches := sender.sent()
	require.Len(t, batches, 1)
	assert.NotContains(t, eventNames(batches[0]), "setCommanderShip")
	assert.NotContains(t, eventNames(batches[0]), "setCommanderShipLoadout")
}

func TestDockSuppressedAfterUndock(t *testing.T) {
	e, sender := newTestEngine(t)
	state := &domain.PlayerState{ShipID: 7, ShipType: "sidewinder"}

	handle(t, e, "Sol", "", domain.Event{"event": "Undocked", "timestamp": "t1"}, state)
	handle(t, e, "Sol", "Daedalus", domain.Event{"event": "Docked", "timestamp": "t2"}, state)
	handle(t, e, "Sol", "Daedalus", domain.Event{"event": "Docked", "timestamp": "t3"}, state)
	e.Stop()

	batches := sender.sent()
	require.Len(t, batches, 1)

	docks := 0
	for _, r := range batches[0].Events {
		if r.EventName == "addCommanderTravelDock" {
			docks++
		}
	}
	assert.Equal(t, 1, docks)
}

func TestDockSuppressedAfterDockedLocation(t *testing.T) {
	e, sender := newTestEngine(t)
	state := &domain.PlayerState{ShipID: 7, ShipType: "sidewinder"}

	handle(t, e, "Sol", "Daedalus", domain.Event{"event": "Location", "timestamp": "t1", "Docked": true}, state)
	handle(t, e, "Sol", "Daedalus", domain.Event{"event": "Docked", "timestamp": "t2"}, state)
	e.Stop()

	for _, batch := range sender.sent() {
		assert.NotContains(t, eventNames(batch), "addCommanderTravelDock")
	}
}

func TestFSDJumpReportsJumpAndMinorFactions(t *testing.T) {
	e, sender := newTestEngine(t)
	state := &domain.PlayerState{ShipID: 7, ShipType: "asp"}

	handle(t, e, "Sol", "", domain.Event{
		"event":      "FSDJump",
		"timestamp":  "t1",
		"StarSystem": "Barnard's Star",
		"JumpDist":   5.95,
		"Factions": []any{
			map[string]any{"Name": "Barnard Inc", "MyReputation": 15.0},
		},
	}, state)
	e.Stop()

	batches := sender.sent()
	require.Len(t, batches, 1)
	names := eventNames(batches[0])
	assert.Contains(t, names, "addCommanderTravelFSDJump")
	assert.Contains(t, names, "setCommanderReputationMinorFaction")

	jump := payloadOf(t, batches[0].Events[0])
	system, _ := jump.Get("starsystemName")
	assert.Equal(t, "Barnard's Star", system)
	dist, _ := jump.Get("jumpDistance")
	assert.Equal(t, 5.95, dist)
}

func TestMissionCompletedInfluenceKeepsLongestToken(t *testing.T) {
	e, sender := newTestEngine(t)

	handle(t, e, "Sol", "", domain.Event{
		"event":     "MissionCompleted",
		"timestamp": "t1",
		"MissionID": 77,
		"FactionEffects": []any{
			map[string]any{
				"Faction": "Sol Workers",
				"Influence": []any{
					map[string]any{"Influence": "+"},
					map[string]any{"Influence": "+++"},
					map[string]any{"Influence": "++"},
				},
				"Reputation": "++",
			},
		},
	}, &domain.PlayerState{})
	e.Stop()

	batches := sender.sent()
	require.Len(t, batches, 1)

	var completed *domain.ReportRecord
	for i := range batches[0].Events {
		if batches[0].Events[i].EventName == "setCommanderMissionCompleted" {
			completed = &batches[0].Events[i]
		}
	}
	require.NotNil(t, completed)

	data := payloadOf(t, *completed)
	effects, ok := data.Get("minorfactionEffects")
	require.True(t, ok)
	list, ok := effects.([]domain.Payload)
	require.True(t, ok)
	require.Len(t, list, 1)
	gain, _ := list[0].Get("influenceGain")
	assert.Equal(t, "+++", gain)
}

func TestMissionAcceptedCopiesOptionalFields(t *testing.T) {
	e, sender := newTestEngine(t)

	handle(t, e, "Sol", "Daedalus", domain.Event{
		"event":             "MissionAccepted",
		"timestamp":         "t1",
		"Name":              "Mission_Courier",
		"MissionID":         12,
		"Influence":         "+",
		"Reputation":        "+",
		"Faction":           "Sol Workers",
		"DestinationSystem": "Alpha Centauri",
		"KillCount":         9,
	}, &domain.PlayerState{})
	e.Stop()

	batches := sender.sent()
	require.Len(t, batches, 1)

	data := payloadOf(t, batches[0].Events[0])
	target, ok := data.Get("starsystemNameTarget")
	require.True(t, ok)
	assert.Equal(t, "Alpha Centauri", target)
	kills, ok := data.Get("killCount")
	require.True(t, ok)
	assert.EqualValues(t, 9, kills)
	_, hasCommodity := data.Get("commodityName")
	assert.False(t, hasCommodity)
}

func TestShipSwapSendsLoadoutImmediately(t *testing.T) {
	e, sender := newTestEngine(t)
	state := &domain.PlayerState{
		ShipID:    9,
		ShipType:  "anaconda",
		ShipName:  "Leviathan",
		ShipIdent: "LV-01",
		Modules:   map[string]domain.Event{},
	}

	handle(t, e, "Sol", "Daedalus", domain.Event{
		"event":     "ShipyardNew",
		"timestamp": "t1",
		"ShipType":  "anaconda",
		"NewShipID": 9,
	}, state)
	handle(t, e, "Sol", "Daedalus", domain.Event{"event": "Loadout", "timestamp": "t2"}, state)
	e.Stop()

	batches := sender.sent()
	require.Len(t, batches, 1)
	names := eventNames(batches[0])
	assert.Contains(t, names, "addCommanderShip")
	assert.Contains(t, names, "setCommanderShip")
	assert.Contains(t, names, "setCommanderShipLoadout")
}

func TestFleetListingCoalesces(t *testing.T) {
	e, sender := newTestEngine(t)

	storedShips := domain.Event{
		"event":       "StoredShips",
		"timestamp":   "t1",
		"StarSystem":  "Sol",
		"StationName": "Daedalus",
		"MarketID":    1,
		"ShipsHere": []any{
			map[string]any{"ShipType": "sidewinder", "ShipID": 2, "Hot": false},
		},
		"ShipsRemote": []any{
			map[string]any{"ShipType": "viper", "ShipID": 1, "Hot": false, "StarSystem": "Wolf 359", "ShipMarketID": 2},
		},
	}

	state := &domain.PlayerState{}
	handle(t, e, "Sol", "Daedalus", storedShips, state)
	handle(t, e, "Sol", "Daedalus", storedShips, state)
	handle(t, e, "Sol", "Daedalus", domain.Event{"event": "ShutDown", "timestamp": "t3"}, state)
	e.Stop()

	batches := sender.sent()
	require.Len(t, batches, 1)

	var ships []domain.Payload
	for _, r := range batches[0].Events {
		if r.EventName == "setCommanderShip" {
			ships = append(ships, payloadOf(t, r))
		}
	}
	require.Len(t, ships, 2)
	// Ordered by game ship id.
	assert.EqualValues(t, 1, ships[0].Int("shipGameID"))
	assert.EqualValues(t, 2, ships[1].Int("shipGameID"))
}

func TestCommunityGoalTierParsing(t *testing.T) {
	e, sender := newTestEngine(t)

	handle(t, e, "Sol", "", domain.Event{
		"event":     "CommunityGoal",
		"timestamp": "t1",
		"CurrentGoals": []any{
			map[string]any{
				"CGID":                 100,
				"Title":                "Defence of the Core",
				"SystemName":           "Sol",
				"MarketName":           "Daedalus",
				"Expiry":               "2026-09-01T00:00:00Z",
				"IsComplete":           false,
				"NumContributors":      1200,
				"CurrentTotal":         900000,
				"PlayerContribution":   4000,
				"PlayerPercentileBand": 25,
				"TierReached":          "Tier 5",
				"TopRankSize":          10,
				"TopTier": map[string]any{
					"Name":  "Tier 10",
					"Bonus": "All systems upgraded",
				},
				"Bonus":           500,
				"PlayerInTopRank": false,
			},
		},
	}, &domain.PlayerState{})
	handle(t, e, "Sol", "", domain.Event{"event": "ShutDown", "timestamp": "t2"}, &domain.PlayerState{})
	e.Stop()

	batches := sender.sent()
	require.Len(t, batches, 1)

	var goal, progress domain.Payload
	for _, r := range batches[0].Events {
		switch r.EventName {
		case "setCommunityGoal":
			goal = payloadOf(t, r)
		case "setCommanderCommunityGoalProgress":
			progress = payloadOf(t, r)
		}
	}
	require.NotNil(t, goal)
	require.NotNil(t, progress)

	tier, _ := goal.Get("tierReached")
	assert.Equal(t, 5, tier)
	tierMax, _ := goal.Get("tierMax")
	assert.Equal(t, 10, tierMax)
	bonus, _ := goal.Get("completionBonus")
	assert.Equal(t, "All systems upgraded", bonus)

	reward, _ := progress.Get("percentileBandReward")
	assert.EqualValues(t, 500, reward)
	topRank, _ := progress.Get("isTopRank")
	assert.Equal(t, false, topRank)
}

func TestInventoriesOnlyReportedWhenChanged(t *testing.T) {
	e, sender := newTestEngine(t)

	state := &domain.PlayerState{
		Cargo: map[string]int{"gold": 4},
		Raw:   map[string]int{"iron": 2},
	}
	died := domain.Event{"event": "Died", "timestamp": "t1"}

	handle(t, e, "Sol", "", died, state)
	handle(t, e, "Sol", "", died, state)
	state.Cargo["gold"] = 6
	handle(t, e, "Sol", "", died, state)
	e.Stop()

	batches := sender.sent()
	require.Len(t, batches, 3)
	assert.Contains(t, eventNames(batches[0]), "setCommanderInventoryCargo")
	assert.NotContains(t, eventNames(batches[1]), "setCommanderInventoryCargo")
	assert.NotContains(t, eventNames(batches[1]), "setCommanderInventoryMaterials")
	assert.Contains(t, eventNames(batches[2]), "setCommanderInventoryCargo")
}

func TestTrailingRecordsWaitForMandatoryFlush(t *testing.T) {
	e, sender := newTestEngine(t)

	handle(t, e, "Sol", "", domain.Event{
		"event":     "Friends",
		"timestamp": "t1",
		"Status":    "Added",
		"Name":      "Scott Shelby",
	}, &domain.PlayerState{})

	require.Empty(t, sender.sent(), "trailing records must not flush on their own")

	handle(t, e, "Sol", "", domain.Event{"event": "ShutDown", "timestamp": "t2"}, &domain.PlayerState{})
	e.Stop()

	batches := sender.sent()
	require.Len(t, batches, 1)
	assert.Contains(t, eventNames(batches[0]), "addCommanderFriend")
}

func TestStoredModulesCoalesceAndKeepSlotOrder(t *testing.T) {
	e, sender := newTestEngine(t)

	stored := domain.Event{
		"event":     "StoredModules",
		"timestamp": "t1",
		"Items": []any{
			map[string]any{
				"Name":                  "int_fsdinterdictor_size4_class5",
				"StorageSlot":           2,
				"BuyPrice":              21337344,
				"Hot":                   false,
				"StarSystem":            "Sol",
				"MarketID":              1,
				"EngineerModifications": "FSDinterdictor_LongRange",
				"Level":                 5,
				"Quality":               1.0,
			},
			map[string]any{
				"Name":        "int_refinery_size4_class5",
				"StorageSlot": 1,
				"BuyPrice":    2143260,
				"Hot":         false,
			},
			// Duplicate slot: the later entry wins.
			map[string]any{
				"Name":        "int_corrosionproofcargorack_size1_class2",
				"StorageSlot": 1,
				"BuyPrice":    12562,
				"Hot":         false,
			},
		},
	}

	state := &domain.PlayerState{}
	handle(t, e, "Sol", "Daedalus", stored, state)
	handle(t, e, "Sol", "Daedalus", stored, state)
	handle(t, e, "Sol", "Daedalus", domain.Event{"event": "ShutDown", "timestamp": "t3"}, state)
	e.Stop()

	batches := sender.sent()
	require.Len(t, batches, 1)

	var listings [][]domain.Payload
	for _, r := range batches[0].Events {
		if r.EventName == "setCommanderStorageModules" {
			modules, ok := r.EventData.([]domain.Payload)
			require.True(t, ok)
			listings = append(listings, modules)
		}
	}
	require.Len(t, listings, 1)

	modules := listings[0]
	require.Len(t, modules, 2)
	// Ascending storage slot: slot 1 before slot 2.
	name, _ := modules[0].Get("itemName")
	assert.Equal(t, "int_corrosionproofcargorack_size1_class2", name)
	name, _ = modules[1].Get("itemName")
	assert.Equal(t, "int_fsdinterdictor_size4_class5", name)

	engineering, ok := modules[1].Get("engineering")
	require.True(t, ok)
	block, ok := engineering.(domain.Payload)
	require.True(t, ok)
	blueprint, _ := block.Get("blueprintName")
	assert.Equal(t, "FSDinterdictor_LongRange", blueprint)
	level, _ := block.Get("blueprintLevel")
	assert.EqualValues(t, 5, level)
}

func TestStaleQueuedLoadoutIsReplaced(t *testing.T) {
	e, sender := newTestEngine(t)

	// Close the starting window first so loadout changes take the trailing
	// path.
	handle(t, e, "Sol", "", domain.Event{"event": "Cargo", "timestamp": "t1", "Inventory": []any{}}, &domain.PlayerState{})

	powerplant := domain.Event{"Slot": "PowerPlant", "Item": "int_powerplant_size4_class2", "Health": 1.0, "On": true, "Priority": 1}
	upgraded := domain.Event{"Slot": "PowerPlant", "Item": "int_powerplant_size4_class5", "Health": 1.0, "On": true, "Priority": 1}

	handle(t, e, "Sol", "", domain.Event{"event": "Loadout", "timestamp": "t2"}, &domain.PlayerState{
		ShipID:   9,
		ShipType: "anaconda",
		Modules:  map[string]domain.Event{"PowerPlant": powerplant},
	})
	handle(t, e, "Sol", "", domain.Event{"event": "Loadout", "timestamp": "t3"}, &domain.PlayerState{
		ShipID:   9,
		ShipType: "anaconda",
		Modules:  map[string]domain.Event{"PowerPlant": upgraded},
	})
	handle(t, e, "Sol", "", domain.Event{"event": "ShutDown", "timestamp": "t4"}, &domain.PlayerState{})
	e.Stop()

	batches := sender.sent()
	require.Len(t, batches, 2) // starting dump, then the shutdown flush

	var loadouts []domain.Payload
	for _, r := range batches[1].Events {
		if r.EventName == "setCommanderShipLoadout" {
			loadouts = append(loadouts, payloadOf(t, r))
		}
	}
	require.Len(t, loadouts, 1)

	modules, ok := loadouts[0].Get("shipLoadout")
	require.True(t, ok)
	list, ok := modules.([]domain.Payload)
	require.True(t, ok)
	require.Len(t, list, 1)
	item, _ := list[0].Get("itemName")
	assert.Equal(t, "int_powerplant_size4_class5", item)
}

func TestStartingDumpWithoutLoadGame(t *testing.T) {
	e, sender := newTestEngine(t)

	// No LoadGame and no credentials: the first inventory event still opens
	// the session with the starting dump.
	handle(t, e, "Sol", "Daedalus", domain.Event{"event": "Cargo", "timestamp": "t1", "Inventory": []any{}}, &domain.PlayerState{
		Ranks: map[string]*domain.RankProgress{"Combat": {Rank: 1, Progress: 10}},
	})
	e.Stop()

	batches := sender.sent()
	require.Len(t, batches, 1)
	names := eventNames(batches[0])
	assert.Contains(t, names, "setCommanderRankPilot")
	assert.Contains(t, names, "setCommanderTravelLocation")
}

func TestPowerplayAffiliation(t *testing.T) {
	e, sender := newTestEngine(t)

	handle(t, e, "Sol", "", domain.Event{"event": "PowerplayJoin", "timestamp": "t1", "Power": "Edmund Mahon"}, &domain.PlayerState{})
	handle(t, e, "Sol", "", domain.Event{"event": "PowerplayDefect", "timestamp": "t2", "FromPower": "Edmund Mahon", "ToPower": "Li Yong-Rui"}, &domain.PlayerState{})
	handle(t, e, "Sol", "", domain.Event{"event": "PowerplayLeave", "timestamp": "t3", "Power": "Li Yong-Rui"}, &domain.PlayerState{})
	e.Stop()

	batches := sender.sent()
	require.Len(t, batches, 3)

	join := payloadOf(t, batches[0].Events[0])
	name, _ := join.Get("powerName")
	assert.Equal(t, "Edmund Mahon", name)
	rank, _ := join.Get("rankValue")
	assert.Equal(t, 1, rank)

	defect := payloadOf(t, batches[1].Events[0])
	name, _ = defect.Get("powerName")
	assert.Equal(t, "Li Yong-Rui", name)

	leave := payloadOf(t, batches[2].Events[0])
	rank, _ = leave.Get("rankValue")
	assert.Equal(t, 0, rank)
}

func TestShipScanOnlyAtFullScanStage(t *testing.T) {
	e, sender := newTestEngine(t)

	handle(t, e, "Sol", "", domain.Event{"event": "ShipTargeted", "timestamp": "t1", "ScanStage": 1}, &domain.PlayerState{})
	handle(t, e, "Sol", "", domain.Event{"event": "ShipTargeted", "timestamp": "t2", "ScanStage": 3, "PilotName": "$npc;", "PilotName_Localised": "Pirate"}, &domain.PlayerState{})
	e.Stop()

	batches := sender.sent()
	require.Len(t, batches, 1)
	assert.Contains(t, eventNames(batches[0]), "addCommanderShipScan")
}

func TestMissingMandatoryFieldReturnsError(t *testing.T) {
	e, sender := newTestEngine(t)
	defer e.Stop()

	err := e.HandleJournalEntry("Norman Jayden", false, "Sol", "", domain.Event{
		"event":     "MissionAbandoned",
		"timestamp": "t1",
	}, &domain.PlayerState{})

	require.ErrorIs(t, err, domain.ErrMissingField)
	require.Empty(t, sender.sent())
}

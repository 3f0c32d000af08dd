package application

import (
	"github.com/chadvangaalen/sfr/internal/domain"
)

// buildLoadout produces the full loadout report for the current ship: one
// ordered entry per module with its health, power state and, when present,
// ammunition, value, heat flag and engineering block.
func buildLoadout(state *domain.PlayerState) (domain.Payload, error) {
	modules := make([]domain.Payload, 0, len(state.Modules))
	for _, slot := range sortedKeys(state.Modules) {
		m := state.Modules[slot]
		mr := m.Reader()
		module := domain.Payload{
			{Key: "slotName", Value: mr.Str("Slot")},
			{Key: "itemName", Value: mr.Str("Item")},
			{Key: "itemHealth", Value: mr.Float("Health")},
			{Key: "isOn", Value: mr.Bool("On")},
			{Key: "itemPriority", Value: mr.Int("Priority")},
		}
		if err := mr.Err(); err != nil {
			return nil, err
		}

		if m.Has("AmmoInClip") {
			module = module.Set("itemAmmoClip", m.Opt("AmmoInClip"))
		}
		if m.Has("AmmoInHopper") {
			module = module.Set("itemAmmoHopper", m.Opt("AmmoInHopper"))
		}
		if m.Has("Value") {
			module = module.Set("itemValue", m.Opt("Value"))
		}
		if m.Has("Hot") {
			module = module.Set("isHot", m.Opt("Hot"))
		}
		if m.Has("Engineering") {
			engineering, err := buildEngineering(m.Object("Engineering"))
			if err != nil {
				return nil, err
			}
			module = module.Set("engineering", engineering)
		}

		modules = append(modules, module)
	}

	return domain.Payload{
		{Key: "shipType", Value: state.ShipType},
		{Key: "shipGameID", Value: state.ShipID},
		{Key: "shipLoadout", Value: modules},
	}, nil
}

func buildEngineering(source domain.Event) (domain.Payload, error) {
	er := source.Reader()
	engineering := domain.Payload{
		{Key: "blueprintName", Value: er.Str("BlueprintName")},
		{Key: "blueprintLevel", Value: er.Int("Level")},
		{Key: "blueprintQuality", Value: er.Any("Quality")},
	}
	if source.Has("ExperimentalEffect") {
		engineering = engineering.Set("experimentalEffect", source.Opt("ExperimentalEffect"))
	}

	mods := er.List("Modifiers")
	if err := er.Err(); err != nil {
		return nil, err
	}

	modifiers := make([]domain.Payload, 0, len(mods))
	for _, mod := range mods {
		dr := mod.Reader()
		modifier := domain.Payload{{Key: "name", Value: dr.Str("Label")}}
		if mod.Has("OriginalValue") {
			// Numeric before/after pair.
			modifier = modifier.Set("value", dr.Any("Value"))
			modifier = modifier.Set("originalValue", dr.Any("OriginalValue"))
			modifier = modifier.Set("lessIsGood", dr.Any("LessIsGood"))
		} else {
			// Pre-formatted display string.
			modifier = modifier.Set("value", dr.Any("ValueStr"))
		}
		if err := dr.Err(); err != nil {
			return nil, err
		}
		modifiers = append(modifiers, modifier)
	}
	engineering = engineering.Set("modifiers", modifiers)
	return engineering, nil
}

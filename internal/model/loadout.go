package model

// GearItem is one equipped slot from a PLAYER_INFO record.
type GearItem struct {
	Slot           string `json:"slot"`
	ItemID         int    `json:"item_id"`
	BindType       string `json:"bind_type"`
	Level          int    `json:"level"`
	Trait          string `json:"trait"`
	Quality        string `json:"quality"`
	SetID          int    `json:"set_id"`
	Enchant        string `json:"enchant"`
	EnchantBind    string `json:"enchant_bind"`
	EnchantLevel   int    `json:"enchant_level"`
	EnchantQuality string `json:"enchant_quality"`
}

// PlayerLoadout is the decoded PLAYER_INFO payload. A newer loadout for the
// same unit replaces the older one wholesale.
type PlayerLoadout struct {
	UnitID             string     `json:"unit_id"`
	AbilityIDs         []int      `json:"ability_ids"`
	AbilityLevels      []int      `json:"ability_levels"`
	Gear               []GearItem `json:"gear"`
	FrontBarAbilityIDs []int      `json:"front_bar"`
	BackBarAbilityIDs  []int      `json:"back_bar"`
}

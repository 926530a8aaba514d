package config

// Default values for configuration.
const (
	DefaultOutput              = "text"
	DefaultCheckpoint          = ".esoloom-state.json"
	DefaultZoneHistory         = 8
	DefaultGroupBuffMinPlayers = 3
	DefaultRecentReports       = 20
	DefaultDashboardPort       = "8080"
)

// EnvPrefix is the prefix for environment overrides, e.g. ESOLOOM_OUTPUT.
const EnvPrefix = "ESOLOOM"

// DefaultTrackedBuffs returns the group buffs followed out of the box,
// keyed by effect ability id.
func DefaultTrackedBuffs() map[string]string {
	return map[string]string{
		"109966": "Major Courage",
		"109994": "Minor Courage",
		"93109":  "Major Slayer",
		"61744":  "Minor Berserk",
		"61747":  "Major Force",
		"61771":  "Powerful Assault",
		"76518":  "Major Brutality",
	}
}

package lobby

// SettingValue is a closed sum type for arbitrary room settings (SPEC_FULL
// §3 "Settings values"): exactly one of the typed fields is meaningful,
// selected by Kind. This keeps room settings serializable by the codec
// without reflection, unlike a bare `any`.
type SettingValue struct {
	Kind string // "bool" | "int" | "float" | "string"
	B    bool
	I    int64
	F    float64
	S    string
}

func BoolSetting(v bool) SettingValue     { return SettingValue{Kind: "bool", B: v} }
func IntSetting(v int64) SettingValue     { return SettingValue{Kind: "int", I: v} }
func FloatSetting(v float64) SettingValue { return SettingValue{Kind: "float", F: v} }
func StringSetting(v string) SettingValue { return SettingValue{Kind: "string", S: v} }

// DistanceDefaults is the server-wide positional-audio min/max listening
// distance new rooms start with (SPEC_FULL §9 "positional_audio" config),
// overridable per room via SetSetting("min_dist"/"max_dist", ...).
type DistanceDefaults struct {
	Min float64
	Max float64
}

// DefaultDistanceDefaults matches the teacher-era hardcoded constants, used
// when a Lobby is constructed without an explicit override.
var DefaultDistanceDefaults = DistanceDefaults{Min: 1.0, Max: 50.0}

// defaultSettings returns the built-in settings every room starts with:
// late_join disabled, and the positional-audio distance defaults (§4.3).
func defaultSettings(d DistanceDefaults) map[string]SettingValue {
	return map[string]SettingValue{
		"late_join": BoolSetting(false),
		"min_dist":  FloatSetting(d.Min),
		"max_dist":  FloatSetting(d.Max),
	}
}

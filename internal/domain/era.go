package domain

// ─── Eras ───────────────────────────────────────────────────────────────────

// Era identifies a themed progression stage.
type Era string

const (
	EraAncient     Era = "ancient"
	EraRenaissance Era = "renaissance"
	EraFuture      Era = "future"
)

// ThresholdTable is the static era boundary configuration, in cumulative
// focus seconds. Eras are half-open: [start, nextStart), the final era ends
// at FutureEnd.
type ThresholdTable struct {
	AncientStart     int64 `toml:"ancient_start" json:"ancient_start"`
	RenaissanceStart int64 `toml:"renaissance_start" json:"renaissance_start"`
	FutureStart      int64 `toml:"future_start" json:"future_start"`
	FutureEnd        int64 `toml:"future_end" json:"future_end"`
	SecondsPerLevel  int64 `toml:"seconds_per_level" json:"seconds_per_level"`
	LevelsPerEra     int   `toml:"levels_per_era" json:"levels_per_era"`
}

// EraState is the classifier output for one cumulative duration.
// Current is seconds into the stage, Max the stage width.
type EraState struct {
	Era        Era    `json:"era"`
	EraName    string `json:"era_name"`
	Level      int    `json:"level"` // 0-based within the era
	StageStart int64  `json:"stage_start"`
	Current    int64  `json:"current"`
	Max        int64  `json:"max"`
	Label      string `json:"label"`
	Terminal   bool   `json:"terminal"`
}

// Fraction returns Current/Max clamped to [0, 1].
func (s EraState) Fraction() float64 {
	if s.Max <= 0 {
		return 0
	}
	f := float64(s.Current) / float64(s.Max)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// ─── Scene Assets ───────────────────────────────────────────────────────────

// Layout tells the renderer how to read asset positions.
type Layout string

const (
	LayoutGrid     Layout = "grid"     // X = column, Y = row
	LayoutAbsolute Layout = "absolute" // X = left, Y = top
)

// Position is a static screen placement taken from the catalog.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// UnlockPolicy selects how an era's assets become visible. Implemented by
// PerAssetThreshold and LevelKeyed only.
type UnlockPolicy interface {
	isUnlockPolicy()
}

// ThresholdAsset pops in once cumulative focus reaches Threshold.
type ThresholdAsset struct {
	ID        string   `json:"id"`
	Threshold int64    `json:"threshold"`
	Position  Position `json:"position"`
}

// PerAssetThreshold makes each asset visible independently.
type PerAssetThreshold struct {
	Assets []ThresholdAsset
}

// LeveledAsset always renders inside its era, with one variant per level.
type LeveledAsset struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
}

// LevelKeyed renders every asset at once; the era level picks the variant.
type LevelKeyed struct {
	Variants int
	Assets   []LeveledAsset
}

func (PerAssetThreshold) isUnlockPolicy() {}
func (LevelKeyed) isUnlockPolicy()        {}

// EraScene is one era's static asset configuration.
type EraScene struct {
	Era    Era
	Name   string
	Layout Layout
	Policy UnlockPolicy
}

// RenderedAsset is one visible asset. Variant is 1-based for level-keyed
// assets and 0 for single-image threshold assets.
type RenderedAsset struct {
	AssetID  string   `json:"asset_id"`
	Variant  int      `json:"variant"`
	Position Position `json:"position"`
}

// SceneDelta describes what changed between two renders of a scene.
type SceneDelta struct {
	Entered         []string `json:"entered"`          // per-asset entrance animations
	GroupTransition bool     `json:"group_transition"` // level-keyed variant swap
}

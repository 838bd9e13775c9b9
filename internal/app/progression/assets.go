package progression

import "github.com/tutu-network/focusera/internal/domain"

// EraLevel returns the 0-based level reached inside era e. reached is false
// while total is still below the era's start. Past the era's end the level
// stays at the last one.
func EraLevel(e domain.Era, total int64, t domain.ThresholdTable) (level int, reached bool) {
	for _, b := range Bounds(t) {
		if b.Era != e {
			continue
		}
		if total < b.Start {
			return 0, false
		}
		level = int((total - b.Start) / t.SecondsPerLevel)
		return min(level, t.LevelsPerEra-1), true
	}
	return 0, false
}

// Resolve lists the assets of scene visible at total, in catalog order.
// Positions are static; only visibility and variant depend on total.
func Resolve(scene domain.EraScene, total int64, t domain.ThresholdTable) []domain.RenderedAsset {
	total = max(total, 0)

	switch p := scene.Policy.(type) {
	case domain.PerAssetThreshold:
		out := make([]domain.RenderedAsset, 0, len(p.Assets))
		for _, a := range p.Assets {
			if total >= a.Threshold {
				out = append(out, domain.RenderedAsset{AssetID: a.ID, Position: a.Position})
			}
		}
		return out

	case domain.LevelKeyed:
		level, reached := EraLevel(scene.Era, total, t)
		if !reached {
			return []domain.RenderedAsset{}
		}
		variant := min(level+1, p.Variants)
		out := make([]domain.RenderedAsset, 0, len(p.Assets))
		for _, a := range p.Assets {
			out = append(out, domain.RenderedAsset{AssetID: a.ID, Variant: variant, Position: a.Position})
		}
		return out
	}
	return []domain.RenderedAsset{}
}

// Diff compares two renders of the same scene. Assets new in next get an
// entrance animation; a variant change on an asset already shown means the
// level-keyed group swapped art and animates once as a whole.
func Diff(prev, next []domain.RenderedAsset) domain.SceneDelta {
	shown := make(map[string]int, len(prev))
	for _, a := range prev {
		shown[a.AssetID] = a.Variant
	}

	var delta domain.SceneDelta
	for _, a := range next {
		variant, ok := shown[a.AssetID]
		switch {
		case !ok:
			delta.Entered = append(delta.Entered, a.AssetID)
		case variant != a.Variant:
			delta.GroupTransition = true
		}
	}
	return delta
}

package progression

import "github.com/tutu-network/focusera/internal/domain"

// LabelComingSoon marks the final era's last stage and the terminal state.
const LabelComingSoon = "Coming soon!"

// EraBound is one era's half-open interval [Start, End).
type EraBound struct {
	Era   domain.Era `json:"era"`
	Name  string     `json:"name"`
	Start int64      `json:"start"`
	End   int64      `json:"end"`
}

// Bounds lists the eras of t in progression order.
func Bounds(t domain.ThresholdTable) []EraBound {
	return []EraBound{
		{Era: domain.EraAncient, Name: EraName(domain.EraAncient), Start: t.AncientStart, End: t.RenaissanceStart},
		{Era: domain.EraRenaissance, Name: EraName(domain.EraRenaissance), Start: t.RenaissanceStart, End: t.FutureStart},
		{Era: domain.EraFuture, Name: EraName(domain.EraFuture), Start: t.FutureStart, End: t.FutureEnd},
	}
}

// EraFor returns the era containing total. Values past the final boundary
// stay in the final era; values below the first start sit in the first.
func EraFor(total int64, t domain.ThresholdTable) domain.Era {
	bounds := Bounds(t)
	for _, b := range bounds {
		if total < b.End {
			return b.Era
		}
	}
	return bounds[len(bounds)-1].Era
}

// Classify maps a cumulative focus duration to its era, level and progress
// through the current stage.
//
// Each level spans SecondsPerLevel except the last level of an era, which is
// stretched or compressed to end exactly at the next era's start. A value
// equal to an era start belongs to the new era. At or past FutureEnd there is
// nothing left to unlock and a fixed 1/1 placeholder is returned.
func Classify(total int64, t domain.ThresholdTable) domain.EraState {
	bounds := Bounds(t)
	lastLevel := t.LevelsPerEra - 1

	if total >= t.FutureEnd {
		final := bounds[len(bounds)-1]
		return domain.EraState{
			Era:        final.Era,
			EraName:    final.Name,
			Level:      lastLevel,
			StageStart: t.FutureEnd,
			Current:    1,
			Max:        1,
			Label:      LabelComingSoon,
			Terminal:   true,
		}
	}
	if total < t.AncientStart {
		total = t.AncientStart
	}

	idx := 0
	for i, b := range bounds {
		if total < b.End {
			idx = i
			break
		}
	}
	b := bounds[idx]

	level := int((total - b.Start) / t.SecondsPerLevel)
	level = min(max(level, 0), lastLevel)

	stageStart := b.Start + int64(level)*t.SecondsPerLevel
	width := t.SecondsPerLevel
	if level == lastLevel {
		width = b.End - stageStart
	}

	return domain.EraState{
		Era:        b.Era,
		EraName:    b.Name,
		Level:      level,
		StageStart: stageStart,
		Current:    total - stageStart,
		Max:        width,
		Label:      stageLabel(bounds, idx, level, lastLevel),
	}
}

func stageLabel(bounds []EraBound, idx, level, lastLevel int) string {
	if level < lastLevel {
		return "Progress to next " + bounds[idx].Name + " upgrade"
	}
	if idx+1 < len(bounds) {
		return "Progress to " + bounds[idx+1].Name + " Era"
	}
	return LabelComingSoon
}

package progression_test

import (
	"errors"
	"maps"
	"slices"
	"testing"
	"time"

	"github.com/tutu-network/focusera/internal/app/progression"
	"github.com/tutu-network/focusera/internal/domain"
)

// smallTable keeps numbers readable: eras of 100/120/110 seconds with three
// 40-second levels, so every era's last level is stretched or compressed.
var smallTable = domain.ThresholdTable{
	AncientStart:     0,
	RenaissanceStart: 100,
	FutureStart:      220,
	FutureEnd:        330,
	SecondsPerLevel:  40,
	LevelsPerEra:     3,
}

// ═══════════════════════════════════════════════════════════════════════════
// Duration Formatter Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int64
		max  bool
		want string
	}{
		{0, false, "0s"},
		{0, true, "0s"},
		{-5, false, "0s"},
		{59, false, "59s"},
		{90, false, "1m 30s"},
		{3600, false, "1h"},
		{3600, true, "1h"},
		{3661, false, "1h 1m 1s"},
		{3601, false, "1h 0m 1s"},
		{7260, false, "2h 1m"},
		{86400, true, "1d"},
		{90000, false, "1d 1h"},
		{90000, true, "25h"},
		{5400, true, "90m"},
		{3661, true, "1h 1m 1s"},
		{1080000, true, "300h"},
	}
	for _, tt := range tests {
		got := progression.FormatDuration(tt.secs, tt.max)
		if got != tt.want {
			t.Errorf("FormatDuration(%d, %v) = %q, want %q", tt.secs, tt.max, got, tt.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	tests := map[int64]string{0: "00:00", 65: "01:05", 1500: "25:00", 3725: "62:05", -3: "00:00"}
	for secs, want := range tests {
		if got := progression.FormatClock(secs); got != want {
			t.Errorf("FormatClock(%d) = %q, want %q", secs, got, want)
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Clock / Day Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestToday_UsesLocation(t *testing.T) {
	// 23:30 UTC is already the next day in Tokyo.
	clock := progression.FixedClock{T: time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC)}
	tokyo := time.FixedZone("JST", 9*3600)

	if got := progression.Today(clock, time.UTC); got != "2025-03-09" {
		t.Errorf("UTC today = %s", got)
	}
	if got := progression.Today(clock, tokyo); got != "2025-03-10" {
		t.Errorf("Tokyo today = %s", got)
	}
}

func TestDay_Arithmetic(t *testing.T) {
	if got := progression.Day("2025-03-01").Yesterday(); got != "2025-02-28" {
		t.Errorf("yesterday of Mar 1 = %s", got)
	}
	if got := progression.Day("2024-12-31").AddDays(1); got != "2025-01-01" {
		t.Errorf("Dec 31 + 1 = %s", got)
	}
	// 2025-07-03 is a Thursday.
	if got := progression.Day("2025-07-03").WeekStart(); got != "2025-06-30" {
		t.Errorf("week start = %s, want 2025-06-30", got)
	}
	// Sunday belongs to the week that started the previous Monday.
	if got := progression.Day("2025-07-06").WeekStart(); got != "2025-06-30" {
		t.Errorf("sunday week start = %s, want 2025-06-30", got)
	}
	if got := progression.Day("garbage").Yesterday(); got != "" {
		t.Errorf("malformed day yesterday = %q, want empty", got)
	}
	if _, ok := progression.ParseDay("2025-13-01"); ok {
		t.Error("ParseDay accepted month 13")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Streak Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestNextStreak(t *testing.T) {
	today := progression.Day("2025-07-10")
	tests := []struct {
		name   string
		last   string
		streak int
		want   int
	}{
		{"same day unchanged", "2025-07-10", 4, 4},
		{"yesterday increments", "2025-07-09", 4, 5},
		{"two day gap resets", "2025-07-08", 4, 1},
		{"long gap resets", "2024-01-01", 40, 1},
		{"no prior date", "", 0, 1},
		{"malformed date resets", "10/07/2025", 3, 1},
		{"negative streak clamps", "2025-07-09", -2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := progression.NextStreak(tt.last, tt.streak, today)
			if got.Streak != tt.want {
				t.Errorf("streak = %d, want %d", got.Streak, tt.want)
			}
			if got.UpdatedDate != today {
				t.Errorf("updated date = %s, want %s", got.UpdatedDate, today)
			}
		})
	}
}

func TestNextStreak_FixedPoint(t *testing.T) {
	today := progression.Day("2025-07-10")
	first := progression.NextStreak("2025-07-09", 2, today)
	second := progression.NextStreak(string(first.UpdatedDate), first.Streak, today)

	if second.Streak != first.Streak || second.UpdatedDate != first.UpdatedDate {
		t.Errorf("second call changed state: %+v -> %+v", first, second)
	}
	if second.Changed {
		t.Error("second call on the same day reported a change")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Session Aggregator Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestAggregateSession(t *testing.T) {
	today := progression.Day("2025-07-10")
	prev := map[string]int64{}

	got := progression.AggregateSession(100, prev, 50, today)
	if got.UpdatedTotal != 150 {
		t.Errorf("total = %d, want 150", got.UpdatedTotal)
	}
	if got.UpdatedLogs["2025-07-10"] != 50 {
		t.Errorf("today's log = %d, want 50", got.UpdatedLogs["2025-07-10"])
	}
	if len(prev) != 0 {
		t.Errorf("input log mutated: %v", prev)
	}
	if !got.Recorded {
		t.Error("session not marked recorded")
	}
}

func TestAggregateSession_AccumulatesSameDay(t *testing.T) {
	today := progression.Day("2025-07-10")
	prev := map[string]int64{"2025-07-09": 600}
	snapshot := maps.Clone(prev)

	first := progression.AggregateSession(600, prev, 1500, today)
	second := progression.AggregateSession(first.UpdatedTotal, first.UpdatedLogs, 300, today)

	if second.UpdatedTotal != 2400 {
		t.Errorf("total = %d, want 2400", second.UpdatedTotal)
	}
	if second.UpdatedLogs["2025-07-10"] != 1800 {
		t.Errorf("today = %d, want 1800", second.UpdatedLogs["2025-07-10"])
	}
	if second.UpdatedLogs["2025-07-09"] != 600 {
		t.Errorf("yesterday changed to %d", second.UpdatedLogs["2025-07-09"])
	}
	if first.UpdatedLogs["2025-07-10"] != 1500 {
		t.Error("second aggregation mutated the first result")
	}
	if !maps.Equal(prev, snapshot) {
		t.Error("original log mutated")
	}
}

func TestAggregateSession_NonPositiveNotRecorded(t *testing.T) {
	today := progression.Day("2025-07-10")
	for _, secs := range []int64{0, -30} {
		got := progression.AggregateSession(100, map[string]int64{"2025-07-01": 100}, secs, today)
		if got.Recorded {
			t.Errorf("session %d recorded", secs)
		}
		if got.UpdatedTotal != 100 {
			t.Errorf("session %d changed total to %d", secs, got.UpdatedTotal)
		}
		if _, ok := got.UpdatedLogs["2025-07-10"]; ok {
			t.Errorf("session %d created an entry for today", secs)
		}
	}
}

func TestReconcileTotal(t *testing.T) {
	logs := map[string]int64{"2025-07-01": 100, "2025-07-02": 250}
	if got := progression.ReconcileTotal(100, logs); got != 350 {
		t.Errorf("lagging total = %d, want sum 350", got)
	}
	if got := progression.ReconcileTotal(500, nil); got != 500 {
		t.Errorf("legacy total = %d, want 500", got)
	}
	// History that predates logging survives the first logged session.
	if got := progression.ReconcileTotal(5100, map[string]int64{"2025-07-02": 100}); got != 5100 {
		t.Errorf("legacy total with new log = %d, want 5100", got)
	}
	if got := progression.ReconcileTotal(-5, nil); got != 0 {
		t.Errorf("negative total = %d, want 0", got)
	}
	if got := progression.SumLogs(map[string]int64{"a": 10, "b": -4}); got != 10 {
		t.Errorf("SumLogs ignores negatives: got %d", got)
	}
}

func TestLiveFocusTime(t *testing.T) {
	tests := []struct {
		mode  progression.TimerMode
		phase progression.TimerPhase
		want  int64
	}{
		{progression.ModePomodoro, progression.PhaseFocus, 1300},
		{progression.ModePomodoro, progression.PhaseBreak, 1000},
		{progression.ModeStopwatch, progression.PhaseBreak, 1300},
		{progression.ModeStopwatch, progression.PhaseFocus, 1300},
	}
	for _, tt := range tests {
		if got := progression.LiveFocusTime(tt.mode, tt.phase, 1000, 300); got != tt.want {
			t.Errorf("LiveFocusTime(%s, %s) = %d, want %d", tt.mode, tt.phase, got, tt.want)
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Catalog Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestDefaultCatalog(t *testing.T) {
	c := progression.DefaultCatalog()

	if c.Table.LevelsPerEra != 3 {
		t.Errorf("levels per era = %d", c.Table.LevelsPerEra)
	}
	if c.Table.FutureEnd != c.Table.FutureStart+3*c.Table.SecondsPerLevel {
		t.Errorf("future end %d does not close three levels", c.Table.FutureEnd)
	}
	scenes := c.Scenes()
	if len(scenes) != 3 {
		t.Fatalf("scenes = %d, want 3", len(scenes))
	}
	if _, ok := scenes[0].Policy.(domain.PerAssetThreshold); !ok {
		t.Errorf("ancient policy = %T, want PerAssetThreshold", scenes[0].Policy)
	}
	if _, ok := scenes[2].Policy.(domain.LevelKeyed); !ok {
		t.Errorf("future policy = %T, want LevelKeyed", scenes[2].Policy)
	}
	if img, ok := c.Image(domain.EraFuture, "rocket", 2); !ok || img != "future/rocket2" {
		t.Errorf("rocket variant 2 = %q %v", img, ok)
	}
	if img, ok := c.Image(domain.EraAncient, "sphinx", 0); !ok || img != "egypt/sphinx" {
		t.Errorf("sphinx image = %q %v", img, ok)
	}
	if _, ok := c.Image(domain.EraFuture, "rocket", 4); ok {
		t.Error("variant 4 should not exist")
	}
}

func TestParseCatalog_Rejects(t *testing.T) {
	base := `
[thresholds]
ancient_start = 0
renaissance_start = 100
future_start = 220
future_end = 330
seconds_per_level = 40
levels_per_era = 3
`
	eras := `
[[eras]]
id = "ancient"
layout = "grid"
policy = "threshold"
[[eras]]
id = "renaissance"
layout = "grid"
policy = "threshold"
[[eras]]
id = "future"
layout = "absolute"
policy = "level"
`
	if _, err := progression.ParseCatalog([]byte(base + eras)); err != nil {
		t.Fatalf("valid catalog rejected: %v", err)
	}

	tests := map[string]string{
		"misordered":   `[thresholds]` + "\nancient_start = 0\nrenaissance_start = 300\nfuture_start = 220\nfuture_end = 400\nseconds_per_level = 40\nlevels_per_era = 3\n" + eras,
		"short era":    `[thresholds]` + "\nancient_start = 0\nrenaissance_start = 80\nfuture_start = 220\nfuture_end = 330\nseconds_per_level = 40\nlevels_per_era = 3\n" + eras,
		"unknown key":  base + "bogus = 1\n" + eras,
		"missing era":  base + "[[eras]]\nid = \"ancient\"\nlayout = \"grid\"\npolicy = \"threshold\"\n",
		"bad policy":   base + "[[eras]]\nid = \"ancient\"\nlayout = \"grid\"\npolicy = \"random\"\n",
		"bad variants": base + eras + "[[eras.assets]]\nid = \"rocket\"\nimages = [\"a\", \"b\"]\n",
		"duplicate":    base + eras + "[[eras]]\nid = \"future\"\nlayout = \"grid\"\npolicy = \"level\"\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := progression.ParseCatalog([]byte(doc))
			if !errors.Is(err, domain.ErrInvalidCatalog) {
				t.Errorf("err = %v, want ErrInvalidCatalog", err)
			}
		})
	}
}

func TestParseEra(t *testing.T) {
	if e, err := progression.ParseEra(" Future "); err != nil || e != domain.EraFuture {
		t.Errorf("ParseEra(Future) = %q, %v", e, err)
	}
	if _, err := progression.ParseEra("medieval"); !errors.Is(err, domain.ErrUnknownEra) {
		t.Errorf("err = %v, want ErrUnknownEra", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Classifier Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestClassify_StageInvariantEverywhere(t *testing.T) {
	for total := int64(0); total < smallTable.FutureEnd; total++ {
		s := progression.Classify(total, smallTable)
		if s.Terminal {
			t.Fatalf("t=%d terminal before FutureEnd", total)
		}
		if s.StageStart+s.Current != total {
			t.Fatalf("t=%d: stageStart %d + current %d != t", total, s.StageStart, s.Current)
		}
		if s.Current < 0 || s.Current >= s.Max {
			t.Fatalf("t=%d: current %d not in [0, %d)", total, s.Current, s.Max)
		}
	}
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		total int64
		era   domain.Era
		level int
		cur   int64
		max   int64
		label string
	}{
		{0, domain.EraAncient, 0, 0, 40, "Progress to next Ancient Egypt upgrade"},
		{39, domain.EraAncient, 0, 39, 40, "Progress to next Ancient Egypt upgrade"},
		{40, domain.EraAncient, 1, 0, 40, "Progress to next Ancient Egypt upgrade"},
		// Last ancient level compressed: 100 - 80 = 20.
		{80, domain.EraAncient, 2, 0, 20, "Progress to Renaissance Era"},
		{99, domain.EraAncient, 2, 19, 20, "Progress to Renaissance Era"},
		// Exactly on the boundary belongs to the new era.
		{100, domain.EraRenaissance, 0, 0, 40, "Progress to next Renaissance upgrade"},
		// Renaissance's last level is exactly 40 wide; future's is compressed to 30.
		{219, domain.EraRenaissance, 2, 39, 40, "Progress to Future Era"},
		{220, domain.EraFuture, 0, 0, 40, "Progress to next Future upgrade"},
		{300, domain.EraFuture, 2, 0, 30, progression.LabelComingSoon},
		{329, domain.EraFuture, 2, 29, 30, progression.LabelComingSoon},
	}
	for _, tt := range tests {
		s := progression.Classify(tt.total, smallTable)
		if s.Era != tt.era || s.Level != tt.level || s.Current != tt.cur || s.Max != tt.max || s.Label != tt.label {
			t.Errorf("Classify(%d) = {%s L%d %d/%d %q}, want {%s L%d %d/%d %q}",
				tt.total, s.Era, s.Level, s.Current, s.Max, s.Label,
				tt.era, tt.level, tt.cur, tt.max, tt.label)
		}
	}
}

func TestClassify_StretchedLastLevel(t *testing.T) {
	// Renaissance spans 160 with 40s levels: last level is 160 - 80 = 80 wide.
	table := smallTable
	table.FutureStart = 260
	table.FutureEnd = 370

	s := progression.Classify(259, table)
	if s.Level != 2 || s.Max != 80 || s.Current != 79 {
		t.Errorf("stretched stage = L%d %d/%d, want L2 79/80", s.Level, s.Current, s.Max)
	}
}

func TestClassify_Terminal(t *testing.T) {
	for _, total := range []int64{330, 331, 1 << 40} {
		s := progression.Classify(total, smallTable)
		if !s.Terminal || s.Current != 1 || s.Max != 1 || s.Label != progression.LabelComingSoon {
			t.Errorf("Classify(%d) = %+v, want terminal placeholder", total, s)
		}
		if s.Fraction() != 1 {
			t.Errorf("terminal fraction = %v", s.Fraction())
		}
	}
}

func TestClassify_DefaultTableLabels(t *testing.T) {
	c := progression.DefaultCatalog()
	lastAncient := c.Table.RenaissanceStart - 1
	s := c.Classify(lastAncient)
	want := c.Table.RenaissanceStart - (c.Table.AncientStart + 2*c.Table.SecondsPerLevel)
	if s.Label != "Progress to Renaissance Era" || s.Max != want {
		t.Errorf("last ancient = %q max %d, want max %d", s.Label, s.Max, want)
	}
	if progression.EraFor(c.Table.FutureStart, c.Table) != domain.EraFuture {
		t.Error("future start not in future era")
	}
	if progression.EraFor(c.Table.FutureEnd+10, c.Table) != domain.EraFuture {
		t.Error("past the end should stay in the final era")
	}
}

func TestClassify_NegativeClamps(t *testing.T) {
	s := progression.Classify(-500, smallTable)
	if s.Era != domain.EraAncient || s.Current != 0 || s.Level != 0 {
		t.Errorf("negative total = %+v", s)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Asset Resolver Tests
// ═══════════════════════════════════════════════════════════════════════════

func assetIDs(rs []domain.RenderedAsset) []string {
	ids := make([]string, 0, len(rs))
	for _, r := range rs {
		ids = append(ids, r.AssetID)
	}
	return ids
}

func TestResolve_PerAssetThreshold(t *testing.T) {
	scene := domain.EraScene{
		Era: domain.EraAncient,
		Policy: domain.PerAssetThreshold{Assets: []domain.ThresholdAsset{
			{ID: "cactus", Threshold: 5, Position: domain.Position{X: 0, Y: 0}},
			{ID: "camel", Threshold: 60, Position: domain.Position{X: 1, Y: 3}},
			{ID: "hut", Threshold: 30, Position: domain.Position{X: 0, Y: 1}},
		}},
	}

	tests := []struct {
		total int64
		want  []string
	}{
		{0, []string{}},
		{5, []string{"cactus"}},
		{30, []string{"cactus", "hut"}},
		{59, []string{"cactus", "hut"}},
		{60, []string{"cactus", "camel", "hut"}},
	}
	for _, tt := range tests {
		got := assetIDs(progression.Resolve(scene, tt.total, smallTable))
		if !slices.Equal(got, tt.want) {
			t.Errorf("Resolve(%d) = %v, want %v", tt.total, got, tt.want)
		}
	}

	camel := progression.Resolve(scene, 60, smallTable)[1]
	if camel.Position != (domain.Position{X: 1, Y: 3}) || camel.Variant != 0 {
		t.Errorf("camel = %+v", camel)
	}
}

func TestResolve_LevelKeyed(t *testing.T) {
	scene := domain.EraScene{
		Era: domain.EraFuture,
		Policy: domain.LevelKeyed{Variants: 3, Assets: []domain.LeveledAsset{
			{ID: "rocket"}, {ID: "tower"},
		}},
	}

	tests := []struct {
		total   int64
		count   int
		variant int
	}{
		{219, 0, 0}, // before the era
		{220, 2, 1},
		{260, 2, 2},
		{300, 2, 3},
		{5000, 2, 3}, // past the end keeps the last variant
	}
	for _, tt := range tests {
		got := progression.Resolve(scene, tt.total, smallTable)
		if len(got) != tt.count {
			t.Fatalf("Resolve(%d) rendered %d assets, want %d", tt.total, len(got), tt.count)
		}
		for _, a := range got {
			if a.Variant != tt.variant {
				t.Errorf("Resolve(%d) %s variant %d, want %d", tt.total, a.AssetID, a.Variant, tt.variant)
			}
		}
	}
}

func TestDiff(t *testing.T) {
	prev := []domain.RenderedAsset{{AssetID: "cactus"}}
	next := []domain.RenderedAsset{{AssetID: "cactus"}, {AssetID: "hut"}}
	d := progression.Diff(prev, next)
	if !slices.Equal(d.Entered, []string{"hut"}) || d.GroupTransition {
		t.Errorf("threshold diff = %+v", d)
	}

	lvl1 := []domain.RenderedAsset{{AssetID: "rocket", Variant: 1}, {AssetID: "tower", Variant: 1}}
	lvl2 := []domain.RenderedAsset{{AssetID: "rocket", Variant: 2}, {AssetID: "tower", Variant: 2}}
	d = progression.Diff(lvl1, lvl2)
	if len(d.Entered) != 0 || !d.GroupTransition {
		t.Errorf("level diff = %+v", d)
	}

	if d := progression.Diff(lvl2, lvl2); len(d.Entered) != 0 || d.GroupTransition {
		t.Errorf("no-op diff = %+v", d)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Badge Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestBadges_StreakThreshold(t *testing.T) {
	catalog := progression.Badges(smallTable)

	at9 := progression.EvaluateBadges(catalog, domain.BadgeStats{Streak: 9}, nil)
	if slices.Contains(at9.Unlocked, "streak10") {
		t.Error("streak10 unlocked at 9")
	}
	at10 := progression.EvaluateBadges(catalog, domain.BadgeStats{Streak: 10}, nil)
	if !slices.Contains(at10.Unlocked, "streak10") {
		t.Error("streak10 not unlocked at 10")
	}
	if len(at10.Newly) != 1 || at10.Newly[0].ID != "streak10" {
		t.Errorf("newly = %v", at10.Newly)
	}
}

func TestBadges_Monotonic(t *testing.T) {
	catalog := progression.Badges(smallTable)
	high := domain.BadgeStats{TotalFocusTime: 400, Streak: 30, TotalFocusDays: 12}

	first := progression.EvaluateBadges(catalog, high, nil)
	for _, id := range []string{"ancientbadge", "renaissancebadge", "futurebadge", "streak10", "streak30", "totaldays10"} {
		if !slices.Contains(first.Unlocked, id) {
			t.Errorf("%s not unlocked", id)
		}
	}

	// Stats regress; nothing is removed and nothing is new.
	second := progression.EvaluateBadges(catalog, domain.BadgeStats{}, first.Unlocked)
	if !slices.Equal(second.Unlocked, first.Unlocked) {
		t.Errorf("unlocked set changed: %v -> %v", first.Unlocked, second.Unlocked)
	}
	if len(second.Newly) != 0 {
		t.Errorf("newly = %v, want none", second.Newly)
	}
}

func TestBadges_PreservesUnknownIDs(t *testing.T) {
	got := progression.EvaluateBadges(progression.Badges(smallTable), domain.BadgeStats{}, []string{"legacy-badge"})
	if !slices.Contains(got.Unlocked, "legacy-badge") {
		t.Error("unknown previously unlocked id dropped")
	}
}

func TestTotalFocusDaysAndSplit(t *testing.T) {
	logs := map[string]int64{"2025-07-01": 60, "2025-07-02": 0, "2025-07-03": 5}
	if got := progression.TotalFocusDays(logs); got != 2 {
		t.Errorf("TotalFocusDays = %d, want 2", got)
	}

	catalog := progression.Badges(smallTable)
	got, locked := progression.SplitBadges(catalog, []string{"streak10", "totaltime10"})
	if len(got) != 2 || len(locked) != len(catalog)-2 {
		t.Errorf("split = %d/%d", len(got), len(locked))
	}
	if got[0].ID != "totaltime10" {
		t.Errorf("split keeps catalog order, got %s first", got[0].ID)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Leaderboard Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestRank_Alone(t *testing.T) {
	s := progression.Rank(domain.LeaderboardEntry{UserID: "me", TotalFocusTime: 10}, nil)
	if s.Rank != 1 || s.OutperformPercent != 100 || !s.Leading || s.Message != progression.LeadingMessage {
		t.Errorf("standing = %+v", s)
	}
}

func TestRank_Distinct(t *testing.T) {
	me := domain.LeaderboardEntry{UserID: "me", DisplayName: "me", TotalFocusTime: 5400}
	friends := []domain.LeaderboardEntry{
		{UserID: "a", DisplayName: "ana", TotalFocusTime: 9000},
		{UserID: "b", DisplayName: "ben", TotalFocusTime: 100},
	}

	board := progression.SortedLeaderboard(me, friends)
	order := []string{board[0].UserID, board[1].UserID, board[2].UserID}
	if !slices.Equal(order, []string{"a", "me", "b"}) {
		t.Fatalf("order = %v", order)
	}
	for i, e := range board {
		if e.Rank != i+1 {
			t.Errorf("%s rank %d at position %d", e.UserID, e.Rank, i)
		}
	}

	s := progression.Rank(me, friends)
	if s.Rank != 2 || s.Entries != 3 {
		t.Errorf("rank = %d of %d", s.Rank, s.Entries)
	}
	if s.OutperformPercent != 50 {
		t.Errorf("outperform = %d, want 50", s.OutperformPercent)
	}
	if s.Gap != 3600 || s.Ahead == nil || s.Ahead.UserID != "a" {
		t.Errorf("gap = %d ahead = %+v", s.Gap, s.Ahead)
	}
	if s.Message != "Catch ana by clocking 1h more" {
		t.Errorf("message = %q", s.Message)
	}

	last := progression.Rank(domain.LeaderboardEntry{UserID: "me", TotalFocusTime: 0}, friends)
	if last.Rank != 3 || last.OutperformPercent != 0 {
		t.Errorf("last place = %+v", last)
	}
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	me := domain.LeaderboardEntry{UserID: "me", TotalFocusTime: 100}
	friends := []domain.LeaderboardEntry{
		{UserID: "x", TotalFocusTime: 100},
		{UserID: "y", TotalFocusTime: 100},
	}
	board := progression.SortedLeaderboard(me, friends)
	order := []string{board[0].UserID, board[1].UserID, board[2].UserID}
	if !slices.Equal(order, []string{"x", "y", "me"}) {
		t.Errorf("tie order = %v, want friends first then current user", order)
	}
	if s := progression.StandingOf(board, "me"); s.Gap != 0 || s.Rank != 3 {
		t.Errorf("tied standing = %+v", s)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Daily Stats Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestDailyStats(t *testing.T) {
	if got := progression.DailyStatsOf(nil); got != (domain.DailyStats{}) {
		t.Errorf("empty = %+v", got)
	}

	one := progression.DailyStatsOf(map[string]int64{"2025-07-01": 1200})
	if one.Average != 1200 || one.Longest != 1200 || one.NumDays != 1 {
		t.Errorf("single = %+v", one)
	}

	many := progression.DailyStatsOf(map[string]int64{"a": 100, "b": 300, "c": 200})
	if many.Average != 200 || many.Longest != 300 || many.NumDays != 3 {
		t.Errorf("many = %+v", many)
	}
}

func TestWeeklyTrend(t *testing.T) {
	logs := map[string]int64{
		"2025-06-29": 6000, // previous Sunday, excluded
		"2025-06-30": 1500, // Monday
		"2025-07-02": 95,   // Wednesday: 1.58 -> 1.6
		"2025-07-06": 60,   // Sunday
	}
	got := progression.WeeklyTrend(logs, "2025-07-03")
	want := [7]float64{25, 0, 1.6, 0, 0, 0, 1}
	if got != want {
		t.Errorf("trend = %v, want %v", got, want)
	}

	if empty := progression.WeeklyTrend(nil, "2025-07-03"); empty != ([7]float64{}) {
		t.Errorf("empty trend = %v", empty)
	}
}

func TestMarkedDates(t *testing.T) {
	got := progression.MarkedDates(map[string]int64{"2025-07-02": 5, "2025-07-01": 9, "2025-07-03": 0})
	if !slices.Equal(got, []string{"2025-07-01", "2025-07-02"}) {
		t.Errorf("marked = %v", got)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// End-to-End Scenario
// ═══════════════════════════════════════════════════════════════════════════

func TestFirstSession_Scenario(t *testing.T) {
	c := progression.DefaultCatalog()
	today := progression.Day("2025-07-10")

	session := progression.AggregateSession(0, map[string]int64{}, 1500, today)
	streak := progression.NextStreak("", 0, today)
	state := c.Classify(session.UpdatedTotal)

	if session.UpdatedTotal != 1500 || session.UpdatedLogs["2025-07-10"] != 1500 {
		t.Errorf("session = %+v", session)
	}
	if streak.Streak != 1 {
		t.Errorf("streak = %d", streak.Streak)
	}
	if state.Era != domain.EraAncient || state.Level != 0 || state.Current != 1500 {
		t.Errorf("state = %+v", state)
	}
}

// Package progression is the focus progression engine: pure functions that
// turn cumulative focus seconds and the per-day log into era/level state,
// stage progress, visible scene assets, streaks, badges, leaderboard
// standing and daily statistics.
//
// Nothing here performs I/O or keeps mutable state; callers pass the latest
// profile snapshot and an explicit "today".
package progression

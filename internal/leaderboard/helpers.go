package leaderboard

import ws "github.com/gokatarajesh/brainwave/pkg/http/ws"

func toWSEntries(entries []Entry) []ws.LeaderboardEntry {
	result := make([]ws.LeaderboardEntry, len(entries))
	for i, e := range entries {
		result[i] = ws.LeaderboardEntry{
			Rank:       i + 1,
			PlayerName: e.PlayerName,
			Score:      e.Score,
			Games:      e.Games,
			Accuracy:   e.Accuracy,
		}
	}
	return result
}

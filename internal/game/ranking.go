package game

import (
	"sort"

	"github.com/manhtruong03/real-time-quiz-sub000/internal/domain"
)

// rerankLocked recomputes every player's rank: score descending, then lower
// cumulative reaction time (faster players win ties), then nickname.
// Kicked players keep their last rank and do not displace active ones.
func (s *Session) rerankLocked() {
	ranked := make([]*domain.Player, 0, len(s.players))
	for _, p := range s.players {
		if p.PlayerStatus == domain.PlayerKicked {
			continue
		}
		ranked = append(ranked, p)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalScore != ranked[j].TotalScore {
			return ranked[i].TotalScore > ranked[j].TotalScore
		}
		if ranked[i].TotalReactionTimeMs != ranked[j].TotalReactionTimeMs {
			return ranked[i].TotalReactionTimeMs < ranked[j].TotalReactionTimeMs
		}
		return ranked[i].Nickname < ranked[j].Nickname
	})

	for i, p := range ranked {
		p.Rank = i + 1
	}
}

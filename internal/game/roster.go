package game

import (
	"time"

	"github.com/manhtruong03/real-time-quiz-sub000/internal/domain"
)

// Join registers a new player or refreshes a reconnecting one. The upsert is
// idempotent: a rejoining client gets its nickname, avatar and connection
// state refreshed while score, streaks and answer history stay untouched.
func (s *Session) Join(clientID, nickname string, avatarID *int, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.StatusEnded {
		return domain.ErrSessionEnded
	}

	if p, ok := s.players[clientID]; ok {
		if p.PlayerStatus == domain.PlayerKicked {
			return domain.ErrPlayerKicked
		}
		p.Nickname = nickname
		if avatarID != nil {
			p.AvatarID = avatarID
		}
		p.IsConnected = true
		p.PlayerStatus = domain.PlayerPlaying
		p.LastActivityAt = ts
		s.broadcastLocked()
		return nil
	}

	if s.status != domain.StatusLobby && !s.opts.AllowLateJoin {
		return domain.ErrLateJoinDisabled
	}

	s.players[clientID] = &domain.Player{
		ClientID:       clientID,
		Nickname:       nickname,
		AvatarID:       avatarID,
		IsConnected:    true,
		PlayerStatus:   domain.PlayerPlaying,
		JoinedAt:       ts,
		LastActivityAt: ts,
		JoinSlideIndex: s.currentIndex,
	}
	s.broadcastLocked()
	return nil
}

// SetConnection flips a player's connection flag. Disconnecting keeps all
// history; reconnecting restores PLAYING.
func (s *Session) SetConnection(clientID string, connected bool, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[clientID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	if p.PlayerStatus == domain.PlayerKicked {
		return domain.ErrRejected
	}

	p.IsConnected = connected
	if connected {
		p.PlayerStatus = domain.PlayerPlaying
	} else {
		p.PlayerStatus = domain.PlayerDisconnected
	}
	p.LastActivityAt = ts
	s.broadcastLocked()
	return nil
}

// Kick marks a player KICKED. Kicked players are excluded from timeout
// sweeps and active-roster counts and may not rejoin under the same id.
func (s *Session) Kick(clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[clientID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	p.PlayerStatus = domain.PlayerKicked
	p.IsConnected = false
	s.broadcastLocked()
	return nil
}

// Leave marks a player as having left voluntarily. History is kept for
// final reports.
func (s *Session) Leave(clientID string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[clientID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	if p.PlayerStatus == domain.PlayerKicked {
		return domain.ErrRejected
	}
	p.PlayerStatus = domain.PlayerLeft
	p.IsConnected = false
	p.LastActivityAt = ts
	s.broadcastLocked()
	return nil
}

// SetAvatar updates a player's avatar.
func (s *Session) SetAvatar(clientID string, avatarID int, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[clientID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	p.AvatarID = &avatarID
	p.LastActivityAt = ts
	s.broadcastLocked()
	return nil
}

// ActivePlayerCount counts connected players still in the game.
func (s *Session) ActivePlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activePlayersLocked()
}

func (s *Session) activePlayersLocked() int {
	n := 0
	for _, p := range s.players {
		if p.IsConnected && p.PlayerStatus == domain.PlayerPlaying {
			n++
		}
	}
	return n
}

package player

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"space-mining-server/internal/faction"
	"space-mining-server/internal/resources"
	"space-mining-server/internal/shared/database"
	"space-mining-server/internal/shared/errors"
)

type Store interface {
	GetPlayerCount(ctx context.Context) (int, error)
	GetAllPlayers(ctx context.Context) ([]Player, error)
	GetPlayerByID(ctx context.Context, id int, tx *database.Tx) (*Player, error)
	GetPlayerByUsername(ctx context.Context, username string, tx *database.Tx) (*Player, error)
	CreatePlayer(ctx context.Context, username string, f faction.Faction, role PlayerRole, starting resources.Resources, tx *database.Tx) (*Player, error)
}

type Service struct {
	repo     Store
	factions faction.Table
	starting resources.Resources
	logger   *slog.Logger
}

func NewService(repo Store, factions faction.Table, starting resources.Resources, logger *slog.Logger) *Service {
	logger.Debug("Initializing player service")

	return &Service{
		repo:     repo,
		factions: factions,
		starting: starting,
		logger:   logger,
	}
}

func (s *Service) GetPlayerCount(ctx context.Context) (int, error) {
	return s.repo.GetPlayerCount(ctx)
}

func (s *Service) GetAllPlayers(ctx context.Context) ([]Summary, error) {
	players, err := s.repo.GetAllPlayers(ctx)
	if err != nil {
		return nil, errors.WrapInternal("failed to list players", err)
	}

	summaries := make([]Summary, 0, len(players))
	for _, p := range players {
		summaries = append(summaries, Summary{ID: p.ID, Username: p.Username, Faction: p.Faction, CreatedAt: p.CreatedAt})
	}
	return summaries, nil
}

func (s *Service) GetPlayerByID(ctx context.Context, id int) (*Player, error) {
	p, err := s.repo.GetPlayerByID(ctx, id, nil)
	if err != nil {
		return nil, errors.WrapInternal("failed to get player", err)
	}
	if p == nil {
		return nil, errors.NotFoundf("player %d not found", id)
	}
	return p, nil
}

// Register creates a player with the starting balance
func (s *Service) Register(ctx context.Context, username, factionName string, role PlayerRole) (*Player, error) {
	logger := s.logger.With("component", "player_service", "operation", "register", "username", username)

	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return nil, errInvalidUsername()
	}

	f, err := faction.Parse(factionName)
	if err != nil {
		return nil, errors.WrapValidation("faction must be one of EU, CHINA, USA, JAPAN", err)
	}
	if !role.IsValid() {
		role = PlayerRoleUser
	}

	existing, err := s.repo.GetPlayerByUsername(ctx, username, nil)
	if err != nil {
		return nil, errors.WrapInternal("failed to check username", err)
	}
	if existing != nil {
		return nil, errUsernameTaken(username)
	}

	p, err := s.repo.CreatePlayer(ctx, username, f, role, s.starting, nil)
	if err != nil {
		if errors.IsGameRule(err) {
			return nil, err
		}
		return nil, errors.WrapInternal("failed to create player", err)
	}

	logger.Info("Player registered", "player_id", p.ID, "faction", p.Faction)
	return p, nil
}

// GetProfile returns the player with their balance and faction modifiers
func (s *Service) GetProfile(ctx context.Context, playerID int) (*Profile, error) {
	p, err := s.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return &Profile{
		Player:    p,
		Resources: p.Resources,
		Modifiers: s.factions.Lookup(p.Faction),
	}, nil
}

package player

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"club-pos/internal/models"

	"github.com/google/uuid"
)

var (
	ErrNameRequired  = errors.New("player name is required")
	ErrPhoneRequired = errors.New("phone number is required")
)

type PlayerDBLayer interface {
	CreatePlayer(player models.Player) error
	GetPlayerByID(id string) (*models.Player, error)
	GetPlayerByPhone(phone string) (*models.Player, error)
	GetPlayerByName(name string) (*models.Player, error)
	ListPlayers() ([]models.Player, error)
	UpdatePlayer(player models.Player) error
	DeletePlayer(id string) error
	TouchActivity(id string, at time.Time) error
}

type PlayerService struct {
	DB PlayerDBLayer
}

func NewPlayerService(db PlayerDBLayer) *PlayerService {
	return &PlayerService{DB: db}
}

func (s *PlayerService) Register(req models.PlayerRequest) (*models.Player, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(req.Phone) == "" {
		return nil, ErrPhoneRequired
	}

	now := time.Now()
	player := models.Player{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		Email:        req.Email,
		Notes:        req.Notes,
		CreatedAt:    now.UnixMilli(),
		LastActivity: now.UnixMilli(),
	}
	if err := s.DB.CreatePlayer(player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *PlayerService) GetPlayer(id string) (*models.Player, error) {
	player, err := s.DB.GetPlayerByID(id)
	if err != nil {
		return nil, fmt.Errorf("player %s not found: %w", id, err)
	}
	return player, nil
}

func (s *PlayerService) ListPlayers() ([]models.Player, error) {
	return s.DB.ListPlayers()
}

func (s *PlayerService) UpdatePlayer(id string, req models.PlayerRequest) (*models.Player, error) {
	player, err := s.DB.GetPlayerByID(id)
	if err != nil {
		return nil, fmt.Errorf("player %s not found: %w", id, err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(req.Phone) == "" {
		return nil, ErrPhoneRequired
	}

	player.Name = strings.TrimSpace(req.Name)
	player.Phone = strings.TrimSpace(req.Phone)
	player.Email = req.Email
	player.Notes = req.Notes
	if err := s.DB.UpdatePlayer(*player); err != nil {
		return nil, err
	}
	return player, nil
}

func (s *PlayerService) DeletePlayer(id string) error {
	if _, err := s.DB.GetPlayerByID(id); err != nil {
		return fmt.Errorf("player %s not found: %w", id, err)
	}
	return s.DB.DeletePlayer(id)
}

// EnsurePlayer resolves a session's player to a directory entry, creating
// one when the name and phone are new. Matching prefers phone since names
// collide at the front desk all the time.
func (s *PlayerService) EnsurePlayer(name, phone string) (*models.Player, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)

	if phone != "" {
		if player, err := s.DB.GetPlayerByPhone(phone); err == nil {
			s.DB.TouchActivity(player.ID, time.Now())
			return player, nil
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	if name != "" {
		if player, err := s.DB.GetPlayerByName(name); err == nil {
			s.DB.TouchActivity(player.ID, time.Now())
			return player, nil
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	if name == "" || phone == "" {
		// Walk-ins without a phone never enter the directory.
		return nil, nil
	}

	now := time.Now()
	player := models.Player{
		ID:           uuid.NewString(),
		Name:         name,
		Phone:        phone,
		CreatedAt:    now.UnixMilli(),
		LastActivity: now.UnixMilli(),
	}
	if err := s.DB.CreatePlayer(player); err != nil {
		return nil, err
	}
	return &player, nil
}

// RecordActivity bumps last_activity for the player behind a phone number,
// if the directory knows them.
func (s *PlayerService) RecordActivity(phone string) {
	if strings.TrimSpace(phone) == "" {
		return
	}
	player, err := s.DB.GetPlayerByPhone(strings.TrimSpace(phone))
	if err != nil {
		return
	}
	s.DB.TouchActivity(player.ID, time.Now())
}

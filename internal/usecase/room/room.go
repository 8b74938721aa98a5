package usecase_room

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"github.com/vibevortex/core/internal/model"
)

var (
	ErrCodeConflict     = errors.New("code conflict")
	ErrRoomsUnavailable = errors.New("no available room codes")
	ErrInternal         = errors.New("internal error")
	ErrResourceNotFound = errors.New("no such resource")
	ErrAlreadyInRoom    = errors.New("already in an active room")
	ErrNotInRoom        = errors.New("not in any active room")
	ErrNotHost          = errors.New("not the room host")
	ErrHostCannotLeave  = errors.New("host cannot leave, only deactivate")
)

//go:generate mockery --name=RoomRepository --output=./mocks/repository --outpkg=repository --filename=repository.go
type RoomRepository interface {
	Create(ctx context.Context, room model.Room) error
	IsActiveCode(ctx context.Context, code string) (bool, error)
	HostID(ctx context.Context, code string) (int64, error)
	Players(ctx context.Context, code string) ([]int64, error)
	SetPlayers(ctx context.Context, code string, players []int64) error
	Deactivate(ctx context.Context, code string) error
	SaveConfiguration(ctx context.Context, code string, cfg model.GameConfig) error
	Preferences(ctx context.Context, code string) (model.GameConfig, error)
	ActiveRoomFor(ctx context.Context, userID int64) (model.CurrentRoom, error)
}

type Usecase struct {
	RoomRepository RoomRepository

	// Draw-and-check attempts before giving up on a free code. Codes are
	// only unique among active rooms, so collisions stay rare.
	codeAttempts int
}

func New(roomRepository RoomRepository, codeAttempts int) *Usecase {
	if codeAttempts <= 0 {
		codeAttempts = 5
	}

	return &Usecase{
		RoomRepository: roomRepository,
		codeAttempts:   codeAttempts,
	}
}

// NewRoom creates an active, not-started room hosted by hostID. The host is
// the first entry of the durable player list. A user hosting or playing in
// another active room may not open a second one.
func (u *Usecase) NewRoom(ctx context.Context, hostID int64) (string, error) {
	current, err := u.RoomRepository.ActiveRoomFor(ctx, hostID)
	if err != nil {
		return "", errors.Join(ErrInternal, err)
	}
	if current.InRoom {
		return "", ErrAlreadyInRoom
	}

	for attempts := u.codeAttempts; attempts > 0; attempts-- {
		code := u.buildRoomCode()

		taken, err := u.RoomRepository.IsActiveCode(ctx, code)
		if err != nil {
			return "", errors.Join(ErrInternal, err)
		}
		if taken {
			continue
		}

		err = u.RoomRepository.Create(ctx, model.Room{
			RoomCode: code,
			HostID:   hostID,
			Players:  []int64{hostID},
			Active:   true,
		})
		if err != nil {
			if errors.Is(err, ErrCodeConflict) {
				continue
			}
			return "", errors.Join(ErrInternal, err)
		}
		return code, nil
	}

	return "", ErrRoomsUnavailable
}

func (u *Usecase) buildRoomCode() string {
	var builder strings.Builder
	builder.Grow(model.RoomCodeLength)

	// Leading digit is never zero, codes read as 7-digit numbers.
	builder.WriteByte(byte(rand.Intn(9)) + '1')
	for i := 0; i < model.RoomCodeLength-1; i++ {
		builder.WriteByte(byte(rand.Intn(10)) + '0')
	}

	return builder.String()
}

// Join appends userID to the durable player list of an active room.
// Joining the room the user is already in is a no-op success; being in a
// different active room is rejected (one active room per user).
func (u *Usecase) Join(ctx context.Context, code string, userID int64) error {
	current, err := u.RoomRepository.ActiveRoomFor(ctx, userID)
	if err != nil {
		return errors.Join(ErrInternal, err)
	}
	if current.InRoom && current.RoomCode != code {
		return ErrAlreadyInRoom
	}

	active, err := u.RoomRepository.IsActiveCode(ctx, code)
	if err != nil {
		return errors.Join(ErrInternal, err)
	}
	if !active {
		return ErrResourceNotFound
	}

	players, err := u.RoomRepository.Players(ctx, code)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return ErrResourceNotFound
		}
		return errors.Join(ErrInternal, err)
	}
	for _, id := range players {
		if id == userID {
			return nil
		}
	}

	players = append(players, userID)
	if err := u.RoomRepository.SetPlayers(ctx, code, players); err != nil {
		return errors.Join(ErrInternal, err)
	}
	return nil
}

// Leave removes userID from its current room's durable player list.
// The host may not leave this way; the room must be deactivated instead.
func (u *Usecase) Leave(ctx context.Context, userID int64) error {
	current, err := u.RoomRepository.ActiveRoomFor(ctx, userID)
	if err != nil {
		return errors.Join(ErrInternal, err)
	}
	if !current.InRoom {
		return ErrNotInRoom
	}
	if current.IsHost {
		return ErrHostCannotLeave
	}

	players, err := u.RoomRepository.Players(ctx, current.RoomCode)
	if err != nil {
		return errors.Join(ErrInternal, err)
	}

	kept := players[:0]
	for _, id := range players {
		if id != userID {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(players) {
		return ErrNotInRoom
	}

	if err := u.RoomRepository.SetPlayers(ctx, current.RoomCode, kept); err != nil {
		return errors.Join(ErrInternal, err)
	}
	return nil
}

// Deactivate flips a room inactive, for good. Host only.
func (u *Usecase) Deactivate(ctx context.Context, code string, userID int64) error {
	hostID, err := u.RoomRepository.HostID(ctx, code)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return ErrResourceNotFound
		}
		return errors.Join(ErrInternal, err)
	}
	if hostID != userID {
		return ErrNotHost
	}

	if err := u.RoomRepository.Deactivate(ctx, code); err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return ErrResourceNotFound
		}
		return errors.Join(ErrInternal, err)
	}
	return nil
}

// SaveConfiguration stores the game setup and flips started=true. The
// started flag transitions true exactly once, at this checkpoint.
func (u *Usecase) SaveConfiguration(ctx context.Context, code string, cfg model.GameConfig) error {
	if err := u.RoomRepository.SaveConfiguration(ctx, code, cfg); err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return ErrResourceNotFound
		}
		return errors.Join(ErrInternal, err)
	}
	return nil
}

func (u *Usecase) Preferences(ctx context.Context, code string) (model.GameConfig, error) {
	cfg, err := u.RoomRepository.Preferences(ctx, code)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return model.GameConfig{}, ErrResourceNotFound
		}
		return model.GameConfig{}, errors.Join(ErrInternal, err)
	}
	return cfg, nil
}

func (u *Usecase) Players(ctx context.Context, code string) ([]int64, error) {
	players, err := u.RoomRepository.Players(ctx, code)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, errors.Join(ErrInternal, err)
	}
	return players, nil
}

func (u *Usecase) IsHost(ctx context.Context, code string, userID int64) (bool, error) {
	hostID, err := u.RoomRepository.HostID(ctx, code)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return false, ErrResourceNotFound
		}
		return false, errors.Join(ErrInternal, err)
	}
	return hostID == userID, nil
}

func (u *Usecase) CurrentRoom(ctx context.Context, userID int64) (model.CurrentRoom, error) {
	current, err := u.RoomRepository.ActiveRoomFor(ctx, userID)
	if err != nil {
		return model.CurrentRoom{}, errors.Join(ErrInternal, err)
	}
	return current, nil
}

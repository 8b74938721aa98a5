package usecase_user

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vibevortex/core/internal/model"
)

var (
	ErrInternal          = errors.New("internal error")
	ErrResourceNotFound  = errors.New("no such resource")
	ErrUsernameTaken     = errors.New("username already exists")
	ErrEmailTaken        = errors.New("email already exists")
	ErrWrongCredentials  = errors.New("wrong credentials")
	ErrSelfDemotion      = errors.New("cannot remove own admin access")
	ErrSelfDeletion      = errors.New("cannot delete own account")
	ErrLastAdmin         = errors.New("at least one admin account is required")
	ErrWeakPassword      = errors.New("password must be at least 8 characters")
	ErrTooManyLobbyLines = errors.New("too many lobby lines")
	ErrNoLobbyLines      = errors.New("no lobby lines configured")
)

const (
	bcryptCost        = 10
	minPasswordLength = 8
	maxLobbyLines     = 1000

	lobbyLinesKey = "lobby_lines"
)

//go:generate mockery --name=UserRepository --output=./mocks/repository --outpkg=repository --filename=repository.go
type UserRepository interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user model.User) (int64, error)
	ByEmail(ctx context.Context, email string) (model.User, error)
	ByID(ctx context.Context, id int64) (model.User, error)
	InfoByIDs(ctx context.Context, ids []int64) ([]model.UserInfo, error)
	List(ctx context.Context, search string, limit, offset int) ([]model.UserInfo, int, error)
	Stats(ctx context.Context) (model.UserStats, error)
	UpdateSpotifyID(ctx context.Context, id int64, spotifyID string) error
	UpdateLastLoginIP(ctx context.Context, id int64, ip string) error
	SetAdmin(ctx context.Context, id int64, admin bool) error
	CountAdmins(ctx context.Context) (int, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
}

//go:generate mockery --name=SettingsRepository --output=./mocks/settings --outpkg=settings --filename=settings.go
type SettingsRepository interface {
	Get(ctx context.Context, key string, out any) error
	Set(ctx context.Context, key string, value any) error
}

// AvatarStore persists uploaded profile pictures and hands back a public link.
type AvatarStore interface {
	Save(ctx context.Context, avatar *model.Avatar) (string, error)
}

type Usecase struct {
	UserRepository     UserRepository
	SettingsRepository SettingsRepository
	AvatarStore        AvatarStore
}

func New(
	userRepository UserRepository,
	settingsRepository SettingsRepository,
	avatarStore AvatarStore,
) *Usecase {
	return &Usecase{
		UserRepository:     userRepository,
		SettingsRepository: settingsRepository,
		AvatarStore:        avatarStore,
	}
}

// Register creates an account. The profile picture is optional; when given
// it is pushed to the avatar store and its link recorded on the user row.
func (u *Usecase) Register(ctx context.Context, username, email, password string, picture []byte, pictureName string) error {
	taken, err := u.UserRepository.UsernameExists(ctx, username)
	if err != nil {
		return errors.Join(ErrInternal, err)
	}
	if taken {
		return ErrUsernameTaken
	}

	taken, err = u.UserRepository.EmailExists(ctx, email)
	if err != nil {
		return errors.Join(ErrInternal, err)
	}
	if taken {
		return ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return errors.Join(ErrInternal, err)
	}

	var profileImage string
	if len(picture) > 0 && u.AvatarStore != nil {
		link, err := u.AvatarStore.Save(ctx, &model.Avatar{
			Filename: buildAvatarName(pictureName),
			Content:  picture,
			Username: username,
		})
		if err != nil {
			return errors.Join(ErrInternal, err)
		}
		profileImage = link
	}

	_, err = u.UserRepository.Create(ctx, model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		ProfileImage: profileImage,
	})
	if err != nil {
		return errors.Join(ErrInternal, err)
	}
	return nil
}

func buildAvatarName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("%d-%d%s", time.Now().UnixMilli(), rand.Intn(1_000_000_000), ext)
}

// Login verifies credentials and records the caller's IP.
func (u *Usecase) Login(ctx context.Context, email, password, ip string) (model.User, error) {
	user, err := u.UserRepository.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return model.User{}, ErrWrongCredentials
		}
		return model.User{}, errors.Join(ErrInternal, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return model.User{}, ErrWrongCredentials
	}

	if ip != "" {
		if err := u.UserRepository.UpdateLastLoginIP(ctx, user.ID, ip); err != nil {
			return model.User{}, errors.Join(ErrInternal, err)
		}
	}
	return user, nil
}

func (u *Usecase) ByID(ctx context.Context, id int64) (model.User, error) {
	user, err := u.UserRepository.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return model.User{}, ErrResourceNotFound
		}
		return model.User{}, errors.Join(ErrInternal, err)
	}
	return user, nil
}

func (u *Usecase) UsersInfo(ctx context.Context, ids []int64) ([]model.UserInfo, error) {
	info, err := u.UserRepository.InfoByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Join(ErrInternal, err)
	}
	return info, nil
}

func (u *Usecase) IsAdmin(ctx context.Context, id int64) (bool, error) {
	user, err := u.ByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.Admin, nil
}

func (u *Usecase) LinkSpotify(ctx context.Context, id int64, spotifyID string) error {
	if err := u.UserRepository.UpdateSpotifyID(ctx, id, spotifyID); err != nil {
		return errors.Join(ErrInternal, err)
	}
	return nil
}

func (u *Usecase) ListUsers(ctx context.Context, search string, limit, offset int) ([]model.UserInfo, int, model.UserStats, error) {
	if limit < 5 {
		limit = 5
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	users, total, err := u.UserRepository.List(ctx, search, limit, offset)
	if err != nil {
		return nil, 0, model.UserStats{}, errors.Join(ErrInternal, err)
	}
	stats, err := u.UserRepository.Stats(ctx)
	if err != nil {
		return nil, 0, model.UserStats{}, errors.Join(ErrInternal, err)
	}
	return users, total, stats, nil
}

// SetAdmin toggles the admin flag. An admin may not demote themselves, and
// the last admin account may not be demoted.
func (u *Usecase) SetAdmin(ctx context.Context, actorID, targetID int64, admin bool) error {
	if actorID == targetID && !admin {
		return ErrSelfDemotion
	}

	target, err := u.UserRepository.ByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return ErrResourceNotFound
		}
		return errors.Join(ErrInternal, err)
	}

	if target.Admin && !admin {
		count, err := u.UserRepository.CountAdmins(ctx)
		if err != nil {
			return errors.Join(ErrInternal, err)
		}
		if count <= 1 {
			return ErrLastAdmin
		}
	}

	if err := u.UserRepository.SetAdmin(ctx, targetID, admin); err != nil {
		return errors.Join(ErrInternal, err)
	}
	return nil
}

func (u *Usecase) ResetPassword(ctx context.Context, targetID int64, password string) error {
	if len(strings.TrimSpace(password)) < minPasswordLength {
		return ErrWeakPassword
	}

	if _, err := u.UserRepository.ByID(ctx, targetID); err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return ErrResourceNotFound
		}
		return errors.Join(ErrInternal, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return errors.Join(ErrInternal, err)
	}
	if err := u.UserRepository.UpdatePassword(ctx, targetID, string(hash)); err != nil {
		return errors.Join(ErrInternal, err)
	}
	return nil
}

// DeleteUser removes an account. Self-deletion and removing the last admin
// are rejected.
func (u *Usecase) DeleteUser(ctx context.Context, actorID, targetID int64) error {
	if actorID == targetID {
		return ErrSelfDeletion
	}

	target, err := u.UserRepository.ByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return ErrResourceNotFound
		}
		return errors.Join(ErrInternal, err)
	}

	if target.Admin {
		count, err := u.UserRepository.CountAdmins(ctx)
		if err != nil {
			return errors.Join(ErrInternal, err)
		}
		if count <= 1 {
			return ErrLastAdmin
		}
	}

	if err := u.UserRepository.Delete(ctx, targetID); err != nil {
		return errors.Join(ErrInternal, err)
	}
	return nil
}

// EnsureAdminAccount creates the bootstrap admin from config when missing.
func (u *Usecase) EnsureAdminAccount(ctx context.Context, username, email, password string) error {
	if username == "" || email == "" || password == "" {
		return nil
	}

	exists, err := u.UserRepository.EmailExists(ctx, email)
	if err != nil {
		return errors.Join(ErrInternal, err)
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return errors.Join(ErrInternal, err)
	}
	id, err := u.UserRepository.Create(ctx, model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return errors.Join(ErrInternal, err)
	}
	if err := u.UserRepository.SetAdmin(ctx, id, true); err != nil {
		return errors.Join(ErrInternal, err)
	}
	return nil
}

func (u *Usecase) LobbyLines(ctx context.Context) ([]string, error) {
	var lines []string
	if err := u.SettingsRepository.Get(ctx, lobbyLinesKey, &lines); err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return []string{}, nil
		}
		return nil, errors.Join(ErrInternal, err)
	}
	return lines, nil
}

func (u *Usecase) SetLobbyLines(ctx context.Context, lines []string) error {
	if len(lines) > maxLobbyLines {
		return ErrTooManyLobbyLines
	}
	if err := u.SettingsRepository.Set(ctx, lobbyLinesKey, lines); err != nil {
		return errors.Join(ErrInternal, err)
	}
	return nil
}

func (u *Usecase) RandomLobbyLine(ctx context.Context) (string, error) {
	lines, err := u.LobbyLines(ctx)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", ErrNoLobbyLines
	}
	return lines[rand.Intn(len(lines))], nil
}

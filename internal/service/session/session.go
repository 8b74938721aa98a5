package service_session

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInternal  = errors.New("internal error")
	ErrNoSession = errors.New("no such session")
)

// Session is the per-login state kept server side, keyed by an opaque
// cookie token. Spotify tokens live here, never in the database.
type Session struct {
	UserID       int64  `json:"user_id"`
	SpotifyID    string `json:"spotify_id,omitempty"`
	Premium      bool   `json:"premium,omitempty"`
	HostRoom     string `json:"host_room,omitempty"`
	Admin        bool   `json:"admin,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type SessionCache interface {
	Set(key string, value string, ttl time.Duration) error
	Get(key string) (string, error)
	Del(key string) error
}

type Service struct {
	cache SessionCache
	ttl   time.Duration
}

func New(cache SessionCache, ttl *time.Duration) *Service {
	if ttl == nil {
		ttl = func() *time.Duration {
			defaultTTL := 24 * time.Hour
			return &defaultTTL
		}()
	}

	return &Service{
		cache: cache,
		ttl:   *ttl,
	}
}

func (s *Service) Create(sess Session) (string, error) {
	token := uuid.New().String()
	if err := s.save(token, sess); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Service) Get(token string) (Session, error) {
	raw, err := s.cache.Get(token)
	if err != nil {
		return Session{}, errors.Join(ErrInternal, err)
	}
	if raw == "" {
		return Session{}, ErrNoSession
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return Session{}, errors.Join(ErrInternal, err)
	}
	return sess, nil
}

// Update mutates the stored session in place. The TTL restarts on every
// update, which keeps active players logged in.
func (s *Service) Update(token string, mutate func(*Session)) error {
	sess, err := s.Get(token)
	if err != nil {
		return err
	}
	mutate(&sess)
	return s.save(token, sess)
}

func (s *Service) Destroy(token string) error {
	if err := s.cache.Del(token); err != nil {
		return errors.Join(ErrInternal, err)
	}
	return nil
}

func (s *Service) save(token string, sess Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return errors.Join(ErrInternal, err)
	}
	if err := s.cache.Set(token, string(raw), s.ttl); err != nil {
		return errors.Join(ErrInternal, err)
	}
	return nil
}

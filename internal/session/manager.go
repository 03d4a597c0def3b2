package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	"github.com/example/rolo/internal/models"
)

var ErrUnauthenticated = errors.New("unauthenticated")

type claims struct {
	UserID string `json:"uid"`
	jwt.StandardClaims
}

// Manager issues bearer tokens for stored sessions. A token is only honored
// while its session exists, so Logout revokes it before expiry.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(store Store, secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{store: store, secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *Manager) Login(ctx context.Context, s models.Session) (string, error) {
	id := uuid.NewString()
	if err := m.store.Put(ctx, id, s, m.ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		UserID: s.UserID,
		StandardClaims: jwt.StandardClaims{
			Id:        id,
			Subject:   s.UserID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(m.ttl).Unix(),
		},
	})
	return token.SignedString(m.secret)
}

func (m *Manager) Lookup(ctx context.Context, token string) (models.Session, error) {
	c, err := m.parse(token)
	if err != nil {
		return models.Session{}, err
	}
	s, err := m.store.Get(ctx, c.Id)
	if errors.Is(err, errNoSession) {
		return models.Session{}, ErrUnauthenticated
	}
	if err != nil {
		return models.Session{}, err
	}
	if s.UserID != c.UserID {
		return models.Session{}, ErrUnauthenticated
	}
	return s, nil
}

func (m *Manager) Logout(ctx context.Context, token string) (models.Session, error) {
	s, err := m.Lookup(ctx, token)
	if err != nil {
		return models.Session{}, err
	}
	c, _ := m.parse(token)
	return s, m.store.Delete(ctx, c.Id)
}

func (m *Manager) parse(token string) (*claims, error) {
	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid || c.Id == "" {
		return nil, ErrUnauthenticated
	}
	return c, nil
}

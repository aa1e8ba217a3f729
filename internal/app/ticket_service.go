package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

var (
	ErrTicketsDisabled = errors.New("seat tickets are not configured")
	ErrInvalidTicket   = errors.New("invalid seat ticket")
	ErrTicketMismatch  = errors.New("seat ticket was issued for another match")
)

// TicketService signs short-lived seat tickets that bind a user to a match.
type TicketService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTicketService(secret string, ttl time.Duration) *TicketService {
	return &TicketService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Enabled reports whether a signing secret is configured.
func (s *TicketService) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

// Issue returns a ticket for user to join match.
func (s *TicketService) Issue(user, match string) (string, error) {
	if !s.Enabled() {
		return "", ErrTicketsDisabled
	}
	if user == "" || match == "" {
		return "", fmt.Errorf("user and match are required")
	}

	claims := jwt.MapClaims{
		"sub": user,
		"mid": match,
		"exp": s.now().Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks ticket against match and returns the user it was issued to.
func (s *TicketService) Verify(ticket, match string) (string, error) {
	if !s.Enabled() {
		return "", ErrTicketsDisabled
	}

	token, err := jwt.Parse(ticket, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidTicket
	}
	user, _ := claims["sub"].(string)
	mid, _ := claims["mid"].(string)
	if user == "" {
		return "", ErrInvalidTicket
	}
	if mid != match {
		return "", ErrTicketMismatch
	}
	return user, nil
}

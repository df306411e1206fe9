package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

const handshakeKeyInfo = "handshake"

// Handshake is what a download token binds together.
type Handshake struct {
	ConnID    string
	Requester string
	File      string
	Source    string
	Seq       int64
}

type HandshakeClaims struct {
	jwt.RegisteredClaims
	ConnID    string `json:"cid"`
	Requester string `json:"req"`
	File      string `json:"file"`
	Source    string `json:"src"`
}

// HandshakeIssuer signs download handshake tokens with an HKDF key derived
// from the server secret.
type HandshakeIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewHandshakeIssuer(secret []byte, ttl time.Duration) (*HandshakeIssuer, error) {
	key, err := cryptox.DeriveKey(secret, handshakeKeyInfo, 32)
	if err != nil {
		return nil, fmt.Errorf("derive handshake key: %w", err)
	}
	return &HandshakeIssuer{key: key, ttl: ttl, now: time.Now}, nil
}

func (i *HandshakeIssuer) Issue(h Handshake) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, HandshakeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        strconv.FormatInt(h.Seq, 10),
			Subject:   h.Requester,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		ConnID:    h.ConnID,
		Requester: h.Requester,
		File:      h.File,
		Source:    h.Source,
	})
	return token.SignedString(i.key)
}

// Verify checks signature and expiry and returns the bound handshake.
func (i *HandshakeIssuer) Verify(tokenString string) (Handshake, error) {
	claims := &HandshakeClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Handshake{}, mapJWTError(err)
	}
	if !token.Valid {
		return Handshake{}, common.ErrInvalidToken
	}

	seq, err := strconv.ParseInt(claims.ID, 10, 64)
	if err != nil {
		return Handshake{}, errors.Join(common.ErrInvalidToken, err)
	}
	return Handshake{
		ConnID:    claims.ConnID,
		Requester: claims.Requester,
		File:      claims.File,
		Source:    claims.Source,
		Seq:       seq,
	}, nil
}

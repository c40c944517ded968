// README: Local identity provider; HS256 bearer tokens and bcrypt-hashed users in Postgres.
package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"bitebay/internal/types"
)

const uniqueViolation = "23505"

type localClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTProvider signs and verifies HS256 tokens and keeps users in the auth_users table.
type JWTProvider struct {
	secret []byte
	db     *pgxpool.Pool
}

func NewJWTProvider(secret string, db *pgxpool.Pool) *JWTProvider {
	return &JWTProvider{secret: []byte(secret), db: db}
}

func (p *JWTProvider) VerifyIDToken(_ context.Context, idToken string) (*VerifiedToken, error) {
	claims := &localClaims{}
	tok, err := jwt.ParseWithClaims(idToken, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &VerifiedToken{
		UID:    claims.Subject,
		Email:  claims.Email,
		Claims: map[string]interface{}{"email": claims.Email},
	}, nil
}

// SignToken mints a token for uid valid for ttl.
func (p *JWTProvider) SignToken(uid, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := localClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

func (p *JWTProvider) CreateUser(ctx context.Context, u NewUser) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	id := types.NewID()
	_, err = p.db.Exec(ctx, `
		INSERT INTO auth_users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())`,
		string(id), strings.ToLower(u.Email), string(hash),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", ErrEmailExists
		}
		return "", fmt.Errorf("insert auth user: %w", err)
	}
	return string(id), nil
}

func (p *JWTProvider) DeleteUser(ctx context.Context, uid string) error {
	_, err := p.db.Exec(ctx, `DELETE FROM auth_users WHERE id = $1`, uid)
	return err
}

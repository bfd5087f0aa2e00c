package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/enertrack-console/internal/errors"
	"github.com/jrsteele09/enertrack-console/token/refresh"
	"github.com/jrsteele09/enertrack-console/users"
)

const defaultAccessTokenExpiry = 5 * time.Minute

// AccessClaims is the payload of an EnerTrack access token.
type AccessClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Pays     string `json:"pays,omitempty"`
	jwt.RegisteredClaims
}

// Pair is the body of the login and refresh responses. Refresh is left empty
// on a refresh without rotation.
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// Issuer authenticates users and issues, verifies and revokes their tokens.
type Issuer struct {
	signer    Signer
	users     users.UserRepo
	refresh   *refresh.Manager
	denylist  Denylist
	accessTTL time.Duration
	rotate    bool
	nowFunc   func() time.Time
}

type IssuerOption func(*Issuer)

func WithAccessTokenExpiry(d time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.accessTTL = d
	}
}

// WithRefreshRotation makes every refresh hand out a new refresh token.
func WithRefreshRotation(rotate bool) IssuerOption {
	return func(i *Issuer) {
		i.rotate = rotate
	}
}

func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

func WithDenylist(d Denylist) IssuerOption {
	return func(i *Issuer) {
		i.denylist = d
	}
}

func NewIssuer(signer Signer, userRepo users.UserRepo, refreshManager *refresh.Manager, options ...IssuerOption) *Issuer {
	i := &Issuer{
		signer:    signer,
		users:     userRepo,
		refresh:   refreshManager,
		denylist:  NewMemoryDenylist(),
		accessTTL: defaultAccessTokenExpiry,
		nowFunc:   time.Now,
	}
	for _, opt := range options {
		opt(i)
	}
	return i
}

// Login checks the credentials and issues a fresh token pair.
func (i *Issuer) Login(username, password string) (Pair, error) {
	user, err := i.users.GetByUsername(strings.TrimSpace(username))
	if err != nil || user == nil || user.Blocked || !user.CheckPassword(password) {
		return Pair{}, errors.ErrInvalidCredentials
	}

	access, err := i.CreateAccessToken(user)
	if err != nil {
		return Pair{}, errors.Wrapf(err, "[Issuer Login] CreateAccessToken")
	}
	refreshToken, err := i.refresh.Create(user.ID)
	if err != nil {
		return Pair{}, errors.Wrapf(err, "[Issuer Login] refresh.Create")
	}
	_ = i.users.SetLastLogin(user.Username)

	return Pair{Access: access, Refresh: refreshToken}, nil
}

// Refresh exchanges a live refresh token for a new access token, rotating the
// refresh token when rotation is enabled.
func (i *Issuer) Refresh(refreshToken string) (Pair, error) {
	rt, err := i.refresh.Validate(refreshToken)
	if err != nil {
		return Pair{}, err
	}

	user, err := i.users.GetByID(rt.UserID)
	if err != nil || user == nil || user.Blocked {
		_ = i.refresh.Delete(refreshToken)
		return Pair{}, errors.ErrInvalidRefreshToken
	}

	access, err := i.CreateAccessToken(user)
	if err != nil {
		return Pair{}, errors.Wrapf(err, "[Issuer Refresh] CreateAccessToken")
	}

	pair := Pair{Access: access}
	if i.rotate {
		if pair.Refresh, err = i.refresh.Create(user.ID); err != nil {
			return Pair{}, errors.Wrapf(err, "[Issuer Refresh] refresh.Create")
		}
	}
	return pair, nil
}

// CreateAccessToken signs an access token for user.
func (i *Issuer) CreateAccessToken(user *users.User) (string, error) {
	now := i.nowFunc()
	claims := AccessClaims{
		Username: user.Username,
		Role:     string(user.Role),
		Pays:     user.Country,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
			ID:        uuid.New().String(),
		},
	}
	return i.signer.Sign(claims)
}

// Verify checks the signature, expiry and revocation of an access token.
func (i *Issuer) Verify(rawToken string) (*AccessClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.ErrInvalidToken
	}

	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, i.signer.VerificationKey,
		jwt.WithValidMethods([]string{i.signer.SigningMethod().Alg()}),
		jwt.WithTimeFunc(i.nowFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", errors.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}
	if claims.ID != "" && i.denylist.IsDenied(claims.ID, i.nowFunc()) {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "token %s revoked", claims.ID)
	}
	return claims, nil
}

// Revoke denies a valid access token until it expires.
func (i *Issuer) Revoke(rawToken string) error {
	claims, err := i.Verify(rawToken)
	if err != nil {
		return err
	}
	if claims.ID == "" {
		return errors.Wrapf(errors.ErrInvalidToken, "token has no jti")
	}
	i.denylist.Prune(i.nowFunc())
	i.denylist.Deny(claims.ID, claims.ExpiresAt.Time)
	return nil
}

// RevokeRefreshToken makes a refresh token unusable.
func (i *Issuer) RevokeRefreshToken(refreshToken string) {
	_ = i.refresh.Delete(refreshToken)
}

package jwt

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/qy-8/gamechat-app/pkg/errcode"
)

// ExternalClaims represents claims issued by an external auth system.
// The session issuer lives outside this service; we only verify the
// signature and lift the user identity into our own Claims shape.
type ExternalClaims struct {
	UserId string `json:"userId"`
	jwt.RegisteredClaims
}

// ParseExternalToken parses a token issued by the external auth collaborator
// and converts it to the gateway's Claims.
func ParseExternalToken(tokenString, secret string, defaultPlatformId int) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ExternalClaims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, errcode.ErrTokenInvalid.Wrap(err)
	}

	extClaims, ok := token.Claims.(*ExternalClaims)
	if !ok || !token.Valid {
		return nil, errcode.ErrTokenInvalid
	}
	if extClaims.UserId == "" {
		return nil, errcode.ErrTokenInvalid
	}

	return &Claims{
		UserId:           extClaims.UserId,
		PlatformId:       defaultPlatformId,
		RegisteredClaims: extClaims.RegisteredClaims,
	}, nil
}

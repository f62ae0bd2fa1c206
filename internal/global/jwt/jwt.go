package jwt

import (
	"activity-assistant/config"
	"time"

	"github.com/golang-jwt/jwt"
)

// Claims 令牌载荷，UserID 由外部登录服务签发
type Claims struct {
	UserID string `json:"user_id"`
	jwt.StandardClaims
}

func CreateToken(userID string) (string, error) {
	cfg := config.Get().JWT
	expire := cfg.AccessExpire
	if expire <= 0 {
		expire = 7 * 24 * 3600
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(time.Duration(expire) * time.Second).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.AccessSecret))
}

// ParseToken 校验签名和过期时间
func ParseToken(token string) (*Claims, bool) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(config.Get().JWT.AccessSecret), nil
	})
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return nil, false
	}
	return claims, true
}

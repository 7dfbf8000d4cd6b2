// Package token は署名付きセッショントークンの発行と検証を提供する。
// トークンはサーバー側に保存しないステートレスなベアラ資格情報で、
// アイデンティティとロールのクレームを含む。
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/model"
)

// Claims はセッショントークンに埋め込む認証情報。
type Claims struct {
	UserID   string     `json:"uid"`
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Service はHMAC-SHA256で署名したJWTを発行・検証する。
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService はServiceを生成する。ttlはトークンの絶対有効期間を指定する。
func NewService(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue はクレームを埋め込んだ署名済みトークンを発行する。
// 有効期限は発行時刻からttl経過後の絶対時刻。
func (s *Service) Issue(userID, username string, role model.Role) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify はトークンを検証し、有効な場合のみクレームを返す。
// 署名不一致・形式不正・期限切れはすべてnilを返し、原因を区別しない。
// 呼び出し側は「セッションなし」として扱うこと。
func (s *Service) Verify(tokenStr string) *Claims {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil
	}

	return claims
}

// TTL はトークンの有効期間を返す。Cookieの有効期間設定に使用する。
func (s *Service) TTL() time.Duration {
	return s.ttl
}

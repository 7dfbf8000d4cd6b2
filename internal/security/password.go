// Package security は認証に関わる暗号処理を提供する。
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argon2idのパラメータ。PHC文字列に埋め込まれるため、
// 変更しても既存ハッシュの検証には影響しない。
const (
	hashMemoryKB    uint32 = 64 * 1024
	hashTime        uint32 = 1
	hashParallelism uint8  = 4
	hashSaltLength         = 16
	hashKeyLength   uint32 = 32
)

// PasswordHasher はargon2idによるパスワードのハッシュ化と検証を提供する。
// ハッシュはPHC形式（$argon2id$v=19$m=...,t=...,p=...$salt$hash）で保存する。
type PasswordHasher struct{}

// NewPasswordHasher はPasswordHasherを生成する。
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{}
}

// Hash はパスワードをソルト付きでハッシュ化しPHC形式で返す。
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}

	salt := make([]byte, hashSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, hashTime, hashMemoryKB, hashParallelism, hashKeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		hashMemoryKB,
		hashTime,
		hashParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify はパスワードとPHC形式のハッシュを照合する。
// ハッシュの形式不正を含め、照合できない場合はすべてfalseを返す（fail closed）。
// 比較には定数時間比較を使用する。
func (h *PasswordHasher) Verify(password, encodedHash string) bool {
	memory, time, parallelism, salt, hash, err := parsePHC(encodedHash)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, parallelism, uint32(len(hash)))
	return subtle.ConstantTimeCompare(computed, hash) == 1
}

// parsePHC はPHC形式のハッシュ文字列を分解する。
func parsePHC(encodedHash string) (memory, time uint32, parallelism uint8, salt, hash []byte, err error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, errors.New("invalid hash format")
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || version != argon2.Version {
		return 0, 0, 0, nil, nil, errors.New("unsupported argon2 version")
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &parallelism); err != nil {
		return 0, 0, 0, nil, nil, errors.New("invalid hash parameters")
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, errors.New("invalid salt encoding")
	}

	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return 0, 0, 0, nil, nil, errors.New("invalid hash encoding")
	}

	return memory, time, parallelism, salt, hash, nil
}

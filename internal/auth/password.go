package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argon2Params はargon2idのコストパラメータ。
// OWASPのパスワード保存ガイドラインに準拠した値を既定とする。
type argon2Params struct {
	memory      uint32 // メモリコスト（KiB）
	iterations  uint32 // 反復回数
	parallelism uint8  // 並列度
	saltLength  uint32 // ソルト長（バイト）
	keyLength   uint32 // 導出鍵長（バイト）
}

// defaultArgon2Params は既定のコストパラメータを返す。
func defaultArgon2Params() argon2Params {
	return argon2Params{
		memory:      64 * 1024, // 64 MB
		iterations:  3,
		parallelism: 2,
		saltLength:  16,
		keyLength:   32,
	}
}

// HashPassword はパスワードをargon2idでハッシュ化し、
// パラメータ・ソルト・ハッシュを自己記述形式でエンコードした文字列を返す。
func HashPassword(password string) (string, error) {
	p := defaultArgon2Params()

	salt := make([]byte, p.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, p.iterations, p.memory, p.parallelism, p.keyLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.memory, p.iterations, p.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	return encoded, nil
}

// VerifyPassword はパスワードとエンコード済みハッシュを定数時間比較で照合する。
// ハッシュ形式が不正な場合はエラーを返す。
func VerifyPassword(password, encodedHash string) (bool, error) {
	p, salt, hash, err := decodeArgon2Hash(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, p.iterations, p.memory, p.parallelism, p.keyLength)

	return subtle.ConstantTimeCompare(hash, computed) == 1, nil
}

// decodeArgon2Hash はエンコード済みハッシュ文字列からパラメータ・ソルト・ハッシュを復元する。
func decodeArgon2Hash(encodedHash string) (argon2Params, []byte, []byte, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return argon2Params{}, nil, nil, fmt.Errorf("invalid argon2 hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return argon2Params{}, nil, nil, fmt.Errorf("invalid argon2 version: %w", err)
	}
	if version != argon2.Version {
		return argon2Params{}, nil, nil, fmt.Errorf("unsupported argon2 version: %d", version)
	}

	p := argon2Params{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return argon2Params{}, nil, nil, fmt.Errorf("invalid argon2 params: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argon2Params{}, nil, nil, fmt.Errorf("invalid salt encoding: %w", err)
	}

	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return argon2Params{}, nil, nil, fmt.Errorf("invalid hash encoding: %w", err)
	}

	p.saltLength = uint32(len(salt))
	p.keyLength = uint32(len(hash))

	return p, salt, hash, nil
}

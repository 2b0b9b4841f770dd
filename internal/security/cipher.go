package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrDecryptionFailed は復号失敗を表す。
// IVと暗号文の不一致、鍵の不一致、暗号文の改ざんのいずれでも返る。
// 復号失敗を無視して不正な平文を返すことは決してない。
var ErrDecryptionFailed = errors.New("decryption failed")

// EncryptedSecret は暗号化されたシークレットとその復号に必要なIVの組を表す。
// 両フィールドは必ず同時に保存・更新される。
type EncryptedSecret struct {
	// IV は暗号化ごとに生成される96ビットのnonce（hex）。
	IV string
	// Ciphertext はAES-256-GCMの暗号文（認証タグ込み、hex）。
	Ciphertext string
}

// VaultCipher は保管シークレットの対称暗号化を提供する。
// 鍵は構築時に設定シークレットからSHA-256で1回だけ導出され、
// プロセス生存期間中は読み取り専用となる。並行アクセスに追加の同期は不要。
type VaultCipher struct {
	aead cipher.AEAD
}

// NewVaultCipher は設定されたシークレット素材から32バイト鍵を導出し、
// AES-256-GCMのVaultCipherを構築する。素材が空の場合はエラーを返す。
// 生の設定値をそのまま鍵として使用することはない。
func NewVaultCipher(secretMaterial string) (*VaultCipher, error) {
	if secretMaterial == "" {
		return nil, errors.New("encryption key material is required")
	}

	key := sha256.Sum256([]byte(secretMaterial))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}

	return &VaultCipher{aead: aead}, nil
}

// Encrypt は平文を暗号化する。
// 呼び出しごとに暗号学的乱数で新しいnonceを生成する。
// 同一鍵でのnonce再利用はGCMの安全性を破壊するため、nonceの使い回しは行わない。
func (c *VaultCipher) Encrypt(plaintext string) (*EncryptedSecret, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := c.aead.Seal(nil, nonce, []byte(plaintext), nil)

	return &EncryptedSecret{
		IV:         hex.EncodeToString(nonce),
		Ciphertext: hex.EncodeToString(ciphertext),
	}, nil
}

// Decrypt はIVと暗号文の組を復号する。
// hexの破損、nonce長の不正、認証タグの検証失敗はすべてErrDecryptionFailedとなる。
func (c *VaultCipher) Decrypt(iv, ciphertext string) (string, error) {
	nonce, err := hex.DecodeString(iv)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	if len(nonce) != c.aead.NonceSize() {
		return "", ErrDecryptionFailed
	}

	data, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	plaintext, err := c.aead.Open(nil, nonce, data, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}

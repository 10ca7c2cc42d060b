package builtin

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/kristofer/smog/pkg/value"
)

func (r *Registry) registerCrypto() {
	r.Register("crypto", r.namespace(map[string]*value.Function{
		"aesEncrypt":    r.fn("aesEncrypt", 2, r.builtinAESEncrypt),
		"aesDecrypt":    r.fn("aesDecrypt", 2, r.builtinAESDecrypt),
		"aesGenerateKey": r.fn("aesGenerateKey", 0, r.builtinAESGenerateKey),
		"sha256":        r.fn("sha256", 1, r.builtinSHA256),
		"sha512":        r.fn("sha512", 1, r.builtinSHA512),
		"md5":           r.fn("md5", 1, r.builtinMD5),
	}))
}

func strArg(args []value.Value, i int, name string) (string, error) {
	if i >= len(args) {
		return "", argError(name, "more arguments")
	}
	s, ok := args[i].(*value.Str)
	if !ok {
		return "", argError(name, "a Str argument")
	}
	return s.Value, nil
}

// aesEncrypt encrypts data using AES-256-CBC, grounded on the bootstrap
// primitives' aesEncrypt: a random IV is generated, PKCS#7 padding
// applied, and the IV prepended to the ciphertext before base64 encoding.
func (r *Registry) builtinAESEncrypt(this value.Value, args []value.Value) (value.Value, error) {
	data, err := strArg(args, 0, "aesEncrypt")
	if err != nil {
		return nil, err
	}
	key, err := strArg(args, 1, "aesEncrypt")
	if err != nil {
		return nil, err
	}
	keyBytes := []byte(key)
	if len(keyBytes) != 32 {
		return nil, errors.Errorf("AES key must be 32 bytes, got %d", len(keyBytes))
	}
	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, errors.Wrap(err, "failed to generate IV")
	}
	plaintext := []byte(data)
	padding := aes.BlockSize - (len(plaintext) % aes.BlockSize)
	padded := make([]byte, len(plaintext)+padding)
	copy(padded, plaintext)
	for i := len(plaintext); i < len(padded); i++ {
		padded[i] = byte(padding)
	}
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	result := append(iv, ciphertext...)
	return r.track(value.NewStr(base64.StdEncoding.EncodeToString(result))), nil
}

func (r *Registry) builtinAESDecrypt(this value.Value, args []value.Value) (value.Value, error) {
	data, err := strArg(args, 0, "aesDecrypt")
	if err != nil {
		return nil, err
	}
	key, err := strArg(args, 1, "aesDecrypt")
	if err != nil {
		return nil, err
	}
	keyBytes := []byte(key)
	if len(keyBytes) != 32 {
		return nil, errors.Errorf("AES key must be 32 bytes, got %d", len(keyBytes))
	}
	encrypted, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode base64")
	}
	if len(encrypted) < aes.BlockSize {
		return nil, errors.New("ciphertext too short")
	}
	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}
	iv := encrypted[:aes.BlockSize]
	ciphertext := encrypted[aes.BlockSize:]
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	padding := int(plaintext[len(plaintext)-1])
	if padding > len(plaintext) || padding > aes.BlockSize {
		return nil, errors.New("invalid padding")
	}
	plaintext = plaintext[:len(plaintext)-padding]
	return r.track(value.NewStr(string(plaintext))), nil
}

func (r *Registry) builtinAESGenerateKey(this value.Value, args []value.Value) (value.Value, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, errors.Wrap(err, "failed to generate key")
	}
	return r.track(value.NewStr(base64.StdEncoding.EncodeToString(key))), nil
}

func (r *Registry) builtinSHA256(this value.Value, args []value.Value) (value.Value, error) {
	data, err := strArg(args, 0, "sha256")
	if err != nil {
		return nil, err
	}
	hash := sha256.Sum256([]byte(data))
	return r.track(value.NewStr(fmt.Sprintf("%x", hash))), nil
}

func (r *Registry) builtinSHA512(this value.Value, args []value.Value) (value.Value, error) {
	data, err := strArg(args, 0, "sha512")
	if err != nil {
		return nil, err
	}
	hash := sha512.Sum512([]byte(data))
	return r.track(value.NewStr(fmt.Sprintf("%x", hash))), nil
}

func (r *Registry) builtinMD5(this value.Value, args []value.Value) (value.Value, error) {
	data, err := strArg(args, 0, "md5")
	if err != nil {
		return nil, err
	}
	hash := md5.Sum([]byte(data))
	return r.track(value.NewStr(fmt.Sprintf("%x", hash))), nil
}

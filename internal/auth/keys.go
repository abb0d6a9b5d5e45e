package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
)

const keyBits = 2048

// Keypair holds the signing keypair. The private half never leaves
// this process; the public half is served verbatim so third parties
// can verify tokens on their own.
type Keypair struct {
	Private   *rsa.PrivateKey
	Public    *rsa.PublicKey
	PublicPEM []byte
}

// LoadKeys reads privkey.pem/pubkey.pem from dir, generating and
// persisting a fresh pair on first run.
func LoadKeys(dir string) (*Keypair, error) {
	privPath := filepath.Join(dir, "privkey.pem")
	pubPath := filepath.Join(dir, "pubkey.pem")

	privPEM, err := os.ReadFile(privPath)
	if os.IsNotExist(err) {
		return generateKeys(dir, privPath, pubPath)
	}
	if err != nil {
		return nil, err
	}
	pubPEM, err := os.ReadFile(pubPath)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(privPEM)
	if block == nil {
		return nil, fmt.Errorf("invalid private key PEM in %v", privPath)
	}
	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing %v: %w", privPath, err)
	}
	return &Keypair{Private: priv, Public: &priv.PublicKey, PublicPEM: pubPEM}, nil
}

func generateKeys(dir, privPath, pubPath string) (*Keypair, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	priv, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, err
	}
	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	})
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubDER,
	})
	if err := os.WriteFile(privPath, privPEM, 0600); err != nil {
		return nil, err
	}
	if err := os.WriteFile(pubPath, pubPEM, 0644); err != nil {
		return nil, err
	}
	return &Keypair{Private: priv, Public: &priv.PublicKey, PublicPEM: pubPEM}, nil
}

// Package wallet derives a Cardano keypair from a BIP-39 seed phrase and
// produces CIP-8 signatures over arbitrary challenge messages. It is the
// credential provider for the login handshake: all key derivation and
// Ed25519 signing is delegated to cardano-go; this package only assembles
// the COSE envelope the gateway expects.
package wallet

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/echovl/cardano-go"
	"github.com/echovl/cardano-go/crypto"
	"github.com/tyler-smith/go-bip39"
)

// CIP-1852 derivation path constants: m/1852'/1815'/0'/chain/0.
const (
	hardened      = uint32(0x80000000)
	purposeIndex  = 1852 + hardened
	coinTypeIndex = 1815 + hardened
	accountIndex  = 0 + hardened
	externalChain = uint32(0)
	stakeChain    = uint32(2)
)

// ErrInvalidMnemonic is returned for seed phrases that fail the BIP-39
// wordlist or checksum validation.
var ErrInvalidMnemonic = errors.New("wallet: invalid mnemonic seed phrase")

// Wallet holds the first payment and stake keys of a Cardano wallet and the
// base address built from them. The seed phrase is not retained.
type Wallet struct {
	paymentKey crypto.XPrvKey
	stakeKey   crypto.XPrvKey
	address    cardano.Address
}

// FromMnemonic derives a wallet from a BIP-39 seed phrase using the
// CIP-1852 paths for the first address: m/1852'/1815'/0'/0/0 for payment
// and m/1852'/1815'/0'/2/0 for stake.
func FromMnemonic(mnemonic string, network cardano.Network) (*Wallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	entropy, err := bip39.EntropyFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("wallet: extracting entropy: %w", err)
	}

	rootKey := crypto.NewXPrvKeyFromEntropy(entropy, "")
	accountKey := rootKey.Derive(purposeIndex).Derive(coinTypeIndex).Derive(accountIndex)
	paymentKey := accountKey.Derive(externalChain).Derive(0)
	stakeKey := accountKey.Derive(stakeChain).Derive(0)

	paymentCred, err := cardano.NewKeyCredential(paymentKey.PubKey())
	if err != nil {
		return nil, fmt.Errorf("wallet: building payment credential: %w", err)
	}

	stakeCred, err := cardano.NewKeyCredential(stakeKey.PubKey())
	if err != nil {
		return nil, fmt.Errorf("wallet: building stake credential: %w", err)
	}

	addr, err := cardano.NewBaseAddress(network, paymentCred, stakeCred)
	if err != nil {
		return nil, fmt.Errorf("wallet: building base address: %w", err)
	}

	return &Wallet{
		paymentKey: paymentKey,
		stakeKey:   stakeKey,
		address:    addr,
	}, nil
}

// Address returns the identity presented to the gateway: the hex encoding
// of the raw base address bytes.
func (w *Wallet) Address() string {
	return hex.EncodeToString(w.address.Bytes())
}

// Bech32Address returns the human-readable form of the base address.
func (w *Wallet) Bech32Address() string {
	return w.address.Bech32()
}

// Sign produces a CIP-8 signature over message with the stake key.
// It returns the hex-encoded COSE_Sign1 envelope and the hex-encoded
// COSE_Key carrying the verification key, the two values the gateway's
// verify endpoint expects.
func (w *Wallet) Sign(message []byte) (signature, key string, err error) {
	sign1, err := buildCOSESign1(w.address.Bytes(), message, w.stakeKey)
	if err != nil {
		return "", "", err
	}

	coseKey, err := buildCOSEKey(w.stakeKey.PubKey())
	if err != nil {
		return "", "", err
	}

	return hex.EncodeToString(sign1), hex.EncodeToString(coseKey), nil
}

package wallet

import (
	"fmt"

	"github.com/echovl/cardano-go/crypto"
	"github.com/fxamacker/cbor/v2"
)

// COSE constants used by the CIP-8 message signing envelope.
const (
	coseHeaderAlg  = int64(1)
	coseAlgEdDSA   = int64(-8)
	coseKeyKty     = int64(1)
	coseKtyOKP     = int64(1)
	coseKeyAlg     = int64(3)
	coseKeyCrv     = int64(-1)
	coseCrvEd25519 = int64(6)
	coseKeyX       = int64(-2)
	coseSign1Tag   = uint64(18)
)

// addressHeaderLabel is the CIP-8 protected header carrying the signer's
// address bytes, so the verifier can tie the signature to a wallet.
const addressHeaderLabel = "address"

// encMode produces deterministic (canonically ordered) CBOR. The protected
// header is signed as serialized bytes, so the encoding must be stable.
var encMode, _ = cbor.CanonicalEncOptions().EncMode()

// buildCOSESign1 assembles a COSE_Sign1 envelope over payload, signed with
// the given extended private key. addressBytes is embedded in the protected
// headers per CIP-8.
func buildCOSESign1(addressBytes, payload []byte, key crypto.XPrvKey) ([]byte, error) {
	protected, err := encMode.Marshal(map[any]any{
		coseHeaderAlg:      coseAlgEdDSA,
		addressHeaderLabel: addressBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("wallet: encoding protected headers: %w", err)
	}

	// Sig_structure for a COSE_Sign1 with no external AAD.
	sigStructure, err := encMode.Marshal([]any{"Signature1", protected, []byte{}, payload})
	if err != nil {
		return nil, fmt.Errorf("wallet: encoding signature structure: %w", err)
	}

	sig := key.Sign(sigStructure)

	envelope := cbor.Tag{
		Number: coseSign1Tag,
		Content: []any{
			protected,
			map[any]any{"hashed": false},
			payload,
			sig,
		},
	}

	out, err := encMode.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("wallet: encoding COSE_Sign1: %w", err)
	}

	return out, nil
}

// buildCOSEKey encodes the Ed25519 verification key as a COSE_Key (OKP,
// EdDSA, Ed25519 curve) for the gateway's signature check.
func buildCOSEKey(pub crypto.PubKey) ([]byte, error) {
	out, err := encMode.Marshal(map[any]any{
		coseKeyKty: coseKtyOKP,
		coseKeyAlg: coseAlgEdDSA,
		coseKeyCrv: coseCrvEd25519,
		coseKeyX:   []byte(pub),
	})
	if err != nil {
		return nil, fmt.Errorf("wallet: encoding COSE_Key: %w", err)
	}

	return out, nil
}

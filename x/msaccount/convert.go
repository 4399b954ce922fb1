package msaccount

import (
	"crypto/sha512"
	"encoding/binary"

	"github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
)

// convertSignCodeV1 marks the first version of the conversion sign bytes
// layout.
var convertSignCodeV1 = []byte{0, 0xBE, 0xEF, 0}

// ConversionSignBytes returns the digest that the current key of an
// account must sign to authorize turning that account into a multisig
// account. Binding the chain ID, the account address, its current
// sequence number and the full owner schema makes the grant single use
// and non transferable.
func ConversionSignBytes(chainID string, account weave.Address, seq int64, owners []weave.Address, threshold uint32) ([]byte, error) {
	if !weave.IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInput, "chain id %q", chainID)
	}
	if err := account.Validate(); err != nil {
		return nil, errors.Wrap(err, "account")
	}
	if seq < 0 {
		return nil, errors.Wrap(errors.ErrInput, "negative sequence")
	}

	content := make([]byte, 0, 64+len(owners)*weave.AddressLength)
	content = append(content, convertSignCodeV1...)
	content = append(content, uint8(len(chainID)))
	content = append(content, chainID...)
	content = append(content, account...)

	var scratch [8]byte
	binary.BigEndian.PutUint64(scratch[:], uint64(seq))
	content = append(content, scratch[:]...)
	binary.BigEndian.PutUint32(scratch[:4], threshold)
	content = append(content, scratch[:4]...)
	binary.BigEndian.PutUint32(scratch[:4], uint32(len(owners)))
	content = append(content, scratch[:4]...)
	for _, o := range owners {
		content = append(content, o...)
	}

	digest := sha512.Sum512(content)
	return digest[:], nil
}

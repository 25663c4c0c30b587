package dlmm

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

func (c *Client) DeriveBinArray(lbPair solana.PublicKey, index int64) (solana.PublicKey, error) {
	idx := make([]byte, 8)
	binary.LittleEndian.PutUint64(idx, uint64(index))
	addr, _, err := solana.FindProgramAddress(
		[][]byte{
			[]byte("bin_array"),
			lbPair[:],
			idx,
		},
		c.programID,
	)
	return addr, err
}

func (c *Client) DeriveBitmapExtension(lbPair solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{
			[]byte("bitmap"),
			lbPair[:],
		},
		c.programID,
	)
	return addr, err
}

/*
DESCRIPTION
  rs.go implements a systematic Reed-Solomon erasure code over GF(2^8):
  encode computes parity shards from data shards via a Vandermonde
  generator matrix; Reconstruct recovers missing shards (identified by the
  caller, since PFT fragment loss is always an erasure — the missing
  fragment indices are known from the pseq/findex sequence, never silent
  corruption) by inverting the surviving rows of the same matrix.

  This is the code referenced by spec.md §4.D/§4.I's PFT fragmentation:
  chunk_len-byte fragments, 2*fec parity fragments per pseq, recoverable as
  long as at least dataShards of the n=dataShards+2*fec fragments arrive.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fec

import "fmt"

// Code is a configured Reed-Solomon erasure code for a fixed shard count.
type Code struct {
	dataShards   int
	parityShards int
	gen          [][]byte // (dataShards+parityShards) x dataShards generator matrix.
}

// New returns a Code for dataShards data shards and parityShards parity
// shards. dataShards+parityShards must not exceed 255 (GF(2^8)'s non-zero
// element count).
func New(dataShards, parityShards int) (*Code, error) {
	if dataShards <= 0 || parityShards < 0 {
		return nil, fmt.Errorf("fec: invalid shard counts %d/%d", dataShards, parityShards)
	}
	if dataShards+parityShards > fieldSize {
		return nil, fmt.Errorf("fec: %d total shards exceeds GF(2^8) capacity", dataShards+parityShards)
	}

	gen := vandermonde(dataShards+parityShards, dataShards)
	// Make the top dataShards rows the identity matrix (systematic code):
	// multiply by the inverse of the top square submatrix.
	top := gen[:dataShards]
	inv, err := invertMatrix(top)
	if err != nil {
		return nil, fmt.Errorf("fec: singular Vandermonde submatrix: %w", err)
	}
	gen = matMul(gen, inv)

	return &Code{dataShards: dataShards, parityShards: parityShards, gen: gen}, nil
}

// Encode fills shards[dataShards:] from shards[:dataShards]. All shards
// must be the same length and shards must have length dataShards+parityShards.
func (c *Code) Encode(shards [][]byte) error {
	if len(shards) != c.dataShards+c.parityShards {
		return fmt.Errorf("fec: Encode wants %d shards, got %d", c.dataShards+c.parityShards, len(shards))
	}
	size := shardSize(shards)
	for s := 0; s < c.parityShards; s++ {
		row := c.gen[c.dataShards+s]
		out := shards[c.dataShards+s]
		if out == nil {
			out = make([]byte, size)
			shards[c.dataShards+s] = out
		}
		for i := range out {
			var acc byte
			for j := 0; j < c.dataShards; j++ {
				acc ^= mul(row[j], shards[j][i])
			}
			out[i] = acc
		}
	}
	return nil
}

// Reconstruct fills in any missing data shards (present[i]==false) given at
// least dataShards shards with present[i]==true, any mix of data and
// parity. Parity shards are not reconstructed; callers needing them should
// re-run Encode afterwards.
func (c *Code) Reconstruct(shards [][]byte, present []bool) error {
	total := c.dataShards + c.parityShards
	if len(shards) != total || len(present) != total {
		return fmt.Errorf("fec: Reconstruct wants %d shards", total)
	}

	have := 0
	for _, ok := range present {
		if ok {
			have++
		}
	}
	if have < c.dataShards {
		return fmt.Errorf("fec: only %d of %d required shards present", have, c.dataShards)
	}

	size := shardSize(shards)

	// Build the square submatrix from dataShards present rows of gen, and
	// the corresponding right-hand-side shard bytes, then solve for the
	// original dataShards x size data matrix.
	sub := make([][]byte, c.dataShards)
	rowIdx := make([]int, 0, c.dataShards)
	for i := 0; i < total && len(rowIdx) < c.dataShards; i++ {
		if present[i] {
			sub[len(rowIdx)] = c.gen[i]
			rowIdx = append(rowIdx, i)
		}
	}

	subInv, err := invertMatrix(sub)
	if err != nil {
		return fmt.Errorf("fec: unrecoverable erasure pattern: %w", err)
	}

	recovered := make([][]byte, c.dataShards)
	for r := 0; r < c.dataShards; r++ {
		out := make([]byte, size)
		for i := range out {
			var acc byte
			for j := 0; j < c.dataShards; j++ {
				acc ^= mul(subInv[r][j], shards[rowIdx[j]][i])
			}
			out[i] = acc
		}
		recovered[r] = out
	}

	for i := 0; i < c.dataShards; i++ {
		if !present[i] {
			shards[i] = recovered[i]
			present[i] = true
		}
	}
	return nil
}

func shardSize(shards [][]byte) int {
	for _, s := range shards {
		if s != nil {
			return len(s)
		}
	}
	return 0
}

// vandermonde builds an rows x cols Vandermonde matrix over GF(2^8) using
// successive powers of distinct non-zero field elements 1..rows as the
// per-row base, guaranteeing any cols-of-rows submatrix is invertible.
func vandermonde(rows, cols int) [][]byte {
	m := make([][]byte, rows)
	for r := 0; r < rows; r++ {
		m[r] = make([]byte, cols)
		base := byte(r + 1)
		for c := 0; c < cols; c++ {
			m[r][c] = pow(base, c)
		}
	}
	return m
}

func matMul(a, b [][]byte) [][]byte {
	rows := len(a)
	inner := len(b)
	cols := len(b[0])
	out := make([][]byte, rows)
	for r := 0; r < rows; r++ {
		out[r] = make([]byte, cols)
		for c := 0; c < cols; c++ {
			var acc byte
			for k := 0; k < inner; k++ {
				acc ^= mul(a[r][k], b[k][c])
			}
			out[r][c] = acc
		}
	}
	return out
}

// invertMatrix inverts a square GF(2^8) matrix via Gauss-Jordan elimination
// with partial pivoting, returning an error if it is singular.
func invertMatrix(m [][]byte) ([][]byte, error) {
	n := len(m)
	aug := make([][]byte, n)
	for i := range aug {
		aug[i] = make([]byte, 2*n)
		copy(aug[i], m[i])
		aug[i][n+i] = 1
	}

	for col := 0; col < n; col++ {
		pivot := -1
		for r := col; r < n; r++ {
			if aug[r][col] != 0 {
				pivot = r
				break
			}
		}
		if pivot == -1 {
			return nil, fmt.Errorf("fec: singular matrix")
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		inverse := inv(aug[col][col])
		for c := 0; c < 2*n; c++ {
			aug[col][c] = mul(aug[col][c], inverse)
		}

		for r := 0; r < n; r++ {
			if r == col || aug[r][col] == 0 {
				continue
			}
			factor := aug[r][col]
			for c := 0; c < 2*n; c++ {
				aug[r][c] ^= mul(factor, aug[col][c])
			}
		}
	}

	out := make([][]byte, n)
	for i := range out {
		out[i] = append([]byte(nil), aug[i][n:]...)
	}
	return out, nil
}

package bitseq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMutableBits_Set(t *testing.T) {
	m, err := NewMutable("0b0000")
	require.NoError(t, err)

	require.NoError(t, m.Set(1, true))
	require.Equal(t, "0100", m.Bin())

	require.NoError(t, m.Set(-1, true))
	require.Equal(t, "0101", m.Bin())

	require.NoError(t, m.Set(1, false))
	require.Equal(t, "0001", m.Bin())

	require.Error(t, m.Set(4, true))

	t.Run("set bits", func(t *testing.T) {
		m, err := NewMutable("0b00000000")
		require.NoError(t, err)
		require.NoError(t, m.SetBits([]int{0, 3, 7}, true))
		require.Equal(t, "10010001", m.Bin())
	})

	t.Run("set range", func(t *testing.T) {
		m, err := NewMutable("0b00000000")
		require.NoError(t, err)
		require.NoError(t, m.SetRange(2, 6, true))
		require.Equal(t, "00111100", m.Bin())
	})

	t.Run("set all", func(t *testing.T) {
		m, err := NewMutable("0b0101")
		require.NoError(t, err)
		m.SetAll(true)
		require.Equal(t, "1111", m.Bin())
	})
}

func TestMutableBits_Invert(t *testing.T) {
	m, err := NewMutable("0b1100")
	require.NoError(t, err)

	require.NoError(t, m.Invert(0, 3))
	require.Equal(t, "0101", m.Bin())

	// No positions means all of them.
	require.NoError(t, m.Invert())
	require.Equal(t, "1010", m.Bin())

	require.NoError(t, m.InvertRange(1, 3))
	require.Equal(t, "1100", m.Bin())

	require.Error(t, m.Invert(4))
}

func TestMutableBits_Reverse(t *testing.T) {
	m, err := NewMutable("0b1101")
	require.NoError(t, err)
	m.Reverse()
	require.Equal(t, "1011", m.Bin())

	t.Run("range", func(t *testing.T) {
		m, err := NewMutable("0b100110")
		require.NoError(t, err)
		require.NoError(t, m.ReverseRange(1, 5))
		require.Equal(t, "111000", m.Bin())
	})
}

func TestMutableBits_Rotate(t *testing.T) {
	m, err := NewMutable("0b0001")
	require.NoError(t, err)

	require.NoError(t, m.RotateLeft(1))
	require.Equal(t, "0010", m.Bin())

	require.NoError(t, m.RotateRight(2))
	require.Equal(t, "1000", m.Bin())

	t.Run("full turn is the identity", func(t *testing.T) {
		m, err := NewMutable("0b1101")
		require.NoError(t, err)
		require.NoError(t, m.RotateLeft(4))
		require.Equal(t, "1101", m.Bin())
	})

	t.Run("range", func(t *testing.T) {
		m, err := NewMutable("0b11100001")
		require.NoError(t, err)
		require.NoError(t, m.RotateLeftRange(2, 0, 4))
		require.Equal(t, "10110001", m.Bin())

		require.NoError(t, m.RotateRightRange(2, 0, 4))
		require.Equal(t, "11100001", m.Bin())
	})

	t.Run("negative amount", func(t *testing.T) {
		require.Error(t, m.RotateLeft(-1))
		require.Error(t, m.RotateRight(-1))
	})
}

func TestMutableBits_ByteSwap(t *testing.T) {
	t.Run("whole range as one group", func(t *testing.T) {
		m, err := NewMutable("0x0102030405")
		require.NoError(t, err)

		n, err := m.ByteSwap(nil, 0, m.Len(), false)
		require.NoError(t, err)
		require.Equal(t, 1, n)
		require.Equal(t, []byte{0x05, 0x04, 0x03, 0x02, 0x01}, m.ToBytes())
	})

	t.Run("repeated pattern", func(t *testing.T) {
		m, err := NewMutable("0x0102030405")
		require.NoError(t, err)

		n, err := m.ByteSwap([]int{2}, 0, 32, true)
		require.NoError(t, err)
		require.Equal(t, 2, n)
		require.Equal(t, []byte{0x02, 0x01, 0x04, 0x03, 0x05}, m.ToBytes())
	})

	t.Run("single application", func(t *testing.T) {
		m, err := NewMutable("0x01020304")
		require.NoError(t, err)

		n, err := m.ByteSwap([]int{2}, 0, 32, false)
		require.NoError(t, err)
		require.Equal(t, 1, n)
		require.Equal(t, []byte{0x02, 0x01, 0x03, 0x04}, m.ToBytes())
	})

	t.Run("trailing bits untouched", func(t *testing.T) {
		m, err := NewMutable("0x12345")
		require.NoError(t, err)

		n, err := m.ByteSwap(nil, 0, 20, false)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		h, err := m.Hex()
		require.NoError(t, err)
		require.Equal(t, "34125", h)
	})

	t.Run("repeat stops at whole-byte prefix", func(t *testing.T) {
		m, err := NewMutable("0x1234567")
		require.NoError(t, err)

		n, err := m.ByteSwap([]int{2}, 0, 28, true)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		h, err := m.Hex()
		require.NoError(t, err)
		require.Equal(t, "3412567", h)
	})

	t.Run("range shorter than a byte", func(t *testing.T) {
		m, err := NewMutable("0b1011")
		require.NoError(t, err)

		n, err := m.ByteSwap(nil, 0, 4, false)
		require.NoError(t, err)
		require.Equal(t, 0, n)
		require.Equal(t, "1011", m.Bin())
	})

	t.Run("negative group", func(t *testing.T) {
		m, err := NewMutable("0x0102")
		require.NoError(t, err)
		_, err = m.ByteSwap([]int{-1}, 0, 16, false)
		require.Error(t, err)
	})
}

func TestMutableBits_InsertDelete(t *testing.T) {
	m, err := NewMutable("0b1100")
	require.NoError(t, err)

	require.NoError(t, m.Insert(2, MustNew("0b11")))
	require.Equal(t, "111100", m.Bin())

	require.NoError(t, m.Insert(6, MustNew("0b0")))
	require.Equal(t, "1111000", m.Bin())

	require.Error(t, m.Insert(8, MustNew("0b1")))

	require.NoError(t, m.Delete(2, 4))
	require.Equal(t, "11000", m.Bin())

	t.Run("overwrite", func(t *testing.T) {
		m, err := NewMutable("0x0000")
		require.NoError(t, err)

		require.NoError(t, m.Overwrite(4, MustNew("0xff")))
		require.Equal(t, []byte{0x0f, 0xf0}, m.ToBytes())

		require.Error(t, m.Overwrite(12, MustNew("0xff")))
	})

	t.Run("overwrite from own buffer", func(t *testing.T) {
		m, err := NewMutable("0xab00")
		require.NoError(t, err)

		require.NoError(t, m.Overwrite(8, m.Bits.MustSlice(0, 8)))
		require.Equal(t, []byte{0xab, 0xab}, m.ToBytes())
	})

	t.Run("set slice resizes", func(t *testing.T) {
		m, err := NewMutable("0b101")
		require.NoError(t, err)
		require.NoError(t, m.SetSlice(1, 2, MustNew("0b0000")))
		require.Equal(t, "100001", m.Bin())
	})

	t.Run("append and prepend", func(t *testing.T) {
		m, err := NewMutable("0b11")
		require.NoError(t, err)
		m.AppendBits(MustNew("0b00"))
		m.Prepend(MustNew("0b1"))
		require.Equal(t, "11100", m.Bin())
	})

	t.Run("append own bits", func(t *testing.T) {
		m, err := NewMutable("0b10")
		require.NoError(t, err)
		m.AppendBits(&m.Bits)
		require.Equal(t, "1010", m.Bin())
	})
}

func TestMutableBits_Immutable(t *testing.T) {
	m, err := NewMutable("0b0000")
	require.NoError(t, err)

	snap := m.Immutable()
	require.NoError(t, m.Set(0, true))

	require.Equal(t, "0000", snap.Bin())
	require.Equal(t, "1000", m.Bin())

	t.Run("mutable copy of immutable", func(t *testing.T) {
		b := MustNew("0b1111")
		m := b.Mutable()
		require.NoError(t, m.Set(0, false))
		require.Equal(t, "1111", b.Bin())
		require.Equal(t, "0111", m.Bin())
	})

	t.Run("slice of mutable is a snapshot", func(t *testing.T) {
		m, err := NewMutable("0b0101")
		require.NoError(t, err)
		s, err := m.Slice(0, 2)
		require.NoError(t, err)
		m.SetAll(true)
		require.Equal(t, "01", s.Bin())
	})
}

package layoutcache

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/starford/arbor/internal/models"
)

// Hash digests the (id, updatedAt) pairs of notes sorted by id. Input order
// does not matter.
func Hash(notes []models.Note) uint64 {
	idx := make([]int, len(notes))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return notes[idx[a]].ID < notes[idx[b]].ID
	})

	d := xxhash.New()
	var buf [8]byte
	for _, i := range idx {
		n := &notes[i]
		_, _ = d.WriteString(n.ID)
		_, _ = d.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], uint64(n.UpdatedAt.UnixNano()))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// FormatHash renders h as fixed-width hex.
func FormatHash(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

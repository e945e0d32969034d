package similarity

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Winnow reduces a hash sequence to its fingerprint set: slide a window of w
// hashes and keep each window's minimum, so every run of w consecutive
// hashes contributes at least one selected value. Ties go to the right-most
// occurrence (robust winnowing), and a minimum that is still inside the
// window is not reselected. Only the distinct hash values survive; positions
// are not retained.
//
// A sequence shorter than w yields its single global minimum; an empty
// sequence yields an empty set.
func Winnow(hashes []uint64, w int) *roaring64.Bitmap {
	fp := roaring64.New()
	if len(hashes) == 0 || w < 1 {
		return fp
	}

	if len(hashes) < w {
		min := hashes[0]
		for _, h := range hashes[1:] {
			if h <= min {
				min = h
			}
		}
		fp.Add(min)
		return fp
	}

	// Right-most minimum of the first window.
	minIdx := 0
	for j := 1; j < w; j++ {
		if hashes[j] <= hashes[minIdx] {
			minIdx = j
		}
	}
	fp.Add(hashes[minIdx])

	for i := 1; i+w <= len(hashes); i++ {
		enter := i + w - 1
		if minIdx < i {
			// The previous minimum slid out; rescan the window.
			minIdx = i
			for j := i + 1; j <= enter; j++ {
				if hashes[j] <= hashes[minIdx] {
					minIdx = j
				}
			}
			fp.Add(hashes[minIdx])
		} else if hashes[enter] <= hashes[minIdx] {
			minIdx = enter
			fp.Add(hashes[enter])
		}
	}

	return fp
}

package services

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	"chatcoin/domain/entities"
)

// EntryRange is a half-open interval [Start, End) of the ticket index space
// owned by one entry. Every issued ticket occupies exactly one unit of the
// space, so win probability is proportional to tickets held.
type EntryRange struct {
	EntryID int64
	Start   int64
	End     int64
}

// BuildEntryRanges assigns each entry a contiguous interval sized to its
// ticket count, in input order, with no gaps or overlaps. Returns the ranges
// and the total ticket count.
func BuildEntryRanges(entries []entities.EntrySnapshot) ([]EntryRange, int64, error) {
	ranges := make([]EntryRange, 0, len(entries))
	var cursor int64

	for _, entry := range entries {
		if entry.TicketCount <= 0 {
			return nil, 0, fmt.Errorf("entry %d has non-positive ticket count %d", entry.EntryID, entry.TicketCount)
		}
		ranges = append(ranges, EntryRange{
			EntryID: entry.EntryID,
			Start:   cursor,
			End:     cursor + entry.TicketCount,
		})
		cursor += entry.TicketCount
	}

	return ranges, cursor, nil
}

// DeterministicRandomInt derives an integer in [0, totalTickets) from a
// one-way hash of (seed, index). Identical inputs always yield identical
// outputs. Rejection sampling over the full 64-bit hash width avoids modulo
// bias when totalTickets is not a power of two.
func DeterministicRandomInt(seed string, index int, totalTickets int64) (int64, error) {
	if totalTickets <= 0 {
		return 0, fmt.Errorf("totalTickets must be positive, got %d", totalTickets)
	}

	n := uint64(totalTickets)
	// Largest multiple of n representable in 64 bits; hash values at or
	// above it would bias the low residues and are re-derived instead.
	cutoff := (math.MaxUint64 / n) * n

	for attempt := 0; ; attempt++ {
		digest := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%d\x00%d", seed, index, attempt)))
		value := binary.BigEndian.Uint64(digest[:8])
		if value < cutoff {
			return int64(value % n), nil
		}
	}
}

// FindEntryForIndex locates the range owning targetIndex via binary search
func FindEntryForIndex(ranges []EntryRange, targetIndex int64) (EntryRange, error) {
	lo, hi := 0, len(ranges)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		r := ranges[mid]
		switch {
		case targetIndex < r.Start:
			hi = mid - 1
		case targetIndex >= r.End:
			lo = mid + 1
		default:
			return r, nil
		}
	}
	return EntryRange{}, fmt.Errorf("index %d is outside the ticket space", targetIndex)
}

// ComputeWinners deterministically selects up to winnerCount winning entry
// IDs from a frozen snapshot. Under ExclusionSingleWin a winner's range is
// removed before the next ordinal, so the result is capped at the number of
// distinct entries.
func ComputeWinners(seed string, snapshot []entities.EntrySnapshot, winnerCount int, policy entities.ExclusionPolicy) ([]int64, error) {
	if winnerCount <= 0 {
		return nil, NewValidationError("winner count must be positive, got %d", winnerCount)
	}

	remaining := make([]entities.EntrySnapshot, len(snapshot))
	copy(remaining, snapshot)

	winners := make([]int64, 0, winnerCount)
	for ordinal := 0; ordinal < winnerCount; ordinal++ {
		ranges, totalTickets, err := BuildEntryRanges(remaining)
		if err != nil {
			return nil, err
		}
		if totalTickets == 0 {
			break
		}

		targetIndex, err := DeterministicRandomInt(seed, ordinal, totalTickets)
		if err != nil {
			return nil, err
		}

		winner, err := FindEntryForIndex(ranges, targetIndex)
		if err != nil {
			return nil, err
		}
		winners = append(winners, winner.EntryID)

		if policy == entities.ExclusionSingleWin {
			for i, entry := range remaining {
				if entry.EntryID == winner.EntryID {
					remaining = append(remaining[:i], remaining[i+1:]...)
					break
				}
			}
		}
	}

	return winners, nil
}

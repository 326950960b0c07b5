package chain

import (
	"sort"

	"github.com/banyancomputer/banyan-client/types"
)

// StatusCodec maps the raw status codes of one contract revision onto the
// canonical DealStatus. Revisions disagree on the numbering, so a codec is
// only meaningful together with the profile it belongs to.
type StatusCodec struct {
	version string
	table   map[uint64]types.DealStatus
}

func NewStatusCodec(version string, table map[uint64]types.DealStatus) StatusCodec {
	t := make(map[uint64]types.DealStatus, len(table))
	for raw, status := range table {
		t[raw] = status
	}
	return StatusCodec{version: version, table: t}
}

// Version names the contract revision the table was written for.
func (c StatusCodec) Version() string {
	return c.version
}

// Decode never fails: codes outside the table map to DealStatusNone.
func (c StatusCodec) Decode(raw uint64) types.DealStatus {
	if status, ok := c.table[raw]; ok {
		return status
	}
	return types.DealStatusNone
}

// Encode returns the smallest raw code that decodes to status.
func (c StatusCodec) Encode(status types.DealStatus) (uint64, bool) {
	codes := c.Codes()
	for _, raw := range codes {
		if c.table[raw] == status {
			return raw, true
		}
	}
	return 0, false
}

// Codes lists the known raw codes in ascending order.
func (c StatusCodec) Codes() []uint64 {
	codes := make([]uint64, 0, len(c.table))
	for raw := range c.table {
		codes = append(codes, raw)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

package retreat

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/binary"
	"io"
	"sync"

	"github.com/gambit-chess/engine/pkg/board"
)

// oracleKey packs (originFile, originRank, attackFile, attackRank) into the
// 12-bit integer spec.md §4.3.1 defines.
func oracleKey(origin, attackTarget board.Square) uint16 {
	of, or := uint16(origin.File()), uint16(origin.Rank())
	af, ar := uint16(attackTarget.File()), uint16(attackTarget.Rank())
	return (of << 9) | (or << 6) | (af << 3) | ar
}

var (
	oracleOnce  sync.Once
	oracleTable map[uint16][]Option
	oracleErr   error
)

// DecodeOracle forces the Knight Retreat Oracle table to decode now rather
// than lazily on first lookup. Spec.md §9 Design Notes: "the Knight Retreat
// Oracle cache is process-wide but write-once; initialize eagerly at
// startup to avoid lazy-init races." cmd/gambit-server calls this during
// boot.
func DecodeOracle() error {
	oracleOnce.Do(decodeOracleTable)
	return oracleErr
}

func decodeOracleTable() {
	raw, err := base64.StdEncoding.DecodeString(oracleTableB64)
	if err != nil {
		oracleErr = err
		return
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		oracleErr = err
		return
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		oracleErr = err
		return
	}

	table, err := parseOracleTable(data)
	if err != nil {
		oracleErr = err
		return
	}
	oracleTable = table
}

func parseOracleTable(data []byte) (map[uint16][]Option, error) {
	r := bytes.NewReader(data)

	var count uint16
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, err
	}

	table := make(map[uint16][]Option, count)
	for i := 0; i < int(count); i++ {
		var key uint16
		if err := binary.Read(r, binary.BigEndian, &key); err != nil {
			return nil, err
		}
		var n uint8
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return nil, err
		}
		opts := make([]Option, 0, n)
		for j := 0; j < int(n); j++ {
			var packed uint16
			if err := binary.Read(r, binary.BigEndian, &packed); err != nil {
				return nil, err
			}
			f := int((packed >> 6) & 0x7)
			rank := int((packed >> 3) & 0x7)
			cost := int(packed & 0x7)
			opts = append(opts, Option{Square: board.NewSquare(f, rank), Cost: cost})
		}
		table[key] = opts
	}
	return table, nil
}

// oracleLookup returns the oracle's retreat options for (origin,
// attackTarget), decoding the table on first use if DecodeOracle hasn't
// already been called.
func oracleLookup(origin, attackTarget board.Square) ([]Option, bool) {
	oracleOnce.Do(decodeOracleTable)
	if oracleErr != nil {
		return nil, false
	}
	opts, ok := oracleTable[oracleKey(origin, attackTarget)]
	if !ok {
		return nil, false
	}
	// The table already carries the origin at cost 0, since BFS starts
	// there with distance 0.
	out := make([]Option, len(opts))
	copy(out, opts)
	return out, true
}

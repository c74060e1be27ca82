package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"

	dErrors "carbonledger/pkg/domain-errors"
)

// LotID is the 128-bit identifier of a credit lot, assigned from a monotonic
// counter at issuance or split. Ascending LotID order is issuance order, which
// is what makes FIFO consumption deterministic.
//
// The zero value is not a valid id; the first assigned id is 1.
type LotID struct {
	Hi uint64
	Lo uint64
}

// Next returns the identifier following id.
func (id LotID) Next() LotID {
	lo := id.Lo + 1
	hi := id.Hi
	if lo == 0 {
		hi++
	}
	return LotID{Hi: hi, Lo: lo}
}

// Cmp compares two ids, returning -1, 0, or 1.
func (id LotID) Cmp(other LotID) int {
	switch {
	case id.Hi < other.Hi:
		return -1
	case id.Hi > other.Hi:
		return 1
	case id.Lo < other.Lo:
		return -1
	case id.Lo > other.Lo:
		return 1
	default:
		return 0
	}
}

// Less reports whether id was assigned before other.
func (id LotID) Less(other LotID) bool {
	return id.Cmp(other) < 0
}

func (id LotID) IsZero() bool {
	return id.Hi == 0 && id.Lo == 0
}

// String renders the id as a decimal integer. 128-bit values do not fit in a
// JSON number or an int64 column, so the string form is the interchange form.
func (id LotID) String() string {
	v := new(big.Int).SetUint64(id.Hi)
	v.Lsh(v, 64)
	v.Or(v, new(big.Int).SetUint64(id.Lo))
	return v.String()
}

// ParseLotID parses the decimal form produced by String.
//
// Errors: returns CodeInvalidInput for non-numeric, negative, or >128-bit
// input.
func ParseLotID(s string) (LotID, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 || v.BitLen() > 128 {
		return LotID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid lot id")
	}
	lo := new(big.Int).And(v, new(big.Int).SetUint64(^uint64(0)))
	hi := new(big.Int).Rsh(v, 64)
	return LotID{Hi: hi.Uint64(), Lo: lo.Uint64()}, nil
}

// Value implements driver.Valuer; lot ids persist as NUMERIC(39,0).
func (id LotID) Value() (driver.Value, error) {
	return id.String(), nil
}

// Scan implements sql.Scanner for NUMERIC columns.
func (id *LotID) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseLotID(v)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	case []byte:
		parsed, err := ParseLotID(string(v))
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	case int64:
		if v < 0 {
			return fmt.Errorf("negative lot id %d", v)
		}
		*id = LotID{Lo: uint64(v)}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into LotID", src)
	}
}

func (id LotID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *LotID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLotID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

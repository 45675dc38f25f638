package entity

import (
	"database/sql/driver"
	"fmt"
	"math/big"
)

// BigInt maps wei amounts onto NUMERIC columns.
type BigInt struct {
	*big.Int
}

func NewBigInt(v *big.Int) BigInt {
	return BigInt{new(big.Int).Set(v)}
}

func (b BigInt) Value() (driver.Value, error) {
	if b.Int == nil {
		return "0", nil
	}
	return b.Int.String(), nil
}

func (b *BigInt) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case int64:
		b.Int = big.NewInt(v)
		return nil
	case nil:
		b.Int = new(big.Int)
		return nil
	default:
		return fmt.Errorf("can't scan %T into BigInt", src)
	}
	res, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return fmt.Errorf("can't parse %q as a decimal integer", raw)
	}
	b.Int = res
	return nil
}

// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package abi

import (
	"encoding/json"
	"math/big"
	"reflect"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/swipegov/sxpgov/sxp"
)

var bigType = reflect.TypeOf((*big.Int)(nil))

// DecodeJSONInput converts JSON arguments into the values EncodeInput expects.
// Integers are given as decimal or 0x prefixed strings or JSON numbers, byte
// strings as 0x prefixed hex.
func (m *Method) DecodeJSONInput(args []json.RawMessage) ([]any, error) {
	if len(args) != len(m.method.Inputs) {
		return nil, errors.Errorf("%v: expected %d arguments, got %d", m.Name(), len(m.method.Inputs), len(args))
	}
	values := make([]any, len(args))
	for i, arg := range m.method.Inputs {
		v, err := fromJSON(arg.Type, args[i])
		if err != nil {
			return nil, errors.WithMessagef(err, "argument %d", i)
		}
		values[i] = v.Interface()
	}
	return values, nil
}

func fromJSON(t ethabi.Type, raw json.RawMessage) (reflect.Value, error) {
	switch t.T {
	case ethabi.AddressTy:
		var addr sxp.Address
		if err := json.Unmarshal(raw, &addr); err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(common.Address(addr)), nil
	case ethabi.BoolTy:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b), nil
	case ethabi.StringTy:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(s), nil
	case ethabi.BytesTy:
		var b hexutil.Bytes
		if err := json.Unmarshal(raw, &b); err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf([]byte(b)), nil
	case ethabi.FixedBytesTy:
		var b hexutil.Bytes
		if err := json.Unmarshal(raw, &b); err != nil {
			return reflect.Value{}, err
		}
		if len(b) != t.Size {
			return reflect.Value{}, errors.Errorf("expected %d bytes, got %d", t.Size, len(b))
		}
		v := reflect.New(t.GetType()).Elem()
		reflect.Copy(v, reflect.ValueOf([]byte(b)))
		return v, nil
	case ethabi.IntTy, ethabi.UintTy:
		return intFromJSON(t, raw)
	case ethabi.SliceTy, ethabi.ArrayTy:
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return reflect.Value{}, err
		}
		var v reflect.Value
		if t.T == ethabi.SliceTy {
			v = reflect.MakeSlice(t.GetType(), len(elems), len(elems))
		} else {
			if len(elems) != t.Size {
				return reflect.Value{}, errors.Errorf("expected %d elements, got %d", t.Size, len(elems))
			}
			v = reflect.New(t.GetType()).Elem()
		}
		for i, raw := range elems {
			elem, err := fromJSON(*t.Elem, raw)
			if err != nil {
				return reflect.Value{}, errors.WithMessagef(err, "element %d", i)
			}
			v.Index(i).Set(elem)
		}
		return v, nil
	}
	return reflect.Value{}, errors.Errorf("unsupported type %v", t)
}

func intFromJSON(t ethabi.Type, raw json.RawMessage) (reflect.Value, error) {
	text := raw
	if len(text) > 1 && text[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return reflect.Value{}, err
		}
		text = []byte(s)
	}
	var n math.HexOrDecimal256
	if err := n.UnmarshalText(text); err != nil {
		return reflect.Value{}, err
	}
	x := (*big.Int)(&n)
	if t.T == ethabi.UintTy && x.Sign() < 0 {
		return reflect.Value{}, errors.Errorf("negative value for %v", t)
	}
	limit := t.Size
	if t.T == ethabi.IntTy {
		limit--
	}
	if x.BitLen() > limit {
		return reflect.Value{}, errors.Errorf("value overflows %v", t)
	}

	typ := t.GetType()
	if typ == bigType {
		return reflect.ValueOf(new(big.Int).Set(x)), nil
	}
	v := reflect.New(typ).Elem()
	if t.T == ethabi.UintTy {
		v.SetUint(x.Uint64())
	} else {
		v.SetInt(x.Int64())
	}
	return v, nil
}

// JSONValue converts a decoded value into a JSON friendly one: byte arrays
// become hex strings and big integers 0x prefixed quantities.
func JSONValue(v any) any {
	switch x := v.(type) {
	case *big.Int:
		return (*math.HexOrDecimal256)(x)
	case common.Address:
		return sxp.Address(x)
	case []byte:
		return hexutil.Bytes(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return hexutil.Bytes(b)
		}
		fallthrough
	case reflect.Slice:
		list := make([]any, rv.Len())
		for i := range list {
			list[i] = JSONValue(rv.Index(i).Interface())
		}
		return list
	}
	return v
}

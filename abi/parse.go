// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package abi

import (
	"strings"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/pkg/errors"
)

// splitDecl splits "name(params) returns (params)" into its parts.
func splitDecl(decl string) (name, inputs, outputs string, err error) {
	decl = strings.TrimSpace(decl)
	open := strings.IndexByte(decl, '(')
	if open <= 0 {
		return "", "", "", errors.Errorf("abi: malformed declaration %q", decl)
	}
	closing := strings.IndexByte(decl[open:], ')')
	if closing < 0 {
		return "", "", "", errors.Errorf("abi: unbalanced parenthesis in %q", decl)
	}
	closing += open

	name = strings.TrimSpace(decl[:open])
	inputs = decl[open+1 : closing]

	rest := strings.TrimSpace(decl[closing+1:])
	if rest == "" {
		return name, inputs, "", nil
	}
	if !strings.HasPrefix(rest, "returns") {
		return "", "", "", errors.Errorf("abi: unexpected %q in %q", rest, decl)
	}
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "returns"))
	if len(rest) < 2 || rest[0] != '(' || rest[len(rest)-1] != ')' {
		return "", "", "", errors.Errorf("abi: malformed returns in %q", decl)
	}
	return name, inputs, rest[1 : len(rest)-1], nil
}

// parseArguments parses a comma separated list of "type [indexed] [name]".
func parseArguments(list string) (ethabi.Arguments, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}

	var args ethabi.Arguments
	for _, field := range strings.Split(list, ",") {
		parts := strings.Fields(field)
		if len(parts) == 0 {
			return nil, errors.Errorf("abi: empty argument in %q", list)
		}

		typ, err := ethabi.NewType(parts[0], "", nil)
		if err != nil {
			return nil, errors.Wrapf(err, "abi: argument type %q", parts[0])
		}
		if err := checkType(typ); err != nil {
			return nil, errors.WithMessagef(err, "abi: argument type %q", parts[0])
		}

		arg := ethabi.Argument{Type: typ}
		for _, p := range parts[1:] {
			if p == "indexed" {
				arg.Indexed = true
			} else {
				arg.Name = p
			}
		}
		args = append(args, arg)
	}
	return args, nil
}

// checkType rejects the sizes NewType lets through but abi encoding does not
// define: integers must be 8 to 256 bits in steps of 8, fixed bytes 1 to 32.
func checkType(t ethabi.Type) error {
	switch t.T {
	case ethabi.IntTy, ethabi.UintTy:
		if t.Size < 8 || t.Size > 256 || t.Size%8 != 0 {
			return errors.Errorf("invalid integer width %d", t.Size)
		}
	case ethabi.FixedBytesTy:
		if t.Size < 1 || t.Size > 32 {
			return errors.Errorf("invalid fixed bytes size %d", t.Size)
		}
	case ethabi.SliceTy, ethabi.ArrayTy:
		return checkType(*t.Elem)
	}
	return nil
}

// Pack encodes values of the given types, as abi.encode does.
func Pack(types []string, values ...any) ([]byte, error) {
	args, err := parseArguments(strings.Join(types, ","))
	if err != nil {
		return nil, err
	}
	return args.Pack(values...)
}

// Unpack decodes data packed for the given types.
func Unpack(types []string, data []byte) ([]any, error) {
	args, err := parseArguments(strings.Join(types, ","))
	if err != nil {
		return nil, err
	}
	return args.Unpack(data)
}

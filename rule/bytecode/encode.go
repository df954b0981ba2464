// Copyright 2026 Product-FARM contributors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bytecode

import (
	"encoding/binary"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/ayushmaanbhav/product-farm-sub000/rule"
)

func decimalFromString(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, rule.ErrCompileError.New("malformed decimal constant: " + err.Error())
	}
	return d, nil
}

// Encode renders p to the bit-exact wire format of spec.md §6: a version
// byte, then three length-prefixed sections (constant pool, variable
// table, code), all integers little-endian. The format exists so a
// compiled program can be persisted or shipped between processes (e.g. a
// warm cache snapshot) without re-running Tier-1 promotion.
func Encode(p *Program) ([]byte, error) {
	var buf []byte
	buf = append(buf, EncodingVersion)

	poolBytes, err := encodeConstPool(p.Pool)
	if err != nil {
		return nil, err
	}
	buf = appendU32Section(buf, poolBytes)

	varBytes := encodeVarTable(p.Vars)
	buf = appendU32Section(buf, varBytes)

	buf = appendU32Section(buf, p.Code)
	return buf, nil
}

// Decode parses the wire format produced by Encode back into a Program.
// ruleID is not part of the wire format (it is cache-key metadata, not
// program content) and must be supplied by the caller.
func Decode(ruleID string, data []byte) (*Program, error) {
	if len(data) < 1 {
		return nil, rule.ErrCompileError.New("truncated bytecode: empty input")
	}
	if data[0] != EncodingVersion {
		return nil, rule.ErrCompileError.New("unsupported bytecode version")
	}
	rest := data[1:]

	poolBytes, rest, err := readU32Section(rest)
	if err != nil {
		return nil, err
	}
	pool, err := decodeConstPool(poolBytes)
	if err != nil {
		return nil, err
	}

	varBytes, rest, err := readU32Section(rest)
	if err != nil {
		return nil, err
	}
	vars, err := decodeVarTable(varBytes)
	if err != nil {
		return nil, err
	}

	code, _, err := readU32Section(rest)
	if err != nil {
		return nil, err
	}

	return &Program{Code: code, Pool: pool, Vars: vars, RuleID: ruleID}, nil
}

func appendU32Section(buf []byte, section []byte) []byte {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(section)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, section...)
}

func readU32Section(data []byte) (section, rest []byte, err error) {
	if len(data) < 4 {
		return nil, nil, rule.ErrCompileError.New("truncated bytecode: section length")
	}
	n := binary.LittleEndian.Uint32(data[:4])
	data = data[4:]
	if uint32(len(data)) < n {
		return nil, nil, rule.ErrCompileError.New("truncated bytecode: section body")
	}
	return data[:n], data[n:], nil
}

// encodeConstPool serializes each Value's Go representation as JSON. JSON
// preserves the Null/Bool/Int/Float/String/Array/Object shapes exactly and
// is already a dependency-free round trip; Decimal values are encoded as
// their canonical string form and re-parsed on decode so precision survives
// the trip intact (float64 would not).
func encodeConstPool(values []rule.Value) ([]byte, error) {
	entries := make([]wireValue, len(values))
	for i, v := range values {
		entries[i] = toWireValue(v)
	}
	return json.Marshal(entries)
}

func decodeConstPool(data []byte) ([]rule.Value, error) {
	var entries []wireValue
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, rule.ErrCompileError.New("malformed constant pool: " + err.Error())
	}
	out := make([]rule.Value, len(entries))
	for i, e := range entries {
		v, err := e.toValue()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func encodeVarTable(paths []string) []byte {
	data, _ := json.Marshal(paths)
	return data
}

func decodeVarTable(data []byte) ([]string, error) {
	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		return nil, rule.ErrCompileError.New("malformed variable table: " + err.Error())
	}
	return paths, nil
}

// wireValue is the JSON-tagged representation of a rule.Value used only at
// the bytecode persistence boundary, keeping the Kind tag explicit so
// decode never has to guess (e.g. telling Int 3 apart from Float 3).
type wireValue struct {
	Kind rule.Kind   `json:"k"`
	V    interface{} `json:"v"`
}

func toWireValue(v rule.Value) wireValue {
	switch v.Kind() {
	case rule.KindDecimal:
		return wireValue{Kind: v.Kind(), V: v.AsDecimal().String()}
	case rule.KindArray:
		arr := v.AsArray()
		wv := make([]wireValue, len(arr))
		for i, e := range arr {
			wv[i] = toWireValue(e)
		}
		return wireValue{Kind: v.Kind(), V: wv}
	case rule.KindObject:
		obj := v.AsObject()
		wv := make(map[string]wireValue, len(obj))
		for k, e := range obj {
			wv[k] = toWireValue(e)
		}
		return wireValue{Kind: v.Kind(), V: wv}
	default:
		return wireValue{Kind: v.Kind(), V: v.ToGo()}
	}
}

func (w wireValue) toValue() (rule.Value, error) {
	switch w.Kind {
	case rule.KindNull:
		return rule.Null, nil
	case rule.KindBool:
		b, _ := w.V.(bool)
		return rule.Bool(b), nil
	case rule.KindInt:
		f, _ := w.V.(float64)
		return rule.Int(int64(f)), nil
	case rule.KindFloat:
		f, _ := w.V.(float64)
		return rule.Float(f), nil
	case rule.KindDecimal:
		s, _ := w.V.(string)
		d, err := decimalFromString(s)
		if err != nil {
			return rule.Value{}, err
		}
		return rule.Decim(d), nil
	case rule.KindString:
		s, _ := w.V.(string)
		return rule.String(s), nil
	case rule.KindArray:
		raw, err := json.Marshal(w.V)
		if err != nil {
			return rule.Value{}, rule.ErrCompileError.New(err.Error())
		}
		var wv []wireValue
		if err := json.Unmarshal(raw, &wv); err != nil {
			return rule.Value{}, rule.ErrCompileError.New(err.Error())
		}
		out := make([]rule.Value, len(wv))
		for i, e := range wv {
			out[i], err = e.toValue()
			if err != nil {
				return rule.Value{}, err
			}
		}
		return rule.ArraySlice(out), nil
	case rule.KindObject:
		raw, err := json.Marshal(w.V)
		if err != nil {
			return rule.Value{}, rule.ErrCompileError.New(err.Error())
		}
		var wv map[string]wireValue
		if err := json.Unmarshal(raw, &wv); err != nil {
			return rule.Value{}, rule.ErrCompileError.New(err.Error())
		}
		out := make(map[string]rule.Value, len(wv))
		for k, e := range wv {
			out[k], err = e.toValue()
			if err != nil {
				return rule.Value{}, err
			}
		}
		return rule.Object(out), nil
	default:
		return rule.Value{}, rule.ErrCompileError.New("unknown wire value kind")
	}
}

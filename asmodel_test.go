package slip

import (
	"math/big"
	"testing"

	"github.com/nukata/goarith"
)

// TestAsModel checks promotion of host values to models.
func TestAsModel(t *testing.T) {
	cases := map[string]struct {
		value interface{}
		want  Model
	}{
		"model":       {Symbol{Text: "x"}, Symbol{Text: "x"}},
		"nil":         {nil, Symbol{Text: "nil"}},
		"true":        {true, Symbol{Text: "true"}},
		"false":       {false, Symbol{Text: "false"}},
		"string":      {"hi", String{Value: "hi"}},
		"bytes":       {[]byte{1, 2}, Bytes{Value: []byte{1, 2}}},
		"int":         {7, NewInteger(7)},
		"int64":       {int64(-9), NewInteger(-9)},
		"uint64":      {uint64(18446744073709551615), Integer{Value: new(big.Int).SetUint64(18446744073709551615)}},
		"bigint":      {big.NewInt(12), NewInteger(12)},
		"float":       {2.5, Float{Value: 2.5}},
		"complex":     {1 + 2i, Complex{Value: 1 + 2i}},
		"goarith32":   {goarith.Int32(5), NewInteger(5)},
		"goarith64":   {goarith.Int64(5), NewInteger(5)},
		"goarithbig":  {(*goarith.BigInt)(big.NewInt(5)), NewInteger(5)},
		"goarithreal": {goarith.Float64(0.5), Float{Value: 0.5}},
		"slice":       {[]interface{}{1, "a"}, NewList(NewInteger(1), String{Value: "a"})},
		"modelslice":  {[]Model{NewInteger(1)}, NewList(NewInteger(1))},
		"nested":      {[]interface{}{[]interface{}{true}}, NewList(NewList(Symbol{Text: "true"}))},
		"map":         {map[string]int{"b": 2, "a": 1}, NewDict(String{Value: "a"}, NewInteger(1), String{Value: "b"}, NewInteger(2))},
	}
	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			got, err := AsModel(c.value)
			if err != nil {
				t.Fatalf("AsModel(%#v): %v", c.value, err)
			}
			if !Equal(got, c.want) {
				t.Errorf("AsModel(%#v) = %v, want %v", c.value, got, c.want)
			}
		})
	}
}

// TestAsModelPointer checks pointer dereferencing.
func TestAsModelPointer(t *testing.T) {
	v := 3
	got, err := AsModel(&v)
	if err != nil {
		t.Fatalf("AsModel(&int): %v", err)
	}
	if !Equal(got, NewInteger(3)) {
		t.Errorf("AsModel(&3) = %v", got)
	}
	var p *int
	got, err = AsModel(p)
	if err != nil {
		t.Fatalf("AsModel(nil *int): %v", err)
	}
	if !Equal(got, Symbol{Text: "nil"}) {
		t.Errorf("AsModel(nil pointer) = %v", got)
	}
}

// TestAsModelCycle checks that self-referential input is rejected rather
// than walked forever.
func TestAsModelCycle(t *testing.T) {
	s := []interface{}{nil}
	s[0] = s
	if _, err := AsModel(s); err == nil {
		t.Error("cyclic slice promoted without error")
	}
	m := map[string]interface{}{}
	m["self"] = m
	if _, err := AsModel(m); err == nil {
		t.Error("cyclic map promoted without error")
	}
}

// TestAsModelEmptySiblings checks that repeated empty containers and nil
// pointers, which all share an address, do not trip the cycle check.
func TestAsModelEmptySiblings(t *testing.T) {
	got, err := AsModel([]interface{}{[]interface{}{}, []interface{}{}, map[string]interface{}{}, map[string]interface{}{}})
	if err != nil {
		t.Fatalf("sibling empty containers: %v", err)
	}
	want := NewList(List{}, List{}, Dict{}, Dict{})
	if !Equal(got, want) {
		t.Errorf("promoted to %v, want %v", got, want)
	}
	var p *int
	got, err = AsModel([]interface{}{p, p})
	if err != nil {
		t.Fatalf("sibling nil pointers: %v", err)
	}
	if want := NewList(Symbol{Text: "nil"}, Symbol{Text: "nil"}); !Equal(got, want) {
		t.Errorf("promoted to %v, want %v", got, want)
	}
}

// TestAsModelUnsupported checks the rejection of values with no model
// representation.
func TestAsModelUnsupported(t *testing.T) {
	if _, err := AsModel(struct{ X int }{1}); err == nil {
		t.Error("struct promoted without error")
	}
	if _, err := AsModel(make(chan int)); err == nil {
		t.Error("channel promoted without error")
	}
}

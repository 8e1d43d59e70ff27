package ore

import (
	"testing"
)

func TestType_String(t *testing.T) {
	tests := []struct {
		oreType  Type
		expected string
	}{
		{Gold, "gold"},
		{Emerald, "emerald"},
		{Ruby, "ruby"},
		{Sapphire, "sapphire"},
		{Diamond, "diamond"},
		{Type(200), "unknown(200)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.oreType.String(); got != tt.expected {
				t.Errorf("Type.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Type
		wantErr bool
	}{
		{"gold", "gold", Gold, false},
		{"uppercase", "RUBY", Ruby, false},
		{"mixed case", "Diamond", Diamond, false},
		{"unknown", "copper", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestType_Valid(t *testing.T) {
	for _, ot := range Types() {
		if !ot.Valid() {
			t.Errorf("Expected %s to be valid", ot)
		}
	}

	if Type(NumTypes).Valid() {
		t.Error("Expected out-of-range type to be invalid")
	}
}

func TestAmounts_Count(t *testing.T) {
	a := Amounts{2, 0, 3, 1, 1}
	if got := a.Count(); got != 7 {
		t.Errorf("Amounts.Count() = %d, want 7", got)
	}

	var zero Amounts
	if got := zero.Count(); got != 0 {
		t.Errorf("Expected zero vector count = 0, got %d", got)
	}

	// Count must not wrap around the uint8 element bound
	full := Amounts{255, 255, 255, 255, 255}
	if got := full.Count(); got != 5*255 {
		t.Errorf("Amounts.Count() = %d, want %d", got, 5*255)
	}
}

func TestAmounts_Value(t *testing.T) {
	tests := []struct {
		name    string
		amounts Amounts
		want    int
	}{
		{"zero", Amounts{}, 0},
		{"gold only", Amounts{3, 0, 0, 0, 0}, 3},
		{"diamond only", Amounts{0, 0, 0, 0, 2}, 10},
		{"mixed", Amounts{2, 0, 3, 1, 1}, 2*1 + 0*2 + 3*3 + 1*4 + 1*5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.amounts.Value(); got != tt.want {
				t.Errorf("Amounts.Value() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAmounts_Get(t *testing.T) {
	a := Amounts{1, 2, 3, 4, 5}

	for i, ot := range Types() {
		if got := a.Get(ot); got != uint8(i+1) {
			t.Errorf("Amounts.Get(%s) = %d, want %d", ot, got, i+1)
		}
	}

	if got := a.Get(Type(99)); got != 0 {
		t.Errorf("Expected Get on invalid type to return 0, got %d", got)
	}
}

func TestWeight(t *testing.T) {
	if Weight(Gold) != 1 || Weight(Diamond) != 5 {
		t.Error("Expected fixed weights gold=1, diamond=5")
	}

	if Weight(Type(77)) != 0 {
		t.Error("Expected weight of invalid type to be 0")
	}
}

func TestAmounts_String(t *testing.T) {
	a := Amounts{2, 0, 3, 1, 1}
	want := "gold=2 emerald=0 ruby=3 sapphire=1 diamond=1"
	if got := a.String(); got != want {
		t.Errorf("Amounts.String() = %q, want %q", got, want)
	}
}

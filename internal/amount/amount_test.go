package amount

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain integer", in: "12500", want: "12500"},
		{name: "rupiah with thousands dots", in: "Rp 12.500", want: "12500"},
		{name: "rupiah dot prefix", in: "Rp.50", want: "50"},
		{name: "leading dot is not a decimal point", in: ".50", want: "50"},
		{name: "leading comma after symbol", in: "Rp ,75", want: "75"},
		{name: "comma decimal", in: "12,50", want: "12.5"},
		{name: "single decimal digit", in: "1,5", want: "1.5"},
		{name: "id-ID full", in: "1.234.567,89", want: "1234567.89"},
		{name: "en-US full", in: "$1,299.99", want: "1299.99"},
		{name: "three trailing digits are grouping", in: "1,234", want: "1234"},
		{name: "trailing dash suffix", in: "Rp 50.000,-", want: "50000"},
		{name: "currency code suffix", in: "75.000 IDR", want: "75000"},
		{name: "spaces inside", in: "1 250 000", want: "1250000"},
		{name: "negative", in: "-5.000", want: "-5000"},
		{name: "negative after symbol", in: "Rp -5.000", want: "-5000"},
		{name: "no digits", in: "Rp", want: "0"},
		{name: "empty", in: "", want: "0"},
		{name: "dash inside digits is ignored", in: "12-500", want: "12500"},
		{name: "leading zeros", in: "007", want: "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseString(tt.in)
			want := decimal.RequireFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("ParseString(%q) = %s, want %s", tt.in, got, want)
			}
		})
	}
}

func TestNormalize_NumericPassesThrough(t *testing.T) {
	tests := []string{"0", "12.345", "-3", "1000000"}
	for _, in := range tests {
		d := decimal.RequireFromString(in)
		if got := Normalize(Number(d)); !got.Equal(d) {
			t.Errorf("Normalize(Number(%s)) = %s", in, got)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"Rp 12.500", "12,50", "abc", "-7,5", "1.234.567,89"}
	for _, in := range inputs {
		once := Normalize(Text(in))
		twice := Normalize(Number(once))
		if !once.Equal(twice) {
			t.Errorf("Normalize not idempotent for %q: %s then %s", in, once, twice)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "0", want: "0"},
		{in: "999", want: "999"},
		{in: "1000", want: "1.000"},
		{in: "12500", want: "12.500"},
		{in: "1234567.8", want: "1.234.567,8"},
		{in: "1234567.89", want: "1.234.567,89"},
		{in: "12.5", want: "12,5"},
		{in: "12.50", want: "12,5"},
		{in: "0.05", want: "0,05"},
		{in: "1.999", want: "2"},
		{in: "1.005", want: "1,01"},
		{in: "-5000", want: "-5.000"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Format(decimal.RequireFromString(tt.in)); got != tt.want {
				t.Errorf("Format(%s) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatRoundTrip(t *testing.T) {
	values := []string{"0", "1", "10.1", "12.5", "999.99", "1000", "1000.01", "123456789.12", "-42.5"}
	for _, v := range values {
		d := decimal.RequireFromString(v)
		if got := ParseString(Format(d)); !got.Equal(d) {
			t.Errorf("ParseString(Format(%s)) = %s (formatted %q)", v, got, Format(d))
		}
	}
}

func TestRawJSON(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantNumeric bool
		wantText    string
		wantErr     bool
	}{
		{name: "number", in: `12500`, wantNumeric: true, wantText: "12500"},
		{name: "fractional number", in: `12.5`, wantNumeric: true, wantText: "12.5"},
		{name: "string", in: `"Rp 12.500"`, wantText: "Rp 12.500"},
		{name: "null", in: `null`, wantText: ""},
		{name: "boolean", in: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Raw
			err := json.Unmarshal([]byte(tt.in), &r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if r.IsNumeric() != tt.wantNumeric {
				t.Errorf("IsNumeric() = %v, want %v", r.IsNumeric(), tt.wantNumeric)
			}
			if r.String() != tt.wantText {
				t.Errorf("String() = %q, want %q", r.String(), tt.wantText)
			}
		})
	}
}

func TestRawMarshalJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Raw `json:"a"`
		B Raw `json:"b"`
	}{A: Number(decimal.NewFromInt(5)), B: Text("5,00")})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got, want := string(b), `{"a":5,"b":"5,00"}`; got != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
}

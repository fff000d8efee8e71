package assetclass

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		instrument string
		want       Class
	}{
		{"BTC", Crypto},
		{"eth", Crypto},
		{"IEF", FixedIncome},
		{"TLT", FixedIncome},
		{"VNQ", REITs},
		{"O", REITs},
		{"AAPL", Equities},
		{"VOO", Equities},
		{" btc ", Crypto},
		{"UNKNOWN123", Equities},
	}

	for _, tt := range tests {
		if got := Classify(tt.instrument); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.instrument, got, tt.want)
		}
	}
}

func TestIsFractional(t *testing.T) {
	if !IsFractional("BTC") {
		t.Error("BTC should trade fractionally")
	}
	if !IsFractional("doge") {
		t.Error("DOGE should trade fractionally")
	}
	if IsFractional("AAPL") {
		t.Error("AAPL should trade in integer lots")
	}
	if IsFractional("VNQ") {
		t.Error("VNQ should trade in integer lots")
	}
}

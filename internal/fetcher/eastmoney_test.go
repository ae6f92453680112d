package fetcher

import (
	"testing"

	"github.com/yikesong/finsight/internal/market"
)

const snapshotBody = `{
	"rc": 0,
	"data": {
		"f43": 1829500, "f44": 1840000, "f45": 1815000, "f46": 1820000,
		"f47": 2580000, "f48": 4712345678.0,
		"f51": 2012000, "f52": 1400000,
		"f57": "600519", "f58": "贵州茅台",
		"f60": 1830000,
		"f116": 2298000000000, "f117": 2298000000000,
		"f167": 2215, "f170": 23, "f173": 812
	}
}`

func TestBuildAShareQuote(t *testing.T) {
	data, err := ParseEastMoneySnapshot([]byte(snapshotBody))
	if err != nil {
		t.Fatalf("ParseEastMoneySnapshot failed: %v", err)
	}

	quote := BuildAShareQuote("600519.SS", market.AShareSH, data)

	if quote.Name != "贵州茅台" {
		t.Errorf("name = %q", quote.Name)
	}
	if quote.Price.Current.String() != "1829.5" {
		t.Errorf("current = %s, want 1829.5", quote.Price.Current)
	}
	if quote.Price.PrevClose.String() != "1830" {
		t.Errorf("prev_close = %s, want 1830", quote.Price.PrevClose)
	}
	if quote.Price.ChangePct != "-0.03%" {
		t.Errorf("change_pct = %q", quote.Price.ChangePct)
	}
	if quote.PERatio.String() != "22.15" {
		t.Errorf("pe = %s, want 22.15", quote.PERatio)
	}
	if quote.PBRatio.String() != "8.12" {
		t.Errorf("pb = %s, want 8.12", quote.PBRatio)
	}
	if quote.TurnoverRate != "0.23%" {
		t.Errorf("turnover_rate = %q", quote.TurnoverRate)
	}
	if quote.Range52W == nil || quote.Range52W.High.String() != "2012" {
		t.Errorf("range52w = %+v", quote.Range52W)
	}
	if quote.Volume != 2580000 {
		t.Errorf("volume = %d", quote.Volume)
	}
}

func TestParseEastMoneySnapshotNullData(t *testing.T) {
	if _, err := ParseEastMoneySnapshot([]byte(`{"rc":0,"data":null}`)); err == nil {
		t.Fatal("expected error for null data")
	}
	if _, err := ParseEastMoneySnapshot([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
}

func TestBuildFuturesQuote(t *testing.T) {
	body := `{
		"data": {
			"f43": 55500, "f44": 55680, "f45": 54920, "f46": 55200,
			"f47": 96500, "f48": 5340000000,
			"f57": "aum", "f58": "沪金主力", "f60": 55000,
			"f116": 182345
		}
	}`
	data, err := ParseEastMoneySnapshot([]byte(body))
	if err != nil {
		t.Fatalf("ParseEastMoneySnapshot failed: %v", err)
	}

	quote := BuildFuturesQuote("au0", data)

	if quote.Market != market.Commodity {
		t.Errorf("market = %v", quote.Market)
	}
	if quote.Price.Current.String() != "555" {
		t.Errorf("current = %s, want 555", quote.Price.Current)
	}
	if quote.Position != 182345 {
		t.Errorf("position = %d", quote.Position)
	}
	if quote.Price.ChangePct != "+0.91%" {
		t.Errorf("change_pct = %q", quote.Price.ChangePct)
	}
}

func TestParseKlines(t *testing.T) {
	body := `{
		"data": {
			"code": "399006",
			"klines": [
				"2025-06-19,2030.11,2045.50,2050.89,2025.00,312000000,401234567890.0,1.27,0.76,15.39,2.11",
				"2025-06-20,2046.00,2038.20,2049.00,2031.44,298000000,388812345678.0,0.86,-0.36,-7.30,2.01",
				"bad,line"
			]
		}
	}`
	bars, err := ParseKlines([]byte(body))
	if err != nil {
		t.Fatalf("ParseKlines failed: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("parsed %d bars, want 2", len(bars))
	}

	first := bars[0]
	if first.Date != "2025-06-19" {
		t.Errorf("date = %q", first.Date)
	}
	if first.Close != 2045.50 {
		t.Errorf("close = %v", first.Close)
	}
	last := bars[1]
	if last.ChangePct != -0.36 {
		t.Errorf("change_pct = %v", last.ChangePct)
	}
}

func TestParseKlinesEmpty(t *testing.T) {
	if _, err := ParseKlines([]byte(`{"data":null}`)); err == nil {
		t.Fatal("expected error for missing bars")
	}
	if _, err := ParseKlines([]byte(`{"data":{"klines":["too,short"]}}`)); err == nil {
		t.Fatal("expected error when no bar is parsable")
	}
}

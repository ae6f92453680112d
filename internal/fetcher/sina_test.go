package fetcher

import (
	"strings"
	"testing"

	"github.com/yikesong/finsight/internal/market"
)

func aSharePayload(fields []string) string {
	return `var hq_str_sh600519="` + strings.Join(fields, ",") + `";`
}

func TestParseSinaAShare(t *testing.T) {
	fields := make([]string, 32)
	fields[0] = "贵州茅台"
	fields[1] = "1820.00"
	fields[2] = "100.00"
	fields[3] = "110.00"
	fields[4] = "1835.50"
	fields[5] = "1811.02"
	fields[8] = "2580000"
	fields[9] = "4712345678.12"
	fields[30] = "2025-06-20"
	fields[31] = "15:00:03"

	quote, err := ParseSinaAShare("600519.SS", "SS", aSharePayload(fields))
	if err != nil {
		t.Fatalf("ParseSinaAShare failed: %v", err)
	}

	if quote.Name != "贵州茅台" {
		t.Errorf("name = %q, want 贵州茅台", quote.Name)
	}
	if quote.Market != market.AShareSH {
		t.Errorf("market = %v, want %v", quote.Market, market.AShareSH)
	}
	if quote.Volume != 2580000 {
		t.Errorf("volume = %d, want 2580000", quote.Volume)
	}
	if quote.UpdatedAt != "2025-06-20T15:00:03" {
		t.Errorf("updated_at = %q", quote.UpdatedAt)
	}
	// prev 100, current 110 must round-trip to exactly two decimals
	if quote.Price.ChangePct != "+10.00%" {
		t.Errorf("change_pct = %q, want +10.00%%", quote.Price.ChangePct)
	}
	if quote.Price.Change.String() != "10" {
		t.Errorf("change = %s, want 10", quote.Price.Change)
	}
}

func TestParseSinaAShareShortPayload(t *testing.T) {
	if _, err := ParseSinaAShare("600519.SS", "SS", `var hq_str_sh600519="a,b,c";`); err == nil {
		t.Fatal("expected error for truncated payload")
	}
	if _, err := ParseSinaAShare("600519.SS", "SS", "garbage without quotes"); err == nil {
		t.Fatal("expected error for unquoted payload")
	}
}

func TestParseSinaHK(t *testing.T) {
	fields := make([]string, 19)
	fields[0] = "TENCENT"
	fields[1] = "腾讯控股"
	fields[2] = "374.00"
	fields[3] = "372.20"
	fields[4] = "379.80"
	fields[5] = "373.00"
	fields[6] = "378.60"
	fields[7] = "6.40"
	fields[8] = "1.719"
	fields[11] = "5834201437"
	fields[12] = "15482300"
	fields[14] = "22.15"
	fields[15] = "482.80"
	fields[16] = "251.40"
	fields[17] = "2025/06/20"
	fields[18] = "16:08:11"

	body := `var hq_str_hk00700="` + strings.Join(fields, ",") + `";`
	quote, err := ParseSinaHK("00700.HK", "00700", body)
	if err != nil {
		t.Fatalf("ParseSinaHK failed: %v", err)
	}

	if quote.Name != "腾讯控股" {
		t.Errorf("name = %q", quote.Name)
	}
	if quote.Price.ChangePct != "+1.72%" {
		t.Errorf("change_pct = %q, want +1.72%%", quote.Price.ChangePct)
	}
	if quote.PERatio.String() != "22.15" {
		t.Errorf("pe = %s", quote.PERatio)
	}
	if quote.Range52W == nil || quote.Range52W.High.String() != "482.8" {
		t.Errorf("range52w = %+v", quote.Range52W)
	}
}

func TestParseSinaUS(t *testing.T) {
	fields := make([]string, 27)
	fields[0] = "苹果公司"
	fields[1] = "196.45"
	fields[2] = "-1.23"
	fields[3] = "-0.62"
	fields[5] = "197.30"
	fields[6] = "198.90"
	fields[7] = "195.10"
	fields[8] = "237.23"
	fields[9] = "164.08"
	fields[10] = "51240000"
	fields[11] = "6.43"
	fields[12] = "30.55"
	fields[13] = "2950000000000"
	fields[25] = "2025-06-20 16:00:00"
	fields[26] = "197.68"

	body := `var hq_str_gb_aapl="` + strings.Join(fields, ",") + `";`
	quote, err := ParseSinaUS("AAPL", body)
	if err != nil {
		t.Fatalf("ParseSinaUS failed: %v", err)
	}

	if quote.Price.PrevClose.String() != "197.68" {
		t.Errorf("prev_close = %s, want field 26 value", quote.Price.PrevClose)
	}
	if quote.Price.ChangePct != "-0.62%" {
		t.Errorf("change_pct = %q", quote.Price.ChangePct)
	}
	if quote.EPS.String() != "6.43" {
		t.Errorf("eps = %s", quote.EPS)
	}
	if quote.UpdatedAt != "2025-06-20 16:00:00" {
		t.Errorf("updated_at = %q", quote.UpdatedAt)
	}
}

func TestParseSinaUSFallbackPrevClose(t *testing.T) {
	fields := make([]string, 26)
	fields[0] = "TESLA"
	fields[1] = "330.00"
	fields[2] = "30.00"
	fields[3] = "10.00"

	body := `var hq_str_gb_tsla="` + strings.Join(fields, ",") + `";`
	quote, err := ParseSinaUS("TSLA", body)
	if err != nil {
		t.Fatalf("ParseSinaUS failed: %v", err)
	}
	// without field 26, prev close is current - change
	if quote.Price.PrevClose.String() != "300" {
		t.Errorf("prev_close = %s, want 300", quote.Price.PrevClose)
	}
}

func TestParseSinaFutures(t *testing.T) {
	fields := make([]string, 15)
	fields[0] = "沪金连续"
	fields[2] = "552.00"
	fields[3] = "556.80"
	fields[4] = "549.20"
	fields[5] = "553.10"
	fields[6] = "555.00"
	fields[7] = "550.00"
	fields[13] = "182345"
	fields[14] = "96500"

	body := `var hq_str_nf_AU0="` + strings.Join(fields, ",") + `";` + "\n" +
		`var hq_str_nf_BAD="short";`

	quotes := ParseSinaFutures(body)
	if len(quotes) != 1 {
		t.Fatalf("parsed %d quotes, want 1", len(quotes))
	}

	q := quotes[0]
	if q.Symbol != "AU0" || q.Name != "沪金连续" {
		t.Errorf("symbol/name = %q/%q", q.Symbol, q.Name)
	}
	if q.Settle.String() != "553.1" {
		t.Errorf("settle = %s", q.Settle)
	}
	if q.Position != 182345 || q.Volume != 96500 {
		t.Errorf("position/volume = %d/%d", q.Position, q.Volume)
	}
	if q.Price.ChangePct != "+0.91%" {
		t.Errorf("change_pct = %q", q.Price.ChangePct)
	}
}

func TestDecFieldGarbage(t *testing.T) {
	for _, s := range []string{"", "  ", "-", "N/A"} {
		if !decField(s).IsZero() {
			t.Errorf("decField(%q) should be zero", s)
		}
	}
	if intField("123.9") != 123 {
		t.Errorf("intField truncation broken")
	}
}

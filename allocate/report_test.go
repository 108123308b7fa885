package allocate

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/hausverwaltung/umlage/money"
)

func TestReportDocument(t *testing.T) {
	doc := BuildReport(testInput()).Document()

	assert.Equal(t, "P1", doc.PropertyID)
	assert.Equal(t, 2025, doc.Year)
	assert.Equal(t, "1000.00", doc.Pools["general"])
	assert.Equal(t, "600.00", doc.Pools["electricity"])
	assert.Equal(t, "5", doc.Prices["waterPerM3"])

	assert.Equal(t, 2, len(doc.Units))
	assert.Equal(t, "1430.00", doc.Units[0].Gross10)
	assert.Equal(t, "-433.04", doc.Units[0].Balance)

	// All monetary fields serialize as decimal strings.
	raw, err := json.Marshal(doc)
	assert.NoError(t, err)
	assert.Contains(t, string(raw), `"grossTotal":"1633.04"`)
	assert.NotContains(t, string(raw), "e+")
}

func TestReportRender(t *testing.T) {
	var sb strings.Builder
	BuildReport(testInput()).Render(&sb)

	out := sb.String()
	assert.Contains(t, out, "Betriebskostenabrechnung Lindengasse 12 2025")
	assert.Contains(t, out, "Top 1")
	assert.Contains(t, out, "1633.04")
	assert.Contains(t, out, "check net 10% bucket")
	assert.Contains(t, out, "delta 0.00")
}

func TestCheckWarnings(t *testing.T) {
	r := BuildReport(testInput())
	assert.Equal(t, 0, len(r.CheckWarnings()))

	r.Checks[0].Delta = money.MustParse("0.12")
	assert.Equal(t, 1, len(r.CheckWarnings()))
}

package report

import (
	"io"
	"text/template"

	"github.com/rustyeddy/jantrader/backtest"
)

var orgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
}

var orgTemplate = template.Must(template.New("jan").Funcs(orgFuncs).Parse(OrgTemplate))

// WriteOrg writes the result as an Org mode block.
func WriteOrg(w io.Writer, res *backtest.Result) error {
	return orgTemplate.Execute(w, res)
}

const OrgTemplate = `* BACKTEST: January Effect {{.Long.Name}} / {{.Hedge.Name}}
:PROPERTIES:
:LONG:        {{.Long.Name}}
:HEDGE:       {{.Hedge.Name}}
{{- if .LongSource}}
:LONG_SRC:    {{.LongSource}}
{{- end}}
{{- if .HedgeSource}}
:HEDGE_SRC:   {{.HedgeSource}}
{{- end}}
:START_DATE:  {{.Begin}}
:END_DATE:    {{.End}}
:ENTRY_OFF:   {{.Options.EntryOffset}}
:EXIT_OFF:    {{.Options.ExitOffset}}
:NOTIONAL:    {{printf "%.2f" .Options.Notional}}
:NET_PL:      {{.Returns.NetPL.StringFixed 2}}
:RETURN_PCT:  {{printf "%.2f" (mul100 .Returns.CumulativeReturn)}}
:MAX_DD_PCT:  {{printf "%.2f" (mul100 .Returns.MaxDrawdown)}}
:TRADES:      {{.Returns.Trades}}
:WINS:        {{.Returns.Wins}}
:LOSSES:      {{.Returns.Losses}}
:WIN_RATE:    {{printf "%.2f" (mul100 .Returns.WinRate)}}
:PROFIT_FAC:  {{if ne .Returns.ProfitFactor 0.0}}{{printf "%.2f" .Returns.ProfitFactor}}{{else}}(profit-factor?){{end}}
:END:

** Performance Summary
- Net P/L:          *{{.Returns.NetPL.StringFixed 2}}*
- Return:           *{{printf "%.2f" (mul100 .Returns.CumulativeReturn)}}%*
- Total Return:     *{{printf "%.2f" (mul100 .Returns.TotalReturn)}}%*
- Max Drawdown:     *{{printf "%.2f" (mul100 .Returns.MaxDrawdown)}}%*
- Win Rate:         *{{printf "%.2f" (mul100 .Returns.WinRate)}}%*
- Avg Hold Days:    *{{printf "%.1f" .Positions.AvgHoldDays}}*

** Trades
| Entry      | Exit       | Long In | Long Out | Hedge In | Hedge Out | Return % | MAE % | MFE % |
|------------+------------+---------+----------+----------+-----------+----------+-------+-------|
{{- range .Positions.Factors}}
| {{.Position.EntryDate}} | {{.Position.ExitDate}} | {{printf "%.2f" .Position.Long.EntryPrice}} | {{printf "%.2f" .Position.Long.ExitPrice}} | {{printf "%.2f" .Position.Hedge.EntryPrice}} | {{printf "%.2f" .Position.Hedge.ExitPrice}} | {{printf "%.2f" (mul100 .Return)}} | {{printf "%.2f" (mul100 .MAE)}} | {{printf "%.2f" (mul100 .MFE)}} |
{{- end}}

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Returns.Wins}} |
| Losses  | {{.Returns.Losses}} |
| Total   | {{.Returns.Trades}} |
{{- if .Returns.OpenPositions}}
| Open    | {{.Returns.OpenPositions}} |
{{- end}}
`

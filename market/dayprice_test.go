package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayPriceValidate(t *testing.T) {
	t.Parallel()

	good := DayPrice{
		Date:     MustDate(2005, time.December, 22),
		Open:     10,
		High:     11,
		Low:      9,
		Close:    10.5,
		AdjClose: 10.4,
		Volume:   1000,
	}

	tests := []struct {
		name    string
		mutate  func(p *DayPrice)
		wantErr string
	}{
		{"valid", func(p *DayPrice) {}, ""},
		{"no date", func(p *DayPrice) { p.Date = NoDate }, "no date"},
		{"nan open", func(p *DayPrice) { p.Open = math.NaN() }, "open is not finite"},
		{"inf high", func(p *DayPrice) { p.High = math.Inf(1) }, "high is not finite"},
		{"negative low", func(p *DayPrice) { p.Low = -1 }, "low -1 is negative"},
		{"zero close", func(p *DayPrice) { p.Close = 0 }, "close is zero"},
		{"zero adjclose", func(p *DayPrice) { p.AdjClose = 0 }, "adjclose is zero"},
		{"negative volume", func(p *DayPrice) { p.Volume = -5 }, "volume -5 is negative"},
		{"zero open allowed", func(p *DayPrice) { p.Open = 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := good
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestFillFromClose(t *testing.T) {
	t.Parallel()

	p := DayPrice{Date: MustDate(2005, time.December, 22), Close: 42.5}
	p.FillFromClose()

	assert.Equal(t, 42.5, p.Open)
	assert.Equal(t, 42.5, p.High)
	assert.Equal(t, 42.5, p.Low)
	assert.Equal(t, 42.5, p.AdjClose)
	assert.NoError(t, p.Validate())

	q := DayPrice{Date: p.Date, Open: 40, Close: 42.5, AdjClose: 41}
	q.FillFromClose()
	assert.Equal(t, 40.0, q.Open)
	assert.Equal(t, 41.0, q.AdjClose)
}

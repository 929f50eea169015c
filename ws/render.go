package ws

import (
	"candleQuest/config"
	"candleQuest/game"
)

// chartRenderer turns machine redraws into chart messages for the browser.
type chartRenderer struct {
	session *GameSession
}

func (r *chartRenderer) UpdateData(bars []game.PriceBar) {
	r.session.send("chart_update", map[string]interface{}{
		"bars":           bars,
		"viewportHeight": config.ChartViewportHeight,
	})
}

func (r *chartRenderer) FitContent() {
	r.session.send("chart_fit", nil)
}

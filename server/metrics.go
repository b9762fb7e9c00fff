package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RevealRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweepd_reveal_requests_total",
			Help: "Reveal queries by outcome",
		},
		[]string{"result"},
	)
	TilesRevealed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sweepd_tiles_revealed_total",
			Help: "Tiles newly revealed across all reveal queries",
		},
	)
	FloodSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sweepd_flood_size_tiles",
			Help:    "Tiles revealed by a single query",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
	)
	BoardResets = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sweepd_board_resets_total",
			Help: "Boards replaced by a reset",
		},
	)
	SocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sweepd_websocket_clients",
			Help: "Connected WebSocket clients",
		},
	)
)

const (
	resultRevealed   = "revealed"
	resultNoop       = "noop"
	resultGameOver   = "game_over"
	resultBadRequest = "bad_request"
	resultError      = "error"
)

func init() {
	prometheus.MustRegister(RevealRequests)
	prometheus.MustRegister(TilesRevealed)
	prometheus.MustRegister(FloodSize)
	prometheus.MustRegister(BoardResets)
	prometheus.MustRegister(SocketClients)
}

func observeReveal(revealed int, gameOver bool) {
	switch {
	case gameOver:
		RevealRequests.WithLabelValues(resultGameOver).Inc()
	case revealed == 0:
		RevealRequests.WithLabelValues(resultNoop).Inc()
	default:
		RevealRequests.WithLabelValues(resultRevealed).Inc()
	}
	TilesRevealed.Add(float64(revealed))
	FloodSize.Observe(float64(revealed))
}

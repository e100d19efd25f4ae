// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package exex

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notificationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "exex",
		Name:      "notifications_total",
		Help:      "total number of notifications dispatched to all extensions",
	})
	notificationsSentCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exex",
		Name:      "notifications_sent_total",
		Help:      "total number of notifications sent per extension",
	}, []string{"extension"})
	acknowledgementsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exex",
		Name:      "acknowledgements_total",
		Help:      "total number of height acknowledgements received per extension",
	}, []string{"extension"})
	channelOccupancyGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "exex",
		Name:      "channel_occupancy",
		Help:      "number of notifications buffered per extension, sampled on send",
	}, []string{"extension"})
	heightLagGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "exex",
		Name:      "height_lag",
		Help: "global minimum acknowledged height minus the last height " +
			"acknowledged by the extension, zero for the slowest extension",
	}, []string{"extension"})
	finishedHeightGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "exex",
		Name:      "finished_height",
		Help:      "global minimum acknowledged height across all active extensions",
	})
)

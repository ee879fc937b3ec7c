package metrics

import (
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

const defaultMetricsPrefix = "relay"

var (
	relayIDTagKey, _   = tag.NewKey("relayId")
	transportTagKey, _ = tag.NewKey("transport")
	kindTagKey, _      = tag.NewKey("kind")

	connMeasure        = stats.Int64("connections", "current relay connections", stats.UnitDimensionless)
	newConnMeasure     = stats.Int64("new_connections", "connections added to the relay", stats.UnitDimensionless)
	messageMeasure     = stats.Int64("messages_received", "messages received for relaying", stats.UnitDimensionless)
	bytesMeasure       = stats.Int64("message_bytes", "payload bytes received for relaying", stats.UnitBytes)
	deliveryMeasure    = stats.Int64("deliveries", "messages handed to recipients", stats.UnitDimensionless)
	skippedMeasure     = stats.Int64("skipped_recipients", "recipients skipped because they were not open", stats.UnitDimensionless)
	sendFailureMeasure = stats.Int64("send_failures", "recipients removed after a failed send", stats.UnitDimensionless)
)

var (
	connView = &view.View{
		Name:        "connections",
		Measure:     connMeasure,
		Aggregation: view.Sum(),
		TagKeys:     []tag.Key{relayIDTagKey, transportTagKey},
	}
	newConnView = &view.View{
		Name:        "new_connections",
		Measure:     newConnMeasure,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{relayIDTagKey, transportTagKey},
	}
	messageView = &view.View{
		Name:        "messages_received",
		Measure:     messageMeasure,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{relayIDTagKey, kindTagKey},
	}
	bytesView = &view.View{
		Name:        "message_bytes",
		Measure:     bytesMeasure,
		Aggregation: view.Sum(),
		TagKeys:     []tag.Key{relayIDTagKey, kindTagKey},
	}
	deliveryView = &view.View{
		Name:        "deliveries",
		Measure:     deliveryMeasure,
		Aggregation: view.Sum(),
		TagKeys:     []tag.Key{relayIDTagKey},
	}
	skippedView = &view.View{
		Name:        "skipped_recipients",
		Measure:     skippedMeasure,
		Aggregation: view.Sum(),
		TagKeys:     []tag.Key{relayIDTagKey},
	}
	sendFailureView = &view.View{
		Name:        "send_failures",
		Measure:     sendFailureMeasure,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{relayIDTagKey, transportTagKey},
	}
)

func getViews() []*view.View {
	return []*view.View{connView, newConnView, messageView, bytesView, deliveryView, skippedView, sendFailureView}
}

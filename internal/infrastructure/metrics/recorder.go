package metrics

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"

	"go-relay-hub/internal/infrastructure/hub"
	"go-relay-hub/internal/infrastructure/logger"
)

var (
	registerViewsOnce sync.Once
	registerViewsErr  error
)

// RegisterViews registers the relay views with OpenCensus once per process.
func RegisterViews() error {
	registerViewsOnce.Do(func() {
		registerViewsErr = view.Register(getViews()...)
	})
	return registerViewsErr
}

// Recorder turns relay notifications into OpenCensus measurements. Every
// measurement carries the recorder's relay ID so several hubs in one process
// stay distinguishable.
type Recorder struct {
	relayID string
	ctx     context.Context
	logger  logger.Logger
}

var _ hub.Observer = (*Recorder)(nil)

// NewRecorder registers the views and returns a recorder. An empty relayID is
// replaced by a random one.
func NewRecorder(relayID string, log logger.Logger) (*Recorder, error) {
	if err := RegisterViews(); err != nil {
		return nil, err
	}
	if relayID == "" {
		relayID = uuid.NewString()
	}

	ctx, err := tag.New(context.Background(), tag.Insert(relayIDTagKey, sanitizeTagValue(relayID)))
	if err != nil {
		return nil, err
	}

	return &Recorder{
		relayID: relayID,
		ctx:     ctx,
		logger:  log.WithField("component", "metrics"),
	}, nil
}

// RelayID returns the value of the relayId tag.
func (r *Recorder) RelayID() string {
	return r.relayID
}

func (r *Recorder) ConnectionOpened(conn hub.Connection) {
	ctx := r.withTag(transportTagKey, conn.Type())
	stats.Record(ctx, connMeasure.M(1), newConnMeasure.M(1))
}

func (r *Recorder) ConnectionClosed(conn hub.Connection) {
	stats.Record(r.withTag(transportTagKey, conn.Type()), connMeasure.M(-1))
}

func (r *Recorder) MessageRelayed(message *hub.Message, report hub.DeliveryReport) {
	stats.Record(r.withTag(kindTagKey, message.Kind.String()),
		messageMeasure.M(1),
		bytesMeasure.M(int64(message.Len())),
	)
	stats.Record(r.ctx,
		deliveryMeasure.M(int64(report.Delivered)),
		skippedMeasure.M(int64(report.Skipped)),
	)
}

func (r *Recorder) SendFailed(conn hub.Connection, _ error) {
	stats.Record(r.withTag(transportTagKey, conn.Type()), sendFailureMeasure.M(1))
}

func (r *Recorder) withTag(key tag.Key, value string) context.Context {
	ctx, err := tag.New(r.ctx, tag.Upsert(key, sanitizeTagValue(value)))
	if err != nil {
		r.logger.Errorf("Failed to create metric tag %s: %v", key.Name(), err)
		return r.ctx
	}
	return ctx
}

// sanitizeTagValue keeps tag values within OpenCensus limits: printable ASCII,
// at most 255 characters.
func sanitizeTagValue(v string) string {
	out := make([]byte, 0, len(v))
	for i := 0; i < len(v) && len(out) < 255; i++ {
		if c := v[i]; c >= 0x20 && c < 0x7f {
			out = append(out, c)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}

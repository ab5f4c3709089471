package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/taikai/internal/notify"
)

// heartbeatInterval はSSE接続維持のためのコメント送出間隔。
const heartbeatInterval = 30 * time.Second

// EventSubscriber は変更通知の購読インターフェース。
// notify.Brokerの部分集合。
type EventSubscriber interface {
	Subscribe(table string) (<-chan notify.Event, func())
	SubscriberCount(table string) int
}

// SubscriberGauge はSSE購読者数のメトリクス記録インターフェース。
type SubscriberGauge interface {
	SetEventSubscribers(count int)
}

// EventsHandler は変更通知のSSEストリーミングハンドラー。
// ページはこのストリームをトリガーとして一覧を再取得する。
type EventsHandler struct {
	subscriber EventSubscriber
	gauge      SubscriberGauge
}

// NewEventsHandler はEventsHandlerを生成する。
// gaugeはnilでもよい（メトリクス収集なし）。
func NewEventsHandler(subscriber EventSubscriber, gauge SubscriberGauge) *EventsHandler {
	return &EventsHandler{
		subscriber: subscriber,
		gauge:      gauge,
	}
}

// Stream は指定テーブルの変更イベントをServer-Sent Eventsで配信する。
// GET /api/events?table=competitions
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	table := r.URL.Query().Get("table")
	if table != notify.TableCompetitions && table != notify.TableParticipants {
		http.Error(w, "unknown table", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, cancel := h.subscriber.Subscribe(table)
	defer cancel()
	h.updateGauge()
	defer h.updateGauge()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case event, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				slog.Error("failed to marshal event", slog.String("error", err.Error()))
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// updateGauge は全テーブルの購読者合計をメトリクスに反映する。
func (h *EventsHandler) updateGauge() {
	if h.gauge == nil {
		return
	}
	total := h.subscriber.SubscriberCount(notify.TableCompetitions) +
		h.subscriber.SubscriberCount(notify.TableParticipants)
	h.gauge.SetEventSubscribers(total)
}

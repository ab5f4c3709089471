// Package notify はテーブル単位の変更通知を配信するインプロセスのpub/subを提供する。
// 変更系サービスは書き込み成功後にイベントを発行し、一覧ページは購読して再取得する。
package notify

import (
	"log/slog"
	"sync"
)

// Op は変更の種別を表す。
type Op string

const (
	// OpInsert は行の挿入。
	OpInsert Op = "INSERT"
	// OpUpdate は行の更新。
	OpUpdate Op = "UPDATE"
	// OpDelete は行の削除。
	OpDelete Op = "DELETE"
)

// 購読キーとなるテーブル名。
const (
	TableCompetitions = "competitions"
	TableParticipants = "competition_participants"
)

// Event は1件の変更通知。購読者はこれを再取得のトリガーとしてのみ使い、
// ペイロードとして扱わない（変更後の内容は再クエリで取得する）。
type Event struct {
	Table string `json:"table"`
	Op    Op     `json:"op"`
	RowID string `json:"row_id"`
}

// Publisher は変更通知の発行インターフェース。
// 変更系サービスが依存する部分集合。
type Publisher interface {
	Publish(event Event)
}

// Broker はテーブル名をキーとする購読者レジストリ。
// Publishは購読者のバッファが満杯の場合にイベントを破棄する（配信はベストエフォート）。
type Broker struct {
	bufferSize int

	mu     sync.RWMutex
	subs   map[string]map[int]chan Event
	nextID int
	closed bool
}

// NewBroker はBrokerを生成する。
// bufferSizeは購読者1人あたりの未消費イベント数の上限。
func NewBroker(bufferSize int) *Broker {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Broker{
		bufferSize: bufferSize,
		subs:       make(map[string]map[int]chan Event),
	}
}

// Subscribe は指定テーブルの変更イベントチャネルと購読解除関数を返す。
// 購読解除関数は複数回呼んでも安全。
func (b *Broker) Subscribe(table string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)

	if b.closed {
		close(ch)
		return ch, func() {}
	}

	if b.subs[table] == nil {
		b.subs[table] = make(map[int]chan Event)
	}
	id := b.nextID
	b.nextID++
	b.subs[table][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if subs, ok := b.subs[table]; ok {
				if _, ok := subs[id]; ok {
					delete(subs, id)
					close(ch)
				}
			}
		})
	}

	return ch, cancel
}

// Publish はイベントを該当テーブルの全購読者に配信する。
// バッファが満杯の購読者にはイベントを破棄する（ブロックしない）。
func (b *Broker) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subs[event.Table] {
		select {
		case ch <- event:
		default:
			slog.Warn("notify event dropped: subscriber buffer full",
				slog.String("table", event.Table),
				slog.String("op", string(event.Op)),
			)
		}
	}
}

// SubscriberCount は指定テーブルの購読者数を返す。テストおよびメトリクス用。
func (b *Broker) SubscriberCount(table string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[table])
}

// Close は全購読チャネルを閉じ、以後のSubscribe/Publishを無効化する。
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for table, subs := range b.subs {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(b.subs, table)
	}
}

// compile-time interface check
var _ Publisher = (*Broker)(nil)

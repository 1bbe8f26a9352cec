package contract

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mexyusef/fmus-fintech/pkg/evmrpc"
	"github.com/mexyusef/fmus-fintech/pkg/evmrpc/result"
	"github.com/mexyusef/fmus-fintech/pkg/smartcontract"
	"github.com/mexyusef/fmus-fintech/pkg/util"
)

// UnknownEvent is the name given to decoded records of log entries whose
// topic matches no event declared in the ABI. Streams of logs containing
// foreign events keep flowing instead of aborting.
const UnknownEvent = "UnknownEvent"

// EventRecord is a decoded log entry.
type EventRecord struct {
	// Name is the ABI event name, or UnknownEvent.
	Name string
	// Args maps parameter names to decoded values. Indexed parameters of
	// dynamic types only carry their 32-byte commitment in the log, for
	// them the raw topic bytes are stored here.
	Args map[string]any
	// BlockNumber, TxHash and LogIndex locate the entry on chain.
	BlockNumber uint64
	TxHash      util.Hash
	LogIndex    uint32
}

// watcher is a standing event subscription feeding decoded records to a
// user channel.
type watcher struct {
	subID string
	logs  chan *result.Log
	quit  chan struct{}
}

// ParseLog decodes a single log entry against the contract's ABI. An entry
// matching no declared event yields an UnknownEvent record with empty Args,
// never an error. An entry matching a declared event but failing to decode
// per its shape is a real error.
func (c *Contract) ParseLog(l *result.Log) (*EventRecord, error) {
	rec := &EventRecord{
		Name:        UnknownEvent,
		Args:        make(map[string]any),
		BlockNumber: uint64(l.BlockNumber),
		TxHash:      l.TransactionHash,
		LogIndex:    uint32(l.LogIndex),
	}
	if len(l.Topics) == 0 {
		return rec, nil
	}
	ev, ok := c.ABI.EventByTopic(l.Topics[0])
	if !ok {
		return rec, nil
	}
	rec.Name = ev.Name

	var (
		topicIdx = 1
		dataIdx  []int
		dataType []smartcontract.ParamType
	)
	for i := range ev.Inputs {
		p := &ev.Inputs[i]
		if !p.Indexed {
			dataIdx = append(dataIdx, i)
			dataType = append(dataType, p.Type)
			continue
		}
		if topicIdx >= len(l.Topics) {
			return nil, fmt.Errorf("event %s: missing topic for indexed parameter %q", ev.Name, p.Name)
		}
		topic := l.Topics[topicIdx]
		topicIdx++
		if p.Type.IsDynamic() {
			rec.Args[p.Name] = topic.Bytes()
			continue
		}
		vals, err := c.codec.DecodeValues([]smartcontract.ParamType{p.Type}, topic.Bytes())
		if err != nil {
			return nil, fmt.Errorf("event %s: parameter %q: %w", ev.Name, p.Name, err)
		}
		rec.Args[p.Name] = vals[0]
	}
	if len(dataType) > 0 {
		vals, err := c.codec.DecodeValues(dataType, l.Data)
		if err != nil {
			return nil, fmt.Errorf("event %s: data: %w", ev.Name, err)
		}
		for i, idx := range dataIdx {
			rec.Args[ev.Inputs[idx].Name] = vals[i]
		}
	}
	return rec, nil
}

// GetEvents is a bounded synchronous range query: it returns all decoded
// occurrences of the named event emitted by this contract between
// fromBlock and toBlock inclusive.
func (c *Contract) GetEvents(name string, fromBlock, toBlock uint64) ([]EventRecord, error) {
	ev, ok := c.ABI.GetEvent(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchEvent, name)
	}
	var (
		from = evmrpc.Uint64(fromBlock)
		to   = evmrpc.Uint64(toBlock)
	)
	logs, err := c.caller.Logs(evmrpc.LogFilter{
		FromBlock: &from,
		ToBlock:   &to,
		Address:   &c.Address,
		Topics:    [][]util.Hash{{ev.Topic()}},
	})
	if err != nil {
		return nil, fmt.Errorf("querying %s events: %w", name, err)
	}
	recs := make([]EventRecord, 0, len(logs))
	for i := range logs {
		rec, err := c.ParseLog(&logs[i])
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, nil
}

// WatchEvent opens a standing subscription for the named event, decoded
// records are sent to the given channel until UnwatchEvent is called with
// the returned watcher ID. It requires a push-capable provider and fails
// with ErrNotSupported right away when there is none, it never falls back
// to polling silently.
func (c *Contract) WatchEvent(name string, ch chan<- *EventRecord) (string, error) {
	if c.sub == nil {
		return "", fmt.Errorf("watching %s: %w", name, ErrNotSupported)
	}
	ev, ok := c.ABI.GetEvent(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNoSuchEvent, name)
	}
	w := &watcher{
		logs: make(chan *result.Log),
		quit: make(chan struct{}),
	}
	subID, err := c.sub.SubscribeLogs(evmrpc.LogFilter{
		Address: &c.Address,
		Topics:  [][]util.Hash{{ev.Topic()}},
	}, w.logs)
	if err != nil {
		return "", fmt.Errorf("watching %s: %w", name, err)
	}
	w.subID = subID

	id := uuid.NewString()
	c.mu.Lock()
	c.watchers[id] = w
	c.mu.Unlock()

	go func() {
		for {
			select {
			case <-w.quit:
				return
			case l := <-w.logs:
				rec, err := c.ParseLog(l)
				if err != nil {
					c.log.Warn("failed to decode watched event",
						zap.String("event", name),
						zap.Error(err))
					continue
				}
				select {
				case ch <- rec:
				case <-w.quit:
					return
				}
			}
		}
	}()
	return id, nil
}

// UnwatchEvent cancels the watcher with the given ID, no more records will
// be sent to its channel after it returns.
func (c *Contract) UnwatchEvent(id string) error {
	c.mu.Lock()
	w, ok := c.watchers[id]
	delete(c.watchers, id)
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown watcher ID: %s", id)
	}
	close(w.quit)
	return c.sub.Unsubscribe(w.subID)
}

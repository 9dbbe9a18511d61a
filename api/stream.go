package api

import (
	"context"
	"fmt"
	"sync"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/google/uuid"

	"github.com/openalpha/fee-vault/api/websocket"
	feevaulttypes "github.com/openalpha/fee-vault/x/feevault/types"
	lendpooltypes "github.com/openalpha/fee-vault/x/lendpool/types"
)

var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("feevault/events"))

// StreamedEventTypes are the block events forwarded to subscribers
var StreamedEventTypes = []string{
	feevaulttypes.EventTypeInitialize,
	feevaulttypes.EventTypeAddReserveVault,
	feevaulttypes.EventTypeDeposit,
	feevaulttypes.EventTypeWithdraw,
	feevaulttypes.EventTypeFeesAccrued,
	feevaulttypes.EventTypeRateRegression,
	feevaulttypes.EventTypeDustCleared,
	feevaulttypes.EventTypeClaimFees,
	feevaulttypes.EventTypeSetTakeRate,
	feevaulttypes.EventTypeSetAdmin,
	lendpooltypes.EventTypeCreateReserve,
	lendpooltypes.EventTypeSetBRate,
}

// EventStream picks vault and pool events out of finalized blocks, keeps the
// most recent ones and pushes them to the websocket hub.
type EventStream struct {
	hub    *websocket.Hub
	logger log.Logger
	types  map[string]bool

	mu     sync.RWMutex
	recent []websocket.EventMessage
	next   int
	full   bool
}

var _ storetypes.ABCIListener = (*EventStream)(nil)

// NewEventStream creates a stream remembering the last bufferSize events.
// hub may be nil.
func NewEventStream(hub *websocket.Hub, bufferSize int, logger log.Logger) *EventStream {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	types := make(map[string]bool, len(StreamedEventTypes))
	for _, t := range StreamedEventTypes {
		types[t] = true
	}
	return &EventStream{
		hub:    hub,
		logger: logger.With("module", "api/stream"),
		types:  types,
		recent: make([]websocket.EventMessage, bufferSize),
	}
}

// ListenFinalizeBlock collects streamed events from the block's transactions
// and its block-level events.
func (s *EventStream) ListenFinalizeBlock(_ context.Context, req abci.RequestFinalizeBlock, res abci.ResponseFinalizeBlock) error {
	var events []websocket.EventMessage
	for txIndex, txResult := range res.TxResults {
		if txResult == nil || txResult.Code != 0 {
			continue
		}
		events = s.collect(events, req, txIndex, txResult.Events)
	}
	events = s.collect(events, req, -1, res.Events)
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	for _, event := range events {
		s.recent[s.next] = event
		s.next = (s.next + 1) % len(s.recent)
		if s.next == 0 {
			s.full = true
		}
	}
	s.mu.Unlock()

	if s.hub != nil {
		for i := range events {
			s.hub.PublishEvent(&events[i])
		}
	}
	s.logger.Debug("streamed block events", "height", req.Height, "events", len(events))
	return nil
}

// ListenCommit implements storetypes.ABCIListener
func (s *EventStream) ListenCommit(context.Context, abci.ResponseCommit, []*storetypes.StoreKVPair) error {
	return nil
}

func (s *EventStream) collect(out []websocket.EventMessage, req abci.RequestFinalizeBlock, txIndex int, events []abci.Event) []websocket.EventMessage {
	for i, event := range events {
		if !s.types[event.Type] {
			continue
		}
		attrs := make(map[string]string, len(event.Attributes))
		for _, attr := range event.Attributes {
			attrs[attr.Key] = attr.Value
		}
		out = append(out, websocket.EventMessage{
			ID:         uuid.NewSHA1(eventNamespace, []byte(fmt.Sprintf("%d/%d/%d", req.Height, txIndex, i))).String(),
			Height:     req.Height,
			TxIndex:    txIndex,
			Type:       event.Type,
			Attributes: attrs,
			Time:       req.Time,
		})
	}
	return out
}

// EventFilter selects events from the recent buffer; empty fields match all
type EventFilter struct {
	Type      string
	ReserveID string
	Account   string
}

func (f EventFilter) matches(event *websocket.EventMessage) bool {
	if f.Type != "" && event.Type != f.Type {
		return false
	}
	if f.ReserveID != "" && event.Attributes[feevaulttypes.AttributeKeyReserveID] != f.ReserveID &&
		event.Attributes[lendpooltypes.AttributeKeyAsset] != f.ReserveID {
		return false
	}
	if f.Account != "" {
		for _, channel := range websocket.EventChannels(event) {
			if channel == websocket.ChannelAccountPrefix+f.Account {
				return true
			}
		}
		return false
	}
	return true
}

// Recent returns up to limit matching events, newest first
func (s *EventStream) Recent(filter EventFilter, limit int) []websocket.EventMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := s.next
	if s.full {
		count = len(s.recent)
	}
	out := make([]websocket.EventMessage, 0)
	for i := 0; i < count && (limit <= 0 || len(out) < limit); i++ {
		idx := (s.next - 1 - i + len(s.recent)) % len(s.recent)
		if filter.matches(&s.recent[idx]) {
			out = append(out, s.recent[idx])
		}
	}
	return out
}

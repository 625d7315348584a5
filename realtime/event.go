// Package realtime pushes order events to connected admin dashboards over
// websockets, optionally fanned out across instances through redis.
package realtime

import (
	"context"
	"time"
)

const (
	EventOrderPlaced    = "order.placed"
	EventOrderStatus    = "order.status"
	EventDevicesSoldOut = "devices.sold_out"
)

type Event struct {
	Type             string    `json:"type"`
	OrderID          uint      `json:"order_id,omitempty"`
	Ref              string    `json:"ref,omitempty"`
	UserID           uint      `json:"user_id,omitempty"`
	DeliveryStatusID uint      `json:"delivery_status_id,omitempty"`
	DeviceIDs        []uint    `json:"device_ids,omitempty"`
	At               time.Time `json:"at"`
}

// Publisher delivers events to every listening dashboard.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }

package sink

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/ecocal/models"
	"github.com/use-agent/ecocal/webhook"
)

// EventGathered is the webhook event type for a finished gather.
const EventGathered = "calendar.gathered"

// GatheredPayload is the data of a calendar.gathered event.
type GatheredPayload struct {
	StartDate string               `json:"start_date"`
	EndDate   string               `json:"end_date"`
	Count     int                  `json:"count"`
	Records   []models.EventRecord `json:"records"`
}

// Webhook posts every batch as one signed calendar.gathered event.
type Webhook struct {
	client *webhook.Client
}

func NewWebhook(url, secret string) *Webhook {
	return &Webhook{client: webhook.NewClient(url, secret)}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Persist(ctx context.Context, records []models.EventRecord, startDate, endDate string) error {
	if records == nil {
		records = []models.EventRecord{}
	}
	return w.client.Deliver(ctx, &webhook.Event{
		Type:      EventGathered,
		BatchID:   uuid.NewString(),
		Timestamp: time.Now().Unix(),
		Data: GatheredPayload{
			StartDate: startDate,
			EndDate:   endDate,
			Count:     len(records),
			Records:   records,
		},
	})
}

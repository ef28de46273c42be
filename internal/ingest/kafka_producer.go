package ingest

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/ride-hail/internal/models"
)

// LocationMessage is the wire shape of one driver location ping on the
// ingestion topic.
type LocationMessage struct {
	DriverID int64               `json:"driver_id"`
	Location models.LiveLocation `json:"location"`
}

type KafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &KafkaProducer{writer: w}
}

// PublishLocation keys messages by driver id so each driver's pings stay
// ordered within a partition.
func (k *KafkaProducer) PublishLocation(driverID int64, loc models.LiveLocation) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := json.Marshal(LocationMessage{DriverID: driverID, Location: loc})
	if err != nil {
		return err
	}
	key := strconv.FormatInt(driverID, 10)
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b})
}

func (k *KafkaProducer) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/baseball-sim/run-expectancy/models"
)

// kafkaBatchSize caps the number of messages per WriteMessages call.
const kafkaBatchSize = 500

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// SummaryMessage is the payload published for each simulated hitter
type SummaryMessage struct {
	RunID       string           `json:"run_id"`
	AVG         float64          `json:"avg"`
	OBP         float64          `json:"obp"`
	SLG         float64          `json:"slg"`
	NumInnings  int              `json:"num_innings"`
	Runs        int              `json:"runs"`
	RunsPerNine float64          `json:"runs_per_9"`
	Simulated   models.SlashLine `json:"simulated"`
}

// KafkaSink publishes one message per hitter summary, keyed by the profile.
type KafkaSink struct {
	writer messageWriter
	topic  string
	log    *logrus.Entry
}

// NewKafkaSink creates a sink writing to topic on the given brokers.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic must not be empty")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireOne,
		Balancer:     &kafka.Hash{},
	}
	return newKafkaSink(w, topic), nil
}

func newKafkaSink(w messageWriter, topic string) *KafkaSink {
	return &KafkaSink{
		writer: w,
		topic:  topic,
		log:    logrus.WithFields(logrus.Fields{"component": "kafka-sink", "topic": topic}),
	}
}

// Write implements the result sink interface.
func (k *KafkaSink) Write(ctx context.Context, runID string, summaries []models.HitterSummary) error {
	msgs, err := buildMessages(runID, summaries)
	if err != nil {
		return err
	}
	for start := 0; start < len(msgs); start += kafkaBatchSize {
		end := min(start+kafkaBatchSize, len(msgs))
		if err := k.writer.WriteMessages(ctx, msgs[start:end]...); err != nil {
			return fmt.Errorf("failed to publish summaries to %s: %w", k.topic, err)
		}
	}
	k.log.WithFields(logrus.Fields{"run_id": runID, "messages": len(msgs)}).Debug("Published summaries")
	return nil
}

// Close flushes and closes the underlying writer.
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}

func buildMessages(runID string, summaries []models.HitterSummary) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(summaries))
	for _, s := range summaries {
		payload, err := json.Marshal(SummaryMessage{
			RunID:       runID,
			AVG:         s.AVG,
			OBP:         s.OBP,
			SLG:         s.SLG,
			NumInnings:  s.NumInnings,
			Runs:        s.Runs,
			RunsPerNine: s.RunsPerNine(),
			Simulated:   s.SimulatedLine(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode summary %s: %w", s.Profile().Key(), err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(s.Profile().Key()),
			Value: payload,
		})
	}
	return msgs, nil
}

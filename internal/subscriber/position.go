// Package subscriber feeds device position updates from MQTT into the alert service.
package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/CLillis357/VigilantIE/internal/config"
	"github.com/CLillis357/VigilantIE/internal/domain"
	"github.com/CLillis357/VigilantIE/pkg/e"
	"github.com/CLillis357/VigilantIE/pkg/validator"
)

const handleTimeout = 5 * time.Second

type positionUpdater interface {
	UpdatePosition(ctx context.Context, userID string, coord domain.Coordinate) (domain.PositionUpdateResponse, error)
}

func NewMQTTClient(cfg config.MQTTConfig, logger *slog.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("mqtt connection lost", slog.Any("error", err))
		})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return client, nil
}

type PositionSubscriber struct {
	client  mqtt.Client
	topic   string
	qos     byte
	alerts  positionUpdater
	logger  *slog.Logger
	baseCtx context.Context
}

func NewPositionSubscriber(client mqtt.Client, cfg config.MQTTConfig, alerts positionUpdater, logger *slog.Logger) *PositionSubscriber {
	return &PositionSubscriber{
		client:  client,
		topic:   cfg.Topic,
		qos:     cfg.QoS,
		alerts:  alerts,
		logger:  logger,
		baseCtx: context.Background(),
	}
}

// Start subscribes and keeps handling messages until ctx is done.
func (s *PositionSubscriber) Start(ctx context.Context) error {
	s.baseCtx = ctx

	token := s.client.Subscribe(s.topic, s.qos, s.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", s.topic, err)
	}

	s.logger.Info("mqtt position subscriber started", slog.String("topic", s.topic))
	return nil
}

func (s *PositionSubscriber) Stop() {
	if token := s.client.Unsubscribe(s.topic); token.WaitTimeout(time.Second) && token.Error() != nil {
		s.logger.Warn("mqtt unsubscribe failed", slog.Any("error", token.Error()))
	}
	s.client.Disconnect(250)
}

func (s *PositionSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	l := s.logger.With(slog.String("topic", msg.Topic()))

	userID, coord, err := parsePosition(s.topic, msg.Topic(), msg.Payload())
	if err != nil {
		l.Warn("invalid position message", slog.Any("error", err))
		return
	}

	ctx, cancel := context.WithTimeout(s.baseCtx, handleTimeout)
	defer cancel()

	resp, err := s.alerts.UpdatePosition(ctx, userID, coord)
	if err != nil {
		l.Error("UpdatePosition failed", slog.String("user_id", userID), slog.Any("error", err))
		return
	}
	if resp.Fired {
		l.Info("proximity alert fired", slog.String("user_id", userID), slog.Int("count", resp.Count))
	}
}

func parsePosition(pattern, topic string, payload []byte) (string, domain.Coordinate, error) {
	userID, err := userFromTopic(pattern, topic)
	if err != nil {
		return "", domain.Coordinate{}, err
	}

	var req domain.PositionUpdateRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return "", domain.Coordinate{}, fmt.Errorf("decode payload: %w: %w", e.ErrInvalidInput, err)
	}
	if err := validator.ValidateStruct(req); err != nil {
		return "", domain.Coordinate{}, fmt.Errorf("%w: %w", e.ErrInvalidCoordinates, err)
	}

	return userID, req.Coordinate(), nil
}

// userFromTopic returns the topic level matched by the single-level wildcard in pattern.
func userFromTopic(pattern, topic string) (string, error) {
	want := strings.Split(pattern, "/")
	got := strings.Split(topic, "/")
	if len(want) != len(got) {
		return "", fmt.Errorf("topic %q does not match %q: %w", topic, pattern, e.ErrInvalidInput)
	}

	user := ""
	for i := range want {
		switch want[i] {
		case "+":
			user = got[i]
		case got[i]:
		default:
			return "", fmt.Errorf("topic %q does not match %q: %w", topic, pattern, e.ErrInvalidInput)
		}
	}
	if user == "" {
		return "", fmt.Errorf("topic %q has no user id: %w", topic, e.ErrInvalidInput)
	}
	return user, nil
}

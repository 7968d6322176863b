package gateway

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Broker is the fan-out seam: publishes address a logical room, not the local
// socket table, so a multi-process deployment only swaps this implementation.
type Broker interface {
	Publish(room string, packet ServerPacket)
}

type LocalBroker struct {
	Rooms *RoomRegistry
}

func (v LocalBroker) Publish(room string, packet ServerPacket) {
	v.Rooms.Broadcast(room, packet)
}

type roomEnvelope struct {
	Room   string       `json:"room"`
	Packet ServerPacket `json:"packet"`
}

// RedisBroker relays room publishes through a pub/sub channel; every process
// forwards to the members its own registry holds.
type RedisBroker struct {
	Client  *redis.Client
	Rooms   *RoomRegistry
	Channel string
}

func (v *RedisBroker) Publish(room string, packet ServerPacket) {
	raw, _ := jsoniter.Marshal(roomEnvelope{Room: room, Packet: packet})
	if err := v.Client.Publish(context.Background(), v.Channel, raw).Err(); err != nil {
		log.Warn().Err(err).Str("room", room).Msg("An error occurred when publishing room event, falling back to local fan-out.")
		v.Rooms.Broadcast(room, packet)
	}
}

func (v *RedisBroker) Run(ctx context.Context) {
	pubsub := v.Client.Subscribe(ctx, v.Channel)
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			var envelope roomEnvelope
			if err := jsoniter.UnmarshalFromString(msg.Payload, &envelope); err != nil {
				log.Warn().Err(err).Msg("An error occurred when decoding room event.")
				continue
			}
			v.Rooms.Broadcast(envelope.Room, envelope.Packet)
		}
	}
}

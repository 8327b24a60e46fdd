package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Decoding errors. Both are protocol violations answered with an Error
// message; the connection stays open.
var (
	ErrMalformed   = errors.New("protocol: malformed message")
	ErrUnknownType = errors.New("protocol: unknown message type")
)

type envelope struct {
	Type string `json:"type"`
}

func decodeClient[T ClientMessage](data []byte) (ClientMessage, error) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return m, nil
}

func decodeServer[T ServerMessage](data []byte) (ServerMessage, error) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return m, nil
}

func peekType(data []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return "", fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return env.Type, nil
}

// Decode parses a message sent by a player.
func Decode(data []byte) (ClientMessage, error) {
	typ, err := peekType(data)
	if err != nil {
		return nil, err
	}
	switch typ {
	case TypePlayerReady:
		return decodeClient[PlayerReady](data)
	case TypeStartGameRequest:
		return decodeClient[StartGameRequest](data)
	case TypeStartGame:
		return decodeClient[StartGame](data)
	case TypeMovePaddle:
		return decodeClient[MovePaddle](data)
	case TypeUpdateSettings:
		return decodeClient[UpdateSettings](data)
	case TypeRematchRequest:
		return RematchRequest{}, nil
	case TypeJoinTournament:
		return decodeClient[JoinTournament](data)
	case TypeLeaveTournament:
		return LeaveTournament{}, nil
	case TypePing:
		return decodeClient[Ping](data)
	case TypePong:
		return decodeClient[Pong](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
}

// DecodeServer parses a message sent by the server.
func DecodeServer(data []byte) (ServerMessage, error) {
	typ, err := peekType(data)
	if err != nil {
		return nil, err
	}
	switch typ {
	case TypePing:
		return decodeServer[Ping](data)
	case TypePong:
		return decodeServer[Pong](data)
	case TypePlayerNumber:
		return decodeServer[PlayerNumberMsg](data)
	case TypeGameState:
		return decodeServer[GameState](data)
	case TypeSync:
		return decodeServer[Sync](data)
	case TypeWallBounce:
		return decodeServer[WallBounce](data)
	case TypePaddleHit:
		return decodeServer[PaddleHit](data)
	case TypePowerUpSpawn:
		return decodeServer[PowerUpSpawn](data)
	case TypePowerUpCollected:
		return decodeServer[PowerUpCollected](data)
	case TypePowerUpDeactivated:
		return decodeServer[PowerUpDeactivated](data)
	case TypeLobbyState:
		return decodeServer[LobbyState](data)
	case TypeGameStarting:
		return decodeServer[GameStarting](data)
	case TypeGameOver:
		return decodeServer[GameOver](data)
	case TypeTournamentQueue:
		return decodeServer[TournamentQueue](data)
	case TypeTournamentGameStart:
		return decodeServer[TournamentGameStart](data)
	case TypeTournamentResults:
		return decodeServer[TournamentResults](data)
	case TypeError:
		return decodeServer[Error](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
}

// Encode renders a message as a JSON object with its type tag first.
func Encode(msg Message) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", msg.MessageType(), err)
	}
	tag, _ := json.Marshal(msg.MessageType())

	var buf bytes.Buffer
	buf.Grow(len(body) + len(tag) + 8)
	buf.WriteString(`{"type":`)
	buf.Write(tag)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

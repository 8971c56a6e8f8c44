package realtime

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/n0ll22/HouseholdRPG/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var validate = validator.New()

// Inbound event names.
const (
	EventRegisterUser        = "register_user"
	EventJoinChat            = "join_chat"
	EventNewChat             = "new_chat"
	EventSendMessage         = "send_message"
	EventSendFriendRequest   = "send_friendRequest"
	EventAnswerFriendRequest = "answer_friendRequest"
	EventUnsendFriendRequest = "unsend_friendRequest"
)

// Outbound event names.
const (
	EventReceiveStatus        = "receive_status"
	EventReceiveMessage       = "receive_message"
	EventNewMessage           = "newMessage"
	EventReceiveNewChat       = "receive_new_chat"
	EventChatJoined           = "chat_joined"
	EventReceiveFriendRequest = "receive_friendRequest"
	EventFriendRequestSent    = "friendRequest_sent"
	EventFriendRequestAnswer  = "receive_friendRequest_answer"
	EventUnsentFriendRequest  = "receive_unsent_friendRequest"
	EventFriendRequestError   = "friendRequest_error"
	EventChatError            = "chat_error"
	EventRegisterError        = "register_error"
	EventError                = "error"
)

// Envelope is the frame every message on the socket travels in.
type Envelope struct {
	Event string              `json:"event"`
	Data  jsoniter.RawMessage `json:"data"`
}

// Command is one decoded inbound event.
type Command interface {
	Event() string
}

type RegisterUser struct {
	UserID string `validate:"required,len=24,hexadecimal"`
}

type JoinChat struct {
	ChatID string `validate:"required,len=24,hexadecimal"`
}

type NewChat struct {
	ParticipantIDs []string `validate:"required,min=2,dive,len=24,hexadecimal"`
}

type SendMessage struct {
	ChatID   string `json:"chatId" validate:"required,len=24,hexadecimal"`
	SenderID string `json:"senderId" validate:"required,len=24,hexadecimal"`
	Content  string `json:"content" validate:"required,max=2000"`
}

type SendFriendRequest struct {
	SenderID   string `json:"senderId" validate:"required,len=24,hexadecimal"`
	ReceiverID string `json:"receiverId" validate:"required,len=24,hexadecimal"`
}

// AnswerFriendRequest carries the ids of both parties for the client's
// convenience. The server resolves the parties from the stored record.
type AnswerFriendRequest struct {
	ID         string `json:"id" validate:"required,len=24,hexadecimal"`
	Status     string `json:"status" validate:"required,oneof=accepted refused blocked"`
	SenderID   string `json:"senderId,omitempty"`
	ReceiverID string `json:"receiverId,omitempty"`
}

type UnsendFriendRequest struct {
	FriendshipID string `json:"friendshipId" validate:"required,len=24,hexadecimal"`
	RequesterID  string `json:"requesterId,omitempty"`
	OtherID      string `json:"otherId,omitempty"`
}

func (*RegisterUser) Event() string        { return EventRegisterUser }
func (*JoinChat) Event() string            { return EventJoinChat }
func (*NewChat) Event() string             { return EventNewChat }
func (*SendMessage) Event() string         { return EventSendMessage }
func (*SendFriendRequest) Event() string   { return EventSendFriendRequest }
func (*AnswerFriendRequest) Event() string { return EventAnswerFriendRequest }
func (*UnsendFriendRequest) Event() string { return EventUnsendFriendRequest }

var ErrUnknownEvent = errors.New("unknown event")

// DecodeError reports a frame that could not be turned into a Command.
type DecodeError struct {
	Event string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Event == "" {
		return fmt.Sprintf("malformed frame: %v", e.Err)
	}
	return fmt.Sprintf("malformed %s: %v", e.Event, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode parses and validates one inbound frame.
func Decode(raw []byte) (Command, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &DecodeError{Err: err}
	}

	var cmd Command
	switch env.Event {
	case EventRegisterUser:
		c := &RegisterUser{}
		if err := json.Unmarshal(env.Data, &c.UserID); err != nil {
			return nil, &DecodeError{Event: env.Event, Err: err}
		}
		cmd = c
	case EventJoinChat:
		c := &JoinChat{}
		if err := json.Unmarshal(env.Data, &c.ChatID); err != nil {
			return nil, &DecodeError{Event: env.Event, Err: err}
		}
		cmd = c
	case EventNewChat:
		c := &NewChat{}
		if err := json.Unmarshal(env.Data, &c.ParticipantIDs); err != nil {
			return nil, &DecodeError{Event: env.Event, Err: err}
		}
		cmd = c
	case EventSendMessage:
		cmd = &SendMessage{}
	case EventSendFriendRequest:
		cmd = &SendFriendRequest{}
	case EventAnswerFriendRequest:
		cmd = &AnswerFriendRequest{}
	case EventUnsendFriendRequest:
		cmd = &UnsendFriendRequest{}
	default:
		return nil, &DecodeError{Event: env.Event, Err: ErrUnknownEvent}
	}

	switch cmd.(type) {
	case *RegisterUser, *JoinChat, *NewChat:
	default:
		if len(env.Data) == 0 {
			return nil, &DecodeError{Event: env.Event, Err: errors.New("missing data")}
		}
		if err := json.Unmarshal(env.Data, cmd); err != nil {
			return nil, &DecodeError{Event: env.Event, Err: err}
		}
	}

	if err := validate.Struct(cmd); err != nil {
		return nil, &DecodeError{Event: env.Event, Err: err}
	}
	return cmd, nil
}

// Event is one outbound frame.
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data"`
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// ErrorPayload is the data of every *_error event.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Event   string `json:"event"`
}

func StatusEvent(user models.PublicUser) Event {
	return Event{Name: EventReceiveStatus, Data: user}
}

func MessageEvent(msg models.MessageView) Event {
	return Event{Name: EventReceiveMessage, Data: msg}
}

func NewMessageEvent(msg models.MessageView) Event {
	return Event{Name: EventNewMessage, Data: msg}
}

func NewChatEvent(chat models.ChatView) Event {
	return Event{Name: EventReceiveNewChat, Data: chat}
}

func ChatJoinedEvent(chatID string) Event {
	return Event{Name: EventChatJoined, Data: map[string]string{"chatId": chatID}}
}

func FriendRequestEvent(f models.FriendshipView) Event {
	return Event{Name: EventReceiveFriendRequest, Data: f}
}

func FriendRequestSentEvent(f models.FriendshipView) Event {
	return Event{Name: EventFriendRequestSent, Data: f}
}

// FriendRequestAnswerEvent carries the populated friendship, or only
// {id, status} when it was refused and no longer exists.
func FriendRequestAnswerEvent(f models.FriendshipView) Event {
	if f.Status == models.FriendshipRefused {
		return Event{Name: EventFriendRequestAnswer, Data: struct {
			ID     primitive.ObjectID `json:"id"`
			Status string             `json:"status"`
		}{f.ID, f.Status}}
	}
	return Event{Name: EventFriendRequestAnswer, Data: f}
}

func UnsentFriendRequestEvent(id primitive.ObjectID) Event {
	return Event{Name: EventUnsentFriendRequest, Data: map[string]primitive.ObjectID{"id": id}}
}

func ErrorEvent(name, code, message, cause string) Event {
	return Event{Name: name, Data: ErrorPayload{Code: code, Message: message, Event: cause}}
}

// errorEventFor names the error event a failed inbound event is answered with.
func errorEventFor(event string) string {
	switch event {
	case EventRegisterUser:
		return EventRegisterError
	case EventJoinChat, EventNewChat, EventSendMessage:
		return EventChatError
	case EventSendFriendRequest, EventAnswerFriendRequest, EventUnsendFriendRequest:
		return EventFriendRequestError
	default:
		return EventError
	}
}

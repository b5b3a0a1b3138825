package msg

import "encoding/json"

// chatMetaWire is the tagged-union wire shape for the ChatMeta interface:
// JSON has no notion of Go's sum types, so the concrete variant travels
// alongside its fields.
type chatMetaWire struct {
	Kind    string       `json:"kind,omitempty"`
	Discord *DiscordMeta `json:"discord,omitempty"`
	Stream  *StreamMeta  `json:"stream,omitempty"`
}

func marshalChatMeta(m ChatMeta) (json.RawMessage, error) {
	if m == nil {
		return nil, nil
	}
	var w chatMetaWire
	switch v := m.(type) {
	case DiscordMeta:
		w.Kind = "discord"
		w.Discord = &v
	case StreamMeta:
		w.Kind = "stream"
		w.Stream = &v
	default:
		return nil, nil
	}
	return json.Marshal(w)
}

func unmarshalChatMeta(data json.RawMessage) (ChatMeta, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var w chatMetaWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	switch w.Kind {
	case "discord":
		if w.Discord != nil {
			return *w.Discord, nil
		}
	case "stream":
		if w.Stream != nil {
			return *w.Stream, nil
		}
	}
	return nil, nil
}

type chatEventWire struct {
	Platform Platform        `json:"platform"`
	User     *User           `json:"user,omitempty"`
	Text     string          `json:"text"`
	Meta     json.RawMessage `json:"meta,omitempty"`
}

// MarshalJSON renders Meta through the tagged wire union rather than
// flattening it, so a consumer can tell a DiscordMeta from a StreamMeta
// without already knowing which platform sent the event.
func (c ChatEvent) MarshalJSON() ([]byte, error) {
	meta, err := marshalChatMeta(c.Meta)
	if err != nil {
		return nil, err
	}
	return json.Marshal(chatEventWire{Platform: c.Platform, User: c.User, Text: c.Text, Meta: meta})
}

func (c *ChatEvent) UnmarshalJSON(data []byte) error {
	var w chatEventWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	meta, err := unmarshalChatMeta(w.Meta)
	if err != nil {
		return err
	}
	c.Platform, c.User, c.Text, c.Meta = w.Platform, w.User, w.Text, meta
	return nil
}

type invocationWire struct {
	Platform      Platform          `json:"platform"`
	User          *User             `json:"user,omitempty"`
	Command       string            `json:"command"`
	Args          map[string]string `json:"args,omitempty"`
	Meta          json.RawMessage   `json:"meta,omitempty"`
	Kind          InvocationKind    `json:"kind"`
	ReactionMsgID string            `json:"reaction_msg_id,omitempty"`
	ReactionEmoji string            `json:"reaction_emoji,omitempty"`
	Stream        *StreamEvent      `json:"stream,omitempty"`
}

func (inv Invocation) MarshalJSON() ([]byte, error) {
	meta, err := marshalChatMeta(inv.Meta)
	if err != nil {
		return nil, err
	}
	return json.Marshal(invocationWire{
		Platform: inv.Platform, User: inv.User, Command: inv.Command, Args: inv.Args,
		Meta: meta, Kind: inv.Kind, ReactionMsgID: inv.ReactionMsgID, ReactionEmoji: inv.ReactionEmoji,
		Stream: inv.Stream,
	})
}

func (inv *Invocation) UnmarshalJSON(data []byte) error {
	var w invocationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	meta, err := unmarshalChatMeta(w.Meta)
	if err != nil {
		return err
	}
	*inv = Invocation{
		Platform: w.Platform, User: w.User, Command: w.Command, Args: w.Args,
		Meta: meta, Kind: w.Kind, ReactionMsgID: w.ReactionMsgID, ReactionEmoji: w.ReactionEmoji,
		Stream: w.Stream,
	}
	return nil
}

// envelopeWire is the Message{platform, channel, payload} shape carried by
// the upstream/downstream pub/sub channels and, post-authentication, by
// operator gateway sessions.
type envelopeWire struct {
	Platform Platform `json:"platform"`
	Channel  string   `json:"channel"`
	Payload  struct {
		Kind PayloadKind     `json:"kind"`
		Data json.RawMessage `json:"data"`
	} `json:"payload"`
}

// Envelope is a decoded wire message with its Data left raw, so the caller
// can pick the concrete type to unmarshal into based on Kind.
type Envelope struct {
	Platform Platform
	Channel  string
	Kind     PayloadKind
	Data     json.RawMessage
}

func DecodeEnvelope(raw []byte) (Envelope, error) {
	var w envelopeWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Envelope{}, err
	}
	return Envelope{Platform: w.Platform, Channel: w.Channel, Kind: w.Payload.Kind, Data: w.Payload.Data}, nil
}

// EncodeResponse renders r as the same Message{platform, channel, payload}
// wire shape DecodeEnvelope reads.
func EncodeResponse(r Response) ([]byte, error) {
	var w envelopeWire
	w.Platform = r.Platform
	w.Channel = r.Channel
	w.Payload.Kind = r.Payload.Kind
	data, err := json.Marshal(r.Payload.Data)
	if err != nil {
		return nil, err
	}
	w.Payload.Data = data
	return json.Marshal(w)
}

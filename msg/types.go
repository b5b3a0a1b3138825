// Package msg holds the wire-level and domain data model shared by the
// rules engine, the message engine, and the operator gateway: platform
// tags, permissions, chat events, invocations, and outbound responses.
package msg

import "time"

// Platform is a bitset over the chat surfaces the engine bridges.
type Platform uint8

const (
	YouTube Platform = 1 << iota
	Twitch
	Discord
	Web
)

// Derived platform sets used throughout the rule configuration and
// dispatch logic.
const (
	Stream   = YouTube | Twitch
	Chat     = Stream | Discord
	Announce = Discord | Web
)

// Has reports whether p includes every bit set in other.
func (p Platform) Has(other Platform) bool { return p&other == other }

// Any reports whether p shares any bit with other.
func (p Platform) Any(other Platform) bool { return p&other != 0 }

func (p Platform) String() string {
	switch p {
	case YouTube:
		return "youtube"
	case Twitch:
		return "twitch"
	case Discord:
		return "discord"
	case Web:
		return "web"
	default:
		return "mixed"
	}
}

// Permission is an ordered enum: higher values can do strictly more.
type Permission uint8

const (
	PermNone Permission = iota
	PermMember
	PermMod
	PermAdmin
	PermOwner
)

func (p Permission) String() string {
	switch p {
	case PermNone:
		return "none"
	case PermMember:
		return "member"
	case PermMod:
		return "mod"
	case PermAdmin:
		return "admin"
	case PermOwner:
		return "owner"
	default:
		return "unknown"
	}
}

// ModAction is an ordered enum; ordering defines severity for filter
// arbitration. Timeout carries its duration in seconds.
type ModAction struct {
	Kind    ModActionKind
	Seconds uint32
}

type ModActionKind uint8

const (
	ActionNone ModActionKind = iota
	ActionWarn
	ActionRemove
	ActionTimeout
	ActionKick
	ActionBan
)

// Severity returns an int usable for strict ordering comparisons; higher
// is more severe. Timeout sits between Remove and Kick regardless of its
// duration, matching the original enum's declaration order.
func (a ModAction) Severity() int { return int(a.Kind) }

func (a ModAction) String() string {
	switch a.Kind {
	case ActionNone:
		return "None"
	case ActionWarn:
		return "Warn"
	case ActionRemove:
		return "Remove"
	case ActionTimeout:
		return "Timeout"
	case ActionKick:
		return "Kick"
	case ActionBan:
		return "Ban"
	default:
		return "Unknown"
	}
}

// User identifies the author of a chat event or invocation. Permission is
// supplied by the adapter and never inferred by the engine.
type User struct {
	ID         string
	Name       string
	Permission Permission
}

// ChatMeta is the closed union of platform-specific chat metadata. Only
// Discord and the stream platforms carry anything beyond the bare
// (user, text) pair the original's six-variant enum collapses to.
type ChatMeta interface{ isChatMeta() }

// DiscordMeta carries the fields Discord chat events need for correlated
// replies, role actions, and attachment-aware filters.
type DiscordMeta struct {
	ChannelID         string
	GuildID           string
	Attachments       []Attachment
	Stickers          []string
	InteractionToken  string
	InteractionID     uint64
	Ephemeral         bool
	DirectMessage     bool
}

func (DiscordMeta) isChatMeta() {}

// Attachment is a filename/URL pair, as the original's Discord variants
// carry for uploaded files.
type Attachment struct {
	Filename string
	URL      string
}

// StreamMeta carries the originating channel name for YouTube/Twitch chat
// events.
type StreamMeta struct {
	Channel string
}

func (StreamMeta) isChatMeta() {}

// ChatEvent is one incoming chat message. Platform is carried explicitly
// rather than inferred from Meta, since StreamMeta alone can't
// distinguish YouTube from Twitch.
type ChatEvent struct {
	Platform Platform
	User     *User
	Text     string
	Meta     ChatMeta
}

// InvocationKind distinguishes the ways a command can be dispatched.
type InvocationKind int

const (
	KindInvoke InvocationKind = iota
	KindAutocomplete
	KindReaction
	KindStreamEvent
	KindInit
)

// StreamEventKind enumerates the stream lifecycle signals a platform
// adapter can report.
type StreamEventKind int

const (
	StreamDetectStart StreamEventKind = iota
	StreamStarted
	StreamDetectStop
	StreamStopped
)

// StreamEvent is the payload of a KindStreamEvent invocation.
type StreamEvent struct {
	Kind StreamEventKind
	URL  string
	ID   string
}

// Invocation is a command dispatch: a direct user command, an
// autocomplete request, a reaction toggle, a stream lifecycle event, or a
// one-shot init call made to every command at configuration install time.
type Invocation struct {
	Platform      Platform
	User          *User
	Command       string
	Args          map[string]string
	Meta          ChatMeta
	Kind          InvocationKind
	ReactionMsgID string
	ReactionEmoji string
	Stream        *StreamEvent
}

// Location selects where an outbound Response is delivered.
type Location struct {
	Kind LocationKind
	// Addr is the single-session address for LocationClient.
	Addr string
	// Addrs, when non-nil, restricts LocationClients to this subset;
	// nil means every active session.
	Addrs []string
}

type LocationKind int

const (
	LocationPubsub LocationKind = iota
	LocationClient
	LocationClients
	LocationBroadcast
)

func ToClient(addr string) Location     { return Location{Kind: LocationClient, Addr: addr} }
func ToClients(addrs []string) Location { return Location{Kind: LocationClients, Addrs: addrs} }
func ToAllClients() Location            { return Location{Kind: LocationClients} }

var (
	Pubsub    = Location{Kind: LocationPubsub}
	Broadcast = Location{Kind: LocationBroadcast}
)

// Response is an outbound event bound for a Location.
type Response struct {
	Platform Platform
	Channel  string
	Payload  Payload
	At       time.Time
}

// PayloadKind tags the concrete shape Payload.Data carries.
type PayloadKind string

const (
	PayloadMessage        PayloadKind = "message"
	PayloadPing           PayloadKind = "ping"
	PayloadModAction      PayloadKind = "mod_action"
	PayloadStreamSignal   PayloadKind = "stream_signal"
	PayloadStreamAnnounce PayloadKind = "stream_announcement"
	PayloadAutocorrect    PayloadKind = "autocorrect"
	PayloadAutocomplete   PayloadKind = "autocomplete"
	PayloadConfigDump     PayloadKind = "config_dump"
	PayloadConfigSaved    PayloadKind = "config_saved"
	PayloadConfigChanged  PayloadKind = "config_changed"
	PayloadSchemaDump     PayloadKind = "schema_dump"
	PayloadLogDump        PayloadKind = "log_dump"
	PayloadModActionsDump PayloadKind = "mod_actions_dump"
	PayloadArgsDump       PayloadKind = "args_dump"
	PayloadDiscordAction  PayloadKind = "discord_action"
	PayloadChat           PayloadKind = "chat"
	PayloadInvoke         PayloadKind = "invoke_command"
	PayloadStreamEvent    PayloadKind = "stream_event"
)

// Payload is a tagged union rendered as Kind + an any Data value, so it
// serializes as plain JSON without Go-specific type tags.
type Payload struct {
	Kind PayloadKind
	Data any
}

// MessagePayload is the shape of a user-facing reply.
type MessagePayload struct {
	User *User
	Text string
	Meta ChatMeta
}

// PingPayload carries a cross-platform notification.
type PingPayload struct {
	Pinger *User
	Pingee *User
	Text   string
}

// ModActionPayload records a moderation action taken by the engine.
type ModActionPayload struct {
	User   *User
	Action ModAction
	Reason string
}

// AutocorrectPayload suggests prefixes close to what the user typed.
type AutocorrectPayload struct {
	User        *User
	Suggestions []string
}

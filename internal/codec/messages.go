package codec

// Message ids (normative list, spec §4.5). These are the ascii ids carried
// in every frame header.
const (
	IDCreateRoomRequest   = "CreateRoomRequest"
	IDCreateRoomResponse  = "CreateRoomResponse"
	IDJoinRoomRequest     = "JoinRoomRequest"
	IDJoinRoomResponse    = "JoinRoomResponse"
	IDLeaveRoomRequest    = "LeaveRoomRequest"
	IDLeaveRoomResponse   = "LeaveRoomResponse"
	IDPlayerJoinedRoom    = "PlayerJoinedRoom"
	IDPlayerLeftRoom      = "PlayerLeftRoom"
	IDGetRoomListRequest  = "GetRoomListRequest"
	IDGetRoomListResponse = "GetRoomListResponse"
	IDPlayerReadyRequest  = "PlayerReadyRequest"
	IDPlayerReadyBroadcast = "PlayerReadyBroadcast"
	IDStartGameRequest    = "StartGameRequest"
	IDGameStartedBroadcast = "GameStartedBroadcast"
	IDPlayerPositionUpdate = "PlayerPositionUpdate"
	IDPlayerPositionBroadcast = "PlayerPositionBroadcast"
	IDPlayerAction        = "PlayerAction"
	IDPlayerActionBroadcast = "PlayerActionBroadcast"
	IDChatMessage         = "ChatMessage"
	IDChatMessageBroadcast = "ChatMessageBroadcast"
	IDLinkPreviewBroadcast = "LinkPreviewBroadcast"
	IDPingRequest         = "PingRequest"
	IDPongResponse        = "PongResponse"
	IDHeartbeat           = "Heartbeat"
	IDAudioPacket         = "AudioPacket"
	IDVoiceStateUpdate    = "VoiceStateUpdate"
	IDPushToTalkState     = "PushToTalkState"
	IDVoiceSettingsUpdate = "VoiceSettingsUpdate"
	IDVoiceQualityMetrics = "VoiceQualityMetrics"
	IDAudioDeviceRequest  = "AudioDeviceRequest"
	IDKickPlayer          = "KickPlayer"
	IDBanPlayer           = "BanPlayer"
	IDUnbanPlayer         = "UnbanPlayer"
	IDMutePlayer          = "MutePlayer"
	IDUnmutePlayer        = "UnmutePlayer"
	IDServerBroadcast     = "ServerBroadcast"
	IDCloseRoom           = "CloseRoom"
	IDAdminResponse       = "AdminResponse"
	IDServerShutdown      = "ServerShutdownNotice"
	IDHelloRequest        = "HelloRequest"
	IDHelloResponse       = "HelloResponse"
)

// Vec3 is a 3-D position or velocity.
type Vec3 struct{ X, Y, Z float32 }

// Quat is a rotation quaternion.
type Quat struct{ X, Y, Z, W float32 }

// --- room lifecycle --------------------------------------------------

type CreateRoomRequest struct {
	Name         string
	Max          uint32
	Private      bool
	PasswordHash string
}

func (m CreateRoomRequest) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.Name)
	w.WriteU32(m.Max)
	w.WriteBool(m.Private)
	w.WriteString(m.PasswordHash)
	return w.Bytes()
}

func DecodeCreateRoomRequest(b []byte) (CreateRoomRequest, error) {
	r := NewReader(b)
	var m CreateRoomRequest
	var err error
	if m.Name, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.Max, err = r.ReadU32(); err != nil {
		return m, err
	}
	if m.Private, err = r.ReadBool(); err != nil {
		return m, err
	}
	if m.PasswordHash, err = r.ReadString(); err != nil {
		return m, err
	}
	return m, nil
}

type CreateRoomResponse struct {
	OK     bool
	RoomID string
	Error  string
}

func (m CreateRoomResponse) Encode() []byte {
	w := NewWriter()
	w.WriteBool(m.OK)
	w.WriteString(m.RoomID)
	w.WriteString(m.Error)
	return w.Bytes()
}

func DecodeCreateRoomResponse(b []byte) (CreateRoomResponse, error) {
	r := NewReader(b)
	var m CreateRoomResponse
	var err error
	if m.OK, err = r.ReadBool(); err != nil {
		return m, err
	}
	if m.RoomID, err = r.ReadString(); err != nil {
		return m, err
	}
	m.Error, err = r.ReadString()
	return m, err
}

type JoinRoomRequest struct {
	RoomID       string
	Name         string
	PasswordHash string
}

func (m JoinRoomRequest) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.RoomID)
	w.WriteString(m.Name)
	w.WriteString(m.PasswordHash)
	return w.Bytes()
}

func DecodeJoinRoomRequest(b []byte) (JoinRoomRequest, error) {
	r := NewReader(b)
	var m JoinRoomRequest
	var err error
	if m.RoomID, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.Name, err = r.ReadString(); err != nil {
		return m, err
	}
	m.PasswordHash, err = r.ReadString()
	return m, err
}

// RoomInfo is the snapshot payload embedded in JoinRoomResponse and
// GetRoomListResponse.
type RoomInfo struct {
	ID       string
	Name     string
	Max      uint32
	Count    uint32
	Private  bool
	State    string
	OwnerID  string
}

func writeRoomInfo(w *Writer, ri RoomInfo) {
	w.WriteString(ri.ID)
	w.WriteString(ri.Name)
	w.WriteU32(ri.Max)
	w.WriteU32(ri.Count)
	w.WriteBool(ri.Private)
	w.WriteString(ri.State)
	w.WriteString(ri.OwnerID)
}

func readRoomInfo(r *Reader) (RoomInfo, error) {
	var ri RoomInfo
	var err error
	if ri.ID, err = r.ReadString(); err != nil {
		return ri, err
	}
	if ri.Name, err = r.ReadString(); err != nil {
		return ri, err
	}
	if ri.Max, err = r.ReadU32(); err != nil {
		return ri, err
	}
	if ri.Count, err = r.ReadU32(); err != nil {
		return ri, err
	}
	if ri.Private, err = r.ReadBool(); err != nil {
		return ri, err
	}
	if ri.State, err = r.ReadString(); err != nil {
		return ri, err
	}
	ri.OwnerID, err = r.ReadString()
	return ri, err
}

type JoinRoomResponse struct {
	OK       bool
	RoomInfo RoomInfo
	Error    string
}

func (m JoinRoomResponse) Encode() []byte {
	w := NewWriter()
	w.WriteBool(m.OK)
	writeRoomInfo(w, m.RoomInfo)
	w.WriteString(m.Error)
	return w.Bytes()
}

func DecodeJoinRoomResponse(b []byte) (JoinRoomResponse, error) {
	r := NewReader(b)
	var m JoinRoomResponse
	var err error
	if m.OK, err = r.ReadBool(); err != nil {
		return m, err
	}
	if m.RoomInfo, err = readRoomInfo(r); err != nil {
		return m, err
	}
	m.Error, err = r.ReadString()
	return m, err
}

type LeaveRoomRequest struct{ RoomID string }

func (m LeaveRoomRequest) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.RoomID)
	return w.Bytes()
}

func DecodeLeaveRoomRequest(b []byte) (LeaveRoomRequest, error) {
	r := NewReader(b)
	var m LeaveRoomRequest
	var err error
	m.RoomID, err = r.ReadString()
	return m, err
}

type LeaveRoomResponse struct {
	OK    bool
	Error string
}

func (m LeaveRoomResponse) Encode() []byte {
	w := NewWriter()
	w.WriteBool(m.OK)
	w.WriteString(m.Error)
	return w.Bytes()
}

func DecodeLeaveRoomResponse(b []byte) (LeaveRoomResponse, error) {
	r := NewReader(b)
	var m LeaveRoomResponse
	var err error
	if m.OK, err = r.ReadBool(); err != nil {
		return m, err
	}
	m.Error, err = r.ReadString()
	return m, err
}

type PlayerJoinedRoom struct {
	RoomID   string
	PlayerID string
	Name     string
}

func (m PlayerJoinedRoom) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.RoomID)
	w.WriteString(m.PlayerID)
	w.WriteString(m.Name)
	return w.Bytes()
}

func DecodePlayerJoinedRoom(b []byte) (PlayerJoinedRoom, error) {
	r := NewReader(b)
	var m PlayerJoinedRoom
	var err error
	if m.RoomID, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.PlayerID, err = r.ReadString(); err != nil {
		return m, err
	}
	m.Name, err = r.ReadString()
	return m, err
}

type PlayerLeftRoom struct {
	RoomID   string
	PlayerID string
}

func (m PlayerLeftRoom) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.RoomID)
	w.WriteString(m.PlayerID)
	return w.Bytes()
}

func DecodePlayerLeftRoom(b []byte) (PlayerLeftRoom, error) {
	r := NewReader(b)
	var m PlayerLeftRoom
	var err error
	if m.RoomID, err = r.ReadString(); err != nil {
		return m, err
	}
	m.PlayerID, err = r.ReadString()
	return m, err
}

type GetRoomListRequest struct{}

func (m GetRoomListRequest) Encode() []byte { return nil }

func DecodeGetRoomListRequest([]byte) (GetRoomListRequest, error) {
	return GetRoomListRequest{}, nil
}

type GetRoomListResponse struct{ Rooms []RoomInfo }

func (m GetRoomListResponse) Encode() []byte {
	w := NewWriter()
	w.WriteU32(uint32(len(m.Rooms)))
	for _, ri := range m.Rooms {
		writeRoomInfo(w, ri)
	}
	return w.Bytes()
}

func DecodeGetRoomListResponse(b []byte) (GetRoomListResponse, error) {
	r := NewReader(b)
	var m GetRoomListResponse
	n, err := r.ReadU32()
	if err != nil {
		return m, err
	}
	m.Rooms = make([]RoomInfo, 0, n)
	for i := uint32(0); i < n; i++ {
		ri, err := readRoomInfo(r)
		if err != nil {
			return m, err
		}
		m.Rooms = append(m.Rooms, ri)
	}
	return m, nil
}

// --- readiness / game lifecycle ---------------------------------------

type PlayerReadyRequest struct{ Ready bool }

func (m PlayerReadyRequest) Encode() []byte {
	w := NewWriter()
	w.WriteBool(m.Ready)
	return w.Bytes()
}

func DecodePlayerReadyRequest(b []byte) (PlayerReadyRequest, error) {
	r := NewReader(b)
	var m PlayerReadyRequest
	var err error
	m.Ready, err = r.ReadBool()
	return m, err
}

type PlayerReadyBroadcast struct {
	PlayerID string
	Ready    bool
}

func (m PlayerReadyBroadcast) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.PlayerID)
	w.WriteBool(m.Ready)
	return w.Bytes()
}

func DecodePlayerReadyBroadcast(b []byte) (PlayerReadyBroadcast, error) {
	r := NewReader(b)
	var m PlayerReadyBroadcast
	var err error
	if m.PlayerID, err = r.ReadString(); err != nil {
		return m, err
	}
	m.Ready, err = r.ReadBool()
	return m, err
}

type StartGameRequest struct{ RoomID string }

func (m StartGameRequest) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.RoomID)
	return w.Bytes()
}

func DecodeStartGameRequest(b []byte) (StartGameRequest, error) {
	r := NewReader(b)
	var m StartGameRequest
	var err error
	m.RoomID, err = r.ReadString()
	return m, err
}

type GameStartedBroadcast struct{ RoomID string }

func (m GameStartedBroadcast) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.RoomID)
	return w.Bytes()
}

func DecodeGameStartedBroadcast(b []byte) (GameStartedBroadcast, error) {
	r := NewReader(b)
	var m GameStartedBroadcast
	var err error
	m.RoomID, err = r.ReadString()
	return m, err
}

// --- movement (datagram) ----------------------------------------------

type PlayerPositionUpdate struct {
	Seq      uint32
	Position Vec3
	Rotation Quat
	Velocity Vec3
}

func (m PlayerPositionUpdate) Encode() []byte {
	w := NewWriter()
	w.WriteU32(m.Seq)
	w.WriteF32(m.Position.X)
	w.WriteF32(m.Position.Y)
	w.WriteF32(m.Position.Z)
	w.WriteF32(m.Rotation.X)
	w.WriteF32(m.Rotation.Y)
	w.WriteF32(m.Rotation.Z)
	w.WriteF32(m.Rotation.W)
	w.WriteF32(m.Velocity.X)
	w.WriteF32(m.Velocity.Y)
	w.WriteF32(m.Velocity.Z)
	return w.Bytes()
}

func DecodePlayerPositionUpdate(b []byte) (PlayerPositionUpdate, error) {
	r := NewReader(b)
	var m PlayerPositionUpdate
	var err error
	if m.Seq, err = r.ReadU32(); err != nil {
		return m, err
	}
	vals := make([]*float32, 0, 10)
	vals = append(vals, &m.Position.X, &m.Position.Y, &m.Position.Z,
		&m.Rotation.X, &m.Rotation.Y, &m.Rotation.Z, &m.Rotation.W,
		&m.Velocity.X, &m.Velocity.Y, &m.Velocity.Z)
	for _, v := range vals {
		if *v, err = r.ReadF32(); err != nil {
			return m, err
		}
	}
	return m, nil
}

type PlayerPositionBroadcast struct {
	PlayerID string
	Position Vec3
	Rotation Quat
	Velocity Vec3
}

func (m PlayerPositionBroadcast) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.PlayerID)
	w.WriteF32(m.Position.X)
	w.WriteF32(m.Position.Y)
	w.WriteF32(m.Position.Z)
	w.WriteF32(m.Rotation.X)
	w.WriteF32(m.Rotation.Y)
	w.WriteF32(m.Rotation.Z)
	w.WriteF32(m.Rotation.W)
	w.WriteF32(m.Velocity.X)
	w.WriteF32(m.Velocity.Y)
	w.WriteF32(m.Velocity.Z)
	return w.Bytes()
}

func DecodePlayerPositionBroadcast(b []byte) (PlayerPositionBroadcast, error) {
	r := NewReader(b)
	var m PlayerPositionBroadcast
	var err error
	if m.PlayerID, err = r.ReadString(); err != nil {
		return m, err
	}
	vals := []*float32{&m.Position.X, &m.Position.Y, &m.Position.Z,
		&m.Rotation.X, &m.Rotation.Y, &m.Rotation.Z, &m.Rotation.W,
		&m.Velocity.X, &m.Velocity.Y, &m.Velocity.Z}
	for _, v := range vals {
		if *v, err = r.ReadF32(); err != nil {
			return m, err
		}
	}
	return m, nil
}

// --- gameplay actions (datagram) ---------------------------------------

type PlayerAction struct {
	ActionType string // attack|jump|shoot|interact|death|kill
	TargetID   string
}

func (m PlayerAction) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.ActionType)
	w.WriteString(m.TargetID)
	return w.Bytes()
}

func DecodePlayerAction(b []byte) (PlayerAction, error) {
	r := NewReader(b)
	var m PlayerAction
	var err error
	if m.ActionType, err = r.ReadString(); err != nil {
		return m, err
	}
	m.TargetID, err = r.ReadString()
	return m, err
}

type PlayerActionBroadcast struct {
	PlayerID   string
	ActionType string
	TargetID   string
}

func (m PlayerActionBroadcast) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.PlayerID)
	w.WriteString(m.ActionType)
	w.WriteString(m.TargetID)
	return w.Bytes()
}

func DecodePlayerActionBroadcast(b []byte) (PlayerActionBroadcast, error) {
	r := NewReader(b)
	var m PlayerActionBroadcast
	var err error
	if m.PlayerID, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.ActionType, err = r.ReadString(); err != nil {
		return m, err
	}
	m.TargetID, err = r.ReadString()
	return m, err
}

// --- chat ---------------------------------------------------------------

type ChatMessage struct{ Message string }

func (m ChatMessage) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.Message)
	return w.Bytes()
}

func DecodeChatMessage(b []byte) (ChatMessage, error) {
	r := NewReader(b)
	var m ChatMessage
	var err error
	m.Message, err = r.ReadString()
	return m, err
}

type ChatMessageBroadcast struct {
	PlayerID  string
	Message   string
	Timestamp int64
}

func (m ChatMessageBroadcast) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.PlayerID)
	w.WriteString(m.Message)
	w.WriteI64(m.Timestamp)
	return w.Bytes()
}

func DecodeChatMessageBroadcast(b []byte) (ChatMessageBroadcast, error) {
	r := NewReader(b)
	var m ChatMessageBroadcast
	var err error
	if m.PlayerID, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.Message, err = r.ReadString(); err != nil {
		return m, err
	}
	m.Timestamp, err = r.ReadI64()
	return m, err
}

type LinkPreviewBroadcast struct {
	URL, Title, Desc, Image string
}

func (m LinkPreviewBroadcast) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.URL)
	w.WriteString(m.Title)
	w.WriteString(m.Desc)
	w.WriteString(m.Image)
	return w.Bytes()
}

func DecodeLinkPreviewBroadcast(b []byte) (LinkPreviewBroadcast, error) {
	r := NewReader(b)
	var m LinkPreviewBroadcast
	var err error
	if m.URL, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.Title, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.Desc, err = r.ReadString(); err != nil {
		return m, err
	}
	m.Image, err = r.ReadString()
	return m, err
}

// --- liveness -------------------------------------------------------------

type PingRequest struct{ ClientTS int64 }

func (m PingRequest) Encode() []byte {
	w := NewWriter()
	w.WriteI64(m.ClientTS)
	return w.Bytes()
}

func DecodePingRequest(b []byte) (PingRequest, error) {
	r := NewReader(b)
	var m PingRequest
	var err error
	m.ClientTS, err = r.ReadI64()
	return m, err
}

type PongResponse struct{ ClientTS, ServerTS int64 }

func (m PongResponse) Encode() []byte {
	w := NewWriter()
	w.WriteI64(m.ClientTS)
	w.WriteI64(m.ServerTS)
	return w.Bytes()
}

func DecodePongResponse(b []byte) (PongResponse, error) {
	r := NewReader(b)
	var m PongResponse
	var err error
	if m.ClientTS, err = r.ReadI64(); err != nil {
		return m, err
	}
	m.ServerTS, err = r.ReadI64()
	return m, err
}

type Heartbeat struct{}

func (m Heartbeat) Encode() []byte { return nil }

func DecodeHeartbeat([]byte) (Heartbeat, error) { return Heartbeat{}, nil }

// --- voice ------------------------------------------------------------

// AudioPacket is a datagram body (after the shared session-id header); Seq
// supports NACK-free staleness handling, and Payload is opaque audio data.
// Gain is the attenuation the server computed for this specific listener
// from positional audio (spec §4.5 "relay with attenuation metadata"); a
// client sends 1.0 (full volume, no attenuation applied yet) and the
// relay rewrites it per-listener before forwarding.
type AudioPacket struct {
	Seq     uint16
	Gain    float32
	Payload []byte
}

func (m AudioPacket) Encode() []byte {
	w := NewWriter()
	w.WriteU16(m.Seq)
	w.WriteF32(m.Gain)
	w.WriteBytes(m.Payload)
	return w.Bytes()
}

func DecodeAudioPacket(b []byte) (AudioPacket, error) {
	r := NewReader(b)
	var m AudioPacket
	var err error
	if m.Seq, err = r.ReadU16(); err != nil {
		return m, err
	}
	if m.Gain, err = r.ReadF32(); err != nil {
		return m, err
	}
	m.Payload, err = r.ReadBytes()
	return m, err
}

type VoiceStateUpdate struct {
	Muted    bool
	Deafened bool
}

func (m VoiceStateUpdate) Encode() []byte {
	w := NewWriter()
	w.WriteBool(m.Muted)
	w.WriteBool(m.Deafened)
	return w.Bytes()
}

func DecodeVoiceStateUpdate(b []byte) (VoiceStateUpdate, error) {
	r := NewReader(b)
	var m VoiceStateUpdate
	var err error
	if m.Muted, err = r.ReadBool(); err != nil {
		return m, err
	}
	m.Deafened, err = r.ReadBool()
	return m, err
}

type PushToTalkState struct{ Active bool }

func (m PushToTalkState) Encode() []byte {
	w := NewWriter()
	w.WriteBool(m.Active)
	return w.Bytes()
}

func DecodePushToTalkState(b []byte) (PushToTalkState, error) {
	r := NewReader(b)
	var m PushToTalkState
	var err error
	m.Active, err = r.ReadBool()
	return m, err
}

type VoiceSettingsUpdate struct {
	ActivationMode string // "vad" | "ptt"
	VolumeIn       float32
	VolumeOut      float32
}

func (m VoiceSettingsUpdate) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.ActivationMode)
	w.WriteF32(m.VolumeIn)
	w.WriteF32(m.VolumeOut)
	return w.Bytes()
}

func DecodeVoiceSettingsUpdate(b []byte) (VoiceSettingsUpdate, error) {
	r := NewReader(b)
	var m VoiceSettingsUpdate
	var err error
	if m.ActivationMode, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.VolumeIn, err = r.ReadF32(); err != nil {
		return m, err
	}
	m.VolumeOut, err = r.ReadF32()
	return m, err
}

type VoiceQualityMetrics struct {
	PacketLoss float32
	JitterMs   float32
}

func (m VoiceQualityMetrics) Encode() []byte {
	w := NewWriter()
	w.WriteF32(m.PacketLoss)
	w.WriteF32(m.JitterMs)
	return w.Bytes()
}

func DecodeVoiceQualityMetrics(b []byte) (VoiceQualityMetrics, error) {
	r := NewReader(b)
	var m VoiceQualityMetrics
	var err error
	if m.PacketLoss, err = r.ReadF32(); err != nil {
		return m, err
	}
	m.JitterMs, err = r.ReadF32()
	return m, err
}

type AudioDeviceRequest struct{ DeviceName string }

func (m AudioDeviceRequest) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.DeviceName)
	return w.Bytes()
}

func DecodeAudioDeviceRequest(b []byte) (AudioDeviceRequest, error) {
	r := NewReader(b)
	var m AudioDeviceRequest
	var err error
	m.DeviceName, err = r.ReadString()
	return m, err
}

// --- admin --------------------------------------------------------------

type KickPlayer struct {
	PlayerID string
	Reason   string
}

func (m KickPlayer) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.PlayerID)
	w.WriteString(m.Reason)
	return w.Bytes()
}

func DecodeKickPlayer(b []byte) (KickPlayer, error) {
	r := NewReader(b)
	var m KickPlayer
	var err error
	if m.PlayerID, err = r.ReadString(); err != nil {
		return m, err
	}
	m.Reason, err = r.ReadString()
	return m, err
}

type BanPlayer struct {
	PlayerID        string
	Reason          string
	DurationSeconds int64 // 0 = permanent
}

func (m BanPlayer) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.PlayerID)
	w.WriteString(m.Reason)
	w.WriteI64(m.DurationSeconds)
	return w.Bytes()
}

func DecodeBanPlayer(b []byte) (BanPlayer, error) {
	r := NewReader(b)
	var m BanPlayer
	var err error
	if m.PlayerID, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.Reason, err = r.ReadString(); err != nil {
		return m, err
	}
	m.DurationSeconds, err = r.ReadI64()
	return m, err
}

type UnbanPlayer struct{ PlayerID string }

func (m UnbanPlayer) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.PlayerID)
	return w.Bytes()
}

func DecodeUnbanPlayer(b []byte) (UnbanPlayer, error) {
	r := NewReader(b)
	var m UnbanPlayer
	var err error
	m.PlayerID, err = r.ReadString()
	return m, err
}

type MutePlayer struct{ PlayerID string }

func (m MutePlayer) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.PlayerID)
	return w.Bytes()
}

func DecodeMutePlayer(b []byte) (MutePlayer, error) {
	r := NewReader(b)
	var m MutePlayer
	var err error
	m.PlayerID, err = r.ReadString()
	return m, err
}

type UnmutePlayer struct{ PlayerID string }

func (m UnmutePlayer) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.PlayerID)
	return w.Bytes()
}

func DecodeUnmutePlayer(b []byte) (UnmutePlayer, error) {
	r := NewReader(b)
	var m UnmutePlayer
	var err error
	m.PlayerID, err = r.ReadString()
	return m, err
}

type ServerBroadcast struct{ Message string }

func (m ServerBroadcast) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.Message)
	return w.Bytes()
}

func DecodeServerBroadcast(b []byte) (ServerBroadcast, error) {
	r := NewReader(b)
	var m ServerBroadcast
	var err error
	m.Message, err = r.ReadString()
	return m, err
}

type CloseRoom struct{ RoomID string }

func (m CloseRoom) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.RoomID)
	return w.Bytes()
}

func DecodeCloseRoom(b []byte) (CloseRoom, error) {
	r := NewReader(b)
	var m CloseRoom
	var err error
	m.RoomID, err = r.ReadString()
	return m, err
}

// AdminResponse is the generic {ok, error_kind?, message?} reply used by
// every admin-initiated request id, per spec §7.
type AdminResponse struct {
	OK        bool
	ErrorKind string
	Message   string
}

func (m AdminResponse) Encode() []byte {
	w := NewWriter()
	w.WriteBool(m.OK)
	w.WriteString(m.ErrorKind)
	w.WriteString(m.Message)
	return w.Bytes()
}

func DecodeAdminResponse(b []byte) (AdminResponse, error) {
	r := NewReader(b)
	var m AdminResponse
	var err error
	if m.OK, err = r.ReadBool(); err != nil {
		return m, err
	}
	if m.ErrorKind, err = r.ReadString(); err != nil {
		return m, err
	}
	m.Message, err = r.ReadString()
	return m, err
}

// ServerShutdownNotice is broadcast to every session when the server begins
// a graceful shutdown (spec §5).
type ServerShutdownNotice struct {
	Reason       string
	DrainSeconds uint32
}

func (m ServerShutdownNotice) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.Reason)
	w.WriteU32(m.DrainSeconds)
	return w.Bytes()
}

func DecodeServerShutdownNotice(b []byte) (ServerShutdownNotice, error) {
	r := NewReader(b)
	var m ServerShutdownNotice
	var err error
	if m.Reason, err = r.ReadString(); err != nil {
		return m, err
	}
	m.DrainSeconds, err = r.ReadU32()
	return m, err
}

// HelloRequest is the first frame a client must send on its reliable stream,
// before anything else is dispatched. It is handled by the transport layer
// directly, not through the Dispatcher.
type HelloRequest struct {
	Name string
	// ClientKey is the client's durable identity, stable across reconnects
	// (a credential/pubkey-style value the client generates and keeps, the
	// same role the teacher's chat server gives a client's pubkey). Session
	// ids are minted fresh per connection and cannot be banned against, so
	// ban records and the accept-time ban check key off ClientKey instead.
	ClientKey string
	// AdminToken is checked against the server's configured admin token
	// (main.go flag); a match grants the session the admin role for the
	// lifetime of the connection. Empty for ordinary players.
	AdminToken string
}

func (m HelloRequest) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.Name)
	w.WriteString(m.ClientKey)
	w.WriteString(m.AdminToken)
	return w.Bytes()
}

func DecodeHelloRequest(b []byte) (HelloRequest, error) {
	r := NewReader(b)
	var m HelloRequest
	var err error
	if m.Name, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.ClientKey, err = r.ReadString(); err != nil {
		return m, err
	}
	m.AdminToken, err = r.ReadString()
	return m, err
}

// HelloResponse carries the session id the server assigned, so the client
// can stamp it onto outgoing datagrams. Rejected is set (with SessionID
// empty) when serveControlStream refuses the connection, either because the
// server is at its player cap or because the accept-time ban check fails;
// the server closes the stream immediately after sending it.
type HelloResponse struct {
	SessionID    string
	ServerTS     int64
	Rejected     bool
	RejectReason string
}

func (m HelloResponse) Encode() []byte {
	w := NewWriter()
	w.WriteString(m.SessionID)
	w.WriteI64(m.ServerTS)
	w.WriteBool(m.Rejected)
	w.WriteString(m.RejectReason)
	return w.Bytes()
}

func DecodeHelloResponse(b []byte) (HelloResponse, error) {
	r := NewReader(b)
	var m HelloResponse
	var err error
	if m.SessionID, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.ServerTS, err = r.ReadI64(); err != nil {
		return m, err
	}
	if m.Rejected, err = r.ReadBool(); err != nil {
		return m, err
	}
	m.RejectReason, err = r.ReadString()
	return m, err
}
